package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	// HeaderSize is the length of the frame header in bytes.
	HeaderSize = 8

	// MaxBodyLength bounds the body allocation for a single frame.
	MaxBodyLength = 64 << 20
)

// ErrBodyTooLarge is returned when a frame header announces a body above MaxBodyLength.
var ErrBodyTooLarge = errors.New("frame body too large")

// Header is the fixed-size frame prefix.
type Header struct {
	Type       MessageType
	BodyLength uint32
}

// WriteFrame writes the header and body of one message.
func WriteFrame(w io.Writer, msgType MessageType, body []byte) error {
	if len(body) > MaxBodyLength {
		return fmt.Errorf("%w: %d bytes", ErrBodyTooLarge, len(body))
	}

	var hdr [HeaderSize]byte
	binary.BigEndian.PutUint32(hdr[0:4], uint32(msgType))
	binary.BigEndian.PutUint32(hdr[4:8], uint32(len(body)))

	if _, err := w.Write(hdr[:]); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	return nil
}

// ReadHeader reads one frame header.
func ReadHeader(r io.Reader) (Header, error) {
	var hdr [HeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return Header{}, fmt.Errorf("read header: %w", err)
	}
	return Header{
		Type:       MessageType(binary.BigEndian.Uint32(hdr[0:4])),
		BodyLength: binary.BigEndian.Uint32(hdr[4:8]),
	}, nil
}

// ReadFrame reads one complete frame and returns its type and body.
func ReadFrame(r io.Reader) (MessageType, []byte, error) {
	hdr, err := ReadHeader(r)
	if err != nil {
		return 0, nil, err
	}
	if hdr.BodyLength > MaxBodyLength {
		return 0, nil, fmt.Errorf("%w: %d bytes", ErrBodyTooLarge, hdr.BodyLength)
	}

	body := make([]byte, hdr.BodyLength)
	if _, err := io.ReadFull(r, body); err != nil {
		return 0, nil, fmt.Errorf("read body: %w", err)
	}
	return hdr.Type, body, nil
}
