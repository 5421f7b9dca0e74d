// Package conn provides the readingdb connection: a single TCP session that
// sends range queries and reads framed responses.
//
// All blocking network I/O of the fetch engine happens behind this package.
// No read or write deadlines are set; a hung server hangs the caller.
package conn

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/Sternrassler/readingdb-client/pkg/logging"
	"github.com/Sternrassler/readingdb-client/pkg/wire"
	"github.com/rs/zerolog"
)

// ErrUnexpectedMessage is returned when the server replies with a frame that is not a response.
var ErrUnexpectedMessage = errors.New("unexpected message type")

// StatusError is returned by ReceiveResponse when the server answers with a non-OK status.
type StatusError struct {
	Status wire.Status
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("server error: %s (%d)", e.Status, uint32(e.Status))
}

// Conn is an open session to a readingdb server.
type Conn interface {
	// SendRangeQuery sends one range query for [start, end] of a stream.
	SendRangeQuery(streamID, substream, start, end uint64, action wire.QueryAction) error

	// ReceiveResponse reads and decodes the next response.
	ReceiveResponse() (*wire.Response, error)

	// Close releases the session.
	Close() error
}

// Dialer opens connections.
type Dialer interface {
	Dial(ctx context.Context, host string, port int) (Conn, error)
}

// NetDialer dials readingdb servers over TCP.
type NetDialer struct {
	// Timeout bounds connection establishment only (0 means no timeout).
	Timeout time.Duration
}

// Dial opens a TCP connection to host:port.
func (d NetDialer) Dial(ctx context.Context, host string, port int) (Conn, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	nd := net.Dialer{Timeout: d.Timeout}
	c, err := nd.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	return New(c), nil
}

// TCPConn is a Conn over a net.Conn with buffered reads and writes.
type TCPConn struct {
	conn   net.Conn
	r      *bufio.Reader
	w      *bufio.Writer
	logger zerolog.Logger
}

// New wraps an established network connection.
func New(c net.Conn) *TCPConn {
	return &TCPConn{
		conn:   c,
		r:      bufio.NewReader(c),
		w:      bufio.NewWriter(c),
		logger: logging.NewLogger(logging.ComponentConn).With().Str("remote", c.RemoteAddr().String()).Logger(),
	}
}

// SendRangeQuery encodes and flushes a query frame.
func (c *TCPConn) SendRangeQuery(streamID, substream, start, end uint64, action wire.QueryAction) error {
	body := wire.EncodeQuery(&wire.Query{
		StreamID:  streamID,
		Substream: substream,
		StartTime: start,
		EndTime:   end,
		Action:    action,
	})

	if err := wire.WriteFrame(c.w, wire.MessageQuery, body); err != nil {
		return fmt.Errorf("send query: %w", err)
	}
	if err := c.w.Flush(); err != nil {
		return fmt.Errorf("send query: flush: %w", err)
	}

	c.logger.Debug().
		Uint64("stream_id", streamID).
		Uint64("start", start).
		Uint64("end", end).
		Msg("Sent range query")
	return nil
}

// ReceiveResponse reads one response frame. A non-OK status is returned as *StatusError.
func (c *TCPConn) ReceiveResponse() (*wire.Response, error) {
	msgType, body, err := wire.ReadFrame(c.r)
	if err != nil {
		return nil, fmt.Errorf("receive response: %w", err)
	}
	if msgType != wire.MessageResponse {
		return nil, fmt.Errorf("receive response: %w: %d", ErrUnexpectedMessage, msgType)
	}

	resp, err := wire.DecodeResponse(body)
	if err != nil {
		return nil, fmt.Errorf("receive response: %w", err)
	}
	if resp.Status != wire.StatusOK {
		return nil, &StatusError{Status: resp.Status}
	}

	c.logger.Debug().
		Uint64("stream_id", resp.Data.StreamID).
		Int("readings", len(resp.Data.Data)).
		Msg("Received response")
	return resp, nil
}

// Close closes the underlying network connection.
func (c *TCPConn) Close() error {
	return c.conn.Close()
}
