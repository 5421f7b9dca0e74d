package wire

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// ErrMalformed is returned when a message body cannot be decoded.
var ErrMalformed = errors.New("malformed message")

// Field numbers of the Query message.
const (
	queryFieldStreamID  protowire.Number = 1
	queryFieldSubstream protowire.Number = 2
	queryFieldStartTime protowire.Number = 3
	queryFieldEndTime   protowire.Number = 4
	queryFieldAction    protowire.Number = 5
)

// Field numbers of the Response, ReadingSet and Reading messages.
const (
	responseFieldError protowire.Number = 1
	responseFieldData  protowire.Number = 2

	setFieldStreamID  protowire.Number = 1
	setFieldSubstream protowire.Number = 2
	setFieldData      protowire.Number = 3

	readingFieldTimestamp protowire.Number = 1
	readingFieldValue     protowire.Number = 2
)

// EncodeQuery serializes a Query body.
func EncodeQuery(q *Query) []byte {
	b := make([]byte, 0, 48)
	b = appendVarintField(b, queryFieldStreamID, q.StreamID)
	b = appendVarintField(b, queryFieldSubstream, q.Substream)
	b = appendVarintField(b, queryFieldStartTime, q.StartTime)
	b = appendVarintField(b, queryFieldEndTime, q.EndTime)
	b = appendVarintField(b, queryFieldAction, uint64(q.Action))
	return b
}

// DecodeQuery parses a Query body.
func DecodeQuery(b []byte) (*Query, error) {
	q := &Query{}
	err := walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if typ != protowire.VarintType {
			return skipField(num, typ, b)
		}
		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return 0, parseErr("query", num, n)
		}
		switch num {
		case queryFieldStreamID:
			q.StreamID = v
		case queryFieldSubstream:
			q.Substream = v
		case queryFieldStartTime:
			q.StartTime = v
		case queryFieldEndTime:
			q.EndTime = v
		case queryFieldAction:
			q.Action = QueryAction(v)
		}
		return n, nil
	})
	if err != nil {
		return nil, err
	}
	return q, nil
}

// EncodeResponse serializes a Response body.
func EncodeResponse(r *Response) []byte {
	set := make([]byte, 0, 16+len(r.Data.Data)*16)
	set = appendVarintField(set, setFieldStreamID, r.Data.StreamID)
	set = appendVarintField(set, setFieldSubstream, r.Data.Substream)

	var reading []byte
	for _, rd := range r.Data.Data {
		reading = reading[:0]
		reading = appendVarintField(reading, readingFieldTimestamp, rd.Timestamp)
		reading = protowire.AppendTag(reading, readingFieldValue, protowire.Fixed64Type)
		reading = protowire.AppendFixed64(reading, math.Float64bits(rd.Value))

		set = protowire.AppendTag(set, setFieldData, protowire.BytesType)
		set = protowire.AppendBytes(set, reading)
	}

	b := make([]byte, 0, len(set)+16)
	b = appendVarintField(b, responseFieldError, uint64(r.Status))
	b = protowire.AppendTag(b, responseFieldData, protowire.BytesType)
	b = protowire.AppendBytes(b, set)
	return b
}

// DecodeResponse parses a Response body.
func DecodeResponse(b []byte) (*Response, error) {
	r := &Response{}
	err := walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == responseFieldError && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return 0, parseErr("response", num, n)
			}
			r.Status = Status(v)
			return n, nil
		case num == responseFieldData && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return 0, parseErr("response", num, n)
			}
			if err := decodeReadingSet(v, &r.Data); err != nil {
				return 0, err
			}
			return n, nil
		default:
			return skipField(num, typ, b)
		}
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func decodeReadingSet(b []byte, set *ReadingSet) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == setFieldStreamID && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return 0, parseErr("reading set", num, n)
			}
			set.StreamID = v
			return n, nil
		case num == setFieldSubstream && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return 0, parseErr("reading set", num, n)
			}
			set.Substream = v
			return n, nil
		case num == setFieldData && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return 0, parseErr("reading set", num, n)
			}
			rd, err := decodeReading(v)
			if err != nil {
				return 0, err
			}
			set.Data = append(set.Data, rd)
			return n, nil
		default:
			return skipField(num, typ, b)
		}
	})
}

func decodeReading(b []byte) (Reading, error) {
	var rd Reading
	err := walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == readingFieldTimestamp && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return 0, parseErr("reading", num, n)
			}
			rd.Timestamp = v
			return n, nil
		case num == readingFieldValue && typ == protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(b)
			if n < 0 {
				return 0, parseErr("reading", num, n)
			}
			rd.Value = math.Float64frombits(v)
			return n, nil
		default:
			return skipField(num, typ, b)
		}
	})
	return rd, err
}

// walkFields calls fn for every field in b. fn consumes the field value
// starting right after the tag and returns the number of bytes it used.
func walkFields(b []byte, fn func(num protowire.Number, typ protowire.Type, b []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: tag: %v", ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]

		m, err := fn(num, typ, b)
		if err != nil {
			return err
		}
		b = b[m:]
	}
	return nil
}

func skipField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	n := protowire.ConsumeFieldValue(num, typ, b)
	if n < 0 {
		return 0, parseErr("unknown", num, n)
	}
	return n, nil
}

func appendVarintField(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func parseErr(msg string, num protowire.Number, n int) error {
	return fmt.Errorf("%w: %s field %d: %v", ErrMalformed, msg, num, protowire.ParseError(n))
}
