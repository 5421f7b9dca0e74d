package wire

// MessageType identifies the body carried by a frame.
type MessageType uint32

const (
	// MessageQuery is a client range query.
	MessageQuery MessageType = 1

	// MessageResponse is a server reply to a query.
	MessageResponse MessageType = 2
)

// QueryAction selects what the server computes for a range query.
type QueryAction uint32

const (
	// QueryData returns the readings in the range.
	QueryData QueryAction = 1

	// QueryCount returns only the number of readings in the range.
	QueryCount QueryAction = 2
)

// Status is the error code carried by a response.
type Status uint32

const (
	StatusOK         Status = 0
	StatusFail       Status = 1
	StatusBadRequest Status = 2
	StatusNotFound   Status = 3
)

// String returns a readable name for the status code.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusFail:
		return "fail"
	case StatusBadRequest:
		return "bad_request"
	case StatusNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Query asks for the readings of one stream between StartTime and EndTime (inclusive).
type Query struct {
	StreamID  uint64
	Substream uint64
	StartTime uint64
	EndTime   uint64
	Action    QueryAction
}

// Reading is a single (timestamp, value) pair as sent by the server.
type Reading struct {
	Timestamp uint64
	Value     float64
}

// ReadingSet is one page of readings for a stream.
type ReadingSet struct {
	StreamID  uint64
	Substream uint64
	Data      []Reading
}

// Response is the server reply to a Query.
type Response struct {
	Status Status
	Data   ReadingSet
}
