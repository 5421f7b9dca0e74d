package fetch

import (
	"errors"
	"fmt"
)

var (
	// ErrFetchFailed is returned when at least one worker failed. No data is returned with it.
	ErrFetchFailed = errors.New("error reading data")

	// ErrInvalidStreamID is returned when the input contains the reserved stream ID 0.
	ErrInvalidStreamID = errors.New("invalid stream id")

	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("invalid config")
)

// StreamError records why fetching one stream failed.
type StreamError struct {
	StreamID StreamID
	Index    int
	Err      error
}

// Error implements the error interface.
func (e *StreamError) Error() string {
	return fmt.Sprintf("stream %d (index %d): %v", e.StreamID, e.Index, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *StreamError) Unwrap() error {
	return e.Err
}
