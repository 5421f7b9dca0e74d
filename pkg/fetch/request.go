package fetch

import (
	"sync/atomic"
)

// query holds the parameters shared by every stream of one request.
type query struct {
	start     uint64
	end       uint64
	limit     int
	substream uint64
	pageSize  int
}

// requestContext is the state of one FetchMultiple call. Buffers and stream
// errors are indexed by input position; a position is written only by the
// worker that claimed it, so they need no locking.
type requestContext struct {
	queue   *workQueue
	params  query
	buffers [][]Point
	errs    []error
	errors  atomic.Int32
}

func newRequestContext(ids []StreamID, pending []int, params query) *requestContext {
	return &requestContext{
		queue:   newWorkQueue(ids, pending),
		params:  params,
		buffers: make([][]Point, len(ids)),
		errs:    make([]error, len(ids)),
	}
}

// fail records a fatal error for the stream at idx and bumps the error counter.
func (r *requestContext) fail(idx int, id StreamID, err error) {
	r.errs[idx] = &StreamError{StreamID: id, Index: idx, Err: err}
	r.errors.Add(1)
}

// streamErrors returns the recorded per-stream errors. Only valid after all workers joined.
func (r *requestContext) streamErrors() []*StreamError {
	var out []*StreamError
	for _, err := range r.errs {
		if se, ok := err.(*StreamError); ok {
			out = append(out, se)
		}
	}
	return out
}

// release drops every buffer.
func (r *requestContext) release() {
	for i := range r.buffers {
		r.buffers[i] = nil
	}
}
