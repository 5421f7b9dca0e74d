package fetch

import "sync/atomic"

// workQueue hands out stream positions to workers. Each position is returned
// to exactly one caller.
type workQueue struct {
	ids   []StreamID
	order []int // positions in ids still to fetch, in input order
	next  atomic.Int64
}

func newWorkQueue(ids []StreamID, order []int) *workQueue {
	return &workQueue{ids: ids, order: order}
}

// claim returns the next unclaimed position and its stream ID, or ok=false once drained.
func (q *workQueue) claim() (idx int, id StreamID, ok bool) {
	i := q.next.Add(1) - 1
	if i >= int64(len(q.order)) {
		return 0, 0, false
	}
	idx = q.order[i]
	return idx, q.ids[idx], true
}

// len returns the number of positions the queue was created with.
func (q *workQueue) len() int {
	return len(q.order)
}
