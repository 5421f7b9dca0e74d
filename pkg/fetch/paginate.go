package fetch

import (
	"fmt"
	"math"

	"github.com/Sternrassler/readingdb-client/pkg/conn"
	"github.com/Sternrassler/readingdb-client/pkg/wire"
)

// paginate reads every point of one stream in [p.start, p.end] into buf,
// advancing the start cursor past the last timestamp of each full page.
// It stops on a short page or once p.limit points have been read; the limit
// is only checked between pages. It returns the number of points appended
// and the pages read.
func paginate(c conn.Conn, id StreamID, p query, buf *[]Point) (appended, pages int, err error) {
	start := p.start
	remaining := p.limit

	for {
		if err := c.SendRangeQuery(uint64(id), p.substream, start, p.end, wire.QueryData); err != nil {
			return appended, pages, fmt.Errorf("query page %d: %w", pages+1, err)
		}

		resp, err := c.ReceiveResponse()
		if err != nil {
			return appended, pages, fmt.Errorf("read page %d: %w", pages+1, err)
		}

		page := resp.Data.Data
		for _, rd := range page {
			*buf = append(*buf, Point{Timestamp: rd.Timestamp, Value: rd.Value})
		}
		appended += len(page)
		pages++

		n := len(page)
		if n < p.pageSize || remaining-n <= 0 {
			return appended, pages, nil
		}

		last := page[n-1].Timestamp
		if last == math.MaxUint64 || last >= p.end {
			return appended, pages, nil
		}

		remaining -= n
		start = last + 1
	}
}
