package fetch

import (
	"context"
	"sync"
	"time"
)

// worker opens one connection and fetches claimed streams until the queue
// is drained or a stream fails.
func (f *Fetcher) worker(ctx context.Context, req *requestContext, wg *sync.WaitGroup, workerID int) {
	defer wg.Done()

	activeWorkers.Inc()
	defer activeWorkers.Dec()

	c, err := f.dialer.Dial(ctx, f.config.Host, f.config.Port)
	if err != nil {
		// Not counted as a request error: the other workers take over the queue.
		dialFailuresTotal.Inc()
		f.logger.Warn().
			Err(err).
			Int("worker_id", workerID).
			Msg("Worker could not connect, exiting")
		return
	}
	defer func() {
		if err := c.Close(); err != nil {
			f.logger.Debug().Err(err).Int("worker_id", workerID).Msg("Connection close failed")
		}
	}()

	streamsProcessed := 0
	for {
		idx, id, ok := req.queue.claim()
		if !ok {
			break
		}

		start := time.Now()
		n, pages, err := paginate(c, id, req.params, &req.buffers[idx])
		pagesTotal.Add(float64(pages))
		pointsTotal.Add(float64(n))

		if err != nil {
			req.fail(idx, id, err)
			streamErrorsTotal.Inc()
			f.logger.Warn().
				Err(err).
				Int("worker_id", workerID).
				Uint64("stream_id", uint64(id)).
				Int("pages", pages).
				Msg("Stream fetch failed, worker stopping")
			return
		}

		streamsProcessed++
		f.logger.Debug().
			Int("worker_id", workerID).
			Uint64("stream_id", uint64(id)).
			Int("pages", pages).
			Int("points", n).
			Dur("duration", time.Since(start)).
			Msg("Stream fetched")
	}

	f.logger.Debug().
		Int("worker_id", workerID).
		Int("streams_processed", streamsProcessed).
		Msg("Worker completed")
}
