package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// StartPool launches workers goroutines that call handle for every item
// received on jobs. Workers exit when ctx is cancelled or jobs is closed.
func StartPool[T any](
	ctx context.Context,
	wg *sync.WaitGroup,
	workers int,
	jobs <-chan T,
	handle func(ctx context.Context, job T),
	logger *zap.Logger,
) {
	if workers < 1 {
		workers = 1
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)

		go func(id int) {
			defer wg.Done()

			logger.Debug("worker started", zap.Int("worker_id", id))

			for {
				select {

				case <-ctx.Done():
					logger.Debug("worker shutting down", zap.Int("worker_id", id))
					return

				case job, ok := <-jobs:
					if !ok {
						logger.Debug("job channel closed", zap.Int("worker_id", id))
						return
					}

					handle(ctx, job)
				}
			}
		}(i)
	}
}
