package process

import (
	"context"
	"runtime"
	"slices"
	"sync"

	"go.trai.ch/bld/internal/core/domain"
)

// ExecuteThreads runs independent commands on a pool of workers.
//
// maxConcurrency is clamped to [1, runtime.NumCPU()]. Every command is run
// even when some fail; a failure never stops commands already dispatched.
// In strict mode any failure marks the whole batch as Failed.
func (r *Runner) ExecuteThreads(
	ctx context.Context,
	cmds []domain.Command,
	maxConcurrency int,
	strict bool,
) domain.BatchResult {
	workers := clampWorkers(maxConcurrency, runtime.NumCPU())
	return executeBatch(ctx, cmds, workers, strict, func(ctx context.Context, cmd domain.Command) error {
		_, err := r.Execute(ctx, cmd)
		return err
	})
}

func clampWorkers(n, limit int) int {
	return max(1, min(n, limit))
}

type execFunc func(ctx context.Context, cmd domain.Command) error

// executeBatch runs cmds on a fixed number of workers sharing an index queue.
func executeBatch(
	ctx context.Context,
	cmds []domain.Command,
	workers int,
	strict bool,
	run execFunc,
) domain.BatchResult {
	var (
		mu        sync.Mutex
		next      int
		completed int
		failed    []int
	)

	pop := func() (int, bool) {
		mu.Lock()
		defer mu.Unlock()
		if next >= len(cmds) {
			return 0, false
		}
		i := next
		next++
		return i, true
	}

	workers = min(workers, len(cmds))

	var wg sync.WaitGroup
	for range workers {
		wg.Go(func() {
			for {
				i, ok := pop()
				if !ok {
					return
				}
				err := run(ctx, cmds[i])

				mu.Lock()
				if err != nil {
					failed = append(failed, i)
				} else {
					completed++
				}
				mu.Unlock()
			}
		})
	}
	wg.Wait()

	slices.Sort(failed)
	return domain.BatchResult{
		Completed:     completed,
		FailedIndices: failed,
		Failed:        strict && len(failed) > 0,
	}
}
