package process

import (
	"context"
	"slices"
	"sync"
	"time"

	"go.trai.ch/bld/internal/core/domain"
	"golang.org/x/sync/semaphore"
)

// DefaultPollInterval is the interval WaitProcs uses when given none.
const DefaultPollInterval = 10 * time.Millisecond

// ExecuteParallel launches cmds as asynchronous children with at most
// maxProcs alive at once and waits for all of them.
// A non-positive maxProcs means MaxProcs().
func (r *Runner) ExecuteParallel(ctx context.Context, cmds []domain.Command, maxProcs int) domain.BatchResult {
	if maxProcs < 1 {
		maxProcs = MaxProcs()
	}

	var (
		mu     sync.Mutex
		result domain.BatchResult
		wg     sync.WaitGroup
	)
	record := func(i int, ok bool) {
		mu.Lock()
		defer mu.Unlock()
		if ok {
			result.Completed++
		} else {
			result.FailedIndices = append(result.FailedIndices, i)
		}
	}

	sem := semaphore.NewWeighted(int64(maxProcs))
	for i, cmd := range cmds {
		if err := sem.Acquire(ctx, 1); err != nil {
			record(i, false)
			continue
		}

		proc, err := r.ExecuteAsync(ctx, cmd)
		if err != nil {
			sem.Release(1)
			record(i, false)
			continue
		}

		wg.Go(func() {
			defer sem.Release(1)
			defer func() { _ = proc.Cleanup() }()

			res, err := proc.Wait()
			record(i, err == nil && res.Success())
		})
	}
	wg.Wait()

	slices.Sort(result.FailedIndices)
	return result
}

// WaitProcs waits for already spawned children by polling each of them every
// poll interval. Every Proc is cleaned up once it has been accounted for.
// A nil or invalid Proc counts as a failure.
func WaitProcs(procs []*Proc, poll time.Duration) domain.BatchResult {
	if poll <= 0 {
		poll = DefaultPollInterval
	}

	var result domain.BatchResult
	pending := make([]int, 0, len(procs))
	for i := range procs {
		pending = append(pending, i)
	}

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		remaining := pending[:0]
		for _, i := range pending {
			p := procs[i]
			if p == nil {
				result.FailedIndices = append(result.FailedIndices, i)
				continue
			}

			st := p.TryWait()
			switch {
			case st.Running:
				remaining = append(remaining, i)
				continue
			case st.Exited && st.Result.Success():
				result.Completed++
			default:
				result.FailedIndices = append(result.FailedIndices, i)
			}
			_ = p.Cleanup()
		}

		pending = remaining
		if len(pending) == 0 {
			break
		}
		<-ticker.C
	}

	slices.Sort(result.FailedIndices)
	return result
}
