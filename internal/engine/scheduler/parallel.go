package scheduler

import (
	"context"
	"errors"
	"sync"

	"go.trai.ch/bld/internal/core/domain"
	"go.trai.ch/zerr"
)

// BuildParallel builds target with up to threads concurrent commands.
//
// A target's command starts only after all of its graph dependencies have
// been built. After the first failure no new command is started; commands
// already running are left to finish and are marked checked if they succeed.
// Cancelling ctx stops dispatch the same way.
func (s *Scheduler) BuildParallel(ctx context.Context, g *domain.Graph, target string, threads int) error {
	if err := g.DetectCycle(target); err != nil {
		return err
	}
	if !g.Has(target) {
		return s.checkTopLevel(target)
	}

	ctx, span := s.startRun(ctx, g, target)
	defer span.End()

	err := s.runParallel(ctx, g, target, threads)
	span.RecordError(err)
	return err
}

// BuildAllParallel builds every target that no other target depends on with
// up to threads concurrent commands.
func (s *Scheduler) BuildAllParallel(ctx context.Context, g *domain.Graph, threads int) error {
	if err := g.DetectCycle(); err != nil {
		return err
	}

	g.Add(domain.NewPhony(aggregateTarget, g.Roots()...))
	defer g.Remove(aggregateTarget)

	ctx, span := s.startRun(ctx, g, aggregateTarget)
	defer span.End()

	err := s.runParallel(ctx, g, aggregateTarget, threads)
	span.RecordError(err)
	return err
}

// parallelRun is the shared state of one parallel build. All fields are
// guarded by mu.
type parallelRun struct {
	mu   sync.Mutex
	cond *sync.Cond

	// waitingOn holds, per pending target, the graph dependencies not yet built.
	waitingOn  map[string]map[string]struct{}
	dependents map[string][]string
	ready      []string
	remaining  int
	failed     bool
	errs       []error
}

func (s *Scheduler) newParallelRun(g *domain.Graph, target string) *parallelRun {
	run := &parallelRun{
		waitingOn:  make(map[string]map[string]struct{}),
		dependents: make(map[string][]string),
	}
	run.cond = sync.NewCond(&run.mu)

	for _, name := range g.Reachable(target) {
		if g.IsChecked(name) {
			continue
		}
		run.remaining++

		dep, _ := g.Lookup(name)
		waiting := make(map[string]struct{})
		for _, d := range dep.Deps {
			if !g.Has(d) || g.IsChecked(d) {
				continue
			}
			if _, dup := waiting[d]; dup {
				continue
			}
			waiting[d] = struct{}{}
			run.dependents[d] = append(run.dependents[d], name)
		}

		run.waitingOn[name] = waiting
		if len(waiting) == 0 {
			run.ready = append(run.ready, name)
		}
	}
	return run
}

func (s *Scheduler) runParallel(ctx context.Context, g *domain.Graph, target string, threads int) error {
	run := s.newParallelRun(g, target)
	if err := ctx.Err(); err != nil {
		incomplete := zerr.With(zerr.Wrap(domain.ErrBuildIncomplete, "build interrupted"), "remaining", run.remaining)
		return errors.Join(incomplete, err)
	}

	stop := context.AfterFunc(ctx, func() {
		run.mu.Lock()
		defer run.mu.Unlock()
		run.failed = true
		run.cond.Broadcast()
	})
	defer stop()

	var wg sync.WaitGroup
	for range max(1, threads) {
		wg.Go(func() {
			s.worker(ctx, g, run)
		})
	}
	wg.Wait()

	run.mu.Lock()
	defer run.mu.Unlock()

	if len(run.errs) > 0 {
		return errors.Join(run.errs...)
	}
	if err := ctx.Err(); err != nil && run.remaining > 0 {
		incomplete := zerr.With(zerr.Wrap(domain.ErrBuildIncomplete, "build interrupted"), "remaining", run.remaining)
		return errors.Join(incomplete, err)
	}
	if run.remaining > 0 || !g.IsChecked(target) {
		return zerr.With(zerr.Wrap(domain.ErrBuildIncomplete, "build stopped"), "remaining", run.remaining)
	}
	return nil
}

func (s *Scheduler) worker(ctx context.Context, g *domain.Graph, run *parallelRun) {
	for {
		run.mu.Lock()
		for len(run.ready) == 0 && run.remaining > 0 && !run.failed {
			run.cond.Wait()
		}
		if run.failed || run.remaining == 0 {
			run.mu.Unlock()
			return
		}
		name := run.ready[0]
		run.ready = run.ready[1:]
		run.mu.Unlock()

		err := s.buildReady(ctx, g, name)

		run.mu.Lock()
		if err != nil {
			run.failed = true
			run.errs = append(run.errs, err)
		} else {
			run.remaining--
			for _, dependent := range run.dependents[name] {
				waiting := run.waitingOn[dependent]
				delete(waiting, name)
				if len(waiting) == 0 {
					run.ready = append(run.ready, dependent)
				}
			}
		}
		run.cond.Broadcast()
		run.mu.Unlock()
	}
}

// buildReady builds a target whose graph dependencies are all checked.
func (s *Scheduler) buildReady(ctx context.Context, g *domain.Graph, target string) error {
	dep, ok := g.Lookup(target)
	if !ok {
		return zerr.With(zerr.Wrap(domain.ErrTargetNotFound, "build"), "target", target)
	}

	var errs []error
	for _, name := range dep.Deps {
		if g.Has(name) {
			continue
		}
		if err := s.checkSource(g, name, target); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return dependencyError(target, errs)
	}

	return s.runNode(ctx, g, dep)
}
