// Package scheduler builds the targets of a dependency graph in dependency
// order, sequentially or with a bounded number of workers.
package scheduler

import (
	"context"
	"errors"
	"fmt"

	"go.trai.ch/bld/internal/core/domain"
	"go.trai.ch/bld/internal/core/ports"
	"go.trai.ch/zerr"
)

// aggregateTarget names the phony target synthesized by BuildAll and
// BuildAllParallel. It cannot collide with a file name.
const aggregateTarget = "\x00all"

// Scheduler decides which targets are stale and runs their commands.
type Scheduler struct {
	runner ports.CommandRunner
	fs     ports.FileSystem
	logger ports.Logger
	tracer ports.Tracer
}

// NewScheduler creates a new Scheduler.
func NewScheduler(
	runner ports.CommandRunner,
	fs ports.FileSystem,
	logger ports.Logger,
	tracer ports.Tracer,
) *Scheduler {
	return &Scheduler{
		runner: runner,
		fs:     fs,
		logger: logger,
		tracer: tracer,
	}
}

// NeedsRebuild reports whether the command of target must run.
//
// Phony targets are always stale, as are targets missing on disk. A dependency
// that is neither a graph node nor present on disk is an error. Otherwise the
// target is stale iff a dependency is phony, has no artifact yet, or was
// modified strictly after the target.
func (s *Scheduler) NeedsRebuild(g *domain.Graph, target string) (bool, error) {
	dep, ok := g.Lookup(target)
	if !ok {
		return false, zerr.With(zerr.Wrap(domain.ErrTargetNotFound, "check staleness"), "target", target)
	}
	if dep.Phony {
		return true, nil
	}

	self, err := s.fs.Stat(target)
	if err != nil {
		return false, err
	}

	stale := !self.Exists
	var errs []error
	for _, name := range dep.Deps {
		node, isNode := g.Lookup(name)
		if isNode && node.Phony {
			stale = true
			continue
		}

		st, err := s.fs.Stat(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		switch {
		case !st.Exists && !isNode:
			errs = append(errs, s.missingDependency(name, target))
		case !st.Exists:
			stale = true
		case self.Exists && st.ModTime.After(self.ModTime):
			stale = true
		}
	}

	if len(errs) > 0 {
		return false, errors.Join(errs...)
	}
	return stale, nil
}

// Build builds target after its dependencies, depth first.
//
// The reachable subgraph is checked for cycles before any command runs.
// Every dependency of a target is attempted even when a sibling fails; the
// target itself then does not run. Targets already built on this graph are
// not evaluated again, and a target that failed is attempted once per call. A name that is not a target succeeds iff the file
// exists.
func (s *Scheduler) Build(ctx context.Context, g *domain.Graph, target string) error {
	if err := g.DetectCycle(target); err != nil {
		return err
	}
	if !g.Has(target) {
		return s.checkTopLevel(target)
	}

	ctx, span := s.startRun(ctx, g, target)
	defer span.End()

	err := s.buildTarget(ctx, g, target, make(map[string]error))
	span.RecordError(err)
	return err
}

// BuildAll builds every target that no other target depends on.
func (s *Scheduler) BuildAll(ctx context.Context, g *domain.Graph) error {
	if err := g.DetectCycle(); err != nil {
		return err
	}

	g.Add(domain.NewPhony(aggregateTarget, g.Roots()...))
	defer g.Remove(aggregateTarget)

	ctx, span := s.startRun(ctx, g, aggregateTarget)
	defer span.End()

	err := s.buildTarget(ctx, g, aggregateTarget, make(map[string]error))
	span.RecordError(err)
	return err
}

func (s *Scheduler) startRun(ctx context.Context, g *domain.Graph, target string) (context.Context, ports.Span) {
	ctx, span := s.tracer.Start(ctx, "build", ports.WithAttribute("requested", displayName(target)))

	plan := g.Reachable(target)
	if target == aggregateTarget {
		plan = plan[:len(plan)-1]
	}
	s.tracer.EmitPlan(ctx, plan)
	return ctx, span
}

// buildTarget builds target after its dependencies. failed records the
// targets that already failed during this run; they are not attempted again.
func (s *Scheduler) buildTarget(ctx context.Context, g *domain.Graph, target string, failed map[string]error) error {
	if g.IsChecked(target) {
		return nil
	}
	if err, ok := failed[target]; ok {
		return err
	}

	err := s.buildDeps(ctx, g, target, failed)
	if err != nil {
		failed[target] = err
	}
	return err
}

func (s *Scheduler) buildDeps(ctx context.Context, g *domain.Graph, target string, failed map[string]error) error {
	dep, ok := g.Lookup(target)
	if !ok {
		return zerr.With(zerr.Wrap(domain.ErrTargetNotFound, "build"), "target", target)
	}

	var errs []error
	for _, name := range dep.Deps {
		var err error
		if g.Has(name) {
			err = s.buildTarget(ctx, g, name, failed)
		} else {
			err = s.checkSource(g, name, target)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return dependencyError(target, errs)
	}

	return s.runNode(ctx, g, dep)
}

// runNode runs the command of a target whose dependencies are satisfied and
// marks it checked on success.
func (s *Scheduler) runNode(ctx context.Context, g *domain.Graph, dep domain.Dep) error {
	ctx, span := s.tracer.Start(ctx, displayName(dep.Target), ports.WithAttribute(ports.AttrTarget, displayName(dep.Target)))
	defer span.End()

	stale, err := s.NeedsRebuild(g, dep.Target)
	if err != nil {
		span.RecordError(err)
		return zerr.With(zerr.Wrap(fmt.Errorf("%w: %w", domain.ErrTargetFailed, err), "failed to build target"), "target", dep.Target)
	}

	if stale && !dep.Command.Empty() {
		if err := s.execute(ctx, span, dep); err != nil {
			span.RecordError(err)
			return zerr.With(zerr.Wrap(fmt.Errorf("%w: %w", domain.ErrTargetFailed, err), "failed to build target"), "target", dep.Target)
		}
	} else if stale && !dep.Phony {
		s.logger.Warn(fmt.Sprintf("target %s has no command", dep.Target))
	}

	g.MarkChecked(dep.Target)
	return nil
}

func (s *Scheduler) execute(ctx context.Context, span ports.Span, dep domain.Dep) error {
	var before ports.FileStat
	if !dep.Phony {
		st, err := s.fs.Stat(dep.Target)
		if err != nil {
			return err
		}
		before = st
	}

	span.SetAttribute(ports.AttrExecuted, true)
	_, err := s.runner.Execute(ctx, dep.Command)
	if err != nil && !dep.Phony {
		s.removePartial(dep.Target, before)
	}
	return err
}

// removePartial deletes the artifact of a failed target if its command
// created or modified it, so that it is rebuilt next time.
func (s *Scheduler) removePartial(target string, before ports.FileStat) {
	after, err := s.fs.Stat(target)
	if err != nil || !after.Exists {
		return
	}
	if before.Exists && after.ModTime.Equal(before.ModTime) {
		return
	}

	if err := s.fs.Remove(target); err != nil {
		s.logger.Error(err)
		return
	}
	s.logger.Warn(fmt.Sprintf("removed %s after failed build", target))
}

// checkSource resolves a dependency that is not a target. Each distinct path
// is reported once per graph.
func (s *Scheduler) checkSource(g *domain.Graph, path, dependent string) error {
	st, err := s.fs.Stat(path)
	if err != nil {
		return err
	}
	if !st.Exists {
		return s.missingDependency(path, dependent)
	}
	if g.MarkSourceSeen(path) {
		s.logger.Info("using source " + path)
	}
	return nil
}

func (s *Scheduler) checkTopLevel(target string) error {
	st, err := s.fs.Stat(target)
	if err != nil {
		return err
	}
	if !st.Exists {
		return zerr.With(zerr.Wrap(domain.ErrTargetNotFound, "build"), "target", target)
	}
	return nil
}

func (s *Scheduler) missingDependency(path, dependent string) error {
	s.logger.Warn(fmt.Sprintf("missing dependency %s required by %s", path, dependent))
	err := zerr.With(zerr.Wrap(domain.ErrMissingDependency, "unresolved dependency"), "dependency", path)
	return zerr.With(err, "target", dependent)
}

func dependencyError(target string, errs []error) error {
	joined := fmt.Errorf("%w: %w", domain.ErrDependencyFailed, errors.Join(errs...))
	return zerr.With(zerr.Wrap(joined, "failed to build target"), "target", displayName(target))
}

func displayName(target string) string {
	if target == aggregateTarget {
		return domain.AllTarget
	}
	return target
}
