// Package app implements the application layer for bld.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.trai.ch/bld/internal/adapters/watcher" //nolint:depguard // Wired in app layer
	"go.trai.ch/bld/internal/core/domain"
	"go.trai.ch/bld/internal/core/ports"
	"go.trai.ch/bld/internal/engine/scheduler"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	scheduler    *scheduler.Scheduler
	runner       ports.BatchRunner
	watcher      ports.Watcher
	logger       ports.Logger
	debounce     time.Duration
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	sched *scheduler.Scheduler,
	runner ports.BatchRunner,
	w ports.Watcher,
	log ports.Logger,
) *App {
	return &App{
		configLoader: loader,
		scheduler:    sched,
		runner:       runner,
		watcher:      w,
		logger:       log,
		debounce:     watcher.DefaultDebounceWindow,
	}
}

// WithDebounce sets the window used to coalesce file changes in watch mode.
func (a *App) WithDebounce(d time.Duration) *App {
	a.debounce = d
	return a
}

// BuildOptions configures Build and Watch.
type BuildOptions struct {
	// File is the build file. When empty it is discovered from the working
	// directory upwards.
	File string
	// Jobs bounds the number of commands run at once. 1 builds sequentially;
	// 0 or less uses one job per CPU.
	Jobs int
}

// Build loads the build file and brings the named targets up to date.
// With no targets it builds "all" when declared, otherwise every root target.
func (a *App) Build(ctx context.Context, targets []string, opts BuildOptions) error {
	graph, _, err := a.load(opts.File)
	if err != nil {
		return err
	}
	return a.build(ctx, graph, targets, opts.Jobs)
}

// ExecOptions configures Exec.
type ExecOptions struct {
	// Threads bounds the number of commands run at once. 0 or less uses one
	// per CPU.
	Threads int
	// Strict makes any failed command fail the whole batch.
	Strict bool
}

// Exec runs independent commands on a bounded pool of workers.
// Failed commands are reported; only a strict batch returns an error.
func (a *App) Exec(ctx context.Context, cmds []domain.Command, opts ExecOptions) error {
	if len(cmds) == 0 {
		return domain.ErrNoCommandsSpecified
	}

	threads := opts.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}

	res := a.runner.ExecuteThreads(ctx, cmds, threads, opts.Strict)
	for _, i := range res.FailedIndices {
		a.logger.Warn(fmt.Sprintf("command %d failed: %s", i+1, cmds[i]))
	}
	a.logger.Info(fmt.Sprintf("%d of %d commands succeeded", res.Completed, len(cmds)))

	if res.Failed {
		return zerr.With(zerr.Wrap(domain.ErrBatchFailed, "strict batch"), "failed", len(res.FailedIndices))
	}
	return nil
}

// Watch builds the targets, then rebuilds them every time a file below the
// build file's directory changes, until ctx is done. A change to the build
// file itself reloads the graph first. Build failures are logged and do not
// end the watch.
func (a *App) Watch(ctx context.Context, targets []string, opts BuildOptions) error {
	graph, path, err := a.load(opts.File)
	if err != nil {
		return err
	}
	root := filepath.Dir(path)

	var current atomic.Pointer[domain.Graph]
	current.Store(graph)

	rebuild := func() {
		g := current.Load()
		g.Reset()
		if err := a.build(ctx, g, targets, opts.Jobs); err != nil {
			a.logger.Error(err)
		}
	}
	rebuild()

	if err := a.watcher.Start(ctx, root); err != nil {
		return zerr.Wrap(err, "failed to start file watcher")
	}
	defer func() { _ = a.watcher.Stop() }()
	a.logger.Info("watching " + root + " for changes")

	changes := newPendingChanges()
	debouncer := watcher.NewDebouncer(a.debounce, changes.add)

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		for event := range a.watcher.Events() {
			if isOutput(current.Load(), root, event.Path) {
				continue
			}
			debouncer.Add(event.Path)
		}
		if ctx.Err() != nil {
			return nil
		}
		return domain.ErrWatcherStopped
	})

	group.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-changes.ready:
				paths := changes.take()
				if len(paths) == 0 {
					continue
				}
				if slices.Contains(paths, path) {
					a.reload(path, &current)
				}
				a.logger.Info(describeChanges(root, paths))
				rebuild()
			}
		}
	})

	return group.Wait()
}

// pendingChanges merges debounced batches until the rebuild loop takes them.
type pendingChanges struct {
	mu    sync.Mutex
	paths []string
	ready chan struct{}
}

func newPendingChanges() *pendingChanges {
	return &pendingChanges{ready: make(chan struct{}, 1)}
}

func (p *pendingChanges) add(paths []string) {
	p.mu.Lock()
	p.paths = append(p.paths, paths...)
	p.mu.Unlock()

	select {
	case p.ready <- struct{}{}:
	default:
	}
}

// take returns the accumulated paths, sorted and deduplicated, and empties
// the set.
func (p *pendingChanges) take() []string {
	p.mu.Lock()
	paths := p.paths
	p.paths = nil
	p.mu.Unlock()

	slices.Sort(paths)
	return slices.Compact(paths)
}

// load reads the build file and enters its directory so that target names
// resolve relative to it. It returns the graph and the absolute file path.
func (a *App) load(file string) (*domain.Graph, string, error) {
	path := file
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, "", zerr.Wrap(err, "failed to get working directory")
		}
		path, err = a.configLoader.Discover(cwd)
		if err != nil {
			return nil, "", zerr.Wrap(err, "failed to load configuration")
		}
	}

	path, err := filepath.Abs(path)
	if err != nil {
		return nil, "", zerr.Wrap(err, "failed to resolve build file path")
	}

	graph, err := a.configLoader.Load(path)
	if err != nil {
		return nil, "", zerr.Wrap(err, "failed to load configuration")
	}

	if err := a.enter(filepath.Dir(path)); err != nil {
		return nil, "", err
	}
	return graph, path, nil
}

func (a *App) enter(dir string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return zerr.Wrap(err, "failed to get working directory")
	}
	if cwd == dir {
		return nil
	}
	if err := os.Chdir(dir); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to enter build directory"), "path", dir)
	}
	a.logger.Info("entering directory " + dir)
	return nil
}

func (a *App) reload(path string, current *atomic.Pointer[domain.Graph]) {
	graph, err := a.configLoader.Load(path)
	if err != nil {
		a.logger.Error(zerr.Wrap(err, "failed to reload configuration, keeping previous targets"))
		return
	}
	current.Store(graph)
	a.logger.Info("reloaded " + filepath.Base(path))
}

func (a *App) build(ctx context.Context, graph *domain.Graph, targets []string, jobs int) error {
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	if len(targets) == 0 && graph.Has(domain.AllTarget) {
		targets = []string{domain.AllTarget}
	}

	var err error
	if len(targets) == 0 {
		if graph.Len() == 0 {
			return domain.ErrNoTargetsSpecified
		}
		if jobs == 1 {
			err = a.scheduler.BuildAll(ctx, graph)
		} else {
			err = a.scheduler.BuildAllParallel(ctx, graph, jobs)
		}
	}

	for _, target := range targets {
		if jobs == 1 {
			err = a.scheduler.Build(ctx, graph, target)
		} else {
			err = a.scheduler.BuildParallel(ctx, graph, target, jobs)
		}
		if err != nil {
			break
		}
	}

	if err != nil {
		return errors.Join(domain.ErrBuildExecutionFailed, err)
	}
	return nil
}

// isOutput reports whether path is the artifact of a graph target.
// Rebuilding must not be triggered by the build's own writes.
func isOutput(graph *domain.Graph, root, path string) bool {
	if graph.Has(path) {
		return true
	}
	rel, err := filepath.Rel(root, path)
	return err == nil && graph.Has(rel)
}

func describeChanges(root string, paths []string) string {
	names := make([]string, len(paths))
	for i, p := range paths {
		if rel, err := filepath.Rel(root, p); err == nil {
			p = rel
		}
		names[i] = p
	}
	if len(names) == 1 {
		return names[0] + " changed, rebuilding"
	}
	return fmt.Sprintf("%d files changed (%s), rebuilding", len(names), strings.Join(names, ", "))
}
