// Package bld builds file targets from a dependency graph, Make-style, and
// runs external commands singly or in bounded parallel batches.
//
// A Builder owns a Graph of targets. Each target names its dependencies and
// the command that produces it; a target is rebuilt when its artifact is
// missing or older than one of its dependencies:
//
//	b := bld.New()
//	b.Add(bld.NewDep("app", []string{"main.o"}, bld.NewCommand("cc", "-o", "app", "main.o")))
//	b.Add(bld.NewDep("main.o", []string{"main.c"}, bld.NewCommand("cc", "-c", "main.c")))
//	err := b.BuildParallel(ctx, "app", 4)
//
// The process primitives are available through Runner.
package bld

import (
	"context"

	"go.trai.ch/bld/internal/adapters/config"
	"go.trai.ch/bld/internal/adapters/fs"
	"go.trai.ch/bld/internal/adapters/logger"
	"go.trai.ch/bld/internal/adapters/process"
	"go.trai.ch/bld/internal/adapters/telemetry"
	"go.trai.ch/bld/internal/core/domain"
	"go.trai.ch/bld/internal/core/ports"
	"go.trai.ch/bld/internal/engine/scheduler"
)

type (
	// Command is the argument list of one program invocation.
	Command = domain.Command
	// Dep declares how a target is produced.
	Dep = domain.Dep
	// Graph owns the build targets.
	Graph = domain.Graph
	// ExecResult describes how a child process terminated.
	ExecResult = domain.ExecResult
	// WaitStatus is the outcome of a non-blocking poll on a Proc.
	WaitStatus = domain.WaitStatus
	// ProcState is the lifecycle state of a Proc.
	ProcState = domain.ProcState
	// Redirect rebinds the standard streams of a child process.
	Redirect = domain.Redirect
	// BatchResult aggregates the outcome of a batch of commands.
	BatchResult = domain.BatchResult

	// Runner spawns and waits for child processes.
	Runner = process.Runner
	// RunnerOption configures a Runner.
	RunnerOption = process.Option
	// Proc is a handle on a spawned child process.
	Proc = process.Proc

	// Logger receives progress and diagnostics.
	Logger = ports.Logger
	// FileSystem is the view of the disk used for staleness checks.
	FileSystem = ports.FileSystem
	// Tracer records a span per built target.
	Tracer = ports.Tracer
)

// Proc states.
const (
	ProcRunning  = domain.ProcRunning
	ProcExited   = domain.ProcExited
	ProcSignaled = domain.ProcSignaled
	ProcInvalid  = domain.ProcInvalid
)

// Constructors re-exported from the domain.
var (
	NewCommand   = domain.NewCommand
	ParseCommand = domain.ParseCommand
	ShellCommand = domain.ShellCommand
	NewDep       = domain.NewDep
	NewPhony     = domain.NewPhony
	NewGraph     = domain.NewGraph
)

// Runner options and batch helpers re-exported from the process package.
var (
	WithReadBufferSize = process.WithReadBufferSize
	WithLogOutput      = process.WithLogOutput
	WaitProcs          = process.WaitProcs
	MaxProcs           = process.MaxProcs
)

// Errors callers can match with errors.Is.
var (
	ErrEmptyCommand      = domain.ErrEmptyCommand
	ErrInvalidBufferSize = domain.ErrInvalidBufferSize
	ErrSpawnFailed       = domain.ErrSpawnFailed
	ErrExecFailed        = domain.ErrExecFailed
	ErrCommandFailed     = domain.ErrCommandFailed
	ErrCommandSignaled   = domain.ErrCommandSignaled
	ErrInvalidProc       = domain.ErrInvalidProc
	ErrCycleDetected     = domain.ErrCycleDetected
	ErrMissingDependency = domain.ErrMissingDependency
	ErrTargetNotFound    = domain.ErrTargetNotFound
	ErrTargetFailed      = domain.ErrTargetFailed
	ErrDependencyFailed  = domain.ErrDependencyFailed
	ErrBuildIncomplete   = domain.ErrBuildIncomplete
)

// Builder bundles a Graph with the scheduler and process runner that build it.
type Builder struct {
	graph     *domain.Graph
	scheduler *scheduler.Scheduler
	runner    *process.Runner
	loader    *config.Loader
}

type options struct {
	logger     ports.Logger
	fs         ports.FileSystem
	tracer     ports.Tracer
	runnerOpts []process.Option
}

// Option configures a Builder.
type Option func(*options)

// WithLogger sets the logger. The default writes coloured lines to stderr.
func WithLogger(l Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithTracer sets the tracer. The default records nothing.
func WithTracer(t Tracer) Option {
	return func(o *options) {
		o.tracer = t
	}
}

// WithFileSystem sets the file system used to compare modification times.
func WithFileSystem(f FileSystem) Option {
	return func(o *options) {
		o.fs = f
	}
}

// WithRunnerOptions configures the process runner.
func WithRunnerOptions(opts ...RunnerOption) Option {
	return func(o *options) {
		o.runnerOpts = append(o.runnerOpts, opts...)
	}
}

// New creates a Builder with an empty graph.
func New(opts ...Option) *Builder {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.New()
	}
	if o.fs == nil {
		o.fs = fs.New()
	}
	if o.tracer == nil {
		o.tracer = telemetry.NewNoOpTracer()
	}

	runner := process.NewRunner(o.logger, o.runnerOpts...)
	return &Builder{
		graph:     domain.NewGraph(),
		scheduler: scheduler.NewScheduler(runner, o.fs, o.logger, o.tracer),
		runner:    runner,
		loader:    config.NewLoader(o.logger, o.fs),
	}
}

// Load replaces the graph with the targets declared in a bld.yaml file.
// Target names stay relative to the caller's working directory.
func (b *Builder) Load(path string) error {
	g, err := b.loader.Load(path)
	if err != nil {
		return err
	}
	b.graph = g
	return nil
}

// Graph returns the graph the Builder builds.
func (b *Builder) Graph() *Graph {
	return b.graph
}

// Runner returns the process runner used for target commands.
func (b *Builder) Runner() *Runner {
	return b.runner
}

// Add inserts or replaces a target.
func (b *Builder) Add(dep Dep) {
	b.graph.Add(dep)
}

// AddPhony inserts a phony target that is always rebuilt.
func (b *Builder) AddPhony(target string, deps ...string) {
	b.graph.AddPhony(target, deps...)
}

// NeedsRebuild reports whether target is stale.
func (b *Builder) NeedsRebuild(target string) (bool, error) {
	return b.scheduler.NeedsRebuild(b.graph, target)
}

// Build brings target up to date, one command at a time.
func (b *Builder) Build(ctx context.Context, target string) error {
	return b.scheduler.Build(ctx, b.graph, target)
}

// BuildAll builds every target nothing else depends on.
func (b *Builder) BuildAll(ctx context.Context) error {
	return b.scheduler.BuildAll(ctx, b.graph)
}

// BuildParallel brings target up to date running up to threads commands at once.
func (b *Builder) BuildParallel(ctx context.Context, target string, threads int) error {
	return b.scheduler.BuildParallel(ctx, b.graph, target, threads)
}

// BuildAllParallel builds every root target running up to threads commands at once.
func (b *Builder) BuildAllParallel(ctx context.Context, threads int) error {
	return b.scheduler.BuildAllParallel(ctx, b.graph, threads)
}

// Reset forgets which targets were built so the next build checks them again.
func (b *Builder) Reset() {
	b.graph.Reset()
}
