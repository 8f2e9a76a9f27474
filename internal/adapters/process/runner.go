// Package process spawns external programs, redirects their standard streams
// and waits for them, singly or in bounded batches.
package process

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"runtime"

	"go.trai.ch/bld/internal/core/domain"
	"go.trai.ch/bld/internal/core/ports"
	"go.trai.ch/zerr"
)

// DefaultReadBufferSize is the chunk size used to drain captured output.
const DefaultReadBufferSize = 4096

// Runner implements ports.CommandRunner on top of os/exec.
type Runner struct {
	logger      ports.Logger
	readBufSize int
	logOutput   bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithReadBufferSize sets the chunk size used by the output readers.
// A non-positive size makes every output reader fail with ErrInvalidBufferSize.
func WithReadBufferSize(n int) Option {
	return func(r *Runner) {
		r.readBufSize = n
	}
}

// WithLogOutput routes the output of children whose streams are not
// redirected into the logger, one entry per line, instead of inheriting the
// caller's stdout and stderr.
func WithLogOutput() Option {
	return func(r *Runner) {
		r.logOutput = true
	}
}

// NewRunner creates a new Runner.
func NewRunner(logger ports.Logger, opts ...Option) *Runner {
	r := &Runner{
		logger:      logger,
		readBufSize: DefaultReadBufferSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetLogOutput switches WithLogOutput on or off. It must not be called while
// children are being spawned.
func (r *Runner) SetLogOutput(enable bool) {
	r.logOutput = enable
}

// MaxProcs reports the default number of children run at once.
func MaxProcs() int {
	return runtime.NumCPU()
}

// Spawn starts cmd with its standard streams rebound per redirect and returns
// without waiting. The caller owns the returned Proc and must Wait and Cleanup it.
func (r *Runner) Spawn(ctx context.Context, cmd domain.Command, redirect domain.Redirect) (*Proc, error) {
	return r.spawn(ctx, cmd, redirect, nil)
}

func (r *Runner) spawn(ctx context.Context, cmd domain.Command, redirect domain.Redirect, owned []ioCloser) (*Proc, error) {
	if cmd.Empty() {
		err := zerr.Wrap(domain.ErrEmptyCommand, "spawn")
		r.logger.Error(err)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "spawn cancelled"), "command", cmd.String())
	}

	c := exec.Command(cmd.Program(), cmd.Args()...) //nolint:gosec // running user commands is the point

	var flush []ioCloser
	c.Stdin = redirect.Stdin
	if c.Stdin == nil {
		c.Stdin = os.Stdin
	}
	c.Stdout = redirect.Stdout
	if c.Stdout == nil {
		c.Stdout = os.Stdout
		if r.logOutput {
			w := &logWriter{logger: r.logger, level: levelInfo}
			c.Stdout, flush = w, append(flush, w)
		}
	}
	c.Stderr = redirect.Stderr
	if c.Stderr == nil {
		c.Stderr = os.Stderr
		if r.logOutput {
			w := &logWriter{logger: r.logger, level: levelWarn}
			c.Stderr, flush = w, append(flush, w)
		}
	}

	if err := c.Start(); err != nil {
		err = zerr.With(classifyStartError(err), "command", cmd.String())
		r.logger.Error(err)
		return nil, err
	}

	return startReaper(c, cmd, owned, flush), nil
}

// classifyStartError separates failures to load the program image from
// failures to create the process at all.
func classifyStartError(err error) error {
	switch {
	case errors.Is(err, exec.ErrNotFound),
		errors.Is(err, exec.ErrDot),
		errors.Is(err, fs.ErrNotExist),
		errors.Is(err, fs.ErrPermission),
		isExecFormatError(err):
		return fmt.Errorf("%w: %w", domain.ErrExecFailed, err)
	default:
		return fmt.Errorf("%w: %w", domain.ErrSpawnFailed, err)
	}
}

// startFailureResult is the result reported when no child could be started.
func startFailureResult(err error) domain.ExecResult {
	if errors.Is(err, domain.ErrExecFailed) {
		return domain.ExecFailureResult()
	}
	return domain.ExecResult{PID: domain.InvalidPID, ExitCode: domain.NoExitCode}
}

// checkResult converts a non-successful result into an error.
func checkResult(cmd domain.Command, res domain.ExecResult) error {
	switch {
	case res.Success():
		return nil
	case res.Signaled():
		err := zerr.With(zerr.Wrap(domain.ErrCommandSignaled, cmd.Program()), "signal", signalName(res.Signal))
		return zerr.With(err, "command", cmd.String())
	default:
		err := zerr.With(zerr.Wrap(domain.ErrCommandFailed, cmd.Program()), "exit_code", res.ExitCode)
		return zerr.With(err, "command", cmd.String())
	}
}
