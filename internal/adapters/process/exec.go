package process

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"

	"go.trai.ch/bld/internal/core/domain"
	"go.trai.ch/bld/internal/ui/style"
	"go.trai.ch/zerr"
)

// Execute runs cmd with inherited standard streams and waits for it.
// The error is non-nil whenever the result is not a success.
func (r *Runner) Execute(ctx context.Context, cmd domain.Command) (domain.ExecResult, error) {
	return r.ExecuteRedirect(ctx, cmd, domain.Redirect{})
}

// ExecuteRedirect runs cmd with its standard streams rebound and waits for it.
func (r *Runner) ExecuteRedirect(
	ctx context.Context,
	cmd domain.Command,
	redirect domain.Redirect,
) (domain.ExecResult, error) {
	proc, err := r.ExecuteAsyncRedirect(ctx, cmd, redirect)
	if err != nil {
		return startFailureResult(err), err
	}
	defer func() { _ = proc.Cleanup() }()

	res, err := proc.Wait()
	if err != nil {
		return res, err
	}
	return res, checkResult(cmd, res)
}

// ExecuteAsync starts cmd with inherited standard streams.
func (r *Runner) ExecuteAsync(ctx context.Context, cmd domain.Command) (*Proc, error) {
	return r.ExecuteAsyncRedirect(ctx, cmd, domain.Redirect{})
}

// ExecuteAsyncRedirect starts cmd with its standard streams rebound.
func (r *Runner) ExecuteAsyncRedirect(
	ctx context.Context,
	cmd domain.Command,
	redirect domain.Redirect,
) (*Proc, error) {
	if !cmd.Empty() {
		r.logger.Info(style.Prompt + " " + cmd.String())
	}
	return r.Spawn(ctx, cmd, redirect)
}

// ExecuteShell runs line through /bin/sh -c and waits for it.
func (r *Runner) ExecuteShell(ctx context.Context, line string) (domain.ExecResult, error) {
	return r.Execute(ctx, domain.ShellCommand(line))
}

// ReadProcessOutput runs cmd and returns everything it wrote to stdout and
// stderr, interleaved in the order the child wrote it.
func (r *Runner) ReadProcessOutput(ctx context.Context, cmd domain.Command) (string, domain.ExecResult, error) {
	invalid := domain.ExecResult{PID: domain.InvalidPID, ExitCode: domain.NoExitCode}
	if r.readBufSize <= 0 {
		err := zerr.With(zerr.Wrap(domain.ErrInvalidBufferSize, "read output"), "size", r.readBufSize)
		r.logger.Error(err)
		return "", invalid, err
	}
	if cmd.Empty() {
		err := zerr.Wrap(domain.ErrEmptyCommand, "read output")
		r.logger.Error(err)
		return "", invalid, err
	}

	pr, pw, err := os.Pipe()
	if err != nil {
		err = zerr.Wrap(errors.Join(domain.ErrPipeFailed, err), "read output")
		r.logger.Error(err)
		return "", invalid, err
	}

	r.logger.Info(style.Prompt + " " + cmd.String())
	proc, err := r.spawn(ctx, cmd, domain.Redirect{Stdout: pw, Stderr: pw}, []ioCloser{pr})
	// The child holds its own copy of the write end; ours must go so that
	// the read below sees EOF once the child exits.
	_ = pw.Close()
	if err != nil {
		_ = pr.Close()
		return "", startFailureResult(err), err
	}
	defer func() { _ = proc.Cleanup() }()

	out, readErr := drain(pr, r.readBufSize)

	res, waitErr := proc.Wait()
	if readErr != nil {
		return out, res, zerr.With(zerr.Wrap(errors.Join(domain.ErrOutputReadFailed, readErr), "read output"), "command", cmd.String())
	}
	if waitErr != nil {
		return out, res, waitErr
	}
	return out, res, checkResult(cmd, res)
}

// ReadShellOutput runs line through /bin/sh -c and returns its combined output.
func (r *Runner) ReadShellOutput(ctx context.Context, line string) (string, domain.ExecResult, error) {
	return r.ReadProcessOutput(ctx, domain.ShellCommand(line))
}

// drain reads src to EOF in chunks of size bytes.
func drain(src io.Reader, size int) (string, error) {
	var out bytes.Buffer
	buf := make([]byte, size)
	for {
		n, err := src.Read(buf)
		out.Write(buf[:n])
		if errors.Is(err, io.EOF) {
			return out.String(), nil
		}
		if err != nil {
			return out.String(), err
		}
	}
}
