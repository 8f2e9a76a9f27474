package process

import (
	"errors"
	"os"
	"os/exec"
	"sync"
	"syscall"

	"go.trai.ch/bld/internal/core/domain"
	"go.trai.ch/zerr"
)

type ioCloser interface {
	Close() error
}

// Proc is a handle to a spawned child process.
//
// Every child is reaped by a background goroutine as soon as it terminates,
// so a Proc that is never waited on does not leave a zombie behind.
type Proc struct {
	mu      sync.Mutex
	pid     int
	state   domain.ProcState
	owned   []ioCloser
	done    chan struct{}
	result  domain.ExecResult
	waitErr error
}

func startReaper(c *exec.Cmd, cmd domain.Command, owned, flush []ioCloser) *Proc {
	pid := c.Process.Pid
	p := &Proc{
		pid:   pid,
		state: domain.ProcRunning,
		owned: owned,
		done:  make(chan struct{}),
	}

	go func() {
		err := c.Wait()
		for _, f := range flush {
			_ = f.Close()
		}

		res := decodeState(pid, c.ProcessState)
		var exitErr *exec.ExitError
		if err != nil && !errors.As(err, &exitErr) {
			err = zerr.With(zerr.Wrap(err, "failed to copy process output"), "command", cmd.String())
		} else {
			err = nil
		}

		p.mu.Lock()
		p.result = res
		p.waitErr = err
		if p.state == domain.ProcRunning {
			if res.Signaled() {
				p.state = domain.ProcSignaled
			} else {
				p.state = domain.ProcExited
			}
		}
		p.mu.Unlock()
		close(p.done)
	}()

	return p
}

// decodeState turns the OS wait status into an ExecResult.
func decodeState(pid int, ps *os.ProcessState) domain.ExecResult {
	res := domain.ExecResult{PID: pid, ExitCode: domain.NoExitCode}
	if ps == nil {
		return res
	}

	ws, ok := ps.Sys().(syscall.WaitStatus)
	if !ok {
		res.Normal = ps.Exited()
		if res.Normal {
			res.ExitCode = ps.ExitCode()
		}
		return res
	}

	switch {
	case ws.Exited():
		res.Normal = true
		res.ExitCode = ws.ExitStatus()
	case ws.Signaled():
		res.Signal = ws.Signal()
	}
	return res
}

// PID returns the process id, or domain.InvalidPID after Cleanup.
func (p *Proc) PID() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pid
}

// State returns the lifecycle state of the handle.
func (p *Proc) State() domain.ProcState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Wait blocks until the child terminates and returns how it ended.
// Waiting again returns the same result.
func (p *Proc) Wait() (domain.ExecResult, error) {
	p.mu.Lock()
	if p.state == domain.ProcInvalid {
		p.mu.Unlock()
		return domain.ExecResult{PID: domain.InvalidPID, ExitCode: domain.NoExitCode}, zerr.Wrap(domain.ErrInvalidProc, "wait")
	}
	p.mu.Unlock()

	<-p.done
	return p.result, p.waitErr
}

// TryWait reports the state of the child without blocking.
func (p *Proc) TryWait() domain.WaitStatus {
	p.mu.Lock()
	invalid := p.state == domain.ProcInvalid
	p.mu.Unlock()
	if invalid {
		return domain.WaitStatus{Invalid: true}
	}

	select {
	case <-p.done:
		return domain.WaitStatus{Exited: true, Result: p.result}
	default:
		return domain.WaitStatus{Running: true}
	}
}

// Cleanup releases the I/O handles owned by the Proc and invalidates it.
// It does not wait for or signal the child. Calling it again is a no-op.
func (p *Proc) Cleanup() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == domain.ProcInvalid {
		return nil
	}

	var errs []error
	for _, c := range p.owned {
		if err := c.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			errs = append(errs, err)
		}
	}
	p.owned = nil
	p.pid = domain.InvalidPID
	p.state = domain.ProcInvalid

	if len(errs) > 0 {
		return zerr.Wrap(errors.Join(errs...), "failed to release process handles")
	}
	return nil
}
