package domain

import (
	"io"
	"syscall"
)

const (
	// InvalidPID marks a process handle that no longer refers to a child.
	InvalidPID = -1

	// NoExitCode is the ExitCode of a result that did not end in a normal exit.
	NoExitCode = -1

	// ExecFailureStatus is the status reported when the program image could
	// not be started (missing or non-executable binary). It matches the
	// status POSIX shells use for "command not found".
	ExecFailureStatus = 127
)

// ExecResult describes how a child process terminated.
type ExecResult struct {
	// PID is the process id the child had while it was running.
	PID int
	// ExitCode is the exit status, valid when Normal is true.
	ExitCode int
	// Signal is the terminating signal, or 0 if the child was not signaled.
	Signal syscall.Signal
	// Normal is true when the child exited on its own.
	Normal bool
	// ExecFailed is true when the program image could not be started at all.
	ExecFailed bool
}

// Success reports whether the child exited normally with status 0.
func (r ExecResult) Success() bool {
	return r.Normal && r.ExitCode == 0
}

// Signaled reports whether the child was terminated by a signal.
func (r ExecResult) Signaled() bool {
	return r.Signal != 0
}

// ExecFailureResult is the result reported for a program that could not be started.
func ExecFailureResult() ExecResult {
	return ExecResult{
		PID:        InvalidPID,
		ExitCode:   ExecFailureStatus,
		Normal:     false,
		ExecFailed: true,
	}
}

// ProcState is the lifecycle state of a spawned process handle.
type ProcState int

const (
	// ProcRunning means the child has not been observed to terminate.
	ProcRunning ProcState = iota
	// ProcExited means the child exited on its own.
	ProcExited
	// ProcSignaled means the child was terminated by a signal.
	ProcSignaled
	// ProcInvalid means the handle was cleaned up or never referred to a child.
	ProcInvalid
)

func (s ProcState) String() string {
	switch s {
	case ProcRunning:
		return "running"
	case ProcExited:
		return "exited"
	case ProcSignaled:
		return "signaled"
	case ProcInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// WaitStatus is the outcome of a non-blocking poll on a process handle.
type WaitStatus struct {
	// Running is true while the child is still alive.
	Running bool
	// Exited is true once the child has terminated; Result is then valid.
	Exited bool
	// Invalid is true when the handle no longer refers to a child.
	Invalid bool
	Result  ExecResult
}

// Redirect rebinds the standard streams of a child process.
// A nil field leaves that stream inherited from the calling process.
// Handles are borrowed: the caller keeps ownership and closes them.
type Redirect struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// BatchResult aggregates the outcome of a batch of independent commands.
type BatchResult struct {
	// Completed counts commands that succeeded.
	Completed int
	// FailedIndices lists, in ascending order, the batch positions that failed.
	FailedIndices []int
	// Failed marks the batch as failed. Only strict batches set it.
	Failed bool
}

// Total returns the number of commands accounted for.
func (b BatchResult) Total() int {
	return b.Completed + len(b.FailedIndices)
}
