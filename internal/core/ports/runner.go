package ports

import (
	"context"

	"go.trai.ch/bld/internal/core/domain"
)

// CommandRunner runs a command to completion.
//
//go:generate mockgen -source=runner.go -destination=mocks/mock_runner.go -package=mocks
type CommandRunner interface {
	// Execute runs cmd with inherited standard streams and waits for it.
	//
	// It returns a non-nil error whenever the result is not a success, so the
	// result is only needed to inspect how the command ended.
	Execute(ctx context.Context, cmd domain.Command) (domain.ExecResult, error)
}

// BatchRunner runs independent commands on a bounded worker pool.
type BatchRunner interface {
	// ExecuteThreads runs every command with at most maxConcurrency running at
	// once. In strict mode any failure marks the batch as failed.
	ExecuteThreads(ctx context.Context, cmds []domain.Command, maxConcurrency int, strict bool) domain.BatchResult
}
