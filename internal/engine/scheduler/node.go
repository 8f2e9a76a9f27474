package scheduler

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/bld/internal/adapters/fs"
	"go.trai.ch/bld/internal/adapters/logger"
	"go.trai.ch/bld/internal/adapters/process"
	"go.trai.ch/bld/internal/adapters/telemetry"
	"go.trai.ch/bld/internal/core/ports"
)

// NodeID is the unique identifier for the scheduler Graft node.
const NodeID graft.ID = "engine.scheduler"

func init() {
	graft.Register(graft.Node[*Scheduler]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			process.NodeID,
			fs.NodeID,
			logger.NodeID,
			telemetry.TracerNodeID,
		},
		Run: func(ctx context.Context) (*Scheduler, error) {
			runner, err := graft.Dep[*process.Runner](ctx)
			if err != nil {
				return nil, err
			}

			fsys, err := graft.Dep[ports.FileSystem](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			tracer, err := graft.Dep[ports.Tracer](ctx)
			if err != nil {
				return nil, err
			}

			return NewScheduler(runner, fsys, log, tracer), nil
		},
	})
}
