// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/bld/internal/adapters/config"
	_ "go.trai.ch/bld/internal/adapters/fs"
	_ "go.trai.ch/bld/internal/adapters/logger"
	_ "go.trai.ch/bld/internal/adapters/process"
	_ "go.trai.ch/bld/internal/adapters/telemetry"
	_ "go.trai.ch/bld/internal/adapters/watcher"
	// Register app and engine nodes.
	_ "go.trai.ch/bld/internal/app"
	_ "go.trai.ch/bld/internal/engine/scheduler"
)
