package ports

import "go.trai.ch/bld/internal/core/domain"

// ConfigLoader defines the interface for loading a build file.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads the build file at path and returns its dependency graph.
	Load(path string) (*domain.Graph, error)

	// Discover walks up from cwd and returns the path of the nearest build file.
	Discover(cwd string) (string, error)
}
