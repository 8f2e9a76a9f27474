// Package config provides the build file loader for bld.
package config

import (
	"fmt"
	"path/filepath"

	"go.trai.ch/bld/internal/core/domain"
	"go.trai.ch/bld/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// SupportedVersion is the build file version understood by the loader.
const SupportedVersion = "1"

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	Logger ports.Logger
	FS     ports.FileSystem
}

// NewLoader creates a new Loader.
func NewLoader(logger ports.Logger, fsys ports.FileSystem) *Loader {
	return &Loader{Logger: logger, FS: fsys}
}

// Discover walks up from cwd and returns the path of the nearest build file.
func (l *Loader) Discover(cwd string) (string, error) {
	currentDir := filepath.Clean(cwd)

	for {
		for _, name := range []string{domain.BuildFileName, domain.AltBuildFileName} {
			candidate := filepath.Join(currentDir, name)
			st, err := l.FS.Stat(candidate)
			if err != nil {
				return "", err
			}
			if st.Exists {
				return candidate, nil
			}
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}

	return "", zerr.With(zerr.Wrap(domain.ErrConfigNotFound, "discover"), "cwd", cwd)
}

// Load reads the build file at path and returns its dependency graph.
// Targets are added in declaration order.
func (l *Loader) Load(path string) (*domain.Graph, error) {
	data, err := l.FS.ReadFile(path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(fmt.Errorf("%w: %w", domain.ErrConfigReadFailed, err), "load"), "path", path)
	}

	var buildfile Buildfile
	if err := yaml.Unmarshal(data, &buildfile); err != nil {
		return nil, zerr.With(zerr.Wrap(fmt.Errorf("%w: %w", domain.ErrConfigParseFailed, err), "load"), "path", path)
	}

	switch buildfile.Version {
	case SupportedVersion:
	case "":
		l.Logger.Warn(fmt.Sprintf("%s does not declare a version, assuming %q", filepath.Base(path), SupportedVersion))
	default:
		l.Logger.Warn(fmt.Sprintf("%s declares unknown version %q", filepath.Base(path), buildfile.Version))
	}

	g := domain.NewGraph()
	for _, nt := range buildfile.Targets {
		dep, err := buildDep(nt)
		if err != nil {
			return nil, zerr.With(err, "path", path)
		}
		g.Add(dep)
	}

	return g, nil
}

func buildDep(nt NamedTarget) (domain.Dep, error) {
	if nt.Name == "" {
		return domain.Dep{}, zerr.Wrap(domain.ErrInvalidTargetName, "target names must not be empty")
	}

	dto := nt.Target
	cmd := dto.Cmd.Command
	if dto.Shell != "" {
		if !cmd.Empty() {
			err := zerr.Wrap(domain.ErrConfigParseFailed, "cmd and shell are mutually exclusive")
			return domain.Dep{}, zerr.With(err, "target", nt.Name)
		}
		cmd = domain.ShellCommand(dto.Shell)
	}

	return domain.Dep{
		Target:  nt.Name,
		Deps:    dto.Deps,
		Command: cmd,
		Phony:   dto.Phony,
	}, nil
}
