// Package fs provides the operating system filesystem adapter.
package fs

import (
	"errors"
	iofs "io/fs"
	"os"

	"go.trai.ch/bld/internal/core/domain"
	"go.trai.ch/bld/internal/core/ports"
	"go.trai.ch/zerr"
)

// FileSystem implements ports.FileSystem on the local disk.
type FileSystem struct{}

// New creates a new FileSystem.
func New() *FileSystem {
	return &FileSystem{}
}

// Stat reports whether path exists and when it was last modified.
// Symbolic links are followed, so a dangling link counts as missing.
func (f *FileSystem) Stat(path string) (ports.FileStat, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, iofs.ErrNotExist) {
			return ports.FileStat{}, nil
		}
		return ports.FileStat{}, zerr.With(zerr.Wrap(errors.Join(domain.ErrStatFailed, err), "stat"), "path", path)
	}
	return ports.FileStat{Exists: true, ModTime: info.ModTime()}, nil
}

// Remove deletes the file at path. A missing file is not an error.
func (f *FileSystem) Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, iofs.ErrNotExist) {
		return zerr.With(zerr.Wrap(err, "failed to remove file"), "path", path)
	}
	return nil
}

// ReadFile reads the entire file at path.
func (f *FileSystem) ReadFile(path string) ([]byte, error) {
	// #nosec G304 -- reading user-named build files is the point
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read file"), "path", path)
	}
	return data, nil
}
