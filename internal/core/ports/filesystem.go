package ports

import "time"

// FileStat describes the state of a path on disk.
type FileStat struct {
	// Exists is false when nothing is at the path.
	Exists bool
	// ModTime is the last modification time, valid when Exists is true.
	ModTime time.Time
}

// FileSystem defines the filesystem operations needed to decide staleness and
// to read build files.
//
//go:generate mockgen -source=filesystem.go -destination=mocks/mock_filesystem.go -package=mocks
type FileSystem interface {
	// Stat inspects path. A missing path is not an error.
	Stat(path string) (FileStat, error)
	// Remove deletes the file at path. Removing a missing file is not an error.
	Remove(path string) error
	// ReadFile returns the contents of the file at path.
	ReadFile(path string) ([]byte, error)
}
