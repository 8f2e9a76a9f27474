package fs_test

import (
	"errors"
	iofs "io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/bld/internal/adapters/fs"
)

func TestFileSystem_Stat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	mtime := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(path, mtime, mtime))

	st, err := fs.New().Stat(path)
	require.NoError(t, err)
	assert.True(t, st.Exists)
	assert.True(t, st.ModTime.Equal(mtime))
}

func TestFileSystem_Stat_Missing(t *testing.T) {
	st, err := fs.New().Stat(filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	assert.False(t, st.Exists)
}

func TestFileSystem_Stat_DanglingSymlink(t *testing.T) {
	dir := t.TempDir()
	link := filepath.Join(dir, "link")
	require.NoError(t, os.Symlink(filepath.Join(dir, "nowhere"), link))

	st, err := fs.New().Stat(link)
	require.NoError(t, err)
	assert.False(t, st.Exists)
}

func TestFileSystem_Remove(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	fsys := fs.New()
	require.NoError(t, fsys.Remove(path))
	_, err := os.Stat(path)
	assert.True(t, errors.Is(err, iofs.ErrNotExist))

	require.NoError(t, fsys.Remove(path), "removing a missing file is not an error")
}

func TestFileSystem_ReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bld.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: \"1\"\n"), 0o600))

	fsys := fs.New()
	data, err := fsys.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "version: \"1\"\n", string(data))

	_, err = fsys.ReadFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, iofs.ErrNotExist))
}
