//go:build unix

package bld_test

import (
	"context"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/bld"
	"go.trai.ch/bld/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func quietLogger(t *testing.T) *mocks.MockLogger {
	t.Helper()
	log := mocks.NewMockLogger(gomock.NewController(t))
	log.EXPECT().Info(gomock.Any()).AnyTimes()
	log.EXPECT().Warn(gomock.Any()).AnyTimes()
	log.EXPECT().Error(gomock.Any()).AnyTimes()
	return log
}

func TestBuilder_BuildChain(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "main.c")
	obj := filepath.Join(dir, "main.o")
	app := filepath.Join(dir, "app")
	require.NoError(t, os.WriteFile(src, []byte("src"), 0o600))

	b := bld.New(bld.WithLogger(quietLogger(t)))
	b.Add(bld.NewDep(app, []string{obj}, bld.NewCommand("cp", obj, app)))
	b.Add(bld.NewDep(obj, []string{src}, bld.NewCommand("cp", src, obj)))

	stale, err := b.NeedsRebuild(app)
	require.NoError(t, err)
	assert.True(t, stale)

	require.NoError(t, b.BuildParallel(context.Background(), app, 2))
	assert.FileExists(t, app)
	assert.True(t, b.Graph().IsChecked(obj))

	b.Reset()
	stale, err = b.NeedsRebuild(app)
	require.NoError(t, err)
	assert.False(t, stale)
}

func TestBuilder_MissingSource(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out")

	b := bld.New(bld.WithLogger(quietLogger(t)))
	b.Add(bld.NewDep(out, []string{filepath.Join(dir, "in.missing")}, bld.NewCommand("touch", out)))

	err := b.Build(context.Background(), out)
	require.ErrorIs(t, err, bld.ErrMissingDependency)
	assert.NoFileExists(t, out)
}

func TestBuilder_Cycle(t *testing.T) {
	b := bld.New(bld.WithLogger(quietLogger(t)))
	b.Add(bld.NewDep("a", []string{"b"}, bld.NewCommand("true")))
	b.Add(bld.NewDep("b", []string{"a"}, bld.NewCommand("true")))

	require.ErrorIs(t, b.Build(context.Background(), "a"), bld.ErrCycleDetected)
	require.ErrorIs(t, b.BuildAllParallel(context.Background(), 2), bld.ErrCycleDetected)
}

func TestBuilder_BuildAll(t *testing.T) {
	dir := t.TempDir()
	one := filepath.Join(dir, "one")
	two := filepath.Join(dir, "two")

	b := bld.New(bld.WithLogger(quietLogger(t)))
	b.Add(bld.NewDep(one, nil, bld.NewCommand("touch", one)))
	b.Add(bld.NewDep(two, nil, bld.NewCommand("touch", two)))
	b.AddPhony("noop")

	require.NoError(t, b.BuildAll(context.Background()))
	assert.FileExists(t, one)
	assert.FileExists(t, two)
}

func TestBuilder_Load(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile("bld.yaml", []byte(`version: "1"
targets:
  out:
    cmd: ["touch", "out"]
`), 0o600))

	b := bld.New(bld.WithLogger(quietLogger(t)))
	require.NoError(t, b.Load("bld.yaml"))
	require.NoError(t, b.Build(context.Background(), "out"))
	assert.FileExists(t, filepath.Join(dir, "out"))
}

func TestBuilder_Runner(t *testing.T) {
	b := bld.New(bld.WithLogger(quietLogger(t)))
	r := b.Runner()

	res, err := r.Execute(context.Background(), bld.NewCommand("false"))
	require.ErrorIs(t, err, bld.ErrCommandFailed)
	assert.True(t, res.Normal)
	assert.Equal(t, 1, res.ExitCode)

	out, _, err := r.ReadShellOutput(context.Background(), "echo hello")
	require.NoError(t, err)
	assert.Equal(t, "hello\n", out)

	proc, err := r.ExecuteAsync(context.Background(), bld.NewCommand("sleep", "10"))
	require.NoError(t, err)
	require.NoError(t, syscall.Kill(proc.PID(), syscall.SIGTERM))
	res, err = proc.Wait()
	require.NoError(t, err)
	assert.False(t, res.Normal)
	assert.Equal(t, syscall.SIGTERM, res.Signal)
	assert.Equal(t, bld.ProcSignaled, proc.State())
	require.NoError(t, proc.Cleanup())
	assert.Equal(t, bld.ProcInvalid, proc.State())

	procs := []*bld.Proc{}
	for range 3 {
		p, err := r.ExecuteAsync(context.Background(), bld.NewCommand("true"))
		require.NoError(t, err)
		procs = append(procs, p)
	}
	batch := bld.WaitProcs(procs, time.Millisecond)
	assert.Equal(t, 3, batch.Completed)
}
