package scheduler_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/bld/internal/core/domain"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

func TestScheduler_NeedsRebuild(t *testing.T) {
	dir := t.TempDir()
	older := time.Now().Add(-time.Hour)
	newer := time.Now()

	path := func(name string) string { return filepath.Join(dir, name) }
	touch(t, path("old.o"), older)
	touch(t, path("new.c"), newer)
	touch(t, path("new.o"), newer)
	touch(t, path("old.c"), older)

	g := domain.NewGraph()
	g.Add(domain.NewDep(path("old.o"), []string{path("new.c")}, cmdFor("old.o")))
	g.Add(domain.NewDep(path("new.o"), []string{path("old.c")}, cmdFor("new.o")))
	g.Add(domain.NewDep(path("absent.o"), []string{path("old.c")}, cmdFor("absent.o")))
	g.Add(domain.NewDep(path("leaf.o"), nil, cmdFor("leaf.o")))
	g.AddPhony("check", path("new.o"))
	g.Add(domain.NewDep(path("after-phony.o"), []string{"check"}, cmdFor("x")))
	g.Add(domain.NewDep(path("after-absent.o"), []string{path("absent.o")}, cmdFor("x")))
	touch(t, path("after-phony.o"), newer)
	touch(t, path("after-absent.o"), newer)

	tests := []struct {
		name   string
		target string
		want   bool
	}{
		{"target older than dependency", path("old.o"), true},
		{"target newer than dependency", path("new.o"), false},
		{"target missing", path("absent.o"), true},
		{"phony target", "check", true},
		{"dependency is phony", path("after-phony.o"), true},
		{"dependency target without artifact", path("after-absent.o"), true},
	}

	f := newFixture(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.sched.NeedsRebuild(g, tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("leaf target missing", func(t *testing.T) {
		got, err := f.sched.NeedsRebuild(g, path("leaf.o"))
		require.NoError(t, err)
		assert.True(t, got)
	})
}

func TestScheduler_NeedsRebuild_EqualTimesUpToDate(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	touch(t, filepath.Join(dir, "out"), now)
	touch(t, filepath.Join(dir, "in"), now)

	g := domain.NewGraph()
	g.Add(domain.NewDep(filepath.Join(dir, "out"), []string{filepath.Join(dir, "in")}, cmdFor("out")))

	got, err := newFixture(t).sched.NeedsRebuild(g, filepath.Join(dir, "out"))
	require.NoError(t, err)
	assert.False(t, got)
}

func TestScheduler_NeedsRebuild_MissingDependency(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	touch(t, out, time.Now())

	g := domain.NewGraph()
	g.Add(domain.NewDep(out, []string{filepath.Join(dir, "in.missing")}, cmdFor("out")))

	f := newFixture(t)
	f.log.EXPECT().Warn(gomock.Any()).Times(1)

	got, err := f.sched.NeedsRebuild(g, out)
	require.Error(t, err)
	assert.False(t, got)
	assert.ErrorIs(t, err, domain.ErrMissingDependency)
}

func TestScheduler_NeedsRebuild_UnknownTarget(t *testing.T) {
	_, err := newFixture(t).sched.NeedsRebuild(domain.NewGraph(), "nope")
	require.ErrorIs(t, err, domain.ErrTargetNotFound)
}

func TestScheduler_Build_DependenciesFirst(t *testing.T) {
	f := newFixture(t).quiet()
	rec := newRecorder()
	f.runner.EXPECT().Execute(gomock.Any(), gomock.Any()).DoAndReturn(rec.run).Times(3)

	g := domain.NewGraph()
	g.Add(domain.NewDep("A", []string{"B", "C"}, cmdFor("A")))
	g.Add(domain.NewDep("B", nil, cmdFor("B")))
	g.Add(domain.NewDep("C", nil, cmdFor("C")))

	require.NoError(t, f.sched.Build(context.Background(), g, "A"))

	assert.Equal(t, []string{"B", "C", "A"}, rec.built())
	for _, name := range []string{"A", "B", "C"} {
		assert.True(t, g.IsChecked(name), name)
	}
}

func TestScheduler_Build_Cycle(t *testing.T) {
	f := newFixture(t)

	g := domain.NewGraph()
	g.Add(domain.NewDep("A", []string{"B"}, cmdFor("A")))
	g.Add(domain.NewDep("B", []string{"A"}, cmdFor("B")))

	err := f.sched.Build(context.Background(), g, "A")
	require.ErrorIs(t, err, domain.ErrCycleDetected)

	var zErr *zerr.Error
	require.ErrorAs(t, err, &zErr)
	assert.Equal(t, "A -> B -> A", zErr.Metadata()["cycle"])
}

func TestScheduler_Build_MissingSource(t *testing.T) {
	f := newFixture(t)
	f.log.EXPECT().Warn("missing dependency in.missing required by out").Times(1)

	g := domain.NewGraph()
	g.Add(domain.NewDep("out", []string{"in.missing"}, cmdFor("out")))

	err := f.sched.Build(context.Background(), g, "out")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDependencyFailed)
	assert.ErrorIs(t, err, domain.ErrMissingDependency)
	assert.False(t, g.IsChecked("out"))
}

func TestScheduler_Build_SiblingsRunAfterFailure(t *testing.T) {
	f := newFixture(t).quiet()
	rec := newRecorder("B")
	f.runner.EXPECT().Execute(gomock.Any(), gomock.Any()).DoAndReturn(rec.run).Times(2)

	g := domain.NewGraph()
	g.Add(domain.NewDep("A", []string{"B", "C"}, cmdFor("A")))
	g.Add(domain.NewDep("B", nil, cmdFor("B")))
	g.Add(domain.NewDep("C", nil, cmdFor("C")))

	err := f.sched.Build(context.Background(), g, "A")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDependencyFailed)
	assert.ErrorIs(t, err, domain.ErrTargetFailed)
	assert.ErrorIs(t, err, domain.ErrCommandFailed)

	assert.Equal(t, []string{"B", "C"}, rec.built())
	assert.False(t, g.IsChecked("A"))
	assert.False(t, g.IsChecked("B"))
	assert.True(t, g.IsChecked("C"))
}

func TestScheduler_Build_SharedFailureRunsOnce(t *testing.T) {
	f := newFixture(t).quiet()
	rec := newRecorder("D")
	f.runner.EXPECT().Execute(gomock.Any(), gomock.Any()).DoAndReturn(rec.run).Times(1)

	g := domain.NewGraph()
	g.Add(domain.NewDep("A", []string{"B", "C", "B"}, cmdFor("A")))
	g.Add(domain.NewDep("B", []string{"D"}, cmdFor("B")))
	g.Add(domain.NewDep("C", []string{"D"}, cmdFor("C")))
	g.Add(domain.NewDep("D", nil, cmdFor("D")))

	err := f.sched.Build(context.Background(), g, "A")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDependencyFailed)
	assert.ErrorIs(t, err, domain.ErrCommandFailed)

	assert.Equal(t, []string{"D"}, rec.built())
	for _, name := range []string{"A", "B", "C", "D"} {
		assert.False(t, g.IsChecked(name), name)
	}

	// A new call attempts the failed target again.
	f.runner.EXPECT().Execute(gomock.Any(), gomock.Any()).DoAndReturn(rec.run).Times(1)
	require.Error(t, f.sched.Build(context.Background(), g, "D"))
	assert.Equal(t, []string{"D", "D"}, rec.built())
}

func TestScheduler_Build_CheckedShortCircuits(t *testing.T) {
	f := newFixture(t).quiet()
	rec := newRecorder()
	f.runner.EXPECT().Execute(gomock.Any(), gomock.Any()).DoAndReturn(rec.run).Times(2)

	g := domain.NewGraph()
	g.Add(domain.Dep{Target: "gen", Command: cmdFor("gen"), Phony: true})

	require.NoError(t, f.sched.Build(context.Background(), g, "gen"))
	require.NoError(t, f.sched.Build(context.Background(), g, "gen"))
	assert.Equal(t, []string{"gen"}, rec.built())

	g.Reset()
	require.NoError(t, f.sched.Build(context.Background(), g, "gen"))
	assert.Equal(t, []string{"gen", "gen"}, rec.built())
}

func TestScheduler_Build_SourceLoggedOnce(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "common.h")
	touch(t, src, time.Now())

	f := newFixture(t)
	f.log.EXPECT().Info("using source " + src).Times(1)
	rec := newRecorder()
	f.runner.EXPECT().Execute(gomock.Any(), gomock.Any()).DoAndReturn(rec.run).Times(2)

	g := domain.NewGraph()
	g.AddPhony("all", "a.o", "b.o")
	g.Add(domain.NewDep("a.o", []string{src}, cmdFor("a.o")))
	g.Add(domain.NewDep("b.o", []string{src}, cmdFor("b.o")))

	require.NoError(t, f.sched.Build(context.Background(), g, "all"))
	assert.Equal(t, []string{"a.o", "b.o"}, rec.built())
}

func TestScheduler_Build_TargetWithoutCommand(t *testing.T) {
	f := newFixture(t)
	f.log.EXPECT().Warn("target alias has no command").Times(1)

	g := domain.NewGraph()
	g.Add(domain.NewDep("alias", nil, domain.Command{}))

	require.NoError(t, f.sched.Build(context.Background(), g, "alias"))
	assert.True(t, g.IsChecked("alias"))
}

func TestScheduler_Build_PhonyWithoutCommandIsQuiet(t *testing.T) {
	f := newFixture(t)
	rec := newRecorder()
	f.runner.EXPECT().Execute(gomock.Any(), gomock.Any()).DoAndReturn(rec.run).Times(1)

	g := domain.NewGraph()
	g.AddPhony("all", "P")
	g.Add(domain.Dep{Target: "P", Command: cmdFor("P"), Phony: true})

	require.NoError(t, f.sched.Build(context.Background(), g, "all"))
	assert.Equal(t, []string{"P"}, rec.built())
}

func TestScheduler_Build_UpToDateSkipsCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in")
	out := filepath.Join(dir, "out")
	touch(t, in, time.Now().Add(-time.Hour))
	touch(t, out, time.Now())

	f := newFixture(t).quiet()

	g := domain.NewGraph()
	g.Add(domain.NewDep(out, []string{in}, cmdFor("out")))

	require.NoError(t, f.sched.Build(context.Background(), g, out))
	assert.True(t, g.IsChecked(out))
}

func TestScheduler_Build_NonTarget(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "main.c")
	touch(t, src, time.Now())

	f := newFixture(t)
	g := domain.NewGraph()

	require.NoError(t, f.sched.Build(context.Background(), g, src))

	err := f.sched.Build(context.Background(), g, filepath.Join(dir, "nope"))
	require.ErrorIs(t, err, domain.ErrTargetNotFound)
}

func TestScheduler_Build_RemovesPartialArtifact(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out")

	f := newFixture(t)
	f.log.EXPECT().Warn("removed " + out + " after failed build").Times(1)
	f.runner.EXPECT().Execute(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, _ domain.Command) (domain.ExecResult, error) {
			require.NoError(t, os.WriteFile(out, []byte("partial"), 0o600))
			return domain.ExecResult{Normal: true, ExitCode: 2}, domain.ErrCommandFailed
		})

	g := domain.NewGraph()
	g.Add(domain.NewDep(out, nil, cmdFor("out")))

	err := f.sched.Build(context.Background(), g, out)
	require.ErrorIs(t, err, domain.ErrTargetFailed)
	assert.NoFileExists(t, out)
}

func TestScheduler_Build_KeepsUntouchedArtifact(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in")
	out := filepath.Join(dir, "out")
	touch(t, out, time.Now().Add(-time.Hour))
	touch(t, in, time.Now())

	f := newFixture(t).quiet()
	f.runner.EXPECT().Execute(gomock.Any(), gomock.Any()).
		Return(domain.ExecResult{Normal: true, ExitCode: 1}, domain.ErrCommandFailed)

	g := domain.NewGraph()
	g.Add(domain.NewDep(out, []string{in}, cmdFor("out")))

	require.Error(t, f.sched.Build(context.Background(), g, out))
	assert.FileExists(t, out)
}

func TestScheduler_BuildAll(t *testing.T) {
	f := newFixture(t).quiet()
	rec := newRecorder()
	f.runner.EXPECT().Execute(gomock.Any(), gomock.Any()).DoAndReturn(rec.run).Times(4)

	g := domain.NewGraph()
	g.Add(domain.NewDep("app", []string{"lib"}, cmdFor("app")))
	g.Add(domain.NewDep("lib", nil, cmdFor("lib")))
	g.Add(domain.NewDep("tool", []string{"gen"}, cmdFor("tool")))
	g.Add(domain.NewDep("gen", nil, cmdFor("gen")))

	require.NoError(t, f.sched.BuildAll(context.Background(), g))

	assert.Equal(t, []string{"lib", "app", "gen", "tool"}, rec.built())
	assert.Equal(t, 4, g.Len())
	assert.Equal(t, []string{"app", "lib", "tool", "gen"}, g.Targets())
}

func TestScheduler_BuildAll_CycleOutsideRoots(t *testing.T) {
	f := newFixture(t)

	g := domain.NewGraph()
	g.Add(domain.NewDep("ok", nil, cmdFor("ok")))
	g.Add(domain.NewDep("x", []string{"y"}, cmdFor("x")))
	g.Add(domain.NewDep("y", []string{"x"}, cmdFor("y")))

	err := f.sched.BuildAll(context.Background(), g)
	require.ErrorIs(t, err, domain.ErrCycleDetected)
	assert.Equal(t, 3, g.Len())
}

func TestScheduler_BuildAll_Empty(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.sched.BuildAll(context.Background(), domain.NewGraph()))
}
