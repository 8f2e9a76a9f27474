package scheduler_test

import (
	"context"
	"fmt"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/bld/internal/core/domain"
	"go.uber.org/mock/gomock"
)

func TestScheduler_BuildParallel_Diamond(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t).quiet()
		rec := newRecorder().withDelay(10*time.Millisecond, "left", "right")
		f.runner.EXPECT().Execute(gomock.Any(), gomock.Any()).DoAndReturn(rec.run).Times(3)

		g := domain.NewGraph()
		g.Add(domain.NewDep("dependent", []string{"left", "right"}, cmdFor("dependent")))
		g.Add(domain.NewDep("left", nil, cmdFor("left")))
		g.Add(domain.NewDep("right", nil, cmdFor("right")))

		require.NoError(t, f.sched.BuildParallel(context.Background(), g, "dependent", 2))

		order := rec.built()
		require.Len(t, order, 3)
		assert.Equal(t, "dependent", order[2])
		assert.ElementsMatch(t, []string{"left", "right"}, order[:2])
		assert.Equal(t, int32(2), rec.maxActive.Load())

		for _, name := range []string{"dependent", "left", "right"} {
			assert.True(t, g.IsChecked(name), name)
		}
	})
}

func TestScheduler_BuildParallel_RespectsThreadBound(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t).quiet()

		var names []string
		for i := range 6 {
			names = append(names, fmt.Sprintf("obj%d", i))
		}
		rec := newRecorder().withDelay(10*time.Millisecond, names...)
		f.runner.EXPECT().Execute(gomock.Any(), gomock.Any()).DoAndReturn(rec.run).Times(6)

		g := domain.NewGraph()
		g.AddPhony("all", names...)
		for _, name := range names {
			g.Add(domain.NewDep(name, nil, cmdFor(name)))
		}

		require.NoError(t, f.sched.BuildParallel(context.Background(), g, "all", 2))

		assert.Len(t, rec.built(), 6)
		assert.Equal(t, int32(2), rec.maxActive.Load())
		assert.True(t, g.IsChecked("all"))
	})
}

func TestScheduler_BuildParallel_ZeroThreadsRunsSerially(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t).quiet()
		rec := newRecorder().withDelay(time.Millisecond, "a", "b")
		f.runner.EXPECT().Execute(gomock.Any(), gomock.Any()).DoAndReturn(rec.run).Times(2)

		g := domain.NewGraph()
		g.AddPhony("all", "a", "b")
		g.Add(domain.NewDep("a", nil, cmdFor("a")))
		g.Add(domain.NewDep("b", nil, cmdFor("b")))

		require.NoError(t, f.sched.BuildParallel(context.Background(), g, "all", 0))
		assert.Equal(t, []string{"a", "b"}, rec.built())
		assert.Equal(t, int32(1), rec.maxActive.Load())
	})
}

func TestScheduler_BuildParallel_FailureStopsDispatch(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t).quiet()
		rec := newRecorder("bad").
			withDelay(10*time.Millisecond, "bad").
			withDelay(50*time.Millisecond, "slow")
		f.runner.EXPECT().Execute(gomock.Any(), gomock.Any()).DoAndReturn(rec.run).Times(2)

		g := domain.NewGraph()
		g.AddPhony("all", "bad", "slow", "after")
		g.Add(domain.NewDep("bad", nil, cmdFor("bad")))
		g.Add(domain.NewDep("slow", nil, cmdFor("slow")))
		g.Add(domain.NewDep("after", []string{"bad"}, cmdFor("after")))

		err := f.sched.BuildParallel(context.Background(), g, "all", 2)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrTargetFailed)
		assert.ErrorIs(t, err, domain.ErrCommandFailed)

		assert.ElementsMatch(t, []string{"bad", "slow"}, rec.built())
		assert.True(t, g.IsChecked("slow"), "in-flight sibling keeps its result")
		assert.False(t, g.IsChecked("bad"))
		assert.False(t, g.IsChecked("after"))
		assert.False(t, g.IsChecked("all"))
	})
}

func TestScheduler_BuildParallel_Cycle(t *testing.T) {
	f := newFixture(t)

	g := domain.NewGraph()
	g.Add(domain.NewDep("A", []string{"B"}, cmdFor("A")))
	g.Add(domain.NewDep("B", []string{"A"}, cmdFor("B")))

	err := f.sched.BuildParallel(context.Background(), g, "A", 4)
	require.ErrorIs(t, err, domain.ErrCycleDetected)
}

func TestScheduler_BuildParallel_MissingSource(t *testing.T) {
	f := newFixture(t).quiet()

	g := domain.NewGraph()
	g.Add(domain.NewDep("out", []string{"in.missing"}, cmdFor("out")))

	err := f.sched.BuildParallel(context.Background(), g, "out", 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMissingDependency)
	assert.False(t, g.IsChecked("out"))
}

func TestScheduler_BuildParallel_CancelledBeforeStart(t *testing.T) {
	f := newFixture(t)

	g := domain.NewGraph()
	g.Add(domain.NewDep("A", nil, cmdFor("A")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.sched.BuildParallel(ctx, g, "A", 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBuildIncomplete)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScheduler_BuildParallel_CancelStopsDispatch(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t).quiet()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		var built []string
		f.runner.EXPECT().Execute(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, cmd domain.Command) (domain.ExecResult, error) {
				built = append(built, nameOf(cmd))
				cancel()
				time.Sleep(10 * time.Millisecond)
				return domain.ExecResult{Normal: true}, nil
			}).Times(1)

		g := domain.NewGraph()
		g.Add(domain.NewDep("A", []string{"B"}, cmdFor("A")))
		g.Add(domain.NewDep("B", nil, cmdFor("B")))

		err := f.sched.BuildParallel(ctx, g, "A", 1)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrBuildIncomplete)
		assert.ErrorIs(t, err, context.Canceled)

		assert.Equal(t, []string{"B"}, built)
		assert.True(t, g.IsChecked("B"))
		assert.False(t, g.IsChecked("A"))
	})
}

func TestScheduler_BuildParallel_SkipsCheckedTargets(t *testing.T) {
	f := newFixture(t).quiet()
	rec := newRecorder()
	f.runner.EXPECT().Execute(gomock.Any(), gomock.Any()).DoAndReturn(rec.run).Times(2)

	g := domain.NewGraph()
	g.Add(domain.NewDep("A", []string{"B"}, cmdFor("A")))
	g.Add(domain.NewDep("B", nil, cmdFor("B")))

	require.NoError(t, f.sched.BuildParallel(context.Background(), g, "A", 2))
	require.NoError(t, f.sched.BuildParallel(context.Background(), g, "A", 2))
	assert.Equal(t, []string{"B", "A"}, rec.built())
}

func TestScheduler_BuildParallel_NonTarget(t *testing.T) {
	f := newFixture(t)

	err := f.sched.BuildParallel(context.Background(), domain.NewGraph(), "nope", 2)
	require.ErrorIs(t, err, domain.ErrTargetNotFound)
}

func TestScheduler_BuildAllParallel(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t).quiet()
		rec := newRecorder().withDelay(5*time.Millisecond, "lib", "gen")
		f.runner.EXPECT().Execute(gomock.Any(), gomock.Any()).DoAndReturn(rec.run).Times(4)

		g := domain.NewGraph()
		g.Add(domain.NewDep("app", []string{"lib"}, cmdFor("app")))
		g.Add(domain.NewDep("lib", nil, cmdFor("lib")))
		g.Add(domain.NewDep("tool", []string{"gen"}, cmdFor("tool")))
		g.Add(domain.NewDep("gen", nil, cmdFor("gen")))

		require.NoError(t, f.sched.BuildAllParallel(context.Background(), g, 3))

		order := rec.built()
		require.Len(t, order, 4)
		assert.Less(t, indexOf(t, order, "lib"), indexOf(t, order, "app"))
		assert.Less(t, indexOf(t, order, "gen"), indexOf(t, order, "tool"))
		assert.Equal(t, 4, g.Len())
		assert.Equal(t, []string{"app", "tool"}, g.Roots())
	})
}

func TestScheduler_BuildAllParallel_Cycle(t *testing.T) {
	f := newFixture(t)

	g := domain.NewGraph()
	g.Add(domain.NewDep("x", []string{"y"}, cmdFor("x")))
	g.Add(domain.NewDep("y", []string{"x"}, cmdFor("y")))

	require.ErrorIs(t, f.sched.BuildAllParallel(context.Background(), g, 2), domain.ErrCycleDetected)
	assert.Equal(t, 2, g.Len())
}
