package scheduler_test

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.trai.ch/bld/internal/adapters/fs"
	"go.trai.ch/bld/internal/adapters/telemetry"
	"go.trai.ch/bld/internal/core/domain"
	"go.trai.ch/bld/internal/core/ports/mocks"
	"go.trai.ch/bld/internal/engine/scheduler"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

type fixture struct {
	runner *mocks.MockCommandRunner
	log    *mocks.MockLogger
	sched  *scheduler.Scheduler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &fixture{
		runner: mocks.NewMockCommandRunner(ctrl),
		log:    mocks.NewMockLogger(ctrl),
	}
	f.sched = scheduler.NewScheduler(f.runner, fs.New(), f.log, telemetry.NewNoOpTracer())
	return f
}

// quiet accepts any log output.
func (f *fixture) quiet() *fixture {
	f.log.EXPECT().Info(gomock.Any()).AnyTimes()
	f.log.EXPECT().Warn(gomock.Any()).AnyTimes()
	f.log.EXPECT().Error(gomock.Any()).AnyTimes()
	return f
}

func cmdFor(name string) domain.Command {
	return domain.NewCommand("build", name)
}

func nameOf(cmd domain.Command) string {
	return cmd.Args()[0]
}

// recorder records the order in which targets were built.
type recorder struct {
	mu    sync.Mutex
	order []string
	fail  map[string]bool
	delay map[string]time.Duration

	active    atomic.Int32
	maxActive atomic.Int32
}

func newRecorder(failing ...string) *recorder {
	r := &recorder{fail: make(map[string]bool), delay: make(map[string]time.Duration)}
	for _, name := range failing {
		r.fail[name] = true
	}
	return r
}

func (r *recorder) run(_ context.Context, cmd domain.Command) (domain.ExecResult, error) {
	name := nameOf(cmd)

	r.mu.Lock()
	r.order = append(r.order, name)
	d := r.delay[name]
	r.mu.Unlock()

	n := r.active.Add(1)
	for {
		peak := r.maxActive.Load()
		if n <= peak || r.maxActive.CompareAndSwap(peak, n) {
			break
		}
	}
	if d > 0 {
		time.Sleep(d)
	}
	r.active.Add(-1)

	if r.fail[name] {
		return domain.ExecResult{Normal: true, ExitCode: 1}, zerr.With(zerr.Wrap(domain.ErrCommandFailed, "build"), "exit_code", 1)
	}
	return domain.ExecResult{Normal: true}, nil
}

func (r *recorder) withDelay(d time.Duration, names ...string) *recorder {
	for _, name := range names {
		r.delay[name] = d
	}
	return r
}

func (r *recorder) built() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.order)
}

func indexOf(t *testing.T, order []string, name string) int {
	t.Helper()
	i := slices.Index(order, name)
	require.GreaterOrEqual(t, i, 0, "%s was not built", name)
	return i
}

// touch creates path with the given modification time.
func touch(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(filepath.Base(path)), 0o600))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}
