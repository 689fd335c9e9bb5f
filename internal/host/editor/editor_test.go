package editor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celestiaorg/reloader/internal/events"
)

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) handle(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) types() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func newTestEditor(t *testing.T, run Runner) (*Editor, *recorder, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n"), 0o600))

	bus := events.NewBus()
	rec := &recorder{}
	for _, et := range []events.EventType{events.EventBuildStarted, events.EventUnitBuilt, events.EventBuildFinished} {
		bus.Subscribe(et, rec.handle)
	}

	ed := New(Options{ProjectDir: dir, TickInterval: 5 * time.Millisecond, ResetDelay: time.Millisecond}, bus)
	if run != nil {
		ed.run = run
	}
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, ed.Start(ctx))
	t.Cleanup(func() {
		cancel()
		ed.Stop()
	})
	return ed, rec, dir
}

func waitIdle(t *testing.T, ed *Editor) {
	t.Helper()
	require.Eventually(t, func() bool { return !ed.IsBuilding() }, 2*time.Second, 5*time.Millisecond)
}

func TestRefreshAssets(t *testing.T) {
	ed, _, dir := newTestEditor(t, nil)
	ctx := context.Background()

	changed, err := ed.RefreshAssets(ctx)
	require.NoError(t, err)
	assert.False(t, changed)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "player.go"), []byte("package main\n"), 0o600))
	changed, err = ed.RefreshAssets(ctx)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = ed.RefreshAssets(ctx)
	require.NoError(t, err)
	assert.False(t, changed)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".git", "HEAD"), []byte("ref"), 0o600))
	changed, err = ed.RefreshAssets(ctx)
	require.NoError(t, err)
	assert.False(t, changed, "hidden entries are ignored")
}

func TestRequestCompile(t *testing.T) {
	t.Run("clean build", func(t *testing.T) {
		ed, rec, _ := newTestEditor(t, func(context.Context, string, []string) ([]byte, error) {
			return nil, nil
		})

		require.NoError(t, ed.RequestCompile(context.Background(), false))
		waitIdle(t, ed)

		assert.Equal(t, []events.EventType{events.EventBuildStarted, events.EventBuildFinished}, rec.types())
	})

	t.Run("build with errors", func(t *testing.T) {
		ed, rec, _ := newTestEditor(t, func(context.Context, string, []string) ([]byte, error) {
			return []byte("# example.com/game\n./main.go:3:1: undefined: speed\n"), errors.New("exit status 1")
		})
		var resets atomic.Int32
		ed.SetResetHandler(func(context.Context) error {
			resets.Add(1)
			return nil
		})

		require.NoError(t, ed.RequestCompile(context.Background(), true))
		waitIdle(t, ed)

		require.Equal(t, []events.EventType{events.EventBuildStarted, events.EventUnitBuilt, events.EventBuildFinished}, rec.types())
		rec.mu.Lock()
		unit := rec.events[1]
		rec.mu.Unlock()
		assert.Equal(t, "example.com/game", unit.Unit)
		require.Len(t, unit.Diagnostics, 1)
		assert.Equal(t, "undefined: speed", unit.Diagnostics[0].Message)

		time.Sleep(20 * time.Millisecond)
		assert.Equal(t, int32(0), resets.Load(), "failed builds do not reset")
	})

	t.Run("command failure without diagnostics", func(t *testing.T) {
		ed, rec, _ := newTestEditor(t, func(context.Context, string, []string) ([]byte, error) {
			return []byte("go: command not found"), errors.New("exec: not found")
		})

		require.NoError(t, ed.RequestCompile(context.Background(), false))
		waitIdle(t, ed)

		rec.mu.Lock()
		defer rec.mu.Unlock()
		require.Len(t, rec.events, 3)
		require.Len(t, rec.events[1].Diagnostics, 1)
		assert.Equal(t, events.SeverityError, rec.events[1].Diagnostics[0].Severity)
	})

	t.Run("build output precedes finish", func(t *testing.T) {
		ed, rec, _ := newTestEditor(t, func(context.Context, string, []string) ([]byte, error) {
			return []byte("downloading example.com/dep v1.0.0\n"), nil
		})
		ed.bus.Subscribe(events.EventLogMessage, rec.handle)
		ed.bus.Start(ed.ctx)

		require.NoError(t, ed.RequestCompile(context.Background(), false))
		waitIdle(t, ed)

		assert.Equal(t, []events.EventType{
			events.EventBuildStarted,
			events.EventLogMessage,
			events.EventBuildFinished,
		}, rec.types())
		rec.mu.Lock()
		defer rec.mu.Unlock()
		assert.Equal(t, "downloading example.com/dep v1.0.0", rec.events[1].Message)
	})

	t.Run("successful build resets", func(t *testing.T) {
		ed, _, _ := newTestEditor(t, func(context.Context, string, []string) ([]byte, error) {
			return nil, nil
		})
		var resets atomic.Int32
		ed.SetResetHandler(func(context.Context) error {
			resets.Add(1)
			return nil
		})

		require.NoError(t, ed.RequestCompile(context.Background(), true))
		require.Eventually(t, func() bool { return resets.Load() == 1 }, 2*time.Second, 5*time.Millisecond)
	})

	t.Run("request during build is absorbed", func(t *testing.T) {
		release := make(chan struct{})
		var runs atomic.Int32
		ed, _, _ := newTestEditor(t, func(context.Context, string, []string) ([]byte, error) {
			runs.Add(1)
			<-release
			return nil, nil
		})

		require.NoError(t, ed.RequestCompile(context.Background(), false))
		assert.True(t, ed.IsBuilding())
		require.NoError(t, ed.RequestCompile(context.Background(), false))
		close(release)
		waitIdle(t, ed)
		assert.Equal(t, int32(1), runs.Load())
	})
}

func TestRequestReset(t *testing.T) {
	ed, _, _ := newTestEditor(t, nil)
	assert.Error(t, ed.RequestReset(context.Background()))

	done := make(chan struct{})
	ed.SetResetHandler(func(context.Context) error {
		close(done)
		return nil
	})
	require.NoError(t, ed.RequestReset(context.Background()))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("reset handler was not called")
	}
}

func TestOnUpdate(t *testing.T) {
	ed, _, _ := newTestEditor(t, nil)
	var ticks atomic.Int32
	cancel := ed.OnUpdate(func() { ticks.Add(1) })

	require.Eventually(t, func() bool { return ticks.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	after := ticks.Load()
	time.Sleep(30 * time.Millisecond)
	assert.LessOrEqual(t, ticks.Load(), after+1)
}
