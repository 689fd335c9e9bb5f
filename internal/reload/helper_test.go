package reload

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/celestiaorg/reloader/internal/durable"
	"github.com/celestiaorg/reloader/internal/events"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeHost struct {
	mu           sync.Mutex
	building     bool
	refreshed    bool
	refreshErr   error
	compileErr   error
	resetErr     error
	refreshCalls int
	compileCalls int
	resetCalls   int
	resetAfter   bool
	panicOnCheck bool
}

func (h *fakeHost) IsBuilding() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.panicOnCheck {
		panic("host state unavailable")
	}
	return h.building
}

func (h *fakeHost) RefreshAssets(context.Context) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.refreshCalls++
	return h.refreshed, h.refreshErr
}

func (h *fakeHost) RequestCompile(_ context.Context, resetAfter bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.compileCalls++
	h.resetAfter = resetAfter
	return h.compileErr
}

func (h *fakeHost) RequestReset(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.resetCalls++
	return h.resetErr
}

func (h *fakeHost) setBuilding(b bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.building = b
}

func (h *fakeHost) calls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.refreshCalls + h.compileCalls + h.resetCalls
}

type scriptedConfirmer struct {
	mu     sync.Mutex
	answer bool
	err    error
	titles []string
}

func (c *scriptedConfirmer) Confirm(_ context.Context, title, _ string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.titles = append(c.titles, title)
	return c.answer, c.err
}

func (c *scriptedConfirmer) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.titles)
}

type fakeTicker struct {
	mu  sync.Mutex
	fns map[int]func()
	n   int
}

func (t *fakeTicker) OnUpdate(fn func()) func() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fns == nil {
		t.fns = make(map[int]func())
	}
	t.n++
	id := t.n
	t.fns[id] = fn
	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.fns, id)
	}
}

func (t *fakeTicker) fire() {
	t.mu.Lock()
	fns := make([]func(), 0, len(t.fns))
	for _, fn := range t.fns {
		fns = append(fns, fn)
	}
	t.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// harness is one tracker generation over a shared store
type harness struct {
	svc       *Service
	host      *fakeHost
	clock     *fakeClock
	confirmer *scriptedConfirmer
	bus       *events.Bus
	store     *durable.Memory
	keys      durable.Keys
}

func newHarness(t *testing.T, store *durable.Memory, clock *fakeClock) *harness {
	t.Helper()
	if store == nil {
		store = durable.NewMemory()
	}
	if clock == nil {
		clock = newFakeClock()
	}
	h := &harness{
		host:      &fakeHost{},
		clock:     clock,
		confirmer: &scriptedConfirmer{answer: true},
		bus:       events.NewBus(),
		store:     store,
		keys:      durable.NewKeys(""),
	}
	h.svc = New(Config{
		Store:     h.store,
		Keys:      h.keys,
		Host:      h.host,
		Bus:       h.bus,
		Confirmer: h.confirmer,
		Now:       clock.Now,
	})
	h.svc.Start(context.Background())
	t.Cleanup(h.svc.Close)
	return h
}

func (h *harness) submit(t *testing.T, req Request) Submission {
	t.Helper()
	sub, err := h.svc.Submit(context.Background(), req)
	require.NoError(t, err)
	return sub
}

func (h *harness) status(t *testing.T, id string) JobView {
	t.Helper()
	v, err := h.svc.Status(context.Background(), id)
	require.NoError(t, err)
	return v
}

func (h *harness) emit(e events.Event) {
	h.bus.Dispatch(context.Background(), e)
}

func (h *harness) tick() {
	h.svc.Tick(context.Background())
}

func (h *harness) snapshot(t *testing.T, id string) *Job {
	t.Helper()
	j, err := loadJob(context.Background(), h.store, h.keys, id)
	require.NoError(t, err)
	return j
}
