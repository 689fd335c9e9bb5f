package test

import (
	"context"
	"sync"
	"time"

	"github.com/celestiaorg/reloader/internal/events"
)

// ScriptedHost is a reload host driven entirely by the test
type ScriptedHost struct {
	bus *events.Bus

	mu         sync.Mutex
	building   bool
	stale      bool
	compileErr error
	resetErr   error

	refreshCalls int
	compileCalls int
	resetCalls   int
	resetAfter   bool
}

// NewScriptedHost creates a host that emits its build signals on bus
func NewScriptedHost(bus *events.Bus) *ScriptedHost {
	return &ScriptedHost{bus: bus}
}

// IsBuilding reports the scripted build state
func (h *ScriptedHost) IsBuilding() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.building
}

// RefreshAssets reports a change once after MarkStale
func (h *ScriptedHost) RefreshAssets(context.Context) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.refreshCalls++
	changed := h.stale
	h.stale = false
	return changed, nil
}

// RequestCompile records the request; the test drives the build itself
func (h *ScriptedHost) RequestCompile(_ context.Context, resetAfter bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.compileCalls++
	h.resetAfter = resetAfter
	return h.compileErr
}

// RequestReset records the request; the test performs the reset itself
func (h *ScriptedHost) RequestReset(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.resetCalls++
	return h.resetErr
}

// MarkStale makes the next RefreshAssets report changed assets
func (h *ScriptedHost) MarkStale() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stale = true
}

// FailCompile makes RequestCompile return err
func (h *ScriptedHost) FailCompile(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.compileErr = err
}

// FailReset makes RequestReset return err
func (h *ScriptedHost) FailReset(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.resetErr = err
}

// Calls returns a consistent copy of the call counters
func (h *ScriptedHost) Calls() (refresh, compile, reset int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.refreshCalls, h.compileCalls, h.resetCalls
}

// ResetAfterBuild reports whether the last compile request asked for a reset
func (h *ScriptedHost) ResetAfterBuild() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.resetAfter
}

// BeginBuild marks the host as building and emits the build start signal
func (h *ScriptedHost) BeginBuild(ctx context.Context) {
	h.mu.Lock()
	h.building = true
	h.mu.Unlock()
	h.bus.Dispatch(ctx, events.Event{Type: events.EventBuildStarted})
}

// CompileUnit emits the result of one compiled unit
func (h *ScriptedHost) CompileUnit(ctx context.Context, unit string, diags ...events.Diagnostic) {
	h.bus.Dispatch(ctx, events.Event{
		Type:        events.EventUnitBuilt,
		Unit:        unit,
		Diagnostics: diags,
	})
}

// EndBuild emits the build finish signal and clears the build state
func (h *ScriptedHost) EndBuild(ctx context.Context) {
	h.bus.Dispatch(ctx, events.Event{Type: events.EventBuildFinished})
	h.mu.Lock()
	h.building = false
	h.mu.Unlock()
}

// Log emits a host log message
func (h *ScriptedHost) Log(ctx context.Context, severity events.Severity, msg string) {
	h.bus.Dispatch(ctx, events.Event{
		Type:     events.EventLogMessage,
		Severity: severity,
		Message:  msg,
	})
}

// ManualTicker stands in for the host update loop. Callbacks only run on Fire.
type ManualTicker struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func()
}

// NewManualTicker creates a ticker with no subscribers
func NewManualTicker() *ManualTicker {
	return &ManualTicker{subs: make(map[int]func())}
}

// OnUpdate registers fn to run on every Fire
func (m *ManualTicker) OnUpdate(fn func()) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

// Fire runs every registered callback once
func (m *ManualTicker) Fire() {
	m.mu.Lock()
	fns := make([]func(), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Subscribers returns the number of registered callbacks
func (m *ManualTicker) Subscribers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs)
}

// Clock is a settable wall clock
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock creates a clock starting at start
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now returns the current clock time
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
