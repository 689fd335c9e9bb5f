// Package editor simulates the host process around the reload tracker: it
// builds a Go project directory, reports build signals on the event bus,
// watches project files for changes and performs resets on request.
package editor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/celestiaorg/reloader/internal/events"
	"github.com/celestiaorg/reloader/internal/logger"
)

// Default editor settings
const (
	DefaultTickInterval = 100 * time.Millisecond
	DefaultResetDelay   = 250 * time.Millisecond
)

// DefaultBuildCommand compiles every package of the project
var DefaultBuildCommand = []string{"go", "build", "./..."}

// Options configures an Editor
type Options struct {
	// ProjectDir is the directory that is built and fingerprinted
	ProjectDir string
	// BuildCommand is run inside ProjectDir
	BuildCommand []string
	// TickInterval is the period of the update loop
	TickInterval time.Duration
	// ResetDelay is how long a requested reset waits before running, so the
	// request that caused it can be answered first
	ResetDelay time.Duration
}

// Runner executes the build command and returns its combined output
type Runner func(ctx context.Context, dir string, args []string) ([]byte, error)

// ResetFunc discards and recreates the tracker
type ResetFunc func(ctx context.Context) error

// Editor is the simulated host
type Editor struct {
	opts Options
	bus  *events.Bus
	run  Runner

	mu          sync.Mutex
	building    bool
	fingerprint string
	onReset     ResetFunc
	updates     map[uint64]func()
	nextUpdate  uint64
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
}

// New creates an editor publishing on bus
func New(opts Options, bus *events.Bus) *Editor {
	if len(opts.BuildCommand) == 0 {
		opts.BuildCommand = DefaultBuildCommand
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	if opts.ResetDelay < 0 {
		opts.ResetDelay = 0
	}
	if opts.ProjectDir == "" {
		opts.ProjectDir = "."
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Editor{
		opts:    opts,
		bus:     bus,
		run:     execRunner,
		updates: make(map[uint64]func()),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// SetResetHandler installs the function that performs resets
func (e *Editor) SetResetHandler(fn ResetFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onReset = fn
}

// Start records the initial project fingerprint and runs the update loop
// until ctx is done or Stop is called
func (e *Editor) Start(ctx context.Context) error {
	fp, err := fingerprint(e.opts.ProjectDir)
	if err != nil {
		return fmt.Errorf("failed to fingerprint project: %w", err)
	}
	e.mu.Lock()
	e.fingerprint = fp
	e.mu.Unlock()

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		ticker := time.NewTicker(e.opts.TickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-e.ctx.Done():
				return
			case <-ticker.C:
				e.update()
			}
		}
	}()
	logger.Infof("editor: watching %s", e.opts.ProjectDir)
	return nil
}

// Stop ends the update loop and waits for running builds and resets
func (e *Editor) Stop() {
	e.cancel()
	e.wg.Wait()
}

// OnUpdate registers fn to run on every update of the loop
func (e *Editor) OnUpdate(fn func()) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextUpdate++
	id := e.nextUpdate
	e.updates[id] = fn
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.updates, id)
	}
}

func (e *Editor) update() {
	e.mu.Lock()
	fns := make([]func(), 0, len(e.updates))
	for _, fn := range e.updates {
		fns = append(fns, fn)
	}
	e.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// IsBuilding reports whether a build is running
func (e *Editor) IsBuilding() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.building
}

// RefreshAssets recomputes the project fingerprint and reports whether any
// file changed since the previous refresh
func (e *Editor) RefreshAssets(_ context.Context) (bool, error) {
	fp, err := fingerprint(e.opts.ProjectDir)
	if err != nil {
		return false, fmt.Errorf("failed to refresh assets: %w", err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	changed := fp != e.fingerprint
	e.fingerprint = fp
	if changed {
		logger.Infof("editor: project assets changed")
	}
	return changed, nil
}

// RequestCompile starts a build in the background. A request while a build
// is running is absorbed by that build.
func (e *Editor) RequestCompile(_ context.Context, resetAfter bool) error {
	e.mu.Lock()
	if e.building {
		e.mu.Unlock()
		logger.Debug("editor: build already running")
		return nil
	}
	e.building = true
	e.mu.Unlock()

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		ok := e.build(e.ctx)
		if resetAfter && ok {
			e.reset()
		}
	}()
	return nil
}

// RequestReset schedules a reset after the configured delay
func (e *Editor) RequestReset(_ context.Context) error {
	e.mu.Lock()
	handler := e.onReset
	e.mu.Unlock()
	if handler == nil {
		return fmt.Errorf("no reset handler installed")
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.reset()
	}()
	return nil
}

// build runs the build command and reports the outcome on the bus. Build
// signals and build output are dispatched synchronously, in order, so every
// subscriber has seen them before IsBuilding turns false.
func (e *Editor) build(ctx context.Context) bool {
	defer func() {
		e.mu.Lock()
		e.building = false
		e.mu.Unlock()
	}()

	e.bus.Dispatch(ctx, events.Event{Type: events.EventBuildStarted})
	logger.Infof("editor: running %s", strings.Join(e.opts.BuildCommand, " "))

	out, runErr := e.run(ctx, e.opts.ProjectDir, e.opts.BuildCommand)
	units, logs := ParseBuildOutput(string(out))
	if runErr != nil && !hasErrors(units) {
		units = append(units, UnitResult{Diagnostics: []events.Diagnostic{{
			Severity: events.SeverityError,
			Message:  fmt.Sprintf("build command failed: %v", runErr),
		}}})
	}

	for _, line := range logs {
		e.bus.Dispatch(ctx, events.Event{Type: events.EventLogMessage, Severity: events.SeverityInfo, Message: line})
	}
	for _, u := range units {
		e.bus.Dispatch(ctx, events.Event{Type: events.EventUnitBuilt, Unit: u.Unit, Diagnostics: u.Diagnostics})
	}
	e.bus.Dispatch(ctx, events.Event{Type: events.EventBuildFinished})

	ok := !hasErrors(units)
	logger.InfoWithFields("editor: build finished", map[string]interface{}{
		"succeeded": ok,
		"units":     len(units),
	})
	return ok
}

func (e *Editor) reset() {
	select {
	case <-time.After(e.opts.ResetDelay):
	case <-e.ctx.Done():
		return
	}

	e.mu.Lock()
	handler := e.onReset
	e.mu.Unlock()
	if handler == nil {
		logger.Warn("editor: reset requested without a reset handler")
		return
	}
	if err := handler(e.ctx); err != nil {
		logger.Errorf("editor: reset failed: %v", err)
	}
}

func execRunner(ctx context.Context, dir string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}

// fingerprint hashes the path, size and modification time of every file
// below dir, skipping hidden entries
func fingerprint(dir string) (string, error) {
	var entries []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		entries = append(entries, fmt.Sprintf("%s|%d|%d", filepath.ToSlash(rel), info.Size(), info.ModTime().UnixNano()))
		return nil
	})
	if err != nil {
		return "", err
	}
	sort.Strings(entries)

	h := sha256.New()
	for _, entry := range entries {
		h.Write([]byte(entry))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
