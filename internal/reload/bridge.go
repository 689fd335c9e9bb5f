package reload

import (
	"context"
	"fmt"
	"sync"

	"github.com/celestiaorg/reloader/internal/events"
	"github.com/celestiaorg/reloader/internal/logger"
)

// Bridge turns host build signals into job updates. Host signals carry no job
// id, so every signal fans out to every running job.
type Bridge struct {
	registry *Registry
	bus      *events.Bus

	bindOnce sync.Once
	mu       sync.Mutex
	unsubs   []func()
}

// NewBridge creates a bridge between the bus and the registry
func NewBridge(registry *Registry, bus *events.Bus) *Bridge {
	return &Bridge{registry: registry, bus: bus}
}

// Bind subscribes to the host signals. Calling it again has no effect.
func (b *Bridge) Bind() {
	b.bindOnce.Do(func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.unsubs = append(b.unsubs,
			b.bus.Subscribe(events.EventBuildStarted, b.onBuildStarted),
			b.bus.Subscribe(events.EventBuildFinished, b.onBuildFinished),
			b.bus.Subscribe(events.EventUnitBuilt, b.onUnitBuilt),
			b.bus.Subscribe(events.EventLogMessage, b.onLogMessage),
		)
		logger.Debug("reload: event bridge bound")
	})
}

// Unbind removes every subscription made by Bind
func (b *Bridge) Unbind() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, unsub := range b.unsubs {
		unsub()
	}
	b.unsubs = nil
}

func (b *Bridge) onBuildStarted(ctx context.Context, _ events.Event) error {
	b.registry.EachRunning(ctx, func(j *Job) bool {
		j.SawBuildStart = true
		if j.Flags.IncludeLogs {
			j.logInfo("Compilation started")
		}
		return true
	})
	return nil
}

func (b *Bridge) onBuildFinished(ctx context.Context, _ events.Event) error {
	b.registry.EachRunning(ctx, func(j *Job) bool {
		j.SawBuildFinish = true
		if j.Flags.IncludeLogs {
			j.logInfo("Compilation finished")
		}
		return true
	})
	return nil
}

func (b *Bridge) onUnitBuilt(ctx context.Context, e events.Event) error {
	b.registry.EachRunning(ctx, func(j *Job) bool {
		changed := false
		for _, d := range e.Diagnostics {
			line := formatDiagnostic(d)
			switch d.Severity {
			case events.SeverityError:
				j.CompilationSucceeded = false
				j.Errors = append(j.Errors, BuildError{
					Kind:    string(events.SeverityError),
					Message: d.Message,
					File:    d.File,
					Line:    d.Line,
					Column:  d.Column,
				})
				if j.Flags.IncludeLogs {
					j.logError(line)
				}
				changed = true
			case events.SeverityWarning:
				if j.Flags.IncludeLogs {
					j.logWarning(line)
					changed = true
				}
			}
		}
		if j.Flags.IncludeLogs && e.Unit != "" {
			j.logInfo("Compiled " + e.Unit)
			changed = true
		}
		return changed
	})
	return nil
}

func (b *Bridge) onLogMessage(ctx context.Context, e events.Event) error {
	b.registry.EachRunning(ctx, func(j *Job) bool {
		if !j.Flags.IncludeLogs {
			return false
		}
		switch e.Severity {
		case events.SeverityError:
			j.logError(e.Message)
		case events.SeverityWarning:
			j.logWarning(e.Message)
		default:
			j.logInfo(e.Message)
		}
		return true
	})
	return nil
}

func formatDiagnostic(d events.Diagnostic) string {
	if d.File == "" {
		return d.Message
	}
	return fmt.Sprintf("%s:%d:%d: %s", d.File, d.Line, d.Column, d.Message)
}
