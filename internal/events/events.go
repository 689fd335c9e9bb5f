// Package events carries host build signals to their subscribers
package events

import (
	"context"
	"sync"

	"github.com/celestiaorg/reloader/internal/logger"
)

// EventType represents the kind of host signal
type EventType string

const (
	// EventBuildStarted is emitted when the host begins compiling
	EventBuildStarted EventType = "build_started"
	// EventBuildFinished is emitted when the host finished compiling, successfully or not
	EventBuildFinished EventType = "build_finished"
	// EventUnitBuilt is emitted once per compiled unit with its diagnostics
	EventUnitBuilt EventType = "unit_built"
	// EventLogMessage is emitted for generic host log output
	EventLogMessage EventType = "log_message"
	// EventChannelSize is the buffer size for the event channel
	EventChannelSize = 256
)

// Severity of a diagnostic or log message
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Diagnostic is one compiler message attached to a unit
type Diagnostic struct {
	Severity Severity
	Message  string
	File     string
	Line     int
	Column   int
}

// Event represents a host signal. Host signals carry no job id; builds are
// process-global.
type Event struct {
	Type        EventType
	Unit        string       // unit name for EventUnitBuilt
	Diagnostics []Diagnostic // diagnostics for EventUnitBuilt
	Severity    Severity     // severity for EventLogMessage
	Message     string       // text for EventLogMessage
}

// Handler is a function that handles an event
type Handler func(context.Context, Event) error

type subscription struct {
	id      uint64
	handler Handler
}

// Bus dispatches published events to subscribers. Events are handled one at
// a time in publish order so that a build's start, unit results and finish
// are observed in sequence.
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]subscription
	nextID   uint64
	ch       chan Event
}

// NewBus creates a bus with a buffered event channel
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]subscription),
		ch:       make(chan Event, EventChannelSize),
	}
}

// Subscribe registers a handler for a specific event type and returns a
// function that removes it again
func (b *Bus) Subscribe(eventType EventType, handler Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.handlers[eventType] = append(b.handlers[eventType], subscription{id: id, handler: handler})
	logger.Debugf("Registered handler for event type: %s", eventType)

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.handlers[eventType]
		for i, s := range subs {
			if s.id == id {
				b.handlers[eventType] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Publish queues an event for processing
func (b *Bus) Publish(event Event) {
	b.ch <- event
	logger.Debugf("Published event: %s", event.Type)
}

// Start starts the event processing loop
func (b *Bus) Start(ctx context.Context) {
	go b.processEvents(ctx)
	logger.Debug("Started event processing loop")
}

// Dispatch delivers an event to its handlers synchronously on the caller's goroutine
func (b *Bus) Dispatch(ctx context.Context, event Event) {
	b.mu.RLock()
	subs := append([]subscription(nil), b.handlers[event.Type]...)
	b.mu.RUnlock()

	for _, s := range subs {
		if err := s.handler(ctx, event); err != nil {
			logger.Errorf("Failed to handle event %s: %v", event.Type, err)
		}
	}
}

func (b *Bus) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			logger.Debug("Stopping event processing loop")
			return
		case event := <-b.ch:
			b.Dispatch(ctx, event)
		}
	}
}
