// Package app owns the process-wide pieces that survive a tracker reset and
// rebuilds the tracker generation on top of them
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/celestiaorg/reloader/internal/durable"
	"github.com/celestiaorg/reloader/internal/events"
	"github.com/celestiaorg/reloader/internal/logger"
	"github.com/celestiaorg/reloader/internal/reload"
	"github.com/celestiaorg/reloader/internal/session"
)

// ErrResetting is returned while the tracker is being recreated
var ErrResetting = errors.New("tracker is resetting")

// Tracker is the job API served to remote callers
type Tracker interface {
	Submit(ctx context.Context, req reload.Request) (reload.Submission, error)
	Status(ctx context.Context, jobID string) (reload.JobView, error)
}

// Options configures a Runtime
type Options struct {
	Store          durable.Store
	Keys           durable.Keys
	Host           reload.Host
	Ticker         reload.Ticker
	Bus            *events.Bus
	Confirmer      reload.Confirmer
	GraceWindow    time.Duration
	DefaultTimeout time.Duration
	Now            func() time.Time
}

// Runtime holds the current tracker generation. Everything except the
// tracker itself and what it keeps in memory survives Reset.
type Runtime struct {
	opts Options

	mu         sync.RWMutex
	svc        *reload.Service
	resetting  bool
	generation int
}

var _ Tracker = (*Runtime)(nil)

// New creates a runtime. Boot must be called before serving requests.
func New(opts Options) *Runtime {
	if opts.Bus == nil {
		opts.Bus = events.NewBus()
	}
	return &Runtime{opts: opts}
}

// Boot starts the first tracker generation
func (r *Runtime) Boot(ctx context.Context) session.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.svc != nil {
		return r.svc.Session()
	}
	return r.startLocked(ctx)
}

// Reset discards the current tracker with everything it holds in memory and
// starts a new generation from the durable store
func (r *Runtime) Reset(ctx context.Context) error {
	r.mu.Lock()
	if r.resetting {
		r.mu.Unlock()
		return fmt.Errorf("reset already in progress")
	}
	r.resetting = true
	old := r.svc
	r.svc = nil
	r.mu.Unlock()

	if old != nil {
		old.Close()
	}
	logger.Infof("app: tracker generation %d discarded", r.Generation())

	r.mu.Lock()
	defer r.mu.Unlock()
	r.startLocked(ctx)
	r.resetting = false
	return nil
}

// Generation counts the tracker generations started by this runtime
func (r *Runtime) Generation() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.generation
}

// Resetting reports whether a reset is in progress
func (r *Runtime) Resetting() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resetting
}

// Submit implements Tracker
func (r *Runtime) Submit(ctx context.Context, req reload.Request) (reload.Submission, error) {
	svc, err := r.current()
	if err != nil {
		return reload.Submission{}, err
	}
	return svc.Submit(ctx, req)
}

// Status implements Tracker
func (r *Runtime) Status(ctx context.Context, jobID string) (reload.JobView, error) {
	svc, err := r.current()
	if err != nil {
		return reload.JobView{}, err
	}
	return svc.Status(ctx, jobID)
}

// Close detaches the current generation
func (r *Runtime) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.svc != nil {
		r.svc.Close()
		r.svc = nil
	}
}

func (r *Runtime) current() (*reload.Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.resetting {
		return nil, ErrResetting
	}
	if r.svc == nil {
		return nil, reload.ErrNotStarted
	}
	return r.svc, nil
}

func (r *Runtime) startLocked(ctx context.Context) session.Session {
	r.svc = reload.New(reload.Config{
		Store:          r.opts.Store,
		Keys:           r.opts.Keys,
		Host:           r.opts.Host,
		Bus:            r.opts.Bus,
		Ticker:         r.opts.Ticker,
		Confirmer:      r.opts.Confirmer,
		GraceWindow:    r.opts.GraceWindow,
		DefaultTimeout: r.opts.DefaultTimeout,
		Now:            r.opts.Now,
	})
	sess := r.svc.Start(ctx)
	r.generation++
	logger.InfoWithFields("app: tracker generation started", map[string]interface{}{
		"generation": r.generation,
		"session_id": sess.ID,
		"resumed":    sess.Resumed,
	})
	return sess
}
