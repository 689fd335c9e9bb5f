// Package reload tracks reload jobs across resets of the process state that
// runs them.
//
// A job is admitted by Submit, updated by host build signals through the
// Bridge and finalized by the Scheduler on host ticks. Every change is
// snapshotted to a durable store so that a new tracker generation can answer
// Status for jobs submitted before the reset.
package reload

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/celestiaorg/reloader/internal/durable"
	"github.com/celestiaorg/reloader/internal/events"
	"github.com/celestiaorg/reloader/internal/logger"
	"github.com/celestiaorg/reloader/internal/session"
)

// DefaultTimeout applies when a request leaves the timeout unset
const DefaultTimeout = 300 * time.Second

// StatusInitiated is returned by Submit for an admitted job
const StatusInitiated = "initiated"

// Config wires a Service to its collaborators
type Config struct {
	Store     durable.Store
	Keys      durable.Keys
	Host      Host
	Bus       *events.Bus
	Ticker    Ticker
	Confirmer Confirmer
	// GraceWindow defaults to DefaultGraceWindow
	GraceWindow time.Duration
	// DefaultTimeout defaults to DefaultTimeout
	DefaultTimeout time.Duration
	// Now defaults to time.Now
	Now func() time.Time
}

// Request is a job submission
type Request struct {
	Action         string  `json:"action"`
	IncludeLogs    bool    `json:"includeLogs"`
	LogLevel       string  `json:"logLevel"`
	TimeoutSeconds float64 `json:"timeoutSeconds"`
}

// Submission is the reply to an admitted job
type Submission struct {
	JobID              string `json:"jobId"`
	Status             string `json:"status"`
	SessionID          string `json:"sessionId"`
	WasAlreadyBuilding bool   `json:"wasAlreadyBuilding"`
	TriggeredRefresh   bool   `json:"triggeredRefresh"`
	Message            string `json:"message"`
}

// JobView is the caller-facing status of a job
type JobView struct {
	JobID                string       `json:"jobId"`
	SessionID            string       `json:"sessionId"`
	Action               Action       `json:"action"`
	Status               Status       `json:"status"`
	CompilationSucceeded bool         `json:"compilationSucceeded"`
	DurationSeconds      float64      `json:"durationSeconds"`
	Message              string       `json:"message"`
	Errors               []BuildError `json:"errors,omitempty"`
	Logs                 []string     `json:"logs,omitempty"`
	WasAlreadyBuilding   bool         `json:"wasAlreadyBuilding"`
	TriggeredRefresh     bool         `json:"triggeredRefresh"`
}

// Service is the job query service of one tracker generation
type Service struct {
	cfg       Config
	registry  *Registry
	bridge    *Bridge
	scheduler *Scheduler
	gate      *Gate
	sessions  *session.Manager
	newID     func() string

	mu          sync.RWMutex
	session     session.Session
	started     bool
	cancelTicks func()
}

// New creates a Service. Start must be called before Submit or Status.
func New(cfg Config) *Service {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = DefaultTimeout
	}
	if cfg.Bus == nil {
		cfg.Bus = events.NewBus()
	}
	registry := NewRegistry(cfg.Store, cfg.Keys)
	return &Service{
		cfg:       cfg,
		registry:  registry,
		bridge:    NewBridge(registry, cfg.Bus),
		scheduler: NewScheduler(registry, cfg.Host, cfg.Now, cfg.GraceWindow),
		gate:      NewGate(cfg.Confirmer),
		sessions:  session.NewManager(cfg.Store, cfg.Keys),
		newID:     func() string { return uuid.New().String() },
	}
}

// Start establishes the session, reconciles jobs left by a previous
// generation, binds the event bridge and attaches the scheduler to the ticker
func (s *Service) Start(ctx context.Context) session.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return s.session
	}

	s.session = s.sessions.Start(ctx)
	if s.session.Resumed {
		reconcile(ctx, s.cfg.Store, s.cfg.Keys, s.registry, s.cfg.Now())
	}
	s.bridge.Bind()
	if s.cfg.Ticker != nil {
		s.cancelTicks = s.scheduler.Attach(s.cfg.Ticker)
	}
	s.started = true
	return s.session
}

// Close detaches the service from the bus and the ticker
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bridge.Unbind()
	s.registry.Close()
	if s.cancelTicks != nil {
		s.cancelTicks()
		s.cancelTicks = nil
	}
	s.started = false
}

// Session returns the current session
func (s *Service) Session() session.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// Tick runs one scheduler pass. Hosts without a Ticker call it directly.
func (s *Service) Tick(ctx context.Context) {
	s.scheduler.Tick(ctx)
}

// Submit validates a request, asks for confirmation when the action is
// disruptive, admits the job and invokes the host action
func (s *Service) Submit(ctx context.Context, req Request) (sub Submission, err error) {
	defer recoverInto("submit", &err)

	sess, ok := s.current()
	if !ok {
		return Submission{}, ErrNotStarted
	}

	flags, action, err := s.validate(req)
	if err != nil {
		return Submission{}, err
	}

	j := &Job{
		ID:                   s.newID(),
		SessionID:            sess.ID,
		Action:               action,
		Flags:                flags,
		StartedAt:            s.cfg.Now(),
		Status:               StatusRunning,
		CompilationSucceeded: true,
		Logs:                 []string{},
		Errors:               []BuildError{},
		WasAlreadyBuilding:   s.cfg.Host.IsBuilding(),
	}

	if err := s.gate.Approve(ctx, j); err != nil {
		logger.Infof("reload: %s declined: %v", action, err)
		return Submission{}, err
	}

	j.logInfo(fmt.Sprintf("Job started: %s", action))
	if err := s.registry.Admit(ctx, j); err != nil {
		return Submission{}, err
	}
	logger.InfoWithFields("reload: job admitted", map[string]interface{}{
		"job_id":  j.ID,
		"action":  string(action),
		"timeout": flags.TimeoutSeconds,
	})

	triggered, err := s.invoke(ctx, j)
	if err != nil {
		s.registry.Update(ctx, j.ID, func(j *Job) bool {
			if j.Status.Terminal() {
				return false
			}
			j.CompilationSucceeded = false
			j.logError(err.Error())
			return j.finish(StatusFailed, fmt.Sprintf("Host action failed: %v", err), s.cfg.Now()) == nil
		})
		return Submission{}, fmt.Errorf("failed to start %s: %w", action, err)
	}
	if triggered {
		s.registry.Update(ctx, j.ID, func(j *Job) bool {
			j.TriggeredRefresh = true
			return true
		})
	}

	return Submission{
		JobID:              j.ID,
		Status:             StatusInitiated,
		SessionID:          sess.ID,
		WasAlreadyBuilding: j.WasAlreadyBuilding,
		TriggeredRefresh:   triggered,
		Message:            fmt.Sprintf("%s job started", action),
	}, nil
}

// Status returns the current view of a job. A terminal job is dropped from
// memory once served; later calls answer from its durable snapshot.
func (s *Service) Status(ctx context.Context, jobID string) (view JobView, err error) {
	defer recoverInto("status", &err)

	if _, ok := s.current(); !ok {
		return JobView{}, ErrNotStarted
	}
	if jobID == "" {
		return JobView{}, fmt.Errorf("%w: jobId is required", ErrValidation)
	}

	if j, ok := s.registry.Get(jobID); ok {
		if j.Status.Terminal() {
			s.registry.Drop(jobID)
		}
		return s.view(j), nil
	}

	j, err := loadJob(ctx, s.cfg.Store, s.cfg.Keys, jobID)
	if err != nil {
		return JobView{}, err
	}
	if j == nil {
		return JobView{}, ErrNotFound
	}
	view = s.view(j)
	if !j.Status.Terminal() {
		s.registry.Readmit(ctx, j)
		logger.Infof("reload: re-admitted job %s from durable store", jobID)
	}
	return view, nil
}

func (s *Service) current() (session.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session, s.started
}

func (s *Service) validate(req Request) (Flags, Action, error) {
	action, err := ParseAction(req.Action)
	if err != nil {
		return Flags{}, "", err
	}
	level, err := ParseLogLevel(req.LogLevel)
	if err != nil {
		return Flags{}, "", err
	}
	timeout := req.TimeoutSeconds
	switch {
	case math.IsNaN(timeout) || math.IsInf(timeout, 0) || timeout < 0:
		return Flags{}, "", fmt.Errorf("%w: timeoutSeconds must be a positive number", ErrValidation)
	case timeout == 0:
		timeout = s.cfg.DefaultTimeout.Seconds()
	}
	return Flags{IncludeLogs: req.IncludeLogs, LogLevel: level, TimeoutSeconds: timeout}, action, nil
}

// invoke runs the host side of the action and reports whether an asset
// refresh found changes
func (s *Service) invoke(ctx context.Context, j *Job) (bool, error) {
	host := s.cfg.Host
	switch j.Action {
	case ActionRefreshAssets:
		return host.RefreshAssets(ctx)
	case ActionCompileScripts, ActionCompileAndReload:
		triggered, err := host.RefreshAssets(ctx)
		if err != nil {
			return false, err
		}
		if j.WasAlreadyBuilding {
			return triggered, nil
		}
		return triggered, host.RequestCompile(ctx, j.Action == ActionCompileAndReload)
	case ActionDomainReload:
		return false, host.RequestReset(ctx)
	default:
		return false, fmt.Errorf("%w: unknown action %q", ErrValidation, j.Action)
	}
}

func (s *Service) view(j *Job) JobView {
	v := JobView{
		JobID:                j.ID,
		SessionID:            j.SessionID,
		Action:               j.Action,
		Status:               j.Status,
		CompilationSucceeded: j.CompilationSucceeded,
		DurationSeconds:      j.duration(s.cfg.Now()),
		Message:              j.Message,
		WasAlreadyBuilding:   j.WasAlreadyBuilding,
		TriggeredRefresh:     j.TriggeredRefresh,
	}
	if v.Message == "" && j.Status == StatusRunning {
		v.Message = fmt.Sprintf("%s in progress", j.Action)
	}
	if len(j.Errors) > 0 {
		v.Errors = append([]BuildError(nil), j.Errors...)
	}
	if j.Flags.IncludeLogs {
		v.Logs = FilterLogs(j.Logs, j.Flags.LogLevel)
	}
	return v
}

// errInternal is returned in place of a recovered panic
var errInternal = errors.New("internal error")

func recoverInto(op string, err *error) {
	if r := recover(); r != nil {
		logger.Errorf("reload: recovered from panic in %s: %v", op, r)
		*err = fmt.Errorf("%w: %s failed", errInternal, op)
	}
}
