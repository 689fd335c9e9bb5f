package reload

import (
	"context"
	"fmt"
	"time"

	"github.com/celestiaorg/reloader/internal/logger"
)

// DefaultGraceWindow is how long a build-requiring job waits for the host to
// report a build start before concluding that nothing needed compiling
const DefaultGraceWindow = 2 * time.Second

// Ticker is the host's periodic update loop
type Ticker interface {
	// OnUpdate registers fn to run on every host update and returns a
	// function that unregisters it
	OnUpdate(fn func()) (cancel func())
}

// Scheduler finalizes running jobs on every host tick
type Scheduler struct {
	registry *Registry
	host     Host
	now      func() time.Time
	grace    time.Duration
}

// NewScheduler creates a scheduler over the registry
func NewScheduler(registry *Registry, host Host, now func() time.Time, grace time.Duration) *Scheduler {
	if grace <= 0 {
		grace = DefaultGraceWindow
	}
	return &Scheduler{
		registry: registry,
		host:     host,
		now:      now,
		grace:    grace,
	}
}

// Attach runs Tick on every update of the ticker
func (s *Scheduler) Attach(t Ticker) (cancel func()) {
	return t.OnUpdate(func() { s.Tick(context.Background()) })
}

// Tick evaluates every running job once. A panic is logged and swallowed so
// the host loop keeps running.
func (s *Scheduler) Tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("reload: recovered from panic in tick: %v", r)
		}
	}()

	building := s.host.IsBuilding()
	now := s.now()
	s.registry.EachRunning(ctx, func(j *Job) bool {
		return s.evaluate(j, now, building)
	})
}

// evaluate applies the finalization rules to one running job and reports
// whether it changed
func (s *Scheduler) evaluate(j *Job, now time.Time, building bool) bool {
	elapsed := j.elapsed(now)

	var (
		to  Status
		msg string
	)
	switch {
	case j.SawBuildFinish:
		to = j.outcome()
		msg = buildFinishedMessage(j)
	case elapsed >= j.Flags.Timeout():
		to = StatusTimeout
		msg = fmt.Sprintf("Operation timed out after %g seconds", j.Flags.TimeoutSeconds)
	case j.Action.RequiresBuild() && !j.SawBuildStart && elapsed < s.grace:
		return false
	case !building && (!j.Action.RequiresBuild() || !j.SawBuildStart):
		to = j.outcome()
		msg = idleMessage(j)
	default:
		return false
	}

	if err := j.finish(to, msg, now); err != nil {
		logger.Errorf("reload: %v", err)
		return false
	}
	logger.InfoWithFields("reload: job finished", map[string]interface{}{
		"job_id":  j.ID,
		"action":  string(j.Action),
		"status":  string(j.Status),
		"elapsed": elapsed.String(),
	})
	return true
}

func buildFinishedMessage(j *Job) string {
	if j.CompilationSucceeded {
		return "Compilation finished successfully"
	}
	return fmt.Sprintf("Compilation failed with %d error(s)", len(j.Errors))
}

func idleMessage(j *Job) string {
	if !j.CompilationSucceeded {
		return fmt.Sprintf("Compilation failed with %d error(s)", len(j.Errors))
	}
	switch j.Action {
	case ActionRefreshAssets:
		if j.TriggeredRefresh {
			return "Asset refresh completed"
		}
		return "Assets already up to date"
	case ActionDomainReload:
		return "Domain reload requested"
	default:
		return "No compilation was needed"
	}
}
