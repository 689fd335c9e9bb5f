package reload

import (
	"fmt"
	"time"
)

var allowedTransitions = map[Status]map[Status]bool{
	StatusRunning: {
		StatusCompleted: true,
		StatusFailed:    true,
		StatusTimeout:   true,
	},
}

// CanTransition reports whether a job may move from one status to another.
// Terminal statuses have no outgoing transitions.
func CanTransition(from, to Status) bool {
	if next, ok := allowedTransitions[from]; ok {
		return next[to]
	}
	return false
}

// finish moves a running job into a terminal status and records why
func (j *Job) finish(to Status, message string, now time.Time) error {
	if !CanTransition(j.Status, to) {
		return fmt.Errorf("job %s: invalid transition %s -> %s", j.ID, j.Status, to)
	}
	j.Status = to
	j.Message = message
	j.FinishedAt = now
	j.logInfo(fmt.Sprintf("Job %s: %s", to, message))
	return nil
}

// outcome is the terminal status implied by the captured build result
func (j *Job) outcome() Status {
	if j.CompilationSucceeded {
		return StatusCompleted
	}
	return StatusFailed
}
