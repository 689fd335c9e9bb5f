package reload

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Action is the host operation a job drives
type Action string

// Actions accepted by Submit
const (
	// ActionRefreshAssets rescans the project for changed assets
	ActionRefreshAssets Action = "refresh_assets"
	// ActionCompileScripts rebuilds the project without a reset
	ActionCompileScripts Action = "compile_scripts"
	// ActionDomainReload discards and recreates the in-process state
	ActionDomainReload Action = "domain_reload"
	// ActionCompileAndReload rebuilds the project and resets once the build succeeds
	ActionCompileAndReload Action = "compile_and_reload"
)

// ParseAction converts a wire action name to an Action
func ParseAction(s string) (Action, error) {
	switch a := Action(strings.TrimSpace(s)); a {
	case ActionRefreshAssets, ActionCompileScripts, ActionDomainReload, ActionCompileAndReload:
		return a, nil
	default:
		return "", fmt.Errorf("%w: unknown action %q", ErrValidation, s)
	}
}

// RequiresBuild reports whether the action is expected to start a build
func (a Action) RequiresBuild() bool {
	return a == ActionCompileScripts || a == ActionCompileAndReload
}

// CausesReset reports whether a successful run ends in a reset of the tracker
func (a Action) CausesReset() bool {
	return a == ActionDomainReload || a == ActionCompileAndReload
}

// Disruptive reports whether the action rebuilds the asset or dependency
// graph and therefore needs confirmation
func (a Action) Disruptive() bool {
	return a == ActionRefreshAssets || a == ActionCompileScripts || a == ActionCompileAndReload
}

// Status is the lifecycle state of a job
type Status string

// Job statuses
const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusTimeout   Status = "timeout"
)

// Terminal reports whether no further transition is possible
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusTimeout
}

// LogLevel is the minimum severity of log lines returned to the caller
type LogLevel string

// Log levels
const (
	LogLevelAll     LogLevel = "all"
	LogLevelWarning LogLevel = "warning"
	LogLevelError   LogLevel = "error"
)

// ParseLogLevel converts a wire log level. An empty string means LogLevelAll.
func ParseLogLevel(s string) (LogLevel, error) {
	switch l := LogLevel(strings.ToLower(strings.TrimSpace(s))); l {
	case "":
		return LogLevelAll, nil
	case LogLevelAll, LogLevelWarning, LogLevelError:
		return l, nil
	default:
		return "", fmt.Errorf("%w: unknown log level %q", ErrValidation, s)
	}
}

// Log line prefixes
const (
	prefixInfo    = "[info]"
	prefixWarning = "[warning]"
	prefixError   = "[error]"
)

// Allows reports whether a stored log line passes the level filter
func (l LogLevel) Allows(line string) bool {
	switch l {
	case LogLevelError:
		return strings.HasPrefix(line, prefixError)
	case LogLevelWarning:
		return strings.HasPrefix(line, prefixWarning) || strings.HasPrefix(line, prefixError)
	default:
		return true
	}
}

// FilterLogs returns the lines that pass the level filter. The input is not modified.
func FilterLogs(lines []string, level LogLevel) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if level.Allows(line) {
			out = append(out, line)
		}
	}
	return out
}

// Flags are the caller's options for a job
type Flags struct {
	IncludeLogs    bool     `json:"includeLogs"`
	LogLevel       LogLevel `json:"logLevel"`
	TimeoutSeconds float64  `json:"timeoutSeconds"`
}

// Timeout returns the job deadline as a duration
func (f Flags) Timeout() time.Duration {
	return time.Duration(f.TimeoutSeconds * float64(time.Second))
}

// BuildError is a structured compiler error captured during the job
type BuildError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

// Job is one tracked reload operation. It is also the durable snapshot format.
type Job struct {
	ID                   string       `json:"id"`
	SessionID            string       `json:"sessionId"`
	Action               Action       `json:"action"`
	Flags                Flags        `json:"flags"`
	StartedAt            time.Time    `json:"startedAt"`
	FinishedAt           time.Time    `json:"finishedAt"`
	Status               Status       `json:"status"`
	CompilationSucceeded bool         `json:"compilationSucceeded"`
	Logs                 []string     `json:"logs"`
	Errors               []BuildError `json:"errors"`
	Message              string       `json:"message"`
	WasAlreadyBuilding   bool         `json:"wasAlreadyBuilding"`
	TriggeredRefresh     bool         `json:"triggeredRefresh"`
	SawBuildStart        bool         `json:"sawBuildStart"`
	SawBuildFinish       bool         `json:"sawBuildFinish"`
}

// clone returns a deep copy safe to hand out of the registry
func (j *Job) clone() *Job {
	c := *j
	c.Logs = append([]string(nil), j.Logs...)
	c.Errors = append([]BuildError(nil), j.Errors...)
	return &c
}

func (j *Job) logInfo(msg string) {
	j.Logs = append(j.Logs, prefixInfo+" "+msg)
}

func (j *Job) logWarning(msg string) {
	j.Logs = append(j.Logs, prefixWarning+" "+msg)
}

func (j *Job) logError(msg string) {
	j.Logs = append(j.Logs, prefixError+" "+msg)
}

// elapsed is the time since admission, measured against now
func (j *Job) elapsed(now time.Time) time.Duration {
	return now.Sub(j.StartedAt)
}

// duration is the elapsed time of the job in seconds, frozen once terminal
func (j *Job) duration(now time.Time) float64 {
	end := now
	if !j.FinishedAt.IsZero() {
		end = j.FinishedAt
	}
	d := end.Sub(j.StartedAt).Seconds()
	if d < 0 || math.IsNaN(d) {
		return 0
	}
	return d
}
