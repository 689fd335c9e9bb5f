// Package handlers provides HTTP request handling
package handlers

import (
	"fmt"
	"strings"

	"github.com/celestiaorg/reloader/internal/reload"
)

// ReloadParams is the body of a reload request. Job actions use the option
// fields; get_status only uses JobID.
type ReloadParams struct {
	Action         string  `json:"action"`
	JobID          string  `json:"jobId,omitempty"`
	IncludeLogs    bool    `json:"includeLogs,omitempty"`
	LogLevel       string  `json:"logLevel,omitempty"`
	TimeoutSeconds float64 `json:"timeoutSeconds,omitempty"`
	ID             string  `json:"id,omitempty"`
}

// Validate validates the parameters of a reload request
func (p ReloadParams) Validate() error {
	switch {
	case p.Action == "":
		return fmt.Errorf("%s", strings.ToLower(ErrMsgActionRequired))
	case p.Action == ActionGetStatus:
		if strings.TrimSpace(p.JobID) == "" {
			return fmt.Errorf("%s", strings.ToLower(ErrMsgJobIDRequired))
		}
	case !IsJobAction(p.Action):
		return fmt.Errorf("unknown action %q", p.Action)
	case p.TimeoutSeconds < 0:
		return fmt.Errorf("timeoutSeconds must be a positive number")
	}
	return nil
}

// Request converts job parameters to a tracker request
func (p ReloadParams) Request() reload.Request {
	return reload.Request{
		Action:         p.Action,
		IncludeLogs:    p.IncludeLogs,
		LogLevel:       p.LogLevel,
		TimeoutSeconds: p.TimeoutSeconds,
	}
}
