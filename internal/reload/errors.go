package reload

import "errors"

var (
	// ErrValidation is returned for malformed submissions
	ErrValidation = errors.New("invalid request")
	// ErrNotFound is returned when a job id is unknown to both memory and the durable store
	ErrNotFound = errors.New("job not found")
	// ErrDeclined is returned when the operator declined a disruptive action
	ErrDeclined = errors.New("operation declined by user")
	// ErrNotStarted is returned when the service is used before Start
	ErrNotStarted = errors.New("reload service not started")
	// ErrClosed is returned when a discarded tracker generation is asked to admit a job
	ErrClosed = errors.New("tracker generation closed")
)
