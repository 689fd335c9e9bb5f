// Package handlers provides HTTP request handling
package handlers

import (
	"errors"

	fiber "github.com/gofiber/fiber/v2"

	"github.com/celestiaorg/reloader/internal/app"
	"github.com/celestiaorg/reloader/internal/reload"
)

// Common error messages
const (
	ErrMsgInvalidReqFormat = "Invalid request format"
	ErrMsgActionRequired   = "Action is required"
	ErrMsgJobIDRequired    = "Job id is required"
	ErrMsgInvalidParams    = "Invalid parameters"
)

// Reload error messages
const (
	ErrMsgJobNotFound    = "Job not found"
	ErrMsgDeclined       = "Operation cancelled by user"
	ErrMsgResetting      = "Domain reload in progress, retry shortly"
	ErrMsgNotReady       = "Reload tracker is not ready"
	ErrMsgSubmitFailed   = "Failed to trigger domain reload"
	ErrMsgStatusFailed   = "Failed to get job status"
	ErrMsgTrackerMissing = "Reload tracker not configured"
)

// statusFor maps a tracker error to an HTTP status and a message
func statusFor(err error, fallback string) (int, string) {
	switch {
	case errors.Is(err, reload.ErrValidation):
		return fiber.StatusBadRequest, ErrMsgInvalidParams
	case errors.Is(err, reload.ErrNotFound):
		return fiber.StatusNotFound, ErrMsgJobNotFound
	case errors.Is(err, reload.ErrDeclined):
		return fiber.StatusConflict, ErrMsgDeclined
	case errors.Is(err, app.ErrResetting), errors.Is(err, reload.ErrClosed):
		return fiber.StatusServiceUnavailable, ErrMsgResetting
	case errors.Is(err, reload.ErrNotStarted):
		return fiber.StatusServiceUnavailable, ErrMsgNotReady
	default:
		return fiber.StatusInternalServerError, fallback
	}
}
