// Package handlers provides HTTP request handling
package handlers

import (
	fiber "github.com/gofiber/fiber/v2"

	"github.com/celestiaorg/reloader/internal/app"
	"github.com/celestiaorg/reloader/internal/logger"
)

// Response is the envelope of every reload endpoint reply
type Response struct {
	// Success indicates if the operation was successful
	Success bool `json:"success"`

	// Data contains the operation result
	Data interface{} `json:"data,omitempty"`

	// Error contains the error detail if the operation failed
	Error string `json:"error,omitempty"`

	// Message is a human-readable summary
	Message string `json:"message,omitempty"`

	// ID echoes back the request ID if provided
	ID string `json:"id,omitempty"`
}

// ReloadHandler serves the action-dispatch reload endpoint
type ReloadHandler struct {
	tracker app.Tracker
}

// NewReloadHandler creates a reload handler over the tracker
func NewReloadHandler(tracker app.Tracker) *ReloadHandler {
	return &ReloadHandler{tracker: tracker}
}

// HandleReload starts a job or reports the status of one, depending on the action
func (h *ReloadHandler) HandleReload(c *fiber.Ctx) error {
	var params ReloadParams
	if err := c.BodyParser(&params); err != nil {
		return respondWithError(c, fiber.StatusBadRequest, ErrMsgInvalidReqFormat, err.Error(), params.ID)
	}
	if err := params.Validate(); err != nil {
		return respondWithError(c, fiber.StatusBadRequest, ErrMsgInvalidParams, err.Error(), params.ID)
	}
	if h.tracker == nil {
		return respondWithError(c, fiber.StatusInternalServerError, ErrMsgTrackerMissing, "", params.ID)
	}

	if params.Action == ActionGetStatus {
		return h.status(c, params)
	}
	return h.submit(c, params)
}

func (h *ReloadHandler) submit(c *fiber.Ctx, params ReloadParams) error {
	sub, err := h.tracker.Submit(c.UserContext(), params.Request())
	if err != nil {
		code, msg := statusFor(err, ErrMsgSubmitFailed)
		logger.Warnf("reload: %s failed: %v", params.Action, err)
		return respondWithError(c, code, msg, err.Error(), params.ID)
	}
	return c.Status(fiber.StatusAccepted).JSON(Response{
		Success: true,
		Data:    sub,
		Message: sub.Message,
		ID:      params.ID,
	})
}

func (h *ReloadHandler) status(c *fiber.Ctx, params ReloadParams) error {
	view, err := h.tracker.Status(c.UserContext(), params.JobID)
	if err != nil {
		code, msg := statusFor(err, ErrMsgStatusFailed)
		return respondWithError(c, code, msg, err.Error(), params.ID)
	}
	return c.JSON(Response{
		Success: true,
		Data:    view,
		Message: view.Message,
		ID:      params.ID,
	})
}

// Helper to create a standardized error response
func respondWithError(c *fiber.Ctx, httpCode int, message, detail, id string) error {
	if detail == "" {
		detail = message
	}
	return c.Status(httpCode).JSON(Response{
		Success: false,
		Error:   detail,
		Message: message,
		ID:      id,
	})
}
