package routes

import (
	"errors"

	fiber "github.com/gofiber/fiber/v2"

	"github.com/celestiaorg/reloader/internal/app"
	"github.com/celestiaorg/reloader/internal/logger"
	"github.com/celestiaorg/reloader/pkg/api/v1/handlers"
)

// NewApp builds the HTTP application serving the tracker
func NewApp(tracker app.Tracker) *fiber.App {
	a := fiber.New(fiber.Config{
		ErrorHandler:          customErrorHandler,
		DisableStartupMessage: true,
	})
	a.Use(logger.APILogger())
	RegisterRoutes(a, handlers.NewReloadHandler(tracker))
	return a
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}

	return c.Status(code).JSON(handlers.Response{
		Success: false,
		Error:   err.Error(),
		Message: "Request failed",
	})
}
