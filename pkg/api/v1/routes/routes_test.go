package routes

import (
	"net/http/httptest"
	"net/url"
	"testing"

	fiber "github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celestiaorg/reloader/pkg/api/v1/handlers"
)

func TestRouteURLs(t *testing.T) {
	assert.Equal(t, "/health", HealthCheckURL())
	assert.Equal(t, "/api/v1/reload", ReloadURL())
	assert.Equal(t, "", BuildURL("Unknown", nil, nil))
	assert.Equal(t, "/api/v1/reload?verbose=1", BuildURL(Reload, nil, url.Values{"verbose": []string{"1"}}))
}

func TestHealthRoute(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app, handlers.NewReloadHandler(nil))

	resp, err := app.Test(httptest.NewRequest("GET", HealthCheckURL(), nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestNewAppUnknownRoute(t *testing.T) {
	app := NewApp(nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/nope", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
