package test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/celestiaorg/reloader/internal/app"
	"github.com/celestiaorg/reloader/internal/db/repos"
	"github.com/celestiaorg/reloader/internal/durable"
	"github.com/celestiaorg/reloader/internal/events"
	"github.com/celestiaorg/reloader/internal/host/prompt"
	"github.com/celestiaorg/reloader/internal/reload"
	"github.com/celestiaorg/reloader/internal/session"
	"github.com/celestiaorg/reloader/pkg/api/v1/client"
	"github.com/celestiaorg/reloader/pkg/api/v1/routes"
)

// DefaultTestTimeout is the default timeout for test environments.
const DefaultTestTimeout = 30 * time.Second

// testClientTimeout is the timeout for test API client requests
const testClientTimeout = 5 * time.Second

// testKeyPrefix namespaces the durable keys of a test environment
const testKeyPrefix = "reloader-test"

// TestEnvironment encapsulates all components needed for integration testing.
// It provides a complete test setup with:
//   - File-based SQLite durable store
//   - Tracker runtime over a scripted host
//   - Real API server
//   - Real API client
type TestEnvironment struct {
	t *testing.T // The testing.T instance for this environment

	// Server components
	App    *fiber.App
	Server *httptest.Server

	// Client components
	APIClient client.Client

	// Durable state
	DB    *gorm.DB
	Store durable.Store
	Keys  durable.Keys

	// Tracker components
	Runtime *app.Runtime
	Session session.Session
	Bus     *events.Bus
	Host    *ScriptedHost
	Ticker  *ManualTicker
	Clock   *Clock

	confirmer   reload.Confirmer
	graceWindow time.Duration

	// Context management
	ctx        context.Context
	cancelFunc context.CancelFunc

	// Cleanup function
	cleanup func()
}

// Option represents a configuration option for the test environment.
type Option func(*TestEnvironment)

// WithTimeout returns an option that sets the test environment timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(env *TestEnvironment) {
		if env.cancelFunc != nil {
			env.cancelFunc()
		}
		env.ctx, env.cancelFunc = context.WithTimeout(context.Background(), timeout)
	}
}

// WithCleanupFunc returns an option that adds a cleanup function to be
// called when the environment is cleaned up.
func WithCleanupFunc(cleanup func()) Option {
	return func(env *TestEnvironment) {
		oldCleanup := env.cleanup
		env.cleanup = func() {
			if cleanup != nil {
				cleanup()
			}
			if oldCleanup != nil {
				oldCleanup()
			}
		}
	}
}

// WithConfirmer returns an option that replaces the auto-approving confirmer.
func WithConfirmer(c reload.Confirmer) Option {
	return func(env *TestEnvironment) {
		env.confirmer = c
	}
}

// WithGraceWindow returns an option that sets the build start grace window.
func WithGraceWindow(d time.Duration) Option {
	return func(env *TestEnvironment) {
		env.graceWindow = d
	}
}

// NewTestEnvironment creates a new test environment with the given options.
// The environment must be cleaned up after use by calling Cleanup.
func NewTestEnvironment(t *testing.T, opts ...Option) *TestEnvironment {
	t.Helper()

	// Create environment with default timeout
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTestTimeout)

	env := &TestEnvironment{
		t:           t,
		ctx:         ctx,
		cancelFunc:  cancel,
		Bus:         events.NewBus(),
		Ticker:      NewManualTicker(),
		Clock:       NewClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)),
		Keys:        durable.NewKeys(testKeyPrefix),
		confirmer:   prompt.New(prompt.ModeAlways, nil, nil),
		graceWindow: reload.DefaultGraceWindow,
	}
	env.Host = NewScriptedHost(env.Bus)

	// Apply options
	for _, opt := range opts {
		opt(env)
	}

	env.setupDB()
	env.setupRuntime()
	env.setupServer()

	return env
}

func (e *TestEnvironment) setupDB() {
	conn, tmpDir, err := NewFileBasedTestDB()
	e.Require().NoError(err, "Failed to create file-based database")
	e.DB = conn
	e.Store = durable.NewDBStore(repos.NewDurableEntryRepository(conn))

	e.addCleanup(func() {
		CleanupTestDB(conn, tmpDir)
	})
}

func (e *TestEnvironment) setupRuntime() {
	e.Runtime = app.New(app.Options{
		Store:       e.Store,
		Keys:        e.Keys,
		Host:        e.Host,
		Ticker:      e.Ticker,
		Bus:         e.Bus,
		Confirmer:   e.confirmer,
		GraceWindow: e.graceWindow,
		Now:         e.Clock.Now,
	})
	e.Session = e.Runtime.Boot(e.ctx)

	e.addCleanup(e.Runtime.Close)
}

func (e *TestEnvironment) setupServer() {
	e.App = routes.NewApp(e.Runtime)

	// Create test server using adaptor to convert Fiber app to http.Handler
	e.Server = httptest.NewServer(adaptor.FiberApp(e.App))

	apiClient, err := client.NewClient(&client.Options{
		BaseURL: e.Server.URL,
		Timeout: testClientTimeout,
	})
	e.Require().NoError(err, "Failed to create API client")
	e.APIClient = apiClient

	e.addCleanup(e.Server.Close)
}

// addCleanup runs fn before every cleanup registered earlier
func (e *TestEnvironment) addCleanup(fn func()) {
	WithCleanupFunc(fn)(e)
}

// Context returns the environment's context, which is automatically
// canceled when the environment is cleaned up.
func (e *TestEnvironment) Context() context.Context {
	return e.ctx
}

// Cleanup tears down the test environment, releasing all resources.
// This should be deferred immediately after creating the environment.
func (e *TestEnvironment) Cleanup() {
	if e.cleanup != nil {
		e.cleanup()
	}
	if e.cancelFunc != nil {
		e.cancelFunc()
	}
}

// Reset simulates a host reset: the tracker generation is discarded and a
// new one is started from the durable store.
func (e *TestEnvironment) Reset() {
	e.Require().NoError(e.Runtime.Reset(e.ctx), "Failed to reset runtime")
	e.Session = e.Runtime.Boot(e.ctx)
}

// Require returns a require.Assertions instance for this environment.
// This is a convenience method to avoid passing t around.
func (e *TestEnvironment) Require() *require.Assertions {
	return require.New(e.t)
}

// WithTimeout returns a new context with the specified timeout.
// The returned context is a child of the environment's context.
func (e *TestEnvironment) WithTimeout(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(e.ctx, timeout)
}

// T returns the testing.T instance for this environment.
// This is useful for test helpers that need access to the test instance.
func (e *TestEnvironment) T() *testing.T {
	return e.t
}
