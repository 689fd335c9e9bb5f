// Package client provides the API client for interacting with the reloader API
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	fiber "github.com/gofiber/fiber/v2"

	"github.com/celestiaorg/reloader/internal/logger"
	"github.com/celestiaorg/reloader/internal/reload"
	"github.com/celestiaorg/reloader/pkg/api/v1/handlers"
	"github.com/celestiaorg/reloader/pkg/api/v1/routes"
)

// DefaultTimeout is the default timeout for API requests
const DefaultTimeout = 30 * time.Second

// DefaultPollInterval is how often WaitForReload polls the job status
const DefaultPollInterval = 500 * time.Millisecond

// Client is the interface for API client
type Client interface {
	// Health Check
	HealthCheck(ctx context.Context) (map[string]string, error)

	// Reload Endpoints
	TriggerReload(ctx context.Context, params handlers.ReloadParams) (reload.Submission, error)
	GetReloadStatus(ctx context.Context, jobID string) (reload.JobView, error)
	WaitForReload(ctx context.Context, jobID string, opts *WaitOptions) (reload.JobView, error)
}

var _ Client = &APIClient{}

// Options contains configuration options for the API client
type Options struct {
	// BaseURL is the base URL of the API
	BaseURL string

	// Timeout is the request timeout
	Timeout time.Duration
}

// DefaultOptions returns the default client options
func DefaultOptions() *Options {
	return &Options{
		BaseURL: routes.DefaultBaseURL,
		Timeout: DefaultTimeout,
	}
}

// WaitOptions tunes WaitForReload
type WaitOptions struct {
	// PollInterval defaults to DefaultPollInterval
	PollInterval time.Duration
	// Timeout bounds the whole wait; zero waits until ctx is done
	Timeout time.Duration
}

// APIError is a failed reply from the API
type APIError struct {
	StatusCode int
	Message    string
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" && e.Detail != e.Message {
		return fmt.Sprintf("%s: %s (status %d)", e.Message, e.Detail, e.StatusCode)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
}

// ErrWaitTimeout is returned when a job is still running when the wait ends
var ErrWaitTimeout = errors.New("timed out waiting for reload job")

// IsStatus reports whether err is an APIError with the given status code
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

// APIClient implements the Client interface
type APIClient struct {
	baseURL string
	timeout time.Duration
}

// NewClient creates a new API client with the given options
func NewClient(opts *Options) (Client, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	// Validate the base URL
	if _, err := url.Parse(opts.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	return &APIClient{
		baseURL: opts.BaseURL,
		timeout: opts.Timeout,
	}, nil
}

// createAgent creates a new Fiber Agent for the given method and endpoint
func (c *APIClient) createAgent(ctx context.Context, method, endpoint string, body interface{}) (*fiber.Agent, error) {
	fullURL := c.baseURL + endpoint

	var agent *fiber.Agent
	switch method {
	case http.MethodGet:
		agent = fiber.Get(fullURL)
	case http.MethodPost:
		agent = fiber.Post(fullURL)
	default:
		return nil, fmt.Errorf("unsupported HTTP method: %s", method)
	}

	// Set timeout from context or client default
	if deadline, ok := ctx.Deadline(); ok {
		agent.Timeout(time.Until(deadline))
	} else {
		agent.Timeout(c.timeout)
	}

	agent.Set("Content-Type", "application/json")
	agent.Set("Accept", "application/json")

	if body != nil {
		agent.JSON(body)
	}

	return agent, nil
}

// doRequest sends the HTTP request and decodes a plain JSON response
func (c *APIClient) doRequest(agent *fiber.Agent, v interface{}) error {
	statusCode, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("error sending request: %w", errs[0])
	}

	if statusCode < 200 || statusCode >= 300 {
		return &APIError{StatusCode: statusCode, Message: string(body)}
	}

	if v != nil && len(body) > 0 {
		if err := json.Unmarshal(body, v); err != nil {
			return fmt.Errorf("error decoding response: %w", err)
		}
	}
	return nil
}

// executeReload posts to the reload endpoint and unwraps the envelope
func (c *APIClient) executeReload(ctx context.Context, params handlers.ReloadParams, result interface{}) error {
	agent, err := c.createAgent(ctx, http.MethodPost, routes.ReloadURL(), params)
	if err != nil {
		return err
	}

	statusCode, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("error sending reload request: %w", errs[0])
	}

	var resp handlers.Response
	if err := json.Unmarshal(body, &resp); err != nil {
		if statusCode < 200 || statusCode >= 300 {
			return &APIError{StatusCode: statusCode, Message: string(body)}
		}
		return fmt.Errorf("failed to unmarshal reload response body: %w", err)
	}

	if statusCode < 200 || statusCode >= 300 || !resp.Success {
		return &APIError{StatusCode: statusCode, Message: resp.Message, Detail: resp.Error}
	}

	if result == nil {
		return nil
	}

	// Data is decoded as interface{}, round-trip it into the typed result
	dataBytes, err := json.Marshal(resp.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal reload data field: %w", err)
	}
	if err := json.Unmarshal(dataBytes, result); err != nil {
		return fmt.Errorf("failed to unmarshal reload data into result: %w", err)
	}
	return nil
}

// HealthCheck checks the health of the API
func (c *APIClient) HealthCheck(ctx context.Context) (map[string]string, error) {
	agent, err := c.createAgent(ctx, http.MethodGet, routes.HealthCheckURL(), nil)
	if err != nil {
		return map[string]string{}, err
	}
	var response map[string]string
	if err := c.doRequest(agent, &response); err != nil {
		return map[string]string{}, err
	}
	return response, nil
}

// TriggerReload starts a reload job
func (c *APIClient) TriggerReload(ctx context.Context, params handlers.ReloadParams) (reload.Submission, error) {
	if err := params.Validate(); err != nil {
		return reload.Submission{}, err
	}
	if params.Action == handlers.ActionGetStatus {
		return reload.Submission{}, fmt.Errorf("use GetReloadStatus to poll a job")
	}
	var sub reload.Submission
	if err := c.executeReload(ctx, params, &sub); err != nil {
		return reload.Submission{}, err
	}
	return sub, nil
}

// GetReloadStatus returns the current status of a job
func (c *APIClient) GetReloadStatus(ctx context.Context, jobID string) (reload.JobView, error) {
	params := handlers.ReloadParams{Action: handlers.ActionGetStatus, JobID: jobID}
	if err := params.Validate(); err != nil {
		return reload.JobView{}, err
	}
	var view reload.JobView
	if err := c.executeReload(ctx, params, &view); err != nil {
		return reload.JobView{}, err
	}
	return view, nil
}

// WaitForReload polls a job until it leaves the running status. Transport
// errors and 503 replies are expected while the server resets and are
// retried; any other error ends the wait.
func (c *APIClient) WaitForReload(ctx context.Context, jobID string, opts *WaitOptions) (reload.JobView, error) {
	interval := DefaultPollInterval
	if opts != nil && opts.PollInterval > 0 {
		interval = opts.PollInterval
	}
	if opts != nil && opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last reload.JobView
	for {
		select {
		case <-ctx.Done():
			if last.JobID != "" {
				return last, fmt.Errorf("%w %s: last status %s", ErrWaitTimeout, jobID, last.Status)
			}
			return last, fmt.Errorf("%w %s: %v", ErrWaitTimeout, jobID, ctx.Err())
		case <-ticker.C:
		}

		view, err := c.GetReloadStatus(ctx, jobID)
		switch {
		case err == nil:
			last = view
			if view.Status != reload.StatusRunning {
				return view, nil
			}
		case IsStatus(err, fiber.StatusServiceUnavailable):
			logger.Debugf("client: server busy while polling %s: %v", jobID, err)
		case isTransportError(err):
			logger.Debugf("client: lost connection while polling %s: %v", jobID, err)
		default:
			return last, err
		}
	}
}

func isTransportError(err error) bool {
	var apiErr *APIError
	return err != nil && !errors.As(err, &apiErr)
}
