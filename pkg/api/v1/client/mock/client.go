// Package mock provides a function-field implementation of the API client for tests
package mock

import (
	"context"
	"fmt"

	"github.com/celestiaorg/reloader/internal/reload"
	"github.com/celestiaorg/reloader/pkg/api/v1/client"
	"github.com/celestiaorg/reloader/pkg/api/v1/handlers"
)

var _ client.Client = (*MockClient)(nil)

// MockClient implements the Client interface for testing
type MockClient struct {
	// Function fields that can be set to mock behavior
	HealthCheckFn     func(ctx context.Context) (map[string]string, error)
	TriggerReloadFn   func(ctx context.Context, params handlers.ReloadParams) (reload.Submission, error)
	GetReloadStatusFn func(ctx context.Context, jobID string) (reload.JobView, error)
	WaitForReloadFn   func(ctx context.Context, jobID string, opts *client.WaitOptions) (reload.JobView, error)

	// Call tracking for verification
	TriggerReloadCalls []handlers.ReloadParams
	StatusCalls        []string
	WaitCalls          []string
}

// HealthCheck implements client.Client
func (m *MockClient) HealthCheck(ctx context.Context) (map[string]string, error) {
	if m.HealthCheckFn != nil {
		return m.HealthCheckFn(ctx)
	}
	return nil, fmt.Errorf("HealthCheckFn not set")
}

// TriggerReload implements client.Client
func (m *MockClient) TriggerReload(ctx context.Context, params handlers.ReloadParams) (reload.Submission, error) {
	m.TriggerReloadCalls = append(m.TriggerReloadCalls, params)
	if m.TriggerReloadFn != nil {
		return m.TriggerReloadFn(ctx, params)
	}
	return reload.Submission{}, fmt.Errorf("TriggerReloadFn not set")
}

// GetReloadStatus implements client.Client
func (m *MockClient) GetReloadStatus(ctx context.Context, jobID string) (reload.JobView, error) {
	m.StatusCalls = append(m.StatusCalls, jobID)
	if m.GetReloadStatusFn != nil {
		return m.GetReloadStatusFn(ctx, jobID)
	}
	return reload.JobView{}, fmt.Errorf("GetReloadStatusFn not set")
}

// WaitForReload implements client.Client
func (m *MockClient) WaitForReload(ctx context.Context, jobID string, opts *client.WaitOptions) (reload.JobView, error) {
	m.WaitCalls = append(m.WaitCalls, jobID)
	if m.WaitForReloadFn != nil {
		return m.WaitForReloadFn(ctx, jobID, opts)
	}
	return reload.JobView{}, fmt.Errorf("WaitForReloadFn not set")
}
