package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celestiaorg/reloader/internal/reload"
	"github.com/celestiaorg/reloader/pkg/api/v1/client"
	"github.com/celestiaorg/reloader/pkg/api/v1/client/mock"
	"github.com/celestiaorg/reloader/pkg/api/v1/handlers"
)

// setupTestCommand swaps in a mock client and captures the command output
func setupTestCommand(t *testing.T, cmd *cobra.Command, args ...string) (*mock.MockClient, *bytes.Buffer) {
	t.Helper()
	mockClient := &mock.MockClient{}

	original := apiClient
	t.Cleanup(func() { apiClient = original })
	apiClient = mockClient

	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)
	return mockClient, out
}

func TestTriggerCommand(t *testing.T) {
	t.Run("prints the submission", func(t *testing.T) {
		cmd := GetTriggerCmd()
		mockClient, out := setupTestCommand(t, cmd, "compile_scripts", "--logs", "--log-level", "error", "--timeout", "30")
		mockClient.TriggerReloadFn = func(_ context.Context, params handlers.ReloadParams) (reload.Submission, error) {
			return reload.Submission{JobID: "job-1", Status: reload.StatusInitiated, SessionID: "s-1"}, nil
		}

		require.NoError(t, cmd.Execute())
		require.Len(t, mockClient.TriggerReloadCalls, 1)
		assert.Equal(t, handlers.ReloadParams{
			Action:         "compile_scripts",
			IncludeLogs:    true,
			LogLevel:       "error",
			TimeoutSeconds: 30,
		}, mockClient.TriggerReloadCalls[0])

		var sub reload.Submission
		require.NoError(t, json.Unmarshal(out.Bytes(), &sub))
		assert.Equal(t, "job-1", sub.JobID)
		assert.Empty(t, mockClient.WaitCalls)
	})

	t.Run("waits for completion", func(t *testing.T) {
		cmd := GetTriggerCmd()
		mockClient, out := setupTestCommand(t, cmd, "compile_and_reload", "--wait", "--poll-interval", "10ms", "--timeout", "5")
		mockClient.TriggerReloadFn = func(context.Context, handlers.ReloadParams) (reload.Submission, error) {
			return reload.Submission{JobID: "job-2"}, nil
		}
		mockClient.WaitForReloadFn = func(_ context.Context, jobID string, opts *client.WaitOptions) (reload.JobView, error) {
			assert.Equal(t, 10*time.Millisecond, opts.PollInterval)
			assert.Equal(t, 10*time.Second, opts.Timeout)
			return reload.JobView{JobID: jobID, Status: reload.StatusCompleted, CompilationSucceeded: true}, nil
		}

		require.NoError(t, cmd.Execute())
		assert.Equal(t, []string{"job-2"}, mockClient.WaitCalls)
		assert.Contains(t, out.String(), `"status": "completed"`)
	})

	t.Run("wait reports failed jobs", func(t *testing.T) {
		cmd := GetTriggerCmd()
		mockClient, _ := setupTestCommand(t, cmd, "compile_scripts", "--wait")
		mockClient.TriggerReloadFn = func(context.Context, handlers.ReloadParams) (reload.Submission, error) {
			return reload.Submission{JobID: "job-3"}, nil
		}
		mockClient.WaitForReloadFn = func(_ context.Context, jobID string, _ *client.WaitOptions) (reload.JobView, error) {
			return reload.JobView{JobID: jobID, Status: reload.StatusFailed}, nil
		}

		err := cmd.Execute()
		assert.ErrorIs(t, err, ErrJobFailed)
	})

	t.Run("rejects unknown actions", func(t *testing.T) {
		cmd := GetTriggerCmd()
		mockClient, _ := setupTestCommand(t, cmd, "explode")

		assert.Error(t, cmd.Execute())
		assert.Empty(t, mockClient.TriggerReloadCalls)
	})

	t.Run("client error", func(t *testing.T) {
		cmd := GetTriggerCmd()
		mockClient, _ := setupTestCommand(t, cmd, "domain_reload")
		mockClient.TriggerReloadFn = func(context.Context, handlers.ReloadParams) (reload.Submission, error) {
			return reload.Submission{}, errors.New("connection refused")
		}

		err := cmd.Execute()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection refused")
	})
}

func TestStatusCommand(t *testing.T) {
	cmd := GetStatusCmd()
	mockClient, out := setupTestCommand(t, cmd, "--id", "job-9")
	mockClient.GetReloadStatusFn = func(_ context.Context, jobID string) (reload.JobView, error) {
		return reload.JobView{JobID: jobID, Status: reload.StatusTimeout, Message: "Operation timed out after 5 seconds"}, nil
	}

	require.NoError(t, cmd.Execute())
	assert.Equal(t, []string{"job-9"}, mockClient.StatusCalls)
	assert.Contains(t, out.String(), "timed out")
}

func TestStatusCommandRequiresID(t *testing.T) {
	cmd := GetStatusCmd()
	setupTestCommand(t, cmd)
	assert.Error(t, cmd.Execute())
}

func TestHealthCommand(t *testing.T) {
	cmd := GetHealthCmd()
	mockClient, out := setupTestCommand(t, cmd)
	mockClient.HealthCheckFn = func(context.Context) (map[string]string, error) {
		return map[string]string{"status": "healthy"}, nil
	}

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "healthy")
}
