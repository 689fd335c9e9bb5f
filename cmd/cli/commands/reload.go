package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/celestiaorg/reloader/internal/reload"
	"github.com/celestiaorg/reloader/pkg/api/v1/client"
	"github.com/celestiaorg/reloader/pkg/api/v1/handlers"
)

// flag names of the reload commands
const (
	flagIncludeLogs  = "logs"
	flagLogLevel     = "log-level"
	flagTimeout      = "timeout"
	flagWait         = "wait"
	flagPollInterval = "poll-interval"
	flagJobID        = "id"
)

// ErrJobFailed is returned by trigger --wait when the job did not complete
var ErrJobFailed = errors.New("reload job did not complete successfully")

// GetTriggerCmd returns the trigger command
func GetTriggerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "trigger [refresh_assets|compile_scripts|domain_reload|compile_and_reload]",
		Short:     "Start a reload job",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{handlers.ActionRefreshAssets, handlers.ActionCompileScripts, handlers.ActionDomainReload, handlers.ActionCompileAndReload},
		RunE:      runTrigger,
	}
	cmd.Flags().BoolP(flagIncludeLogs, "l", false, "Include build logs in the job status")
	cmd.Flags().String(flagLogLevel, string(reload.LogLevelAll), "Minimum log level returned: all, warning or error")
	cmd.Flags().Float64P(flagTimeout, "t", 0, "Job timeout in seconds (0 uses the server default)")
	cmd.Flags().BoolP(flagWait, "w", false, "Wait until the job finishes and print its final status")
	cmd.Flags().Duration(flagPollInterval, client.DefaultPollInterval, "Status poll interval used with --wait")
	return cmd
}

func runTrigger(cmd *cobra.Command, args []string) error {
	includeLogs, _ := cmd.Flags().GetBool(flagIncludeLogs)
	logLevel, _ := cmd.Flags().GetString(flagLogLevel)
	timeout, _ := cmd.Flags().GetFloat64(flagTimeout)
	wait, _ := cmd.Flags().GetBool(flagWait)
	interval, _ := cmd.Flags().GetDuration(flagPollInterval)

	params := handlers.ReloadParams{
		Action:         args[0],
		IncludeLogs:    includeLogs,
		LogLevel:       logLevel,
		TimeoutSeconds: timeout,
	}
	if err := params.Validate(); err != nil {
		return err
	}

	sub, err := apiClient.TriggerReload(cmd.Context(), params)
	if err != nil {
		return fmt.Errorf("error triggering reload: %w", err)
	}
	if !wait {
		return printJSON(cmd, sub)
	}

	opts := &client.WaitOptions{PollInterval: interval}
	if timeout > 0 {
		// leave room for the server to report the timeout itself
		opts.Timeout = time.Duration(timeout*float64(time.Second)) + 5*time.Second
	}
	view, err := apiClient.WaitForReload(cmd.Context(), sub.JobID, opts)
	if err != nil {
		return fmt.Errorf("error waiting for job %s: %w", sub.JobID, err)
	}
	if err := printJSON(cmd, view); err != nil {
		return err
	}
	if view.Status != reload.StatusCompleted {
		return fmt.Errorf("%w: %s", ErrJobFailed, view.Status)
	}
	return nil
}

// GetStatusCmd returns the status command
func GetStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Get the status of a reload job",
		RunE: func(cmd *cobra.Command, _ []string) error {
			jobID, _ := cmd.Flags().GetString(flagJobID)
			view, err := apiClient.GetReloadStatus(cmd.Context(), jobID)
			if err != nil {
				return fmt.Errorf("error fetching job: %w", err)
			}
			return printJSON(cmd, view)
		},
	}
	cmd.Flags().StringP(flagJobID, "i", "", "Job ID to fetch")
	_ = cmd.MarkFlagRequired(flagJobID)
	return cmd
}

// GetHealthCmd returns the health command
func GetHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the server is up",
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := apiClient.HealthCheck(cmd.Context())
			if err != nil {
				return fmt.Errorf("error checking health: %w", err)
			}
			return printJSON(cmd, resp)
		},
	}
}
