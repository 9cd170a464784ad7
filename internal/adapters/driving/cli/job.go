package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var jobCmd = &cobra.Command{
	Use:   "job",
	Short: "Inspect and control batch jobs",
	Long:  `Query job status and pause, resume or cancel a running job.`,
}

var jobStatusCmd = &cobra.Command{
	Use:   "status [job-id]",
	Short: "Show job status and per-section outcomes",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobStatus,
}

var jobPauseCmd = &cobra.Command{
	Use:   "pause [job-id]",
	Short: "Pause a running job",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobPause,
}

var jobResumeCmd = &cobra.Command{
	Use:   "resume [job-id]",
	Short: "Resume a paused job",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobResume,
}

var jobCancelCmd = &cobra.Command{
	Use:   "cancel [job-id]",
	Short: "Cancel a job, skipping remaining sections",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobCancel,
}

func init() {
	jobCmd.AddCommand(jobStatusCmd)
	jobCmd.AddCommand(jobPauseCmd)
	jobCmd.AddCommand(jobResumeCmd)
	jobCmd.AddCommand(jobCancelCmd)
	rootCmd.AddCommand(jobCmd)
}

func runJobStatus(cmd *cobra.Command, args []string) error {
	if batchController == nil {
		return errors.New("batch controller not configured")
	}

	job, err := batchController.Status(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("job status: %w", err)
	}

	printJobSummary(cmd, job)
	return nil
}

func runJobPause(cmd *cobra.Command, args []string) error {
	if batchController == nil {
		return errors.New("batch controller not configured")
	}

	if err := batchController.Pause(context.Background(), args[0]); err != nil {
		return fmt.Errorf("pause job: %w", err)
	}
	cmd.Printf("Job %s paused.\n", args[0])
	return nil
}

func runJobResume(cmd *cobra.Command, args []string) error {
	if batchController == nil {
		return errors.New("batch controller not configured")
	}

	if err := batchController.Resume(context.Background(), args[0]); err != nil {
		return fmt.Errorf("resume job: %w", err)
	}
	cmd.Printf("Job %s resumed.\n", args[0])
	return nil
}

func runJobCancel(cmd *cobra.Command, args []string) error {
	if batchController == nil {
		return errors.New("batch controller not configured")
	}

	if err := batchController.Cancel(context.Background(), args[0]); err != nil {
		return fmt.Errorf("cancel job: %w", err)
	}
	cmd.Printf("Job %s cancelled.\n", args[0])
	return nil
}
