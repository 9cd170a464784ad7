package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/inkwell-labs/docfill-engine/internal/core/domain"
	"github.com/inkwell-labs/docfill-engine/internal/core/ports/driving"
)

var generateCmd = &cobra.Command{
	Use:   "generate [document-id] [sections-file]",
	Short: "Run a batch generation job over document sections",
	Long: `Creates a batch job for the given sections, starts it and streams
progress until the job reaches a terminal state. Each section is
processed sequentially; failures are recorded per section and do not
abort the job unless --stop-on-error is set.`,
	Args: cobra.ExactArgs(2),
	RunE: runGenerate,
}

// Generate command flags.
var (
	generateMode        string
	generateEmptyOnly   bool
	generateStopOnError bool
	generateModel       string
	generateTemperature float64
	generateMaxTokens   int
	generateOutput      string
)

func init() {
	generateCmd.Flags().StringVarP(&generateMode, "mode", "m", "replace",
		"Operation mode: replace, rework or append")
	generateCmd.Flags().BoolVar(&generateEmptyOnly, "empty-only", false,
		"Only process sections without existing content")
	generateCmd.Flags().BoolVar(&generateStopOnError, "stop-on-error", false,
		"Abort the job on the first failed section")
	generateCmd.Flags().StringVar(&generateModel, "model", "",
		"Completion model (default from config)")
	generateCmd.Flags().Float64Var(&generateTemperature, "temperature", 0,
		"Sampling temperature (default from config)")
	generateCmd.Flags().IntVar(&generateMaxTokens, "max-tokens", 0,
		"Maximum tokens per completion (default from config)")
	generateCmd.Flags().StringVarP(&generateOutput, "output", "o", "",
		"Write generated section results to a JSON file")

	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if batchController == nil {
		return errors.New("batch controller not configured")
	}

	documentID := args[0]
	sections, err := loadSections(args[1])
	if err != nil {
		return err
	}

	params := engineConfig.Model
	if generateModel != "" {
		params.Model = generateModel
	}
	if generateTemperature > 0 {
		params.Temperature = generateTemperature
	}
	if generateMaxTokens > 0 {
		params.MaxTokens = generateMaxTokens
	}

	ctx := context.Background()
	jobID, err := batchController.Create(ctx, driving.CreateJobRequest{
		DocumentID:  documentID,
		Sections:    sections,
		Mode:        domain.OperationMode(generateMode),
		Params:      params,
		StopOnError: generateStopOnError,
		EmptyOnly:   generateEmptyOnly,
	})
	if err != nil {
		return fmt.Errorf("create job: %w", err)
	}

	cmd.Printf("Created job %s\n", jobID)

	events, unsubscribe, err := batchController.Subscribe(jobID)
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	defer unsubscribe()

	if err := batchController.Start(ctx, jobID); err != nil {
		return fmt.Errorf("start job: %w", err)
	}

	// Stream progress until the scheduler closes the channel.
	for ev := range events {
		cmd.Printf("\rSucceeded %d, failed %d, skipped %d, remaining %d",
			ev.Succeeded, ev.Failed, ev.Skipped, ev.Remaining)
	}
	cmd.Println()

	job, err := batchController.Status(ctx, jobID)
	if err != nil {
		return fmt.Errorf("job status: %w", err)
	}

	printJobSummary(cmd, job)

	if generateOutput != "" {
		if err := writeResults(generateOutput, job); err != nil {
			return err
		}
		cmd.Printf("Results written to %s\n", generateOutput)
	}

	if job.State == domain.JobFailed {
		return fmt.Errorf("job %s failed", jobID)
	}
	return nil
}

// printJobSummary prints the per-task outcome table for a finished job.
func printJobSummary(cmd *cobra.Command, job *domain.BatchJob) {
	counts := job.Counts()
	cmd.Printf("Job %s: %s (%d succeeded, %d failed, %d skipped)\n",
		job.JobID, job.State, counts.Succeeded, counts.Failed, counts.Skipped)

	for i := range job.Tasks {
		task := &job.Tasks[i]
		switch task.Status {
		case domain.TaskSucceeded:
			cmd.Printf("  %-40s %s (%s, %d tokens)\n",
				task.SectionPath, task.Status, task.Strategy.Method, task.TokensUsed)
		case domain.TaskFailed:
			cmd.Printf("  %-40s %s (%s): %s\n",
				task.SectionPath, task.Status, task.Cause, task.Error)
		default:
			cmd.Printf("  %-40s %s\n", task.SectionPath, task.Status)
		}
	}
}

// sectionResultJSON is the on-disk shape of one generated section.
type sectionResultJSON struct {
	SectionID     string `json:"sectionId"`
	GeneratedText string `json:"generatedText"`
}

// writeResults writes the succeeded sections' generated text to a file.
func writeResults(path string, job *domain.BatchJob) error {
	results := job.Results()
	out := make([]sectionResultJSON, len(results))
	for i, r := range results {
		out[i] = sectionResultJSON{
			SectionID:     r.SectionID,
			GeneratedText: r.GeneratedText,
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling results: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing results file: %w", err)
	}
	return nil
}
