package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show engine configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective engine configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cfg := engineConfig

	cmd.Printf("Model:                %s\n", cfg.Model.Model)
	cmd.Printf("Temperature:          %.2f\n", cfg.Model.Temperature)
	cmd.Printf("Max tokens:           %d\n", cfg.Model.MaxTokens)
	cmd.Printf("Token budget:         %d\n", cfg.Selector.TokenBudget)
	cmd.Printf("Retrieval threshold:  %d chars\n", cfg.Selector.RetrievalThresholdChars)
	cmd.Printf("Chunk target:         %d tokens\n", cfg.Chunker.TargetTokens)
	cmd.Printf("Chunk overlap:        %.2f\n", cfg.Chunker.OverlapFraction)
	cmd.Printf("Retrieval top-k:      %d\n", cfg.Retriever.TopK)
	cmd.Printf("Request timeout:      %s\n", cfg.Dispatcher.RequestTimeout)
	return nil
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}
	cmd.Println(configStore.Path())
	return nil
}
