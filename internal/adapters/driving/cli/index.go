package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index [document-id] [sections-file]",
	Short: "Chunk and index a document for retrieval",
	Long: `Splits the document's sections into retrieval-sized chunks, stores
them and builds the similarity index. Re-indexing a document replaces
its previous chunk set wholesale.`,
	Args: cobra.ExactArgs(2),
	RunE: runIndex,
}

var indexStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show chunk store statistics",
	Args:  cobra.NoArgs,
	RunE:  runIndexStats,
}

var indexPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Remove chunks for documents not re-indexed recently",
	Long: `Deletes every chunk indexed longer ago than the retention window.
Purged documents are re-indexed in full on their next use.`,
	Args: cobra.NoArgs,
	RunE: runIndexPurge,
}

// purgeDays is the retention window for index purge.
var purgeDays int

func init() {
	indexPurgeCmd.Flags().IntVar(&purgeDays, "days", 30,
		"Remove chunks older than this many days")

	indexCmd.AddCommand(indexStatsCmd)
	indexCmd.AddCommand(indexPurgeCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	if indexer == nil {
		return errors.New("indexer not configured")
	}

	documentID := args[0]
	sections, err := loadSections(args[1])
	if err != nil {
		return err
	}

	count, err := indexer.Index(context.Background(), documentID, sections)
	if err != nil {
		return fmt.Errorf("index failed: %w", err)
	}

	cmd.Printf("Indexed document %s: %d sections, %d chunks\n", documentID, len(sections), count)
	return nil
}

func runIndexStats(cmd *cobra.Command, _ []string) error {
	if chunkStore == nil {
		return errors.New("chunk store not configured")
	}

	stats, err := chunkStore.Stats(context.Background())
	if err != nil {
		return fmt.Errorf("stats failed: %w", err)
	}

	cmd.Printf("Documents:       %d\n", stats.Documents)
	cmd.Printf("Chunks:          %d\n", stats.Chunks)
	cmd.Printf("Avg chunk chars: %d\n", stats.AvgChunkChars)
	cmd.Printf("Total chars:     %d\n", stats.TotalChars)
	return nil
}

func runIndexPurge(cmd *cobra.Command, _ []string) error {
	if chunkStore == nil {
		return errors.New("chunk store not configured")
	}
	if purgeDays < 1 {
		return errors.New("--days must be at least 1")
	}

	cutoff := time.Now().AddDate(0, 0, -purgeDays)
	removed, err := chunkStore.DeleteOlderThan(context.Background(), cutoff)
	if err != nil {
		return fmt.Errorf("purge failed: %w", err)
	}

	cmd.Printf("Purged %d chunks older than %d days\n", removed, purgeDays)
	return nil
}
