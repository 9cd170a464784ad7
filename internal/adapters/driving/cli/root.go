// Package cli provides the cobra command tree for the docfill engine.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/inkwell-labs/docfill-engine/internal/core/domain"
	"github.com/inkwell-labs/docfill-engine/internal/core/ports/driven"
	"github.com/inkwell-labs/docfill-engine/internal/core/ports/driving"
	"github.com/inkwell-labs/docfill-engine/internal/logger"
)

// version is set via SetVersion from the build entry point.
var version = "dev"

// Services wired in by the entry point before Execute runs.
var (
	batchController driving.BatchController
	indexer         driving.DocumentIndexer
	chunkStore      driven.ChunkStore
	configStore     driven.EngineConfigStore
	engineConfig    domain.EngineConfig
)

// verbose enables debug logging on stderr.
var verbose bool

var rootCmd = &cobra.Command{
	Use:   "docfill",
	Short: "Content processing and batch generation engine",
	Long: `docfill analyses document sections, selects a processing strategy,
retrieves supporting context and runs batch AI generation jobs.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// Deps bundles the driving and driven ports the commands operate on.
type Deps struct {
	BatchController driving.BatchController
	Indexer         driving.DocumentIndexer
	ChunkStore      driven.ChunkStore
	ConfigStore     driven.EngineConfigStore
	Config          domain.EngineConfig
}

// SetDeps wires the services the commands depend on. Must be called
// before Execute.
func SetDeps(deps Deps) {
	batchController = deps.BatchController
	indexer = deps.Indexer
	chunkStore = deps.ChunkStore
	configStore = deps.ConfigStore
	engineConfig = deps.Config
}

// SetVersion records the build version for the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
