// Command docfill runs the content processing and batch generation
// engine from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/inkwell-labs/docfill-engine/internal/adapters/driven/completion/openai"
	configfile "github.com/inkwell-labs/docfill-engine/internal/adapters/driven/config/file"
	"github.com/inkwell-labs/docfill-engine/internal/adapters/driven/storage/sqlite"
	"github.com/inkwell-labs/docfill-engine/internal/adapters/driving/cli"
	"github.com/inkwell-labs/docfill-engine/internal/core/ports/driven"
	"github.com/inkwell-labs/docfill-engine/internal/core/services"
	"github.com/inkwell-labs/docfill-engine/internal/logger"
	"github.com/inkwell-labs/docfill-engine/internal/postprocessors/chunker"
)

// version is injected at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configStore, err := configfile.NewConfigStore(os.Getenv("DOCFILL_CONFIG_DIR"))
	if err != nil {
		return fmt.Errorf("opening config store: %w", err)
	}

	cfg, err := configStore.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	store, err := sqlite.NewStore(os.Getenv("DOCFILL_DATA_DIR"))
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	var completion driven.CompletionService
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		completion, err = openai.NewCompletionService(openai.Config{
			APIKey:  apiKey,
			BaseURL: os.Getenv("OPENAI_BASE_URL"),
			Model:   cfg.Model.Model,
		})
		if err != nil {
			return fmt.Errorf("creating completion service: %w", err)
		}
		defer completion.Close()
	} else {
		logger.Warn("OPENAI_API_KEY not set; generation commands will fail")
	}

	retriever := services.NewRetriever(
		store.ChunkStore(),
		chunker.NewFromConfig(cfg.Chunker),
		cfg.Retriever,
	)
	selector := services.NewStrategySelector(cfg.Selector)
	dispatcher := services.NewDispatcher(completion, cfg.Dispatcher)
	batch := services.NewBatchManager(selector, retriever, dispatcher, store.JobStore(), cfg.Retriever.TopK)

	cli.SetVersion(version)
	cli.SetDeps(cli.Deps{
		BatchController: batch,
		Indexer:         retriever,
		ChunkStore:      store.ChunkStore(),
		ConfigStore:     configStore,
		Config:          cfg,
	})

	return cli.Execute()
}
