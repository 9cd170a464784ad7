// Package file provides a TOML-backed engine configuration store.
package file

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/inkwell-labs/docfill-engine/internal/core/domain"
	"github.com/inkwell-labs/docfill-engine/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.EngineConfigStore = (*ConfigStore)(nil)

// ConfigStore is a file-based implementation of driven.EngineConfigStore
// using TOML. Configuration is stored in a TOML file within the docfill
// config directory.
type ConfigStore struct {
	mu       sync.Mutex
	filePath string
}

// NewConfigStore creates a new TOML-based config store.
// If configDir is empty, defaults to ~/.docfill/config.toml.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, ".docfill")
	}

	// Ensure directory exists
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	return &ConfigStore{
		filePath: filepath.Join(configDir, "config.toml"),
	}, nil
}

// Load reads the stored configuration. A missing file yields the
// defaults, not an error. Fields absent from the file keep their
// default values.
func (s *ConfigStore) Load() (domain.EngineConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := domain.DefaultEngineConfig()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.Model = modelParams(cfg)
			return cfg, nil
		}
		return domain.EngineConfig{}, err
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return domain.EngineConfig{}, err
	}

	cfg.Model = modelParams(cfg)
	return cfg, nil
}

// Save writes the configuration to disk.
func (s *ConfigStore) Save(cfg domain.EngineConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Keep the TOML mirror fields in sync with the typed params.
	if cfg.Model.Model != "" {
		cfg.ModelName = cfg.Model.Model
		cfg.Temperature = cfg.Model.Temperature
		cfg.MaxTokens = cfg.Model.MaxTokens
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}

	// Write with restricted permissions
	return os.WriteFile(s.filePath, data, 0600)
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}

// modelParams assembles the typed completion parameters from the TOML
// mirror fields.
func modelParams(cfg domain.EngineConfig) domain.ModelParams {
	return domain.ModelParams{
		Model:       cfg.ModelName,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	}
}
