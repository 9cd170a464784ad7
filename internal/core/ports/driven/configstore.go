package driven

import "github.com/inkwell-labs/docfill-engine/internal/core/domain"

// EngineConfigStore loads and saves the engine configuration.
type EngineConfigStore interface {
	// Load reads the stored configuration. A missing file yields the
	// defaults, not an error.
	Load() (domain.EngineConfig, error)

	// Save writes the configuration.
	Save(cfg domain.EngineConfig) error

	// Path returns the backing file path, for diagnostics.
	Path() string
}
