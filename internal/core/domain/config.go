package domain

import "time"

// SelectorConfig tunes the strategy decision policy.
type SelectorConfig struct {
	// TokenBudget is the model context window minus the response
	// reserve.
	TokenBudget int `toml:"token_budget"`

	// PromptOverheadTokens is the fixed instruction template cost
	// added to every prompt estimate.
	PromptOverheadTokens int `toml:"prompt_overhead_tokens"`

	// RetrievalThresholdChars is the document size above which large
	// multi-section documents switch to retrieval.
	RetrievalThresholdChars int `toml:"retrieval_threshold_chars"`

	// RetrievalSectionMin is the section count above which large
	// documents switch to retrieval.
	RetrievalSectionMin int `toml:"retrieval_section_min"`

	// HybridComplexityMin is the complexity score above which dense
	// content switches to hybrid.
	HybridComplexityMin float64 `toml:"hybrid_complexity_min"`

	// HybridSectionMin is the section count above which dense content
	// switches to hybrid.
	HybridSectionMin int `toml:"hybrid_section_min"`

	// ChunkTargetChars sizes the chunk-count estimate for retrieval
	// strategies.
	ChunkTargetChars int `toml:"chunk_target_chars"`
}

// ChunkerConfig tunes document chunking.
type ChunkerConfig struct {
	// TargetTokens is the soft chunk size target.
	TargetTokens int `toml:"target_tokens"`

	// OverlapFraction is the share of TargetTokens re-included from
	// the previous chunk's trailing sentences.
	OverlapFraction float64 `toml:"overlap_fraction"`

	// HardMaxTokens is the absolute chunk size ceiling. Oversize
	// content is re-split.
	HardMaxTokens int `toml:"hard_max_tokens"`
}

// RetrieverConfig tunes similarity retrieval.
type RetrieverConfig struct {
	// TopK is the default number of chunks to retrieve.
	TopK int `toml:"top_k"`

	// MinScore drops chunks scoring below this cosine similarity.
	// Zero disables the cutoff.
	MinScore float64 `toml:"min_score"`
}

// DispatcherConfig tunes outbound generation calls.
type DispatcherConfig struct {
	// RequestTimeout bounds one completion call.
	RequestTimeout time.Duration `toml:"request_timeout"`

	// RequestsPerMinute rate-limits outbound calls. Zero disables
	// client-side limiting.
	RequestsPerMinute int `toml:"requests_per_minute"`

	// ContextCharBudget bounds the total retrieved chunk text placed
	// in one prompt.
	ContextCharBudget int `toml:"context_char_budget"`
}

// EngineConfig aggregates the engine's tunables. It is passed explicitly
// into each component at construction; there is no process-wide state.
type EngineConfig struct {
	Selector   SelectorConfig   `toml:"selector"`
	Chunker    ChunkerConfig    `toml:"chunker"`
	Retriever  RetrieverConfig  `toml:"retriever"`
	Dispatcher DispatcherConfig `toml:"dispatcher"`

	// Model holds the default completion parameters for new jobs.
	Model ModelParams `toml:"-"`

	// ModelName, Temperature and MaxTokens mirror Model for TOML.
	ModelName   string  `toml:"model"`
	Temperature float64 `toml:"temperature"`
	MaxTokens   int     `toml:"max_tokens"`
}

// DefaultEngineConfig returns sensible defaults for the engine.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Selector: SelectorConfig{
			TokenBudget:             8000,
			PromptOverheadTokens:    200,
			RetrievalThresholdChars: 10000,
			RetrievalSectionMin:     5,
			HybridComplexityMin:     0.7,
			HybridSectionMin:        3,
			ChunkTargetChars:        3200,
		},
		Chunker: ChunkerConfig{
			TargetTokens:    800,
			OverlapFraction: 0.15,
			HardMaxTokens:   1600,
		},
		Retriever: RetrieverConfig{
			TopK:     5,
			MinScore: 0,
		},
		Dispatcher: DispatcherConfig{
			RequestTimeout:    300 * time.Second,
			RequestsPerMinute: 0,
			ContextCharBudget: 22400,
		},
		ModelName:   "gpt-4o-mini",
		Temperature: 0.7,
		MaxTokens:   2000,
	}
}
