package services

import (
	"fmt"

	"github.com/inkwell-labs/docfill-engine/internal/core/domain"
	"github.com/inkwell-labs/docfill-engine/internal/logger"
)

// StrategySelector picks the context assembly method for one generation
// request. The policy is deterministic: identical metrics always yield
// the identical strategy.
type StrategySelector struct {
	cfg domain.SelectorConfig
}

// NewStrategySelector creates a selector. Zero-valued config fields fall
// back to the engine defaults.
func NewStrategySelector(cfg domain.SelectorConfig) *StrategySelector {
	def := domain.DefaultEngineConfig().Selector
	if cfg.TokenBudget <= 0 {
		cfg.TokenBudget = def.TokenBudget
	}
	if cfg.PromptOverheadTokens <= 0 {
		cfg.PromptOverheadTokens = def.PromptOverheadTokens
	}
	if cfg.RetrievalThresholdChars <= 0 {
		cfg.RetrievalThresholdChars = def.RetrievalThresholdChars
	}
	if cfg.RetrievalSectionMin <= 0 {
		cfg.RetrievalSectionMin = def.RetrievalSectionMin
	}
	if cfg.HybridComplexityMin <= 0 {
		cfg.HybridComplexityMin = def.HybridComplexityMin
	}
	if cfg.HybridSectionMin <= 0 {
		cfg.HybridSectionMin = def.HybridSectionMin
	}
	if cfg.ChunkTargetChars <= 0 {
		cfg.ChunkTargetChars = def.ChunkTargetChars
	}
	return &StrategySelector{cfg: cfg}
}

// Select picks the processing strategy for a section given its metrics
// and the total character size of the enclosing document. Rules are
// evaluated in order; the first match wins. Degenerate inputs (negative
// counts) are clamped to zero before evaluation, never rejected.
func (s *StrategySelector) Select(m domain.ContentMetrics, docChars int) domain.Strategy {
	m = clampMetrics(m)
	if docChars < 0 {
		docChars = 0
	}

	promptTokens := m.TokenCount + s.cfg.PromptOverheadTokens
	inlineCeiling := s.cfg.TokenBudget * 6 / 10

	var strategy domain.Strategy
	switch {
	case promptTokens < inlineCeiling:
		strategy = domain.Strategy{
			Method:          domain.MethodInline,
			Reason:          fmt.Sprintf("content size (%d tokens) fits within prompt limits", m.TokenCount),
			EstimatedTokens: promptTokens,
			Confidence:      0.9,
		}

	case m.SectionCount > s.cfg.RetrievalSectionMin && docChars > s.cfg.RetrievalThresholdChars:
		strategy = domain.Strategy{
			Method:          domain.MethodRetrievalAugmented,
			Reason:          fmt.Sprintf("large document (%d chars, %d sections) benefits from retrieval", docChars, m.SectionCount),
			EstimatedTokens: s.cfg.TokenBudget,
			EstimatedChunks: docChars/s.cfg.ChunkTargetChars + 1,
			Confidence:      0.8,
		}

	case m.ComplexityScore > s.cfg.HybridComplexityMin && m.SectionCount > s.cfg.HybridSectionMin:
		strategy = domain.Strategy{
			Method:          domain.MethodHybrid,
			Reason:          fmt.Sprintf("high complexity (%.2f) suggests hybrid retrieval plus inline content", m.ComplexityScore),
			EstimatedTokens: s.cfg.TokenBudget,
			EstimatedChunks: minInt(5, m.SectionCount),
			Confidence:      0.7,
		}

	default:
		strategy = domain.Strategy{
			Method:          domain.MethodInline,
			Reason:          "standard content suitable for direct prompting with truncation",
			EstimatedTokens: minInt(promptTokens, s.cfg.TokenBudget),
			Confidence:      0.6,
			Truncate:        true,
		}
	}

	logger.Debug("Strategy: %s (confidence %.1f): %s", strategy.Method, strategy.Confidence, strategy.Reason)
	return strategy
}

// clampMetrics floors degenerate metric values at zero.
func clampMetrics(m domain.ContentMetrics) domain.ContentMetrics {
	if m.CharCount < 0 {
		m.CharCount = 0
	}
	if m.TokenCount < 0 {
		m.TokenCount = 0
	}
	if m.ComplexityScore < 0 {
		m.ComplexityScore = 0
	}
	if m.ComplexityScore > 1 {
		m.ComplexityScore = 1
	}
	if m.TechnicalDensity < 0 {
		m.TechnicalDensity = 0
	}
	if m.SectionCount < 0 {
		m.SectionCount = 0
	}
	if m.AvgSectionLength < 0 {
		m.AvgSectionLength = 0
	}
	return m
}

// minInt returns the smaller of a and b.
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
