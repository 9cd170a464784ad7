package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-labs/docfill-engine/internal/core/domain"
)

func TestNewStrategySelector_Defaults(t *testing.T) {
	s := NewStrategySelector(domain.SelectorConfig{})
	def := domain.DefaultEngineConfig().Selector

	assert.Equal(t, def.TokenBudget, s.cfg.TokenBudget)
	assert.Equal(t, def.RetrievalThresholdChars, s.cfg.RetrievalThresholdChars)
	assert.Equal(t, def.HybridComplexityMin, s.cfg.HybridComplexityMin)
}

func TestStrategySelector_SmallContentInline(t *testing.T) {
	s := NewStrategySelector(domain.SelectorConfig{})

	metrics := domain.ContentMetrics{
		CharCount:    2000,
		TokenCount:   500,
		SectionCount: 3,
	}
	strategy := s.Select(metrics, 2000)

	assert.Equal(t, domain.MethodInline, strategy.Method)
	assert.False(t, strategy.Truncate)
	assert.InDelta(t, 0.9, strategy.Confidence, 0.001)
	assert.Equal(t, 700, strategy.EstimatedTokens)
}

func TestStrategySelector_LargeDocumentRetrieval(t *testing.T) {
	// 12000-char document with 6 sections and a 4000-token budget: the
	// section is too large for inline and the document qualifies for
	// retrieval.
	s := NewStrategySelector(domain.SelectorConfig{TokenBudget: 4000})

	metrics := domain.ContentMetrics{
		CharCount:    11200,
		TokenCount:   2800,
		SectionCount: 6,
	}
	strategy := s.Select(metrics, 12000)

	assert.Equal(t, domain.MethodRetrievalAugmented, strategy.Method)
	assert.InDelta(t, 0.8, strategy.Confidence, 0.001)
	assert.Equal(t, 4000, strategy.EstimatedTokens)
	assert.Equal(t, 12000/3200+1, strategy.EstimatedChunks)
}

func TestStrategySelector_HighComplexityHybrid(t *testing.T) {
	s := NewStrategySelector(domain.SelectorConfig{})

	// Over the inline ceiling but the document is too small for the
	// retrieval rule; complexity pushes it to hybrid.
	metrics := domain.ContentMetrics{
		CharCount:       20000,
		TokenCount:      5000,
		ComplexityScore: 0.8,
		SectionCount:    4,
	}
	strategy := s.Select(metrics, 8000)

	assert.Equal(t, domain.MethodHybrid, strategy.Method)
	assert.InDelta(t, 0.7, strategy.Confidence, 0.001)
	assert.Equal(t, 4, strategy.EstimatedChunks)
}

func TestStrategySelector_FallbackTruncatedInline(t *testing.T) {
	s := NewStrategySelector(domain.SelectorConfig{})

	// Too large for inline, too few sections for retrieval or hybrid.
	metrics := domain.ContentMetrics{
		CharCount:       30000,
		TokenCount:      7500,
		ComplexityScore: 0.2,
		SectionCount:    2,
	}
	strategy := s.Select(metrics, 30000)

	assert.Equal(t, domain.MethodInline, strategy.Method)
	assert.True(t, strategy.Truncate)
	assert.InDelta(t, 0.6, strategy.Confidence, 0.001)
	assert.LessOrEqual(t, strategy.EstimatedTokens, 8000)
}

func TestStrategySelector_FirstMatchWins(t *testing.T) {
	s := NewStrategySelector(domain.SelectorConfig{})

	// Satisfies both the retrieval rule and the hybrid rule; rule order
	// gives retrieval.
	metrics := domain.ContentMetrics{
		CharCount:       40000,
		TokenCount:      10000,
		ComplexityScore: 0.9,
		SectionCount:    8,
	}
	strategy := s.Select(metrics, 40000)

	assert.Equal(t, domain.MethodRetrievalAugmented, strategy.Method)
}

func TestStrategySelector_Deterministic(t *testing.T) {
	s := NewStrategySelector(domain.SelectorConfig{})

	metrics := domain.ContentMetrics{
		CharCount:       15000,
		TokenCount:      3750,
		ComplexityScore: 0.75,
		SectionCount:    6,
	}

	first := s.Select(metrics, 15000)
	second := s.Select(metrics, 15000)

	assert.Equal(t, first, second)
}

func TestStrategySelector_DegenerateInputsClamped(t *testing.T) {
	s := NewStrategySelector(domain.SelectorConfig{})

	metrics := domain.ContentMetrics{
		CharCount:       -100,
		TokenCount:      -50,
		ComplexityScore: -1,
		SectionCount:    -3,
	}

	var strategy domain.Strategy
	require.NotPanics(t, func() {
		strategy = s.Select(metrics, -500)
	})

	// Clamped to zero everywhere, which reads as small content.
	assert.Equal(t, domain.MethodInline, strategy.Method)
	assert.True(t, strategy.Method.Valid())
}

func TestStrategySelector_ReasonPopulated(t *testing.T) {
	s := NewStrategySelector(domain.SelectorConfig{})

	strategy := s.Select(domain.ContentMetrics{TokenCount: 100, SectionCount: 1}, 400)
	assert.NotEmpty(t, strategy.Reason)
}
