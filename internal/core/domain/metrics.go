package domain

// ContentMetrics holds size and complexity signals for a block of text,
// derived on demand and never persisted.
type ContentMetrics struct {
	// CharCount is the text length in bytes.
	CharCount int

	// TokenCount is the estimated token count (roughly chars/4).
	TokenCount int

	// ComplexityScore is a 0-1 score combining sentence length,
	// technical-term density and code/markup density.
	ComplexityScore float64

	// TechnicalDensity is the ratio of technical indicator terms to
	// total words.
	TechnicalDensity float64

	// SectionCount is the number of sections in the enclosing document.
	SectionCount int

	// AvgSectionLength is CharCount divided by SectionCount.
	AvgSectionLength int
}

// IsZero reports whether the metrics describe empty content.
func (m ContentMetrics) IsZero() bool {
	return m.CharCount == 0 && m.TokenCount == 0
}
