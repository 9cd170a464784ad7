package services

import (
	"strings"

	"github.com/inkwell-labs/docfill-engine/internal/core/domain"
)

// technicalTerms are indicator words used to score technical density.
var technicalTerms = []string{
	"system", "process", "function", "method", "algorithm", "protocol",
	"configuration", "implementation", "framework", "architecture",
	"interface", "specification", "parameter", "component", "module",
}

// codeIndicators are syntax fragments used to score code/markup density.
var codeIndicators = []string{"()", "{}", "[]", "=", ";", "->", "=>", "::"}

// AnalyzeContent computes size and complexity metrics for a block of
// text relative to its enclosing document. Pure function: no side
// effects, and empty input yields zero metrics rather than an error.
//
// sectionCount is the enclosing document's section count. When it is
// not positive, paragraph breaks in the text are used as a stand-in.
func AnalyzeContent(text string, sectionCount int) domain.ContentMetrics {
	if text == "" {
		return domain.ContentMetrics{}
	}

	charCount := len(text)
	tokenCount := domain.EstimateTokens(text)

	var factors []float64

	// Sentence length factor: long sentences read as denser content.
	sentences := strings.Split(text, ". ")
	if len(sentences) > 0 {
		totalWords := 0
		for _, s := range sentences {
			totalWords += len(strings.Fields(s))
		}
		avgSentenceWords := float64(totalWords) / float64(len(sentences))
		factors = append(factors, clamp01(avgSentenceWords/20))
	}

	// Technical term density.
	lower := strings.ToLower(text)
	wordCount := len(strings.Fields(text))
	technicalCount := 0
	for _, term := range technicalTerms {
		technicalCount += strings.Count(lower, term)
	}
	var technicalDensity float64
	if wordCount > 0 {
		technicalDensity = float64(technicalCount) / float64(wordCount)
	}
	factors = append(factors, clamp01(technicalDensity*10))

	// Code/markup density.
	codeCount := 0
	for _, ind := range codeIndicators {
		codeCount += strings.Count(text, ind)
	}
	codeDensity := float64(codeCount) / float64(charCount)
	factors = append(factors, clamp01(codeDensity*100))

	var complexity float64
	for _, f := range factors {
		complexity += f
	}
	complexity /= float64(len(factors))

	if sectionCount <= 0 {
		sectionCount = strings.Count(text, "\n\n") + 1
	}

	return domain.ContentMetrics{
		CharCount:        charCount,
		TokenCount:       tokenCount,
		ComplexityScore:  complexity,
		TechnicalDensity: technicalDensity,
		SectionCount:     sectionCount,
		AvgSectionLength: charCount / sectionCount,
	}
}

// clamp01 bounds v to the [0,1] range.
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
