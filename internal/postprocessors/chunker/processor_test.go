package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-labs/docfill-engine/internal/core/domain"
)

func smallSection(id, path, text string) domain.SectionRecord {
	return domain.SectionRecord{SectionID: id, SectionPath: path, Text: text}
}

func TestProcessor_SmallSectionSingleChunk(t *testing.T) {
	p := New()

	chunks := p.Process("doc-1", []domain.SectionRecord{
		smallSection("s1", "1. Intro", "A short section. Nothing to split."),
	})

	require.Len(t, chunks, 1)
	assert.Equal(t, "A short section. Nothing to split.", chunks[0].Text)
	assert.Equal(t, "1. Intro", chunks[0].SectionPath)
	assert.Equal(t, 0, chunks[0].Ordinal)
	assert.Equal(t, false, chunks[0].Metadata["split"])
}

func TestProcessor_SkipsEmptySections(t *testing.T) {
	p := New()

	chunks := p.Process("doc-1", []domain.SectionRecord{
		smallSection("s1", "1. Intro", "Content here."),
		smallSection("s2", "2. Empty", "   \n  "),
		smallSection("s3", "3. More", "More content."),
	})

	require.Len(t, chunks, 2)
	assert.Equal(t, "1. Intro", chunks[0].SectionPath)
	assert.Equal(t, "3. More", chunks[1].SectionPath)
}

func TestProcessor_OrdinalsMonotonicAcrossSections(t *testing.T) {
	p := New(WithTargetTokens(10))

	long := strings.Repeat("This sentence fills the chunk nicely. ", 20)
	chunks := p.Process("doc-1", []domain.SectionRecord{
		smallSection("s1", "1. First", long),
		smallSection("s2", "2. Second", long),
	})

	require.Greater(t, len(chunks), 2)
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Ordinal)
	}
}

func TestProcessor_ChunkBoundariesRespectSections(t *testing.T) {
	p := New(WithTargetTokens(10))

	chunks := p.Process("doc-1", []domain.SectionRecord{
		smallSection("s1", "1. First", strings.Repeat("Alpha sentence one. ", 15)),
		smallSection("s2", "2. Second", strings.Repeat("Beta sentence two. ", 15)),
	})

	for _, chunk := range chunks {
		mixed := strings.Contains(chunk.Text, "Alpha") && strings.Contains(chunk.Text, "Beta")
		assert.False(t, mixed, "chunk crosses a section boundary: %q", chunk.Text)
	}
}

func TestProcessor_OversizeSectionSplitWithOverlap(t *testing.T) {
	p := New(WithTargetTokens(20), WithOverlapFraction(0.5))

	var sb strings.Builder
	for i := 0; i < 30; i++ {
		fmt.Fprintf(&sb, "Sentence number %d carries some words. ", i)
	}
	chunks := p.Process("doc-1", []domain.SectionRecord{
		smallSection("s1", "1. Long", sb.String()),
	})

	require.Greater(t, len(chunks), 1)

	// Adjacent chunks share trailing sentences.
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1].Text
		lastSentenceStart := strings.LastIndex(strings.TrimSpace(prev[:len(prev)-1]), ". ")
		if lastSentenceStart < 0 {
			continue
		}
		tail := strings.TrimSpace(prev[lastSentenceStart+2:])
		assert.True(t, strings.HasPrefix(chunks[i].Text, tail),
			"chunk %d does not start with the previous chunk's tail", i)
	}
}

func TestProcessor_ChunkSizeCeiling(t *testing.T) {
	p := New(WithTargetTokens(50), WithHardMaxTokens(100))

	// A single enormous unbroken "sentence" must still be split.
	text := strings.Repeat("x", 50_000)
	chunks := p.Process("doc-1", []domain.SectionRecord{
		smallSection("s1", "1. Blob", text),
	})

	require.NotEmpty(t, chunks)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, chunk.CharCount, 100*charsPerToken)
	}
}

func TestProcessor_DeterministicIDs(t *testing.T) {
	p := New(WithTargetTokens(15))

	sections := []domain.SectionRecord{
		smallSection("s1", "1. Intro", strings.Repeat("Stable sentence text. ", 20)),
	}

	first := p.Process("doc-1", sections)
	second := p.Process("doc-1", sections)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
		assert.Equal(t, first[i].Text, second[i].Text)
	}
}

func TestProcessor_IDsDifferPerDocument(t *testing.T) {
	p := New()

	sections := []domain.SectionRecord{smallSection("s1", "1. Intro", "Same text.")}
	a := p.Process("doc-a", sections)
	b := p.Process("doc-b", sections)

	require.Len(t, a, 1)
	require.Len(t, b, 1)
	assert.NotEqual(t, a[0].ID, b[0].ID)
}

func TestProcessor_TokenAndCharCounts(t *testing.T) {
	p := New()

	chunks := p.Process("doc-1", []domain.SectionRecord{
		smallSection("s1", "1. Intro", "Twelve chars"),
	})

	require.Len(t, chunks, 1)
	assert.Equal(t, 12, chunks[0].CharCount)
	assert.Equal(t, 3, chunks[0].TokenCount)
}

func TestProcessor_MetadataCarriesSectionID(t *testing.T) {
	p := New()

	chunks := p.Process("doc-1", []domain.SectionRecord{
		smallSection("sec-42", "7. Details", "Some content."),
	})

	require.Len(t, chunks, 1)
	assert.Equal(t, "sec-42", chunks[0].Metadata["sectionId"])
}

func TestNewFromConfig_ClampsDegenerateValues(t *testing.T) {
	p := NewFromConfig(domain.ChunkerConfig{
		TargetTokens:    100,
		OverlapFraction: 2.0, // overlap larger than target
		HardMaxTokens:   10,  // ceiling below target
	})

	assert.Less(t, p.overlapChars, p.targetChars)
	assert.GreaterOrEqual(t, p.hardMaxChars, p.targetChars+p.overlapChars+1)
}

func TestSplitSentences(t *testing.T) {
	sentences := splitSentences("One. Two! Three?\nFour")
	assert.Equal(t, []string{"One.", "Two!", "Three?", "Four"}, sentences)
}
