// Package chunker splits document sections into overlapping,
// retrieval-sized chunks that preserve section provenance.
package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/inkwell-labs/docfill-engine/internal/core/domain"
)

// Default chunk sizing, expressed in estimated tokens.
const (
	// DefaultTargetTokens is the soft chunk size target.
	DefaultTargetTokens = 800

	// DefaultOverlapFraction is the share of the target re-included
	// from the previous chunk's trailing sentences.
	DefaultOverlapFraction = 0.15

	// DefaultHardMaxTokens is the absolute chunk size ceiling.
	DefaultHardMaxTokens = 1600
)

// charsPerToken converts token targets to character budgets, matching
// the engine-wide token estimator.
const charsPerToken = 4

// Processor splits sections into chunks. Chunk boundaries never cross a
// section boundary; within a section, sentences accumulate up to the
// target size and each new chunk re-includes the trailing overlap
// window of the previous one, so no content is lost at a boundary.
type Processor struct {
	targetChars  int
	overlapChars int
	hardMaxChars int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithTargetTokens sets the soft chunk size target in tokens.
func WithTargetTokens(tokens int) Option {
	return func(p *Processor) {
		if tokens > 0 {
			p.targetChars = tokens * charsPerToken
		}
	}
}

// WithOverlapFraction sets the overlap window as a fraction of the
// target chunk size.
func WithOverlapFraction(f float64) Option {
	return func(p *Processor) {
		if f >= 0 {
			p.overlapChars = int(f * float64(p.targetChars))
		}
	}
}

// WithHardMaxTokens sets the absolute chunk size ceiling in tokens.
func WithHardMaxTokens(tokens int) Option {
	return func(p *Processor) {
		if tokens > 0 {
			p.hardMaxChars = tokens * charsPerToken
		}
	}
}

// New creates a chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		targetChars:  DefaultTargetTokens * charsPerToken,
		overlapChars: int(DefaultOverlapFraction * DefaultTargetTokens * charsPerToken),
		hardMaxChars: DefaultHardMaxTokens * charsPerToken,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Overlap must leave room for new content in every chunk.
	if p.overlapChars >= p.targetChars {
		p.overlapChars = p.targetChars / 4
	}
	// The ceiling must admit a full target chunk plus its overlap.
	if p.hardMaxChars < p.targetChars+p.overlapChars+1 {
		p.hardMaxChars = 2 * p.targetChars
	}

	return p
}

// NewFromConfig creates a chunker from the engine configuration.
func NewFromConfig(cfg domain.ChunkerConfig) *Processor {
	return New(
		WithTargetTokens(cfg.TargetTokens),
		WithOverlapFraction(cfg.OverlapFraction),
		WithHardMaxTokens(cfg.HardMaxTokens),
	)
}

// Process splits a document's sections into chunks. Chunk IDs derive
// from document, section path and ordinal, so processing the same input
// twice yields identical chunks. Ordinals are monotonic in document
// order across the whole document.
func (p *Processor) Process(documentID string, sections []domain.SectionRecord) []domain.DocumentChunk {
	var chunks []domain.DocumentChunk
	ordinal := 0

	for _, section := range sections {
		text := strings.TrimSpace(section.Text)
		if text == "" {
			continue
		}

		if len(text) <= p.targetChars {
			chunks = append(chunks, p.newChunk(documentID, section, text, ordinal, false))
			ordinal++
			continue
		}

		sentences := p.splitOversize(splitSentences(text))

		var cur []string
		curLen := 0
		for _, sent := range sentences {
			if curLen > 0 && curLen+1+len(sent) > p.targetChars {
				chunks = append(chunks, p.newChunk(documentID, section, strings.Join(cur, " "), ordinal, true))
				ordinal++

				cur = overlapTail(cur, p.overlapChars)
				curLen = joinedLen(cur)
			}
			cur = append(cur, sent)
			if curLen > 0 {
				curLen++
			}
			curLen += len(sent)
		}
		if curLen > 0 {
			chunks = append(chunks, p.newChunk(documentID, section, strings.Join(cur, " "), ordinal, true))
			ordinal++
		}
	}

	return chunks
}

// newChunk builds one chunk with a deterministic ID.
func (p *Processor) newChunk(documentID string, section domain.SectionRecord, text string, ordinal int, split bool) domain.DocumentChunk {
	return domain.DocumentChunk{
		ID:          chunkID(documentID, section.SectionPath, ordinal),
		DocumentID:  documentID,
		SectionPath: section.SectionPath,
		Text:        text,
		CharCount:   len(text),
		TokenCount:  domain.EstimateTokens(text),
		Ordinal:     ordinal,
		Metadata: map[string]any{
			"sectionId": section.SectionID,
			"split":     split,
		},
	}
}

// chunkID derives a stable chunk identifier from document, section path
// and ordinal.
func chunkID(documentID, sectionPath string, ordinal int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s::%s::%d", documentID, sectionPath, ordinal)))
	return hex.EncodeToString(sum[:])[:32]
}

// splitOversize re-splits sentences exceeding the target size at rune
// boundaries so that no single unit can push a chunk past the ceiling.
func (p *Processor) splitOversize(sentences []string) []string {
	out := make([]string, 0, len(sentences))
	for _, s := range sentences {
		if len(s) <= p.targetChars {
			out = append(out, s)
			continue
		}
		runes := []rune(s)
		var piece []rune
		size := 0
		for _, r := range runes {
			piece = append(piece, r)
			size += len(string(r))
			if size >= p.targetChars {
				out = append(out, string(piece))
				piece = piece[:0]
				size = 0
			}
		}
		if len(piece) > 0 {
			out = append(out, string(piece))
		}
	}
	return out
}

// overlapTail returns the trailing sentences of a chunk fitting within
// the overlap window, preserving order.
func overlapTail(sentences []string, overlapChars int) []string {
	if overlapChars <= 0 {
		return nil
	}
	total := 0
	start := len(sentences)
	for i := len(sentences) - 1; i >= 0; i-- {
		add := len(sentences[i])
		if total > 0 {
			add++
		}
		if total+add > overlapChars {
			break
		}
		total += add
		start = i
	}
	if start == len(sentences) {
		return nil
	}
	tail := make([]string, len(sentences)-start)
	copy(tail, sentences[start:])
	return tail
}

// joinedLen is the length of sentences joined with single spaces.
func joinedLen(sentences []string) int {
	if len(sentences) == 0 {
		return 0
	}
	n := len(sentences) - 1
	for _, s := range sentences {
		n += len(s)
	}
	return n
}

// splitSentences splits text into trimmed, non-empty sentences using
// common terminators.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for _, r := range text {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' || r == '\n' {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}

	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}
