package domain

// SectionRecord is the engine's view of one document section, as produced
// by the external parsing layer. Records arrive in document order.
type SectionRecord struct {
	// SectionID is the unique identifier for the section.
	SectionID string

	// SectionPath is the hierarchical title string, e.g.
	// "2. Architecture > 2.3 Data Flow".
	SectionPath string

	// Text is the section's current text content. May be empty for
	// sections that have not been filled yet.
	Text string

	// HasExistingContent indicates whether the section already holds
	// user-visible content. Used by rework/append modes and by jobs
	// configured to process empty sections only.
	HasExistingContent bool
}

// SectionResult pairs a section with its generated text, ready for the
// caller to commit back into the document store.
type SectionResult struct {
	// SectionID identifies the section the text belongs to.
	SectionID string

	// GeneratedText is the completion service output, verbatim.
	GeneratedText string
}

// DocumentChunk is the unit of retrievable text. Chunks belonging to the
// same section preserve original reading order via Ordinal, and adjacent
// chunks share an overlap window so no content is lost at a boundary.
type DocumentChunk struct {
	// ID is a stable hash of document, section path and ordinal.
	// Re-chunking unchanged input yields identical IDs.
	ID string

	// DocumentID links the chunk to the document it was derived from.
	DocumentID string

	// SectionPath is the hierarchical title of the originating section.
	SectionPath string

	// Text is the chunk content.
	Text string

	// CharCount is the length of Text in bytes.
	CharCount int

	// TokenCount is the estimated token count of Text.
	TokenCount int

	// Ordinal is the chunk's position in document order, monotonic
	// across the whole document.
	Ordinal int

	// Embedding is the vector representation. Reserved for semantic
	// retrieval; may be nil.
	Embedding []float32

	// Metadata contains chunk-specific key-value pairs.
	Metadata map[string]any
}

// StoreStats summarises the chunk store contents.
type StoreStats struct {
	// Documents is the number of distinct documents with chunks stored.
	Documents int

	// Chunks is the total number of chunks stored.
	Chunks int

	// AvgChunkChars is the mean chunk size in characters.
	AvgChunkChars int

	// TotalChars is the total stored content size in characters.
	TotalChars int
}
