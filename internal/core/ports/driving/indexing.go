package driving

import (
	"context"

	"github.com/inkwell-labs/docfill-engine/internal/core/domain"
)

// DocumentIndexer prepares documents for retrieval and answers
// similarity queries against them.
type DocumentIndexer interface {
	// Index chunks a document's sections, persists the chunk set
	// (replacing any previous one) and rebuilds the document's
	// similarity index. Returns the number of chunks produced.
	Index(ctx context.Context, documentID string, sections []domain.SectionRecord) (int, error)

	// Retrieve returns the k chunks most similar to the query, ties
	// broken by original chunk order. An empty query returns the first
	// k chunks in document order. Returns domain.ErrDocumentNotIndexed
	// when the document has never been indexed.
	Retrieve(ctx context.Context, documentID, query string, k int) ([]domain.DocumentChunk, error)
}
