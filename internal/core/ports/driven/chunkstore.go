package driven

import (
	"context"
	"time"

	"github.com/inkwell-labs/docfill-engine/internal/core/domain"
)

// ChunkStore persists document chunks keyed by document ID.
//
// A document's chunk set is always replaced wholesale: old chunks are
// deleted and new ones inserted in one operation. Chunks are never
// partially updated in place.
type ChunkStore interface {
	// ReplaceChunks atomically swaps the chunk set for a document.
	// The chunks must already be in ordinal order.
	ReplaceChunks(ctx context.Context, documentID string, chunks []domain.DocumentChunk) error

	// GetChunks returns a document's chunks in ordinal order.
	// Returns nil with no error when the document has no chunks.
	GetChunks(ctx context.Context, documentID string) ([]domain.DocumentChunk, error)

	// DeleteDocument removes all chunks for a document.
	DeleteDocument(ctx context.Context, documentID string) error

	// DeleteOlderThan removes chunks indexed before the cutoff, a
	// maintenance operation for stale documents. Returns the number of
	// chunks removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)

	// Stats summarises the store contents.
	Stats(ctx context.Context) (domain.StoreStats, error)
}
