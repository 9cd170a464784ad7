// Package memory provides in-memory storage adapters, used in tests and
// for ephemeral runs where persistence is not needed.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/inkwell-labs/docfill-engine/internal/core/domain"
	"github.com/inkwell-labs/docfill-engine/internal/core/ports/driven"
)

// Ensure ChunkStore implements the interface.
var _ driven.ChunkStore = (*ChunkStore)(nil)

// ChunkStore is an in-memory implementation of driven.ChunkStore.
type ChunkStore struct {
	mu        sync.RWMutex
	chunks    map[string][]domain.DocumentChunk
	indexedAt map[string]time.Time
}

// NewChunkStore creates a new in-memory chunk store.
func NewChunkStore() *ChunkStore {
	return &ChunkStore{
		chunks:    make(map[string][]domain.DocumentChunk),
		indexedAt: make(map[string]time.Time),
	}
}

// ReplaceChunks atomically swaps the chunk set for a document.
func (s *ChunkStore) ReplaceChunks(_ context.Context, documentID string, chunks []domain.DocumentChunk) error {
	if documentID == "" {
		return domain.ErrInvalidInput
	}
	stored := make([]domain.DocumentChunk, len(chunks))
	copy(stored, chunks)

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(stored) == 0 {
		delete(s.chunks, documentID)
		delete(s.indexedAt, documentID)
		return nil
	}
	s.chunks[documentID] = stored
	s.indexedAt[documentID] = time.Now().UTC()
	return nil
}

// GetChunks retrieves all chunks for a document in ordinal order.
func (s *ChunkStore) GetChunks(_ context.Context, documentID string) ([]domain.DocumentChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chunks, ok := s.chunks[documentID]
	if !ok {
		return nil, nil
	}
	out := make([]domain.DocumentChunk, len(chunks))
	copy(out, chunks)
	return out, nil
}

// DeleteDocument removes all chunks for a document.
func (s *ChunkStore) DeleteDocument(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.chunks, documentID)
	delete(s.indexedAt, documentID)
	return nil
}

// DeleteOlderThan removes chunks indexed before the cutoff.
func (s *ChunkStore) DeleteOlderThan(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for documentID, indexedAt := range s.indexedAt {
		if indexedAt.Before(cutoff) {
			removed += len(s.chunks[documentID])
			delete(s.chunks, documentID)
			delete(s.indexedAt, documentID)
		}
	}
	return removed, nil
}

// Stats summarises the store contents.
func (s *ChunkStore) Stats(_ context.Context) (domain.StoreStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats domain.StoreStats
	for _, chunks := range s.chunks {
		stats.Documents++
		stats.Chunks += len(chunks)
		for _, chunk := range chunks {
			stats.TotalChars += chunk.CharCount
		}
	}
	if stats.Chunks > 0 {
		stats.AvgChunkChars = stats.TotalChars / stats.Chunks
	}
	return stats, nil
}
