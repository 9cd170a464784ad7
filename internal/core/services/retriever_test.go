package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-labs/docfill-engine/internal/core/domain"
)

// stubChunkStore is a minimal in-memory chunk store for retriever tests.
type stubChunkStore struct {
	mu     sync.Mutex
	chunks map[string][]domain.DocumentChunk

	replaceErr error
}

func newStubChunkStore() *stubChunkStore {
	return &stubChunkStore{chunks: make(map[string][]domain.DocumentChunk)}
}

func (s *stubChunkStore) ReplaceChunks(_ context.Context, documentID string, chunks []domain.DocumentChunk) error {
	if s.replaceErr != nil {
		return s.replaceErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks[documentID] = append([]domain.DocumentChunk(nil), chunks...)
	return nil
}

func (s *stubChunkStore) GetChunks(_ context.Context, documentID string) ([]domain.DocumentChunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.DocumentChunk(nil), s.chunks[documentID]...), nil
}

func (s *stubChunkStore) DeleteDocument(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.chunks, documentID)
	return nil
}

func (s *stubChunkStore) DeleteOlderThan(context.Context, time.Time) (int, error) {
	return 0, nil
}

func (s *stubChunkStore) Stats(_ context.Context) (domain.StoreStats, error) {
	return domain.StoreStats{}, nil
}

func testSections(n int) []domain.SectionRecord {
	topics := []string{
		"databases store relational rows and tables",
		"networking handles packets sockets and routing",
		"compilers parse tokens and emit assembly",
		"graphics render triangles shaders and pixels",
		"security covers encryption keys and hashing",
		"storage engines flush pages to disk",
		"caching keeps hot entries in memory",
		"queues deliver messages between services",
		"schedulers assign tasks to workers",
		"parsers read grammars and build trees",
	}
	sections := make([]domain.SectionRecord, n)
	for i := 0; i < n; i++ {
		sections[i] = domain.SectionRecord{
			SectionID:   fmt.Sprintf("sec-%d", i),
			SectionPath: fmt.Sprintf("Section %d", i),
			Text:        topics[i%len(topics)],
		}
	}
	return sections
}

func TestRetriever_IndexAndRetrieve(t *testing.T) {
	store := newStubChunkStore()
	r := NewRetriever(store, nil, domain.RetrieverConfig{TopK: 5})
	ctx := context.Background()

	count, err := r.Index(ctx, "doc-1", testSections(10))
	require.NoError(t, err)
	assert.Equal(t, 10, count)

	chunks, err := r.Retrieve(ctx, "doc-1", "encryption keys hashing", 3)
	require.NoError(t, err)
	// Exactly min(k, chunkCount) chunks come back; unrelated sections
	// score zero but are kept to fill k.
	require.Len(t, chunks, 3)

	// The security section scores highest for its own vocabulary.
	assert.Contains(t, chunks[0].Text, "encryption")
}

func TestRetriever_EmptyQueryReturnsFirstKInOrder(t *testing.T) {
	store := newStubChunkStore()
	r := NewRetriever(store, nil, domain.RetrieverConfig{})
	ctx := context.Background()

	_, err := r.Index(ctx, "doc-1", testSections(10))
	require.NoError(t, err)

	chunks, err := r.Retrieve(ctx, "doc-1", "   ", 4)
	require.NoError(t, err)
	require.Len(t, chunks, 4)
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Ordinal)
	}
}

func TestRetriever_FewerChunksThanK(t *testing.T) {
	store := newStubChunkStore()
	r := NewRetriever(store, nil, domain.RetrieverConfig{})
	ctx := context.Background()

	_, err := r.Index(ctx, "doc-1", testSections(3))
	require.NoError(t, err)

	chunks, err := r.Retrieve(ctx, "doc-1", "packets", 10)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(chunks), 3)
}

func TestRetriever_InvalidK(t *testing.T) {
	r := NewRetriever(newStubChunkStore(), nil, domain.RetrieverConfig{})

	_, err := r.Retrieve(context.Background(), "doc-1", "query", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRetriever_DocumentNotIndexed(t *testing.T) {
	r := NewRetriever(newStubChunkStore(), nil, domain.RetrieverConfig{})

	_, err := r.Retrieve(context.Background(), "missing", "query", 3)
	assert.ErrorIs(t, err, domain.ErrDocumentNotIndexed)
}

func TestRetriever_ReindexReplacesChunks(t *testing.T) {
	store := newStubChunkStore()
	r := NewRetriever(store, nil, domain.RetrieverConfig{})
	ctx := context.Background()

	_, err := r.Index(ctx, "doc-1", []domain.SectionRecord{
		{SectionID: "a", SectionPath: "Old", Text: "original content about databases"},
	})
	require.NoError(t, err)

	_, err = r.Index(ctx, "doc-1", []domain.SectionRecord{
		{SectionID: "b", SectionPath: "New", Text: "replacement content about compilers"},
	})
	require.NoError(t, err)

	chunks, err := r.Retrieve(ctx, "doc-1", "compilers", 5)
	require.NoError(t, err)
	for _, chunk := range chunks {
		assert.NotContains(t, chunk.Text, "original")
	}

	stored, err := store.GetChunks(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "New", stored[0].SectionPath)
}

func TestRetriever_RebuildsIndexFromStore(t *testing.T) {
	store := newStubChunkStore()
	ctx := context.Background()

	// First retriever indexes and persists.
	first := NewRetriever(store, nil, domain.RetrieverConfig{})
	_, err := first.Index(ctx, "doc-1", testSections(5))
	require.NoError(t, err)

	// A fresh retriever sharing the store serves queries without a new
	// Index call.
	second := NewRetriever(store, nil, domain.RetrieverConfig{})
	chunks, err := second.Retrieve(ctx, "doc-1", "packets sockets routing", 2)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	assert.Contains(t, chunks[0].Text, "packets")
}

func TestRetriever_EmptyDocumentID(t *testing.T) {
	r := NewRetriever(newStubChunkStore(), nil, domain.RetrieverConfig{})

	_, err := r.Index(context.Background(), "", testSections(1))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRetriever_StoreErrorPropagates(t *testing.T) {
	store := newStubChunkStore()
	store.replaceErr = errors.New("disk full")
	r := NewRetriever(store, nil, domain.RetrieverConfig{})

	_, err := r.Index(context.Background(), "doc-1", testSections(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestRetriever_ConcurrentRetrieveAndReindex(t *testing.T) {
	store := newStubChunkStore()
	r := NewRetriever(store, nil, domain.RetrieverConfig{})
	ctx := context.Background()

	_, err := r.Index(ctx, "doc-1", testSections(10))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_, err := r.Index(ctx, "doc-1", testSections(10))
				assert.NoError(t, err)
				return
			}
			chunks, err := r.Retrieve(ctx, "doc-1", "databases tables", 3)
			assert.NoError(t, err)
			assert.NotEmpty(t, chunks)
		}(i)
	}
	wg.Wait()
}
