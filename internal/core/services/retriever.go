package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/inkwell-labs/docfill-engine/internal/core/domain"
	"github.com/inkwell-labs/docfill-engine/internal/core/ports/driven"
	"github.com/inkwell-labs/docfill-engine/internal/core/ports/driving"
	"github.com/inkwell-labs/docfill-engine/internal/logger"
	"github.com/inkwell-labs/docfill-engine/internal/postprocessors/chunker"
)

// Ensure Retriever implements the interface.
var _ driving.DocumentIndexer = (*Retriever)(nil)

// Retriever chunks documents, persists their chunk sets and answers
// top-k similarity queries using per-chunk TF-IDF vectors and cosine
// similarity.
//
// The index for a document is rebuilt in full whenever its chunk set
// changes. Rebuild is O(chunks) and happens only on (re)processing,
// never per query. Rebuilds are mutually exclusive per document so
// concurrent re-indexing and retrieval never observe a half-built index.
type Retriever struct {
	store   driven.ChunkStore
	chunker *chunker.Processor
	cfg     domain.RetrieverConfig

	mu      sync.RWMutex
	indexes map[string]*docIndex

	lockMu   sync.Mutex
	docLocks map[string]*sync.Mutex
}

// docIndex is the in-memory similarity index for one document.
type docIndex struct {
	chunks  []domain.DocumentChunk
	vectors []map[string]float64
	idf     map[string]float64
}

// NewRetriever creates a retriever backed by the given chunk store.
func NewRetriever(store driven.ChunkStore, proc *chunker.Processor, cfg domain.RetrieverConfig) *Retriever {
	if proc == nil {
		proc = chunker.New()
	}
	if cfg.TopK <= 0 {
		cfg.TopK = domain.DefaultEngineConfig().Retriever.TopK
	}
	return &Retriever{
		store:    store,
		chunker:  proc,
		cfg:      cfg,
		indexes:  make(map[string]*docIndex),
		docLocks: make(map[string]*sync.Mutex),
	}
}

// TopK returns the configured default retrieval depth.
func (r *Retriever) TopK() int {
	return r.cfg.TopK
}

// Index chunks a document's sections, replaces its persisted chunk set
// and rebuilds the similarity index. Returns the number of chunks.
func (r *Retriever) Index(ctx context.Context, documentID string, sections []domain.SectionRecord) (int, error) {
	if documentID == "" {
		return 0, fmt.Errorf("index: %w: empty document id", domain.ErrInvalidInput)
	}

	lock := r.docLock(documentID)
	lock.Lock()
	defer lock.Unlock()

	chunks := r.chunker.Process(documentID, sections)

	if err := r.store.ReplaceChunks(ctx, documentID, chunks); err != nil {
		return 0, fmt.Errorf("replace chunks: %w", err)
	}

	idx := buildIndex(chunks)
	r.mu.Lock()
	r.indexes[documentID] = idx
	r.mu.Unlock()

	logger.Info("Indexed document %s: %d chunks", documentID, len(chunks))
	return len(chunks), nil
}

// Retrieve returns the k chunks most similar to the query, ties broken
// by lower ordinal. An empty query returns the first k chunks in
// document order so the caller always has context. Fewer than k stored
// chunks returns all of them.
func (r *Retriever) Retrieve(ctx context.Context, documentID, query string, k int) ([]domain.DocumentChunk, error) {
	if k < 1 {
		return nil, fmt.Errorf("retrieve: %w: k must be >= 1", domain.ErrInvalidInput)
	}

	idx, err := r.indexFor(ctx, documentID)
	if err != nil {
		return nil, err
	}

	query = strings.TrimSpace(query)
	if query == "" {
		logger.Debug("Empty query for %s: returning first %d chunks in order", documentID, k)
		return copyChunks(idx.chunks[:minInt(k, len(idx.chunks))]), nil
	}

	queryVec := vectorize(tokenize(query), idx.idf)

	type scored struct {
		ordinal int
		score   float64
	}
	scoredChunks := make([]scored, 0, len(idx.chunks))
	for i := range idx.chunks {
		score := cosine(queryVec, idx.vectors[i])
		if r.cfg.MinScore > 0 && score < r.cfg.MinScore {
			continue
		}
		scoredChunks = append(scoredChunks, scored{ordinal: i, score: score})
	}

	sort.SliceStable(scoredChunks, func(a, b int) bool {
		if scoredChunks[a].score != scoredChunks[b].score {
			return scoredChunks[a].score > scoredChunks[b].score
		}
		return scoredChunks[a].ordinal < scoredChunks[b].ordinal
	})

	n := minInt(k, len(scoredChunks))
	out := make([]domain.DocumentChunk, 0, n)
	for _, sc := range scoredChunks[:n] {
		out = append(out, idx.chunks[sc.ordinal])
	}

	logger.Debug("Retrieved %d/%d chunks for %q in %s", len(out), len(idx.chunks), query, documentID)
	return out, nil
}

// indexFor returns the document's index, lazily rebuilding it from the
// store when the process has restarted since indexing. A document with
// no stored chunks yields ErrDocumentNotIndexed.
func (r *Retriever) indexFor(ctx context.Context, documentID string) (*docIndex, error) {
	r.mu.RLock()
	idx, ok := r.indexes[documentID]
	r.mu.RUnlock()
	if ok {
		return idx, nil
	}

	lock := r.docLock(documentID)
	lock.Lock()
	defer lock.Unlock()

	// Another caller may have rebuilt while we waited.
	r.mu.RLock()
	idx, ok = r.indexes[documentID]
	r.mu.RUnlock()
	if ok {
		return idx, nil
	}

	chunks, err := r.store.GetChunks(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("get chunks: %w", err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("document %s: %w", documentID, domain.ErrDocumentNotIndexed)
	}

	idx = buildIndex(chunks)
	r.mu.Lock()
	r.indexes[documentID] = idx
	r.mu.Unlock()

	logger.Debug("Rebuilt index for %s from store: %d chunks", documentID, len(chunks))
	return idx, nil
}

// docLock returns the per-document mutex, creating it on first use.
func (r *Retriever) docLock(documentID string) *sync.Mutex {
	r.lockMu.Lock()
	defer r.lockMu.Unlock()
	lock, ok := r.docLocks[documentID]
	if !ok {
		lock = &sync.Mutex{}
		r.docLocks[documentID] = lock
	}
	return lock
}

// buildIndex computes TF-IDF vectors for a chunk set. Chunks must be in
// ordinal order.
func buildIndex(chunks []domain.DocumentChunk) *docIndex {
	n := len(chunks)
	terms := make([][]string, n)
	df := make(map[string]int)

	for i := range chunks {
		terms[i] = tokenize(chunks[i].Text)
		seen := make(map[string]bool, len(terms[i]))
		for _, t := range terms[i] {
			if !seen[t] {
				seen[t] = true
				df[t]++
			}
		}
	}

	idf := make(map[string]float64, len(df))
	for t, d := range df {
		idf[t] = math.Log(float64(n+1)/float64(d+1)) + 1
	}

	vectors := make([]map[string]float64, n)
	for i := range chunks {
		vectors[i] = vectorize(terms[i], idf)
	}

	return &docIndex{
		chunks:  append([]domain.DocumentChunk(nil), chunks...),
		vectors: vectors,
		idf:     idf,
	}
}

// vectorize builds a TF-IDF vector for a token sequence. Tokens absent
// from the idf table get the maximum-rarity weight.
func vectorize(tokens []string, idf map[string]float64) map[string]float64 {
	if len(tokens) == 0 {
		return map[string]float64{}
	}

	tf := make(map[string]float64, len(tokens))
	for _, t := range tokens {
		tf[t]++
	}

	vec := make(map[string]float64, len(tf))
	for t, count := range tf {
		w, ok := idf[t]
		if !ok {
			w = 1
		}
		vec[t] = (count / float64(len(tokens))) * w
	}
	return vec
}

// cosine computes cosine similarity between two sparse vectors.
func cosine(a, b map[string]float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for t, wa := range a {
		normA += wa * wa
		if wb, ok := b[t]; ok {
			dot += wa * wb
		}
	}
	for _, wb := range b {
		normB += wb * wb
	}

	if dot == 0 || normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// tokenize lowercases text and splits it into letter/digit runs.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// copyChunks returns a defensive copy of a chunk slice.
func copyChunks(chunks []domain.DocumentChunk) []domain.DocumentChunk {
	out := make([]domain.DocumentChunk, len(chunks))
	copy(out, chunks)
	return out
}
