package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/inkwell-labs/docfill-engine/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/inkwell-labs/docfill-engine/internal/core/domain"
	"github.com/inkwell-labs/docfill-engine/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to
// all metadata store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.docfill/data/engine.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".docfill", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "engine.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// ChunkStore returns a ChunkStore interface backed by this store.
func (s *Store) ChunkStore() driven.ChunkStore {
	return &chunkStore{store: s}
}

// JobStore returns a JobStore interface backed by this store.
func (s *Store) JobStore() driven.JobStore {
	return &jobStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(
			"INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Chunk Store ====================

// chunkStore implements driven.ChunkStore.
type chunkStore struct {
	store *Store
}

var _ driven.ChunkStore = (*chunkStore)(nil)

// ReplaceChunks atomically swaps the chunk set for a document.
func (s *chunkStore) ReplaceChunks(ctx context.Context, documentID string, chunks []domain.DocumentChunk) error {
	if documentID == "" {
		return domain.ErrInvalidInput
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM document_chunks WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("clearing chunks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO document_chunks
			(id, document_id, section_path, content, char_count, token_count, ordinal, embedding, metadata, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	indexedAt := time.Now().UTC()
	for _, chunk := range chunks {
		metadataJSON, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling chunk metadata: %w", err)
		}

		embeddingBlob := float32SliceToBytes(chunk.Embedding)

		if _, err := stmt.ExecContext(ctx, chunk.ID, chunk.DocumentID, chunk.SectionPath,
			chunk.Text, chunk.CharCount, chunk.TokenCount, chunk.Ordinal,
			embeddingBlob, string(metadataJSON), indexedAt); err != nil {
			return fmt.Errorf("saving chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetChunks retrieves all chunks for a document in ordinal order.
func (s *chunkStore) GetChunks(ctx context.Context, documentID string) ([]domain.DocumentChunk, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, document_id, section_path, content, char_count, token_count, ordinal, embedding, metadata
		FROM document_chunks WHERE document_id = ?
		ORDER BY ordinal
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.DocumentChunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, *chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return chunks, nil
}

// DeleteDocument removes all chunks for a document.
func (s *chunkStore) DeleteDocument(ctx context.Context, documentID string) error {
	_, err := s.store.db.ExecContext(ctx,
		"DELETE FROM document_chunks WHERE document_id = ?", documentID)
	if err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	return nil
}

// DeleteOlderThan removes chunks indexed before the cutoff.
func (s *chunkStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.store.db.ExecContext(ctx,
		"DELETE FROM document_chunks WHERE indexed_at < ?", cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("purging chunks: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting purged chunks: %w", err)
	}
	return int(n), nil
}

// Stats summarises the store contents.
func (s *chunkStore) Stats(ctx context.Context) (domain.StoreStats, error) {
	var stats domain.StoreStats
	err := s.store.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT document_id), COUNT(*), COALESCE(SUM(char_count), 0)
		FROM document_chunks
	`).Scan(&stats.Documents, &stats.Chunks, &stats.TotalChars)
	if err != nil {
		return domain.StoreStats{}, fmt.Errorf("querying stats: %w", err)
	}

	if stats.Chunks > 0 {
		stats.AvgChunkChars = stats.TotalChars / stats.Chunks
	}
	return stats, nil
}

// ==================== Job Store ====================

// jobStore implements driven.JobStore.
type jobStore struct {
	store *Store
}

var _ driven.JobStore = (*jobStore)(nil)

// SaveJob stores or updates a job snapshot, including its tasks.
func (s *jobStore) SaveJob(ctx context.Context, job *domain.BatchJob) error {
	if job == nil || job.JobID == "" {
		return domain.ErrInvalidInput
	}

	tasksJSON, err := json.Marshal(job.Tasks)
	if err != nil {
		return fmt.Errorf("marshalling tasks: %w", err)
	}

	paramsJSON, err := json.Marshal(job.Params)
	if err != nil {
		return fmt.Errorf("marshalling params: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO batch_jobs (id, document_id, mode, params, stop_on_error, state, tasks, created_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document_id = excluded.document_id,
			mode = excluded.mode,
			params = excluded.params,
			stop_on_error = excluded.stop_on_error,
			state = excluded.state,
			tasks = excluded.tasks,
			completed_at = excluded.completed_at
	`, job.JobID, job.DocumentID, string(job.Mode), string(paramsJSON),
		boolToInt(job.StopOnError), string(job.State), string(tasksJSON),
		job.CreatedAt, job.CompletedAt)

	if err != nil {
		return fmt.Errorf("saving job: %w", err)
	}
	return nil
}

// GetJob retrieves a job by ID.
func (s *jobStore) GetJob(ctx context.Context, jobID string) (*domain.BatchJob, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, document_id, mode, params, stop_on_error, state, tasks, created_at, completed_at
		FROM batch_jobs WHERE id = ?
	`, jobID)

	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, domain.ErrJobNotFound
	}
	return job, err
}

// ListJobs returns all stored jobs, newest first.
func (s *jobStore) ListJobs(ctx context.Context) ([]domain.BatchJob, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, document_id, mode, params, stop_on_error, state, tasks, created_at, completed_at
		FROM batch_jobs ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying jobs: %w", err)
	}
	defer rows.Close()

	var jobs []domain.BatchJob //nolint:prealloc // size unknown from query
	for rows.Next() {
		job, err := scanJobRows(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating jobs: %w", err)
	}

	return jobs, nil
}

// DeleteJob removes a job and its tasks.
func (s *jobStore) DeleteJob(ctx context.Context, jobID string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM batch_jobs WHERE id = ?", jobID)
	if err != nil {
		return fmt.Errorf("deleting job: %w", err)
	}
	return nil
}

// ==================== Helper Functions ====================

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

// boolToInt converts a bool to its SQLite integer representation.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// scanChunk scans a chunk from *sql.Rows.
func scanChunk(rows *sql.Rows) (*domain.DocumentChunk, error) {
	var chunk domain.DocumentChunk
	var embeddingBlob []byte
	var metadataJSON string

	if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.SectionPath, &chunk.Text,
		&chunk.CharCount, &chunk.TokenCount, &chunk.Ordinal, &embeddingBlob, &metadataJSON); err != nil {
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}

	chunk.Embedding = bytesToFloat32Slice(embeddingBlob)

	if metadataJSON != "" {
		if err := json.Unmarshal([]byte(metadataJSON), &chunk.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshaling chunk metadata: %w", err)
		}
	}

	return &chunk, nil
}

// scanJob scans a single job row.
func scanJob(row *sql.Row) (*domain.BatchJob, error) {
	var job domain.BatchJob
	var mode, state, paramsJSON, tasksJSON string
	var stopOnError int
	var completedAt sql.NullTime

	if err := row.Scan(&job.JobID, &job.DocumentID, &mode, &paramsJSON,
		&stopOnError, &state, &tasksJSON, &job.CreatedAt, &completedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scanning job: %w", err)
	}

	return assembleJob(&job, mode, state, paramsJSON, tasksJSON, stopOnError, completedAt)
}

// scanJobRows scans a job from *sql.Rows.
func scanJobRows(rows *sql.Rows) (*domain.BatchJob, error) {
	var job domain.BatchJob
	var mode, state, paramsJSON, tasksJSON string
	var stopOnError int
	var completedAt sql.NullTime

	if err := rows.Scan(&job.JobID, &job.DocumentID, &mode, &paramsJSON,
		&stopOnError, &state, &tasksJSON, &job.CreatedAt, &completedAt); err != nil {
		return nil, fmt.Errorf("scanning job: %w", err)
	}

	return assembleJob(&job, mode, state, paramsJSON, tasksJSON, stopOnError, completedAt)
}

// assembleJob finishes decoding the JSON and enum columns of a job row.
func assembleJob(
	job *domain.BatchJob,
	mode, state, paramsJSON, tasksJSON string,
	stopOnError int,
	completedAt sql.NullTime,
) (*domain.BatchJob, error) {
	job.Mode = domain.OperationMode(mode)
	job.State = domain.JobState(state)
	job.StopOnError = stopOnError != 0

	if err := json.Unmarshal([]byte(paramsJSON), &job.Params); err != nil {
		return nil, fmt.Errorf("unmarshaling params: %w", err)
	}
	if err := json.Unmarshal([]byte(tasksJSON), &job.Tasks); err != nil {
		return nil, fmt.Errorf("unmarshaling tasks: %w", err)
	}
	if completedAt.Valid {
		t := completedAt.Time
		job.CompletedAt = &t
	}

	return job, nil
}
