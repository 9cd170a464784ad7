package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/inkwell-labs/docfill-engine/internal/core/domain"
	"github.com/inkwell-labs/docfill-engine/internal/core/ports/driven"
)

// Ensure JobStore implements the interface.
var _ driven.JobStore = (*JobStore)(nil)

// JobStore is an in-memory implementation of driven.JobStore.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]domain.BatchJob
}

// NewJobStore creates a new in-memory job store.
func NewJobStore() *JobStore {
	return &JobStore{
		jobs: make(map[string]domain.BatchJob),
	}
}

// SaveJob stores or updates a job snapshot, including its tasks.
func (s *JobStore) SaveJob(_ context.Context, job *domain.BatchJob) error {
	if job == nil || job.JobID == "" {
		return domain.ErrInvalidInput
	}
	stored := *job
	stored.Tasks = make([]domain.SectionTask, len(job.Tasks))
	copy(stored.Tasks, job.Tasks)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.JobID] = stored
	return nil
}

// GetJob retrieves a job by ID.
func (s *JobStore) GetJob(_ context.Context, jobID string) (*domain.BatchJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	out := job
	out.Tasks = make([]domain.SectionTask, len(job.Tasks))
	copy(out.Tasks, job.Tasks)
	return &out, nil
}

// ListJobs returns all stored jobs, newest first.
func (s *JobStore) ListJobs(_ context.Context) ([]domain.BatchJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]domain.BatchJob, 0, len(s.jobs))
	for id := range s.jobs {
		job := s.jobs[id]
		job.Tasks = append([]domain.SectionTask(nil), job.Tasks...)
		jobs = append(jobs, job)
	}
	sort.Slice(jobs, func(a, b int) bool {
		return jobs[a].CreatedAt.After(jobs[b].CreatedAt)
	})
	return jobs, nil
}

// DeleteJob removes a job and its tasks.
func (s *JobStore) DeleteJob(_ context.Context, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, jobID)
	return nil
}
