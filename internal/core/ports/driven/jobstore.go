package driven

import (
	"context"

	"github.com/inkwell-labs/docfill-engine/internal/core/domain"
)

// JobStore persists batch jobs and their section tasks.
//
// The scheduler snapshots a job after every task transition so status
// queries survive a restart. Stores hold the full task list with each
// job; tasks are never stored independently.
type JobStore interface {
	// SaveJob stores or updates a job snapshot, including its tasks.
	SaveJob(ctx context.Context, job *domain.BatchJob) error

	// GetJob retrieves a job by ID. Returns domain.ErrJobNotFound if
	// the job does not exist.
	GetJob(ctx context.Context, jobID string) (*domain.BatchJob, error)

	// ListJobs returns all stored jobs, newest first.
	ListJobs(ctx context.Context) ([]domain.BatchJob, error)

	// DeleteJob removes a job and its tasks.
	DeleteJob(ctx context.Context, jobID string) error
}
