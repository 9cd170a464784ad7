package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-labs/docfill-engine/internal/core/domain"
)

func testJob(id string, createdAt time.Time) *domain.BatchJob {
	return &domain.BatchJob{
		JobID:      id,
		DocumentID: "doc-1",
		Mode:       domain.ModeReplace,
		State:      domain.JobPending,
		CreatedAt:  createdAt,
		Tasks: []domain.SectionTask{
			{SectionID: "sec-1", SectionPath: "1. Intro", Status: domain.TaskQueued},
		},
	}
}

func TestJobStore_SaveAndGet(t *testing.T) {
	store := NewJobStore()
	ctx := context.Background()

	job := testJob("job-1", time.Now())
	require.NoError(t, store.SaveJob(ctx, job))

	saved, err := store.GetJob(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, "job-1", saved.JobID)
	assert.Equal(t, domain.JobPending, saved.State)
	require.Len(t, saved.Tasks, 1)
	assert.Equal(t, "sec-1", saved.Tasks[0].SectionID)
}

func TestJobStore_SaveOverwrites(t *testing.T) {
	store := NewJobStore()
	ctx := context.Background()

	job := testJob("job-1", time.Now())
	require.NoError(t, store.SaveJob(ctx, job))

	job.State = domain.JobCompleted
	job.Tasks[0].Status = domain.TaskSucceeded
	require.NoError(t, store.SaveJob(ctx, job))

	saved, err := store.GetJob(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, domain.JobCompleted, saved.State)
	assert.Equal(t, domain.TaskSucceeded, saved.Tasks[0].Status)
}

func TestJobStore_GetUnknown(t *testing.T) {
	store := NewJobStore()

	_, err := store.GetJob(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
}

func TestJobStore_SaveNilOrEmptyID(t *testing.T) {
	store := NewJobStore()
	ctx := context.Background()

	assert.ErrorIs(t, store.SaveJob(ctx, nil), domain.ErrInvalidInput)
	assert.ErrorIs(t, store.SaveJob(ctx, &domain.BatchJob{}), domain.ErrInvalidInput)
}

func TestJobStore_ListNewestFirst(t *testing.T) {
	store := NewJobStore()
	ctx := context.Background()

	base := time.Now()
	require.NoError(t, store.SaveJob(ctx, testJob("job-old", base.Add(-time.Hour))))
	require.NoError(t, store.SaveJob(ctx, testJob("job-new", base)))
	require.NoError(t, store.SaveJob(ctx, testJob("job-mid", base.Add(-time.Minute))))

	jobs, err := store.ListJobs(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 3)
	assert.Equal(t, "job-new", jobs[0].JobID)
	assert.Equal(t, "job-mid", jobs[1].JobID)
	assert.Equal(t, "job-old", jobs[2].JobID)
}

func TestJobStore_Delete(t *testing.T) {
	store := NewJobStore()
	ctx := context.Background()

	require.NoError(t, store.SaveJob(ctx, testJob("job-1", time.Now())))
	require.NoError(t, store.DeleteJob(ctx, "job-1"))

	_, err := store.GetJob(ctx, "job-1")
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
}

func TestJobStore_CallerCannotMutateStored(t *testing.T) {
	store := NewJobStore()
	ctx := context.Background()

	job := testJob("job-1", time.Now())
	require.NoError(t, store.SaveJob(ctx, job))

	// Mutating the saved job afterwards must not leak into the store.
	job.Tasks[0].Status = domain.TaskFailed

	saved, err := store.GetJob(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, domain.TaskQueued, saved.Tasks[0].Status)
}
