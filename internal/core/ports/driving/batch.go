package driving

import (
	"context"

	"github.com/inkwell-labs/docfill-engine/internal/core/domain"
)

// BatchController is the batch control surface consumed by the thin API
// layer. Pause, Resume and Cancel are idempotent: repeating a command
// the job has already satisfied is a no-op, not an error.
type BatchController interface {
	// Create registers a new pending job and returns its ID.
	Create(ctx context.Context, req CreateJobRequest) (string, error)

	// Start transitions a pending job to running and begins processing
	// its tasks in queue order.
	Start(ctx context.Context, jobID string) error

	// Pause stops a running job from dequeuing further tasks. The task
	// currently in flight is allowed to finish.
	Pause(ctx context.Context, jobID string) error

	// Resume returns a paused job to running, continuing from where it
	// left off.
	Resume(ctx context.Context, jobID string) error

	// Cancel marks remaining queued tasks skipped and terminates the
	// job once any in-flight task finishes.
	Cancel(ctx context.Context, jobID string) error

	// Status returns the job with its full task list.
	Status(ctx context.Context, jobID string) (*domain.BatchJob, error)

	// Subscribe attaches a progress observer to a job. The returned
	// cancel function detaches the observer and closes the channel.
	// Observers may attach and detach at any time.
	Subscribe(jobID string) (<-chan domain.ProgressEvent, func(), error)
}

// CreateJobRequest describes one "generate N sections" request.
type CreateJobRequest struct {
	// DocumentID is the document the sections belong to.
	DocumentID string

	// Sections is the ordered list of sections to generate.
	Sections []domain.SectionRecord

	// Mode is the operation applied to every section.
	Mode domain.OperationMode

	// Params carries the completion model parameters.
	Params domain.ModelParams

	// StopOnError aborts the job on the first failed section.
	StopOnError bool

	// EmptyOnly skips sections that already have content.
	EmptyOnly bool
}
