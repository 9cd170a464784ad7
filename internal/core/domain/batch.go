package domain

import "time"

// JobState is the lifecycle state of a BatchJob.
type JobState string

// Job states. Transitions are monotonic except running <-> paused; the
// terminal states accept no further transitions.
const (
	JobPending   JobState = "pending"
	JobRunning   JobState = "running"
	JobPaused    JobState = "paused"
	JobCancelled JobState = "cancelled"
	JobCompleted JobState = "completed"
	JobFailed    JobState = "failed"
)

// Terminal reports whether the state accepts no further transitions.
func (s JobState) Terminal() bool {
	switch s {
	case JobCancelled, JobCompleted, JobFailed:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether a transition from s to next is legal.
func (s JobState) CanTransitionTo(next JobState) bool {
	switch s {
	case JobPending:
		return next == JobRunning || next == JobCancelled
	case JobRunning:
		return next == JobPaused || next == JobCancelled ||
			next == JobCompleted || next == JobFailed
	case JobPaused:
		return next == JobRunning || next == JobCancelled
	default:
		return false
	}
}

// String returns the wire representation of the state.
func (s JobState) String() string {
	return string(s)
}

// TaskStatus is the lifecycle state of a SectionTask.
type TaskStatus string

// Task statuses. A task moves queued to running to succeeded or failed
// exactly once, or straight from queued to skipped; it never regresses.
const (
	TaskQueued    TaskStatus = "queued"
	TaskRunning   TaskStatus = "running"
	TaskSucceeded TaskStatus = "succeeded"
	TaskFailed    TaskStatus = "failed"
	TaskSkipped   TaskStatus = "skipped"
)

// Terminal reports whether the status accepts no further transitions.
func (s TaskStatus) Terminal() bool {
	switch s {
	case TaskSucceeded, TaskFailed, TaskSkipped:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether a transition from s to next is legal.
func (s TaskStatus) CanTransitionTo(next TaskStatus) bool {
	switch s {
	case TaskQueued:
		return next == TaskRunning || next == TaskSkipped
	case TaskRunning:
		return next == TaskSucceeded || next == TaskFailed
	default:
		return false
	}
}

// String returns the wire representation of the status.
func (s TaskStatus) String() string {
	return string(s)
}

// SectionTask is one section's unit of work inside a BatchJob. The job
// exclusively owns its tasks; they share the job's lifetime.
type SectionTask struct {
	// SectionID identifies the section being generated.
	SectionID string

	// SectionPath is the hierarchical title of the section.
	SectionPath string

	// Status is the task's current lifecycle state.
	Status TaskStatus

	// Strategy is the processing strategy the task ran with. Zero until
	// the task starts.
	Strategy Strategy

	// GeneratedText holds the completion output on success.
	GeneratedText string

	// TokensUsed is the completion service's token accounting.
	TokensUsed int

	// Cause classifies the failure when Status is failed.
	Cause FailureCause

	// Error is the failure message when Status is failed.
	Error string

	// StartedAt is when the task entered running.
	StartedAt *time.Time

	// FinishedAt is when the task reached a terminal status.
	FinishedAt *time.Time
}

// BatchJob is the scheduler's unit of work: one multi-section generation
// request and its lifecycle.
type BatchJob struct {
	// JobID is the unique identifier for the job.
	JobID string

	// DocumentID is the document the sections belong to.
	DocumentID string

	// Mode is the operation applied to every section in the job.
	Mode OperationMode

	// Params carries the completion model parameters.
	Params ModelParams

	// StopOnError aborts the job on the first failed section, marking
	// remaining queued tasks skipped.
	StopOnError bool

	// Tasks is the ordered list of section tasks.
	Tasks []SectionTask

	// State is the job's current lifecycle state.
	State JobState

	// CreatedAt is when the job was created.
	CreatedAt time.Time

	// CompletedAt is when the job reached a terminal state.
	CompletedAt *time.Time
}

// JobCounts summarises task outcomes for progress reporting.
type JobCounts struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
	Remaining int `json:"remaining"`
}

// Counts tallies task outcomes. Remaining covers queued and running
// tasks. Once the job is terminal, Succeeded+Failed+Skipped equals the
// total task count.
func (j *BatchJob) Counts() JobCounts {
	var c JobCounts
	for i := range j.Tasks {
		switch j.Tasks[i].Status {
		case TaskSucceeded:
			c.Succeeded++
		case TaskFailed:
			c.Failed++
		case TaskSkipped:
			c.Skipped++
		case TaskQueued, TaskRunning:
			c.Remaining++
		}
	}
	return c
}

// Results collects the generated text of every succeeded task, in task
// order, for the caller to commit back into the document.
func (j *BatchJob) Results() []SectionResult {
	var out []SectionResult
	for i := range j.Tasks {
		if j.Tasks[i].Status == TaskSucceeded {
			out = append(out, SectionResult{
				SectionID:     j.Tasks[i].SectionID,
				GeneratedText: j.Tasks[i].GeneratedText,
			})
		}
	}
	return out
}

// ProgressEvent is emitted after every task transition. The JSON shape
// is the engine's push-channel wire format.
type ProgressEvent struct {
	JobID     string     `json:"jobId"`
	TaskID    string     `json:"taskId"`
	Status    TaskStatus `json:"status"`
	Succeeded int        `json:"succeeded"`
	Failed    int        `json:"failed"`
	Skipped   int        `json:"skipped"`
	Remaining int        `json:"remaining"`
}
