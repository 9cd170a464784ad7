package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJobState_Terminal(t *testing.T) {
	assert.False(t, JobPending.Terminal())
	assert.False(t, JobRunning.Terminal())
	assert.False(t, JobPaused.Terminal())
	assert.True(t, JobCancelled.Terminal())
	assert.True(t, JobCompleted.Terminal())
	assert.True(t, JobFailed.Terminal())
}

func TestJobState_CanTransitionTo(t *testing.T) {
	cases := []struct {
		from, to JobState
		want     bool
	}{
		{JobPending, JobRunning, true},
		{JobPending, JobCancelled, true},
		{JobPending, JobPaused, false},
		{JobRunning, JobPaused, true},
		{JobRunning, JobCompleted, true},
		{JobRunning, JobFailed, true},
		{JobRunning, JobCancelled, true},
		{JobRunning, JobPending, false},
		{JobPaused, JobRunning, true},
		{JobPaused, JobCancelled, true},
		{JobPaused, JobCompleted, false},
		{JobCompleted, JobRunning, false},
		{JobCancelled, JobRunning, false},
		{JobFailed, JobPending, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.from.CanTransitionTo(tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestTaskStatus_CanTransitionTo(t *testing.T) {
	assert.True(t, TaskQueued.CanTransitionTo(TaskRunning))
	assert.True(t, TaskQueued.CanTransitionTo(TaskSkipped))
	assert.False(t, TaskQueued.CanTransitionTo(TaskSucceeded))
	assert.True(t, TaskRunning.CanTransitionTo(TaskSucceeded))
	assert.True(t, TaskRunning.CanTransitionTo(TaskFailed))
	assert.False(t, TaskRunning.CanTransitionTo(TaskSkipped))
	assert.False(t, TaskSucceeded.CanTransitionTo(TaskRunning))
	assert.False(t, TaskSkipped.CanTransitionTo(TaskRunning))
}

func TestBatchJob_Counts(t *testing.T) {
	job := &BatchJob{
		Tasks: []SectionTask{
			{Status: TaskSucceeded},
			{Status: TaskSucceeded},
			{Status: TaskFailed},
			{Status: TaskSkipped},
			{Status: TaskQueued},
			{Status: TaskRunning},
		},
	}

	counts := job.Counts()
	assert.Equal(t, 2, counts.Succeeded)
	assert.Equal(t, 1, counts.Failed)
	assert.Equal(t, 1, counts.Skipped)
	assert.Equal(t, 2, counts.Remaining)
}

func TestBatchJob_Results(t *testing.T) {
	job := &BatchJob{
		Tasks: []SectionTask{
			{SectionID: "sec-1", Status: TaskSucceeded, GeneratedText: "first"},
			{SectionID: "sec-2", Status: TaskFailed},
			{SectionID: "sec-3", Status: TaskSucceeded, GeneratedText: "third"},
		},
	}

	results := job.Results()
	assert.Len(t, results, 2)
	assert.Equal(t, "sec-1", results[0].SectionID)
	assert.Equal(t, "first", results[0].GeneratedText)
	assert.Equal(t, "sec-3", results[1].SectionID)
}

func TestOperationMode_Valid(t *testing.T) {
	assert.True(t, ModeReplace.Valid())
	assert.True(t, ModeRework.Valid())
	assert.True(t, ModeAppend.Valid())
	assert.False(t, OperationMode("overwrite").Valid())
	assert.False(t, OperationMode("").Valid())
}

func TestMethod_Valid(t *testing.T) {
	assert.True(t, MethodInline.Valid())
	assert.True(t, MethodRetrievalAugmented.Valid())
	assert.True(t, MethodHybrid.Valid())
	assert.False(t, Method("semantic").Valid())
}
