package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/inkwell-labs/docfill-engine/internal/core/domain"
	"github.com/inkwell-labs/docfill-engine/internal/core/ports/driven"
	"github.com/inkwell-labs/docfill-engine/internal/core/ports/driving"
	"github.com/inkwell-labs/docfill-engine/internal/logger"
)

// Ensure BatchManager implements the interface.
var _ driving.BatchController = (*BatchManager)(nil)

// subscriberBuffer sizes each observer channel. A stalled observer
// misses intermediate events rather than blocking the worker.
const subscriberBuffer = 16

// BatchManager owns batch generation jobs. Each job processes its
// section tasks sequentially on a dedicated worker goroutine; distinct
// jobs run concurrently. Pause and cancel gate dequeuing only; a task
// already in flight always finishes and its result is recorded.
type BatchManager struct {
	selector   *StrategySelector
	indexer    driving.DocumentIndexer
	dispatcher *Dispatcher
	jobStore   driven.JobStore
	topK       int

	mu   sync.RWMutex
	jobs map[string]*jobHandle
}

// jobHandle is the in-memory state of one job: the job record, the
// source sections, the dequeue cursor and the observer registry.
type jobHandle struct {
	mu       sync.Mutex
	job      *domain.BatchJob
	sections []domain.SectionRecord
	docChars int
	cursor   int
	started  bool
	wake     chan struct{}

	// persistMu serializes snapshot-and-save pairs so store writes land
	// in snapshot order. Without it a control-side save racing the
	// worker's terminal save could leave the store one transition stale.
	persistMu sync.Mutex

	subsMu  sync.Mutex
	subs    map[int]chan domain.ProgressEvent
	nextSub int
	closed  bool
}

// NewBatchManager creates a batch manager. The indexer is optional:
// without it, retrieval-augmented strategies run with no retrieved
// context. topK bounds retrieval depth; non-positive falls back to the
// engine default.
func NewBatchManager(
	selector *StrategySelector,
	indexer driving.DocumentIndexer,
	dispatcher *Dispatcher,
	jobStore driven.JobStore,
	topK int,
) *BatchManager {
	if selector == nil {
		selector = NewStrategySelector(domain.SelectorConfig{})
	}
	if topK <= 0 {
		topK = domain.DefaultEngineConfig().Retriever.TopK
	}
	return &BatchManager{
		selector:   selector,
		indexer:    indexer,
		dispatcher: dispatcher,
		jobStore:   jobStore,
		topK:       topK,
		jobs:       make(map[string]*jobHandle),
	}
}

// Create registers a new pending job and returns its ID.
func (m *BatchManager) Create(ctx context.Context, req driving.CreateJobRequest) (string, error) {
	if req.DocumentID == "" {
		return "", fmt.Errorf("create job: %w: empty document id", domain.ErrInvalidInput)
	}
	if !req.Mode.Valid() {
		return "", fmt.Errorf("create job: %w: unknown mode %q", domain.ErrInvalidInput, req.Mode)
	}

	sections := req.Sections
	if req.EmptyOnly {
		var filtered []domain.SectionRecord
		for _, s := range sections {
			if !s.HasExistingContent {
				filtered = append(filtered, s)
			}
		}
		sections = filtered
	}
	if len(sections) == 0 {
		return "", fmt.Errorf("create job: %w: no sections to process", domain.ErrInvalidInput)
	}

	job := &domain.BatchJob{
		JobID:       uuid.New().String(),
		DocumentID:  req.DocumentID,
		Mode:        req.Mode,
		Params:      req.Params,
		StopOnError: req.StopOnError,
		State:       domain.JobPending,
		CreatedAt:   time.Now().UTC(),
		Tasks:       make([]domain.SectionTask, len(sections)),
	}
	docChars := 0
	for i, s := range sections {
		job.Tasks[i] = domain.SectionTask{
			SectionID:   s.SectionID,
			SectionPath: s.SectionPath,
			Status:      domain.TaskQueued,
		}
		docChars += len(s.Text)
	}

	h := &jobHandle{
		job:      job,
		sections: sections,
		docChars: docChars,
		wake:     make(chan struct{}, 1),
		subs:     make(map[int]chan domain.ProgressEvent),
	}

	m.mu.Lock()
	m.jobs[job.JobID] = h
	m.mu.Unlock()

	m.persist(ctx, h)
	logger.Info("Created job %s: %d sections, mode=%s", job.JobID, len(sections), req.Mode)
	return job.JobID, nil
}

// Start transitions a pending job to running and launches its worker.
// Starting an already-running job is a no-op.
func (m *BatchManager) Start(ctx context.Context, jobID string) error {
	h, err := m.handle(jobID)
	if err != nil {
		return err
	}

	h.mu.Lock()
	switch h.job.State {
	case domain.JobPending:
		h.job.State = domain.JobRunning
		h.started = true
		h.mu.Unlock()
		m.persist(ctx, h)
		go m.runJob(h)
		logger.Info("Started job %s", jobID)
		return nil
	case domain.JobRunning:
		h.mu.Unlock()
		return nil
	default:
		state := h.job.State
		h.mu.Unlock()
		return fmt.Errorf("start job in state %s: %w", state, domain.ErrInvalidTransition)
	}
}

// Pause stops a running job from dequeuing further tasks. The in-flight
// task finishes. Pausing an already-paused job is a no-op.
func (m *BatchManager) Pause(ctx context.Context, jobID string) error {
	h, err := m.handle(jobID)
	if err != nil {
		return err
	}

	h.mu.Lock()
	switch h.job.State {
	case domain.JobRunning:
		h.job.State = domain.JobPaused
		h.mu.Unlock()
		m.persist(ctx, h)
		logger.Info("Paused job %s", jobID)
		return nil
	case domain.JobPaused:
		h.mu.Unlock()
		return nil
	default:
		state := h.job.State
		h.mu.Unlock()
		return fmt.Errorf("pause job in state %s: %w", state, domain.ErrInvalidTransition)
	}
}

// Resume returns a paused job to running, continuing with the same
// remaining tasks. Resuming an already-running job is a no-op.
func (m *BatchManager) Resume(ctx context.Context, jobID string) error {
	h, err := m.handle(jobID)
	if err != nil {
		return err
	}

	h.mu.Lock()
	switch h.job.State {
	case domain.JobPaused:
		h.job.State = domain.JobRunning
		h.mu.Unlock()
		h.wakeWorker()
		m.persist(ctx, h)
		logger.Info("Resumed job %s", jobID)
		return nil
	case domain.JobRunning:
		h.mu.Unlock()
		return nil
	default:
		state := h.job.State
		h.mu.Unlock()
		return fmt.Errorf("resume job in state %s: %w", state, domain.ErrInvalidTransition)
	}
}

// Cancel marks all remaining queued tasks skipped and terminates the
// job. An in-flight task finishes first and its result is recorded.
// Cancelling a terminal job is a no-op.
func (m *BatchManager) Cancel(ctx context.Context, jobID string) error {
	h, err := m.handle(jobID)
	if err != nil {
		return err
	}

	h.mu.Lock()
	if h.job.State.Terminal() {
		h.mu.Unlock()
		return nil
	}

	h.job.State = domain.JobCancelled
	started := h.started
	var events []domain.ProgressEvent
	if !started {
		// No worker to observe the transition; finalise inline.
		events = h.skipQueuedLocked()
		h.finishLocked()
	}
	h.mu.Unlock()

	h.wakeWorker()
	m.persist(ctx, h)
	if !started {
		h.publishAll(events)
		h.closeSubs()
	}
	logger.Info("Cancelled job %s", jobID)
	return nil
}

// Status returns the job with its full task list. Jobs no longer in
// memory are served from the job store.
func (m *BatchManager) Status(ctx context.Context, jobID string) (*domain.BatchJob, error) {
	m.mu.RLock()
	h, ok := m.jobs[jobID]
	m.mu.RUnlock()
	if ok {
		h.mu.Lock()
		defer h.mu.Unlock()
		return copyJob(h.job), nil
	}

	if m.jobStore != nil {
		job, err := m.jobStore.GetJob(ctx, jobID)
		if err != nil {
			return nil, err
		}
		return job, nil
	}
	return nil, domain.ErrJobNotFound
}

// Subscribe attaches a progress observer. Events are delivered
// best-effort per observer; the returned cancel function detaches the
// observer. Subscribing to a finished job yields a closed channel.
func (m *BatchManager) Subscribe(jobID string) (<-chan domain.ProgressEvent, func(), error) {
	h, err := m.handle(jobID)
	if err != nil {
		return nil, nil, err
	}

	h.subsMu.Lock()
	defer h.subsMu.Unlock()

	ch := make(chan domain.ProgressEvent, subscriberBuffer)
	if h.closed {
		close(ch)
		return ch, func() {}, nil
	}

	id := h.nextSub
	h.nextSub++
	h.subs[id] = ch

	cancel := func() {
		h.subsMu.Lock()
		defer h.subsMu.Unlock()
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub)
		}
	}
	return ch, cancel, nil
}

// handle looks up the in-memory job handle.
func (m *BatchManager) handle(jobID string) (*jobHandle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.jobs[jobID]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	return h, nil
}

// runJob is the per-job worker loop. It processes tasks sequentially in
// queue order; pause parks it between tasks and cancel drains the queue.
func (m *BatchManager) runJob(h *jobHandle) {
	ctx := context.Background()

	for {
		h.mu.Lock()

		if h.job.State == domain.JobPaused {
			h.mu.Unlock()
			<-h.wake
			continue
		}

		if h.job.State == domain.JobCancelled {
			events := h.skipQueuedLocked()
			h.finishLocked()
			h.mu.Unlock()
			m.persist(ctx, h)
			h.publishAll(events)
			h.closeSubs()
			return
		}

		if h.cursor >= len(h.job.Tasks) {
			if h.job.Counts().Succeeded > 0 {
				h.job.State = domain.JobCompleted
			} else {
				h.job.State = domain.JobFailed
			}
			h.finishLocked()
			state := h.job.State
			h.mu.Unlock()
			m.persist(ctx, h)
			h.closeSubs()
			logger.Info("Job %s finished: %s", h.job.JobID, state)
			return
		}

		i := h.cursor
		h.cursor++
		task := &h.job.Tasks[i]
		task.Status = domain.TaskRunning
		now := time.Now().UTC()
		task.StartedAt = &now

		section := h.sections[i]
		sections := h.sections
		docChars := h.docChars
		docID := h.job.DocumentID
		mode := h.job.Mode
		params := h.job.Params
		ev := h.eventLocked(task)
		h.mu.Unlock()

		m.persist(ctx, h)
		h.publish(ev)

		result, strategy, genErr := m.processSection(ctx, docID, section, sections, docChars, mode, params)

		h.mu.Lock()
		fin := time.Now().UTC()
		task.FinishedAt = &fin
		task.Strategy = strategy
		if genErr != nil {
			task.Status = domain.TaskFailed
			task.Cause = genErr.Cause
			task.Error = genErr.Error()
		} else {
			task.Status = domain.TaskSucceeded
			task.GeneratedText = result.Text
			task.TokensUsed = result.TokensUsed
		}

		stop := genErr != nil && h.job.StopOnError && h.job.State == domain.JobRunning
		var stopEvents []domain.ProgressEvent
		if stop {
			stopEvents = h.skipQueuedLocked()
			h.job.State = domain.JobFailed
			h.finishLocked()
		}
		ev = h.eventLocked(task)
		h.mu.Unlock()

		m.persist(ctx, h)
		h.publish(ev)
		if stop {
			h.publishAll(stopEvents)
			h.closeSubs()
			logger.Info("Job %s stopped on first error", h.job.JobID)
			return
		}
	}
}

// processSection runs the strategy/retrieve/dispatch pipeline for one
// section. The chosen strategy is returned even when generation fails
// so the task records what was attempted.
func (m *BatchManager) processSection(
	ctx context.Context,
	documentID string,
	section domain.SectionRecord,
	sections []domain.SectionRecord,
	docChars int,
	mode domain.OperationMode,
	params domain.ModelParams,
) (DispatchResult, domain.Strategy, *domain.GenerationError) {
	metrics := AnalyzeContent(section.Text, len(sections))
	strategy := m.selector.Select(metrics, docChars)

	var chunks []domain.DocumentChunk
	if strategy.Method != domain.MethodInline && m.indexer != nil {
		var err error
		chunks, err = m.retrieveContext(ctx, documentID, section, sections)
		if err != nil {
			return DispatchResult{}, strategy, &domain.GenerationError{
				Cause: domain.CauseUpstream,
				Err:   fmt.Errorf("retrieve context: %w", err),
			}
		}
	}

	result, err := m.dispatcher.Dispatch(ctx, DispatchRequest{
		Section:  section,
		Mode:     mode,
		Strategy: strategy,
		Chunks:   chunks,
		Params:   params,
	})
	if err != nil {
		return DispatchResult{}, strategy, classifyDispatchError(err)
	}
	return result, strategy, nil
}

// retrieveContext fetches supporting chunks for a section, indexing the
// document on first use.
func (m *BatchManager) retrieveContext(
	ctx context.Context,
	documentID string,
	section domain.SectionRecord,
	sections []domain.SectionRecord,
) ([]domain.DocumentChunk, error) {
	query := section.SectionPath

	chunks, err := m.indexer.Retrieve(ctx, documentID, query, m.topK)
	if errors.Is(err, domain.ErrDocumentNotIndexed) {
		logger.Debug("Document %s not indexed, indexing %d sections", documentID, len(sections))
		if _, idxErr := m.indexer.Index(ctx, documentID, sections); idxErr != nil {
			return nil, idxErr
		}
		chunks, err = m.indexer.Retrieve(ctx, documentID, query, m.topK)
	}
	return chunks, err
}

// persist snapshots the job into the store, best-effort. Holding
// persistMu across the snapshot and the save keeps writes in snapshot
// order even when a control command races the worker.
func (m *BatchManager) persist(ctx context.Context, h *jobHandle) {
	if m.jobStore == nil {
		return
	}
	h.persistMu.Lock()
	defer h.persistMu.Unlock()
	h.mu.Lock()
	snapshot := copyJob(h.job)
	h.mu.Unlock()
	if err := m.jobStore.SaveJob(ctx, snapshot); err != nil {
		logger.Warn("Failed to persist job %s: %v", snapshot.JobID, err)
	}
}

// skipQueuedLocked marks every remaining queued task skipped and
// returns one progress event per transition. Caller holds h.mu.
func (h *jobHandle) skipQueuedLocked() []domain.ProgressEvent {
	var events []domain.ProgressEvent
	now := time.Now().UTC()
	for i := h.cursor; i < len(h.job.Tasks); i++ {
		task := &h.job.Tasks[i]
		if task.Status != domain.TaskQueued {
			continue
		}
		task.Status = domain.TaskSkipped
		task.FinishedAt = &now
		events = append(events, h.eventLocked(task))
	}
	h.cursor = len(h.job.Tasks)
	return events
}

// finishLocked stamps the job's completion time. Caller holds h.mu.
func (h *jobHandle) finishLocked() {
	now := time.Now().UTC()
	h.job.CompletedAt = &now
}

// eventLocked builds a progress event for a task transition. Caller
// holds h.mu.
func (h *jobHandle) eventLocked(task *domain.SectionTask) domain.ProgressEvent {
	counts := h.job.Counts()
	return domain.ProgressEvent{
		JobID:     h.job.JobID,
		TaskID:    task.SectionID,
		Status:    task.Status,
		Succeeded: counts.Succeeded,
		Failed:    counts.Failed,
		Skipped:   counts.Skipped,
		Remaining: counts.Remaining,
	}
}

// wakeWorker nudges a parked worker without blocking.
func (h *jobHandle) wakeWorker() {
	select {
	case h.wake <- struct{}{}:
	default:
	}
}

// publish delivers an event to every observer, never blocking on a
// stalled one.
func (h *jobHandle) publish(ev domain.ProgressEvent) {
	h.subsMu.Lock()
	defer h.subsMu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// publishAll delivers a series of events in order.
func (h *jobHandle) publishAll(events []domain.ProgressEvent) {
	for _, ev := range events {
		h.publish(ev)
	}
}

// closeSubs closes every observer channel once the job is terminal.
func (h *jobHandle) closeSubs() {
	h.subsMu.Lock()
	defer h.subsMu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}

// copyJob deep-copies a job so callers never share task slices with the
// worker.
func copyJob(job *domain.BatchJob) *domain.BatchJob {
	out := *job
	out.Tasks = make([]domain.SectionTask, len(job.Tasks))
	copy(out.Tasks, job.Tasks)
	return &out
}
