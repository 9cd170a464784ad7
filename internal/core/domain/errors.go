package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDocumentNotIndexed indicates retrieval was attempted before
	// the document was chunked. The caller must index first.
	ErrDocumentNotIndexed = errors.New("document not indexed")

	// ErrJobNotFound indicates the batch job does not exist.
	ErrJobNotFound = errors.New("job not found")

	// ErrInvalidTransition indicates a job-control command that is not
	// legal in the job's current state. The job state is unchanged.
	ErrInvalidTransition = errors.New("invalid job state transition")

	// ErrCompletionUnavailable indicates no completion service is
	// configured.
	ErrCompletionUnavailable = errors.New("completion service unavailable")
)

// FailureCause classifies a generation failure for retry policy.
type FailureCause string

// Generation failure causes.
const (
	// CauseTimeout indicates the outbound call exceeded its deadline.
	CauseTimeout FailureCause = "timeout"

	// CauseUpstream indicates the completion service returned a
	// non-2xx status.
	CauseUpstream FailureCause = "upstream_error"

	// CauseEmptyResponse indicates a 2xx response with no text.
	CauseEmptyResponse FailureCause = "response_empty"
)

// String returns the wire representation of the cause.
func (c FailureCause) String() string {
	return string(c)
}

// GenerationError is a classified failure of one generation call. It is
// recorded per section task; the batch continues unless the job was
// created with StopOnError.
type GenerationError struct {
	// Cause classifies the failure.
	Cause FailureCause

	// StatusCode is the upstream HTTP status when Cause is
	// CauseUpstream, zero otherwise.
	StatusCode int

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	switch e.Cause {
	case CauseUpstream:
		if e.Err != nil {
			return fmt.Sprintf("generation failed: upstream status %d: %v", e.StatusCode, e.Err)
		}
		return fmt.Sprintf("generation failed: upstream status %d", e.StatusCode)
	case CauseTimeout:
		return "generation failed: timeout"
	case CauseEmptyResponse:
		return "generation failed: empty response"
	default:
		if e.Err != nil {
			return fmt.Sprintf("generation failed: %v", e.Err)
		}
		return "generation failed"
	}
}

// Unwrap returns the underlying error.
func (e *GenerationError) Unwrap() error {
	return e.Err
}

// UpstreamStatusError reports a non-2xx response from the completion
// service, surfaced by transport adapters for the dispatcher to classify.
type UpstreamStatusError struct {
	// StatusCode is the HTTP status returned by the service.
	StatusCode int

	// Body is the response body, for diagnostics.
	Body string
}

// Error implements the error interface.
func (e *UpstreamStatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("completion service status %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("completion service status %d", e.StatusCode)
}
