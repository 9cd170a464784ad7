package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/time/rate"

	"github.com/inkwell-labs/docfill-engine/internal/core/domain"
	"github.com/inkwell-labs/docfill-engine/internal/core/ports/driven"
	"github.com/inkwell-labs/docfill-engine/internal/logger"
)

// promptHeader is the fixed instruction template shared by every
// generation call.
const promptHeader = `You are a technical writer filling in a structured document.
Write clear, well-organised prose for the section described below.
Return only the section content, without headings or commentary.`

// truncationMarker flags inline content that was cut to fit the budget.
const truncationMarker = "\n\n[Content truncated for length]"

// DispatchRequest describes one section generation call.
type DispatchRequest struct {
	// Section is the section to generate content for.
	Section domain.SectionRecord

	// Mode selects the operation-specific instruction.
	Mode domain.OperationMode

	// Strategy is the processing strategy the prompt is assembled for.
	Strategy domain.Strategy

	// Chunks are the retrieved passages, present for
	// retrieval-augmented and hybrid strategies.
	Chunks []domain.DocumentChunk

	// Params carries the completion model parameters.
	Params domain.ModelParams
}

// DispatchResult is the outcome of one successful generation call.
type DispatchResult struct {
	// Text is the completion output, verbatim.
	Text string

	// TokensUsed is the completion service's token accounting.
	TokensUsed int
}

// Dispatcher assembles the final prompt for one section and issues a
// single synchronous call to the completion service. It does not mutate
// the document; the outbound call is its only side effect.
type Dispatcher struct {
	completion driven.CompletionService
	cfg        domain.DispatcherConfig
	limiter    *rate.Limiter
}

// NewDispatcher creates a dispatcher. Zero-valued config fields fall
// back to the engine defaults; a zero RequestsPerMinute disables
// client-side rate limiting.
func NewDispatcher(completion driven.CompletionService, cfg domain.DispatcherConfig) *Dispatcher {
	def := domain.DefaultEngineConfig().Dispatcher
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = def.RequestTimeout
	}
	if cfg.ContextCharBudget <= 0 {
		cfg.ContextCharBudget = def.ContextCharBudget
	}

	d := &Dispatcher{
		completion: completion,
		cfg:        cfg,
	}
	if cfg.RequestsPerMinute > 0 {
		d.limiter = rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), 1)
	}
	return d
}

// Dispatch runs one generation call. Failures come back as
// *domain.GenerationError classified for retry policy: a deadline as
// CauseTimeout, a non-2xx response as CauseUpstream with its status,
// and a 2xx response with empty text as CauseEmptyResponse.
func (d *Dispatcher) Dispatch(ctx context.Context, req DispatchRequest) (DispatchResult, error) {
	if d.completion == nil {
		return DispatchResult{}, domain.ErrCompletionUnavailable
	}

	prompt := d.assemblePrompt(req)
	logger.Debug("Dispatching section %s: mode=%s method=%s prompt=%d chars",
		req.Section.SectionID, req.Mode, req.Strategy.Method, len(prompt))

	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			return DispatchResult{}, classifyDispatchError(err)
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, d.cfg.RequestTimeout)
	defer cancel()

	result, err := d.completion.Complete(callCtx, driven.CompletionRequest{
		Model:       req.Params.Model,
		Prompt:      prompt,
		Temperature: req.Params.Temperature,
		MaxTokens:   req.Params.MaxTokens,
	})
	if err != nil {
		return DispatchResult{}, classifyDispatchError(err)
	}

	if strings.TrimSpace(result.Text) == "" {
		return DispatchResult{}, &domain.GenerationError{Cause: domain.CauseEmptyResponse}
	}

	return DispatchResult{Text: result.Text, TokensUsed: result.TokensUsed}, nil
}

// Ping validates the completion service is reachable.
func (d *Dispatcher) Ping(ctx context.Context) error {
	if d.completion == nil {
		return domain.ErrCompletionUnavailable
	}
	return d.completion.Ping(ctx)
}

// assemblePrompt combines the fixed header, the mode instruction, any
// existing content and the strategy-dependent context into one prompt.
func (d *Dispatcher) assemblePrompt(req DispatchRequest) string {
	var sb strings.Builder

	sb.WriteString(promptHeader)
	sb.WriteString("\n\nSection: ")
	sb.WriteString(req.Section.SectionPath)
	sb.WriteString("\n")
	sb.WriteString(modeInstruction(req.Mode))

	if req.Mode == domain.ModeRework || req.Mode == domain.ModeAppend {
		sb.WriteString("\n\nExisting content:\n")
		sb.WriteString(req.Section.Text)
	}

	switch req.Strategy.Method {
	case domain.MethodInline:
		if req.Mode == domain.ModeReplace && req.Section.Text != "" {
			sb.WriteString("\n\nCurrent section text for reference:\n")
			sb.WriteString(d.inlineText(req.Section.Text, req.Strategy.Truncate))
		}

	case domain.MethodRetrievalAugmented:
		sb.WriteString("\n\nRelevant document passages:\n")
		sb.WriteString(d.contextBlock(req.Chunks))

	case domain.MethodHybrid:
		if req.Section.Text != "" {
			sb.WriteString("\n\nSection text:\n")
			sb.WriteString(d.inlineText(req.Section.Text, req.Strategy.Truncate))
		}
		sb.WriteString("\n\nSupporting passages:\n")
		sb.WriteString(d.contextBlock(req.Chunks))
	}

	return sb.String()
}

// modeInstruction returns the operation-specific instruction line.
func modeInstruction(mode domain.OperationMode) string {
	switch mode {
	case domain.ModeRework:
		return "Rework the existing content, preserving its intent while improving structure and clarity."
	case domain.ModeAppend:
		return "Continue the existing content with additional material. Do not repeat what is already written."
	case domain.ModeReplace:
		return "Write new content for this section, replacing anything that currently exists."
	default:
		return "Write new content for this section."
	}
}

// inlineText bounds inline content to the context budget when the
// strategy requires truncation.
func (d *Dispatcher) inlineText(text string, truncate bool) string {
	if !truncate || len(text) <= d.cfg.ContextCharBudget {
		return text
	}
	return text[:d.cfg.ContextCharBudget] + truncationMarker
}

// contextBlock formats retrieved chunks under the bounded total size.
func (d *Dispatcher) contextBlock(chunks []domain.DocumentChunk) string {
	if len(chunks) == 0 {
		return "No relevant content found."
	}

	var parts []string
	total := 0
	for _, chunk := range chunks {
		entry := fmt.Sprintf("Section: %s\nContent: %s", chunk.SectionPath, chunk.Text)
		if total+len(entry) > d.cfg.ContextCharBudget {
			break
		}
		parts = append(parts, entry)
		total += len(entry)
	}

	if len(parts) == 0 {
		return "Content available but too large for the context window."
	}
	return strings.Join(parts, "\n---\n")
}

// classifyDispatchError maps transport failures onto the generation
// failure taxonomy.
func classifyDispatchError(err error) *domain.GenerationError {
	var genErr *domain.GenerationError
	if errors.As(err, &genErr) {
		return genErr
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &domain.GenerationError{Cause: domain.CauseTimeout, Err: err}
	}

	var statusErr *domain.UpstreamStatusError
	if errors.As(err, &statusErr) {
		return &domain.GenerationError{
			Cause:      domain.CauseUpstream,
			StatusCode: statusErr.StatusCode,
			Err:        err,
		}
	}

	return &domain.GenerationError{Cause: domain.CauseUpstream, Err: err}
}
