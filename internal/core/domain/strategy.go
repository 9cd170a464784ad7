package domain

// Method is the chosen way of assembling generation context.
type Method string

// Context assembly methods.
const (
	// MethodInline places the section text directly in the prompt.
	MethodInline Method = "inline"

	// MethodRetrievalAugmented builds the prompt from retrieved chunks
	// instead of the full document.
	MethodRetrievalAugmented Method = "retrieval_augmented"

	// MethodHybrid combines inline section text with top-k retrieved
	// supporting chunks.
	MethodHybrid Method = "hybrid"
)

// Valid reports whether the method is one of the defined values.
func (m Method) Valid() bool {
	switch m {
	case MethodInline, MethodRetrievalAugmented, MethodHybrid:
		return true
	default:
		return false
	}
}

// String returns the wire representation of the method.
func (m Method) String() string {
	return string(m)
}

// Strategy is an immutable decision record produced once per generation
// request. It is never mutated after creation.
type Strategy struct {
	// Method is the chosen context assembly method.
	Method Method

	// Reason is a human-readable explanation of the decision.
	Reason string

	// EstimatedTokens is the expected prompt token cost.
	EstimatedTokens int

	// EstimatedChunks is the expected number of chunks involved
	// (zero for pure inline).
	EstimatedChunks int

	// Confidence is the selector's confidence in the decision, 0-1.
	Confidence float64

	// Truncate indicates the inline content must be truncated to fit
	// the token budget.
	Truncate bool
}

// OperationMode describes what to do with a section's existing content.
type OperationMode string

// Operation modes.
const (
	// ModeReplace discards existing content and writes fresh text.
	ModeReplace OperationMode = "replace"

	// ModeRework rewrites existing content, preserving its intent.
	ModeRework OperationMode = "rework"

	// ModeAppend extends existing content with new text.
	ModeAppend OperationMode = "append"
)

// Valid reports whether the mode is one of the defined values.
func (m OperationMode) Valid() bool {
	switch m {
	case ModeReplace, ModeRework, ModeAppend:
		return true
	default:
		return false
	}
}

// String returns the wire representation of the mode.
func (m OperationMode) String() string {
	return string(m)
}

// ModelParams carries the completion service parameters for a job.
type ModelParams struct {
	// Model is the completion model name.
	Model string

	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64

	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int
}
