package driven

import "context"

// CompletionService is the external large-language-model backend,
// treated as a black-box synchronous RPC.
//
// Implementations may include:
//   - OpenAI-compatible HTTP APIs
//   - local inference servers (Ollama, LM Studio)
type CompletionService interface {
	// Complete issues one synchronous completion call and returns the
	// generated text verbatim plus token-usage accounting.
	//
	// Transport adapters surface non-2xx responses as
	// *domain.UpstreamStatusError so the dispatcher can classify them.
	Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error)

	// Ping validates the service is reachable without running inference.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// CompletionRequest is the single request shape of the completion
// service contract.
type CompletionRequest struct {
	// Model is the completion model name.
	Model string

	// Prompt is the fully assembled prompt text.
	Prompt string

	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64

	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int
}

// CompletionResult is the completion service's response.
type CompletionResult struct {
	// Text is the generated text, verbatim.
	Text string

	// TokensUsed is the total token count the service accounted for
	// the call.
	TokensUsed int
}
