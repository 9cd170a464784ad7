package domain

// EstimateTokens approximates the token count of text.
// Uses the rough 4-characters-per-token heuristic for English prose,
// which keeps the estimate deterministic and tokenizer-free.
func EstimateTokens(text string) int {
	return len(text) / 4
}
