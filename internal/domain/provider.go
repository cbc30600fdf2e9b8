package domain

// EmbeddingResult is a vectorized text with provider token usage.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// GenerationResult is a synthesized answer with optional provider token usage.
// HasUsage is false when the provider returned no token accounting; token
// fields are then meaningless and must be omitted downstream, not zero-filled.
type GenerationResult struct {
	Answer           string
	PromptTokens     int
	CompletionTokens int
	HasUsage         bool
}
