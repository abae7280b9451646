// Package llm defines the Provider interface for the generation collaborator.
//
// The prompt engine hands an assembled prompt to an LLM backend and persists
// the returned text; it never streams, calls tools, or inspects model
// internals, so the interface is deliberately small.
//
// Implementations must be safe for concurrent use.
package llm

import "context"

// Message is a single message in a conversation handed to the model.
type Message struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the text content of the message.
	Content string
}

// Usage holds token accounting returned by the backend. Counts are in the
// model's native token unit and may differ between providers for the same
// content.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// CompletionRequest carries everything the model needs to produce a response.
// Messages must be non-empty.
type CompletionRequest struct {
	// SystemPrompt is an optional high-priority instruction. Backends that
	// have no dedicated system slot prepend it as a "system"-role message.
	SystemPrompt string

	// Messages is the ordered conversation; the last message drives the
	// response.
	Messages []Message

	// Temperature controls output randomness in [0.0, 2.0]. Zero requests
	// the provider default.
	Temperature float64

	// MaxTokens caps the completion length. Zero means provider default.
	MaxTokens int
}

// CompletionResponse is the model's full reply.
type CompletionResponse struct {
	// Content is the complete text of the reply.
	Content string

	// Usage contains token accounting for this request/response pair.
	Usage Usage
}

// Provider is the abstraction over any LLM backend. Implementations must
// propagate context cancellation promptly.
type Provider interface {
	// Complete sends req to the model and waits for the full response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// ModelID returns the backend-specific model identifier, for logging.
	ModelID() string
}
