// Package embeddings defines the Provider interface for vector embedding backends.
//
// An embeddings provider wraps a model that maps text to dense float32 vectors
// (a local ONNX sentence transformer, an Ollama server, or the OpenAI API).
// The document store uses these vectors for per-tenant nearest-neighbour
// retrieval, so every vector a single Provider produces must have the same
// length.
//
// Implementations must be safe for concurrent use.
package embeddings

import (
	"context"
	"errors"
)

// ErrEmbedFailed is wrapped by every error a Provider returns from Embed or
// EmbedBatch. Callers use errors.Is(err, ErrEmbedFailed) to distinguish an
// embedding-model failure (retryable against the model) from a persistence
// failure, which retries differently.
var ErrEmbedFailed = errors.New("embedding failed")

// Provider is the abstraction over any text-embedding backend.
//
// All vectors returned by a single Provider instance share the dimensionality
// reported by Dimensions. Vectors from different Provider instances must not
// be mixed in one similarity computation unless both use the same model.
//
// Empty and very long inputs are valid: backends truncate or pool as their
// model requires and still return a full-length vector.
type Provider interface {
	// Embed computes the embedding vector for a single text string. The
	// returned slice has length Dimensions(). Failures wrap [ErrEmbedFailed].
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch computes vectors for a slice of texts in one backend call.
	// result[i] corresponds to texts[i]. On error the whole result is nil;
	// partial results are never returned.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the fixed vector length produced by this provider.
	// Constant for the lifetime of the instance.
	Dimensions() int

	// ModelID returns the backend-specific model identifier, for logging and
	// for verifying consistent model usage across restarts.
	ModelID() string
}
