package resilience

import (
	"context"
	"fmt"

	"github.com/promptforge/promptforge/pkg/provider/embeddings"
)

// EmbeddingsFallback implements [embeddings.Provider] with automatic
// failover across multiple embedding backends.
//
// Every registered fallback must produce vectors with the same
// dimensionality as the primary: stored document vectors are only comparable
// to query vectors from the same geometry, so a mismatched fallback is
// rejected at registration time rather than corrupting search results later.
type EmbeddingsFallback struct {
	group *FallbackGroup[embeddings.Provider]
	dims  int
}

var _ embeddings.Provider = (*EmbeddingsFallback)(nil)

// NewEmbeddingsFallback creates an [EmbeddingsFallback] with primary as the
// preferred backend.
func NewEmbeddingsFallback(primary embeddings.Provider, primaryName string, cfg FallbackConfig) *EmbeddingsFallback {
	return &EmbeddingsFallback{
		group: NewFallbackGroup(primary, primaryName, cfg),
		dims:  primary.Dimensions(),
	}
}

// AddFallback registers an additional embeddings provider. It fails when the
// fallback's vector dimensions differ from the primary's.
func (f *EmbeddingsFallback) AddFallback(name string, provider embeddings.Provider) error {
	if got := provider.Dimensions(); got != f.dims {
		return fmt.Errorf("embeddings fallback %q has %d dimensions, primary has %d", name, got, f.dims)
	}
	f.group.AddFallback(name, provider)
	return nil
}

// Embed returns the first healthy provider's vector for text.
func (f *EmbeddingsFallback) Embed(ctx context.Context, text string) ([]float32, error) {
	return ExecuteWithResult(f.group, func(p embeddings.Provider) ([]float32, error) {
		return p.Embed(ctx, text)
	})
}

// EmbedBatch returns the first healthy provider's vectors for texts.
func (f *EmbeddingsFallback) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return ExecuteWithResult(f.group, func(p embeddings.Provider) ([][]float32, error) {
		return p.EmbedBatch(ctx, texts)
	})
}

// Dimensions reports the shared vector dimensionality of the group.
func (f *EmbeddingsFallback) Dimensions() int {
	return f.dims
}

// ModelID reports the primary provider's model.
func (f *EmbeddingsFallback) ModelID() string {
	return f.group.Primary().ModelID()
}
