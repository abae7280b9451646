// Package mock provides a configurable in-memory test double for
// [embeddings.Provider].
//
// Unmapped texts embed to a deterministic unit vector derived from an FNV
// hash of the text, so identical inputs always embed identically without any
// per-test setup. Tests that need controlled geometry assign exact vectors
// via the Vectors map.
package mock

import (
	"context"
	"hash/fnv"
	"math"
	"sync"

	"github.com/promptforge/promptforge/pkg/provider/embeddings"
)

// Ensure Provider implements the embeddings.Provider interface.
var _ embeddings.Provider = (*Provider)(nil)

// Provider is a test double for [embeddings.Provider]. The zero value is
// usable and produces 4-dimensional vectors. Safe for concurrent use.
type Provider struct {
	mu    sync.Mutex
	calls []string

	// Dims is the vector length produced. Zero means 4.
	Dims int

	// Vectors maps exact input texts to the vector to return. Texts not
	// present fall back to the deterministic hash-derived vector.
	Vectors map[string][]float32

	// EmbedErr, when non-nil, is returned (wrapped in
	// [embeddings.ErrEmbedFailed]) by Embed and EmbedBatch.
	EmbedErr error
}

// Embed implements embeddings.Provider.
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch implements embeddings.Provider.
func (p *Provider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	p.mu.Lock()
	p.calls = append(p.calls, texts...)
	err := p.EmbedErr
	p.mu.Unlock()

	if err != nil {
		return nil, &embedError{err: err}
	}

	out := make([][]float32, len(texts))
	for i, t := range texts {
		if v, ok := p.Vectors[t]; ok {
			out[i] = v
			continue
		}
		out[i] = p.hashVector(t)
	}
	return out, nil
}

// Dimensions implements embeddings.Provider.
func (p *Provider) Dimensions() int {
	if p.Dims > 0 {
		return p.Dims
	}
	return 4
}

// ModelID implements embeddings.Provider.
func (p *Provider) ModelID() string {
	return "mock"
}

// Calls returns every text passed to Embed or EmbedBatch, in order.
func (p *Provider) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.calls))
	copy(out, p.calls)
	return out
}

// hashVector derives a normalised vector from an FNV-1a hash of text.
// Identical texts always produce identical vectors.
func (p *Provider) hashVector(text string) []float32 {
	dims := p.Dimensions()
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	vec := make([]float32, dims)
	var norm float64
	for i := range vec {
		// xorshift over the seed for a stable pseudo-random sequence.
		seed ^= seed << 13
		seed ^= seed >> 7
		seed ^= seed << 17
		v := float64(int64(seed%2000)-1000) / 1000
		vec[i] = float32(v)
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		vec[0] = 1
		return vec
	}
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}

// embedError wraps a configured failure so errors.Is matches
// [embeddings.ErrEmbedFailed] as well as the original error.
type embedError struct {
	err error
}

func (e *embedError) Error() string { return "mock embeddings: " + e.err.Error() }

func (e *embedError) Is(target error) bool { return target == embeddings.ErrEmbedFailed }

func (e *embedError) Unwrap() error { return e.err }
