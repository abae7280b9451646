// Package fastembed provides an embeddings provider backed by local ONNX
// models via github.com/anush008/fastembed-go.
//
// No network calls are made at embed time; the model is downloaded to a local
// cache directory on first use. The default model, all-MiniLM-L6-v2, produces
// 384-dimensional vectors.
package fastembed

import (
	"context"
	"fmt"

	fe "github.com/anush008/fastembed-go"

	"github.com/promptforge/promptforge/pkg/provider/embeddings"
)

// DefaultModel is the default local embedding model.
const DefaultModel = "all-MiniLM-L6-v2"

// batchSize is the number of texts embedded per ONNX inference call.
const batchSize = 256

// Ensure Provider implements the embeddings.Provider interface.
var _ embeddings.Provider = (*Provider)(nil)

// knownModels maps accepted model names to their fastembed constant and
// output dimension.
var knownModels = map[string]struct {
	model fe.EmbeddingModel
	dims  int
}{
	"all-MiniLM-L6-v2":       {fe.AllMiniLML6V2, 384},
	"bge-small-en":           {fe.BGESmallEN, 384},
	"bge-small-en-v1.5":      {fe.BGESmallENV15, 384},
	"bge-base-en":            {fe.BGEBaseEN, 768},
	"bge-base-en-v1.5":       {fe.BGEBaseENV15, 768},
}

// Provider implements embeddings.Provider using a local ONNX model.
//
// The underlying fastembed session is guarded internally; Provider is safe
// for concurrent use.
type Provider struct {
	model *fe.FlagEmbedding
	name  string
	dims  int
}

// config holds optional configuration collected from functional options.
type config struct {
	cacheDir  string
	maxLength int
}

// Option is a functional option for Provider.
type Option func(*config)

// WithCacheDir sets the directory where model files are downloaded and
// cached. Defaults to "local_cache" under the working directory.
func WithCacheDir(dir string) Option {
	return func(c *config) {
		c.cacheDir = dir
	}
}

// WithMaxLength sets the maximum input sequence length in tokens. Longer
// inputs are truncated by the model. Defaults to 512.
func WithMaxLength(n int) Option {
	return func(c *config) {
		c.maxLength = n
	}
}

// New constructs a local fastembed Provider. If model is empty, DefaultModel
// is used. Unknown model names are rejected rather than probed: the vector
// dimension must be known before the document store migrates its schema.
func New(model string, opts ...Option) (*Provider, error) {
	if model == "" {
		model = DefaultModel
	}
	known, ok := knownModels[model]
	if !ok {
		return nil, fmt.Errorf("fastembed: unknown model %q", model)
	}

	cfg := &config{maxLength: 512}
	for _, o := range opts {
		o(cfg)
	}

	showProgress := false
	initOpts := &fe.InitOptions{
		Model:                known.model,
		MaxLength:            cfg.maxLength,
		ShowDownloadProgress: &showProgress,
	}
	if cfg.cacheDir != "" {
		initOpts.CacheDir = cfg.cacheDir
	}

	m, err := fe.NewFlagEmbedding(initOpts)
	if err != nil {
		return nil, fmt.Errorf("fastembed: init %q: %w", model, err)
	}

	return &Provider{model: m, name: model, dims: known.dims}, nil
}

// Embed implements embeddings.Provider for a single text.
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch implements embeddings.Provider. The fastembed API has no context
// support, so cancellation is checked before the (CPU-bound) call starts.
func (p *Provider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("fastembed: %w: %w", embeddings.ErrEmbedFailed, err)
	}

	vecs, err := p.model.PassageEmbed(texts, batchSize)
	if err != nil {
		return nil, fmt.Errorf("fastembed: %w: %w", embeddings.ErrEmbedFailed, err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("fastembed: %w: expected %d embeddings, got %d",
			embeddings.ErrEmbedFailed, len(texts), len(vecs))
	}
	return vecs, nil
}

// Dimensions implements embeddings.Provider.
func (p *Provider) Dimensions() int {
	return p.dims
}

// ModelID implements embeddings.Provider.
func (p *Provider) ModelID() string {
	return p.name
}

// Destroy releases the ONNX session. The Provider must not be used afterwards.
func (p *Provider) Destroy() error {
	return p.model.Destroy()
}
