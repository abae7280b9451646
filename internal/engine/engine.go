// Package engine implements the retrieval-augmented generation pipeline:
// retrieve similar documents for the tenant, weave them with recent chat
// history into a mode-specific prompt, run the LLM, and persist the
// completed turn.
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/promptforge/promptforge/internal/config"
	"github.com/promptforge/promptforge/internal/observe"
	"github.com/promptforge/promptforge/pkg/provider/llm"
	"github.com/promptforge/promptforge/pkg/ragstore"
)

// Options tunes the retrieval step.
type Options struct {
	// TopK is how many documents each query retrieves. Default: 5.
	TopK int

	// HistoryTurns is how many recent turns appear in the prompt.
	// Zero leaves history out entirely.
	HistoryTurns int

	// DefaultMode is used when a request does not name a mode.
	// Default: engineer.
	DefaultMode config.PromptMode
}

// Answer is the outcome of one generation: the model's response plus the
// retrieval evidence it was grounded on.
type Answer struct {
	// Response is the generated text.
	Response string

	// Context holds the retrieved document contents, most similar first.
	Context []string

	// Sources lists the distinct source labels of the retrieved documents.
	Sources []string

	// Mode is the prompt mode that was actually applied.
	Mode config.PromptMode
}

// Evidence is the retrieval outcome handed to a generation step: passages in
// similarity order and the distinct source labels they came from.
type Evidence struct {
	Passages []string
	Sources  []string
}

// Engine runs the generation pipeline. Construct with [New].
type Engine struct {
	docs    ragstore.DocumentStore
	chats   ragstore.ChatStore
	llm     llm.Provider
	metrics *observe.Metrics
	opts    Options
}

// New wires an Engine to its stores and model provider. A nil metrics falls
// back to [observe.DefaultMetrics].
func New(docs ragstore.DocumentStore, chats ragstore.ChatStore, provider llm.Provider, metrics *observe.Metrics, opts Options) *Engine {
	if opts.TopK <= 0 {
		opts.TopK = 5
	}
	if opts.HistoryTurns < 0 {
		opts.HistoryTurns = 0
	}
	if opts.DefaultMode == "" {
		opts.DefaultMode = config.ModeEngineer
	}
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}
	return &Engine{
		docs:    docs,
		chats:   chats,
		llm:     provider,
		metrics: metrics,
		opts:    opts,
	}
}

// AnswerQuery runs the full pipeline for one tenant query: retrieval, prompt
// assembly, inference, and history write. An unrecognised mode silently
// falls back to the engine's default mode.
//
// The history write happens after a successful completion; a failed write is
// reported as an error even though the response was generated, because a
// lost turn would corrupt the context of every following generation.
func (e *Engine) AnswerQuery(ctx context.Context, tenantID int64, query string, mode config.PromptMode) (*Answer, error) {
	ctx, span := observe.StartSpan(ctx, "engine.AnswerQuery")
	defer span.End()
	start := time.Now()

	if !mode.IsValid() {
		mode = e.opts.DefaultMode
	}

	results, err := e.retrieve(ctx, tenantID, query, e.opts.TopK)
	if err != nil {
		return nil, err
	}

	contextDocs := make([]string, len(results))
	for i, r := range results {
		contextDocs[i] = r.Content
	}

	historyText, err := e.recentHistory(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	req := llm.CompletionRequest{
		SystemPrompt: systemInstruction(mode),
		Messages: []llm.Message{{
			Role:    "user",
			Content: buildUserPrompt(strings.Join(contextDocs, "\n\n"), historyText, query),
		}},
	}

	llmStart := time.Now()
	resp, err := e.llm.Complete(ctx, req)
	e.metrics.LLMDuration.Record(ctx, time.Since(llmStart).Seconds())
	if err != nil {
		e.metrics.RecordProviderError(ctx, e.llm.ModelID(), "llm")
		return nil, fmt.Errorf("generate: %w", err)
	}
	e.metrics.RecordProviderRequest(ctx, e.llm.ModelID(), "llm", "ok")

	if _, err := e.chats.SaveTurn(ctx, tenantID, query, resp.Content); err != nil {
		return nil, fmt.Errorf("save turn: %w", err)
	}

	e.metrics.GenerateDuration.Record(ctx, time.Since(start).Seconds())
	e.metrics.RecordPromptGenerated(ctx, string(mode))

	return &Answer{
		Response: resp.Content,
		Context:  contextDocs,
		Sources:  uniqueSources(results),
		Mode:     mode,
	}, nil
}

// Retrieve runs the retrieval step alone and returns the evidence without
// touching the LLM or the chat history. A k of zero or less falls back to the
// engine's configured TopK.
func (e *Engine) Retrieve(ctx context.Context, tenantID int64, query string, k int) (*Evidence, error) {
	if k <= 0 {
		k = e.opts.TopK
	}
	results, err := e.retrieve(ctx, tenantID, query, k)
	if err != nil {
		return nil, err
	}
	passages := make([]string, len(results))
	for i, r := range results {
		passages[i] = r.Content
	}
	return &Evidence{Passages: passages, Sources: uniqueSources(results)}, nil
}

func (e *Engine) retrieve(ctx context.Context, tenantID int64, query string, k int) ([]ragstore.SearchResult, error) {
	start := time.Now()
	results, err := e.docs.Search(ctx, tenantID, query, k)
	e.metrics.SearchDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	return results, nil
}

func (e *Engine) recentHistory(ctx context.Context, tenantID int64) (string, error) {
	if e.opts.HistoryTurns == 0 {
		return "", nil
	}
	turns, err := e.chats.ListTurns(ctx, tenantID, e.opts.HistoryTurns)
	if err != nil {
		return "", fmt.Errorf("load history: %w", err)
	}
	return formatHistory(turns), nil
}
