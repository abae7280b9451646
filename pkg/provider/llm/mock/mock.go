// Package mock provides a configurable test double for [llm.Provider].
package mock

import (
	"context"
	"sync"

	"github.com/promptforge/promptforge/pkg/provider/llm"
)

// Ensure Provider implements the llm.Provider interface.
var _ llm.Provider = (*Provider)(nil)

// Provider is a test double for [llm.Provider]. It records every request for
// assertion and returns the configured response. Safe for concurrent use.
type Provider struct {
	mu       sync.Mutex
	requests []llm.CompletionRequest

	// Response is returned by Complete. When empty, a fixed placeholder
	// reply is returned instead.
	Response string

	// CompleteErr, when non-nil, is returned by Complete.
	CompleteErr error
}

// Complete implements llm.Provider.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.mu.Lock()
	p.requests = append(p.requests, req)
	resp, err := p.Response, p.CompleteErr
	p.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if resp == "" {
		resp = "mock completion"
	}
	return &llm.CompletionResponse{Content: resp}, nil
}

// ModelID implements llm.Provider.
func (p *Provider) ModelID() string {
	return "mock"
}

// Requests returns every request passed to Complete, in order.
func (p *Provider) Requests() []llm.CompletionRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]llm.CompletionRequest, len(p.requests))
	copy(out, p.requests)
	return out
}

// LastRequest returns the most recent request, or a zero value when none
// have been made.
func (p *Provider) LastRequest() llm.CompletionRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.requests) == 0 {
		return llm.CompletionRequest{}
	}
	return p.requests[len(p.requests)-1]
}
