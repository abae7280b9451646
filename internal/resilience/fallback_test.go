package resilience_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/promptforge/promptforge/internal/resilience"
	"github.com/promptforge/promptforge/pkg/provider/embeddings"
	embedmock "github.com/promptforge/promptforge/pkg/provider/embeddings/mock"
	"github.com/promptforge/promptforge/pkg/provider/llm"
	llmmock "github.com/promptforge/promptforge/pkg/provider/llm/mock"
)

func quickBreaker() resilience.FallbackConfig {
	return resilience.FallbackConfig{
		CircuitBreaker: resilience.CircuitBreakerConfig{
			MaxFailures:  1,
			ResetTimeout: time.Minute,
		},
	}
}

func TestFallbackGroup_PrimaryFirst(t *testing.T) {
	group := resilience.NewFallbackGroup("primary", "primary", quickBreaker())
	group.AddFallback("secondary", "secondary")

	var used string
	err := group.Execute(func(v string) error {
		used = v
		return nil
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if used != "primary" {
		t.Errorf("want primary used, got %q", used)
	}
}

func TestFallbackGroup_FailsOver(t *testing.T) {
	group := resilience.NewFallbackGroup("primary", "primary", quickBreaker())
	group.AddFallback("secondary", "secondary")

	var attempts []string
	result, err := resilience.ExecuteWithResult(group, func(v string) (string, error) {
		attempts = append(attempts, v)
		if v == "primary" {
			return "", errBoom
		}
		return "from " + v, nil
	})
	if err != nil {
		t.Fatalf("ExecuteWithResult: %v", err)
	}
	if result != "from secondary" {
		t.Errorf("result: want from secondary, got %q", result)
	}
	if len(attempts) != 2 {
		t.Errorf("attempts: want 2, got %v", attempts)
	}

	// The primary's breaker is now open, so the next call skips it.
	attempts = nil
	if _, err := resilience.ExecuteWithResult(group, func(v string) (string, error) {
		attempts = append(attempts, v)
		return v, nil
	}); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if len(attempts) != 1 || attempts[0] != "secondary" {
		t.Errorf("open primary should be skipped, attempts %v", attempts)
	}
}

func TestFallbackGroup_AllFailed(t *testing.T) {
	group := resilience.NewFallbackGroup("only", "only", quickBreaker())

	err := group.Execute(func(string) error { return errBoom })
	if !errors.Is(err, resilience.ErrAllFailed) {
		t.Errorf("want ErrAllFailed, got %v", err)
	}
}

func TestLLMFallback_Complete(t *testing.T) {
	primary := &llmmock.Provider{CompleteErr: errBoom}
	backup := &llmmock.Provider{Response: "backup answer"}

	fb := resilience.NewLLMFallback(primary, "primary", quickBreaker())
	fb.AddFallback("backup", backup)

	resp, err := fb.Complete(context.Background(), llm.CompletionRequest{
		Messages: []llm.Message{{Role: "user", Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != "backup answer" {
		t.Errorf("Content: want backup answer, got %q", resp.Content)
	}
	if got := len(primary.Requests()); got != 1 {
		t.Errorf("primary attempts: want 1, got %d", got)
	}
}

func TestEmbeddingsFallback_DimensionGuard(t *testing.T) {
	primary := &embedmock.Provider{Dims: 4}
	sameDims := &embedmock.Provider{Dims: 4}
	wrongDims := &embedmock.Provider{Dims: 8}

	fb := resilience.NewEmbeddingsFallback(primary, "primary", quickBreaker())
	if err := fb.AddFallback("same", sameDims); err != nil {
		t.Fatalf("AddFallback same dims: %v", err)
	}
	if err := fb.AddFallback("wrong", wrongDims); err == nil {
		t.Error("AddFallback wrong dims: want error, got nil")
	}
	if fb.Dimensions() != 4 {
		t.Errorf("Dimensions: want 4, got %d", fb.Dimensions())
	}
}

func TestEmbeddingsFallback_FailsOver(t *testing.T) {
	primary := &embedmock.Provider{Dims: 4, EmbedErr: embeddings.ErrEmbedFailed}
	backup := &embedmock.Provider{
		Dims:    4,
		Vectors: map[string][]float32{"hello": {1, 0, 0, 0}},
	}

	fb := resilience.NewEmbeddingsFallback(primary, "primary", quickBreaker())
	if err := fb.AddFallback("backup", backup); err != nil {
		t.Fatalf("AddFallback: %v", err)
	}

	vec, err := fb.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vec) != 4 || vec[0] != 1 {
		t.Errorf("vector: want [1 0 0 0], got %v", vec)
	}
	if got := len(backup.Calls()); got != 1 {
		t.Errorf("backup Embed calls: want 1, got %d", got)
	}
}
