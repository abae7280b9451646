// Command promptforge is the main entry point for the PromptForge server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"golang.org/x/sync/errgroup"

	"github.com/promptforge/promptforge/internal/auth"
	"github.com/promptforge/promptforge/internal/config"
	"github.com/promptforge/promptforge/internal/engine"
	"github.com/promptforge/promptforge/internal/health"
	"github.com/promptforge/promptforge/internal/histcache"
	"github.com/promptforge/promptforge/internal/httpapi"
	"github.com/promptforge/promptforge/internal/observe"
	"github.com/promptforge/promptforge/internal/resilience"
	"github.com/promptforge/promptforge/pkg/provider/embeddings"
	"github.com/promptforge/promptforge/pkg/provider/embeddings/fastembed"
	ollamaembed "github.com/promptforge/promptforge/pkg/provider/embeddings/ollama"
	oaembed "github.com/promptforge/promptforge/pkg/provider/embeddings/openai"
	"github.com/promptforge/promptforge/pkg/provider/llm"
	"github.com/promptforge/promptforge/pkg/provider/llm/anyllm"
	"github.com/promptforge/promptforge/pkg/ragstore"
	"github.com/promptforge/promptforge/pkg/ragstore/postgres"
)

const shutdownTimeout = 15 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// A missing .env file is fine; environment variables still apply.
	_ = godotenv.Load()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "promptforge: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "promptforge: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("promptforge starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	shutdownTelemetry, err := observe.InitProvider(ctx, observe.ProviderConfig{})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()
	metrics := observe.DefaultMetrics()

	// ── Providers ─────────────────────────────────────────────────────────────
	embedder, err := buildEmbeddings(cfg)
	if err != nil {
		slog.Error("failed to build embeddings provider", "err", err)
		return 1
	}
	slog.Info("provider created", "kind", "embeddings", "name", cfg.Providers.Embeddings.Name, "model", embedder.ModelID())
	if d, ok := embedder.(interface{ Destroy() error }); ok {
		defer func() {
			if err := d.Destroy(); err != nil {
				slog.Warn("embeddings provider shutdown error", "err", err)
			}
		}()
	}

	llmProvider, err := buildLLM(cfg)
	if err != nil {
		slog.Error("failed to build llm provider", "err", err)
		return 1
	}
	slog.Info("provider created", "kind", "llm", "name", cfg.Providers.LLM.Name, "model", llmProvider.ModelID())

	// ── Storage ───────────────────────────────────────────────────────────────
	store, err := postgres.NewStore(ctx, cfg.Database.URL, embedder, postgres.WithLogger(logger))
	if err != nil {
		slog.Error("failed to connect to database", "err", err)
		return 1
	}
	defer store.Close()

	if cfg.Database.KeepAliveInterval > 0 {
		go store.KeepAlive(ctx, cfg.Database.KeepAliveInterval)
	}

	checkers := []health.Checker{
		{Name: "database", Check: store.Ping},
	}

	// ── History cache (optional) ──────────────────────────────────────────────
	var chatStore ragstore.ChatStore = store
	if cfg.Cache.Addr != "" {
		client, err := histcache.NewClient(ctx, cfg.Cache.Addr, cfg.Cache.Password, cfg.Cache.DB)
		if err != nil {
			slog.Error("failed to connect to redis", "err", err, "addr", cfg.Cache.Addr)
			return 1
		}
		defer func() {
			if err := client.Close(); err != nil {
				slog.Warn("redis close error", "err", err)
			}
		}()
		chatStore = histcache.New(store, client, cfg.Cache.TTL, logger)
		checkers = append(checkers, health.Checker{
			Name: "cache",
			Check: func(ctx context.Context) error {
				return client.Ping(ctx).Err()
			},
		})
		slog.Info("history cache enabled", "addr", cfg.Cache.Addr, "ttl", cfg.Cache.TTL)
	}

	// ── Services ──────────────────────────────────────────────────────────────
	issuer := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	authService := auth.NewService(store, issuer)

	eng := engine.New(store, chatStore, llmProvider, metrics, engine.Options{
		TopK:         cfg.Retrieval.TopK,
		HistoryTurns: cfg.Retrieval.HistoryTurns,
		DefaultMode:  cfg.Retrieval.DefaultMode,
	})

	server := httpapi.NewServer(httpapi.Config{
		Auth:    authService,
		Issuer:  issuer,
		Engine:  eng,
		Docs:    store,
		Chats:   chatStore,
		Health:  health.New(checkers...),
		Metrics: metrics,
	})

	// ── HTTP server ───────────────────────────────────────────────────────────
	httpServer := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server ready — press Ctrl+C to shut down", "addr", cfg.Server.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown signal received, stopping…")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// ── Provider wiring ───────────────────────────────────────────────────────────

// buildEmbeddings constructs the primary embeddings provider and, when
// fallbacks are configured, wraps the whole set in a failover group.
func buildEmbeddings(cfg *config.Config) (embeddings.Provider, error) {
	primary, err := newEmbeddings(cfg.Providers.Embeddings)
	if err != nil {
		return nil, fmt.Errorf("create embeddings provider %q: %w", cfg.Providers.Embeddings.Name, err)
	}
	if len(cfg.Providers.EmbeddingsFallbacks) == 0 {
		return primary, nil
	}

	group := resilience.NewEmbeddingsFallback(primary, cfg.Providers.Embeddings.Name, resilience.FallbackConfig{})
	for _, entry := range cfg.Providers.EmbeddingsFallbacks {
		p, err := newEmbeddings(entry)
		if err != nil {
			return nil, fmt.Errorf("create embeddings fallback %q: %w", entry.Name, err)
		}
		if err := group.AddFallback(entry.Name, p); err != nil {
			return nil, err
		}
		slog.Info("provider created", "kind", "embeddings-fallback", "name", entry.Name, "model", p.ModelID())
	}
	return group, nil
}

func newEmbeddings(entry config.ProviderEntry) (embeddings.Provider, error) {
	switch entry.Name {
	case "fastembed":
		return fastembed.New(entry.Model)
	case "openai":
		var opts []oaembed.Option
		if entry.BaseURL != "" {
			opts = append(opts, oaembed.WithBaseURL(entry.BaseURL))
		}
		return oaembed.New(entry.APIKey, entry.Model, opts...)
	case "ollama":
		return ollamaembed.New(entry.BaseURL, entry.Model)
	default:
		return nil, fmt.Errorf("unknown embeddings provider %q", entry.Name)
	}
}

// buildLLM constructs the primary LLM provider and, when fallbacks are
// configured, wraps the whole set in a failover group.
func buildLLM(cfg *config.Config) (llm.Provider, error) {
	primary, err := newLLM(cfg.Providers.LLM)
	if err != nil {
		return nil, fmt.Errorf("create llm provider %q: %w", cfg.Providers.LLM.Name, err)
	}
	if len(cfg.Providers.LLMFallbacks) == 0 {
		return primary, nil
	}

	group := resilience.NewLLMFallback(primary, cfg.Providers.LLM.Name, resilience.FallbackConfig{})
	for _, entry := range cfg.Providers.LLMFallbacks {
		p, err := newLLM(entry)
		if err != nil {
			return nil, fmt.Errorf("create llm fallback %q: %w", entry.Name, err)
		}
		group.AddFallback(entry.Name, p)
		slog.Info("provider created", "kind", "llm-fallback", "name", entry.Name, "model", p.ModelID())
	}
	return group, nil
}

// newLLM builds a chat completion provider. Hosted providers take an
// optional APIKey and BaseURL; ollama is a local server addressed by
// BaseURL alone.
func newLLM(entry config.ProviderEntry) (llm.Provider, error) {
	var opts []anyllmlib.Option
	if entry.APIKey != "" && entry.Name != "ollama" {
		opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
	}
	if entry.BaseURL != "" {
		opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
	}
	return anyllm.New(entry.Name, entry.Model, opts...)
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
