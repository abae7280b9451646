// Package httpapi exposes the PromptForge service over HTTP.
//
// Routes:
//
//	POST /api/register     — create an account, returns a token
//	POST /api/login        — exchange credentials for a token
//	POST /api/generate     — run retrieval-augmented prompt generation
//	POST /api/ingest/text  — add a document to the knowledge base
//	GET  /api/documents    — list knowledge base sources with previews
//	GET  /api/history      — list recent chat turns
//	GET  /api/history/{id} — fetch a single chat turn
//	GET  /healthz, /readyz — probes
//	GET  /metrics          — Prometheus scrape endpoint
//
// Everything under /api except register and login requires a Bearer token.
package httpapi

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/promptforge/promptforge/internal/auth"
	"github.com/promptforge/promptforge/internal/engine"
	"github.com/promptforge/promptforge/internal/health"
	"github.com/promptforge/promptforge/internal/observe"
	"github.com/promptforge/promptforge/pkg/ragstore"
)

// defaultListLimit caps /api/documents and /api/history responses.
const defaultListLimit = 50

// Server holds the handler dependencies and the route table.
type Server struct {
	auth    *auth.Service
	issuer  *auth.TokenIssuer
	engine  *engine.Engine
	docs    ragstore.DocumentStore
	chats   ragstore.ChatStore
	metrics *observe.Metrics
	handler http.Handler
}

// Config collects the dependencies of a [Server].
type Config struct {
	Auth   *auth.Service
	Issuer *auth.TokenIssuer
	Engine *engine.Engine
	Docs   ragstore.DocumentStore
	Chats  ragstore.ChatStore

	// Health serves the probe endpoints. Optional; nil registers probes
	// with no readiness checks.
	Health *health.Handler

	// Metrics is used by handlers and the observability middleware.
	// Nil falls back to [observe.DefaultMetrics].
	Metrics *observe.Metrics
}

// NewServer builds the route table and wraps it in the observability
// middleware.
func NewServer(cfg Config) *Server {
	if cfg.Metrics == nil {
		cfg.Metrics = observe.DefaultMetrics()
	}
	if cfg.Health == nil {
		cfg.Health = health.New()
	}

	s := &Server{
		auth:    cfg.Auth,
		issuer:  cfg.Issuer,
		engine:  cfg.Engine,
		docs:    cfg.Docs,
		chats:   cfg.Chats,
		metrics: cfg.Metrics,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/register", s.handleRegister)
	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.HandleFunc("POST /api/generate", s.requireAuth(s.handleGenerate))
	mux.HandleFunc("POST /api/ingest/text", s.requireAuth(s.handleIngestText))
	mux.HandleFunc("GET /api/documents", s.requireAuth(s.handleListDocuments))
	mux.HandleFunc("GET /api/history", s.requireAuth(s.handleListHistory))
	mux.HandleFunc("GET /api/history/{id}", s.requireAuth(s.handleGetTurn))
	cfg.Health.Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	s.handler = observe.Middleware(cfg.Metrics)(mux)
	return s
}

// Handler returns the fully wired HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}
