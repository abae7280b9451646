// Package config provides the configuration schema and loader for the
// PromptForge server.
package config

import "time"

// LogLevel controls log verbosity for the PromptForge server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// PromptMode selects the persona of the system instruction built around
// retrieved context.
type PromptMode string

const (
	// ModeEngineer instructs the model to act as a prompt engineer and
	// produce an improved prompt from the retrieved material.
	ModeEngineer PromptMode = "engineer"

	// ModeCritic instructs the model to critique the user's input against
	// the retrieved material.
	ModeCritic PromptMode = "critic"

	// ModeDirect answers the question directly from the retrieved material.
	ModeDirect PromptMode = "direct"
)

// IsValid reports whether m is a recognised prompt mode.
func (m PromptMode) IsValid() bool {
	switch m {
	case ModeEngineer, ModeCritic, ModeDirect:
		return true
	}
	return false
}

// Config is the root configuration structure for PromptForge.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Cache     CacheConfig     `yaml:"cache"`
	Auth      AuthConfig      `yaml:"auth"`
	Providers ProvidersConfig `yaml:"providers"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
}

// ServerConfig holds network and logging settings for the PromptForge server.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	// URL is the connection string. The DATABASE_URL environment variable
	// takes precedence when set.
	URL string `yaml:"url"`

	// KeepAliveInterval is how often a trivial query is issued to stop
	// hosted databases from dropping idle connections. Zero disables the
	// keep-alive loop.
	KeepAliveInterval time.Duration `yaml:"keep_alive_interval"`
}

// CacheConfig holds the optional Redis cache settings for recent chat
// history. An empty Addr disables the cache and history is read straight
// from PostgreSQL.
type CacheConfig struct {
	// Addr is the Redis host:port. The REDIS_ADDR environment variable
	// takes precedence when set.
	Addr string `yaml:"addr"`

	// Password authenticates against Redis when non-empty.
	Password string `yaml:"password"`

	// DB selects the Redis logical database.
	DB int `yaml:"db"`

	// TTL bounds how long cached history entries live.
	TTL time.Duration `yaml:"ttl"`
}

// AuthConfig holds token signing settings.
type AuthConfig struct {
	// JWTSecret signs access tokens. The PROMPTFORGE_JWT_SECRET environment
	// variable takes precedence when set.
	JWTSecret string `yaml:"jwt_secret"`

	// TokenTTL is how long issued tokens stay valid.
	TokenTTL time.Duration `yaml:"token_ttl"`
}

// ProvidersConfig declares which implementation to use for each model-backed
// stage.
type ProvidersConfig struct {
	Embeddings ProviderEntry `yaml:"embeddings"`
	LLM        ProviderEntry `yaml:"llm"`

	// EmbeddingsFallbacks are tried in order when the primary embeddings
	// provider fails. Every fallback must produce vectors of the same
	// dimensionality as the primary.
	EmbeddingsFallbacks []ProviderEntry `yaml:"embeddings_fallbacks"`

	// LLMFallbacks are tried in order when the primary LLM fails.
	LLMFallbacks []ProviderEntry `yaml:"llm_fallbacks"`
}

// ProviderEntry is the common configuration block shared by all provider
// kinds.
type ProviderEntry struct {
	// Name selects the implementation (e.g., "fastembed", "openai", "ollama").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API if any.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint.
	// Leave empty to use the provider's built-in default.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider
	// (e.g., "all-MiniLM-L6-v2", "gpt-4o-mini").
	Model string `yaml:"model"`
}

// RetrievalConfig tunes the retrieval step of prompt generation.
type RetrievalConfig struct {
	// TopK is how many documents a search retrieves. Defaults to 5.
	TopK int `yaml:"top_k"`

	// HistoryTurns is how many recent chat turns are woven into the
	// prompt. Defaults to 5.
	HistoryTurns int `yaml:"history_turns"`

	// DefaultMode is the prompt mode used when a request does not name
	// one. Defaults to "engineer".
	DefaultMode PromptMode `yaml:"default_mode"`
}
