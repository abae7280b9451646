package config_test

import (
	"strings"
	"testing"
	"time"

	"github.com/promptforge/promptforge/internal/config"
)

const validYAML = `
server:
  listen_addr: ":9090"
  log_level: debug
database:
  url: postgres://app:pw@localhost:5432/promptforge
  keep_alive_interval: 4m
auth:
  jwt_secret: test-secret
providers:
  embeddings:
    name: fastembed
    model: all-MiniLM-L6-v2
  llm:
    name: openai
    api_key: sk-test
    model: gpt-4o-mini
retrieval:
  top_k: 3
  default_mode: critic
`

// clearEnv blanks every environment variable the loader consults so tests
// see only the YAML under test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DATABASE_URL", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
		"PROMPTFORGE_JWT_SECRET", "OPENAI_API_KEY",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadFromReader_Valid(t *testing.T) {
	clearEnv(t)

	cfg, err := config.LoadFromReader(strings.NewReader(validYAML))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	if cfg.Server.ListenAddr != ":9090" {
		t.Errorf("ListenAddr: want :9090, got %q", cfg.Server.ListenAddr)
	}
	if cfg.Server.LogLevel != config.LogDebug {
		t.Errorf("LogLevel: want debug, got %q", cfg.Server.LogLevel)
	}
	if cfg.Database.KeepAliveInterval != 4*time.Minute {
		t.Errorf("KeepAliveInterval: want 4m, got %v", cfg.Database.KeepAliveInterval)
	}
	if cfg.Retrieval.TopK != 3 {
		t.Errorf("TopK: want 3, got %d", cfg.Retrieval.TopK)
	}
	if cfg.Retrieval.DefaultMode != config.ModeCritic {
		t.Errorf("DefaultMode: want critic, got %q", cfg.Retrieval.DefaultMode)
	}
}

func TestLoadFromReader_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.LoadFromReader(strings.NewReader(`
database:
  url: postgres://localhost/promptforge
auth:
  jwt_secret: s
providers:
  llm:
    name: ollama
    model: llama3
`))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("default ListenAddr: want :8080, got %q", cfg.Server.ListenAddr)
	}
	if cfg.Server.LogLevel != config.LogInfo {
		t.Errorf("default LogLevel: want info, got %q", cfg.Server.LogLevel)
	}
	if cfg.Providers.Embeddings.Name != "fastembed" {
		t.Errorf("default embeddings provider: want fastembed, got %q", cfg.Providers.Embeddings.Name)
	}
	if cfg.Auth.TokenTTL != 24*time.Hour {
		t.Errorf("default TokenTTL: want 24h, got %v", cfg.Auth.TokenTTL)
	}
	if cfg.Retrieval.TopK != 5 || cfg.Retrieval.HistoryTurns != 5 {
		t.Errorf("default retrieval: want 5/5, got %d/%d", cfg.Retrieval.TopK, cfg.Retrieval.HistoryTurns)
	}
	if cfg.Retrieval.DefaultMode != config.ModeEngineer {
		t.Errorf("default mode: want engineer, got %q", cfg.Retrieval.DefaultMode)
	}
}

func TestLoadFromReader_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://env-host/db")
	t.Setenv("PROMPTFORGE_JWT_SECRET", "env-secret")
	t.Setenv("REDIS_ADDR", "cache:6379")
	t.Setenv("OPENAI_API_KEY", "sk-env")

	cfg, err := config.LoadFromReader(strings.NewReader(`
database:
  url: postgres://file-host/db
providers:
  llm:
    name: openai
    model: gpt-4o-mini
`))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	if cfg.Database.URL != "postgres://env-host/db" {
		t.Errorf("DATABASE_URL should win over file, got %q", cfg.Database.URL)
	}
	if cfg.Auth.JWTSecret != "env-secret" {
		t.Errorf("JWTSecret: want env-secret, got %q", cfg.Auth.JWTSecret)
	}
	if cfg.Cache.Addr != "cache:6379" {
		t.Errorf("Cache.Addr: want cache:6379, got %q", cfg.Cache.Addr)
	}
	if cfg.Providers.LLM.APIKey != "sk-env" {
		t.Errorf("LLM APIKey: want sk-env, got %q", cfg.Providers.LLM.APIKey)
	}
}

func TestLoadFromReader_UnknownField(t *testing.T) {
	clearEnv(t)

	_, err := config.LoadFromReader(strings.NewReader(`
database:
  url: postgres://localhost/db
  flux_capacitor: true
auth:
  jwt_secret: s
providers:
  llm:
    name: ollama
`))
	if err == nil {
		t.Fatal("expected error for unknown field, got nil")
	}
}

func TestValidate_Errors(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing database url",
			yaml: "auth:\n  jwt_secret: s\nproviders:\n  llm:\n    name: ollama\n",
			want: "database.url",
		},
		{
			name: "missing jwt secret",
			yaml: "database:\n  url: postgres://x/y\nproviders:\n  llm:\n    name: ollama\n",
			want: "auth.jwt_secret",
		},
		{
			name: "missing llm provider",
			yaml: "database:\n  url: postgres://x/y\nauth:\n  jwt_secret: s\n",
			want: "providers.llm.name",
		},
		{
			name: "bad log level",
			yaml: "server:\n  log_level: loud\ndatabase:\n  url: postgres://x/y\nauth:\n  jwt_secret: s\nproviders:\n  llm:\n    name: ollama\n",
			want: "server.log_level",
		},
		{
			name: "unknown embeddings provider",
			yaml: "database:\n  url: postgres://x/y\nauth:\n  jwt_secret: s\nproviders:\n  embeddings:\n    name: quantum\n  llm:\n    name: ollama\n",
			want: "providers.embeddings.name",
		},
		{
			name: "bad default mode",
			yaml: "database:\n  url: postgres://x/y\nauth:\n  jwt_secret: s\nproviders:\n  llm:\n    name: ollama\nretrieval:\n  default_mode: poet\n",
			want: "retrieval.default_mode",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := config.LoadFromReader(strings.NewReader(tc.yaml))
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q should mention %q", err, tc.want)
			}
		})
	}
}
