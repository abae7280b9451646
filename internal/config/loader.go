package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to reject unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"embeddings": {"fastembed", "openai", "ollama"},
	"llm":        {"openai", "anthropic", "ollama", "gemini", "deepseek", "mistral", "groq", "llamacpp", "llamafile"},
}

// Load reads the YAML configuration file at path and returns a validated
// [Config] with environment overrides and defaults applied.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies environment
// overrides and defaults, and validates the result. Useful in tests where
// configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	applyEnv(cfg)
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides file values with their environment counterparts.
// Deployment platforms inject DATABASE_URL and REDIS_ADDR; secrets should
// never live in the config file in the first place.
func applyEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Cache.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Cache.Password = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Cache.DB = db
		}
	}
	if v := os.Getenv("PROMPTFORGE_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		if cfg.Providers.LLM.Name == "openai" && cfg.Providers.LLM.APIKey == "" {
			cfg.Providers.LLM.APIKey = v
		}
		if cfg.Providers.Embeddings.Name == "openai" && cfg.Providers.Embeddings.APIKey == "" {
			cfg.Providers.Embeddings.APIKey = v
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = ":8080"
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = LogInfo
	}
	if cfg.Providers.Embeddings.Name == "" {
		cfg.Providers.Embeddings.Name = "fastembed"
	}
	if cfg.Auth.TokenTTL == 0 {
		cfg.Auth.TokenTTL = 24 * time.Hour
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 10 * time.Minute
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 5
	}
	if cfg.Retrieval.HistoryTurns == 0 {
		cfg.Retrieval.HistoryTurns = 5
	}
	if cfg.Retrieval.DefaultMode == "" {
		cfg.Retrieval.DefaultMode = ModeEngineer
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Database.URL == "" {
		errs = append(errs, errors.New("database.url is required (or set DATABASE_URL)"))
	}
	if cfg.Database.KeepAliveInterval < 0 {
		errs = append(errs, errors.New("database.keep_alive_interval must not be negative"))
	}
	if cfg.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required (or set PROMPTFORGE_JWT_SECRET)"))
	}

	if err := validateProviderName("embeddings", cfg.Providers.Embeddings.Name); err != nil {
		errs = append(errs, err)
	}
	if cfg.Providers.LLM.Name == "" {
		errs = append(errs, errors.New("providers.llm.name is required"))
	} else if err := validateProviderName("llm", cfg.Providers.LLM.Name); err != nil {
		errs = append(errs, err)
	}
	for i, entry := range cfg.Providers.EmbeddingsFallbacks {
		if err := validateProviderName("embeddings", entry.Name); err != nil {
			errs = append(errs, fmt.Errorf("embeddings_fallbacks[%d]: %w", i, err))
		}
	}
	for i, entry := range cfg.Providers.LLMFallbacks {
		if err := validateProviderName("llm", entry.Name); err != nil {
			errs = append(errs, fmt.Errorf("llm_fallbacks[%d]: %w", i, err))
		}
	}

	if cfg.Retrieval.TopK < 1 {
		errs = append(errs, errors.New("retrieval.top_k must be at least 1"))
	}
	if cfg.Retrieval.HistoryTurns < 0 {
		errs = append(errs, errors.New("retrieval.history_turns must not be negative"))
	}
	if !cfg.Retrieval.DefaultMode.IsValid() {
		errs = append(errs, fmt.Errorf("retrieval.default_mode %q is invalid; valid values: engineer, critic, direct", cfg.Retrieval.DefaultMode))
	}

	return errors.Join(errs...)
}

func validateProviderName(kind, name string) error {
	valid := ValidProviderNames[kind]
	for _, v := range valid {
		if name == v {
			return nil
		}
	}
	return fmt.Errorf("providers.%s.name %q is not recognised; valid values: %v", kind, name, valid)
}
