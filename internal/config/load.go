package config

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/joho/godotenv"
)

var (
	configOnce  sync.Once
	configValue *Config
)

// Load reads the env-based configuration once per process.
func Load() *Config {
	configOnce.Do(func() {
		_ = godotenv.Load()
		configValue = buildConfig()
	})
	return configValue
}

// ProvideConfig loads and validates the configuration.
func ProvideConfig() (*Config, error) {
	cfg := Load()
	if cfg == nil {
		return nil, errors.New("config not initialized")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks configuration consistency.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.AI.Enabled && c.AI.LLM.Provider == ProviderOpenAI && c.AI.LLM.Configured() && c.AI.LLM.BaseURL == "" {
		return errors.New("AI_BASE_URL required for openai-compatible provider")
	}
	switch c.WebSearch.Provider {
	case "", "tavily", "serper":
	default:
		return fmt.Errorf("unknown web search provider: %s", c.WebSearch.Provider)
	}
	if c.Cache.Enabled && c.Cache.URL == "" {
		return errors.New("CACHE_URL required when cache enabled")
	}
	return nil
}

// LogEnvStatus logs a masked summary of the effective configuration.
func LogEnvStatus(cfg *Config, logger *slog.Logger) {
	if logger == nil || cfg == nil {
		return
	}

	envFilePresent := fileExists(".env")
	logger.Debug(
		"env_status",
		"env_file", envFilePresent,
		"ai_enabled", cfg.AI.Enabled,
		"ai_provider", cfg.AI.LLM.Provider,
		"ai_key", maskSecret(cfg.AI.LLM.APIKey),
		"ai_model", cfg.AI.LLM.Model,
		"decision_enabled", cfg.Decision.Enabled,
		"websearch_provider", cfg.WebSearch.Provider,
		"tmdb_key", maskSecret(cfg.TMDB.APIKey),
		"cache_enabled", cfg.Cache.Enabled,
		"db_host", cfg.Database.Host,
	)

	if cfg.AI.Enabled && !cfg.AI.LLM.Configured() {
		logger.Warn("env_missing_ai_credentials")
	}
	if cfg.Auth.JWTSecret == "" {
		logger.Warn("env_missing_auth_jwt_secret")
	}
}
