package di

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/yx118/MoonTVPlus/internal/config"
	"github.com/yx118/MoonTVPlus/internal/llm"
	"github.com/yx118/MoonTVPlus/internal/logging"
	"github.com/yx118/MoonTVPlus/internal/websearch"
)

// ProvideLogger builds and installs the process logger.
func ProvideLogger(cfg *config.Config) (*slog.Logger, error) {
	logger, err := logging.NewLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return logger, nil
}

// ProvideChatClient builds the user-facing chat model client, or nil
// when the chat model is not configured.
func ProvideChatClient(cfg *config.Config) (llm.Client, error) {
	if !cfg.AI.Enabled || !cfg.AI.LLM.Configured() {
		return nil, nil
	}
	client, err := llm.NewClient(cfg.AI.LLM)
	if err != nil {
		return nil, fmt.Errorf("chat client: %w", err)
	}
	return client, nil
}

// ProvideDecisionClient builds the decision model client, or nil when
// the decision model is disabled or has no usable endpoint.
func ProvideDecisionClient(cfg *config.Config) (llm.Client, error) {
	if !cfg.Decision.Enabled {
		return nil, nil
	}
	resolved := cfg.Decision.Resolve(cfg.AI.LLM)
	if !resolved.Configured() {
		return nil, nil
	}
	client, err := llm.NewClient(resolved)
	if err != nil {
		return nil, fmt.Errorf("decision client: %w", err)
	}
	return client, nil
}

// ProvideSearchClient builds the web search client, or nil when no
// provider is configured.
func ProvideSearchClient(cfg *config.Config) (websearch.Client, error) {
	client, err := websearch.New(cfg.WebSearch)
	if errors.Is(err, websearch.ErrNotConfigured) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("web search client: %w", err)
	}
	return client, nil
}
