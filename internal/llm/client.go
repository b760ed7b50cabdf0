package llm

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/yx118/MoonTVPlus/internal/config"
)

// Client is an LLM provider endpoint speaking one of the two supported
// wire protocols. Implementations are stateless per request.
type Client interface {
	// Kind returns the wire protocol name (config.ProviderOpenAI or
	// config.ProviderAnthropic).
	Kind() string

	// Complete performs one non-streaming completion.
	Complete(ctx context.Context, req Request) (Completion, error)

	// Stream starts a streaming completion and returns the raw SSE
	// body. The caller owns the reader and must close it.
	Stream(ctx context.Context, req Request) (io.ReadCloser, error)
}

// NewClient builds the client for the configured provider endpoint.
func NewClient(cfg config.LLMConfig) (Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	httpClient := &http.Client{Timeout: timeout}

	if cfg.Provider == config.ProviderAnthropic {
		return newAnthropicClient(cfg, httpClient), nil
	}
	return newOpenAIClient(cfg, httpClient), nil
}
