package websearch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/yx118/MoonTVPlus/internal/config"
)

// ErrNotConfigured is returned when no search provider is set up.
var ErrNotConfigured = errors.New("websearch: provider not configured")

const (
	defaultMaxResults = 5
	requestTimeout    = 10 * time.Second
)

// Result is one normalized search hit, independent of provider shape.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// Client performs a web search against one provider.
type Client interface {
	Name() string
	Search(ctx context.Context, query string) ([]Result, error)
}

// New builds the search client for the configured provider.
func New(cfg config.WebSearchConfig) (Client, error) {
	if !cfg.Configured() {
		return nil, ErrNotConfigured
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	httpClient := &http.Client{Timeout: requestTimeout}

	switch cfg.Provider {
	case "tavily":
		return &tavilyClient{apiKey: cfg.APIKey, maxResults: maxResults, httpClient: httpClient}, nil
	case "serper":
		return &serperClient{apiKey: cfg.APIKey, maxResults: maxResults, httpClient: httpClient}, nil
	default:
		return nil, fmt.Errorf("websearch: unknown provider %q", cfg.Provider)
	}
}
