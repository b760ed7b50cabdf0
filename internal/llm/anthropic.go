package llm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/yx118/MoonTVPlus/internal/config"
)

const (
	anthropicDefaultEndpoint = "https://api.anthropic.com/v1/messages"
	anthropicVersion         = "2023-06-01"
)

// anthropicClient speaks the Claude-style messages protocol.
type anthropicClient struct {
	cfg          config.LLMConfig
	httpClient   *http.Client
	streamClient *http.Client
}

func newAnthropicClient(cfg config.LLMConfig, httpClient *http.Client) *anthropicClient {
	return &anthropicClient{
		cfg:          cfg,
		httpClient:   httpClient,
		streamClient: &http.Client{},
	}
}

func (c *anthropicClient) Kind() string {
	return config.ProviderAnthropic
}

type anthropicRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	System      string    `json:"system,omitempty"`
	Messages    []Message `json:"messages"`
	Stream      bool      `json:"stream,omitempty"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func (c *anthropicClient) Complete(ctx context.Context, req Request) (Completion, error) {
	resp, err := c.send(ctx, c.httpClient, req, false)
	if err != nil {
		return Completion{}, err
	}
	defer resp.Body.Close()

	var decoded anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Completion{}, fmt.Errorf("anthropic: decode response: %w", err)
	}

	var text string
	for _, block := range decoded.Content {
		if block.Type == "text" || block.Type == "" {
			text += block.Text
		}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Completion{}, ErrEmptyCompletion
	}

	usage := Usage{
		InputTokens:  decoded.Usage.InputTokens,
		OutputTokens: decoded.Usage.OutputTokens,
	}
	usage.TotalTokens = usage.InputTokens + usage.OutputTokens
	return Completion{Text: text, Usage: usage}, nil
}

func (c *anthropicClient) Stream(ctx context.Context, req Request) (io.ReadCloser, error) {
	resp, err := c.send(ctx, c.streamClient, req, true)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (c *anthropicClient) send(ctx context.Context, client *http.Client, req Request, stream bool) (*http.Response, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		// The messages API rejects requests without a token budget.
		maxTokens = 4096
	}

	payload := anthropicRequest{
		Model:       c.cfg.Model,
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
		System:      req.System,
		Messages:    req.Messages,
		Stream:      stream,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("anthropic: marshal request: %w", err)
	}

	endpoint := anthropicDefaultEndpoint
	if base := strings.TrimSpace(c.cfg.BaseURL); base != "" {
		endpoint = strings.TrimSuffix(base, "/") + "/v1/messages"
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("anthropic: build request: %w", err)
	}
	httpReq.Header.Set("x-api-key", c.cfg.APIKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("anthropic: %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}
	return resp, nil
}
