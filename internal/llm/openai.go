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

// openaiClient speaks the OpenAI-compatible chat/completions protocol.
// BaseURL points at the provider root, e.g. "https://api.openai.com/v1".
type openaiClient struct {
	cfg        config.LLMConfig
	httpClient *http.Client
	// streamClient carries no total timeout; a chat stream may
	// legitimately outlive the non-streaming budget.
	streamClient *http.Client
}

func newOpenAIClient(cfg config.LLMConfig, httpClient *http.Client) *openaiClient {
	return &openaiClient{
		cfg:          cfg,
		httpClient:   httpClient,
		streamClient: &http.Client{},
	}
}

func (c *openaiClient) Kind() string {
	return config.ProviderOpenAI
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiRequest struct {
	Model          string          `json:"model"`
	Messages       []openaiMessage `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Stream         bool            `json:"stream,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type openaiResponse struct {
	Choices []struct {
		Message openaiMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

func (c *openaiClient) Complete(ctx context.Context, req Request) (Completion, error) {
	resp, err := c.send(ctx, c.httpClient, req, false)
	if err != nil {
		return Completion{}, err
	}
	defer resp.Body.Close()

	var decoded openaiResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Completion{}, fmt.Errorf("openai: decode response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return Completion{}, ErrEmptyCompletion
	}

	return Completion{
		Text: strings.TrimSpace(decoded.Choices[0].Message.Content),
		Usage: Usage{
			InputTokens:  decoded.Usage.PromptTokens,
			OutputTokens: decoded.Usage.CompletionTokens,
			TotalTokens:  decoded.Usage.TotalTokens,
		},
	}, nil
}

func (c *openaiClient) Stream(ctx context.Context, req Request) (io.ReadCloser, error) {
	resp, err := c.send(ctx, c.streamClient, req, true)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (c *openaiClient) send(ctx context.Context, client *http.Client, req Request, stream bool) (*http.Response, error) {
	messages := make([]openaiMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, openaiMessage{Role: RoleSystem, Content: req.System})
	}
	for _, msg := range req.Messages {
		messages = append(messages, openaiMessage{Role: msg.Role, Content: msg.Content})
	}

	payload := openaiRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Stream:      stream,
	}
	if req.JSONOnly {
		payload.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("openai: marshal request: %w", err)
	}

	endpoint := strings.TrimSuffix(c.cfg.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("openai: build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("openai: %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}
	return resp, nil
}
