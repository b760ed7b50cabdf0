package websearch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
)

const serperEndpoint = "https://google.serper.dev/search"

type serperClient struct {
	apiKey     string
	maxResults int
	httpClient *http.Client
	endpoint   string
}

func (c *serperClient) Name() string { return "serper" }

type serperRequest struct {
	Query string `json:"q"`
	Num   int    `json:"num"`
}

type serperResponse struct {
	Organic []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic"`
}

func (c *serperClient) Search(ctx context.Context, query string) ([]Result, error) {
	payload, err := json.Marshal(serperRequest{Query: query, Num: c.maxResults})
	if err != nil {
		return nil, fmt.Errorf("serper: marshal request: %w", err)
	}

	endpoint := c.endpoint
	if endpoint == "" {
		endpoint = serperEndpoint
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("serper: build request: %w", err)
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("serper: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("serper: %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}

	var decoded serperResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("serper: decode response: %w", err)
	}

	results := make([]Result, 0, len(decoded.Organic))
	for _, item := range decoded.Organic {
		if len(results) >= c.maxResults {
			break
		}
		results = append(results, Result{Title: item.Title, URL: item.Link, Content: item.Snippet})
	}
	return results, nil
}
