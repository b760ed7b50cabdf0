package metadata

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/goccy/go-json"
	"golang.org/x/sync/singleflight"

	"github.com/yx118/MoonTVPlus/internal/cache"
	"github.com/yx118/MoonTVPlus/internal/config"
)

const (
	doubanTimeout    = 10 * time.Second
	doubanUserAgent  = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
	doubanMaxReviews = 2
)

// Subject is one entry from the popular chart.
type Subject struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Rate  string `json:"rate"`
	URL   string `json:"url"`
}

// Suggestion is one title-search hit.
type Suggestion struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	SubTitle string `json:"sub_title,omitempty"`
	Year     string `json:"year,omitempty"`
	Type     string `json:"type,omitempty"`
}

// Detail is a scraped subject page.
type Detail struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Year      string   `json:"year,omitempty"`
	Rating    string   `json:"rating,omitempty"`
	Genres    []string `json:"genres,omitempty"`
	Directors []string `json:"directors,omitempty"`
	Actors    []string `json:"actors,omitempty"`
	Summary   string   `json:"summary,omitempty"`
	Reviews   []string `json:"reviews,omitempty"`
}

// DoubanClient reads the public catalog endpoints. Responses go through
// the shared metadata cache; concurrent identical lookups collapse into
// one upstream call.
type DoubanClient struct {
	baseURL    string
	httpClient *http.Client
	store      *cache.Store
	group      singleflight.Group
	logger     *slog.Logger
}

// NewDoubanClient builds a catalog client.
func NewDoubanClient(cfg config.DoubanConfig, store *cache.Store, logger *slog.Logger) *DoubanClient {
	base := strings.TrimSuffix(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = "https://movie.douban.com"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DoubanClient{
		baseURL:    base,
		httpClient: &http.Client{Timeout: doubanTimeout},
		store:      store,
		logger:     logger,
	}
}

// Popular returns the popularity chart for a media kind. kind is
// "movie" or "tv"; tag defaults to the site-wide hot list.
func (c *DoubanClient) Popular(ctx context.Context, kind, tag string, limit int) ([]Subject, error) {
	if kind != "tv" {
		kind = "movie"
	}
	if strings.TrimSpace(tag) == "" {
		tag = "热门"
	}
	if limit <= 0 {
		limit = 10
	}

	key := fmt.Sprintf("douban:popular:%s:%s:%d", kind, tag, limit)
	data, err := c.fetchCached(ctx, key, func(ctx context.Context) ([]byte, error) {
		endpoint := fmt.Sprintf("%s/j/search_subjects?type=%s&tag=%s&sort=recommend&page_limit=%d&page_start=0",
			c.baseURL, kind, url.QueryEscape(tag), limit)

		raw, err := c.get(ctx, endpoint)
		if err != nil {
			return nil, err
		}
		var decoded struct {
			Subjects []Subject `json:"subjects"`
		}
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return nil, fmt.Errorf("douban: decode popular: %w", err)
		}
		return json.Marshal(decoded.Subjects)
	})
	if err != nil {
		return nil, err
	}

	var subjects []Subject
	if err := json.Unmarshal(data, &subjects); err != nil {
		return nil, fmt.Errorf("douban: decode cached popular: %w", err)
	}
	return subjects, nil
}

// Search returns title suggestions for a query.
func (c *DoubanClient) Search(ctx context.Context, query string) ([]Suggestion, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	key := "douban:search:" + query
	data, err := c.fetchCached(ctx, key, func(ctx context.Context) ([]byte, error) {
		endpoint := fmt.Sprintf("%s/j/subject_suggest?q=%s", c.baseURL, url.QueryEscape(query))

		raw, err := c.get(ctx, endpoint)
		if err != nil {
			return nil, err
		}
		var decoded []Suggestion
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return nil, fmt.Errorf("douban: decode suggestions: %w", err)
		}
		return json.Marshal(decoded)
	})
	if err != nil {
		return nil, err
	}

	var suggestions []Suggestion
	if err := json.Unmarshal(data, &suggestions); err != nil {
		return nil, fmt.Errorf("douban: decode cached suggestions: %w", err)
	}
	return suggestions, nil
}

// Detail scrapes one subject page.
func (c *DoubanClient) Detail(ctx context.Context, id string) (*Detail, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("douban: empty subject id")
	}

	key := "douban:detail:" + id
	data, err := c.fetchCached(ctx, key, func(ctx context.Context) ([]byte, error) {
		raw, err := c.get(ctx, fmt.Sprintf("%s/subject/%s/", c.baseURL, id))
		if err != nil {
			return nil, err
		}
		detail, err := parseDetailPage(id, raw)
		if err != nil {
			return nil, err
		}
		return json.Marshal(detail)
	})
	if err != nil {
		return nil, err
	}

	var detail Detail
	if err := json.Unmarshal(data, &detail); err != nil {
		return nil, fmt.Errorf("douban: decode cached detail: %w", err)
	}
	return &detail, nil
}

// fetchCached is a read-through lookup with request collapsing.
func (c *DoubanClient) fetchCached(ctx context.Context, key string, fetch func(context.Context) ([]byte, error)) ([]byte, error) {
	if data, ok := c.store.Get(ctx, key); ok {
		return data, nil
	}

	value, err, _ := c.group.Do(key, func() (any, error) {
		if data, ok := c.store.Get(ctx, key); ok {
			return data, nil
		}
		data, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.store.Set(ctx, key, data)
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return value.([]byte), nil
}

func (c *DoubanClient) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("douban: build request: %w", err)
	}
	req.Header.Set("User-Agent", doubanUserAgent)
	req.Header.Set("Referer", c.baseURL+"/")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("douban: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("douban: %s", resp.Status)
	}
	// Subject pages run a few hundred KB; anything bigger is not a
	// page we want to parse.
	return io.ReadAll(io.LimitReader(resp.Body, 4<<20))
}

func parseDetailPage(id string, page []byte) (*Detail, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(page)))
	if err != nil {
		return nil, fmt.Errorf("douban: parse detail page: %w", err)
	}

	detail := &Detail{ID: id}
	detail.Title = strings.TrimSpace(doc.Find(`span[property="v:itemreviewed"]`).First().Text())
	detail.Rating = strings.TrimSpace(doc.Find("strong.rating_num").First().Text())
	detail.Summary = normalizeWhitespace(doc.Find(`span[property="v:summary"]`).First().Text())

	if year := strings.TrimSpace(doc.Find("span.year").First().Text()); year != "" {
		detail.Year = strings.Trim(year, "()")
	}

	doc.Find(`span[property="v:genre"]`).Each(func(_ int, s *goquery.Selection) {
		if genre := strings.TrimSpace(s.Text()); genre != "" {
			detail.Genres = append(detail.Genres, genre)
		}
	})
	doc.Find(`a[rel="v:directedBy"]`).Each(func(_ int, s *goquery.Selection) {
		if name := strings.TrimSpace(s.Text()); name != "" {
			detail.Directors = append(detail.Directors, name)
		}
	})
	doc.Find(`a[rel="v:starring"]`).Each(func(_ int, s *goquery.Selection) {
		if name := strings.TrimSpace(s.Text()); name != "" && len(detail.Actors) < 8 {
			detail.Actors = append(detail.Actors, name)
		}
	})
	doc.Find(".comment-item .comment p .short").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if review := normalizeWhitespace(s.Text()); review != "" {
			detail.Reviews = append(detail.Reviews, review)
		}
		return len(detail.Reviews) < doubanMaxReviews
	})

	if detail.Title == "" {
		return nil, fmt.Errorf("douban: subject %s has no parsable title", id)
	}
	return detail, nil
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
