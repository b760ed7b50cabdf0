package metadata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/yx118/MoonTVPlus/internal/cache"
	"github.com/yx118/MoonTVPlus/internal/config"
)

// ErrTMDBNotConfigured is returned when no API key is set.
var ErrTMDBNotConfigured = errors.New("tmdb: api key not configured")

const (
	tmdbTimeout = 15 * time.Second
	tmdbMaxCast = 5
)

// TMDBDetail is a curated view of one TMDB title.
type TMDBDetail struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Original    string   `json:"original_title,omitempty"`
	Overview    string   `json:"overview,omitempty"`
	ReleaseDate string   `json:"release_date,omitempty"`
	Rating      float64  `json:"rating,omitempty"`
	Genres      []string `json:"genres,omitempty"`
	Directors   []string `json:"directors,omitempty"`
	Cast        []string `json:"cast,omitempty"`
}

// TMDBClient reads title details from the TMDB v3 API.
type TMDBClient struct {
	cfg        config.TMDBConfig
	httpClient *http.Client
	store      *cache.Store
}

// NewTMDBClient builds an international metadata client.
func NewTMDBClient(cfg config.TMDBConfig, store *cache.Store) *TMDBClient {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://api.themoviedb.org/3"
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	if strings.TrimSpace(cfg.Language) == "" {
		cfg.Language = "zh-CN"
	}
	return &TMDBClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: tmdbTimeout},
		store:      store,
	}
}

// Configured reports whether lookups can be made.
func (c *TMDBClient) Configured() bool {
	return c != nil && c.cfg.Configured()
}

type tmdbResponse struct {
	ID            int     `json:"id"`
	Title         string  `json:"title"`
	Name          string  `json:"name"`
	OriginalTitle string  `json:"original_title"`
	OriginalName  string  `json:"original_name"`
	Overview      string  `json:"overview"`
	ReleaseDate   string  `json:"release_date"`
	FirstAirDate  string  `json:"first_air_date"`
	VoteAverage   float64 `json:"vote_average"`
	Genres        []struct {
		Name string `json:"name"`
	} `json:"genres"`
	Credits struct {
		Cast []struct {
			Name string `json:"name"`
		} `json:"cast"`
		Crew []struct {
			Name string `json:"name"`
			Job  string `json:"job"`
		} `json:"crew"`
	} `json:"credits"`
}

// Detail fetches one title by kind ("movie" or "tv") and id.
func (c *TMDBClient) Detail(ctx context.Context, kind string, id int) (*TMDBDetail, error) {
	if !c.Configured() {
		return nil, ErrTMDBNotConfigured
	}
	if kind != "tv" {
		kind = "movie"
	}
	if id <= 0 {
		return nil, fmt.Errorf("tmdb: invalid id %d", id)
	}

	key := fmt.Sprintf("tmdb:detail:%s:%d:%s", kind, id, c.cfg.Language)
	if data, ok := c.store.Get(ctx, key); ok {
		var cached TMDBDetail
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	query := url.Values{}
	query.Set("api_key", c.cfg.APIKey)
	query.Set("language", c.cfg.Language)
	query.Set("append_to_response", "credits")
	endpoint := c.cfg.BaseURL + "/" + kind + "/" + strconv.Itoa(id) + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("tmdb: build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tmdb: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("tmdb: %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}

	var decoded tmdbResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("tmdb: decode response: %w", err)
	}

	result := normalizeTMDB(decoded)
	if data, err := json.Marshal(result); err == nil {
		c.store.Set(ctx, key, data)
	}
	return result, nil
}

func normalizeTMDB(r tmdbResponse) *TMDBDetail {
	detail := &TMDBDetail{
		ID:          r.ID,
		Title:       r.Title,
		Original:    r.OriginalTitle,
		Overview:    r.Overview,
		ReleaseDate: r.ReleaseDate,
		Rating:      r.VoteAverage,
	}
	if detail.Title == "" {
		detail.Title = r.Name
	}
	if detail.Original == "" {
		detail.Original = r.OriginalName
	}
	if detail.ReleaseDate == "" {
		detail.ReleaseDate = r.FirstAirDate
	}
	for _, genre := range r.Genres {
		detail.Genres = append(detail.Genres, genre.Name)
	}
	for _, member := range r.Credits.Crew {
		if member.Job == "Director" {
			detail.Directors = append(detail.Directors, member.Name)
		}
	}
	for _, member := range r.Credits.Cast {
		if len(detail.Cast) >= tmdbMaxCast {
			break
		}
		detail.Cast = append(detail.Cast, member.Name)
	}
	return detail
}
