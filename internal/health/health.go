package health

import (
	"context"
	"time"

	"github.com/yx118/MoonTVPlus/internal/cache"
	"github.com/yx118/MoonTVPlus/internal/config"
)

var startTime = time.Now()

const backendCheckTimeout = 2 * time.Second

// Pinger verifies connectivity to a backing service.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Component is one health check entry.
type Component struct {
	Status string         `json:"status"`
	Detail map[string]any `json:"detail"`
}

// Response is the health endpoint body.
type Response struct {
	Status     string               `json:"status"`
	Components map[string]Component `json:"components"`
}

// Checker collects service health over the long-lived backends built
// at startup.
type Checker struct {
	cfg   *config.Config
	cache *cache.Store
	db    Pinger
}

// NewChecker builds a health checker. db is nil when usage accounting
// is not configured.
func NewChecker(cfg *config.Config, cacheStore *cache.Store, db Pinger) *Checker {
	return &Checker{cfg: cfg, cache: cacheStore, db: db}
}

// Collect gathers service health. deepChecks additionally pings the
// cache and database backends.
func (c *Checker) Collect(ctx context.Context, deepChecks bool) Response {
	if ctx == nil {
		ctx = context.Background()
	}

	components := map[string]Component{
		"app":      buildAppStatus(),
		"ai":       buildAIStatus(c.cfg),
		"sources":  buildSourcesStatus(c.cfg),
		"cache":    c.buildCacheStatus(ctx, deepChecks),
		"database": c.buildDatabaseStatus(ctx, deepChecks),
	}

	overall := "ok"
	for _, component := range components {
		if component.Status != "ok" {
			overall = "degraded"
			break
		}
	}

	return Response{Status: overall, Components: components}
}

func buildAppStatus() Component {
	return Component{
		Status: "ok",
		Detail: map[string]any{
			"uptime_seconds": int(time.Since(startTime).Seconds()),
		},
	}
}

func buildAIStatus(cfg *config.Config) Component {
	enabled := false
	configured := false
	model := ""
	decisionEnabled := false

	if cfg != nil {
		enabled = cfg.AI.Enabled
		configured = cfg.AI.LLM.Configured()
		model = cfg.AI.LLM.Model
		decisionEnabled = cfg.Decision.Enabled
	}

	status := "ok"
	if enabled && !configured {
		status = "degraded"
	}

	return Component{
		Status: status,
		Detail: map[string]any{
			"enabled":          enabled,
			"configured":       configured,
			"model":            model,
			"decision_enabled": decisionEnabled,
		},
	}
}

func buildSourcesStatus(cfg *config.Config) Component {
	webSearchProvider := ""
	webSearchReady := false
	tmdbReady := false
	doubanBase := ""

	if cfg != nil {
		webSearchProvider = cfg.WebSearch.Provider
		webSearchReady = cfg.WebSearch.Configured()
		tmdbReady = cfg.TMDB.Configured()
		doubanBase = cfg.Douban.BaseURL
	}

	// Douban needs no key, so the sources component is informational
	// and never degrades overall health.
	return Component{
		Status: "ok",
		Detail: map[string]any{
			"websearch_provider": webSearchProvider,
			"websearch_ready":    webSearchReady,
			"tmdb_ready":         tmdbReady,
			"douban_base_url":    doubanBase,
		},
	}
}

func (c *Checker) buildCacheStatus(ctx context.Context, deepChecks bool) Component {
	enabled := c.cfg != nil && c.cfg.Cache.Enabled
	connected := false
	checkErr := ""

	if enabled && deepChecks {
		checkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), backendCheckTimeout)
		defer cancel()

		if err := c.cache.Ping(checkCtx); err != nil {
			checkErr = err.Error()
		} else {
			connected = true
		}
	}

	status := "ok"
	if enabled && deepChecks && !connected {
		status = "degraded"
	}

	detail := map[string]any{
		"enabled":      enabled,
		"connected":    connected,
		"backend":      c.cache.Backend(),
		"deep_checked": deepChecks,
	}
	if checkErr != "" {
		detail["error"] = checkErr
	}

	return Component{Status: status, Detail: detail}
}

func (c *Checker) buildDatabaseStatus(ctx context.Context, deepChecks bool) Component {
	enabled := c.cfg != nil && c.cfg.Database.Enabled()
	connected := false
	checkErr := ""

	if enabled && deepChecks {
		checkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), backendCheckTimeout)
		defer cancel()

		if c.db == nil {
			checkErr = "usage store not wired"
		} else if err := c.db.Ping(checkCtx); err != nil {
			checkErr = err.Error()
		} else {
			connected = true
		}
	}

	status := "ok"
	if enabled && deepChecks && !connected {
		status = "degraded"
	}

	detail := map[string]any{
		"enabled":      enabled,
		"connected":    connected,
		"deep_checked": deepChecks,
	}
	if checkErr != "" {
		detail["error"] = checkErr
	}

	return Component{Status: status, Detail: detail}
}
