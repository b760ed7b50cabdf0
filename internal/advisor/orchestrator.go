package advisor

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/yx118/MoonTVPlus/internal/config"
	"github.com/yx118/MoonTVPlus/internal/intent"
	"github.com/yx118/MoonTVPlus/internal/llm"
	"github.com/yx118/MoonTVPlus/internal/metadata"
	"github.com/yx118/MoonTVPlus/internal/metrics"
	"github.com/yx118/MoonTVPlus/internal/prompt"
	"github.com/yx118/MoonTVPlus/internal/toon"
	"github.com/yx118/MoonTVPlus/internal/websearch"
)

//go:embed prompts/*.yaml
var promptFS embed.FS

const (
	maxWebResults   = 5
	maxCatalogItems = 10
	tmdbCallTimeout = 15 * time.Second
)

// Orchestrator resolves a per-request fetch plan, fans out the
// provider calls, and renders the evidence into one system prompt.
// Provider failures degrade to missing sections; Orchestrate itself
// never fails.
type Orchestrator struct {
	decider *Decider
	search  websearch.Client
	douban  *metadata.DoubanClient
	tmdb    *metadata.TMDBClient
	stats   *metrics.Store
	prompts map[string]map[string]string
	logger  *slog.Logger
}

// New builds the orchestrator. decisionClient is nil when the decision
// model is disabled; search is nil when no search provider is
// configured.
func New(
	cfg *config.Config,
	decisionClient llm.Client,
	search websearch.Client,
	douban *metadata.DoubanClient,
	tmdb *metadata.TMDBClient,
	stats *metrics.Store,
	logger *slog.Logger,
) (*Orchestrator, error) {
	prompts, err := prompt.LoadYAMLDir(promptFS, "prompts")
	if err != nil {
		return nil, fmt.Errorf("load advisor prompts: %w", err)
	}
	if strings.TrimSpace(prompts["chat"]["system"]) == "" {
		return nil, fmt.Errorf("chat system prompt is empty")
	}

	if logger == nil {
		logger = slog.Default()
	}
	if stats == nil {
		stats = metrics.NewStore()
	}

	var decider *Decider
	if decisionClient != nil {
		decider = NewDecider(decisionClient, cfg.Decision.MaxTokens, prompts["decision"], logger)
	}

	return &Orchestrator{
		decider: decider,
		search:  search,
		douban:  douban,
		tmdb:    tmdb,
		stats:   stats,
		prompts: prompts,
		logger:  logger,
	}, nil
}

// Availability reports which sources the current configuration can
// actually reach.
func (o *Orchestrator) Availability() Availability {
	return Availability{
		WebSearch: o.search != nil,
		Douban:    o.douban != nil,
		TMDB:      o.tmdb.Configured(),
	}
}

// Orchestrate turns one user message into gathered evidence plus the
// composed system prompt. The prompt is never empty: with no usable
// source it degrades to the persona preamble and the closing rules.
func (o *Orchestrator) Orchestrate(ctx context.Context, message string, vctx *intent.VideoContext) Result {
	fetchPlan := o.resolvePlan(ctx, message, vctx)
	result := Result{Intent: fetchPlan.Result}

	var (
		webResults []websearch.Result
		catalog    *metadata.CatalogResult
		tmdbDetail *metadata.TMDBDetail
	)

	workers := pool.New().WithMaxGoroutines(3)
	if fetchPlan.NeedWebSearch && o.search != nil {
		workers.Go(func() {
			webResults = o.fetchWebSearch(ctx, fetchPlan, message)
		})
	}
	if fetchPlan.NeedDouban && o.douban != nil {
		workers.Go(func() {
			catalog = o.fetchCatalog(ctx, fetchPlan, vctx)
		})
	}
	if o.shouldFetchTMDB(fetchPlan, vctx) {
		workers.Go(func() {
			tmdbDetail = o.fetchTMDB(ctx, vctx)
		})
	}
	workers.Wait()

	result.WebSearch = webResults
	if catalog != nil && !catalog.Empty() {
		result.Catalog = catalog
	}
	result.TMDB = tmdbDetail
	result.SystemPrompt = o.composePrompt(result, vctx)
	return result
}

// resolvePlan prefers the decision model when one is wired and falls
// back to the keyword classifier. Decision flags are intersected with
// true availability; a model claiming it needs a source we cannot
// reach does not get it called.
func (o *Orchestrator) resolvePlan(ctx context.Context, message string, vctx *intent.VideoContext) plan {
	fetchPlan := plan{Result: intent.Classify(message, vctx)}
	if o.decider == nil {
		return fetchPlan
	}

	avail := o.Availability()
	decision := o.decider.Decide(ctx, message, vctx, avail)
	if decision == nil {
		o.stats.RecordDecision(true)
		o.logger.Debug("decision_fallback_to_classifier")
		return fetchPlan
	}

	o.stats.RecordDecision(false)
	fetchPlan.NeedWebSearch = decision.NeedWebSearch && avail.WebSearch
	fetchPlan.NeedDouban = decision.NeedDouban && avail.Douban
	fetchPlan.NeedTMDB = decision.NeedTMDB && avail.TMDB
	fetchPlan.webQuery = strings.TrimSpace(decision.WebSearchQuery)
	fetchPlan.catalogQuery = strings.TrimSpace(decision.DoubanQuery)
	fetchPlan.fromDecision = true
	return fetchPlan
}

func (o *Orchestrator) fetchWebSearch(ctx context.Context, fetchPlan plan, message string) []websearch.Result {
	query := fetchPlan.webQuery
	if query == "" {
		query = message
	}

	results, err := o.search.Search(ctx, query)
	o.stats.RecordSource(metrics.SourceWebSearch, err)
	if err != nil {
		o.logger.Warn("websearch_failed", "provider", o.search.Name(), "err", err)
		return nil
	}
	return results
}

// fetchCatalog picks one lookup mode: by id, popular chart for
// recommendations, decision-rewritten query, then context title.
func (o *Orchestrator) fetchCatalog(ctx context.Context, fetchPlan plan, vctx *intent.VideoContext) *metadata.CatalogResult {
	switch {
	case vctx != nil && vctx.DoubanID > 0:
		detail, err := o.douban.Detail(ctx, strconv.Itoa(vctx.DoubanID))
		o.stats.RecordSource(metrics.SourceDouban, err)
		if err != nil {
			o.logger.Warn("douban_detail_failed", "id", vctx.DoubanID, "err", err)
			return nil
		}
		return &metadata.CatalogResult{Kind: metadata.CatalogDetail, Detail: detail}

	case fetchPlan.Type == intent.TypeRecommendation:
		kind := "movie"
		if fetchPlan.MediaType == intent.MediaTV {
			kind = "tv"
		}
		subjects, err := o.douban.Popular(ctx, kind, "", maxCatalogItems)
		o.stats.RecordSource(metrics.SourceDouban, err)
		if err != nil {
			o.logger.Warn("douban_popular_failed", "kind", kind, "err", err)
			return nil
		}
		return &metadata.CatalogResult{Kind: metadata.CatalogPopular, Popular: subjects}

	case fetchPlan.catalogQuery != "":
		return o.searchCatalog(ctx, fetchPlan.catalogQuery)

	case vctx != nil && strings.TrimSpace(vctx.Title) != "":
		return o.searchCatalog(ctx, vctx.Title)

	default:
		return nil
	}
}

func (o *Orchestrator) searchCatalog(ctx context.Context, query string) *metadata.CatalogResult {
	suggestions, err := o.douban.Search(ctx, query)
	o.stats.RecordSource(metrics.SourceDouban, err)
	if err != nil {
		o.logger.Warn("douban_search_failed", "query", query, "err", err)
		return nil
	}
	return &metadata.CatalogResult{Kind: metadata.CatalogSearch, Search: suggestions}
}

func (o *Orchestrator) shouldFetchTMDB(fetchPlan plan, vctx *intent.VideoContext) bool {
	return fetchPlan.NeedTMDB &&
		o.tmdb.Configured() &&
		vctx != nil && vctx.TMDBID > 0 && strings.TrimSpace(vctx.Type) != ""
}

func (o *Orchestrator) fetchTMDB(ctx context.Context, vctx *intent.VideoContext) *metadata.TMDBDetail {
	ctx, cancel := context.WithTimeout(ctx, tmdbCallTimeout)
	defer cancel()

	detail, err := o.tmdb.Detail(ctx, vctx.Type, vctx.TMDBID)
	o.stats.RecordSource(metrics.SourceTMDB, err)
	if err != nil {
		o.logger.Warn("tmdb_detail_failed", "id", vctx.TMDBID, "err", err)
		return nil
	}
	return detail
}

func (o *Orchestrator) composePrompt(result Result, vctx *intent.VideoContext) string {
	chat := o.prompts["chat"]
	sections := []string{strings.TrimSpace(chat["system"])}

	if len(result.WebSearch) > 0 {
		capped := result.WebSearch
		if len(capped) > maxWebResults {
			capped = capped[:maxWebResults]
		}
		sections = append(sections, "## Web Search Results\n"+toon.EncodeStruct(capped))
	}

	if result.Catalog != nil {
		sections = append(sections, "## Catalog Data\n"+encodeCatalog(result.Catalog))
	}

	if result.TMDB != nil {
		sections = append(sections, "## International Data\n"+toon.EncodeStruct(result.TMDB))
	}

	if vctx != nil && strings.TrimSpace(vctx.Title) != "" {
		sections = append(sections, "## Current Video\n"+toon.EncodeStruct(vctx))
	}

	if closing := strings.TrimSpace(chat["closing"]); closing != "" {
		sections = append(sections, closing)
	}
	return strings.Join(sections, "\n\n")
}

// encodeCatalog renders the catalog evidence with a curated field
// subset and a hard item cap.
func encodeCatalog(catalog *metadata.CatalogResult) string {
	switch catalog.Kind {
	case metadata.CatalogPopular:
		type row struct {
			Title string `json:"title"`
			Rate  string `json:"rate"`
		}
		rows := make([]row, 0, maxCatalogItems)
		for _, subject := range catalog.Popular {
			if len(rows) >= maxCatalogItems {
				break
			}
			rows = append(rows, row{Title: subject.Title, Rate: subject.Rate})
		}
		return toon.EncodeStruct(rows)

	case metadata.CatalogSearch:
		type row struct {
			Title string `json:"title"`
			Year  string `json:"year"`
			Type  string `json:"type"`
		}
		rows := make([]row, 0, maxCatalogItems)
		for _, suggestion := range catalog.Search {
			if len(rows) >= maxCatalogItems {
				break
			}
			rows = append(rows, row{Title: suggestion.Title, Year: suggestion.Year, Type: suggestion.Type})
		}
		return toon.EncodeStruct(rows)

	case metadata.CatalogDetail:
		return toon.EncodeStruct(catalog.Detail)

	default:
		return ""
	}
}
