package advisor

import (
	"github.com/yx118/MoonTVPlus/internal/intent"
	"github.com/yx118/MoonTVPlus/internal/metadata"
	"github.com/yx118/MoonTVPlus/internal/websearch"
)

// Availability reports which data sources can actually be called with
// the current configuration. The catalog source needs no key, so it is
// available whenever the service runs.
type Availability struct {
	WebSearch bool
	Douban    bool
	TMDB      bool
}

// Decision is the decision model's source-selection verdict.
type Decision struct {
	NeedWebSearch  bool   `json:"needWebSearch"`
	NeedDouban     bool   `json:"needDouban"`
	NeedTMDB       bool   `json:"needTMDB"`
	WebSearchQuery string `json:"webSearchQuery,omitempty"`
	DoubanQuery    string `json:"doubanQuery,omitempty"`
	Reasoning      string `json:"reasoning,omitempty"`
}

// Result is the orchestration outcome. SystemPrompt is never empty;
// the data fields are nil or empty for sources that were skipped or
// failed.
type Result struct {
	SystemPrompt string
	Intent       intent.Result
	WebSearch    []websearch.Result
	Catalog      *metadata.CatalogResult
	TMDB         *metadata.TMDBDetail
}

// plan is the resolved per-request fetch plan: intent-shaped flags
// plus decision-optimized query overrides.
type plan struct {
	intent.Result
	webQuery     string
	catalogQuery string
	fromDecision bool
}
