package metrics

import (
	"sync/atomic"
	"time"

	"github.com/yx118/MoonTVPlus/internal/llm"
)

// Data source labels used by the orchestrator.
const (
	SourceWebSearch = "websearch"
	SourceDouban    = "douban"
	SourceTMDB      = "tmdb"
)

type sourceCounters struct {
	calls  int64
	errors int64
}

// Store accumulates chat and provider call statistics.
type Store struct {
	chatRequests      int64
	chatErrors        int64
	decisionCalls     int64
	decisionFallbacks int64
	totalInputTokens  int64
	totalOutputTokens int64
	totalDurationMs   int64

	webSearch sourceCounters
	douban    sourceCounters
	tmdb      sourceCounters
}

// NewStore creates an empty statistics store.
func NewStore() *Store {
	return &Store{}
}

// RecordChat records one completed chat request.
func (s *Store) RecordChat(duration time.Duration, usage llm.Usage, failed bool) {
	atomic.AddInt64(&s.chatRequests, 1)
	if failed {
		atomic.AddInt64(&s.chatErrors, 1)
	}
	atomic.AddInt64(&s.totalInputTokens, int64(usage.InputTokens))
	atomic.AddInt64(&s.totalOutputTokens, int64(usage.OutputTokens))
	atomic.AddInt64(&s.totalDurationMs, duration.Milliseconds())
}

// RecordDecision records one decision-model call; fallback marks that
// the keyword classifier had to take over.
func (s *Store) RecordDecision(fallback bool) {
	atomic.AddInt64(&s.decisionCalls, 1)
	if fallback {
		atomic.AddInt64(&s.decisionFallbacks, 1)
	}
}

// RecordSource records one provider call outcome.
func (s *Store) RecordSource(source string, err error) {
	counters := s.counters(source)
	if counters == nil {
		return
	}
	atomic.AddInt64(&counters.calls, 1)
	if err != nil {
		atomic.AddInt64(&counters.errors, 1)
	}
}

func (s *Store) counters(source string) *sourceCounters {
	switch source {
	case SourceWebSearch:
		return &s.webSearch
	case SourceDouban:
		return &s.douban
	case SourceTMDB:
		return &s.tmdb
	default:
		return nil
	}
}

// UsageTotals returns the accumulated token usage.
func (s *Store) UsageTotals() llm.Usage {
	input := atomic.LoadInt64(&s.totalInputTokens)
	output := atomic.LoadInt64(&s.totalOutputTokens)
	return llm.Usage{
		InputTokens:  int(input),
		OutputTokens: int(output),
		TotalTokens:  int(input + output),
	}
}

// Snapshot returns a point-in-time view of all counters.
func (s *Store) Snapshot() map[string]float64 {
	chatRequests := atomic.LoadInt64(&s.chatRequests)
	durationMs := atomic.LoadInt64(&s.totalDurationMs)

	avgDuration := 0.0
	if chatRequests > 0 {
		avgDuration = float64(durationMs) / float64(chatRequests)
	}

	snapshot := map[string]float64{
		"chat_requests":       float64(chatRequests),
		"chat_errors":         float64(atomic.LoadInt64(&s.chatErrors)),
		"decision_calls":      float64(atomic.LoadInt64(&s.decisionCalls)),
		"decision_fallbacks":  float64(atomic.LoadInt64(&s.decisionFallbacks)),
		"total_input_tokens":  float64(atomic.LoadInt64(&s.totalInputTokens)),
		"total_output_tokens": float64(atomic.LoadInt64(&s.totalOutputTokens)),
		"total_duration_ms":   float64(durationMs),
		"avg_duration_ms":     avgDuration,
	}
	for _, source := range []string{SourceWebSearch, SourceDouban, SourceTMDB} {
		counters := s.counters(source)
		snapshot[source+"_calls"] = float64(atomic.LoadInt64(&counters.calls))
		snapshot[source+"_errors"] = float64(atomic.LoadInt64(&counters.errors))
	}
	return snapshot
}
