package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/yx118/MoonTVPlus/internal/llm"
)

func TestStoreRecordsChat(t *testing.T) {
	store := NewStore()
	store.RecordChat(120*time.Millisecond, llm.Usage{InputTokens: 2, OutputTokens: 3}, false)
	store.RecordChat(50*time.Millisecond, llm.Usage{}, true)

	usage := store.UsageTotals()
	if usage.InputTokens != 2 || usage.OutputTokens != 3 || usage.TotalTokens != 5 {
		t.Fatalf("unexpected usage totals: %+v", usage)
	}

	snapshot := store.Snapshot()
	if snapshot["chat_requests"] != 2 {
		t.Fatalf("expected chat_requests 2, got %v", snapshot["chat_requests"])
	}
	if snapshot["chat_errors"] != 1 {
		t.Fatalf("expected chat_errors 1, got %v", snapshot["chat_errors"])
	}
	if snapshot["avg_duration_ms"] != 85 {
		t.Fatalf("expected avg_duration_ms 85, got %v", snapshot["avg_duration_ms"])
	}
}

func TestStoreRecordsSources(t *testing.T) {
	store := NewStore()
	store.RecordSource(SourceDouban, nil)
	store.RecordSource(SourceDouban, errors.New("boom"))
	store.RecordSource(SourceTMDB, nil)
	store.RecordSource("unknown", nil)

	snapshot := store.Snapshot()
	if snapshot["douban_calls"] != 2 || snapshot["douban_errors"] != 1 {
		t.Fatalf("unexpected douban counters: %v", snapshot)
	}
	if snapshot["tmdb_calls"] != 1 || snapshot["tmdb_errors"] != 0 {
		t.Fatalf("unexpected tmdb counters: %v", snapshot)
	}
	if snapshot["websearch_calls"] != 0 {
		t.Fatalf("unexpected websearch counters: %v", snapshot)
	}
}

func TestStoreRecordsDecision(t *testing.T) {
	store := NewStore()
	store.RecordDecision(false)
	store.RecordDecision(true)

	snapshot := store.Snapshot()
	if snapshot["decision_calls"] != 2 || snapshot["decision_fallbacks"] != 1 {
		t.Fatalf("unexpected decision counters: %v", snapshot)
	}
}
