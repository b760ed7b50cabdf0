package usage

import (
	"context"
	"errors"
	"testing"
	"time"
)

type mockStore struct {
	input    int64
	output   int64
	requests int64
	calls    int
	err      error
	closed   bool
}

func (m *mockStore) RecordUsage(_ context.Context, inputTokens, outputTokens, requestCount int64, _ time.Time) error {
	m.calls++
	if m.err != nil {
		return m.err
	}
	m.input += inputTokens
	m.output += outputTokens
	m.requests += requestCount
	return nil
}

func (m *mockStore) GetDailyUsage(context.Context, time.Time) (*DailyUsage, error) { return nil, nil }
func (m *mockStore) GetRecentUsage(context.Context, int) ([]DailyUsage, error)    { return nil, nil }
func (m *mockStore) GetTotalUsage(context.Context, int) (DailyUsage, error)       { return DailyUsage{}, nil }
func (m *mockStore) Close()                                                       { m.closed = true }

func TestDailyUsageTotalTokens(t *testing.T) {
	d := DailyUsage{InputTokens: 10, OutputTokens: 5}
	if d.TotalTokens() != 15 {
		t.Fatalf("unexpected total: %d", d.TotalTokens())
	}
}

func TestTokenUsageTableName(t *testing.T) {
	if (TokenUsage{}).TableName() != "ai_token_usage" {
		t.Fatalf("unexpected table name")
	}
}

func TestRecorderRecords(t *testing.T) {
	store := &mockStore{}
	recorder := NewRecorder(store, nil)

	recorder.Record(context.Background(), 12, 34)
	if store.input != 12 || store.output != 34 || store.requests != 1 {
		t.Fatalf("unexpected store state: %+v", store)
	}
}

func TestRecorderSkipsEmptyUsage(t *testing.T) {
	store := &mockStore{}
	recorder := NewRecorder(store, nil)

	recorder.Record(context.Background(), 0, 0)
	if store.calls != 0 {
		t.Fatalf("empty usage must not hit the store")
	}
}

func TestRecorderSwallowsErrors(t *testing.T) {
	store := &mockStore{err: errors.New("db down")}
	recorder := NewRecorder(store, nil)

	// Must not panic or surface the error.
	recorder.Record(context.Background(), 1, 1)
	if store.calls != 1 {
		t.Fatalf("expected one attempted write")
	}
}

func TestRecorderNilSafe(t *testing.T) {
	var recorder *Recorder
	recorder.Record(context.Background(), 1, 1)
	recorder.Close()

	recorder = NewRecorder(nil, nil)
	recorder.Record(context.Background(), 1, 1)
	recorder.Close()
}

func TestRecorderClose(t *testing.T) {
	store := &mockStore{}
	recorder := NewRecorder(store, nil)
	recorder.Close()
	if !store.closed {
		t.Fatalf("close must reach the store")
	}
}

func TestRepositoryUnconfigured(t *testing.T) {
	repo := NewRepository(nil, nil)
	if err := repo.RecordUsage(context.Background(), 1, 1, 1, time.Time{}); err == nil {
		t.Fatalf("expected error without configuration")
	}
}
