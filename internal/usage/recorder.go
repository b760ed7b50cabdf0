package usage

import (
	"context"
	"log/slog"
	"time"
)

// Recorder writes per-request token usage. A nil store turns it into
// a no-op so chat handling never depends on DB availability.
type Recorder struct {
	store  Store
	logger *slog.Logger
}

// NewRecorder builds a usage recorder over a store; store may be nil.
func NewRecorder(store Store, logger *slog.Logger) *Recorder {
	return &Recorder{store: store, logger: logger}
}

// Record accumulates one request's token usage. Failures are logged
// and swallowed.
func (r *Recorder) Record(ctx context.Context, inputTokens, outputTokens int64) {
	if r == nil || r.store == nil {
		return
	}
	if inputTokens <= 0 && outputTokens <= 0 {
		return
	}

	if err := r.store.RecordUsage(ctx, inputTokens, outputTokens, 1, time.Time{}); err != nil {
		if r.logger != nil {
			r.logger.Warn("usage_db_save_failed", "err", err)
		}
	}
}

// Close releases the underlying store.
func (r *Recorder) Close() {
	if r == nil || r.store == nil {
		return
	}
	r.store.Close()
}
