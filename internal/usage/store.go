package usage

import (
	"context"
	"time"
)

// Store is the usage persistence interface. Handlers depend on it so
// tests can inject a mock.
type Store interface {
	RecordUsage(ctx context.Context, inputTokens, outputTokens, requestCount int64, usageDate time.Time) error
	GetDailyUsage(ctx context.Context, usageDate time.Time) (*DailyUsage, error)
	GetRecentUsage(ctx context.Context, days int) ([]DailyUsage, error)
	GetTotalUsage(ctx context.Context, days int) (DailyUsage, error)
	Close()
}

var _ Store = (*Repository)(nil)
