package usage

import "time"

// TokenUsage is the DB model holding per-day token usage aggregates.
type TokenUsage struct {
	ID           int64     `gorm:"column:id;primaryKey"`
	UsageDate    time.Time `gorm:"column:usage_date;type:date"`
	InputTokens  int64     `gorm:"column:input_tokens"`
	OutputTokens int64     `gorm:"column:output_tokens"`
	RequestCount int64     `gorm:"column:request_count"`
	Version      int64     `gorm:"column:version"`
}

// TableName returns the table name used by GORM.
func (TokenUsage) TableName() string {
	return "ai_token_usage"
}

// DailyUsage is the per-day usage view returned by queries.
type DailyUsage struct {
	UsageDate    time.Time
	InputTokens  int64
	OutputTokens int64
	RequestCount int64
}

// TotalTokens returns the input plus output token sum.
func (d DailyUsage) TotalTokens() int64 {
	return d.InputTokens + d.OutputTokens
}
