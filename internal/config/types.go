package config

import "strings"

// ProviderOpenAI and ProviderAnthropic are the supported LLM wire protocols.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Host         string
	Port         int
	HTTP2Enabled bool
}

// AuthConfig holds auth token settings.
type AuthConfig struct {
	JWTSecret string
	// AllowUsers permits non-admin accounts to use the AI chat feature.
	AllowUsers bool
}

// LLMConfig holds settings for one LLM provider endpoint.
type LLMConfig struct {
	Provider       string
	APIKey         string
	BaseURL        string
	Model          string
	Temperature    float64
	MaxTokens      int
	TimeoutSeconds int
}

// Configured reports whether the endpoint is usable.
func (l LLMConfig) Configured() bool {
	return strings.TrimSpace(l.APIKey) != "" && strings.TrimSpace(l.Model) != ""
}

// AIConfig holds the user-facing chat model settings.
type AIConfig struct {
	Enabled bool
	LLM     LLMConfig
}

// DecisionConfig holds the data-source decision model settings.
// Blank fields fall back to the chat model's endpoint, so a single
// configured provider serves both roles.
type DecisionConfig struct {
	Enabled   bool
	LLM       LLMConfig
	MaxTokens int
}

// Resolve fills blank decision fields from the chat model config.
// Temperature is pinned to zero for deterministic source selection.
func (d DecisionConfig) Resolve(chat LLMConfig) LLMConfig {
	resolved := d.LLM
	if resolved.Provider == "" {
		resolved.Provider = chat.Provider
	}
	if resolved.APIKey == "" {
		resolved.APIKey = chat.APIKey
	}
	if resolved.BaseURL == "" {
		resolved.BaseURL = chat.BaseURL
	}
	if resolved.Model == "" {
		resolved.Model = chat.Model
	}
	if resolved.TimeoutSeconds == 0 {
		resolved.TimeoutSeconds = chat.TimeoutSeconds
	}
	resolved.Temperature = 0
	resolved.MaxTokens = d.MaxTokens
	if resolved.MaxTokens <= 0 {
		resolved.MaxTokens = 512
	}
	return resolved
}

// WebSearchConfig holds web search provider settings.
type WebSearchConfig struct {
	Provider   string
	APIKey     string
	MaxResults int
}

// Configured reports whether a search call can be made.
func (w WebSearchConfig) Configured() bool {
	return strings.TrimSpace(w.Provider) != "" && strings.TrimSpace(w.APIKey) != ""
}

// DoubanConfig holds catalog metadata source settings.
// Douban is a direct server-side call and needs no API key.
type DoubanConfig struct {
	BaseURL string
}

// TMDBConfig holds international metadata source settings.
type TMDBConfig struct {
	APIKey   string
	BaseURL  string
	Language string
}

// Configured reports whether TMDB lookups can be made.
func (t TMDBConfig) Configured() bool {
	return strings.TrimSpace(t.APIKey) != ""
}

// CacheConfig holds metadata cache settings.
type CacheConfig struct {
	Enabled    bool
	URL        string
	TTLSeconds int
	MaxSize    int
}

// DatabaseConfig holds usage accounting DB settings.
type DatabaseConfig struct {
	Host                   string
	Port                   int
	Name                   string
	User                   string
	Password               string
	MinPool                int
	MaxPool                int
	ConnMaxLifetimeMinutes int
	ConnMaxIdleTimeMinutes int
}

// Enabled reports whether usage accounting is configured.
func (d DatabaseConfig) Enabled() bool {
	return strings.TrimSpace(d.Host) != "" && strings.TrimSpace(d.Name) != ""
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level      string
	LogDir     string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// HTTPRateLimitConfig holds request limiting settings.
type HTTPRateLimitConfig struct {
	RequestsPerMinute int
	CacheSize         int
	CacheTTLSeconds   int
}

// TelemetryConfig holds OpenTelemetry settings.
type TelemetryConfig struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	Environment    string
	OTLPEndpoint   string
	OTLPInsecure   bool
	SampleRate     float64
}

// Config is the application configuration.
type Config struct {
	HTTP          HTTPConfig
	Auth          AuthConfig
	AI            AIConfig
	Decision      DecisionConfig
	WebSearch     WebSearchConfig
	Douban        DoubanConfig
	TMDB          TMDBConfig
	Cache         CacheConfig
	Database      DatabaseConfig
	Logging       LoggingConfig
	HTTPRateLimit HTTPRateLimitConfig
	Telemetry     TelemetryConfig
}
