package config

import (
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
)

func getEnvString(key string, def string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	return value
}

func getEnvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getEnvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getEnvBool(key string, def bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	value = strings.ToLower(value)
	return value == "true" || value == "1" || value == "yes" || value == "y"
}

func maskSecret(value string) string {
	if value == "" {
		return "<missing>"
	}
	if len(value) <= 4 {
		return strings.Repeat("*", len(value))
	}
	return value[:2] + "***" + value[len(value)-2:]
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func normalizeProvider(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case ProviderAnthropic, "claude":
		return ProviderAnthropic
	case ProviderOpenAI, "":
		return ProviderOpenAI
	default:
		return ProviderOpenAI
	}
}

// DSN returns the usage DB connection string.
func (d DatabaseConfig) DSN() string {
	host := net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
	u := &url.URL{
		Scheme: "postgresql",
		Host:   host,
		Path:   "/" + d.Name,
	}
	if d.Password == "" {
		u.User = url.User(d.User)
	} else {
		u.User = url.UserPassword(d.User, d.Password)
	}
	return u.String()
}

func buildConfig() *Config {
	chatLLM := LLMConfig{
		Provider:       normalizeProvider(os.Getenv("AI_PROVIDER")),
		APIKey:         getEnvString("AI_API_KEY", ""),
		BaseURL:        getEnvString("AI_BASE_URL", ""),
		Model:          getEnvString("AI_MODEL", ""),
		Temperature:    getEnvFloat("AI_TEMPERATURE", 0.7),
		MaxTokens:      getEnvInt("AI_MAX_TOKENS", 4096),
		TimeoutSeconds: getEnvInt("AI_TIMEOUT_SECONDS", 120),
	}

	return &Config{
		HTTP: HTTPConfig{
			Host:         getEnvString("HOST", "0.0.0.0"),
			Port:         getEnvInt("PORT", 8080),
			HTTP2Enabled: getEnvBool("HTTP2_ENABLED", false),
		},
		Auth: AuthConfig{
			JWTSecret:  getEnvString("AUTH_JWT_SECRET", ""),
			AllowUsers: getEnvBool("AI_CHAT_ALLOW_USERS", true),
		},
		AI: AIConfig{
			Enabled: getEnvBool("AI_ENABLED", true),
			LLM:     chatLLM,
		},
		Decision: DecisionConfig{
			Enabled: getEnvBool("DECISION_ENABLED", false),
			LLM: LLMConfig{
				Provider: strings.TrimSpace(os.Getenv("DECISION_PROVIDER")),
				APIKey:   getEnvString("DECISION_API_KEY", ""),
				BaseURL:  getEnvString("DECISION_BASE_URL", ""),
				Model:    getEnvString("DECISION_MODEL", ""),
			},
			MaxTokens: getEnvInt("DECISION_MAX_TOKENS", 512),
		},
		WebSearch: WebSearchConfig{
			Provider:   strings.ToLower(getEnvString("WEBSEARCH_PROVIDER", "")),
			APIKey:     getEnvString("WEBSEARCH_API_KEY", ""),
			MaxResults: getEnvInt("WEBSEARCH_MAX_RESULTS", 5),
		},
		Douban: DoubanConfig{
			BaseURL: getEnvString("DOUBAN_BASE_URL", "https://movie.douban.com"),
		},
		TMDB: TMDBConfig{
			APIKey:   getEnvString("TMDB_API_KEY", ""),
			BaseURL:  getEnvString("TMDB_BASE_URL", "https://api.themoviedb.org/3"),
			Language: getEnvString("TMDB_LANGUAGE", "zh-CN"),
		},
		Cache: CacheConfig{
			Enabled:    getEnvBool("CACHE_ENABLED", false),
			URL:        getEnvString("CACHE_URL", ""),
			TTLSeconds: getEnvInt("CACHE_TTL_SECONDS", 1800),
			MaxSize:    getEnvInt("CACHE_MAX_SIZE", 1024),
		},
		Database: DatabaseConfig{
			Host:                   getEnvString("DB_HOST", ""),
			Port:                   getEnvInt("DB_PORT", 5432),
			Name:                   getEnvString("DB_NAME", ""),
			User:                   getEnvString("DB_USER", "moontv"),
			Password:               getEnvString("DB_PASSWORD", ""),
			MinPool:                getEnvInt("DB_MIN_POOL", 1),
			MaxPool:                getEnvInt("DB_MAX_POOL", 5),
			ConnMaxLifetimeMinutes: getEnvInt("DB_CONN_MAX_LIFETIME_MINUTES", 30),
			ConnMaxIdleTimeMinutes: getEnvInt("DB_CONN_MAX_IDLE_MINUTES", 10),
		},
		Logging: LoggingConfig{
			Level:      getEnvString("LOG_LEVEL", "info"),
			LogDir:     getEnvString("LOG_DIR", ""),
			MaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 100),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
			MaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 14),
			Compress:   getEnvBool("LOG_COMPRESS", true),
		},
		HTTPRateLimit: HTTPRateLimitConfig{
			RequestsPerMinute: getEnvInt("HTTP_RATE_LIMIT_PER_MINUTE", 60),
			CacheSize:         getEnvInt("HTTP_RATE_LIMIT_CACHE_SIZE", 4096),
			CacheTTLSeconds:   getEnvInt("HTTP_RATE_LIMIT_CACHE_TTL_SECONDS", 120),
		},
		Telemetry: TelemetryConfig{
			Enabled:        getEnvBool("OTEL_ENABLED", false),
			ServiceName:    getEnvString("OTEL_SERVICE_NAME", "moontv-advisor"),
			ServiceVersion: getEnvString("OTEL_SERVICE_VERSION", "1.0.0"),
			Environment:    getEnvString("OTEL_ENVIRONMENT", "production"),
			OTLPEndpoint:   getEnvString("OTEL_EXPORTER_OTLP_ENDPOINT", "jaeger:4317"),
			OTLPInsecure:   getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),
			SampleRate:     getEnvFloat("OTEL_SAMPLE_RATE", 1.0),
		},
	}
}
