package config

import "testing"

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TEST_STR", " value ")
	if got := getEnvString("TEST_STR", "def"); got != "value" {
		t.Fatalf("unexpected string: %q", got)
	}
	if got := getEnvString("TEST_STR_MISSING", "def"); got != "def" {
		t.Fatalf("unexpected default: %q", got)
	}

	t.Setenv("TEST_INT", "42")
	if got := getEnvInt("TEST_INT", 1); got != 42 {
		t.Fatalf("unexpected int: %d", got)
	}
	t.Setenv("TEST_INT", "not-a-number")
	if got := getEnvInt("TEST_INT", 1); got != 1 {
		t.Fatalf("expected default on parse failure: %d", got)
	}

	t.Setenv("TEST_BOOL", "yes")
	if !getEnvBool("TEST_BOOL", false) {
		t.Fatalf("expected true for yes")
	}
	t.Setenv("TEST_BOOL", "off")
	if getEnvBool("TEST_BOOL", true) {
		t.Fatalf("expected false for off")
	}
}

func TestNormalizeProvider(t *testing.T) {
	cases := map[string]string{
		"":          ProviderOpenAI,
		"OpenAI":    ProviderOpenAI,
		"anthropic": ProviderAnthropic,
		"Claude":    ProviderAnthropic,
		"unknown":   ProviderOpenAI,
	}
	for input, expected := range cases {
		if got := normalizeProvider(input); got != expected {
			t.Fatalf("normalizeProvider(%q) = %q, want %q", input, got, expected)
		}
	}
}

func TestLLMConfigConfigured(t *testing.T) {
	cfg := LLMConfig{APIKey: "key", Model: "model"}
	if !cfg.Configured() {
		t.Fatalf("expected configured")
	}
	if (LLMConfig{APIKey: "key"}).Configured() {
		t.Fatalf("expected unconfigured without model")
	}
	if (LLMConfig{Model: "model"}).Configured() {
		t.Fatalf("expected unconfigured without key")
	}
}

func TestDecisionConfigResolve(t *testing.T) {
	chat := LLMConfig{
		Provider:       ProviderOpenAI,
		APIKey:         "chat-key",
		BaseURL:        "https://api.example.com/v1",
		Model:          "gpt-x",
		Temperature:    0.7,
		TimeoutSeconds: 60,
	}

	resolved := DecisionConfig{MaxTokens: 256}.Resolve(chat)
	if resolved.APIKey != "chat-key" || resolved.Model != "gpt-x" || resolved.BaseURL != chat.BaseURL {
		t.Fatalf("expected fallback to chat config: %+v", resolved)
	}
	if resolved.Temperature != 0 {
		t.Fatalf("decision temperature must be zero, got %v", resolved.Temperature)
	}
	if resolved.MaxTokens != 256 {
		t.Fatalf("unexpected max tokens: %d", resolved.MaxTokens)
	}

	own := DecisionConfig{
		LLM:       LLMConfig{Provider: ProviderAnthropic, APIKey: "own-key", Model: "claude-x"},
		MaxTokens: 0,
	}.Resolve(chat)
	if own.Provider != ProviderAnthropic || own.APIKey != "own-key" || own.Model != "claude-x" {
		t.Fatalf("expected own decision config to win: %+v", own)
	}
	if own.MaxTokens != 512 {
		t.Fatalf("expected default decision token budget, got %d", own.MaxTokens)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := buildConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}

	cfg.WebSearch.Provider = "bogus"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for unknown search provider")
	}
	cfg.WebSearch.Provider = "tavily"

	cfg.Cache.Enabled = true
	cfg.Cache.URL = ""
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for cache without url")
	}
}

func TestDatabaseDSN(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: 5432, Name: "moontv", User: "svc", Password: "p@ss"}
	dsn := db.DSN()
	if dsn != "postgresql://svc:p%40ss@db:5432/moontv" {
		t.Fatalf("unexpected dsn: %s", dsn)
	}
	if !db.Enabled() {
		t.Fatalf("expected enabled")
	}
	if (DatabaseConfig{}).Enabled() {
		t.Fatalf("expected disabled without host")
	}
}
