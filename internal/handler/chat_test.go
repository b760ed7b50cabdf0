package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yx118/MoonTVPlus/internal/advisor"
	"github.com/yx118/MoonTVPlus/internal/config"
	"github.com/yx118/MoonTVPlus/internal/intent"
	"github.com/yx118/MoonTVPlus/internal/llm"
	"github.com/yx118/MoonTVPlus/internal/metrics"
	"github.com/yx118/MoonTVPlus/internal/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testJWTSecret = "chat-test-secret"

type stubOrchestrator struct {
	result  advisor.Result
	message string
	vctx    *intent.VideoContext
	calls   int
}

func (s *stubOrchestrator) Orchestrate(_ context.Context, message string, vctx *intent.VideoContext) advisor.Result {
	s.calls++
	s.message = message
	s.vctx = vctx
	return s.result
}

type streamClient struct {
	kind     string
	body     string
	err      error
	captured llm.Request
}

func (c *streamClient) Kind() string {
	if c.kind == "" {
		return config.ProviderOpenAI
	}
	return c.kind
}

func (c *streamClient) Complete(_ context.Context, _ llm.Request) (llm.Completion, error) {
	return llm.Completion{}, errors.New("not implemented")
}

func (c *streamClient) Stream(_ context.Context, req llm.Request) (io.ReadCloser, error) {
	c.captured = req
	if c.err != nil {
		return nil, c.err
	}
	return io.NopCloser(strings.NewReader(c.body)), nil
}

func chatConfig() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{JWTSecret: testJWTSecret},
		AI: config.AIConfig{
			Enabled: true,
			LLM: config.LLMConfig{
				Provider: config.ProviderOpenAI,
				APIKey:   "k",
				BaseURL:  "https://api.example.com/v1",
				Model:    "test-model",
			},
		},
	}
}

func newChatRouter(cfg *config.Config, orch Orchestrator, client llm.Client) *gin.Engine {
	router := gin.New()
	router.Use(middleware.SessionAuth(cfg.Auth.JWTSecret))
	handler := NewChatHandler(cfg, orch, client, metrics.NewStore(), nil, nil)
	handler.RegisterRoutes(router)
	return router
}

func authToken(t *testing.T, role string) string {
	t.Helper()
	token, err := middleware.GenerateToken(testJWTSecret, "tester", role, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return token
}

func postChat(router *gin.Engine, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/ai/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestChatRequiresAuth(t *testing.T) {
	router := newChatRouter(chatConfig(), &stubOrchestrator{}, &streamClient{})

	w := postChat(router, "", `{"message":"hi"}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestChatForbiddenForRegularUsers(t *testing.T) {
	orch := &stubOrchestrator{}
	router := newChatRouter(chatConfig(), orch, &streamClient{})

	w := postChat(router, authToken(t, middleware.RoleUser), `{"message":"hi"}`)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
	if orch.calls != 0 {
		t.Fatalf("orchestrator must not run before the gates pass")
	}
}

func TestChatAllowUsersFlag(t *testing.T) {
	cfg := chatConfig()
	cfg.Auth.AllowUsers = true
	client := &streamClient{body: "data: {\"choices\":[{\"delta\":{\"content\":\"ok\"}}]}\n\ndata: [DONE]\n\n"}
	router := newChatRouter(cfg, &stubOrchestrator{result: advisor.Result{SystemPrompt: "p"}}, client)

	w := postChat(router, authToken(t, middleware.RoleUser), `{"message":"hi"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestChatFeatureDisabled(t *testing.T) {
	cfg := chatConfig()
	cfg.AI.Enabled = false
	router := newChatRouter(cfg, &stubOrchestrator{}, &streamClient{})

	w := postChat(router, authToken(t, middleware.RoleAdmin), `{"message":"hi"}`)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "FEATURE_DISABLED") {
		t.Fatalf("expected feature disabled code, got %s", w.Body.String())
	}
}

func TestChatBadConfig(t *testing.T) {
	cfg := chatConfig()
	cfg.AI.LLM.APIKey = ""
	router := newChatRouter(cfg, &stubOrchestrator{}, nil)

	w := postChat(router, authToken(t, middleware.RoleAdmin), `{"message":"hi"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "BAD_CONFIG") {
		t.Fatalf("expected bad config code, got %s", w.Body.String())
	}
}

func TestChatBlankMessage(t *testing.T) {
	router := newChatRouter(chatConfig(), &stubOrchestrator{}, &streamClient{})

	w := postChat(router, authToken(t, middleware.RoleAdmin), `{"message":"   "}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestChatStreamsNormalizedEvents(t *testing.T) {
	upstream := strings.Join([]string{
		`data: {"choices":[{"delta":{"content":"你好"}}]}`,
		"",
		`data: {"choices":[{"delta":{"content":"，世界"}}]}`,
		"",
		"data: [DONE]",
		"",
	}, "\n")
	client := &streamClient{body: upstream}
	orch := &stubOrchestrator{result: advisor.Result{SystemPrompt: "system prompt"}}
	router := newChatRouter(chatConfig(), orch, client)

	w := postChat(router, authToken(t, middleware.RoleAdmin), `{"message":"推荐电影","context":{"title":"黑客帝国","tmdb_id":603,"type":"movie"}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("unexpected content type: %s", got)
	}
	if got := w.Header().Get("X-Accel-Buffering"); got != "no" {
		t.Fatalf("expected buffering disabled, got %q", got)
	}

	want := "data: {\"text\":\"你好\"}\n\ndata: {\"text\":\"，世界\"}\n\ndata: [DONE]\n\n"
	if w.Body.String() != want {
		t.Fatalf("unexpected body:\n%s", w.Body.String())
	}

	if orch.message != "推荐电影" {
		t.Fatalf("orchestrator got message %q", orch.message)
	}
	if orch.vctx == nil || orch.vctx.TMDBID != 603 {
		t.Fatalf("video context not threaded: %+v", orch.vctx)
	}
	if client.captured.System != "system prompt" {
		t.Fatalf("system prompt not threaded: %q", client.captured.System)
	}
	last := client.captured.Messages[len(client.captured.Messages)-1]
	if last.Role != llm.RoleUser || last.Content != "推荐电影" {
		t.Fatalf("unexpected final message: %+v", last)
	}
}

func TestChatUpstreamOpenError(t *testing.T) {
	client := &streamClient{err: errors.New("connect refused")}
	router := newChatRouter(chatConfig(), &stubOrchestrator{result: advisor.Result{SystemPrompt: "p"}}, client)

	w := postChat(router, authToken(t, middleware.RoleAdmin), `{"message":"hi"}`)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "LLM_ERROR") {
		t.Fatalf("expected llm error code, got %s", w.Body.String())
	}
}

func TestChatHistoryThreaded(t *testing.T) {
	client := &streamClient{body: "data: [DONE]\n\n"}
	router := newChatRouter(chatConfig(), &stubOrchestrator{result: advisor.Result{SystemPrompt: "p"}}, client)

	body := `{"message":"继续","history":[` +
		`{"role":"user","content":"第一问"},` +
		`{"role":"assistant","content":"第一答"},` +
		`{"role":"system","content":"dropped"},` +
		`{"role":"user","content":"  "}]}`
	w := postChat(router, authToken(t, middleware.RoleAdmin), body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	got := client.captured.Messages
	if len(got) != 3 {
		t.Fatalf("expected 3 messages, got %d: %+v", len(got), got)
	}
	if got[0].Content != "第一问" || got[1].Content != "第一答" || got[2].Content != "继续" {
		t.Fatalf("unexpected messages: %+v", got)
	}
}

func TestBuildMessagesCapsHistory(t *testing.T) {
	history := make([]llm.Message, 0, maxHistoryMessages+10)
	for i := 0; i < maxHistoryMessages+10; i++ {
		history = append(history, llm.Message{Role: llm.RoleUser, Content: "x"})
	}

	got := buildMessages(history, "final")
	if len(got) != maxHistoryMessages+1 {
		t.Fatalf("expected %d messages, got %d", maxHistoryMessages+1, len(got))
	}
	if got[len(got)-1].Content != "final" {
		t.Fatalf("final message missing")
	}
}

func TestEstimateTokens(t *testing.T) {
	if got := estimateTokens(""); got != 0 {
		t.Fatalf("empty string should cost nothing, got %d", got)
	}
	if got := estimateTokens("abcd"); got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}
	if got := estimateTokens(strings.Repeat("字", 8)); got != 3 {
		t.Fatalf("runes, not bytes, drive the estimate: got %d", got)
	}
}
