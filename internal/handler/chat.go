package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/yx118/MoonTVPlus/internal/advisor"
	"github.com/yx118/MoonTVPlus/internal/config"
	"github.com/yx118/MoonTVPlus/internal/handler/shared"
	"github.com/yx118/MoonTVPlus/internal/httperror"
	"github.com/yx118/MoonTVPlus/internal/intent"
	"github.com/yx118/MoonTVPlus/internal/llm"
	"github.com/yx118/MoonTVPlus/internal/metrics"
	"github.com/yx118/MoonTVPlus/internal/middleware"
	"github.com/yx118/MoonTVPlus/internal/usage"
)

const maxHistoryMessages = 20

// Orchestrator gathers evidence and composes the system prompt.
type Orchestrator interface {
	Orchestrate(ctx context.Context, message string, vctx *intent.VideoContext) advisor.Result
}

// ChatHandler serves the streaming AI chat endpoint.
type ChatHandler struct {
	cfg          *config.Config
	orchestrator Orchestrator
	client       llm.Client
	stats        *metrics.Store
	recorder     *usage.Recorder
	logger       *slog.Logger
}

// NewChatHandler builds the chat handler. client is nil when no chat
// model is configured; the config gate then rejects requests.
func NewChatHandler(
	cfg *config.Config,
	orchestrator Orchestrator,
	client llm.Client,
	stats *metrics.Store,
	recorder *usage.Recorder,
	logger *slog.Logger,
) *ChatHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if stats == nil {
		stats = metrics.NewStore()
	}
	return &ChatHandler{
		cfg:          cfg,
		orchestrator: orchestrator,
		client:       client,
		stats:        stats,
		recorder:     recorder,
		logger:       logger,
	}
}

// RegisterRoutes registers the chat route.
func (h *ChatHandler) RegisterRoutes(router *gin.Engine) {
	router.POST("/api/ai/chat", h.handleChat)
}

type chatRequest struct {
	Message string               `json:"message" binding:"required"`
	Context *intent.VideoContext `json:"context"`
	History []llm.Message        `json:"history"`
}

// handleChat runs the gate sequence, orchestrates evidence, and pipes
// the provider stream to the client in the normalized wire format. No
// provider call happens before every gate has passed.
func (h *ChatHandler) handleChat(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		shared.WriteError(c, httperror.NewUnauthorized(""))
		return
	}
	if !claims.Elevated() && !h.cfg.Auth.AllowUsers {
		shared.WriteError(c, httperror.NewForbidden("AI chat is limited to administrators"))
		return
	}
	if !h.cfg.AI.Enabled {
		shared.WriteError(c, httperror.NewFeatureDisabled("AI chat"))
		return
	}
	if h.client == nil || !h.cfg.AI.LLM.Configured() {
		shared.WriteError(c, httperror.NewBadConfig("chat model is not configured"))
		return
	}

	var req chatRequest
	if !shared.BindJSON(c, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		shared.WriteError(c, httperror.NewInvalidInput("message must not be empty"))
		return
	}

	startedAt := time.Now()
	ctx := c.Request.Context()

	result := h.orchestrator.Orchestrate(ctx, req.Message, req.Context)

	messages := buildMessages(req.History, req.Message)
	upstream, err := h.client.Stream(ctx, llm.Request{
		System:      result.SystemPrompt,
		Messages:    messages,
		Temperature: h.cfg.AI.LLM.Temperature,
		MaxTokens:   h.cfg.AI.LLM.MaxTokens,
	})
	if err != nil {
		h.logger.Error("chat_upstream_failed", "request_id", middleware.GetRequestID(c), "err", err)
		h.stats.RecordChat(time.Since(startedAt), llm.Usage{}, true)
		shared.WriteError(c, httperror.NewLLMError("chat model request failed", http.StatusBadGateway))
		return
	}
	defer upstream.Close()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	counted := &countingWriter{dst: c.Writer}
	streamErr := llm.NormalizeStream(counted, upstream, llm.ExtractorFor(h.client.Kind()), h.logger)

	estimated := llm.Usage{
		InputTokens:  estimateTokens(result.SystemPrompt) + estimateMessages(messages),
		OutputTokens: estimateTokens(counted.text.String()),
	}
	estimated.TotalTokens = estimated.InputTokens + estimated.OutputTokens

	h.stats.RecordChat(time.Since(startedAt), estimated, streamErr != nil)
	h.recorder.Record(context.WithoutCancel(ctx), int64(estimated.InputTokens), int64(estimated.OutputTokens))

	if streamErr != nil {
		// Headers are gone; terminating the connection mid-stream is
		// the only way to signal the fault. The client treats a
		// missing sentinel as an error.
		h.logger.Error("chat_stream_failed", "request_id", middleware.GetRequestID(c), "err", streamErr)
		c.Abort()
	}
}

// buildMessages keeps a bounded tail of sanitized history and appends
// the current user message.
func buildMessages(history []llm.Message, message string) []llm.Message {
	sanitized := make([]llm.Message, 0, len(history)+1)
	for _, item := range history {
		if item.Role != llm.RoleUser && item.Role != llm.RoleAssistant {
			continue
		}
		if strings.TrimSpace(item.Content) == "" {
			continue
		}
		sanitized = append(sanitized, item)
	}
	if len(sanitized) > maxHistoryMessages {
		sanitized = sanitized[len(sanitized)-maxHistoryMessages:]
	}
	return append(sanitized, llm.Message{Role: llm.RoleUser, Content: message})
}

// countingWriter tracks emitted bytes for usage estimation while
// passing flushes through to the response writer.
type countingWriter struct {
	dst  gin.ResponseWriter
	text strings.Builder
}

func (w *countingWriter) Write(p []byte) (int, error) {
	w.text.Write(p)
	return w.dst.Write(p)
}

func (w *countingWriter) Flush() {
	w.dst.Flush()
}

// estimateTokens approximates token counts for usage accounting when
// the streaming API reports none. Four characters per token is close
// enough for quota trend lines.
func estimateTokens(s string) int {
	if s == "" {
		return 0
	}
	return utf8.RuneCountInString(s)/4 + 1
}

func estimateMessages(messages []llm.Message) int {
	total := 0
	for _, m := range messages {
		total += estimateTokens(m.Content)
	}
	return total
}
