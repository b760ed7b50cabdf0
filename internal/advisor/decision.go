package advisor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/goccy/go-json"

	"github.com/yx118/MoonTVPlus/internal/intent"
	"github.com/yx118/MoonTVPlus/internal/llm"
	"github.com/yx118/MoonTVPlus/internal/prompt"
)

// Decider asks a language model which data sources to query. Any
// failure resolves to nil so the caller can fall back to the keyword
// classifier; it never errors out of Decide.
type Decider struct {
	client    llm.Client
	maxTokens int
	prompts   map[string]string
	logger    *slog.Logger
}

// NewDecider builds a decision adapter over an LLM client.
func NewDecider(client llm.Client, maxTokens int, prompts map[string]string, logger *slog.Logger) *Decider {
	if maxTokens <= 0 {
		maxTokens = 512
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Decider{client: client, maxTokens: maxTokens, prompts: prompts, logger: logger}
}

// Decide returns the model's source selection, or nil on any failure.
// Only available sources are offered; unavailable ones are spelled out
// as must-be-false in the instruction. No retries: one failed call
// immediately hands control back to the classifier path.
func (d *Decider) Decide(ctx context.Context, message string, vctx *intent.VideoContext, avail Availability) *Decision {
	if d == nil || d.client == nil {
		return nil
	}

	instruction, err := d.buildInstruction(avail)
	if err != nil {
		d.logger.Warn("decision_instruction_build_failed", "err", err)
		return nil
	}

	userContent := message
	if vctx != nil {
		if line, err := d.buildContextLine(vctx); err == nil && line != "" {
			userContent = line + "\n" + message
		}
	}

	completion, err := d.client.Complete(ctx, llm.Request{
		System:      instruction,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: userContent}},
		Temperature: 0,
		MaxTokens:   d.maxTokens,
		JSONOnly:    true,
	})
	if err != nil {
		d.logger.Warn("decision_model_call_failed", "err", err)
		return nil
	}

	var decision Decision
	if err := json.Unmarshal([]byte(stripFences(completion.Text)), &decision); err != nil {
		d.logger.Warn("decision_model_bad_json", "err", err)
		return nil
	}
	return &decision
}

func (d *Decider) buildInstruction(avail Availability) (string, error) {
	template, ok := d.prompts["instruction"]
	if !ok || strings.TrimSpace(template) == "" {
		return "", fmt.Errorf("decision instruction prompt missing")
	}

	sources := []string{
		sourceLine("webSearch", avail.WebSearch),
		sourceLine("douban", avail.Douban),
		sourceLine("tmdb", avail.TMDB),
	}
	return prompt.FormatTemplate(template, map[string]string{
		"sources": strings.Join(sources, "\n"),
	})
}

func (d *Decider) buildContextLine(vctx *intent.VideoContext) (string, error) {
	template, ok := d.prompts["context"]
	if !ok {
		return "", nil
	}
	encoded, err := json.Marshal(vctx)
	if err != nil {
		return "", err
	}
	return prompt.FormatTemplate(template, map[string]string{"context": string(encoded)})
}

func sourceLine(name string, available bool) string {
	if available {
		return "- " + name + ": 可用"
	}
	return "- " + name + ": 不可用（必须返回 false）"
}

// stripFences removes an optional markdown code fence around a JSON
// reply.
func stripFences(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.IndexByte(trimmed, '\n'); idx >= 0 {
		// Drop the language tag line, e.g. ```json.
		if !strings.ContainsAny(trimmed[:idx], "{}") {
			trimmed = trimmed[idx+1:]
		}
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
