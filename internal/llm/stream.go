package llm

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/goccy/go-json"

	"github.com/yx118/MoonTVPlus/internal/config"
)

// DoneSentinel is the end-of-stream marker on the normalized wire.
const DoneSentinel = "[DONE]"

const (
	ssePrefix = "data:"
	// Provider deltas are small; the larger budget covers prompt
	// echoes some gateways inject into the first chunk.
	maxStreamLine = 1 << 20
)

// DeltaExtractor pulls the incremental text out of one upstream SSE
// payload. done reports a provider-native end-of-stream event.
type DeltaExtractor interface {
	Extract(payload []byte) (text string, done bool, err error)
}

// ExtractorFor returns the extractor for a provider wire protocol.
func ExtractorFor(kind string) DeltaExtractor {
	if kind == config.ProviderAnthropic {
		return anthropicExtractor{}
	}
	return openaiExtractor{}
}

// openaiExtractor reads choices[0].delta.content chunks.
type openaiExtractor struct{}

func (openaiExtractor) Extract(payload []byte) (string, bool, error) {
	var chunk struct {
		Choices []struct {
			Delta struct {
				Content string `json:"content"`
			} `json:"delta"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(payload, &chunk); err != nil {
		return "", false, err
	}
	if len(chunk.Choices) == 0 {
		return "", false, nil
	}
	return chunk.Choices[0].Delta.Content, false, nil
}

// anthropicExtractor reads content_block_delta events; message_stop
// marks provider-native doneness.
type anthropicExtractor struct{}

func (anthropicExtractor) Extract(payload []byte) (string, bool, error) {
	var chunk struct {
		Type  string `json:"type"`
		Delta struct {
			Text string `json:"text"`
		} `json:"delta"`
	}
	if err := json.Unmarshal(payload, &chunk); err != nil {
		return "", false, err
	}
	if chunk.Type == "message_stop" {
		return "", true, nil
	}
	if chunk.Type != "content_block_delta" {
		return "", false, nil
	}
	return chunk.Delta.Text, false, nil
}

type streamEvent struct {
	Text string `json:"text"`
}

type flusher interface {
	Flush()
}

// NormalizeStream copies an upstream provider SSE body into the
// normalized wire format: one `data: {"text":...}` event per non-empty
// delta, a single trailing `data: [DONE]`, a blank line after each.
//
// Events preserve upstream order. A malformed payload line is logged
// and skipped; a read failure on upstream is the one fault that
// propagates, since it cannot be represented as a degraded payload.
func NormalizeStream(dst io.Writer, upstream io.Reader, extractor DeltaExtractor, logger *slog.Logger) error {
	scanner := bufio.NewScanner(upstream)
	scanner.Buffer(make([]byte, 64*1024), maxStreamLine)

	doneEmitted := false
	emitDone := func() error {
		if doneEmitted {
			return nil
		}
		doneEmitted = true
		return writeSSE(dst, []byte(DoneSentinel))
	}

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if !strings.HasPrefix(line, ssePrefix) {
			// event:/id: framing lines and block separators.
			continue
		}

		payload := strings.TrimSpace(line[len(ssePrefix):])
		if payload == "" {
			continue
		}
		if payload == DoneSentinel {
			// Keep draining after the sentinel; upstream decides
			// when the connection actually ends.
			if err := emitDone(); err != nil {
				return err
			}
			continue
		}

		text, done, err := extractor.Extract([]byte(payload))
		if err != nil {
			if logger != nil {
				logger.Debug("chat_stream_skip_malformed_chunk", "err", err)
			}
			continue
		}
		if done {
			if err := emitDone(); err != nil {
				return err
			}
			continue
		}
		if text == "" {
			continue
		}

		event, err := json.Marshal(streamEvent{Text: text})
		if err != nil {
			return fmt.Errorf("marshal stream event: %w", err)
		}
		if err := writeSSE(dst, event); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read upstream stream: %w", err)
	}

	return emitDone()
}

func writeSSE(dst io.Writer, payload []byte) error {
	if _, err := fmt.Fprintf(dst, "data: %s\n\n", payload); err != nil {
		return err
	}
	if f, ok := dst.(flusher); ok {
		f.Flush()
	}
	return nil
}
