package llm

import "errors"

// Role values for chat messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

var (
	// ErrMissingAPIKey means the provider has no credential configured.
	ErrMissingAPIKey = errors.New("missing LLM API key")
	// ErrEmptyCompletion means the provider returned no text.
	ErrEmptyCompletion = errors.New("empty completion")
)

// Message is one turn of conversation history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is one completion call.
type Request struct {
	System      string
	Messages    []Message
	Temperature float64
	MaxTokens   int
	// JSONOnly asks the provider for a strict-JSON reply where the
	// wire protocol supports it.
	JSONOnly bool
}

// Usage holds token counts reported by the provider.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// Completion is a non-streaming completion result.
type Completion struct {
	Text  string
	Usage Usage
}
