package api

import (
	"errors"
	"time"
)

// Chat roles accepted by the Chat-Completion API.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrMalformedFragment marks a single stream event that could not be decoded.
// Consumers are expected to skip such fragments instead of aborting the stream.
var ErrMalformedFragment = errors.New("malformed fragment")

// ChatMessage represents a single message in the LLM chat.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Usage holds the cumulative token counters reported with the final event of a stream.
type Usage struct {
	TotalTokens      int64 `json:"total_tokens"`
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
}

// Fragment is one incremental unit of generated text.
//
// Usage is non-nil only on the terminating fragment, and only if the server reports it.
// Err is set when the fragment could not be produced; errors wrapping ErrMalformedFragment
// are recoverable, every other error ends the stream.
type Fragment struct {
	Text  string
	Usage *Usage
	Err   error

	// Received is the local time at which the fragment arrived.
	Received time.Time
}

// IsHeartbeat reports whether the fragment carries neither text nor usage.
func (f Fragment) IsHeartbeat() bool {
	return f.Err == nil && f.Text == "" && f.Usage == nil
}

// chatCompletionRequest is the body of a streaming /chat/completions call.
type chatCompletionRequest struct {
	Model         string        `json:"model"`
	Messages      []ChatMessage `json:"messages"`
	Stream        bool          `json:"stream"`
	StreamOptions streamOptions `json:"stream_options"`
}

type streamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

// ChatCompletionEvent represents a single event from the Chat-Completion API response stream.
type ChatCompletionEvent struct {
	Choices []ChatCompletionChoice `json:"choices"`
	Usage   *Usage                 `json:"usage,omitempty"`
	Error   *APIError              `json:"error,omitempty"`

	Created           int    `json:"created"`
	Id                string `json:"id"`
	Model             string `json:"model"`
	SystemFingerprint string `json:"system_fingerprint"`
	Object            string `json:"object"`
}

type ChatCompletionChoice struct {
	Delta ChatCompletionDelta `json:"delta"`

	FinishReason any `json:"finish_reason"`
	Index        int `json:"index"`
}

type ChatCompletionDelta struct {
	Content string `json:"content"`
}

// APIError is the error object some servers embed in a stream event instead of a delta.
type APIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    any    `json:"code"`
}

func (e *APIError) Error() string {
	if e.Type == "" {
		return e.Message
	}
	return e.Type + ": " + e.Message
}
