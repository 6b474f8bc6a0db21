// Package api provides streaming clients for OpenAI-compatible Chat-Completion APIs.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/shivanshkc/koda/pkg/httpx"
	"github.com/shivanshkc/koda/pkg/streams"
)

// Streamer issues a streaming chat completion and returns its fragments in arrival order.
type Streamer interface {
	ChatCompletionStream(ctx context.Context, model string, messages []ChatMessage) (*streams.Stream[Fragment], error)
}

// Client represents an LLM REST API client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient returns a new Client instance.
// baseURL is expected to include the API version prefix, e.g. "http://localhost:11434/v1".
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{},
	}
}

// ChatCompletionStream is a wrapper for the /chat/completions API with stream enabled.
//
// Transport failures and non-200 responses are returned as errors. The returned
// stream ends when the server sends [DONE] or closes the connection.
func (c *Client) ChatCompletionStream(
	ctx context.Context, model string, messages []ChatMessage,
) (*streams.Stream[Fragment], error) {
	// Form the API endpoint URL.
	endpoint, err := url.JoinPath(c.baseURL, "chat/completions")
	if err != nil {
		return nil, fmt.Errorf("failed to form API endpoint URL: %w", err)
	}

	// Server-Sent Events are enabled by "stream": true. Usage arrives with the final event.
	requestBody, err := json.Marshal(chatCompletionRequest{
		Model:         model,
		Messages:      messages,
		Stream:        true,
		StreamOptions: streamOptions{IncludeUsage: true},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	// Create the HTTP request.
	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	httpRequest.Header.Set("Content-Type", "application/json")
	httpRequest.Header.Set("Accept", "text/event-stream")
	if c.apiKey != "" {
		httpRequest.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	response, err := c.httpClient.Do(httpRequest)
	if err != nil {
		return nil, fmt.Errorf("failed to execute HTTP request: %w", err)
	}

	// In case of error, return the status code with the body.
	if response.StatusCode != http.StatusOK {
		defer func() { _ = response.Body.Close() }()
		responseBody, err := io.ReadAll(response.Body)
		if err != nil {
			responseBody = []byte("failed to read response body: " + err.Error())
		}
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", response.StatusCode, string(responseBody))
	}

	// The SSE reader owns the body from here on.
	sseStream := streams.New(httpx.ReadServerSentEvents(ctx, response.Body))
	return streams.Map(sseStream, convertSSE), nil
}

// convertSSE converts the given Server-Sent Event to a Fragment.
func convertSSE(sse httpx.ServerSentEvent) Fragment {
	fragment := Fragment{Received: sse.Timestamp}

	if sse.Error != nil {
		fragment.Err = fmt.Errorf("failed to read server-sent event: %w", sse.Error)
		return fragment
	}

	var event ChatCompletionEvent
	if err := json.Unmarshal([]byte(sse.Value), &event); err != nil {
		fragment.Err = fmt.Errorf("%w: event %d: %w", ErrMalformedFragment, sse.Index, err)
		return fragment
	}

	if event.Error != nil {
		fragment.Err = fmt.Errorf("server reported an error mid-stream: %w", event.Error)
		return fragment
	}

	if len(event.Choices) > 0 {
		fragment.Text = event.Choices[0].Delta.Content
	}
	fragment.Usage = event.Usage
	return fragment
}
