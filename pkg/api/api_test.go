package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shivanshkc/koda/pkg/httpx"
)

// mockRoundTripper is a mock implementation of http.RoundTripper.
// It allows us to simulate different HTTP responses without making real network calls.
type mockRoundTripper struct {
	responseFunc func(*http.Request) (*http.Response, error)
}

// RoundTrip satisfies the http.RoundTripper interface. It invokes the mock's
// configured response function.
func (m *mockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.responseFunc(req)
}

// streamResponder returns a response function that serves the given SSE body with a 200 status.
func streamResponder(body string) func(*http.Request) (*http.Response, error) {
	return func(r *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(body)),
		}, nil
	}
}

// TestClient_ChatCompletionStream uses a table-driven approach to test the
// main API client method across various scenarios.
func TestClient_ChatCompletionStream(t *testing.T) {
	// --- Test Case Definitions ---
	type testCase struct {
		name string
		// baseURL for the API client.
		baseURL string
		// roundTripper is the mock HTTP transport that simulates server responses.
		roundTripper http.RoundTripper
		// expectedTexts are the fragment texts we expect from the stream.
		expectedTexts []string
		// expectedUsage is the usage carried by the last fragment, if any.
		expectedUsage *Usage
		// expectedErr is the error we expect the function itself to return.
		expectedErr error
		// expectedFragmentErr is an error we expect within the stream itself.
		expectedFragmentErr error
	}

	testCases := []testCase{
		{
			name:    "Successful Stream",
			baseURL: "http://localhost:8080/v1",
			roundTripper: &mockRoundTripper{responseFunc: streamResponder(`
data: {"choices":[{"delta":{"content":"Hello"}}]}
data: {"choices":[{"delta":{"content":" world"}}]}
data: [DONE]`)},
			expectedTexts: []string{"Hello", " world"},
		},
		{
			name:    "Final Event Carries Usage",
			baseURL: "http://localhost:8080/v1",
			roundTripper: &mockRoundTripper{responseFunc: streamResponder(`
data: {"choices":[{"delta":{"content":"Hi"}}]}
data: {"choices":[],"usage":{"prompt_tokens":100,"completion_tokens":50,"total_tokens":150}}
data: [DONE]`)},
			expectedTexts: []string{"Hi", ""},
			expectedUsage: &Usage{TotalTokens: 150, PromptTokens: 100, CompletionTokens: 50},
		},
		{
			name:    "API Error with Non-200 Status",
			baseURL: "http://localhost:8080/v1",
			roundTripper: &mockRoundTripper{
				responseFunc: func(r *http.Request) (*http.Response, error) {
					return &http.Response{
						StatusCode: http.StatusBadRequest,
						Body:       io.NopCloser(strings.NewReader(`{"error": "bad request"}`)),
					}, nil
				},
			},
			expectedErr: errors.New("unexpected status code: 400"),
		},
		{
			name:    "Network Error from HTTP Client",
			baseURL: "http://localhost:8080/v1",
			roundTripper: &mockRoundTripper{
				responseFunc: func(r *http.Request) (*http.Response, error) {
					return nil, errors.New("connection refused")
				},
			},
			expectedErr: errors.New("failed to execute HTTP request"),
		},
		{
			name:    "Malformed Base URL",
			baseURL: "https://invalid-url-\x7f.com",
			roundTripper: &mockRoundTripper{
				responseFunc: func(r *http.Request) (*http.Response, error) { return nil, nil },
			},
			expectedErr: errors.New("failed to form API endpoint URL"),
		},
		{
			name:    "Stream with Malformed JSON Event",
			baseURL: "http://localhost:8080/v1",
			roundTripper: &mockRoundTripper{responseFunc: streamResponder(`
data: {"choices":[{"delta":{"content":"Good"}}]}
data: {"choices":`)},
			expectedTexts:       []string{"Good", ""},
			expectedFragmentErr: ErrMalformedFragment,
		},
	}

	// --- Test Runner ---
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Setup: Create a client and inject our mock transport directly into
			// the unexported httpClient field.
			client := NewClient(tc.baseURL, "secret")
			client.httpClient = &http.Client{Transport: tc.roundTripper}

			// Execution: Call the method under test.
			stream, err := client.ChatCompletionStream(context.Background(), "test-model", nil)

			// Assertion for the function's direct return value.
			if tc.expectedErr != nil {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.expectedErr.Error())
				assert.Nil(t, stream)
				return // Test is complete if an immediate error was expected.
			}

			require.NoError(t, err)
			require.NotNil(t, stream)

			fragments, exhaustErr := stream.Exhaust(context.Background())
			assert.NoError(t, exhaustErr, "Draining the stream should not cause a primary error")

			var texts []string
			var fragmentErr error
			var usage *Usage
			for _, fragment := range fragments {
				if fragment.Err != nil {
					fragmentErr = fragment.Err
				}
				if fragment.Usage != nil {
					usage = fragment.Usage
				}
				assert.False(t, fragment.Received.IsZero(), "Every fragment should carry its arrival time.")
				texts = append(texts, fragment.Text)
			}

			assert.Equal(t, tc.expectedTexts, texts, "The collected texts should match the expected texts.")
			assert.Equal(t, tc.expectedUsage, usage)
			if tc.expectedFragmentErr != nil {
				assert.ErrorIs(t, fragmentErr, tc.expectedFragmentErr)
			} else {
				assert.NoError(t, fragmentErr, "Did not expect a processing error within the stream.")
			}
		})
	}
}

// TestClient_ChatCompletionStream_Request verifies the outgoing request shape.
func TestClient_ChatCompletionStream_Request(t *testing.T) {
	var captured *http.Request
	var body map[string]any

	client := NewClient("http://localhost:11434/v1", "secret")
	client.httpClient = &http.Client{Transport: &mockRoundTripper{
		responseFunc: func(r *http.Request) (*http.Response, error) {
			captured = r
			raw, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			require.NoError(t, json.Unmarshal(raw, &body))
			return streamResponder("data: [DONE]\n")(r)
		},
	}}

	messages := []ChatMessage{{Role: RoleSystem, Content: "be brief"}, {Role: RoleUser, Content: "hi"}}
	stream, err := client.ChatCompletionStream(context.Background(), "qwen3:14b", messages)
	require.NoError(t, err)

	fragments, err := stream.Exhaust(context.Background())
	require.NoError(t, err)
	assert.Empty(t, fragments)

	require.NotNil(t, captured)
	assert.Equal(t, "/v1/chat/completions", captured.URL.Path)
	assert.Equal(t, "Bearer secret", captured.Header.Get("Authorization"))
	assert.Equal(t, "application/json", captured.Header.Get("Content-Type"))

	assert.Equal(t, "qwen3:14b", body["model"])
	assert.Equal(t, true, body["stream"])
	assert.Equal(t, map[string]any{"include_usage": true}, body["stream_options"])
	assert.Len(t, body["messages"], 2)
}

// Test_convertSSE verifies the logic of the SSE-to-Fragment converter.
func Test_convertSSE(t *testing.T) {
	t.Run("Valid SSE", func(t *testing.T) {
		sse := httpx.ServerSentEvent{Value: `{"choices":[{"delta":{"content":" test "}}]}`}
		fragment := convertSSE(sse)
		assert.NoError(t, fragment.Err)
		assert.Equal(t, " test ", fragment.Text)
		assert.Nil(t, fragment.Usage)
	})

	t.Run("Role-Only Delta is a Heartbeat", func(t *testing.T) {
		sse := httpx.ServerSentEvent{Value: `{"choices":[{"delta":{"role":"assistant","content":null}}]}`}
		fragment := convertSSE(sse)
		assert.NoError(t, fragment.Err)
		assert.True(t, fragment.IsHeartbeat())
	})

	t.Run("SSE with Error", func(t *testing.T) {
		expectedErr := errors.New("read error")
		sse := httpx.ServerSentEvent{Error: expectedErr}
		fragment := convertSSE(sse)
		assert.ErrorIs(t, fragment.Err, expectedErr)
		assert.NotErrorIs(t, fragment.Err, ErrMalformedFragment)
	})

	t.Run("SSE with Malformed JSON", func(t *testing.T) {
		sse := httpx.ServerSentEvent{Value: `{invalid-json}`}
		fragment := convertSSE(sse)
		assert.ErrorIs(t, fragment.Err, ErrMalformedFragment)
	})

	t.Run("SSE with Embedded API Error", func(t *testing.T) {
		sse := httpx.ServerSentEvent{Value: `{"error":{"message":"model unloaded","type":"server_error"}}`}
		fragment := convertSSE(sse)
		require.Error(t, fragment.Err)
		assert.Contains(t, fragment.Err.Error(), "server_error: model unloaded")
		assert.NotErrorIs(t, fragment.Err, ErrMalformedFragment)
	})
}
