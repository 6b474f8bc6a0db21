package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/shivanshkc/koda/pkg/streams"
)

// SDKClient streams chat completions through the official openai-go SDK.
//
// Unlike Client, a chunk the SDK cannot decode ends the stream with an error,
// because the SDK stops iterating at the first decode failure.
type SDKClient struct {
	client openai.Client
}

// NewSDKClient returns a new SDKClient. httpClient may be nil.
func NewSDKClient(baseURL, apiKey string, httpClient *http.Client) *SDKClient {
	options := []option.RequestOption{
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
		// Retries are the caller's decision; a failed stream fails the run.
		option.WithMaxRetries(0),
	}
	if httpClient != nil {
		options = append(options, option.WithHTTPClient(httpClient))
	}

	return &SDKClient{client: openai.NewClient(options...)}
}

// ChatCompletionStream implements Streamer.
func (c *SDKClient) ChatCompletionStream(
	ctx context.Context, model string, messages []ChatMessage,
) (*streams.Stream[Fragment], error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: convertMessagesToOpenAI(messages),
		StreamOptions: openai.ChatCompletionStreamOptionsParam{
			IncludeUsage: openai.Bool(true),
		},
	}

	sdkStream := c.client.Chat.Completions.NewStreaming(ctx, params)

	// finished guards against pulling from the SDK after it reported an error.
	var finished bool

	return streams.FromFunc(func(ctx context.Context) (Fragment, bool, error) {
		if finished {
			return Fragment{}, false, nil
		}
		if err := ctx.Err(); err != nil {
			finished = true
			_ = sdkStream.Close()
			return Fragment{}, false, err
		}

		if !sdkStream.Next() {
			finished = true
			_ = sdkStream.Close()
			if err := sdkStream.Err(); err != nil {
				return Fragment{Err: fmt.Errorf("failed to read chat completion stream: %w", err), Received: time.Now()}, true, nil
			}
			return Fragment{}, false, nil
		}

		chunk := sdkStream.Current()
		fragment := Fragment{Received: time.Now()}
		if len(chunk.Choices) > 0 {
			fragment.Text = chunk.Choices[0].Delta.Content
		}
		if usage := chunk.Usage; usage.TotalTokens > 0 || usage.PromptTokens > 0 || usage.CompletionTokens > 0 {
			fragment.Usage = &Usage{
				TotalTokens:      usage.TotalTokens,
				PromptTokens:     usage.PromptTokens,
				CompletionTokens: usage.CompletionTokens,
			}
		}
		return fragment, true, nil
	}), nil
}

// convertMessagesToOpenAI converts chat messages to the SDK's union type, skipping unknown roles.
func convertMessagesToOpenAI(messages []ChatMessage) []openai.ChatCompletionMessageParamUnion {
	converted := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))

	for _, msg := range messages {
		switch msg.Role {
		case RoleUser:
			converted = append(converted, openai.UserMessage(msg.Content))
		case RoleAssistant:
			converted = append(converted, openai.AssistantMessage(msg.Content))
		case RoleSystem:
			converted = append(converted, openai.SystemMessage(msg.Content))
		default:
			continue
		}
	}

	return converted
}
