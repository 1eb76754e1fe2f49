// Package openai adapts OpenAI's Chat Completions API to the llm.Provider
// port.
package openai

import (
	"context"
	"iter"
	"net/http"
	"strings"

	sdk "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"sentinel/internal/core"
	"sentinel/internal/llm"
	"sentinel/internal/observability"
)

// Client implements llm.Provider against OpenAI's Chat Completions API.
type Client struct {
	sdk   sdk.Client
	model string
}

// Config holds the settings needed to construct a Client.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// New constructs a Client. If cfg.Model is empty, gpt-4o-mini is used.
func New(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	opts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(cfg.APIKey)),
		option.WithHTTPClient(httpClient),
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimSuffix(base, "/")))
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = sdk.ChatModelGPT4oMini
	}

	return &Client{sdk: sdk.NewClient(opts...), model: model}
}

func toOpenAIMessages(messages []core.CanonicalMessage) []sdk.ChatCompletionMessageParamUnion {
	out := make([]sdk.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case core.RoleSystem:
			out = append(out, sdk.SystemMessage(m.Content))
		case core.RoleAssistant:
			out = append(out, sdk.AssistantMessage(m.Content))
		default:
			out = append(out, sdk.UserMessage(m.Content))
		}
	}
	return out
}

// Complete implements llm.Provider.
func (c *Client) Complete(ctx context.Context, messages []core.CanonicalMessage) (core.CanonicalMessage, error) {
	if err := llm.ValidateMessages(messages); err != nil {
		return core.CanonicalMessage{}, err
	}
	log := observability.LoggerWithTrace(ctx)

	resp, err := c.sdk.Chat.Completions.New(ctx, sdk.ChatCompletionNewParams{
		Model:    c.model,
		Messages: toOpenAIMessages(messages),
	})
	if err != nil {
		log.Error().Err(err).Msg("openai complete failed")
		return core.CanonicalMessage{}, err
	}
	if len(resp.Choices) == 0 {
		return core.CanonicalMessage{}, &core.InvalidMessageError{Reason: "openai returned no choices"}
	}
	return core.NewCanonicalMessage(core.RoleAssistant, resp.Choices[0].Message.Content), nil
}

// Stream implements llm.Provider by streaming content deltas from the
// Chat Completions streaming endpoint.
func (c *Client) Stream(ctx context.Context, messages []core.CanonicalMessage) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if err := llm.ValidateMessages(messages); err != nil {
			yield("", err)
			return
		}

		stream := c.sdk.Chat.Completions.NewStreaming(ctx, sdk.ChatCompletionNewParams{
			Model:    c.model,
			Messages: toOpenAIMessages(messages),
		})
		defer stream.Close()

		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 {
				continue
			}
			if delta := chunk.Choices[0].Delta.Content; delta != "" {
				if !yield(delta, nil) {
					return
				}
			}
		}
		if err := stream.Err(); err != nil {
			yield("", err)
		}
	}
}

var _ llm.Provider = (*Client)(nil)
