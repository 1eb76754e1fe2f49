// Package anthropic adapts Anthropic's Messages API to the llm.Provider
// port.
package anthropic

import (
	"context"
	"iter"
	"net/http"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"sentinel/internal/core"
	"sentinel/internal/llm"
	"sentinel/internal/observability"
)

const defaultMaxTokens int64 = 1024

// Client implements llm.Provider against Anthropic's Messages API.
type Client struct {
	sdk       sdk.Client
	model     string
	maxTokens int64
}

// Config holds the settings needed to construct a Client.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// New constructs a Client. If cfg.Model is empty, the latest Claude 3.7
// Sonnet is used.
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
		model = string(sdk.ModelClaude3_7SonnetLatest)
	}

	return &Client{
		sdk:       sdk.NewClient(opts...),
		model:     model,
		maxTokens: defaultMaxTokens,
	}
}

func toAnthropicMessages(messages []core.CanonicalMessage) (system string, converted []sdk.MessageParam) {
	for _, m := range messages {
		if m.Role == core.RoleSystem {
			if system != "" {
				system += "\n"
			}
			system += m.Content
			continue
		}
		block := sdk.NewTextBlock(m.Content)
		if m.Role == core.RoleAssistant {
			converted = append(converted, sdk.NewAssistantMessage(block))
		} else {
			converted = append(converted, sdk.NewUserMessage(block))
		}
	}
	return system, converted
}

// Complete implements llm.Provider.
func (c *Client) Complete(ctx context.Context, messages []core.CanonicalMessage) (core.CanonicalMessage, error) {
	if err := llm.ValidateMessages(messages); err != nil {
		return core.CanonicalMessage{}, err
	}
	log := observability.LoggerWithTrace(ctx)

	system, converted := toAnthropicMessages(messages)
	params := sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		Messages:  converted,
		MaxTokens: c.maxTokens,
	}
	if system != "" {
		params.System = []sdk.TextBlockParam{{Text: system}}
	}

	resp, err := c.sdk.Messages.New(ctx, params)
	if err != nil {
		log.Error().Err(err).Msg("anthropic complete failed")
		return core.CanonicalMessage{}, err
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return core.NewCanonicalMessage(core.RoleAssistant, text.String()), nil
}

// Stream implements llm.Provider by streaming text deltas from the
// Messages streaming endpoint.
func (c *Client) Stream(ctx context.Context, messages []core.CanonicalMessage) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if err := llm.ValidateMessages(messages); err != nil {
			yield("", err)
			return
		}

		system, converted := toAnthropicMessages(messages)
		params := sdk.MessageNewParams{
			Model:     sdk.Model(c.model),
			Messages:  converted,
			MaxTokens: c.maxTokens,
		}
		if system != "" {
			params.System = []sdk.TextBlockParam{{Text: system}}
		}

		stream := c.sdk.Messages.NewStreaming(ctx, params)
		defer stream.Close()

		for stream.Next() {
			event := stream.Current()
			if delta, ok := event.Delta.AsAny().(sdk.TextDelta); ok {
				if !yield(delta.Text, nil) {
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
