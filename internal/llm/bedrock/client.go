// Package bedrock adapts AWS Bedrock's Converse API to the llm.Provider
// port.
package bedrock

import (
	"context"
	"iter"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"sentinel/internal/core"
	"sentinel/internal/llm"
	"sentinel/internal/observability"
)

const defaultMaxTokens = 4096

// Client implements llm.Provider against AWS Bedrock's Converse API.
type Client struct {
	runtime *bedrockruntime.Client
	model   string
}

// New creates a Client configured for the given AWS region and model id
// (e.g. "anthropic.claude-3-5-sonnet-20241022-v2:0"). If profile is
// non-empty, it selects a named AWS credentials profile.
func New(ctx context.Context, region, profile, model string) (*Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{
		runtime: bedrockruntime.NewFromConfig(awsCfg),
		model:   model,
	}, nil
}

func toBedrockMessages(messages []core.CanonicalMessage) ([]brtypes.Message, string) {
	var system string
	out := make([]brtypes.Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == core.RoleSystem {
			if system != "" {
				system += "\n"
			}
			system += m.Content
			continue
		}
		role := brtypes.ConversationRoleUser
		if m.Role == core.RoleAssistant {
			role = brtypes.ConversationRoleAssistant
		}
		out = append(out, brtypes.Message{
			Role:    role,
			Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: m.Content}},
		})
	}
	return out, system
}

func (c *Client) converseInput(messages []core.CanonicalMessage) *bedrockruntime.ConverseInput {
	msgs, system := toBedrockMessages(messages)
	input := &bedrockruntime.ConverseInput{
		ModelId:  aws.String(c.model),
		Messages: msgs,
		InferenceConfig: &brtypes.InferenceConfiguration{
			MaxTokens: aws.Int32(defaultMaxTokens),
		},
	}
	if system != "" {
		input.System = []brtypes.SystemContentBlock{&brtypes.SystemContentBlockMemberText{Value: system}}
	}
	return input
}

// Complete implements llm.Provider.
func (c *Client) Complete(ctx context.Context, messages []core.CanonicalMessage) (core.CanonicalMessage, error) {
	if err := llm.ValidateMessages(messages); err != nil {
		return core.CanonicalMessage{}, err
	}
	log := observability.LoggerWithTrace(ctx)

	out, err := c.runtime.Converse(ctx, c.converseInput(messages))
	if err != nil {
		log.Error().Err(err).Msg("bedrock complete failed")
		return core.CanonicalMessage{}, err
	}

	var text string
	if msg, ok := out.Output.(*brtypes.ConverseOutputMemberMessage); ok {
		for _, block := range msg.Value.Content {
			if tb, ok := block.(*brtypes.ContentBlockMemberText); ok {
				text += tb.Value
			}
		}
	}
	return core.NewCanonicalMessage(core.RoleAssistant, text), nil
}

// Stream implements llm.Provider via Bedrock's ConverseStream API.
func (c *Client) Stream(ctx context.Context, messages []core.CanonicalMessage) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if err := llm.ValidateMessages(messages); err != nil {
			yield("", err)
			return
		}

		input := &bedrockruntime.ConverseStreamInput{
			ModelId:         aws.String(c.model),
			Messages:        c.converseInput(messages).Messages,
			System:          c.converseInput(messages).System,
			InferenceConfig: c.converseInput(messages).InferenceConfig,
		}

		out, err := c.runtime.ConverseStream(ctx, input)
		if err != nil {
			yield("", err)
			return
		}
		stream := out.GetStream()
		defer stream.Close()

		for event := range stream.Events() {
			delta, ok := event.(*brtypes.ConverseStreamOutputMemberContentBlockDelta)
			if !ok {
				continue
			}
			textDelta, ok := delta.Value.Delta.(*brtypes.ContentBlockDeltaMemberText)
			if !ok {
				continue
			}
			if !yield(textDelta.Value, nil) {
				return
			}
		}
		if err := stream.Err(); err != nil {
			yield("", err)
		}
	}
}

var _ llm.Provider = (*Client)(nil)
