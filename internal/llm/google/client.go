// Package google adapts Google's Gemini API (via google.golang.org/genai)
// to the llm.Provider port.
package google

import (
	"context"
	"iter"
	"net/http"
	"strings"
	"time"

	genai "google.golang.org/genai"

	"sentinel/internal/core"
	"sentinel/internal/llm"
	"sentinel/internal/observability"
)

// Client implements llm.Provider against Gemini's GenerateContent API.
type Client struct {
	client *genai.Client
	model  string
}

// Config holds the settings needed to construct a Client.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// New constructs a Client. If cfg.Model is empty, gemini-1.5-flash is used.
func New(ctx context.Context, cfg Config, httpClient *http.Client) (*Client, error) {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gemini-1.5-flash"
	}

	httpOpts := genai.HTTPOptions{}
	if cfg.Timeout > 0 {
		t := cfg.Timeout
		httpOpts.Timeout = &t
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		httpOpts.BaseURL = strings.TrimSuffix(base, "/") + "/"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      strings.TrimSpace(cfg.APIKey),
		HTTPClient:  httpClient,
		HTTPOptions: httpOpts,
	})
	if err != nil {
		return nil, err
	}

	return &Client{client: client, model: model}, nil
}

func toContents(messages []core.CanonicalMessage) []*genai.Content {
	out := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		role := genai.RoleUser
		if m.Role == core.RoleAssistant {
			role = genai.RoleModel
		}
		out = append(out, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: m.Content}},
		})
	}
	return out
}

// Complete implements llm.Provider.
func (c *Client) Complete(ctx context.Context, messages []core.CanonicalMessage) (core.CanonicalMessage, error) {
	if err := llm.ValidateMessages(messages); err != nil {
		return core.CanonicalMessage{}, err
	}
	log := observability.LoggerWithTrace(ctx)

	resp, err := c.client.Models.GenerateContent(ctx, c.model, toContents(messages), nil)
	if err != nil {
		log.Error().Err(err).Msg("gemini complete failed")
		return core.CanonicalMessage{}, err
	}
	return core.NewCanonicalMessage(core.RoleAssistant, resp.Text()), nil
}

// Stream implements llm.Provider by streaming content deltas from
// Gemini's streaming GenerateContent API.
func (c *Client) Stream(ctx context.Context, messages []core.CanonicalMessage) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if err := llm.ValidateMessages(messages); err != nil {
			yield("", err)
			return
		}

		for resp, err := range c.client.Models.GenerateContentStream(ctx, c.model, toContents(messages), nil) {
			if err != nil {
				if !yield("", err) {
					return
				}
				continue
			}
			if text := resp.Text(); text != "" {
				if !yield(text, nil) {
					return
				}
			}
		}
	}
}

var _ llm.Provider = (*Client)(nil)
