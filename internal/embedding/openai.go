package embedding

import (
	"context"
	"net/http"
	"strings"

	sdk "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

// OpenAI implements Embedder against OpenAI's embeddings endpoint.
type OpenAI struct {
	sdk       sdk.Client
	model     string
	dimension int
}

// OpenAIConfig holds the settings needed to construct an OpenAI embedder.
type OpenAIConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	Dimension int
}

// NewOpenAI constructs an OpenAI embedder. Defaults to
// text-embedding-3-small (1536 dimensions) if unset.
func NewOpenAI(cfg OpenAIConfig, httpClient *http.Client) *OpenAI {
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
		model = string(sdk.EmbeddingModelTextEmbedding3Small)
	}
	dim := cfg.Dimension
	if dim == 0 {
		dim = 1536
	}

	return &OpenAI{sdk: sdk.NewClient(opts...), model: model, dimension: dim}
}

// Embed implements Embedder.
func (o *OpenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := o.sdk.Embeddings.New(ctx, sdk.EmbeddingNewParams{
		Model: o.model,
		Input: sdk.EmbeddingNewParamsInputUnion{OfString: sdk.String(text)},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, nil
	}
	embedding := resp.Data[0].Embedding
	out := make([]float32, len(embedding))
	for i, v := range embedding {
		out[i] = float32(v)
	}
	return out, nil
}

// Dimension implements Embedder.
func (o *OpenAI) Dimension() int { return o.dimension }

var _ Embedder = (*OpenAI)(nil)
