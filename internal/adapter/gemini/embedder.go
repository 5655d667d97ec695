package gemini

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Embedder maps text to a fixed-dimension vector via the Gemini embedding API.
// The dimensionality is pinned at construction; a provider response of any
// other length is an error rather than something callers have to check.
type Embedder struct {
	client *genai.Client
	model  string
	dim    int
}

func NewEmbedder(client *genai.Client, model string, dim int) *Embedder {
	return &Embedder{client: client, model: model, dim: dim}
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	slog.DebugContext(ctx, "embedding content", "model", e.model, "length", len(text))
	em := e.client.EmbeddingModel(e.model)
	res, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		slog.ErrorContext(ctx, "embedding failed", "error", err)
		return nil, err
	}
	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, fmt.Errorf("empty embedding received")
	}
	if len(res.Embedding.Values) != e.dim {
		return nil, fmt.Errorf("embedding dimensionality mismatch: model %s returned %d values, configured for %d",
			e.model, len(res.Embedding.Values), e.dim)
	}
	return res.Embedding.Values, nil
}

// Dim reports the configured vector dimensionality.
func (e *Embedder) Dim() int {
	return e.dim
}

// NewClient dials the Gemini API with the given key.
func NewClient(ctx context.Context, apiKey string, opts ...option.ClientOption) (*genai.Client, error) {
	opts = append(opts, option.WithAPIKey(apiKey))
	return genai.NewClient(ctx, opts...)
}
