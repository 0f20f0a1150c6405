package embeddings

import (
	"context"
	"net/http"
	"time"
)

// Gateway talks to a local inference gateway's OpenAI-compatible
// embeddings endpoint. No credentials are sent.
type Gateway struct {
	baseURL    string
	model      string
	timeout    time.Duration
	httpClient *http.Client
}

// NewGateway creates a local-gateway provider. baseURL defaults to the
// conventional local gateway address, model to a small local embedder.
func NewGateway(baseURL, model string, timeout time.Duration) *Gateway {
	if baseURL == "" {
		baseURL = "http://localhost:11434/v1"
	}
	if model == "" {
		model = "nomic-embed-text"
	}
	return &Gateway{
		baseURL: baseURL,
		model:   model,
		timeout: timeout,
		httpClient: &http.Client{
			Timeout: 0, // per-call deadline comes from the request context
		},
	}
}

func (g *Gateway) Embed(ctx context.Context, text string) ([]float32, error) {
	return postEmbedding(ctx, g.httpClient, g.baseURL+"/embeddings", "", g.model, text, g.timeout)
}

func (g *Gateway) Model() string {
	return g.model
}
