package embeddings

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Hosted talks to a remote embeddings API with bearer-token auth.
type Hosted struct {
	baseURL    string
	apiKey     string
	model      string
	timeout    time.Duration
	httpClient *http.Client
}

// NewHosted creates a hosted-API provider. A missing API key is a
// configuration error, reported here before any network call is made.
func NewHosted(baseURL, apiKey, model string, timeout time.Duration) (*Hosted, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("embeddings: hosted provider requires an API key")
	}
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if model == "" {
		model = "text-embedding-3-small"
	}
	return &Hosted{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		timeout: timeout,
		httpClient: &http.Client{
			Timeout: 0,
		},
	}, nil
}

func (h *Hosted) Embed(ctx context.Context, text string) ([]float32, error) {
	return postEmbedding(ctx, h.httpClient, h.baseURL+"/embeddings", h.apiKey, h.model, text, h.timeout)
}

func (h *Hosted) Model() string {
	return h.model
}
