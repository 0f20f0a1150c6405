// Package embeddings abstracts "compute a vector for this text" over two
// interchangeable HTTP backends: a local inference gateway and a hosted API.
// Both speak the OpenAI-compatible embeddings shape.
package embeddings

import (
	"context"
	"fmt"
	"time"
)

// DefaultTimeout bounds a single embed call when no timeout is configured.
const DefaultTimeout = 5 * time.Second

// Provider computes embedding vectors. Implementations must honor the
// context and their configured timeout; a failed or timed-out call returns
// an error that callers are expected to absorb (degrading to no semantic
// signal), never to retry internally.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Model() string
}

// Kind selects a provider backend.
type Kind string

const (
	KindGateway Kind = "gateway" // local inference gateway, no credentials
	KindHosted  Kind = "hosted"  // remote API, bearer token required
)

// Config describes exactly one backend. The Kind tag decides which fields
// apply, so an invalid combination (hosted without a key) is rejected by
// New before any network call is made.
type Config struct {
	Kind    Kind
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// New builds the provider selected by cfg.Kind.
func New(cfg Config) (Provider, error) {
	switch cfg.Kind {
	case KindGateway:
		return NewGateway(cfg.BaseURL, cfg.Model, cfg.Timeout), nil
	case KindHosted:
		return NewHosted(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.Timeout)
	default:
		return nil, fmt.Errorf("embeddings: unknown provider kind %q", cfg.Kind)
	}
}
