// Package embedding provides the gateway for turning description text
// into embedding vectors. Embedding generation itself is an external
// concern; this package only defines how vectors are obtained and
// consumed.
package embedding

import (
	"context"
	"fmt"
	"time"
)

// Client defines the embedding gateway contract: one vector per input
// text, same length and order.
type Client interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
}

// Config holds settings for constructing an embedding client.
type Config struct {
	// Provider selects the implementation: "openai" or "none".
	Provider string
	BaseURL  string
	APIKey   string
	Model    string
	Timeout  time.Duration
}

// NewClient creates an embedding client based on the configuration.
// Provider "none" disables the vector fast path entirely.
func NewClient(cfg Config) (Client, error) {
	switch cfg.Provider {
	case "openai":
		return newOpenAIClient(cfg)
	case "none", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.Provider)
	}
}
