// Package tokenizer provides the external text-cleaning gateway: batches
// of raw bank descriptions go out, cleaned merchant tokens come back.
package tokenizer

import (
	"context"
	"fmt"
	"time"
)

// Client defines the tokenizer gateway contract. Implementations return
// exactly one cleaned token per input description, in input order, and
// must tolerate garbled individual inputs: a bad string yields a
// low-quality token, never an error for the whole batch.
type Client interface {
	TokenizeBatch(ctx context.Context, descriptions []string) ([]string, error)
}

// Config holds settings for constructing a tokenizer client.
type Config struct {
	// Provider selects the implementation: "openai" or "heuristic".
	Provider string
	// BaseURL points at an OpenAI-compatible chat completions endpoint.
	// Local model servers expose the same surface.
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// NewClient creates a tokenizer client based on the configuration.
func NewClient(cfg Config) (Client, error) {
	switch cfg.Provider {
	case "openai":
		return newOpenAIClient(cfg)
	case "heuristic", "":
		return NewHeuristicCleaner(), nil
	default:
		return nil, fmt.Errorf("unknown tokenizer provider: %s", cfg.Provider)
	}
}
