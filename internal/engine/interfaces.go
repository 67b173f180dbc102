package engine

import (
	"context"

	"github.com/quillfin/quill/internal/model"
	"github.com/quillfin/quill/internal/vectorcache"
)

// Resolver matches a cleaned merchant token against the phonebook.
type Resolver interface {
	Resolve(token string) model.ResolutionOutcome
}

// VectorCache is the semantic fast path. A hit bypasses the resolver and
// the phonebook entirely.
type VectorCache interface {
	Lookup(description string, embedding []float64) (*vectorcache.Hit, bool)
	Insert(ctx context.Context, description string, embedding []float64, category string) error
}

// Prompter defines the contract for user interaction during resolution.
type Prompter interface {
	ConfirmResolution(ctx context.Context, pending model.PendingResolution) (model.Decision, error)
}
