// Package service defines the interfaces shared between application services.
package service

import (
	"context"

	"github.com/quillfin/quill/internal/model"
)

// Directory is the contract the resolver and engine require from the
// merchant phonebook. It is the single source of truth for identity.
type Directory interface {
	FindByAlias(token string) (*model.Entity, bool)
	Register(alias, canonicalName, category string) (*model.Entity, error)
	AllEntities() []model.Entity
}

// Tokenizer is the external text-cleaning collaborator. Implementations
// must return one cleaned token per input description, same length and
// order, and tolerate garbled individual inputs.
type Tokenizer interface {
	TokenizeBatch(ctx context.Context, descriptions []string) ([]string, error)
}

// Embedder produces one embedding vector per input text, same length and
// order as the input.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
}

// CacheRecord is one persisted fast-path decision.
type CacheRecord struct {
	Description string
	Category    string
	Embedding   []float64
	Confidence  float64
	InsertedAt  int64
}

// CacheStore persists vector cache records. Records are immutable once
// written; the store only ever appends.
type CacheStore interface {
	AppendCacheRecord(ctx context.Context, rec CacheRecord) error
	LoadCacheRecords(ctx context.Context) ([]CacheRecord, error)
}

// SessionState is the serializable snapshot of a paused categorization run.
type SessionState struct {
	SessionID string                         `json:"session_id"`
	Pending   []model.PendingResolution      `json:"pending"`
	Resolved  []model.CategorizedTransaction `json:"resolved"`
	Decisions map[string]model.Decision      `json:"decisions,omitempty"`
}

// SessionStore persists paused runs so AwaitingUserInput survives a
// process boundary.
type SessionStore interface {
	SaveSession(ctx context.Context, state SessionState) error
	GetSession(ctx context.Context, sessionID string) (*SessionState, error)
	CloseSession(ctx context.Context, sessionID string) error
}

// ResultStore records the rows of a completed categorization run.
type ResultStore interface {
	SaveResults(ctx context.Context, runID string, rows []model.CategorizedTransaction) error
}
