// Package vectorcache implements the embedding-based fast path: a cache
// mapping description embeddings to previously decided categories. A hit
// bypasses the resolver and phonebook entirely.
package vectorcache

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/quillfin/quill/internal/service"
)

// AcceptThreshold is the minimum cosine similarity (inclusive) for a
// cached category to be trusted. It is deliberately stricter than the
// fuzzy text threshold because embeddings are a noisier signal.
const AcceptThreshold = 0.85

// Hit is a successful cache lookup.
type Hit struct {
	Description string
	Category    string
	Similarity  float64
}

// Cache holds every record in memory for the cosine scan and writes
// inserts through to the backing store. The store is append-only with no
// eviction: growth is bounded only by the number of distinct descriptions
// ever seen. That is a known limitation accepted for simplicity, not an
// oversight to patch with an eviction policy.
type Cache struct {
	store   service.CacheStore
	records []record
	mu      sync.RWMutex
}

type record struct {
	description string
	category    string
	embedding   []float64 // L2-normalized at insert
	insertedAt  int64
}

// New loads the cache wholesale from the backing store.
func New(ctx context.Context, store service.CacheStore) (*Cache, error) {
	persisted, err := store.LoadCacheRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load cache records: %w", err)
	}

	c := &Cache{store: store, records: make([]record, 0, len(persisted))}
	for _, rec := range persisted {
		c.records = append(c.records, record{
			description: rec.Description,
			category:    rec.Category,
			embedding:   normalize(rec.Embedding),
			insertedAt:  rec.InsertedAt,
		})
	}

	slog.Info("Vector cache loaded", "records", len(c.records))
	return c, nil
}

// Lookup returns the highest-similarity cached category when it meets the
// acceptance threshold. Ties are broken by the most recently inserted
// record.
func (c *Cache) Lookup(description string, embedding []float64) (*Hit, bool) {
	if len(embedding) == 0 {
		return nil, false
	}
	query := normalize(embedding)

	c.mu.RLock()
	defer c.mu.RUnlock()

	var (
		best      *record
		bestScore = -1.0
	)
	for i := range c.records {
		rec := &c.records[i]
		score := dot(query, rec.embedding)
		if score > bestScore || (score == bestScore && best != nil && rec.insertedAt > best.insertedAt) {
			best = rec
			bestScore = score
		}
	}

	if best == nil || bestScore < AcceptThreshold {
		slog.Debug("Vector cache miss", "description", description, "best", bestScore)
		return nil, false
	}

	slog.Debug("Vector cache hit",
		"description", description,
		"matched", best.description,
		"category", best.category,
		"similarity", bestScore)

	return &Hit{
		Description: best.description,
		Category:    best.category,
		Similarity:  bestScore,
	}, true
}

// Insert appends one decided description to the cache, persisting it
// before it becomes visible to lookups.
func (c *Cache) Insert(ctx context.Context, description string, embedding []float64, category string) error {
	if len(embedding) == 0 {
		return fmt.Errorf("embedding cannot be empty")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	rec := service.CacheRecord{
		Description: description,
		Category:    category,
		Embedding:   embedding,
		Confidence:  1.0,
	}
	if err := c.store.AppendCacheRecord(ctx, rec); err != nil {
		return err
	}

	var insertedAt int64
	if n := len(c.records); n > 0 {
		insertedAt = c.records[n-1].insertedAt + 1
	}
	c.records = append(c.records, record{
		description: description,
		category:    category,
		embedding:   normalize(embedding),
		insertedAt:  insertedAt,
	})

	return nil
}

// Len returns the number of records in the cache.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// normalize returns an L2-normalized copy of v. A zero vector is returned
// unchanged so it can never score above the threshold.
func normalize(v []float64) []float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	norm := math.Sqrt(sum)
	out := make([]float64, len(v))
	if norm == 0 {
		return out
	}
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}

// dot computes the inner product of two equally-normalized vectors, which
// on L2-normalized inputs is their cosine similarity. Vectors of unequal
// length score zero rather than panicking on mixed-model embeddings.
func dot(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
