package vectorcache

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillfin/quill/internal/service"
	"github.com/quillfin/quill/internal/storage"
)

func newTestCache(t *testing.T) (*Cache, *storage.SQLiteStore) {
	t.Helper()

	store, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))
	t.Cleanup(func() { _ = store.Close() })

	cache, err := New(context.Background(), store)
	require.NoError(t, err)
	return cache, store
}

func TestLookupEmptyCacheMisses(t *testing.T) {
	cache, _ := newTestCache(t)

	_, ok := cache.Lookup("anything", []float64{1, 0, 0})
	assert.False(t, ok)
}

func TestLookupHitAboveThreshold(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Insert(ctx, "AMZN MKTP US*AB12CD", []float64{1, 0, 0}, "Shopping"))

	// cos(theta) = 0.90 against the cached vector.
	theta := math.Acos(0.90)
	query := []float64{math.Cos(theta), math.Sin(theta), 0}

	hit, ok := cache.Lookup("AMZN MKTP US*XY99ZZ", query)
	require.True(t, ok)
	assert.Equal(t, "Shopping", hit.Category)
	assert.InDelta(t, 0.90, hit.Similarity, 1e-9)
}

func TestLookupThresholdInclusive(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Insert(ctx, "STARBUCKS", []float64{1, 0}, "Food & Drink"))

	theta := math.Acos(AcceptThreshold)
	atThreshold := []float64{math.Cos(theta), math.Sin(theta)}

	hit, ok := cache.Lookup("starbucks-ish", atThreshold)
	require.True(t, ok, "similarity exactly at threshold is a hit")
	assert.InDelta(t, AcceptThreshold, hit.Similarity, 1e-9)

	below := []float64{math.Cos(theta + 0.05), math.Sin(theta + 0.05)}
	_, ok = cache.Lookup("starbucks-ish", below)
	assert.False(t, ok)
}

func TestLookupNormalizesMagnitude(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	// Insert an unnormalized vector; lookup with a scaled copy must
	// still score 1.0.
	require.NoError(t, cache.Insert(ctx, "SHELL STATION 42", []float64{3, 4, 0}, "Transport"))

	hit, ok := cache.Lookup("shell", []float64{30, 40, 0})
	require.True(t, ok)
	assert.InDelta(t, 1.0, hit.Similarity, 1e-9)
}

func TestLookupTieBreaksByMostRecent(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Insert(ctx, "older", []float64{1, 0}, "Old Category"))
	require.NoError(t, cache.Insert(ctx, "newer", []float64{1, 0}, "New Category"))

	hit, ok := cache.Lookup("query", []float64{1, 0})
	require.True(t, ok)
	assert.Equal(t, "New Category", hit.Category)
}

func TestLookupZeroVectorNeverHits(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Insert(ctx, "x", []float64{1, 0}, "Anything"))

	_, ok := cache.Lookup("zero", []float64{0, 0})
	assert.False(t, ok)

	_, ok = cache.Lookup("empty", nil)
	assert.False(t, ok)
}

func TestInsertPersistsAcrossReload(t *testing.T) {
	cache, store := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Insert(ctx, "AMZN MKTP US*AB12CD", []float64{0, 1, 0}, "Shopping"))
	require.Equal(t, 1, cache.Len())

	reloaded, err := New(ctx, store)
	require.NoError(t, err)
	require.Equal(t, 1, reloaded.Len())

	hit, ok := reloaded.Lookup("amzn", []float64{0, 2, 0})
	require.True(t, ok)
	assert.Equal(t, "Shopping", hit.Category)
}

func TestMixedDimensionRecordsScoreZero(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Insert(ctx, "three dims", []float64{1, 0, 0}, "A"))

	_, ok := cache.Lookup("two dims", []float64{1, 0})
	assert.False(t, ok)
}

var _ service.CacheStore = (*storage.SQLiteStore)(nil)
