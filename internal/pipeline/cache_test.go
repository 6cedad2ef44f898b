package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/couchcryptid/synop-ingest/internal/domain"
	"github.com/couchcryptid/synop-ingest/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock for cache tests ---

type countingResolver struct {
	calls   int
	results map[string]Resolution
	err     error
}

func (m *countingResolver) Resolve(_ context.Context, identifier string) (Resolution, error) {
	m.calls++
	if m.err != nil {
		return Resolution{}, m.err
	}
	return m.results[identifier], nil
}

func resolved(id string) Resolution {
	return Resolution{Station: domain.Station{WIGOSID: id}, Resolved: true}
}

// --- CachedResolver tests ---

func TestCachedResolver_CacheHit(t *testing.T) {
	inner := &countingResolver{results: map[string]Resolution{"A": resolved("A")}}
	metrics := observability.NewMetricsForTesting()
	cached := NewCachedResolver(inner, 10, metrics)

	r1, err := cached.Resolve(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, "A", r1.Station.WIGOSID)

	r2, err := cached.Resolve(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, "A", r2.Station.WIGOSID)

	assert.Equal(t, 1, inner.calls, "should only call inner once")
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.ResolverCache.WithLabelValues("hit")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.ResolverCache.WithLabelValues("miss")), 0)
}

func TestCachedResolver_UnresolvedIsNotCached(t *testing.T) {
	inner := &countingResolver{results: map[string]Resolution{}}
	cached := NewCachedResolver(inner, 10, observability.NewMetricsForTesting())

	for range 2 {
		res, err := cached.Resolve(context.Background(), "ghost")
		require.NoError(t, err)
		assert.False(t, res.Resolved)
	}
	assert.Equal(t, 2, inner.calls)

	// A station loaded later is picked up.
	inner.results["ghost"] = resolved("ghost")
	res, err := cached.Resolve(context.Background(), "ghost")
	require.NoError(t, err)
	assert.True(t, res.Resolved)
}

func TestCachedResolver_ResetPicksUpReassignedAlias(t *testing.T) {
	inner := &countingResolver{results: map[string]Resolution{"06700": resolved("0-20000-0-06700")}}
	cached := NewCachedResolver(inner, 10, observability.NewMetricsForTesting())

	res, err := cached.Resolve(context.Background(), "06700")
	require.NoError(t, err)
	assert.Equal(t, "0-20000-0-06700", res.Station.WIGOSID)

	inner.results["06700"] = resolved("0-20000-0-06660")
	res, err = cached.Resolve(context.Background(), "06700")
	require.NoError(t, err)
	assert.Equal(t, "0-20000-0-06700", res.Station.WIGOSID, "served from cache until reset")

	cached.Reset()
	assert.Zero(t, cached.cache.len())

	res, err = cached.Resolve(context.Background(), "06700")
	require.NoError(t, err)
	assert.Equal(t, "0-20000-0-06660", res.Station.WIGOSID)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedResolver_ErrorsAreNotCached(t *testing.T) {
	inner := &countingResolver{err: errors.New("connection refused")}
	cached := NewCachedResolver(inner, 10, observability.NewMetricsForTesting())

	_, err := cached.Resolve(context.Background(), "A")
	require.Error(t, err)
	_, err = cached.Resolve(context.Background(), "A")
	require.Error(t, err)

	assert.Equal(t, 2, inner.calls)
	assert.Zero(t, cached.cache.len())
}

// --- LRU cache unit tests ---

func TestLRUCache_BasicGetPut(t *testing.T) {
	c := newLRUCache(3)

	c.put("a", resolved("A"))
	c.put("b", resolved("B"))

	result, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, "A", result.Station.WIGOSID)

	_, ok = c.get("missing")
	assert.False(t, ok)
}

func TestLRUCache_Eviction(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", resolved("A"))
	c.put("b", resolved("B"))
	c.put("c", resolved("C")) // evicts "a"

	_, ok := c.get("a")
	assert.False(t, ok, "a should have been evicted")

	result, ok := c.get("b")
	assert.True(t, ok)
	assert.Equal(t, "B", result.Station.WIGOSID)

	result, ok = c.get("c")
	assert.True(t, ok)
	assert.Equal(t, "C", result.Station.WIGOSID)
	assert.Equal(t, 2, c.len())
}

func TestLRUCache_AccessPromotesEntry(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", resolved("A"))
	c.put("b", resolved("B"))

	c.get("a")

	// "b" is now least recently used.
	c.put("c", resolved("C"))

	_, ok := c.get("a")
	assert.True(t, ok, "a was accessed recently, should not be evicted")

	_, ok = c.get("b")
	assert.False(t, ok, "b should have been evicted")
}

func TestLRUCache_UpdateExisting(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", resolved("A1"))
	c.put("a", resolved("A2"))

	result, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, "A2", result.Station.WIGOSID)
	assert.Equal(t, 1, c.len())
}
