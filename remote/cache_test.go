package remote

import (
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDoc(url string) *Document {
	return &Document{
		URL:     url,
		Content: map[string]any{"@context": map[string]any{}},
	}
}

func TestLRUCache_GetSet(t *testing.T) {
	cache, err := NewLRUCache(2)
	require.NoError(t, err)

	_, ok := cache.Get("http://example.org/a")
	assert.False(t, ok)

	require.NoError(t, cache.Set("http://example.org/a", testDoc("http://example.org/a")))
	doc, ok := cache.Get("http://example.org/a")
	require.True(t, ok)
	assert.Equal(t, "http://example.org/a", doc.URL)

	assert.Equal(t, int64(1), cache.Stats().Hits())
	assert.Equal(t, int64(1), cache.Stats().Misses())
	assert.Equal(t, int64(1), cache.Stats().Sets())
	assert.Equal(t, 1, cache.Len())
}

func TestLRUCache_InvalidArguments(t *testing.T) {
	_, err := NewLRUCache(0)
	assert.Error(t, err)

	cache, err := NewLRUCache(1)
	require.NoError(t, err)
	assert.Error(t, cache.Set("", testDoc("x")))
	assert.Error(t, cache.Set("http://example.org/a", nil))
}

func TestLRUCache_EvictionOrder(t *testing.T) {
	cache, err := NewLRUCache(2)
	require.NoError(t, err)

	require.NoError(t, cache.Set("http://example.org/a", testDoc("http://example.org/a")))
	require.NoError(t, cache.Set("http://example.org/b", testDoc("http://example.org/b")))

	// Touch "a" so "b" becomes the eviction candidate.
	_, ok := cache.Get("http://example.org/a")
	require.True(t, ok)

	require.NoError(t, cache.Set("http://example.org/c", testDoc("http://example.org/c")))

	_, ok = cache.Get("http://example.org/b")
	assert.False(t, ok, "least recently used entry should be evicted")
	_, ok = cache.Get("http://example.org/a")
	assert.True(t, ok)
	_, ok = cache.Get("http://example.org/c")
	assert.True(t, ok)

	assert.Equal(t, int64(1), cache.Stats().Evictions())
	assert.Equal(t, []string{"http://example.org/c", "http://example.org/a"}, cache.URLs())
}

func TestLRUCache_UpdateExisting(t *testing.T) {
	cache, err := NewLRUCache(2)
	require.NoError(t, err)

	require.NoError(t, cache.Set("http://example.org/a", testDoc("http://example.org/a")))
	updated := testDoc("http://example.org/a")
	updated.Tag = "v2"
	require.NoError(t, cache.Set("http://example.org/a", updated))

	doc, ok := cache.Get("http://example.org/a")
	require.True(t, ok)
	assert.Equal(t, "v2", doc.Tag)
	assert.Equal(t, 1, cache.Len())
}

func TestLRUCache_Clear(t *testing.T) {
	cache, err := NewLRUCache(4)
	require.NoError(t, err)

	require.NoError(t, cache.Set("http://example.org/a", testDoc("http://example.org/a")))
	cache.Clear()

	assert.Equal(t, 0, cache.Len())
	assert.Empty(t, cache.URLs())
	assert.Equal(t, int64(0), cache.Stats().Size())
}

func TestLRUCache_Metrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	cache, err := NewLRUCache(2, WithMetrics(registry, "test_context_cache"))
	require.NoError(t, err)

	require.NoError(t, cache.Set("http://example.org/a", testDoc("http://example.org/a")))
	cache.Get("http://example.org/a")
	cache.Get("http://example.org/missing")

	assert.Equal(t, float64(1), testutil.ToFloat64(cache.metrics.hits))
	assert.Equal(t, float64(1), testutil.ToFloat64(cache.metrics.misses))
	assert.Equal(t, float64(1), testutil.ToFloat64(cache.metrics.sets))
	assert.Equal(t, float64(1), testutil.ToFloat64(cache.metrics.size))
}

func TestLRUCache_MetricsRegistrationConflict(t *testing.T) {
	registry := prometheus.NewRegistry()
	_, err := NewLRUCache(2, WithMetrics(registry, "dup_cache"))
	require.NoError(t, err)

	_, err = NewLRUCache(2, WithMetrics(registry, "dup_cache"))
	assert.Error(t, err)
}

func TestLRUCache_ConcurrentAccess(t *testing.T) {
	cache, err := NewLRUCache(16)
	require.NoError(t, err)

	done := make(chan struct{})
	for i := 0; i < 4; i++ {
		go func(n int) {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				url := fmt.Sprintf("http://example.org/%d/%d", n, j%8)
				_ = cache.Set(url, testDoc(url))
				cache.Get(url)
			}
		}(i)
	}
	for i := 0; i < 4; i++ {
		<-done
	}
	assert.LessOrEqual(t, cache.Len(), 16)
}
