package embedder

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalProvider_Deterministic(t *testing.T) {
	p, err := NewLocalProvider(nil)
	require.NoError(t, err)

	v1, err := p.EmbedOne(t.Context(), "func main() {}")
	require.NoError(t, err)
	v2, err := p.EmbedOne(t.Context(), "func main() {}")
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
	assert.Len(t, v1, LocalDimension)
}

func TestLocalProvider_DistinctTextsDiffer(t *testing.T) {
	p, err := NewLocalProvider(nil)
	require.NoError(t, err)

	v1, err := p.EmbedOne(t.Context(), "alpha")
	require.NoError(t, err)
	v2, err := p.EmbedOne(t.Context(), "beta")
	require.NoError(t, err)

	assert.NotEqual(t, v1, v2)
}

func TestLocalProvider_Normalized(t *testing.T) {
	p, err := NewLocalProvider(nil)
	require.NoError(t, err)

	v, err := p.EmbedOne(t.Context(), "normalize me")
	require.NoError(t, err)

	var sum float64
	for _, val := range v {
		sum += float64(val) * float64(val)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-5)
}

func TestLocalProvider_EmptyText(t *testing.T) {
	p, err := NewLocalProvider(nil)
	require.NoError(t, err)

	_, err = p.EmbedOne(t.Context(), "")
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestLocalProvider_EmbedManyPreservesOrder(t *testing.T) {
	p, err := NewLocalProvider(nil)
	require.NoError(t, err)

	texts := []string{"one", "two", "three"}
	vectors, err := p.EmbedMany(t.Context(), texts)
	require.NoError(t, err)
	require.Len(t, vectors, 3)

	for i, text := range texts {
		single, err := p.EmbedOne(t.Context(), text)
		require.NoError(t, err)
		assert.Equal(t, single, vectors[i], "vector %d out of order", i)
	}
}

func TestCache_HitAndCopy(t *testing.T) {
	c := NewCache(4)
	c.Set("k", []float32{1, 2, 3})

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []float32{1, 2, 3}, got)

	// Mutating the returned slice must not change the cached value.
	got[0] = 99
	again, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, float32(1), again[0])
}

func TestCache_Eviction(t *testing.T) {
	c := NewCache(2)
	c.Set("a", []float32{1})
	c.Set("b", []float32{2})
	c.Set("c", []float32{3})

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("a")
	assert.False(t, ok, "oldest entry should be evicted")
}

func TestOllamaProvider_Embed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)

		var req ollamaEmbeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nomic-embed-text", req.Model)

		json.NewEncoder(w).Encode(ollamaEmbeddingResponse{
			Embedding: []float64{3, 4},
		})
	}))
	defer server.Close()

	p, err := NewOllamaProvider(server.URL, "", nil)
	require.NoError(t, err)

	v, err := p.EmbedOne(t.Context(), "hello")
	require.NoError(t, err)
	require.Len(t, v, 2)

	// Normalized 3-4-5 triangle.
	assert.InDelta(t, 0.6, v[0], 1e-5)
	assert.InDelta(t, 0.8, v[1], 1e-5)
}

func TestOllamaProvider_ServerErrorSurfaced(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	p, err := NewOllamaProvider(server.URL, "missing", nil)
	require.NoError(t, err)
	p.retry = RetryConfig{MaxRetries: 1, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}

	_, err = p.EmbedOne(t.Context(), "hello")
	assert.ErrorIs(t, err, ErrProviderFailed)
}

func TestOllamaProvider_UsesCache(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode(ollamaEmbeddingResponse{Embedding: []float64{1, 0}})
	}))
	defer server.Close()

	p, err := NewOllamaProvider(server.URL, "", NewCache(8))
	require.NoError(t, err)

	_, err = p.EmbedOne(t.Context(), "cached text")
	require.NoError(t, err)
	_, err = p.EmbedOne(t.Context(), "cached text")
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
}

func TestRetryWithBackoff_EventualSuccess(t *testing.T) {
	attempts := 0
	cfg := RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}

	got, err := retryWithBackoff(t.Context(), cfg, func() (int, error) {
		attempts++
		if attempts < 3 {
			return 0, errors.New("transient")
		}
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 3, attempts)
}

func TestRetryWithBackoff_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	cfg := RetryConfig{MaxRetries: 5, BaseDelay: time.Second, MaxDelay: time.Second, Multiplier: 1}

	_, err := retryWithBackoff(ctx, cfg, func() (int, error) {
		return 0, errors.New("always fails")
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew_ProviderSelection(t *testing.T) {
	e, err := New(Config{})
	require.NoError(t, err)
	assert.Equal(t, ProviderLocal, e.Provider())

	e, err = New(Config{Provider: ProviderOllama})
	require.NoError(t, err)
	assert.Equal(t, ProviderOllama, e.Provider())

	_, err = New(Config{Provider: "openai-gpt"})
	assert.ErrorIs(t, err, ErrUnsupportedModel)
}
