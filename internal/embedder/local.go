package embedder

import (
	"context"
	"crypto/sha256"
	"fmt"
)

const (
	// ProviderLocal identifies the in-process provider.
	ProviderLocal = "local"

	// LocalDimension is the vector size of the local provider.
	LocalDimension = 384
)

// LocalProvider computes deterministic in-process embeddings derived
// from repeated content hashing. They carry no semantic signal, but they
// are stable, normalized, and need no network, which is enough for the
// enumeration-driven sampling this service performs and for tests.
type LocalProvider struct {
	cache *Cache
}

// NewLocalProvider creates a local embedder.
func NewLocalProvider(cache *Cache) (*LocalProvider, error) {
	return &LocalProvider{cache: cache}, nil
}

func (l *LocalProvider) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	hash := ComputeHash(text)
	if l.cache != nil {
		if v, ok := l.cache.Get(hash); ok {
			return v, nil
		}
	}

	vector := make([]float32, LocalDimension)
	seed := sha256.Sum256([]byte(text))
	block := seed
	for i := 0; i < LocalDimension; i++ {
		if i%len(block) == 0 && i > 0 {
			block = sha256.Sum256(block[:])
		}
		vector[i] = float32(block[i%len(block)])/127.5 - 1.0
	}
	vector = NormalizeVector(vector)

	if l.cache != nil {
		l.cache.Set(hash, vector)
	}
	return vector, nil
}

func (l *LocalProvider) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := l.EmbedOne(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embedding text %d: %w", i, err)
		}
		vectors[i] = v
	}
	return vectors, nil
}

func (l *LocalProvider) Dimension() int   { return LocalDimension }
func (l *LocalProvider) Provider() string { return ProviderLocal }
func (l *LocalProvider) Close() error     { return nil }
