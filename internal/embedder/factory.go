package embedder

import "fmt"

// Config selects and configures an embedding provider.
type Config struct {
	Provider  string
	OllamaURL string
	Model     string
	CacheSize int
}

// New constructs the embedder named by cfg.Provider. An empty provider
// selects the local embedder so the service works with no external
// dependencies.
func New(cfg Config) (Embedder, error) {
	cache := NewCache(cfg.CacheSize)

	switch cfg.Provider {
	case "", ProviderLocal:
		return NewLocalProvider(cache)
	case ProviderOllama:
		return NewOllamaProvider(cfg.OllamaURL, cfg.Model, cache)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedModel, cfg.Provider)
	}
}
