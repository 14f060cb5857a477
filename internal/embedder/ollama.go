package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// ProviderOllama identifies the Ollama HTTP provider.
	ProviderOllama = "ollama"

	defaultOllamaURL   = "http://localhost:11434"
	defaultOllamaModel = "nomic-embed-text"

	// nomic-embed-text output size.
	ollamaDimension = 768
)

// OllamaProvider generates embeddings through a local Ollama server.
type OllamaProvider struct {
	baseURL string
	model   string
	client  *http.Client
	cache   *Cache
	retry   RetryConfig
}

type ollamaEmbeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbeddingResponse struct {
	Embedding []float64 `json:"embedding"`
}

// NewOllamaProvider creates an Ollama-backed embedder. Empty baseURL and
// model fall back to the local server defaults.
func NewOllamaProvider(baseURL, model string, cache *Cache) (*OllamaProvider, error) {
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	if model == "" {
		model = defaultOllamaModel
	}
	return &OllamaProvider{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: 60 * time.Second},
		cache:   cache,
		retry:   DefaultRetryConfig(),
	}, nil
}

func (o *OllamaProvider) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	hash := ComputeHash(text)
	if o.cache != nil {
		if v, ok := o.cache.Get(hash); ok {
			return v, nil
		}
	}

	vector, err := retryWithBackoff(ctx, o.retry, func() ([]float32, error) {
		return o.embed(ctx, text)
	})
	if err != nil {
		return nil, err
	}

	vector = NormalizeVector(vector)
	if o.cache != nil {
		o.cache.Set(hash, vector)
	}
	return vector, nil
}

func (o *OllamaProvider) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	// The embeddings endpoint is single-prompt; batch by looping.
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := o.EmbedOne(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embedding text %d: %w", i, err)
		}
		vectors[i] = v
	}
	return vectors, nil
}

func (o *OllamaProvider) embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(ollamaEmbeddingRequest{Model: o.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		o.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrProviderFailed, resp.StatusCode, string(data))
	}

	var parsed ollamaEmbeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if len(parsed.Embedding) == 0 {
		return nil, fmt.Errorf("%w: empty embedding", ErrProviderFailed)
	}

	vector := make([]float32, len(parsed.Embedding))
	for i, val := range parsed.Embedding {
		vector[i] = float32(val)
	}
	return vector, nil
}

func (o *OllamaProvider) Dimension() int   { return ollamaDimension }
func (o *OllamaProvider) Provider() string { return ProviderOllama }

func (o *OllamaProvider) Close() error {
	o.client.CloseIdleConnections()
	return nil
}
