package summarizer

import (
	"context"
	"fmt"
	"sync/atomic"

	genai "google.golang.org/genai"

	"github.com/dshills/repohealth/internal/logger"
	"github.com/dshills/repohealth/pkg/types"
)

// Gemini generates health reports with the Gemini API, rotating over
// the configured API keys round-robin per request.
type Gemini struct {
	clients     []*genai.Client
	model       string
	temperature float32
	maxTokens   int32
	next        atomic.Uint32
}

// GeminiConfig configures the Gemini summarizer.
type GeminiConfig struct {
	APIKeys     []string
	Model       string
	Temperature float32
	MaxTokens   int32
}

// NewGemini creates a Gemini summarizer, one client per API key.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	if len(cfg.APIKeys) == 0 {
		return nil, ErrNoAPIKeys
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}

	clients := make([]*genai.Client, 0, len(cfg.APIKeys))
	for _, key := range cfg.APIKeys {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  key,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("creating gemini client: %w", err)
		}
		clients = append(clients, client)
	}

	logger.WithComponent("summarizer").
		WithField("keys", len(clients)).
		WithField("model", cfg.Model).
		Info("gemini summarizer initialized")

	return &Gemini{
		clients:     clients,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

// nextClient returns the next client in round-robin order.
func (g *Gemini) nextClient() *genai.Client {
	idx := g.next.Add(1) - 1
	return g.clients[int(idx)%len(g.clients)]
}

// GenerateReport asks the model for a structured health report.
// Transport errors propagate; malformed model JSON degrades to a
// neutral report so the analysis still completes.
func (g *Gemini) GenerateReport(ctx context.Context, languages map[string]int, dependencies map[string][]string, totalFiles int, samples []types.Sample) (*types.HealthReportData, error) {
	log := logger.WithComponent("summarizer")
	prompt := buildPrompt(languages, dependencies, totalFiles, samples)
	log.WithField("samples", len(samples)).
		WithField("prompt_bytes", len(prompt)).
		Info("requesting health report")

	client := g.nextClient()
	resp, err := client.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
		&genai.GenerateContentConfig{
			Temperature:      genai.Ptr(g.temperature),
			MaxOutputTokens:  g.maxTokens,
			ResponseMIMEType: "application/json",
		},
	)
	if err != nil {
		return nil, fmt.Errorf("generating report: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, ErrEmptyResponse
	}

	raw := resp.Candidates[0].Content.Parts[0].Text
	report, err := decodeReport(raw, languages, dependencies, totalFiles)
	if err != nil {
		log.WithError(err).Warn("model output unparseable, returning degraded report")
	}
	return report, nil
}
