package summarizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/repohealth/pkg/types"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare json", `{"a": 1}`, `{"a": 1}`},
		{"json fence", "Here you go:\n```json\n{\"a\": 1}\n```\nDone.", `{"a": 1}`},
		{"plain fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"unclosed fence", "```json\n{\"a\": 1}", `{"a": 1}`},
		{"surrounding whitespace", "  {\"a\": 1}\n", `{"a": 1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractJSON(tt.in))
		})
	}
}

func TestDecodeReport_Valid(t *testing.T) {
	raw := `{
		"code_quality_score": 72.5,
		"vulnerabilities": [{"severity": "high", "description": "SQL injection in query builder"}],
		"tech_debt_items": [{"category": "complexity", "description": "deeply nested handlers", "priority": "medium"}],
		"modernization_suggestions": [{"type": "ci_cd", "description": "add pipeline", "effort_estimate": "low"}],
		"overall_summary": "Solid codebase with a few hotspots."
	}`
	languages := map[string]int{"Python": 12}
	deps := map[string][]string{"python": {"fastapi"}}

	report, err := decodeReport(raw, languages, deps, 12)
	require.NoError(t, err)

	assert.Equal(t, 72.5, report.CodeQualityScore)
	require.Len(t, report.Vulnerabilities, 1)
	assert.Equal(t, "high", report.Vulnerabilities[0].Severity)
	require.Len(t, report.TechDebtItems, 1)
	assert.Equal(t, "complexity", report.TechDebtItems[0].Category)
	require.Len(t, report.ModernizationSuggestions, 1)
	assert.Equal(t, "Solid codebase with a few hotspots.", report.OverallSummary)

	assert.Equal(t, languages, report.LanguagesDetected)
	assert.Equal(t, deps, report.DependenciesFound)
	assert.Equal(t, 12, report.TotalFilesAnalyzed)
	assert.False(t, report.AnalysisTimestamp.IsZero())
}

func TestDecodeReport_FencedOutput(t *testing.T) {
	raw := "```json\n{\"code_quality_score\": 90, \"overall_summary\": \"clean\"}\n```"

	report, err := decodeReport(raw, nil, nil, 3)
	require.NoError(t, err)
	assert.Equal(t, 90.0, report.CodeQualityScore)
	assert.Equal(t, "clean", report.OverallSummary)
}

func TestDecodeReport_MalformedDegrades(t *testing.T) {
	languages := map[string]int{"Go": 2}

	report, err := decodeReport("I could not produce JSON, sorry!", languages, nil, 2)
	assert.ErrorIs(t, err, ErrMalformedReport)

	// The degraded report is still usable.
	require.NotNil(t, report)
	assert.Equal(t, 50.0, report.CodeQualityScore)
	assert.Contains(t, report.OverallSummary, "could not parse")
	assert.Equal(t, languages, report.LanguagesDetected)
	assert.Equal(t, 2, report.TotalFilesAnalyzed)
}

func TestDecodeReport_EmptySummaryDefaulted(t *testing.T) {
	report, err := decodeReport(`{"code_quality_score": 60}`, nil, nil, 1)
	require.NoError(t, err)
	assert.Equal(t, "Analysis completed", report.OverallSummary)
}

func TestFormatSamples_TruncatesLongContent(t *testing.T) {
	samples := []types.Sample{{
		Content: strings.Repeat("x", 5000),
		Meta:    types.ChunkMeta{FilePath: "big.py", ChunkIndex: 3, Language: ".py"},
	}}

	out := formatSamples(samples)
	assert.Contains(t, out, "big.py (chunk 3)")
	assert.Contains(t, out, "... (truncated)")
	assert.Less(t, len(out), 2000)
}

func TestFormatSamples_CapsSampleCount(t *testing.T) {
	samples := make([]types.Sample, 30)
	for i := range samples {
		samples[i] = types.Sample{Content: "c", Meta: types.ChunkMeta{FilePath: "f.py"}}
	}

	out := formatSamples(samples)
	assert.Contains(t, out, "Sample 20:")
	assert.NotContains(t, out, "Sample 21:")
}

func TestBuildPrompt_EmbedsRepositoryFacts(t *testing.T) {
	prompt := buildPrompt(
		map[string]int{"Go": 4},
		map[string][]string{"go": {"github.com/gin-gonic/gin"}},
		4,
		[]types.Sample{{Content: "package main", Meta: types.ChunkMeta{FilePath: "main.go", Language: ".go"}}},
	)

	assert.Contains(t, prompt, `"Go": 4`)
	assert.Contains(t, prompt, "github.com/gin-gonic/gin")
	assert.Contains(t, prompt, "Total Files: 4")
	assert.Contains(t, prompt, "package main")
	assert.Contains(t, prompt, "Return ONLY valid JSON")
}

func TestNewGemini_RequiresKeys(t *testing.T) {
	_, err := NewGemini(t.Context(), GeminiConfig{})
	assert.ErrorIs(t, err, ErrNoAPIKeys)
}
