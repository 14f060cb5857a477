// Package summarizer turns repository metadata and representative code
// samples into a structured health report using an LLM. Malformed model
// output degrades to a neutral report instead of failing the job;
// transport failures are real errors.
package summarizer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dshills/repohealth/pkg/types"
)

// Common errors
var (
	ErrNoAPIKeys       = errors.New("no API keys configured")
	ErrMalformedReport = errors.New("model returned malformed report JSON")
	ErrEmptyResponse   = errors.New("model returned an empty response")
)

const (
	// maxPromptSamples bounds how many samples the prompt embeds.
	maxPromptSamples = 20
	// maxSampleChars truncates each sample's text in the prompt.
	maxSampleChars = 1200
)

// Summarizer generates a health report from analysis inputs.
type Summarizer interface {
	GenerateReport(ctx context.Context, languages map[string]int, dependencies map[string][]string, totalFiles int, samples []types.Sample) (*types.HealthReportData, error)
}

// reportPayload is the JSON shape requested from the model.
type reportPayload struct {
	CodeQualityScore         float64                         `json:"code_quality_score"`
	Vulnerabilities          []types.VulnerabilityItem       `json:"vulnerabilities"`
	TechDebtItems            []types.TechDebtItem            `json:"tech_debt_items"`
	ModernizationSuggestions []types.ModernizationSuggestion `json:"modernization_suggestions"`
	OverallSummary           string                          `json:"overall_summary"`
}

// buildPrompt assembles the analysis prompt from repository facts and
// formatted code samples.
func buildPrompt(languages map[string]int, dependencies map[string][]string, totalFiles int, samples []types.Sample) string {
	languagesJSON, _ := json.MarshalIndent(languages, "", "  ")
	dependenciesJSON, _ := json.MarshalIndent(dependencies, "", "  ")

	var b strings.Builder
	fmt.Fprintf(&b, `You are an expert code analyst and security auditor. Analyze the following codebase and provide a comprehensive health report.

Repository Information:
- Languages: %s
- Dependencies: %s
- Total Files: %d
- Code Samples Provided: %d

=== ACTUAL CODE SAMPLES FROM THE REPOSITORY ===
The following are REAL code samples extracted from the codebase. Analyze these specific code patterns, structure, and implementations:

%s
=== END OF CODE SAMPLES ===

Your task is to analyze this codebase and provide a detailed health report in JSON format with the following structure:

{
  "code_quality_score": <float between 0-100>,
  "vulnerabilities": [
    {"severity": "<critical|high|medium|low>", "description": "...", "affected_component": "...", "recommendation": "..."}
  ],
  "tech_debt_items": [
    {"category": "<code_smell|duplication|complexity|outdated_patterns>", "description": "...", "file_path": "...", "priority": "<high|medium|low>"}
  ],
  "modernization_suggestions": [
    {"type": "<dependency_upgrade|refactoring|containerization|ci_cd|security>", "description": "...", "rationale": "...", "effort_estimate": "<low|medium|high>"}
  ],
  "overall_summary": "<comprehensive summary of the codebase health>"
}

Focus on:
1. Security vulnerabilities (outdated dependencies, insecure patterns)
2. Code quality issues (complexity, maintainability, best practices)
3. Technical debt (deprecated APIs, code smells)
4. Modernization opportunities (containerization, CI/CD, cloud-readiness)

Provide actionable, specific recommendations. Return ONLY valid JSON, no additional text.`,
		string(languagesJSON), string(dependenciesJSON), totalFiles, len(samples), formatSamples(samples))

	return b.String()
}

// formatSamples renders up to maxPromptSamples samples, each truncated
// to maxSampleChars characters.
func formatSamples(samples []types.Sample) string {
	if len(samples) > maxPromptSamples {
		samples = samples[:maxPromptSamples]
	}

	var b strings.Builder
	for i, sample := range samples {
		content := sample.Content
		if len(content) > maxSampleChars {
			content = content[:maxSampleChars] + "\n... (truncated)"
		}
		fmt.Fprintf(&b, "--- Sample %d: %s (chunk %d) ---\nLanguage: %s\n```\n%s\n```\n\n",
			i+1, sample.Meta.FilePath, sample.Meta.ChunkIndex, sample.Meta.Language, content)
	}
	return b.String()
}

// extractJSON strips markdown code fences the model sometimes wraps its
// JSON output in.
func extractJSON(text string) string {
	if idx := strings.Index(text, "```json"); idx >= 0 {
		text = text[idx+len("```json"):]
		if end := strings.Index(text, "```"); end >= 0 {
			text = text[:end]
		}
	} else if idx := strings.Index(text, "```"); idx >= 0 {
		text = text[idx+3:]
		if end := strings.Index(text, "```"); end >= 0 {
			text = text[:end]
		}
	}
	return strings.TrimSpace(text)
}

// decodeReport parses model output into a report. Malformed JSON yields
// a degraded report (neutral score, diagnostic summary) with err set to
// ErrMalformedReport so the caller can log it; the report is still
// usable and the job completes.
func decodeReport(raw string, languages map[string]int, dependencies map[string][]string, totalFiles int) (*types.HealthReportData, error) {
	report := &types.HealthReportData{
		LanguagesDetected:  languages,
		DependenciesFound:  dependencies,
		TotalFilesAnalyzed: totalFiles,
		AnalysisTimestamp:  time.Now().UTC(),
	}

	var payload reportPayload
	if err := json.Unmarshal([]byte(extractJSON(raw)), &payload); err != nil {
		report.CodeQualityScore = 50.0
		report.OverallSummary = fmt.Sprintf("Analysis failed: could not parse model response: %v", err)
		return report, ErrMalformedReport
	}

	report.CodeQualityScore = payload.CodeQualityScore
	report.Vulnerabilities = payload.Vulnerabilities
	report.TechDebtItems = payload.TechDebtItems
	report.ModernizationSuggestions = payload.ModernizationSuggestions
	report.OverallSummary = payload.OverallSummary
	if report.OverallSummary == "" {
		report.OverallSummary = "Analysis completed"
	}
	return report, nil
}
