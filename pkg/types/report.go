package types

import "time"

// VulnerabilityItem is a single security finding in a health report.
type VulnerabilityItem struct {
	Severity          string `json:"severity"` // critical, high, medium, low
	Description       string `json:"description"`
	AffectedComponent string `json:"affected_component,omitempty"`
	Recommendation    string `json:"recommendation,omitempty"`
}

// TechDebtItem is a single technical-debt finding in a health report.
type TechDebtItem struct {
	Category    string `json:"category"` // code_smell, duplication, complexity, ...
	Description string `json:"description"`
	FilePath    string `json:"file_path,omitempty"`
	Priority    string `json:"priority,omitempty"`
}

// ModernizationSuggestion is a single improvement proposal in a health report.
type ModernizationSuggestion struct {
	Type           string `json:"type"` // dependency_upgrade, refactoring, ...
	Description    string `json:"description"`
	Rationale      string `json:"rationale,omitempty"`
	EffortEstimate string `json:"effort_estimate,omitempty"`
}

// HealthReportData is the structured report produced for a completed
// analysis job. Created once and immutable thereafter.
type HealthReportData struct {
	CodeQualityScore         float64                   `json:"code_quality_score"`
	Vulnerabilities          []VulnerabilityItem       `json:"vulnerabilities"`
	TechDebtItems            []TechDebtItem            `json:"tech_debt_items"`
	ModernizationSuggestions []ModernizationSuggestion `json:"modernization_suggestions"`
	OverallSummary           string                    `json:"overall_summary"`

	// Echoed analysis metadata
	LanguagesDetected  map[string]int      `json:"languages_detected,omitempty"`
	DependenciesFound  map[string][]string `json:"dependencies_found,omitempty"`
	TotalFilesAnalyzed int                 `json:"total_files_analyzed,omitempty"`
	AnalysisTimestamp  time.Time           `json:"analysis_timestamp,omitempty"`
}
