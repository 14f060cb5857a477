package store

import "time"

// Job status values. Transitions are monotonic forward; completed and
// failed are terminal.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// AnalysisJob is one repository analysis request and its lifecycle state.
type AnalysisJob struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	RepoURL        string    `gorm:"size:500;not null" json:"repo_url"`
	Branch         string    `gorm:"size:200" json:"branch,omitempty"`
	Status         string    `gorm:"size:20;not null;default:pending;index" json:"status"`
	ProgressDetail string    `gorm:"size:500" json:"progress_detail,omitempty"`
	ErrorMessage   string    `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (AnalysisJob) TableName() string {
	return "analysis_jobs"
}

// Terminal reports whether the job is in a terminal state.
func (j *AnalysisJob) Terminal() bool {
	return j.Status == StatusCompleted || j.Status == StatusFailed
}

// HealthReport is the persisted structured report for a completed job.
// One per job, written once.
type HealthReport struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	JobID      uint      `gorm:"uniqueIndex;not null" json:"job_id"`
	ReportJSON string    `gorm:"type:text;not null" json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

func (HealthReport) TableName() string {
	return "health_reports"
}
