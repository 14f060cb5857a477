package store

import (
	"time"

	"gorm.io/gorm"
)

// JobRepository provides CRUD access to analysis jobs.
type JobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

func (r *JobRepository) Create(job *AnalysisJob) error {
	return r.db.Create(job).Error
}

func (r *JobRepository) GetByID(id uint) (*AnalysisJob, error) {
	var job AnalysisJob
	if err := r.db.First(&job, id).Error; err != nil {
		return nil, translate(err)
	}
	return &job, nil
}

// UpdateStatus sets the job status and, when non-empty, the progress
// detail and error message. UpdatedAt is bumped on every call.
func (r *JobRepository) UpdateStatus(id uint, status, detail, errMsg string) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}
	if detail != "" {
		updates["progress_detail"] = detail
	}
	if errMsg != "" {
		updates["error_message"] = errMsg
	}
	return r.db.Model(&AnalysisJob{}).Where("id = ?", id).Updates(updates).Error
}

// ListTerminalBefore returns completed or failed jobs created before the
// cutoff, the population eligible for artifact cleanup.
func (r *JobRepository) ListTerminalBefore(cutoff time.Time) ([]*AnalysisJob, error) {
	var jobs []*AnalysisJob
	err := r.db.
		Where("created_at < ? AND status IN ?", cutoff, []string{StatusCompleted, StatusFailed}).
		Order("created_at ASC").
		Find(&jobs).Error
	return jobs, err
}

// CountTerminalBefore counts jobs currently eligible for cleanup.
func (r *JobRepository) CountTerminalBefore(cutoff time.Time) (int64, error) {
	var n int64
	err := r.db.Model(&AnalysisJob{}).
		Where("created_at < ? AND status IN ?", cutoff, []string{StatusCompleted, StatusFailed}).
		Count(&n).Error
	return n, err
}

func (r *JobRepository) Count() (int64, error) {
	var n int64
	err := r.db.Model(&AnalysisJob{}).Count(&n).Error
	return n, err
}

func (r *JobRepository) CountByStatus(status string) (int64, error) {
	var n int64
	err := r.db.Model(&AnalysisJob{}).Where("status = ?", status).Count(&n).Error
	return n, err
}
