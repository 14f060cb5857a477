package store

import "gorm.io/gorm"

// ReportRepository provides access to persisted health reports.
type ReportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

func (r *ReportRepository) Create(report *HealthReport) error {
	return r.db.Create(report).Error
}

func (r *ReportRepository) GetByJobID(jobID uint) (*HealthReport, error) {
	var report HealthReport
	if err := r.db.Where("job_id = ?", jobID).First(&report).Error; err != nil {
		return nil, translate(err)
	}
	return &report, nil
}
