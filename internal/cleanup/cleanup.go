// Package cleanup enforces the repository retention policy: a ticker
// deletes clone directories of terminal jobs older than the retention
// window, and a manual path deletes a single job's directory on demand.
package cleanup

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/dshills/repohealth/internal/logger"
	"github.com/dshills/repohealth/internal/store"
)

// ErrNotFound is returned by ManualCleanup for unknown job ids.
var ErrNotFound = errors.New("job not found")

// ArtifactStore locates and deletes per-job clone directories.
type ArtifactStore interface {
	Path(jobID uint) string
	Remove(path string) error
}

// Stats summarizes the on-disk state and cleanup eligibility.
type Stats struct {
	TotalJobs          int64   `json:"total_jobs"`
	CompletedJobs      int64   `json:"completed_jobs"`
	ExistingRepos      int     `json:"existing_repositories"`
	TotalSizeMB        float64 `json:"total_size_mb"`
	EligibleForCleanup int64   `json:"eligible_for_cleanup"`
	RetentionMinutes   int     `json:"retention_minutes"`
	CheckIntervalSecs  int     `json:"next_cleanup_in_seconds"`
}

// Scheduler deletes expired clone directories on a fixed interval.
type Scheduler struct {
	jobs      *store.JobRepository
	artifacts ArtifactStore
	workDir   string
	retention time.Duration
	interval  time.Duration

	stop chan struct{}
	done chan struct{}
}

// New creates a scheduler. It does not start ticking until Start.
func New(jobs *store.JobRepository, artifacts ArtifactStore, workDir string, retention, interval time.Duration) *Scheduler {
	return &Scheduler{
		jobs:      jobs,
		artifacts: artifacts,
		workDir:   workDir,
		retention: retention,
		interval:  interval,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start launches the background ticker.
func (s *Scheduler) Start() {
	logger.WithComponent("cleanup").
		WithField("interval", s.interval.String()).
		WithField("retention", s.retention.String()).
		Info("cleanup scheduler started")

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				s.Tick(time.Now())
			}
		}
	}()
}

// Stop halts the ticker and waits for the loop to exit.
func (s *Scheduler) Stop() {
	close(s.stop)
	<-s.done
	logger.WithComponent("cleanup").Info("cleanup scheduler stopped")
}

// Tick removes clone directories of terminal jobs created before
// now − retention. Only jobs in a terminal state are touched, so an
// in-flight pipeline's directory is never deleted. A summary is logged
// only when at least one deletion was attempted.
func (s *Scheduler) Tick(now time.Time) {
	log := logger.WithComponent("cleanup")
	cutoff := now.Add(-s.retention)

	expired, err := s.jobs.ListTerminalBefore(cutoff)
	if err != nil {
		log.WithError(err).Error("failed to query expired jobs")
		return
	}

	deleted, failed := 0, 0
	for _, job := range expired {
		path := s.artifacts.Path(job.ID)
		if _, statErr := os.Stat(path); statErr != nil {
			continue
		}
		if err := s.artifacts.Remove(path); err != nil {
			failed++
			log.WithError(err).WithField("job_id", job.ID).Error("failed to delete repository")
			continue
		}
		deleted++
		log.WithField("job_id", job.ID).
			WithField("age", now.Sub(job.CreatedAt).Round(time.Second).String()).
			Info("deleted expired repository")
	}

	if deleted > 0 || failed > 0 {
		log.Infof("cleanup completed: %d deleted, %d failed", deleted, failed)
	}
}

// ManualCleanup deletes one job's clone directory immediately.
// Idempotent: a directory that is already gone is a success.
func (s *Scheduler) ManualCleanup(jobID uint) error {
	_, err := s.jobs.GetByID(jobID)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %d", ErrNotFound, jobID)
	}
	if err != nil {
		return err
	}

	path := s.artifacts.Path(jobID)
	if _, statErr := os.Stat(path); statErr != nil {
		logger.WithComponent("cleanup").WithField("job_id", jobID).
			Info("repository already removed")
		return nil
	}
	if err := s.artifacts.Remove(path); err != nil {
		return fmt.Errorf("removing repository for job %d: %w", jobID, err)
	}
	logger.WithComponent("cleanup").WithField("job_id", jobID).
		Info("manually deleted repository")
	return nil
}

// GetStats reports job counts, on-disk usage, and cleanup eligibility.
func (s *Scheduler) GetStats() (*Stats, error) {
	totalJobs, err := s.jobs.Count()
	if err != nil {
		return nil, err
	}
	completed, err := s.jobs.CountByStatus(store.StatusCompleted)
	if err != nil {
		return nil, err
	}
	eligible, err := s.jobs.CountTerminalBefore(time.Now().Add(-s.retention))
	if err != nil {
		return nil, err
	}

	existing, sizeMB := s.diskUsage()

	return &Stats{
		TotalJobs:          totalJobs,
		CompletedJobs:      completed,
		ExistingRepos:      existing,
		TotalSizeMB:        sizeMB,
		EligibleForCleanup: eligible,
		RetentionMinutes:   int(s.retention / time.Minute),
		CheckIntervalSecs:  int(s.interval / time.Second),
	}, nil
}

// diskUsage counts per-job directories under workDir and sums their
// file sizes in megabytes.
func (s *Scheduler) diskUsage() (int, float64) {
	entries, err := os.ReadDir(s.workDir)
	if err != nil {
		return 0, 0
	}

	count := 0
	var bytes int64
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		count++
		_ = filepath.WalkDir(filepath.Join(s.workDir, entry.Name()), func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			if info, infoErr := d.Info(); infoErr == nil {
				bytes += info.Size()
			}
			return nil
		})
	}
	return count, float64(bytes) / (1024 * 1024)
}
