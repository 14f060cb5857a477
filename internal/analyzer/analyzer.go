// Package analyzer orchestrates analysis jobs: submission with
// single-flight admission control, the background pipeline from clone
// to persisted report, and the status/report read paths.
package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dshills/repohealth/internal/fetcher"
	"github.com/dshills/repohealth/internal/indexer"
	"github.com/dshills/repohealth/internal/logger"
	"github.com/dshills/repohealth/internal/sampler"
	"github.com/dshills/repohealth/internal/store"
	"github.com/dshills/repohealth/internal/summarizer"
	"github.com/dshills/repohealth/internal/vectorstore"
	"github.com/dshills/repohealth/pkg/types"
)

// Common errors
var (
	ErrBusy         = errors.New("an analysis is already in progress")
	ErrInvalidInput = errors.New("invalid repository URL")
	ErrNoContent    = errors.New("no valid text files found in repository")
	ErrNotFound     = errors.New("job not found")
	ErrNotReady     = errors.New("analysis not completed yet")
)

// SourceFetcher is the clone/read/delete surface the pipeline needs
// from the git layer.
type SourceFetcher interface {
	Clone(ctx context.Context, repoURL string, jobID uint, branch string) (string, error)
	ReadFiles(root string) ([]types.FileRecord, error)
	Remove(path string) error
	Path(jobID uint) string
}

// Service drives analysis jobs end to end.
type Service struct {
	jobs       *store.JobRepository
	reports    *store.ReportRepository
	fetch      SourceFetcher
	vectors    *vectorstore.Store
	index      *indexer.Indexer
	summarize  summarizer.Summarizer
	maxSamples int

	lock Lock
	wg   sync.WaitGroup
}

// New wires an analyzer service.
func New(jobs *store.JobRepository, reports *store.ReportRepository, fetch SourceFetcher, vectors *vectorstore.Store, index *indexer.Indexer, summarize summarizer.Summarizer, maxSamples int) *Service {
	if maxSamples <= 0 {
		maxSamples = sampler.DefaultMaxSamples
	}
	return &Service{
		jobs:       jobs,
		reports:    reports,
		fetch:      fetch,
		vectors:    vectors,
		index:      index,
		summarize:  summarize,
		maxSamples: maxSamples,
	}
}

// Submit validates the request, admits it through the single-flight
// lock, creates the job row, and starts the pipeline in the background.
// A rejected submission creates no row. The returned job is in state
// pending; the caller does not wait for the pipeline.
func (s *Service) Submit(ctx context.Context, repoURL, branch string) (*store.AnalysisJob, error) {
	if err := fetcher.ValidateRepoURL(repoURL); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if !s.lock.TryAcquire() {
		return nil, ErrBusy
	}

	job := &store.AnalysisJob{RepoURL: repoURL, Branch: branch, Status: store.StatusPending}
	if err := s.jobs.Create(job); err != nil {
		s.lock.Release()
		return nil, fmt.Errorf("creating job: %w", err)
	}

	s.wg.Add(1)
	go s.run(job.ID, repoURL, branch)

	return job, nil
}

// Wait blocks until any in-flight pipeline finishes. Used at shutdown
// and in tests.
func (s *Service) Wait() {
	s.wg.Wait()
}

// GetStatus returns the job row for id.
func (s *Service) GetStatus(jobID uint) (*store.AnalysisJob, error) {
	job, err := s.jobs.GetByID(jobID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, jobID)
	}
	return job, err
}

// GetReport returns the decoded report for a completed job and the time
// it was persisted.
func (s *Service) GetReport(jobID uint) (*types.HealthReportData, time.Time, error) {
	job, err := s.jobs.GetByID(jobID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, time.Time{}, fmt.Errorf("%w: %d", ErrNotFound, jobID)
	}
	if err != nil {
		return nil, time.Time{}, err
	}
	if job.Status != store.StatusCompleted {
		return nil, time.Time{}, fmt.Errorf("%w: job %d is %s", ErrNotReady, jobID, job.Status)
	}

	row, err := s.reports.GetByJobID(jobID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, time.Time{}, fmt.Errorf("%w: report for job %d", ErrNotFound, jobID)
	}
	if err != nil {
		return nil, time.Time{}, err
	}

	var report types.HealthReportData
	if err := json.Unmarshal([]byte(row.ReportJSON), &report); err != nil {
		return nil, time.Time{}, fmt.Errorf("decoding stored report: %w", err)
	}
	return &report, row.CreatedAt, nil
}

// run executes the pipeline for one job. The lock is released on every
// exit path; panics are recovered and converted into a failed job.
func (s *Service) run(jobID uint, repoURL, branch string) {
	defer s.wg.Done()
	defer s.lock.Release()

	ctx := context.Background()
	log := logger.WithJob(jobID)

	var clonePath, collectionName string
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("pipeline panicked")
			s.fail(jobID, clonePath, collectionName, fmt.Errorf("internal error: %v", r))
		}
	}()

	err := s.pipeline(ctx, jobID, repoURL, branch, &clonePath, &collectionName)
	if err != nil {
		log.WithError(err).Error("analysis failed")
		s.fail(jobID, clonePath, collectionName, err)
		return
	}
	log.Info("analysis completed")
}

// pipeline runs the analysis stages in order, recording progress before
// each one. clonePath and collectionName are written as soon as the
// artifacts exist so the failure path can clean them up.
func (s *Service) pipeline(ctx context.Context, jobID uint, repoURL, branch string, clonePath, collectionName *string) error {
	log := logger.WithJob(jobID)

	s.progress(jobID, "Cloning repository")
	path, err := s.fetch.Clone(ctx, repoURL, jobID, branch)
	if err != nil {
		return err
	}
	*clonePath = path

	s.progress(jobID, "Reading repository files")
	files, err := s.fetch.ReadFiles(path)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return ErrNoContent
	}
	log.WithField("files", len(files)).Info("repository read")

	s.progress(jobID, "Detecting languages and dependencies")
	languages := fetcher.DetectLanguages(files)
	dependencies := fetcher.ParseDependencies(path)

	s.progress(jobID, "Indexing repository")
	name := indexer.CollectionName(repoURL, jobID)
	collection, err := s.vectors.CreateOrGetCollection(ctx, name, map[string]string{"repo_url": repoURL})
	if err != nil {
		return err
	}
	*collectionName = name

	_, err = s.index.IndexFiles(ctx, collection, files, func(processed, total int) {
		s.progress(jobID, fmt.Sprintf("Indexed %d/%d files", processed, total))
	})
	if err != nil {
		return err
	}

	s.progress(jobID, "Selecting representative samples")
	count, err := collection.Count(ctx)
	if err != nil {
		return err
	}
	records, err := collection.GetAll(ctx, count)
	if err != nil {
		return err
	}
	chunks := make([]types.ChunkRecord, len(records))
	for i, rec := range records {
		chunks[i] = types.ChunkRecord{ID: rec.ID, Content: rec.Document, Meta: rec.Meta}
	}
	samples := sampler.Select(chunks, s.maxSamples)
	log.WithField("samples", len(samples)).Info("samples selected")

	s.progress(jobID, "Generating health report")
	report, err := s.summarize.GenerateReport(ctx, languages, dependencies, len(files), samples)
	if err != nil {
		return err
	}

	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := s.reports.Create(&store.HealthReport{JobID: jobID, ReportJSON: string(reportJSON)}); err != nil {
		return fmt.Errorf("persisting report: %w", err)
	}

	// The index is only needed during the run. The clone dir stays for
	// the retention window.
	if err := s.vectors.DeleteCollection(ctx, name); err != nil {
		log.WithError(err).Warn("failed to delete collection")
	}

	return s.jobs.UpdateStatus(jobID, store.StatusCompleted, "Analysis complete", "")
}

// fail marks the job failed and best-effort deletes its artifacts.
// Cleanup errors are logged and never mask the root cause.
func (s *Service) fail(jobID uint, clonePath, collectionName string, rootErr error) {
	log := logger.WithJob(jobID)

	if clonePath != "" {
		if err := s.fetch.Remove(clonePath); err != nil {
			log.WithError(err).Warn("failed to remove clone directory")
		}
	}
	if collectionName != "" {
		if err := s.vectors.DeleteCollection(context.Background(), collectionName); err != nil {
			log.WithError(err).Warn("failed to delete collection")
		}
	}

	if err := s.jobs.UpdateStatus(jobID, store.StatusFailed, "", rootErr.Error()); err != nil {
		log.WithError(err).Error("failed to mark job failed")
	}
}

// progress sets the job's status to processing with a human-readable
// stage description.
func (s *Service) progress(jobID uint, detail string) {
	if err := s.jobs.UpdateStatus(jobID, store.StatusProcessing, detail, ""); err != nil {
		logger.WithJob(jobID).WithError(err).Warn("failed to update progress")
	}
}
