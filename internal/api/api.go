// Package api exposes the analyzer and cleanup services over a thin
// gin HTTP surface. Handlers translate service errors to status codes
// and hold no business logic.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dshills/repohealth/internal/analyzer"
	"github.com/dshills/repohealth/internal/cleanup"
	"github.com/dshills/repohealth/internal/store"
	"github.com/dshills/repohealth/pkg/types"
)

// Analyzer is the job surface the API needs.
type Analyzer interface {
	Submit(ctx context.Context, repoURL, branch string) (*store.AnalysisJob, error)
	GetStatus(jobID uint) (*store.AnalysisJob, error)
	GetReport(jobID uint) (*types.HealthReportData, time.Time, error)
}

// Cleaner is the cleanup surface the API needs.
type Cleaner interface {
	GetStats() (*cleanup.Stats, error)
	ManualCleanup(jobID uint) error
}

// Handler binds the services to HTTP routes.
type Handler struct {
	analyzer Analyzer
	cleaner  Cleaner
}

// NewRouter builds the gin engine with all routes registered.
func NewRouter(a Analyzer, c Cleaner) *gin.Engine {
	h := &Handler{analyzer: a, cleaner: c}

	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", h.health)

	api := r.Group("/api")
	{
		api.POST("/analyze", h.analyze)
		api.GET("/status/:id", h.status)
		api.GET("/report/:id", h.report)
		api.GET("/cleanup/stats", h.cleanupStats)
		api.POST("/cleanup/:id", h.manualCleanup)
	}

	return r
}

type analyzeRequest struct {
	RepoURL string `json:"repo_url" binding:"required"`
	Branch  string `json:"branch"`
}

type jobResponse struct {
	JobID          uint   `json:"job_id"`
	RepoURL        string `json:"repo_url"`
	Branch         string `json:"branch,omitempty"`
	Status         string `json:"status"`
	ProgressDetail string `json:"progress_detail,omitempty"`
	ErrorMessage   string `json:"error_message,omitempty"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

func toJobResponse(job *store.AnalysisJob) jobResponse {
	return jobResponse{
		JobID:          job.ID,
		RepoURL:        job.RepoURL,
		Branch:         job.Branch,
		Status:         job.Status,
		ProgressDetail: job.ProgressDetail,
		ErrorMessage:   job.ErrorMessage,
		CreatedAt:      job.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:      job.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (h *Handler) analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "repo_url is required"})
		return
	}

	job, err := h.analyzer.Submit(c.Request.Context(), req.RepoURL, req.Branch)
	switch {
	case errors.Is(err, analyzer.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, analyzer.ErrBusy):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusAccepted, toJobResponse(job))
	}
}

func (h *Handler) status(c *gin.Context) {
	jobID, ok := pathJobID(c)
	if !ok {
		return
	}

	job, err := h.analyzer.GetStatus(jobID)
	switch {
	case errors.Is(err, analyzer.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, toJobResponse(job))
	}
}

func (h *Handler) report(c *gin.Context) {
	jobID, ok := pathJobID(c)
	if !ok {
		return
	}

	report, createdAt, err := h.analyzer.GetReport(jobID)
	switch {
	case errors.Is(err, analyzer.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, analyzer.ErrNotReady):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, gin.H{
			"job_id":     jobID,
			"report":     report,
			"created_at": createdAt.UTC().Format(time.RFC3339),
		})
	}
}

func (h *Handler) cleanupStats(c *gin.Context) {
	stats, err := h.cleaner.GetStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) manualCleanup(c *gin.Context) {
	jobID, ok := pathJobID(c)
	if !ok {
		return
	}

	err := h.cleaner.ManualCleanup(jobID)
	switch {
	case errors.Is(err, cleanup.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, gin.H{"message": "repository cleaned up", "job_id": jobID})
	}
}

// pathJobID parses the :id path parameter, writing a 400 on failure.
func pathJobID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job id"})
		return 0, false
	}
	return uint(id), true
}
