package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/weakspot-analytics/weakspot/internal/services"
)

// JobsHandler exposes the scheduled refresh jobs.
type JobsHandler struct {
	refresh *services.RefreshService
	logger  *logrus.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(refresh *services.RefreshService, logger *logrus.Logger) *JobsHandler {
	return &JobsHandler{refresh: refresh, logger: logger}
}

// ListJobs returns the current state of all scheduled jobs.
// GET /api/v1/jobs
func (h *JobsHandler) ListJobs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"jobs": h.refresh.Jobs()})
}

// TriggerJob runs a job immediately, outside its schedule.
// POST /api/v1/jobs/:id/trigger
func (h *JobsHandler) TriggerJob(c *gin.Context) {
	id := c.Param("id")
	if err := h.refresh.TriggerJob(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	h.logger.WithField("job_id", id).Info("Job triggered manually")
	c.JSON(http.StatusAccepted, gin.H{"status": "triggered", "job_id": id})
}
