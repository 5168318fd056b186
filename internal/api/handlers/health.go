package handlers

import (
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/weakspot-analytics/weakspot/internal/config"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	cfg *config.Config
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(cfg *config.Config) *HealthHandler {
	return &HealthHandler{cfg: cfg}
}

// GetHealth returns the basic health status.
// GET /health
func (h *HealthHandler) GetHealth(c *gin.Context) {
	status := "ok"
	checks := make(map[string]string)

	// The service degrades gracefully without data, so a missing data
	// directory is reported but not treated as unhealthy.
	if _, err := os.Stat(h.cfg.DataPath); err != nil {
		checks["data_path"] = "missing: " + h.cfg.DataPath
	} else {
		checks["data_path"] = "ok"
	}
	if _, err := os.Stat(h.cfg.OutputPath); err != nil {
		checks["output_path"] = "missing: " + h.cfg.OutputPath
	} else {
		checks["output_path"] = "ok"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    status,
		"service":   "weakspot-service",
		"timestamp": time.Now(),
		"checks":    checks,
	})
}
