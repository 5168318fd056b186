package handlers

import (
	"errors"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/weakspot-analytics/weakspot/internal/analyzer"
	"github.com/weakspot-analytics/weakspot/internal/playbyplay"
	"github.com/weakspot-analytics/weakspot/internal/rankings"
)

// reportTypes maps URL path segments to rankings analysis types.
var reportTypes = map[string]string{
	"lineup":   "lineup_vulnerabilities",
	"inning":   "inning_patterns",
	"patterns": "pitch_patterns",
	"overall":  "overall_weakspots",
}

// WeakspotHandler serves the weakspot analysis API: pre-generated rankings
// reports, on-demand pitcher analysis, and resolver diagnostics.
type WeakspotHandler struct {
	analyzer *analyzer.Analyzer
	writer   *rankings.Writer
	logger   *logrus.Logger
}

// NewWeakspotHandler creates a new weakspot handler.
func NewWeakspotHandler(a *analyzer.Analyzer, writer *rankings.Writer, logger *logrus.Logger) *WeakspotHandler {
	return &WeakspotHandler{
		analyzer: a,
		writer:   writer,
		logger:   logger,
	}
}

// GetRankings serves the latest pre-generated rankings report for a type.
// GET /api/v1/rankings/:type
func (h *WeakspotHandler) GetRankings(c *gin.Context) {
	reportType, ok := reportTypes[c.Param("type")]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "unknown rankings type, expected one of: lineup, inning, patterns, overall",
		})
		return
	}

	path, err := h.writer.LatestFile(reportType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "rankings not generated yet, trigger a refresh first",
			})
			return
		}
		h.logger.WithError(err).WithField("path", path).Error("Failed to read rankings file")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read rankings"})
		return
	}

	c.Data(http.StatusOK, "application/json", data)
}

// GetPitcherWeakspots runs an on-demand analysis for one pitcher.
// GET /api/v1/pitchers/:name/weakspots?start_date=YYYY-MM-DD&end_date=YYYY-MM-DD
func (h *WeakspotHandler) GetPitcherWeakspots(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pitcher name is required"})
		return
	}

	var dateRange *playbyplay.DateRange
	start := c.Query("start_date")
	end := c.Query("end_date")
	if start != "" && end != "" {
		dateRange = &playbyplay.DateRange{Start: start, End: end}
	}

	report, err := h.analyzer.AnalyzePitcher(name, dateRange)
	if err != nil {
		if errors.Is(err, analyzer.ErrNoData) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.logger.WithError(err).WithField("pitcher", name).Error("Pitcher analysis failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "analysis failed"})
		return
	}

	c.JSON(http.StatusOK, report)
}

// GetResolverReport returns aggregate stats about the anonymous ID mappings.
// GET /api/v1/resolver/report
func (h *WeakspotHandler) GetResolverReport(c *gin.Context) {
	c.JSON(http.StatusOK, h.analyzer.Resolver().GenerateReport())
}
