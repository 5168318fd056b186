package services

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/weakspot-analytics/weakspot/internal/analyzer"
	"github.com/weakspot-analytics/weakspot/pkg/logger"
)

// JobInfo is the externally visible state of one scheduled job.
type JobInfo struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Schedule   string        `json:"schedule"`
	LastRun    time.Time     `json:"last_run"`
	NextRun    time.Time     `json:"next_run"`
	Status     string        `json:"status"`
	RunCount   int           `json:"run_count"`
	ErrorCount int           `json:"error_count"`
	LastError  string        `json:"last_error,omitempty"`
	Duration   time.Duration `json:"duration"`
	IsEnabled  bool          `json:"is_enabled"`
}

// RefreshService keeps the rankings reports fresh on a cron schedule so API
// consumers always read recent "latest" files.
type RefreshService struct {
	analyzer *analyzer.Analyzer
	logger   *logrus.Logger
	cron     *cron.Cron
	schedule string

	mu        sync.RWMutex
	jobs      map[string]JobInfo
	entryIDs  map[string]cron.EntryID
	isRunning bool
}

func NewRefreshService(a *analyzer.Analyzer, schedule string, logger *logrus.Logger) *RefreshService {
	cronLogger := cron.VerbosePrintfLogger(logger)
	return &RefreshService{
		analyzer: a,
		logger:   logger,
		cron:     cron.New(cron.WithLogger(cronLogger)),
		schedule: schedule,
		jobs:     make(map[string]JobInfo),
		entryIDs: make(map[string]cron.EntryID),
	}
}

// Start schedules the refresh jobs and starts the cron loop.
func (rs *RefreshService) Start() error {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.isRunning {
		return fmt.Errorf("refresh service is already running")
	}

	if err := rs.addJob("rankings_refresh", rs.schedule, "Weakspot rankings refresh", rs.refreshRankings); err != nil {
		return fmt.Errorf("failed to schedule jobs: %w", err)
	}

	rs.cron.Start()
	rs.isRunning = true

	logger.WithComponent(rs.logger, "refresh").Info("RefreshService started")
	return nil
}

// Stop halts the scheduler and waits briefly for a running job to finish.
func (rs *RefreshService) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.isRunning {
		return
	}

	ctx := rs.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(30 * time.Second):
		logger.WithComponent(rs.logger, "refresh").Warn("Timed out waiting for running job to finish")
	}
	rs.isRunning = false

	logger.WithComponent(rs.logger, "refresh").Info("RefreshService stopped")
}

// addJob registers a cron entry and its tracked JobInfo. Caller holds the lock.
func (rs *RefreshService) addJob(id, schedule, name string, jobFunc func() error) error {
	entryID, err := rs.cron.AddFunc(schedule, func() {
		rs.runJob(id, name, jobFunc)
	})
	if err != nil {
		return fmt.Errorf("failed to add job %s: %w", id, err)
	}
	rs.entryIDs[id] = entryID

	rs.jobs[id] = JobInfo{
		ID:        id,
		Name:      name,
		Schedule:  schedule,
		NextRun:   rs.cron.Entry(entryID).Next,
		Status:    "scheduled",
		IsEnabled: true,
	}

	rs.logger.WithFields(logrus.Fields{
		"component": "refresh",
		"job_id":    id,
		"schedule":  schedule,
	}).Info("Scheduled job added")

	return nil
}

// runJob executes a job with panic recovery and status tracking.
func (rs *RefreshService) runJob(id, name string, jobFunc func() error) {
	rs.mu.Lock()
	job, exists := rs.jobs[id]
	if !exists || !job.IsEnabled {
		rs.mu.Unlock()
		return
	}
	job.Status = "running"
	job.LastRun = time.Now()
	job.RunCount++
	rs.jobs[id] = job
	rs.mu.Unlock()

	logger := rs.logger.WithFields(logrus.Fields{
		"component": "refresh",
		"job_id":    id,
		"job_name":  name,
		"run_count": job.RunCount,
	})

	logger.Info("Starting scheduled job")
	startTime := time.Now()

	defer func() {
		if r := recover(); r != nil {
			logger.WithField("panic", r).Error("Job panicked")
			rs.updateJobStatus(id, "failed", fmt.Sprintf("panic: %v", r), time.Since(startTime))
		}
	}()

	if err := jobFunc(); err != nil {
		logger.WithError(err).Error("Job failed")
		rs.updateJobStatus(id, "failed", err.Error(), time.Since(startTime))
		return
	}

	duration := time.Since(startTime)
	logger.WithField("duration", duration).Info("Job completed successfully")
	rs.updateJobStatus(id, "completed", "", duration)
}

func (rs *RefreshService) updateJobStatus(id, status, errorMsg string, duration time.Duration) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	job, exists := rs.jobs[id]
	if !exists {
		return
	}

	job.Status = status
	job.Duration = duration
	if errorMsg != "" {
		job.ErrorCount++
		job.LastError = errorMsg
	}
	if entryID, ok := rs.entryIDs[id]; ok {
		job.NextRun = rs.cron.Entry(entryID).Next
	}

	rs.jobs[id] = job
}

// refreshRankings regenerates every rankings report and persists the
// resolution cache so later runs start from known mappings.
func (rs *RefreshService) refreshRankings() error {
	if _, err := rs.analyzer.GenerateRankings("all", nil); err != nil {
		return err
	}
	return rs.analyzer.SaveResolutionCache()
}

// TriggerJob runs a job immediately, outside its schedule.
func (rs *RefreshService) TriggerJob(id string) error {
	rs.mu.RLock()
	job, exists := rs.jobs[id]
	rs.mu.RUnlock()

	if !exists {
		return fmt.Errorf("job %s not found", id)
	}
	if !job.IsEnabled {
		return fmt.Errorf("job %s is disabled", id)
	}

	go rs.runJob(id, job.Name, rs.jobFunc(id))
	return nil
}

// jobFunc maps a job ID back to its work function.
func (rs *RefreshService) jobFunc(id string) func() error {
	switch id {
	case "rankings_refresh":
		return rs.refreshRankings
	default:
		return func() error { return fmt.Errorf("job %s has no work function", id) }
	}
}

// EnableJob re-enables a disabled job.
func (rs *RefreshService) EnableJob(id string) error {
	return rs.setJobEnabled(id, true)
}

// DisableJob keeps a job registered but skips its runs.
func (rs *RefreshService) DisableJob(id string) error {
	return rs.setJobEnabled(id, false)
}

func (rs *RefreshService) setJobEnabled(id string, enabled bool) error {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	job, exists := rs.jobs[id]
	if !exists {
		return fmt.Errorf("job %s not found", id)
	}
	job.IsEnabled = enabled
	rs.jobs[id] = job
	return nil
}

// Jobs returns a snapshot of all tracked jobs.
func (rs *RefreshService) Jobs() []JobInfo {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	jobs := make([]JobInfo, 0, len(rs.jobs))
	for _, job := range rs.jobs {
		jobs = append(jobs, job)
	}
	return jobs
}
