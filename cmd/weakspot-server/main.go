package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/weakspot-analytics/weakspot/internal/analyzer"
	"github.com/weakspot-analytics/weakspot/internal/api/handlers"
	"github.com/weakspot-analytics/weakspot/internal/config"
	"github.com/weakspot-analytics/weakspot/internal/rankings"
	"github.com/weakspot-analytics/weakspot/internal/services"
	"github.com/weakspot-analytics/weakspot/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	log := logger.InitLogger(cfg.LogLevel, cfg.IsDevelopment())
	log.WithFields(logrus.Fields{
		"environment": cfg.Env,
		"port":        cfg.Port,
		"data_path":   cfg.DataPath,
	}).Info("Starting weakspot service")

	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Build the analysis pipeline once; indexes are rebuilt only on restart.
	weakspotAnalyzer := analyzer.New(cfg, log)
	writer := rankings.NewWriter(cfg.OutputPath, log)

	refreshService := services.NewRefreshService(weakspotAnalyzer, cfg.RefreshSchedule, log)
	if err := refreshService.Start(); err != nil {
		log.Fatalf("Failed to start refresh service: %v", err)
	}
	defer refreshService.Stop()

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	weakspotHandler := handlers.NewWeakspotHandler(weakspotAnalyzer, writer, log)
	jobsHandler := handlers.NewJobsHandler(refreshService, log)
	healthHandler := handlers.NewHealthHandler(cfg)

	apiV1 := router.Group("/api/v1")
	{
		apiV1.GET("/rankings/:type", weakspotHandler.GetRankings)
		apiV1.GET("/pitchers/:name/weakspots", weakspotHandler.GetPitcherWeakspots)
		apiV1.GET("/resolver/report", weakspotHandler.GetResolverReport)

		apiV1.GET("/jobs", jobsHandler.ListJobs)
		apiV1.POST("/jobs/:id/trigger", jobsHandler.TriggerJob)
	}

	router.GET("/health", healthHandler.GetHealth)
	router.HEAD("/health", healthHandler.GetHealth)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: router,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("Weakspot service started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down weakspot service...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Weakspot service forced to shutdown: %v", err)
	}

	log.Info("Weakspot service exited")
}
