package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/weakspot-analytics/weakspot/internal/analyzer"
	"github.com/weakspot-analytics/weakspot/internal/config"
	"github.com/weakspot-analytics/weakspot/internal/playbyplay"
	"github.com/weakspot-analytics/weakspot/pkg/logger"
)

func main() {
	pitcher := flag.String("pitcher", "", "Analyze a single pitcher by (partial) name")
	analysisType := flag.String("analysis-type", "", "Rankings to generate: lineup, inning, patterns, overall, or all")
	startDate := flag.String("start-date", "", "Start date for analysis (YYYY-MM-DD)")
	endDate := flag.String("end-date", "", "End date for analysis (YYYY-MM-DD)")
	output := flag.String("output", "", "Write pitcher analysis to this file instead of stdout")
	dataPath := flag.String("data-path", "", "Override the configured data directory")
	outputPath := flag.String("output-path", "", "Override the configured rankings output directory")
	cacheFile := flag.String("cache-file", "", "Override the configured resolution cache filename")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	if *dataPath != "" {
		cfg.DataPath = *dataPath
	}
	if *outputPath != "" {
		cfg.OutputPath = *outputPath
	}
	if *cacheFile != "" {
		cfg.ResolutionCacheFile = *cacheFile
	}

	log := logger.InitLogger(cfg.LogLevel, cfg.IsDevelopment())

	if *pitcher == "" && *analysisType == "" {
		log.Error("Must specify either --pitcher or --analysis-type")
		flag.Usage()
		os.Exit(1)
	}

	var dateRange *playbyplay.DateRange
	if *startDate != "" && *endDate != "" {
		dateRange = &playbyplay.DateRange{Start: *startDate, End: *endDate}
	}

	weakspotAnalyzer := analyzer.New(cfg, log)

	switch {
	case *pitcher != "":
		report, err := weakspotAnalyzer.AnalyzePitcher(*pitcher, dateRange)
		if err != nil {
			log.Fatalf("Analysis failed: %v", err)
		}

		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			log.Fatalf("Failed to encode report: %v", err)
		}

		if *output != "" {
			if err := os.WriteFile(*output, data, 0o644); err != nil {
				log.Fatalf("Failed to write report: %v", err)
			}
			logger.WithPitcher(log, report.PitcherName).WithField("output", *output).Info("Results saved")
		} else {
			fmt.Println(string(data))
		}

	default:
		written, err := weakspotAnalyzer.GenerateRankings(*analysisType, dateRange)
		if err != nil {
			log.Fatalf("Rankings generation failed: %v", err)
		}
		for kind, path := range written {
			log.WithFields(logrus.Fields{
				"analysis_type": kind,
				"file":          path,
			}).Info("Rankings generated")
		}
	}

	if err := weakspotAnalyzer.SaveResolutionCache(); err != nil {
		log.WithError(err).Warn("Failed to persist resolution cache")
	}
}
