package rankings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// filePrefixes maps an analysis type to its report file prefix.
var filePrefixes = map[string]string{
	"lineup_vulnerabilities": "lineup_vulnerability",
	"inning_patterns":        "inning_pattern",
	"pitch_patterns":         "pitch_pattern",
	"overall_weakspots":      "overall_weakspot",
}

// Writer persists rankings reports as indented JSON. Each report is written
// twice: once under a timestamped name for history and once as the "latest"
// file consumers poll.
type Writer struct {
	outputPath string
	logger     *logrus.Logger
	now        func() time.Time
}

func NewWriter(outputPath string, logger *logrus.Logger) *Writer {
	return &Writer{outputPath: outputPath, logger: logger, now: time.Now}
}

// Write saves the report and returns the timestamped file path.
func (w *Writer) Write(analysisType string, report any) (string, error) {
	prefix, ok := filePrefixes[analysisType]
	if !ok {
		return "", fmt.Errorf("unknown analysis type %q", analysisType)
	}

	if err := os.MkdirAll(w.outputPath, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding %s rankings: %w", analysisType, err)
	}

	timestamp := w.now().Format("20060102_150405")
	timestamped := filepath.Join(w.outputPath, fmt.Sprintf("%s_rankings_%s.json", prefix, timestamp))
	if err := os.WriteFile(timestamped, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", timestamped, err)
	}

	latest := filepath.Join(w.outputPath, fmt.Sprintf("%s_rankings_latest.json", prefix))
	if err := os.WriteFile(latest, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", latest, err)
	}

	w.logger.WithFields(logrus.Fields{
		"analysis_type": analysisType,
		"file":          timestamped,
	}).Info("Rankings saved")

	return timestamped, nil
}

// LatestFile returns the path of the "latest" report for an analysis type.
func (w *Writer) LatestFile(analysisType string) (string, error) {
	prefix, ok := filePrefixes[analysisType]
	if !ok {
		return "", fmt.Errorf("unknown analysis type %q", analysisType)
	}
	return filepath.Join(w.outputPath, fmt.Sprintf("%s_rankings_latest.json", prefix)), nil
}
