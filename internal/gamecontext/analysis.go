package gamecontext

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

type analysisFile struct {
	Analysis []analysisPick `json:"analysis"`
}

type analysisPick struct {
	Pitcher string `json:"pitcher"`
}

// loadAnalysisFiles reads pitcher names referenced by prior analysis
// outputs. Only the most recent files are scanned (sorted by filename,
// which embeds the date) to bound cost.
func (idx *Index) loadAnalysisFiles(paths []string, recent int) {
	sorted := make([]string, len(paths))
	copy(sorted, paths)
	sort.Strings(sorted)
	if len(sorted) > recent {
		sorted = sorted[len(sorted)-recent:]
	}

	for _, path := range sorted {
		date := lineupDatePattern.FindString(filepath.Base(path))

		data, err := os.ReadFile(path)
		if err != nil {
			idx.logger.WithError(err).WithField("path", path).Warn("Could not read analysis file, skipping")
			continue
		}

		var parsed analysisFile
		if err := json.Unmarshal(data, &parsed); err != nil {
			idx.logger.WithError(err).WithField("path", path).Warn("Could not parse analysis file, skipping")
			continue
		}

		for _, pick := range parsed.Analysis {
			if pick.Pitcher == "" {
				continue
			}
			idx.insert(Entry{
				Key:         fmt.Sprintf("analysis_%s_%s", date, pick.Pitcher),
				PitcherName: pick.Pitcher,
				Date:        date,
				Source:      SourceAnalysis,
			})
		}
	}
}
