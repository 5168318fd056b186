package resolver

import "math"

// Report summarizes the quality of the current resolution cache.
type Report struct {
	TotalAnonymousIDs   int                `json:"total_anonymous_ids"`
	ConfidenceBreakdown map[string]int     `json:"confidence_breakdown"`
	MappingMethods      map[string]int     `json:"mapping_methods"`
	AverageConfidence   float64            `json:"average_confidence"`
	ConfidencePercent   map[string]float64 `json:"confidence_percentages"`
}

// GenerateReport builds a summary of the mappings produced this run.
func (r *Resolver) GenerateReport() Report {
	r.mu.RLock()
	defer r.mu.RUnlock()

	report := Report{
		TotalAnonymousIDs:   len(r.cache),
		ConfidenceBreakdown: map[string]int{"high_confidence_80_plus": 0, "medium_confidence_50_79": 0, "low_confidence_below_50": 0},
		MappingMethods:      make(map[string]int),
		ConfidencePercent:   make(map[string]float64),
	}
	if len(r.cache) == 0 {
		return report
	}

	var total float64
	for _, result := range r.cache {
		total += result.Confidence
		report.MappingMethods[string(result.Method)]++
		switch {
		case result.Confidence >= 0.8:
			report.ConfidenceBreakdown["high_confidence_80_plus"]++
		case result.Confidence >= 0.5:
			report.ConfidenceBreakdown["medium_confidence_50_79"]++
		default:
			report.ConfidenceBreakdown["low_confidence_below_50"]++
		}
	}

	n := float64(len(r.cache))
	report.AverageConfidence = round3(total / n)
	report.ConfidencePercent["high"] = round1(float64(report.ConfidenceBreakdown["high_confidence_80_plus"]) / n * 100)
	report.ConfidencePercent["medium"] = round1(float64(report.ConfidenceBreakdown["medium_confidence_50_79"]) / n * 100)
	report.ConfidencePercent["low"] = round1(float64(report.ConfidenceBreakdown["low_confidence_below_50"]) / n * 100)

	return report
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
