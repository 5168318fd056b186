package rankings

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/weakspot-analytics/weakspot/internal/vulnerability"
	"github.com/weakspot-analytics/weakspot/pkg/logger"
)

// Scoring weights for the composite overall ranking.
const (
	lineupWeight  = 0.40
	inningWeight  = 0.35
	patternWeight = 0.25
)

// Metadata describes how and when a rankings report was produced.
type Metadata struct {
	GeneratedAt      string            `json:"generated_at"`
	RunID            string            `json:"run_id"`
	AnalysisType     string            `json:"analysis_type"`
	Description      string            `json:"description"`
	ScoringWeights   map[string]string `json:"scoring_weights,omitempty"`
	FiltersAvailable []string          `json:"filters_available"`
}

// SummaryStats summarizes the score distribution of one report.
type SummaryStats struct {
	TotalPitchers int     `json:"total_pitchers"`
	AvgScore      float64 `json:"avg_score"`
	MaxScore      float64 `json:"max_score"`
	MinScore      float64 `json:"min_score"`
	Top10Avg      float64 `json:"top_10_avg"`
}

// LineupEntry ranks one pitcher by their worst batting-order position.
type LineupEntry struct {
	Pitcher                string                                         `json:"pitcher"`
	MaxVulnerabilityScore  float64                                        `json:"max_vulnerability_score"`
	PositionBreakdowns     map[string]vulnerability.LineupPositionScore   `json:"position_breakdowns"`
	TotalSampleSize        int                                            `json:"total_sample_size"`
	MostVulnerablePosition string                                         `json:"most_vulnerable_position,omitempty"`
	VulnerabilitySummary   string                                         `json:"vulnerability_summary,omitempty"`
}

// InningEntry ranks one pitcher by their worst inning, with fatigue signals.
type InningEntry struct {
	Pitcher                string                                `json:"pitcher"`
	MaxVulnerabilityScore  float64                               `json:"max_vulnerability_score"`
	InningBreakdowns       map[string]vulnerability.InningScore  `json:"inning_breakdowns"`
	TotalSampleSize        int                                   `json:"total_sample_size"`
	MostVulnerableInning   string                                `json:"most_vulnerable_inning,omitempty"`
	VelocityDeclinePattern float64                               `json:"velocity_decline_pattern"`
	FatigueIndicator       string                                `json:"fatigue_indicator"`
}

// PredictableCount is a ball-strike count in which a pitcher throws one
// pitch type more than 70% of the time.
type PredictableCount struct {
	Count     string  `json:"count"`
	PitchType string  `json:"pitch_type"`
	Frequency float64 `json:"frequency"`
}

// PatternEntry ranks one pitcher by pitch-sequence predictability.
type PatternEntry struct {
	Pitcher               string                      `json:"pitcher"`
	PredictabilityScore   float64                     `json:"predictability_score"`
	TotalSequences        int                         `json:"total_sequences"`
	PatternDetails        vulnerability.PatternScore  `json:"pattern_details"`
	MostCommonSequence    string                      `json:"most_common_sequence,omitempty"`
	PredictableCounts     []PredictableCount          `json:"predictable_counts"`
	ExploitationPotential string                      `json:"exploitation_potential"`
}

// DimensionSummary is the per-dimension contribution block on an overall entry.
type DimensionSummary struct {
	MaxScore         float64 `json:"max_score"`
	BucketsAnalyzed  int     `json:"buckets_analyzed"`
	SampleSize       int     `json:"sample_size"`
}

// PatternSummary is the predictability block on an overall entry.
type PatternSummary struct {
	PredictabilityScore float64 `json:"predictability_score"`
	SequencesAnalyzed   int     `json:"sequences_analyzed"`
}

// VulnerabilityBreakdown shows how each dimension contributed to a composite.
type VulnerabilityBreakdown struct {
	LineupContribution  float64 `json:"lineup_contribution"`
	InningContribution  float64 `json:"inning_contribution"`
	PatternContribution float64 `json:"pattern_contribution"`
}

// OverallEntry is the composite weakspot ranking for one pitcher. A pitcher
// missing from a dimension contributes zero for it rather than being
// excluded, which understates composites built from partial data.
type OverallEntry struct {
	Pitcher                string                 `json:"pitcher"`
	LineupVulnerability    *DimensionSummary      `json:"lineup_vulnerability,omitempty"`
	InningVulnerability    *DimensionSummary      `json:"inning_vulnerability,omitempty"`
	PatternPredictability  *PatternSummary        `json:"pattern_predictability,omitempty"`
	CompositeWeakspotScore float64                `json:"composite_weakspot_score"`
	VulnerabilityBreakdown VulnerabilityBreakdown `json:"vulnerability_breakdown"`
}

// LineupReport is the full lineup-vulnerability rankings document.
type LineupReport struct {
	AnalysisType   string        `json:"analysis_type"`
	AnalysisDate   string        `json:"analysis_date"`
	AnalysisPeriod string        `json:"analysis_period"`
	Rankings       []LineupEntry `json:"rankings"`
	Metadata       Metadata      `json:"metadata"`
	SummaryStats   SummaryStats  `json:"summary_stats"`
}

// InningReport is the full inning-pattern rankings document.
type InningReport struct {
	AnalysisType   string        `json:"analysis_type"`
	AnalysisDate   string        `json:"analysis_date"`
	AnalysisPeriod string        `json:"analysis_period"`
	Rankings       []InningEntry `json:"rankings"`
	Metadata       Metadata      `json:"metadata"`
	SummaryStats   SummaryStats  `json:"summary_stats"`
}

// PatternReport is the full pitch-pattern rankings document.
type PatternReport struct {
	AnalysisType   string         `json:"analysis_type"`
	AnalysisDate   string         `json:"analysis_date"`
	AnalysisPeriod string         `json:"analysis_period"`
	Rankings       []PatternEntry `json:"rankings"`
	Metadata       Metadata       `json:"metadata"`
	SummaryStats   SummaryStats   `json:"summary_stats"`
}

// OverallSummaryStats summarizes the overall rankings document.
type OverallSummaryStats struct {
	TotalPitchersAnalyzed int     `json:"total_pitchers_analyzed"`
	AvgCompositeScore     float64 `json:"avg_composite_score"`
	Top10AvgScore         float64 `json:"top_10_avg_score"`
}

// OverallReport is the composite weakspot rankings document.
type OverallReport struct {
	AnalysisType   string              `json:"analysis_type"`
	AnalysisDate   string              `json:"analysis_date"`
	AnalysisPeriod string              `json:"analysis_period"`
	Rankings       []OverallEntry      `json:"rankings"`
	Metadata       Metadata            `json:"metadata"`
	SummaryStats   OverallSummaryStats `json:"summary_stats"`
}

// Builder assembles scored buckets into sorted, enriched ranking reports.
type Builder struct {
	logger *logrus.Logger
	now    func() time.Time
}

func NewBuilder(logger *logrus.Logger) *Builder {
	return &Builder{logger: logger, now: time.Now}
}

// BuildLineup ranks pitchers by their maximum lineup-position score,
// descending. Ties break alphabetically so output is stable run to run.
func (b *Builder) BuildLineup(scores map[string]map[int]vulnerability.LineupPositionScore, period string) *LineupReport {
	entries := make([]LineupEntry, 0, len(scores))

	for pitcher, positions := range scores {
		if len(positions) == 0 {
			continue
		}
		breakdowns := make(map[string]vulnerability.LineupPositionScore, len(positions))
		maxScore := 0.0
		mostVulnerable := ""
		totalSample := 0

		for _, position := range sortedIntKeys(positions) {
			key := fmt.Sprintf("position_%d", position)
			score := positions[position]
			breakdowns[key] = score
			totalSample += score.SampleSize
			if score.VulnerabilityScore > maxScore {
				maxScore = score.VulnerabilityScore
				mostVulnerable = key
			}
		}

		entries = append(entries, LineupEntry{
			Pitcher:                pitcher,
			MaxVulnerabilityScore:  maxScore,
			PositionBreakdowns:     breakdowns,
			TotalSampleSize:        totalSample,
			MostVulnerablePosition: mostVulnerable,
			VulnerabilitySummary:   fmt.Sprintf("Most vulnerable to %s with %.2f%% weakness score", mostVulnerable, maxScore),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].MaxVulnerabilityScore != entries[j].MaxVulnerabilityScore {
			return entries[i].MaxVulnerabilityScore > entries[j].MaxVulnerabilityScore
		}
		return entries[i].Pitcher < entries[j].Pitcher
	})

	return &LineupReport{
		AnalysisType:   "lineup_vulnerabilities",
		AnalysisDate:   b.now().Format(time.RFC3339),
		AnalysisPeriod: period,
		Rankings:       entries,
		Metadata: b.metadata("lineup_vulnerabilities",
			"Pitcher vulnerability to specific batting order positions",
			nil,
			[]string{"position_1_through_9", "vulnerability_score", "sample_size", "confidence_level"}),
		SummaryStats: summarize(lineupScoreList(entries)),
	}
}

// BuildInning ranks pitchers by their maximum inning score, descending, and
// attaches the velocity-decline fatigue signals.
func (b *Builder) BuildInning(scores map[string]map[int]vulnerability.InningScore, period string) *InningReport {
	entries := make([]InningEntry, 0, len(scores))

	for pitcher, innings := range scores {
		if len(innings) == 0 {
			continue
		}
		breakdowns := make(map[string]vulnerability.InningScore, len(innings))
		maxScore := 0.0
		mostVulnerable := ""
		totalSample := 0

		for _, inning := range sortedIntKeys(innings) {
			key := fmt.Sprintf("inning_%d", inning)
			score := innings[inning]
			breakdowns[key] = score
			totalSample += score.SampleSize
			if score.VulnerabilityScore > maxScore {
				maxScore = score.VulnerabilityScore
				mostVulnerable = key
			}
		}

		decline := velocityDecline(innings)

		entries = append(entries, InningEntry{
			Pitcher:                pitcher,
			MaxVulnerabilityScore:  maxScore,
			InningBreakdowns:       breakdowns,
			TotalSampleSize:        totalSample,
			MostVulnerableInning:   mostVulnerable,
			VelocityDeclinePattern: decline,
			FatigueIndicator:       fatigueTier(decline),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].MaxVulnerabilityScore != entries[j].MaxVulnerabilityScore {
			return entries[i].MaxVulnerabilityScore > entries[j].MaxVulnerabilityScore
		}
		return entries[i].Pitcher < entries[j].Pitcher
	})

	return &InningReport{
		AnalysisType:   "inning_patterns",
		AnalysisDate:   b.now().Format(time.RFC3339),
		AnalysisPeriod: period,
		Rankings:       entries,
		Metadata: b.metadata("inning_patterns",
			"Pitcher weakness patterns by inning (fatigue, adjustment periods)",
			nil,
			[]string{"inning_1_through_9", "vulnerability_score", "velocity_decline", "pitch_count_stress"}),
		SummaryStats: summarize(inningScoreList(entries)),
	}
}

// BuildPatterns ranks pitchers by predictability, descending, and attaches
// the exploitable count and sequence insights.
func (b *Builder) BuildPatterns(scores map[string]vulnerability.PatternScore, period string) *PatternReport {
	entries := make([]PatternEntry, 0, len(scores))

	for pitcher, score := range scores {
		counts := predictableCounts(score.CountPatterns)
		entries = append(entries, PatternEntry{
			Pitcher:               pitcher,
			PredictabilityScore:   score.PredictabilityScore,
			TotalSequences:        score.TotalSequences,
			PatternDetails:        score,
			MostCommonSequence:    mostCommonSequence(score.SequencePatterns),
			PredictableCounts:     counts,
			ExploitationPotential: exploitationTier(counts),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].PredictabilityScore != entries[j].PredictabilityScore {
			return entries[i].PredictabilityScore > entries[j].PredictabilityScore
		}
		return entries[i].Pitcher < entries[j].Pitcher
	})

	return &PatternReport{
		AnalysisType:   "pitch_patterns",
		AnalysisDate:   b.now().Format(time.RFC3339),
		AnalysisPeriod: period,
		Rankings:       entries,
		Metadata: b.metadata("pitch_patterns",
			"Pitcher predictability based on pitch sequence patterns",
			nil,
			[]string{"predictability_score", "sequence_frequency", "count_patterns", "total_sequences"}),
		SummaryStats: summarize(patternScoreList(entries)),
	}
}

// BuildOverall combines the three dimension reports into composite weakspot
// rankings using the fixed 40/35/25 weighting.
func (b *Builder) BuildOverall(lineup *LineupReport, inning *InningReport, patterns *PatternReport, period string) *OverallReport {
	combined := make(map[string]*OverallEntry)
	entry := func(pitcher string) *OverallEntry {
		if e, ok := combined[pitcher]; ok {
			return e
		}
		e := &OverallEntry{Pitcher: pitcher}
		combined[pitcher] = e
		return e
	}

	for _, le := range lineup.Rankings {
		entry(le.Pitcher).LineupVulnerability = &DimensionSummary{
			MaxScore:        le.MaxVulnerabilityScore,
			BucketsAnalyzed: len(le.PositionBreakdowns),
			SampleSize:      le.TotalSampleSize,
		}
	}
	for _, ie := range inning.Rankings {
		entry(ie.Pitcher).InningVulnerability = &DimensionSummary{
			MaxScore:        ie.MaxVulnerabilityScore,
			BucketsAnalyzed: len(ie.InningBreakdowns),
			SampleSize:      ie.TotalSampleSize,
		}
	}
	for _, pe := range patterns.Rankings {
		entry(pe.Pitcher).PatternPredictability = &PatternSummary{
			PredictabilityScore: pe.PredictabilityScore,
			SequencesAnalyzed:   pe.TotalSequences,
		}
	}

	entries := make([]OverallEntry, 0, len(combined))
	for _, e := range combined {
		var lineupScore, inningScore, patternScore float64
		if e.LineupVulnerability != nil {
			lineupScore = e.LineupVulnerability.MaxScore
		}
		if e.InningVulnerability != nil {
			inningScore = e.InningVulnerability.MaxScore
		}
		if e.PatternPredictability != nil {
			patternScore = e.PatternPredictability.PredictabilityScore
		}

		e.CompositeWeakspotScore = round2(lineupScore*lineupWeight + inningScore*inningWeight + patternScore*patternWeight)
		e.VulnerabilityBreakdown = VulnerabilityBreakdown{
			LineupContribution:  round2(lineupScore * lineupWeight),
			InningContribution:  round2(inningScore * inningWeight),
			PatternContribution: round2(patternScore * patternWeight),
		}
		entries = append(entries, *e)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].CompositeWeakspotScore != entries[j].CompositeWeakspotScore {
			return entries[i].CompositeWeakspotScore > entries[j].CompositeWeakspotScore
		}
		return entries[i].Pitcher < entries[j].Pitcher
	})

	composites := make([]float64, len(entries))
	for i, e := range entries {
		composites[i] = e.CompositeWeakspotScore
	}

	summary := OverallSummaryStats{TotalPitchersAnalyzed: len(entries)}
	if len(entries) > 0 {
		summary.AvgCompositeScore = round2(stat.Mean(composites, nil))
		top := composites
		if len(top) > 10 {
			top = top[:10]
		}
		summary.Top10AvgScore = round2(stat.Mean(top, nil))
	}

	return &OverallReport{
		AnalysisType:   "overall_weakspots",
		AnalysisDate:   b.now().Format(time.RFC3339),
		AnalysisPeriod: period,
		Rankings:       entries,
		Metadata: b.metadata("overall_weakspots",
			"Comprehensive weakspot analysis combining lineup, inning, and pattern vulnerabilities",
			map[string]string{
				"lineup_vulnerability":   "40%",
				"inning_vulnerability":   "35%",
				"pattern_predictability": "25%",
			},
			[]string{"composite_score", "lineup_vulnerability", "inning_vulnerability", "pattern_predictability"}),
		SummaryStats: summary,
	}
}

func (b *Builder) metadata(analysisType, description string, weights map[string]string, filters []string) Metadata {
	runID := uuid.New().String()
	logger.WithAnalysis(b.logger, runID, analysisType).Debug("Building rankings report")
	return Metadata{
		GeneratedAt:      b.now().Format(time.RFC3339),
		RunID:            runID,
		AnalysisType:     analysisType,
		Description:      description,
		ScoringWeights:   weights,
		FiltersAvailable: filters,
	}
}

// velocityDecline is first-inning average velocity minus last-inning average
// velocity across innings that carry velocity samples. Positive values mean
// the pitcher slows down as the game goes on.
func velocityDecline(innings map[int]vulnerability.InningScore) float64 {
	var withVelocity []int
	for inning, score := range innings {
		if score.AvgVelocity != nil {
			withVelocity = append(withVelocity, inning)
		}
	}
	if len(withVelocity) < 2 {
		return 0
	}
	sort.Ints(withVelocity)
	first := *innings[withVelocity[0]].AvgVelocity
	last := *innings[withVelocity[len(withVelocity)-1]].AvgVelocity
	return round2(first - last)
}

func fatigueTier(decline float64) string {
	switch {
	case decline > 2.0:
		return "High"
	case decline > 1.0:
		return "Moderate"
	default:
		return "Low"
	}
}

// mostCommonSequence picks the highest-count sequence, breaking count ties
// alphabetically for stable output.
func mostCommonSequence(sequences map[string]int) string {
	best := ""
	bestCount := 0
	for _, seq := range sortedStringKeys(sequences) {
		if sequences[seq] > bestCount {
			best = seq
			bestCount = sequences[seq]
		}
	}
	return best
}

// predictableCounts finds ball-strike counts in which one pitch type exceeds
// 70% of the pitches thrown.
func predictableCounts(countPatterns map[string]map[string]int) []PredictableCount {
	var result []PredictableCount
	for _, count := range sortedStringKeys(countPatterns) {
		pitches := countPatterns[count]
		total := 0
		best := ""
		bestCount := 0
		for _, pitchType := range sortedStringKeys(pitches) {
			n := pitches[pitchType]
			total += n
			if n > bestCount {
				best = pitchType
				bestCount = n
			}
		}
		if total == 0 {
			continue
		}
		frequency := float64(bestCount) / float64(total)
		if frequency > 0.7 {
			result = append(result, PredictableCount{
				Count:     count,
				PitchType: best,
				Frequency: round3(frequency),
			})
		}
	}
	return result
}

func exploitationTier(counts []PredictableCount) string {
	switch {
	case len(counts) >= 3:
		return "High"
	case len(counts) >= 1:
		return "Moderate"
	default:
		return "Low"
	}
}

func summarize(scores []float64) SummaryStats {
	if len(scores) == 0 {
		return SummaryStats{}
	}
	max := scores[0]
	min := scores[0]
	for _, s := range scores {
		max = math.Max(max, s)
		min = math.Min(min, s)
	}
	top := scores
	if len(top) > 10 {
		top = top[:10]
	}
	return SummaryStats{
		TotalPitchers: len(scores),
		AvgScore:      round2(stat.Mean(scores, nil)),
		MaxScore:      max,
		MinScore:      min,
		Top10Avg:      round2(stat.Mean(top, nil)),
	}
}

func lineupScoreList(entries []LineupEntry) []float64 {
	out := make([]float64, len(entries))
	for i, e := range entries {
		out[i] = e.MaxVulnerabilityScore
	}
	return out
}

func inningScoreList(entries []InningEntry) []float64 {
	out := make([]float64, len(entries))
	for i, e := range entries {
		out[i] = e.MaxVulnerabilityScore
	}
	return out
}

func patternScoreList(entries []PatternEntry) []float64 {
	out := make([]float64, len(entries))
	for i, e := range entries {
		out[i] = e.PredictabilityScore
	}
	return out
}

func sortedIntKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func sortedStringKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
