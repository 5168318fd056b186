package vulnerability

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// vulnerableOutcomes are the play results counted against the pitcher.
var vulnerableOutcomes = []string{"Home Run", "Single", "Double", "Triple", "Walk"}

// LineupPositionScore is the scored view of one batting-order position.
type LineupPositionScore struct {
	VulnerabilityScore float64  `json:"vulnerability_score"`
	SampleSize         int      `json:"sample_size"`
	VulnerabilityRate  float64  `json:"vulnerability_rate"`
	AvgVelocity        *float64 `json:"avg_velocity,omitempty"`
	LeverageSituations int      `json:"leverage_situations"`
	Confidence         float64  `json:"confidence"`
}

// InningScore is the scored view of one inning.
type InningScore struct {
	VulnerabilityScore float64  `json:"vulnerability_score"`
	SampleSize         int      `json:"sample_size"`
	VulnerabilityRate  float64  `json:"vulnerability_rate"`
	AvgVelocity        *float64 `json:"avg_velocity,omitempty"`
	AvgPitchCount      *float64 `json:"avg_pitch_count,omitempty"`
	Confidence         float64  `json:"confidence"`
}

// PatternScore is the scored view of a pitcher's pitch-selection tendencies.
type PatternScore struct {
	PredictabilityScore float64                   `json:"predictability_score"`
	TotalSequences      int                       `json:"total_sequences"`
	CountPatterns       map[string]map[string]int `json:"count_patterns"`
	SequencePatterns    map[string]int            `json:"sequence_patterns"`
	Confidence          float64                   `json:"confidence"`
}

// Scorer converts aggregation buckets into bounded 0-100 scores. Buckets
// below the minimum sample thresholds are omitted rather than scored low.
type Scorer struct {
	MinLineupAtBats      int
	MinInningAppearances int
}

func NewScorer() *Scorer {
	return &Scorer{MinLineupAtBats: 3, MinInningAppearances: 2}
}

// ScoreLineupPosition scores one lineup-position bucket. The second return
// is false when the sample is too small to score.
func (s *Scorer) ScoreLineupPosition(b *LineupBucket) (LineupPositionScore, bool) {
	if b == nil || b.AtBats < s.MinLineupAtBats {
		return LineupPositionScore{}, false
	}

	rate := float64(vulnerableCount(b.Outcomes)) / float64(b.AtBats)
	leverageWeight := 1 + (float64(b.LeverageSituations)/float64(b.AtBats))*0.5

	score := rate * 100 * leverageWeight
	var avgVelocity *float64
	if len(b.Velocities) > 0 {
		mean := stat.Mean(b.Velocities, nil)
		score += math.Max(0, (95-mean)*2)
		rounded := round1(mean)
		avgVelocity = &rounded
	}

	return LineupPositionScore{
		VulnerabilityScore: round2(math.Min(100, score)),
		SampleSize:         b.AtBats,
		VulnerabilityRate:  round3(rate),
		AvgVelocity:        avgVelocity,
		LeverageSituations: b.LeverageSituations,
		Confidence:         ConfidenceForSample(b.AtBats),
	}, true
}

// ScoreInning scores one inning bucket. Velocity decline is weighted lighter
// than in the lineup dimension and long at-bats add a fatigue penalty.
func (s *Scorer) ScoreInning(b *InningBucket) (InningScore, bool) {
	if b == nil || b.Appearances < s.MinInningAppearances {
		return InningScore{}, false
	}
	total := 0
	for _, n := range b.Outcomes {
		total += n
	}
	if total == 0 {
		return InningScore{}, false
	}

	rate := float64(vulnerableCount(b.Outcomes)) / float64(total)
	score := rate * 100

	var avgVelocity *float64
	if len(b.Velocities) > 0 {
		mean := stat.Mean(b.Velocities, nil)
		score += math.Max(0, (95-mean)*1.5)
		rounded := round1(mean)
		avgVelocity = &rounded
	}

	var avgPitchCount *float64
	if len(b.PitchCounts) > 0 {
		counts := make([]float64, len(b.PitchCounts))
		for i, n := range b.PitchCounts {
			counts[i] = float64(n)
		}
		mean := stat.Mean(counts, nil)
		score += math.Max(0, (mean-4)*5)
		rounded := round1(mean)
		avgPitchCount = &rounded
	}

	return InningScore{
		VulnerabilityScore: round2(math.Min(100, score)),
		SampleSize:         b.Appearances,
		VulnerabilityRate:  round3(rate),
		AvgVelocity:        avgVelocity,
		AvgPitchCount:      avgPitchCount,
		Confidence:         ConfidenceForSample(b.Appearances),
	}, true
}

// ScorePattern scores a pattern bucket. Predictability is the share of the
// most common pitch sequence among all observed sequences.
func (s *Scorer) ScorePattern(b *PatternBucket) (PatternScore, bool) {
	if b == nil || b.TotalSequences == 0 {
		return PatternScore{}, false
	}

	total := 0
	max := 0
	for _, n := range b.SequencePatterns {
		total += n
		if n > max {
			max = n
		}
	}
	predictability := 0.0
	if total > 0 {
		predictability = float64(max) / float64(total) * 100
	}

	return PatternScore{
		PredictabilityScore: round2(predictability),
		TotalSequences:      b.TotalSequences,
		CountPatterns:       b.CountPatterns,
		SequencePatterns:    b.SequencePatterns,
		Confidence:          ConfidenceForSample(b.TotalSequences),
	}, true
}

// ConfidenceForSample maps a sample size onto the fixed confidence ladder.
func ConfidenceForSample(n int) float64 {
	switch {
	case n >= 20:
		return 1.0
	case n >= 10:
		return 0.8
	case n >= 5:
		return 0.6
	case n >= 3:
		return 0.4
	default:
		return 0.2
	}
}

func vulnerableCount(outcomes map[string]int) int {
	total := 0
	for _, outcome := range vulnerableOutcomes {
		total += outcomes[outcome]
	}
	return total
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
