package vulnerability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreLineupPosition(t *testing.T) {
	scorer := NewScorer()

	bucket := &LineupBucket{
		AtBats:   10,
		Outcomes: map[string]int{"Home Run": 2, "Single": 1, "Groundout": 7},
	}

	score, ok := scorer.ScoreLineupPosition(bucket)
	require.True(t, ok)
	assert.Equal(t, 30.0, score.VulnerabilityScore)
	assert.Equal(t, 0.3, score.VulnerabilityRate)
	assert.Equal(t, 10, score.SampleSize)
	assert.Nil(t, score.AvgVelocity)
	assert.Equal(t, 0.8, score.Confidence)
}

func TestScoreLineupPositionLeverageAndVelocity(t *testing.T) {
	scorer := NewScorer()

	bucket := &LineupBucket{
		AtBats:             4,
		Outcomes:           map[string]int{"Walk": 1, "Double": 1, "Flyout": 2},
		LeverageSituations: 2,
		Velocities:         []float64{89.0, 91.0},
	}

	// rate 0.5, leverage weight 1.25, velocity penalty (95-90)*2 = 10.
	score, ok := scorer.ScoreLineupPosition(bucket)
	require.True(t, ok)
	assert.InDelta(t, 72.5, score.VulnerabilityScore, 1e-9)
	require.NotNil(t, score.AvgVelocity)
	assert.Equal(t, 90.0, *score.AvgVelocity)
	assert.Equal(t, 0.4, score.Confidence)
}

func TestScoreLineupPositionBelowMinimumOmitted(t *testing.T) {
	scorer := NewScorer()

	_, ok := scorer.ScoreLineupPosition(&LineupBucket{
		AtBats:   2,
		Outcomes: map[string]int{"Home Run": 2},
	})
	assert.False(t, ok)
}

func TestScoreLineupPositionClampedAtHundred(t *testing.T) {
	scorer := NewScorer()

	score, ok := scorer.ScoreLineupPosition(&LineupBucket{
		AtBats:             5,
		Outcomes:           map[string]int{"Home Run": 5},
		LeverageSituations: 5,
		Velocities:         []float64{80.0},
	})
	require.True(t, ok)
	assert.Equal(t, 100.0, score.VulnerabilityScore)
}

func TestScoreInning(t *testing.T) {
	scorer := NewScorer()

	bucket := &InningBucket{
		Appearances: 5,
		Outcomes:    map[string]int{"Single": 1, "Walk": 1, "Strikeout": 3},
		Velocities:  []float64{93.0},
		PitchCounts: []int{6, 6},
	}

	// rate 0.4 -> 40, velocity penalty (95-93)*1.5 = 3, pitch count
	// penalty (6-4)*5 = 10.
	score, ok := scorer.ScoreInning(bucket)
	require.True(t, ok)
	assert.InDelta(t, 53.0, score.VulnerabilityScore, 1e-9)
	assert.Equal(t, 0.4, score.VulnerabilityRate)
	require.NotNil(t, score.AvgPitchCount)
	assert.Equal(t, 6.0, *score.AvgPitchCount)
	assert.Equal(t, 0.6, score.Confidence)
}

func TestScoreInningBelowMinimumOmitted(t *testing.T) {
	scorer := NewScorer()

	_, ok := scorer.ScoreInning(&InningBucket{
		Appearances: 1,
		Outcomes:    map[string]int{"Home Run": 1},
	})
	assert.False(t, ok)
}

func TestScorePattern(t *testing.T) {
	scorer := NewScorer()

	bucket := &PatternBucket{
		TotalSequences: 4,
		SequencePatterns: map[string]int{
			"Four-Seam Fastball -> Slider": 3,
			"Slider -> Four-Seam Fastball": 1,
		},
		CountPatterns: map[string]map[string]int{},
	}

	score, ok := scorer.ScorePattern(bucket)
	require.True(t, ok)
	assert.Equal(t, 75.0, score.PredictabilityScore)
	assert.Equal(t, 4, score.TotalSequences)
	assert.Equal(t, 0.4, score.Confidence)
}

func TestScorePatternEmpty(t *testing.T) {
	scorer := NewScorer()

	_, ok := scorer.ScorePattern(&PatternBucket{})
	assert.False(t, ok)
}

func TestConfidenceForSample(t *testing.T) {
	cases := map[int]float64{
		1: 0.2, 2: 0.2, 3: 0.4, 4: 0.4, 5: 0.6,
		9: 0.6, 10: 0.8, 19: 0.8, 20: 1.0, 50: 1.0,
	}
	for n, want := range cases {
		assert.Equal(t, want, ConfidenceForSample(n), "sample size %d", n)
	}
}
