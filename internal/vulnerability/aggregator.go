package vulnerability

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/weakspot-analytics/weakspot/internal/playbyplay"
	"github.com/weakspot-analytics/weakspot/internal/resolver"
)

// PitcherNamer resolves anonymous pitcher tokens to display names. The
// resolver satisfies this; tests substitute simpler implementations.
type PitcherNamer interface {
	Name(anonymousID, fallback string) string
}

// LineupBucket accumulates a pitcher's raw results against one batting-order
// position. Mutated during aggregation, read-only afterwards.
type LineupBucket struct {
	AtBats             int            `json:"at_bats"`
	Outcomes           map[string]int `json:"outcomes"`
	PitchTypesFaced    map[string]int `json:"pitch_types_faced"`
	Velocities         []float64      `json:"velocities,omitempty"`
	LeverageSituations int            `json:"leverage_situations"`
}

// InningBucket accumulates a pitcher's raw results within one inning number.
type InningBucket struct {
	Appearances int            `json:"appearances"`
	Outcomes    map[string]int `json:"outcomes"`
	PitchTypes  map[string]int `json:"pitch_types"`
	Velocities  []float64      `json:"velocities,omitempty"`
	PitchCounts []int          `json:"pitch_counts,omitempty"`
}

// PatternBucket accumulates a pitcher's pitch-selection tendencies:
// count-state histograms and 2/3-pitch sequence frequencies.
type PatternBucket struct {
	CountPatterns    map[string]map[string]int `json:"count_patterns"`
	SequencePatterns map[string]int            `json:"sequence_patterns"`
	TotalSequences   int                       `json:"total_sequences"`
}

// Aggregator runs the three situational passes over loaded games. Each pass
// is independent; no bucket is exposed until its pass completes.
type Aggregator struct {
	namer  PitcherNamer
	logger *logrus.Logger
}

func NewAggregator(namer PitcherNamer, logger *logrus.Logger) *Aggregator {
	return &Aggregator{namer: namer, logger: logger}
}

// pitcherKey resolves the play's pitcher token to the aggregation identity.
// Real names pass through; anonymous tokens go through the resolver and fall
// back to the raw token so plays are still grouped consistently.
func (a *Aggregator) pitcherKey(play playbyplay.Play) string {
	if play.Pitcher == "" {
		return ""
	}
	if resolver.IsAnonymous(play.Pitcher) {
		return a.namer.Name(play.Pitcher, play.Pitcher)
	}
	return play.Pitcher
}

// matchesFilter applies the optional case-insensitive pitcher-name filter.
func matchesFilter(name, filter string) bool {
	if filter == "" {
		return true
	}
	return strings.Contains(strings.ToLower(name), strings.ToLower(filter))
}

// ByLineupPosition aggregates per (pitcher, batting-order position):
// at-bats, outcome histogram, pitch types faced, velocity samples, and
// late-inning (>= 7) leverage counts.
func (a *Aggregator) ByLineupPosition(games []*playbyplay.Game, pitcherFilter string) map[string]map[int]*LineupBucket {
	result := make(map[string]map[int]*LineupBucket)

	for _, game := range games {
		positions := playbyplay.LineupPositions(game)

		for _, play := range game.Plays {
			pitcher := a.pitcherKey(play)
			if pitcher == "" || play.Batter == "" || !matchesFilter(pitcher, pitcherFilter) {
				continue
			}

			position, ok := positions[play.Batter]
			if !ok {
				continue
			}

			buckets, ok := result[pitcher]
			if !ok {
				buckets = make(map[int]*LineupBucket)
				result[pitcher] = buckets
			}
			bucket, ok := buckets[position]
			if !ok {
				bucket = &LineupBucket{
					Outcomes:        make(map[string]int),
					PitchTypesFaced: make(map[string]int),
				}
				buckets[position] = bucket
			}

			bucket.AtBats++
			bucket.Outcomes[playResult(play)]++
			if play.Inning >= 7 {
				bucket.LeverageSituations++
			}
			for _, pitch := range play.PitchSequence {
				if pitch.PitchType != "" {
					bucket.PitchTypesFaced[pitch.PitchType]++
				}
				if pitch.Velocity > 0 {
					bucket.Velocities = append(bucket.Velocities, pitch.Velocity)
				}
			}
		}
	}

	return result
}

// ByInning aggregates per (pitcher, inning): appearances, outcome histogram,
// pitch types, velocity samples, and per-play pitch counts (the fatigue
// proxy used by the scorer).
func (a *Aggregator) ByInning(games []*playbyplay.Game, pitcherFilter string) map[string]map[int]*InningBucket {
	result := make(map[string]map[int]*InningBucket)

	for _, game := range games {
		for _, play := range game.Plays {
			pitcher := a.pitcherKey(play)
			if pitcher == "" || play.Inning == 0 || !matchesFilter(pitcher, pitcherFilter) {
				continue
			}

			buckets, ok := result[pitcher]
			if !ok {
				buckets = make(map[int]*InningBucket)
				result[pitcher] = buckets
			}
			bucket, ok := buckets[play.Inning]
			if !ok {
				bucket = &InningBucket{
					Outcomes:   make(map[string]int),
					PitchTypes: make(map[string]int),
				}
				buckets[play.Inning] = bucket
			}

			bucket.Appearances++
			bucket.Outcomes[playResult(play)]++
			for _, pitch := range play.PitchSequence {
				if pitch.PitchType != "" {
					bucket.PitchTypes[pitch.PitchType]++
				}
				if pitch.Velocity > 0 {
					bucket.Velocities = append(bucket.Velocities, pitch.Velocity)
				}
			}
			bucket.PitchCounts = append(bucket.PitchCounts, len(play.PitchSequence))
		}
	}

	return result
}

// ByPitchPattern aggregates pitch-selection tendencies per pitcher. Plays
// with fewer than two pitches carry no sequencing signal and are skipped.
func (a *Aggregator) ByPitchPattern(games []*playbyplay.Game, pitcherFilter string) map[string]*PatternBucket {
	result := make(map[string]*PatternBucket)

	for _, game := range games {
		for _, play := range game.Plays {
			pitcher := a.pitcherKey(play)
			if pitcher == "" || !matchesFilter(pitcher, pitcherFilter) {
				continue
			}
			if len(play.PitchSequence) < 2 {
				continue
			}

			bucket, ok := result[pitcher]
			if !ok {
				bucket = &PatternBucket{
					CountPatterns:    make(map[string]map[string]int),
					SequencePatterns: make(map[string]int),
				}
				result[pitcher] = bucket
			}

			bucket.TotalSequences++

			var pitchTypes []string
			for _, pitch := range play.PitchSequence {
				if pitch.PitchType == "" {
					continue
				}
				pitchTypes = append(pitchTypes, pitch.PitchType)

				countKey := fmt.Sprintf("%d-%d", pitch.Balls, pitch.Strikes)
				byType, ok := bucket.CountPatterns[countKey]
				if !ok {
					byType = make(map[string]int)
					bucket.CountPatterns[countKey] = byType
				}
				byType[pitch.PitchType]++
			}

			for i := 0; i < len(pitchTypes)-1; i++ {
				bucket.SequencePatterns[pitchTypes[i]+" -> "+pitchTypes[i+1]]++
				if i < len(pitchTypes)-2 {
					bucket.SequencePatterns[pitchTypes[i]+" -> "+pitchTypes[i+1]+" -> "+pitchTypes[i+2]]++
				}
			}
		}
	}

	return result
}

func playResult(play playbyplay.Play) string {
	if play.PlayResult == "" {
		return "Unknown"
	}
	return play.PlayResult
}
