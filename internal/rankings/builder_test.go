package rankings

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weakspot-analytics/weakspot/internal/vulnerability"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func velocity(v float64) *float64 { return &v }

func TestBuildLineupSortsDescending(t *testing.T) {
	builder := NewBuilder(testLogger())

	scores := map[string]map[int]vulnerability.LineupPositionScore{
		"Zac Gallen": {
			1: {VulnerabilityScore: 25.0, SampleSize: 8, Confidence: 0.6},
		},
		"Spencer Strider": {
			1: {VulnerabilityScore: 40.0, SampleSize: 12, Confidence: 0.8},
			4: {VulnerabilityScore: 62.5, SampleSize: 5, Confidence: 0.6},
		},
	}

	report := builder.BuildLineup(scores, "All available data")

	require.Len(t, report.Rankings, 2)
	for i := 0; i < len(report.Rankings)-1; i++ {
		assert.GreaterOrEqual(t,
			report.Rankings[i].MaxVulnerabilityScore,
			report.Rankings[i+1].MaxVulnerabilityScore)
	}

	top := report.Rankings[0]
	assert.Equal(t, "Spencer Strider", top.Pitcher)
	assert.Equal(t, 62.5, top.MaxVulnerabilityScore)
	assert.Equal(t, "position_4", top.MostVulnerablePosition)
	assert.Equal(t, 17, top.TotalSampleSize)
	assert.Contains(t, top.VulnerabilitySummary, "position_4")

	assert.Equal(t, "lineup_vulnerabilities", report.AnalysisType)
	assert.Equal(t, 2, report.SummaryStats.TotalPitchers)
	assert.InDelta(t, 43.75, report.SummaryStats.AvgScore, 1e-9)
	assert.Equal(t, 62.5, report.SummaryStats.MaxScore)
	assert.Equal(t, 25.0, report.SummaryStats.MinScore)
	assert.NotEmpty(t, report.Metadata.RunID)
}

func TestBuildInningFatigueSignals(t *testing.T) {
	builder := NewBuilder(testLogger())

	scores := map[string]map[int]vulnerability.InningScore{
		"Spencer Strider": {
			1: {VulnerabilityScore: 20.0, SampleSize: 10, AvgVelocity: velocity(97.5)},
			6: {VulnerabilityScore: 55.0, SampleSize: 6, AvgVelocity: velocity(94.9)},
		},
		"Zac Gallen": {
			1: {VulnerabilityScore: 30.0, SampleSize: 9, AvgVelocity: velocity(93.0)},
			7: {VulnerabilityScore: 35.0, SampleSize: 4, AvgVelocity: velocity(91.5)},
		},
	}

	report := builder.BuildInning(scores, "All available data")

	require.Len(t, report.Rankings, 2)
	strider := report.Rankings[0]
	assert.Equal(t, "Spencer Strider", strider.Pitcher)
	assert.Equal(t, "inning_6", strider.MostVulnerableInning)
	assert.InDelta(t, 2.6, strider.VelocityDeclinePattern, 1e-9)
	assert.Equal(t, "High", strider.FatigueIndicator)

	gallen := report.Rankings[1]
	assert.InDelta(t, 1.5, gallen.VelocityDeclinePattern, 1e-9)
	assert.Equal(t, "Moderate", gallen.FatigueIndicator)
}

func TestVelocityDeclineNeedsTwoInnings(t *testing.T) {
	decline := velocityDecline(map[int]vulnerability.InningScore{
		3: {AvgVelocity: velocity(95.0)},
		5: {},
	})
	assert.Zero(t, decline)
}

func TestBuildPatternsInsights(t *testing.T) {
	builder := NewBuilder(testLogger())

	scores := map[string]vulnerability.PatternScore{
		"Spencer Strider": {
			PredictabilityScore: 75.0,
			TotalSequences:      20,
			SequencePatterns: map[string]int{
				"Four-Seam Fastball -> Slider": 15,
				"Slider -> Four-Seam Fastball": 5,
			},
			CountPatterns: map[string]map[string]int{
				"0-2": {"Slider": 9, "Four-Seam Fastball": 1},
				"1-1": {"Slider": 3, "Four-Seam Fastball": 3},
			},
		},
	}

	report := builder.BuildPatterns(scores, "All available data")

	require.Len(t, report.Rankings, 1)
	entry := report.Rankings[0]
	assert.Equal(t, "Four-Seam Fastball -> Slider", entry.MostCommonSequence)
	require.Len(t, entry.PredictableCounts, 1)
	assert.Equal(t, "0-2", entry.PredictableCounts[0].Count)
	assert.Equal(t, "Slider", entry.PredictableCounts[0].PitchType)
	assert.Equal(t, 0.9, entry.PredictableCounts[0].Frequency)
	assert.Equal(t, "Moderate", entry.ExploitationPotential)
}

func TestBuildOverallComposite(t *testing.T) {
	builder := NewBuilder(testLogger())

	lineup := builder.BuildLineup(map[string]map[int]vulnerability.LineupPositionScore{
		"Spencer Strider": {1: {VulnerabilityScore: 60.0, SampleSize: 10}},
	}, "All available data")
	inning := builder.BuildInning(map[string]map[int]vulnerability.InningScore{
		"Spencer Strider": {6: {VulnerabilityScore: 40.0, SampleSize: 5}},
	}, "All available data")
	patterns := builder.BuildPatterns(map[string]vulnerability.PatternScore{
		"Spencer Strider": {PredictabilityScore: 80.0, TotalSequences: 12},
		"Zac Gallen":      {PredictabilityScore: 50.0, TotalSequences: 8},
	}, "All available data")

	report := builder.BuildOverall(lineup, inning, patterns, "All available data")

	require.Len(t, report.Rankings, 2)

	strider := report.Rankings[0]
	assert.Equal(t, "Spencer Strider", strider.Pitcher)
	// 60*0.40 + 40*0.35 + 80*0.25 = 58.0
	assert.InDelta(t, 58.0, strider.CompositeWeakspotScore, 1e-9)
	assert.InDelta(t, 24.0, strider.VulnerabilityBreakdown.LineupContribution, 1e-9)
	assert.InDelta(t, 14.0, strider.VulnerabilityBreakdown.InningContribution, 1e-9)
	assert.InDelta(t, 20.0, strider.VulnerabilityBreakdown.PatternContribution, 1e-9)

	// Gallen has pattern data only, so the other dimensions contribute zero.
	gallen := report.Rankings[1]
	assert.Equal(t, "Zac Gallen", gallen.Pitcher)
	assert.Nil(t, gallen.LineupVulnerability)
	assert.Nil(t, gallen.InningVulnerability)
	assert.InDelta(t, 12.5, gallen.CompositeWeakspotScore, 1e-9)

	assert.Equal(t, 2, report.SummaryStats.TotalPitchersAnalyzed)
	assert.InDelta(t, 35.25, report.SummaryStats.AvgCompositeScore, 1e-9)
}

func TestWriterCreatesTimestampedAndLatest(t *testing.T) {
	dir := t.TempDir()
	writer := NewWriter(dir, testLogger())
	builder := NewBuilder(testLogger())

	report := builder.BuildLineup(map[string]map[int]vulnerability.LineupPositionScore{
		"Spencer Strider": {1: {VulnerabilityScore: 30.0, SampleSize: 10}},
	}, "All available data")

	path, err := writer.Write("lineup_vulnerabilities", report)
	require.NoError(t, err)
	assert.FileExists(t, path)

	latest, err := writer.LatestFile("lineup_vulnerabilities")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "lineup_vulnerability_rankings_latest.json"), latest)

	data, err := os.ReadFile(latest)
	require.NoError(t, err)

	var decoded LineupReport
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "lineup_vulnerabilities", decoded.AnalysisType)
	require.Len(t, decoded.Rankings, 1)
	assert.Equal(t, 30.0, decoded.Rankings[0].MaxVulnerabilityScore)
}

func TestWriterRejectsUnknownType(t *testing.T) {
	writer := NewWriter(t.TempDir(), testLogger())
	_, err := writer.Write("nonsense", struct{}{})
	assert.Error(t, err)
}
