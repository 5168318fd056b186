package resolver

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weakspot-analytics/weakspot/internal/gamecontext"
	"github.com/weakspot-analytics/weakspot/internal/roster"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func loadRoster(t *testing.T, body string) *roster.Index {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rosters.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return roster.Load(path, testLogger())
}

func emptyContexts(t *testing.T) *gamecontext.Index {
	t.Helper()
	return gamecontext.Build(nil, nil, nil, gamecontext.Options{}, testLogger())
}

func contextsWith(t *testing.T, lineupBody string) *gamecontext.Index {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "starting_lineups_2025-06-03.json")
	require.NoError(t, os.WriteFile(path, []byte(lineupBody), 0o644))
	return gamecontext.Build([]string{path}, nil, nil, gamecontext.Options{}, testLogger())
}

const degromRoster = `[
	{"name": "J. deGrom", "fullName": "Jacob deGrom", "team": "TEX", "type": "pitcher", "ph": "R", "playerId": "4346118"}
]`

func TestDirectIDMatch(t *testing.T) {
	r := New(loadRoster(t, degromRoster), emptyContexts(t), testLogger())

	situations := []GameSituation{{GameID: "401", HomeTeam: "TEX", AwayTeam: "SEA", Date: "2025-06-03", Inning: 1, InningHalf: "Top"}}
	result := r.Resolve("Pitcher_4346118", situations)

	require.NotNil(t, result)
	assert.Equal(t, "Jacob deGrom", result.RealName)
	assert.Equal(t, 0.95, result.Confidence)
	assert.Equal(t, MethodDirectIDMatch, result.Method)
	assert.Equal(t, "TEX", result.Team)
	assert.Equal(t, 1, result.ContextsAnalyzed)
}

func TestNoContextsReturnsNil(t *testing.T) {
	r := New(loadRoster(t, degromRoster), emptyContexts(t), testLogger())
	assert.Nil(t, r.Resolve("Pitcher_4346118", nil))
}

func TestContextMatchingVerified(t *testing.T) {
	rosterIdx := loadRoster(t, `[
		{"name": "S. Strider", "fullName": "Spencer Strider", "team": "ATL", "type": "pitcher", "ph": "R", "playerId": "4361024"}
	]`)
	contextIdx := contextsWith(t, `{
		"games": [{
			"originalId": "401695803",
			"homeTeam": "ATL",
			"awayTeam": "ARI",
			"pitchers": {"home": {"name": "Spencer Strider", "id": "4361024"}, "away": {"name": "Zac Gallen", "id": "36183"}}
		}]
	}`)

	r := New(rosterIdx, contextIdx, testLogger())

	// Unknown numeric suffix (4 digits, too short for substring fallback),
	// appearing only in bottom halves, so home team (ATL) is inferred.
	situations := []GameSituation{
		{GameID: "401695803", HomeTeam: "ATL", AwayTeam: "ARI", Date: "2025-06-03", Inning: 1, InningHalf: "Bottom"},
		{GameID: "401695803", HomeTeam: "ATL", AwayTeam: "ARI", Date: "2025-06-03", Inning: 2, InningHalf: "Bottom"},
	}
	result := r.Resolve("Pitcher_9999", situations)

	require.NotNil(t, result)
	assert.Equal(t, MethodContextMatching, result.Method)
	assert.Equal(t, "Spencer Strider", result.RealName)
	assert.Equal(t, "ATL", result.Team)
	assert.Greater(t, result.Confidence, 0.6)
	assert.LessOrEqual(t, result.Confidence, 0.95)
	assert.Greater(t, result.CandidateScore, 0.0)
}

func TestContextMatchingUnverifiedCapsConfidence(t *testing.T) {
	// Roster does not know the lineup's pitcher.
	rosterIdx := loadRoster(t, `[]`)
	contextIdx := contextsWith(t, `{
		"games": [{
			"originalId": "401695803",
			"homeTeam": "ATL",
			"awayTeam": "ARI",
			"pitchers": {"home": {"name": "Mystery Man", "id": "1"}, "away": {"name": "", "id": ""}}
		}]
	}`)

	r := New(rosterIdx, contextIdx, testLogger())
	situations := []GameSituation{
		{GameID: "401695803", HomeTeam: "ATL", AwayTeam: "ARI", Date: "2025-06-03", Inning: 3, InningHalf: "Bottom"},
		{GameID: "401695803", HomeTeam: "ATL", AwayTeam: "ARI", Date: "2025-06-03", Inning: 4, InningHalf: "Bottom"},
	}
	result := r.Resolve("Pitcher_77", situations)

	require.NotNil(t, result)
	assert.Equal(t, MethodContextMatchingUnverified, result.Method)
	assert.Equal(t, "Mystery Man", result.RealName)
	assert.Equal(t, "Man", result.ShortName)
	assert.LessOrEqual(t, result.Confidence, 0.7)
}

func TestSubstringFallback(t *testing.T) {
	rosterIdx := loadRoster(t, `[
		{"name": "G. Cole", "fullName": "Gerrit Cole", "team": "NYY", "type": "pitcher", "ph": "R", "playerId": "543037"}
	]`)
	r := New(rosterIdx, emptyContexts(t), testLogger())

	// Suffix 43037 (5 digits) is contained in roster ID 543037. The context
	// index is empty so no candidate can score.
	situations := []GameSituation{{GameID: "nope", HomeTeam: "NYY", AwayTeam: "BOS", Date: "2025-06-03", Inning: 1, InningHalf: "Top"}}
	result := r.Resolve("Pitcher_43037", situations)

	require.NotNil(t, result)
	assert.Equal(t, MethodSubstringMatch, result.Method)
	assert.Equal(t, "Gerrit Cole", result.RealName)
	assert.Equal(t, 0.4, result.Confidence)
}

func TestSubstringFallbackScansWholeRoster(t *testing.T) {
	rosterIdx := loadRoster(t, `[
		{"name": "A. Judge", "fullName": "Aaron Judge", "team": "NYY", "type": "hitter", "ph": "R", "playerId": "592450"}
	]`)
	r := New(rosterIdx, emptyContexts(t), testLogger())

	// Hitters are candidates too. The upstream IDs are not role-scoped.
	situations := []GameSituation{{GameID: "g", HomeTeam: "NYY", AwayTeam: "BOS", Date: "2025-06-03", Inning: 1, InningHalf: "Top"}}
	result := r.Resolve("Pitcher_92450", situations)

	require.NotNil(t, result)
	assert.Equal(t, MethodSubstringMatch, result.Method)
	assert.Equal(t, "Aaron Judge", result.RealName)
}

func TestShortSuffixSkipsSubstringFallback(t *testing.T) {
	rosterIdx := loadRoster(t, `[
		{"name": "G. Cole", "fullName": "Gerrit Cole", "team": "NYY", "type": "pitcher", "ph": "R", "playerId": "543037"}
	]`)
	r := New(rosterIdx, emptyContexts(t), testLogger())

	situations := []GameSituation{{GameID: "g", HomeTeam: "NYY", AwayTeam: "BOS", Date: "2025-06-03", Inning: 1, InningHalf: "Top"}}
	result := r.Resolve("Pitcher_4303", situations)

	// Falls through to the placeholder identity instead.
	require.NotNil(t, result)
	assert.Equal(t, MethodAnonymousWithContext, result.Method)
	assert.Equal(t, "Unknown Pitcher (Pitcher_4303)", result.RealName)
	assert.Equal(t, 0.1, result.Confidence)
}

func TestResolveCachesResults(t *testing.T) {
	r := New(loadRoster(t, degromRoster), emptyContexts(t), testLogger())
	situations := []GameSituation{{GameID: "401", HomeTeam: "TEX", AwayTeam: "SEA", Date: "2025-06-03", InningHalf: "Top"}}

	first := r.Resolve("Pitcher_4346118", situations)
	second := r.Resolve("Pitcher_4346118", nil) // cache hit, contexts ignored
	assert.Same(t, first, second)

	assert.Equal(t, "Jacob deGrom", r.Name("Pitcher_4346118", "fallback"))
	assert.Equal(t, "fallback", r.Name("Pitcher_0", "fallback"))
}

func TestConcurrentResolveAndRead(t *testing.T) {
	r := New(loadRoster(t, degromRoster), emptyContexts(t), testLogger())
	situations := []GameSituation{{GameID: "401", HomeTeam: "TEX", AwayTeam: "SEA", Date: "2025-06-03", InningHalf: "Top"}}

	// The server shares one resolver between request handlers and the
	// refresh job, so cache writes and reads overlap.
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				id := fmt.Sprintf("Pitcher_%d%d", i, j)
				r.Resolve(id, situations)
				r.Resolve("Pitcher_4346118", situations)
				r.Name(id, "fallback")
				r.Get(id)
				r.GenerateReport()
				r.Mappings()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, "Jacob deGrom", r.Name("Pitcher_4346118", "fallback"))
}

func TestCacheRoundTrip(t *testing.T) {
	r := New(loadRoster(t, degromRoster), emptyContexts(t), testLogger())
	situations := []GameSituation{{GameID: "401", HomeTeam: "TEX", AwayTeam: "SEA", Date: "2025-06-03", InningHalf: "Top"}}
	r.Resolve("Pitcher_4346118", situations)

	path := filepath.Join(t.TempDir(), "cache.json")
	require.NoError(t, r.SaveCache(path))

	reloaded := New(loadRoster(t, degromRoster), emptyContexts(t), testLogger())
	require.True(t, reloaded.LoadCache(path))
	assert.Equal(t, r.Mappings(), reloaded.Mappings())
}

func TestLoadCacheToleratesCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"anonymous_to_name": {truncated`), 0o644))

	r := New(loadRoster(t, degromRoster), emptyContexts(t), testLogger())
	assert.False(t, r.LoadCache(path))
	assert.Empty(t, r.Mappings())
}

func TestGenerateReport(t *testing.T) {
	r := New(loadRoster(t, degromRoster), emptyContexts(t), testLogger())
	situations := []GameSituation{{GameID: "401", HomeTeam: "TEX", AwayTeam: "SEA", Date: "2025-06-03", InningHalf: "Top"}}
	r.Resolve("Pitcher_4346118", situations) // 0.95, direct
	r.Resolve("Pitcher_12", situations)      // 0.1, placeholder

	report := r.GenerateReport()
	assert.Equal(t, 2, report.TotalAnonymousIDs)
	assert.Equal(t, 1, report.ConfidenceBreakdown["high_confidence_80_plus"])
	assert.Equal(t, 1, report.ConfidenceBreakdown["low_confidence_below_50"])
	assert.Equal(t, 1, report.MappingMethods[string(MethodDirectIDMatch)])
	assert.InDelta(t, 0.525, report.AverageConfidence, 0.001)
}
