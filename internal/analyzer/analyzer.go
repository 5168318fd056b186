package analyzer

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/weakspot-analytics/weakspot/internal/config"
	"github.com/weakspot-analytics/weakspot/internal/gamecontext"
	"github.com/weakspot-analytics/weakspot/internal/playbyplay"
	"github.com/weakspot-analytics/weakspot/internal/rankings"
	"github.com/weakspot-analytics/weakspot/internal/resolver"
	"github.com/weakspot-analytics/weakspot/internal/roster"
	"github.com/weakspot-analytics/weakspot/internal/vulnerability"
)

// ErrNoData is returned when no play-by-play files match the requested range.
var ErrNoData = errors.New("no play-by-play data available")

// DataSummary describes how much data backed a pitcher report.
type DataSummary struct {
	GamesAnalyzed           int `json:"games_analyzed"`
	LineupPositionsAnalyzed int `json:"lineup_positions_analyzed"`
	InningsAnalyzed         int `json:"innings_analyzed"`
}

// PitcherReport is the full weakspot analysis for one pitcher.
type PitcherReport struct {
	PitcherName           string                                       `json:"pitcher_name"`
	AnalysisDate          string                                       `json:"analysis_date"`
	AnalysisPeriod        string                                       `json:"analysis_period"`
	DataSummary           DataSummary                                  `json:"data_summary"`
	LineupVulnerabilities map[string]vulnerability.LineupPositionScore `json:"lineup_vulnerabilities"`
	InningPatterns        map[string]vulnerability.InningScore         `json:"inning_patterns"`
	PitchPatterns         *vulnerability.PatternScore                  `json:"pitch_patterns,omitempty"`
	OverallConfidence     float64                                      `json:"overall_confidence"`
}

// Analyzer wires the whole pipeline together: roster and game-context
// indexes feed the resolver, resolved names feed the aggregations, and
// scored buckets feed the rankings builder.
type Analyzer struct {
	cfg      *config.Config
	logger   *logrus.Logger
	resolver *resolver.Resolver
	loader   *playbyplay.Loader
	scorer   *vulnerability.Scorer
	builder  *rankings.Builder
	writer   *rankings.Writer
}

// New builds the indexes from the configured data directories. Missing
// source directories degrade to empty indexes rather than failing, so
// analysis can run on whatever data has been scraped so far.
func New(cfg *config.Config, logger *logrus.Logger) *Analyzer {
	rosterIdx := roster.Load(cfg.RosterFile(), logger)

	lineupFiles, _ := filepath.Glob(filepath.Join(cfg.LineupDir(), "starting_lineups_*.json"))
	csvFiles, _ := filepath.Glob(filepath.Join(cfg.CSVBackupDir(), "*.csv"))
	analysisFiles, _ := filepath.Glob(filepath.Join(cfg.AnalysisDir(), "*.json"))

	contexts := gamecontext.Build(lineupFiles, csvFiles, analysisFiles, gamecontext.Options{
		RecentAnalysisFiles: cfg.RecentAnalysisFiles,
		MaxCSVFiles:         cfg.MaxCSVFiles,
	}, logger)

	res := resolver.New(rosterIdx, contexts, logger)
	if cfg.ResolutionCacheFile != "" {
		res.LoadCache(filepath.Join(cfg.OutputPath, cfg.ResolutionCacheFile))
	}

	scorer := vulnerability.NewScorer()
	scorer.MinLineupAtBats = cfg.MinLineupAtBats
	scorer.MinInningAppearances = cfg.MinInningAppearances

	return &Analyzer{
		cfg:      cfg,
		logger:   logger,
		resolver: res,
		loader:   playbyplay.NewLoader(logger),
		scorer:   scorer,
		builder:  rankings.NewBuilder(logger),
		writer:   rankings.NewWriter(cfg.OutputPath, logger),
	}
}

// Resolver exposes the ID resolver for report endpoints.
func (a *Analyzer) Resolver() *resolver.Resolver {
	return a.resolver
}

// loadGames reads play-by-play files and resolves every anonymous pitcher
// token seen in them, so later aggregation passes group plays by real name.
func (a *Analyzer) loadGames(dateRange *playbyplay.DateRange) ([]*playbyplay.Game, error) {
	games := a.loader.Load(a.cfg.PlayByPlayDir(), dateRange)
	if len(games) == 0 {
		return nil, ErrNoData
	}
	a.resolveAnonymousPitchers(games)
	return games, nil
}

// resolveAnonymousPitchers collects every appearance of each anonymous
// pitcher token across the loaded games and resolves them in one batch.
func (a *Analyzer) resolveAnonymousPitchers(games []*playbyplay.Game) {
	situations := make(map[string][]resolver.GameSituation)

	for _, game := range games {
		for _, play := range game.Plays {
			if !strings.HasPrefix(play.Pitcher, resolver.AnonymousPrefix) {
				continue
			}
			situations[play.Pitcher] = append(situations[play.Pitcher], resolver.GameSituation{
				GameID:     game.Metadata.GameID.String(),
				HomeTeam:   game.Metadata.HomeTeam,
				AwayTeam:   game.Metadata.AwayTeam,
				Date:       game.Date,
				Inning:     play.Inning,
				InningHalf: play.InningHalf,
			})
		}
	}

	resolved := 0
	for id, sits := range situations {
		if a.resolver.Resolve(id, sits) != nil {
			resolved++
		}
	}

	a.logger.WithFields(logrus.Fields{
		"anonymous_ids": len(situations),
		"resolved":      resolved,
	}).Info("Anonymous pitcher resolution complete")
}

// SaveResolutionCache persists the resolver's mappings for the next run.
func (a *Analyzer) SaveResolutionCache() error {
	if a.cfg.ResolutionCacheFile == "" {
		return nil
	}
	return a.resolver.SaveCache(filepath.Join(a.cfg.OutputPath, a.cfg.ResolutionCacheFile))
}

// AnalyzePitcher runs all three aggregations for one pitcher and compiles
// the per-pitcher weakspot report.
func (a *Analyzer) AnalyzePitcher(pitcherName string, dateRange *playbyplay.DateRange) (*PitcherReport, error) {
	games, err := a.loadGames(dateRange)
	if err != nil {
		return nil, err
	}

	agg := vulnerability.NewAggregator(a.resolver, a.logger)

	lineupScores := a.scoreLineup(agg.ByLineupPosition(games, pitcherName))
	inningScores := a.scoreInnings(agg.ByInning(games, pitcherName))
	patternScores := a.scorePatterns(agg.ByPitchPattern(games, pitcherName))

	report := &PitcherReport{
		PitcherName:           pitcherName,
		AnalysisDate:          time.Now().Format(time.RFC3339),
		AnalysisPeriod:        periodLabel(dateRange),
		LineupVulnerabilities: map[string]vulnerability.LineupPositionScore{},
		InningPatterns:        map[string]vulnerability.InningScore{},
	}

	// The aggregations key by resolved name; the filter may match more than
	// one pitcher. An exact (case-insensitive) match wins, else the
	// alphabetically first matching name, so repeated runs pick the same
	// pitcher.
	selected := selectPitcher(pitcherName, lineupScores, inningScores, patternScores)
	if selected != "" {
		report.PitcherName = selected
	}
	for pos, score := range lineupScores[selected] {
		report.LineupVulnerabilities[fmt.Sprintf("position_%d", pos)] = score
	}
	for inning, score := range inningScores[selected] {
		report.InningPatterns[fmt.Sprintf("inning_%d", inning)] = score
	}
	if patterns, ok := patternScores[selected]; ok {
		report.PitchPatterns = &patterns
	}

	report.DataSummary = DataSummary{
		GamesAnalyzed:           len(games),
		LineupPositionsAnalyzed: len(report.LineupVulnerabilities),
		InningsAnalyzed:         len(report.InningPatterns),
	}
	report.OverallConfidence = overallConfidence(report.LineupVulnerabilities, report.InningPatterns)

	return report, nil
}

// GenerateRankings builds and persists the requested rankings report.
// analysisType is one of lineup, inning, patterns, overall, or all.
// Returns the written file paths keyed by analysis type.
func (a *Analyzer) GenerateRankings(analysisType string, dateRange *playbyplay.DateRange) (map[string]string, error) {
	games, err := a.loadGames(dateRange)
	if err != nil {
		return nil, err
	}

	agg := vulnerability.NewAggregator(a.resolver, a.logger)
	period := periodLabel(dateRange)

	lineup := a.builder.BuildLineup(a.scoreLineup(agg.ByLineupPosition(games, "")), period)
	inning := a.builder.BuildInning(a.scoreInnings(agg.ByInning(games, "")), period)
	patterns := a.builder.BuildPatterns(a.scorePatterns(agg.ByPitchPattern(games, "")), period)

	written := make(map[string]string)
	write := func(report any, reportType string) error {
		path, err := a.writer.Write(reportType, report)
		if err != nil {
			return err
		}
		written[reportType] = path
		return nil
	}

	switch analysisType {
	case "lineup":
		err = write(lineup, "lineup_vulnerabilities")
	case "inning":
		err = write(inning, "inning_patterns")
	case "patterns":
		err = write(patterns, "pitch_patterns")
	case "overall":
		err = write(a.builder.BuildOverall(lineup, inning, patterns, period), "overall_weakspots")
	case "all":
		for _, step := range []struct {
			report any
			kind   string
		}{
			{lineup, "lineup_vulnerabilities"},
			{inning, "inning_patterns"},
			{patterns, "pitch_patterns"},
			{a.builder.BuildOverall(lineup, inning, patterns, period), "overall_weakspots"},
		} {
			if werr := write(step.report, step.kind); werr != nil {
				err = werr
				break
			}
		}
	default:
		err = fmt.Errorf("unknown analysis type %q", analysisType)
	}
	if err != nil {
		return nil, err
	}

	return written, nil
}

func (a *Analyzer) scoreLineup(buckets map[string]map[int]*vulnerability.LineupBucket) map[string]map[int]vulnerability.LineupPositionScore {
	result := make(map[string]map[int]vulnerability.LineupPositionScore)
	for pitcher, positions := range buckets {
		for position, bucket := range positions {
			score, ok := a.scorer.ScoreLineupPosition(bucket)
			if !ok {
				continue
			}
			if result[pitcher] == nil {
				result[pitcher] = make(map[int]vulnerability.LineupPositionScore)
			}
			result[pitcher][position] = score
		}
	}
	return result
}

func (a *Analyzer) scoreInnings(buckets map[string]map[int]*vulnerability.InningBucket) map[string]map[int]vulnerability.InningScore {
	result := make(map[string]map[int]vulnerability.InningScore)
	for pitcher, innings := range buckets {
		for inning, bucket := range innings {
			score, ok := a.scorer.ScoreInning(bucket)
			if !ok {
				continue
			}
			if result[pitcher] == nil {
				result[pitcher] = make(map[int]vulnerability.InningScore)
			}
			result[pitcher][inning] = score
		}
	}
	return result
}

func (a *Analyzer) scorePatterns(buckets map[string]*vulnerability.PatternBucket) map[string]vulnerability.PatternScore {
	result := make(map[string]vulnerability.PatternScore)
	for pitcher, bucket := range buckets {
		score, ok := a.scorer.ScorePattern(bucket)
		if !ok {
			continue
		}
		result[pitcher] = score
	}
	return result
}

func matchesPitcher(name, filter string) bool {
	return strings.Contains(strings.ToLower(name), strings.ToLower(filter))
}

// selectPitcher picks the one resolved name the filter refers to across all
// three aggregations: an exact case-insensitive match if present, else the
// alphabetically first matching name. Empty when nothing matches.
func selectPitcher(
	filter string,
	lineup map[string]map[int]vulnerability.LineupPositionScore,
	innings map[string]map[int]vulnerability.InningScore,
	patterns map[string]vulnerability.PatternScore,
) string {
	seen := make(map[string]struct{})
	for name := range lineup {
		if matchesPitcher(name, filter) {
			seen[name] = struct{}{}
		}
	}
	for name := range innings {
		if matchesPitcher(name, filter) {
			seen[name] = struct{}{}
		}
	}
	for name := range patterns {
		if matchesPitcher(name, filter) {
			seen[name] = struct{}{}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if strings.EqualFold(name, filter) {
			return name
		}
	}
	if len(names) > 0 {
		return names[0]
	}
	return ""
}

func periodLabel(dateRange *playbyplay.DateRange) string {
	if dateRange == nil {
		return "All available data"
	}
	return fmt.Sprintf("%s to %s", dateRange.Start, dateRange.End)
}

// overallConfidence is the sample-weighted average confidence across all
// scored lineup positions and innings.
func overallConfidence(lineup map[string]vulnerability.LineupPositionScore, innings map[string]vulnerability.InningScore) float64 {
	totalSamples := 0
	weighted := 0.0

	for _, score := range lineup {
		totalSamples += score.SampleSize
		weighted += float64(score.SampleSize) * score.Confidence
	}
	for _, score := range innings {
		totalSamples += score.SampleSize
		weighted += float64(score.SampleSize) * score.Confidence
	}

	if totalSamples == 0 {
		return 0
	}
	return round3(weighted / float64(totalSamples))
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
