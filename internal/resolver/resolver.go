package resolver

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/weakspot-analytics/weakspot/internal/gamecontext"
	"github.com/weakspot-analytics/weakspot/internal/roster"
)

// Method tags how a resolution was produced. Confidence ordering follows
// method quality: direct_id_match > context_matching > substring_match >
// anonymous_with_context.
type Method string

const (
	MethodDirectIDMatch             Method = "direct_id_match"
	MethodContextMatching           Method = "context_matching"
	MethodContextMatchingUnverified Method = "context_matching_unverified"
	MethodSubstringMatch            Method = "substring_match"
	MethodAnonymousWithContext      Method = "anonymous_with_context"
)

// AnonymousPrefix marks pitcher IDs the upstream scraper could not resolve.
const AnonymousPrefix = "Pitcher_"

// GameSituation is one appearance of an anonymous ID in play-by-play data.
type GameSituation struct {
	GameID     string
	HomeTeam   string
	AwayTeam   string
	Date       string
	Inning     int
	InningHalf string
}

// Result is one best-guess resolution of an anonymous ID. Built once per ID
// per run and cached; never mutated after creation.
type Result struct {
	AnonymousID      string  `json:"anonymous_id"`
	RealName         string  `json:"real_name"`
	ShortName        string  `json:"short_name,omitempty"`
	Team             string  `json:"team,omitempty"`
	Confidence       float64 `json:"confidence"`
	Method           Method  `json:"method"`
	ContextsAnalyzed int     `json:"contexts_analyzed,omitempty"`
	CandidateScore   float64 `json:"candidate_score,omitempty"`
}

// Resolver maps anonymous pitcher IDs to real names by cross-referencing the
// roster index against multi-source game contexts. Resolution is heuristic
// and best effort; every answer carries a confidence and a method tag
// instead of pretending to be exact. Safe for concurrent use: the cache is
// shared between request handlers and the scheduled refresh job.
type Resolver struct {
	roster   *roster.Index
	contexts *gamecontext.Index
	logger   *logrus.Logger

	mu    sync.RWMutex
	cache map[string]*Result
}

func New(rosterIdx *roster.Index, contextIdx *gamecontext.Index, logger *logrus.Logger) *Resolver {
	return &Resolver{
		roster:   rosterIdx,
		contexts: contextIdx,
		logger:   logger,
		cache:    make(map[string]*Result),
	}
}

// IsAnonymous reports whether an ID is an unresolved scraper placeholder.
func IsAnonymous(id string) bool {
	return strings.HasPrefix(id, AnonymousPrefix) || strings.HasPrefix(id, "Batter_")
}

// Resolve produces a best-guess real name for an anonymous ID given the game
// situations it appeared in. Returns nil when no resolution is possible
// (in particular, with no contexts at all). Results are cached per ID for
// the duration of the run.
func (r *Resolver) Resolve(anonymousID string, situations []GameSituation) *Result {
	r.mu.RLock()
	cached, ok := r.cache[anonymousID]
	r.mu.RUnlock()
	if ok {
		return cached
	}

	result := r.resolve(anonymousID, situations)
	if result != nil {
		r.mu.Lock()
		r.cache[anonymousID] = result
		r.mu.Unlock()
	}
	return result
}

func (r *Resolver) resolve(anonymousID string, situations []GameSituation) *Result {
	if len(situations) == 0 {
		return nil
	}

	suffix := numericSuffix(anonymousID)

	// Strategy 1: the numeric suffix is directly a roster ID.
	if record := r.roster.LookupID(suffix); record != nil {
		return &Result{
			AnonymousID:      anonymousID,
			RealName:         record.FullName,
			ShortName:        record.ShortName,
			Team:             record.Team,
			Confidence:       0.95,
			Method:           MethodDirectIDMatch,
			ContextsAnalyzed: len(situations),
		}
	}

	// Strategy 2: score candidate names from game contexts.
	team := inferTeam(situations)
	candidates := r.scoreCandidates(situations, team)

	if name, score := bestCandidate(candidates); name != "" {
		return r.verifyCandidate(anonymousID, name, score, team, situations)
	}

	// Strategy 3/4: fallbacks.
	return r.fallback(anonymousID, suffix, situations)
}

func numericSuffix(anonymousID string) string {
	if i := strings.LastIndex(anonymousID, "_"); i >= 0 {
		return anonymousID[i+1:]
	}
	return anonymousID
}

// inferTeam guesses which team the pitcher plays for from the top/bottom
// half distribution of its appearances. Home pitchers throw in the top of
// innings to away batters and vice versa, but the original upstream data
// tags the half the play occurred in, so a pitcher seen mostly in bottom
// halves is treated as the home team's. A 1.5x ratio threshold avoids
// guessing on balanced splits.
func inferTeam(situations []GameSituation) string {
	var top, bottom int
	for _, s := range situations {
		switch strings.ToLower(s.InningHalf) {
		case "top":
			top++
		case "bottom":
			bottom++
		}
	}

	switch {
	case float64(bottom) > float64(top)*1.5:
		return situations[0].HomeTeam
	case float64(top) > float64(bottom)*1.5:
		return situations[0].AwayTeam
	default:
		return ""
	}
}

// scoreCandidates accumulates weighted votes for pitcher names across the
// context index. CSV entries matching both game and team are the dominant
// signal (10.0 each); lineup/analysis entries contribute smaller weights for
// game-ID (+2.0) and date (+1.0) agreement.
func (r *Resolver) scoreCandidates(situations []GameSituation, team string) map[string]float64 {
	candidates := make(map[string]float64)

	for _, entry := range r.contexts.CSVEntries() {
		if entry.PitcherName == "" {
			continue
		}
		gameMatch := false
		teamMatch := team != "" && entry.Team == team
		for _, s := range situations {
			if entry.GameID != "" && entry.GameID == s.GameID {
				gameMatch = true
			}
			if entry.Team == s.HomeTeam || entry.Team == s.AwayTeam {
				teamMatch = true
			}
		}
		if gameMatch && teamMatch {
			candidates[entry.PitcherName] += 10.0
		}
	}

	for _, entry := range r.contexts.NonCSVEntries() {
		if entry.PitcherName == "" {
			continue
		}
		// Once a team is determined, lineup entries for the opponent are
		// excluded even when the game ID agrees.
		if team != "" && entry.Team != "" && entry.Team != team {
			continue
		}
		for _, s := range situations {
			gameMatch := entry.GameID != "" && entry.GameID == s.GameID
			dateMatch := entry.Date != "" && entry.Date == s.Date && team != "" && entry.Team == team
			if !gameMatch && !dateMatch {
				continue
			}
			weight := 1.0
			if gameMatch {
				weight += 2.0
			}
			if entry.Date != "" && entry.Date == s.Date {
				weight += 1.0
			}
			candidates[entry.PitcherName] += weight
		}
	}

	return candidates
}

// bestCandidate picks the highest-scoring name; ties break alphabetically so
// repeated runs stay deterministic.
func bestCandidate(candidates map[string]float64) (string, float64) {
	names := make([]string, 0, len(candidates))
	for name := range candidates {
		names = append(names, name)
	}
	sort.Strings(names)

	best, bestScore := "", 0.0
	for _, name := range names {
		if candidates[name] > bestScore {
			best, bestScore = name, candidates[name]
		}
	}
	return best, bestScore
}

// verifyCandidate validates the winning name against the roster and builds
// the result with a consistency-driven confidence.
func (r *Resolver) verifyCandidate(anonymousID, name string, score float64, team string, situations []GameSituation) *Result {
	mostLikelyTeam := mostCommonTeam(situations)
	if team != "" {
		mostLikelyTeam = team
	}

	confidence := 0.3
	if len(situations) >= 1 {
		confidence += 0.3
	}
	confidence += score / (2.0 * float64(len(situations)))

	if record := r.roster.Lookup(name, roster.RolePitcher, mostLikelyTeam); record != nil {
		if mostLikelyTeam != "" && record.Team == mostLikelyTeam {
			confidence += 0.1
		}
		return &Result{
			AnonymousID:      anonymousID,
			RealName:         record.FullName,
			ShortName:        record.ShortName,
			Team:             record.Team,
			Confidence:       clamp(confidence, 0.95),
			Method:           MethodContextMatching,
			ContextsAnalyzed: len(situations),
			CandidateScore:   score,
		}
	}

	// Name found in contexts but not on the roster: keep it, at lower trust.
	short := name
	if i := strings.LastIndex(name, " "); i >= 0 {
		short = name[i+1:]
	}
	return &Result{
		AnonymousID:      anonymousID,
		RealName:         name,
		ShortName:        short,
		Team:             mostLikelyTeam,
		Confidence:       clamp(confidence, 0.7),
		Method:           MethodContextMatchingUnverified,
		ContextsAnalyzed: len(situations),
		CandidateScore:   score,
	}
}

// fallback covers the cases where no named candidate emerged: substring
// containment between the numeric suffix and roster IDs, then a stable
// placeholder identity when at least team or date is known.
func (r *Resolver) fallback(anonymousID, suffix string, situations []GameSituation) *Result {
	// Only suffixes long enough to avoid spurious short matches. The scan
	// covers the whole roster, not just pitchers: the upstream IDs are not
	// role-scoped.
	if len(suffix) > 4 {
		for _, record := range r.roster.Players() {
			if strings.Contains(record.PlayerID, suffix) || strings.Contains(suffix, record.PlayerID) {
				return &Result{
					AnonymousID:      anonymousID,
					RealName:         record.FullName,
					ShortName:        record.ShortName,
					Team:             record.Team,
					Confidence:       0.4,
					Method:           MethodSubstringMatch,
					ContextsAnalyzed: len(situations),
				}
			}
		}
	}

	team := mostCommonTeam(situations)
	date := mostCommonDate(situations)
	if team != "" || date != "" {
		// Placeholder identity so downstream aggregation still groups this
		// pitcher's plays consistently.
		return &Result{
			AnonymousID:      anonymousID,
			RealName:         fmt.Sprintf("Unknown Pitcher (%s)", anonymousID),
			ShortName:        anonymousID,
			Team:             team,
			Confidence:       0.1,
			Method:           MethodAnonymousWithContext,
			ContextsAnalyzed: len(situations),
		}
	}

	return nil
}

func mostCommonTeam(situations []GameSituation) string {
	counts := make(map[string]int)
	for _, s := range situations {
		if s.HomeTeam != "" {
			counts[s.HomeTeam]++
		}
		if s.AwayTeam != "" {
			counts[s.AwayTeam]++
		}
	}
	return mostCommon(counts)
}

func mostCommonDate(situations []GameSituation) string {
	counts := make(map[string]int)
	for _, s := range situations {
		if s.Date != "" {
			counts[s.Date]++
		}
	}
	return mostCommon(counts)
}

func mostCommon(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	best, bestCount := "", 0
	for _, k := range keys {
		if counts[k] > bestCount {
			best, bestCount = k, counts[k]
		}
	}
	return best
}

func clamp(v, max float64) float64 {
	if v > max {
		return max
	}
	return v
}

// Name returns the resolved real name for an ID, or fallback when the ID
// has no cached resolution.
func (r *Resolver) Name(anonymousID, fallback string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if result, ok := r.cache[anonymousID]; ok && result.RealName != "" {
		return result.RealName
	}
	return fallback
}

// Get returns the cached resolution for an ID, if any.
func (r *Resolver) Get(anonymousID string) (*Result, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result, ok := r.cache[anonymousID]
	return result, ok
}

// Mappings returns a copy of the resolution cache.
func (r *Resolver) Mappings() map[string]*Result {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]*Result, len(r.cache))
	for k, v := range r.cache {
		out[k] = v
	}
	return out
}
