package playbyplay

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// Pitch is one pitch within a play's sequence.
type Pitch struct {
	PitchNumber int     `json:"pitch_number"`
	Result      string  `json:"result"`
	PitchType   string  `json:"pitch_type"`
	Velocity    float64 `json:"velocity"`
	Balls       int     `json:"balls"`
	Strikes     int     `json:"strikes"`
}

// Play is a single plate appearance. Batter and pitcher may hold either a
// resolved name or an anonymous Batter_<id>/Pitcher_<id> token; callers must
// not assume either form.
type Play struct {
	Inning        int     `json:"inning"`
	InningHalf    string  `json:"inning_half"`
	Batter        string  `json:"batter"`
	Pitcher       string  `json:"pitcher"`
	PlayResult    string  `json:"play_result"`
	PitchSequence []Pitch `json:"pitch_sequence"`
}

// Metadata identifies the game a play-by-play file belongs to.
type Metadata struct {
	GameID   json.Number `json:"game_id"`
	HomeTeam string      `json:"home_team"`
	AwayTeam string      `json:"away_team"`
}

// Game is one fully loaded play-by-play file.
type Game struct {
	Metadata Metadata `json:"metadata"`
	Plays    []Play   `json:"plays"`

	// Derived at load time, not part of the file body.
	Date     string `json:"-"`
	FilePath string `json:"-"`
}

// DateRange is an inclusive [Start, End] filter on YYYY-MM-DD dates.
type DateRange struct {
	Start string
	End   string
}

// Contains reports whether date falls inside the range.
func (dr DateRange) Contains(date string) bool {
	return date >= dr.Start && date <= dr.End
}

// Loader reads per-game play-by-play JSON files.
type Loader struct {
	logger *logrus.Logger
}

func NewLoader(logger *logrus.Logger) *Loader {
	return &Loader{logger: logger}
}

// Load scans a directory for files matching the play-by-play naming pattern
// and parses them. With a date range, files whose filename-embedded date
// falls outside the range are skipped without being opened. Per-file parse
// failures are logged and skipped; a missing directory yields an empty
// result, not an error.
func (l *Loader) Load(dir string, dateRange *DateRange) []*Game {
	pattern := filepath.Join(dir, "*_vs_*_playbyplay_*.json")
	paths, err := filepath.Glob(pattern)
	if err != nil || len(paths) == 0 {
		l.logger.WithField("dir", dir).Warn("No play-by-play files found")
		return nil
	}
	sort.Strings(paths)

	var games []*Game
	for _, path := range paths {
		date, err := DateFromFilename(filepath.Base(path))
		if err != nil {
			l.logger.WithError(err).WithField("path", path).Warn("Could not parse date from play-by-play filename, skipping")
			continue
		}
		if dateRange != nil && !dateRange.Contains(date) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			l.logger.WithError(err).WithField("path", path).Warn("Could not read play-by-play file, skipping")
			continue
		}

		var game Game
		if err := json.Unmarshal(data, &game); err != nil {
			l.logger.WithError(err).WithField("path", path).Warn("Could not parse play-by-play file, skipping")
			continue
		}

		game.Date = date
		game.FilePath = path
		games = append(games, &game)
	}

	l.logger.WithFields(logrus.Fields{
		"dir":   dir,
		"games": len(games),
	}).Info("Loaded play-by-play games")

	return games
}

var monthNumbers = map[string]string{
	"january": "01", "february": "02", "march": "03", "april": "04",
	"may": "05", "june": "06", "july": "07", "august": "08",
	"september": "09", "october": "10", "november": "11", "december": "12",
}

// DateFromFilename extracts the YYYY-MM-DD date embedded in a play-by-play
// filename of the form {AWAY}_vs_{HOME}_playbyplay_{month}_{day}_{year}_{gameId}.json.
func DateFromFilename(base string) (string, error) {
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	parts := strings.Split(stem, "_")

	marker := -1
	for i, part := range parts {
		if part == "playbyplay" {
			marker = i
			break
		}
	}
	if marker < 0 || marker+3 >= len(parts) {
		return "", fmt.Errorf("filename %q does not match play-by-play pattern", base)
	}

	month, ok := monthNumbers[strings.ToLower(parts[marker+1])]
	if !ok {
		return "", fmt.Errorf("unknown month %q in filename %q", parts[marker+1], base)
	}
	day := parts[marker+2]
	if len(day) == 1 {
		day = "0" + day
	}
	year := parts[marker+3]

	return fmt.Sprintf("%s-%s-%s", year, month, day), nil
}
