package gamecontext

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

var lineupDatePattern = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`)

type lineupFile struct {
	Games []lineupGame `json:"games"`
}

type lineupGame struct {
	OriginalID json.Number `json:"originalId"`
	HomeTeam   string      `json:"homeTeam"`
	AwayTeam   string      `json:"awayTeam"`
	Venue      string      `json:"venue"`
	Pitchers   struct {
		Home lineupPitcher `json:"home"`
		Away lineupPitcher `json:"away"`
	} `json:"pitchers"`
}

type lineupPitcher struct {
	Name string      `json:"name"`
	ID   json.Number `json:"id"`
}

// loadLineupFiles reads daily starting lineup files. The file date comes
// from the filename (starting_lineups_YYYY-MM-DD.json); files without a
// parseable date are skipped.
func (idx *Index) loadLineupFiles(paths []string) {
	for _, path := range paths {
		date := lineupDatePattern.FindString(filepath.Base(path))
		if date == "" {
			idx.logger.WithField("path", path).Warn("Lineup file has no date in filename, skipping")
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			idx.logger.WithError(err).WithField("path", path).Warn("Could not read lineup file, skipping")
			continue
		}

		var parsed lineupFile
		if err := json.Unmarshal(data, &parsed); err != nil {
			idx.logger.WithError(err).WithField("path", path).Warn("Could not parse lineup file, skipping")
			continue
		}

		for _, game := range parsed.Games {
			gameID := game.OriginalID.String()
			idx.insertLineupPitcher(date, game.HomeTeam, gameID, game.Pitchers.Home)
			idx.insertLineupPitcher(date, game.AwayTeam, gameID, game.Pitchers.Away)
		}
	}
}

func (idx *Index) insertLineupPitcher(date, team, gameID string, pitcher lineupPitcher) {
	if pitcher.Name == "" {
		return
	}
	idx.insert(Entry{
		Key:         fmt.Sprintf("%s_%s_%s", date, team, gameID),
		PitcherName: pitcher.Name,
		PitcherID:   pitcher.ID.String(),
		Team:        team,
		GameID:      gameID,
		Date:        date,
		Source:      SourceLineup,
	})
}
