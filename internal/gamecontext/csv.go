package gamecontext

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// loadCSVFiles reads per-game pitching CSV backups. Filenames follow
// {TEAM}_pitching_{dateparts}_{gameId}.csv; the participant name column is
// the first of "player", "Name", "Player" found in the header. Files are
// sampled up to maxFiles to bound processing cost.
func (idx *Index) loadCSVFiles(paths []string, maxFiles int) {
	if len(paths) > maxFiles {
		paths = paths[:maxFiles]
	}

	for _, path := range paths {
		team, gameID, ok := parseCSVFilename(filepath.Base(path))
		if !ok {
			continue
		}

		names, err := readNameColumn(path)
		if err != nil {
			idx.logger.WithError(err).WithField("path", path).Warn("Could not process CSV backup, skipping")
			continue
		}

		for _, name := range names {
			idx.insert(Entry{
				Key:         fmt.Sprintf("csv_%s_%s_%s", team, gameID, name),
				PitcherName: name,
				Team:        team,
				GameID:      gameID,
				Source:      SourceCSV,
			})
		}
	}
}

// parseCSVFilename extracts team and game ID from a pitching backup
// filename. Hitting backups and files that do not fit the pattern are
// rejected.
func parseCSVFilename(base string) (team, gameID string, ok bool) {
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	parts := strings.Split(stem, "_")
	if len(parts) < 4 || parts[1] != "pitching" {
		return "", "", false
	}
	return strings.ToUpper(parts[0]), parts[len(parts)-1], true
}

// readNameColumn returns the non-empty values of the participant name
// column.
func readNameColumn(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	nameCol := -1
	for i, header := range rows[0] {
		switch strings.TrimSpace(header) {
		case "player", "Name", "Player":
			nameCol = i
		}
		if nameCol >= 0 {
			break
		}
	}
	if nameCol < 0 {
		return nil, fmt.Errorf("no participant name column in %s", path)
	}

	var names []string
	for _, row := range rows[1:] {
		if nameCol >= len(row) {
			continue
		}
		if name := strings.TrimSpace(row[nameCol]); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}
