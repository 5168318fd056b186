package roster

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Role identifies what a roster entry does on the field.
type Role string

const (
	RoleHitter  Role = "hitter"
	RolePitcher Role = "pitcher"
)

// PlayerRecord is one immutable entry from the master roster file.
type PlayerRecord struct {
	PlayerID   string `json:"player_id"`
	ShortName  string `json:"short_name"`
	FullName   string `json:"full_name"`
	Team       string `json:"team"`
	Handedness string `json:"handedness"`
	Role       Role   `json:"role"`
}

// rosterEntry mirrors the on-disk roster format. playerId shows up both as a
// number and a string in real files, so it is decoded as json.Number.
type rosterEntry struct {
	Name     string      `json:"name"`
	FullName string      `json:"fullName"`
	Team     string      `json:"team"`
	Type     string      `json:"type"`
	PH       string      `json:"ph"`
	Bats     string      `json:"bats"`
	PlayerID json.Number `json:"playerId"`
}

// Index provides name and ID lookups over the master roster. Lookups are
// best effort: name variants from different players may collide, and the
// index resolves ambiguity deterministically rather than failing.
type Index struct {
	logger *logrus.Logger

	byID     map[string]*PlayerRecord
	variants map[string][]*PlayerRecord // lower-cased name variant -> players in load order
	byLast   map[string][]*PlayerRecord // lower-cased last name -> players in load order
	players  []*PlayerRecord
}

// NewIndex returns an empty index. Load populates it.
func NewIndex(logger *logrus.Logger) *Index {
	return &Index{
		logger:   logger,
		byID:     make(map[string]*PlayerRecord),
		variants: make(map[string][]*PlayerRecord),
		byLast:   make(map[string][]*PlayerRecord),
	}
}

// Load reads the roster file and builds the lookup tables. A missing or
// malformed file leaves the index empty; callers treat every subsequent
// lookup as a miss.
func Load(path string, logger *logrus.Logger) *Index {
	idx := NewIndex(logger)

	data, err := os.ReadFile(path)
	if err != nil {
		logger.WithError(err).WithField("path", path).Warn("Roster file unavailable, continuing with empty index")
		return idx
	}

	var entries []rosterEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		logger.WithError(err).WithField("path", path).Warn("Roster file malformed, continuing with empty index")
		return idx
	}

	for _, entry := range entries {
		record := entry.toRecord()
		if record == nil {
			continue
		}
		idx.insert(record)
	}

	logger.WithFields(logrus.Fields{
		"path":    path,
		"players": len(idx.players),
	}).Info("Loaded roster index")

	return idx
}

func (e rosterEntry) toRecord() *PlayerRecord {
	id := e.PlayerID.String()
	if id == "" {
		return nil
	}

	role := RoleHitter
	handedness := e.Bats
	if e.Type == "pitcher" {
		role = RolePitcher
		handedness = e.PH
	}

	return &PlayerRecord{
		PlayerID:   id,
		ShortName:  e.Name,
		FullName:   e.FullName,
		Team:       e.Team,
		Handedness: handedness,
		Role:       role,
	}
}

func (idx *Index) insert(record *PlayerRecord) {
	idx.players = append(idx.players, record)
	idx.byID[record.PlayerID] = record

	for _, variant := range nameVariants(record) {
		idx.variants[variant] = append(idx.variants[variant], record)
	}

	if last := lastName(record.FullName); last != "" {
		idx.byLast[last] = append(idx.byLast[last], record)
	}
}

// nameVariants generates the lower-cased lookup forms for a player: short
// name, full name, "F. Last" and "Last, F.".
func nameVariants(record *PlayerRecord) []string {
	seen := make(map[string]bool)
	var variants []string
	add := func(v string) {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" && !seen[v] {
			seen[v] = true
			variants = append(variants, v)
		}
	}

	add(record.ShortName)
	add(record.FullName)

	if abbrev := abbreviate(record.FullName); abbrev != "" {
		add(abbrev)
		parts := strings.Fields(record.FullName)
		add(fmt.Sprintf("%s, %s.", parts[len(parts)-1], parts[0][:1]))
	}

	return variants
}

// abbreviate turns "Jacob deGrom" into "J. deGrom".
func abbreviate(fullName string) string {
	parts := strings.Fields(fullName)
	if len(parts) < 2 {
		return ""
	}
	return fmt.Sprintf("%s. %s", parts[0][:1], parts[len(parts)-1])
}

func lastName(fullName string) string {
	parts := strings.Fields(fullName)
	if len(parts) == 0 {
		return ""
	}
	return strings.ToLower(parts[len(parts)-1])
}

// Size returns the number of players loaded.
func (idx *Index) Size() int {
	return len(idx.players)
}

// LookupID returns the player with the given roster ID, if any.
func (idx *Index) LookupID(playerID string) *PlayerRecord {
	return idx.byID[playerID]
}

// Players returns every record in load order.
func (idx *Index) Players() []*PlayerRecord {
	return idx.players
}

// Lookup resolves a display name to a player record. It tries, in order:
// exact short-name or full-name variant match, a synthesized "F. Last"
// abbreviation, and finally a case-insensitive last-name-only match. When
// several players share a name, team (if given) disambiguates; otherwise the
// first match in load order wins and a warning is logged.
func (idx *Index) Lookup(name string, role Role, team string) *PlayerRecord {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil
	}

	if record := idx.pick(idx.variants[key], role, team, name); record != nil {
		return record
	}

	// Synthesized abbreviation of the queried name, matched against stored
	// variants. Catches queries like "Jacob deGrom" when only "J. deGrom"
	// made it into the variant table.
	if abbrev := abbreviate(name); abbrev != "" {
		if record := idx.pick(idx.variants[strings.ToLower(abbrev)], role, team, name); record != nil {
			return record
		}
	}

	// Last-name-only fallback.
	parts := strings.Fields(key)
	if len(parts) > 0 {
		last := parts[len(parts)-1]
		if record := idx.pick(idx.byLast[last], role, team, name); record != nil {
			return record
		}
	}

	return nil
}

// pick filters candidates by role and disambiguates by team.
func (idx *Index) pick(candidates []*PlayerRecord, role Role, team, queried string) *PlayerRecord {
	var matched []*PlayerRecord
	for _, candidate := range candidates {
		if role != "" && candidate.Role != role {
			continue
		}
		matched = append(matched, candidate)
	}

	if len(matched) == 0 {
		return nil
	}

	if len(matched) > 1 && team != "" {
		for _, candidate := range matched {
			if candidate.Team == team {
				return candidate
			}
		}
	}

	if len(matched) > 1 {
		idx.logger.WithFields(logrus.Fields{
			"name":    queried,
			"matches": len(matched),
			"chosen":  matched[0].FullName,
		}).Warn("Ambiguous roster lookup, using first match in load order")
	}

	return matched[0]
}
