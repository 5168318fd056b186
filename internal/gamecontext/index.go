package gamecontext

// Multi-source game context used to cross-reference anonymous pitcher IDs.
// Three heterogeneous sources feed one flat keyed mapping: daily starting
// lineup files, per-game CSV boxscore backups, and recent prior analysis
// outputs. Insertion is first-write-wins, so the loader order (lineups
// first) deliberately favors lineup data when keys collide.

import (
	"github.com/sirupsen/logrus"
)

// Source identifies which data source produced a context entry.
type Source string

const (
	SourceLineup   Source = "lineup"
	SourceCSV      Source = "csv"
	SourceAnalysis Source = "analysis"
)

// Entry is one game context record. Never mutated after load.
type Entry struct {
	Key         string `json:"key"`
	PitcherName string `json:"pitcher_name"`
	PitcherID   string `json:"pitcher_id,omitempty"`
	Team        string `json:"team,omitempty"`
	GameID      string `json:"game_id,omitempty"`
	Date        string `json:"date,omitempty"`
	Source      Source `json:"source"`
}

// Index holds every loaded context entry keyed by its composite key.
type Index struct {
	logger   *logrus.Logger
	byKey    map[string]Entry
	bySource map[Source][]Entry
}

// Options bounds how much source data the builder reads.
type Options struct {
	// RecentAnalysisFiles caps how many prior analysis files are scanned
	// (most recent first). Zero means the default of 10.
	RecentAnalysisFiles int
	// MaxCSVFiles caps how many CSV backups are sampled. Zero means the
	// default of 100.
	MaxCSVFiles int
}

func (o Options) recentAnalysisFiles() int {
	if o.RecentAnalysisFiles <= 0 {
		return 10
	}
	return o.RecentAnalysisFiles
}

func (o Options) maxCSVFiles() int {
	if o.MaxCSVFiles <= 0 {
		return 100
	}
	return o.MaxCSVFiles
}

// Build loads all three source types into one index. Sources are applied in
// a fixed priority order with insert-if-absent semantics. Per-file failures
// are logged and skipped; the index is always usable, possibly empty.
func Build(lineupFiles, csvFiles, analysisFiles []string, opts Options, logger *logrus.Logger) *Index {
	idx := &Index{
		logger:   logger,
		byKey:    make(map[string]Entry),
		bySource: make(map[Source][]Entry),
	}

	idx.loadLineupFiles(lineupFiles)
	idx.loadCSVFiles(csvFiles, opts.maxCSVFiles())
	idx.loadAnalysisFiles(analysisFiles, opts.recentAnalysisFiles())

	logger.WithFields(logrus.Fields{
		"entries":  len(idx.byKey),
		"lineup":   len(idx.bySource[SourceLineup]),
		"csv":      len(idx.bySource[SourceCSV]),
		"analysis": len(idx.bySource[SourceAnalysis]),
	}).Info("Built game context index")

	return idx
}

// insert adds an entry unless its key is already present.
func (idx *Index) insert(entry Entry) {
	if _, exists := idx.byKey[entry.Key]; exists {
		return
	}
	idx.byKey[entry.Key] = entry
	idx.bySource[entry.Source] = append(idx.bySource[entry.Source], entry)
}

// Size returns the number of distinct context entries.
func (idx *Index) Size() int {
	return len(idx.byKey)
}

// Get returns the entry stored under key, if any.
func (idx *Index) Get(key string) (Entry, bool) {
	entry, ok := idx.byKey[key]
	return entry, ok
}

// CSVEntries returns the entries sourced from CSV boxscore backups.
func (idx *Index) CSVEntries() []Entry {
	return idx.bySource[SourceCSV]
}

// LineupEntries returns the entries sourced from daily lineup files.
func (idx *Index) LineupEntries() []Entry {
	return idx.bySource[SourceLineup]
}

// AnalysisEntries returns the entries sourced from prior analysis outputs.
func (idx *Index) AnalysisEntries() []Entry {
	return idx.bySource[SourceAnalysis]
}

// NonCSVEntries returns lineup and analysis entries together; the resolver
// scores these with the same weighting rules.
func (idx *Index) NonCSVEntries() []Entry {
	entries := make([]Entry, 0, len(idx.bySource[SourceLineup])+len(idx.bySource[SourceAnalysis]))
	entries = append(entries, idx.bySource[SourceLineup]...)
	entries = append(entries, idx.bySource[SourceAnalysis]...)
	return entries
}
