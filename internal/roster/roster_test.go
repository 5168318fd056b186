package roster

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(logrus.PanicLevel)
	return log
}

func writeRoster(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rosters.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMissingFileReturnsEmptyIndex(t *testing.T) {
	idx := Load(filepath.Join(t.TempDir(), "missing.json"), testLogger())
	assert.Equal(t, 0, idx.Size())
	assert.Nil(t, idx.Lookup("Jacob deGrom", RolePitcher, ""))
}

func TestLoadMalformedFileReturnsEmptyIndex(t *testing.T) {
	path := writeRoster(t, `{"not": "an array"`)
	idx := Load(path, testLogger())
	assert.Equal(t, 0, idx.Size())
}

func TestLookupExactMatchRoundTrip(t *testing.T) {
	path := writeRoster(t, `[
		{"name": "J. deGrom", "fullName": "Jacob deGrom", "team": "TEX", "type": "pitcher", "ph": "R", "playerId": "4346118"},
		{"name": "A. Judge", "fullName": "Aaron Judge", "team": "NYY", "type": "hitter", "bats": "R", "playerId": 592450}
	]`)
	idx := Load(path, testLogger())
	require.Equal(t, 2, idx.Size())

	for _, record := range idx.Players() {
		assert.Equal(t, record, idx.Lookup(record.ShortName, record.Role, ""), "short name round trip for %s", record.FullName)
		assert.Equal(t, record, idx.Lookup(record.FullName, record.Role, ""), "full name round trip for %s", record.FullName)
	}

	// Numeric playerId values are normalized to strings.
	assert.NotNil(t, idx.LookupID("592450"))
	assert.Equal(t, "R", idx.LookupID("4346118").Handedness)
}

func TestLookupAbbreviationAndLastName(t *testing.T) {
	path := writeRoster(t, `[
		{"name": "G. Cole", "fullName": "Gerrit Cole", "team": "NYY", "type": "pitcher", "ph": "R", "playerId": "543037"}
	]`)
	idx := Load(path, testLogger())

	assert.Equal(t, "Gerrit Cole", idx.Lookup("G. Cole", RolePitcher, "").FullName)
	assert.Equal(t, "Gerrit Cole", idx.Lookup("Cole, G.", RolePitcher, "").FullName)
	assert.Equal(t, "Gerrit Cole", idx.Lookup("cole", RolePitcher, "").FullName)
}

func TestLookupRoleFiltering(t *testing.T) {
	path := writeRoster(t, `[
		{"name": "S. Ohtani", "fullName": "Shohei Ohtani", "team": "LAD", "type": "hitter", "bats": "L", "playerId": "660271"}
	]`)
	idx := Load(path, testLogger())

	assert.Nil(t, idx.Lookup("Shohei Ohtani", RolePitcher, ""))
	assert.NotNil(t, idx.Lookup("Shohei Ohtani", RoleHitter, ""))
}

func TestLookupTeamDisambiguation(t *testing.T) {
	path := writeRoster(t, `[
		{"name": "L. Garcia", "fullName": "Luis Garcia", "team": "HOU", "type": "pitcher", "ph": "R", "playerId": "1001"},
		{"name": "L. Garcia", "fullName": "Luis Garcia", "team": "WSH", "type": "pitcher", "ph": "L", "playerId": "1002"}
	]`)
	idx := Load(path, testLogger())

	assert.Equal(t, "WSH", idx.Lookup("Luis Garcia", RolePitcher, "WSH").Team)
	assert.Equal(t, "HOU", idx.Lookup("Luis Garcia", RolePitcher, "HOU").Team)

	// No team hint: deterministic first match in load order.
	assert.Equal(t, "1001", idx.Lookup("Luis Garcia", RolePitcher, "").PlayerID)
	assert.Equal(t, "1001", idx.Lookup("garcia", RolePitcher, "").PlayerID)
}
