package rules

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *logrus.Logger {
	logger := logrus.New()
	logger.Out = ioutil.Discard

	return logger
}

func tempStore(t *testing.T, retention int) (*Store, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "rules.csv")

	return NewStore(discardLogger(), path, retention), path
}

// region Test: Load
func TestStore_Load_MissingFile(t *testing.T) {
	store, _ := tempStore(t, 0)

	rr, err := store.Load()

	assert.Nil(t, err)
	assert.Empty(t, rr)
}

func TestStore_Load_SkipsCommentsAndMalformedLines(t *testing.T) {
	store, path := tempStore(t, 0)

	content := strings.Join([]string{
		"# header comment",
		"",
		"~/Music/Samples|SSD|samples|move",
		"broken line without pipes",
		"only|two",
		"|NAS|orphan|move",
		"~/Documents/Presets|NAS|presets",
	}, "\n") + "\n"

	require.Nil(t, os.WriteFile(path, []byte(content), 0644))

	rr, err := store.Load()

	require.Nil(t, err)
	require.Len(t, rr, 2)

	assert.Equal(t, Rule{
		Line:    3,
		Source:  "~/Music/Samples",
		Target:  "SSD",
		Subpath: "samples",
		Mode:    "move",
	}, rr[0])

	// Legacy 3-field record defaults to move; the blank-source row above
	// it was dropped, not loaded as an empty rule
	assert.Equal(t, Rule{
		Line:    7,
		Source:  "~/Documents/Presets",
		Target:  "NAS",
		Subpath: "presets",
		Mode:    ModeMove,
	}, rr[1])
}

func TestStore_Load_SkipsBlankSource(t *testing.T) {
	store, path := tempStore(t, 0)

	require.Nil(t, os.WriteFile(path, []byte("|NAS|presets|move\n   |SSD|x|move\n"), 0644))

	rr, err := store.Load()

	require.Nil(t, err)
	assert.Empty(t, rr)
}

func TestStore_Load_ExplicitCopyMode(t *testing.T) {
	store, path := tempStore(t, 0)

	require.Nil(t, os.WriteFile(path, []byte("A|B|C|copy\n"), 0644))

	rr, err := store.Load()

	require.Nil(t, err)
	require.Len(t, rr, 1)
	assert.Equal(t, ModeCopy, rr[0].Mode)
}

// endregion

// region Test: Save
func TestStore_Save_RoundTrip(t *testing.T) {
	store, _ := tempStore(t, 0)

	input := []Rule{
		{Source: "Native Instruments/Kontakt", Target: "SSD", Subpath: "ni", Mode: "move"},
		{Source: "~/Music/Projects", Target: "NAS", Subpath: "projects", Mode: "copy"},
		{Source: "/opt/whatever", Target: "Local", Subpath: "misc", Mode: "move"},
	}

	require.Nil(t, store.Save(input))

	loaded, err := store.Load()
	require.Nil(t, err)
	require.Len(t, loaded, len(input))

	got := make(map[string]Rule)
	for _, r := range loaded {
		r.Line = 0
		got[r.Source] = r
	}

	for _, want := range input {
		assert.Equal(t, want, got[want.Source])
	}
}

func TestStore_Save_WritesHeaderAndCategorySections(t *testing.T) {
	store, path := tempStore(t, 0)

	input := []Rule{
		{Source: "~/Music/Projects", Target: "NAS", Subpath: "projects", Mode: "move"},
		{Source: "UVI/Falcon", Target: "SSD", Subpath: "uvi", Mode: "move"},
		{Source: "~/Music/Projects/Archive", Target: "NAS", Subpath: "archive", Mode: "move"},
	}

	require.Nil(t, store.Save(input))

	data, err := os.ReadFile(path)
	require.Nil(t, err)

	lines := strings.Split(string(data), "\n")

	require.True(t, len(lines) > 5)
	assert.Equal(t, "# Unified Music Storage Rules", lines[0])
	assert.Equal(t, "# SOURCE_PATH|TARGET|DEST_SUBPATH|MODE", lines[1])
	assert.Equal(t, "", lines[4])

	// First-seen category comes first even though both its rules straddle
	// another category in the input.
	projectsIdx := indexOfLine(lines, "# Projects")
	uviIdx := indexOfLine(lines, "# UVI Products")

	require.NotEqual(t, -1, projectsIdx)
	require.NotEqual(t, -1, uviIdx)
	assert.Less(t, projectsIdx, uviIdx)

	assert.Equal(t, "~/Music/Projects|NAS|projects|move", lines[projectsIdx+1])
	assert.Equal(t, "~/Music/Projects/Archive|NAS|archive|move", lines[projectsIdx+2])
}

func TestStore_Save_BacksUpPreviousFile(t *testing.T) {
	store, path := tempStore(t, 0)

	previous := []byte("# old content\nA|B|C|move\n")
	require.Nil(t, os.WriteFile(path, previous, 0644))

	require.Nil(t, store.Save([]Rule{{Source: "X", Target: "SSD", Subpath: "x", Mode: "move"}}))

	backups, err := filepath.Glob(path + ".backup.*")
	require.Nil(t, err)
	require.Len(t, backups, 1)

	data, err := os.ReadFile(backups[0])
	require.Nil(t, err)
	assert.Equal(t, previous, data)
}

func TestStore_Save_NoBackupWithoutPreviousFile(t *testing.T) {
	store, path := tempStore(t, 0)

	require.Nil(t, store.Save([]Rule{{Source: "X", Target: "SSD", Subpath: "x", Mode: "move"}}))

	backups, err := filepath.Glob(path + ".backup.*")
	require.Nil(t, err)
	assert.Empty(t, backups)
}

// endregion

// region Test: Categorize
func TestCategorize(t *testing.T) {
	tests := []struct {
		source   string
		expected Category
	}{
		{"Native Instruments/Kontakt", CategoryNativeInstruments},
		{"~/Library/UVI/Falcon", CategoryUVI},
		{"~/Arturia/V Collection", CategoryArturia},
		{"~/Music/Audio Music Apps/Logic", CategoryLogicPro},
		{"/Volumes/SSD/Samples", CategorySamples},
		{"~/Music/Projects", CategoryProjects},
		{"/Library/Application Support/X", CategorySystemContent},
		{"~/Library/Application Support/X", CategoryUserSettings},
		{"~/Documents/foo", CategoryUserSettings},
		{"/opt/random", CategoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			assert.Equal(t, tt.expected, Categorize(Rule{Source: tt.source}))
		})
	}
}

func TestCategorize_FirstMatchWins(t *testing.T) {
	// Contains both "native instruments" and "samples": the earlier
	// matcher decides.
	rule := Rule{Source: "~/Native Instruments/Samples"}

	assert.Equal(t, CategoryNativeInstruments, Categorize(rule))
}

// endregion

func indexOfLine(lines []string, want string) int {
	for i, line := range lines {
		if line == want {
			return i
		}
	}
	return -1
}
