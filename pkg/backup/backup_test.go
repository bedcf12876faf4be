package backup

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestName(t *testing.T) {
	at := time.Date(2026, 8, 25, 13, 4, 5, 0, time.UTC)

	assert.Equal(t, "/tmp/rules.csv.backup.20260825_130405", Name("/tmp/rules.csv", at))
}

func TestCreate_CopiesExactBytes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.csv")
	content := []byte("A|B|C|move\n")
	require.Nil(t, os.WriteFile(path, content, 0644))

	name, err := Create(path)

	require.Nil(t, err)
	require.NotEmpty(t, name)
	assert.True(t, strings.HasPrefix(name, path+".backup."))

	data, err := os.ReadFile(name)
	require.Nil(t, err)
	assert.Equal(t, content, data)

	// Original untouched
	data, err = os.ReadFile(path)
	require.Nil(t, err)
	assert.Equal(t, content, data)
}

func TestCreate_MissingOriginal(t *testing.T) {
	name, err := Create(filepath.Join(t.TempDir(), "absent"))

	assert.Nil(t, err)
	assert.Empty(t, name)
}

func TestRename_MovesOriginal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "script.log")
	require.Nil(t, os.WriteFile(path, []byte("log\n"), 0644))

	name, err := Rename(path)

	require.Nil(t, err)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	data, err := os.ReadFile(name)
	require.Nil(t, err)
	assert.Equal(t, "log\n", string(data))
}

func TestList_NewestFirst(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "script.log")

	older := path + ".backup.20260820_120000"
	newer := path + ".backup.20260824_120000"

	require.Nil(t, os.WriteFile(older, []byte("older"), 0644))
	require.Nil(t, os.WriteFile(newer, []byte("newer"), 0644))

	old := time.Now().Add(-time.Hour)
	require.Nil(t, os.Chtimes(older, old, old))

	// Unrelated file is not part of the family
	require.Nil(t, os.WriteFile(filepath.Join(dir, "other.log"), []byte("x"), 0644))

	backups, err := List(path)

	require.Nil(t, err)
	require.Len(t, backups, 2)
	assert.Equal(t, newer, backups[0].Path)
	assert.Equal(t, older, backups[1].Path)
}

func TestPrune_KeepsNewest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "script.log")

	var paths []string
	for i := 0; i < 7; i++ {
		p := path + ".backup.2026082" + string(rune('0'+i)) + "_120000"
		require.Nil(t, os.WriteFile(p, []byte("x"), 0644))

		mtime := time.Now().Add(time.Duration(i-7) * time.Hour)
		require.Nil(t, os.Chtimes(p, mtime, mtime))

		paths = append(paths, p)
	}

	removed, err := Prune(path, 5)

	require.Nil(t, err)
	assert.Len(t, removed, 2)

	remaining, err := List(path)
	require.Nil(t, err)
	assert.Len(t, remaining, 5)

	// The two oldest are gone
	for _, p := range paths[:2] {
		_, err := os.Stat(p)
		assert.True(t, os.IsNotExist(err))
	}
}

func TestPrune_ZeroKeepsEverything(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "script.log")

	require.Nil(t, os.WriteFile(path+".backup.20260820_120000", []byte("x"), 0644))

	removed, err := Prune(path, 0)

	require.Nil(t, err)
	assert.Empty(t, removed)

	backups, err := List(path)
	require.Nil(t, err)
	assert.Len(t, backups, 1)
}
