package logrotate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storeman/pkg/backup"
)

func TestWriter_AppendsBelowThreshold(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	w := New(path, 1024, 5)
	defer w.Close()

	_, err := w.Write([]byte("first\n"))
	require.Nil(t, err)
	_, err = w.Write([]byte("second\n"))
	require.Nil(t, err)

	data, err := os.ReadFile(path)
	require.Nil(t, err)
	assert.Equal(t, "first\nsecond\n", string(data))
}

func TestWriter_RotatesAtThreshold(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	w := New(path, 10, 5)
	defer w.Close()

	_, err := w.Write([]byte("0123456789"))
	require.Nil(t, err)

	// This write would exceed the threshold, so the file rolls over first
	_, err = w.Write([]byte("next"))
	require.Nil(t, err)

	data, err := os.ReadFile(path)
	require.Nil(t, err)
	assert.Equal(t, "next", string(data))

	backups, err := backup.List(path)
	require.Nil(t, err)
	require.Len(t, backups, 1)

	old, err := os.ReadFile(backups[0].Path)
	require.Nil(t, err)
	assert.Equal(t, "0123456789", string(old))
}

func TestWriter_ResumesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	require.Nil(t, os.WriteFile(path, []byte(strings.Repeat("x", 8)), 0644))

	w := New(path, 10, 5)
	defer w.Close()

	// 8 existing + 4 new exceeds 10: rollover happens before the write
	_, err := w.Write([]byte("yyyy"))
	require.Nil(t, err)

	data, err := os.ReadFile(path)
	require.Nil(t, err)
	assert.Equal(t, "yyyy", string(data))

	backups, err := backup.List(path)
	require.Nil(t, err)
	assert.Len(t, backups, 1)
}
