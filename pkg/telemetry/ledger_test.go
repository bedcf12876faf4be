package telemetry

import (
	"fmt"
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

func tempLedger(t *testing.T, retention int) (*Ledger, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "script.log")
	ledger := NewLedger(discardLogger(), map[string]string{"script": path}, retention)

	return ledger, path
}

// region Test: Tail
func TestLedger_Tail_MissingFile(t *testing.T) {
	ledger, _ := tempLedger(t, 5)

	lines, err := ledger.Tail("script", 10)

	assert.Nil(t, err)
	assert.Empty(t, lines)
}

func TestLedger_Tail_UnknownSource(t *testing.T) {
	ledger, _ := tempLedger(t, 5)

	_, err := ledger.Tail("nope", 10)

	assert.ErrorIs(t, err, ErrUnknownSource)
}

func TestLedger_Tail_ReturnsLastLinesInOrder(t *testing.T) {
	ledger, path := tempLedger(t, 5)

	var b strings.Builder
	for i := 1; i <= 10; i++ {
		fmt.Fprintf(&b, "line %d\n", i)
	}
	require.Nil(t, os.WriteFile(path, []byte(b.String()), 0644))

	lines, err := ledger.Tail("script", 3)

	require.Nil(t, err)
	assert.Equal(t, []string{"line 8", "line 9", "line 10"}, lines)
}

func TestLedger_Tail_FewerLinesThanRequested(t *testing.T) {
	ledger, path := tempLedger(t, 5)

	require.Nil(t, os.WriteFile(path, []byte("only one\n"), 0644))

	lines, err := ledger.Tail("script", 50)

	require.Nil(t, err)
	assert.Equal(t, []string{"only one"}, lines)
}

func TestLedger_Tail_OversizedLine(t *testing.T) {
	ledger, path := tempLedger(t, 5)

	// A single line well past any fixed read buffer must not abort the
	// tail; it is returned like any other line.
	huge := strings.Repeat("x", 2*1024*1024)
	content := "before\n" + huge + "\nafter\n"
	require.Nil(t, os.WriteFile(path, []byte(content), 0644))

	lines, err := ledger.Tail("script", 3)

	require.Nil(t, err)
	require.Len(t, lines, 3)
	assert.Equal(t, "before", lines[0])
	assert.Equal(t, huge, lines[1])
	assert.Equal(t, "after", lines[2])
}

// endregion

// region Test: Stats
func TestLedger_Stats(t *testing.T) {
	ledger, path := tempLedger(t, 5)

	content := strings.Join([]string{
		"[2026-08-25 10:00:00] INFO starting",
		"[2026-08-25 10:00:01] WARN NAS not mounted",
		"[2026-08-25 10:00:02] ERROR copy failed",
		"[2026-08-25 10:00:03] ERROR with WARN inside counts as error only",
		"[2026-08-25 10:00:04] INFO done",
	}, "\n") + "\n"

	require.Nil(t, os.WriteFile(path, []byte(content), 0644))

	stats, err := ledger.Stats("script")

	require.Nil(t, err)
	assert.Equal(t, Stats{TotalLines: 5, Errors: 2, Warnings: 1}, stats)
}

func TestLedger_Stats_OversizedLine(t *testing.T) {
	ledger, path := tempLedger(t, 5)

	content := "ERROR " + strings.Repeat("x", 2*1024*1024) + "\nWARN short\nINFO short\n"
	require.Nil(t, os.WriteFile(path, []byte(content), 0644))

	stats, err := ledger.Stats("script")

	require.Nil(t, err)
	assert.Equal(t, Stats{TotalLines: 3, Errors: 1, Warnings: 1}, stats)
}

func TestLedger_Stats_MissingFile(t *testing.T) {
	ledger, _ := tempLedger(t, 5)

	stats, err := ledger.Stats("script")

	require.Nil(t, err)
	assert.Equal(t, Stats{}, stats)
}

// endregion

// region Test: RotationState
func TestLedger_RotationState_Percentage(t *testing.T) {
	ledger, path := tempLedger(t, 5)

	// 5 MB against the 10 MB threshold
	require.Nil(t, os.WriteFile(path, make([]byte, 5*1024*1024), 0644))

	state, err := ledger.RotationState()

	require.Nil(t, err)
	require.Len(t, state, 1)

	assert.Equal(t, "script", state[0].Source)
	assert.Equal(t, int64(5*1024*1024), state[0].Size)
	assert.Equal(t, 50.0, state[0].Percentage)
	assert.Equal(t, 0, state[0].BackupCount)
}

func TestLedger_RotationState_ListsNewestBackupsCappedAtFive(t *testing.T) {
	ledger, path := tempLedger(t, 5)

	require.Nil(t, os.WriteFile(path, []byte("live\n"), 0644))

	for i := 0; i < 7; i++ {
		name := fmt.Sprintf("%s.backup.2026082%d_120000", path, i)
		require.Nil(t, os.WriteFile(name, []byte("old\n"), 0644))
	}

	state, err := ledger.RotationState()

	require.Nil(t, err)
	require.Len(t, state, 1)

	assert.Equal(t, 7, state[0].BackupCount)
	assert.Len(t, state[0].Backups, 5)
}

// endregion

// region Test: Clear
func TestLedger_Clear_RotatesAndRecreates(t *testing.T) {
	ledger, path := tempLedger(t, 5)

	require.Nil(t, os.WriteFile(path, []byte("previous content\n"), 0644))

	require.Nil(t, ledger.Clear("script"))

	backups, err := filepath.Glob(path + ".backup.*")
	require.Nil(t, err)
	require.Len(t, backups, 1)

	data, err := os.ReadFile(backups[0])
	require.Nil(t, err)
	assert.Equal(t, "previous content\n", string(data))

	live, err := os.ReadFile(path)
	require.Nil(t, err)
	assert.Contains(t, string(live), "Log file cleared")
}

func TestLedger_Clear_MissingFileStillCreatesFresh(t *testing.T) {
	ledger, path := tempLedger(t, 5)

	require.Nil(t, ledger.Clear("script"))

	live, err := os.ReadFile(path)
	require.Nil(t, err)
	assert.Contains(t, string(live), "Log file cleared")
}

// endregion
