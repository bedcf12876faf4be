// Package telemetry reads the rotating log files written by the mover
// script and by the web layer itself: tail views, error/warning counts and
// rotation accounting per named source.
package telemetry

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"storeman/pkg/backup"
)

// RotationThreshold is the size at which a log file is considered due for
// rotation.
const RotationThreshold = 10 * 1024 * 1024

// ErrUnknownSource is returned for source names the ledger was not
// configured with.
var ErrUnknownSource = errors.New("unknown log source")

// Stats summarizes one full scan of a log source.
type Stats struct {
	TotalLines int `json:"total_lines"`
	Errors     int `json:"errors"`
	Warnings   int `json:"warnings"`
}

// RotationStatus describes how close a source is to its rotation threshold
// and which backups of it exist.
type RotationStatus struct {
	Source      string       `json:"source"`
	Path        string       `json:"path"`
	Size        int64        `json:"size"`
	Percentage  float64      `json:"percentage"`
	BackupCount int          `json:"backup_count"`
	Backups     []BackupInfo `json:"backups"`
}

// BackupInfo is one backup file of a log source.
type BackupInfo struct {
	Path     string    `json:"path"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// Ledger exposes read-only views over a fixed set of named log files, plus
// the clear operation that rotates a log out manually. All read paths fail
// soft: a missing file is an empty result, I/O errors are logged and
// swallowed so a broken log never takes the dashboard down with it.
type Ledger struct {
	logger logrus.FieldLogger

	sources         map[string]string
	backupRetention int
}

// NewLedger returns a ledger over the given source-name to file-path map.
// backupRetention bounds the per-source backup family when clearing logs.
func NewLedger(logger logrus.FieldLogger, sources map[string]string, backupRetention int) *Ledger {
	return &Ledger{
		logger:          logger,
		sources:         sources,
		backupRetention: backupRetention,
	}
}

// Sources returns the configured source names.
func (l *Ledger) Sources() []string {
	names := make([]string, 0, len(l.sources))
	for name := range l.sources {
		names = append(names, name)
	}
	return names
}

func (l *Ledger) path(source string) (string, error) {
	path, ok := l.sources[source]
	if !ok {
		return "", errors.Wrapf(ErrUnknownSource, "source %q", source)
	}
	return path, nil
}

// Tail returns the last n lines of the named source verbatim, oldest first.
// A missing file yields an empty slice.
func (l *Ledger) Tail(source string, n int) ([]string, error) {
	path, err := l.path(source)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		l.logger.WithField("file", path).Debug("Log file not found")
		return []string{}, nil
	}
	if err != nil {
		l.logger.WithError(err).Error("Unable to open log file")
		return []string{}, nil
	}
	defer f.Close()

	lines := make([]string, 0, n)

	err = forEachLine(f, func(line string) {
		lines = append(lines, line)
		if len(lines) > n {
			lines = lines[1:]
		}
	})
	if err != nil {
		l.logger.WithError(err).Error("Unable to read log file")
		return []string{}, nil
	}

	return lines, nil
}

// Stats scans the named source once, streaming, and counts lines containing
// "ERROR" and "WARN". A line counts as at most one of the two, error first.
func (l *Ledger) Stats(source string) (Stats, error) {
	path, err := l.path(source)
	if err != nil {
		return Stats{}, err
	}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return Stats{}, nil
	}
	if err != nil {
		l.logger.WithError(err).Error("Unable to open log file for stats")
		return Stats{}, nil
	}
	defer f.Close()

	var stats Stats

	err = forEachLine(f, func(line string) {
		stats.TotalLines++

		switch {
		case strings.Contains(line, "ERROR"):
			stats.Errors++
		case strings.Contains(line, "WARN"):
			stats.Warnings++
		}
	})
	if err != nil {
		l.logger.WithError(err).Error("Unable to scan log file")
	}

	return stats, nil
}

// forEachLine streams r line by line. Unlike bufio.Scanner it has no token
// size cap, so a single oversized line costs memory proportional to that
// line only and never aborts the rest of the file.
func forEachLine(r io.Reader, fn func(line string)) error {
	br := bufio.NewReaderSize(r, 64*1024)

	for {
		line, err := br.ReadString('\n')

		if len(line) > 0 {
			line = strings.TrimSuffix(line, "\n")
			line = strings.TrimSuffix(line, "\r")
			fn(line)
		}

		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// RotationState reports size, threshold fill percentage and the newest
// backups (at most 5) for every configured source.
func (l *Ledger) RotationState() ([]RotationStatus, error) {
	sources := l.Sources()
	sort.Strings(sources)

	result := make([]RotationStatus, 0, len(sources))

	for _, source := range sources {
		path := l.sources[source]

		status := RotationStatus{
			Source:  source,
			Path:    path,
			Backups: []BackupInfo{},
		}

		if fi, err := os.Stat(path); err == nil {
			status.Size = fi.Size()
			status.Percentage = math.Round(float64(fi.Size())/RotationThreshold*100*10) / 10
		}

		backups, err := backup.List(path)
		if err != nil {
			l.logger.WithError(err).Error("Unable to list log backups")
		}

		status.BackupCount = len(backups)

		for i, b := range backups {
			if i >= 5 {
				break
			}
			status.Backups = append(status.Backups, BackupInfo{
				Path:     b.Path,
				Size:     b.Size,
				Modified: b.Modified,
			})
		}

		result = append(result, status)
	}

	return result, nil
}

// Clear rotates the named source out manually: the live file is renamed
// into a timestamped backup, old backups beyond the retention count are
// removed, and a fresh log with a cleared stamp is created in its place.
func (l *Ledger) Clear(source string) error {
	path, err := l.path(source)
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil {
		backupFile, err := backup.Rename(path)
		if err != nil {
			return err
		}

		l.logger.WithField("backup", backupFile).Info("Created log backup before clearing")
	}

	if _, err := backup.Prune(path, l.backupRetention); err != nil {
		l.logger.WithError(err).Warn("Unable to prune log backups")
	}

	stamp := fmt.Sprintf("[%s] Log file cleared\n", time.Now().Format("2006-01-02 15:04:05"))

	if err := os.WriteFile(path, []byte(stamp), 0644); err != nil {
		return errors.Wrap(err, "unable to recreate log file")
	}

	return nil
}
