// Package backup provides timestamped file backups with a shared naming
// scheme (`<path>.backup.<YYYYMMDD_HHMMSS>`) and retention pruning. It is
// used by the rule store before destructive rewrites, by the telemetry
// ledger when clearing logs, and by the rotating log sink.
package backup

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const timestampLayout = "20060102_150405"

// Info describes a single backup file of some original path.
type Info struct {
	Path     string
	Size     int64
	Modified time.Time
}

// Name returns the backup path for the given original path at the given time.
func Name(path string, at time.Time) string {
	return path + ".backup." + at.Format(timestampLayout)
}

// Create copies the current contents of path into a timestamped backup file
// and returns its name. If path does not exist no backup is made and an empty
// name is returned: there is nothing to protect.
func Create(path string) (string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(err, "unable to read original file")
	}

	name := Name(path, time.Now())

	if err := os.WriteFile(name, data, 0644); err != nil {
		return "", errors.Wrap(err, "unable to write backup file")
	}

	return name, nil
}

// Rename moves path into a timestamped backup instead of copying it. Used
// for log rollover where the original is recreated empty afterwards.
func Rename(path string) (string, error) {
	name := Name(path, time.Now())

	if err := os.Rename(path, name); err != nil {
		return "", errors.Wrap(err, "unable to rename into backup")
	}

	return name, nil
}

// List returns all backups of path ordered by modification time, newest
// first. A missing directory yields an empty list.
func List(path string) ([]Info, error) {
	dir := filepath.Dir(path)
	prefix := filepath.Base(path) + ".backup."

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "unable to list backup directory")
	}

	var backups []Info

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}

		fi, err := entry.Info()
		if err != nil {
			continue
		}

		backups = append(backups, Info{
			Path:     filepath.Join(dir, entry.Name()),
			Size:     fi.Size(),
			Modified: fi.ModTime(),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Modified.After(backups[j].Modified)
	})

	return backups, nil
}

// Prune removes backups of path beyond the newest keep entries. A keep of
// zero or less disables pruning entirely. It returns the removed paths.
func Prune(path string, keep int) ([]string, error) {
	if keep <= 0 {
		return nil, nil
	}

	backups, err := List(path)
	if err != nil {
		return nil, err
	}

	if len(backups) <= keep {
		return nil, nil
	}

	var removed []string

	for _, b := range backups[keep:] {
		if err := os.Remove(b.Path); err != nil {
			return removed, errors.Wrap(err, "unable to remove old backup")
		}
		removed = append(removed, b.Path)
	}

	return removed, nil
}
