package rules

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"storeman/pkg/backup"
)

// The fixed header emitted at the top of every rewritten rule file.
var fileHeader = []string{
	"# Unified Music Storage Rules",
	"# SOURCE_PATH|TARGET|DEST_SUBPATH|MODE",
	"# TARGET: SSD, NAS, or Local",
	"# MODE: move (migrate+symlink), copy (backup only)",
}

// Store reads and rewrites the pipe-delimited rule file. Loads are
// fail-soft (a missing file is an empty rule set, malformed lines are
// skipped); a save backs the previous file up first and then rewrites it from
// scratch, so a failed save must always be reported to the caller.
type Store struct {
	logger logrus.FieldLogger

	path            string
	backupRetention int

	mu sync.Mutex
}

// NewStore returns a store over the rule file at path. backupRetention
// bounds how many rule-file backups are kept after a save; zero keeps all.
func NewStore(logger logrus.FieldLogger, path string, backupRetention int) *Store {
	return &Store{
		logger:          logger,
		path:            path,
		backupRetention: backupRetention,
	}
}

// Load parses the rule file into an ordered rule sequence. Line numbers are
// physical 1-indexed positions in the file. Comment and blank lines are
// skipped; lines with fewer than 3 fields are dropped silently.
func (s *Store) Load() ([]Rule, error) {
	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		s.logger.WithField("file", s.path).Warn("Rules file not found")
		return []Rule{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "unable to open rules file")
	}
	defer f.Close()

	var result []Rule

	scanner := bufio.NewScanner(f)
	for line := 1; scanner.Scan(); line++ {
		rule, ok := parseLine(scanner.Text())
		if !ok {
			continue
		}

		rule.Line = line
		result = append(result, rule)
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "unable to read rules file")
	}

	s.logger.WithFields(logrus.Fields{
		"file":  s.path,
		"total": len(result),
	}).Debug("Loaded rules")

	if result == nil {
		result = []Rule{}
	}

	return result, nil
}

func parseLine(line string) (Rule, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return Rule{}, false
	}

	fields := strings.Split(line, "|")
	if len(fields) < 3 {
		return Rule{}, false
	}

	// A rule without a source matches nothing; such rows are structure
	// damage, not data.
	if strings.TrimSpace(fields[0]) == "" {
		return Rule{}, false
	}

	rule := Rule{
		Source:  strings.TrimSpace(fields[0]),
		Target:  strings.TrimSpace(fields[1]),
		Subpath: strings.TrimSpace(fields[2]),
		Mode:    ModeMove,
	}

	if len(fields) >= 4 {
		rule.Mode = strings.TrimSpace(fields[3])
	}

	return rule, true
}

// Save backs up the current rule file (if any) and rewrites it from the
// given sequence, grouped into category sections in first-seen order. Any
// failure is propagated: the backup already protects the previous state and
// the caller must not believe a partial save succeeded.
func (s *Store) Save(rules []Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	backupFile, err := backup.Create(s.path)
	if err != nil {
		return errors.Wrap(err, "unable to back up rules file")
	}

	if backupFile != "" {
		s.logger.WithField("backup", backupFile).Info("Created rules backup")
	}

	if _, err := backup.Prune(s.path, s.backupRetention); err != nil {
		s.logger.WithError(err).Warn("Unable to prune rule backups")
	}

	if err := s.writeFile(rules); err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"file":  s.path,
		"total": len(rules),
	}).Info("Saved rules")

	return nil
}

func (s *Store) writeFile(rules []Rule) error {
	f, err := os.Create(s.path)
	if err != nil {
		return errors.Wrap(err, "unable to rewrite rules file")
	}

	w := bufio.NewWriter(f)

	for _, line := range fileHeader {
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w)

	for _, group := range groupByCategory(rules) {
		fmt.Fprintf(w, "# %s\n", group.category)

		for _, rule := range group.rules {
			fmt.Fprintf(w, "%s|%s|%s|%s\n", rule.Source, rule.Target, rule.Subpath, rule.Mode)
		}

		fmt.Fprintln(w)
	}

	if err := w.Flush(); err != nil {
		f.Close()
		return errors.Wrap(err, "unable to write rules file")
	}

	if err := f.Close(); err != nil {
		return errors.Wrap(err, "unable to finish rules file")
	}

	return nil
}

type categoryGroup struct {
	category Category
	rules    []Rule
}

// groupByCategory keeps categories in the order their first rule appears in
// the input, so the section layout of the rewritten file is deterministic.
func groupByCategory(rules []Rule) []categoryGroup {
	index := make(map[Category]int)

	var groups []categoryGroup

	for _, rule := range rules {
		category := Categorize(rule)

		i, ok := index[category]
		if !ok {
			i = len(groups)
			index[category] = i
			groups = append(groups, categoryGroup{category: category})
		}

		groups[i].rules = append(groups[i].rules, rule)
	}

	return groups
}
