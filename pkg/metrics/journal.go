// Package metrics keeps the execution journal: a capped, newest-first list
// of past script runs plus monotonic summary counters. The summary is never
// recomputed from the capped list, so its totals keep growing after old
// detail entries have been truncated away.
package metrics

import (
	"encoding/json"
	"math"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// MaxOperations bounds the retained detail entries; summary counters are
// unaffected by this cap.
const MaxOperations = 100

// TimeoutReturnCode marks entries recorded through RecordTimeout.
const TimeoutReturnCode = -1

// Entry is one recorded execution attempt.
type Entry struct {
	Timestamp  time.Time `json:"timestamp"`
	Command    string    `json:"command"`
	ReturnCode int       `json:"returncode"`
	Duration   *float64  `json:"duration"`
	Success    bool      `json:"success"`
	Timeout    bool      `json:"timeout,omitempty"`
}

// Summary holds the all-time counters.
type Summary struct {
	Total    int `json:"total"`
	Success  int `json:"success"`
	Failed   int `json:"failed"`
	Timeouts int `json:"timeouts"`
}

type journalState struct {
	Operations []Entry `json:"operations"`
	Summary    Summary `json:"summary"`
}

// Metrics is the read view returned by GetMetrics.
type Metrics struct {
	Operations  []Entry `json:"operations"`
	Summary     Summary `json:"summary"`
	SuccessRate float64 `json:"success_rate"`
}

// WindowStats aggregates a time window of the retained detail entries.
type WindowStats struct {
	Total   int `json:"total"`
	Success int `json:"success"`
	Failed  int `json:"failed"`
}

// ErrorCount is one aggregated non-zero return code.
type ErrorCount struct {
	ReturnCode int `json:"returncode"`
	Count      int `json:"count"`
}

// DashboardStats is the aggregate view for the dashboard. The Today and
// ThisWeek windows are computed over the retained detail entries only, so
// they understate true historical counts once the cap has been exceeded.
type DashboardStats struct {
	AllTime     Summary      `json:"all_time"`
	Today       WindowStats  `json:"today"`
	ThisWeek    WindowStats  `json:"this_week"`
	AvgDuration float64      `json:"avg_duration"`
	TopErrors   []ErrorCount `json:"top_errors"`
}

// Journal persists every mutation as a whole-file rewrite of a single JSON
// document. The mutex makes concurrent recorders safe within one process;
// multiple processes sharing the file are not supported.
type Journal struct {
	logger logrus.FieldLogger

	path string

	mu  sync.Mutex
	now func() time.Time
}

func NewJournal(logger logrus.FieldLogger, path string) *Journal {
	return &Journal{
		logger: logger,
		path:   path,
		now:    time.Now,
	}
}

// RecordOperation appends a finished run to the journal. Success is decided
// solely by the return code.
func (j *Journal) RecordOperation(command string, returnCode int, durationSeconds float64) error {
	return j.record(Entry{
		Command:    command,
		ReturnCode: returnCode,
		Duration:   &durationSeconds,
		Success:    returnCode == 0,
	})
}

// RecordTimeout appends a run that was killed for exceeding its wall-clock
// budget. Timeouts count as failures but are tracked separately as well.
func (j *Journal) RecordTimeout(command string) error {
	return j.record(Entry{
		Command:    command,
		ReturnCode: TimeoutReturnCode,
		Success:    false,
		Timeout:    true,
	})
}

func (j *Journal) record(entry Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	state, err := j.read()
	if err != nil {
		return err
	}

	entry.Timestamp = j.now()

	state.Operations = append([]Entry{entry}, state.Operations...)
	if len(state.Operations) > MaxOperations {
		state.Operations = state.Operations[:MaxOperations]
	}

	state.Summary.Total++

	switch {
	case entry.Timeout:
		state.Summary.Timeouts++
		state.Summary.Failed++
	case entry.Success:
		state.Summary.Success++
	default:
		state.Summary.Failed++
	}

	return j.write(state)
}

// GetMetrics returns up to limit newest entries plus the all-time summary
// and success rate. A non-positive limit returns all retained entries.
func (j *Journal) GetMetrics(limit int) (Metrics, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	state, err := j.read()
	if err != nil {
		return Metrics{}, err
	}

	operations := state.Operations
	if limit > 0 && len(operations) > limit {
		operations = operations[:limit]
	}
	if operations == nil {
		operations = []Entry{}
	}

	return Metrics{
		Operations:  operations,
		Summary:     state.Summary,
		SuccessRate: successRate(state.Summary),
	}, nil
}

func successRate(s Summary) float64 {
	if s.Total == 0 {
		return 0
	}

	return round1(float64(s.Success) / float64(s.Total) * 100)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Dashboard computes the aggregate dashboard view.
func (j *Journal) Dashboard() (DashboardStats, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	state, err := j.read()
	if err != nil {
		return DashboardStats{}, err
	}

	now := j.now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	startOfWeek := startOfDay.AddDate(0, 0, -7)

	stats := DashboardStats{
		AllTime:   state.Summary,
		TopErrors: []ErrorCount{},
	}

	var durationSum float64
	var durationCount int

	errorCounts := make(map[int]int)

	for _, op := range state.Operations {
		if !op.Timestamp.Before(startOfDay) {
			countInto(&stats.Today, op)
		}
		if !op.Timestamp.Before(startOfWeek) {
			countInto(&stats.ThisWeek, op)
		}

		if op.Duration != nil {
			durationSum += *op.Duration
			durationCount++
		}

		if op.ReturnCode != 0 {
			errorCounts[op.ReturnCode]++
		}
	}

	if durationCount > 0 {
		stats.AvgDuration = round1(durationSum / float64(durationCount))
	}

	stats.TopErrors = topErrors(errorCounts, 5)

	return stats, nil
}

func countInto(w *WindowStats, op Entry) {
	w.Total++
	if op.Success {
		w.Success++
	} else {
		w.Failed++
	}
}

func topErrors(counts map[int]int, limit int) []ErrorCount {
	result := make([]ErrorCount, 0, len(counts))

	for code, count := range counts {
		result = append(result, ErrorCount{ReturnCode: code, Count: count})
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].ReturnCode < result[j].ReturnCode
	})

	if len(result) > limit {
		result = result[:limit]
	}

	return result
}

// read loads the journal state; a missing or unreadable file starts a fresh
// journal rather than failing the mutation that triggered the read.
func (j *Journal) read() (journalState, error) {
	var state journalState

	data, err := os.ReadFile(j.path)
	if os.IsNotExist(err) {
		return state, nil
	}
	if err != nil {
		return state, errors.Wrap(err, "unable to read metrics journal")
	}

	if err := json.Unmarshal(data, &state); err != nil {
		j.logger.WithError(err).Warn("Metrics journal is corrupt, starting fresh")
		return journalState{}, nil
	}

	return state, nil
}

func (j *Journal) write(state journalState) error {
	if state.Operations == nil {
		state.Operations = []Entry{}
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return errors.Wrap(err, "unable to encode metrics journal")
	}

	if err := os.WriteFile(j.path, data, 0644); err != nil {
		return errors.Wrap(err, "unable to write metrics journal")
	}

	return nil
}
