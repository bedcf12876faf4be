// Package runner invokes the external mover script under a hard wall-clock
// timeout and forwards every outcome into the metrics journal.
package runner

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"storeman/pkg/appcontext"
)

var (
	// ErrRunInProgress is returned when an invocation overlaps an active
	// one. Runs are strictly serialized: the script is long-running and
	// concurrent runs would race on the journal and on the files it moves.
	ErrRunInProgress = errors.New("a run is already in progress")

	// ErrScriptNotFound is returned when the configured script path does
	// not exist.
	ErrScriptNotFound = errors.New("script not found")

	// ErrTimeout is returned when the script exceeded its wall-clock
	// budget and was killed.
	ErrTimeout = errors.New("script execution timed out")
)

// DryRunEnv signals the script to skip NAS mount probing during dry runs.
const DryRunEnv = "MSM_SKIP_NAS_MOUNT"

// MetricsRecorder receives the outcome of every run.
type MetricsRecorder interface {
	RecordOperation(command string, returnCode int, durationSeconds float64) error
	RecordTimeout(command string) error
}

// Options select the script's command line flags.
type Options struct {
	DryRun     bool   `json:"dry_run"`
	Verbose    bool   `json:"verbose"`
	OnlyFilter string `json:"only_filter"`
	SkipNAS    bool   `json:"skip_nas"`
}

// Result is the captured outcome of a finished run.
type Result struct {
	Command    string        `json:"command"`
	ReturnCode int           `json:"returncode"`
	Stdout     string        `json:"stdout"`
	Stderr     string        `json:"stderr"`
	Duration   time.Duration `json:"-"`
}

// CheckResult reports whether the script is present and responding.
type CheckResult struct {
	ScriptPath       string  `json:"script_path"`
	ScriptExists     bool    `json:"script_exists"`
	ScriptExecutable bool    `json:"script_executable"`
	HelpReturnCode   *int    `json:"help_returncode,omitempty"`
	HelpOutput       string  `json:"help_output,omitempty"`
	HelpError        *string `json:"help_error,omitempty"`
}

// Runner executes the mover script. A depth-1 slot serializes runs; an
// overlapping Execute fails fast with ErrRunInProgress.
type Runner struct {
	logger logrus.FieldLogger

	scriptPath string
	workDir    string
	timeout    time.Duration

	metrics MetricsRecorder

	slot chan struct{}
}

func New(logger logrus.FieldLogger, scriptPath, workDir string, timeout time.Duration, metrics MetricsRecorder) *Runner {
	r := &Runner{
		logger:     logger,
		scriptPath: scriptPath,
		workDir:    workDir,
		timeout:    timeout,
		metrics:    metrics,
		slot:       make(chan struct{}, 1),
	}

	r.slot <- struct{}{}

	return r
}

// Execute runs the script with the given options. A non-zero exit is not an
// error here: the result carries the code and the captured output verbatim
// for the caller to surface. Timeouts are recorded in the journal and
// returned as ErrTimeout.
func (r *Runner) Execute(ctx context.Context, opts Options) (Result, error) {
	select {
	case <-r.slot:
	default:
		return Result{}, ErrRunInProgress
	}
	defer func() { r.slot <- struct{}{} }()

	if _, err := os.Stat(r.scriptPath); err != nil {
		return Result{}, errors.Wrap(ErrScriptNotFound, r.scriptPath)
	}

	args := buildArgs(opts)
	command := strings.Join(append([]string{r.scriptPath}, args...), " ")

	ctx = appcontext.WithCommand(ctx, command)
	logger := appcontext.LoggerFromContext(r.logger, ctx)

	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, r.scriptPath, args...)
	cmd.Dir = r.workDir
	cmd.Env = os.Environ()

	if opts.DryRun {
		cmd.Env = append(cmd.Env, DryRunEnv+"=1")
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Info("Executing script")

	startAt := time.Now()
	err := cmd.Run()
	duration := time.Since(startAt)

	result := Result{
		Command:  command,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: duration,
	}

	if runCtx.Err() == context.DeadlineExceeded {
		logger.WithField("timeout", r.timeout).Error("Script execution timed out")

		if err := r.metrics.RecordTimeout(command); err != nil {
			logger.WithError(err).Error("Unable to record timeout")
		}

		return result, ErrTimeout
	}

	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return result, errors.Wrap(err, "unable to run script")
		}

		result.ReturnCode = exitErr.ExitCode()
	}

	logger.WithFields(logrus.Fields{
		"returncode":  result.ReturnCode,
		"duration_ms": duration.Milliseconds(),
	}).Info("Script completed")

	if result.ReturnCode != 0 && result.Stderr != "" {
		logger.WithField("stderr", result.Stderr).Warn("Script exited with non-zero status")
	}

	if err := r.metrics.RecordOperation(command, result.ReturnCode, duration.Seconds()); err != nil {
		logger.WithError(err).Error("Unable to record operation")
	}

	return result, nil
}

// Check probes the script: existence, executable bit and a short --help
// run. It never fails on a broken script, only reports what it found.
func (r *Runner) Check(ctx context.Context) CheckResult {
	result := CheckResult{ScriptPath: r.scriptPath}

	fi, err := os.Stat(r.scriptPath)
	if err != nil {
		return result
	}

	result.ScriptExists = true
	result.ScriptExecutable = fi.Mode()&0111 != 0

	if !result.ScriptExecutable {
		return result
	}

	helpCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(helpCtx, r.scriptPath, "--help")
	cmd.Dir = r.workDir

	out, err := cmd.CombinedOutput()
	result.HelpOutput = string(out)

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code := exitErr.ExitCode()
			result.HelpReturnCode = &code
		} else {
			msg := err.Error()
			result.HelpError = &msg
		}

		return result
	}

	zero := 0
	result.HelpReturnCode = &zero

	return result
}

func buildArgs(opts Options) []string {
	var args []string

	if opts.DryRun {
		args = append(args, "-n")
	}
	if opts.Verbose {
		args = append(args, "-v")
	}
	if opts.OnlyFilter != "" {
		args = append(args, "--only", opts.OnlyFilter)
	}
	if opts.SkipNAS {
		args = append(args, "--skip-nas")
	}

	return args
}
