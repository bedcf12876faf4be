package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"storeman/pkg/appcontext"
	"storeman/pkg/runner"
)

type ScriptRunner interface {
	Execute(ctx context.Context, opts runner.Options) (runner.Result, error)
	Check(ctx context.Context) runner.CheckResult
}

// ExecuteHandler triggers a run of the mover script.
type ExecuteHandler struct {
	logger logrus.FieldLogger
	runner ScriptRunner
}

func NewExecuteHandler(logger logrus.FieldLogger, runner ScriptRunner) *ExecuteHandler {
	return &ExecuteHandler{
		logger: logger,
		runner: runner,
	}
}

type executeResponse struct {
	Status     string `json:"status"`
	Command    string `json:"command"`
	ReturnCode int    `json:"returncode"`
	Stdout     string `json:"stdout"`
	Stderr     string `json:"stderr"`
}

func (h *ExecuteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := appcontext.LoggerFromContext(h.logger, r.Context())

	opts := runner.Options{DryRun: true}

	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil && err != io.EOF {
		writeError(w, logger, http.StatusBadRequest, "invalid execute payload")
		return
	}

	result, err := h.runner.Execute(r.Context(), opts)

	switch {
	case err == nil:
		writeJSON(w, logger, http.StatusOK, executeResponse{
			Status:     "success",
			Command:    result.Command,
			ReturnCode: result.ReturnCode,
			Stdout:     result.Stdout,
			Stderr:     result.Stderr,
		})

	case errors.Is(err, runner.ErrTimeout):
		writeError(w, logger, http.StatusRequestTimeout, "operation timed out")

	case errors.Is(err, runner.ErrRunInProgress):
		writeError(w, logger, http.StatusConflict, "a run is already in progress")

	case errors.Is(err, runner.ErrScriptNotFound):
		writeError(w, logger, http.StatusNotFound, err.Error())

	default:
		logger.WithError(err).Error("Script execution failed")
		writeError(w, logger, http.StatusInternalServerError, err.Error())
	}
}

// CheckHandler reports whether the mover script is present and responding.
type CheckHandler struct {
	logger logrus.FieldLogger
	runner ScriptRunner
}

func NewCheckHandler(logger logrus.FieldLogger, runner ScriptRunner) *CheckHandler {
	return &CheckHandler{
		logger: logger,
		runner: runner,
	}
}

func (h *CheckHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := appcontext.LoggerFromContext(h.logger, r.Context())

	writeJSON(w, logger, http.StatusOK, h.runner.Check(r.Context()))
}
