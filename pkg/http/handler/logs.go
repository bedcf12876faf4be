package handler

import (
	"net/http"
	"strconv"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"storeman/pkg/appcontext"
	"storeman/pkg/telemetry"
)

const defaultTailLines = 50

type LogLedger interface {
	Tail(source string, n int) ([]string, error)
	Stats(source string) (telemetry.Stats, error)
	RotationState() ([]telemetry.RotationStatus, error)
	Clear(source string) error
}

// LogsHandler serves tail and stats views of a named log source.
type LogsHandler struct {
	logger logrus.FieldLogger
	ledger LogLedger

	defaultSource string
}

func NewLogsHandler(logger logrus.FieldLogger, ledger LogLedger, defaultSource string) *LogsHandler {
	return &LogsHandler{
		logger:        logger,
		ledger:        ledger,
		defaultSource: defaultSource,
	}
}

type logsResponse struct {
	Logs  []string        `json:"logs"`
	Stats telemetry.Stats `json:"stats"`
}

func (h *LogsHandler) source(r *http.Request) string {
	if source := r.URL.Query().Get("source"); source != "" {
		return source
	}
	return h.defaultSource
}

func (h *LogsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	source := h.source(r)

	ctx := appcontext.WithLogSource(r.Context(), source)
	logger := appcontext.LoggerFromContext(h.logger, ctx)

	lines := defaultTailLines
	if v := r.URL.Query().Get("lines"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, logger, http.StatusBadRequest, "invalid lines parameter")
			return
		}
		lines = n
	}

	logs, err := h.ledger.Tail(source, lines)
	if err != nil {
		h.sourceError(w, logger, err)
		return
	}

	stats, err := h.ledger.Stats(source)
	if err != nil {
		h.sourceError(w, logger, err)
		return
	}

	writeJSON(w, logger, http.StatusOK, logsResponse{Logs: logs, Stats: stats})
}

func (h *LogsHandler) sourceError(w http.ResponseWriter, logger logrus.FieldLogger, err error) {
	if errors.Is(err, telemetry.ErrUnknownSource) {
		writeError(w, logger, http.StatusNotFound, err.Error())
		return
	}

	logger.WithError(err).Error("Unable to read log source")
	writeError(w, logger, http.StatusInternalServerError, err.Error())
}

// ClearLogsHandler rotates a log source out manually.
type ClearLogsHandler struct {
	logger logrus.FieldLogger
	ledger LogLedger

	defaultSource string
}

func NewClearLogsHandler(logger logrus.FieldLogger, ledger LogLedger, defaultSource string) *ClearLogsHandler {
	return &ClearLogsHandler{
		logger:        logger,
		ledger:        ledger,
		defaultSource: defaultSource,
	}
}

func (h *ClearLogsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	source := h.defaultSource
	if v := r.URL.Query().Get("source"); v != "" {
		source = v
	}

	ctx := appcontext.WithLogSource(r.Context(), source)
	logger := appcontext.LoggerFromContext(h.logger, ctx)

	if err := h.ledger.Clear(source); err != nil {
		if errors.Is(err, telemetry.ErrUnknownSource) {
			writeError(w, logger, http.StatusNotFound, err.Error())
			return
		}

		logger.WithError(err).Error("Unable to clear log file")
		writeError(w, logger, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("Log file cleared")
	writeJSON(w, logger, http.StatusOK, statusResponse{Status: "success", Message: "log file cleared"})
}

// RotationHandler reports rotation accounting for every log source.
type RotationHandler struct {
	logger logrus.FieldLogger
	ledger LogLedger
}

func NewRotationHandler(logger logrus.FieldLogger, ledger LogLedger) *RotationHandler {
	return &RotationHandler{
		logger: logger,
		ledger: ledger,
	}
}

func (h *RotationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := appcontext.LoggerFromContext(h.logger, r.Context())

	state, err := h.ledger.RotationState()
	if err != nil {
		logger.WithError(err).Error("Unable to compute rotation state")
		writeError(w, logger, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, logger, http.StatusOK, state)
}
