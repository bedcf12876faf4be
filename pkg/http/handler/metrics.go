package handler

import (
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"storeman/pkg/appcontext"
	"storeman/pkg/metrics"
)

type MetricsReader interface {
	GetMetrics(limit int) (metrics.Metrics, error)
	Dashboard() (metrics.DashboardStats, error)
}

// MetricsHandler serves the execution journal's recent detail and all-time
// summary.
type MetricsHandler struct {
	logger  logrus.FieldLogger
	journal MetricsReader
}

func NewMetricsHandler(logger logrus.FieldLogger, journal MetricsReader) *MetricsHandler {
	return &MetricsHandler{
		logger:  logger,
		journal: journal,
	}
}

func (h *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := appcontext.LoggerFromContext(h.logger, r.Context())

	limit := metrics.MaxOperations
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, logger, http.StatusBadRequest, "invalid limit parameter")
			return
		}
		limit = n
	}

	m, err := h.journal.GetMetrics(limit)
	if err != nil {
		logger.WithError(err).Error("Unable to read metrics journal")
		writeError(w, logger, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, logger, http.StatusOK, m)
}

// DashboardHandler serves the aggregated dashboard view.
type DashboardHandler struct {
	logger  logrus.FieldLogger
	journal MetricsReader
}

func NewDashboardHandler(logger logrus.FieldLogger, journal MetricsReader) *DashboardHandler {
	return &DashboardHandler{
		logger:  logger,
		journal: journal,
	}
}

func (h *DashboardHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := appcontext.LoggerFromContext(h.logger, r.Context())

	stats, err := h.journal.Dashboard()
	if err != nil {
		logger.WithError(err).Error("Unable to compute dashboard stats")
		writeError(w, logger, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, logger, http.StatusOK, stats)
}
