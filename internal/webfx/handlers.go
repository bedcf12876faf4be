package webfx

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"storeman/internal/domainfx"
	"storeman/pkg/http/handler"
)

func RulesHandler(logger *logrus.Logger, store handler.RuleStore) *handler.RulesHandler {
	return handler.NewRulesHandler(logger, store)
}

func ExecuteHandler(logger *logrus.Logger, runner handler.ScriptRunner) *handler.ExecuteHandler {
	return handler.NewExecuteHandler(logger, runner)
}

func CheckHandler(logger *logrus.Logger, runner handler.ScriptRunner) *handler.CheckHandler {
	return handler.NewCheckHandler(logger, runner)
}

func LogsHandler(logger *logrus.Logger, ledger handler.LogLedger, config *domainfx.TelemetryConfig) *handler.LogsHandler {
	return handler.NewLogsHandler(logger, ledger, config.DefaultSource)
}

func ClearLogsHandler(logger *logrus.Logger, ledger handler.LogLedger, config *domainfx.TelemetryConfig) *handler.ClearLogsHandler {
	return handler.NewClearLogsHandler(logger, ledger, config.DefaultSource)
}

func RotationHandler(logger *logrus.Logger, ledger handler.LogLedger) *handler.RotationHandler {
	return handler.NewRotationHandler(logger, ledger)
}

func MetricsHandler(logger *logrus.Logger, journal handler.MetricsReader) *handler.MetricsHandler {
	return handler.NewMetricsHandler(logger, journal)
}

func DashboardHandler(logger *logrus.Logger, journal handler.MetricsReader) *handler.DashboardHandler {
	return handler.NewDashboardHandler(logger, journal)
}

func RegisterHandlers(
	router *mux.Router,
	rules *handler.RulesHandler,
	execute *handler.ExecuteHandler,
	check *handler.CheckHandler,
	logs *handler.LogsHandler,
	clearLogs *handler.ClearLogsHandler,
	rotation *handler.RotationHandler,
	metrics *handler.MetricsHandler,
	dashboard *handler.DashboardHandler,
) {
	router.Handle("/api/rules", rules).Methods(http.MethodGet, http.MethodPost)
	router.Handle("/api/execute", execute).Methods(http.MethodPost)
	router.Handle("/api/check", check).Methods(http.MethodGet)
	router.Handle("/api/logs", logs).Methods(http.MethodGet)
	router.Handle("/api/clear-logs", clearLogs).Methods(http.MethodPost)
	router.Handle("/api/logs/rotation", rotation).Methods(http.MethodGet)
	router.Handle("/api/metrics", metrics).Methods(http.MethodGet)
	router.Handle("/api/dashboard", dashboard).Methods(http.MethodGet)
}
