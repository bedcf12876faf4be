package webfx

import (
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(HttpServerConfigProvider),
	fx.Provide(HttpServer),
	fx.Provide(HttpRouter),
	fx.Provide(Listener),
	fx.Invoke(RunServer),

	fx.Provide(RulesHandler),
	fx.Provide(ExecuteHandler),
	fx.Provide(CheckHandler),
	fx.Provide(LogsHandler),
	fx.Provide(ClearLogsHandler),
	fx.Provide(RotationHandler),
	fx.Provide(MetricsHandler),
	fx.Provide(DashboardHandler),
	fx.Invoke(RegisterHandlers),
)
