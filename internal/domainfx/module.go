package domainfx

import (
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(RuleStoreConfigProvider),
	fx.Provide(RuleStore),
	fx.Provide(TelemetryConfigProvider),
	fx.Provide(TelemetryLedger),
	fx.Provide(MetricsConfigProvider),
	fx.Provide(MetricsJournal),
	fx.Provide(ScriptConfigProvider),
	fx.Provide(ScriptRunner),
	fx.Provide(ScheduleConfigProvider),
	fx.Provide(NewCron),
	fx.Invoke(RunSchedule),
)
