package domainfx

import (
	"context"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"go.uber.org/fx"

	"storeman/pkg/runner"
)

const (
	ConfigScheduleSpec    = "schedule.spec"
	ConfigScheduleDryRun  = "schedule.dry_run"
	ConfigScheduleVerbose = "schedule.verbose"
	ConfigScheduleSkipNAS = "schedule.skip_nas"
)

type ScheduleConfig struct {
	Spec    string
	Options runner.Options
}

func ScheduleConfigProvider(v *viper.Viper) *ScheduleConfig {
	dryRun := true
	if v.IsSet(ConfigScheduleDryRun) {
		dryRun = v.GetBool(ConfigScheduleDryRun)
	}

	return &ScheduleConfig{
		Spec: v.GetString(ConfigScheduleSpec),
		Options: runner.Options{
			DryRun:  dryRun,
			Verbose: v.GetBool(ConfigScheduleVerbose),
			SkipNAS: v.GetBool(ConfigScheduleSkipNAS),
		},
	}
}

func NewCron() *cron.Cron {
	return cron.New()
}

// RunSchedule starts periodic script runs when a cron spec is configured.
// An overlapping scheduled run is skipped by the runner's serialization and
// only logged here.
func RunSchedule(
	lc fx.Lifecycle,
	config *ScheduleConfig,
	logger *logrus.Logger,
	c *cron.Cron,
	r *runner.Runner,
) error {
	if config.Spec == "" {
		return nil
	}

	_, err := c.AddFunc(config.Spec, func() {
		logger.WithField("spec", config.Spec).Info("Starting scheduled run")

		if _, err := r.Execute(context.Background(), config.Options); err != nil {
			if errors.Is(err, runner.ErrRunInProgress) {
				logger.Warn("Skipping scheduled run: another run is in progress")
				return
			}

			logger.WithError(err).Error("Scheduled run failed")
		}
	})
	if err != nil {
		return errors.Wrapf(err, "invalid cron spec %q", config.Spec)
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			c.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			<-c.Stop().Done()
			return nil
		},
	})

	return nil
}
