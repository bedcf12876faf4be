package domainfx

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"storeman/pkg/http/handler"
	"storeman/pkg/metrics"
	"storeman/pkg/runner"
)

const (
	ConfigMetricsFile = "metrics.file"
)

type MetricsConfig struct {
	File string
}

func MetricsConfigProvider(v *viper.Viper) *MetricsConfig {
	file := v.GetString(ConfigMetricsFile)
	if file == "" {
		file = "music-storage-metrics.json"
	}

	return &MetricsConfig{File: file}
}

func MetricsJournal(config *MetricsConfig, logger *logrus.Logger) (
	*metrics.Journal,
	handler.MetricsReader,
	runner.MetricsRecorder,
) {
	journal := metrics.NewJournal(logger, config.File)

	return journal, journal, journal
}
