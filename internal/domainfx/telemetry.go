package domainfx

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"storeman/pkg/http/handler"
	"storeman/pkg/telemetry"
)

const (
	ConfigLogsScriptFile      = "logs.script_file"
	ConfigLogsAppFile         = "log.file"
	ConfigLogsBackupRetention = "logs.backup_retention"
)

// Log source names. The script source is what the mover script writes, the
// app source is this server's own rotating log.
const (
	SourceScript = "script"
	SourceApp    = "app"
)

type TelemetryConfig struct {
	Sources         map[string]string
	DefaultSource   string
	BackupRetention int
}

func TelemetryConfigProvider(v *viper.Viper) *TelemetryConfig {
	scriptFile := v.GetString(ConfigLogsScriptFile)
	if scriptFile == "" {
		scriptFile = "music-storage-manager.log"
	}

	sources := map[string]string{
		SourceScript: scriptFile,
	}

	if appFile := v.GetString(ConfigLogsAppFile); appFile != "" {
		sources[SourceApp] = appFile
	}

	retention := 5
	if v.IsSet(ConfigLogsBackupRetention) {
		retention = v.GetInt(ConfigLogsBackupRetention)
	}

	return &TelemetryConfig{
		Sources:         sources,
		DefaultSource:   SourceScript,
		BackupRetention: retention,
	}
}

func TelemetryLedger(config *TelemetryConfig, logger *logrus.Logger) (*telemetry.Ledger, handler.LogLedger) {
	ledger := telemetry.NewLedger(logger, config.Sources, config.BackupRetention)

	return ledger, ledger
}
