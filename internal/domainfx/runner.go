package domainfx

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"storeman/pkg/http/handler"
	"storeman/pkg/runner"
)

const (
	ConfigScriptPath    = "script.path"
	ConfigScriptWorkDir = "script.work_dir"
	ConfigScriptTimeout = "script.timeout"
)

type ScriptConfig struct {
	Path    string
	WorkDir string
	Timeout time.Duration
}

func ScriptConfigProvider(v *viper.Viper) *ScriptConfig {
	path := v.GetString(ConfigScriptPath)
	if path == "" {
		path = "./music-storage-manager.zsh"
	}

	workDir := v.GetString(ConfigScriptWorkDir)
	if workDir == "" {
		workDir = "."
	}

	timeout := v.GetDuration(ConfigScriptTimeout)
	if timeout == 0 {
		timeout = 180 * time.Second
	}

	return &ScriptConfig{
		Path:    path,
		WorkDir: workDir,
		Timeout: timeout,
	}
}

func ScriptRunner(
	config *ScriptConfig,
	logger *logrus.Logger,
	metrics runner.MetricsRecorder,
) (*runner.Runner, handler.ScriptRunner) {
	r := runner.New(logger, config.Path, config.WorkDir, config.Timeout, metrics)

	return r, r
}
