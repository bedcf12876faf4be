package loggerfx

import (
	"io"
	"log"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"storeman/pkg/logrotate"
)

const (
	ConfigLogLevel  = "log.level"
	ConfigLogFormat = "log.format"
	ConfigLogFile   = "log.file"
	ConfigLogSize   = "log.max_size"
	ConfigLogKeep   = "log.backups"
)

const (
	defaultLogMaxSize = 10 * 1024 * 1024
	defaultLogBackups = 5
)

var logger *logrus.Logger

func init() {
	logger = logrus.StandardLogger()
	logger.SetFormatter(&logrus.JSONFormatter{})
}

func Logger() *logrus.Logger {
	return logger
}

// DefaultLoggerAdapter exposes logrus as a stdlib *log.Logger for components
// (like http.Server) that only accept one.
func DefaultLoggerAdapter(logger *logrus.Logger) *log.Logger {
	return log.New(logger.WriterLevel(logrus.ErrorLevel), "", 0)
}

// ConfigureLogger applies level, format and the rotating file sink from the
// configuration. Without a configured file the log goes to stderr only.
func ConfigureLogger(logger *logrus.Logger, v *viper.Viper) {
	logLevel := v.GetString(ConfigLogLevel)
	logFormat := v.GetString(ConfigLogFormat)

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel
	}

	logger.SetLevel(level)

	switch logFormat {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		fallthrough
	case "text":
		logger.SetFormatter(&logrus.TextFormatter{})
	}

	if file := v.GetString(ConfigLogFile); file != "" {
		maxSize := v.GetInt64(ConfigLogSize)
		if maxSize <= 0 {
			maxSize = defaultLogMaxSize
		}

		keep := defaultLogBackups
		if v.IsSet(ConfigLogKeep) {
			keep = v.GetInt(ConfigLogKeep)
		}

		sink := logrotate.New(file, maxSize, keep)
		logger.SetOutput(io.MultiWriter(os.Stderr, sink))
	}
}
