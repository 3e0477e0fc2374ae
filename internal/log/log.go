package log

import (
	"os"
	"strings"

	charm "github.com/charmbracelet/log"
)

var logger = charm.NewWithOptions(os.Stderr, charm.Options{
	ReportTimestamp: true,
})

// Configure sets the global log level and output format.
// Level is one of trace, debug, info, warn, error; format is console or json.
func Configure(level, format string) {
	switch strings.ToLower(level) {
	case "trace", "debug":
		logger.SetLevel(charm.DebugLevel)
	case "warn":
		logger.SetLevel(charm.WarnLevel)
	case "error":
		logger.SetLevel(charm.ErrorLevel)
	default:
		logger.SetLevel(charm.InfoLevel)
	}

	if strings.EqualFold(format, "json") {
		logger.SetFormatter(charm.JSONFormatter)
	} else {
		logger.SetFormatter(charm.TextFormatter)
	}
}

func Debug(msg string, keyvals ...interface{}) {
	logger.Debug(msg, keyvals...)
}

func Info(msg string, keyvals ...interface{}) {
	logger.Info(msg, keyvals...)
}

func Warn(msg string, keyvals ...interface{}) {
	logger.Warn(msg, keyvals...)
}

func Error(msg string, keyvals ...interface{}) {
	logger.Error(msg, keyvals...)
}

func Fatal(msg string, keyvals ...interface{}) {
	logger.Fatal(msg, keyvals...)
}
