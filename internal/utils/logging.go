package utils

import (
	"log/slog"
	"os"

	logfilter "github.com/jmylchreest/slog-logfilter"

	"github.com/ryunzz/iris/internal/config"
)

// GetLogLevel converts a string log level to slog.Level.
func GetLogLevel(level string) slog.Level {
	switch level {
	case config.LogLevelDebug:
		return slog.LevelDebug
	case config.LogLevelWarn:
		return slog.LevelWarn
	case config.LogLevelError:
		return slog.LevelError
	case config.LogLevelInfo:
		fallthrough
	default:
		return slog.LevelInfo
	}
}

// ValidateLogLevel ensures the provided level is valid, returning the
// default if not.
func ValidateLogLevel(level string) string {
	switch level {
	case config.LogLevelDebug, config.LogLevelInfo, config.LogLevelWarn, config.LogLevelError:
		return level
	default:
		return config.LogLevelInfo
	}
}

// ValidateLogFormat ensures the provided format is valid, returning the
// default if not.
func ValidateLogFormat(format string) string {
	switch format {
	case config.LogFormatText, config.LogFormatJSON:
		return format
	default:
		return config.LogFormatText
	}
}

// SetupLogger creates the daemon logger backed by slog-logfilter, so the
// level and filters can be changed at runtime through the logging API.
func SetupLogger(level string, format string) *slog.Logger {
	return logfilter.New(
		logfilter.WithLevel(GetLogLevel(ValidateLogLevel(level))),
		logfilter.WithFormat(ValidateLogFormat(format)),
		logfilter.WithSource(true),
		logfilter.WithOutput(os.Stderr),
	)
}

// SetupErrorLogger creates a minimal error-only logger for reporting
// failures before configuration is loaded.
func SetupErrorLogger() *slog.Logger {
	return logfilter.New(
		logfilter.WithLevel(slog.LevelError),
		logfilter.WithFormat(config.LogFormatText),
		logfilter.WithOutput(os.Stderr),
	)
}
