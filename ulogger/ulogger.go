// Package ulogger is the logging facade shared by every txgate service. A Logger is bound to a service
// name which shows up in every line it writes; New derives a logger for a sub component.
package ulogger

import (
	"strings"

	"github.com/ordishs/gocore"
	"github.com/rs/zerolog"
)

type Logger interface {
	LogLevel() int
	SetLogLevel(level string)
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
	New(service string, options ...Option) Logger
	Duplicate(options ...Option) Logger
}

// DefaultService names loggers created without a service.
const DefaultService = "txgate"

// New returns a logger of the configured logger_type, zerolog unless gocore is asked for.
func New(service string, options ...Option) Logger {
	opts := newOptions(options)

	if service == "" {
		service = DefaultService
	}

	if strings.EqualFold(opts.loggerType, "gocore") {
		return newGoCoreLogger(service, opts)
	}

	return newZeroLogger(service, opts)
}

// levelOf maps a level name to a zerolog level. Unknown names are INFO.
func levelOf(name string) zerolog.Level {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return zerolog.DebugLevel
	case "WARN", "WARNING":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	case "FATAL":
		return zerolog.FatalLevel
	case "PANIC":
		return zerolog.PanicLevel
	default:
		return zerolog.InfoLevel
	}
}

// gocoreLevel reports a level in gocore's numbering so every backend's LogLevel compares alike.
func gocoreLevel(level zerolog.Level) int {
	switch level {
	case zerolog.DebugLevel, zerolog.TraceLevel:
		return int(gocore.DEBUG)
	case zerolog.WarnLevel:
		return int(gocore.WARN)
	case zerolog.ErrorLevel:
		return int(gocore.ERROR)
	case zerolog.FatalLevel, zerolog.PanicLevel:
		return int(gocore.FATAL)
	default:
		return int(gocore.INFO)
	}
}
