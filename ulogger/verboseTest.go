package ulogger

import (
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

// VerboseTestLogger sends log lines to t.Logf so they only show for failing tests or with -v. Lines carry
// the service name and are filtered by level like the real loggers.
type VerboseTestLogger struct {
	t       testing.TB
	mu      *sync.Mutex
	service string
	level   zerolog.Level
}

func NewVerboseTestLogger(t testing.TB) *VerboseTestLogger {
	return &VerboseTestLogger{t: t, mu: &sync.Mutex{}, service: DefaultService, level: zerolog.DebugLevel}
}

func (l *VerboseTestLogger) LogLevel() int {
	return gocoreLevel(l.level)
}

func (l *VerboseTestLogger) SetLogLevel(level string) {
	l.mu.Lock()
	l.level = levelOf(level)
	l.mu.Unlock()
}

func (l *VerboseTestLogger) New(service string, options ...Option) Logger {
	opts := &Options{}
	for _, o := range options {
		o(opts)
	}

	child := &VerboseTestLogger{t: l.t, mu: l.mu, service: service, level: l.level}
	if opts.logLevel != "" {
		child.level = levelOf(opts.logLevel)
	}

	return child
}

func (l *VerboseTestLogger) Duplicate(options ...Option) Logger {
	return l.New(l.service, options...)
}

func (l *VerboseTestLogger) Debugf(format string, args ...interface{}) {
	l.logf(zerolog.DebugLevel, format, args)
}

func (l *VerboseTestLogger) Infof(format string, args ...interface{}) {
	l.logf(zerolog.InfoLevel, format, args)
}

func (l *VerboseTestLogger) Warnf(format string, args ...interface{}) {
	l.logf(zerolog.WarnLevel, format, args)
}

func (l *VerboseTestLogger) Errorf(format string, args ...interface{}) {
	l.logf(zerolog.ErrorLevel, format, args)
}

// Fatalf fails the test instead of exiting.
func (l *VerboseTestLogger) Fatalf(format string, args ...interface{}) {
	l.t.Helper()
	l.t.Fatalf("[FATAL] "+l.service+": "+format, args...)
}

func (l *VerboseTestLogger) logf(level zerolog.Level, format string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level {
		return
	}

	l.t.Helper()
	l.t.Logf("["+level.String()+"] "+l.service+": "+format, args...)
}
