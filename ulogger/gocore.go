package ulogger

import (
	"github.com/ordishs/gocore"
)

// GoCoreLogger writes through gocore, selected with logger_type=gocore.
type GoCoreLogger struct {
	*gocore.Logger
	service string
}

func newGoCoreLogger(service string, opts *Options) Logger {
	return &GoCoreLogger{
		Logger:  gocore.Log(service, gocore.NewLogLevelFromString(opts.logLevel)),
		service: service,
	}
}

// New keeps the parent's level unless WithLevel is given.
func (g *GoCoreLogger) New(service string, options ...Option) Logger {
	opts := &Options{}
	for _, o := range options {
		o(opts)
	}

	if opts.logLevel == "" {
		return &GoCoreLogger{Logger: gocore.Log(service, g.Logger.GetLogLevel()), service: service}
	}

	return &GoCoreLogger{Logger: gocore.Log(service, gocore.NewLogLevelFromString(opts.logLevel)), service: service}
}

func (g *GoCoreLogger) Duplicate(options ...Option) Logger {
	return g.New(g.service, options...)
}

// SetLogLevel is a no-op, gocore fixes the level when the logger is created.
func (g *GoCoreLogger) SetLogLevel(string) {}
