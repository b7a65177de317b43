package ulogger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ordishs/gocore"
	"github.com/rs/zerolog"
	"golang.org/x/term"
)

const (
	colorRed    = 31
	colorGreen  = 32
	colorYellow = 33
	colorBlue   = 34
	colorBold   = 1
)

// ZeroLogger is the default backend. It writes JSON lines, or aligned console lines when PRETTY_LOGS is set
// (the default).
type ZeroLogger struct {
	log     zerolog.Logger
	service string
	writer  io.Writer
	pretty  bool
}

func newZeroLogger(service string, opts *Options) Logger {
	pretty := gocore.Config().GetBool("PRETTY_LOGS", true)
	if opts.pretty != nil {
		pretty = *opts.pretty
	}

	z := &ZeroLogger{
		service: service,
		writer:  opts.writer,
		pretty:  pretty,
	}

	ctx := zerolog.New(z.output()).With().Timestamp()
	if !pretty {
		ctx = ctx.Str("service", service)
	}

	// one frame for the Xxxf wrapper
	z.log = ctx.CallerWithSkipFrameCount(zerolog.CallerSkipFrameCount + 1).Logger().Level(levelOf(opts.logLevel))

	return z
}

func (z *ZeroLogger) output() io.Writer {
	if !z.pretty {
		return z.writer
	}

	color := false
	if f, ok := z.writer.(*os.File); ok && os.Getenv("NO_COLOR") == "" {
		color = term.IsTerminal(int(f.Fd()))
	}

	paint := func(s string, code int) string {
		if !color {
			return s
		}

		return fmt.Sprintf("\x1b[%dm%s\x1b[0m", code, s)
	}

	return zerolog.ConsoleWriter{
		Out:        z.writer,
		NoColor:    !color,
		TimeFormat: time.TimeOnly,
		FormatLevel: func(i interface{}) string {
			level, _ := i.(string)

			label := fmt.Sprintf("%-5s", strings.ToUpper(level))

			switch level {
			case "debug":
				label = paint(label, colorBlue)
			case "info":
				label = paint(label, colorGreen)
			case "warn":
				label = paint(label, colorYellow)
			case "error", "fatal", "panic":
				label = paint(label, colorRed)
			}

			return "| " + label + " |"
		},
		FormatMessage: func(i interface{}) string {
			return fmt.Sprintf("%-10s| %v", z.service, i)
		},
		FormatCaller: func(i interface{}) string {
			caller, _ := i.(string)
			if caller == "" {
				return caller
			}

			return paint(fmt.Sprintf("%-28s", shortCaller(caller)), colorBold)
		},
	}
}

// shortCaller keeps the package directory and file of a caller path: stores/state/memory.go:42 becomes
// state/memory.go:42.
func shortCaller(caller string) string {
	dir, file := filepath.Split(caller)

	return filepath.Join(filepath.Base(dir), file)
}

// New derives a logger for service that writes where z writes, at z's level unless overridden.
func (z *ZeroLogger) New(service string, options ...Option) Logger {
	pretty := z.pretty

	opts := &Options{
		logLevel: z.log.GetLevel().String(),
		writer:   z.writer,
		pretty:   &pretty,
	}

	for _, o := range options {
		o(opts)
	}

	return newZeroLogger(service, opts)
}

func (z *ZeroLogger) Duplicate(options ...Option) Logger {
	return z.New(z.service, options...)
}

func (z *ZeroLogger) SetLogLevel(level string) {
	z.log = z.log.Level(levelOf(level))
}

func (z *ZeroLogger) LogLevel() int {
	return gocoreLevel(z.log.GetLevel())
}

func (z *ZeroLogger) Debugf(format string, args ...interface{}) {
	z.log.Debug().Msgf(format, args...)
}

func (z *ZeroLogger) Infof(format string, args ...interface{}) {
	z.log.Info().Msgf(format, args...)
}

func (z *ZeroLogger) Warnf(format string, args ...interface{}) {
	z.log.Warn().Msgf(format, args...)
}

func (z *ZeroLogger) Errorf(format string, args ...interface{}) {
	z.log.Error().Msgf(format, args...)
}

func (z *ZeroLogger) Fatalf(format string, args ...interface{}) {
	z.log.Fatal().Msgf(format, args...)
}
