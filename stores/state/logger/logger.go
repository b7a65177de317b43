// Package logger wraps a state store and logs every call at debug level, enabled with logger=true on the store URL.
package logger

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/bsv-blockchain/txgate/model"
	"github.com/bsv-blockchain/txgate/stores/state/options"
	"github.com/bsv-blockchain/txgate/ulogger"
	"github.com/bsv-blockchain/txgate/util/health"
)

type stateStore interface {
	Read(ctx context.Context, uri string) (*model.Record, error)
	Write(ctx context.Context, uri string, value any) (*model.Record, error)
	List(ctx context.Context, prefix string, opts ...options.ListOption) (*model.ListResult, error)
	Delete(ctx context.Context, uri string) error
	Health(ctx context.Context) health.Report
	Close(ctx context.Context) error
}

type Logger struct {
	logger ulogger.Logger
	store  stateStore
}

func New(logger ulogger.Logger, store stateStore) *Logger {
	return &Logger{
		logger: logger,
		store:  store,
	}
}

func caller() string {
	var callers []string

	for i := 0; i < 3; i++ {
		pc, file, line, ok := runtime.Caller(2 + i)
		if !ok {
			break
		}

		folders := strings.Split(file, string(filepath.Separator))
		if len(folders) > 2 {
			folders = folders[len(folders)-2:]
		}

		funcName := runtime.FuncForPC(pc).Name()
		funcPaths := strings.Split(funcName, "/")

		callers = append(callers, fmt.Sprintf("called from %s: %s:%d", funcPaths[len(funcPaths)-1], filepath.Join(folders...), line))
	}

	return strings.Join(callers, ",")
}

func (s *Logger) Read(ctx context.Context, uri string) (*model.Record, error) {
	record, err := s.store.Read(ctx, uri)
	s.logger.Debugf("[StateStore][logger][Read] uri %s, err %v : %s", uri, err, caller())

	return record, err
}

func (s *Logger) Write(ctx context.Context, uri string, value any) (*model.Record, error) {
	record, err := s.store.Write(ctx, uri, value)
	s.logger.Debugf("[StateStore][logger][Write] uri %s, err %v : %s", uri, err, caller())

	return record, err
}

func (s *Logger) List(ctx context.Context, prefix string, opts ...options.ListOption) (*model.ListResult, error) {
	result, err := s.store.List(ctx, prefix, opts...)

	count := 0
	if result != nil {
		count = len(result.Data)
	}

	s.logger.Debugf("[StateStore][logger][List] prefix %s, items %d, err %v : %s", prefix, count, err, caller())

	return result, err
}

func (s *Logger) Delete(ctx context.Context, uri string) error {
	err := s.store.Delete(ctx, uri)
	s.logger.Debugf("[StateStore][logger][Delete] uri %s, err %v : %s", uri, err, caller())

	return err
}

func (s *Logger) Health(ctx context.Context) health.Report {
	report := s.store.Health(ctx)
	s.logger.Debugf("[StateStore][logger][Health] %s %s", report.Status, report.Message)

	return report
}

func (s *Logger) Close(ctx context.Context) error {
	s.logger.Debugf("[StateStore][logger][Close] : %s", caller())
	return s.store.Close(ctx)
}
