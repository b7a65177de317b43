// Package mocklogger provides a ulogger.Logger that records every formatted line so tests can assert on
// what was logged.
package mocklogger

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/bsv-blockchain/txgate/ulogger"
	"github.com/stretchr/testify/assert"
)

type Entry struct {
	Method  string
	Service string
	Message string
}

type recorder struct {
	mu      sync.Mutex
	entries []Entry
}

// MockLogger records instead of writing. Loggers derived with New share the parent's record.
type MockLogger struct {
	rec     *recorder
	service string
}

func NewTestLogger() *MockLogger {
	return &MockLogger{rec: &recorder{}, service: ulogger.DefaultService}
}

func (l *MockLogger) LogLevel() int {
	return 0
}

func (l *MockLogger) SetLogLevel(string) {}

func (l *MockLogger) New(service string, _ ...ulogger.Option) ulogger.Logger {
	return &MockLogger{rec: l.rec, service: service}
}

func (l *MockLogger) Duplicate(options ...ulogger.Option) ulogger.Logger {
	return l.New(l.service, options...)
}

func (l *MockLogger) Debugf(format string, args ...interface{}) { l.record("Debugf", format, args) }
func (l *MockLogger) Infof(format string, args ...interface{})  { l.record("Infof", format, args) }
func (l *MockLogger) Warnf(format string, args ...interface{})  { l.record("Warnf", format, args) }
func (l *MockLogger) Errorf(format string, args ...interface{}) { l.record("Errorf", format, args) }
func (l *MockLogger) Fatalf(format string, args ...interface{}) { l.record("Fatalf", format, args) }

func (l *MockLogger) record(method, format string, args []interface{}) {
	l.rec.mu.Lock()
	defer l.rec.mu.Unlock()

	l.rec.entries = append(l.rec.entries, Entry{
		Method:  method,
		Service: l.service,
		Message: fmt.Sprintf(format, args...),
	})
}

// Entries returns the recorded lines of method, all lines when method is empty.
func (l *MockLogger) Entries(method string) []Entry {
	l.rec.mu.Lock()
	defer l.rec.mu.Unlock()

	entries := make([]Entry, 0, len(l.rec.entries))

	for _, e := range l.rec.entries {
		if method == "" || e.Method == method {
			entries = append(entries, e)
		}
	}

	return entries
}

func (l *MockLogger) Calls(method string) int {
	return len(l.Entries(method))
}

func (l *MockLogger) AssertNumberOfCalls(t *testing.T, method string, expected int) {
	t.Helper()
	assert.Equal(t, expected, l.Calls(method), "calls to %s", method)
}

// AssertLogged checks that some line of method contains substr.
func (l *MockLogger) AssertLogged(t *testing.T, method, substr string) {
	t.Helper()

	for _, e := range l.Entries(method) {
		if strings.Contains(e.Message, substr) {
			return
		}
	}

	assert.Failf(t, "line not logged", "no %s line contains %q", method, substr)
}

func (l *MockLogger) Reset() {
	l.rec.mu.Lock()
	defer l.rec.mu.Unlock()

	l.rec.entries = nil
}
