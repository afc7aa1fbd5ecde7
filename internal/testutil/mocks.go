package testutil

import (
	"context"
	"fmt"
	"sync"

	"mixtrack/internal/providers"
)

// LogEntry captures a single logger call for assertions.
type LogEntry struct {
	Level   string
	Type    providers.TypeEnum
	Message string
}

// MockLogger records every call so tests can assert on what was logged.
type MockLogger struct {
	mu      sync.Mutex
	Entries []LogEntry
}

func NewMockLogger() *MockLogger {
	return &MockLogger{}
}

func (m *MockLogger) record(level string, t providers.TypeEnum, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = append(m.Entries, LogEntry{
		Level:   level,
		Type:    t,
		Message: fmt.Sprintf(format, args...),
	})
}

func (m *MockLogger) Errorf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("error", t, format, args...)
}

func (m *MockLogger) Warnf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("warn", t, format, args...)
}

func (m *MockLogger) Infof(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("info", t, format, args...)
}

func (m *MockLogger) Debugf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("debug", t, format, args...)
}

func (m *MockLogger) Fatalf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("fatal", t, format, args...)
}

func (m *MockLogger) Close() {}

// MessagesAt returns the recorded messages at the given level.
func (m *MockLogger) MessagesAt(level string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, e := range m.Entries {
		if e.Level == level {
			out = append(out, e.Message)
		}
	}
	return out
}

// SendCall is one captured SenderInterface.Send invocation.
type SendCall struct {
	Method   string
	Endpoint string
	Payload  any
}

// MockSender records Send calls instead of hitting the network and returns
// Err, when set, for every call.
type MockSender struct {
	mu    sync.Mutex
	Calls []SendCall
	Err   error
}

func NewMockSender() *MockSender {
	return &MockSender{}
}

func (m *MockSender) Send(_ context.Context, method, endpoint string, payload any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, SendCall{Method: method, Endpoint: endpoint, Payload: payload})
	return m.Err
}

// LastCall returns the most recent Send call, or false when none happened.
func (m *MockSender) LastCall() (SendCall, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Calls) == 0 {
		return SendCall{}, false
	}
	return m.Calls[len(m.Calls)-1], true
}

// CallCount returns the number of recorded Send calls.
func (m *MockSender) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// Reset drops all recorded calls.
func (m *MockSender) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = nil
}
