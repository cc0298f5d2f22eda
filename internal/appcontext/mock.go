package appcontext

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/coecms/clef/pkg/reconcile"
)

// Query is one call recorded by Mock.LogQuery.
type Query struct {
	Project     string
	Flow        string
	Text        string
	Constraints map[string][]string
}

// Mock provides a mock implementation of Interface for testing.
// If a function field is nil, the method returns a default/zero value.
type Mock struct {
	ReconcilerFunc   func() (*reconcile.Reconciler, error)
	LoggerFunc       func() *zerolog.Logger
	OutputFormatFunc func() string
	SettingsValue    Settings
	NowFunc          func() time.Time

	// Queries collects LogQuery calls.
	Queries []Query
}

// Reconciler returns a reconciler using the mock function or nil.
func (m *Mock) Reconciler() (*reconcile.Reconciler, error) {
	if m.ReconcilerFunc != nil {
		return m.ReconcilerFunc()
	}
	return nil, nil
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat returns the format using the mock function or "".
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return ""
}

// Settings returns SettingsValue.
func (m *Mock) Settings() Settings {
	return m.SettingsValue
}

// Now returns the time using the mock function or a fixed instant.
func (m *Mock) Now() time.Time {
	if m.NowFunc != nil {
		return m.NowFunc()
	}
	return time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
}

// LogQuery records the call.
func (m *Mock) LogQuery(project, flow, text string, constraints map[string][]string) {
	m.Queries = append(m.Queries, Query{Project: project, Flow: flow, Text: text, Constraints: constraints})
}

// Version returns "dev".
func (m *Mock) Version() string { return "dev" }

// Commit returns "unknown".
func (m *Mock) Commit() string { return "unknown" }

// Date returns "unknown".
func (m *Mock) Date() string { return "unknown" }

// BuiltBy returns "unknown".
func (m *Mock) BuiltBy() string { return "unknown" }

var _ Interface = (*Mock)(nil)
