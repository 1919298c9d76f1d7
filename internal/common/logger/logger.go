// internal/common/logger/logger.go
package logger

import (
	"sort"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

// Logger is the structured logging interface handlers depend on. Fields are
// plain maps so worker code stays decoupled from the zap field types.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	WithFields(fields map[string]interface{}) Logger
	WithError(err error) Logger
}

// New builds the process-wide zap logger. format "json" selects the
// production encoder; anything else gets the console encoder for local runs.
func New(levelStr, format string) *zap.Logger {
	level, err := zapcore.ParseLevel(levelStr)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var cfg zap.Config
	if format == "json" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	log, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

// NewZapAdapter exposes an existing zap logger through the Logger interface.
func NewZapAdapter(l *zap.Logger) Logger {
	return &zapAdapter{l: l}
}

// NewTestLogger routes log output through the test runner.
func NewTestLogger(t testing.TB) Logger {
	return &zapAdapter{l: zaptest.NewLogger(t)}
}

// NewNoOpLogger discards everything. Handler tests use it so assertion
// failures are not buried in log noise.
func NewNoOpLogger() Logger {
	return &zapAdapter{l: zap.NewNop()}
}

type zapAdapter struct {
	l *zap.Logger
}

func (a *zapAdapter) Debug(msg string, fields map[string]interface{}) {
	a.l.Debug(msg, toZapFields(fields)...)
}

func (a *zapAdapter) Info(msg string, fields map[string]interface{}) {
	a.l.Info(msg, toZapFields(fields)...)
}

func (a *zapAdapter) Warn(msg string, fields map[string]interface{}) {
	a.l.Warn(msg, toZapFields(fields)...)
}

func (a *zapAdapter) Error(msg string, fields map[string]interface{}) {
	a.l.Error(msg, toZapFields(fields)...)
}

func (a *zapAdapter) WithFields(fields map[string]interface{}) Logger {
	return &zapAdapter{l: a.l.With(toZapFields(fields)...)}
}

func (a *zapAdapter) WithError(err error) Logger {
	return &zapAdapter{l: a.l.With(zap.Error(err))}
}

// toZapFields converts a field map in key order so repeated log lines keep a
// stable field layout.
func toZapFields(fields map[string]interface{}) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		out = append(out, zap.Any(k, fields[k]))
	}
	return out
}
