// =============================================================================
// QDX Converter - Logger
// =============================================================================
//
// Leveled, structured logging backed by zap. Messages take key/value pairs:
//
//   log.Warn("bad bcd timestamp", "slot", 17, "session", "12_4503")
//
// Packages that log accept the Logger interface, so tests can pass Nop().
//
// =============================================================================

package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the logging surface used throughout the converter.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Zap wraps a zap SugaredLogger.
type Zap struct {
	SugaredLogger *zap.SugaredLogger
}

// New builds a logger. mode "prod"/"production" selects JSON output,
// anything else the development console encoder. level is one of
// debug, info, warn, error. Output goes to stderr plus any extra paths.
func New(mode, level string, outputs ...string) (*Zap, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}

	var cfg zap.Config
	switch strings.ToLower(mode) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = append([]string{"stderr"}, outputs...)

	zapLogger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return &Zap{SugaredLogger: zapLogger.Sugar()}, nil
}

// Nop returns a logger that discards everything.
func Nop() *Zap {
	return &Zap{SugaredLogger: zap.NewNop().Sugar()}
}

func parseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "", "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", level)
	}
}

// Sync flushes buffered entries.
func (l *Zap) Sync() {
	_ = l.SugaredLogger.Sync()
}

func (l *Zap) Debug(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Debugw(msg, keysAndValues...)
}

func (l *Zap) Info(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Infow(msg, keysAndValues...)
}

func (l *Zap) Warn(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Warnw(msg, keysAndValues...)
}

func (l *Zap) Error(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Errorw(msg, keysAndValues...)
}

// With returns a child logger carrying the given fields.
func (l *Zap) With(keysAndValues ...interface{}) *Zap {
	return &Zap{SugaredLogger: l.SugaredLogger.With(keysAndValues...)}
}

// With returns l carrying the given fields. A *Zap uses its native child
// logger; any other Logger gets the fields appended to every call.
func With(l Logger, keysAndValues ...interface{}) Logger {
	if z, ok := l.(*Zap); ok {
		return z.With(keysAndValues...)
	}
	return &fielded{base: l, fields: keysAndValues}
}

type fielded struct {
	base   Logger
	fields []interface{}
}

func (f *fielded) kv(extra []interface{}) []interface{} {
	out := make([]interface{}, 0, len(f.fields)+len(extra))
	return append(append(out, f.fields...), extra...)
}

func (f *fielded) Debug(msg string, keysAndValues ...interface{}) {
	f.base.Debug(msg, f.kv(keysAndValues)...)
}

func (f *fielded) Info(msg string, keysAndValues ...interface{}) {
	f.base.Info(msg, f.kv(keysAndValues)...)
}

func (f *fielded) Warn(msg string, keysAndValues ...interface{}) {
	f.base.Warn(msg, f.kv(keysAndValues)...)
}

func (f *fielded) Error(msg string, keysAndValues ...interface{}) {
	f.base.Error(msg, f.kv(keysAndValues)...)
}
