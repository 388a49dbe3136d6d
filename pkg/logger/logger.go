// Package logger provides a zap-based application logger.
package logger

import (
	"context"
	"io"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level is a logging priority.
type Level = zapcore.Level

// Supported levels.
const (
	LevelDebug = zapcore.DebugLevel
	LevelInfo  = zapcore.InfoLevel
	LevelWarn  = zapcore.WarnLevel
	LevelError = zapcore.ErrorLevel
)

// TraceIDFn extracts a trace id from a context. An empty result is not logged.
type TraceIDFn func(ctx context.Context) string

// Logger writes structured key/value log lines.
type Logger struct {
	sugar   *zap.SugaredLogger
	traceID TraceIDFn
}

// New builds a JSON logger writing to w at the given minimum level.
func New(w io.Writer, level Level, service string, traceID TraceIDFn) *Logger {
	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "ts"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(enc), zapcore.AddSync(w), level)
	z := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))

	return &Logger{
		sugar:   z.Sugar().With("service", service),
		traceID: traceID,
	}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{sugar: zap.NewNop().Sugar()}
}

// ParseLevel maps a level name to a Level, falling back to info.
func ParseLevel(s string) Level {
	lvl, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return LevelInfo
	}
	return lvl
}

// With returns a child logger that always includes the given pairs.
func (l *Logger) With(keysAndValues ...any) *Logger {
	return &Logger{sugar: l.sugar.With(keysAndValues...), traceID: l.traceID}
}

// Debug logs at debug level.
func (l *Logger) Debug(ctx context.Context, msg string, keysAndValues ...any) {
	l.sugar.Debugw(msg, l.withTrace(ctx, keysAndValues)...)
}

// Info logs at info level.
func (l *Logger) Info(ctx context.Context, msg string, keysAndValues ...any) {
	l.sugar.Infow(msg, l.withTrace(ctx, keysAndValues)...)
}

// Warn logs at warn level.
func (l *Logger) Warn(ctx context.Context, msg string, keysAndValues ...any) {
	l.sugar.Warnw(msg, l.withTrace(ctx, keysAndValues)...)
}

// Error logs at error level.
func (l *Logger) Error(ctx context.Context, msg string, keysAndValues ...any) {
	l.sugar.Errorw(msg, l.withTrace(ctx, keysAndValues)...)
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.sugar.Sync()
}

func (l *Logger) withTrace(ctx context.Context, kv []any) []any {
	if l.traceID == nil || ctx == nil {
		return kv
	}
	if id := l.traceID(ctx); id != "" {
		return append(kv, "trace_id", id)
	}
	return kv
}
