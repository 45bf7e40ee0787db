package indigo

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sirupsen/logrus"
)

// Logger provides structured logging.
type Logger interface {
	Debug(ctx context.Context, msg string, keysAndValues ...any)
	Info(ctx context.Context, msg string, keysAndValues ...any)
	Error(ctx context.Context, msg string, keysAndValues ...any)
}

// NopLogger discards everything. It is the default for a Store.
type NopLogger struct{}

func (NopLogger) Debug(ctx context.Context, msg string, keysAndValues ...any) {}
func (NopLogger) Info(ctx context.Context, msg string, keysAndValues ...any)  {}
func (NopLogger) Error(ctx context.Context, msg string, keysAndValues ...any) {}

// SlogLogger adapts a *slog.Logger to Logger.
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger wraps logger. A nil logger uses slog.Default().
//
// Example:
//
//	logger := indigo.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
//	store := indigo.New(state, indigo.WithLogger(logger))
func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogLogger{logger: logger}
}

func (l *SlogLogger) Debug(ctx context.Context, msg string, keysAndValues ...any) {
	l.logger.DebugContext(ctx, msg, keysAndValues...)
}

func (l *SlogLogger) Info(ctx context.Context, msg string, keysAndValues ...any) {
	l.logger.InfoContext(ctx, msg, keysAndValues...)
}

func (l *SlogLogger) Error(ctx context.Context, msg string, keysAndValues ...any) {
	l.logger.ErrorContext(ctx, msg, keysAndValues...)
}

// LogrusLogger adapts a logrus logger to Logger. Key-value pairs become
// logrus fields.
type LogrusLogger struct {
	entry *logrus.Entry
}

// NewLogrusLogger wraps logger. A nil logger uses logrus.StandardLogger().
func NewLogrusLogger(logger *logrus.Logger) *LogrusLogger {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LogrusLogger{entry: logrus.NewEntry(logger)}
}

func (l *LogrusLogger) Debug(ctx context.Context, msg string, keysAndValues ...any) {
	l.with(ctx, keysAndValues).Debug(msg)
}

func (l *LogrusLogger) Info(ctx context.Context, msg string, keysAndValues ...any) {
	l.with(ctx, keysAndValues).Info(msg)
}

func (l *LogrusLogger) Error(ctx context.Context, msg string, keysAndValues ...any) {
	l.with(ctx, keysAndValues).Error(msg)
}

func (l *LogrusLogger) with(ctx context.Context, keysAndValues []any) *logrus.Entry {
	fields := make(logrus.Fields, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		fields[key] = keysAndValues[i+1]
	}
	return l.entry.WithContext(ctx).WithFields(fields)
}
