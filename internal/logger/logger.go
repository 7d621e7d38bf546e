package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel/trace"

	objgwerrors "github.com/objgw-labs/objgw/pkg/objgw/v1/errors"
	objgwlog "github.com/objgw-labs/objgw/pkg/objgw/v1/log"
)

// Default log level if not specified or invalid.
const defaultLevel = slog.LevelInfo

// parseLogLevel converts common log level strings (case-insensitive) to slog.Level values.
func parseLogLevel(levelStr string) slog.Level {
	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return defaultLevel
	}
}

// defaultLogger implements the public objgwlog.Logger interface
// using the standard Go slog library.
type defaultLogger struct {
	*slog.Logger
}

// Compile-time check to ensure defaultLogger implements the public Logger interface.
var _ objgwlog.Logger = (*defaultLogger)(nil)

// NewLogger creates a new Logger instance configured with the specified level,
// output format ("text" or "json"), and writer (defaults to os.Stderr).
// Log records emitted with a context carrying an active span automatically
// gain trace_id and span_id attributes, tying gateway logs to exported traces.
func NewLogger(levelStr string, formatStr string, writer io.Writer) objgwlog.Logger {
	level := parseLogLevel(levelStr)
	if writer == nil {
		writer = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceLevelAttribute,
	}

	var baseHandler slog.Handler
	switch strings.ToLower(formatStr) {
	case "json":
		baseHandler = slog.NewJSONHandler(writer, opts)
	case "text":
		fallthrough
	default:
		baseHandler = slog.NewTextHandler(writer, opts)
	}

	return &defaultLogger{
		Logger: slog.New(NewTraceContextHandler(baseHandler)),
	}
}

// NewDefaultLogger provides a basic text logger instance writing to Stderr.
// Useful for simple cases or when configuration is unavailable.
func NewDefaultLogger(levelStr string) objgwlog.Logger {
	return NewLogger(levelStr, "text", os.Stderr)
}

// Mapping from slog levels to desired uppercase string representation in logs.
var levelStringMap = map[slog.Level]string{
	slog.LevelDebug: "DEBUG",
	slog.LevelInfo:  "INFO",
	slog.LevelWarn:  "WARN",
	slog.LevelError: "ERROR",
}

// replaceLevelAttribute customizes the output of the standard slog level
// attribute to be an uppercase string (e.g., "INFO").
func replaceLevelAttribute(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey {
		level, ok := a.Value.Any().(slog.Level)
		if !ok {
			return a
		}
		levelStr, exists := levelStringMap[level]
		if !exists {
			levelStr = level.String()
		}
		a.Value = slog.StringValue(levelStr)
	}
	return a
}

// Debugf logs a formatted message at the DEBUG level.
func (l *defaultLogger) Debugf(format string, args ...interface{}) {
	if l.Logger.Enabled(context.Background(), slog.LevelDebug) {
		l.Logger.Log(context.Background(), slog.LevelDebug, fmt.Sprintf(format, args...))
	}
}

// Infof logs a formatted message at the INFO level.
func (l *defaultLogger) Infof(format string, args ...interface{}) {
	if l.Logger.Enabled(context.Background(), slog.LevelInfo) {
		l.Logger.Log(context.Background(), slog.LevelInfo, fmt.Sprintf(format, args...))
	}
}

// Warnf logs a formatted message at the WARN level.
func (l *defaultLogger) Warnf(format string, args ...interface{}) {
	if l.Logger.Enabled(context.Background(), slog.LevelWarn) {
		l.Logger.Log(context.Background(), slog.LevelWarn, fmt.Sprintf(format, args...))
	}
}

// Errorf logs a formatted message at the ERROR level. If the last argument is
// an error it is additionally logged structurally; known objgw error types
// (StoreError, NotFoundError) contribute their fields as attributes.
func (l *defaultLogger) Errorf(format string, args ...interface{}) {
	if l.Logger.Enabled(context.Background(), slog.LevelError) {
		msg := fmt.Sprintf(format, args...)
		l.logHelper(context.Background(), slog.LevelError, msg, args...)
	}
}

// logHelper adds structured error details to log entries when the last
// argument is an error.
func (l *defaultLogger) logHelper(ctx context.Context, level slog.Level, msg string, args ...interface{}) {
	logArgs := []any{}

	if len(args) > 0 {
		if err, ok := args[len(args)-1].(error); ok {
			var storeErr *objgwerrors.StoreError
			var notFound *objgwerrors.NotFoundError
			switch {
			case errors.As(err, &storeErr):
				logArgs = append(logArgs,
					slog.String("error_type", "StoreError"),
					slog.String("op", storeErr.Op),
					slog.String("bucket", storeErr.Bucket),
				)
				if storeErr.Key != "" {
					logArgs = append(logArgs, slog.String("key", storeErr.Key))
				}
				if storeErr.Cause != nil {
					logArgs = append(logArgs, slog.String("error", storeErr.Cause.Error()))
				} else {
					logArgs = append(logArgs, slog.String("error", storeErr.Error()))
				}
			case errors.As(err, &notFound):
				logArgs = append(logArgs,
					slog.String("error_type", "NotFoundError"),
					slog.String("bucket", notFound.Bucket),
					slog.String("key", notFound.Key),
				)
			default:
				logArgs = append(logArgs, slog.String("error", err.Error()))
			}
		}
	}
	l.Logger.Log(ctx, level, msg, logArgs...)
}

// Log logs a message at the specified level with explicit key-value pairs.
func (l *defaultLogger) Log(level slog.Level, msg string, args ...interface{}) {
	l.Logger.Log(context.Background(), level, msg, args...)
}

// LogCtx logs a message at the specified level, potentially including
// trace/span IDs from the context via the TraceContextHandler.
func (l *defaultLogger) LogCtx(ctx context.Context, level slog.Level, msg string, args ...interface{}) {
	l.Logger.Log(ctx, level, msg, args...)
}

// With returns a new Logger instance with added attributes.
func (l *defaultLogger) With(args ...interface{}) objgwlog.Logger {
	return &defaultLogger{Logger: l.Logger.With(args...)}
}

// IsEnabled checks if logging is enabled for the specified level.
func (l *defaultLogger) IsEnabled(level slog.Level) bool {
	return l.Logger.Enabled(context.Background(), level)
}

// --- TraceContextHandler for Trace/Span ID Injection ---

// TraceContextHandler is a slog.Handler middleware that automatically injects
// trace_id and span_id attributes into log records if a valid span context
// exists in the logging context.
type TraceContextHandler struct {
	next slog.Handler
}

// NewTraceContextHandler creates a new TraceContextHandler wrapping the provided handler.
func NewTraceContextHandler(next slog.Handler) *TraceContextHandler {
	return &TraceContextHandler{next: next}
}

// Enabled forwards the check to the wrapped handler.
func (h *TraceContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle adds trace and span IDs from the context, when present, before
// forwarding the record to the wrapped handler.
func (h *TraceContextHandler) Handle(ctx context.Context, record slog.Record) error {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		record.AddAttrs(
			slog.String("trace_id", span.SpanContext().TraceID().String()),
			slog.String("span_id", span.SpanContext().SpanID().String()),
		)
	}
	return h.next.Handle(ctx, record)
}

// WithAttrs returns a new TraceContextHandler wrapping the result of calling
// WithAttrs on the next handler.
func (h *TraceContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return NewTraceContextHandler(h.next.WithAttrs(attrs))
}

// WithGroup returns a new TraceContextHandler wrapping the result of calling
// WithGroup on the next handler.
func (h *TraceContextHandler) WithGroup(name string) slog.Handler {
	return NewTraceContextHandler(h.next.WithGroup(name))
}
