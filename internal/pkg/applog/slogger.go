package applog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// LevelTrace is one step below slog.LevelDebug.
const LevelTrace = slog.Level(-8)

// DefaultLogger wraps slog.Logger and implements AppLogger.
type DefaultLogger struct {
	logger *slog.Logger
}

// NewAppDefaultLogger builds the process logger from the log.level and
// log.format viper keys. Output goes to stdout.
func NewAppDefaultLogger() *DefaultLogger {
	return NewLogger(os.Stdout, viper.GetString("log.level"), viper.GetString("log.format"))
}

// NewLogger builds a logger writing to w. format is "json" or "text"
// (anything else falls back to text).
func NewLogger(w io.Writer, level, format string) *DefaultLogger {
	opts := &slog.HandlerOptions{
		Level: parseLogLevel(level),
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}
	var h slog.Handler
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return &DefaultLogger{logger: slog.New(h)}
}

func (l *DefaultLogger) Info(msg string, args ...any) {
	l.log(slog.LevelInfo, msg, args...)
}

func (l *DefaultLogger) Warn(msg string, args ...any) {
	l.log(slog.LevelWarn, msg, args...)
}

func (l *DefaultLogger) Error(msg string, args ...any) {
	l.log(slog.LevelError, msg, args...)
}

func (l *DefaultLogger) Debug(msg string, args ...any) {
	l.log(slog.LevelDebug, msg, args...)
}

func (l *DefaultLogger) Trace(msg string, args ...any) {
	l.log(LevelTrace, msg, args...)
}

func (l *DefaultLogger) Fatal(msg string, args ...any) {
	l.log(slog.LevelError, msg, args...)
	os.Exit(1)
}

func (l *DefaultLogger) log(level slog.Level, msg string, args ...any) {
	ctx := context.Background()
	if !l.logger.Enabled(ctx, level) {
		return
	}
	if src := callerSource(2); src != "" {
		args = append([]any{"source", src}, args...)
	}
	l.logger.Log(ctx, level, msg, args...)
}

func callerSource(skip int) string {
	_, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s:%d", file, line)
}

func parseLogLevel(s string) slog.Level {
	s = strings.TrimSpace(strings.ToLower(s))
	switch s {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "info", "":
		return slog.LevelInfo
	default:
		return slog.LevelInfo
	}
}

// Nop discards everything. Useful for wiring optional components.
type Nop struct{}

func (Nop) Info(string, ...any)  {}
func (Nop) Warn(string, ...any)  {}
func (Nop) Error(string, ...any) {}
func (Nop) Debug(string, ...any) {}
func (Nop) Trace(string, ...any) {}
func (Nop) Fatal(string, ...any) {}
