package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

var (
	mqcLogger atomic.Pointer[MQCLogger]
	level     = new(slog.LevelVar)
)

func init() {
	mqcLogger.Store(NewMQCLogger(os.Stderr, FORMAT_TEXT))
}

const (
	FORMAT_TEXT = "text"
	FORMAT_JSON = "json"
)

type MQCLogger struct {
	slogger *slog.Logger
}

// NewMQCLogger returns a logger writing to w. The level is shared by all loggers.
func NewMQCLogger(w io.Writer, format string) *MQCLogger {
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	switch format {
	case FORMAT_JSON:
		h = slog.NewJSONHandler(w, opts)
	default:
		h = slog.NewTextHandler(w, opts)
	}
	return &MQCLogger{
		slogger: slog.New(h),
	}
}

func Default() *MQCLogger {
	return mqcLogger.Load()
}

// SetDefault replaces the package logger and the slog default.
func SetDefault(l *MQCLogger) {
	mqcLogger.Store(l)
	slog.SetDefault(l.slogger)
}

func SetLogLevel(l slog.Level) {
	level.Set(l)
}

func GetLogLevel() slog.Level {
	return level.Level()
}

// ParseLevel converts a configured level name. Unknown names are an error.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
}

// Slog exposes the underlying logger for libraries that want one.
func (l *MQCLogger) Slog() *slog.Logger {
	return l.slogger
}

// With returns a logger that adds args to every record.
func (l *MQCLogger) With(args ...any) *MQCLogger {
	return &MQCLogger{slogger: l.slogger.With(args...)}
}

func (l *MQCLogger) Enabled(lvl slog.Level) bool {
	return l.slogger.Enabled(context.Background(), lvl)
}

// slog wrapper

func Debug(msg string, args ...any) {
	mqcLogger.Load().Debug(msg, args...)
}

func Info(msg string, args ...any) {
	mqcLogger.Load().Info(msg, args...)
}

func Warn(msg string, args ...any) {
	mqcLogger.Load().Warn(msg, args...)
}

func Error(msg string, args ...any) {
	mqcLogger.Load().Error(msg, args...)
}

func (l *MQCLogger) Debug(msg string, args ...any) {
	l.slogger.Debug(msg, args...)
}

func (l *MQCLogger) Info(msg string, args ...any) {
	l.slogger.Info(msg, args...)
}

func (l *MQCLogger) Warn(msg string, args ...any) {
	l.slogger.Warn(msg, args...)
}

func (l *MQCLogger) Error(msg string, args ...any) {
	l.slogger.Error(msg, args...)
}

// badger.Logger

func (l *MQCLogger) Errorf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.slogger.Error(strings.TrimSpace(msg))
}

func (l *MQCLogger) Warningf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.slogger.Warn(strings.TrimSpace(msg))
}

func (l *MQCLogger) Infof(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.slogger.Info(strings.TrimSpace(msg))
}

func (l *MQCLogger) Debugf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.slogger.Debug(strings.TrimSpace(msg))
}

func genericPairs(v ...interface{}) []any {
	pairs := make([]any, 0, len(v)/2)
	for i := 0; i < len(v)-1; i += 2 {
		key, ok := v[i].(string)
		if !ok {
			key = fmt.Sprintf("non_string_key_%d", i)
		}
		pairs = append(pairs, slog.Any(key, v[i+1]))
	}
	return pairs
}
