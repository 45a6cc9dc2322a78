package logger

import (
	"io"
	"log"
	"log/slog"

	"github.com/hashicorp/go-hclog"
)

// HCLogAdapter adapts MQCLogger to implement hashicorp/go-hclog.Logger interface.
// This is used to integrate HashiCorp go-plugin logging with MQC logging system.
type HCLogAdapter struct {
	logger *MQCLogger
	name   string
	args   []interface{}
}

// NewHCLogAdapter creates a new HCLog adapter wrapping the default MQC logger.
func NewHCLogAdapter() hclog.Logger {
	return newHCLogAdapter(Default(), "plugin", nil)
}

func newHCLogAdapter(l *MQCLogger, name string, args []interface{}) *HCLogAdapter {
	return &HCLogAdapter{
		logger: l,
		name:   name,
		args:   args,
	}
}

func (h *HCLogAdapter) pairs(args []interface{}) []any {
	all := make([]interface{}, 0, len(h.args)+len(args))
	all = append(all, h.args...)
	all = append(all, args...)
	pairs := genericPairs(all...)
	if h.name != "" {
		pairs = append(pairs, slog.String("logger", h.name))
	}
	return pairs
}

// Log implementation
func (h *HCLogAdapter) Log(level hclog.Level, msg string, args ...interface{}) {
	switch level {
	case hclog.Trace, hclog.Debug:
		h.Debug(msg, args...)
	case hclog.Info, hclog.NoLevel:
		h.Info(msg, args...)
	case hclog.Warn:
		h.Warn(msg, args...)
	case hclog.Error:
		h.Error(msg, args...)
	}
}

// Trace logs at debug level, slog has no trace level
func (h *HCLogAdapter) Trace(msg string, args ...interface{}) {
	h.logger.Debug(msg, h.pairs(args)...)
}

func (h *HCLogAdapter) Debug(msg string, args ...interface{}) {
	h.logger.Debug(msg, h.pairs(args)...)
}

func (h *HCLogAdapter) Info(msg string, args ...interface{}) {
	h.logger.Info(msg, h.pairs(args)...)
}

func (h *HCLogAdapter) Warn(msg string, args ...interface{}) {
	h.logger.Warn(msg, h.pairs(args)...)
}

func (h *HCLogAdapter) Error(msg string, args ...interface{}) {
	h.logger.Error(msg, h.pairs(args)...)
}

func (h *HCLogAdapter) IsTrace() bool {
	return h.logger.Enabled(slog.LevelDebug)
}

func (h *HCLogAdapter) IsDebug() bool {
	return h.logger.Enabled(slog.LevelDebug)
}

func (h *HCLogAdapter) IsInfo() bool {
	return h.logger.Enabled(slog.LevelInfo)
}

func (h *HCLogAdapter) IsWarn() bool {
	return h.logger.Enabled(slog.LevelWarn)
}

func (h *HCLogAdapter) IsError() bool {
	return h.logger.Enabled(slog.LevelError)
}

func (h *HCLogAdapter) ImpliedArgs() []interface{} {
	return h.args
}

// With creates a new logger with additional context
func (h *HCLogAdapter) With(args ...interface{}) hclog.Logger {
	all := make([]interface{}, 0, len(h.args)+len(args))
	all = append(all, h.args...)
	all = append(all, args...)
	return newHCLogAdapter(h.logger, h.name, all)
}

func (h *HCLogAdapter) Name() string {
	return h.name
}

// Named creates a new logger with a name
func (h *HCLogAdapter) Named(name string) hclog.Logger {
	return newHCLogAdapter(h.logger, h.name+"."+name, h.args)
}

// ResetNamed creates a new logger with the given name, clearing parent names
func (h *HCLogAdapter) ResetNamed(name string) hclog.Logger {
	return newHCLogAdapter(h.logger, name, h.args)
}

// SetLevel is a no-op, the level is owned by the MQC logger
func (h *HCLogAdapter) SetLevel(level hclog.Level) {}

func (h *HCLogAdapter) GetLevel() hclog.Level {
	switch {
	case h.IsDebug():
		return hclog.Debug
	case h.IsInfo():
		return hclog.Info
	case h.IsWarn():
		return hclog.Warn
	}
	return hclog.Error
}

func (h *HCLogAdapter) StandardLogger(opts *hclog.StandardLoggerOptions) *log.Logger {
	return slog.NewLogLogger(h.logger.Slog().Handler(), slog.LevelInfo)
}

func (h *HCLogAdapter) StandardWriter(opts *hclog.StandardLoggerOptions) io.Writer {
	return io.Discard
}
