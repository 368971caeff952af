// Package log is gcal's logging facade over log/slog.  The package level functions write to a
// default logger and are silently dropped until one is set.
package log

import "sync/atomic"

var defaultLogger atomic.Pointer[Logger]

// SetDefaultLogger sets the logger used by the package level functions.  Passing nil disables logging.
func SetDefaultLogger(logger *Logger) {
	defaultLogger.Store(logger)
}

// DefaultLogger returns the current default logger, possibly nil
func DefaultLogger() *Logger {
	return defaultLogger.Load()
}

// Debug logs at debug Level using the default logger.
func Debug(msg string, args ...any) {
	if logger := DefaultLogger(); logger != nil {
		logger.Debug(msg, args...)
	}
}

// Info logs at info Level using the default logger.
func Info(msg string, args ...any) {
	if logger := DefaultLogger(); logger != nil {
		logger.Info(msg, args...)
	}
}

// Warn logs at warn Level using the default logger.
func Warn(msg string, args ...any) {
	if logger := DefaultLogger(); logger != nil {
		logger.Warn(msg, args...)
	}
}

// Error logs at error Level using the default logger.
func Error(msg string, args ...any) {
	if logger := DefaultLogger(); logger != nil {
		logger.Error(msg, args...)
	}
}

// Trace logs at debug level, but only if trace logging is enabled.
// This is a 'fake' trace level.
func Trace(msg string, args ...any) {
	if logger := DefaultLogger(); logger != nil && logger.traceEnabled {
		logger.Debug("TRACE: "+msg, args...)
	}
}
