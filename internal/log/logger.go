package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// StderrPath is the FilePath value that sends logs to stderr instead of a file
const StderrPath = "-"

// Logger wraps slog for gcal.  It owns the log file, if any.
type Logger struct {
	logger       *slog.Logger
	file         *os.File
	traceEnabled bool
}

// Config contains logging information used to set up the logging framework
type Config struct {
	// Log Level.  One of: trace, debug, info, warn, error
	Level string
	// Path to the file to log into, or StderrPath
	FilePath string
	// Format is json (default) or text
	Format string
}

func New(config Config) (*Logger, error) {
	var (
		out  io.Writer
		file *os.File
	)

	if config.FilePath == StderrPath || config.FilePath == "" {
		out = os.Stderr
	} else {
		if err := os.MkdirAll(filepath.Dir(config.FilePath), 0700); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}

		f, err := os.OpenFile(config.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		out, file = f, f
	}

	return newLogger(out, file, config), nil
}

// NewWithWriter builds a logger that writes to w.  Close does nothing for these loggers.
func NewWithWriter(w io.Writer, config Config) *Logger {
	return newLogger(w, nil, config)
}

func newLogger(w io.Writer, file *os.File, config Config) *Logger {
	opts := &slog.HandlerOptions{
		Level: parseLogLevel(config.Level),
	}

	var handler slog.Handler
	if strings.EqualFold(config.Format, "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return &Logger{
		logger:       slog.New(handler),
		file:         file,
		traceEnabled: strings.EqualFold(config.Level, "trace"),
	}
}

// Close the log file, if the logger owns one
func (l *Logger) Close() {
	if l.file == nil {
		return
	}
	if err := l.file.Close(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error closing logger: %v\n", err)
	}
}

// Debug logs a message a debug Level
func (l *Logger) Debug(msg string, args ...any) {
	l.logger.Debug(msg, args...)
}

// Info logs a message at info Level
func (l *Logger) Info(msg string, args ...any) {
	l.logger.Info(msg, args...)
}

// Warn logs a message at warn Level
func (l *Logger) Warn(msg string, args ...any) {
	l.logger.Warn(msg, args...)
}

// Error logs a message at error Level.
func (l *Logger) Error(msg string, args ...any) {
	l.logger.Error(msg, args...)
}

// parseLogLevel is a helper to convert a string log Level into the slog version.  Defaults to info if a matching log
// Level cannot be found.
func parseLogLevel(lvl string) slog.Level {
	switch strings.ToLower(lvl) {
	case "debug", "trace":
		// Trace is handled by this package rather than slog
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
