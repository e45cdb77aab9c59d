package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// LogLevel represents the available log levels
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// ParseLogLevel converts a settings string into a LogLevel, falling back to info.
func ParseLogLevel(s string) LogLevel {
	switch LogLevel(strings.ToLower(strings.TrimSpace(s))) {
	case LogLevelDebug:
		return LogLevelDebug
	case LogLevelWarn, "warning":
		return LogLevelWarn
	case LogLevelError:
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

func (l LogLevel) slogLevel() slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Logger provides a structured logger instance configured for the application
type Logger struct {
	*slog.Logger
}

// Options controls where a logger writes.
type Options struct {
	Level LogLevel
	// Console receives icon-prefixed plain lines. Nil means stderr.
	Console io.Writer
	// LogFile receives timestamped text records. Empty means DefaultLogFile(),
	// "-" disables the file sink.
	LogFile string
}

// New builds a logger that fans out to a plain console handler and a file handler.
func New(opts Options) *Logger {
	level := opts.Level.slogLevel()

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	handlers := []slog.Handler{newPlainHandler(console, level)}

	if opts.LogFile != "-" {
		path := opts.LogFile
		if path == "" {
			path = DefaultLogFile()
		}
		if h := newFileTextHandler(path, level); h != nil {
			handlers = append(handlers, h)
		}
	}

	return &Logger{Logger: slog.New(newMultiHandler(handlers...))}
}

// NewLogger creates a logger writing to stderr and the default log file.
func NewLogger(level LogLevel) *Logger {
	return New(Options{Level: level})
}

// NewLoggerWithConsoleWriter builds a logger that writes console output to the given writer
func NewLoggerWithConsoleWriter(level LogLevel, consoleWriter io.Writer) *Logger {
	return New(Options{Level: level, Console: consoleWriter})
}

// WithComponent creates a logger with a component context for better tracing
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{Logger: l.With("component", component)}
}

// WithSession creates a logger with session context for request tracing
func (l *Logger) WithSession(sessionID string) *Logger {
	return &Logger{Logger: l.With("session", sessionID)}
}

// LogWithIntention logs a message at the provided level with an intention tag.
// The console handler renders the intention as an icon, the file handler keeps it
// as the structured key "intention".
func (l *Logger) LogWithIntention(level slog.Level, intention Intention, msg string, args ...any) {
	kv := append([]any{"intention", string(intention)}, args...)
	l.Log(context.Background(), level, msg, kv...)
}

func (l *Logger) InfoWithIntention(intention Intention, msg string, args ...any) {
	l.LogWithIntention(slog.LevelInfo, intention, msg, args...)
}

func (l *Logger) DebugWithIntention(intention Intention, msg string, args ...any) {
	l.LogWithIntention(slog.LevelDebug, intention, msg, args...)
}

func (l *Logger) WarnWithIntention(intention Intention, msg string, args ...any) {
	l.LogWithIntention(slog.LevelWarn, intention, msg, args...)
}

func (l *Logger) ErrorWithIntention(intention Intention, msg string, args ...any) {
	l.LogWithIntention(slog.LevelError, intention, msg, args...)
}

// Default logger instance shared by component loggers
var Default = NewLogger(LogLevelInfo)

// SetGlobalLogLevel updates the global default logger with a new log level.
// Component loggers created before this call keep the old handler.
func SetGlobalLogLevel(level LogLevel) {
	Default = NewLogger(level)
}

// SetGlobalLoggerWithConsoleWriter replaces the global Default logger using the provided console writer
func SetGlobalLoggerWithConsoleWriter(level LogLevel, consoleWriter io.Writer) {
	Default = NewLoggerWithConsoleWriter(level, consoleWriter)
}

// SetGlobal replaces the global Default logger.
func SetGlobal(l *Logger) {
	if l != nil {
		Default = l
	}
}

// NewComponentLogger creates a new logger for a specific component
func NewComponentLogger(component string) *Logger {
	return Default.WithComponent(component)
}

// DefaultLogFile returns ~/.editagent/logs/editagent.log
func DefaultLogFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}
	return filepath.Join(home, ".editagent", "logs", "editagent.log")
}

func newFileTextHandler(path string, level slog.Level) slog.Handler {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil
	}

	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.String("time", a.Value.Time().Format("2006-01-02 15:04:05"))
			}
			return a
		},
	}
	return slog.NewTextHandler(f, opts)
}
