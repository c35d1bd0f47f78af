// Package logging provides the leveled, prefixed logger shared by every
// versionfs package.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

// LogLevel represents different logging levels
type LogLevel int

const (
	// LevelError only logs errors
	LevelError LogLevel = iota
	// LevelWarn logs warnings and errors
	LevelWarn
	// LevelInfo logs general information, warnings and errors
	LevelInfo
	// LevelDebug logs detailed debug information and all above
	LevelDebug
	// LevelTrace logs every FUSE request and all above
	LevelTrace
)

var levelNames = map[LogLevel]string{
	LevelError: "ERROR",
	LevelWarn:  "WARN",
	LevelInfo:  "INFO",
	LevelDebug: "DEBUG",
	LevelTrace: "TRACE",
}

// String returns the upper-case name used in log lines and LOG_LEVEL.
func (l LogLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("LEVEL(%d)", int(l))
}

// ParseLevel converts a LOG_LEVEL value into a LogLevel.
func ParseLevel(s string) (LogLevel, error) {
	want := strings.ToUpper(strings.TrimSpace(s))
	for level, name := range levelNames {
		if name == want {
			return level, nil
		}
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// levelState is shared between a logger and every child created with
// WithPrefix, so SetLevel on the root affects the whole tree.
type levelState struct {
	mu    sync.RWMutex
	level LogLevel
}

// Logger provides leveled logging with a component prefix
type Logger struct {
	state  *levelState
	prefix string
	logger *log.Logger
}

var (
	defaultLogger *Logger
	once          sync.Once
)

// GetLogger returns the process-wide logger. Its level is taken from
// LOG_LEVEL, and FUSE_DEBUG forces at least debug output.
func GetLogger() *Logger {
	once.Do(func() {
		defaultLogger = NewLogger("VERSIONFS", os.Stdout)

		if env := os.Getenv("LOG_LEVEL"); env != "" {
			if level, err := ParseLevel(env); err == nil {
				defaultLogger.SetLevel(level)
			}
		}

		if os.Getenv("FUSE_DEBUG") != "" && !defaultLogger.Enabled(LevelDebug) {
			defaultLogger.SetLevel(LevelDebug)
		}
	})
	return defaultLogger
}

// NewLogger creates a new logger writing to w with the given prefix
func NewLogger(prefix string, w io.Writer) *Logger {
	flags := log.Ldate | log.Ltime | log.Lmicroseconds | log.LUTC
	if os.Getenv("LOG_LONGFILE") != "" {
		flags |= log.Llongfile
	} else {
		flags |= log.Lshortfile
	}

	return &Logger{
		state:  &levelState{level: LevelInfo},
		logger: log.New(w, prefix+": ", flags),
	}
}

// SetLevel sets the logging level
func (l *Logger) SetLevel(level LogLevel) {
	l.state.mu.Lock()
	defer l.state.mu.Unlock()
	l.state.level = level
}

// Level returns the current logging level
func (l *Logger) Level() LogLevel {
	l.state.mu.RLock()
	defer l.state.mu.RUnlock()
	return l.state.level
}

// Enabled reports whether a message at level would be written.
func (l *Logger) Enabled(level LogLevel) bool {
	return level <= l.Level()
}

func (l *Logger) log(level LogLevel, format string, args ...interface{}) {
	if !l.Enabled(level) {
		return
	}

	msg := fmt.Sprintf(format, args...)
	if l.prefix != "" {
		msg = "(" + l.prefix + ") " + msg
	}
	if err := l.logger.Output(3, fmt.Sprintf("[%s] %s", level, msg)); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write log message: %v\n", err)
	}
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.log(LevelError, format, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(LevelWarn, format, args...)
}

// Info logs an informational message
func (l *Logger) Info(format string, args ...interface{}) {
	l.log(LevelInfo, format, args...)
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(LevelDebug, format, args...)
}

// Trace logs a trace message
func (l *Logger) Trace(format string, args ...interface{}) {
	l.log(LevelTrace, format, args...)
}

// WithPrefix returns a child logger tagged with a component name. The
// child writes to the same output and follows the parent's level.
func (l *Logger) WithPrefix(prefix string) *Logger {
	return &Logger{
		state:  l.state,
		prefix: prefix,
		logger: l.logger,
	}
}
