// SPDX-License-Identifier: MIT
//
// Package log is a small leveled logger used across the monitor. Messages
// are prefixed with the level and, by convention, with the emitting
// component ("Engine: ...", "UDPPublisher: ...").
package log

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"strings"
	"sync/atomic"
)

// LogLevel defines the severity of a log message.
type LogLevel uint32

// Constants for log levels.
const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a string (case-insensitive) to a LogLevel.
// Returns LevelInfo and false if the string is not recognized.
func ParseLevel(levelStr string) (LogLevel, bool) {
	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		return LevelDebug, true
	case "INFO":
		return LevelInfo, true
	case "WARN", "WARNING":
		return LevelWarn, true
	case "ERROR":
		return LevelError, true
	case "FATAL":
		return LevelFatal, true
	default:
		return LevelInfo, false // Default to Info on parse error
	}
}

// --- Global Logger State ---

// currentLevel holds the current global log level atomically.
var currentLevel atomic.Uint32

// logger writes date and time with microseconds.
var logger = stdlog.New(os.Stderr, "", stdlog.Ldate|stdlog.Ltime|stdlog.Lmicroseconds)

func init() {
	// Default level at startup. Overridden by config or --verbose.
	SetLevel(LevelInfo)
}

// SetLevel sets the global logging level atomically.
func SetLevel(level LogLevel) {
	currentLevel.Store(uint32(level))
}

// SetLevelName parses name and applies it. Unknown names leave the level
// unchanged and return false.
func SetLevelName(name string) bool {
	level, ok := ParseLevel(name)
	if ok {
		SetLevel(level)
	}
	return ok
}

// SetOutput redirects all log output. The TUI uses this to keep log lines
// off the terminal it is drawing on; tests use it to capture output.
func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}

// Writer returns the current log destination.
func Writer() io.Writer {
	return logger.Writer()
}

// GetLevel gets the current global logging level atomically.
func GetLevel() LogLevel {
	return LogLevel(currentLevel.Load())
}

// Enabled reports whether a message at level would be written. Callers use
// it to skip building expensive arguments.
func Enabled(level LogLevel) bool {
	return level >= GetLevel()
}

// output writes one line at level. Level tags are padded to five characters
// so messages line up.
func output(level LogLevel, msg string) {
	if !Enabled(level) {
		return
	}
	logger.Printf("[%-5s] %s", level, msg)
}

// --- Public Logging Functions ---

// Debugf logs a formatted debug message if the level is appropriate.
func Debugf(format string, v ...any) {
	if Enabled(LevelDebug) {
		output(LevelDebug, fmt.Sprintf(format, v...))
	}
}

// Infof logs a formatted info message if the level is appropriate.
func Infof(format string, v ...any) {
	if Enabled(LevelInfo) {
		output(LevelInfo, fmt.Sprintf(format, v...))
	}
}

// Warnf logs a formatted warning message if the level is appropriate.
func Warnf(format string, v ...any) {
	if Enabled(LevelWarn) {
		output(LevelWarn, fmt.Sprintf(format, v...))
	}
}

// Errorf logs a formatted error message if the level is appropriate.
func Errorf(format string, v ...any) {
	if Enabled(LevelError) {
		output(LevelError, fmt.Sprintf(format, v...))
	}
}

// Fatalf logs a formatted fatal message and exits the application.
// Fatal messages are always logged regardless of the current level.
func Fatalf(format string, v ...any) {
	logger.Fatalf("[%-5s] %s", LevelFatal, fmt.Sprintf(format, v...))
}

// --- Functions without formatting (convenience) ---

// Debug logs a debug message if the level is appropriate.
func Debug(v ...any) {
	output(LevelDebug, fmt.Sprint(v...))
}

// Info logs an info message if the level is appropriate.
func Info(v ...any) {
	output(LevelInfo, fmt.Sprint(v...))
}

// Warn logs a warning message if the level is appropriate.
func Warn(v ...any) {
	output(LevelWarn, fmt.Sprint(v...))
}

// Error logs an error message if the level is appropriate.
func Error(v ...any) {
	output(LevelError, fmt.Sprint(v...))
}

// Fatal logs a fatal message and exits the application.
func Fatal(v ...any) {
	logger.Fatalf("[%-5s] %s", LevelFatal, fmt.Sprint(v...))
}
