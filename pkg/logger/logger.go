// Package logger provides the logging capability for kauth.
//
// The logger writes human-readable output to stderr by default so that
// command output on stdout (tokens, JSON) stays machine-consumable.
// Structured JSON logs can be enabled with UNSTRUCTURED_LOGS=false.
package logger

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync/atomic"

	"github.com/spf13/viper"
)

// singleton is the package-level logger created by Initialize.
// Accessed atomically to be safe for concurrent use across goroutines.
var singleton atomic.Pointer[slog.Logger]

func init() {
	// Set a default logger so callers that skip Initialize() don't panic.
	singleton.Store(newLogger())
}

// unstructuredLogs reports whether plain text output is wanted.
// Defaults to true; only an explicit "false" switches to JSON.
func unstructuredLogs() bool {
	v, err := strconv.ParseBool(os.Getenv("UNSTRUCTURED_LOGS"))
	if err != nil {
		return true
	}
	return v
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if viper.GetBool("debug") {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if unstructuredLogs() {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// Initialize creates the singleton logger, honoring the viper-bound debug
// flag and the UNSTRUCTURED_LOGS environment variable.
func Initialize() {
	singleton.Store(newLogger())
}

// get returns the current singleton logger.
func get() *slog.Logger {
	return singleton.Load()
}

// Get returns the underlying *slog.Logger for injection into structs.
func Get() *slog.Logger {
	return get()
}

// Set replaces the singleton logger. This is intended for tests that need to
// capture log output; production code should use Initialize instead.
func Set(l *slog.Logger) {
	singleton.Store(l)
}

// Debug logs a message at debug level using the singleton logger.
func Debug(msg string, args ...any) {
	get().Debug(msg, args...)
}

// Debugf logs a formatted message at debug level using the singleton logger.
func Debugf(msg string, args ...any) {
	get().Debug(fmt.Sprintf(msg, args...))
}

// Info logs a message at info level using the singleton logger.
func Info(msg string, args ...any) {
	get().Info(msg, args...)
}

// Infof logs a formatted message at info level using the singleton logger.
func Infof(msg string, args ...any) {
	get().Info(fmt.Sprintf(msg, args...))
}

// Warn logs a message at warn level using the singleton logger.
func Warn(msg string, args ...any) {
	get().Warn(msg, args...)
}

// Warnf logs a formatted message at warn level using the singleton logger.
func Warnf(msg string, args ...any) {
	get().Warn(fmt.Sprintf(msg, args...))
}

// Error logs a message at error level using the singleton logger.
func Error(msg string, args ...any) {
	get().Error(msg, args...)
}

// Errorf logs a formatted message at error level using the singleton logger.
func Errorf(msg string, args ...any) {
	get().Error(fmt.Sprintf(msg, args...))
}
