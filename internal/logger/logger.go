// Package logger provides the process-wide structured logger.
//
// Logs go to stderr so they never interleave with the streamed answer on stdout.
// The default level is warn: a normal run prints nothing but the answer and its metrics.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// Environment variables consulted when Configure gets empty arguments.
const (
	EnvLogLevel = "KODA_LOG_LEVEL"
	EnvLogFile  = "KODA_LOG_FILE"
)

// Logger is the global logger instance.
var Logger *log.Logger

// logFile is the file the logger writes to, nil while it writes to stderr.
var logFile *os.File

func init() {
	Logger = newLogger(os.Stderr, log.WarnLevel)
}

// Configure sets the level and destination of the global logger.
// Precedence for the level: argument > KODA_LOG_LEVEL > warn.
// Precedence for the destination: argument > KODA_LOG_FILE > stderr.
//
// A file opened by an earlier call is closed. Call Close once logging is over.
func Configure(level, path string) error {
	if level == "" {
		level = os.Getenv(EnvLogLevel)
	}
	if path == "" {
		path = os.Getenv(EnvLogFile)
	}

	parsed, err := parseLevel(level)
	if err != nil {
		return err
	}

	var file *os.File
	if path != "" {
		file, err = os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
	}

	if err := Close(); err != nil {
		if file != nil {
			_ = file.Close()
		}
		return err
	}

	var output io.Writer = os.Stderr
	if file != nil {
		logFile, output = file, file
	}
	Logger = newLogger(output, parsed)
	return nil
}

// Close closes the log file, if any, and points the logger back at stderr.
func Close() error {
	if logFile == nil {
		return nil
	}

	file := logFile
	logFile = nil
	Logger = newLogger(os.Stderr, Logger.GetLevel())

	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	return nil
}

// parseLevel converts a level name to a log.Level. An empty name means warn.
func parseLevel(level string) (log.Level, error) {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "" {
		return log.WarnLevel, nil
	}

	parsed, err := log.ParseLevel(level)
	if err != nil {
		return 0, fmt.Errorf("failed to parse log level: %w", err)
	}
	return parsed, nil
}

// newLogger creates a timestamp-free logger with padded level badges.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	l := log.NewWithOptions(w, log.Options{Level: level})
	l.SetTimeFormat("")

	styles := log.DefaultStyles()
	badge := func(name, background string) lipgloss.Style {
		return lipgloss.NewStyle().
			SetString(name).
			Padding(0, 1, 0, 1).
			Background(lipgloss.Color(background)).
			Foreground(lipgloss.Color("15"))
	}
	styles.Levels[log.DebugLevel] = badge("DEBUG", "240")
	styles.Levels[log.InfoLevel] = badge("INFO", "33")
	styles.Levels[log.WarnLevel] = badge("WARN", "214")
	styles.Levels[log.ErrorLevel] = badge("ERROR", "196")
	styles.Keys["err"] = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	styles.Keys["state"] = lipgloss.NewStyle().Foreground(lipgloss.Color("99"))
	l.SetStyles(styles)

	return l
}

// Debug logs a debug message with optional key-value pairs.
func Debug(msg interface{}, keyvals ...interface{}) {
	Logger.Debug(msg, keyvals...)
}

// Info logs an info message with optional key-value pairs.
func Info(msg interface{}, keyvals ...interface{}) {
	Logger.Info(msg, keyvals...)
}

// Warn logs a warning message with optional key-value pairs.
func Warn(msg interface{}, keyvals ...interface{}) {
	Logger.Warn(msg, keyvals...)
}

// Error logs an error message with optional key-value pairs.
func Error(msg interface{}, keyvals ...interface{}) {
	Logger.Error(msg, keyvals...)
}
