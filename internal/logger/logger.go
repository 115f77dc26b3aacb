// Package logger provides component scoped diagnostic logging for the CLI.
// Debug and Info lines are emitted only while verbose mode is on; Warn and
// Error always reach stderr.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// VerboseChecker reports whether verbose output is enabled. The CLI wires
// this to its --verbose flag so loggers created at init time pick up the
// flag value at call time.
type VerboseChecker interface {
	IsVerbose() bool
}

// Field is one key-value pair attached to a log line.
type Field struct {
	Key   string
	Value interface{}
}

// F builds a generic field.
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Count builds a numeric count field.
func Count(key string, n int) Field {
	return Field{Key: key, Value: n}
}

// Duration builds an elapsed time field.
func Duration(key string, d time.Duration) Field {
	return Field{Key: key, Value: d}
}

// Err builds an error field.
func Err(err error) Field {
	return Field{Key: "error", Value: err}
}

// Logger writes component scoped lines to a single writer.
type Logger struct {
	component string
	verbose   VerboseChecker
	writer    io.Writer
}

// New creates a logger for the given component.
func New(component string, verbose VerboseChecker) *Logger {
	return &Logger{component: component, verbose: verbose, writer: os.Stderr}
}

// NewWithCallback creates a logger whose verbose state comes from a plain
// function.
func NewWithCallback(component string, verbose func() bool) *Logger {
	return New(component, callbackChecker(verbose))
}

// WithComponent returns a logger sharing state but scoped to another
// component name.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{component: component, verbose: l.verbose, writer: l.writer}
}

// SetWriter redirects output, mainly for tests.
func (l *Logger) SetWriter(w io.Writer) {
	l.writer = w
}

type callbackChecker func() bool

func (c callbackChecker) IsVerbose() bool {
	return c != nil && c()
}

// Debug logs a debug message when verbose is on.
func (l *Logger) Debug(msg string, args ...interface{}) {
	if l.isVerbose() {
		l.write("DEBUG", msg, nil, args...)
	}
}

// Info logs an informational message when verbose is on.
func (l *Logger) Info(msg string, args ...interface{}) {
	if l.isVerbose() {
		l.write("INFO", msg, nil, args...)
	}
}

// Warn logs a warning. Warnings are always shown.
func (l *Logger) Warn(msg string, args ...interface{}) {
	l.write("WARN", msg, nil, args...)
}

// Error logs an error. Errors are always shown.
func (l *Logger) Error(msg string, args ...interface{}) {
	l.write("ERROR", msg, nil, args...)
}

// DebugWithFields logs a debug message with structured fields when verbose
// is on.
func (l *Logger) DebugWithFields(msg string, fields []Field, args ...interface{}) {
	if l.isVerbose() {
		l.write("DEBUG", msg, fields, args...)
	}
}

// InfoWithFields logs an info message with structured fields when verbose
// is on.
func (l *Logger) InfoWithFields(msg string, fields []Field, args ...interface{}) {
	if l.isVerbose() {
		l.write("INFO", msg, fields, args...)
	}
}

func (l *Logger) isVerbose() bool {
	return l.verbose != nil && l.verbose.IsVerbose()
}

func (l *Logger) write(level, msg string, fields []Field, args ...interface{}) {
	component := l.component
	if component == "" {
		component = "main"
	}

	line := fmt.Sprintf(msg, args...)
	if len(fields) > 0 {
		pairs := make([]string, 0, len(fields))
		for _, f := range fields {
			pairs = append(pairs, fmt.Sprintf("%s=%v", f.Key, f.Value))
		}
		line += " [" + strings.Join(pairs, " ") + "]"
	}

	timestamp := time.Now().Format("15:04:05.000")
	// Nothing useful to do when the log write itself fails.
	_, _ = fmt.Fprintf(l.writer, "[%s] %s [%s] %s\n", timestamp, level, component, line)
}
