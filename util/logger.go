// Package util provides low-level helpers shared by all other packages.
package util

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// LogLevel controls output verbosity.
type LogLevel int

const (
	LogQuiet   LogLevel = 0
	LogNormal  LogLevel = 1
	LogVerbose LogLevel = 2
	LogDebug   LogLevel = 3
)

var levelTags = [...]string{LogQuiet: "ERR", LogNormal: "INF", LogVerbose: "VRB", LogDebug: "DBG"}

// sink is the writer shared by a Logger and every logger Named from it.
type sink struct {
	mu         sync.Mutex
	w          io.Writer
	timestamps bool // prepend HH:MM:SS.mmm
}

// Logger writes levelled messages to stderr.  Messages from a logger
// returned by Named carry a "[component]" tag after the level.
//
// A nil *Logger discards everything, so library code can log
// unconditionally and leave the decision to the caller.
type Logger struct {
	level     LogLevel
	component string
	out       *sink
}

// NewLogger returns a Logger that prints messages at or below the given
// verbosity (0 = errors only, 1 = normal, 2 = verbose, 3 = debug).
// Debug output is timestamped.
func NewLogger(verbosity int) *Logger {
	return &Logger{
		level: LogLevel(verbosity),
		out:   &sink{w: os.Stderr, timestamps: verbosity >= int(LogDebug)},
	}
}

// Named returns a logger tagged with component that shares l's level
// and output.  Naming a named logger replaces the tag.
func (l *Logger) Named(component string) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{level: l.level, component: component, out: l.out}
}

// SetTimestamps enables or disables timestamp prefixes.
func (l *Logger) SetTimestamps(on bool) {
	if l != nil {
		l.out.mu.Lock()
		l.out.timestamps = on
		l.out.mu.Unlock()
	}
}

// SetOutput overrides the output writer for l and every logger sharing
// its output.
func (l *Logger) SetOutput(w io.Writer) {
	if l != nil {
		l.out.mu.Lock()
		l.out.w = w
		l.out.mu.Unlock()
	}
}

// Level returns the current log level.
func (l *Logger) Level() LogLevel {
	if l == nil {
		return LogQuiet
	}
	return l.level
}

// Info prints when verbosity ≥ 1.
func (l *Logger) Info(format string, args ...interface{}) {
	l.log(LogNormal, "", format, args...)
}

// Warn prints when verbosity ≥ 1.  Prefixed with [WRN].
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(LogNormal, "WRN", format, args...)
}

// Verbose prints when verbosity ≥ 2.
func (l *Logger) Verbose(format string, args ...interface{}) {
	l.log(LogVerbose, "", format, args...)
}

// Debug prints when verbosity ≥ 3.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(LogDebug, "", format, args...)
}

// Error prints regardless of verbosity on a non-nil Logger.
func (l *Logger) Error(format string, args ...interface{}) {
	l.log(LogQuiet, "", format, args...)
}

func (l *Logger) log(at LogLevel, tag, format string, args ...interface{}) {
	if l == nil || l.level < at {
		return
	}
	if tag == "" {
		tag = levelTags[at]
	}
	msg := fmt.Sprintf(format, args...)
	if l.component != "" {
		msg = "[" + l.component + "] " + msg
	}

	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	if l.out.timestamps {
		fmt.Fprintf(l.out.w, "%s [%s] %s\n", time.Now().Format("15:04:05.000"), tag, msg)
	} else {
		fmt.Fprintf(l.out.w, "[%s] %s\n", tag, msg)
	}
}
