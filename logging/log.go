// Package logging is the logging collaborator spec.md §6 describes: a
// global logger that accepts a severity, a call-site file and line, a
// "{}"-templated message, and positional arguments.
//
// Grounded on original_source/include/log/Log.hpp: a Logger is a sink
// capability (any function that can consume a formatted line) plus a
// minimum level, rather than a class hierarchy — the redesign spec.md §9
// calls for in place of the original's CRTP dispatch. Any sink (stdout,
// file, a test buffer) satisfies the same capability.
package logging

import (
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/momentics/corortime/logging/format"
)

// Level is a log severity, ordered least to most severe.
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "DEBUG"
	case Info:
		return "INFO"
	case Warn:
		return "WARN"
	case Error:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Sink consumes one already-formatted log line.
type Sink func(line string)

// Logger pairs a Sink with a minimum level below which messages are
// dropped without formatting.
type Logger struct {
	mu       sync.Mutex
	sink     Sink
	minLevel Level
}

// New builds a Logger around sink, dropping messages below minLevel.
func New(sink Sink, minLevel Level) *Logger {
	return &Logger{sink: sink, minLevel: minLevel}
}

// NewStdout builds a Logger that writes to os.Stderr, one line per
// call, serialized by an internal mutex so concurrent callers never
// interleave a single line.
func NewStdout(minLevel Level) *Logger {
	var mu sync.Mutex
	return New(func(line string) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintln(os.Stderr, line)
	}, minLevel)
}

// Log formats tmpl against args and, if level meets the minimum, hands
// the line to the sink. file/line identify the call site.
func (l *Logger) Log(level Level, file string, line int, tmpl string, args ...any) {
	if level < l.minLevel {
		return
	}
	msg := format.Expand(tmpl, args...)
	out := fmt.Sprintf("[%s] [%s] [%s:%d] %s", time.Now().Format("2006-01-02 15:04:05"), level, file, line, msg)
	l.mu.Lock()
	sink := l.sink
	l.mu.Unlock()
	sink(out)
}

// Debugf, Infof, Warnf, and Errorf log against the global Logger,
// capturing the immediate caller's file and line, the Go equivalent of
// a macro capturing __FILE__/__LINE__ at the call site.
func Debugf(tmpl string, args ...any) { logCaller(Debug, tmpl, args...) }
func Infof(tmpl string, args ...any)  { logCaller(Info, tmpl, args...) }
func Warnf(tmpl string, args ...any)  { logCaller(Warn, tmpl, args...) }
func Errorf(tmpl string, args ...any) { logCaller(Error, tmpl, args...) }

func logCaller(level Level, tmpl string, args ...any) {
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		file, line = "???", 0
	}
	Global().Log(level, file, line, tmpl, args...)
}

var (
	globalMu sync.RWMutex
	global   = NewStdout(Info)
)

// SetGlobal replaces the process-wide Logger. The Debugf/Infof/Warnf/
// Errorf helpers log through it, and so do internal/sched (panicking
// work items) and reactor (failed poll waits); neither of those accepts
// an explicit *Logger.
func SetGlobal(l *Logger) {
	globalMu.Lock()
	global = l
	globalMu.Unlock()
}

// Global returns the process-wide Logger.
func Global() *Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return global
}
