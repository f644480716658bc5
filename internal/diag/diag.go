// Package diag is the core's logging/debug surface: a thin wrapper over
// the standard log package (the teacher's own cmd/sentra uses stdlib
// log directly rather than a structured logger, so we follow that
// rather than introduce one) plus a --debug pretty-dumper for
// Variable/Scope snapshots built on github.com/kr/pretty, mirroring
// debug_service.cpp/.h in original_source.
package diag

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/kr/pretty"
)

// Logger is the interpreter host's diagnostic sink: warnings and
// --debug trace lines go through it rather than directly to stderr, so
// a caller embedding the core can redirect or silence them.
type Logger struct {
	debug bool
	std   *log.Logger
}

// New builds a Logger writing to w, with --debug tracing enabled or not.
func New(w io.Writer, debugEnabled bool) *Logger {
	return &Logger{debug: debugEnabled, std: log.New(w, "", log.LstdFlags)}
}

// Stderr is the default Logger used by cmd/cb.
func Stderr(debugEnabled bool) *Logger { return New(os.Stderr, debugEnabled) }

func (l *Logger) Warnf(format string, args ...interface{}) {
	l.std.Printf("warning: "+format, args...)
}

// Debugf logs only when --debug is set; used for the statement/call
// trace a host may want while diagnosing a script.
func (l *Logger) Debugf(format string, args ...interface{}) {
	if l == nil || !l.debug {
		return
	}
	l.std.Printf("debug: "+format, args...)
}

// Dump pretty-prints v (a Variable, Scope snapshot, or any other
// interpreter state) when --debug is set, one line per field via
// kr/pretty, the same role debug_service's dump_variable/dump_scope
// play in original_source.
func (l *Logger) Dump(label string, v interface{}) {
	if l == nil || !l.debug {
		return
	}
	l.std.Printf("%s:\n%s", label, fmt.Sprintf("%# v", pretty.Formatter(v)))
}
