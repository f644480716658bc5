// Package cberr defines the Cb core's error taxonomy: the closed Kind
// enum from spec.md §7 plus a CbError type that carries the offending
// source location so a host can print "file:line: message" and exit
// non-zero, per §6/§7.
package cberr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind is the closed error-taxonomy tag (spec.md §7, one row per kind;
// Syntax/Parse is excluded, it belongs to the external parser).
type Kind string

const (
	Declaration   Kind = "Declaration"
	TypeViolation Kind = "TypeViolation"
	Access        Kind = "Access"
	Arithmetic    Kind = "Arithmetic"
	Resource      Kind = "Resource"
	Assertion     Kind = "Assertion"
	Warning       Kind = "Warning"
)

// Location mirrors the AST node the evaluator was visiting when the
// error was raised.
type Location struct {
	File   string
	Line   int
	Column int
}

func (l Location) String() string {
	if l.File == "" && l.Line == 0 {
		return ""
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// CbError is the non-local escape payload for every fatal condition in
// §7's taxonomy. It is always constructed through github.com/pkg/errors
// so the top-level host can render a stack trace in --debug mode, the
// same role SentraError.CallStack plays in the teacher.
type CbError struct {
	Kind     Kind
	Message  string
	Location Location
	cause    error
}

func (e *CbError) Error() string {
	if loc := e.Location.String(); loc != "" {
		return fmt.Sprintf("%s: %s (at %s)", e.Kind, e.Message, loc)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *CbError) Unwrap() error { return e.cause }

// New builds a fatal CbError of the given kind, stack-wrapped.
func New(kind Kind, loc Location, format string, args ...interface{}) error {
	e := &CbError{Kind: kind, Message: fmt.Sprintf(format, args...), Location: loc}
	return errors.WithStack(e)
}

// Wrap attaches kind/location context to an existing error without
// losing its stack (or adding one, if it didn't have it yet).
func Wrap(err error, kind Kind, loc Location, context string) error {
	if err == nil {
		return nil
	}
	wrapped := &CbError{Kind: kind, Message: context + ": " + err.Error(), Location: loc, cause: err}
	return errors.WithStack(wrapped)
}

// AsCbError unwraps err (which may have been through errors.WithStack)
// down to the underlying *CbError, if any.
func AsCbError(err error) (*CbError, bool) {
	var ce *CbError
	for err != nil {
		if c, ok := err.(*CbError); ok {
			ce = c
			break
		}
		err = errors.Unwrap(err)
	}
	if ce == nil {
		return nil, false
	}
	return ce, true
}

// Warning is a non-fatal diagnostic (spec.md §7's Warning row): unsigned
// clamp of a negative value, implicit narrowing, etc. Warnings never
// abort execution; they're appended to a Sink and the caller decides how
// (or whether) to surface them.
type Warning struct {
	Message  string
	Location Location
}

// Sink collects warnings produced during evaluation. A nil *Sink is a
// valid, silently-discarding sink so callers that don't care about
// warnings can pass nil.
type Sink struct {
	warnings []Warning
}

func (s *Sink) Emit(loc Location, format string, args ...interface{}) {
	if s == nil {
		return
	}
	s.warnings = append(s.warnings, Warning{Message: fmt.Sprintf(format, args...), Location: loc})
}

func (s *Sink) Warnings() []Warning {
	if s == nil {
		return nil
	}
	return s.warnings
}
