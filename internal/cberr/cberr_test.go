package cberr

import (
	"fmt"
	"testing"
)

func TestErrorMessageIncludesLocationWhenSet(t *testing.T) {
	err := New(Arithmetic, Location{File: "prog.cb", Line: 3, Column: 5}, "divide by zero")
	want := "Arithmetic: divide by zero (at prog.cb:3:5)"
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestErrorMessageOmitsLocationWhenUnset(t *testing.T) {
	err := New(Access, Location{}, "undefined variable %q", "x")
	want := "Access: undefined variable \"x\""
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestWrapPreservesUnderlyingCause(t *testing.T) {
	inner := New(Declaration, Location{}, "already declared")
	outer := Wrap(inner, Access, Location{File: "a.cb", Line: 1}, "while resolving")

	ce, ok := AsCbError(outer)
	if !ok {
		t.Fatalf("AsCbError on wrapped error returned false")
	}
	if ce.Kind != Access {
		t.Fatalf("outer Kind = %v, want Access", ce.Kind)
	}

	innerCe, ok := AsCbError(ce.Unwrap())
	if !ok || innerCe.Kind != Declaration {
		t.Fatalf("inner error lost through wrapping")
	}
}

func TestWrapNilReturnsNil(t *testing.T) {
	if Wrap(nil, Access, Location{}, "ctx") != nil {
		t.Fatalf("Wrap(nil, ...) should return nil")
	}
}

func TestAsCbErrorFalseForPlainError(t *testing.T) {
	if _, ok := AsCbError(fmt.Errorf("plain")); ok {
		t.Fatalf("AsCbError on a plain error should be false")
	}
}

func TestNilSinkIsSilentlyDiscarding(t *testing.T) {
	var s *Sink
	s.Emit(Location{}, "warn %d", 1)
	if s.Warnings() != nil {
		t.Fatalf("nil Sink.Warnings() should be nil")
	}
}

func TestSinkCollectsWarnings(t *testing.T) {
	var s Sink
	s.Emit(Location{File: "a.cb", Line: 2}, "clamped %q to 0", "u")
	got := s.Warnings()
	if len(got) != 1 {
		t.Fatalf("len(Warnings()) = %d, want 1", len(got))
	}
	if got[0].Message != `clamped "u" to 0` {
		t.Fatalf("Warnings()[0].Message = %q", got[0].Message)
	}
}
