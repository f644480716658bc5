package config

import "testing"

func TestParseBasicInvocation(t *testing.T) {
	o, err := Parse([]string{"prog.cb"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.Source != "prog.cb" || o.Debug || o.CompileMode || o.Out != "" {
		t.Fatalf("Parse() = %+v, want only Source set", o)
	}
}

func TestParseFlagsAndOutputName(t *testing.T) {
	o, err := Parse([]string{"--debug", "-c", "prog.cb"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !o.Debug || !o.CompileMode {
		t.Fatalf("expected Debug and CompileMode to be set, got %+v", o)
	}
	if o.Out != "prog" {
		t.Fatalf("Out = %q, want \"prog\" (implicit from -c with no .cb suffix)", o.Out)
	}
}

func TestParseExplicitOutputName(t *testing.T) {
	o, err := Parse([]string{"-c", "-o", "a.out", "prog.cb"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.Out != "a.out" {
		t.Fatalf("Out = %q, want \"a.out\"", o.Out)
	}
}

func TestParseMissingSourceFails(t *testing.T) {
	if _, err := Parse([]string{"--debug"}); err == nil {
		t.Fatalf("missing source file should be an error")
	}
}

func TestParseUnrecognizedFlagFails(t *testing.T) {
	if _, err := Parse([]string{"--bogus", "prog.cb"}); err == nil {
		t.Fatalf("unrecognized flag should be an error")
	}
}

func TestParseExtraArgumentFails(t *testing.T) {
	if _, err := Parse([]string{"a.cb", "b.cb"}); err == nil {
		t.Fatalf("two positional source arguments should be an error")
	}
}

func TestParseDashORequiresValue(t *testing.T) {
	if _, err := Parse([]string{"-o"}); err == nil {
		t.Fatalf("-o with no following value should be an error")
	}
}
