package diag

import (
	"bytes"
	"strings"
	"testing"
)

func TestWarnfAlwaysWrites(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, false)
	l.Warnf("bad thing: %d", 7)
	if !strings.Contains(buf.String(), "warning: bad thing: 7") {
		t.Fatalf("Warnf output = %q, want it to contain the formatted warning", buf.String())
	}
}

func TestDebugfSilentUnlessEnabled(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, false)
	l.Debugf("trace %d", 1)
	if buf.Len() != 0 {
		t.Fatalf("Debugf wrote output with debug disabled: %q", buf.String())
	}

	l2 := New(&buf, true)
	l2.Debugf("trace %d", 2)
	if !strings.Contains(buf.String(), "debug: trace 2") {
		t.Fatalf("Debugf output = %q, want it to contain the trace line", buf.String())
	}
}

func TestDumpSilentUnlessEnabled(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, false)
	l.Dump("state", map[string]int{"x": 1})
	if buf.Len() != 0 {
		t.Fatalf("Dump wrote output with debug disabled: %q", buf.String())
	}

	l2 := New(&buf, true)
	l2.Dump("state", map[string]int{"x": 1})
	if !strings.Contains(buf.String(), "state:") {
		t.Fatalf("Dump output = %q, want it to contain the label", buf.String())
	}
}

func TestNilLoggerDebugfAndDumpAreNoOps(t *testing.T) {
	var l *Logger
	l.Debugf("trace")
	l.Dump("label", 1)
}
