package preprocessor

import "testing"

func TestObjectLikeMacroExpansion(t *testing.T) {
	p := NewAt("test.cb", "0.1", "Jan 01 2026", "00:00:00")
	if err := p.Define("MAX", nil, "100"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, err := p.Process("int x = MAX;")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "int x = 100;" {
		t.Fatalf("Process() = %q, want \"int x = 100;\"", out)
	}
}

func TestFunctionLikeMacroExpansion(t *testing.T) {
	p := NewAt("test.cb", "0.1", "Jan 01 2026", "00:00:00")
	if err := p.Define("SQUARE", []string{"x"}, "((x)*(x))"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, err := p.Process("int y = SQUARE(5);")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "int y = ((5)*(5));" {
		t.Fatalf("Process() = %q, want \"int y = ((5)*(5));\"", out)
	}
}

func TestMacroNotExpandedInsideStringLiteral(t *testing.T) {
	p := NewAt("test.cb", "0.1", "Jan 01 2026", "00:00:00")
	if err := p.Define("MAX", nil, "100"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, err := p.Process(`string s = "MAX";`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `string s = "MAX";` {
		t.Fatalf("Process() expanded a macro inside a string literal: %q", out)
	}
}

func TestIfdefGatesOutput(t *testing.T) {
	p := NewAt("test.cb", "0.1", "Jan 01 2026", "00:00:00")
	if err := p.Define("FEATURE", nil, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	src := "#ifdef FEATURE\nint on = 1;\n#else\nint on = 0;\n#endif"
	out, err := p.Process(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "int on = 1;" {
		t.Fatalf("Process() = %q, want \"int on = 1;\"", out)
	}
}

func TestBuiltinLineAndFileMacros(t *testing.T) {
	p := NewAt("my.cb", "0.1", "Jan 01 2026", "00:00:00")
	out, err := p.Process("int l = __LINE__;\nint l2 = __LINE__;\nstring f = __FILE__;")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "int l = 1;\nint l2 = 2;\nstring f = \"my.cb\";"
	if out != want {
		t.Fatalf("Process() = %q, want %q", out, want)
	}
}

func TestHashOperatorRejectedInMacroBody(t *testing.T) {
	p := NewAt("test.cb", "0.1", "Jan 01 2026", "00:00:00")
	if _, err := p.Process("#define CAT(a, b) a ## b"); err == nil {
		t.Fatalf("a macro body using ## should be rejected")
	}
}

func TestRecursionDepthCapIsEnforced(t *testing.T) {
	p := NewAt("test.cb", "0.1", "Jan 01 2026", "00:00:00")
	if err := p.Define("A", nil, "B"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.Define("B", nil, "A"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := p.Process("A"); err == nil {
		t.Fatalf("mutually recursive macros should hit the expansion depth cap")
	}
}
