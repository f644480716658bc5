package scope

import (
	"testing"

	"cb/internal/value"
)

func TestFindVariableWalksInnerToOuterThenGlobal(t *testing.T) {
	s := New()
	s.DeclareGlobal("x", &value.Variable{Value: 1})
	s.PushScope()
	s.DeclareLocal("x", &value.Variable{Value: 2})

	v, ok := s.FindVariable("x")
	if !ok || v.Value != 2 {
		t.Fatalf("expected the inner scope's x (2), got %v, ok=%v", v, ok)
	}

	s.PopScope()
	v, ok = s.FindVariable("x")
	if !ok || v.Value != 1 {
		t.Fatalf("expected the global x (1) after PopScope, got %v, ok=%v", v, ok)
	}
}

func TestPopScopeNeverRemovesGlobal(t *testing.T) {
	s := New()
	s.PopScope()
	s.PopScope()
	if s.Depth() != 1 {
		t.Fatalf("Depth() = %d, want 1 (global floor never pops)", s.Depth())
	}
}

func TestDeclareStaticOnlyInitializesOnce(t *testing.T) {
	s := New()
	created := s.DeclareStatic("counter", &value.Variable{Value: 0})
	if !created {
		t.Fatalf("first DeclareStatic should report created=true")
	}
	created = s.DeclareStatic("counter", &value.Variable{Value: 99})
	if created {
		t.Fatalf("second DeclareStatic on the same name should report created=false")
	}
	v, ok := s.FindStatic("counter")
	if !ok || v.Value != 0 {
		t.Fatalf("static should keep its first-initialized value, got %v", v)
	}
}

func TestIsGlobalRespectsShadowing(t *testing.T) {
	s := New()
	s.DeclareGlobal("g", &value.Variable{})
	if !s.IsGlobal("g") {
		t.Fatalf("g should resolve as global before any shadowing")
	}
	s.PushScope()
	s.DeclareLocal("g", &value.Variable{})
	if s.IsGlobal("g") {
		t.Fatalf("g should no longer resolve as global once shadowed locally")
	}
}
