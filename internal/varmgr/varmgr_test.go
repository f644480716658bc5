package varmgr

import (
	"testing"

	"cb/internal/cberr"
	"cb/internal/heap"
	"cb/internal/scope"
	"cb/internal/structmgr"
	"cb/internal/typemgr"
	"cb/internal/types"
	"cb/internal/value"
)

func newManager() *Manager {
	s := scope.New()
	tm := typemgr.New()
	sm := structmgr.New(tm.ResolveTypedef)
	h := heap.New()
	return New(s, tm, sm, h, &cberr.Sink{})
}

func TestAssignVariableRejectsConstReassignment(t *testing.T) {
	m := newManager()
	v := value.New(types.Int)
	v.IsConst = true
	v.Value = 1
	v.IsAssigned = true
	m.Scope.DeclareLocal("x", v)

	err := m.AssignVariable(cberr.Location{}, "x", &value.Variable{Type: types.Int, Value: 2})
	if err == nil {
		t.Fatalf("reassigning an already-assigned const should fail")
	}
}

func TestAssignVariableClampsUnsignedNegative(t *testing.T) {
	m := newManager()
	v := value.New(types.Int)
	v.IsUnsigned = true
	m.Scope.DeclareLocal("u", v)

	if err := m.AssignVariable(cberr.Location{}, "u", &value.Variable{Type: types.Int, Value: -5}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Value != 0 {
		t.Fatalf("unsigned assignment of -5 should clamp to 0, got %d", v.Value)
	}
	if len(m.Warn.Warnings()) != 1 {
		t.Fatalf("expected a warning to be recorded, got %d", len(m.Warn.Warnings()))
	}
}

func TestAssignVariableOutOfRangeRejected(t *testing.T) {
	m := newManager()
	v := value.New(types.Tiny)
	m.Scope.DeclareLocal("t", v)

	if err := m.AssignVariable(cberr.Location{}, "t", &value.Variable{Type: types.Tiny, Value: 9999}); err == nil {
		t.Fatalf("assigning an out-of-range value to a Tiny should fail")
	}
}

func TestReferenceRedirectsWrites(t *testing.T) {
	m := newManager()
	target := value.New(types.Int)
	target.Value = 1
	m.Scope.DeclareLocal("target", target)
	addr := m.Heap.AddressOf(target)

	ref := m.DeclareReference("alias", addr)
	if !ref.IsReference {
		t.Fatalf("DeclareReference should produce a reference-typed variable")
	}

	if err := m.AssignVariable(cberr.Location{}, "alias", &value.Variable{Type: types.Int, Value: 42}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if target.Value != 42 {
		t.Fatalf("assigning through a reference should update the referent, got %d", target.Value)
	}
}

func TestAssignArrayParameterDeepCopies(t *testing.T) {
	m := newManager()
	src := value.New(types.Array(types.Int))
	src.FlatInts = []int64{1, 2, 3}

	m.AssignArrayParameter("p", src, types.Array(types.Int))
	bound, ok := m.Scope.FindVariable("p")
	if !ok {
		t.Fatalf("expected the array parameter to be declared")
	}
	bound.FlatInts[0] = 999
	if src.FlatInts[0] != 1 {
		t.Fatalf("array parameter binding should deep-copy, not alias, the source")
	}
}
