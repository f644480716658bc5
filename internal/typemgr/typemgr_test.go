package typemgr

import (
	"testing"

	"cb/internal/cberr"
	"cb/internal/types"
)

func TestTypedefResolutionChain(t *testing.T) {
	m := New()
	if err := m.RegisterTypedef("uint32", "int"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.RegisterTypedef("id", "uint32"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := m.ResolveTypedef("id"); got != "int" {
		t.Fatalf("ResolveTypedef(id) = %q, want \"int\"", got)
	}
}

func TestTypedefRedefinitionRejected(t *testing.T) {
	m := New()
	if err := m.RegisterTypedef("uint32", "int"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.RegisterTypedef("uint32", "long"); err == nil {
		t.Fatalf("redefining a typedef should fail")
	}
}

func TestCheckTypeRangeRejectsOutOfBounds(t *testing.T) {
	m := New()
	err := m.CheckTypeRange(cberr.Location{}, types.Tiny, 999, "v", false)
	if err == nil {
		t.Fatalf("999 is out of Tiny's range and should be rejected")
	}
}

func TestCheckTypeRangeExemptsPointers(t *testing.T) {
	m := New()
	if err := m.CheckTypeRange(cberr.Location{}, types.Pointer, -1, "p", false); err != nil {
		t.Fatalf("pointer types should be exempt from range checks: %v", err)
	}
}

func TestUnionAllowSet(t *testing.T) {
	m := New()
	m.RegisterUnion(&UnionDef{
		Name:         "Num",
		AllowedTypes: map[types.TypeInfo]bool{types.Int: true, types.Double: true},
	})
	if !m.IsValueAllowedForUnion("Num", types.Int) {
		t.Fatalf("int should be allowed in union Num")
	}
	if m.IsValueAllowedForUnion("Num", types.String) {
		t.Fatalf("string should not be allowed in union Num")
	}
}
