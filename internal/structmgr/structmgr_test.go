package structmgr

import (
	"testing"

	"cb/internal/scope"
	"cb/internal/types"
	"cb/internal/value"
)

func noResolve(s string) string { return s }

func TestPointerCyclesAreLegal(t *testing.T) {
	m := New(noResolve)
	// Node has a pointer member of its own type: legal self-reference.
	err := m.RegisterStructDefinition("Node", &Def{
		Name: "Node",
		Fields: []Field{
			{Name: "next", Type: types.Struct, TypeName: "Node", IsPointer: true},
		},
	})
	if err != nil {
		t.Fatalf("a pointer-member self-cycle should be legal: %v", err)
	}
}

func TestNonPointerCycleIsRejected(t *testing.T) {
	m := New(noResolve)
	if err := m.RegisterStructDefinition("A", &Def{
		Name:   "A",
		Fields: []Field{{Name: "b", Type: types.Struct, TypeName: "B"}},
	}); err != nil {
		t.Fatalf("unexpected error registering A: %v", err)
	}
	err := m.RegisterStructDefinition("B", &Def{
		Name:   "B",
		Fields: []Field{{Name: "a", Type: types.Struct, TypeName: "A"}},
	})
	if err == nil {
		t.Fatalf("a non-pointer A<->B cycle should be rejected")
	}
}

func TestPrivateMemberRequiresImplContext(t *testing.T) {
	m := New(noResolve)
	v := value.NewStruct("Point")
	v.StructMembers["secret"] = &value.Variable{Type: types.Int, IsPrivateMember: true}

	if _, err := m.GetStructMember(v, "secret"); err == nil {
		t.Fatalf("private member access outside an impl context should fail")
	}

	m.PushImplContext("Point")
	if _, err := m.GetStructMember(v, "secret"); err != nil {
		t.Fatalf("private member access inside the matching impl context should succeed: %v", err)
	}
	m.PopImplContext()

	if _, err := m.GetStructMember(v, "secret"); err == nil {
		t.Fatalf("private member access should fail again after PopImplContext")
	}
}

func TestSyncRoundTrip(t *testing.T) {
	m := New(noResolve)
	s := scope.New()
	v := value.NewStruct("Point")
	v.StructMembers["x"] = &value.Variable{Type: types.Int, Value: 3}
	v.StructMembers["y"] = &value.Variable{Type: types.Int, Value: 4}

	m.SyncDirectAccessFromStructValue(s, "p", v)

	mirrored, ok := s.FindVariable("p.x")
	if !ok || mirrored.Value != 3 {
		t.Fatalf("expected mirror p.x == 3, got %v, ok=%v", mirrored, ok)
	}

	mirrored.Value = 30
	m.SyncStructMembersFromDirectAccess(s, "p", v)
	if v.StructMembers["x"].Value != 30 {
		t.Fatalf("SyncStructMembersFromDirectAccess did not pull back the mirror's edit")
	}
}
