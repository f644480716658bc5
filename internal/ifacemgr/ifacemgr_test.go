package ifacemgr

import (
	"testing"

	"cb/internal/scope"
	"cb/internal/structmgr"
	"cb/internal/types"
	"cb/internal/value"
)

func newManager() *Manager {
	sm := structmgr.New(nil)
	return New(sm)
}

func TestRegisterInterfaceDefinitionRejectsDuplicate(t *testing.T) {
	m := newManager()
	def := &InterfaceDef{Name: "Shape", Methods: []MethodSig{{Name: "Area"}}}
	if err := m.RegisterInterfaceDefinition("Shape", def); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.RegisterInterfaceDefinition("Shape", def); err == nil {
		t.Fatalf("redefining an interface should fail")
	}
}

func TestFindImplForStructMissing(t *testing.T) {
	m := newManager()
	if _, ok := m.FindImplForStruct("Circle", "Shape"); ok {
		t.Fatalf("no impl was registered, FindImplForStruct should report false")
	}
}

func TestAssignInterfaceViewRequiresImpl(t *testing.T) {
	m := newManager()
	s := scope.New()
	dest := CreateInterfaceVariable("Shape")
	rhs := value.New(types.Double)
	rhs.Value = 7

	if err := m.AssignInterfaceView(s, dest, "Shape", rhs, "r"); err == nil {
		t.Fatalf("assigning a view with no registered impl should fail")
	}
}

func TestAssignInterfaceViewDeepCopiesStructValue(t *testing.T) {
	m := newManager()
	s := scope.New()
	m.RegisterImplDefinition(&ImplDef{StructName: "Circle", InterfaceName: "Shape"})

	rhs := value.New(types.Struct)
	rhs.IsStruct = true
	rhs.StructTypeName = "Circle"
	radius := value.New(types.Double)
	radius.Value = 3
	rhs.StructMembers = map[string]*value.Variable{"radius": radius}

	dest := CreateInterfaceVariable("Shape")
	if err := m.AssignInterfaceView(s, dest, "Shape", rhs, "c"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dest.Type != types.Interface || dest.ImplementingStruct != "Circle" {
		t.Fatalf("dest should be an Interface-typed view implemented by Circle, got %+v", dest)
	}
	dest.StructMembers["radius"].Value = 999
	if rhs.StructMembers["radius"].Value == 999 {
		t.Fatalf("AssignInterfaceView should deep-copy the struct, not alias it")
	}
}
