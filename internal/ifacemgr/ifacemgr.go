// Package ifacemgr implements the Interface/Impl manager (spec.md
// §4.F): impl registry, method resolution by (interface, struct), and
// interface-view construction.
package ifacemgr

import (
	"cb/internal/ast"
	"cb/internal/cberr"
	"cb/internal/scope"
	"cb/internal/structmgr"
	"cb/internal/types"
	"cb/internal/value"
)

// MethodSig is one method an interface requires.
type MethodSig struct {
	Name   string
	Params []string
}

// InterfaceDef is a registered interface type.
type InterfaceDef struct {
	Name    string
	Methods []MethodSig
}

// ImplDef binds a struct's methods to an interface (or stands alone as
// an inherent impl block with InterfaceName == "").
type ImplDef struct {
	StructName    string
	InterfaceName string
	Methods       map[string]*ast.Node // method name -> FuncDecl
}

type Manager struct {
	interfaces map[string]*InterfaceDef
	impls      []*ImplDef
	structs    *structmgr.Manager
}

func New(structs *structmgr.Manager) *Manager {
	return &Manager{interfaces: make(map[string]*InterfaceDef), structs: structs}
}

func (m *Manager) RegisterInterfaceDefinition(name string, def *InterfaceDef) error {
	if _, exists := m.interfaces[name]; exists {
		return cberr.New(cberr.Declaration, cberr.Location{}, "interface %q already defined", name)
	}
	m.interfaces[name] = def
	return nil
}

func (m *Manager) FindInterfaceDefinition(name string) (*InterfaceDef, bool) {
	d, ok := m.interfaces[name]
	return d, ok
}

func (m *Manager) RegisterImplDefinition(impl *ImplDef) {
	m.impls = append(m.impls, impl)
}

// FindImplForStruct does a linear scan of the (expected small) impl
// table, per spec.md §4.F.
func (m *Manager) FindImplForStruct(structName, interfaceName string) (*ImplDef, bool) {
	for _, impl := range m.impls {
		if impl.StructName == structName && impl.InterfaceName == interfaceName {
			return impl, true
		}
	}
	return nil, false
}

func (m *Manager) ImplDefinitions() []*ImplDef { return m.impls }

// FindMethod looks up methodName across every impl registered for
// structName, regardless of which interface (if any) that impl binds to —
// used by a method-call expression (`obj.method()`), which names a struct
// and a method but not the interface it happens to satisfy.
func (m *Manager) FindMethod(structName, methodName string) (*ast.Node, bool) {
	for _, impl := range m.impls {
		if impl.StructName != structName {
			continue
		}
		if decl, ok := impl.Methods[methodName]; ok {
			return decl, true
		}
	}
	return nil, false
}

// CreateInterfaceVariable builds a placeholder interface view: declared
// type Interface, no backing struct yet.
func CreateInterfaceVariable(interfaceName string) *value.Variable {
	return &value.Variable{
		Type:          types.Interface,
		InterfaceName: interfaceName,
	}
}

// AssignInterfaceView implements the interface-view assignment rule
// (spec.md §4.F): the LHS is interface-typed, the RHS is a struct or
// primitive. It requires an impl of (interfaceName, rhsTypeName) to
// exist, synchronizes the RHS's flat mirror, then deep-copies the RHS
// into the LHS with ImplementingStruct set.
func (m *Manager) AssignInterfaceView(s *scope.Store, dest *value.Variable, interfaceName string, rhs *value.Variable, rhsName string) error {
	var rhsTypeName string
	if rhs.IsStruct {
		rhsTypeName = rhs.StructTypeName
		m.structs.SyncStructMembersFromDirectAccess(s, rhsName, rhs)
	} else {
		rhsTypeName = rhs.Type.String()
	}

	if _, ok := m.FindImplForStruct(rhsTypeName, interfaceName); !ok {
		return cberr.New(cberr.Access, cberr.Location{}, "No impl found for interface %s with type %s", interfaceName, rhsTypeName)
	}

	copied := rhs.Clone()
	copied.InterfaceName = interfaceName
	copied.ImplementingStruct = rhsTypeName
	copied.Type = types.Interface
	*dest = *copied

	// per-element mirror entries for array members, including nested
	// struct member arrays, per spec.md §4.F "including per-element
	// mirror entries for array members".
	if copied.IsStruct {
		m.structs.SyncDirectAccessFromStructValue(s, rhsName+"__iface", copied)
	}
	return nil
}
