// Package structmgr implements the Struct manager (spec.md §4.E):
// definition registry, recursion validation, member lookup, and the
// bidirectional sync between a struct Variable's nested struct_members
// map and its flattened dotted/bracketed scope mirror.
package structmgr

import (
	"fmt"
	"sort"
	"strconv"

	"cb/internal/cberr"
	"cb/internal/scope"
	"cb/internal/types"
	"cb/internal/value"
)

// Field describes one struct member in declaration order.
type Field struct {
	Name       string
	Type       types.TypeInfo
	TypeName   string // struct/enum/union/typedef element name, if any
	IsPointer  bool
	IsArray    bool
	ArrayType  types.ArrayTypeInfo
	IsPrivate  bool
}

// Def is a registered struct definition.
type Def struct {
	Name   string
	Fields []Field
}

func (d *Def) Field(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Manager owns the struct definition registry and the sync logic between
// nested and flattened struct representations.
type Manager struct {
	defs        map[string]*Def
	resolveName func(string) string // typedef resolution, injected to avoid an import cycle with typemgr

	// implContext tracks which struct's private members are currently
	// accessible, because an impl block for that struct is in scope
	// (spec.md §4.E access control); it's a stack so nested impl method
	// calls compose correctly.
	implContext []string
}

func New(resolveName func(string) string) *Manager {
	if resolveName == nil {
		resolveName = func(s string) string { return s }
	}
	return &Manager{defs: make(map[string]*Def), resolveName: resolveName}
}

// PushImplContext marks structName's private members as accessible for
// the duration of the current impl method call.
func (m *Manager) PushImplContext(structName string) { m.implContext = append(m.implContext, structName) }

func (m *Manager) PopImplContext() {
	if len(m.implContext) > 0 {
		m.implContext = m.implContext[:len(m.implContext)-1]
	}
}

func (m *Manager) inImplContextFor(structName string) bool {
	for _, s := range m.implContext {
		if s == structName {
			return true
		}
	}
	return false
}

// RegisterStructDefinition registers def, then immediately validates the
// recursion rules across the whole registry (spec.md §4.E).
func (m *Manager) RegisterStructDefinition(name string, def *Def) error {
	m.defs[name] = def
	return m.ValidateStructRecursionRules()
}

// ValidateStructRecursionRules builds a directed graph whose edges are
// "struct S has a non-pointer member of struct type T" and rejects any
// cycle in it. Cycles composed entirely of pointer edges are legal.
func (m *Manager) ValidateStructRecursionRules() error {
	// names sorted for deterministic error messages
	names := make([]string, 0, len(m.defs))
	for n := range m.defs {
		names = append(names, n)
	}
	sort.Strings(names)

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(names))
	var path []string

	var visit func(name string) error
	visit = func(name string) error {
		color[name] = gray
		path = append(path, name)
		def := m.defs[name]
		if def != nil {
			for _, f := range def.Fields {
				if f.Type != types.Struct || f.IsPointer {
					continue
				}
				target := m.resolveName(f.TypeName)
				switch color[target] {
				case gray:
					return cberr.New(cberr.Declaration, cberr.Location{},
						"recursive struct definition: %v -> %s forms a cycle through non-pointer members", path, target)
				case white:
					if err := visit(target); err != nil {
						return err
					}
				}
			}
		}
		path = path[:len(path)-1]
		color[name] = black
		return nil
	}

	for _, n := range names {
		if color[n] == white {
			if err := visit(n); err != nil {
				return err
			}
		}
	}
	return nil
}

// FindStructDefinition resolves typedef aliases before lookup.
func (m *Manager) FindStructDefinition(name string) (*Def, bool) {
	d, ok := m.defs[m.resolveName(name)]
	return d, ok
}

// GetStructMember returns a handle to the nested-map entry for
// var.StructMembers[memberName], enforcing private-member access control.
func (m *Manager) GetStructMember(v *value.Variable, memberName string) (*value.Variable, error) {
	if v == nil || !v.IsStruct {
		return nil, cberr.New(cberr.Access, cberr.Location{}, "not a struct value")
	}
	member, ok := v.StructMembers[memberName]
	if !ok {
		return nil, cberr.New(cberr.Access, cberr.Location{}, "struct %s has no member %q", v.StructTypeName, memberName)
	}
	if member.IsPrivateMember && !m.inImplContextFor(v.StructTypeName) {
		return nil, cberr.New(cberr.Access, cberr.Location{},
			"member %q of struct %s is private", memberName, v.StructTypeName)
	}
	return member, nil
}

// flatName builds the dotted/bracketed mirror name for a member, e.g.
// "p.name" or "p.arr[3]".
func flatName(varName, member string) string { return varName + "." + member }
func flatIndexName(base string, idx int) string { return base + "[" + strconv.Itoa(idx) + "]" }

// SyncDirectAccessFromStructValue re-populates the flat scope mirror
// (<var>.<m>, <var>.<m>[i], and deeper) from v's nested struct_members,
// after a whole-struct assignment (spec.md §4.E).
func (m *Manager) SyncDirectAccessFromStructValue(s *scope.Store, varName string, v *value.Variable) {
	if v == nil || !v.IsStruct {
		return
	}
	for memberName, member := range v.StructMembers {
		flat := flatName(varName, memberName)
		s.DeclareLocal(flat, member)
		if member.IsStruct {
			m.SyncDirectAccessFromStructValue(s, flat, member)
			continue
		}
		if member.IsArray {
			for i, iv := range member.FlatInts {
				cell := value.New(member.ArrayType.BaseType)
				cell.Value = iv
				s.DeclareLocal(flatIndexName(flat, i), cell)
			}
			for i, sv := range member.FlatStrings {
				cell := value.New(types.String)
				cell.StrValue = sv
				s.DeclareLocal(flatIndexName(flat, i), cell)
			}
			for i, fv := range member.FlatFloats {
				cell := value.New(member.ArrayType.BaseType)
				cell.SetCoherentFloat(fv)
				s.DeclareLocal(flatIndexName(flat, i), cell)
			}
		}
	}
}

// SyncStructMembersFromDirectAccess is the inverse: aggregate mirror
// variables back into struct_members, for whole-struct reads (return by
// value, parameter passing by value, interface-view construction).
func (m *Manager) SyncStructMembersFromDirectAccess(s *scope.Store, varName string, v *value.Variable) {
	if v == nil || !v.IsStruct {
		return
	}
	def, _ := m.FindStructDefinition(v.StructTypeName)
	var fieldNames []string
	if def != nil {
		for _, f := range def.Fields {
			fieldNames = append(fieldNames, f.Name)
		}
	} else {
		for name := range v.StructMembers {
			fieldNames = append(fieldNames, name)
		}
	}
	for _, memberName := range fieldNames {
		flat := flatName(varName, memberName)
		mirrored, ok := s.FindVariable(flat)
		if !ok {
			continue
		}
		if mirrored.IsStruct {
			m.SyncStructMembersFromDirectAccess(s, flat, mirrored)
		}
		v.StructMembers[memberName] = mirrored
	}
}

func (f Field) String() string {
	return fmt.Sprintf("%s %s", f.Type, f.Name)
}
