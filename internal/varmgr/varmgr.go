// Package varmgr implements the Variable manager (spec.md §4.H):
// declaration, typed assignment, parameter binding, reference semantics,
// unsigned clamping, and array/interface/union routing. It deliberately
// takes pre-evaluated values rather than AST nodes or an evaluator
// reference — spec.md's own signatures ("assign_variable(name,
// typed_value, ...)") are already expression-agnostic, so the
// expression evaluator and statement executor (internal/interp) own
// evaluating initializers and call into this package with the result,
// avoiding a package import cycle between evaluation and assignment.
package varmgr

import (
	"cb/internal/cberr"
	"cb/internal/heap"
	"cb/internal/scope"
	"cb/internal/structmgr"
	"cb/internal/typemgr"
	"cb/internal/types"
	"cb/internal/value"
)

type Manager struct {
	Scope   *scope.Store
	Types   *typemgr.Manager
	Structs *structmgr.Manager
	Heap    *heap.Arena
	Warn    *cberr.Sink
}

func New(s *scope.Store, t *typemgr.Manager, st *structmgr.Manager, h *heap.Arena, warn *cberr.Sink) *Manager {
	return &Manager{Scope: s, Types: t, Structs: st, Heap: h, Warn: warn}
}

// clamp applies invariant 2 of spec.md §3: an unsigned variable coerces
// any negative assigned value to 0 with a warning, never wraps.
func (m *Manager) clamp(loc cberr.Location, name string, v *value.Variable) {
	if v.IsUnsigned && v.Value < 0 {
		m.Warn.Emit(loc, "assigning negative value to unsigned variable %q clamped to 0", name)
		v.Value = 0
	}
}

// DeclareGlobalVariable installs a new global Variable. Redeclaration is
// rejected, per spec.md §4.H. An optional initializer (already evaluated
// by the caller) is range-checked and copied in, exactly as
// DeclareLocalVariable does for a local declaration.
func (m *Manager) DeclareGlobalVariable(loc cberr.Location, name string, v *value.Variable, init *value.Variable) error {
	if _, exists := m.Scope.GlobalScope().Variables[name]; exists {
		return cberr.New(cberr.Declaration, loc, "global variable %q already declared", name)
	}
	if err := m.applyInit(loc, name, v, init); err != nil {
		return err
	}
	m.Scope.DeclareGlobal(name, v)
	return nil
}

// DeclareLocalVariable installs v in the current scope. An optional
// initializer (already evaluated by the caller) is range-checked before
// being stored.
func (m *Manager) DeclareLocalVariable(loc cberr.Location, name string, v *value.Variable, init *value.Variable) error {
	if err := m.applyInit(loc, name, v, init); err != nil {
		return err
	}
	m.Scope.DeclareLocal(name, v)
	return nil
}

// applyInit copies a scalar initializer's payload into v, clamping a
// negative unsigned value to 0 *before* the range check runs, so a
// negative literal assigned to an unsigned variable is a warning (spec.md
// §8 invariant 1) rather than a fatal TypeViolation. Shared by
// DeclareGlobalVariable and DeclareLocalVariable so both declaration paths
// agree on what "declared with an initializer" means.
func (m *Manager) applyInit(loc cberr.Location, name string, v, init *value.Variable) error {
	if init != nil {
		v.Value = init.Value
		v.StrValue = init.StrValue
		v.FloatValue, v.DoubleValue, v.QuadValue = init.FloatValue, init.DoubleValue, init.QuadValue
		v.IsAssigned = true
		m.clamp(loc, name, v)
		if err := m.Types.CheckTypeRange(loc, v.Type, v.Value, name, v.IsUnsigned); err != nil {
			return err
		}
		return nil
	}
	m.clamp(loc, name, v)
	return nil
}

// DeclareStatic / DeclareImplStatic: initialized on first declaration,
// never re-initialized (spec.md §3 Lifecycles, §4.J "for static
// declarations, skip on re-entry"). v arrives already initialized by the
// caller; created reports whether v was installed (false when the name
// already had a static cell, which is then left untouched).
func (m *Manager) DeclareStatic(name string, v *value.Variable) (created bool) {
	return m.Scope.DeclareStatic(name, v)
}

func (m *Manager) DeclareImplStatic(name string, v *value.Variable) (created bool) {
	return m.Scope.DeclareImplStatic(name, v)
}

// DeclareReference creates a reference Variable bound to referentAddr,
// lazily — i.e. only at the point its declaration executes, because the
// initializer must evaluate to an existing l-value (spec.md §4.H
// Reference semantics).
func (m *Manager) DeclareReference(name string, referentAddr int64) *value.Variable {
	ref := &value.Variable{IsReference: true, Value: referentAddr}
	m.Scope.DeclareLocal(name, ref)
	return ref
}

// resolveWritable redirects through a reference to its referent, per
// "Subsequent reads and writes through the alias are forwarded to the
// referent."
func (m *Manager) resolveWritable(v *value.Variable) *value.Variable {
	if v != nil && v.IsReference {
		if referent, ok := m.Heap.Deref(v.Value); ok {
			return referent
		}
	}
	return v
}

// AssignVariable is the general typed-assignment entry point (spec.md
// §4.H): honors const, redirects through references, routes struct
// values through struct sync, clamps unsigned, and range-checks (except
// for pointer/pointer-array types).
func (m *Manager) AssignVariable(loc cberr.Location, name string, rhs *value.Variable) error {
	existing, ok := m.Scope.FindVariable(name)
	if !ok {
		return cberr.New(cberr.Access, loc, "undefined variable %q", name)
	}
	if existing.IsConst && existing.IsAssigned {
		return cberr.New(cberr.Declaration, loc, "cannot assign to const variable %q a second time", name)
	}

	target := m.resolveWritable(existing)

	if rhs.IsStruct {
		target.IsStruct = true
		target.StructTypeName = rhs.StructTypeName
		target.StructMembers = rhs.Clone().StructMembers
		m.Structs.SyncDirectAccessFromStructValue(m.Scope, name, target)
		target.IsAssigned = true
		return nil
	}

	target.Value = rhs.Value
	target.StrValue = rhs.StrValue
	target.FloatValue, target.DoubleValue, target.QuadValue = rhs.FloatValue, rhs.DoubleValue, rhs.QuadValue
	if rhs.IsArray {
		target.IsArray = true
		target.ArrayType = rhs.ArrayType
		target.FlatInts = append([]int64(nil), rhs.FlatInts...)
		target.FlatStrings = append([]string(nil), rhs.FlatStrings...)
		target.FlatFloats = append([]float64(nil), rhs.FlatFloats...)
		target.FlatQuads = append([]value.Quad(nil), rhs.FlatQuads...)
	}
	// Clamp before the range check: an unsigned target coerces a negative
	// RHS to 0 (a warning) rather than failing CheckTypeRange, which would
	// otherwise see the pre-clamp negative value against an unsigned
	// [0, max] range and report it as a fatal TypeViolation.
	m.clamp(loc, name, target)
	if err := m.Types.CheckTypeRange(loc, target.Type, target.Value, name, target.IsUnsigned); err != nil {
		return err
	}
	target.IsAssigned = true
	existing.IsAssigned = true
	return nil
}

// AssignFunctionParameter binds a call argument into the callee scope.
// Like AssignVariable, but it forces the target's unsigned flag from the
// parameter declaration rather than inheriting it, and (for function-
// pointer parameters) replicates the source's FunctionPointer into the
// callee scope.
func (m *Manager) AssignFunctionParameter(loc cberr.Location, name string, rhs *value.Variable, t types.TypeInfo, unsigned bool) error {
	v := rhs.Clone()
	v.Type = t
	v.IsUnsigned = unsigned
	v.IsAssigned = true
	m.clamp(loc, name, v)
	if v.IsFunctionPointer {
		if fp, ok := m.Scope.FindFunctionPointer(v.FunctionPointerName); ok {
			m.Scope.RegisterFunctionPointer(name, fp)
		}
	}
	m.Scope.DeclareLocal(name, v)
	return nil
}

// AssignArrayParameter performs a whole-array deep copy into the callee
// scope, satisfying "arrays ... passed by value are deep-copied"
// (spec.md §8 property 9).
func (m *Manager) AssignArrayParameter(name string, source *value.Variable, t types.TypeInfo) {
	v := source.Clone()
	v.Type = t
	v.IsAssigned = true
	m.Scope.DeclareLocal(name, v)
}

// AssignUnionValue implements spec.md §3 invariant 7: an assignment to a
// union variable is accepted iff the RHS's type or value is in the
// union's allow-set; current_type is updated and non-matching payload
// fields are cleared.
func (m *Manager) AssignUnionValue(loc cberr.Location, v *value.Variable, unionName string, rhs *value.Variable, rhsTypeName string) error {
	allowed := m.Types.IsValueAllowedForUnion(unionName, rhs.Type) ||
		(rhsTypeName != "" && (m.Types.IsCustomTypeAllowedForUnion(unionName, rhsTypeName) ||
			m.Types.IsArrayTypeAllowedForUnion(unionName, rhsTypeName)))
	if !allowed {
		return cberr.New(cberr.TypeViolation, loc,
			"value of type %s is not permitted in union %q", rhs.Type, unionName)
	}

	cleared := value.Variable{Type: types.Union, TypeName: unionName, CurrentType: rhs.Type}
	switch {
	case rhs.IsStruct:
		cleared.IsStruct = true
		cleared.StructTypeName = rhs.StructTypeName
		cleared.StructMembers = rhs.Clone().StructMembers
	case rhs.IsArray:
		cleared.IsArray = true
		cleared.ArrayType = rhs.ArrayType
		cleared.FlatInts = append([]int64(nil), rhs.FlatInts...)
		cleared.FlatStrings = append([]string(nil), rhs.FlatStrings...)
	case rhs.Type == types.String:
		cleared.StrValue = rhs.StrValue
	default:
		cleared.Value = rhs.Value
		cleared.FloatValue, cleared.DoubleValue, cleared.QuadValue = rhs.FloatValue, rhs.DoubleValue, rhs.QuadValue
	}
	*v = cleared
	return nil
}
