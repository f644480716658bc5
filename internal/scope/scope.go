// Package scope implements the Scope store (spec.md §4.C): a stack of
// lexical scopes plus the global, static, and impl-static maps that
// outlive any single stack frame.
package scope

import (
	"cb/internal/value"

	"golang.org/x/exp/maps"
)

// Scope is one stack frame: a name->Variable map and a name->function
// pointer registry, per spec.md §4.C.
type Scope struct {
	Variables       map[string]*value.Variable
	FunctionPointers map[string]*value.FunctionPointer
}

func newScope() *Scope {
	return &Scope{
		Variables:        make(map[string]*value.Variable),
		FunctionPointers: make(map[string]*value.FunctionPointer),
	}
}

// Store is the interpreter-wide Scope stack plus the three process-
// lifetime maps spec.md §3/§5 describe as living outside any one frame.
type Store struct {
	stack []*Scope

	global      *Scope
	statics     map[string]*value.Variable
	implStatics map[string]*value.Variable
}

// New builds a Store with only the (always-present) global scope on the
// stack, per "current_scope() never panics (global is the stack bottom)".
func New() *Store {
	g := newScope()
	return &Store{
		stack:       []*Scope{g},
		global:      g,
		statics:     make(map[string]*value.Variable),
		implStatics: make(map[string]*value.Variable),
	}
}

// PushScope enters a new lexical scope.
func (s *Store) PushScope() {
	s.stack = append(s.stack, newScope())
}

// PopScope leaves the innermost lexical scope. It is a no-op (and never
// removes the global scope) when only the global scope remains.
func (s *Store) PopScope() {
	if len(s.stack) <= 1 {
		return
	}
	s.stack = s.stack[:len(s.stack)-1]
}

// CurrentScope returns the innermost active scope. It never returns nil:
// the global scope is the stack's permanent floor.
func (s *Store) CurrentScope() *Scope {
	return s.stack[len(s.stack)-1]
}

func (s *Store) GlobalScope() *Scope { return s.global }

// Depth is the number of scopes currently on the stack (>=1).
func (s *Store) Depth() int { return len(s.stack) }

// FindVariable searches scopes top to bottom, then globals, then
// statics, then impl-statics, per spec.md §4.C.
func (s *Store) FindVariable(name string) (*value.Variable, bool) {
	for i := len(s.stack) - 1; i >= 0; i-- {
		if v, ok := s.stack[i].Variables[name]; ok {
			return v, true
		}
	}
	if v, ok := s.statics[name]; ok {
		return v, true
	}
	if v, ok := s.implStatics[name]; ok {
		return v, true
	}
	return nil, false
}

// IsGlobal reports whether name resolves only through the global scope
// (i.e. it is not shadowed by an inner scope, static, or impl-static).
func (s *Store) IsGlobal(name string) bool {
	for i := len(s.stack) - 1; i >= 1; i-- {
		if _, ok := s.stack[i].Variables[name]; ok {
			return false
		}
	}
	if _, ok := s.statics[name]; ok {
		return false
	}
	if _, ok := s.implStatics[name]; ok {
		return false
	}
	_, ok := s.global.Variables[name]
	return ok
}

// DeclareLocal installs v in the current (innermost) scope.
func (s *Store) DeclareLocal(name string, v *value.Variable) {
	s.CurrentScope().Variables[name] = v
}

// DeclareGlobal installs v directly into the global scope, regardless of
// current stack depth.
func (s *Store) DeclareGlobal(name string, v *value.Variable) {
	s.global.Variables[name] = v
}

// FindStatic looks up a static (or impl-static) variable by name without
// walking the scope stack; used to implement "initialized on first
// declaration and never re-initialized" (spec.md §3 Lifecycles).
func (s *Store) FindStatic(name string) (*value.Variable, bool) {
	if v, ok := s.statics[name]; ok {
		return v, true
	}
	v, ok := s.implStatics[name]
	return v, ok
}

// DeclareStatic installs v as a plain static. No-op if name already
// exists, so repeated declaration-site visits (e.g. a static inside a
// function called many times) never re-initialize it.
func (s *Store) DeclareStatic(name string, v *value.Variable) (created bool) {
	if _, exists := s.statics[name]; exists {
		return false
	}
	s.statics[name] = v
	return true
}

// DeclareImplStatic is DeclareStatic's counterpart for statics declared
// inside an impl block.
func (s *Store) DeclareImplStatic(name string, v *value.Variable) (created bool) {
	if _, exists := s.implStatics[name]; exists {
		return false
	}
	s.implStatics[name] = v
	return true
}

// RegisterFunctionPointer installs fp in the current scope's function
// pointer registry (used by assign_function_parameter replication,
// spec.md §4.H).
func (s *Store) RegisterFunctionPointer(name string, fp *value.FunctionPointer) {
	s.CurrentScope().FunctionPointers[name] = fp
}

// FindFunctionPointer searches local -> parent -> global, per
// assign_function_parameter's contract in spec.md §4.H.
func (s *Store) FindFunctionPointer(name string) (*value.FunctionPointer, bool) {
	for i := len(s.stack) - 1; i >= 0; i-- {
		if fp, ok := s.stack[i].FunctionPointers[name]; ok {
			return fp, true
		}
	}
	return nil, false
}

// LocalNames returns the variable names declared in the current scope,
// in no particular order.
func (s *Store) LocalNames() []string {
	return maps.Keys(s.CurrentScope().Variables)
}
