// Package interp ties the Scope store, Type/Struct/Interface/Enum
// managers, and Variable manager into the Typed-expression evaluator
// (spec.md §4.I, component J) and Statement executor (§4.J, component
// K). The two are mutually recursive by nature of a tree-walking
// interpreter (a function call evaluates an expression that runs a
// statement body that evaluates expressions...), so they live together
// in one package — eval.go holds component J, exec.go holds component
// K — mirroring the teacher's single Interpreter type that owns every
// concern rather than splitting along an import boundary that doesn't
// exist at runtime.
package interp

import (
	"cb/internal/ast"
	"cb/internal/cberr"
	"cb/internal/enummgr"
	"cb/internal/heap"
	"cb/internal/ifacemgr"
	"cb/internal/scope"
	"cb/internal/structmgr"
	"cb/internal/typemgr"
	"cb/internal/types"
	"cb/internal/value"
	"cb/internal/varmgr"
)

// FuncSig is a registered function's declaration, keyed by name in
// Context.Functions (the global "functions" scope of spec.md §4.C).
type FuncSig struct {
	Decl   *ast.Node
	Params []ast.Node // ParamDecl nodes, for name/type/by-ref info
}

// Context is the interpreter core: every manager wired together, plus
// the function table and current-function bookkeeping the statement
// executor needs for recursion and return-type checking.
type Context struct {
	Scope   *scope.Store
	Types   *typemgr.Manager
	Structs *structmgr.Manager
	Ifaces  *ifacemgr.Manager
	Enums   *enummgr.Manager
	Vars    *varmgr.Manager
	Heap    *heap.Arena
	Warn    *cberr.Sink

	Functions       map[string]*FuncSig
	CurrentFunction string

	// File is used only to stamp cberr.Location on errors raised here;
	// it has no bearing on evaluation semantics.
	File string
}

// New wires a fresh Context with every manager constructed and linked,
// the way Interpreter's constructor in original_source builds its
// unique_ptr managers and passes itself around for cross-calls (we pass
// narrow references instead).
func New(file string) *Context {
	s := scope.New()
	tm := typemgr.New()
	sm := structmgr.New(tm.ResolveTypedef)
	im := ifacemgr.New(sm)
	em := enummgr.New()
	h := heap.New()
	warn := &cberr.Sink{}
	vm := varmgr.New(s, tm, sm, h, warn)

	return &Context{
		Scope: s, Types: tm, Structs: sm, Ifaces: im, Enums: em,
		Vars: vm, Heap: h, Warn: warn,
		Functions: make(map[string]*FuncSig),
		File:      file,
	}
}

func (c *Context) loc(n *ast.Node) cberr.Location {
	if n == nil {
		return cberr.Location{File: c.File}
	}
	return cberr.Location{File: c.File, Line: n.Line, Column: n.Column}
}

// RegisterFunction adds decl to the global function table. Redeclaration
// is rejected, mirroring the declaration-time checks the rest of the
// core performs (spec.md §7 Declaration errors).
func (c *Context) RegisterFunction(name string, decl *ast.Node) error {
	if _, exists := c.Functions[name]; exists {
		return cberr.New(cberr.Declaration, c.loc(decl), "function %q already declared", name)
	}
	var params []ast.Node
	for _, p := range decl.Arguments {
		params = append(params, *p)
	}
	c.Functions[name] = &FuncSig{Decl: decl, Params: params}
	return nil
}

// sizeOfType implements the fixed sizeof table (spec.md §4.I SizeofExpr),
// recursing into struct member sizes and multiplying array element size
// by total element count.
func (c *Context) sizeOfType(t types.TypeInfo, typeName string) int {
	if t.IsArray() {
		elem := c.sizeOfType(t.ElemType(), typeName)
		if def, ok := c.Structs.FindStructDefinition(typeName); ok {
			_ = def
		}
		return elem
	}
	if t == types.Struct {
		def, ok := c.Structs.FindStructDefinition(typeName)
		if !ok {
			return 0
		}
		total := 0
		for _, f := range def.Fields {
			if f.IsPointer {
				total += types.Size(types.Pointer)
				continue
			}
			if f.IsArray {
				count, _ := f.ArrayType.TotalSize()
				total += count * c.sizeOfType(f.Type, f.TypeName)
				continue
			}
			total += c.sizeOfType(f.Type, f.TypeName)
		}
		return total
	}
	return types.Size(t)
}
