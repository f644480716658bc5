// Statement executor (spec.md §4.J, component K): control flow,
// declarations, and the function-invocation state machine. Like the
// evaluator, it dispatches over ast.Node.Kind with one big switch rather
// than a visitor interface, matching the teacher's single-dispatch-point
// style.
package interp

import (
	"fmt"
	"os"

	"cb/internal/ast"
	"cb/internal/cberr"
	"cb/internal/enummgr"
	"cb/internal/ifacemgr"
	"cb/internal/structmgr"
	"cb/internal/typemgr"
	"cb/internal/types"
	"cb/internal/value"
)

// EscapeKind tags a non-local control transfer produced by executing a
// statement. Rather than panic/recover, ExecuteStatement returns a
// *Escape value up the call stack explicitly (spec.md §9 Design Notes'
// suggested ControlFlow sum type), and each compound statement checks
// for one after every child statement it runs.
type EscapeKind int

const (
	Return EscapeKind = iota
	Break
	Continue
)

// Escape carries a Return's payload; Break/Continue carry none.
type Escape struct {
	Kind  EscapeKind
	Value *value.Variable
}

// ExecuteStatement runs n and returns a non-nil *Escape if n (or
// something it ran) triggered a return/break/continue that must
// propagate past this point.
func (c *Context) ExecuteStatement(n *ast.Node) (*Escape, error) {
	if n == nil {
		return nil, nil
	}
	switch n.Kind {
	case ast.StmtList:
		return c.execStmtList(n)
	case ast.VarDecl:
		return nil, c.execVarDecl(n)
	case ast.Assign:
		_, err := c.EvaluateTypedExpression(n)
		return nil, err
	case ast.If:
		return c.execIf(n)
	case ast.While:
		return c.execWhile(n)
	case ast.For:
		return c.execFor(n)
	case ast.Return:
		return c.execReturn(n)
	case ast.Break:
		return &Escape{Kind: Break}, nil
	case ast.Continue:
		return &Escape{Kind: Continue}, nil
	case ast.Assert:
		return nil, c.execAssert(n)
	case ast.PrintStmt, ast.PrintlnStmt, ast.PrintfStmt:
		return nil, c.execPrint(n)
	case ast.StructDecl:
		return nil, c.execStructDecl(n)
	case ast.StructTypedefDecl:
		return nil, c.execStructTypedefDecl(n)
	case ast.InterfaceDecl:
		return nil, c.execInterfaceDecl(n)
	case ast.ImplDecl:
		return nil, c.execImplDecl(n)
	case ast.EnumDecl:
		return nil, c.execEnumDecl(n)
	case ast.UnionDecl:
		return nil, c.execUnionDecl(n)
	case ast.TypedefDecl:
		return nil, c.execTypedefDecl(n)
	case ast.FuncDecl:
		return nil, c.RegisterFunction(n.Name, n)
	case ast.PreprocessorDirective:
		// preprocessing runs as a source-to-source pass before the AST is
		// built; a directive node reaching the executor is inert.
		return nil, nil
	default:
		// a bare expression statement
		_, err := c.EvaluateTypedExpression(n)
		return nil, err
	}
}

func (c *Context) execStmtList(n *ast.Node) (*Escape, error) {
	c.Scope.PushScope()
	defer c.Scope.PopScope()
	for _, stmt := range n.Arguments {
		esc, err := c.ExecuteStatement(stmt)
		if err != nil {
			return nil, err
		}
		if esc != nil {
			return esc, nil
		}
	}
	return nil, nil
}

// execVarDecl handles both ordinary and static/reference declarations.
// A `static` declaration is only initialized the first time its
// declaration site is reached (spec.md §3 Lifecycles); a `reference`
// declaration binds to its initializer's l-value rather than copying it.
func (c *Context) execVarDecl(n *ast.Node) error {
	if n.IsReference {
		target, err := c.lvalue(n.InitExpr)
		if err != nil {
			return err
		}
		addr := c.Heap.AddressOf(target)
		c.Vars.DeclareReference(n.Name, addr)
		return nil
	}

	if n.IsStatic {
		if existing, ok := c.Scope.FindStatic(n.Name); ok {
			_ = existing
			return nil
		}
		v, err := c.newDeclaredVariable(n)
		if err != nil {
			return err
		}
		if n.InitExpr != nil {
			tv, err := c.EvaluateTypedExpression(n.InitExpr)
			if err != nil {
				return err
			}
			copyScalarOrAggregate(v, tv.Var)
		}
		c.Vars.DeclareStatic(n.Name, v)
		return nil
	}

	if n.IsImplStatic {
		if existing, ok := c.Scope.FindStatic(n.Name); ok {
			_ = existing
			return nil
		}
		v, err := c.newDeclaredVariable(n)
		if err != nil {
			return err
		}
		if n.InitExpr != nil {
			tv, err := c.EvaluateTypedExpression(n.InitExpr)
			if err != nil {
				return err
			}
			copyScalarOrAggregate(v, tv.Var)
		}
		c.Vars.DeclareImplStatic(n.Name, v)
		return nil
	}

	v, err := c.newDeclaredVariable(n)
	if err != nil {
		return err
	}

	// Interface- and union-typed declarations route their initializer
	// through the interface/union managers rather than varmgr's scalar
	// path, since assigning either carries compatibility checks varmgr
	// doesn't know about (spec.md §4.F, §3 invariant 7).
	if v.Type == types.Interface {
		if n.InitExpr != nil {
			tv, err := c.EvaluateTypedExpression(n.InitExpr)
			if err != nil {
				return err
			}
			rhsName := ""
			if n.InitExpr.Kind == ast.Variable {
				rhsName = n.InitExpr.Name
			}
			if err := c.Ifaces.AssignInterfaceView(c.Scope, v, n.TypeName, tv.Var, rhsName); err != nil {
				return err
			}
		}
		if c.Scope.Depth() == 1 {
			c.Scope.DeclareGlobal(n.Name, v)
		} else {
			c.Scope.DeclareLocal(n.Name, v)
		}
		return nil
	}
	if v.Type == types.Union {
		if n.InitExpr != nil {
			tv, err := c.EvaluateTypedExpression(n.InitExpr)
			if err != nil {
				return err
			}
			if err := c.Vars.AssignUnionValue(c.loc(n), v, n.TypeName, tv.Var, unionRHSTypeName(tv.Var)); err != nil {
				return err
			}
		}
		if c.Scope.Depth() == 1 {
			c.Scope.DeclareGlobal(n.Name, v)
		} else {
			c.Scope.DeclareLocal(n.Name, v)
		}
		return nil
	}

	var init *value.Variable
	if n.InitExpr != nil {
		tv, err := c.EvaluateTypedExpression(n.InitExpr)
		if err != nil {
			return err
		}
		init = tv.Var
		if init.IsStruct {
			v.IsStruct, v.StructTypeName, v.StructMembers = true, init.StructTypeName, init.Clone().StructMembers
			init = nil
		} else if init.IsArray {
			cloned := init.Clone()
			v.IsArray, v.ArrayType = true, cloned.ArrayType
			v.FlatInts, v.FlatStrings, v.FlatFloats, v.FlatQuads = cloned.FlatInts, cloned.FlatStrings, cloned.FlatFloats, cloned.FlatQuads
			init = nil
		} else if init.Type.IsFloatingPoint() {
			v.SetCoherentFloat(init.AsDouble())
		}
	}

	if c.Scope.Depth() == 1 {
		if err := c.Vars.DeclareGlobalVariable(c.loc(n), n.Name, v, init); err != nil {
			return err
		}
	} else if err := c.Vars.DeclareLocalVariable(c.loc(n), n.Name, v, init); err != nil {
		return err
	}

	if v.IsStruct {
		c.Structs.SyncDirectAccessFromStructValue(c.Scope, n.Name, v)
	}
	return nil
}

func (c *Context) newDeclaredVariable(n *ast.Node) (*value.Variable, error) {
	if n.TypeInfo == types.Interface {
		return ifacemgr.CreateInterfaceVariable(n.TypeName), nil
	}
	if n.TypeInfo == types.Union {
		return &value.Variable{Type: types.Union, TypeName: n.TypeName}, nil
	}
	if n.TypeInfo == types.Struct {
		if _, ok := c.Structs.FindStructDefinition(n.TypeName); !ok {
			return nil, cberr.New(cberr.Declaration, c.loc(n), "undefined struct type %q", n.TypeName)
		}
		v := value.NewStruct(n.TypeName)
		def, _ := c.Structs.FindStructDefinition(n.TypeName)
		for _, f := range def.Fields {
			m := value.New(f.Type)
			m.IsPrivateMember = f.IsPrivate
			if f.IsArray {
				m.IsArray, m.ArrayType = true, f.ArrayType
			}
			v.StructMembers[f.Name] = m
		}
		return v, nil
	}
	if n.ArrayType != nil {
		v := value.New(types.Array(n.ArrayType.BaseType))
		v.ArrayType = *n.ArrayType
		if total, ok := n.ArrayType.TotalSize(); ok {
			switch n.ArrayType.BaseType {
			case types.String:
				v.FlatStrings = make([]string, total)
			default:
				if n.ArrayType.BaseType.IsFloatingPoint() {
					v.FlatFloats = make([]float64, total)
				} else {
					v.FlatInts = make([]int64, total)
				}
			}
		}
		return v, nil
	}
	v := value.New(n.TypeInfo)
	v.IsConst = n.IsConst
	v.IsUnsigned = n.IsUnsigned
	v.IsPointer = n.IsPointer
	v.PointerDepth = n.PointerDepth
	return v, nil
}

func (c *Context) execIf(n *ast.Node) (*Escape, error) {
	cond, err := c.Evaluate(n.Left)
	if err != nil {
		return nil, err
	}
	if cond != 0 {
		return c.ExecuteStatement(n.Right)
	}
	return c.ExecuteStatement(n.Third)
}

func (c *Context) execWhile(n *ast.Node) (*Escape, error) {
	for {
		cond, err := c.Evaluate(n.Left)
		if err != nil {
			return nil, err
		}
		if cond == 0 {
			return nil, nil
		}
		esc, err := c.ExecuteStatement(n.Right)
		if err != nil {
			return nil, err
		}
		if esc != nil {
			if esc.Kind == Break {
				return nil, nil
			}
			if esc.Kind == Return {
				return esc, nil
			}
			// Continue: fall through to the next iteration's condition check.
		}
	}
}

// execFor expects n.InitExpr / n.Left / n.Third as the init/condition/
// post clauses and n.Right as the loop body, mirroring a C-style for.
func (c *Context) execFor(n *ast.Node) (*Escape, error) {
	c.Scope.PushScope()
	defer c.Scope.PopScope()

	if n.InitExpr != nil {
		if _, err := c.ExecuteStatement(n.InitExpr); err != nil {
			return nil, err
		}
	}
	for {
		if n.Left != nil {
			cond, err := c.Evaluate(n.Left)
			if err != nil {
				return nil, err
			}
			if cond == 0 {
				return nil, nil
			}
		}
		esc, err := c.ExecuteStatement(n.Right)
		if err != nil {
			return nil, err
		}
		if esc != nil {
			if esc.Kind == Break {
				return nil, nil
			}
			if esc.Kind == Return {
				return esc, nil
			}
		}
		if n.Third != nil {
			if _, err := c.EvaluateTypedExpression(n.Third); err != nil {
				return nil, err
			}
		}
	}
}

func (c *Context) execReturn(n *ast.Node) (*Escape, error) {
	if n.Left == nil {
		return &Escape{Kind: Return, Value: value.New(types.Void)}, nil
	}
	tv, err := c.EvaluateTypedExpression(n.Left)
	if err != nil {
		return nil, err
	}
	return &Escape{Kind: Return, Value: tv.Var}, nil
}

func (c *Context) execAssert(n *ast.Node) error {
	cond, err := c.Evaluate(n.Left)
	if err != nil {
		return err
	}
	if cond == 0 {
		msg := "assertion failed"
		if n.Right != nil {
			tv, err := c.EvaluateTypedExpression(n.Right)
			if err == nil {
				msg = tv.Var.AsString()
			}
		}
		return cberr.New(cberr.Assertion, c.loc(n), "%s", msg)
	}
	return nil
}

// execPrint implements the minimal in-core hook for print/println/printf;
// the richer formatting/output-stream surface is an external collaborator
// (spec.md §1), so this only covers argument evaluation and a stdout
// write so the statement has observable behavior in isolation.
func (c *Context) execPrint(n *ast.Node) error {
	switch n.Kind {
	case ast.PrintfStmt:
		if len(n.Arguments) == 0 {
			return nil
		}
		formatTV, err := c.EvaluateTypedExpression(n.Arguments[0])
		if err != nil {
			return err
		}
		rest := make([]value.TypedValue, 0, len(n.Arguments)-1)
		for _, a := range n.Arguments[1:] {
			tv, err := c.EvaluateTypedExpression(a)
			if err != nil {
				return err
			}
			rest = append(rest, tv)
		}
		fmt.Fprint(os.Stdout, c.FormatPrintf(formatTV.Var.AsString(), rest))
		return nil
	default:
		var parts []string
		for _, a := range n.Arguments {
			tv, err := c.EvaluateTypedExpression(a)
			if err != nil {
				return err
			}
			parts = append(parts, tv.Var.AsString())
		}
		out := ""
		for _, p := range parts {
			out += p
		}
		if n.Kind == ast.PrintlnStmt {
			out += "\n"
		}
		fmt.Fprint(os.Stdout, out)
		return nil
	}
}

func (c *Context) execStructDecl(n *ast.Node) error {
	def := &structmgr.Def{Name: n.Name}
	for _, fn := range n.Arguments {
		def.Fields = append(def.Fields, structmgr.Field{
			Name: fn.Name, Type: fn.TypeInfo, TypeName: fn.TypeName,
			IsPointer: fn.IsPointer, IsArray: fn.ArrayType != nil, IsPrivate: fn.IsPrivate,
			ArrayType: derefArrayType(fn.ArrayType),
		})
	}
	return c.Structs.RegisterStructDefinition(n.Name, def)
}

func derefArrayType(t *types.ArrayTypeInfo) types.ArrayTypeInfo {
	if t == nil {
		return types.ArrayTypeInfo{}
	}
	return *t
}

func (c *Context) execStructTypedefDecl(n *ast.Node) error {
	if err := c.execStructDecl(n); err != nil {
		return err
	}
	return c.Types.RegisterTypedef(n.TypeName, n.Name)
}

func (c *Context) execInterfaceDecl(n *ast.Node) error {
	def := &ifacemgr.InterfaceDef{Name: n.Name}
	for _, m := range n.Arguments {
		var params []string
		for _, p := range m.Arguments {
			params = append(params, p.TypeInfo.String())
		}
		def.Methods = append(def.Methods, ifacemgr.MethodSig{Name: m.Name, Params: params})
	}
	return c.Ifaces.RegisterInterfaceDefinition(n.Name, def)
}

func (c *Context) execImplDecl(n *ast.Node) error {
	def := &ifacemgr.ImplDef{InterfaceName: n.TypeName, StructName: n.Name, Methods: make(map[string]*ast.Node)}
	for _, method := range n.Arguments {
		qualified := n.Name + "::" + method.Name
		if err := c.RegisterFunction(qualified, method); err != nil {
			return err
		}
		def.Methods[method.Name] = method
	}
	c.Ifaces.RegisterImplDefinition(def)
	return nil
}

func (c *Context) execEnumDecl(n *ast.Node) error {
	def := &enummgr.Def{Name: n.Name}
	next := int64(0)
	for _, variantNode := range n.Arguments {
		v := enummgr.Variant{Name: variantNode.Name, Value: next}
		if variantNode.InitExpr != nil {
			val, err := c.Evaluate(variantNode.InitExpr)
			if err != nil {
				return err
			}
			v.Value = val
		}
		next = v.Value + 1
		def.Variants = append(def.Variants, v)
	}
	return c.Enums.Register(def)
}

func (c *Context) execTypedefDecl(n *ast.Node) error {
	return c.Types.RegisterTypedef(n.Name, n.TypeName)
}

// execUnionDecl registers a tagged union's allow-set (spec.md §3 invariant
// 7): each n.Arguments entry is a TypeSpec node describing one permitted
// member, either a builtin scalar (TypeInfo alone), or a struct/typedef/
// array-element name (TypeName, or TypeInfo.String() for an array member).
func (c *Context) execUnionDecl(n *ast.Node) error {
	def := &typemgr.UnionDef{
		Name:         n.Name,
		AllowedTypes: make(map[types.TypeInfo]bool),
		AllowedNames: make(map[string]bool),
	}
	for _, member := range n.Arguments {
		switch {
		case member.ArrayType != nil:
			def.AllowedNames[types.Array(member.ArrayType.BaseType).String()] = true
		case member.TypeName != "":
			def.AllowedNames[member.TypeName] = true
		default:
			def.AllowedTypes[member.TypeInfo] = true
		}
	}
	c.Types.RegisterUnion(def)
	return nil
}

// unionRHSTypeName derives the name AssignUnionValue checks against a
// union's AllowedNames set: a struct's type name, or an array's
// "elem[]" type string (matching how execUnionDecl records array members).
func unionRHSTypeName(v *value.Variable) string {
	switch {
	case v.IsStruct:
		return v.StructTypeName
	case v.IsArray:
		return v.Type.String()
	default:
		return ""
	}
}
