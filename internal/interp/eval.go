// Expression evaluator (spec.md §4.I, component J): produces a
// TypedValue for every expression Kind, dispatching over ast.Node the
// way the teacher's vm.go dispatches over bytecode opcodes — one big
// switch, inline arithmetic, no AST-to-AST rewriting pass.
package interp

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"cb/internal/ast"
	"cb/internal/cberr"
	"cb/internal/types"
	"cb/internal/value"
)

// Evaluate is the narrow numeric entry point for contexts (loop/if
// conditions, array index expressions) that only need the truth/index
// value of an expression.
func (c *Context) Evaluate(n *ast.Node) (int64, error) {
	tv, err := c.EvaluateTypedExpression(n)
	if err != nil {
		return 0, err
	}
	if tv.Var.Type == types.String {
		if tv.Var.StrValue != "" {
			return 1, nil
		}
		return 0, nil
	}
	return tv.Var.AsNumeric(), nil
}

func (c *Context) EvaluateTypedExpression(n *ast.Node) (value.TypedValue, error) {
	if n == nil {
		return value.NewTypedValue(value.New(types.Void), types.Void, ""), nil
	}
	switch n.Kind {
	case ast.Number:
		return c.evalNumber(n)
	case ast.StringLiteral:
		v := value.New(types.String)
		v.StrValue = n.StrValue
		return value.NewTypedValue(v, types.String, ""), nil
	case ast.NullPtr:
		v := &value.Variable{IsPointer: true, Type: types.Pointer, Value: 0}
		return value.NewTypedValue(v, types.Pointer, ""), nil
	case ast.Variable:
		return c.evalVariable(n)
	case ast.Assign:
		return c.evalAssignExpr(n)
	case ast.BinaryOp:
		return c.evalBinary(n)
	case ast.UnaryOp:
		return c.evalUnary(n)
	case ast.TernaryOp:
		return c.evalTernary(n)
	case ast.ArrayRef:
		return c.evalArrayRef(n)
	case ast.ArrayLiteral:
		return c.evalArrayLiteral(n)
	case ast.StructLiteral:
		return c.evalStructLiteral(n)
	case ast.MemberAccess:
		return c.evalMemberAccess(n)
	case ast.MemberArrayAccess:
		return c.evalMemberArrayAccess(n)
	case ast.ArrowAccess:
		return c.evalArrowAccess(n)
	case ast.EnumAccess:
		return c.evalEnumAccess(n)
	case ast.FuncCall:
		return c.evalFuncCall(n)
	case ast.NewExpr:
		return c.evalNew(n)
	case ast.DeleteExpr:
		return c.evalDelete(n)
	case ast.SizeofExpr:
		return c.evalSizeof(n)
	default:
		return value.TypedValue{}, cberr.New(cberr.Access, c.loc(n), "cannot evaluate node of kind %s as an expression", n.Kind)
	}
}

func (c *Context) evalNumber(n *ast.Node) (value.TypedValue, error) {
	t := n.TypeInfo
	if t == types.Unknown {
		t = types.Int
	}
	v := value.New(t)
	switch {
	case t.IsFloatingPoint():
		v.SetCoherentFloat(math.Float64frombits(uint64(n.IntValue)))
	default:
		v.Value = n.IntValue
	}
	return value.NewTypedValue(v, t, ""), nil
}

func (c *Context) evalVariable(n *ast.Node) (value.TypedValue, error) {
	v, ok := c.Scope.FindVariable(n.Name)
	if !ok {
		return value.TypedValue{}, cberr.New(cberr.Access, c.loc(n), "undefined variable %q", n.Name)
	}
	if v.IsReference {
		if referent, ok := c.Heap.Deref(v.Value); ok {
			return value.NewTypedValue(referent, referent.Type, referent.StructTypeName), nil
		}
	}
	if v.IsFunctionPointer {
		return value.NewTypedValue(v, types.Pointer, v.FunctionPointerName), nil
	}
	return value.NewTypedValue(v, v.Type, v.StructTypeName), nil
}

// promote implements the numeric promotion rule of spec.md §4.I:
// Quad > Double > Float > Int width.
func promote(a, b types.TypeInfo) types.TypeInfo {
	if a == types.Quad || b == types.Quad {
		return types.Quad
	}
	if a == types.Double || b == types.Double {
		return types.Double
	}
	if a == types.Float || b == types.Float {
		return types.Float
	}
	if a == types.Long || b == types.Long {
		return types.Long
	}
	return types.Int
}

func (c *Context) evalBinary(n *ast.Node) (value.TypedValue, error) {
	lhs, err := c.EvaluateTypedExpression(n.Left)
	if err != nil {
		return value.TypedValue{}, err
	}
	rhs, err := c.EvaluateTypedExpression(n.Right)
	if err != nil {
		return value.TypedValue{}, err
	}

	// string concatenation
	if n.Op == "+" && lhs.Var.Type == types.String && rhs.Var.Type == types.String {
		v := value.New(types.String)
		v.StrValue = lhs.Var.StrValue + rhs.Var.StrValue
		return value.NewTypedValue(v, types.String, ""), nil
	}

	// pointer arithmetic
	if lhs.Var.IsPointer && (n.Op == "+" || n.Op == "-") {
		if rhs.Var.IsPointer && n.Op == "-" {
			elem := c.sizeOfType(lhs.Var.PointerBaseType, lhs.Var.PointerBaseName)
			if elem == 0 {
				elem = 1
			}
			v := value.New(types.Long)
			v.Value = (lhs.Var.Value - rhs.Var.Value) / int64(elem)
			return value.NewTypedValue(v, types.Long, ""), nil
		}
		elem := c.sizeOfType(lhs.Var.PointerBaseType, lhs.Var.PointerBaseName)
		if elem == 0 {
			elem = 1
		}
		delta := rhs.Var.AsNumeric() * int64(elem)
		v := lhs.Var.Clone()
		if n.Op == "+" {
			v.Value += delta
		} else {
			v.Value -= delta
		}
		return value.NewTypedValue(v, types.Pointer, lhs.Var.PointerBaseName), nil
	}

	switch n.Op {
	case "==", "!=", "<", "<=", ">", ">=", "&&", "||":
		return c.evalComparisonOrLogical(n, lhs, rhs)
	}

	promoted := promote(lhs.Var.Type.BaseOrSelf(), rhs.Var.Type.BaseOrSelf())
	if promoted.IsFloatingPoint() {
		a, b := lhs.Var.AsDouble(), rhs.Var.AsDouble()
		var r float64
		switch n.Op {
		case "+":
			r = a + b
		case "-":
			r = a - b
		case "*":
			r = a * b
		case "/":
			if b == 0 {
				return value.TypedValue{}, cberr.New(cberr.Arithmetic, c.loc(n), "division by zero")
			}
			r = a / b
		default:
			return value.TypedValue{}, cberr.New(cberr.Access, c.loc(n), "unsupported operator %q for floating-point operands", n.Op)
		}
		v := value.New(promoted)
		v.SetCoherentFloat(r)
		return value.NewTypedValue(v, promoted, ""), nil
	}

	a, b := lhs.Var.AsNumeric(), rhs.Var.AsNumeric()
	var r int64
	switch n.Op {
	case "+":
		r = a + b
	case "-":
		r = a - b
	case "*":
		r = a * b
	case "/":
		if b == 0 {
			return value.TypedValue{}, cberr.New(cberr.Arithmetic, c.loc(n), "division by zero")
		}
		r = a / b
	case "%":
		if b == 0 {
			return value.TypedValue{}, cberr.New(cberr.Arithmetic, c.loc(n), "modulo by zero")
		}
		r = a % b
	case "&":
		r = a & b
	case "|":
		r = a | b
	case "^":
		r = a ^ b
	case "<<":
		r = a << uint(b)
	case ">>":
		r = a >> uint(b)
	default:
		return value.TypedValue{}, cberr.New(cberr.Access, c.loc(n), "unsupported binary operator %q", n.Op)
	}
	v := value.New(promoted)
	v.Value = r
	return value.NewTypedValue(v, promoted, ""), nil
}

func (c *Context) evalComparisonOrLogical(n *ast.Node, lhs, rhs value.TypedValue) (value.TypedValue, error) {
	v := value.New(types.Bool)
	truth := func(tv value.TypedValue) bool {
		if tv.Var.Type == types.String {
			return tv.Var.StrValue != ""
		}
		return tv.Var.AsNumeric() != 0
	}
	switch n.Op {
	case "&&":
		v.Value = b2i(truth(lhs) && truth(rhs))
	case "||":
		v.Value = b2i(truth(lhs) || truth(rhs))
	case "==":
		v.Value = b2i(valuesEqual(lhs.Var, rhs.Var))
	case "!=":
		v.Value = b2i(!valuesEqual(lhs.Var, rhs.Var))
	case "<":
		v.Value = b2i(compareNumeric(lhs.Var, rhs.Var) < 0)
	case "<=":
		v.Value = b2i(compareNumeric(lhs.Var, rhs.Var) <= 0)
	case ">":
		v.Value = b2i(compareNumeric(lhs.Var, rhs.Var) > 0)
	case ">=":
		v.Value = b2i(compareNumeric(lhs.Var, rhs.Var) >= 0)
	}
	return value.NewTypedValue(v, types.Bool, ""), nil
}

func b2i(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func valuesEqual(a, b *value.Variable) bool {
	if a.Type == types.String || b.Type == types.String {
		return a.AsString() == b.AsString()
	}
	if a.Type.IsFloatingPoint() || b.Type.IsFloatingPoint() {
		return a.AsDouble() == b.AsDouble()
	}
	return a.AsNumeric() == b.AsNumeric()
}

func compareNumeric(a, b *value.Variable) int {
	if a.Type.IsFloatingPoint() || b.Type.IsFloatingPoint() {
		af, bf := a.AsDouble(), b.AsDouble()
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	ai, bi := a.AsNumeric(), b.AsNumeric()
	switch {
	case ai < bi:
		return -1
	case ai > bi:
		return 1
	default:
		return 0
	}
}

func (c *Context) evalUnary(n *ast.Node) (value.TypedValue, error) {
	switch n.Op {
	case "&":
		return c.evalAddressOf(n)
	case "*":
		return c.evalDeref(n)
	case "++", "--":
		return c.evalIncDec(n)
	}

	operand, err := c.EvaluateTypedExpression(n.Left)
	if err != nil {
		return value.TypedValue{}, err
	}
	v := value.New(operand.Var.Type)
	switch n.Op {
	case "-":
		if operand.Var.Type.IsFloatingPoint() {
			v.SetCoherentFloat(-operand.Var.AsDouble())
		} else {
			v.Value = -operand.Var.AsNumeric()
		}
	case "+":
		return operand, nil
	case "!":
		v.Type = types.Bool
		v.Value = b2i(operand.Var.AsNumeric() == 0)
	case "~":
		v.Value = ^operand.Var.AsNumeric()
	default:
		return value.TypedValue{}, cberr.New(cberr.Access, c.loc(n), "unsupported unary operator %q", n.Op)
	}
	return value.NewTypedValue(v, v.Type, ""), nil
}

// evalAddressOf implements `&x`: if x names a function, produce a
// function-pointer value; otherwise produce a pointer value whose
// address resolves (through the heap arena) back to the same cell.
func (c *Context) evalAddressOf(n *ast.Node) (value.TypedValue, error) {
	operand := n.Left
	if operand.Kind == ast.Variable {
		if fn, ok := c.Functions[operand.Name]; ok {
			v := &value.Variable{
				IsFunctionPointer:   true,
				FunctionPointerName: operand.Name,
				FunctionPointerRef:  &value.FunctionPointer{Name: operand.Name, Decl: fn.Decl},
			}
			return value.NewTypedValue(v, types.Pointer, operand.Name), nil
		}
	}
	target, err := c.lvalue(operand)
	if err != nil {
		return value.TypedValue{}, err
	}
	addr := c.Heap.AddressOf(target)
	v := &value.Variable{
		IsPointer:       true,
		Type:            types.Pointer,
		Value:           addr,
		PointerBaseType: target.Type,
		PointerBaseName: target.StructTypeName,
	}
	return value.NewTypedValue(v, types.Pointer, target.StructTypeName), nil
}

// evalDeref implements `*p`: null is fatal, per spec.md §3 invariant 5.
func (c *Context) evalDeref(n *ast.Node) (value.TypedValue, error) {
	tv, err := c.EvaluateTypedExpression(n.Left)
	if err != nil {
		return value.TypedValue{}, err
	}
	if !tv.Var.IsPointer {
		return value.TypedValue{}, cberr.New(cberr.Access, c.loc(n), "indirection of a non-pointer value")
	}
	if tv.Var.Value == 0 {
		return value.TypedValue{}, cberr.New(cberr.Access, c.loc(n), "null pointer dereference")
	}
	referent, ok := c.Heap.Deref(tv.Var.Value)
	if !ok {
		return value.TypedValue{}, cberr.New(cberr.Access, c.loc(n), "dereference of an invalid pointer")
	}
	return value.NewTypedValue(referent, referent.Type, referent.StructTypeName), nil
}

func (c *Context) evalIncDec(n *ast.Node) (value.TypedValue, error) {
	target, err := c.lvalue(n.Left)
	if err != nil {
		return value.TypedValue{}, err
	}
	before := target.Clone()
	delta := int64(1)
	if n.Op == "--" {
		delta = -1
	}
	if target.Type.IsFloatingPoint() {
		target.SetCoherentFloat(target.AsDouble() + float64(delta))
	} else {
		target.Value += delta
	}
	if n.IsPostfix {
		return value.NewTypedValue(before, before.Type, ""), nil
	}
	return value.NewTypedValue(target, target.Type, ""), nil
}

// lvalue resolves an expression to the *Variable cell it names, without
// evaluating it as an rvalue — used by &, ++/--, and assignment targets.
func (c *Context) lvalue(n *ast.Node) (*value.Variable, error) {
	switch n.Kind {
	case ast.Variable:
		v, ok := c.Scope.FindVariable(n.Name)
		if !ok {
			return nil, cberr.New(cberr.Access, c.loc(n), "undefined variable %q", n.Name)
		}
		if v.IsReference {
			if referent, ok := c.Heap.Deref(v.Value); ok {
				return referent, nil
			}
		}
		return v, nil
	case ast.MemberAccess:
		obj, err := c.lvalue(n.Left)
		if err != nil {
			return nil, err
		}
		c.Structs.SyncStructMembersFromDirectAccess(c.Scope, n.Left.Name, obj)
		return c.Structs.GetStructMember(obj, n.Name)
	case ast.ArrowAccess:
		ptr, err := c.EvaluateTypedExpression(n.Left)
		if err != nil {
			return nil, err
		}
		if ptr.Var.Value == 0 {
			return nil, cberr.New(cberr.Access, c.loc(n), "null pointer dereference in arrow access")
		}
		referent, ok := c.Heap.Deref(ptr.Var.Value)
		if !ok {
			return nil, cberr.New(cberr.Access, c.loc(n), "dereference of an invalid pointer")
		}
		return c.Structs.GetStructMember(referent, n.Name)
	case ast.ArrayRef:
		tv, err := c.evalArrayRefCell(n)
		return tv, err
	default:
		tv, err := c.EvaluateTypedExpression(n)
		if err != nil {
			return nil, err
		}
		return tv.Var, nil
	}
}

func (c *Context) evalTernary(n *ast.Node) (value.TypedValue, error) {
	cond, err := c.Evaluate(n.Left)
	if err != nil {
		return value.TypedValue{}, err
	}
	if cond != 0 {
		return c.EvaluateTypedExpression(n.Right)
	}
	return c.EvaluateTypedExpression(n.Third)
}

// evalArrayRefCell resolves an ArrayRef to the backing *Variable cell
// that owns the flat element (for lvalue use: assignment, &, ++/--).
// It does not itself return the *element*: lvalue therefore yields the
// whole array cell for an ArrayRef. Element reads and writes
// (evalArrayRef, assignArrayElement) index the cell's Flat* slices via
// c.arrayIndices and ArrayType.FlatIndex.
func (c *Context) evalArrayRefCell(n *ast.Node) (*value.Variable, error) {
	base, err := c.lvalue(n.Left)
	if err != nil {
		return nil, err
	}
	return base, nil
}

func (c *Context) arrayIndices(n *ast.Node) ([]int, error) {
	indices := make([]int, len(n.ArrayIndex))
	for i, expr := range n.ArrayIndex {
		idx, err := c.Evaluate(expr)
		if err != nil {
			return nil, err
		}
		indices[i] = int(idx)
	}
	return indices, nil
}

func (c *Context) evalArrayRef(n *ast.Node) (value.TypedValue, error) {
	base, err := c.lvalue(n.Left)
	if err != nil {
		return value.TypedValue{}, err
	}
	// String element access uses UTF-8 code-point indexing (spec.md
	// §4.I ArrayRef).
	if base.Type == types.String && !base.IsArray {
		idx, err := c.Evaluate(n.ArrayIndex[0])
		if err != nil {
			return value.TypedValue{}, err
		}
		runes := []rune(base.StrValue)
		if idx < 0 || int(idx) >= len(runes) {
			return value.TypedValue{}, cberr.New(cberr.Access, c.loc(n), "string index %d out of bounds (length %d)", idx, utf8.RuneCountInString(base.StrValue))
		}
		v := value.New(types.Char)
		v.Value = int64(runes[idx])
		return value.NewTypedValue(v, types.Char, ""), nil
	}
	if !base.IsArray {
		return value.TypedValue{}, cberr.New(cberr.Access, c.loc(n), "%q is not an array", n.Left.Name)
	}
	indices, err := c.arrayIndices(n)
	if err != nil {
		return value.TypedValue{}, err
	}
	flat, err := base.ArrayType.FlatIndex(indices)
	if err != nil {
		return value.TypedValue{}, cberr.New(cberr.Access, c.loc(n), "%s", err)
	}
	elem := base.ArrayType.BaseType
	v := value.New(elem)
	switch {
	case elem == types.String:
		v.StrValue = base.FlatStrings[flat]
	case elem.IsFloatingPoint():
		v.SetCoherentFloat(base.FlatFloats[flat])
	default:
		v.Value = base.FlatInts[flat]
	}
	return value.NewTypedValue(v, elem, ""), nil
}

func (c *Context) evalArrayLiteral(n *ast.Node) (value.TypedValue, error) {
	elemType := n.TypeInfo
	v := value.New(types.Array(elemType))
	var collect func(node *ast.Node) error
	dims := []int32{int32(len(n.Arguments))}
	collect = func(node *ast.Node) error {
		for _, el := range node.Arguments {
			if el.Kind == ast.ArrayLiteral {
				if err := collect(el); err != nil {
					return err
				}
				continue
			}
			tv, err := c.EvaluateTypedExpression(el)
			if err != nil {
				return err
			}
			switch {
			case elemType == types.String:
				v.FlatStrings = append(v.FlatStrings, tv.Var.AsString())
			case elemType.IsFloatingPoint():
				v.FlatFloats = append(v.FlatFloats, tv.Var.AsDouble())
			default:
				v.FlatInts = append(v.FlatInts, tv.Var.AsNumeric())
			}
		}
		return nil
	}
	if len(n.Arguments) > 0 && n.Arguments[0].Kind == ast.ArrayLiteral {
		dims = append(dims, int32(len(n.Arguments[0].Arguments)))
		v.IsMultidimensional = true
	}
	if err := collect(n); err != nil {
		return value.TypedValue{}, err
	}
	dimList := make([]types.Dimension, len(dims))
	for i, d := range dims {
		dimList[i] = types.Dimension{Size: d}
	}
	v.ArrayType = types.ArrayTypeInfo{BaseType: elemType, Dimensions: dimList}
	return value.NewTypedValue(v, types.Array(elemType), ""), nil
}

func (c *Context) evalStructLiteral(n *ast.Node) (value.TypedValue, error) {
	def, ok := c.Structs.FindStructDefinition(n.TypeName)
	if !ok {
		return value.TypedValue{}, cberr.New(cberr.Declaration, c.loc(n), "undefined struct type %q", n.TypeName)
	}
	v := value.NewStruct(n.TypeName)
	for i, f := range def.Fields {
		member := value.New(f.Type)
		member.IsPrivateMember = f.IsPrivate
		if f.IsArray {
			member.IsArray = true
			member.ArrayType = f.ArrayType
		}
		if i < len(n.Arguments) {
			tv, err := c.EvaluateTypedExpression(n.Arguments[i])
			if err != nil {
				return value.TypedValue{}, err
			}
			if tv.Var.IsStruct {
				member = tv.Var.Clone()
				member.IsPrivateMember = f.IsPrivate
			} else if tv.Var.IsArray {
				member = tv.Var.Clone()
				member.IsPrivateMember = f.IsPrivate
			} else {
				member.Value = tv.Var.Value
				member.StrValue = tv.Var.StrValue
				member.FloatValue, member.DoubleValue, member.QuadValue = tv.Var.FloatValue, tv.Var.DoubleValue, tv.Var.QuadValue
			}
		}
		v.StructMembers[f.Name] = member
	}
	return value.NewTypedValue(v, types.Struct, n.TypeName), nil
}

func (c *Context) evalMemberAccess(n *ast.Node) (value.TypedValue, error) {
	obj, err := c.lvalue(n.Left)
	if err != nil {
		return value.TypedValue{}, err
	}
	if obj.IsStruct || obj.Type == types.Interface {
		c.Structs.SyncStructMembersFromDirectAccess(c.Scope, n.Left.Name, obj)
		member, err := c.Structs.GetStructMember(obj, n.Name)
		if err != nil {
			return value.TypedValue{}, err
		}
		return value.NewTypedValue(member, member.Type, member.StructTypeName), nil
	}
	return value.TypedValue{}, cberr.New(cberr.Access, c.loc(n), "member access on a non-struct, non-interface value")
}

func (c *Context) evalMemberArrayAccess(n *ast.Node) (value.TypedValue, error) {
	obj, err := c.lvalue(n.Left)
	if err != nil {
		return value.TypedValue{}, err
	}
	member, err := c.Structs.GetStructMember(obj, n.Name)
	if err != nil {
		return value.TypedValue{}, err
	}
	indices, err := c.arrayIndices(n)
	if err != nil {
		return value.TypedValue{}, err
	}
	// Always use the member's real dimensions for the row-major flat
	// index (spec.md Open Questions: the source's `i0*10+i1` fallback
	// is a bug we do not reproduce).
	flat, err := member.ArrayType.FlatIndex(indices)
	if err != nil {
		return value.TypedValue{}, cberr.New(cberr.Access, c.loc(n), "%s", err)
	}
	elem := member.ArrayType.BaseType
	v := value.New(elem)
	switch {
	case elem == types.String:
		v.StrValue = member.FlatStrings[flat]
	case elem.IsFloatingPoint():
		v.SetCoherentFloat(member.FlatFloats[flat])
	default:
		v.Value = member.FlatInts[flat]
	}
	return value.NewTypedValue(v, elem, ""), nil
}

func (c *Context) evalArrowAccess(n *ast.Node) (value.TypedValue, error) {
	ptr, err := c.EvaluateTypedExpression(n.Left)
	if err != nil {
		return value.TypedValue{}, err
	}
	if ptr.Var.Value == 0 {
		return value.TypedValue{}, cberr.New(cberr.Access, c.loc(n), "null pointer dereference in arrow access")
	}
	referent, ok := c.Heap.Deref(ptr.Var.Value)
	if !ok {
		return value.TypedValue{}, cberr.New(cberr.Access, c.loc(n), "dereference of an invalid pointer")
	}
	member, err := c.Structs.GetStructMember(referent, n.Name)
	if err != nil {
		return value.TypedValue{}, err
	}
	return value.NewTypedValue(member, member.Type, member.StructTypeName), nil
}

func (c *Context) evalEnumAccess(n *ast.Node) (value.TypedValue, error) {
	variant, err := c.Enums.Lookup(n.EnumName, n.Variant)
	if err != nil {
		return value.TypedValue{}, err
	}
	v := &value.Variable{
		Type: types.Enum, IsEnum: true, EnumTypeName: n.EnumName, EnumVariant: n.Variant,
		Value: variant.Value,
	}
	if variant.HasAssocInt {
		v.HasAssociatedInt = true
		v.AssociatedIntValue = variant.Value
	}
	return value.NewTypedValue(v, types.Enum, n.EnumName), nil
}

func (c *Context) evalAssignExpr(n *ast.Node) (value.TypedValue, error) {
	rhs, err := c.EvaluateTypedExpression(n.Right)
	if err != nil {
		return value.TypedValue{}, err
	}

	// Interface- and union-typed variables carry compatibility checks
	// (impl lookup, allow-set membership) that varmgr's generic
	// AssignVariable doesn't know about, so `x = y;` against an
	// already-declared interface/union variable routes through the
	// owning manager instead (spec.md §4.F, §3 invariant 7) — mirroring
	// how execVarDecl routes a fresh interface/union declaration.
	if n.Left.Kind == ast.Variable {
		if existing, ok := c.Scope.FindVariable(n.Left.Name); ok {
			rhsName := ""
			if n.Right.Kind == ast.Variable {
				rhsName = n.Right.Name
			}
			switch existing.Type {
			case types.Interface:
				if err := c.Ifaces.AssignInterfaceView(c.Scope, existing, existing.InterfaceName, rhs.Var, rhsName); err != nil {
					return value.TypedValue{}, err
				}
				return rhs, nil
			case types.Union:
				if err := c.Vars.AssignUnionValue(c.loc(n), existing, existing.TypeName, rhs.Var, unionRHSTypeName(rhs.Var)); err != nil {
					return value.TypedValue{}, err
				}
				return rhs, nil
			}
		}
	}

	if err := c.assignTo(n.Left, rhs.Var); err != nil {
		return value.TypedValue{}, err
	}
	return rhs, nil
}

// assignTo dispatches an assignment by the shape of its LHS expression:
// plain name (routes through varmgr for const/reference/range checks),
// member/arrow access, or array element.
func (c *Context) assignTo(lhs *ast.Node, rhs *value.Variable) error {
	switch lhs.Kind {
	case ast.Variable:
		return c.Vars.AssignVariable(c.loc(lhs), lhs.Name, rhs)
	case ast.MemberAccess:
		obj, err := c.lvalue(lhs.Left)
		if err != nil {
			return err
		}
		member, err := c.Structs.GetStructMember(obj, lhs.Name)
		if err != nil {
			return err
		}
		copyScalarOrAggregate(member, rhs)
		c.Structs.SyncDirectAccessFromStructValue(c.Scope, lhs.Left.Name, obj)
		return nil
	case ast.ArrowAccess:
		ptrTV, err := c.EvaluateTypedExpression(lhs.Left)
		if err != nil {
			return err
		}
		referent, ok := c.Heap.Deref(ptrTV.Var.Value)
		if !ok {
			return cberr.New(cberr.Access, c.loc(lhs), "dereference of an invalid pointer")
		}
		member, err := c.Structs.GetStructMember(referent, lhs.Name)
		if err != nil {
			return err
		}
		copyScalarOrAggregate(member, rhs)
		return nil
	case ast.ArrayRef:
		return c.assignArrayElement(lhs, rhs)
	case ast.MemberArrayAccess:
		return c.assignMemberArrayElement(lhs, rhs)
	case ast.UnaryOp:
		if lhs.Op == "*" {
			tv, err := c.EvaluateTypedExpression(lhs.Left)
			if err != nil {
				return err
			}
			if tv.Var.Value == 0 {
				return cberr.New(cberr.Access, c.loc(lhs), "null pointer dereference")
			}
			referent, ok := c.Heap.Deref(tv.Var.Value)
			if !ok {
				return cberr.New(cberr.Access, c.loc(lhs), "dereference of an invalid pointer")
			}
			copyScalarOrAggregate(referent, rhs)
			return nil
		}
	}
	return cberr.New(cberr.Access, c.loc(lhs), "invalid assignment target")
}

func copyScalarOrAggregate(dst, src *value.Variable) {
	if src.IsStruct {
		dst.IsStruct = true
		dst.StructTypeName = src.StructTypeName
		dst.StructMembers = src.Clone().StructMembers
		return
	}
	if src.IsArray {
		c := src.Clone()
		dst.IsArray = true
		dst.ArrayType = c.ArrayType
		dst.FlatInts, dst.FlatStrings, dst.FlatFloats, dst.FlatQuads = c.FlatInts, c.FlatStrings, c.FlatFloats, c.FlatQuads
		return
	}
	dst.Value = src.Value
	dst.StrValue = src.StrValue
	dst.FloatValue, dst.DoubleValue, dst.QuadValue = src.FloatValue, src.DoubleValue, src.QuadValue
	dst.IsAssigned = true
}

func (c *Context) assignArrayElement(lhs *ast.Node, rhs *value.Variable) error {
	base, err := c.lvalue(lhs.Left)
	if err != nil {
		return err
	}
	indices, err := c.arrayIndices(lhs)
	if err != nil {
		return err
	}
	flat, err := base.ArrayType.FlatIndex(indices)
	if err != nil {
		return cberr.New(cberr.Access, c.loc(lhs), "%s", err)
	}
	switch base.ArrayType.BaseType {
	case types.String:
		base.FlatStrings[flat] = rhs.AsString()
	default:
		if base.ArrayType.BaseType.IsFloatingPoint() {
			base.FlatFloats[flat] = rhs.AsDouble()
		} else {
			base.FlatInts[flat] = rhs.AsNumeric()
		}
	}
	return nil
}

func (c *Context) assignMemberArrayElement(lhs *ast.Node, rhs *value.Variable) error {
	obj, err := c.lvalue(lhs.Left)
	if err != nil {
		return err
	}
	member, err := c.Structs.GetStructMember(obj, lhs.Name)
	if err != nil {
		return err
	}
	indices, err := c.arrayIndices(lhs)
	if err != nil {
		return err
	}
	flat, err := member.ArrayType.FlatIndex(indices)
	if err != nil {
		return cberr.New(cberr.Access, c.loc(lhs), "%s", err)
	}
	switch member.ArrayType.BaseType {
	case types.String:
		member.FlatStrings[flat] = rhs.AsString()
	default:
		if member.ArrayType.BaseType.IsFloatingPoint() {
			member.FlatFloats[flat] = rhs.AsDouble()
		} else {
			member.FlatInts[flat] = rhs.AsNumeric()
		}
	}
	c.Structs.SyncDirectAccessFromStructValue(c.Scope, lhs.Left.Name, obj)
	return nil
}

func (c *Context) evalFuncCall(n *ast.Node) (value.TypedValue, error) {
	var sig *FuncSig
	var ok bool
	name := n.Name
	if n.Left != nil && n.Left.Kind == ast.Variable {
		name = n.Left.Name
	}

	// obj.method(...): the receiver expression lives under n.Left as a
	// MemberAccess (Left: receiver, Name: method name), mirroring how
	// evalMemberAccess already reads a MemberAccess node. Resolve the
	// receiver's struct type, dispatch through the impl registry to the
	// qualified "Struct::method" function execImplDecl registered, and
	// open that struct's private members for the call's duration.
	var implStruct string
	var receiver *value.Variable
	if n.Left != nil && n.Left.Kind == ast.MemberAccess {
		var err error
		receiver, err = c.lvalue(n.Left.Left)
		if err != nil {
			return value.TypedValue{}, err
		}
		if !receiver.IsStruct {
			return value.TypedValue{}, cberr.New(cberr.Access, c.loc(n), "method call on a non-struct value")
		}
		if _, ok := c.Ifaces.FindMethod(receiver.StructTypeName, n.Left.Name); !ok {
			return value.TypedValue{}, cberr.New(cberr.Access, c.loc(n), "struct %s has no method %q", receiver.StructTypeName, n.Left.Name)
		}
		implStruct = receiver.StructTypeName
		name = implStruct + "::" + n.Left.Name
	}

	sig, ok = c.Functions[name]
	if !ok && n.Left != nil && implStruct == "" {
		// callee is a variable-expression holding a function pointer
		tv, err := c.EvaluateTypedExpression(n.Left)
		if err != nil {
			return value.TypedValue{}, err
		}
		if !tv.Var.IsFunctionPointer || tv.Var.FunctionPointerRef == nil {
			return value.TypedValue{}, cberr.New(cberr.Access, c.loc(n), "%q is not callable", name)
		}
		sig = &FuncSig{Decl: tv.Var.FunctionPointerRef.Decl}
		for _, p := range sig.Decl.Arguments {
			sig.Params = append(sig.Params, *p)
		}
	}
	if sig == nil {
		return value.TypedValue{}, cberr.New(cberr.Access, c.loc(n), "undefined function %q", name)
	}

	// evaluate arguments left-to-right before the callee runs (spec.md §5).
	args := make([]value.TypedValue, len(n.Arguments))
	for i, a := range n.Arguments {
		tv, err := c.EvaluateTypedExpression(a)
		if err != nil {
			return value.TypedValue{}, err
		}
		args[i] = tv
	}

	c.Scope.PushScope()
	defer c.Scope.PopScope()

	// self binds the receiver variable itself (not a copy) so writes
	// through self.field inside the method body mutate the caller's
	// struct, matching get_self_receiver_path/sync_self_to_receiver in
	// original_source's InterfaceOperations.
	if receiver != nil {
		c.Scope.DeclareLocal("self", receiver)
	}

	for i, p := range sig.Params {
		if i >= len(args) {
			break
		}
		if p.IsReference {
			addr := c.Heap.AddressOf(args[i].Var)
			c.Vars.DeclareReference(p.Name, addr)
			continue
		}
		if p.TypeInfo.IsArray() {
			c.Vars.AssignArrayParameter(p.Name, args[i].Var, p.TypeInfo)
			continue
		}
		if err := c.Vars.AssignFunctionParameter(c.loc(n), p.Name, args[i].Var, p.TypeInfo, p.IsUnsigned); err != nil {
			return value.TypedValue{}, err
		}
	}

	prevFn := c.CurrentFunction
	c.CurrentFunction = name
	defer func() { c.CurrentFunction = prevFn }()

	if implStruct != "" {
		c.Structs.PushImplContext(implStruct)
		defer c.Structs.PopImplContext()
	}

	esc, err := c.ExecuteStatement(sig.Decl.Right)
	if err != nil {
		return value.TypedValue{}, err
	}
	if esc != nil && esc.Kind == Return {
		return value.NewTypedValue(esc.Value, esc.Value.Type, esc.Value.StructTypeName), nil
	}
	return value.NewTypedValue(value.New(types.Void), types.Void, ""), nil
}

func (c *Context) evalNew(n *ast.Node) (value.TypedValue, error) {
	if def, ok := c.Structs.FindStructDefinition(n.TypeName); ok {
		_ = def
		cell, err := c.evalStructLiteral(&ast.Node{Kind: ast.StructLiteral, TypeName: n.TypeName})
		if err != nil {
			return value.TypedValue{}, err
		}
		addr := c.Heap.NewStruct(cell.Var)
		v := &value.Variable{IsPointer: true, Type: types.Pointer, Value: addr, PointerBaseType: types.Struct, PointerBaseName: n.TypeName}
		return value.NewTypedValue(v, types.Pointer, n.TypeName), nil
	}
	count := 1
	if n.IsArrayNew && n.NewArraySize != nil {
		sz, err := c.Evaluate(n.NewArraySize)
		if err != nil {
			return value.TypedValue{}, err
		}
		count = int(sz)
	}
	addr := c.Heap.NewPrimitive(count)
	v := &value.Variable{IsPointer: true, Type: types.Pointer, Value: addr, PointerBaseType: n.TypeInfo}
	return value.NewTypedValue(v, types.Pointer, ""), nil
}

func (c *Context) evalDelete(n *ast.Node) (value.TypedValue, error) {
	tv, err := c.EvaluateTypedExpression(n.Left)
	if err != nil {
		return value.TypedValue{}, err
	}
	c.Heap.Delete(tv.Var.Value)
	return value.NewTypedValue(value.New(types.Void), types.Void, ""), nil
}

func (c *Context) evalSizeof(n *ast.Node) (value.TypedValue, error) {
	var t types.TypeInfo
	var name string
	if n.Left != nil {
		tv, err := c.EvaluateTypedExpression(n.Left)
		if err != nil {
			return value.TypedValue{}, err
		}
		t = tv.Var.Type
		if tv.Var.IsArray {
			count, _ := tv.Var.ArrayType.TotalSize()
			v := value.New(types.Long)
			v.Value = int64(count * c.sizeOfType(tv.Var.ArrayType.BaseType, tv.Var.StructTypeName))
			return value.NewTypedValue(v, types.Long, ""), nil
		}
		name = tv.Var.StructTypeName
	} else {
		t = n.TypeInfo
		name = n.TypeName
	}
	v := value.New(types.Long)
	v.Value = int64(c.sizeOfType(t, name))
	return value.NewTypedValue(v, types.Long, ""), nil
}

// FormatPrintf is a minimal printf-style formatter for PrintfStmt,
// supporting %d %s %f %v — the print/format I/O surface is otherwise an
// external collaborator (spec.md §1), but printf's *argument* evaluation
// is core evaluator behavior so we keep a tiny formatter here.
func (c *Context) FormatPrintf(format string, args []value.TypedValue) string {
	var b strings.Builder
	ai := 0
	for i := 0; i < len(format); i++ {
		if format[i] != '%' || i == len(format)-1 {
			b.WriteByte(format[i])
			continue
		}
		i++
		if ai >= len(args) {
			b.WriteByte('%')
			b.WriteByte(format[i])
			continue
		}
		a := args[ai]
		ai++
		switch format[i] {
		case 'd':
			fmt.Fprintf(&b, "%d", a.Var.AsNumeric())
		case 'f':
			fmt.Fprintf(&b, "%f", a.Var.AsDouble())
		case 's':
			fmt.Fprintf(&b, "%s", a.Var.AsString())
		default:
			fmt.Fprintf(&b, "%v", a.Var.AsString())
		}
	}
	return b.String()
}
