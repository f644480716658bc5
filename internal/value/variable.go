// Package value implements the Cb Value cell (spec.md §3/§4.B): the
// Variable record that carries at most one active payload selected by
// its Type, plus TypedValue, the currency of the expression evaluator.
package value

import (
	"fmt"
	"strconv"

	"cb/internal/ast"
	"cb/internal/types"
	"golang.org/x/exp/slices"
)

// FunctionPointer is a callable handle: the declared function's name and
// the *ast.Node of its FuncDecl. Pointer encoding in this tree-walking
// core never needs a real address; the Node pointer IS the address.
type FunctionPointer struct {
	Name string
	Decl *ast.Node
}

// Variable is the runtime value cell. Exactly one payload group is ever
// "active"; which one is determined by Type (and, for unions, by
// CurrentType). See spec.md §3 for the invariants this type must uphold.
type Variable struct {
	Type       types.TypeInfo
	IsConst    bool
	IsAssigned bool
	IsUnsigned bool

	// Scalar payload. Value carries the canonical integer form for every
	// integer-family type, and doubles as the encoded address for
	// pointer/function-pointer/reference cells. Float/Double/Quad are
	// kept coherent with each other per invariant 1 of spec.md §3.
	Value       int64
	FloatValue  float32
	DoubleValue float64
	QuadValue   Quad

	StrValue string

	// Array payload: one canonical flat representation regardless of
	// dimensionality (SPEC_FULL.md §5 decision), addressed through
	// ArrayType.FlatIndex. Exactly one of the Flat* slices is populated,
	// selected by ArrayType.BaseType.
	IsArray            bool
	IsMultidimensional bool
	ArrayType          types.ArrayTypeInfo
	FlatInts           []int64
	FlatStrings        []string
	FlatFloats         []float64
	FlatQuads          []Quad

	// Struct payload.
	IsStruct        bool
	StructTypeName  string
	StructMembers   map[string]*Variable
	IsPrivateMember bool

	// Union payload: TypeName is the union alias, CurrentType is the
	// active variant's tag; the matching scalar/string/struct/array
	// field above carries the payload.
	TypeName    string
	CurrentType types.TypeInfo

	// Enum payload.
	IsEnum             bool
	EnumTypeName       string
	EnumVariant        string
	HasAssociatedInt   bool
	AssociatedIntValue int64
	HasAssociatedStr   bool
	AssociatedStrValue string

	// Pointer payload. Value (above) is the encoded address; 0 is null.
	IsPointer       bool
	PointerDepth    int
	PointerBaseType types.TypeInfo
	PointerBaseName string

	// Function-pointer payload.
	IsFunctionPointer   bool
	FunctionPointerName string
	FunctionPointerRef  *FunctionPointer

	// Interface-view payload: the Variable's nested/scalar fields above
	// hold a copy of the backing struct or primitive; these two fields
	// carry the interface's identity and the backing type's name for
	// method dispatch.
	InterfaceName      string
	ImplementingStruct string

	// Reference payload: Value (above) is the referent's encoded address.
	IsReference bool
}

// New creates a zero-valued Variable of the given scalar type, per
// "initializes scalar payload to zero/empty" (spec.md §4.H).
func New(t types.TypeInfo) *Variable {
	v := &Variable{Type: t}
	switch {
	case t.IsArray():
		v.IsArray = true
		v.ArrayType = types.ArrayTypeInfo{BaseType: t.ElemType()}
	case t == types.String:
		v.StrValue = ""
	case t == types.Struct:
		v.IsStruct = true
		v.StructMembers = make(map[string]*Variable)
	}
	return v
}

// NewStruct creates a zero-valued struct cell for structTypeName.
func NewStruct(structTypeName string) *Variable {
	return &Variable{
		Type:           types.Struct,
		IsStruct:       true,
		StructTypeName: structTypeName,
		StructMembers:  make(map[string]*Variable),
	}
}

// Clone deep-copies v: struct members, array slices, and any nested
// interface payload are copied, never aliased, satisfying "arrays/structs
// passed by value are deep-copied" (spec.md §8 property 9).
func (v *Variable) Clone() *Variable {
	if v == nil {
		return nil
	}
	out := *v
	if v.StructMembers != nil {
		out.StructMembers = make(map[string]*Variable, len(v.StructMembers))
		for k, m := range v.StructMembers {
			out.StructMembers[k] = m.Clone()
		}
	}
	out.FlatInts = slices.Clone(v.FlatInts)
	out.FlatStrings = slices.Clone(v.FlatStrings)
	out.FlatFloats = slices.Clone(v.FlatFloats)
	out.FlatQuads = slices.Clone(v.FlatQuads)
	out.ArrayType.Dimensions = slices.Clone(v.ArrayType.Dimensions)
	return &out
}

func (v *Variable) IsNumeric() bool { return v != nil && v.Type.IsNumeric() && !v.IsArray }
func (v *Variable) IsStringT() bool { return v != nil && v.Type == types.String && !v.IsArray }
func (v *Variable) IsStructT() bool { return v != nil && v.IsStruct }
func (v *Variable) IsPointerT() bool {
	return v != nil && (v.IsPointer || v.IsFunctionPointer)
}

// AsNumeric returns the canonical integer view of the value: for
// floating types this truncates, matching the source's int64-centric
// scalar representation.
func (v *Variable) AsNumeric() int64 {
	if v == nil {
		return 0
	}
	switch v.Type.BaseOrSelf() {
	case types.Float:
		return int64(v.FloatValue)
	case types.Double:
		return int64(v.DoubleValue)
	case types.Quad:
		return int64(v.QuadValue.Float64())
	default:
		return v.Value
	}
}

func (v *Variable) AsDouble() float64 {
	if v == nil {
		return 0
	}
	switch v.Type.BaseOrSelf() {
	case types.Float:
		return float64(v.FloatValue)
	case types.Double:
		return v.DoubleValue
	case types.Quad:
		return v.QuadValue.Float64()
	default:
		return float64(v.Value)
	}
}

func (v *Variable) AsQuad() Quad {
	if v == nil {
		return Quad{}
	}
	if v.Type.BaseOrSelf() == types.Quad {
		return v.QuadValue
	}
	return QuadFromFloat64(v.AsDouble())
}

func (v *Variable) AsString() string {
	if v == nil {
		return ""
	}
	switch {
	case v.Type == types.String:
		return v.StrValue
	case v.Type.IsFloatingPoint():
		return strconv.FormatFloat(v.AsDouble(), 'g', -1, 64)
	case v.IsEnum:
		return v.EnumVariant
	default:
		return strconv.FormatInt(v.Value, 10)
	}
}

func (v *Variable) String() string {
	return fmt.Sprintf("Variable{type=%s value=%s}", v.Type, v.AsString())
}

// SetCoherentFloat sets Float/Double/Quad together from a canonical
// float64 so invariant 1 ("the triple is always coherent") holds no
// matter which precision the declared type uses for display.
func (v *Variable) SetCoherentFloat(f float64) {
	v.FloatValue = float32(f)
	v.DoubleValue = f
	v.QuadValue = QuadFromFloat64(f)
}

// TypedValue wraps a Variable with the evaluator's inferred type; it is
// the return value of every expression evaluation (spec.md §4.B).
type TypedValue struct {
	Var     *Variable
	Type    InferredType
	IsError bool
}

// InferredType carries the canonical type tag and, for named types
// (struct/enum/union/interface/typedef), the name.
type InferredType struct {
	Tag  types.TypeInfo
	Name string
}

func NewTypedValue(v *Variable, tag types.TypeInfo, name string) TypedValue {
	return TypedValue{Var: v, Type: InferredType{Tag: tag, Name: name}}
}
