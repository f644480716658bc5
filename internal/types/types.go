// Package types describes the Cb type system: the closed TypeInfo tag
// set, qualifiers, and multi-dimensional array descriptors.
package types

import "fmt"

// TypeInfo is the closed tag set every Variable, parameter, and typedef
// resolves to. Arrays are encoded as base + ArrayBase; subtract ArrayBase
// to recover the element type.
type TypeInfo int

const (
	Unknown TypeInfo = iota
	Void
	Bool
	Tiny // 8-bit
	Short
	Char
	Int
	Long
	Float
	Double
	Quad
	BigInt
	String
	Struct
	Enum
	Union
	Interface
	Pointer

	// ArrayBase marks the start of the array-of-T range: Array(T) is
	// encoded as ArrayBase+T. Anything >= ArrayBase is an array type;
	// TypeInfo(t) - ArrayBase recovers the element type.
	ArrayBase TypeInfo = 1000
)

// Array returns the array-of-base encoding for a base type.
func Array(base TypeInfo) TypeInfo { return ArrayBase + base }

// IsArray reports whether t encodes an array type.
func (t TypeInfo) IsArray() bool { return t >= ArrayBase }

// ElemType returns the element type of an array-encoded TypeInfo. Calling
// it on a non-array type returns t unchanged.
func (t TypeInfo) ElemType() TypeInfo {
	if !t.IsArray() {
		return t
	}
	return t - ArrayBase
}

func (t TypeInfo) IsNumeric() bool {
	switch t.baseOrSelf() {
	case Bool, Tiny, Short, Char, Int, Long, Float, Double, Quad, BigInt:
		return true
	}
	return false
}

func (t TypeInfo) IsFloatingPoint() bool {
	switch t.baseOrSelf() {
	case Float, Double, Quad:
		return true
	}
	return false
}

func (t TypeInfo) IsInteger() bool {
	switch t.baseOrSelf() {
	case Bool, Tiny, Short, Char, Int, Long, BigInt:
		return true
	}
	return false
}

func (t TypeInfo) baseOrSelf() TypeInfo {
	return t.BaseOrSelf()
}

// BaseOrSelf returns the element type if t is array-encoded, else t
// itself. Exported for callers outside this package (e.g. value.Variable)
// that need to branch on the scalar kind underlying an array.
func (t TypeInfo) BaseOrSelf() TypeInfo {
	if t.IsArray() {
		return t.ElemType()
	}
	return t
}

func (t TypeInfo) String() string {
	if t.IsArray() {
		return fmt.Sprintf("%s[]", t.ElemType())
	}
	switch t {
	case Unknown:
		return "unknown"
	case Void:
		return "void"
	case Bool:
		return "bool"
	case Tiny:
		return "tiny"
	case Short:
		return "short"
	case Char:
		return "char"
	case Int:
		return "int"
	case Long:
		return "long"
	case Float:
		return "float"
	case Double:
		return "double"
	case Quad:
		return "quad"
	case BigInt:
		return "bigint"
	case String:
		return "string"
	case Struct:
		return "struct"
	case Enum:
		return "enum"
	case Union:
		return "union"
	case Interface:
		return "interface"
	case Pointer:
		return "pointer"
	default:
		return "?"
	}
}

// IntRange returns the inclusive [min, max] representable range for a
// bounded integer tag. ok is false for types with no fixed range (String,
// Struct, pointers, BigInt, ...).
func IntRange(t TypeInfo, unsigned bool) (min, max int64, ok bool) {
	switch t.baseOrSelf() {
	case Bool:
		return 0, 1, true
	case Tiny:
		if unsigned {
			return 0, 255, true
		}
		return -128, 127, true
	case Short:
		if unsigned {
			return 0, 65535, true
		}
		return -32768, 32767, true
	case Char:
		return 0, 255, true
	case Int:
		if unsigned {
			return 0, 4294967295, true
		}
		return -2147483648, 2147483647, true
	case Long:
		if unsigned {
			return 0, 9223372036854775807, true // i64 can't represent 2^64-1; clamp at max i64
		}
		return -9223372036854775808, 9223372036854775807, true
	default:
		return 0, 0, false
	}
}

// Size is the declared type's size in bytes, per the fixed sizeof table;
// struct/array sizes depend on member/element layout and are computed by
// the evaluator (internal/interp's sizeOfType) instead.
func Size(t TypeInfo) int {
	switch t.baseOrSelf() {
	case Tiny, Char, Bool:
		return 1
	case Short:
		return 2
	case Int, Float:
		return 4
	case Long, Double, Pointer:
		return 8
	case Quad:
		return 16
	case BigInt:
		return 0 // variable width; callers must special-case
	default:
		return 0
	}
}

// Dimension is one axis of a (possibly dynamic) multi-dimensional array.
type Dimension struct {
	Size      int32
	IsDynamic bool
	SizeExpr  string // non-empty + Size == -1 requires constant-variable resolution at declaration
}

// ArrayTypeInfo is the full shape descriptor for an N-dimensional array.
type ArrayTypeInfo struct {
	BaseType   TypeInfo
	Dimensions []Dimension
}

// TotalSize is the product of all dimension sizes. Returns false if any
// dimension is still unresolved (Size < 0).
func (a ArrayTypeInfo) TotalSize() (int, bool) {
	total := 1
	for _, d := range a.Dimensions {
		if d.Size < 0 {
			return 0, false
		}
		total *= int(d.Size)
	}
	return total, true
}

// Strides returns the row-major stride for each dimension, i.e. the
// number of elements to skip to advance that index by one. The last
// dimension always has stride 1.
func (a ArrayTypeInfo) Strides() []int {
	n := len(a.Dimensions)
	strides := make([]int, n)
	mult := 1
	for i := n - 1; i >= 0; i-- {
		strides[i] = mult
		mult *= int(a.Dimensions[i].Size)
	}
	return strides
}

// FlatIndex computes the row-major flat index for indices, per
// GLOSSARY: i1*(d2*...*dn) + i2*(d3*...*dn) + ... + in.
func (a ArrayTypeInfo) FlatIndex(indices []int) (int, error) {
	if len(indices) != len(a.Dimensions) {
		return 0, fmt.Errorf("dimension mismatch: array has %d dimensions, got %d indices", len(a.Dimensions), len(indices))
	}
	strides := a.Strides()
	flat := 0
	for i, idx := range indices {
		d := int(a.Dimensions[i].Size)
		if idx < 0 || idx >= d {
			return 0, fmt.Errorf("array index out of bounds: index %d at dimension %d (size %d)", idx, i, d)
		}
		flat += idx * strides[i]
	}
	return flat, nil
}
