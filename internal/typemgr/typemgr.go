// Package typemgr implements the Type manager (spec.md §4.D): typedef
// resolution, union compatibility, and range clamping for bounded
// integer types.
package typemgr

import (
	"fmt"
	"math/big"
	"strings"

	"cb/internal/cberr"
	"cb/internal/types"
	"cb/internal/value"

	mathutil "modernc.org/mathutil"
)

// UnionDef is a union type's allow-set: the scalar types, custom
// (struct/typedef) names, and array type names an assignment may take.
type UnionDef struct {
	Name         string
	AllowedTypes map[types.TypeInfo]bool
	AllowedNames map[string]bool // struct/typedef/array element type names
}

// Manager owns the typedef registry and union definitions; it is the
// Type manager component (E) of the interpreter core.
type Manager struct {
	typedefs map[string]string // alias -> target name (may itself be an alias)
	unions   map[string]*UnionDef
}

func New() *Manager {
	return &Manager{
		typedefs: make(map[string]string),
		unions:   make(map[string]*UnionDef),
	}
}

// RegisterTypedef fails on redefinition (spec.md §4.D).
func (m *Manager) RegisterTypedef(alias, target string) error {
	if _, exists := m.typedefs[alias]; exists {
		return cberr.New(cberr.Declaration, cberr.Location{}, "typedef %q already defined", alias)
	}
	// Reject an immediately-cyclic registration (alias -> ... -> alias);
	// the registry is kept acyclic by construction per spec.md §4.D.
	if target == alias {
		return cberr.New(cberr.Declaration, cberr.Location{}, "cyclic typedef chain detected at %q", alias)
	}
	seen := map[string]bool{alias: true}
	cur := target
	for {
		next, ok := m.typedefs[cur]
		if !ok {
			break
		}
		if seen[next] {
			return cberr.New(cberr.Declaration, cberr.Location{}, "cyclic typedef chain detected at %q", alias)
		}
		seen[cur] = true
		cur = next
	}
	m.typedefs[alias] = target
	return nil
}

// ResolveTypedef recursively resolves alias to its terminal name. It
// terminates because registration rejects cycles.
func (m *Manager) ResolveTypedef(name string) string {
	cur := name
	for {
		next, ok := m.typedefs[cur]
		if !ok {
			return cur
		}
		cur = next
	}
}

// StringToTypeInfo maps canonical type names ("int", "struct X", "enum
// X", or a registered typedef name) to a TypeInfo tag.
func (m *Manager) StringToTypeInfo(name string) types.TypeInfo {
	resolved := m.ResolveTypedef(name)
	switch {
	case strings.HasPrefix(resolved, "struct "):
		return types.Struct
	case strings.HasPrefix(resolved, "enum "):
		return types.Enum
	}
	switch resolved {
	case "void":
		return types.Void
	case "bool":
		return types.Bool
	case "tiny":
		return types.Tiny
	case "short":
		return types.Short
	case "char":
		return types.Char
	case "int":
		return types.Int
	case "long":
		return types.Long
	case "float":
		return types.Float
	case "double":
		return types.Double
	case "quad":
		return types.Quad
	case "bigint":
		return types.BigInt
	case "string":
		return types.String
	default:
		return types.Unknown
	}
}

// CheckTypeRange verifies value is within [min(type), max(type)] for
// bounded integer tags; pointer and pointer-array types are exempt
// (spec.md §4.D).
func (m *Manager) CheckTypeRange(loc cberr.Location, t types.TypeInfo, value int64, varName string, unsigned bool) error {
	if t == types.Pointer || t.BaseOrSelf() == types.Pointer {
		return nil
	}
	min, max, ok := types.IntRange(t, unsigned)
	if !ok {
		return nil
	}
	if value < min || value > max {
		return cberr.New(cberr.TypeViolation, loc,
			"value %d for %q is out of range [%d, %d] for type %s", value, varName, min, max, t)
	}
	return nil
}

// BigIntBounds returns the [min, max] big.Int bounds for a BigInt-tagged
// value with the given bit width (0 means "unbounded", the common case).
// Backed by modernc.org/mathutil alongside math/big since BigInt has no
// fixed machine-width representation.
func BigIntBounds(bits uint) (min, max *big.Int) {
	if bits == 0 {
		return nil, nil
	}
	max = new(big.Int).Lsh(big.NewInt(1), bits-1)
	max.Sub(max, big.NewInt(1))
	min = new(big.Int).Neg(new(big.Int).Add(max, big.NewInt(1)))
	// mathutil exposes platform-width bounds we fall back to for the
	// common 64-bit case rather than recomputing them by hand.
	if bits == 64 {
		max = big.NewInt(mathutil.MaxInt64)
		min = big.NewInt(mathutil.MinInt64)
	}
	return min, max
}

// IsUnionType reports whether v's declared type is a union.
func (m *Manager) IsUnionType(v *value.Variable) bool {
	return v != nil && v.Type == types.Union
}

// RegisterUnion installs (or replaces) the allow-set for a union alias.
func (m *Manager) RegisterUnion(def *UnionDef) {
	m.unions[def.Name] = def
}

func (m *Manager) union(alias string) (*UnionDef, bool) {
	u, ok := m.unions[m.ResolveTypedef(alias)]
	return u, ok
}

// IsValueAllowedForUnion checks whether a scalar TypedValue's type is in
// the union's declared allow-set (spec.md §3 invariant 7).
func (m *Manager) IsValueAllowedForUnion(alias string, t types.TypeInfo) bool {
	u, ok := m.union(alias)
	if !ok {
		return false
	}
	return u.AllowedTypes[t]
}

// IsCustomTypeAllowedForUnion checks a struct/typedef name against the
// union's allow-set.
func (m *Manager) IsCustomTypeAllowedForUnion(alias, typeName string) bool {
	u, ok := m.union(alias)
	if !ok {
		return false
	}
	return u.AllowedNames[typeName]
}

// IsArrayTypeAllowedForUnion checks an array element type name (e.g.
// "int[]") against the union's allow-set.
func (m *Manager) IsArrayTypeAllowedForUnion(alias, arrayTypeName string) bool {
	u, ok := m.union(alias)
	if !ok {
		return false
	}
	return u.AllowedNames[arrayTypeName]
}

// Describe renders a union's allow-set for diagnostics.
func (u *UnionDef) Describe() string {
	var parts []string
	for t, ok := range u.AllowedTypes {
		if ok {
			parts = append(parts, t.String())
		}
	}
	for n, ok := range u.AllowedNames {
		if ok {
			parts = append(parts, n)
		}
	}
	return fmt.Sprintf("union %s { %s }", u.Name, strings.Join(parts, ", "))
}
