// Package enummgr implements the Enum manager (spec.md §4.G): enum
// definition registry, variant->value mapping, and duplicate detection.
package enummgr

import "cb/internal/cberr"

// Variant is one enum member: its discriminant value and, optionally, an
// associated payload (spec.md §3's enum-with-associated-value payload).
type Variant struct {
	Name            string
	Value           int64
	HasAssocInt     bool
	HasAssocStr     bool
	AssocTypeIsStr  bool
}

// Def is a registered enum type.
type Def struct {
	Name     string
	Variants []Variant
}

type Manager struct {
	defs map[string]*Def
}

func New() *Manager { return &Manager{defs: make(map[string]*Def)} }

// Register fails on a duplicate enum name, duplicate variant value, or
// duplicate variant name within the one enum (spec.md §4.G).
func (m *Manager) Register(def *Def) error {
	if _, exists := m.defs[def.Name]; exists {
		return cberr.New(cberr.Declaration, cberr.Location{}, "enum %q already defined", def.Name)
	}
	seenNames := make(map[string]bool, len(def.Variants))
	seenValues := make(map[int64]bool, len(def.Variants))
	for _, v := range def.Variants {
		if seenNames[v.Name] {
			return cberr.New(cberr.Declaration, cberr.Location{}, "enum %q: duplicate variant name %q", def.Name, v.Name)
		}
		if seenValues[v.Value] {
			return cberr.New(cberr.Declaration, cberr.Location{}, "enum %q: duplicate variant value %d (variant %q)", def.Name, v.Value, v.Name)
		}
		seenNames[v.Name] = true
		seenValues[v.Value] = true
	}
	m.defs[def.Name] = def
	return nil
}

// Find returns the registered enum definition, if any.
func (m *Manager) Find(name string) (*Def, bool) {
	d, ok := m.defs[name]
	return d, ok
}

// Lookup resolves (enumName, variantName) to its discriminant.
func (m *Manager) Lookup(enumName, variantName string) (Variant, error) {
	def, ok := m.defs[enumName]
	if !ok {
		return Variant{}, cberr.New(cberr.Access, cberr.Location{}, "undefined enum %q", enumName)
	}
	for _, v := range def.Variants {
		if v.Name == variantName {
			return v, nil
		}
	}
	return Variant{}, cberr.New(cberr.Access, cberr.Location{}, "enum %q has no variant %q", enumName, variantName)
}
