package enummgr

import "testing"

func TestRegisterRejectsDuplicateVariantValue(t *testing.T) {
	m := New()
	err := m.Register(&Def{
		Name: "Color",
		Variants: []Variant{
			{Name: "Red", Value: 0},
			{Name: "Blue", Value: 0},
		},
	})
	if err == nil {
		t.Fatalf("duplicate variant values should be rejected")
	}
}

func TestLookupResolvesVariant(t *testing.T) {
	m := New()
	if err := m.Register(&Def{
		Name: "Color",
		Variants: []Variant{
			{Name: "Red", Value: 0},
			{Name: "Green", Value: 1},
		},
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, err := m.Lookup("Color", "Green")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Value != 1 {
		t.Fatalf("Lookup(Color, Green).Value = %d, want 1", v.Value)
	}
	if _, err := m.Lookup("Color", "Purple"); err == nil {
		t.Fatalf("looking up an undefined variant should fail")
	}
}
