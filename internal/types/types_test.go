package types

import "testing"

func TestArrayEncodingRoundTrip(t *testing.T) {
	arr := Array(Int)
	if !arr.IsArray() {
		t.Fatalf("Array(Int) should report IsArray")
	}
	if got := arr.ElemType(); got != Int {
		t.Fatalf("ElemType() = %v, want Int", got)
	}
	if Int.IsArray() {
		t.Fatalf("a scalar type must not report IsArray")
	}
}

func TestIntRangeSignedUnsigned(t *testing.T) {
	cases := []struct {
		t             TypeInfo
		unsigned      bool
		min, max      int64
	}{
		{Tiny, false, -128, 127},
		{Tiny, true, 0, 255},
		{Short, false, -32768, 32767},
		{Int, true, 0, 4294967295},
	}
	for _, c := range cases {
		min, max, ok := IntRange(c.t, c.unsigned)
		if !ok {
			t.Fatalf("IntRange(%v, %v) reported not ok", c.t, c.unsigned)
		}
		if min != c.min || max != c.max {
			t.Errorf("IntRange(%v, %v) = [%d, %d], want [%d, %d]", c.t, c.unsigned, min, max, c.min, c.max)
		}
	}
}

func TestArrayTypeInfoFlatIndexRowMajor(t *testing.T) {
	// a 2x3 array: index (1, 2) should land at flat offset 1*3+2 = 5
	a := ArrayTypeInfo{BaseType: Int, Dimensions: []Dimension{{Size: 2}, {Size: 3}}}
	flat, err := a.FlatIndex([]int{1, 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if flat != 5 {
		t.Fatalf("FlatIndex(1,2) = %d, want 5", flat)
	}
	total, ok := a.TotalSize()
	if !ok || total != 6 {
		t.Fatalf("TotalSize() = (%d, %v), want (6, true)", total, ok)
	}
}

func TestArrayTypeInfoFlatIndexOutOfBounds(t *testing.T) {
	a := ArrayTypeInfo{BaseType: Int, Dimensions: []Dimension{{Size: 2}}}
	if _, err := a.FlatIndex([]int{5}); err == nil {
		t.Fatalf("expected an out-of-bounds error")
	}
	if _, err := a.FlatIndex([]int{0, 0}); err == nil {
		t.Fatalf("expected a dimension-mismatch error")
	}
}

func TestBaseOrSelf(t *testing.T) {
	if got := Array(Double).BaseOrSelf(); got != Double {
		t.Fatalf("BaseOrSelf() = %v, want Double", got)
	}
	if got := Long.BaseOrSelf(); got != Long {
		t.Fatalf("BaseOrSelf() on a scalar should return itself, got %v", got)
	}
}
