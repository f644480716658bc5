package heap

import (
	"testing"

	"cb/internal/value"
)

func TestAddressOfIsStableForTheSameVariable(t *testing.T) {
	a := New()
	v := &value.Variable{Value: 42}
	addr1 := a.AddressOf(v)
	addr2 := a.AddressOf(v)
	if addr1 != addr2 {
		t.Fatalf("AddressOf(v) returned different addresses for the same variable: %d vs %d", addr1, addr2)
	}
}

func TestDerefResolvesBackToTheSameCell(t *testing.T) {
	a := New()
	v := &value.Variable{Value: 7}
	addr := a.AddressOf(v)
	got, ok := a.Deref(addr)
	if !ok || got != v {
		t.Fatalf("Deref did not resolve back to the original cell")
	}
}

func TestDerefNullIsNotOk(t *testing.T) {
	a := New()
	if _, ok := a.Deref(0); ok {
		t.Fatalf("dereferencing address 0 (null) should not be ok")
	}
}

func TestDeleteClearsBothDirections(t *testing.T) {
	a := New()
	v := &value.Variable{}
	addr := a.AddressOf(v)
	a.Delete(addr)
	if _, ok := a.Deref(addr); ok {
		t.Fatalf("Deref should fail after Delete")
	}
}

func TestRawBufferDistinctFromVariableCell(t *testing.T) {
	a := New()
	addr := a.NewPrimitive(10)
	if !a.IsRawBuffer(addr) {
		t.Fatalf("NewPrimitive allocation should be a raw buffer")
	}
	if _, ok := a.Deref(addr); ok {
		t.Fatalf("a raw buffer address should not resolve through Deref")
	}
}
