// Package arraymem implements the optional Array memory manager
// (spec.md §4.L, component M): a fixed-capacity handle table for
// `create_array_1d/2d/3d` style raw allocations, distinct from the
// Variable-level array payload the evaluator uses for ordinary array
// values. It exists for hosts that want array storage outside the
// Variable/Scope model entirely (e.g. the source's flat C-array arena),
// and is not required for the evaluator's own ArrayRef/ArrayLiteral
// handling in internal/interp.
package arraymem

import "cb/internal/cberr"

// maxHandles bounds the handle table, per spec.md §4.L.
const maxHandles = 64

// Handle describes one live allocation: its element count per axis and
// the flat backing slice.
type Handle struct {
	Name     string
	InUse    bool
	Dims     []int
	Elements []int64
}

// Manager owns the fixed-size handle table and the linear-probe lookup
// spec.md §4.L describes.
type Manager struct {
	handles [maxHandles]Handle
}

func New() *Manager { return &Manager{} }

func (m *Manager) firstFree() (int, bool) {
	for i := range m.handles {
		if !m.handles[i].InUse {
			return i, true
		}
	}
	return 0, false
}

func (m *Manager) create(name string, dims []int) (int, error) {
	idx, ok := m.firstFree()
	if !ok {
		return 0, cberr.New(cberr.Resource, cberr.Location{}, "array memory manager: all %d handles in use", maxHandles)
	}
	total := 1
	for _, d := range dims {
		total *= d
	}
	m.handles[idx] = Handle{Name: name, InUse: true, Dims: dims, Elements: make([]int64, total)}
	return idx, nil
}

// CreateArray1D / 2D / 3D mirror the source's dimension-specific
// constructors (spec.md §4.L); all three funnel through the same
// row-major-addressed backing store.
func (m *Manager) CreateArray1D(name string, n int) (int, error)         { return m.create(name, []int{n}) }
func (m *Manager) CreateArray2D(name string, n, k int) (int, error)      { return m.create(name, []int{n, k}) }
func (m *Manager) CreateArray3D(name string, n, k, l int) (int, error)   { return m.create(name, []int{n, k, l}) }

// Lookup finds a live handle by name via linear probe (spec.md §4.L).
func (m *Manager) Lookup(name string) (*Handle, bool) {
	for i := range m.handles {
		if m.handles[i].InUse && m.handles[i].Name == name {
			return &m.handles[i], true
		}
	}
	return nil, false
}

// Index computes the row-major flat offset for indices into h.
func (m *Manager) Index(h *Handle, indices []int) (int, error) {
	if len(indices) != len(h.Dims) {
		return 0, cberr.New(cberr.Access, cberr.Location{}, "array %q: expected %d indices, got %d", h.Name, len(h.Dims), len(indices))
	}
	strides := make([]int, len(h.Dims))
	mult := 1
	for i := len(h.Dims) - 1; i >= 0; i-- {
		strides[i] = mult
		mult *= h.Dims[i]
	}
	flat := 0
	for i, idx := range indices {
		if idx < 0 || idx >= h.Dims[i] {
			return 0, cberr.New(cberr.Access, cberr.Location{}, "array %q: index %d out of bounds at dimension %d (size %d)", h.Name, idx, i, h.Dims[i])
		}
		flat += idx * strides[i]
	}
	return flat, nil
}

// DestroyArray releases a handle by name, a no-op if not found, per
// spec.md §4.L.
func (m *Manager) DestroyArray(name string) {
	for i := range m.handles {
		if m.handles[i].InUse && m.handles[i].Name == name {
			m.handles[i] = Handle{}
			return
		}
	}
}
