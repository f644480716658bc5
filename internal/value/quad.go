package value

import "github.com/mewmew/float/float128"

// Quad is the backing representation for the TypeInfo.Quad scalar
// payload: extended (128-bit) precision, the same library the teacher
// pulls in transitively to represent LLVM fp128 constants.
type Quad struct {
	bits *float128.Float
}

func QuadFromFloat64(f float64) Quad {
	return Quad{bits: float128.NewFromFloat64(f)}
}

func (q Quad) Float64() float64 {
	if q.bits == nil {
		return 0
	}
	return q.bits.Float64()
}

func (q Quad) IsZero() bool { return q.bits == nil }
