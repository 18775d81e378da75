package utils

import "gonum.org/v1/gonum/mat"

// ZeroMat is the "this term does not contribute" sentinel. Derivative
// operations return it instead of a zero-filled array whenever a property has
// no model sensitivity, and it propagates through the derivative algebra as an
// additive identity. It satisfies mat.Matrix so it can travel through the same
// interfaces as a real result.
type ZeroMat struct{}

func (ZeroMat) Dims() (r, c int)    { return 0, 0 }
func (ZeroMat) At(i, j int) float64 { return 0 }
func (ZeroMat) T() mat.Matrix       { return ZeroMat{} }

// IsZero reports whether m carries no contribution. A nil matrix counts as
// zero so that omitted optional arguments short-circuit the same way.
func IsZero(m mat.Matrix) bool {
	if m == nil {
		return true
	}
	_, ok := m.(ZeroMat)
	return ok
}

// AddMat sums two results of derivative arithmetic, treating ZeroMat as the
// additive identity: Zero+X == X without any allocation or shape check.
func AddMat(a, b mat.Matrix) mat.Matrix {
	switch {
	case IsZero(a) && IsZero(b):
		return ZeroMat{}
	case IsZero(a):
		return b
	case IsZero(b):
		return a
	}
	var (
		ar, ac = a.Dims()
		br, bc = b.Dims()
	)
	if ar != br || ac != bc {
		panic("mismatched dimensions in matrix addition")
	}
	sum := mat.NewDense(ar, ac, nil)
	sum.Add(a, b)
	return sum
}
