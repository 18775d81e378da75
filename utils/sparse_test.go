package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestSparseOps(t *testing.T) {
	// Diagonal construction and MulVec
	{
		D := NewDiagCSR(NewVector(3, []float64{1, 2, 3}))
		x := NewVector(3, []float64{1, 1, 1})
		y := D.MulVec(x)
		assert.Equal(t, []float64{1, 2, 3}, y.Data())
		diag, ok := D.Diagonal()
		assert.True(t, ok)
		assert.Equal(t, []float64{1, 2, 3}, diag.Data())
	}
	// Transpose multiply agrees with the materialized transpose
	{
		d := NewDOK(2, 3)
		d.Set(0, 0, 1)
		d.Set(0, 2, 2)
		d.Set(1, 1, 3)
		M := d.ToCSR()
		x := NewVector(2, []float64{1, 2})
		y1 := M.MulVecT(x)
		y2 := M.Transpose().MulVec(x)
		assert.Equal(t, y2.Data(), y1.Data())
	}
	// MulMat against a hand-computed product
	{
		a := NewDOK(2, 2)
		a.Set(0, 0, 1)
		a.Set(0, 1, 2)
		a.Set(1, 1, 3)
		b := NewDOK(2, 2)
		b.Set(0, 0, 4)
		b.Set(1, 0, 5)
		b.Set(1, 1, 6)
		P := a.ToCSR().MulMat(b.ToCSR())
		assert.Equal(t, 14., P.At(0, 0))
		assert.Equal(t, 12., P.At(0, 1))
		assert.Equal(t, 15., P.At(1, 0))
		assert.Equal(t, 18., P.At(1, 1))
	}
	// Add
	{
		A := NewDiagCSR(NewVector(2, []float64{1, 2}))
		B := NewDiagCSR(NewVector(2, []float64{10, 20}))
		S := A.Add(B)
		assert.Equal(t, 11., S.At(0, 0))
		assert.Equal(t, 22., S.At(1, 1))
	}
	// ScaleRows is diag(u) * M
	{
		d := NewDOK(2, 2)
		d.Set(0, 0, 1)
		d.Set(1, 0, 1)
		d.Set(1, 1, 1)
		M := d.ToCSR().ScaleRows(NewVector(2, []float64{2, 3}))
		assert.Equal(t, 2., M.At(0, 0))
		assert.Equal(t, 3., M.At(1, 0))
		assert.Equal(t, 3., M.At(1, 1))
	}
	// VStack
	{
		A := NewDiagCSR(NewVector(2, []float64{1, 2}))
		B := NewDiagCSR(NewVector(2, []float64{3, 4}))
		S := VStack([]CSR{A, B})
		nr, nc := S.Dims()
		assert.Equal(t, 4, nr)
		assert.Equal(t, 2, nc)
		assert.Equal(t, 3., S.At(2, 0))
		assert.Equal(t, 4., S.At(3, 1))
	}
}

func TestInvertDiag(t *testing.T) {
	D := NewDiagCSR(NewVector(4, []float64{1, 2, 3, 4}))
	DI, err := D.InvertDiag()
	assert.NoError(t, err)
	P := D.MulMat(DI)
	I := Eye(4)
	assert.True(t, MaxAbsDiff(P, I) < 1.e-12)

	// off-diagonal structure is rejected
	d := NewDOK(2, 2)
	d.Set(0, 0, 1)
	d.Set(0, 1, 1)
	d.Set(1, 1, 1)
	_, err = d.ToCSR().InvertDiag()
	assert.Error(t, err)
}

func TestZeroAlgebra(t *testing.T) {
	A := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	assert.True(t, IsZero(ZeroMat{}))
	assert.True(t, IsZero(nil))
	assert.False(t, IsZero(A))

	// Zero is the additive identity
	assert.Equal(t, mat.Matrix(A), AddMat(ZeroMat{}, A))
	assert.Equal(t, mat.Matrix(A), AddMat(A, ZeroMat{}))
	assert.True(t, IsZero(AddMat(ZeroMat{}, ZeroMat{})))

	S := AddMat(A, A)
	assert.True(t, math.Abs(S.At(1, 1)-8) < 1.e-15)
}
