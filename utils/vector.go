package utils

import (
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/mat"
)

type Vector struct {
	V *mat.VecDense
}

func NewVector(n int, dataO ...[]float64) (v Vector) {
	var (
		data []float64
	)
	if len(dataO) != 0 {
		data = dataO[0]
		if len(data) != n {
			panic("mismatch in length of data vector and dimension")
		}
	}
	v = Vector{mat.NewVecDense(n, data)}
	return
}

func NewVectorConstant(n int, val float64) (v Vector) {
	v = NewVector(n)
	return v.Set(val)
}

func Ones(n int) Vector {
	return NewVectorConstant(n, 1)
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (v Vector) Dims() (r, c int)         { return v.V.Dims() }
func (v Vector) At(i, j int) float64      { return v.V.At(i, j) }
func (v Vector) T() mat.Matrix            { return v.V.T() }
func (v Vector) AtVec(i int) float64      { return v.V.AtVec(i) }
func (v Vector) RawVector() blas64.Vector { return v.V.RawVector() }
func (v Vector) Len() int                 { return v.V.Len() }
func (v Vector) Data() []float64          { return v.V.RawVector().Data }

func (v Vector) Copy() Vector {
	var (
		n    = v.Len()
		data = make([]float64, n)
	)
	copy(data, v.Data())
	return NewVector(n, data)
}

// Chainable (extended) methods, all modify the receiver in place
func (v Vector) Set(val float64) Vector {
	var (
		data = v.Data()
	)
	for i := range data {
		data[i] = val
	}
	return v
}

func (v Vector) Scale(a float64) Vector {
	var (
		data = v.Data()
	)
	for i := range data {
		data[i] *= a
	}
	return v
}

func (v Vector) Add(a Vector) Vector {
	var (
		data  = v.Data()
		dataA = a.Data()
	)
	if len(data) != len(dataA) {
		panic("vector lengths are not equal")
	}
	for i := range data {
		data[i] += dataA[i]
	}
	return v
}

func (v Vector) ElMul(a Vector) Vector {
	var (
		data  = v.Data()
		dataA = a.Data()
	)
	if len(data) != len(dataA) {
		panic("vector lengths are not equal")
	}
	for i := range data {
		data[i] *= dataA[i]
	}
	return v
}

// Recip replaces every entry with its reciprocal
func (v Vector) Recip() Vector {
	var (
		data = v.Data()
	)
	for i := range data {
		data[i] = 1. / data[i]
	}
	return v
}

func (v Vector) Apply(f func(float64) float64) Vector {
	var (
		data = v.Data()
	)
	for i, val := range data {
		data[i] = f(val)
	}
	return v
}

func (v Vector) Min() (min float64) {
	var (
		data = v.Data()
	)
	min = data[0]
	for _, val := range data {
		if val < min {
			min = val
		}
	}
	return
}

func (v Vector) Max() (max float64) {
	var (
		data = v.Data()
	)
	max = data[0]
	for _, val := range data {
		if val > max {
			max = val
		}
	}
	return
}

func (v Vector) Dot(a Vector) (d float64) {
	var (
		data  = v.Data()
		dataA = a.Data()
	)
	if len(data) != len(dataA) {
		panic("vector lengths are not equal")
	}
	for i, val := range data {
		d += val * dataA[i]
	}
	return
}
