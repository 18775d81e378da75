package utils

import (
	"fmt"
	"math"

	"github.com/james-bowman/sparse"
	"github.com/james-bowman/sparse/blas"
	"gonum.org/v1/gonum/mat"
)

type DOK struct {
	M *sparse.DOK
}

func NewDOK(nr, nc int) (R DOK) {
	R = DOK{sparse.NewDOK(nr, nc)}
	return
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (m DOK) Dims() (r, c int)    { return m.M.Dims() }
func (m DOK) At(i, j int) float64 { return m.M.At(i, j) }
func (m DOK) T() mat.Matrix       { return m.M.T() }

func (m DOK) Set(i, j int, val float64) {
	m.M.Set(i, j, val)
}

func (m DOK) ToCSR() CSR {
	return CSR{m.M.ToCSR()}
}

type CSR struct {
	M *sparse.CSR
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (m CSR) Dims() (r, c int)              { return m.M.Dims() }
func (m CSR) At(i, j int) float64           { return m.M.At(i, j) }
func (m CSR) T() mat.Matrix                 { return m.M.T() }
func (m CSR) NNZ() int                      { return m.M.NNZ() }
func (m CSR) RawMatrix() *blas.SparseMatrix { return m.M.RawMatrix() }

func (m CSR) DoNonZero(f func(i, j int, val float64)) {
	m.M.DoNonZero(f)
}

// NewDiagCSR builds the sparse diagonal matrix diag(v).
func NewDiagCSR(v Vector) (R CSR) {
	var (
		n = v.Len()
		d = NewDOK(n, n)
	)
	for i, val := range v.Data() {
		d.Set(i, i, val)
	}
	R = d.ToCSR()
	return
}

func Eye(n int) (R CSR) {
	return NewDiagCSR(Ones(n))
}

func (m CSR) Copy() (R CSR) {
	var (
		nr, nc = m.Dims()
		d      = NewDOK(nr, nc)
	)
	m.DoNonZero(func(i, j int, val float64) {
		d.Set(i, j, val)
	})
	R = d.ToCSR()
	return
}

func (m CSR) Scale(a float64) (R CSR) {
	var (
		nr, nc = m.Dims()
		d      = NewDOK(nr, nc)
	)
	m.DoNonZero(func(i, j int, val float64) {
		d.Set(i, j, a*val)
	})
	R = d.ToCSR()
	return
}

// Transpose materializes the transposed matrix
func (m CSR) Transpose() (R CSR) {
	var (
		nr, nc = m.Dims()
		d      = NewDOK(nc, nr)
	)
	m.DoNonZero(func(i, j int, val float64) {
		d.Set(j, i, val)
	})
	R = d.ToCSR()
	return
}

func (m CSR) MulVec(x Vector) (R Vector) {
	var (
		nr, nc = m.Dims()
		xd     = x.Data()
	)
	if nc != x.Len() {
		panic(fmt.Errorf("dimension mismatch in MulVec: matrix is %dx%d, vector length %d", nr, nc, x.Len()))
	}
	R = NewVector(nr)
	rd := R.Data()
	m.DoNonZero(func(i, j int, val float64) {
		rd[i] += val * xd[j]
	})
	return
}

// MulVecT computes transpose(m) * x without materializing the transpose
func (m CSR) MulVecT(x Vector) (R Vector) {
	var (
		nr, nc = m.Dims()
		xd     = x.Data()
	)
	if nr != x.Len() {
		panic(fmt.Errorf("dimension mismatch in MulVecT: matrix is %dx%d, vector length %d", nr, nc, x.Len()))
	}
	R = NewVector(nc)
	rd := R.Data()
	m.DoNonZero(func(i, j int, val float64) {
		rd[j] += val * xd[i]
	})
	return
}

// MulDense computes m * x for a dense right operand, one column at a time.
func (m CSR) MulDense(x mat.Matrix) (R *mat.Dense) {
	var (
		nr, nc = m.Dims()
		xr, xc = x.Dims()
	)
	if nc != xr {
		panic(fmt.Errorf("dimension mismatch in MulDense: matrix is %dx%d, operand %dx%d", nr, nc, xr, xc))
	}
	R = mat.NewDense(nr, xc, nil)
	m.DoNonZero(func(i, j int, val float64) {
		for col := 0; col < xc; col++ {
			R.Set(i, col, R.At(i, col)+val*x.At(j, col))
		}
	})
	return
}

// MulDenseT computes transpose(m) * x for a dense right operand.
func (m CSR) MulDenseT(x mat.Matrix) (R *mat.Dense) {
	var (
		nr, nc = m.Dims()
		xr, xc = x.Dims()
	)
	if nr != xr {
		panic(fmt.Errorf("dimension mismatch in MulDenseT: matrix is %dx%d, operand %dx%d", nr, nc, xr, xc))
	}
	R = mat.NewDense(nc, xc, nil)
	m.DoNonZero(func(i, j int, val float64) {
		for col := 0; col < xc; col++ {
			R.Set(j, col, R.At(j, col)+val*x.At(i, col))
		}
	})
	return
}

func (m CSR) MulMat(b CSR) (R CSR) {
	var (
		anr, anc = m.Dims()
		bnr, bnc = b.Dims()
	)
	if anc != bnr {
		panic(fmt.Errorf("dimension mismatch in MulMat: %dx%d times %dx%d", anr, anc, bnr, bnc))
	}
	// index b by row once, then accumulate a(i,k)*b(k,j)
	type entry struct {
		j   int
		val float64
	}
	rows := make([][]entry, bnr)
	b.DoNonZero(func(i, j int, val float64) {
		rows[i] = append(rows[i], entry{j, val})
	})
	d := NewDOK(anr, bnc)
	m.DoNonZero(func(i, k int, val float64) {
		for _, e := range rows[k] {
			d.Set(i, e.j, d.At(i, e.j)+val*e.val)
		}
	})
	R = d.ToCSR()
	return
}

func (m CSR) Add(b CSR) (R CSR) {
	var (
		anr, anc = m.Dims()
		bnr, bnc = b.Dims()
	)
	if anr != bnr || anc != bnc {
		panic(fmt.Errorf("dimension mismatch in Add: %dx%d plus %dx%d", anr, anc, bnr, bnc))
	}
	d := NewDOK(anr, anc)
	m.DoNonZero(func(i, j int, val float64) {
		d.Set(i, j, val)
	})
	b.DoNonZero(func(i, j int, val float64) {
		d.Set(i, j, d.At(i, j)+val)
	})
	R = d.ToCSR()
	return
}

// ScaleRows computes diag(u) * m
func (m CSR) ScaleRows(u Vector) (R CSR) {
	var (
		nr, nc = m.Dims()
		ud     = u.Data()
	)
	if nr != u.Len() {
		panic(fmt.Errorf("dimension mismatch in ScaleRows: matrix is %dx%d, vector length %d", nr, nc, u.Len()))
	}
	d := NewDOK(nr, nc)
	m.DoNonZero(func(i, j int, val float64) {
		d.Set(i, j, ud[i]*val)
	})
	R = d.ToCSR()
	return
}

// VStack stacks the blocks vertically; all blocks must share a column count
func VStack(blocks []CSR) (R CSR) {
	if len(blocks) == 0 {
		panic("VStack of no blocks")
	}
	var (
		_, nc = blocks[0].Dims()
		nrTot int
	)
	for _, blk := range blocks {
		bnr, bnc := blk.Dims()
		if bnc != nc {
			panic("mismatched column counts in VStack")
		}
		nrTot += bnr
	}
	d := NewDOK(nrTot, nc)
	var offset int
	for _, blk := range blocks {
		bnr, _ := blk.Dims()
		rowBase := offset
		blk.DoNonZero(func(i, j int, val float64) {
			d.Set(rowBase+i, j, val)
		})
		offset += bnr
	}
	R = d.ToCSR()
	return
}

// Diagonal extracts the diagonal, reporting false if any off-diagonal entry
// is nonzero.
func (m CSR) Diagonal() (v Vector, isDiag bool) {
	var (
		nr, nc = m.Dims()
	)
	if nr != nc {
		return Vector{}, false
	}
	v = NewVector(nr)
	vd := v.Data()
	isDiag = true
	m.DoNonZero(func(i, j int, val float64) {
		if i != j {
			if val != 0 {
				isDiag = false
			}
			return
		}
		vd[i] = val
	})
	return
}

// InvertDiag inverts a diagonal sparse matrix in place of a full solve. Mass
// matrices on tensor meshes are diagonal, so composite inverses reduce to
// this; anything with off-diagonal structure must come from a mesh builder
// with invert set instead.
func (m CSR) InvertDiag() (R CSR, err error) {
	diag, ok := m.Diagonal()
	if !ok {
		err = fmt.Errorf("cannot directly invert a non-diagonal matrix")
		return
	}
	for _, val := range diag.Data() {
		if val == 0 {
			err = fmt.Errorf("cannot invert a singular diagonal matrix")
			return
		}
	}
	R = NewDiagCSR(diag.Copy().Recip())
	return
}

// MaxAbsDiff reports the largest absolute entrywise difference between two
// equally sized matrices.
func MaxAbsDiff(a, b mat.Matrix) (d float64) {
	var (
		anr, anc = a.Dims()
		bnr, bnc = b.Dims()
	)
	if anr != bnr || anc != bnc {
		panic("mismatched dimensions in MaxAbsDiff")
	}
	for i := 0; i < anr; i++ {
		for j := 0; j < anc; j++ {
			diff := math.Abs(a.At(i, j) - b.At(i, j))
			if diff > d {
				d = diff
			}
		}
	}
	return
}
