package pde

import (
	"fmt"

	"github.com/geopde/propmat/utils"
	"gonum.org/v1/gonum/mat"
)

// colVec copies column j of m into a fresh vector.
func colVec(m mat.Matrix, j int) (v utils.Vector) {
	nr, _ := m.Dims()
	v = utils.NewVector(nr)
	data := v.Data()
	for i := 0; i < nr; i++ {
		data[i] = m.At(i, j)
	}
	return
}

func shapeErr(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrShapeMismatch, fmt.Sprintf(format, args...))
}

// innerMulOp applies a derivative map M (nSupport x nModel) to fields u and
// an optional direction v, in forward or adjoint mode.
//
// With v omitted, the result is the operator formed by scaling M's rows by u,
// stacked per field column when u carries multiple right-hand sides; adjoint
// mode transposes it. With v given, forward mode evaluates the directional
// derivative u ⊙ (M·v) with v broadcast across u's columns, and adjoint mode
// evaluates Mᵀ·(u ⊙ v) with a sum over the trailing axis when u has several
// columns — the combination that makes <u, D·v> == <Dᵀ·u, v> hold for every
// shape pairing.
//
// Vectors and single-column matrices are interchangeable throughout.
func innerMulOp(M utils.CSR, u, v mat.Matrix, adjoint bool) (mat.Matrix, error) {
	var (
		nS, nM = M.Dims()
		ur, uc = u.Dims()
	)
	if v == nil {
		if ur != nS {
			return nil, shapeErr("fields have %d rows, operator has %d", ur, nS)
		}
		if uc == 1 {
			UM := M.ScaleRows(colVec(u, 0))
			if adjoint {
				return UM.Transpose(), nil
			}
			return UM, nil
		}
		blocks := make([]utils.CSR, uc)
		for i := 0; i < uc; i++ {
			blocks[i] = M.ScaleRows(colVec(u, i))
		}
		UM := utils.VStack(blocks)
		if adjoint {
			return UM.Transpose(), nil
		}
		return UM, nil
	}

	vr, vc := v.Dims()
	if adjoint {
		// u and v both live on the support here; the result is model-sized.
		if ur != nS {
			return nil, shapeErr("fields have %d rows, operator has %d", ur, nS)
		}
		if vr != nS {
			return nil, shapeErr("adjoint direction has %d rows, operator has %d", vr, nS)
		}
		switch {
		case uc == 1 && vc == 1:
			t := colVec(u, 0).ElMul(colVec(v, 0))
			return M.MulVecT(t).V, nil
		case uc == 1:
			R := mat.NewDense(nM, vc, nil)
			for i := 0; i < vc; i++ {
				t := colVec(u, 0).ElMul(colVec(v, i))
				R.SetCol(i, M.MulVecT(t).Data())
			}
			return R, nil
		case vc == 1 || vc == uc:
			sum := utils.NewVector(nS)
			for i := 0; i < uc; i++ {
				vi := 0
				if vc == uc {
					vi = i
				}
				sum.Add(colVec(u, i).ElMul(colVec(v, vi)))
			}
			return M.MulVecT(sum).V, nil
		default:
			return nil, shapeErr("%d fields with %d adjoint directions", uc, vc)
		}
	}

	// forward directional derivative: u ⊙ (M·v)
	if vr != nM {
		return nil, shapeErr("direction has %d rows, operator expects %d", vr, nM)
	}
	if ur != nS {
		return nil, shapeErr("fields have %d rows, operator has %d", ur, nS)
	}
	W := M.MulDense(v) // nS x vc
	switch {
	case uc == 1 && vc == 1:
		return colVec(u, 0).ElMul(colVec(W, 0)).V, nil
	case vc == 1:
		R := mat.NewDense(nS, uc, nil)
		w := colVec(W, 0)
		for i := 0; i < uc; i++ {
			R.SetCol(i, colVec(u, i).ElMul(w).Data())
		}
		return R, nil
	case uc == 1:
		R := mat.NewDense(nS, vc, nil)
		for i := 0; i < vc; i++ {
			R.SetCol(i, colVec(u, 0).ElMul(colVec(W, i)).Data())
		}
		return R, nil
	case uc == vc:
		R := mat.NewDense(nS, uc, nil)
		for i := 0; i < uc; i++ {
			R.SetCol(i, colVec(u, i).ElMul(colVec(W, i)).Data())
		}
		return R, nil
	default:
		return nil, shapeErr("%d fields with %d directions", uc, vc)
	}
}
