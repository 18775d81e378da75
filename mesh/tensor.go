package mesh

import (
	"fmt"

	"github.com/geopde/propmat/utils"
)

// TensorMesh is a 3-D orthogonal mesh defined by cell spacings along each
// axis. Lower-dimensional problems use single-cell, unit-width padding axes.
// Numbering is x-fastest; faces are ordered [Fx;Fy;Fz] and edges [Ex;Ey;Ez].
//
// All of its inner-product matrices are diagonal, which is what makes the
// direct inversion of summed conductance matrices possible downstream.
type TensorMesh struct {
	hx, hy, hz []float64

	vol      utils.Vector // cell volumes
	area     utils.Vector // face areas
	length   utils.Vector // edge lengths
	aveN2CC  utils.CSR    // nC x nN
	aveF2CC  utils.CSR    // nC x nF
	aveE2CC  utils.CSR    // nC x nE
	aveF2E   utils.CSR    // nE x nF
	volDiag  utils.CSR
	areaDiag utils.CSR
	lenDiag  utils.CSR
}

func NewTensorMesh(hx, hy, hz []float64) (tm *TensorMesh) {
	for _, h := range [][]float64{hx, hy, hz} {
		if len(h) == 0 {
			panic("tensor mesh requires at least one cell per axis")
		}
		for _, val := range h {
			if val <= 0 {
				panic("tensor mesh spacings must be positive")
			}
		}
	}
	tm = &TensorMesh{hx: hx, hy: hy, hz: hz}
	tm.buildGeometry()
	tm.buildAveraging()
	tm.volDiag = utils.NewDiagCSR(tm.vol)
	tm.areaDiag = utils.NewDiagCSR(tm.area)
	tm.lenDiag = utils.NewDiagCSR(tm.length)
	return
}

func (tm *TensorMesh) nxyz() (nx, ny, nz int) {
	return len(tm.hx), len(tm.hy), len(tm.hz)
}

func (tm *TensorMesh) NumCells() int {
	nx, ny, nz := tm.nxyz()
	return nx * ny * nz
}

func (tm *TensorMesh) NumNodes() int {
	nx, ny, nz := tm.nxyz()
	return (nx + 1) * (ny + 1) * (nz + 1)
}

func (tm *TensorMesh) NumFaces() int {
	nFx, nFy, nFz := tm.faceCounts()
	return nFx + nFy + nFz
}

func (tm *TensorMesh) NumEdges() int {
	nEx, nEy, nEz := tm.edgeCounts()
	return nEx + nEy + nEz
}

func (tm *TensorMesh) faceCounts() (nFx, nFy, nFz int) {
	nx, ny, nz := tm.nxyz()
	nFx = (nx + 1) * ny * nz
	nFy = nx * (ny + 1) * nz
	nFz = nx * ny * (nz + 1)
	return
}

func (tm *TensorMesh) edgeCounts() (nEx, nEy, nEz int) {
	nx, ny, nz := tm.nxyz()
	nEx = nx * (ny + 1) * (nz + 1)
	nEy = (nx + 1) * ny * (nz + 1)
	nEz = (nx + 1) * (ny + 1) * nz
	return
}

func (tm *TensorMesh) CellVolumes() utils.Vector { return tm.vol }
func (tm *TensorMesh) FaceAreas() utils.Vector   { return tm.area }
func (tm *TensorMesh) EdgeLengths() utils.Vector { return tm.length }

func (tm *TensorMesh) AveNodeToCell() utils.CSR { return tm.aveN2CC }
func (tm *TensorMesh) AveFaceToCell() utils.CSR { return tm.aveF2CC }
func (tm *TensorMesh) AveEdgeToCell() utils.CSR { return tm.aveE2CC }
func (tm *TensorMesh) AveFaceToEdge() utils.CSR { return tm.aveF2E }

// idx3 linearizes an (i,j,k) triple on a grid with ni columns and nj rows.
func idx3(i, j, k, ni, nj int) int {
	return i + ni*j + ni*nj*k
}

func (tm *TensorMesh) buildGeometry() {
	var (
		nx, ny, nz = tm.nxyz()
		volData    = make([]float64, tm.NumCells())
	)
	for k := 0; k < nz; k++ {
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				volData[idx3(i, j, k, nx, ny)] = tm.hx[i] * tm.hy[j] * tm.hz[k]
			}
		}
	}
	tm.vol = utils.NewVector(len(volData), volData)

	nFx, nFy, _ := tm.faceCounts()
	areaData := make([]float64, tm.NumFaces())
	for k := 0; k < nz; k++ {
		for j := 0; j < ny; j++ {
			for i := 0; i <= nx; i++ {
				areaData[idx3(i, j, k, nx+1, ny)] = tm.hy[j] * tm.hz[k]
			}
		}
	}
	for k := 0; k < nz; k++ {
		for j := 0; j <= ny; j++ {
			for i := 0; i < nx; i++ {
				areaData[nFx+idx3(i, j, k, nx, ny+1)] = tm.hx[i] * tm.hz[k]
			}
		}
	}
	for k := 0; k <= nz; k++ {
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				areaData[nFx+nFy+idx3(i, j, k, nx, ny)] = tm.hx[i] * tm.hy[j]
			}
		}
	}
	tm.area = utils.NewVector(len(areaData), areaData)

	nEx, nEy, _ := tm.edgeCounts()
	lenData := make([]float64, tm.NumEdges())
	for k := 0; k <= nz; k++ {
		for j := 0; j <= ny; j++ {
			for i := 0; i < nx; i++ {
				lenData[idx3(i, j, k, nx, ny+1)] = tm.hx[i]
			}
		}
	}
	for k := 0; k <= nz; k++ {
		for j := 0; j < ny; j++ {
			for i := 0; i <= nx; i++ {
				lenData[nEx+idx3(i, j, k, nx+1, ny)] = tm.hy[j]
			}
		}
	}
	for k := 0; k < nz; k++ {
		for j := 0; j <= ny; j++ {
			for i := 0; i <= nx; i++ {
				lenData[nEx+nEy+idx3(i, j, k, nx+1, ny+1)] = tm.hz[k]
			}
		}
	}
	tm.length = utils.NewVector(len(lenData), lenData)
}

func (tm *TensorMesh) buildAveraging() {
	var (
		nx, ny, nz  = tm.nxyz()
		nC          = tm.NumCells()
		nFx, nFy, _ = tm.faceCounts()
		nEx, nEy, _ = tm.edgeCounts()
		nodes       = utils.NewDOK(nC, tm.NumNodes())
		faces       = utils.NewDOK(nC, tm.NumFaces())
		edges       = utils.NewDOK(nC, tm.NumEdges())
		faceToEdge  = utils.NewDOK(tm.NumEdges(), tm.NumFaces())
	)
	for k := 0; k < nz; k++ {
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				c := idx3(i, j, k, nx, ny)
				// eight corner nodes
				for dk := 0; dk <= 1; dk++ {
					for dj := 0; dj <= 1; dj++ {
						for di := 0; di <= 1; di++ {
							nodes.Set(c, idx3(i+di, j+dj, k+dk, nx+1, ny+1), 1./8.)
						}
					}
				}
				// two faces per direction
				faces.Set(c, idx3(i, j, k, nx+1, ny), 1./6.)
				faces.Set(c, idx3(i+1, j, k, nx+1, ny), 1./6.)
				faces.Set(c, nFx+idx3(i, j, k, nx, ny+1), 1./6.)
				faces.Set(c, nFx+idx3(i, j+1, k, nx, ny+1), 1./6.)
				faces.Set(c, nFx+nFy+idx3(i, j, k, nx, ny), 1./6.)
				faces.Set(c, nFx+nFy+idx3(i, j, k+1, nx, ny), 1./6.)
				// four edges per direction
				for dk := 0; dk <= 1; dk++ {
					for dj := 0; dj <= 1; dj++ {
						edges.Set(c, idx3(i, j+dj, k+dk, nx, ny+1), 1./12.)
					}
				}
				for dk := 0; dk <= 1; dk++ {
					for di := 0; di <= 1; di++ {
						edges.Set(c, nEx+idx3(i+di, j, k+dk, nx+1, ny), 1./12.)
					}
				}
				for dj := 0; dj <= 1; dj++ {
					for di := 0; di <= 1; di++ {
						edges.Set(c, nEx+nEy+idx3(i+di, j+dj, k, nx+1, ny+1), 1./12.)
					}
				}
			}
		}
	}
	tm.aveN2CC = nodes.ToCSR()
	tm.aveF2CC = faces.ToCSR()
	tm.aveE2CC = edges.ToCSR()

	// Face-to-edge adjacency for the surface inner product: every edge picks
	// up the faces that contain it (up to four on the interior).
	for k := 0; k <= nz; k++ {
		for j := 0; j <= ny; j++ {
			for i := 0; i < nx; i++ { // x-edges
				e := idx3(i, j, k, nx, ny+1)
				for _, k2 := range []int{k - 1, k} { // y-faces at y=j
					if k2 >= 0 && k2 < nz {
						faceToEdge.Set(e, nFx+idx3(i, j, k2, nx, ny+1), 1./4.)
					}
				}
				for _, j2 := range []int{j - 1, j} { // z-faces at z=k
					if j2 >= 0 && j2 < ny {
						faceToEdge.Set(e, nFx+nFy+idx3(i, j2, k, nx, ny), 1./4.)
					}
				}
			}
		}
	}
	for k := 0; k <= nz; k++ {
		for j := 0; j < ny; j++ {
			for i := 0; i <= nx; i++ { // y-edges
				e := nEx + idx3(i, j, k, nx+1, ny)
				for _, k2 := range []int{k - 1, k} { // x-faces at x=i
					if k2 >= 0 && k2 < nz {
						faceToEdge.Set(e, idx3(i, j, k2, nx+1, ny), 1./4.)
					}
				}
				for _, i2 := range []int{i - 1, i} { // z-faces at z=k
					if i2 >= 0 && i2 < nx {
						faceToEdge.Set(e, nFx+nFy+idx3(i2, j, k, nx, ny), 1./4.)
					}
				}
			}
		}
	}
	for k := 0; k < nz; k++ {
		for j := 0; j <= ny; j++ {
			for i := 0; i <= nx; i++ { // z-edges
				e := nEx + nEy + idx3(i, j, k, nx+1, ny+1)
				for _, j2 := range []int{j - 1, j} { // x-faces at x=i
					if j2 >= 0 && j2 < ny {
						faceToEdge.Set(e, idx3(i, j2, k, nx+1, ny), 1./4.)
					}
				}
				for _, i2 := range []int{i - 1, i} { // y-faces at y=j
					if i2 >= 0 && i2 < nx {
						faceToEdge.Set(e, nFx+idx3(i2, j, k, nx, ny+1), 1./4.)
					}
				}
			}
		}
	}
	tm.aveF2E = faceToEdge.ToCSR()
}

// diagInner assembles diag(entries), optionally inverted.
func diagInner(entries utils.Vector, invert bool) (M utils.CSR, err error) {
	if invert {
		for _, val := range entries.Data() {
			if val == 0 {
				err = fmt.Errorf("inner product matrix is singular, cannot invert")
				return
			}
		}
		M = utils.NewDiagCSR(entries.Copy().Recip())
		return
	}
	M = utils.NewDiagCSR(entries)
	return
}

func (tm *TensorMesh) checkWeights(w utils.Vector, n int, support string) error {
	if w.Len() != n {
		return fmt.Errorf("weight vector has length %d, expected %d (%s)", w.Len(), n, support)
	}
	return nil
}

func (tm *TensorMesh) FaceInnerProduct(w utils.Vector, invert bool) (utils.CSR, error) {
	if err := tm.checkWeights(w, tm.NumCells(), "cells"); err != nil {
		return utils.CSR{}, err
	}
	return diagInner(tm.aveF2CC.MulVecT(tm.vol.Copy().ElMul(w)), invert)
}

func (tm *TensorMesh) EdgeInnerProduct(w utils.Vector, invert bool) (utils.CSR, error) {
	if err := tm.checkWeights(w, tm.NumCells(), "cells"); err != nil {
		return utils.CSR{}, err
	}
	return diagInner(tm.aveE2CC.MulVecT(tm.vol.Copy().ElMul(w)), invert)
}

func (tm *TensorMesh) FaceInnerProductSurface(w utils.Vector, invert bool) (utils.CSR, error) {
	if err := tm.checkWeights(w, tm.NumFaces(), "faces"); err != nil {
		return utils.CSR{}, err
	}
	return diagInner(tm.area.Copy().ElMul(w), invert)
}

func (tm *TensorMesh) EdgeInnerProductSurface(w utils.Vector, invert bool) (utils.CSR, error) {
	if err := tm.checkWeights(w, tm.NumFaces(), "faces"); err != nil {
		return utils.CSR{}, err
	}
	return diagInner(tm.aveF2E.MulVec(tm.area.Copy().ElMul(w)), invert)
}

func (tm *TensorMesh) EdgeInnerProductLine(w utils.Vector, invert bool) (utils.CSR, error) {
	if err := tm.checkWeights(w, tm.NumEdges(), "edges"); err != nil {
		return utils.CSR{}, err
	}
	return diagInner(tm.length.Copy().ElMul(w), invert)
}

// The inner products above are all linear and diagonal in their weights, so
// the derivative builders are independent of both base weights and direction;
// the two-stage signature is kept so non-diagonal meshes can slot in.

func (tm *TensorMesh) FaceInnerProductDeriv(base utils.Vector) func(dir utils.Vector) utils.CSR {
	D := tm.aveF2CC.Transpose().MulMat(tm.volDiag)
	return func(dir utils.Vector) utils.CSR { return D }
}

func (tm *TensorMesh) EdgeInnerProductDeriv(base utils.Vector) func(dir utils.Vector) utils.CSR {
	D := tm.aveE2CC.Transpose().MulMat(tm.volDiag)
	return func(dir utils.Vector) utils.CSR { return D }
}

func (tm *TensorMesh) FaceInnerProductSurfaceDeriv(base utils.Vector) func(dir utils.Vector) utils.CSR {
	return func(dir utils.Vector) utils.CSR { return tm.areaDiag }
}

func (tm *TensorMesh) EdgeInnerProductSurfaceDeriv(base utils.Vector) func(dir utils.Vector) utils.CSR {
	D := tm.aveF2E.MulMat(tm.areaDiag)
	return func(dir utils.Vector) utils.CSR { return D }
}

func (tm *TensorMesh) EdgeInnerProductLineDeriv(base utils.Vector) func(dir utils.Vector) utils.CSR {
	return func(dir utils.Vector) utils.CSR { return tm.lenDiag }
}
