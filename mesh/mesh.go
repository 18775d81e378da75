// Package mesh declares the geometry capability consumed by the property
// mass-matrix layer, plus an orthogonal tensor mesh that implements it.
//
// The inner-product builders follow the usual finite-volume convention: a
// weight array living on one support (cells for bulk properties, faces for
// surface conductance, edges for line conductance) is turned into a discrete
// inner-product matrix on the requested support. Each builder has a
// derivative companion producing the linear map from weight perturbations to
// matrix entries, which the mass-matrix layer composes with the model map's
// own derivative.
package mesh

import "github.com/geopde/propmat/utils"

// DerivBuilder is the two-stage derivative form used by the inner-product
// builders: fix the base weights, then evaluate at a direction.
type DerivBuilder func(base utils.Vector) func(dir utils.Vector) utils.CSR

type Mesh interface {
	NumCells() int
	NumNodes() int
	NumFaces() int
	NumEdges() int

	// CellVolumes returns one positive volume per cell.
	CellVolumes() utils.Vector

	// AveNodeToCell is the node-to-cell-center averaging operator,
	// NumCells x NumNodes.
	AveNodeToCell() utils.CSR

	// Bulk inner products, weights on cells.
	FaceInnerProduct(w utils.Vector, invert bool) (utils.CSR, error)
	EdgeInnerProduct(w utils.Vector, invert bool) (utils.CSR, error)

	// Surface inner products, weights on faces.
	FaceInnerProductSurface(w utils.Vector, invert bool) (utils.CSR, error)
	EdgeInnerProductSurface(w utils.Vector, invert bool) (utils.CSR, error)

	// Line inner product, weights on edges.
	EdgeInnerProductLine(w utils.Vector, invert bool) (utils.CSR, error)

	// Derivative builders. Result shapes: face bulk NumFaces x NumCells,
	// edge bulk NumEdges x NumCells, face surface NumFaces x NumFaces,
	// edge surface NumEdges x NumFaces, edge line NumEdges x NumEdges.
	FaceInnerProductDeriv(base utils.Vector) func(dir utils.Vector) utils.CSR
	EdgeInnerProductDeriv(base utils.Vector) func(dir utils.Vector) utils.CSR
	FaceInnerProductSurfaceDeriv(base utils.Vector) func(dir utils.Vector) utils.CSR
	EdgeInnerProductSurfaceDeriv(base utils.Vector) func(dir utils.Vector) utils.CSR
	EdgeInnerProductLineDeriv(base utils.Vector) func(dir utils.Vector) utils.CSR
}
