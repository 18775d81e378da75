package pde

import (
	"fmt"

	"github.com/geopde/propmat/mesh"
	"github.com/geopde/propmat/props"
	"github.com/geopde/propmat/utils"
	"gonum.org/v1/gonum/mat"
)

// MassMatrixSet owns every property-weighted inner-product matrix for one
// property: the forward matrix, its inverse and its derivative map on each
// support the property's class parameterizes. All results are cached in the
// shared ledger and rebuilt lazily after the property is reassigned.
type MassMatrixSet struct {
	msh    mesh.Mesh
	prop   *props.Property
	class  Class
	ledger *Ledger
}

func NewMassMatrixSet(msh mesh.Mesh, p *props.Property, class Class, ledger *Ledger) (s *MassMatrixSet) {
	if p.Len() != class.ValueLen(msh) {
		panic(fmt.Errorf("property %s has length %d, class %s expects %d",
			p.Name(), p.Len(), class, class.ValueLen(msh)))
	}
	s = &MassMatrixSet{
		msh:    msh,
		prop:   p,
		class:  class,
		ledger: ledger,
	}
	var keys []SlotKey
	for _, sup := range class.Supports() {
		for _, kind := range []Kind{Forward, Inverse, Deriv} {
			keys = append(keys, SlotKey{p.Name(), sup, kind})
		}
	}
	ledger.Register(p.Name(), keys...)
	p.OnWrite(func() { ledger.Invalidate(p.Name()) })
	return
}

func (s *MassMatrixSet) Property() *props.Property { return s.prop }
func (s *MassMatrixSet) Class() Class              { return s.class }

// InvalidationList enumerates the cache slots cleared when this property is
// reassigned; composites append their own slots to it at registration.
func (s *MassMatrixSet) InvalidationList() []SlotKey {
	return s.ledger.InvalidationList(s.prop.Name())
}

func (s *MassMatrixSet) hasSupport(sup Support) bool {
	for _, candidate := range s.class.Supports() {
		if candidate == sup {
			return true
		}
	}
	return false
}

func (s *MassMatrixSet) key(sup Support, kind Kind) SlotKey {
	return SlotKey{s.prop.Name(), sup, kind}
}

// MassMatrix returns the property-weighted inner-product matrix on sup.
func (s *MassMatrixSet) MassMatrix(sup Support) (utils.CSR, error) {
	if !s.hasSupport(sup) {
		return utils.CSR{}, fmt.Errorf("%w: %s on %s (%s property)", ErrUnsupportedSupport, s.prop.Name(), sup, s.class)
	}
	return s.ledger.Get(s.key(sup, Forward), func() (utils.CSR, error) {
		return s.build(sup, false)
	})
}

// InverseMassMatrix returns the inverse inner-product matrix on sup.
func (s *MassMatrixSet) InverseMassMatrix(sup Support) (utils.CSR, error) {
	if !s.hasSupport(sup) {
		return utils.CSR{}, fmt.Errorf("%w: %s on %s (%s property)", ErrUnsupportedSupport, s.prop.Name(), sup, s.class)
	}
	return s.ledger.Get(s.key(sup, Inverse), func() (utils.CSR, error) {
		return s.build(sup, true)
	})
}

func (s *MassMatrixSet) build(sup Support, invert bool) (utils.CSR, error) {
	prop, err := s.prop.Value()
	if err != nil {
		return utils.CSR{}, err
	}
	vol := s.msh.CellVolumes()
	switch sup {
	case CellCenter:
		return diagOrInverse(vol.Copy().ElMul(prop), invert)
	case Node:
		return diagOrInverse(s.msh.AveNodeToCell().MulVecT(vol.Copy().ElMul(prop)), invert)
	case Face:
		return s.msh.FaceInnerProduct(prop, invert)
	case Edge:
		return s.msh.EdgeInnerProduct(prop, invert)
	case FaceSurface:
		return s.msh.FaceInnerProductSurface(prop, invert)
	case EdgeSurface:
		return s.msh.EdgeInnerProductSurface(prop, invert)
	case EdgeLine:
		return s.msh.EdgeInnerProductLine(prop, invert)
	}
	return utils.CSR{}, fmt.Errorf("%w: %s", ErrUnsupportedSupport, sup)
}

func diagOrInverse(entries utils.Vector, invert bool) (utils.CSR, error) {
	if invert {
		for _, val := range entries.Data() {
			if val == 0 {
				return utils.CSR{}, fmt.Errorf("mass matrix is singular, cannot invert")
			}
		}
		return utils.NewDiagCSR(entries.Copy().Recip()), nil
	}
	return utils.NewDiagCSR(entries), nil
}

// derivMap builds (and caches) the linear map from model perturbations to the
// diagonal entries of the forward matrix on sup. ok is false when the
// property carries no model sensitivity.
func (s *MassMatrixSet) derivMap(sup Support) (D utils.CSR, ok bool, err error) {
	propDeriv, ok := s.prop.MapDeriv()
	if !ok {
		return utils.CSR{}, false, nil
	}
	D, err = s.ledger.Get(s.key(sup, Deriv), func() (utils.CSR, error) {
		var (
			msh     = s.msh
			vol     = msh.CellVolumes()
			volDiag = utils.NewDiagCSR(vol)
		)
		switch sup {
		case CellCenter:
			return volDiag.MulMat(propDeriv), nil
		case Node:
			return msh.AveNodeToCell().Transpose().MulMat(volDiag).MulMat(propDeriv), nil
		case Face:
			base := msh.FaceInnerProductDeriv(utils.Ones(msh.NumCells()))(utils.Ones(msh.NumFaces()))
			return base.MulMat(propDeriv), nil
		case Edge:
			base := msh.EdgeInnerProductDeriv(utils.Ones(msh.NumCells()))(utils.Ones(msh.NumEdges()))
			return base.MulMat(propDeriv), nil
		case FaceSurface:
			base := msh.FaceInnerProductSurfaceDeriv(utils.Ones(msh.NumFaces()))(utils.Ones(msh.NumFaces()))
			return base.MulMat(propDeriv), nil
		case EdgeSurface:
			base := msh.EdgeInnerProductSurfaceDeriv(utils.Ones(msh.NumFaces()))(utils.Ones(msh.NumEdges()))
			return base.MulMat(propDeriv), nil
		case EdgeLine:
			base := msh.EdgeInnerProductLineDeriv(utils.Ones(msh.NumEdges()))(utils.Ones(msh.NumEdges()))
			return base.MulMat(propDeriv), nil
		}
		return utils.CSR{}, fmt.Errorf("%w: %s", ErrUnsupportedSupport, sup)
	})
	if err != nil {
		return utils.CSR{}, false, err
	}
	return D, true, nil
}

// MassMatrixDeriv evaluates the derivative of MassMatrix(sup) with respect to
// the model, applied to fields u and optional direction v, in forward or
// adjoint mode. A property with no model map contributes nothing: the Zero
// sentinel comes back instead of an array, and Zero operands short-circuit
// the same way.
func (s *MassMatrixSet) MassMatrixDeriv(sup Support, u, v mat.Matrix, adjoint bool) (mat.Matrix, error) {
	if !s.hasSupport(sup) {
		return nil, fmt.Errorf("%w: %s on %s (%s property)", ErrUnsupportedSupport, s.prop.Name(), sup, s.class)
	}
	if !s.prop.HasMap() || utils.IsZero(u) || (v != nil && utils.IsZero(v)) {
		return utils.ZeroMat{}, nil
	}
	D, ok, err := s.derivMap(sup)
	if err != nil {
		return nil, err
	}
	if !ok {
		return utils.ZeroMat{}, nil
	}
	return innerMulOp(D, u, v, adjoint)
}

// InverseMassMatrixDeriv evaluates the derivative of InverseMassMatrix(sup):
// always expressed through the forward derivative via
// u' = Mi·(Mi·(−u)), so there is a single source of truth for the chain rule
// per support.
func (s *MassMatrixSet) InverseMassMatrixDeriv(sup Support, u, v mat.Matrix, adjoint bool) (mat.Matrix, error) {
	if !s.hasSupport(sup) {
		return nil, fmt.Errorf("%w: %s on %s (%s property)", ErrUnsupportedSupport, s.prop.Name(), sup, s.class)
	}
	if !s.prop.HasMap() || utils.IsZero(u) || (v != nil && utils.IsZero(v)) {
		return utils.ZeroMat{}, nil
	}
	Mi, err := s.InverseMassMatrix(sup)
	if err != nil {
		return nil, err
	}
	return s.MassMatrixDeriv(sup, scaleThroughInverse(Mi, u), v, adjoint)
}

// scaleThroughInverse computes Mi·(Mi·(−u)).
func scaleThroughInverse(Mi utils.CSR, u mat.Matrix) *mat.Dense {
	ur, uc := u.Dims()
	neg := mat.NewDense(ur, uc, nil)
	neg.Scale(-1, u)
	return Mi.MulDense(Mi.MulDense(neg))
}
