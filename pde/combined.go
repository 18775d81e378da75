package pde

import (
	"fmt"

	"github.com/geopde/propmat/utils"
	"gonum.org/v1/gonum/mat"
)

// CombinedTerm is one contribution to a summed mass matrix: a property's
// matrix set evaluated on one of its supports. Terms marked differentiable
// participate in the composite's derivative; all others fail closed to Zero.
type CombinedTerm struct {
	Set            *MassMatrixSet
	Support        Support
	Differentiable bool
}

// Combined sums independently-cached property mass matrices into a single
// composite operator, e.g. a bulk edge conductivity matrix plus surface and
// line conductance terms sharing the edge support. The inverse is taken on
// the summed matrix, never as a sum of inverses.
type Combined struct {
	name   string
	terms  []CombinedTerm
	diff   map[string]CombinedTerm
	ledger *Ledger
}

func NewCombined(name string, ledger *Ledger, terms []CombinedTerm) (c *Combined) {
	c = &Combined{
		name:   name,
		terms:  terms,
		diff:   make(map[string]CombinedTerm),
		ledger: ledger,
	}
	// The composite's slots join every contributor's invalidation list, so a
	// write to any contributing property clears the composite too.
	keys := []SlotKey{c.key(Forward), c.key(Inverse), c.key(Deriv)}
	for _, term := range terms {
		ledger.Register(term.Set.Property().Name(), keys...)
		if term.Differentiable {
			c.diff[term.Set.Property().Name()] = term
		}
	}
	return
}

func (c *Combined) Name() string { return c.name }

// The composite caches under its own pseudo-property name; the slots are
// registered on the contributors, not on this name.
func (c *Combined) key(kind Kind) SlotKey {
	return SlotKey{c.name, c.terms[0].Support, kind}
}

// MassMatrix returns the elementwise sum of the contributing matrices.
func (c *Combined) MassMatrix() (utils.CSR, error) {
	return c.ledger.Get(c.key(Forward), func() (utils.CSR, error) {
		var sum utils.CSR
		for i, term := range c.terms {
			M, err := term.Set.MassMatrix(term.Support)
			if err != nil {
				return utils.CSR{}, fmt.Errorf("composite %s: %w", c.name, err)
			}
			if i == 0 {
				sum = M
				continue
			}
			sum = sum.Add(M)
		}
		return sum, nil
	})
}

// InverseMassMatrix inverts the summed matrix directly.
func (c *Combined) InverseMassMatrix() (utils.CSR, error) {
	return c.ledger.Get(c.key(Inverse), func() (utils.CSR, error) {
		M, err := c.MassMatrix()
		if err != nil {
			return utils.CSR{}, err
		}
		MI, err := M.InvertDiag()
		if err != nil {
			return utils.CSR{}, fmt.Errorf("composite %s: %w", c.name, err)
		}
		return MI, nil
	})
}

// Deriv differentiates the composite with respect to prop. Only contributors
// registered as differentiable are supported; any other property returns the
// Zero sentinel rather than an error, matching the absent-dependency
// convention.
func (c *Combined) Deriv(prop string, u, v mat.Matrix, adjoint bool) (mat.Matrix, error) {
	term, ok := c.diff[prop]
	if !ok {
		return utils.ZeroMat{}, nil
	}
	return term.Set.MassMatrixDeriv(term.Support, u, v, adjoint)
}

// InverseDeriv differentiates the composite inverse with respect to prop,
// expressed through the supported contributor's forward derivative with the
// composite's own inverse: u' = Mi·(Mi·(−u)).
func (c *Combined) InverseDeriv(prop string, u, v mat.Matrix, adjoint bool) (mat.Matrix, error) {
	term, ok := c.diff[prop]
	if !ok {
		return utils.ZeroMat{}, nil
	}
	if !term.Set.Property().HasMap() || utils.IsZero(u) || (v != nil && utils.IsZero(v)) {
		return utils.ZeroMat{}, nil
	}
	Mi, err := c.InverseMassMatrix()
	if err != nil {
		return nil, err
	}
	return term.Set.MassMatrixDeriv(term.Support, scaleThroughInverse(Mi, u), v, adjoint)
}
