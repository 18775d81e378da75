package props

import (
	"fmt"
	"math"

	"github.com/geopde/propmat/utils"
)

// Map is a differentiable function from the inversion model vector to a
// physical property's values. Deriv returns the linear operator
// d(property)/d(model) evaluated at the current model, which the mass-matrix
// layer composes with the mesh derivative builders via the chain rule.
type Map interface {
	Apply(model utils.Vector) utils.Vector
	Deriv(model utils.Vector) utils.CSR
}

// IdentityMap parameterizes the property directly by the model.
type IdentityMap struct{}

func (IdentityMap) Apply(model utils.Vector) utils.Vector {
	return model.Copy()
}

func (IdentityMap) Deriv(model utils.Vector) utils.CSR {
	return utils.Eye(model.Len())
}

// ExpMap parameterizes the property as exp(model), the standard
// log-conductivity parameterization that keeps inverted values positive.
type ExpMap struct{}

func (ExpMap) Apply(model utils.Vector) utils.Vector {
	return model.Copy().Apply(math.Exp)
}

func (ExpMap) Deriv(model utils.Vector) utils.CSR {
	return utils.NewDiagCSR(model.Copy().Apply(math.Exp))
}

// MapByName resolves the map names accepted in input files.
func MapByName(name string) (m Map, err error) {
	switch name {
	case "", "identity":
		m = IdentityMap{}
	case "exp":
		m = ExpMap{}
	default:
		err = fmt.Errorf("unknown map %q", name)
	}
	return
}
