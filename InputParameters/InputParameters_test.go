package InputParameters

import (
	"testing"

	"github.com/geopde/propmat/pde"
	"github.com/magiconair/properties/assert"
)

func TestBuildSimulation(t *testing.T) {
	var (
		err error
	)
	fileInput := []byte(`
Title: Conductance Test Case
Mesh:
  Hx: [1., 1.]
  Hy: [1.]
  Hz: [1.]
Properties:
  - Name: sigma
    Class: bulk
    Map: identity
    Model: [1., 2.]
  - Name: rho
    Class: bulk
    Reciprocal: sigma
  - Name: tau
    Class: surface
    Scalar: 2.
  - Name: kappa
    Class: line
    Scalar: 0.
Composites:
  - Name: MeSigmaTauKappa
    Terms:
      - Property: sigma
        Support: edge
      - Property: tau
        Support: edgeSurface
        Differentiable: true
      - Property: kappa
        Support: edgeLine
`)
	var input InputParameters
	if err = input.Parse(fileInput); err != nil {
		panic(err)
	}
	assert.Equal(t, input.Title, "Conductance Test Case")
	assert.Equal(t, len(input.Properties), 4)
	input.Print()

	sim, err := input.Build()
	if err != nil {
		panic(err)
	}
	assert.Equal(t, sim.Mesh().NumCells(), 2)

	// sigma was assigned through its map; the matrix reflects the model
	M, err := sim.MassMatrix(pde.CellCenter, "sigma")
	if err != nil {
		panic(err)
	}
	assert.Equal(t, M.At(0, 0), 1.)
	assert.Equal(t, M.At(1, 1), 2.)

	// rho came from the reciprocal pairing
	Mrho, err := sim.MassMatrix(pde.CellCenter, "rho")
	if err != nil {
		panic(err)
	}
	assert.Equal(t, Mrho.At(1, 1), 0.5)

	// the composite resolved all three terms
	c, ok := sim.Combined("MeSigmaTauKappa")
	assert.Equal(t, ok, true)
	if _, err = c.MassMatrix(); err != nil {
		panic(err)
	}
}

func TestBuildErrors(t *testing.T) {
	var input InputParameters
	if err := input.Parse([]byte(`
Title: Missing Mesh
Properties:
  - Name: sigma
`)); err != nil {
		panic(err)
	}
	if _, err := input.Build(); err == nil {
		t.Fatal("expected an error for the missing mesh spacings")
	}

	var badValues InputParameters
	if err := badValues.Parse([]byte(`
Title: Bad Values
Mesh:
  Hx: [1., 1.]
  Hy: [1.]
  Hz: [1.]
Properties:
  - Name: sigma
    Values: [1., 2., 3.]
`)); err != nil {
		panic(err)
	}
	if _, err := badValues.Build(); err == nil {
		t.Fatal("expected an error for the wrong value count")
	}

	var badTerm InputParameters
	if err := badTerm.Parse([]byte(`
Title: Bad Term
Mesh:
  Hx: [1.]
  Hy: [1.]
  Hz: [1.]
Properties:
  - Name: sigma
    Scalar: 1.
Composites:
  - Name: Me
    Terms:
      - Property: nope
        Support: edge
`)); err != nil {
		panic(err)
	}
	if _, err := badTerm.Build(); err == nil {
		t.Fatal("expected an error for the undeclared term property")
	}
}
