package pde

import (
	"testing"

	"github.com/geopde/propmat/mesh"
	"github.com/geopde/propmat/props"
	"github.com/geopde/propmat/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// fourCellMesh is the canonical end-to-end fixture: four unit cells in a row,
// volumes [1,1,1,1].
func fourCellMesh() *mesh.TensorMesh {
	return mesh.NewTensorMesh([]float64{1, 1, 1, 1}, []float64{1}, []float64{1})
}

func newSigmaSet(t *testing.T, msh mesh.Mesh) (*props.Property, *MassMatrixSet) {
	t.Helper()
	sim := NewSimulation(msh)
	sigma, set := sim.NewProperty("sigma", Bulk)
	return sigma, set
}

func TestCellCenterScenario(t *testing.T) {
	msh := fourCellMesh()
	sigma, set := newSigmaSet(t, msh)
	require.NoError(t, sigma.SetMap(props.IdentityMap{}))
	require.NoError(t, sigma.SetModel(utils.NewVector(4, []float64{1, 2, 3, 4})))

	Mcc, err := set.MassMatrix(CellCenter)
	require.NoError(t, err)
	expected := utils.NewDiagCSR(utils.NewVector(4, []float64{1, 2, 3, 4}))
	assert.True(t, utils.MaxAbsDiff(Mcc, expected) == 0)

	MccI, err := set.InverseMassMatrix(CellCenter)
	require.NoError(t, err)
	expectedI := utils.NewDiagCSR(utils.NewVector(4, []float64{1, 0.5, 1. / 3., 0.25}))
	assert.True(t, utils.MaxAbsDiff(MccI, expectedI) < 1.e-15)

	// directional derivative with identity map: u ⊙ (diag(vol)·v)
	u := utils.NewVector(4, []float64{1, 1, 1, 1})
	v := utils.NewVector(4, []float64{1, 0, 0, 0})
	dv, err := set.MassMatrixDeriv(CellCenter, u, v, false)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0, 0, 0}, dv.(*mat.VecDense).RawVector().Data)

	// scaled-operator form with unit fields is diag(vol), here the identity
	D, err := set.MassMatrixDeriv(CellCenter, u, nil, false)
	require.NoError(t, err)
	assert.True(t, utils.MaxAbsDiff(D, utils.Eye(4)) < 1.e-15)
	Dadj, err := set.MassMatrixDeriv(CellCenter, u, nil, true)
	require.NoError(t, err)
	assert.True(t, utils.MaxAbsDiff(Dadj, utils.Eye(4)) < 1.e-15)
}

func TestInverseIdentityAllSupports(t *testing.T) {
	msh := mesh.NewTensorMesh([]float64{1, 2}, []float64{1.5}, []float64{1, 0.5})
	sigma, set := newSigmaSet(t, msh)
	sigma.SetValue(utils.NewVector(msh.NumCells(), []float64{1, 2, 3, 4}))

	for _, sup := range []Support{CellCenter, Node, Face, Edge} {
		M, err := set.MassMatrix(sup)
		require.NoError(t, err, sup.String())
		MI, err := set.InverseMassMatrix(sup)
		require.NoError(t, err, sup.String())
		nr, _ := M.Dims()
		P := M.MulMat(MI)
		assert.True(t, utils.MaxAbsDiff(P, utils.Eye(nr)) < 1.e-10, sup.String())
	}
}

func TestCacheIdempotence(t *testing.T) {
	sigma, set := newSigmaSet(t, fourCellMesh())
	sigma.SetScalar(2)

	M1, err := set.MassMatrix(CellCenter)
	require.NoError(t, err)
	M2, err := set.MassMatrix(CellCenter)
	require.NoError(t, err)
	assert.True(t, M1.M == M2.M, "two reads without a write must return the identical object")
}

func TestInvalidationOnAssignment(t *testing.T) {
	sigma, set := newSigmaSet(t, fourCellMesh())
	sigma.SetValue(utils.NewVector(4, []float64{1, 2, 3, 4}))

	M1, err := set.MassMatrix(CellCenter)
	require.NoError(t, err)
	MI1, err := set.InverseMassMatrix(CellCenter)
	require.NoError(t, err)

	// reassigning numerically identical values still invalidates
	sigma.SetValue(utils.NewVector(4, []float64{1, 2, 3, 4}))
	M2, err := set.MassMatrix(CellCenter)
	require.NoError(t, err)
	MI2, err := set.InverseMassMatrix(CellCenter)
	require.NoError(t, err)
	assert.False(t, M1.M == M2.M)
	assert.False(t, MI1.M == MI2.M)

	// new values show up on the next read
	sigma.SetValue(utils.NewVector(4, []float64{2, 2, 2, 2}))
	M3, err := set.MassMatrix(CellCenter)
	require.NoError(t, err)
	assert.Equal(t, 2., M3.At(0, 0))
	assert.Equal(t, 2., M3.At(3, 3))
}

func TestMissingProperty(t *testing.T) {
	_, set := newSigmaSet(t, fourCellMesh())
	_, err := set.MassMatrix(CellCenter)
	assert.ErrorIs(t, err, props.ErrMissingProperty)
	_, err = set.InverseMassMatrix(Face)
	assert.ErrorIs(t, err, props.ErrMissingProperty)
}

func TestUnsupportedSupport(t *testing.T) {
	msh := fourCellMesh()
	sim := NewSimulation(msh)
	tau, tauSet := sim.NewProperty("tau", Surface)
	tau.SetScalar(1)

	_, err := tauSet.MassMatrix(CellCenter)
	assert.ErrorIs(t, err, ErrUnsupportedSupport)
	_, err = tauSet.MassMatrix(EdgeSurface)
	assert.NoError(t, err)
}

func TestReciprocalDerivIsZero(t *testing.T) {
	msh := fourCellMesh()
	sim := NewSimulation(msh)
	ec, err := NewElectricalComponent(sim)
	require.NoError(t, err)

	require.NoError(t, ec.Sigma.SetMap(props.IdentityMap{}))
	require.NoError(t, ec.Sigma.SetModel(utils.NewVector(4, []float64{1, 2, 3, 4})))

	// rho is the non-canonical member: no independent sensitivity
	u := utils.Ones(4)
	v := utils.Ones(4)
	d, err := ec.RhoSet.MassMatrixDeriv(CellCenter, u, v, false)
	require.NoError(t, err)
	assert.True(t, utils.IsZero(d))

	// rho's forward matrix still reflects the reciprocal values
	Mrho, err := ec.RhoSet.MassMatrix(CellCenter)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, Mrho.At(1, 1), 1.e-15)
}

func TestInverseDerivUsesForwardDeriv(t *testing.T) {
	// finite-difference check of d(M^-1)/dm against the chain-rule form
	msh := fourCellMesh()
	sigma, set := newSigmaSet(t, msh)
	require.NoError(t, sigma.SetMap(props.IdentityMap{}))
	model := utils.NewVector(4, []float64{1, 2, 3, 4})
	require.NoError(t, sigma.SetModel(model))

	u := utils.NewVector(4, []float64{1, 2, -1, 3})
	v := utils.NewVector(4, []float64{0.1, -0.2, 0.3, 0.4})

	got, err := set.InverseMassMatrixDeriv(CellCenter, u, v, false)
	require.NoError(t, err)

	// d/dm (1/(vol*m)) applied to v, scaled by u: -u * v / (vol*m^2)
	for i := 0; i < 4; i++ {
		mi := model.AtVec(i)
		want := -u.AtVec(i) * v.AtVec(i) / (mi * mi)
		assert.InDelta(t, want, got.(*mat.VecDense).AtVec(i), 1.e-12)
	}
}

func TestSimulationContract(t *testing.T) {
	msh := fourCellMesh()
	sim := NewSimulation(msh)
	sigma, _ := sim.NewProperty("sigma", Bulk)
	sigma.SetScalar(3)

	M, err := sim.MassMatrix(CellCenter, "sigma")
	require.NoError(t, err)
	assert.Equal(t, 3., M.At(2, 2))

	_, err = sim.MassMatrix(CellCenter, "nope")
	assert.ErrorIs(t, err, props.ErrMissingProperty)

	list := sim.InvalidationList("sigma")
	assert.Len(t, list, 12) // 4 supports x 3 kinds

	// base matrices are geometry-only and survive property writes
	Mcc1, err := sim.Mcc()
	require.NoError(t, err)
	sigma.SetScalar(4)
	Mcc2, err := sim.Mcc()
	require.NoError(t, err)
	assert.True(t, Mcc1.M == Mcc2.M)

	MccI, err := sim.MccI()
	require.NoError(t, err)
	P := Mcc1.MulMat(MccI)
	assert.True(t, utils.MaxAbsDiff(P, utils.Eye(4)) < 1.e-12)
}
