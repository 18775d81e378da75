package mesh

import (
	"testing"

	"github.com/geopde/propmat/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTensorMeshCounts(t *testing.T) {
	tm := NewTensorMesh(
		[]float64{1, 1, 1, 1},
		[]float64{1},
		[]float64{1},
	)
	assert.Equal(t, 4, tm.NumCells())
	assert.Equal(t, 20, tm.NumNodes())
	assert.Equal(t, 5+8+8, tm.NumFaces())
	assert.Equal(t, 16+10+10, tm.NumEdges())
	assert.Equal(t, []float64{1, 1, 1, 1}, tm.CellVolumes().Data())
}

func TestTensorMeshGeometry(t *testing.T) {
	tm := NewTensorMesh(
		[]float64{1, 2},
		[]float64{3},
		[]float64{4, 5},
	)
	// volumes: hx*hy*hz, x fastest then z
	assert.Equal(t, []float64{12, 24, 15, 30}, tm.CellVolumes().Data())
	// every face has positive area, every edge positive length
	assert.True(t, tm.FaceAreas().Min() > 0)
	assert.True(t, tm.EdgeLengths().Min() > 0)
}

func TestAveragingRowSums(t *testing.T) {
	tm := NewTensorMesh(
		[]float64{1, 2, 1},
		[]float64{1, 1},
		[]float64{2},
	)
	rowSum := func(M utils.CSR) utils.Vector {
		_, nc := M.Dims()
		return M.MulVec(utils.Ones(nc))
	}
	for _, M := range []utils.CSR{tm.AveNodeToCell(), tm.AveFaceToCell(), tm.AveEdgeToCell()} {
		s := rowSum(M)
		for _, val := range s.Data() {
			assert.InDelta(t, 1.0, val, 1.e-14)
		}
	}
	// interior edges average up to four adjacent faces
	s := rowSum(tm.AveFaceToEdge())
	assert.True(t, s.Max() <= 1.0+1.e-14)
	assert.True(t, s.Min() > 0)
}

func TestInnerProductInverses(t *testing.T) {
	tm := NewTensorMesh(
		[]float64{1, 2},
		[]float64{1, 3},
		[]float64{2},
	)
	w := utils.NewVector(tm.NumCells()).Set(2.5)

	Mf, err := tm.FaceInnerProduct(w, false)
	require.NoError(t, err)
	MfI, err := tm.FaceInnerProduct(w, true)
	require.NoError(t, err)
	P := Mf.MulMat(MfI)
	assert.True(t, utils.MaxAbsDiff(P, utils.Eye(tm.NumFaces())) < 1.e-12)

	Me, err := tm.EdgeInnerProduct(w, false)
	require.NoError(t, err)
	MeI, err := tm.EdgeInnerProduct(w, true)
	require.NoError(t, err)
	P = Me.MulMat(MeI)
	assert.True(t, utils.MaxAbsDiff(P, utils.Eye(tm.NumEdges())) < 1.e-12)

	tau := utils.Ones(tm.NumFaces())
	MeS, err := tm.EdgeInnerProductSurface(tau, false)
	require.NoError(t, err)
	MeSI, err := tm.EdgeInnerProductSurface(tau, true)
	require.NoError(t, err)
	P = MeS.MulMat(MeSI)
	assert.True(t, utils.MaxAbsDiff(P, utils.Eye(tm.NumEdges())) < 1.e-12)

	kappa := utils.Ones(tm.NumEdges())
	MeL, err := tm.EdgeInnerProductLine(kappa, false)
	require.NoError(t, err)
	MeLI, err := tm.EdgeInnerProductLine(kappa, true)
	require.NoError(t, err)
	P = MeL.MulMat(MeLI)
	assert.True(t, utils.MaxAbsDiff(P, utils.Eye(tm.NumEdges())) < 1.e-12)
}

func TestInnerProductWeightValidation(t *testing.T) {
	tm := NewTensorMesh([]float64{1, 1}, []float64{1}, []float64{1})
	_, err := tm.FaceInnerProduct(utils.Ones(3), false)
	assert.Error(t, err)
	_, err = tm.EdgeInnerProductLine(utils.Ones(1), false)
	assert.Error(t, err)
	// a zero weight cannot be inverted
	_, err = tm.EdgeInnerProductLine(utils.NewVector(tm.NumEdges()), true)
	assert.Error(t, err)
}

func TestInnerProductDerivLinearity(t *testing.T) {
	// For these diagonal inner products the derivative builder must satisfy
	// diag(M(w)) == D*w exactly.
	tm := NewTensorMesh([]float64{1, 2, 1}, []float64{1}, []float64{2})

	w := utils.NewVector(tm.NumCells(), []float64{1, 2, 3})
	Mf, err := tm.FaceInnerProduct(w, false)
	require.NoError(t, err)
	D := tm.FaceInnerProductDeriv(utils.Ones(tm.NumCells()))(utils.Ones(tm.NumFaces()))
	dw := D.MulVec(w)
	diag, ok := Mf.Diagonal()
	require.True(t, ok)
	for i, val := range diag.Data() {
		assert.InDelta(t, val, dw.AtVec(i), 1.e-14)
	}

	tau := utils.NewVector(tm.NumFaces()).Set(0.5)
	MeS, err := tm.EdgeInnerProductSurface(tau, false)
	require.NoError(t, err)
	DS := tm.EdgeInnerProductSurfaceDeriv(utils.Ones(tm.NumFaces()))(utils.Ones(tm.NumEdges()))
	dtau := DS.MulVec(tau)
	diag, ok = MeS.Diagonal()
	require.True(t, ok)
	for i, val := range diag.Data() {
		assert.InDelta(t, val, dtau.AtVec(i), 1.e-14)
	}
}
