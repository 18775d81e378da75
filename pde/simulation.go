package pde

import (
	"fmt"
	"math"

	"github.com/geopde/propmat/mesh"
	"github.com/geopde/propmat/props"
	"github.com/geopde/propmat/utils"
	"gonum.org/v1/gonum/mat"
)

// Mu0 is the magnetic permeability of free space (H/m).
const Mu0 = 4 * math.Pi * 1e-7

// Simulation owns one mesh, one cache ledger and a registry of property
// mass-matrix sets. Physics components (electrical, magnetic, conductance)
// are composed onto it rather than inherited; each registers its properties
// and invalidation lists here.
type Simulation struct {
	msh    mesh.Mesh
	ledger *Ledger
	sets   map[string]*MassMatrixSet
	combos map[string]*Combined
}

func NewSimulation(msh mesh.Mesh) *Simulation {
	return &Simulation{
		msh:    msh,
		ledger: NewLedger(),
		sets:   make(map[string]*MassMatrixSet),
		combos: make(map[string]*Combined),
	}
}

func (sim *Simulation) Mesh() mesh.Mesh { return sim.msh }
func (sim *Simulation) Ledger() *Ledger { return sim.ledger }

// AddProperty registers a property of the given class and returns its matrix
// set. The property's expected length must match the class on this mesh.
func (sim *Simulation) AddProperty(p *props.Property, class Class) *MassMatrixSet {
	if _, ok := sim.sets[p.Name()]; ok {
		panic(fmt.Errorf("property %s is already registered", p.Name()))
	}
	s := NewMassMatrixSet(sim.msh, p, class, sim.ledger)
	sim.sets[p.Name()] = s
	return s
}

// NewProperty creates and registers a property sized for class.
func (sim *Simulation) NewProperty(name string, class Class) (*props.Property, *MassMatrixSet) {
	p := props.NewProperty(name, class.ValueLen(sim.msh))
	return p, sim.AddProperty(p, class)
}

func (sim *Simulation) Set(name string) (*MassMatrixSet, bool) {
	s, ok := sim.sets[name]
	return s, ok
}

func (sim *Simulation) Property(name string) (*props.Property, bool) {
	s, ok := sim.sets[name]
	if !ok {
		return nil, false
	}
	return s.Property(), true
}

// Sets lists the registered property names.
func (sim *Simulation) Sets() (names []string) {
	for name := range sim.sets {
		names = append(names, name)
	}
	return
}

// AddCombined registers a composite matrix over previously added properties.
func (sim *Simulation) AddCombined(name string, terms []CombinedTerm) *Combined {
	if _, ok := sim.combos[name]; ok {
		panic(fmt.Errorf("composite %s is already registered", name))
	}
	c := NewCombined(name, sim.ledger, terms)
	sim.combos[name] = c
	return c
}

func (sim *Simulation) Combined(name string) (*Combined, bool) {
	c, ok := sim.combos[name]
	return c, ok
}

func (sim *Simulation) set(prop string) (*MassMatrixSet, error) {
	s, ok := sim.sets[prop]
	if !ok {
		return nil, fmt.Errorf("%w: %s", props.ErrMissingProperty, prop)
	}
	return s, nil
}

// MassMatrix and friends are the contract consumed by PDE formulations.

func (sim *Simulation) MassMatrix(sup Support, prop string) (utils.CSR, error) {
	s, err := sim.set(prop)
	if err != nil {
		return utils.CSR{}, err
	}
	return s.MassMatrix(sup)
}

func (sim *Simulation) InverseMassMatrix(sup Support, prop string) (utils.CSR, error) {
	s, err := sim.set(prop)
	if err != nil {
		return utils.CSR{}, err
	}
	return s.InverseMassMatrix(sup)
}

func (sim *Simulation) MassMatrixDeriv(sup Support, prop string, u, v mat.Matrix, adjoint bool) (mat.Matrix, error) {
	s, err := sim.set(prop)
	if err != nil {
		return nil, err
	}
	return s.MassMatrixDeriv(sup, u, v, adjoint)
}

func (sim *Simulation) InverseMassMatrixDeriv(sup Support, prop string, u, v mat.Matrix, adjoint bool) (mat.Matrix, error) {
	s, err := sim.set(prop)
	if err != nil {
		return nil, err
	}
	return s.InverseMassMatrixDeriv(sup, u, v, adjoint)
}

func (sim *Simulation) InvalidationList(prop string) []SlotKey {
	return sim.ledger.InvalidationList(prop)
}

// Unweighted base inner-product matrices. These depend on geometry only, so
// they cache under an unregistered name and never invalidate.

const baseName = "__base"

func (sim *Simulation) baseMatrix(sup Support, invert bool) (utils.CSR, error) {
	kind := Forward
	if invert {
		kind = Inverse
	}
	return sim.ledger.Get(SlotKey{baseName, sup, kind}, func() (utils.CSR, error) {
		vol := sim.msh.CellVolumes()
		switch sup {
		case CellCenter:
			return diagOrInverse(vol.Copy(), invert)
		case Node:
			return diagOrInverse(sim.msh.AveNodeToCell().MulVecT(vol.Copy()), invert)
		case Face:
			return sim.msh.FaceInnerProduct(utils.Ones(sim.msh.NumCells()), invert)
		case Edge:
			return sim.msh.EdgeInnerProduct(utils.Ones(sim.msh.NumCells()), invert)
		}
		return utils.CSR{}, fmt.Errorf("%w: %s", ErrUnsupportedSupport, sup)
	})
}

func (sim *Simulation) Mcc() (utils.CSR, error)  { return sim.baseMatrix(CellCenter, false) }
func (sim *Simulation) Mn() (utils.CSR, error)   { return sim.baseMatrix(Node, false) }
func (sim *Simulation) Mf() (utils.CSR, error)   { return sim.baseMatrix(Face, false) }
func (sim *Simulation) Me() (utils.CSR, error)   { return sim.baseMatrix(Edge, false) }
func (sim *Simulation) MccI() (utils.CSR, error) { return sim.baseMatrix(CellCenter, true) }
func (sim *Simulation) MnI() (utils.CSR, error)  { return sim.baseMatrix(Node, true) }
func (sim *Simulation) MfI() (utils.CSR, error)  { return sim.baseMatrix(Face, true) }
func (sim *Simulation) MeI() (utils.CSR, error)  { return sim.baseMatrix(Edge, true) }

// Vol is the cell-center inner product, aliased for formulations that read
// it as a volume operator.
func (sim *Simulation) Vol() (utils.CSR, error) { return sim.Mcc() }

// ElectricalComponent carries the conductivity/resistivity reciprocal pair
// and their bulk mass-matrix sets.
type ElectricalComponent struct {
	Sigma, Rho       *props.Property
	SigmaSet, RhoSet *MassMatrixSet
}

func NewElectricalComponent(sim *Simulation) (*ElectricalComponent, error) {
	sigma, sigmaSet := sim.NewProperty("sigma", Bulk)
	rho, rhoSet := sim.NewProperty("rho", Bulk)
	if _, err := props.NewReciprocalPair(sigma, rho); err != nil {
		return nil, err
	}
	return &ElectricalComponent{
		Sigma:    sigma,
		Rho:      rho,
		SigmaSet: sigmaSet,
		RhoSet:   rhoSet,
	}, nil
}

// MagneticComponent carries the permeability pair; mu defaults to free space.
type MagneticComponent struct {
	Mu, Mui       *props.Property
	MuSet, MuiSet *MassMatrixSet
}

func NewMagneticComponent(sim *Simulation) (*MagneticComponent, error) {
	mu, muSet := sim.NewProperty("mu", Bulk)
	mui, muiSet := sim.NewProperty("mui", Bulk)
	if _, err := props.NewReciprocalPair(mu, mui); err != nil {
		return nil, err
	}
	mu.SetScalar(Mu0)
	return &MagneticComponent{
		Mu:     mu,
		Mui:    mui,
		MuSet:  muSet,
		MuiSet: muiSet,
	}, nil
}

// ConductanceComponent combines bulk conductivity with thin-sheet (tau, on
// faces) and thin-wire (kappa, on edges) conductance terms sharing the edge
// support. Its composite edge matrix is differentiable with respect to tau
// only; the other contributions return Zero, the known partial-derivative
// limitation of this formulation.
type ConductanceComponent struct {
	*ElectricalComponent
	Tau, Kappa, Kappai          *props.Property
	TauSet, KappaSet, KappaiSet *MassMatrixSet

	composite *Combined
}

func NewConductanceComponent(sim *Simulation) (*ConductanceComponent, error) {
	ec, err := NewElectricalComponent(sim)
	if err != nil {
		return nil, err
	}
	tau, tauSet := sim.NewProperty("tau", Surface)
	kappa, kappaSet := sim.NewProperty("kappa", Line)
	kappai, kappaiSet := sim.NewProperty("kappai", Line)
	if _, err := props.NewReciprocalPair(kappa, kappai); err != nil {
		return nil, err
	}
	// background defaults: a near-insulating bulk and no wire conductance
	ec.Sigma.SetScalar(1e-8)
	kappa.SetScalar(0)

	c := &ConductanceComponent{
		ElectricalComponent: ec,
		Tau:                 tau,
		Kappa:               kappa,
		Kappai:              kappai,
		TauSet:              tauSet,
		KappaSet:            kappaSet,
		KappaiSet:           kappaiSet,
	}
	c.composite = sim.AddCombined("MeSigmaTauKappa", []CombinedTerm{
		{Set: ec.SigmaSet, Support: Edge},
		{Set: tauSet, Support: EdgeSurface, Differentiable: true},
		{Set: kappaSet, Support: EdgeLine},
	})
	return c, nil
}

// MeSigmaTauKappa is the summed edge conductance operator.
func (c *ConductanceComponent) MeSigmaTauKappa() (utils.CSR, error) {
	return c.composite.MassMatrix()
}

func (c *ConductanceComponent) MeSigmaTauKappaI() (utils.CSR, error) {
	return c.composite.InverseMassMatrix()
}

// MeSigmaTauKappaDeriv differentiates the composite with respect to tau.
func (c *ConductanceComponent) MeSigmaTauKappaDeriv(u, v mat.Matrix, adjoint bool) (mat.Matrix, error) {
	return c.composite.Deriv("tau", u, v, adjoint)
}

func (c *ConductanceComponent) MeSigmaTauKappaIDeriv(u, v mat.Matrix, adjoint bool) (mat.Matrix, error) {
	return c.composite.InverseDeriv("tau", u, v, adjoint)
}

// Composite exposes the underlying combined operator, e.g. for derivative
// requests against other contributors (which fail closed to Zero).
func (c *ConductanceComponent) Composite() *Combined { return c.composite }
