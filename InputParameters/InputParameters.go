package InputParameters

import (
	"fmt"
	"sort"

	"github.com/geopde/propmat/mesh"
	"github.com/geopde/propmat/pde"
	"github.com/geopde/propmat/props"
	"github.com/geopde/propmat/utils"
	"github.com/ghodss/yaml"
)

// Parameters obtained from the YAML input file
type InputParameters struct {
	Title      string          `yaml:"Title"`
	Mesh       MeshSpec        `yaml:"Mesh"`
	Properties []PropertySpec  `yaml:"Properties"`
	Composites []CompositeSpec `yaml:"Composites"`
}

// MeshSpec lists the tensor cell spacings per axis.
type MeshSpec struct {
	Hx []float64 `yaml:"Hx"`
	Hy []float64 `yaml:"Hy"`
	Hz []float64 `yaml:"Hz"`
}

// PropertySpec declares one physical property. At most one of Values, Scalar
// or Model assigns it; Model requires Map. Reciprocal names a previously
// declared property to pair with.
type PropertySpec struct {
	Name       string    `yaml:"Name"`
	Class      string    `yaml:"Class"` // bulk (default), surface or line
	Map        string    `yaml:"Map"`   // identity or exp; empty means none
	Reciprocal string    `yaml:"Reciprocal"`
	Values     []float64 `yaml:"Values"`
	Scalar     *float64  `yaml:"Scalar"`
	Model      []float64 `yaml:"Model"`
}

// CompositeSpec declares a summed mass matrix over declared properties.
type CompositeSpec struct {
	Name  string     `yaml:"Name"`
	Terms []TermSpec `yaml:"Terms"`
}

type TermSpec struct {
	Property       string `yaml:"Property"`
	Support        string `yaml:"Support"`
	Differentiable bool   `yaml:"Differentiable"`
}

func (ip *InputParameters) Parse(data []byte) error {
	return yaml.Unmarshal(data, ip)
}

func (ip *InputParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	fmt.Printf("%v\t\t= Hx\n", ip.Mesh.Hx)
	fmt.Printf("%v\t\t= Hy\n", ip.Mesh.Hy)
	fmt.Printf("%v\t\t= Hz\n", ip.Mesh.Hz)
	names := make([]string, len(ip.Properties))
	for i, ps := range ip.Properties {
		names[i] = ps.Name
	}
	sort.Strings(names)
	fmt.Printf("%v\t= Properties\n", names)
	for _, cs := range ip.Composites {
		fmt.Printf("Composite[%s] = %d terms\n", cs.Name, len(cs.Terms))
	}
}

// Build assembles the simulation the file describes: mesh, properties with
// their maps, reciprocal pairings and initial assignments, then composites.
func (ip *InputParameters) Build() (*pde.Simulation, error) {
	if len(ip.Mesh.Hx) == 0 || len(ip.Mesh.Hy) == 0 || len(ip.Mesh.Hz) == 0 {
		return nil, fmt.Errorf("mesh spacings Hx, Hy and Hz must all be non-empty")
	}
	msh := mesh.NewTensorMesh(ip.Mesh.Hx, ip.Mesh.Hy, ip.Mesh.Hz)
	sim := pde.NewSimulation(msh)

	for _, ps := range ip.Properties {
		if err := addProperty(sim, ps); err != nil {
			return nil, fmt.Errorf("property %s: %w", ps.Name, err)
		}
	}
	for _, cs := range ip.Composites {
		if err := addComposite(sim, cs); err != nil {
			return nil, fmt.Errorf("composite %s: %w", cs.Name, err)
		}
	}
	return sim, nil
}

func addProperty(sim *pde.Simulation, ps PropertySpec) error {
	if ps.Name == "" {
		return fmt.Errorf("property name is required")
	}
	class, err := pde.ClassByName(ps.Class)
	if err != nil {
		return err
	}
	p, _ := sim.NewProperty(ps.Name, class)

	if ps.Reciprocal != "" {
		partner, ok := sim.Property(ps.Reciprocal)
		if !ok {
			return fmt.Errorf("reciprocal partner %s is not declared", ps.Reciprocal)
		}
		if _, err = props.NewReciprocalPair(partner, p); err != nil {
			return err
		}
	}

	if ps.Map != "" {
		m, err := props.MapByName(ps.Map)
		if err != nil {
			return err
		}
		if err = p.SetMap(m); err != nil {
			return err
		}
	}

	assigned := 0
	if ps.Values != nil {
		assigned++
	}
	if ps.Scalar != nil {
		assigned++
	}
	if ps.Model != nil {
		assigned++
	}
	if assigned > 1 {
		return fmt.Errorf("Values, Scalar and Model are mutually exclusive")
	}
	n := class.ValueLen(sim.Mesh())
	switch {
	case ps.Values != nil:
		if len(ps.Values) != n {
			return fmt.Errorf("expected %d values for class %s, got %d", n, class, len(ps.Values))
		}
		p.SetValue(utils.NewVector(n, ps.Values))
	case ps.Scalar != nil:
		p.SetScalar(*ps.Scalar)
	case ps.Model != nil:
		if ps.Map == "" {
			return fmt.Errorf("Model requires a Map")
		}
		if len(ps.Model) != n {
			return fmt.Errorf("expected %d model values for class %s, got %d", n, class, len(ps.Model))
		}
		return p.SetModel(utils.NewVector(n, ps.Model))
	}
	return nil
}

func addComposite(sim *pde.Simulation, cs CompositeSpec) error {
	if cs.Name == "" {
		return fmt.Errorf("composite name is required")
	}
	if len(cs.Terms) == 0 {
		return fmt.Errorf("composite needs at least one term")
	}
	terms := make([]pde.CombinedTerm, len(cs.Terms))
	for i, ts := range cs.Terms {
		set, ok := sim.Set(ts.Property)
		if !ok {
			return fmt.Errorf("term property %s is not declared", ts.Property)
		}
		sup, err := pde.SupportByName(ts.Support)
		if err != nil {
			return err
		}
		terms[i] = pde.CombinedTerm{Set: set, Support: sup, Differentiable: ts.Differentiable}
	}
	sim.AddCombined(cs.Name, terms)
	return nil
}
