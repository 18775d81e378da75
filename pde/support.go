// Package pde builds, caches and differentiates the property-weighted mass
// matrices used by finite-volume PDE formulations and their adjoint-based
// inversion. Matrices are built lazily per (property, support, kind), with an
// enumerable invalidation list cleared whenever the owning property is
// reassigned.
package pde

import (
	"fmt"

	"github.com/geopde/propmat/mesh"
)

// Support is the geometric entity type a mass matrix lives on. The surface
// and line variants are the thin-sheet and thin-wire conductance supports on
// faces and edges.
type Support int

const (
	CellCenter Support = iota
	Node
	Face
	Edge
	FaceSurface
	EdgeSurface
	EdgeLine
)

func (s Support) String() string {
	names := []string{"cellCenter", "node", "face", "edge", "faceSurface", "edgeSurface", "edgeLine"}
	if int(s) < len(names) {
		return names[s]
	}
	return "invalid"
}

// SupportByName resolves the support names accepted in input files.
func SupportByName(name string) (s Support, err error) {
	switch name {
	case "cellCenter", "cc":
		s = CellCenter
	case "node":
		s = Node
	case "face":
		s = Face
	case "edge":
		s = Edge
	case "faceSurface":
		s = FaceSurface
	case "edgeSurface":
		s = EdgeSurface
	case "edgeLine":
		s = EdgeLine
	default:
		err = fmt.Errorf("unknown support %q", name)
	}
	return
}

// Kind distinguishes the three cached matrices per (property, support).
type Kind int

const (
	Forward Kind = iota
	Inverse
	Deriv
)

func (k Kind) String() string {
	names := []string{"forward", "inverse", "deriv"}
	if int(k) < len(names) {
		return names[k]
	}
	return "invalid"
}

// Class says which supports a property parameterizes and where its values
// live: bulk properties are cell arrays, surface conductances face arrays,
// line conductances edge arrays.
type Class int

const (
	Bulk Class = iota
	Surface
	Line
)

func (c Class) String() string {
	names := []string{"bulk", "surface", "line"}
	if int(c) < len(names) {
		return names[c]
	}
	return "invalid"
}

func ClassByName(name string) (c Class, err error) {
	switch name {
	case "", "bulk":
		c = Bulk
	case "surface":
		c = Surface
	case "line":
		c = Line
	default:
		err = fmt.Errorf("unknown property class %q", name)
	}
	return
}

func (c Class) Supports() []Support {
	switch c {
	case Bulk:
		return []Support{CellCenter, Node, Face, Edge}
	case Surface:
		return []Support{FaceSurface, EdgeSurface}
	case Line:
		return []Support{EdgeLine}
	}
	return nil
}

// ValueLen is the expected property value length on msh for this class.
func (c Class) ValueLen(msh mesh.Mesh) int {
	switch c {
	case Bulk:
		return msh.NumCells()
	case Surface:
		return msh.NumFaces()
	case Line:
		return msh.NumEdges()
	}
	return 0
}

// SlotKey identifies one cached matrix.
type SlotKey struct {
	Prop    string
	Support Support
	Kind    Kind
}

func (k SlotKey) String() string {
	return fmt.Sprintf("%s/%s/%s", k.Prop, k.Support, k.Kind)
}
