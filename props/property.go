// Package props holds the physical property bindings consumed by the
// mass-matrix layer: value arrays, optional model maps with derivative
// operators, and reciprocal-linked pairs such as conductivity/resistivity.
package props

import (
	"errors"
	"fmt"

	"github.com/geopde/propmat/utils"
)

var (
	// ErrMissingProperty reports a read of a property that was never
	// assigned a value array. This is a configuration bug, never zero.
	ErrMissingProperty = errors.New("property has no assigned value")

	// ErrReciprocalConflict reports an attempt to give both members of a
	// reciprocal pair an independent model map.
	ErrReciprocalConflict = errors.New("both members of a reciprocal pair cannot carry a model map")
)

// Property binds a named physical property to its current value array, an
// optional model map, and the invalidation hooks of whoever caches matrices
// built from it. Every setter fires the hooks before returning, so readers
// after a write always observe fresh state.
type Property struct {
	name     string
	n        int // expected value length for this property's support
	value    utils.Vector
	hasVal   bool
	mapping  Map
	model    utils.Vector
	hasModel bool
	pair     *ReciprocalPair
	onWrite  []func()
}

func NewProperty(name string, n int) *Property {
	return &Property{name: name, n: n}
}

func (p *Property) Name() string { return p.name }
func (p *Property) Len() int     { return p.n }

// OnWrite registers an invalidation hook fired whenever the property's value
// or map is reassigned.
func (p *Property) OnWrite(f func()) {
	p.onWrite = append(p.onWrite, f)
}

func (p *Property) fireHooks() {
	for _, f := range p.onWrite {
		f()
	}
	if p.pair != nil {
		other := p.pair.other(p)
		for _, f := range other.onWrite {
			f()
		}
	}
}

func (p *Property) Value() (utils.Vector, error) {
	if !p.hasVal {
		return utils.Vector{}, fmt.Errorf("%w: %s", ErrMissingProperty, p.name)
	}
	return p.value, nil
}

// SetValue assigns the value array and invalidates every dependent cache
// slot, even when the new values equal the old ones. A reciprocal partner is
// rederived from the new values.
func (p *Property) SetValue(v utils.Vector) {
	if v.Len() != p.n {
		panic(fmt.Errorf("property %s expects %d values, got %d", p.name, p.n, v.Len()))
	}
	p.value = v.Copy()
	p.hasVal = true
	if p.pair != nil {
		other := p.pair.other(p)
		other.value = v.Copy().Recip()
		other.hasVal = true
	}
	p.fireHooks()
}

// SetScalar broadcasts a constant across the property's support.
func (p *Property) SetScalar(val float64) {
	p.SetValue(utils.NewVectorConstant(p.n, val))
}

// SetMap attaches the model map. At most one member of a reciprocal pair may
// carry a map, since only one member's sensitivity can be canonical.
func (p *Property) SetMap(m Map) error {
	if m != nil && p.pair != nil && p.pair.other(p).mapping != nil {
		return fmt.Errorf("%w: %s and %s", ErrReciprocalConflict, p.name, p.pair.other(p).name)
	}
	p.mapping = m
	p.fireHooks()
	return nil
}

// SetModel evaluates the map at the model and assigns the result as the
// property's value.
func (p *Property) SetModel(model utils.Vector) error {
	if p.mapping == nil {
		return fmt.Errorf("property %s has no model map", p.name)
	}
	p.model = model.Copy()
	p.hasModel = true
	p.SetValue(p.mapping.Apply(p.model))
	return nil
}

// HasMap reports whether this property carries its own model map. The
// non-canonical member of a reciprocal pair does not, so its derivatives are
// algebraically zero.
func (p *Property) HasMap() bool {
	return p.mapping != nil
}

// MapDeriv returns d(property)/d(model) at the current model. ok is false
// when the property has no map or no model has been set, in which case the
// caller must propagate the Zero sentinel.
func (p *Property) MapDeriv() (D utils.CSR, ok bool) {
	if p.mapping == nil || !p.hasModel {
		return utils.CSR{}, false
	}
	return p.mapping.Deriv(p.model), true
}

// ReciprocalPair constrains two properties to be elementwise reciprocals.
// Writes to either member store canonically on that member, rederive the
// other, and invalidate both members' dependent caches.
type ReciprocalPair struct {
	a, b *Property
}

func NewReciprocalPair(a, b *Property) (*ReciprocalPair, error) {
	if a.n != b.n {
		return nil, fmt.Errorf("reciprocal pair %s/%s has mismatched lengths %d/%d", a.name, b.name, a.n, b.n)
	}
	if a.mapping != nil && b.mapping != nil {
		return nil, fmt.Errorf("%w: %s and %s", ErrReciprocalConflict, a.name, b.name)
	}
	pr := &ReciprocalPair{a: a, b: b}
	a.pair = pr
	b.pair = pr
	// values assigned before pairing propagate to the new partner
	if a.hasVal && !b.hasVal {
		b.value = a.value.Copy().Recip()
		b.hasVal = true
		b.fireHooks()
	} else if b.hasVal && !a.hasVal {
		a.value = b.value.Copy().Recip()
		a.hasVal = true
		a.fireHooks()
	}
	return pr, nil
}

func (pr *ReciprocalPair) other(p *Property) *Property {
	if p == pr.a {
		return pr.b
	}
	return pr.a
}
