package pde

import "errors"

var (
	// ErrUnsupportedSupport reports a matrix request outside the supports a
	// property's class parameterizes.
	ErrUnsupportedSupport = errors.New("support not available for this property")

	// ErrShapeMismatch reports field/direction arrays whose shapes are
	// incompatible with the derivative broadcasting rules.
	ErrShapeMismatch = errors.New("incompatible field/direction shapes")
)
