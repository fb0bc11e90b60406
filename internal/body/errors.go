package body

import "errors"

var (
	// ErrEmptyName indicates a body without an addressing key.
	ErrEmptyName = errors.New("body: empty name")

	// ErrInvalidMass indicates a mass that is zero, negative, NaN or Inf.
	ErrInvalidMass = errors.New("body: mass must be positive and finite")

	// ErrInvalidVector indicates a position or velocity with NaN or Inf components.
	ErrInvalidVector = errors.New("body: non-finite position or velocity")
)
