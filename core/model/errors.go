package model

import "errors"

var (
	// ErrInvalidParams is wrapped by every parameter validation error.
	ErrInvalidParams = errors.New("invalid parameters")
	// ErrNonUniform is returned when a row would break the table time step.
	ErrNonUniform = errors.New("non-uniform time step")
)
