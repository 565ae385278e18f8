package models

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned when a market input violates its domain.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidParameter is returned for a non-positive resolution (steps, paths).
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrNumericalInstability is returned when a model cannot represent the parameter regime.
	ErrNumericalInstability = errors.New("numerical instability")

	// ErrNoConvergence is returned when an iterative solver gives up.
	ErrNoConvergence = errors.New("no convergence")
)

// InputError reports the offending MarketInputs field.
type InputError struct {
	Field string
	Value float64
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %s must be strictly positive and finite, got %v", ErrInvalidInput, e.Field, e.Value)
}

func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}

// ParameterError reports a bad resolution parameter.
type ParameterError struct {
	Name  string
	Value int
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("%s: %s must be positive, got %d", ErrInvalidParameter, e.Name, e.Value)
}

func (e *ParameterError) Unwrap() error {
	return ErrInvalidParameter
}

type InstabilityError struct {
	Model  string
	Detail string
}

func (e *InstabilityError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrNumericalInstability, e.Model, e.Detail)
}

func (e *InstabilityError) Unwrap() error {
	return ErrNumericalInstability
}
