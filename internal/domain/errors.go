package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput is returned when a run has no vendors, hubs or vehicle categories.
	ErrEmptyInput = errors.New("empty input")
	// ErrInvalidCoordinate is returned for latitude/longitude values out of range.
	ErrInvalidCoordinate = errors.New("invalid coordinate")
	ErrInvalidInput      = errors.New("invalid input")
	// ErrCapacityExceeded is returned when a manual plan overloads a vehicle.
	ErrCapacityExceeded = errors.New("vehicle capacity exceeded")
	ErrNotFound         = errors.New("not found")
)

// CoordinateError describes the offending coordinate component.
type CoordinateError struct {
	Field string
	Value float64
}

func (e *CoordinateError) Error() string {
	return fmt.Sprintf("invalid coordinate: %s=%v out of range", e.Field, e.Value)
}

func (e *CoordinateError) Unwrap() error { return ErrInvalidCoordinate }
