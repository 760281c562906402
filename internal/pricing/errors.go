package pricing

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks input the pricing engine refuses to compute with.
	ErrValidation = errors.New("pricing: validation failed")
	// ErrNotFound marks a product or discount reference a lookup could not resolve.
	ErrNotFound = errors.New("pricing: reference not found")
)

// ValidationError describes a rejected field of a line item or order input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Unwrap lets errors.Is match ErrValidation.
func (e *ValidationError) Unwrap() error { return ErrValidation }

// NotFoundError names the entity a collaborator lookup failed to resolve.
type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s %q not found", e.Entity, e.Key)
}

// Unwrap lets errors.Is match ErrNotFound.
func (e *NotFoundError) Unwrap() error { return ErrNotFound }

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
