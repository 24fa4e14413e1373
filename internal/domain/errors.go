package domain

import "errors"

var (
	// ErrNotFound is returned when a recipe node is absent.
	ErrNotFound = errors.New("not found")
	// ErrInvalidID rejects identifiers that are not positive integers.
	ErrInvalidID = errors.New("invalid recipe id")
	// ErrInvalidRecipe marks an aggregate that failed field validation.
	ErrInvalidRecipe = errors.New("recipe fields cannot be empty")
)
