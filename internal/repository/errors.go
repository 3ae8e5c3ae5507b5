package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrStaleState is returned when a guarded update matched no row
	// because the entity changed since it was read.
	ErrStaleState = errors.New("entity changed concurrently")
)
