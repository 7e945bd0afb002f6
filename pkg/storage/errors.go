package storage

import "errors"

// Sentinel errors for storage operations.
var (
	// ErrNotFound is returned when an upload does not exist.
	ErrNotFound = errors.New("upload not found")

	// ErrConflict is returned when an upload with the given name already exists.
	ErrConflict = errors.New("upload already exists")

	// ErrInvalidName is returned for names that are not plain file names.
	ErrInvalidName = errors.New("invalid upload name")

	// ErrEmpty is returned when an upload carries no bytes.
	ErrEmpty = errors.New("upload is empty")
)
