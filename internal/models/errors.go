package models

import "errors"

// Shared error vocabulary across the cache core and its collaborators.
var (
	// ErrNotFound is returned by loaders when the entity legitimately does
	// not exist. It is a valid negative result, not a failure: the cache
	// layer stores it with a short TTL to avoid repeating the lookup.
	ErrNotFound = errors.New("entity not found")

	// ErrNoUsableValue is returned when a refresh failed and there is no
	// prior cached value and no configured emergency payload to serve.
	ErrNoUsableValue = errors.New("no usable cached value")
)
