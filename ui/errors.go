package ui

import "errors"

// UI package errors.
var (
	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("ui: invalid configuration")

	// ErrNotFound indicates a resource was not found.
	ErrNotFound = errors.New("ui: not found")

	// ErrBadRequest indicates an invalid request.
	ErrBadRequest = errors.New("ui: bad request")

	// ErrNoStateSource indicates the handler was built without a state source.
	ErrNoStateSource = errors.New("ui: no compaction state source configured")
)
