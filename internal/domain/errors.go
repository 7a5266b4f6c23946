package domain

import "errors"

// Sentinel errors shared across services and handlers - use with errors.Is()
var (
	// ErrNotFound indicates a referenced resource is absent or not owned by the caller
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a unique-key collision (e.g. registering an existing email)
	ErrConflict = errors.New("already exists")

	// ErrValidation indicates invalid input
	ErrValidation = errors.New("validation failed")

	// ErrUnauthorized indicates authentication failure
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUpstream indicates a remote provider call failed or returned an error
	ErrUpstream = errors.New("upstream unavailable")

	// ErrConfig indicates a required credential or local data file is absent
	ErrConfig = errors.New("configuration missing")
)
