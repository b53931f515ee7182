// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// auth services to distinguish between different failure scenarios
// without inspecting driver-specific errors.
package repository

import "errors"

// ErrEmailExists is returned when a user cannot be created because the
// email or username is already taken.
var ErrEmailExists = errors.New("email already exists")

// ErrConflict is returned when a compare-and-swap update touched zero
// rows because another request won the race, such as two concurrent
// attempts to consume the same single-use token. Callers treat the
// losing request as a hard failure, never as success.
var ErrConflict = errors.New("conflict")
