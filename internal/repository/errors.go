// Package repository implements the persistence layer over database/sql.
// Sentinel errors defined here let higher layers distinguish failure
// scenarios without inspecting driver errors.
package repository

import "errors"

// ErrEmailExists is returned when creating a user with an email that is
// already registered. Handlers translate this into an HTTP 409 response.
var ErrEmailExists = errors.New("email already exists")

// ErrNotFound is returned when a requested row does not exist or is not
// visible (soft-deleted where the query excludes deletions).
var ErrNotFound = errors.New("not found")
