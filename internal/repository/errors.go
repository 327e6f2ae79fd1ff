// Package repository implements data access over MySQL. The sentinel
// errors defined here are shared by every store implementation (the SQL
// repositories and the JSON-file fallback) so that handlers can map
// failures to HTTP statuses without knowing which store served the
// request.
package repository

import "errors"

// ErrNotFound is returned when a referenced entity does not exist.
// Handlers translate this into HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an operation collides with existing
// state, such as assigning a seat that already has a holder or creating
// a duplicate unique field. Handlers translate this into HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrInvalidState is returned when an operation is not valid for the
// current state, such as marking a seat present when nobody is assigned
// to it. Handlers translate this into HTTP 400.
var ErrInvalidState = errors.New("invalid state")

// ErrEmailExists is returned when a user insert violates the unique
// email constraint.
var ErrEmailExists = errors.New("email already exists")
