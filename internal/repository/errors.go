// Package repository implements the MySQL persistence layer.  The
// sentinel errors defined here let handlers distinguish failure
// scenarios without inspecting driver errors: ErrStatusChanged in
// particular signals that a conditional status update lost a race with
// a concurrent transition and the caller should re-read the record.
package repository

import "errors"

// ErrUserNotFound is returned when a user lookup matches no row.
var ErrUserNotFound = errors.New("user not found")

// ErrRequestNotFound is returned when a request lookup matches no row.
var ErrRequestNotFound = errors.New("request not found")

// ErrEmailExists is returned when an insert violates the unique email
// constraint.
var ErrEmailExists = errors.New("email already exists")

// ErrStatusChanged is returned when a conditional status update affects
// zero rows because the record's status no longer matches the expected
// source status.  Handlers translate this into an HTTP 409 response.
var ErrStatusChanged = errors.New("status changed concurrently")

// ErrConflict is returned when a delete cannot proceed because of
// dependent records, such as removing a worker who still has active
// assignments.  Handlers translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")
