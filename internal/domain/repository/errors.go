package repository

import "errors"

// Sentinel errors shared by the persistence gateways and the services
// built on top of them. Callers match with errors.Is.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrRoleNotFound = errors.New("role not found")

	// ErrMembershipNotFound fires when a (user, role) pairing is expected
	// to exist and does not.
	ErrMembershipNotFound = errors.New("user role pairing not found")

	// ErrMembershipExists fires when inserting a (user, role) pairing that
	// is already present. This is a conflict, not a not-found condition.
	ErrMembershipExists = errors.New("user role pairing already exists")

	ErrUsernameTaken = errors.New("username already taken")
)
