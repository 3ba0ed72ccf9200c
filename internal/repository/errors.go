// Package repository defines data access for the compliance core.
// This file holds the sentinel errors shared across repositories.
// Higher layers compare against them with errors.Is to translate
// storage failures into the service error taxonomy (NotFound vs
// conflicting state) without inspecting driver-specific errors.
package repository

import "errors"

// ErrAccountNotFound is returned when no account row exists for
// the requested identity.
var ErrAccountNotFound = errors.New("account not found")

// ErrMeterNotFound is returned when a meter has no binding.
var ErrMeterNotFound = errors.New("meter not found")

// ErrMeterBound is returned when a binding already exists for the
// meter or the account.  Bindings are one-to-one and immutable.
var ErrMeterBound = errors.New("meter already bound")

// ErrInspectionNotFound is returned for an unknown inspection id.
var ErrInspectionNotFound = errors.New("inspection not found")

// ErrTokenNotFound is returned when no declaration token matches
// the presented content hash.
var ErrTokenNotFound = errors.New("declaration token not found")

// ErrTokenUsed is returned when marking a token used that has
// already been consumed.  The used flag transitions exactly once.
var ErrTokenUsed = errors.New("declaration token already used")

// ErrCapabilityExists is returned when granting a (role, identity)
// pair that is already present in the registry.
var ErrCapabilityExists = errors.New("capability already granted")

// ErrCapabilityNotFound is returned when revoking a grant that
// does not exist.
var ErrCapabilityNotFound = errors.New("capability not found")

// ErrInspectorExists is returned when whitelisting an inspector
// that is already listed.
var ErrInspectorExists = errors.New("inspector already listed")

// ErrInspectorNotFound is returned when removing an inspector that
// is not on the whitelist.
var ErrInspectorNotFound = errors.New("inspector not listed")

// ErrEmailExists is returned by user creation when the email is
// already registered.
var ErrEmailExists = errors.New("email already exists")

// ErrIdentityExists is returned by user creation when the identity
// string is already taken.
var ErrIdentityExists = errors.New("identity already exists")

// ErrUserNotFound is returned when no user row matches.
var ErrUserNotFound = errors.New("user not found")
