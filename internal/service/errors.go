// Package service implements the compliance core: the deposit
// ledger, the consumption gate, the fraud/penalty state machine,
// the inspection scheduler, the recycling declaration pipeline and
// the capability registry that guards all of them.
package service

import (
	"errors"
	"fmt"
)

// Category sentinels.  Every failure a service returns wraps one
// of these four, so handlers can map to HTTP codes with errors.Is
// while still distinguishing the specific cause.  No operation is
// retried by the core; retry policy belongs to the caller.
var (
	// ErrUnauthorized means the caller lacks the required capability.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidInput covers zero or negative amounts, empty
	// identities and out-of-range material quantities.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidState covers operations that conflict with the
	// current state; these are terminal and never auto-corrected.
	ErrInvalidState = errors.New("invalid state")

	// ErrNotFound covers unknown accounts, meters, inspections and
	// token hashes.
	ErrNotFound = errors.New("not found")
)

// Specific failures, each wrapping its category so both
// errors.Is(err, ErrInsufficientBalance) and
// errors.Is(err, ErrInvalidState) hold.
var (
	// ErrInsufficientBalance: a slash or withdraw exceeded the
	// current balance.  Never clamped; clamping would hide
	// under-collateralization.
	ErrInsufficientBalance = fmt.Errorf("%w: insufficient balance", ErrInvalidState)

	// ErrLedgerPaused: ledger mutation attempted while paused.
	ErrLedgerPaused = fmt.Errorf("%w: ledger paused", ErrInvalidState)

	// ErrLedgerNotPaused: pause-state transition or emergency
	// withdrawal attempted in the wrong state.
	ErrLedgerNotPaused = fmt.Errorf("%w: ledger not paused", ErrInvalidState)

	// ErrStaleReading: submitted value not above the last accepted
	// value for the meter.
	ErrStaleReading = fmt.Errorf("%w: stale reading", ErrInvalidState)

	// ErrUserSuspended: a suspended account attempted a reading.
	ErrUserSuspended = fmt.Errorf("%w: account suspended", ErrInvalidState)

	// ErrAlreadyUnderReview: a fraud report against an account that
	// is already under review; refusing prevents a double slash.
	ErrAlreadyUnderReview = fmt.Errorf("%w: already under review", ErrInvalidState)

	// ErrExpiredToken: declaration token presented after expiry.
	ErrExpiredToken = fmt.Errorf("%w: token expired", ErrInvalidState)

	// ErrReplayedToken: declaration token hash already consumed.
	ErrReplayedToken = fmt.Errorf("%w: token already redeemed", ErrInvalidState)

	// ErrRecyclingBanned: a permanently banned account requested a
	// declaration token.
	ErrRecyclingBanned = fmt.Errorf("%w: recycling ban in effect", ErrInvalidState)

	// ErrAlreadyListed: inspector whitelisted twice.
	ErrAlreadyListed = fmt.Errorf("%w: already listed", ErrInvalidState)

	// ErrAlreadyScheduled: account already has an open inspection.
	ErrAlreadyScheduled = fmt.Errorf("%w: inspection already scheduled", ErrInvalidState)

	// ErrAlreadyCompleted: inspection completed twice.
	ErrAlreadyCompleted = fmt.Errorf("%w: inspection already completed", ErrInvalidState)

	// ErrMeterBound: meter or account already has a binding.
	ErrMeterBound = fmt.Errorf("%w: meter already bound", ErrInvalidState)

	// ErrMeterMismatch: reading submitted against a meter bound to
	// a different account.
	ErrMeterMismatch = fmt.Errorf("%w: meter bound to another account", ErrInvalidInput)
)
