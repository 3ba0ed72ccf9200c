package repository

import (
	"context"
	"time"

	"github.com/ecocivic/civicledger/internal/model"
)

// AccountStore defines account data access.  Accounts are created
// on first interaction and never deleted; Update persists every
// mutable field of the row in one statement so that a service can
// validate, mutate the struct and write it back atomically under
// its per-account lock.
type AccountStore interface {
	// Get returns the account for an identity or ErrAccountNotFound.
	Get(ctx context.Context, identity string) (*model.Account, error)

	// GetOrCreate returns the account, creating a fresh ACTIVE row
	// with the initial strike allowance when none exists yet.
	GetOrCreate(ctx context.Context, identity string) (*model.Account, error)

	// Update persists all mutable account fields.
	Update(ctx context.Context, a *model.Account) error

	// SlashTransfer commits a penalty in one transaction: it
	// persists every mutable field of the already-debited account
	// (balance, status, flags) and credits amount to the sink
	// account, creating the sink row when missing.  Either both
	// rows change or neither does.
	SlashTransfer(ctx context.Context, from *model.Account, sink string, amount uint64) error
}

// ReadingStore defines meter binding and reading-history access.
// Readings are append only.
type ReadingStore interface {
	// BindMeter creates the one-to-one meter binding.  It fails with
	// ErrMeterBound when either side is already bound.
	BindMeter(ctx context.Context, b *model.MeterBinding) error

	// MeterBinding resolves a meter number to its binding or
	// ErrMeterNotFound.
	MeterBinding(ctx context.Context, meterNo string) (*model.MeterBinding, error)

	// LastReading returns the most recent accepted reading for a
	// meter, or nil when the meter has no history yet.
	LastReading(ctx context.Context, meterNo string) (*model.Reading, error)

	// RecentByMeter returns up to limit trailing accepted readings
	// for a meter, most recent first.  The gate derives consumption
	// deltas from consecutive values, so the bootstrap reading of a
	// meter never contributes a delta of its own.
	RecentByMeter(ctx context.Context, meterNo string, limit int) ([]model.Reading, error)

	// Append stores a new accepted reading and fills in its ID.
	Append(ctx context.Context, r *model.Reading) error

	// History lists accepted readings for an account, most recent
	// first, capped at limit.
	History(ctx context.Context, identity string, limit int) ([]model.Reading, error)
}

// InspectionStore defines inspection lifecycle access.  A record
// is mutated exactly once, on completion.
type InspectionStore interface {
	// Create stores a scheduled inspection and fills in its
	// auto-increment ID.
	Create(ctx context.Context, ins *model.Inspection) error

	// Get returns an inspection or ErrInspectionNotFound.
	Get(ctx context.Context, id uint64) (*model.Inspection, error)

	// Complete writes the completion fields to a not-yet-completed
	// record.  Completing twice is the caller's InvalidState; the
	// store only guarantees the row exists.
	Complete(ctx context.Context, ins *model.Inspection) error

	// LastCompletedAt returns the completion time of the most
	// recent completed inspection for an account, or nil when the
	// account was never inspected.
	LastCompletedAt(ctx context.Context, identity string) (*time.Time, error)
}

// TokenStore defines declaration-token access.  The content hash
// is the replay key; MarkUsed must consume it at most once.
type TokenStore interface {
	// Create stores a freshly issued token.
	Create(ctx context.Context, t *model.DeclarationToken) error

	// GetByHash returns the token for a content hash or
	// ErrTokenNotFound.
	GetByHash(ctx context.Context, hash string) (*model.DeclarationToken, error)

	// MarkUsed flips the used flag and records the decision.  It
	// fails with ErrTokenUsed when the token was already consumed,
	// even under concurrent redeems of the same hash.
	MarkUsed(ctx context.Context, hash, decision, decidedBy string) error
}

// DebtStore appends retroactive debt records.
type DebtStore interface {
	// Create stores a new debt record and fills in its ID.
	Create(ctx context.Context, d *model.DebtRecord) error

	// ListByAccount returns an account's debt records, most recent
	// first.
	ListByAccount(ctx context.Context, identity string) ([]model.DebtRecord, error)
}

// CapabilityStore defines role-grant and inspector-whitelist
// access.  AddInspector and RemoveInspector mutate the whitelist
// row and the INSPECTOR capability together so the two never
// diverge.
type CapabilityStore interface {
	// Grant records a (role, identity) pair or fails with
	// ErrCapabilityExists.
	Grant(ctx context.Context, cap *model.Capability) error

	// Revoke removes a grant or fails with ErrCapabilityNotFound.
	Revoke(ctx context.Context, role, identity string) error

	// Has reports whether the grant exists.
	Has(ctx context.Context, role, identity string) (bool, error)

	// AddInspector whitelists an inspector and grants the
	// INSPECTOR capability atomically; ErrInspectorExists when
	// already listed.
	AddInspector(ctx context.Context, ins *model.Inspector) error

	// RemoveInspector removes the whitelist row and revokes the
	// capability atomically; ErrInspectorNotFound when absent.
	RemoveInspector(ctx context.Context, identity string) error

	// IsInspector reports whether the identity is whitelisted.
	IsInspector(ctx context.Context, identity string) (bool, error)
}

// UserStore defines login credential access for the HTTP surface.
type UserStore interface {
	// Create registers a user and returns the new row ID.  It
	// fails with ErrEmailExists or ErrIdentityExists on duplicates.
	Create(ctx context.Context, u *model.User) (uint64, error)

	// ByEmail returns the user for an email or ErrUserNotFound.
	ByEmail(ctx context.Context, email string) (*model.User, error)
}
