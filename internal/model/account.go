package model

import "time"

// AccountStatus enumerates the billing states an account moves
// through.  The values mirror the fraud/penalty state machine:
// an account starts ACTIVE, may be parked in PENDING_CONFIRMATION
// by the consumption gate, escalates to UNDER_REVIEW on an
// automated fraud report and ends in SUSPENDED after a confirmed
// inspection finding.  SUSPENDED is terminal for billing; only an
// explicit administrative reactivation leaves it.
type AccountStatus int

const (
	StatusActive              AccountStatus = 0 // normal operation
	StatusPendingConfirmation AccountStatus = 1 // low reading awaiting user confirmation
	StatusUnderReview         AccountStatus = 2 // automated fraud report received
	StatusSuspended           AccountStatus = 3 // inspection confirmed fraud
)

// String returns the storage representation of the status.
func (s AccountStatus) String() string {
	switch s {
	case StatusActive:
		return "ACTIVE"
	case StatusPendingConfirmation:
		return "PENDING_CONFIRMATION"
	case StatusUnderReview:
		return "UNDER_REVIEW"
	case StatusSuspended:
		return "SUSPENDED"
	}
	return "UNKNOWN"
}

// ParseAccountStatus converts a stored status string back into its
// enum value.  Unknown strings map to StatusActive so that a
// corrupted row degrades to the least privileged interpretation
// visible to queries rather than a phantom suspension.
func ParseAccountStatus(s string) AccountStatus {
	switch s {
	case "PENDING_CONFIRMATION":
		return StatusPendingConfirmation
	case "UNDER_REVIEW":
		return StatusUnderReview
	case "SUSPENDED":
		return StatusSuspended
	}
	return StatusActive
}

// InitialRecyclingStrikes is the fraud allowance a fresh account
// receives for recycling declarations.  Each confirmed fraud
// decrements it; zero means a permanent ban.
const InitialRecyclingStrikes = 2

// Account is the per-citizen compliance record.  It is created on
// first interaction and never deleted, only flagged.  The deposit
// and pending-reward balances are kept in the smallest token unit
// as non-negative integers.
//
// Fields:
//  Identity          – stable citizen identifier (wallet-style string).
//  DepositBalance    – escrowed deposit, smallest unit, never negative.
//  PendingRewards    – accumulated rewards awaiting claim.
//  Status            – billing state, see AccountStatus.
//  Permanent         – set together with SUSPENDED after a full penalty.
//  RecyclingStrikes  – remaining recycling-fraud allowance (starts at 2).
//  RecyclingBanned   – permanent recycling ban once strikes hit zero.
//  InspectionPending – an inspection is scheduled and not yet completed;
//                      blocks concurrent scheduling of the same account.
//  LastLowConfirmed  – the most recent accepted reading was a user-confirmed
//                      low reading; aggravates a later fraud penalty.
//  CreatedAt         – creation timestamp.
//  UpdatedAt         – last mutation timestamp.
type Account struct {
	Identity          string        // accounts.identity
	DepositBalance    uint64        // accounts.deposit_balance
	PendingRewards    uint64        // accounts.pending_rewards
	Status            AccountStatus // accounts.status
	Permanent         bool          // accounts.permanent_flag
	RecyclingStrikes  int           // accounts.recycling_strikes
	RecyclingBanned   bool          // accounts.recycling_banned
	InspectionPending bool          // accounts.inspection_pending
	LastLowConfirmed  bool          // accounts.last_low_confirmed
	CreatedAt         time.Time     // accounts.created_at
	UpdatedAt         time.Time     // accounts.updated_at
}
