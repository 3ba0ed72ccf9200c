package service

import (
	"context"
	"fmt"

	"github.com/ecocivic/civicledger/internal/model"
	"github.com/ecocivic/civicledger/internal/repository"
)

// Fraud is the penalty state machine.  It owns account status,
// receives automated anomaly reports and physical inspection
// outcomes, applies partial and full penalties through the ledger
// and books retroactive debt with interest.  Penalties are applied
// exactly once and are irreversible once finalized.
type Fraud struct {
	accounts repository.AccountStore
	debts    repository.DebtStore
	ledger   *Ledger
	registry *Registry
	locks    *AccountLocks
	policy   Policy
	audit    Auditor
}

// NewFraud constructs the penalty state machine.
func NewFraud(accounts repository.AccountStore, debts repository.DebtStore,
	ledger *Ledger, registry *Registry, locks *AccountLocks, policy Policy, audit Auditor) *Fraud {
	if accounts == nil || debts == nil || ledger == nil || registry == nil || locks == nil {
		panic("nil dependency passed to NewFraud")
	}
	if audit == nil {
		audit = NopAuditor{}
	}
	return &Fraud{
		accounts: accounts, debts: debts, ledger: ledger, registry: registry,
		locks: locks, policy: policy, audit: audit,
	}
}

// ReportFraud ingests an automated anomaly signal against an
// account.  Caller must hold the fraud-manager capability.
//
// Transition: Active/PendingConfirmation -> UnderReview, with a
// partial penalty of PartialSlashPercent of the current balance.
// A report against an account already under review fails with
// InvalidState instead of slashing twice.
func (s *Fraud) ReportFraud(ctx context.Context, reporter, identity, reason string) error {
	if err := s.registry.Require(ctx, model.RoleFraudManager, reporter); err != nil {
		return err
	}
	if identity == "" {
		return fmt.Errorf("%w: empty identity", ErrInvalidInput)
	}
	if reason == "" {
		return fmt.Errorf("%w: empty reason", ErrInvalidInput)
	}
	unlock := s.locks.Lock(identity)
	defer unlock()

	a, err := s.accounts.Get(ctx, identity)
	if err != nil {
		return fmt.Errorf("%w: account %s", ErrNotFound, identity)
	}
	switch a.Status {
	case model.StatusUnderReview:
		return ErrAlreadyUnderReview
	case model.StatusSuspended:
		return ErrUserSuspended
	}

	fullReason := reason
	if a.LastLowConfirmed {
		// The citizen explicitly accepted the low reading that is
		// now disputed; carry that into the penalty record.
		fullReason += " (user-confirmed low reading)"
	}
	penalty := a.DepositBalance * s.policy.PartialSlashPercent / 100
	a.Status = model.StatusUnderReview
	if penalty > 0 {
		a.DepositBalance -= penalty
		// Debit and status transition commit in one transaction.
		if err := s.ledger.slashAccountLocked(ctx, a, penalty, fullReason); err != nil {
			return err
		}
	} else if err := s.accounts.Update(ctx, a); err != nil {
		return err
	}
	s.audit.Commit(ctx, "fraud.reported", identity, map[string]any{
		"penalty": penalty, "reason": fullReason, "by": reporter,
	})
	return nil
}

// InspectionResult finalizes a physical inspection against the
// state machine.  It is invoked by the inspection scheduler after
// its own capability checks, with the readings the inspector
// recorded on site.
//
// fraudFound=true: full penalty (entire remaining balance), the
// permanent flag, SUSPENDED status, and — when the actual reading
// exceeds what was self-reported — a retroactive debt record of
// (actual − reported) × unit rate plus monthly interest.
// fraudFound=false: status resets to ACTIVE with no penalty.
func (s *Fraud) InspectionResult(ctx context.Context, identity string, fraudFound bool, actual, reported uint64, reason string) error {
	unlock := s.locks.Lock(identity)
	defer unlock()
	return s.inspectionResultLocked(ctx, identity, fraudFound, actual, reported, reason)
}

// inspectionResultLocked applies the transition with the account
// lock already held (the scheduler holds it across the inspection
// completion so the record and the transition commit together).
func (s *Fraud) inspectionResultLocked(ctx context.Context, identity string, fraudFound bool, actual, reported uint64, reason string) error {
	a, err := s.accounts.Get(ctx, identity)
	if err != nil {
		return fmt.Errorf("%w: account %s", ErrNotFound, identity)
	}

	a.InspectionPending = false

	if !fraudFound {
		a.Status = model.StatusActive
		a.LastLowConfirmed = false
		if err := s.accounts.Update(ctx, a); err != nil {
			return err
		}
		s.audit.Commit(ctx, "inspection.cleared", identity, map[string]any{"reason": reason})
		return nil
	}

	fullReason := "inspection confirmed fraud: " + reason
	if a.LastLowConfirmed {
		fullReason += " (user-confirmed low reading)"
	}
	penalty := a.DepositBalance
	a.DepositBalance = 0
	a.Status = model.StatusSuspended
	a.Permanent = true
	if penalty > 0 {
		// Full penalty, suspension and the permanent flag commit in
		// one transaction.
		if err := s.ledger.slashAccountLocked(ctx, a, penalty, fullReason); err != nil {
			return err
		}
	} else if err := s.accounts.Update(ctx, a); err != nil {
		return err
	}

	var debt *model.DebtRecord
	if actual > reported {
		principal := (actual - reported) * s.policy.UnitRate
		interest := Interest(principal, s.policy.InterestRatePercent, s.policy.MonthsLate)
		debt = &model.DebtRecord{
			Identity:  identity,
			Principal: principal,
			Interest:  interest,
			Total:     principal + interest,
		}
		if err := s.debts.Create(ctx, debt); err != nil {
			return err
		}
	}

	payload := map[string]any{"reason": fullReason, "actual": actual, "reported": reported}
	if debt != nil {
		payload["debt_principal"] = debt.Principal
		payload["debt_interest"] = debt.Interest
	}
	s.audit.Commit(ctx, "inspection.fraud_confirmed", identity, payload)
	return nil
}

// Reactivate returns a suspended account to ACTIVE.  This is an
// explicit administrative action, never an automatic transition;
// the permanent flag stays set as the historical marker of the
// confirmed finding.
func (s *Fraud) Reactivate(ctx context.Context, actor, identity string) error {
	if err := s.registry.Require(ctx, model.RoleAdmin, actor); err != nil {
		return err
	}
	unlock := s.locks.Lock(identity)
	defer unlock()
	a, err := s.accounts.Get(ctx, identity)
	if err != nil {
		return fmt.Errorf("%w: account %s", ErrNotFound, identity)
	}
	if a.Status != model.StatusSuspended {
		return fmt.Errorf("%w: account not suspended", ErrInvalidState)
	}
	a.Status = model.StatusActive
	a.LastLowConfirmed = false
	if err := s.accounts.Update(ctx, a); err != nil {
		return err
	}
	s.audit.Commit(ctx, "account.reactivated", identity, map[string]any{"by": actor})
	return nil
}

// Debts returns an account's retroactive debt records, most recent
// first.  Read only.
func (s *Fraud) Debts(ctx context.Context, identity string) ([]model.DebtRecord, error) {
	return s.debts.ListByAccount(ctx, identity)
}
