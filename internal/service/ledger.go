package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/ecocivic/civicledger/internal/model"
	"github.com/ecocivic/civicledger/internal/repository"
)

// TreasuryIdentity is the account row that receives every slashed
// amount.  It is an ordinary account so the sink survives restarts
// with the rest of the ledger.
const TreasuryIdentity = "treasury"

// Ledger holds each account's escrow balance and exposes the
// deposit, slash and withdraw primitives plus pause and emergency
// controls.  Validation fully precedes mutation in every
// operation: a failed call leaves balances untouched.
type Ledger struct {
	accounts repository.AccountStore
	locks    *AccountLocks
	registry *Registry
	audit    Auditor

	mu     sync.Mutex // guards paused
	paused bool
}

// NewLedger constructs a Ledger.  The AccountLocks instance must
// be the one shared by every service mutating account state.
func NewLedger(accounts repository.AccountStore, locks *AccountLocks, registry *Registry, audit Auditor) *Ledger {
	if accounts == nil || locks == nil || registry == nil {
		panic("nil dependency passed to NewLedger")
	}
	if audit == nil {
		audit = NopAuditor{}
	}
	return &Ledger{accounts: accounts, locks: locks, registry: registry, audit: audit}
}

// Paused reports the pause state.
func (s *Ledger) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

func (s *Ledger) requireRunning() error {
	if s.Paused() {
		return ErrLedgerPaused
	}
	return nil
}

// Pause stops all balance mutations except the emergency
// withdrawal.  Pausing an already-paused ledger fails rather than
// being silently ignored.
func (s *Ledger) Pause(ctx context.Context, actor string) error {
	if err := s.registry.Require(ctx, model.RoleAdmin, actor); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.paused {
		return ErrLedgerPaused
	}
	s.paused = true
	s.audit.Commit(ctx, "ledger.paused", actor, nil)
	return nil
}

// Unpause resumes normal operation.  Unpausing a running ledger
// fails with the matching state error.
func (s *Ledger) Unpause(ctx context.Context, actor string) error {
	if err := s.registry.Require(ctx, model.RoleAdmin, actor); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.paused {
		return ErrLedgerNotPaused
	}
	s.paused = false
	s.audit.Commit(ctx, "ledger.unpaused", actor, nil)
	return nil
}

// Deposit increases an account's escrow balance.
func (s *Ledger) Deposit(ctx context.Context, identity string, amount uint64) error {
	if identity == "" {
		return fmt.Errorf("%w: empty identity", ErrInvalidInput)
	}
	if amount == 0 {
		return fmt.Errorf("%w: deposit amount must be positive", ErrInvalidInput)
	}
	if err := s.requireRunning(); err != nil {
		return err
	}
	unlock := s.locks.Lock(identity)
	defer unlock()
	a, err := s.accounts.GetOrCreate(ctx, identity)
	if err != nil {
		return err
	}
	a.DepositBalance += amount
	if err := s.accounts.Update(ctx, a); err != nil {
		return err
	}
	s.audit.Commit(ctx, "ledger.deposit", identity, map[string]any{
		"amount": amount, "balance": a.DepositBalance,
	})
	return nil
}

// Slash moves amount from the account's escrow to the treasury
// sink.  Amounts above the current balance fail with
// InsufficientBalance and change nothing.  Callers are the
// capability-checked penalty paths; the reason string travels into
// the audit record.
func (s *Ledger) Slash(ctx context.Context, identity string, amount uint64, reason string) error {
	if identity == "" {
		return fmt.Errorf("%w: empty identity", ErrInvalidInput)
	}
	if amount == 0 {
		return fmt.Errorf("%w: slash amount must be positive", ErrInvalidInput)
	}
	if err := s.requireRunning(); err != nil {
		return err
	}
	unlock := s.locks.Lock(identity)
	defer unlock()
	return s.slashLocked(ctx, identity, amount, reason)
}

// slashLocked is Slash without taking the account lock; callers
// hold it already.
func (s *Ledger) slashLocked(ctx context.Context, identity string, amount uint64, reason string) error {
	a, err := s.accounts.Get(ctx, identity)
	if err != nil {
		return fmt.Errorf("%w: account %s", ErrNotFound, identity)
	}
	if amount > a.DepositBalance {
		return ErrInsufficientBalance
	}
	a.DepositBalance -= amount
	return s.slashAccountLocked(ctx, a, amount, reason)
}

// slashAccountLocked commits an already-debited account together
// with the treasury credit in one store transaction.  The fraud
// state machine debits the struct, applies its status transition
// and hands it here, so penalty and transition either both land or
// both roll back.  Caller holds the account lock.
func (s *Ledger) slashAccountLocked(ctx context.Context, a *model.Account, amount uint64, reason string) error {
	// Treasury is locked after the slashed account, never the other
	// way around, so the ordering cannot deadlock.
	unlockT := s.locks.Lock(TreasuryIdentity)
	defer unlockT()
	if err := s.accounts.SlashTransfer(ctx, a, TreasuryIdentity, amount); err != nil {
		return err
	}
	s.audit.Commit(ctx, "ledger.slash", a.Identity, map[string]any{
		"amount": amount, "balance": a.DepositBalance, "reason": reason,
	})
	return nil
}

// Withdraw pays out part of an account's escrow to a target.
// Privileged: admin only.
func (s *Ledger) Withdraw(ctx context.Context, actor, identity string, amount uint64, to string) error {
	if err := s.registry.Require(ctx, model.RoleAdmin, actor); err != nil {
		return err
	}
	if err := s.requireRunning(); err != nil {
		return err
	}
	return s.payOut(ctx, identity, amount, to, "ledger.withdraw")
}

// EmergencyWithdraw is the escape hatch: it is only callable while
// the ledger is paused.
func (s *Ledger) EmergencyWithdraw(ctx context.Context, actor, identity string, amount uint64, to string) error {
	if err := s.registry.Require(ctx, model.RoleAdmin, actor); err != nil {
		return err
	}
	if !s.Paused() {
		return ErrLedgerNotPaused
	}
	return s.payOut(ctx, identity, amount, to, "ledger.emergency_withdraw")
}

func (s *Ledger) payOut(ctx context.Context, identity string, amount uint64, to, event string) error {
	if amount == 0 {
		return fmt.Errorf("%w: withdraw amount must be positive", ErrInvalidInput)
	}
	if to == "" {
		return fmt.Errorf("%w: empty withdrawal target", ErrInvalidInput)
	}
	unlock := s.locks.Lock(identity)
	defer unlock()
	a, err := s.accounts.Get(ctx, identity)
	if err != nil {
		return fmt.Errorf("%w: account %s", ErrNotFound, identity)
	}
	if amount > a.DepositBalance {
		return ErrInsufficientBalance
	}
	a.DepositBalance -= amount
	if err := s.accounts.Update(ctx, a); err != nil {
		return err
	}
	s.audit.Commit(ctx, event, identity, map[string]any{
		"amount": amount, "to": to, "balance": a.DepositBalance,
	})
	return nil
}

// MintReward credits an account's pending-reward balance.  Rewards
// accumulate and are paid out by ClaimRewards.
func (s *Ledger) MintReward(ctx context.Context, identity string, amount uint64, reason string) error {
	if amount == 0 {
		return nil
	}
	if err := s.requireRunning(); err != nil {
		return err
	}
	unlock := s.locks.Lock(identity)
	defer unlock()
	return s.mintLocked(ctx, identity, amount, reason)
}

// mintLocked is MintReward with the account lock already held.
func (s *Ledger) mintLocked(ctx context.Context, identity string, amount uint64, reason string) error {
	if amount == 0 {
		return nil
	}
	a, err := s.accounts.GetOrCreate(ctx, identity)
	if err != nil {
		return err
	}
	a.PendingRewards += amount
	if err := s.accounts.Update(ctx, a); err != nil {
		return err
	}
	s.audit.Commit(ctx, "ledger.reward_minted", identity, map[string]any{
		"amount": amount, "pending": a.PendingRewards, "reason": reason,
	})
	return nil
}

// ClaimRewards moves the whole pending-reward balance into the
// deposit escrow and returns the claimed amount.
func (s *Ledger) ClaimRewards(ctx context.Context, identity string) (uint64, error) {
	if err := s.requireRunning(); err != nil {
		return 0, err
	}
	unlock := s.locks.Lock(identity)
	defer unlock()
	a, err := s.accounts.Get(ctx, identity)
	if err != nil {
		return 0, fmt.Errorf("%w: account %s", ErrNotFound, identity)
	}
	if a.PendingRewards == 0 {
		return 0, fmt.Errorf("%w: nothing to claim", ErrInvalidState)
	}
	claimed := a.PendingRewards
	a.PendingRewards = 0
	a.DepositBalance += claimed
	if err := s.accounts.Update(ctx, a); err != nil {
		return 0, err
	}
	s.audit.Commit(ctx, "ledger.rewards_claimed", identity, map[string]any{"amount": claimed})
	return claimed, nil
}

// Balance returns the escrow balance for an account.
func (s *Ledger) Balance(ctx context.Context, identity string) (uint64, error) {
	a, err := s.accounts.Get(ctx, identity)
	if err != nil {
		return 0, fmt.Errorf("%w: account %s", ErrNotFound, identity)
	}
	return a.DepositBalance, nil
}
