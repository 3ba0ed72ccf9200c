package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ecocivic/civicledger/internal/model"
	"github.com/ecocivic/civicledger/internal/repository"
)

// Gate is the consumption gate: it keeps the rolling reading
// history per meter, compares each submission against the trailing
// average and parks suspiciously low readings until the citizen
// explicitly confirms them.  History is only mutated for accepted
// readings.
type Gate struct {
	accounts repository.AccountStore
	readings repository.ReadingStore
	ledger   *Ledger
	registry *Registry
	locks    *AccountLocks
	policy   Policy
	audit    Auditor
	now      func() time.Time
}

// NewGate constructs a Gate sharing the given lock table.
func NewGate(accounts repository.AccountStore, readings repository.ReadingStore,
	ledger *Ledger, registry *Registry, locks *AccountLocks, policy Policy, audit Auditor) *Gate {
	if accounts == nil || readings == nil || ledger == nil || registry == nil || locks == nil {
		panic("nil dependency passed to NewGate")
	}
	if audit == nil {
		audit = NopAuditor{}
	}
	return &Gate{
		accounts: accounts, readings: readings, ledger: ledger, registry: registry,
		locks: locks, policy: policy, audit: audit, now: time.Now,
	}
}

// BindMeter creates the immutable one-to-one binding between a
// meter and an account.  Operator capability required.
func (s *Gate) BindMeter(ctx context.Context, operator, meterNo, identity string) error {
	if err := s.registry.Require(ctx, model.RoleOperator, operator); err != nil {
		return err
	}
	if meterNo == "" || identity == "" {
		return fmt.Errorf("%w: meter and identity required", ErrInvalidInput)
	}
	if _, err := s.accounts.GetOrCreate(ctx, identity); err != nil {
		return err
	}
	err := s.readings.BindMeter(ctx, &model.MeterBinding{MeterNo: meterNo, Identity: identity, BoundBy: operator})
	if errors.Is(err, repository.ErrMeterBound) {
		return ErrMeterBound
	}
	if err != nil {
		return err
	}
	s.audit.Commit(ctx, "meter.bound", identity, map[string]any{"meter": meterNo, "by": operator})
	return nil
}

// SubmitResult is the outcome of a reading submission.
type SubmitResult struct {
	Accepted             bool   `json:"accepted"`
	RequiresConfirmation bool   `json:"requires_confirmation"`
	Consumption          uint64 `json:"consumption"`
	Reward               uint64 `json:"reward"`
}

// SubmitReading runs the gate for one self-reported value.
//
// The value must be strictly above the last accepted value for the
// meter.  When at least one prior consumption delta exists and the
// new delta falls below half the trailing average (window: last 6
// deltas) without user confirmation, the account is parked in
// PENDING_CONFIRMATION and the history is left untouched; the same
// call with userConfirmed=true accepts the reading.  Suspended
// accounts are rejected outright.
func (s *Gate) SubmitReading(ctx context.Context, identity, meterNo string, value uint64, userConfirmed bool) (SubmitResult, error) {
	var res SubmitResult
	if identity == "" || meterNo == "" {
		return res, fmt.Errorf("%w: identity and meter required", ErrInvalidInput)
	}
	b, err := s.readings.MeterBinding(ctx, meterNo)
	if errors.Is(err, repository.ErrMeterNotFound) {
		return res, fmt.Errorf("%w: meter %s", ErrNotFound, meterNo)
	}
	if err != nil {
		return res, err
	}
	if b.Identity != identity {
		return res, ErrMeterMismatch
	}

	unlock := s.locks.Lock(identity)
	defer unlock()

	a, err := s.accounts.GetOrCreate(ctx, identity)
	if err != nil {
		return res, err
	}
	if a.Status == model.StatusSuspended {
		return res, ErrUserSuspended
	}

	last, err := s.readings.LastReading(ctx, meterNo)
	if err != nil {
		return res, err
	}
	var consumption uint64
	if last != nil {
		if value <= last.Value {
			return res, ErrStaleReading
		}
		consumption = value - last.Value
	}
	res.Consumption = consumption

	avg, samples, err := s.trailingAverage(ctx, meterNo)
	if err != nil {
		return res, err
	}
	dropBreached := samples >= 1 && consumption*100 < avg*(100-s.policy.DropThresholdPercent)

	if dropBreached && !userConfirmed {
		if a.Status == model.StatusActive {
			a.Status = model.StatusPendingConfirmation
			if err := s.accounts.Update(ctx, a); err != nil {
				return res, err
			}
		}
		res.RequiresConfirmation = true
		s.audit.Commit(ctx, "reading.confirmation_required", identity, map[string]any{
			"meter": meterNo, "value": value, "consumption": consumption, "average": avg,
		})
		return res, nil
	}

	rd := &model.Reading{
		Identity:      identity,
		MeterNo:       meterNo,
		Value:         value,
		Consumption:   consumption,
		UserConfirmed: userConfirmed,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.readings.Append(ctx, rd); err != nil {
		return res, err
	}
	if a.Status == model.StatusPendingConfirmation {
		a.Status = model.StatusActive
	}
	// A knowingly confirmed low reading aggravates a later fraud
	// penalty; remember it on the account.
	a.LastLowConfirmed = dropBreached && userConfirmed
	if err := s.accounts.Update(ctx, a); err != nil {
		return res, err
	}
	res.Accepted = true

	if s.policy.ReadingRewardDenom > 0 {
		reward := consumption * s.policy.ReadingRewardNumer / s.policy.ReadingRewardDenom
		if reward > 0 {
			if err := s.ledger.mintLocked(ctx, identity, reward, "meter reading reward"); err != nil {
				return res, err
			}
			res.Reward = reward
		}
	}
	s.audit.Commit(ctx, "reading.accepted", identity, map[string]any{
		"meter": meterNo, "value": value, "consumption": consumption, "confirmed": userConfirmed,
	})
	return res, nil
}

// trailingAverage computes the mean of up to HistoryWindow prior
// consumption deltas for a meter.  A meter's bootstrap reading has
// no predecessor and contributes no delta, so it never drags the
// average down.  Returns the truncated average and the number of
// deltas it was computed over.
func (s *Gate) trailingAverage(ctx context.Context, meterNo string) (uint64, int, error) {
	recent, err := s.readings.RecentByMeter(ctx, meterNo, model.HistoryWindow+1)
	if err != nil {
		return 0, 0, err
	}
	var sum uint64
	var n int
	// recent is most recent first; a delta exists for every reading
	// that has an older neighbour in the slice.
	for i := 0; i+1 < len(recent) && n < model.HistoryWindow; i++ {
		sum += recent[i].Value - recent[i+1].Value
		n++
	}
	if n == 0 {
		return 0, 0, nil
	}
	return sum / uint64(n), n, nil
}

// History returns an account's accepted readings, most recent
// first.  Read only.
func (s *Gate) History(ctx context.Context, identity string, limit int) ([]model.Reading, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	return s.readings.History(ctx, identity, limit)
}
