package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ecocivic/civicledger/internal/model"
	"github.com/ecocivic/civicledger/internal/repository"
)

// Inspections schedules periodic physical meter inspections and
// routes their outcomes into the fraud state machine.  Inspectors
// are whitelisted by an administrator; scheduling follows a fixed
// cycle per account and an account can hold at most one open
// inspection at a time.
type Inspections struct {
	accounts    repository.AccountStore
	inspections repository.InspectionStore
	caps        repository.CapabilityStore
	fraud       *Fraud
	registry    *Registry
	locks       *AccountLocks
	policy      Policy
	audit       Auditor
	now         func() time.Time
}

// NewInspections constructs the scheduler.  now is injectable for
// deterministic cycle tests; pass nil for the wall clock.
func NewInspections(accounts repository.AccountStore, inspections repository.InspectionStore,
	caps repository.CapabilityStore, fraud *Fraud, registry *Registry,
	locks *AccountLocks, policy Policy, audit Auditor, now func() time.Time) *Inspections {
	if accounts == nil || inspections == nil || caps == nil || fraud == nil || registry == nil || locks == nil {
		panic("nil dependency passed to NewInspections")
	}
	if audit == nil {
		audit = NopAuditor{}
	}
	if now == nil {
		now = time.Now
	}
	return &Inspections{
		accounts: accounts, inspections: inspections, caps: caps,
		fraud: fraud, registry: registry, locks: locks,
		policy: policy, audit: audit, now: now,
	}
}

// AddInspector whitelists an inspector and grants the matching
// capability in one step.  Admin only.
func (s *Inspections) AddInspector(ctx context.Context, actor, identity string) error {
	if err := s.registry.Require(ctx, model.RoleAdmin, actor); err != nil {
		return err
	}
	if identity == "" {
		return fmt.Errorf("%w: empty inspector identity", ErrInvalidInput)
	}
	err := s.caps.AddInspector(ctx, &model.Inspector{Identity: identity, AddedBy: actor})
	if err == repository.ErrInspectorExists {
		return ErrAlreadyListed
	}
	if err != nil {
		return err
	}
	s.audit.Commit(ctx, "inspector.added", identity, map[string]any{"by": actor})
	return nil
}

// RemoveInspector drops the whitelist entry and the capability.
// Admin only.
func (s *Inspections) RemoveInspector(ctx context.Context, actor, identity string) error {
	if err := s.registry.Require(ctx, model.RoleAdmin, actor); err != nil {
		return err
	}
	err := s.caps.RemoveInspector(ctx, identity)
	if err == repository.ErrInspectorNotFound {
		return fmt.Errorf("%w: inspector %s", ErrNotFound, identity)
	}
	if err != nil {
		return err
	}
	s.audit.Commit(ctx, "inspector.removed", identity, map[string]any{"by": actor})
	return nil
}

// IsDue reports whether an account's inspection cycle has elapsed.
// An account never inspected is due immediately.
func (s *Inspections) IsDue(ctx context.Context, identity string) (bool, error) {
	last, err := s.inspections.LastCompletedAt(ctx, identity)
	if err != nil {
		return false, err
	}
	if last == nil {
		return true, nil
	}
	return s.now().Sub(*last) >= s.policy.InspectionCycle, nil
}

// Schedule opens an inspection for an account and marks the account
// as awaiting it.  Caller must be a whitelisted inspector.  An
// account with an open inspection cannot receive a second one.
func (s *Inspections) Schedule(ctx context.Context, inspector, identity string) (*model.Inspection, error) {
	ok, err := s.caps.IsInspector(ctx, inspector)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a whitelisted inspector", ErrUnauthorized, inspector)
	}
	unlock := s.locks.Lock(identity)
	defer unlock()

	a, err := s.accounts.Get(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("%w: account %s", ErrNotFound, identity)
	}
	if a.InspectionPending {
		return nil, ErrAlreadyScheduled
	}
	insp := &model.Inspection{
		Identity:    identity,
		Inspector:   inspector,
		ScheduledAt: s.now(),
	}
	if err := s.inspections.Create(ctx, insp); err != nil {
		return nil, err
	}
	a.InspectionPending = true
	if err := s.accounts.Update(ctx, a); err != nil {
		return nil, err
	}
	s.audit.Commit(ctx, "inspection.scheduled", identity, map[string]any{
		"inspection_id": insp.ID, "inspector": inspector,
	})
	return insp, nil
}

// Complete records the on-site outcome of an open inspection and
// feeds it into the penalty state machine.  Only the inspector who
// scheduled it may complete it, and only once.
func (s *Inspections) Complete(ctx context.Context, inspector string, inspectionID uint64, fraudFound bool, actual, reported uint64, reason string) error {
	insp, err := s.inspections.Get(ctx, inspectionID)
	if err != nil {
		if err == repository.ErrInspectionNotFound {
			return fmt.Errorf("%w: inspection %d", ErrNotFound, inspectionID)
		}
		return err
	}
	if insp.Inspector != inspector {
		return fmt.Errorf("%w: inspection %d belongs to another inspector", ErrUnauthorized, inspectionID)
	}
	if insp.Completed {
		return ErrAlreadyCompleted
	}
	if fraudFound && reason == "" {
		return fmt.Errorf("%w: fraud finding requires a reason", ErrInvalidInput)
	}

	unlock := s.locks.Lock(insp.Identity)
	defer unlock()

	insp.Completed = true
	insp.FraudFound = fraudFound
	insp.ActualReading = actual
	insp.ReportedReading = reported
	insp.Reason = reason
	at := s.now()
	insp.CompletedAt = &at
	if err := s.inspections.Complete(ctx, insp); err != nil {
		if err == repository.ErrInspectionNotFound {
			return ErrAlreadyCompleted
		}
		return err
	}
	return s.fraud.inspectionResultLocked(ctx, insp.Identity, fraudFound, actual, reported, reason)
}

// Get returns a single inspection record.
func (s *Inspections) Get(ctx context.Context, id uint64) (*model.Inspection, error) {
	insp, err := s.inspections.Get(ctx, id)
	if err == repository.ErrInspectionNotFound {
		return nil, fmt.Errorf("%w: inspection %d", ErrNotFound, id)
	}
	return insp, err
}
