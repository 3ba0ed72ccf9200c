package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ecocivic/civicledger/internal/model"
	"github.com/ecocivic/civicledger/internal/repository"
)

func TestReportFraudRequiresManager(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ledger.Deposit(f.ctx, tCitizen, 1000))
	err := f.fraud.ReportFraud(f.ctx, tCitizen, tCitizen, "self report")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestReportFraudSlashesHalfAndMovesUnderReview(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ledger.Deposit(f.ctx, tCitizen, 1000))

	require.NoError(t, f.fraud.ReportFraud(f.ctx, tManager, tCitizen, "anomalous pattern"))
	require.Equal(t, uint64(500), f.balance(t, tCitizen))
	require.Equal(t, uint64(500), f.balance(t, TreasuryIdentity))

	a, err := f.accounts.Get(f.ctx, tCitizen)
	require.NoError(t, err)
	require.Equal(t, model.StatusUnderReview, a.Status)
	require.False(t, a.Permanent)
}

func TestReportFraudTwiceDoesNotDoubleSlash(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ledger.Deposit(f.ctx, tCitizen, 1000))
	require.NoError(t, f.fraud.ReportFraud(f.ctx, tManager, tCitizen, "first"))

	err := f.fraud.ReportFraud(f.ctx, tManager, tCitizen, "second")
	require.ErrorIs(t, err, ErrAlreadyUnderReview)
	require.Equal(t, uint64(500), f.balance(t, tCitizen))
}

// Report then confirmed fraud: 1000 -> 500 -> 0, account suspended
// with the permanent flag, and a debt of 15 under-reported units at
// rate 10 plus 5% x 3 months interest.
func TestConfirmedFraudFullSlashAndDebt(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ledger.Deposit(f.ctx, tCitizen, 1000))
	require.NoError(t, f.fraud.ReportFraud(f.ctx, tManager, tCitizen, "anomaly"))

	insp, err := f.scheduler.Schedule(f.ctx, tInspector, tCitizen)
	require.NoError(t, err)
	require.NoError(t, f.scheduler.Complete(f.ctx, tInspector, insp.ID, true, 115, 100, "tampered meter"))

	require.Equal(t, uint64(0), f.balance(t, tCitizen))
	require.Equal(t, uint64(1000), f.balance(t, TreasuryIdentity))

	a, err := f.accounts.Get(f.ctx, tCitizen)
	require.NoError(t, err)
	require.Equal(t, model.StatusSuspended, a.Status)
	require.True(t, a.Permanent)
	require.False(t, a.InspectionPending)

	debts, err := f.fraud.Debts(f.ctx, tCitizen)
	require.NoError(t, err)
	require.Len(t, debts, 1)
	require.Equal(t, uint64(150), debts[0].Principal) // (115-100) x 10
	require.Equal(t, uint64(22), debts[0].Interest)   // 150 x 5% x 3, truncated
	require.Equal(t, uint64(172), debts[0].Total)
}

func TestClearedInspectionResetsToActive(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ledger.Deposit(f.ctx, tCitizen, 1000))
	require.NoError(t, f.fraud.ReportFraud(f.ctx, tManager, tCitizen, "anomaly"))

	insp, err := f.scheduler.Schedule(f.ctx, tInspector, tCitizen)
	require.NoError(t, err)
	require.NoError(t, f.scheduler.Complete(f.ctx, tInspector, insp.ID, false, 0, 0, ""))

	a, err := f.accounts.Get(f.ctx, tCitizen)
	require.NoError(t, err)
	require.Equal(t, model.StatusActive, a.Status)
	require.False(t, a.Permanent)
	require.Equal(t, uint64(500), f.balance(t, tCitizen)) // partial slash is not refunded
}

func TestNoDebtWhenActualDoesNotExceedReported(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ledger.Deposit(f.ctx, tCitizen, 100))
	require.NoError(t, f.fraud.ReportFraud(f.ctx, tManager, tCitizen, "anomaly"))

	insp, err := f.scheduler.Schedule(f.ctx, tInspector, tCitizen)
	require.NoError(t, err)
	require.NoError(t, f.scheduler.Complete(f.ctx, tInspector, insp.ID, true, 100, 100, "other violation"))

	debts, err := f.fraud.Debts(f.ctx, tCitizen)
	require.NoError(t, err)
	require.Empty(t, debts)
}

// A penalty against an account whose owner explicitly confirmed the
// disputed low reading carries that confirmation into the penalty
// reason, on both the automated report and the inspection outcome.
func TestPenaltyReasonCarriesConfirmedLowReading(t *testing.T) {
	f := newFixture(t)
	f.bindAndRead(t, 1000, 1100, 1200, 1300, 1400, 1500)

	_, err := f.gate.SubmitReading(f.ctx, tCitizen, tMeter, 1530, false)
	require.NoError(t, err)
	_, err = f.gate.SubmitReading(f.ctx, tCitizen, tMeter, 1530, true)
	require.NoError(t, err)

	require.NoError(t, f.ledger.Deposit(f.ctx, tCitizen, 1000))
	require.NoError(t, f.fraud.ReportFraud(f.ctx, tManager, tCitizen, "anomalous pattern"))

	ev := f.audit.last(t, "fraud.reported")
	require.Equal(t, tCitizen, ev.identity)
	require.Equal(t, "anomalous pattern (user-confirmed low reading)", ev.payload["reason"])

	insp, err := f.scheduler.Schedule(f.ctx, tInspector, tCitizen)
	require.NoError(t, err)
	require.NoError(t, f.scheduler.Complete(f.ctx, tInspector, insp.ID, true, 115, 100, "tampered meter"))

	ev = f.audit.last(t, "inspection.fraud_confirmed")
	require.Equal(t, "inspection confirmed fraud: tampered meter (user-confirmed low reading)", ev.payload["reason"])
}

// Without the confirmation marker the reason passes through as
// reported.
func TestPenaltyReasonWithoutConfirmedLowReading(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ledger.Deposit(f.ctx, tCitizen, 1000))
	require.NoError(t, f.fraud.ReportFraud(f.ctx, tManager, tCitizen, "anomalous pattern"))

	ev := f.audit.last(t, "fraud.reported")
	require.Equal(t, "anomalous pattern", ev.payload["reason"])
}

// A storage failure during the penalty transaction must leave both
// the balance and the account status untouched.
func TestReportFraudFailureLeavesAccountUntouched(t *testing.T) {
	ctx := context.Background()
	mem := repository.NewMemoryAccountStore()
	store := &failingAccountStore{AccountStore: mem, transferErr: errors.New("driver: bad connection")}
	caps := repository.NewMemoryCapabilityStore()
	locks := NewAccountLocks()
	registry := NewRegistry(caps, nil)
	ledger := NewLedger(store, locks, registry, nil)
	fraud := NewFraud(store, repository.NewMemoryDebtStore(), ledger, registry, locks, DefaultPolicy(), nil)

	require.NoError(t, registry.Seed(ctx, tAdmin))
	require.NoError(t, registry.Grant(ctx, tAdmin, "FRAUD_MANAGER", tManager))
	require.NoError(t, ledger.Deposit(ctx, tCitizen, 1000))

	require.Error(t, fraud.ReportFraud(ctx, tManager, tCitizen, "anomaly"))

	a, err := mem.Get(ctx, tCitizen)
	require.NoError(t, err)
	require.Equal(t, model.StatusActive, a.Status)
	require.Equal(t, uint64(1000), a.DepositBalance)
}

func TestReactivateIsAdminOnly(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ledger.Deposit(f.ctx, tCitizen, 100))
	require.NoError(t, f.fraud.ReportFraud(f.ctx, tManager, tCitizen, "anomaly"))
	insp, err := f.scheduler.Schedule(f.ctx, tInspector, tCitizen)
	require.NoError(t, err)
	require.NoError(t, f.scheduler.Complete(f.ctx, tInspector, insp.ID, true, 0, 0, "confirmed"))

	require.ErrorIs(t, f.fraud.Reactivate(f.ctx, tManager, tCitizen), ErrUnauthorized)
	require.NoError(t, f.fraud.Reactivate(f.ctx, tAdmin, tCitizen))

	a, err := f.accounts.Get(f.ctx, tCitizen)
	require.NoError(t, err)
	require.Equal(t, model.StatusActive, a.Status)
	require.True(t, a.Permanent) // the historical marker survives reactivation

	// Reactivating an account that is not suspended fails.
	require.ErrorIs(t, f.fraud.Reactivate(f.ctx, tAdmin, tCitizen), ErrInvalidState)
}

func TestInterestTruncatesTowardZero(t *testing.T) {
	require.Equal(t, uint64(22), Interest(150, 5, 3))
	require.Equal(t, uint64(0), Interest(0, 5, 3))
	require.Equal(t, uint64(0), Interest(10, 5, 1)) // 0.5 truncates to 0
	require.Equal(t, uint64(1), Interest(10, 5, 3)) // 1.5 truncates to 1
}
