package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAddInspectorAdminOnly(t *testing.T) {
	f := newFixture(t)
	err := f.scheduler.AddInspector(f.ctx, tManager, "insp-2")
	require.ErrorIs(t, err, ErrUnauthorized)

	require.NoError(t, f.scheduler.AddInspector(f.ctx, tAdmin, "insp-2"))
	require.ErrorIs(t, f.scheduler.AddInspector(f.ctx, tAdmin, "insp-2"), ErrAlreadyListed)
}

func TestRemoveInspector(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.scheduler.RemoveInspector(f.ctx, tAdmin, tInspector))
	require.ErrorIs(t, f.scheduler.RemoveInspector(f.ctx, tAdmin, tInspector), ErrNotFound)

	// A removed inspector can no longer schedule.
	require.NoError(t, f.ledger.Deposit(f.ctx, tCitizen, 100))
	_, err := f.scheduler.Schedule(f.ctx, tInspector, tCitizen)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestScheduleRequiresWhitelistedInspector(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ledger.Deposit(f.ctx, tCitizen, 100))
	_, err := f.scheduler.Schedule(f.ctx, tCitizen, tCitizen)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestScheduleMarksAccountAndRejectsSecond(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ledger.Deposit(f.ctx, tCitizen, 100))

	insp, err := f.scheduler.Schedule(f.ctx, tInspector, tCitizen)
	require.NoError(t, err)
	require.NotZero(t, insp.ID)

	a, err := f.accounts.Get(f.ctx, tCitizen)
	require.NoError(t, err)
	require.True(t, a.InspectionPending)

	_, err = f.scheduler.Schedule(f.ctx, tInspector, tCitizen)
	require.ErrorIs(t, err, ErrAlreadyScheduled)
}

func TestCompleteOnlyByOwningInspectorAndOnce(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.scheduler.AddInspector(f.ctx, tAdmin, "insp-2"))
	require.NoError(t, f.ledger.Deposit(f.ctx, tCitizen, 100))

	insp, err := f.scheduler.Schedule(f.ctx, tInspector, tCitizen)
	require.NoError(t, err)

	err = f.scheduler.Complete(f.ctx, "insp-2", insp.ID, false, 0, 0, "")
	require.ErrorIs(t, err, ErrUnauthorized)

	require.NoError(t, f.scheduler.Complete(f.ctx, tInspector, insp.ID, false, 0, 0, ""))
	err = f.scheduler.Complete(f.ctx, tInspector, insp.ID, false, 0, 0, "")
	require.ErrorIs(t, err, ErrAlreadyCompleted)
}

func TestCompleteFraudRequiresReason(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ledger.Deposit(f.ctx, tCitizen, 100))
	insp, err := f.scheduler.Schedule(f.ctx, tInspector, tCitizen)
	require.NoError(t, err)
	err = f.scheduler.Complete(f.ctx, tInspector, insp.ID, true, 100, 90, "")
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestIsDueFollowsCycle(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ledger.Deposit(f.ctx, tCitizen, 100))

	// Never inspected: due immediately.
	due, err := f.scheduler.IsDue(f.ctx, tCitizen)
	require.NoError(t, err)
	require.True(t, due)

	insp, err := f.scheduler.Schedule(f.ctx, tInspector, tCitizen)
	require.NoError(t, err)
	require.NoError(t, f.scheduler.Complete(f.ctx, tInspector, insp.ID, false, 0, 0, ""))

	due, err = f.scheduler.IsDue(f.ctx, tCitizen)
	require.NoError(t, err)
	require.False(t, due)

	f.clock.Advance(182 * 24 * time.Hour)
	due, err = f.scheduler.IsDue(f.ctx, tCitizen)
	require.NoError(t, err)
	require.False(t, due)

	f.clock.Advance(24 * time.Hour) // cycle boundary: 183 days
	due, err = f.scheduler.IsDue(f.ctx, tCitizen)
	require.NoError(t, err)
	require.True(t, due)
}
