package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ecocivic/civicledger/internal/model"
)

func TestBindMeterRequiresOperator(t *testing.T) {
	f := newFixture(t)
	err := f.gate.BindMeter(f.ctx, tCitizen, tMeter, tCitizen)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestBindMeterIsOneToOne(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.gate.BindMeter(f.ctx, tOperator, tMeter, tCitizen))
	err := f.gate.BindMeter(f.ctx, tOperator, tMeter, "citizen-2")
	require.ErrorIs(t, err, ErrMeterBound)
}

func TestSubmitReadingUnknownMeter(t *testing.T) {
	f := newFixture(t)
	_, err := f.gate.SubmitReading(f.ctx, tCitizen, "MTR-404", 100, false)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSubmitReadingWrongAccount(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.gate.BindMeter(f.ctx, tOperator, tMeter, tCitizen))
	_, err := f.gate.SubmitReading(f.ctx, "citizen-2", tMeter, 100, false)
	require.ErrorIs(t, err, ErrMeterMismatch)
}

func TestBootstrapReadingHasNoConsumption(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.gate.BindMeter(f.ctx, tOperator, tMeter, tCitizen))
	res, err := f.gate.SubmitReading(f.ctx, tCitizen, tMeter, 1000, false)
	require.NoError(t, err)
	require.True(t, res.Accepted)
	require.Equal(t, uint64(0), res.Consumption)
	require.Equal(t, uint64(0), res.Reward)
}

func TestStaleReadingRejected(t *testing.T) {
	f := newFixture(t)
	f.bindAndRead(t, 1000, 1100)
	_, err := f.gate.SubmitReading(f.ctx, tCitizen, tMeter, 1100, false)
	require.ErrorIs(t, err, ErrStaleReading)
	_, err = f.gate.SubmitReading(f.ctx, tCitizen, tMeter, 1050, false)
	require.ErrorIs(t, err, ErrStaleReading)
}

func TestReadingRewardIsTenPercentOfConsumption(t *testing.T) {
	f := newFixture(t)
	f.bindAndRead(t, 1000)
	res, err := f.gate.SubmitReading(f.ctx, tCitizen, tMeter, 1105, false)
	require.NoError(t, err)
	require.True(t, res.Accepted)
	require.Equal(t, uint64(105), res.Consumption)
	require.Equal(t, uint64(10), res.Reward) // 105/10 truncated

	claimed, err := f.ledger.ClaimRewards(f.ctx, tCitizen)
	require.NoError(t, err)
	require.Equal(t, uint64(10), claimed)
}

// A consumption of 30 against a trailing average of 100 is a 70%
// drop: the reading is parked, the account moves to
// PENDING_CONFIRMATION and the history stays untouched until the
// citizen resubmits with confirmation.
func TestLowReadingParkedUntilConfirmed(t *testing.T) {
	f := newFixture(t)
	f.bindAndRead(t, 1000, 1100, 1200, 1300, 1400, 1500)

	res, err := f.gate.SubmitReading(f.ctx, tCitizen, tMeter, 1530, false)
	require.NoError(t, err)
	require.False(t, res.Accepted)
	require.True(t, res.RequiresConfirmation)
	require.Equal(t, uint64(30), res.Consumption)

	a, err := f.accounts.Get(f.ctx, tCitizen)
	require.NoError(t, err)
	require.Equal(t, model.StatusPendingConfirmation, a.Status)

	// Nothing was recorded: the last accepted reading is still 1500.
	last, err := f.readings.LastReading(f.ctx, tMeter)
	require.NoError(t, err)
	require.Equal(t, uint64(1500), last.Value)

	// Same value, confirmed: accepted, account back to active, and
	// the confirmation is remembered as an aggravating marker.
	res, err = f.gate.SubmitReading(f.ctx, tCitizen, tMeter, 1530, true)
	require.NoError(t, err)
	require.True(t, res.Accepted)

	a, err = f.accounts.Get(f.ctx, tCitizen)
	require.NoError(t, err)
	require.Equal(t, model.StatusActive, a.Status)
	require.True(t, a.LastLowConfirmed)
}

func TestNormalReadingClearsLowConfirmedMarker(t *testing.T) {
	f := newFixture(t)
	f.bindAndRead(t, 1000, 1100, 1200, 1300, 1400, 1500)

	_, err := f.gate.SubmitReading(f.ctx, tCitizen, tMeter, 1530, true)
	require.NoError(t, err)

	res, err := f.gate.SubmitReading(f.ctx, tCitizen, tMeter, 1630, false)
	require.NoError(t, err)
	require.True(t, res.Accepted)

	a, err := f.accounts.Get(f.ctx, tCitizen)
	require.NoError(t, err)
	require.False(t, a.LastLowConfirmed)
}

func TestSuspendedAccountCannotSubmit(t *testing.T) {
	f := newFixture(t)
	f.bindAndRead(t, 1000)
	a, err := f.accounts.Get(f.ctx, tCitizen)
	require.NoError(t, err)
	a.Status = model.StatusSuspended
	require.NoError(t, f.accounts.Update(f.ctx, a))

	_, err = f.gate.SubmitReading(f.ctx, tCitizen, tMeter, 1100, false)
	require.ErrorIs(t, err, ErrUserSuspended)
}

func TestHistoryIsNewestFirst(t *testing.T) {
	f := newFixture(t)
	f.bindAndRead(t, 1000, 1100, 1250)

	hist, err := f.gate.History(f.ctx, tCitizen, 10)
	require.NoError(t, err)
	require.Len(t, hist, 3)
	require.Equal(t, uint64(1250), hist[0].Value)
	require.Equal(t, uint64(150), hist[0].Consumption)
	require.Equal(t, uint64(1000), hist[2].Value)
}
