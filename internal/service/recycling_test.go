package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ecocivic/civicledger/internal/model"
)

func TestIssueTokenRejectsEmptyDeclaration(t *testing.T) {
	f := newFixture(t)
	_, err := f.recycling.IssueToken(f.ctx, tCitizen, model.MaterialQuantities{})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestIssueTokenEnforcesCaps(t *testing.T) {
	f := newFixture(t)
	_, err := f.recycling.IssueToken(f.ctx, tCitizen, model.MaterialQuantities{Plastic: 101})
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.recycling.IssueToken(f.ctx, tCitizen, model.MaterialQuantities{Electronic: 21})
	require.ErrorIs(t, err, ErrInvalidInput)

	// Boundary values pass.
	_, err = f.recycling.IssueToken(f.ctx, tCitizen, model.MaterialQuantities{Plastic: 100, Electronic: 20})
	require.NoError(t, err)
}

func TestIssueTokenComputesReward(t *testing.T) {
	f := newFixture(t)
	tok, err := f.recycling.IssueToken(f.ctx, tCitizen, model.MaterialQuantities{
		Plastic: 2, Glass: 5, Electronic: 1,
	})
	require.NoError(t, err)
	require.Equal(t, uint64(2*10+5*12+1*25), tok.Reward)
	require.NotEmpty(t, tok.TokenID)
	require.NotEmpty(t, tok.Hash)
	require.Equal(t, f.clock.Now().Add(3*time.Hour), tok.ExpiresAt)
}

func TestRedeemRequiresStaff(t *testing.T) {
	f := newFixture(t)
	tok, err := f.recycling.IssueToken(f.ctx, tCitizen, model.MaterialQuantities{Glass: 5})
	require.NoError(t, err)
	_, err = f.recycling.Redeem(f.ctx, tCitizen, tok.Hash, true)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestApproveCreditsReward(t *testing.T) {
	f := newFixture(t)
	tok, err := f.recycling.IssueToken(f.ctx, tCitizen, model.MaterialQuantities{Glass: 5})
	require.NoError(t, err)

	res, err := f.recycling.Redeem(f.ctx, tStaff, tok.Hash, true)
	require.NoError(t, err)
	require.True(t, res.Approved)
	require.Equal(t, uint64(60), res.Reward) // 5 kg glass x 12

	claimed, err := f.ledger.ClaimRewards(f.ctx, tCitizen)
	require.NoError(t, err)
	require.Equal(t, uint64(60), claimed)
}

func TestRedeemReplayRejected(t *testing.T) {
	f := newFixture(t)
	tok, err := f.recycling.IssueToken(f.ctx, tCitizen, model.MaterialQuantities{Paper: 3})
	require.NoError(t, err)

	_, err = f.recycling.Redeem(f.ctx, tStaff, tok.Hash, true)
	require.NoError(t, err)
	_, err = f.recycling.Redeem(f.ctx, tStaff, tok.Hash, true)
	require.ErrorIs(t, err, ErrReplayedToken)
}

func TestRedeemExpiredToken(t *testing.T) {
	f := newFixture(t)
	tok, err := f.recycling.IssueToken(f.ctx, tCitizen, model.MaterialQuantities{Paper: 3})
	require.NoError(t, err)

	f.clock.Advance(3*time.Hour + time.Second)
	_, err = f.recycling.Redeem(f.ctx, tStaff, tok.Hash, true)
	require.ErrorIs(t, err, ErrExpiredToken)
}

// A token that was redeemed and later expired reports the replay,
// not the expiry: the used check runs first.
func TestReplayReportedBeforeExpiry(t *testing.T) {
	f := newFixture(t)
	tok, err := f.recycling.IssueToken(f.ctx, tCitizen, model.MaterialQuantities{Paper: 3})
	require.NoError(t, err)

	_, err = f.recycling.Redeem(f.ctx, tStaff, tok.Hash, true)
	require.NoError(t, err)

	f.clock.Advance(4 * time.Hour)
	_, err = f.recycling.Redeem(f.ctx, tStaff, tok.Hash, true)
	require.ErrorIs(t, err, ErrReplayedToken)
}

func TestFraudDecisionBurnsStrikesThenBans(t *testing.T) {
	f := newFixture(t)

	tok, err := f.recycling.IssueToken(f.ctx, tCitizen, model.MaterialQuantities{Metal: 1})
	require.NoError(t, err)
	res, err := f.recycling.Redeem(f.ctx, tStaff, tok.Hash, false)
	require.NoError(t, err)
	require.False(t, res.Approved)
	require.Equal(t, uint64(0), res.Reward)
	require.Equal(t, 1, res.StrikesLeft)
	require.False(t, res.RecyclingBanned)

	tok, err = f.recycling.IssueToken(f.ctx, tCitizen, model.MaterialQuantities{Metal: 1})
	require.NoError(t, err)
	res, err = f.recycling.Redeem(f.ctx, tStaff, tok.Hash, false)
	require.NoError(t, err)
	require.Equal(t, 0, res.StrikesLeft)
	require.True(t, res.RecyclingBanned)

	_, err = f.recycling.IssueToken(f.ctx, tCitizen, model.MaterialQuantities{Metal: 1})
	require.ErrorIs(t, err, ErrRecyclingBanned)
}

func TestLiftBanResetsStrikes(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 2; i++ {
		tok, err := f.recycling.IssueToken(f.ctx, tCitizen, model.MaterialQuantities{Metal: 1})
		require.NoError(t, err)
		_, err = f.recycling.Redeem(f.ctx, tStaff, tok.Hash, false)
		require.NoError(t, err)
	}

	require.ErrorIs(t, f.recycling.LiftBan(f.ctx, tStaff, tCitizen), ErrUnauthorized)
	require.NoError(t, f.recycling.LiftBan(f.ctx, tAdmin, tCitizen))
	require.ErrorIs(t, f.recycling.LiftBan(f.ctx, tAdmin, tCitizen), ErrInvalidState)

	a, err := f.accounts.Get(f.ctx, tCitizen)
	require.NoError(t, err)
	require.Equal(t, model.InitialRecyclingStrikes, a.RecyclingStrikes)
	require.False(t, a.RecyclingBanned)

	_, err = f.recycling.IssueToken(f.ctx, tCitizen, model.MaterialQuantities{Metal: 1})
	require.NoError(t, err)
}
