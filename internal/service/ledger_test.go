package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ecocivic/civicledger/internal/model"
	"github.com/ecocivic/civicledger/internal/repository"
)

// failingAccountStore delegates reads and plain updates to a real
// store but refuses the transactional transfer, standing in for a
// database failure mid-slash.
type failingAccountStore struct {
	repository.AccountStore
	transferErr error
}

func (s *failingAccountStore) SlashTransfer(context.Context, *model.Account, string, uint64) error {
	return s.transferErr
}

func TestDepositAccumulates(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ledger.Deposit(f.ctx, tCitizen, 300))
	require.NoError(t, f.ledger.Deposit(f.ctx, tCitizen, 200))
	require.Equal(t, uint64(500), f.balance(t, tCitizen))
}

func TestDepositRejectsZero(t *testing.T) {
	f := newFixture(t)
	err := f.ledger.Deposit(f.ctx, tCitizen, 0)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestSlashMovesToTreasury(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ledger.Deposit(f.ctx, tCitizen, 1000))
	require.NoError(t, f.ledger.Slash(f.ctx, tCitizen, 400, "test penalty"))
	require.Equal(t, uint64(600), f.balance(t, tCitizen))
	require.Equal(t, uint64(400), f.balance(t, TreasuryIdentity))
}

// A failed transfer must not commit the debit on its own: the
// slashed amount stays in the account and the treasury never
// appears.
func TestSlashFailureLeavesBalancesUntouched(t *testing.T) {
	ctx := context.Background()
	mem := repository.NewMemoryAccountStore()
	store := &failingAccountStore{AccountStore: mem, transferErr: errors.New("driver: bad connection")}
	registry := NewRegistry(repository.NewMemoryCapabilityStore(), nil)
	ledger := NewLedger(store, NewAccountLocks(), registry, nil)

	require.NoError(t, ledger.Deposit(ctx, tCitizen, 1000))
	require.Error(t, ledger.Slash(ctx, tCitizen, 400, "anomaly"))

	a, err := mem.Get(ctx, tCitizen)
	require.NoError(t, err)
	require.Equal(t, uint64(1000), a.DepositBalance)
	_, err = mem.Get(ctx, TreasuryIdentity)
	require.ErrorIs(t, err, repository.ErrAccountNotFound)
}

func TestSlashInsufficientBalanceChangesNothing(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ledger.Deposit(f.ctx, tCitizen, 100))
	err := f.ledger.Slash(f.ctx, tCitizen, 101, "too much")
	require.ErrorIs(t, err, ErrInsufficientBalance)
	require.ErrorIs(t, err, ErrInvalidState)
	require.Equal(t, uint64(100), f.balance(t, tCitizen))
	// Treasury account was never touched, so it does not even exist.
	_, err = f.ledger.Balance(f.ctx, TreasuryIdentity)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestWithdrawRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ledger.Deposit(f.ctx, tCitizen, 100))
	err := f.ledger.Withdraw(f.ctx, tCitizen, tCitizen, 50, "bank-1")
	require.ErrorIs(t, err, ErrUnauthorized)
	require.NoError(t, f.ledger.Withdraw(f.ctx, tAdmin, tCitizen, 50, "bank-1"))
	require.Equal(t, uint64(50), f.balance(t, tCitizen))
}

func TestPauseBlocksMutations(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ledger.Deposit(f.ctx, tCitizen, 100))
	require.NoError(t, f.ledger.Pause(f.ctx, tAdmin))

	require.ErrorIs(t, f.ledger.Deposit(f.ctx, tCitizen, 10), ErrLedgerPaused)
	require.ErrorIs(t, f.ledger.Slash(f.ctx, tCitizen, 10, "x"), ErrLedgerPaused)
	require.ErrorIs(t, f.ledger.Withdraw(f.ctx, tAdmin, tCitizen, 10, "bank-1"), ErrLedgerPaused)

	// Double pause fails; unpause restores normal operation.
	require.ErrorIs(t, f.ledger.Pause(f.ctx, tAdmin), ErrLedgerPaused)
	require.NoError(t, f.ledger.Unpause(f.ctx, tAdmin))
	require.ErrorIs(t, f.ledger.Unpause(f.ctx, tAdmin), ErrLedgerNotPaused)
	require.NoError(t, f.ledger.Deposit(f.ctx, tCitizen, 10))
}

func TestEmergencyWithdrawOnlyWhilePaused(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ledger.Deposit(f.ctx, tCitizen, 100))

	err := f.ledger.EmergencyWithdraw(f.ctx, tAdmin, tCitizen, 100, "bank-1")
	require.ErrorIs(t, err, ErrLedgerNotPaused)

	require.NoError(t, f.ledger.Pause(f.ctx, tAdmin))
	require.NoError(t, f.ledger.EmergencyWithdraw(f.ctx, tAdmin, tCitizen, 100, "bank-1"))
	require.Equal(t, uint64(0), f.balance(t, tCitizen))
}

func TestClaimRewards(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ledger.MintReward(f.ctx, tCitizen, 70, "test"))
	require.NoError(t, f.ledger.MintReward(f.ctx, tCitizen, 30, "test"))

	claimed, err := f.ledger.ClaimRewards(f.ctx, tCitizen)
	require.NoError(t, err)
	require.Equal(t, uint64(100), claimed)
	require.Equal(t, uint64(100), f.balance(t, tCitizen))

	_, err = f.ledger.ClaimRewards(f.ctx, tCitizen)
	require.ErrorIs(t, err, ErrInvalidState)
}
