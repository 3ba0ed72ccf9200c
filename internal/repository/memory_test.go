package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ecocivic/civicledger/internal/model"
)

func TestMemoryAccountGetOrCreate(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryAccountStore()

	_, err := s.Get(ctx, "c-1")
	require.ErrorIs(t, err, ErrAccountNotFound)

	a, err := s.GetOrCreate(ctx, "c-1")
	require.NoError(t, err)
	require.Equal(t, model.StatusActive, a.Status)
	require.Equal(t, model.InitialRecyclingStrikes, a.RecyclingStrikes)

	// Second call returns the same row, not a fresh one.
	a.DepositBalance = 42
	require.NoError(t, s.Update(ctx, a))
	b, err := s.GetOrCreate(ctx, "c-1")
	require.NoError(t, err)
	require.Equal(t, uint64(42), b.DepositBalance)
}

func TestMemoryAccountUpdateReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryAccountStore()
	a, err := s.GetOrCreate(ctx, "c-1")
	require.NoError(t, err)

	// Mutating the returned struct without Update must not leak
	// into the store.
	a.DepositBalance = 999
	b, err := s.Get(ctx, "c-1")
	require.NoError(t, err)
	require.Equal(t, uint64(0), b.DepositBalance)
}

func TestMemoryMeterBindingIsUnique(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryReadingStore()
	require.NoError(t, s.BindMeter(ctx, &model.MeterBinding{MeterNo: "M-1", Identity: "c-1"}))
	err := s.BindMeter(ctx, &model.MeterBinding{MeterNo: "M-1", Identity: "c-2"})
	require.ErrorIs(t, err, ErrMeterBound)
}

func TestMemoryTokenMarkUsedOnce(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryTokenStore()
	tok := &model.DeclarationToken{
		TokenID:   "t-1",
		Identity:  "c-1",
		Hash:      "abc",
		Reward:    10,
		IssuedAt:  time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, s.Create(ctx, tok))

	require.NoError(t, s.MarkUsed(ctx, "abc", "APPROVED", "staff-1"))
	err := s.MarkUsed(ctx, "abc", "APPROVED", "staff-1")
	require.ErrorIs(t, err, ErrTokenUsed)

	got, err := s.GetByHash(ctx, "abc")
	require.NoError(t, err)
	require.True(t, got.Used)
	require.Equal(t, "APPROVED", got.Decision)
	require.Equal(t, "staff-1", got.DecidedBy)

	require.ErrorIs(t, s.MarkUsed(ctx, "nope", "APPROVED", "staff-1"), ErrTokenNotFound)
}

func TestMemoryInspectorListToggle(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryCapabilityStore()
	require.NoError(t, s.AddInspector(ctx, &model.Inspector{Identity: "i-1", AddedBy: "admin"}))
	require.ErrorIs(t, s.AddInspector(ctx, &model.Inspector{Identity: "i-1"}), ErrInspectorExists)

	ok, err := s.IsInspector(ctx, "i-1")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, s.RemoveInspector(ctx, "i-1"))
	ok, err = s.IsInspector(ctx, "i-1")
	require.NoError(t, err)
	require.False(t, ok)
	require.ErrorIs(t, s.RemoveInspector(ctx, "i-1"), ErrInspectorNotFound)
}

func TestMemoryUserUniqueness(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryUserStore()
	_, err := s.Create(ctx, &model.User{Identity: "c-1", Email: "a@b.c", PasswordHash: "x", Role: model.RoleCitizen})
	require.NoError(t, err)

	_, err = s.Create(ctx, &model.User{Identity: "c-2", Email: "a@b.c", PasswordHash: "x", Role: model.RoleCitizen})
	require.ErrorIs(t, err, ErrEmailExists)
	_, err = s.Create(ctx, &model.User{Identity: "c-1", Email: "d@b.c", PasswordHash: "x", Role: model.RoleCitizen})
	require.ErrorIs(t, err, ErrIdentityExists)
}
