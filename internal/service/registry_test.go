package service

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGrantRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	err := f.registry.Grant(f.ctx, tCitizen, "STAFF", "somebody")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestGrantUnknownRole(t *testing.T) {
	f := newFixture(t)
	err := f.registry.Grant(f.ctx, tAdmin, "JANITOR", "somebody")
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestGrantDuplicate(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.registry.Grant(f.ctx, tAdmin, "STAFF", "s2"))
	err := f.registry.Grant(f.ctx, tAdmin, "STAFF", "s2")
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestRevoke(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.registry.Revoke(f.ctx, tAdmin, "STAFF", tStaff))
	ok, err := f.registry.Check(f.ctx, "STAFF", tStaff)
	require.NoError(t, err)
	require.False(t, ok)

	err = f.registry.Revoke(f.ctx, tAdmin, "STAFF", tStaff)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRequire(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.registry.Require(f.ctx, "OPERATOR", tOperator))
	err := f.registry.Require(f.ctx, "OPERATOR", tCitizen)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestSeedIsIdempotent(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.registry.Seed(f.ctx, tAdmin))
	require.NoError(t, f.registry.Seed(f.ctx, tAdmin))
	ok, err := f.registry.Check(f.ctx, "ADMIN", tAdmin)
	require.NoError(t, err)
	require.True(t, ok)
}
