package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("APP_ENV", "test")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("DB_USER", "civic")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "3306")
	t.Setenv("DB_NAME", "civicledger")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("ACCESS_TOKEN_TTL_MIN", "15")
	t.Setenv("BCRYPT_COST", "10")
	t.Setenv("ADMIN_IDENTITY", "admin")
}

func TestLoadPolicyDefaults(t *testing.T) {
	setRequired(t)
	cfg := Load()
	require.Equal(t, uint64(50), cfg.DropThresholdPercent)
	require.Equal(t, uint64(50), cfg.PartialSlashPercent)
	require.Equal(t, uint64(5), cfg.InterestRatePercent)
	require.Equal(t, uint64(3), cfg.MonthsLate)
	require.Equal(t, uint64(10), cfg.UnitRate)
	require.Equal(t, uint64(1), cfg.ReadingRewardNumer)
	require.Equal(t, uint64(10), cfg.ReadingRewardDenom)
	require.Equal(t, 3*time.Hour, cfg.TokenTTL)
	require.Equal(t, 183*24*time.Hour, cfg.InspectionCycle)
}

func TestLoadPolicyOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("POLICY_READING_REWARD_NUMER", "2")
	t.Setenv("POLICY_READING_REWARD_DENOM", "25")
	t.Setenv("POLICY_TOKEN_TTL", "90m")
	cfg := Load()
	require.Equal(t, uint64(2), cfg.ReadingRewardNumer)
	require.Equal(t, uint64(25), cfg.ReadingRewardDenom)
	require.Equal(t, 90*time.Minute, cfg.TokenTTL)
}
