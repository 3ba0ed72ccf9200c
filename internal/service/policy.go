package service

import "time"

// Policy bundles the tunable compliance parameters.  The defaults
// are the municipal reference policy; deployments override them
// through environment configuration.  All percentage math in the
// core is integer arithmetic rounding toward zero.
type Policy struct {
	// DropThresholdPercent is the consumption drop (relative to the
	// trailing average) at which an unconfirmed reading is parked
	// for confirmation.  Reference: 50.
	DropThresholdPercent uint64

	// PartialSlashPercent is the share of the deposit slashed on an
	// automated fraud report.  Reference: 50.
	PartialSlashPercent uint64

	// InterestRatePercent is the monthly interest on retroactive
	// debt.  Reference: 5.
	InterestRatePercent uint64

	// MonthsLate is the assumed lateness applied to retroactive
	// debt.  Reference: 3.
	MonthsLate uint64

	// UnitRate prices one under-reported consumption unit when
	// computing debt principal.  Reference: 10.
	UnitRate uint64

	// TokenTTL is the declaration token validity window.
	// Reference: 3 hours.
	TokenTTL time.Duration

	// InspectionCycle is the interval after which an account is due
	// for physical inspection.  Reference: 6 months (183 days).
	InspectionCycle time.Duration

	// ReadingRewardNumer / ReadingRewardDenom define the per-unit
	// reward minted for an accepted reading: reward = consumption ×
	// numer / denom, truncating.  Reference: 1/10.  A zero
	// denominator disables the reward.
	ReadingRewardNumer uint64
	ReadingRewardDenom uint64
}

// DefaultPolicy returns the reference policy.
func DefaultPolicy() Policy {
	return Policy{
		DropThresholdPercent: 50,
		PartialSlashPercent:  50,
		InterestRatePercent:  5,
		MonthsLate:           3,
		UnitRate:             10,
		TokenTTL:             3 * time.Hour,
		InspectionCycle:      183 * 24 * time.Hour,
		ReadingRewardNumer:   1,
		ReadingRewardDenom:   10,
	}
}

// Interest computes principal × ratePercent × months / 100 with
// integer arithmetic.  Zero principal or zero months yields zero;
// non-exact divisions truncate toward zero.
func Interest(principal, ratePercent, months uint64) uint64 {
	return principal * ratePercent * months / 100
}
