package model

import "time"

// MeterBinding links a physical meter to exactly one account.  A
// binding is created once by an operator and is immutable after
// that; rebinding either side is a conflict.
//
// Fields:
//  MeterNo   – meter serial number.
//  Identity  – account the meter belongs to.
//  BoundBy   – operator identity that created the binding.
//  CreatedAt – binding timestamp.
type MeterBinding struct {
	MeterNo   string    // meters.meter_no
	Identity  string    // meters.identity
	BoundBy   string    // meters.bound_by
	CreatedAt time.Time // meters.created_at
}

// Reading is one self-reported meter value.  Readings are append
// only: they are never mutated or deleted, and together form the
// rolling history the consumption gate compares new submissions
// against (window: last 6 entries).
//
// Fields:
//  ID            – primary key identifier.
//  Identity      – account that submitted the reading.
//  MeterNo       – meter the value was read from.
//  Value         – absolute meter index, strictly increasing per meter.
//  Consumption   – Value minus the previous accepted value.
//  UserConfirmed – the citizen explicitly confirmed a low reading.
//  CreatedAt     – submission timestamp.
type Reading struct {
	ID            uint64    // readings.id
	Identity      string    // readings.identity
	MeterNo       string    // readings.meter_no
	Value         uint64    // readings.value
	Consumption   uint64    // readings.consumption
	UserConfirmed bool      // readings.user_confirmed
	CreatedAt     time.Time // readings.created_at
}

// HistoryWindow is the number of trailing consumption deltas the
// gate averages when judging a new submission.
const HistoryWindow = 6
