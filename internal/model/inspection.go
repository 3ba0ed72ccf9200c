package model

import "time"

// Inspection records one physical meter verification.  It is
// created when an inspector schedules a visit and mutated exactly
// once on completion, after which it is immutable.
//
// Fields:
//  ID              – auto-increment identifier.
//  Identity        – account being inspected.
//  Inspector       – identity of the inspector (set on completion).
//  ScheduledAt     – when the visit was scheduled.
//  Completed       – completion flag; a completed inspection cannot
//                    be completed again.
//  FraudFound      – inspector's verdict.
//  ActualReading   – meter value observed on site.
//  ReportedReading – value the citizen last self-reported.
//  Reason          – free-text justification for the verdict.
//  CompletedAt     – completion timestamp (nil until completed).
type Inspection struct {
	ID              uint64     // inspections.id
	Identity        string     // inspections.identity
	Inspector       string     // inspections.inspector
	ScheduledAt     time.Time  // inspections.scheduled_at
	Completed       bool       // inspections.completed
	FraudFound      bool       // inspections.fraud_found
	ActualReading   uint64     // inspections.actual_reading
	ReportedReading uint64     // inspections.reported_reading
	Reason          string     // inspections.reason
	CompletedAt     *time.Time // inspections.completed_at (nullable)
}

// DebtRecord captures retroactive debt discovered by a physical
// inspection: the citizen under-reported consumption and owes the
// difference plus time-based interest.  Records are append only.
//
// Fields:
//  ID        – primary key identifier.
//  Identity  – indebted account.
//  Principal – under-reported quantity times the unit rate.
//  Interest  – principal × monthly rate × months late (integer math).
//  Total     – principal plus interest.
//  CreatedAt – creation timestamp.
type DebtRecord struct {
	ID        uint64    // debts.id
	Identity  string    // debts.identity
	Principal uint64    // debts.principal
	Interest  uint64    // debts.interest
	Total     uint64    // debts.total
	CreatedAt time.Time // debts.created_at
}
