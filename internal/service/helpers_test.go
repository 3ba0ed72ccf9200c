package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ecocivic/civicledger/internal/repository"
)

// Well-known actors used across the service tests.  newFixture
// seeds admin and grants the rest, so tests can use them directly.
const (
	tAdmin     = "admin"
	tOperator  = "op-1"
	tStaff     = "staff-1"
	tManager   = "fm-1"
	tInspector = "insp-1"
	tCitizen   = "citizen-1"
	tMeter     = "MTR-001"
)

// fakeClock is a manually advanced clock shared by every service in
// a fixture.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// recordedEvent is one audit commit captured by recordingAuditor.
type recordedEvent struct {
	eventType string
	identity  string
	payload   map[string]any
}

// recordingAuditor captures audit commits so tests can assert on
// the emitted event payloads.
type recordingAuditor struct {
	events []recordedEvent
}

func (a *recordingAuditor) Commit(_ context.Context, eventType, identity string, payload map[string]any) string {
	a.events = append(a.events, recordedEvent{eventType: eventType, identity: identity, payload: payload})
	return ""
}

// last returns the most recent event of the given type, failing the
// test when none was emitted.
func (a *recordingAuditor) last(t *testing.T, eventType string) recordedEvent {
	t.Helper()
	for i := len(a.events) - 1; i >= 0; i-- {
		if a.events[i].eventType == eventType {
			return a.events[i]
		}
	}
	t.Fatalf("no %q event recorded", eventType)
	return recordedEvent{}
}

// fixture wires the full service graph over in-memory stores with a
// fake clock and the reference policy.
type fixture struct {
	ctx context.Context

	accounts    *repository.MemoryAccountStore
	readings    *repository.MemoryReadingStore
	inspections *repository.MemoryInspectionStore
	tokens      *repository.MemoryTokenStore
	debts       *repository.MemoryDebtStore
	caps        *repository.MemoryCapabilityStore

	clock *fakeClock
	audit *recordingAuditor

	registry  *Registry
	ledger    *Ledger
	gate      *Gate
	fraud     *Fraud
	scheduler *Inspections
	recycling *Recycling
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		ctx:         context.Background(),
		accounts:    repository.NewMemoryAccountStore(),
		readings:    repository.NewMemoryReadingStore(),
		inspections: repository.NewMemoryInspectionStore(),
		tokens:      repository.NewMemoryTokenStore(),
		debts:       repository.NewMemoryDebtStore(),
		caps:        repository.NewMemoryCapabilityStore(),
		clock:       newFakeClock(),
		audit:       &recordingAuditor{},
	}
	locks := NewAccountLocks()
	policy := DefaultPolicy()

	f.registry = NewRegistry(f.caps, f.audit)
	f.ledger = NewLedger(f.accounts, locks, f.registry, f.audit)
	f.gate = NewGate(f.accounts, f.readings, f.ledger, f.registry, locks, policy, f.audit)
	f.gate.now = f.clock.Now
	f.fraud = NewFraud(f.accounts, f.debts, f.ledger, f.registry, locks, policy, f.audit)
	f.scheduler = NewInspections(f.accounts, f.inspections, f.caps, f.fraud, f.registry, locks, policy, f.audit, f.clock.Now)
	f.recycling = NewRecycling(f.accounts, f.tokens, f.ledger, f.registry, locks, policy, f.audit, f.clock.Now)

	require.NoError(t, f.registry.Seed(f.ctx, tAdmin))
	require.NoError(t, f.registry.Grant(f.ctx, tAdmin, "OPERATOR", tOperator))
	require.NoError(t, f.registry.Grant(f.ctx, tAdmin, "STAFF", tStaff))
	require.NoError(t, f.registry.Grant(f.ctx, tAdmin, "FRAUD_MANAGER", tManager))
	require.NoError(t, f.scheduler.AddInspector(f.ctx, tAdmin, tInspector))
	return f
}

// balance is a test shorthand for the current escrow balance.
func (f *fixture) balance(t *testing.T, identity string) uint64 {
	t.Helper()
	b, err := f.ledger.Balance(f.ctx, identity)
	require.NoError(t, err)
	return b
}

// bindAndRead binds the default meter to the citizen and accepts a
// sequence of readings, building up consumption history.
func (f *fixture) bindAndRead(t *testing.T, values ...uint64) {
	t.Helper()
	require.NoError(t, f.gate.BindMeter(f.ctx, tOperator, tMeter, tCitizen))
	for _, v := range values {
		res, err := f.gate.SubmitReading(f.ctx, tCitizen, tMeter, v, false)
		require.NoError(t, err)
		require.True(t, res.Accepted, "reading %d should be accepted", v)
	}
}
