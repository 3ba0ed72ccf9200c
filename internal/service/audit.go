package service

import "context"

// Auditor is the outbound audit commit port.  The core emits one
// commit per state mutation after the mutation has been applied;
// the returned reference is opaque.  Implementations must never
// fail the caller: a broken audit pipe is logged by the
// implementation and the state mutation stands.
type Auditor interface {
	Commit(ctx context.Context, eventType, identity string, payload map[string]any) string
}

// NopAuditor discards commits.  Used in tests and as a fallback
// when no broker is configured.
type NopAuditor struct{}

// Commit implements Auditor.
func (NopAuditor) Commit(context.Context, string, string, map[string]any) string { return "" }
