// Package queue defines message payloads exchanged over the message broker.
package queue

// AuditEvent is published whenever a service commits a state change
// that must leave an immutable trail. It carries enough context for
// downstream consumers to log or alert without querying the primary
// database.
type AuditEvent struct {
	Ref       string         `json:"ref"`
	EventType string         `json:"event_type"`
	Identity  string         `json:"identity"`
	Payload   map[string]any `json:"payload,omitempty"`
	EmittedAt string         `json:"emitted_at"`
}
