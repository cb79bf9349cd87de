// Package queue defines message payloads exchanged over the message broker.
package queue

import "encoding/json"

// AlertQueueName is the durable queue critical security events are published
// onto. Consumers (the bundled log consumer, or an external pager bridge)
// read from it so alert delivery survives broker and service restarts.
const AlertQueueName = "security.alerts"

// SecurityAlert is published for every critical audit event: lockout trips,
// administrative role changes, account deletions, failed super-admin notices.
// It carries enough context for an operator to triage without querying the
// primary database.
type SecurityAlert struct {
	EventID    string          `json:"event_id"`
	Action     string          `json:"action"`
	ActorID    uint64          `json:"actor_id"`
	Resource   string          `json:"resource"`
	Severity   string          `json:"severity"`
	IPAddress  string          `json:"ip_address,omitempty"`
	UserAgent  string          `json:"user_agent,omitempty"`
	OccurredAt string          `json:"occurred_at"`
	Details    json.RawMessage `json:"details,omitempty"`
}
