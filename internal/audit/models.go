package audit

import "time"

// Event is an immutable, append-only record of sync activity.
//
// Invariants:
// - Events are never updated or deleted.
// - Logging is best-effort; a failed append must never block or fail a sync.
//
// Storage recommendation (Postgres):
// - Table sync_audit_events with an INSERT-only policy.
// - Optional: partition by time for retention.

type Event struct {
	ID string `json:"id" db:"id"`

	// Type indicates the business category of the audit record.
	Type EventType `json:"type" db:"type"`

	// ClientID scopes the run; empty means all clients.
	ClientID string `json:"client_id,omitempty" db:"client_id"`

	// Date range the run covered (YYYY-MM-DD).
	Since string `json:"since,omitempty" db:"since"`
	Until string `json:"until,omitempty" db:"until"`

	// Run outcome counters.
	References  int `json:"references" db:"references"`
	RowsWritten int `json:"rows_written" db:"rows_written"`
	Failures    int `json:"failures" db:"failures"`

	// Message is a short human-readable description for internal ops.
	Message string `json:"message,omitempty" db:"message"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	EventTypeSyncRun     EventType = "sync_run"
	EventTypeTokenExpiry EventType = "token_expiry"
)
