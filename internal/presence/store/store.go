package store

import (
	"context"

	"github.com/rollcallhq/presence/internal/presence/domain"
)

// Store is the durable record sink. Verification state (challenges, salts,
// tokens, locks) is deliberately ephemeral and lives in process memory; only
// the check-in rows and the override audit trail outlive the process.
// Concrete drivers: sqlite (default) and csv (daily collector files).
type Store interface {
	Checkins() Checkins
	OverrideAudit() OverrideAudit

	// ApplyMigrations prepares the backing storage (schema or directory).
	ApplyMigrations() error

	// Ping verifies the sink is still writable.
	Ping(ctx context.Context) error

	// Close releases any underlying resources.
	Close() error
}

// Checkins is the append-only check-in record repository.
type Checkins interface {
	Append(ctx context.Context, rec domain.CheckinRecord) error

	// CountBySession reports how many rows exist for a (session, phase).
	// Used by operators to sanity-check a session after class; the csv
	// driver only counts the current day's file.
	CountBySession(ctx context.Context, sid string, phase domain.Phase) (int, error)
}

// OverrideAudit is the append-only manual-override audit trail.
type OverrideAudit interface {
	Append(ctx context.Context, rec domain.OverrideAuditRecord) error
}
