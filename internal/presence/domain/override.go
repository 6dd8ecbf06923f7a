package domain

import "time"

// OverrideMeta is the session/device context recorded when a teacher
// approves a manual override.
type OverrideMeta struct {
	SID      string
	Phase    Phase
	Module   string
	Group    string
	DeviceID string
}

// OverrideRecord is a pending manual override, keyed by the verification
// token it was minted with. Consumed exactly once when the override check-in
// completes.
type OverrideRecord struct {
	OverrideID string
	IssuedAt   time.Time
	Meta       OverrideMeta
}

// OverrideAuditRecord is one immutable line in the override audit trail.
// VerificationID holds the fingerprint of the spent verification token, not
// the token itself, so the trail can correlate events without ever storing
// a replayable value.
type OverrideAuditRecord struct {
	OverrideID      string
	Timestamp       time.Time
	SID             string
	Phase           Phase
	Module          string
	Group           string
	StudentID       string
	DeviceID        string
	VerificationID  string
	PasswordVersion string
}
