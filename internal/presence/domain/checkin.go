package domain

import "time"

// CheckinRequest carries everything the check-in pipeline needs to decide.
// ConnectionKey and DeviceKey are derived server-side from transport identity;
// client-reported values only ever feed into them, never replace them.
type CheckinRequest struct {
	SID            string
	Phase          Phase
	StudentID      string
	VerificationID string
	ConnectionKey  string
	DeviceKey      string

	// Context recorded with the durable row.
	IP        string
	UserAgent string
	DeviceID  string
	Module    string
	Group     string
}

// CheckinResult reports a completed check-in. Warning is set when a device
// conflict was accepted under the warn policy.
type CheckinResult struct {
	RecordID string
	Warning  string
}

// CheckinRecord is the durable row appended for every accepted check-in.
type CheckinRecord struct {
	ID        string
	Timestamp time.Time
	SID       string
	Phase     Phase
	StudentID string
	IP        string
	UserAgent string
	DeviceID  string
	Module    string
	Group     string
	Flagged   bool
}
