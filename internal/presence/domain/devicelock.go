package domain

import "time"

// DeviceLock binds a device-derived key to the first identifier it submitted
// for a (session, phase). While the lock is live, the same device may only
// check in the same identifier: one physical device, one claimed identity.
type DeviceLock struct {
	DeviceKey  string
	Identifier string
	ExpiresAt  time.Time
}

// LockResult reports the outcome of a lock acquisition. On conflict,
// ExistingIdentifier carries the identifier originally recorded so the caller
// can audit-log the pairing that was attempted.
type LockResult struct {
	OK                 bool
	ExistingIdentifier string
}

// LockPolicy decides what a device-lock conflict means for the check-in.
type LockPolicy string

const (
	// LockPolicyReject refuses the check-in outright. This is the policy
	// that actually upholds the one-device-one-identity invariant.
	LockPolicyReject LockPolicy = "reject"

	// LockPolicyWarn accepts the check-in but flags the record and logs the
	// conflict for later review.
	LockPolicyWarn LockPolicy = "warn"
)
