package domain

import "time"

// Salt is one generation of the rotating server secret mixed into the
// temporal proof code. Never persisted and never handed to clients raw; the
// time endpoint only exposes the value so displays can render the code.
type Salt struct {
	Value     int
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Digits returns the two-digit projection of the salt that appears in the
// displayed code.
func (s Salt) Digits() int {
	return s.Value % 100
}

// SaltPair is an atomic snapshot of the two live salt generations. Keeping
// the previous generation around bridges the rotation boundary, so a code
// read by a camera mid-rotation is not incorrectly rejected.
type SaltPair struct {
	Current  Salt
	Previous Salt

	Rotation     time.Duration
	AcceptWindow time.Duration
}
