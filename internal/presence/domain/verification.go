package domain

import "time"

// VerificationToken is the single-use proof that a client passed a challenge
// or temporal-code validation. It is double-bound: consumption requires both
// the opaque token id and the exact connection key recorded at issuance, so a
// token observed in one network flow cannot be replayed from another.
type VerificationToken struct {
	ID            string
	ConnectionKey string
	ExpiresAt     time.Time
}
