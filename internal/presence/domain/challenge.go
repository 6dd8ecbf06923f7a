package domain

import "time"

// Challenge is a single short-lived proof value displayed to the room.
// Several challenges may be live at once for the same (session, phase) so a
// student who scanned a code issued moments before the current one is still
// accepted.
type Challenge struct {
	Value     string
	ExpiresAt time.Time
}

// IssuedChallenge is what the display client receives when it asks for a new
// challenge to render.
type IssuedChallenge struct {
	Value     string
	ExpiresAt time.Time
	TTL       time.Duration
}
