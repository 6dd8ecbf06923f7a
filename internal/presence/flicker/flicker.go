// Package flicker implements the legacy bit-sequence presence proof: the
// display flickers one deterministic pseudorandom bit per fixed-length
// window, and a client submits the bits its camera observed.
//
// The temporal code (service.CodeService) is the system of record; this
// package is kept as a documented design alternative and is not mounted on
// any route. Running both schemes live at once would leave the security
// posture ambiguous.
package flicker

import (
	"time"
)

// DefaultWindow is how many candidate time alignments validation tries,
// compensating for network and camera lag.
const DefaultWindow = 4

// Seed derives the deterministic PRNG seed for a (session, phase). Both the
// display and the server derive the same seed, so no per-student secret is
// needed. Uses the classic 31x string hash, matching the display client.
func Seed(sid, phase string) int32 {
	return hash32(sid + ":" + phase)
}

func hash32(s string) int32 {
	var hash int32
	for _, r := range s {
		hash = hash*31 + int32(r)
	}
	return hash
}

// Bit returns the expected bit (0 or 1) at logical index i for a seed. The
// generator is mulberry32 seeded with (seed + i); the bit is the top bit of
// its first output, which is what flooring output*2 yields on the display
// side.
func Bit(seed int32, index int64) int {
	a := uint32(int64(seed) + index)

	a += 0x6d2b79f5
	t := (a ^ (a >> 15)) * (a | 1)
	t = (t + (t^(t>>7))*(t|61)) ^ t
	t ^= t >> 14

	return int(t >> 31)
}

// Params tunes validation tolerance.
type Params struct {
	// Window is how many start offsets to try: 0, -1, ... -(Window-1).
	Window int
	// Threshold is the minimum number of matching bits required. Zero
	// means len(bits)-2, tolerating occasional camera noise.
	Threshold int
}

// Result reports the best alignment found so the client can keep sampling
// on failure.
type Result struct {
	Matched bool
	Matches int
	Needed  int
	Offset  int
}

// Validate checks observed bits against the expected sequence ending at the
// current window index. The expected bit at logical index i is
// Bit(seed, i); the last observed bit is assumed to correspond to index
// now/delta, shifted by each candidate offset.
func Validate(bits []int, seed int32, delta time.Duration, now time.Time, p Params) Result {
	window := p.Window
	if window <= 0 {
		window = DefaultWindow
	}
	threshold := p.Threshold
	if threshold <= 0 {
		threshold = max(0, len(bits)-2)
	}

	iNow := now.UnixMilli() / delta.Milliseconds()
	length := len(bits)

	best := Result{Needed: threshold}
	for offset := 0; offset > -window; offset-- {
		matches := 0
		for j, observed := range bits {
			expected := Bit(seed, iNow+int64(offset)-int64(length-1-j))
			if observed == expected {
				matches++
			}
		}
		if matches >= threshold {
			return Result{Matched: true, Matches: matches, Needed: threshold, Offset: offset}
		}
		if matches > best.Matches {
			best.Matches = matches
			best.Offset = offset
		}
	}
	return best
}
