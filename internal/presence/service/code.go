package service

import (
	"fmt"
	"time"

	"github.com/rollcallhq/presence/internal/presence/domain"
)

// DefaultCodeTolerance absorbs client/server clock drift plus the optical
// sampling latency of reading the displayed code.
const DefaultCodeTolerance = 1 * time.Second

const secondsPerHour = 3600

// CodeService validates the rotating temporal proof code. The displayed code
// is MM:SS:DD — minute and second of server wall-clock time plus the
// two-digit projection of the live salt. Exact match is never required:
// both clock skew and optical noise are expected, so the time component is
// compared with a circular tolerance and the salt digits are accepted from
// either live generation inside its window.
type CodeService struct {
	Salts     *SaltRotator
	Tolerance time.Duration
}

func NewCodeService(salts *SaltRotator, tolerance time.Duration) *CodeService {
	if tolerance <= 0 {
		tolerance = DefaultCodeTolerance
	}
	return &CodeService{Salts: salts, Tolerance: tolerance}
}

// ExpectedCode derives the code a display should be showing for the given
// salt generation at the given instant.
func ExpectedCode(salt domain.Salt, now time.Time) string {
	return fmt.Sprintf("%02d:%02d:%02d", now.Minute(), now.Second(), salt.Digits())
}

// Validate checks a submitted code against the live salt pair at now.
func (s *CodeService) Validate(code string, now time.Time) domain.CodeResult {
	return s.ValidateAgainst(s.Salts.Snapshot(), code, now)
}

// ValidateAgainst checks a submitted code against an explicit salt snapshot.
// Split out so the acceptance windows can be exercised deterministically.
func (s *CodeService) ValidateAgainst(pair domain.SaltPair, code string, now time.Time) domain.CodeResult {
	expected := expectedCodes(pair, now, s.Tolerance)

	minute, second, digits, ok := parseCode(code)
	if !ok {
		return domain.CodeResult{Reason: domain.CodeFailureFormat, Expected: expected}
	}

	// Compare in seconds-within-the-hour so both second and minute
	// boundaries wrap cleanly.
	submitted := minute*60 + second
	server := now.Minute()*60 + now.Second()
	if circularDistance(submitted, server, secondsPerHour) > int(s.Tolerance.Seconds()) {
		return domain.CodeResult{Reason: domain.CodeFailureTime, Expected: expected}
	}

	if saltAccepts(pair.Current, digits, now, pair.AcceptWindow) ||
		saltAccepts(pair.Previous, digits, now, pair.AcceptWindow) {
		return domain.CodeResult{OK: true, Expected: expected}
	}

	return domain.CodeResult{Reason: domain.CodeFailureSalt, Expected: expected}
}

// saltAccepts reports whether digits match this generation and the
// generation is still inside its acceptance window.
func saltAccepts(salt domain.Salt, digits int, now time.Time, window time.Duration) bool {
	if salt.Digits() != digits {
		return false
	}
	age := now.Sub(salt.CreatedAt)
	return age >= 0 && age < window
}

// expectedCodes enumerates every code the server would accept right now:
// each instant inside the tolerance crossed with each generation still in
// its window. Returned to callers as a diagnostic; it reveals nothing beyond
// what the display is already showing.
func expectedCodes(pair domain.SaltPair, now time.Time, tolerance time.Duration) []string {
	seconds := int(tolerance.Seconds())
	var codes []string
	seen := make(map[string]struct{})

	for offset := -seconds; offset <= seconds; offset++ {
		at := now.Add(time.Duration(offset) * time.Second)
		for _, salt := range []domain.Salt{pair.Current, pair.Previous} {
			age := now.Sub(salt.CreatedAt)
			if age < 0 || age >= pair.AcceptWindow {
				continue
			}
			code := ExpectedCode(salt, at)
			if _, dup := seen[code]; !dup {
				seen[code] = struct{}{}
				codes = append(codes, code)
			}
		}
	}
	return codes
}

// parseCode splits MM:SS:DD into its components. Strict two-digit fields;
// anything else is a format failure.
func parseCode(code string) (minute, second, digits int, ok bool) {
	if len(code) != 8 || code[2] != ':' || code[5] != ':' {
		return 0, 0, 0, false
	}

	minute, ok = parseTwoDigits(code[0:2])
	if !ok || minute > 59 {
		return 0, 0, 0, false
	}
	second, ok = parseTwoDigits(code[3:5])
	if !ok || second > 59 {
		return 0, 0, 0, false
	}
	digits, ok = parseTwoDigits(code[6:8])
	if !ok {
		return 0, 0, 0, false
	}
	return minute, second, digits, true
}

func parseTwoDigits(s string) (int, bool) {
	if s[0] < '0' || s[0] > '9' || s[1] < '0' || s[1] > '9' {
		return 0, false
	}
	return int(s[0]-'0')*10 + int(s[1]-'0'), true
}

// circularDistance returns the shortest distance between a and b on a ring
// of the given modulus.
func circularDistance(a, b, modulus int) int {
	d := a - b
	if d < 0 {
		d = -d
	}
	if d > modulus/2 {
		d = modulus - d
	}
	return d
}
