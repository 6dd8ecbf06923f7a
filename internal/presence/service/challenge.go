package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/rollcallhq/presence/internal/presence/domain"
	"github.com/rollcallhq/presence/pkg/cryptox"
)

// DefaultChallengeTTL keeps a displayed challenge scannable for a few refresh
// cycles without leaving stale values alive long enough to share.
const DefaultChallengeTTL = 3 * time.Second

// ChallengeService issues and validates the short-lived proof values encoded
// into the displayed QR. Each (session, phase) keeps a sliding window of live
// challenges rather than a single slot, so a student who scanned the
// previous refresh is still accepted.
type ChallengeService struct {
	mu      sync.Mutex
	entries map[string][]domain.Challenge
	ttl     time.Duration
}

func NewChallengeService(ttl time.Duration) *ChallengeService {
	if ttl <= 0 {
		ttl = DefaultChallengeTTL
	}
	return &ChallengeService{
		entries: make(map[string][]domain.Challenge),
		ttl:     ttl,
	}
}

// TTL reports the configured challenge lifetime.
func (s *ChallengeService) TTL() time.Duration { return s.ttl }

// Issue appends a fresh random challenge to the window for (sid, phase),
// purging expired entries first.
func (s *ChallengeService) Issue(sid string, phase domain.Phase) (domain.IssuedChallenge, error) {
	value, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		return domain.IssuedChallenge{}, fmt.Errorf("failed to generate challenge: %w", err)
	}

	now := time.Now()
	key := domain.SessionKey(sid, phase)

	s.mu.Lock()
	defer s.mu.Unlock()

	list := purgeChallenges(s.entries[key], now)
	challenge := domain.Challenge{Value: value, ExpiresAt: now.Add(s.ttl)}
	s.entries[key] = append(list, challenge)

	return domain.IssuedChallenge{
		Value:     challenge.Value,
		ExpiresAt: challenge.ExpiresAt,
		TTL:       s.ttl,
	}, nil
}

// Validate reports whether value is a live challenge for (sid, phase). A
// matched challenge is removed immediately: two people photographing the
// same displayed code must not both pass. An unknown key behaves exactly
// like an all-expired window.
func (s *ChallengeService) Validate(sid string, phase domain.Phase, value string) bool {
	now := time.Now()
	key := domain.SessionKey(sid, phase)

	s.mu.Lock()
	defer s.mu.Unlock()

	list := purgeChallenges(s.entries[key], now)
	if len(list) == 0 {
		delete(s.entries, key)
		return false
	}

	for i, entry := range list {
		if entry.Value == value {
			s.entries[key] = append(list[:i], list[i+1:]...)
			return true
		}
	}

	s.entries[key] = list
	return false
}

func purgeChallenges(list []domain.Challenge, now time.Time) []domain.Challenge {
	kept := list[:0]
	for _, entry := range list {
		if entry.ExpiresAt.After(now) {
			kept = append(kept, entry)
		}
	}
	return kept
}
