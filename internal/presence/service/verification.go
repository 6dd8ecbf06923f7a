package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/rollcallhq/presence/internal/presence/domain"
	"github.com/rollcallhq/presence/pkg/cryptox"
)

const (
	// DefaultVerificationTTL bounds how long a client has between passing
	// the proof and submitting the check-in.
	DefaultVerificationTTL = 30 * time.Second

	// ChallengeFlowVerificationTTL is used for explicit-challenge flows
	// where a human still has to type an identifier after scanning.
	ChallengeFlowVerificationTTL = 90 * time.Second
)

// VerificationService is the ledger of single-use verification tokens.
// Consumption requires both the opaque token id and the exact connection key
// recorded at issuance, and deletes the entry atomically, so a token can be
// spent once and only by the session context it was issued for.
type VerificationService struct {
	mu     sync.Mutex
	tokens map[string]domain.VerificationToken
	ttl    time.Duration
}

func NewVerificationService(ttl time.Duration) *VerificationService {
	if ttl <= 0 {
		ttl = DefaultVerificationTTL
	}
	return &VerificationService{
		tokens: make(map[string]domain.VerificationToken),
		ttl:    ttl,
	}
}

// Issue mints a token bound to connectionKey. A non-positive ttl uses the
// service default.
func (s *VerificationService) Issue(connectionKey string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = s.ttl
	}

	id, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		return "", fmt.Errorf("failed to generate verification token: %w", err)
	}

	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.purgeLocked(now)
	s.tokens[id] = domain.VerificationToken{
		ID:            id,
		ConnectionKey: connectionKey,
		ExpiresAt:     now.Add(ttl),
	}
	return id, nil
}

// Consume spends a token. It succeeds at most once per id, and only when the
// presented connection key matches the one recorded at issuance.
func (s *VerificationService) Consume(id, connectionKey string) bool {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.purgeLocked(now)

	entry, ok := s.tokens[id]
	if !ok {
		return false
	}
	if entry.ConnectionKey != connectionKey {
		return false
	}

	delete(s.tokens, id)
	return true
}

func (s *VerificationService) purgeLocked(now time.Time) {
	for id, entry := range s.tokens {
		if !entry.ExpiresAt.After(now) {
			delete(s.tokens, id)
		}
	}
}
