package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rollcallhq/presence/internal/presence/domain"
	"github.com/rollcallhq/presence/internal/presence/store"
	"github.com/rollcallhq/presence/pkg/cryptox"
	"github.com/rollcallhq/presence/pkg/idx"
	"github.com/pquerna/otp/totp"
)

// DefaultOverrideTTL allows the teacher and student to act with some delay
// between approval and the completed check-in.
const DefaultOverrideTTL = 30 * time.Minute

// OverrideSecrets configures how a teacher proves authority for a manual
// override. SecretHash (argon2id PHC string) is preferred; Secret is a
// plaintext fallback for quick classroom setups; TOTPSecret additionally
// accepts rotating codes from an authenticator app.
type OverrideSecrets struct {
	SecretHash      string
	Secret          string
	TOTPSecret      string
	PasswordVersion string
}

// Configured reports whether any authority check is available at all.
func (s OverrideSecrets) Configured() bool {
	return s.SecretHash != "" || s.Secret != "" || s.TOTPSecret != ""
}

// OverrideService is the privileged escape hatch: after an out-of-band
// authority check, it tracks pending override grants keyed by the
// verification token they minted, and writes every consumption to the
// immutable audit trail.
type OverrideService struct {
	mu      sync.Mutex
	entries map[string]domain.OverrideRecord
	ttl     time.Duration

	secrets OverrideSecrets
	audit   store.OverrideAudit
	logger  *slog.Logger
}

func NewOverrideService(ttl time.Duration, secrets OverrideSecrets, audit store.OverrideAudit, logger *slog.Logger) *OverrideService {
	if ttl <= 0 {
		ttl = DefaultOverrideTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OverrideService{
		entries: make(map[string]domain.OverrideRecord),
		ttl:     ttl,
		secrets: secrets,
		audit:   audit,
		logger:  logger,
	}
}

// Available reports whether overrides can be used at all. The pre-check
// endpoint surfaces this without side effects.
func (s *OverrideService) Available() bool { return s.secrets.Configured() }

// PasswordVersion is recorded with every audit line so rotated teacher
// secrets can be distinguished in review.
func (s *OverrideService) PasswordVersion() string { return s.secrets.PasswordVersion }

// VerifySecret checks a submitted teacher secret against every configured
// mechanism: argon2id hash, constant-time plaintext, then TOTP.
func (s *OverrideService) VerifySecret(secret string) bool {
	if secret == "" {
		return false
	}
	if s.secrets.SecretHash != "" && cryptox.VerifyPassword(secret, s.secrets.SecretHash) == nil {
		return true
	}
	if s.secrets.Secret != "" && cryptox.ConstantTimeEquals(secret, s.secrets.Secret) {
		return true
	}
	if s.secrets.TOTPSecret != "" && totp.Validate(secret, s.secrets.TOTPSecret) {
		return true
	}
	return false
}

// Register stores override metadata under the verification token id minted
// for it. Call only after VerifySecret succeeded. Returns the override id
// used to tie audit lines together.
func (s *OverrideService) Register(tokenID string, meta domain.OverrideMeta) string {
	now := time.Now()
	overrideID := idx.New().String()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.purgeLocked(now)
	s.entries[tokenID] = domain.OverrideRecord{
		OverrideID: overrideID,
		IssuedAt:   now,
		Meta:       meta,
	}
	return overrideID
}

// Consume removes and returns the override registered for tokenID, if any.
// Single-use; a second consume for the same token finds nothing.
func (s *OverrideService) Consume(tokenID string) (domain.OverrideRecord, bool) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.purgeLocked(now)

	entry, ok := s.entries[tokenID]
	if !ok {
		return domain.OverrideRecord{}, false
	}
	delete(s.entries, tokenID)
	return entry, true
}

// LogUsage appends one line to the audit trail. Audit failures are reported
// to the operational log and swallowed: the check-in response must not
// depend on synchronous audit durability, but a lost line is itself logged
// for manual review.
func (s *OverrideService) LogUsage(ctx context.Context, rec domain.OverrideAuditRecord) {
	if s.audit == nil {
		s.logger.Warn("override audit sink not configured, dropping record",
			"override_id", rec.OverrideID)
		return
	}
	if err := s.audit.Append(ctx, rec); err != nil {
		s.logger.Error("failed to write override audit record",
			"override_id", rec.OverrideID,
			"sid", rec.SID,
			"error", err,
		)
	}
}

func (s *OverrideService) purgeLocked(now time.Time) {
	for tokenID, entry := range s.entries {
		if now.Sub(entry.IssuedAt) > s.ttl {
			delete(s.entries, tokenID)
		}
	}
}
