package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rollcallhq/presence/internal/presence/domain"
	"github.com/rollcallhq/presence/internal/presence/store"
	"github.com/rollcallhq/presence/pkg/cryptox"
	"github.com/rollcallhq/presence/pkg/idx"
)

var (
	// ErrVerificationRequired means the token was missing, expired, already
	// consumed, or bound to a different connection. Not retryable without
	// redoing the proof step.
	ErrVerificationRequired = errors.New("verification required")

	// ErrRateLimited means the submission arrived before the minimum
	// spacing elapsed. Retryable after the window.
	ErrRateLimited = errors.New("submission too soon")
)

// DeviceConflictError reports that the device already checked in a different
// identifier during this phase.
type DeviceConflictError struct {
	ExistingIdentifier string
}

func (e *DeviceConflictError) Error() string {
	return "device already bound to another identifier"
}

// CheckinService runs the whole submission pipeline: consume the
// verification token, apply the submission gate, acquire the device lock
// under the configured policy, then append the durable row. Override
// consumption and conflict handling feed the audit trail as side effects.
type CheckinService struct {
	Verifications *VerificationService
	Overrides     *OverrideService
	Gate          *SubmissionGate
	Locks         *DeviceLockService
	Records       store.Checkins
	Logger        *slog.Logger
}

// Submit processes one check-in attempt. Each failure mode maps to a
// distinct error so the handler can tell the client whether to retry now,
// wait, or redo the proof.
func (s *CheckinService) Submit(ctx context.Context, req domain.CheckinRequest) (domain.CheckinResult, error) {
	if !s.Verifications.Consume(req.VerificationID, req.ConnectionKey) {
		return domain.CheckinResult{}, ErrVerificationRequired
	}

	// A consumed token may carry a pending manual override; record its
	// usage regardless of how the rest of the pipeline goes.
	if override, ok := s.Overrides.Consume(req.VerificationID); ok {
		s.Overrides.LogUsage(ctx, domain.OverrideAuditRecord{
			OverrideID:      override.OverrideID,
			Timestamp:       time.Now().UTC(),
			SID:             override.Meta.SID,
			Phase:           override.Meta.Phase,
			Module:          override.Meta.Module,
			Group:           override.Meta.Group,
			StudentID:       req.StudentID,
			DeviceID:        override.Meta.DeviceID,
			VerificationID:  cryptox.FingerprintToken(req.VerificationID),
			PasswordVersion: s.Overrides.PasswordVersion(),
		})
	}

	if !s.Gate.Allow(req.ConnectionKey) {
		return domain.CheckinResult{}, ErrRateLimited
	}

	var warning string
	flagged := false
	if lock := s.Locks.Acquire(req.DeviceKey, req.StudentID); !lock.OK {
		s.Logger.Warn("device lock conflict",
			"sid", req.SID,
			"phase", req.Phase,
			"device_key", req.DeviceKey,
			"student_id", req.StudentID,
			"existing_student_id", lock.ExistingIdentifier,
			"ip", req.IP,
		)

		if s.Locks.Policy() == domain.LockPolicyReject {
			return domain.CheckinResult{}, &DeviceConflictError{
				ExistingIdentifier: lock.ExistingIdentifier,
			}
		}

		warning = "device used for multiple identifiers"
		flagged = true
	}

	rec := domain.CheckinRecord{
		ID:        idx.New().String(),
		Timestamp: time.Now().UTC(),
		SID:       req.SID,
		Phase:     req.Phase,
		StudentID: req.StudentID,
		IP:        req.IP,
		UserAgent: req.UserAgent,
		DeviceID:  req.DeviceID,
		Module:    req.Module,
		Group:     req.Group,
		Flagged:   flagged,
	}
	if err := s.Records.Append(ctx, rec); err != nil {
		return domain.CheckinResult{}, fmt.Errorf("failed to append check-in record: %w", err)
	}

	return domain.CheckinResult{RecordID: rec.ID, Warning: warning}, nil
}
