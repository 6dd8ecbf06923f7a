package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/rollcallhq/presence/internal/presence/domain"
	"github.com/rollcallhq/presence/internal/presence/service"
	"github.com/rollcallhq/presence/pkg/cryptox"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// auditRecorder captures audit lines, optionally failing every append.
type auditRecorder struct {
	records []domain.OverrideAuditRecord
	fail    bool
}

func (a *auditRecorder) Append(_ context.Context, rec domain.OverrideAuditRecord) error {
	if a.fail {
		return errors.New("disk full")
	}
	a.records = append(a.records, rec)
	return nil
}

func TestOverrideVerifySecret(t *testing.T) {
	t.Parallel()

	t.Run("argon2id hash", func(t *testing.T) {
		hash, err := cryptox.HashPassword("staff-room-7")
		require.NoError(t, err)

		svc := service.NewOverrideService(time.Minute, service.OverrideSecrets{
			SecretHash: hash,
		}, nil, discardLogger())

		require.True(t, svc.Available())
		require.True(t, svc.VerifySecret("staff-room-7"))
		require.False(t, svc.VerifySecret("wrong"))
	})

	t.Run("plaintext fallback", func(t *testing.T) {
		svc := service.NewOverrideService(time.Minute, service.OverrideSecrets{
			Secret: "staff-room-7",
		}, nil, discardLogger())

		require.True(t, svc.VerifySecret("staff-room-7"))
		require.False(t, svc.VerifySecret("staff-room-8"))
	})

	t.Run("totp", func(t *testing.T) {
		const secret = "JBSWY3DPEHPK3PXP"

		code, err := totp.GenerateCode(secret, time.Now())
		require.NoError(t, err)

		svc := service.NewOverrideService(time.Minute, service.OverrideSecrets{
			TOTPSecret: secret,
		}, nil, discardLogger())

		require.True(t, svc.VerifySecret(code))
		require.False(t, svc.VerifySecret("000000"))
	})

	t.Run("nothing configured", func(t *testing.T) {
		svc := service.NewOverrideService(time.Minute, service.OverrideSecrets{}, nil, discardLogger())
		require.False(t, svc.Available())
		require.False(t, svc.VerifySecret("anything"))
	})

	t.Run("empty secret always rejected", func(t *testing.T) {
		svc := service.NewOverrideService(time.Minute, service.OverrideSecrets{
			Secret: "",
		}, nil, discardLogger())
		require.False(t, svc.VerifySecret(""))
	})
}

func TestOverrideRegisterAndConsume(t *testing.T) {
	t.Parallel()

	svc := service.NewOverrideService(time.Minute, service.OverrideSecrets{Secret: "x"}, nil, discardLogger())

	meta := domain.OverrideMeta{SID: "lecture-42", Phase: domain.PhaseStart, Module: "CS101"}
	overrideID := svc.Register("token-1", meta)
	require.NotEmpty(t, overrideID)

	rec, ok := svc.Consume("token-1")
	require.True(t, ok)
	require.Equal(t, overrideID, rec.OverrideID)
	require.Equal(t, meta, rec.Meta)

	_, ok = svc.Consume("token-1")
	require.False(t, ok, "an override spends exactly once")

	_, ok = svc.Consume("token-2")
	require.False(t, ok)
}

func TestOverrideExpiry(t *testing.T) {
	t.Parallel()

	svc := service.NewOverrideService(30*time.Millisecond, service.OverrideSecrets{Secret: "x"}, nil, discardLogger())

	svc.Register("token-1", domain.OverrideMeta{SID: "lecture-42"})
	time.Sleep(50 * time.Millisecond)

	_, ok := svc.Consume("token-1")
	require.False(t, ok)
}

func TestOverrideLogUsage(t *testing.T) {
	t.Parallel()

	rec := domain.OverrideAuditRecord{
		OverrideID: "ovr-1",
		SID:        "lecture-42",
		Phase:      domain.PhaseStart,
		StudentID:  "900001",
	}

	t.Run("appends to the trail", func(t *testing.T) {
		audit := &auditRecorder{}
		svc := service.NewOverrideService(time.Minute, service.OverrideSecrets{Secret: "x"}, audit, discardLogger())

		svc.LogUsage(context.Background(), rec)
		require.Len(t, audit.records, 1)
		require.Equal(t, "ovr-1", audit.records[0].OverrideID)
	})

	t.Run("sink failure does not panic", func(t *testing.T) {
		audit := &auditRecorder{fail: true}
		svc := service.NewOverrideService(time.Minute, service.OverrideSecrets{Secret: "x"}, audit, discardLogger())

		svc.LogUsage(context.Background(), rec)
		require.Empty(t, audit.records)
	})

	t.Run("nil sink does not panic", func(t *testing.T) {
		svc := service.NewOverrideService(time.Minute, service.OverrideSecrets{Secret: "x"}, nil, discardLogger())
		svc.LogUsage(context.Background(), rec)
	})
}
