package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/rollcallhq/presence/internal/presence/domain"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

func TestCheckinsAppendAndCount(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	rec := domain.CheckinRecord{
		ID:        "01JTESTREC0000000000000000",
		Timestamp: time.Now().UTC(),
		SID:       "lecture-42",
		Phase:     domain.PhaseStart,
		StudentID: "900001",
		IP:        "203.0.113.7",
		UserAgent: "Mozilla/5.0",
		DeviceID:  "dev-9",
	}
	require.NoError(t, s.Checkins().Append(ctx, rec))

	rec.ID = "01JTESTREC0000000000000001"
	rec.StudentID = "900002"
	rec.Flagged = true
	require.NoError(t, s.Checkins().Append(ctx, rec))

	count, err := s.Checkins().CountBySession(ctx, "lecture-42", domain.PhaseStart)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	count, err = s.Checkins().CountBySession(ctx, "lecture-42", domain.PhaseEnd)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestCheckinsDuplicateIDRejected(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	rec := domain.CheckinRecord{
		ID:        "01JTESTREC0000000000000002",
		Timestamp: time.Now().UTC(),
		SID:       "lecture-42",
		Phase:     domain.PhaseStart,
		StudentID: "900001",
	}
	require.NoError(t, s.Checkins().Append(ctx, rec))
	require.Error(t, s.Checkins().Append(ctx, rec))
}

func TestOverrideAuditAppend(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	rec := domain.OverrideAuditRecord{
		OverrideID:      "01JTESTOVR0000000000000000",
		Timestamp:       time.Now().UTC(),
		SID:             "lecture-42",
		Phase:           domain.PhaseStart,
		StudentID:       "900001",
		DeviceID:        "dev-9",
		VerificationID:  "tok-1",
		PasswordVersion: "v2",
	}
	require.NoError(t, s.OverrideAudit().Append(ctx, rec))

	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM override_audit WHERE sid = ?`, "lecture-42").Scan(&count)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}
