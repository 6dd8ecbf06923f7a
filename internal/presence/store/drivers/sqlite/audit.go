package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/rollcallhq/presence/internal/presence/domain"
)

type overrideAuditRepo struct {
	db *sql.DB
}

func (r *overrideAuditRepo) Append(ctx context.Context, rec domain.OverrideAuditRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO override_audit (override_id, ts_utc, sid, phase, module, grp, student_id, device_id, verification_id, password_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.OverrideID,
		rec.Timestamp.UTC().Format(time.RFC3339Nano),
		rec.SID,
		string(rec.Phase),
		rec.Module,
		rec.Group,
		rec.StudentID,
		rec.DeviceID,
		rec.VerificationID,
		rec.PasswordVersion,
	)
	return err
}
