package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/rollcallhq/presence/internal/presence/domain"
)

type checkinsRepo struct {
	db *sql.DB
}

func (r *checkinsRepo) Append(ctx context.Context, rec domain.CheckinRecord) error {
	flagged := 0
	if rec.Flagged {
		flagged = 1
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO checkins (id, ts_utc, sid, phase, student_id, ip, user_agent, device_id, module, grp, flagged)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.Timestamp.UTC().Format(time.RFC3339Nano),
		rec.SID,
		string(rec.Phase),
		rec.StudentID,
		rec.IP,
		rec.UserAgent,
		rec.DeviceID,
		rec.Module,
		rec.Group,
		flagged,
	)
	return err
}

func (r *checkinsRepo) CountBySession(ctx context.Context, sid string, phase domain.Phase) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM checkins WHERE sid = ? AND phase = ?`,
		sid, string(phase),
	).Scan(&count)
	return count, err
}
