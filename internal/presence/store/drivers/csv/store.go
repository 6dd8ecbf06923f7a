// Package csv implements the record sink as daily comma-separated collector
// files plus a JSON-lines override audit log, the format the original
// course-tooling scripts consume.
package csv

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rollcallhq/presence/internal/presence/domain"
	"github.com/rollcallhq/presence/internal/presence/store"
)

var checkinHeader = []string{
	"ts_utc", "sid", "phase", "student_id", "ip", "user_agent", "device_id", "module", "group", "flagged",
}

// Store appends check-ins to one CSV file per UTC day and override audit
// records to a single append-only log. A mutex serialises writers; files are
// opened per append so external log rotation stays safe.
type Store struct {
	dir string
	mu  sync.Mutex
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// ApplyMigrations creates the data directory. Kept under the migration name
// so both drivers initialise the same way.
func (s *Store) ApplyMigrations() error {
	return os.MkdirAll(s.dir, 0o750)
}

func (s *Store) Ping(ctx context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("csv: %s is not a directory", s.dir)
	}
	return nil
}

func (s *Store) Close() error { return nil }

func (s *Store) Checkins() store.Checkins           { return &checkinsRepo{s: s} }
func (s *Store) OverrideAudit() store.OverrideAudit { return &overrideAuditRepo{s: s} }

// dailyPath returns the check-in file for the given UTC day, e.g. 2026-09-01.csv.
func (s *Store) dailyPath(t time.Time) string {
	return filepath.Join(s.dir, t.UTC().Format("2006-01-02")+".csv")
}

type checkinsRepo struct {
	s *Store
}

func (r *checkinsRepo) Append(ctx context.Context, rec domain.CheckinRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	path := r.s.dailyPath(rec.Timestamp)
	_, statErr := os.Stat(path)
	fresh := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if fresh {
		if err := w.Write(checkinHeader); err != nil {
			return err
		}
	}

	flagged := "0"
	if rec.Flagged {
		flagged = "1"
	}
	row := []string{
		rec.Timestamp.UTC().Format(time.RFC3339),
		rec.SID,
		string(rec.Phase),
		rec.StudentID,
		rec.IP,
		rec.UserAgent,
		rec.DeviceID,
		rec.Module,
		rec.Group,
		flagged,
	}
	if err := w.Write(row); err != nil {
		return err
	}

	w.Flush()
	return w.Error()
}

// CountBySession only sees the current day's file; older days belong to the
// offline tooling.
func (r *checkinsRepo) CountBySession(ctx context.Context, sid string, phase domain.Phase) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	f, err := os.Open(r.s.dailyPath(time.Now()))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	count := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}
		if len(row) >= 3 && row[1] == sid && row[2] == string(phase) {
			count++
		}
	}
	return count, nil
}

type overrideAuditRepo struct {
	s *Store
}

type auditLine struct {
	TsUTC           string `json:"ts_utc"`
	OverrideID      string `json:"override_id"`
	SID             string `json:"sid"`
	Module          string `json:"module,omitempty"`
	Group           string `json:"group,omitempty"`
	Phase           string `json:"phase"`
	StudentID       string `json:"student_id,omitempty"`
	DeviceID        string `json:"device_id,omitempty"`
	VerificationID  string `json:"verification_id,omitempty"`
	PasswordVersion string `json:"password_version,omitempty"`
}

func (r *overrideAuditRepo) Append(ctx context.Context, rec domain.OverrideAuditRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	f, err := os.OpenFile(
		filepath.Join(r.s.dir, "override-audit.log"),
		os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640,
	)
	if err != nil {
		return err
	}
	defer f.Close()

	line, err := json.Marshal(auditLine{
		TsUTC:           rec.Timestamp.UTC().Format(time.RFC3339),
		OverrideID:      rec.OverrideID,
		SID:             rec.SID,
		Module:          rec.Module,
		Group:           rec.Group,
		Phase:           string(rec.Phase),
		StudentID:       rec.StudentID,
		DeviceID:        rec.DeviceID,
		VerificationID:  rec.VerificationID,
		PasswordVersion: rec.PasswordVersion,
	})
	if err != nil {
		return err
	}

	_, err = f.Write(append(line, '\n'))
	return err
}
