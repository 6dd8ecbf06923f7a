package sqlite

import (
	"context"
	"database/sql"

	"github.com/rollcallhq/presence/internal/presence/store"

	_ "modernc.org/sqlite"
)

// Store is the sqlite-backed record sink. The database only holds the
// durable artifacts of a session (check-in rows, override audit); all
// verification state stays in memory.
type Store struct {
	db  *sql.DB
	dsn string
}

func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// Appends from concurrent handlers share one writer
	db.SetMaxOpenConns(1)

	return &Store{db: db, dsn: dsn}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Checkins() store.Checkins           { return &checkinsRepo{db: s.db} }
func (s *Store) OverrideAudit() store.OverrideAudit { return &overrideAuditRepo{db: s.db} }
