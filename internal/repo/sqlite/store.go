// Package sqlite is the embedded store backend on modernc.org/sqlite. It is
// used for local development and by the end-to-end tests.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/geocoder89/fieldops/internal/observability"
	"github.com/geocoder89/fieldops/internal/repo"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var _ repo.Store = (*Store)(nil)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db   *sql.DB
	prom *observability.Prom
}

func New(db *sql.DB, prom *observability.Prom) *Store {
	return &Store{db: db, prom: prom}
}

func (s *Store) observe(op string, fn func() error) error {
	return s.prom.ObserveDB(op, fn)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

// inTx runs fn in a transaction that is rolled back unless fn and the
// commit both succeed.
func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}

	return tx.Commit()
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}

func exists(ctx context.Context, q querier, query string, id int64) (bool, error) {
	var found int
	err := q.QueryRowContext(ctx, query, id).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func toUnix(t time.Time) int64 {
	return t.UTC().UnixNano()
}

func fromUnix(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

func affectedOrNotFound(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
