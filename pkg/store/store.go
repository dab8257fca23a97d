// Package store provides access to the relational warehouse the
// benchmark queries run against. The harness measures raw SQL
// round-trips on a single dedicated connection, so the gorm handle is
// only used to establish the pool; all query execution goes through
// database/sql directly.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Mrcocacola21/nyc-taxi-dwh-pipeline/pkg/config"
)

// Store hands out dedicated sessions against the warehouse.
type Store interface {
	// Session acquires one dedicated connection. The caller owns it for
	// the whole benchmark invocation and must Close it.
	Session(ctx context.Context) (Session, error)

	Close() error
}

// Session is a single warehouse connection used exclusively by one
// benchmark invocation.
type Session interface {
	// ExecDrain executes the statement and fully drains any result rows,
	// so the backend executes to completion rather than just accepting
	// the statement.
	ExecDrain(ctx context.Context, query string) error

	// Count returns the row count of a relation.
	Count(ctx context.Context, relation string) (int64, error)

	// DistinctBatchIDs returns the sorted distinct non-null batch ids
	// present in a relation.
	DistinctBatchIDs(ctx context.Context, relation string) ([]string, error)

	// Quiet disables query-plan-affecting session features that add
	// timing noise. Best-effort; the caller treats failure as non-fatal.
	Quiet(ctx context.Context) error

	Close() error
}

// Compile-time interface checks.
var (
	_ Store   = (*store)(nil)
	_ Session = (*session)(nil)
)

type store struct {
	log logrus.FieldLogger
	db  *sql.DB
}

// Open connects to the warehouse described by cfg.
func Open(log logrus.FieldLogger, cfg *config.StoreConfig) (Store, error) {
	gormDB, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Discard,
	})
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	db, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("getting underlying db: %w", err)
	}

	return NewWithDB(log, db), nil
}

// NewWithDB wraps an existing database handle. Used by tests to
// substitute a fake store.
func NewWithDB(log logrus.FieldLogger, db *sql.DB) Store {
	return &store{
		log: log.WithField("component", "store"),
		db:  db,
	}
}

func (s *store) Session(ctx context.Context) (Session, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring connection: %w", err)
	}

	return &session{conn: conn}, nil
}

func (s *store) Close() error {
	return s.db.Close()
}

type session struct {
	conn *sql.Conn
}

func (s *session) ExecDrain(ctx context.Context, query string) error {
	rows, err := s.conn.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("executing query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		// Drain only; results are discarded.
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("draining rows: %w", err)
	}

	return rows.Close()
}

func (s *session) Count(ctx context.Context, relation string) (int64, error) {
	var count int64

	query := fmt.Sprintf("select count(*) from %s", relation)
	if err := s.conn.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting %s: %w", relation, err)
	}

	return count, nil
}

func (s *session) DistinctBatchIDs(ctx context.Context, relation string) ([]string, error) {
	query := fmt.Sprintf(
		"select distinct batch_id::text from %s where batch_id is not null order by 1",
		relation,
	)

	rows, err := s.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("scanning batch ids in %s: %w", relation, err)
	}
	defer rows.Close()

	ids := make([]string, 0)

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning batch id: %w", err)
		}

		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading batch ids: %w", err)
	}

	return ids, nil
}

func (s *session) Quiet(ctx context.Context) error {
	// JIT compilation skews the first measured iterations.
	if _, err := s.conn.ExecContext(ctx, "SET jit = off"); err != nil {
		return fmt.Errorf("disabling jit: %w", err)
	}

	return nil
}

func (s *session) Close() error {
	return s.conn.Close()
}
