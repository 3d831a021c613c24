// Package sqlstore implements the workflow store on a relational database
// through sqlx. Postgres (lib/pq) is the production dialect; SQLite
// (mattn/go-sqlite3) serves local development and tests. Queries are written
// with ? placeholders and rebound for the active driver.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/pavingco/driveway-api/internal/core/domain"
	"github.com/pavingco/driveway-api/internal/core/ports"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"

	defaultTimeout = 5 * time.Second
)

// Config captures the settings for establishing the relational connection pool.
type Config struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	Timeout         time.Duration
}

// Store is the explicitly constructed store handle passed to the services.
type Store struct {
	db     *sqlx.DB
	logger zerolog.Logger
}

// Open connects to the database, verifies connectivity with a ping and
// applies the pool settings. A default timeout is applied when none is provided.
func Open(ctx context.Context, cfg Config, logger zerolog.Logger) (*Store, error) {
	if cfg.Driver != DriverPostgres && cfg.Driver != DriverSQLite {
		return nil, fmt.Errorf("sqlstore: unsupported driver %q", cfg.Driver)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	db, err := sqlx.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("sqlstore open: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlstore ping: %w", err)
	}

	return New(db, logger), nil
}

// New wraps an existing connection pool.
func New(db *sqlx.DB, logger zerolog.Logger) *Store {
	return &Store{db: db, logger: logger}
}

func (s *Store) DB() *sqlx.DB { return s.db }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) Clients() ports.ClientRepository { return &clientRepository{q: s.db} }
func (s *Store) Quotes() ports.QuoteRepository   { return &quoteRepository{q: s.db} }
func (s *Store) Orders() ports.OrderRepository   { return &orderRepository{q: s.db} }
func (s *Store) Bills() ports.BillRepository     { return &billRepository{q: s.db} }

// WithinTx runs fn inside one database transaction at the driver's default
// isolation level. Any error or panic from fn rolls the transaction back.
// Failures that are not workflow errors are reported as domain.ErrTransaction.
func (s *Store) WithinTx(ctx context.Context, fn func(repo ports.WorkflowRepository) error) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %w", domain.ErrTransaction, err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(txRepository{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			s.logger.Warn().Err(rbErr).Msg("transaction rollback failed")
		}
		if isWorkflowError(err) {
			return err
		}
		return fmt.Errorf("%w: %w", domain.ErrTransaction, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %w", domain.ErrTransaction, err)
	}
	return nil
}

type txRepository struct {
	tx *sqlx.Tx
}

func (r txRepository) Clients() ports.ClientRepository { return &clientRepository{q: r.tx} }
func (r txRepository) Quotes() ports.QuoteRepository   { return &quoteRepository{q: r.tx} }
func (r txRepository) Orders() ports.OrderRepository   { return &orderRepository{q: r.tx} }
func (r txRepository) Bills() ports.BillRepository     { return &billRepository{q: r.tx} }

var workflowErrors = []error{
	domain.ErrValidation,
	domain.ErrForbidden,
	domain.ErrClientNotFound,
	domain.ErrQuoteNotFound,
	domain.ErrOrderNotFound,
	domain.ErrBillNotFound,
	domain.ErrInvalidTransition,
	domain.ErrUserExists,
	domain.ErrOrderExists,
	domain.ErrBillExists,
}

func isWorkflowError(err error) bool {
	for _, target := range workflowErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23503"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}
	return false
}

// guardedUpdate executes a compare-and-set UPDATE. Zero affected rows means
// the row is gone (notFound) or its status moved on (ErrInvalidTransition).
func guardedUpdate(ctx context.Context, q sqlx.ExtContext, table string, id int64, notFound error, query string, args ...any) error {
	res, err := q.ExecContext(ctx, q.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s: %w", table, err)
	}
	if n > 0 {
		return nil
	}

	var exists int
	if err := sqlx.GetContext(ctx, q, &exists, q.Rebind("SELECT COUNT(1) FROM "+table+" WHERE id = ?"), id); err != nil {
		return fmt.Errorf("update %s: %w", table, err)
	}
	if exists == 0 {
		return notFound
	}
	return fmt.Errorf("%w: %s %d changed concurrently", domain.ErrInvalidTransition, table, id)
}
