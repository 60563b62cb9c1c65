package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type pgRepos struct {
	db DBTX
}

func (r pgRepos) Products() ProductRepository     { return &productRepo{db: r.db} }
func (r pgRepos) Categories() CategoryRepository  { return &categoryRepo{db: r.db} }
func (r pgRepos) Users() UserRepository           { return &userRepo{db: r.db} }
func (r pgRepos) Carts() CartRepository           { return &cartRepo{db: r.db} }
func (r pgRepos) Orders() OrderRepository         { return &orderRepo{db: r.db} }
func (r pgRepos) Operations() OperationRepository { return &operationRepo{db: r.db} }

type PgStore struct {
	pgRepos
	pool      *pgxpool.Pool
	txTimeout time.Duration
}

func NewPgStore(pool *pgxpool.Pool, txTimeout time.Duration) *PgStore {
	return &PgStore{
		pgRepos:   pgRepos{db: pool},
		pool:      pool,
		txTimeout: txTimeout,
	}
}

func (s *PgStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	if s.txTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.txTimeout)
		defer cancel()
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %w", ErrConflict, err)
	}
	defer tx.Rollback(ctx)

	if err := fn(pgRepos{db: tx}); err != nil {
		return classifyTxError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: failed to commit transaction: %w", ErrConflict, err)
	}

	return nil
}

func (s *PgStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PgStore) Close() {
	s.pool.Close()
}

// classifyTxError turns lock and serialization failures into ErrConflict and
// leaves business errors untouched.
func classifyTxError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "55P03", "23514":
			return fmt.Errorf("%w: %w", ErrConflict, err)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrConflict, err)
	}
	return err
}

func isUniqueViolation(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return pgErr, true
	}
	return nil, false
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
