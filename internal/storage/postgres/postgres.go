package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"yamdb/proj/internal/storage"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresDB struct {
	Conn *pgxpool.Pool
}

const (
	ErrConflictCode   = "23505"
	ErrForeignKeyCode = "23503"
)

func New(ctx context.Context, storagePath string, maxConns int, maxConnIdleTime time.Duration) (*PostgresDB, error) {
	poolCfg, err := pgxpool.ParseConfig(storagePath)
	if err != nil {
		return nil, fmt.Errorf("parsing dsn: %w", err)
	}
	if maxConns > 0 {
		poolCfg.MaxConns = int32(maxConns)
	}
	if maxConnIdleTime > 0 {
		poolCfg.MaxConnIdleTime = maxConnIdleTime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresDB{Conn: pool}, nil
}

func (db *PostgresDB) Close() {
	db.Conn.Close()
}

// MapError translates driver errors into storage errors.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case ErrConflictCode:
			return &storage.ConstraintError{Err: storage.ErrConflict, Constraint: pgErr.ConstraintName}
		case ErrForeignKeyCode:
			return &storage.ConstraintError{Err: storage.ErrInvalidReference, Constraint: pgErr.ConstraintName}
		}
	}
	return err
}
