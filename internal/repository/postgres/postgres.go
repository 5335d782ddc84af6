package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Revixit-Net/discord-bot/internal/repository"
)

// uniqueViolation is the PostgreSQL error code for unique constraint violations.
const uniqueViolation = "23505"

type pgExecutor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// pgPool is the surface repositories need from pgxpool.Pool; pgxmock
// satisfies it too.
type pgPool interface {
	pgExecutor
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
}

// mapWriteError converts uniqueness violations to repository.ErrDuplicate so
// callers do not depend on pgconn.
func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return repository.ErrDuplicate
	}
	return err
}
