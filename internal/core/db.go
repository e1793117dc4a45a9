package core

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool the services depend on. Tests substitute
// a mock.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Sentinel errors handlers branch on when choosing a status code.
var (
	ErrNotFound      = errors.New("not found")
	ErrLastKey       = errors.New("a user must keep at least one API key")
	ErrInvalidPeriod = errors.New("invalid period")
)
