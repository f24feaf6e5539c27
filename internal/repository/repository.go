package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// RepoExtension is satisfied by *pgxpool.Pool and pgx.Tx.
type RepoExtension interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB is a RepoExtension that can also be pinged, e.g. *pgxpool.Pool.
type DB interface {
	RepoExtension
	Ping(ctx context.Context) error
}
