package database

import (
	"context"
	"errors"
)

// Driver errors are translated to these so repositories stay driver-agnostic.
var (
	ErrNoRows          = errors.New("no rows in result set")
	ErrUniqueViolation = errors.New("unique constraint violation")
	ErrNilDB           = errors.New("nil db")
)

type Querier interface {
	Exec(ctx context.Context, query string, args ...any) (int64, error)
	Query(ctx context.Context, query string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, query string, args ...any) Row
}

type DB interface {
	Querier

	Ping(ctx context.Context) error
	Close() error
	Begin(ctx context.Context) (Tx, error)
}

type Tx interface {
	Querier

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type Rows interface {
	Close()
	Next() bool
	Scan(dest ...any) error
	Err() error
}

type Row interface {
	Scan(dest ...any) error
}
