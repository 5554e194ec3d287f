package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"staff-match/internal/config"
	"staff-match/internal/database"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSN_DefaultsPort(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{DBHost: " db ", DBName: "staff", DBUser: "app", DBPassword: "pw", DBSSLMode: "disable"})
	assert.Equal(t, "host=db port=5432 user=app password=pw dbname=staff sslmode=disable", dsn)
}

func TestPoolConfig_AppliesTuning(t *testing.T) {
	pcfg, err := poolConfig(config.DatabaseConfig{
		DBHost: "localhost", DBName: "staff", DBUser: "app", DBSSLMode: "disable",
		ConnectTimeout:      3 * time.Second,
		PoolMaxConns:        12,
		PoolMinConns:        2,
		PoolMaxConnLifetime: time.Hour,
	})
	require.NoError(t, err)
	assert.Equal(t, int32(12), pcfg.MaxConns)
	assert.Equal(t, int32(2), pcfg.MinConns)
	assert.Equal(t, time.Hour, pcfg.MaxConnLifetime)
	assert.Equal(t, 3*time.Second, pcfg.ConnConfig.ConnectTimeout)
}

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate(nil))

	err := translate(fmt.Errorf("scan: %w", pgx.ErrNoRows))
	assert.ErrorIs(t, err, database.ErrNoRows)

	err = translate(&pgconn.PgError{Code: "23505", ConstraintName: "uq_match_feedback"})
	assert.ErrorIs(t, err, database.ErrUniqueViolation)
	assert.Contains(t, err.Error(), "uq_match_feedback")
	var pgErr *pgconn.PgError
	assert.True(t, errors.As(err, &pgErr))

	other := errors.New("boom")
	assert.Same(t, other, translate(other))
}

func TestNilPool(t *testing.T) {
	var p *Pool
	ctx := context.Background()
	assert.ErrorIs(t, p.Ping(ctx), database.ErrNilDB)
	_, err := p.Exec(ctx, "SELECT 1")
	assert.ErrorIs(t, err, database.ErrNilDB)
	assert.ErrorIs(t, p.QueryRow(ctx, "SELECT 1").Scan(), database.ErrNilDB)
	assert.NoError(t, p.Close())
}
