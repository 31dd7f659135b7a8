package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when no aggregate exists for the requested date.
// Callers must surface this as "no quote available", never as a zero price.
var ErrNotFound = errors.New("no daily price aggregate for date")

type Database struct {
	pool *pgxpool.Pool
}

func NewDatabase(ctx context.Context, pool *pgxpool.Pool) *Database {
	initialise(ctx, pool)
	return &Database{
		pool: pool,
	}
}

func initialise(ctx context.Context, pool *pgxpool.Pool) {
	const createDynamicPricesTableSQL = `
CREATE TABLE IF NOT EXISTS dynamic_prices (
    date DATE PRIMARY KEY,
    electricity_day_avg DOUBLE PRECISION NOT NULL,
    electricity_night_avg DOUBLE PRECISION NOT NULL,
    electricity_min DOUBLE PRECISION NOT NULL,
    electricity_max DOUBLE PRECISION NOT NULL,
    gas_avg DOUBLE PRECISION NOT NULL,
    gas_min DOUBLE PRECISION NOT NULL,
    gas_max DOUBLE PRECISION NOT NULL,
    source TEXT NOT NULL,
    is_forecast BOOLEAN NOT NULL DEFAULT FALSE,
    last_refreshed_at TIMESTAMP WITH TIME ZONE NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_dynamic_prices_source ON dynamic_prices (source);
`
	if _, err := pool.Exec(ctx, createDynamicPricesTableSQL); err != nil {
		panic(err)
	}
}

func (db *Database) Close() error {
	if db.pool == nil {
		return nil
	}
	db.pool.Close()
	return nil
}
