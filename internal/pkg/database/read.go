package database

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/energiek/dynamic-pricing/internal/pkg/model"
)

const aggregateColumns = `
	date, electricity_day_avg, electricity_night_avg, electricity_min, electricity_max,
	gas_avg, gas_min, gas_max, source, is_forecast, last_refreshed_at`

func (db *Database) GetDailyPrice(ctx context.Context, date time.Time) (*model.DailyPriceAggregate, error) {
	const query = `
	SELECT ` + aggregateColumns + `
	FROM dynamic_prices
	WHERE date = $1;
	`

	row := db.pool.QueryRow(ctx, query, date.UTC().Format(time.DateOnly))
	aggregate, err := scanDailyPrice(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return aggregate, nil
}

// GetLatestDailyPrice returns the most recent row, used by the quote path
// to answer "what do prices look like right now".
func (db *Database) GetLatestDailyPrice(ctx context.Context) (*model.DailyPriceAggregate, error) {
	const query = `
	SELECT ` + aggregateColumns + `
	FROM dynamic_prices
	ORDER BY date DESC
	LIMIT 1;
	`

	row := db.pool.QueryRow(ctx, query)
	aggregate, err := scanDailyPrice(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return aggregate, nil
}

func (db *Database) ListDailyPrices(ctx context.Context, from, to time.Time) (model.DailyPriceAggregates, error) {
	const query = `
	SELECT ` + aggregateColumns + `
	FROM dynamic_prices
	WHERE date BETWEEN $1 AND $2
	ORDER BY date DESC;
	`

	rows, err := db.pool.Query(ctx, query, from.UTC().Format(time.DateOnly), to.UTC().Format(time.DateOnly))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanDailyPrices(rows)
}

// ListDailyPricesBySource drives fallback reconciliation: rows written
// with source=FALLBACK are re-fetched once the market API is back.
func (db *Database) ListDailyPricesBySource(ctx context.Context, source model.Source) (model.DailyPriceAggregates, error) {
	const query = `
	SELECT ` + aggregateColumns + `
	FROM dynamic_prices
	WHERE source = $1
	ORDER BY date DESC;
	`

	rows, err := db.pool.Query(ctx, query, string(source))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanDailyPrices(rows)
}

func scanDailyPrice(row pgx.Row) (*model.DailyPriceAggregate, error) {
	aggregate := model.DailyPriceAggregate{}
	var source string
	if err := row.Scan(
		&aggregate.Date,
		&aggregate.Electricity.DayAverage,
		&aggregate.Electricity.NightAverage,
		&aggregate.Electricity.Min,
		&aggregate.Electricity.Max,
		&aggregate.Gas.Average,
		&aggregate.Gas.Min,
		&aggregate.Gas.Max,
		&source,
		&aggregate.IsForecast,
		&aggregate.LastRefreshedAt,
	); err != nil {
		return nil, err
	}
	aggregate.Source = model.Source(source)
	return &aggregate, nil
}

func scanDailyPrices(rows pgx.Rows) (model.DailyPriceAggregates, error) {
	var aggregates model.DailyPriceAggregates
	for rows.Next() {
		aggregate, err := scanDailyPrice(rows)
		if err != nil {
			return nil, err
		}
		aggregates = append(aggregates, *aggregate)
	}

	if err := rows.Err(); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return aggregates, nil
		}
		return nil, err
	}

	return aggregates, nil
}
