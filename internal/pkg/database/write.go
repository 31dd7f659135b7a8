package database

import (
	"context"
	"time"

	"github.com/energiek/dynamic-pricing/internal/pkg/model"
)

// UpsertDailyPrice writes one date's aggregate. A write for an existing
// date fully replaces the row and bumps last_refreshed_at; there is no
// history. The single statement keeps each row write atomic, so a
// concurrent read never observes electricity fields from one write and
// gas fields from another.
func (db *Database) UpsertDailyPrice(ctx context.Context, aggregate model.DailyPriceAggregate) error {
	const upsertSQL = `
	INSERT INTO dynamic_prices (
		date, electricity_day_avg, electricity_night_avg, electricity_min, electricity_max,
		gas_avg, gas_min, gas_max, source, is_forecast, last_refreshed_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (date) DO UPDATE SET
		electricity_day_avg = EXCLUDED.electricity_day_avg,
		electricity_night_avg = EXCLUDED.electricity_night_avg,
		electricity_min = EXCLUDED.electricity_min,
		electricity_max = EXCLUDED.electricity_max,
		gas_avg = EXCLUDED.gas_avg,
		gas_min = EXCLUDED.gas_min,
		gas_max = EXCLUDED.gas_max,
		source = EXCLUDED.source,
		is_forecast = EXCLUDED.is_forecast,
		last_refreshed_at = EXCLUDED.last_refreshed_at;
	`
	refreshedAt := aggregate.LastRefreshedAt
	if refreshedAt.IsZero() {
		refreshedAt = time.Now().UTC()
	}
	if _, err := db.pool.Exec(ctx, upsertSQL,
		aggregate.Date.UTC().Format(time.DateOnly),
		aggregate.Electricity.DayAverage,
		aggregate.Electricity.NightAverage,
		aggregate.Electricity.Min,
		aggregate.Electricity.Max,
		aggregate.Gas.Average,
		aggregate.Gas.Min,
		aggregate.Gas.Max,
		string(aggregate.Source),
		aggregate.IsForecast,
		refreshedAt,
	); err != nil {
		return err
	}
	return nil
}
