package database

import (
	"context"
	"time"
)

// Cleanup removes aggregates older than the retention horizon. The
// catalog only ever charts a few years back, so rows beyond that are
// dead weight for the range scans.
func (db *Database) Cleanup(ctx context.Context, retentionYears int) error {
	horizon := time.Now().UTC().AddDate(-retentionYears, 0, 0)
	if _, err := db.pool.Exec(ctx, "DELETE FROM dynamic_prices WHERE date < $1", horizon.Format(time.DateOnly)); err != nil {
		return err
	}
	return nil
}
