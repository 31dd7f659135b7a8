package orchestrator

import (
	"context"
	"time"

	"github.com/energiek/dynamic-pricing/internal/pkg/model"
)

// Fetcher is an outbound market price source.
type Fetcher interface {
	Prices(ctx context.Context, commodity model.Commodity, date time.Time) (model.PriceObservations, error)
}

// Chain tries each source in order and returns the first answer that
// carries observations. Later sources back up the primary during
// outages; a source that errors or returns an empty set is skipped. A
// source without a feed for the commodity counts as an outage, so a
// gas fetch through an electricity-only secondary still falls through
// to the per-date fallback handling.
type Chain []Fetcher

func (c Chain) Prices(ctx context.Context, commodity model.Commodity, date time.Time) (model.PriceObservations, error) {
	var observations model.PriceObservations
	var err error
	for _, source := range c {
		observations, err = source.Prices(ctx, commodity, date)
		if err == nil && len(observations) > 0 {
			return observations, nil
		}
	}
	return observations, err
}
