package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/energiek/dynamic-pricing/internal/pkg/model"
)

func TestChain_FallsBackWhenPrimaryFails(t *testing.T) {
	primary := &mockFetcher{
		PricesFunc: func(context.Context, model.Commodity, time.Time) (model.PriceObservations, error) {
			return nil, errors.New("status 500")
		},
	}
	secondary := happyFetcher()

	obs, err := Chain{primary, secondary}.Prices(context.Background(), model.CommodityElectricity, time.Now().UTC())
	require.NoError(t, err)
	assert.Len(t, obs, 24)
}

func TestChain_FallsBackWhenPrimaryEmpty(t *testing.T) {
	primary := &mockFetcher{
		PricesFunc: func(context.Context, model.Commodity, time.Time) (model.PriceObservations, error) {
			return model.PriceObservations{}, nil
		},
	}
	secondary := happyFetcher()

	obs, err := Chain{primary, secondary}.Prices(context.Background(), model.CommodityElectricity, time.Now().UTC())
	require.NoError(t, err)
	assert.NotEmpty(t, obs)
}

func TestChain_PrimaryShortCircuits(t *testing.T) {
	var secondaryCalls int
	secondary := &mockFetcher{
		PricesFunc: func(context.Context, model.Commodity, time.Time) (model.PriceObservations, error) {
			secondaryCalls++
			return nil, errors.New("should not be reached")
		},
	}

	obs, err := Chain{happyFetcher(), secondary}.Prices(context.Background(), model.CommodityElectricity, time.Now().UTC())
	require.NoError(t, err)
	assert.NotEmpty(t, obs)
	assert.Zero(t, secondaryCalls)
}

func TestChain_AllSourcesFail(t *testing.T) {
	failing := &mockFetcher{
		PricesFunc: func(context.Context, model.Commodity, time.Time) (model.PriceObservations, error) {
			return nil, errors.New("status 502")
		},
	}

	_, err := Chain{failing, failing}.Prices(context.Background(), model.CommodityElectricity, time.Now().UTC())
	assert.Error(t, err)
}

// An electricity-only secondary keeps a full refresh going through a
// primary outage: electricity comes from the backup source, the missing
// gas feed degrades each row to the configured fallback figures.
func TestRefreshWindow_SecondarySourceCoversPrimaryOutage(t *testing.T) {
	primary := &mockFetcher{
		PricesFunc: func(context.Context, model.Commodity, time.Time) (model.PriceObservations, error) {
			return nil, errors.New("status 500")
		},
	}
	secondary := &mockFetcher{
		PricesFunc: func(_ context.Context, commodity model.Commodity, _ time.Time) (model.PriceObservations, error) {
			if commodity == model.CommodityGas {
				return nil, errors.New("no gas feed")
			}
			return observations(commodity, 0.25), nil
		},
	}
	store := newMockStore()
	o := newTestOrchestrator(t, Chain{primary, secondary}, store, Config{})

	report, err := o.RefreshWindow(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Stored)
	for _, row := range store.rows {
		assert.Equal(t, model.SourceFallback, row.Source)
		assert.InDelta(t, 0.25, row.Electricity.DayAverage, 1e-9)
		assert.InDelta(t, 0.80, row.Gas.Average, 1e-9)
	}
}
