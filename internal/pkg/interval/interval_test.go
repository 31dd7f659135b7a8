package interval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/energiek/dynamic-pricing/internal/pkg/model"
)

func hourlyObservations(prices []float64) model.PriceObservations {
	obs := make(model.PriceObservations, 0, len(prices))
	for _, p := range prices {
		obs = append(obs, model.PriceObservation{
			Commodity: model.CommodityElectricity,
			Price:     p,
		})
	}
	return obs
}

func fullDay(dayPrice, nightPrice float64) model.PriceObservations {
	obs := make(model.PriceObservations, 0, 24)
	for hour := 0; hour < 24; hour++ {
		price := nightPrice
		if hour >= 6 && hour < 23 {
			price = dayPrice
		}
		obs = append(obs, model.PriceObservation{Commodity: model.CommodityElectricity, Price: price})
	}
	return obs
}

func TestAggregateElectricity_DayNightSplit(t *testing.T) {
	agg, err := AggregateElectricity(fullDay(0.30, 0.10))
	require.NoError(t, err)

	assert.InDelta(t, 0.30, agg.DayAverage, 1e-9)
	assert.InDelta(t, 0.10, agg.NightAverage, 1e-9)
	assert.InDelta(t, 0.10, agg.Min, 1e-9)
	assert.InDelta(t, 0.30, agg.Max, 1e-9)
}

func TestAggregateElectricity_DropsUnusableObservations(t *testing.T) {
	obs := hourlyObservations([]float64{0.20, -0.05, 0, 0.40})
	agg, err := AggregateElectricity(obs)
	require.NoError(t, err)

	// Only 0.20 and 0.40 survive.
	assert.InDelta(t, 0.20, agg.Min, 1e-9)
	assert.InDelta(t, 0.40, agg.Max, 1e-9)
}

func TestAggregateElectricity_Empty(t *testing.T) {
	tests := map[string]model.PriceObservations{
		"no observations":       {},
		"all non-positive":      hourlyObservations([]float64{0, -1, -0.2}),
		"nil observation slice": nil,
	}
	for name, obs := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := AggregateElectricity(obs)
			assert.ErrorIs(t, err, ErrNoData)
		})
	}
}

func TestAggregateElectricity_EmptyBucketFallsBackToOverallAverage(t *testing.T) {
	// Observations only at night hours (index 0-5); day bucket is empty.
	obs := hourlyObservations([]float64{0.10, 0.20, 0.30, 0.10, 0.20, 0.30})
	agg, err := AggregateElectricity(obs)
	require.NoError(t, err)

	assert.InDelta(t, 0.20, agg.NightAverage, 1e-9)
	assert.InDelta(t, 0.20, agg.DayAverage, 1e-9, "empty day bucket falls back to overall average")
}

func TestAggregateElectricity_SubHourlyUsesTimestampHour(t *testing.T) {
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	obs := model.PriceObservations{}
	// Four quarter-hour slots inside hour 12 (day) and hour 2 (night).
	for q := 0; q < 4; q++ {
		obs = append(obs, model.PriceObservation{
			Commodity: model.CommodityElectricity,
			Timestamp: day.Add(12*time.Hour + time.Duration(q)*15*time.Minute),
			Price:     0.40,
		})
		obs = append(obs, model.PriceObservation{
			Commodity: model.CommodityElectricity,
			Timestamp: day.Add(2*time.Hour + time.Duration(q)*15*time.Minute),
			Price:     0.10,
		})
	}

	agg, err := AggregateElectricity(obs)
	require.NoError(t, err)
	assert.InDelta(t, 0.40, agg.DayAverage, 1e-9)
	assert.InDelta(t, 0.10, agg.NightAverage, 1e-9)
}

func TestAggregateElectricity_PartialDayAccepted(t *testing.T) {
	agg, err := AggregateElectricity(hourlyObservations([]float64{0.15, 0.25}))
	require.NoError(t, err)
	assert.InDelta(t, 0.15, agg.Min, 1e-9)
	assert.InDelta(t, 0.25, agg.Max, 1e-9)
}

func TestAggregateGas_Flat(t *testing.T) {
	obs := model.PriceObservations{
		{Commodity: model.CommodityGas, Price: 0.70},
		{Commodity: model.CommodityGas, Price: 0.90},
		{Commodity: model.CommodityGas, Price: 0.80},
	}
	agg, err := AggregateGas(obs)
	require.NoError(t, err)

	assert.InDelta(t, 0.80, agg.Average, 1e-9)
	assert.InDelta(t, 0.70, agg.Min, 1e-9)
	assert.InDelta(t, 0.90, agg.Max, 1e-9)
}

func TestAggregateGas_Empty(t *testing.T) {
	_, err := AggregateGas(nil)
	assert.ErrorIs(t, err, ErrNoData)
}

// Ordering invariant: min <= dayAverage, nightAverage <= max over any
// non-empty, all-positive observation set.
func TestAggregateElectricity_Bounds(t *testing.T) {
	sets := map[string][]float64{
		"uniform":   {0.2, 0.2, 0.2, 0.2},
		"ascending": {0.01, 0.05, 0.10, 0.20, 0.40, 0.80},
		"spiky":     {0.10, 2.50, 0.03, 0.90, 0.11, 0.07, 1.20},
	}
	for name, prices := range sets {
		t.Run(name, func(t *testing.T) {
			agg, err := AggregateElectricity(hourlyObservations(prices))
			require.NoError(t, err)

			assert.LessOrEqual(t, agg.Min, agg.DayAverage)
			assert.LessOrEqual(t, agg.Min, agg.NightAverage)
			assert.GreaterOrEqual(t, agg.Max, agg.DayAverage)
			assert.GreaterOrEqual(t, agg.Max, agg.NightAverage)
		})
	}
}
