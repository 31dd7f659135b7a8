package interval

import (
	"errors"

	"github.com/samber/lo"

	"github.com/energiek/dynamic-pricing/internal/pkg/model"
)

// ErrNoData indicates that no usable observations remain for a date.
// Callers must treat it as a failed fetch, never as a zero price.
var ErrNoData = errors.New("no usable price observations")

// AggregateElectricity reduces one date's electricity observations to the
// persisted day/night figures. A bucket left empty by malformed upstream
// data falls back to the all-hours average. Partial days are accepted;
// provider feeds are not guaranteed to align to exactly 24 slots.
func AggregateElectricity(obs model.PriceObservations) (model.ElectricityAggregate, error) {
	b := normalize(obs)
	if len(b.all) == 0 {
		return model.ElectricityAggregate{}, ErrNoData
	}

	avg := mean(b.all)
	return model.ElectricityAggregate{
		DayAverage:   meanOr(b.day, avg),
		NightAverage: meanOr(b.night, avg),
		Min:          lo.Min(b.all),
		Max:          lo.Max(b.all),
	}, nil
}

// AggregateGas is the flat variant: gas has no day/night tariff split.
func AggregateGas(obs model.PriceObservations) (model.GasAggregate, error) {
	b := normalize(obs)
	if len(b.all) == 0 {
		return model.GasAggregate{}, ErrNoData
	}

	return model.GasAggregate{
		Average: mean(b.all),
		Min:     lo.Min(b.all),
		Max:     lo.Max(b.all),
	}, nil
}

func mean(values []float64) float64 {
	return lo.Sum(values) / float64(len(values))
}

func meanOr(values []float64, fallback float64) float64 {
	if len(values) == 0 {
		return fallback
	}
	return mean(values)
}
