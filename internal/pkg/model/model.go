package model

import "time"

type Commodity string

const (
	CommodityElectricity Commodity = "electricity"
	CommodityGas         Commodity = "gas"
)

type Source string

const (
	SourceRealMarket Source = "REAL_MARKET"
	SourceFallback   Source = "FALLBACK"
)

// PriceObservation is one raw sample from the day-ahead market feed.
// Observations are transient; only the daily aggregate is persisted.
type PriceObservation struct {
	Commodity Commodity `json:"commodity"`
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
}

type PriceObservations []PriceObservation

// ElectricityAggregate holds the day/night split for one calendar date.
// Day covers local hours [6,23), night the complement. Min and max are
// taken over all observations of the date, not per bucket.
type ElectricityAggregate struct {
	DayAverage   float64 `json:"day_average"`
	NightAverage float64 `json:"night_average"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
}

type GasAggregate struct {
	Average float64 `json:"average"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
}

// DailyPriceAggregate is the persisted unit: exactly one row per UTC
// calendar date. A refresh overwrites the row in place, never appends.
type DailyPriceAggregate struct {
	Date            time.Time            `json:"date"`
	Electricity     ElectricityAggregate `json:"electricity"`
	Gas             GasAggregate         `json:"gas"`
	Source          Source               `json:"source"`
	IsForecast      bool                 `json:"is_forecast"`
	LastRefreshedAt time.Time            `json:"last_refreshed_at"`
}

type DailyPriceAggregates []DailyPriceAggregate
