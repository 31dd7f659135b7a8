package server

import "github.com/energiek/dynamic-pricing/internal/pkg/settlement"

type QuoteRequest struct {
	// Date selects the aggregate to price against; empty means the most
	// recent row.
	Date string `json:"date,omitempty"`

	MeterType  settlement.MeterType `json:"meter_type"`
	NormalKwh  float64              `json:"normal_kwh"`
	OffPeakKwh *float64             `json:"off_peak_kwh,omitempty"`
	GasM3      *float64             `json:"gas_m3,omitempty"`
	FeedInKwh  float64              `json:"feed_in_kwh"`

	Markup MarkupPayload `json:"markup"`
}

type MarkupPayload struct {
	ElectricityConsumption  float64 `json:"electricity_consumption"`
	GasConsumption          float64 `json:"gas_consumption"`
	ElectricityFeedIn       float64 `json:"electricity_feed_in"`
	FixedElectricityMonthly float64 `json:"fixed_electricity_monthly"`
	FixedGasMonthly         float64 `json:"fixed_gas_monthly"`
}

type QuoteResponse struct {
	Date      string                   `json:"date"`
	Source    string                   `json:"source"`
	Breakdown settlement.CostBreakdown `json:"breakdown"`
}

type RefreshRequest struct {
	Days int `json:"days,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}
