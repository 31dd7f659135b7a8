package settlement

import (
	"github.com/samber/lo"

	"github.com/energiek/dynamic-pricing/internal/pkg/model"
)

type MeterType string

const (
	MeterSingle MeterType = "single"
	MeterDouble MeterType = "double"
)

// ConsumptionProfile is caller-supplied usage for the billing period being
// priced, in physical units. OffPeakKwh only applies to double meters and
// Gas is nil when there is no gas connection.
type ConsumptionProfile struct {
	MeterType  MeterType
	NormalKwh  float64
	OffPeakKwh *float64
	GasM3      *float64
	FeedInKwh  float64
}

// MarkupSchedule is the supplier margin on top of the market rates.
// Consumption markups are added to the spot price; the feed-in markup is
// subtracted from it, the margin taken out of what the customer is paid.
type MarkupSchedule struct {
	ElectricityConsumption  float64
	GasConsumption          float64
	ElectricityFeedIn       float64
	FixedElectricityMonthly float64
	FixedGasMonthly         float64
}

// BucketBreakdown is one tariff bucket of the itemized view. For a single
// meter there is exactly one bucket at the blended rate.
type BucketBreakdown struct {
	ConsumptionKwh float64 `json:"consumption_kwh"`
	Rate           float64 `json:"rate"`
	FeedInKwh      float64 `json:"feed_in_kwh"`
	NetKwh         float64 `json:"net_kwh"`
	Cost           float64 `json:"cost"`
}

type CostBreakdown struct {
	Normal  BucketBreakdown  `json:"normal"`
	OffPeak *BucketBreakdown `json:"off_peak,omitempty"`

	FeedInKwh    float64 `json:"feed_in_kwh"`
	FeedInRate   float64 `json:"feed_in_rate"`
	FeedInCredit float64 `json:"feed_in_credit"`

	// NetVolumeForTaxKwh is the consumption volume left after netting
	// feed-in, the basis for any downstream energy-tax step.
	NetVolumeForTaxKwh float64 `json:"net_volume_for_tax_kwh"`
	// SurplusFeedInKwh is feed-in beyond total consumption. It carries no
	// separate compensation; all feed-in is paid at the feed-in rate.
	SurplusFeedInKwh float64 `json:"surplus_feed_in_kwh"`

	ElectricityCost float64 `json:"electricity_cost"`

	GasM3   float64 `json:"gas_m3"`
	GasRate float64 `json:"gas_rate"`
	GasCost float64 `json:"gas_cost"`

	FixedElectricityMonthly float64 `json:"fixed_electricity_monthly"`
	FixedGasMonthly         float64 `json:"fixed_gas_monthly"`
}

// Compute settles one consumption profile against one date's aggregate.
// Pure and deterministic: no I/O, safe to call from any number of callers.
//
// Net metering offsets 100% of feed-in against 100% of consumption. The
// result may be negative, a net payout to the customer, and the feed-in
// rate may itself go negative when the markup exceeds the spot price;
// neither is clamped.
func Compute(profile ConsumptionProfile, feedInKwh float64, markup MarkupSchedule, prices model.DailyPriceAggregate) CostBreakdown {
	spotDay := prices.Electricity.DayAverage
	spotNight := prices.Electricity.NightAverage
	spotBlended := (spotDay + spotNight) / 2

	dayRate := spotDay + markup.ElectricityConsumption
	nightRate := spotNight + markup.ElectricityConsumption
	blendedRate := spotBlended + markup.ElectricityConsumption
	feedInRate := spotBlended - markup.ElectricityFeedIn
	gasRate := prices.Gas.Average + markup.GasConsumption

	out := CostBreakdown{
		FeedInKwh:               feedInKwh,
		FeedInRate:              feedInRate,
		FeedInCredit:            feedInKwh * feedInRate,
		FixedElectricityMonthly: markup.FixedElectricityMonthly,
		FixedGasMonthly:         markup.FixedGasMonthly,
	}

	switch profile.MeterType {
	case MeterDouble:
		offPeak := lo.FromPtr(profile.OffPeakKwh)
		total := profile.NormalKwh + offPeak

		consumptionCost := profile.NormalKwh*dayRate + offPeak*nightRate
		out.ElectricityCost = consumptionCost - out.FeedInCredit
		out.NetVolumeForTaxKwh = max(0, total-feedInKwh)
		out.SurplusFeedInKwh = max(0, feedInKwh-total)

		// Display-only apportionment of feed-in across the buckets in
		// proportion to each bucket's consumption share. It never changes
		// the total cost, only the per-bucket net kWh figures.
		normalRatio, offPeakRatio := 0.5, 0.5
		if total > 0 {
			normalRatio = profile.NormalKwh / total
			offPeakRatio = offPeak / total
		}
		normalFeedIn := feedInKwh * normalRatio
		offPeakFeedIn := feedInKwh * offPeakRatio

		out.Normal = BucketBreakdown{
			ConsumptionKwh: profile.NormalKwh,
			Rate:           dayRate,
			FeedInKwh:      normalFeedIn,
			NetKwh:         max(0, profile.NormalKwh-normalFeedIn),
			Cost:           profile.NormalKwh * dayRate,
		}
		out.OffPeak = &BucketBreakdown{
			ConsumptionKwh: offPeak,
			Rate:           nightRate,
			FeedInKwh:      offPeakFeedIn,
			NetKwh:         max(0, offPeak-offPeakFeedIn),
			Cost:           offPeak * nightRate,
		}

	default: // single meter
		consumptionCost := profile.NormalKwh * blendedRate
		out.ElectricityCost = consumptionCost - out.FeedInCredit
		out.NetVolumeForTaxKwh = max(0, profile.NormalKwh-feedInKwh)
		out.SurplusFeedInKwh = max(0, feedInKwh-profile.NormalKwh)

		out.Normal = BucketBreakdown{
			ConsumptionKwh: profile.NormalKwh,
			Rate:           blendedRate,
			FeedInKwh:      feedInKwh,
			NetKwh:         out.NetVolumeForTaxKwh,
			Cost:           consumptionCost,
		}
	}

	if gas := lo.FromPtr(profile.GasM3); gas > 0 {
		out.GasM3 = gas
		out.GasRate = gasRate
		out.GasCost = gas * gasRate
	}

	return out
}
