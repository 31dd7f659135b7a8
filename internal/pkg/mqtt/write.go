package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/energiek/dynamic-pricing/internal/pkg/model"
)

// PublishDailyPrice publishes one commodity state message per aggregate
// under energyprices/<commodity>/<date>, retained so late subscribers
// (home-automation dashboards, tariff displays) see the latest value.
func (s *service) PublishDailyPrice(ctx context.Context, aggregate model.DailyPriceAggregate) error {
	date := aggregate.Date.Format(time.DateOnly)

	electricityPayload := map[string]any{
		"date":          date,
		"day_average":   aggregate.Electricity.DayAverage,
		"night_average": aggregate.Electricity.NightAverage,
		"min":           aggregate.Electricity.Min,
		"max":           aggregate.Electricity.Max,
		"source":        string(aggregate.Source),
		"is_forecast":   aggregate.IsForecast,
	}
	gasPayload := map[string]any{
		"date":        date,
		"average":     aggregate.Gas.Average,
		"min":         aggregate.Gas.Min,
		"max":         aggregate.Gas.Max,
		"source":      string(aggregate.Source),
		"is_forecast": aggregate.IsForecast,
	}

	if err := s.publish(fmt.Sprintf("energyprices/%s/%s/state", model.CommodityElectricity, date), electricityPayload); err != nil {
		return err
	}
	return s.publish(fmt.Sprintf("energyprices/%s/%s/state", model.CommodityGas, date), gasPayload)
}

func (s *service) publish(topic string, payload map[string]any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	token := s.client.Publish(topic, 0, true, data)
	res := token.WaitTimeout(time.Second * 10)
	if res {
		return nil
	}
	if err := token.Error(); err != nil {
		return err
	}
	return nil
}
