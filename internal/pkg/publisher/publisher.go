package publisher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/energiek/dynamic-pricing/internal/pkg/model"
)

var errAlreadyRegistered = errors.New("publisher already registered")

var (
	registeredPublishers = make(map[string]publisher)
	published            sync.Map
)

type publisher interface {
	// PublishDailyPrice pushes a freshly stored aggregate to the adapter.
	PublishDailyPrice(ctx context.Context, aggregate model.DailyPriceAggregate) error
}

func Register(name string, p publisher) error {
	if _, ok := registeredPublishers[name]; ok {
		return errAlreadyRegistered
	}
	registeredPublishers[name] = p
	return nil
}

// PublishDailyPrice fans a stored aggregate out to every registered
// adapter. A failing adapter is logged and skipped; publishing is best
// effort and never blocks the write path's success.
func PublishDailyPrice(ctx context.Context, aggregate model.DailyPriceAggregate) {
	if !shouldPublish(aggregate) {
		return
	}
	for name, p := range registeredPublishers {
		if err := p.PublishDailyPrice(ctx, aggregate); err != nil {
			zap.L().Error("failed to publish daily price", zap.Error(err), zap.String("publisher", name))
			continue
		}
		zap.L().Debug("published daily price",
			zap.String("publisher", name),
			zap.String("date", aggregate.Date.Format(time.DateOnly)))
	}
}

// shouldPublish suppresses republishing a date whose content did not
// change since the last refresh.
func shouldPublish(aggregate model.DailyPriceAggregate) bool {
	key := aggregate.Date.Format(time.DateOnly)
	fingerprint := fmt.Sprintf("%s_%t_%.6f_%.6f_%.6f",
		aggregate.Source, aggregate.IsForecast,
		aggregate.Electricity.DayAverage, aggregate.Electricity.NightAverage, aggregate.Gas.Average)
	old, exists := published.Load(key)
	if exists && old.(string) == fingerprint {
		return false
	}
	published.Store(key, fingerprint)
	return true
}
