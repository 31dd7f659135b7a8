package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/energiek/dynamic-pricing/internal/pkg/model"
)

const keyPrefix = "dynamicprices:"

// Cache is a read-through cache in front of the price store for the quote
// path. A nil *Cache is valid and always misses, so callers do not need
// to branch on whether Redis is configured.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

func New(rdb *redis.Client, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, ttl: ttl}
}

func (c *Cache) GetDailyPrice(ctx context.Context, date time.Time) (*model.DailyPriceAggregate, bool) {
	if c == nil {
		return nil, false
	}
	data, err := c.rdb.Get(ctx, keyPrefix+date.UTC().Format(time.DateOnly)).Bytes()
	if err != nil {
		if err != redis.Nil {
			zap.L().Warn("cache read failed", zap.Error(err))
		}
		return nil, false
	}
	aggregate := model.DailyPriceAggregate{}
	if err := json.Unmarshal(data, &aggregate); err != nil {
		return nil, false
	}
	return &aggregate, true
}

func (c *Cache) SetDailyPrice(ctx context.Context, aggregate model.DailyPriceAggregate) {
	if c == nil {
		return
	}
	data, err := json.Marshal(aggregate)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, keyPrefix+aggregate.Date.UTC().Format(time.DateOnly), data, c.ttl).Err(); err != nil {
		zap.L().Warn("cache write failed", zap.Error(err))
	}
}

// PublishDailyPrice lets the cache sit in the publisher registry: every
// stored aggregate lands in Redis alongside the row, so the quote path's
// read-through almost always hits.
func (c *Cache) PublishDailyPrice(ctx context.Context, aggregate model.DailyPriceAggregate) error {
	c.SetDailyPrice(ctx, aggregate)
	return nil
}
