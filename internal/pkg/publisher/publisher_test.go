package publisher

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/energiek/dynamic-pricing/internal/pkg/model"
)

type mockPublisher struct {
	calls []model.DailyPriceAggregate
}

func (m *mockPublisher) PublishDailyPrice(_ context.Context, aggregate model.DailyPriceAggregate) error {
	m.calls = append(m.calls, aggregate)
	return nil
}

func TestRegister_Duplicate(t *testing.T) {
	require.NoError(t, Register("dup", &mockPublisher{}))
	assert.Error(t, Register("dup", &mockPublisher{}))
}

func TestPublishDailyPrice_SkipsUnchangedDates(t *testing.T) {
	p := &mockPublisher{}
	require.NoError(t, Register("counting", p))

	aggregate := model.DailyPriceAggregate{
		Date:        time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Electricity: model.ElectricityAggregate{DayAverage: 0.20, NightAverage: 0.10},
		Gas:         model.GasAggregate{Average: 0.80},
		Source:      model.SourceRealMarket,
	}

	PublishDailyPrice(context.Background(), aggregate)
	PublishDailyPrice(context.Background(), aggregate)
	assert.Len(t, p.calls, 1, "unchanged refresh is not republished")

	aggregate.Electricity.DayAverage = 0.25
	PublishDailyPrice(context.Background(), aggregate)
	assert.Len(t, p.calls, 2)
}
