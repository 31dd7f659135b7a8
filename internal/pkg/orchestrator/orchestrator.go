package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/energiek/dynamic-pricing/internal/pkg/contxt"
	"github.com/energiek/dynamic-pricing/internal/pkg/interval"
	"github.com/energiek/dynamic-pricing/internal/pkg/metrics"
	"github.com/energiek/dynamic-pricing/internal/pkg/model"
	"github.com/energiek/dynamic-pricing/internal/pkg/publisher"
)

var ErrInvalidRange = errors.New("backfill range end precedes start")

type store interface {
	UpsertDailyPrice(ctx context.Context, aggregate model.DailyPriceAggregate) error
	GetDailyPrice(ctx context.Context, date time.Time) (*model.DailyPriceAggregate, error)
	ListDailyPricesBySource(ctx context.Context, source model.Source) (model.DailyPriceAggregates, error)
}

type Config struct {
	// BatchSize bounds how many dates are fetched concurrently. Batches
	// run sequentially with BatchDelay between them; the delay is a
	// conservative tunable, EnergyZero documents no hard rate limit.
	BatchSize    int
	BatchDelay   time.Duration
	FetchTimeout time.Duration
	// MaxConsecutiveFailures stops a historical backfill that has walked
	// past the earliest date the market API has data for.
	MaxConsecutiveFailures int
	// RefreshWindowDays is the recent window within which existing rows
	// are always refreshed; older rows are skipped unless forced.
	RefreshWindowDays int
	// DefaultGasPrice fills the gas figures of a Fallback row when only
	// the gas feed is missing, so a date is never dropped for that.
	DefaultGasPrice float64
}

func (c Config) withDefaults() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = 50
	}
	if c.BatchDelay <= 0 {
		c.BatchDelay = 2 * time.Second
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 30 * time.Second
	}
	if c.MaxConsecutiveFailures <= 0 {
		c.MaxConsecutiveFailures = 30
	}
	if c.RefreshWindowDays <= 0 {
		c.RefreshWindowDays = 7
	}
	if c.DefaultGasPrice <= 0 {
		c.DefaultGasPrice = 0.80
	}
	return c
}

// Report summarizes one refresh, backfill or reconciliation run.
type Report struct {
	Attempted    int  `json:"attempted"`
	Stored       int  `json:"stored"`
	Skipped      int  `json:"skipped"`
	Failed       int  `json:"failed"`
	StoppedEarly bool `json:"stopped_early"`
}

type status int

const (
	statusStored status = iota
	statusSkipped
	statusFailed
)

type outcome struct {
	status status
	noData bool
	err    error
}

type Orchestrator struct {
	fetcher Fetcher
	store   store
	cfg     Config
	logger  *zap.Logger
	now     func() time.Time
}

func New(f Fetcher, s store, cfg Config) *Orchestrator {
	return &Orchestrator{
		fetcher: f,
		store:   s,
		cfg:     cfg.withDefaults(),
		logger:  zap.L(),
		now:     time.Now,
	}
}

// RefreshWindow refreshes tomorrow's day-ahead prices plus the last
// `days` calendar dates, newest first. Rows in the window are always
// overwritten; that is how a Fallback or forecast row becomes real data.
func (o *Orchestrator) RefreshWindow(ctx context.Context, days int) (Report, error) {
	if days <= 0 {
		days = o.cfg.RefreshWindowDays
	}
	today := o.today()
	dates := make([]time.Time, 0, days+1)
	for i := -1; i < days; i++ {
		dates = append(dates, today.AddDate(0, 0, -i))
	}
	return o.processDates(ctx, dates, true)
}

// Backfill walks the range [from, to] from the newest date backwards,
// the direction in which the exhausted-range heuristic makes sense.
func (o *Orchestrator) Backfill(ctx context.Context, from, to time.Time, force bool) (Report, error) {
	from, to = midnight(from), midnight(to)
	if to.Before(from) {
		return Report{}, ErrInvalidRange
	}
	var dates []time.Time
	for d := to; !d.Before(from); d = d.AddDate(0, 0, -1) {
		dates = append(dates, d)
	}
	return o.processDates(ctx, dates, force)
}

// Reconcile re-runs the per-date pipeline for every Fallback-sourced row,
// replacing it with real market data where the API now has some.
func (o *Orchestrator) Reconcile(ctx context.Context) (Report, error) {
	rows, err := o.store.ListDailyPricesBySource(ctx, model.SourceFallback)
	if err != nil {
		return Report{}, err
	}
	dates := lo.Map(rows, func(row model.DailyPriceAggregate, _ int) time.Time {
		return midnight(row.Date)
	})
	return o.processDates(ctx, dates, true)
}

// processDates drives the Idle -> FetchingDate -> (Stored|Skipped|Failed)
// -> [NextDate|Stopped] cycle. Dates within a batch run concurrently;
// batches run sequentially with an inter-batch delay. Cancellation stops
// new batches but lets in-flight dates drain on detached contexts.
func (o *Orchestrator) processDates(ctx context.Context, dates []time.Time, force bool) (Report, error) {
	report := Report{}
	consecutiveFailures := 0

	batches := lo.Chunk(dates, o.cfg.BatchSize)
	for batchIndex, batch := range batches {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		outcomes := make([]outcome, len(batch))
		eg := errgroup.Group{}
		eg.SetLimit(o.cfg.BatchSize)
		for i, date := range batch {
			eg.Go(func() error {
				outcomes[i] = o.processDate(date, force)
				return nil
			})
		}
		_ = eg.Wait()

		// Outcomes are evaluated in date order so the consecutive-failure
		// counter means the same thing it would in a sequential walk.
		for i, oc := range outcomes {
			report.Attempted++
			switch oc.status {
			case statusStored:
				report.Stored++
				consecutiveFailures = 0
				metrics.DatesProcessed.WithLabelValues("stored").Inc()
			case statusSkipped:
				report.Skipped++
				metrics.DatesProcessed.WithLabelValues("skipped").Inc()
			case statusFailed:
				report.Failed++
				metrics.DatesProcessed.WithLabelValues("failed").Inc()
				o.logger.Warn("failed to process date",
					zap.String("date", batch[i].Format(time.DateOnly)),
					zap.Error(oc.err))
				if oc.noData {
					consecutiveFailures++
				}
				if consecutiveFailures >= o.cfg.MaxConsecutiveFailures {
					report.StoppedEarly = true
					metrics.EarlyStops.Inc()
					o.logger.Info("stopping run: consecutive dates without market data",
						zap.Int("consecutive_failures", consecutiveFailures),
						zap.Int("attempted", report.Attempted))
					return report, nil
				}
			}
		}

		if batchIndex < len(batches)-1 {
			select {
			case <-ctx.Done():
				return report, ctx.Err()
			case <-time.After(o.cfg.BatchDelay):
			}
		}
	}

	return report, nil
}

func (o *Orchestrator) processDate(date time.Time, force bool) outcome {
	date = midnight(date)

	if !force && !o.withinRefreshWindow(date) {
		if _, err := o.store.GetDailyPrice(contxt.NewContext(o.cfg.FetchTimeout), date); err == nil {
			return outcome{status: statusSkipped}
		}
	}

	electricityObs, err := o.fetcher.Prices(contxt.NewContext(o.cfg.FetchTimeout), model.CommodityElectricity, date)
	if err != nil {
		metrics.FetchTotal.WithLabelValues(string(model.CommodityElectricity), "error").Inc()
		return outcome{status: statusFailed, noData: true, err: err}
	}
	electricity, err := interval.AggregateElectricity(electricityObs)
	if err != nil {
		metrics.FetchTotal.WithLabelValues(string(model.CommodityElectricity), "empty").Inc()
		return outcome{status: statusFailed, noData: true, err: err}
	}
	metrics.FetchTotal.WithLabelValues(string(model.CommodityElectricity), "ok").Inc()

	// A missing gas feed degrades the row to Fallback instead of dropping
	// the date; electricity alone is still worth persisting.
	source := model.SourceRealMarket
	gas := model.GasAggregate{}
	gasObs, err := o.fetcher.Prices(contxt.NewContext(o.cfg.FetchTimeout), model.CommodityGas, date)
	if err == nil {
		gas, err = interval.AggregateGas(gasObs)
	}
	if err != nil {
		metrics.FetchTotal.WithLabelValues(string(model.CommodityGas), "error").Inc()
		o.logger.Warn("gas feed unavailable, writing fallback gas figures",
			zap.String("date", date.Format(time.DateOnly)),
			zap.Error(err))
		gas = model.GasAggregate{
			Average: o.cfg.DefaultGasPrice,
			Min:     o.cfg.DefaultGasPrice,
			Max:     o.cfg.DefaultGasPrice,
		}
		source = model.SourceFallback
	} else {
		metrics.FetchTotal.WithLabelValues(string(model.CommodityGas), "ok").Inc()
	}

	now := o.now().UTC()
	aggregate := model.DailyPriceAggregate{
		Date:            date,
		Electricity:     electricity,
		Gas:             gas,
		Source:          source,
		IsForecast:      date.After(midnight(now)),
		LastRefreshedAt: now,
	}

	upsertCtx := contxt.NewContext(o.cfg.FetchTimeout)
	if err := o.store.UpsertDailyPrice(upsertCtx, aggregate); err != nil {
		return outcome{status: statusFailed, err: err}
	}
	publisher.PublishDailyPrice(upsertCtx, aggregate)
	metrics.LastRefresh.SetToCurrentTime()

	return outcome{status: statusStored}
}

func (o *Orchestrator) withinRefreshWindow(date time.Time) bool {
	cutoff := o.today().AddDate(0, 0, -o.cfg.RefreshWindowDays)
	return !date.Before(cutoff)
}

func (o *Orchestrator) today() time.Time {
	return midnight(o.now().UTC())
}

func midnight(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
