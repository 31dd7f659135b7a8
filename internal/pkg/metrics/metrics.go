package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dynamic_pricing",
		Name:      "fetch_total",
		Help:      "Outbound market price fetches by commodity and outcome.",
	}, []string{"commodity", "outcome"})

	DatesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dynamic_pricing",
		Name:      "dates_processed_total",
		Help:      "Per-date refresh outcomes (stored, skipped, failed).",
	}, []string{"outcome"})

	EarlyStops = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "dynamic_pricing",
		Name:      "backfill_early_stops_total",
		Help:      "Backfill runs stopped by the consecutive-failure heuristic.",
	})

	LastRefresh = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "dynamic_pricing",
		Name:      "last_refresh_timestamp_seconds",
		Help:      "Unix time of the last successfully stored aggregate.",
	})

	QuoteRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dynamic_pricing",
		Name:      "quote_requests_total",
		Help:      "Settlement quote requests by result.",
	}, []string{"result"})
)
