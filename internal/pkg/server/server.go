package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/energiek/dynamic-pricing/internal/pkg/cache"
	"github.com/energiek/dynamic-pricing/internal/pkg/database"
	"github.com/energiek/dynamic-pricing/internal/pkg/metrics"
	"github.com/energiek/dynamic-pricing/internal/pkg/model"
	"github.com/energiek/dynamic-pricing/internal/pkg/orchestrator"
	"github.com/energiek/dynamic-pricing/internal/pkg/settlement"
)

type priceStore interface {
	GetDailyPrice(ctx context.Context, date time.Time) (*model.DailyPriceAggregate, error)
	GetLatestDailyPrice(ctx context.Context) (*model.DailyPriceAggregate, error)
	ListDailyPrices(ctx context.Context, from, to time.Time) (model.DailyPriceAggregates, error)
}

type refresher interface {
	RefreshWindow(ctx context.Context, days int) (orchestrator.Report, error)
	Reconcile(ctx context.Context) (orchestrator.Report, error)
}

type server struct {
	store  priceStore
	cache  *cache.Cache
	orch   refresher
	logger *zap.Logger
}

func New(store priceStore, priceCache *cache.Cache, orch refresher) *server {
	return &server{
		store:  store,
		cache:  priceCache,
		orch:   orch,
		logger: zap.L(),
	}
}

// Routes wires the read surface (prices, quotes) and the token-guarded
// ops surface (refresh, reconcile).
func (s *server) Routes(authSecret string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.health)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /prices", s.listPrices)
	mux.HandleFunc("GET /prices/current", s.currentPrices)
	mux.HandleFunc("GET /prices/{date}", s.getPrice)
	mux.HandleFunc("POST /quote", s.quote)
	mux.Handle("POST /refresh", AuthMiddleware(authSecret, http.HandlerFunc(s.refresh)))
	mux.Handle("POST /reconcile", AuthMiddleware(authSecret, http.HandlerFunc(s.reconcile)))
	return LoggingMiddleware(mux)
}

func (s *server) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *server) getPrice(w http.ResponseWriter, r *http.Request) {
	date, err := time.Parse(time.DateOnly, r.PathValue("date"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "date must be YYYY-MM-DD"})
		return
	}

	aggregate, err := s.lookup(r.Context(), date)
	if err != nil {
		handleStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, aggregate)
}

func (s *server) listPrices(w http.ResponseWriter, r *http.Request) {
	from, err := time.Parse(time.DateOnly, r.URL.Query().Get("from"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "from must be YYYY-MM-DD"})
		return
	}
	to, err := time.Parse(time.DateOnly, r.URL.Query().Get("to"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "to must be YYYY-MM-DD"})
		return
	}

	aggregates, err := s.store.ListDailyPrices(r.Context(), from, to)
	if err != nil {
		handleStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, aggregates)
}

// currentPrices answers "what do prices look like right now". A row is
// fresh when it was refreshed within the last day and covers today or
// later; a stale row is still returned but flagged, a missing row is a
// 404 and never a zero price.
func (s *server) currentPrices(w http.ResponseWriter, r *http.Request) {
	aggregate, err := s.store.GetLatestDailyPrice(r.Context())
	if err != nil {
		handleStoreError(w, err)
		return
	}

	now := time.Now().UTC()
	fresh := now.Sub(aggregate.LastRefreshedAt) < 24*time.Hour &&
		!aggregate.Date.Before(now.Truncate(24*time.Hour))

	writeJSON(w, http.StatusOK, struct {
		*model.DailyPriceAggregate
		IsFresh bool `json:"is_fresh"`
	}{aggregate, fresh})
}

func (s *server) quote(w http.ResponseWriter, r *http.Request) {
	req := QuoteRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	var aggregate *model.DailyPriceAggregate
	var err error
	if req.Date == "" {
		aggregate, err = s.store.GetLatestDailyPrice(r.Context())
	} else {
		var date time.Time
		if date, err = time.Parse(time.DateOnly, req.Date); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "date must be YYYY-MM-DD"})
			return
		}
		aggregate, err = s.lookup(r.Context(), date)
	}
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			metrics.QuoteRequests.WithLabelValues("no_prices").Inc()
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "no quote available: no prices for requested date"})
			return
		}
		metrics.QuoteRequests.WithLabelValues("error").Inc()
		handleStoreError(w, err)
		return
	}

	breakdown := settlement.Compute(
		settlement.ConsumptionProfile{
			MeterType:  req.MeterType,
			NormalKwh:  req.NormalKwh,
			OffPeakKwh: req.OffPeakKwh,
			GasM3:      req.GasM3,
			FeedInKwh:  req.FeedInKwh,
		},
		req.FeedInKwh,
		settlement.MarkupSchedule{
			ElectricityConsumption:  req.Markup.ElectricityConsumption,
			GasConsumption:          req.Markup.GasConsumption,
			ElectricityFeedIn:       req.Markup.ElectricityFeedIn,
			FixedElectricityMonthly: req.Markup.FixedElectricityMonthly,
			FixedGasMonthly:         req.Markup.FixedGasMonthly,
		},
		*aggregate,
	)
	metrics.QuoteRequests.WithLabelValues("ok").Inc()

	writeJSON(w, http.StatusOK, QuoteResponse{
		Date:      aggregate.Date.Format(time.DateOnly),
		Source:    string(aggregate.Source),
		Breakdown: breakdown,
	})
}

func (s *server) refresh(w http.ResponseWriter, r *http.Request) {
	req := RefreshRequest{}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
	}

	report, err := s.orch.RefreshWindow(r.Context(), req.Days)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *server) reconcile(w http.ResponseWriter, r *http.Request) {
	report, err := s.orch.Reconcile(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *server) lookup(ctx context.Context, date time.Time) (*model.DailyPriceAggregate, error) {
	if cached, ok := s.cache.GetDailyPrice(ctx, date); ok {
		return cached, nil
	}
	aggregate, err := s.store.GetDailyPrice(ctx, date)
	if err != nil {
		return nil, err
	}
	s.cache.SetDailyPrice(ctx, *aggregate)
	return aggregate, nil
}

func handleStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, database.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no prices for requested date"})
		return
	}
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Error("failed to encode response", zap.Error(err))
	}
}
