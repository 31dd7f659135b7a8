package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	paho_mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/energiek/dynamic-pricing/internal/pkg/cache"
	"github.com/energiek/dynamic-pricing/internal/pkg/config"
	"github.com/energiek/dynamic-pricing/internal/pkg/database"
	"github.com/energiek/dynamic-pricing/internal/pkg/database/migration"
	"github.com/energiek/dynamic-pricing/internal/pkg/energyzero"
	"github.com/energiek/dynamic-pricing/internal/pkg/entsoe"
	"github.com/energiek/dynamic-pricing/internal/pkg/mqtt"
	"github.com/energiek/dynamic-pricing/internal/pkg/orchestrator"
	"github.com/energiek/dynamic-pricing/internal/pkg/publisher"
	"github.com/energiek/dynamic-pricing/internal/pkg/server"
)

var errCron = errors.New("cron error")

// ServeCommand runs the long-lived daemon: HTTP API, the daily refresh
// cron and the weekly retention prune.
func ServeCommand(ctx *cli.Context) error {
	cfg, err := buildConfig(ctx)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync() // flushes buffer, if any.
	}()
	zap.ReplaceGlobals(logger)

	svcs, err := setup(ctx.Context, cfg)
	if err != nil {
		return err
	}
	defer svcs.close()

	return runServe(ctx.Context, cfg, svcs, logger)
}

func runServe(ctx context.Context, cfg *config.Config, svcs *services, logger *zap.Logger) error {
	errorChan := make(chan error, 1000)
	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		return cronRefresh(ctx, svcs.orch, cfg, errorChan)
	})

	eg.Go(func() error {
		return cronDbCleanup(svcs.db, cfg.RetentionYears, errorChan)
	})

	eg.Go(func() error {
		srv := &http.Server{
			Handler:      server.New(svcs.db, svcs.cache, svcs.orch).Routes(cfg.AuthSecret),
			Addr:         cfg.HTTPAddr,
			WriteTimeout: 30 * time.Second,
			ReadTimeout:  15 * time.Second,
		}
		return srv.ListenAndServe()
	})

	eg.Go(func() error {
		// handle any async errors from service
		for {
			select {
			case err := <-errorChan:
				if errors.Is(err, errCron) {
					logger.Error("cron error", zap.Error(err))
					return err
				}
			case <-ctx.Done():
				logger.Info("context done")
				return ctx.Err()
			}
		}
	})

	return eg.Wait()
}

// RefreshCommand refreshes the rolling window once and exits; the shape
// the scheduled-job deployments invoke.
func RefreshCommand(ctx *cli.Context) error {
	return runOnce(ctx, func(runCtx context.Context, svcs *services) (orchestrator.Report, error) {
		return svcs.orch.RefreshWindow(runCtx, ctx.Int("days"))
	})
}

// BackfillCommand loads a historical date range, walking backwards from
// the newest date so the exhausted-range early stop can kick in.
func BackfillCommand(ctx *cli.Context) error {
	return runOnce(ctx, func(runCtx context.Context, svcs *services) (orchestrator.Report, error) {
		to := time.Now().UTC()
		from := to.AddDate(-ctx.Int("years"), 0, 0)
		var err error
		if raw := ctx.String("from"); raw != "" {
			if from, err = time.Parse(time.DateOnly, raw); err != nil {
				return orchestrator.Report{}, err
			}
		}
		if raw := ctx.String("to"); raw != "" {
			if to, err = time.Parse(time.DateOnly, raw); err != nil {
				return orchestrator.Report{}, err
			}
		}
		return svcs.orch.Backfill(runCtx, from, to, ctx.Bool("force"))
	})
}

// ReconcileCommand replaces Fallback-sourced rows with real market data.
func ReconcileCommand(ctx *cli.Context) error {
	return runOnce(ctx, func(runCtx context.Context, svcs *services) (orchestrator.Report, error) {
		return svcs.orch.Reconcile(runCtx)
	})
}

func MigrateCommand(ctx *cli.Context) error {
	cfg, err := buildConfig(ctx)
	if err != nil {
		return err
	}
	return migration.Migrate(cfg.DatabaseURL, cfg.MigrationsFolder)
}

func runOnce(ctx *cli.Context, run func(context.Context, *services) (orchestrator.Report, error)) error {
	cfg, err := buildConfig(ctx)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()
	zap.ReplaceGlobals(logger)

	svcs, err := setup(ctx.Context, cfg)
	if err != nil {
		return err
	}
	defer svcs.close()

	report, err := run(ctx.Context, svcs)
	if err != nil {
		return err
	}
	logger.Info("run complete",
		zap.Int("attempted", report.Attempted),
		zap.Int("stored", report.Stored),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
		zap.Bool("stopped_early", report.StoppedEarly))
	return nil
}

type services struct {
	pool  *pgxpool.Pool
	db    *database.Database
	cache *cache.Cache
	orch  *orchestrator.Orchestrator
}

func (s *services) close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func setup(ctx context.Context, cfg *config.Config) (*services, error) {
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	db := database.NewDatabase(ctx, pool)

	var fetcher orchestrator.Fetcher = energyzero.New(cfg.EnergyZero.BaseURL, cfg.EnergyZero.Timeout)
	if cfg.Entsoe.Token != "" {
		fetcher = orchestrator.Chain{
			fetcher,
			entsoe.New(cfg.Entsoe.BaseURL, cfg.Entsoe.Token, cfg.Entsoe.Timeout),
		}
	}
	orch := orchestrator.New(fetcher, db, orchestrator.Config{
		BatchSize:              cfg.Orchestrator.BatchSize,
		BatchDelay:             cfg.Orchestrator.BatchDelay,
		FetchTimeout:           cfg.Orchestrator.FetchTimeout,
		MaxConsecutiveFailures: cfg.Orchestrator.MaxConsecutiveFailures,
		RefreshWindowDays:      cfg.Orchestrator.RefreshWindowDays,
		DefaultGasPrice:        cfg.Orchestrator.DefaultGasPrice,
	})

	svcs := &services{pool: pool, db: db, orch: orch}

	if cfg.Redis.Addr != "" {
		rdb := goredis.NewClient(&goredis.Options{Addr: cfg.Redis.Addr})
		svcs.cache = cache.New(rdb, cfg.Redis.TTL)
		if err := publisher.Register("redis", svcs.cache); err != nil {
			return nil, err
		}
	}

	if cfg.Mqtt.Host != "" {
		opts := paho_mqtt.NewClientOptions().
			AddBroker(cfg.Mqtt.Host).
			SetUsername(cfg.Mqtt.Username).
			SetPassword(cfg.Mqtt.Password)
		mqttSvc := mqtt.New(paho_mqtt.NewClient(opts))
		if err := mqttSvc.Connect(); err != nil {
			return nil, err
		}
		if err := publisher.Register("mqtt", mqttSvc); err != nil {
			return nil, err
		}
	}

	return svcs, nil
}

// cronRefresh runs one refresh immediately, then daily shortly after the
// day-ahead auction results are published (~15:00 Dutch time).
func cronRefresh(ctx context.Context, orch *orchestrator.Orchestrator, cfg *config.Config, errChan chan error) error {
	if _, err := orch.RefreshWindow(ctx, cfg.Orchestrator.RefreshWindowDays); err != nil {
		return err
	}

	c := cron.New()
	if _, err := c.AddFunc("CRON_TZ=Europe/Amsterdam 5 15 * * *", func() {
		report, err := orch.RefreshWindow(context.Background(), cfg.Orchestrator.RefreshWindowDays)
		if err != nil {
			errChan <- errCron
			return
		}
		zap.L().Info("scheduled refresh complete",
			zap.Int("stored", report.Stored),
			zap.Int("failed", report.Failed))
	}); err != nil {
		return err
	}

	c.Run()
	return nil
}

func cronDbCleanup(db *database.Database, retentionYears int, errChan chan error) error {
	c := cron.New()
	if _, err := c.AddFunc("CRON_TZ=Europe/Amsterdam 0 4 * * 1", func() {
		if err := db.Cleanup(context.Background(), retentionYears); err != nil {
			zap.L().Error("error cleaning up database", zap.Error(err))
			errChan <- errCron
			return
		}
		zap.L().Info("pruned aggregates beyond retention")
	}); err != nil {
		return err
	}

	c.Run()
	return nil
}

// buildConfig parses the environment first, then overlays every flag the
// caller actually set. Scheduled-job deployments that pass no flags run
// entirely off the environment.
func buildConfig(ctx *cli.Context) (*config.Config, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}

	setString := func(dst *string, flag string) {
		if ctx.IsSet(flag) {
			*dst = ctx.String(flag)
		}
	}
	setInt := func(dst *int, flag string) {
		if ctx.IsSet(flag) {
			*dst = ctx.Int(flag)
		}
	}
	setDuration := func(dst *time.Duration, flag string) {
		if ctx.IsSet(flag) {
			*dst = ctx.Duration(flag)
		}
	}

	setString(&cfg.DatabaseURL, "database-url")
	setString(&cfg.MigrationsFolder, "migrations-folder")
	setString(&cfg.LogLevel, "log-level")
	setString(&cfg.HTTPAddr, "http-addr")
	setString(&cfg.AuthSecret, "auth-secret")
	setInt(&cfg.RetentionYears, "retention-years")
	setString(&cfg.EnergyZero.BaseURL, "energyzero-base-url")
	setDuration(&cfg.EnergyZero.Timeout, "energyzero-timeout")
	setString(&cfg.Entsoe.BaseURL, "entsoe-base-url")
	setString(&cfg.Entsoe.Token, "entsoe-api-key")
	setDuration(&cfg.Entsoe.Timeout, "entsoe-timeout")
	setInt(&cfg.Orchestrator.BatchSize, "batch-size")
	setDuration(&cfg.Orchestrator.BatchDelay, "batch-delay")
	setDuration(&cfg.Orchestrator.FetchTimeout, "fetch-timeout")
	setInt(&cfg.Orchestrator.MaxConsecutiveFailures, "max-consecutive-failures")
	setInt(&cfg.Orchestrator.RefreshWindowDays, "refresh-window-days")
	if ctx.IsSet("default-gas-price") {
		cfg.Orchestrator.DefaultGasPrice = ctx.Float64("default-gas-price")
	}
	setString(&cfg.Mqtt.Host, "mqtt-host")
	setString(&cfg.Mqtt.Username, "mqtt-user")
	setString(&cfg.Mqtt.Password, "mqtt-pass")
	setString(&cfg.Redis.Addr, "redis-addr")
	setDuration(&cfg.Redis.TTL, "redis-ttl")

	return cfg, nil
}

func newLogger(level string) (*zap.Logger, error) {
	logCfg := zap.NewProductionConfig()
	var err error
	logCfg.Level, err = zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	logCfg.OutputPaths = []string{"stdout"}
	logCfg.ErrorOutputPaths = []string{"stdout"}
	logCfg.Sampling = nil
	return logCfg.Build(zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel))
}
