package main

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/energiek/dynamic-pricing/cmd"
)

func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "pricing-controller",
		Usage: "day-ahead energy price pipeline and settlement API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "database-url",
				EnvVars:  []string{"DATABASE_URL"},
				Required: true,
			},
			&cli.StringFlag{
				Name:    "migrations-folder",
				EnvVars: []string{"MIGRATIONS_FOLDER"},
				Value:   "./migrations",
			},
			&cli.StringFlag{
				Name:    "log-level",
				EnvVars: []string{"LOG_LEVEL"},
				Value:   "INFO",
			},
			&cli.StringFlag{
				Name:    "http-addr",
				EnvVars: []string{"HTTP_ADDR"},
				Value:   "0.0.0.0:8000",
			},
			&cli.StringFlag{
				Name:    "auth-secret",
				EnvVars: []string{"AUTH_SECRET"},
				Value:   "",
			},
			&cli.IntFlag{
				Name:    "retention-years",
				EnvVars: []string{"RETENTION_YEARS"},
				Value:   6,
			},
			&cli.StringFlag{
				Name:    "energyzero-base-url",
				EnvVars: []string{"ENERGYZERO_BASE_URL"},
				Value:   "",
			},
			&cli.DurationFlag{
				Name:    "energyzero-timeout",
				EnvVars: []string{"ENERGYZERO_TIMEOUT"},
				Value:   30 * time.Second,
			},
			&cli.StringFlag{
				Name:    "entsoe-base-url",
				EnvVars: []string{"ENTSOE_BASE_URL"},
				Value:   "",
			},
			&cli.StringFlag{
				Name:    "entsoe-api-key",
				Usage:   "enables the ENTSO-E backup feed for electricity",
				EnvVars: []string{"ENTSOE_API_KEY"},
				Value:   "",
			},
			&cli.DurationFlag{
				Name:    "entsoe-timeout",
				EnvVars: []string{"ENTSOE_TIMEOUT"},
				Value:   30 * time.Second,
			},
			&cli.IntFlag{
				Name:    "batch-size",
				EnvVars: []string{"BATCH_SIZE"},
				Value:   50,
			},
			&cli.DurationFlag{
				Name:    "batch-delay",
				EnvVars: []string{"BATCH_DELAY"},
				Value:   2 * time.Second,
			},
			&cli.DurationFlag{
				Name:    "fetch-timeout",
				EnvVars: []string{"FETCH_TIMEOUT"},
				Value:   30 * time.Second,
			},
			&cli.IntFlag{
				Name:    "max-consecutive-failures",
				EnvVars: []string{"MAX_CONSECUTIVE_FAILURES"},
				Value:   30,
			},
			&cli.IntFlag{
				Name:    "refresh-window-days",
				EnvVars: []string{"REFRESH_WINDOW_DAYS"},
				Value:   7,
			},
			&cli.Float64Flag{
				Name:    "default-gas-price",
				EnvVars: []string{"DEFAULT_GAS_PRICE"},
				Value:   0.80,
			},
			&cli.StringFlag{
				Name:    "mqtt-host",
				EnvVars: []string{"MQTT_HOST"},
				Value:   "",
			},
			&cli.StringFlag{
				Name:    "mqtt-user",
				EnvVars: []string{"MQTT_USER"},
				Value:   "",
			},
			&cli.StringFlag{
				Name:    "mqtt-pass",
				EnvVars: []string{"MQTT_PASS"},
				Value:   "",
			},
			&cli.StringFlag{
				Name:    "redis-addr",
				EnvVars: []string{"REDIS_ADDR"},
				Value:   "",
			},
			&cli.DurationFlag{
				Name:    "redis-ttl",
				EnvVars: []string{"REDIS_TTL"},
				Value:   time.Hour,
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API and the scheduled price refresh",
				Action: cmd.ServeCommand,
			},
			{
				Name:   "refresh",
				Usage:  "refresh the rolling window once and exit",
				Action: cmd.RefreshCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "days",
						Usage: "window size in days, 0 uses the configured default",
					},
				},
			},
			{
				Name:   "backfill",
				Usage:  "load a historical date range, newest first",
				Action: cmd.BackfillCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "from",
						Usage: "start date (YYYY-MM-DD)",
					},
					&cli.StringFlag{
						Name:  "to",
						Usage: "end date (YYYY-MM-DD), defaults to today",
					},
					&cli.IntFlag{
						Name:  "years",
						Usage: "walk back this many years when --from is not set",
						Value: 5,
					},
					&cli.BoolFlag{
						Name:  "force",
						Usage: "refresh dates that already have a row",
					},
				},
			},
			{
				Name:   "reconcile",
				Usage:  "replace fallback-sourced rows with real market data",
				Action: cmd.ReconcileCommand,
			},
			{
				Name:   "migrate",
				Usage:  "apply database migrations",
				Action: cmd.MigrateCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
