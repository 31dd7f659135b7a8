package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	DatabaseURL      string `env:"DATABASE_URL"`
	MigrationsFolder string `env:"MIGRATIONS_FOLDER" envDefault:"./migrations"`
	LogLevel         string `env:"LOG_LEVEL" envDefault:"INFO"`
	HTTPAddr         string `env:"HTTP_ADDR" envDefault:"0.0.0.0:8000"`
	// AuthSecret signs the bearer tokens accepted on the mutating ops
	// endpoints. Empty disables the check (local runs).
	AuthSecret     string `env:"AUTH_SECRET"`
	RetentionYears int    `env:"RETENTION_YEARS" envDefault:"6"`

	EnergyZero   *EnergyZeroConfig
	Entsoe       *EntsoeConfig
	Orchestrator *OrchestratorConfig
	Mqtt         *MqttConfig
	Redis        *RedisConfig
}

type EnergyZeroConfig struct {
	BaseURL string        `env:"ENERGYZERO_BASE_URL"`
	Timeout time.Duration `env:"ENERGYZERO_TIMEOUT" envDefault:"30s"`
}

// EntsoeConfig enables the secondary day-ahead source. An empty token
// leaves the pipeline on the primary feed alone.
type EntsoeConfig struct {
	BaseURL string        `env:"ENTSOE_BASE_URL"`
	Token   string        `env:"ENTSOE_API_KEY"`
	Timeout time.Duration `env:"ENTSOE_TIMEOUT" envDefault:"30s"`
}

type OrchestratorConfig struct {
	BatchSize              int           `env:"BATCH_SIZE" envDefault:"50"`
	BatchDelay             time.Duration `env:"BATCH_DELAY" envDefault:"2s"`
	FetchTimeout           time.Duration `env:"FETCH_TIMEOUT" envDefault:"30s"`
	MaxConsecutiveFailures int           `env:"MAX_CONSECUTIVE_FAILURES" envDefault:"30"`
	RefreshWindowDays      int           `env:"REFRESH_WINDOW_DAYS" envDefault:"7"`
	DefaultGasPrice        float64       `env:"DEFAULT_GAS_PRICE" envDefault:"0.80"`
}

type MqttConfig struct {
	Host     string `env:"MQTT_HOST"`
	Username string `env:"MQTT_USER"`
	Password string `env:"MQTT_PASS"`
}

type RedisConfig struct {
	Addr string        `env:"REDIS_ADDR"`
	TTL  time.Duration `env:"REDIS_TTL" envDefault:"1h"`
}

// FromEnv builds a config entirely from the environment. Every run
// starts from this; CLI flags are overlaid on top of it.
func FromEnv() (*Config, error) {
	cfg := &Config{
		EnergyZero:   &EnergyZeroConfig{},
		Entsoe:       &EntsoeConfig{},
		Orchestrator: &OrchestratorConfig{},
		Mqtt:         &MqttConfig{},
		Redis:        &RedisConfig{},
	}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
