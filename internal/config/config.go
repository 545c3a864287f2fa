// Package config loads engine and server settings from portfolio.toml and
// PORTFOLIO_-prefixed environment variables.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/matthewbaird/portfolio/internal/logger"
)

//go:embed engine.cue
var engineSchema string

// Config is the full application configuration.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Stream   StreamConfig   `mapstructure:"stream"`
}

type AppConfig struct {
	Name string `mapstructure:"name" validate:"required"`
	Env  string `mapstructure:"env" validate:"oneof=development staging production test"`
	Port int    `mapstructure:"port" validate:"min=1,max=65535"`
}

type DatabaseConfig struct {
	DSN          string `mapstructure:"dsn" validate:"required"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"min=1"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn warning error"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
	Output string `mapstructure:"output" validate:"required"`
}

// EngineConfig tunes reconciliation and aggregation.
type EngineConfig struct {
	Accrual               string        `mapstructure:"accrual"`
	QueryTimeout          time.Duration `mapstructure:"query_timeout"`
	PaymentConcurrency    int           `mapstructure:"payment_concurrency"`
	EndingSoonDays        int           `mapstructure:"ending_soon_days"`
	FallbackUnitRent      float64       `mapstructure:"fallback_unit_rent"`
	ServiceCostPerRequest float64       `mapstructure:"service_cost_per_request"`
	UtilityCostPerUnit    float64       `mapstructure:"utility_cost_per_unit"`
}

type StreamConfig struct {
	Interval time.Duration `mapstructure:"interval" validate:"min=100ms"`
}

// Logger returns the logger settings.
func (c *Config) Logger() logger.Config {
	return logger.Config{Level: c.Log.Level, Format: c.Log.Format, Output: c.Log.Output}
}

// Load reads configuration. When path is empty, portfolio.toml is looked up
// in the working directory and a missing file is not an error. Environment
// variables override file values, e.g. PORTFOLIO_ENGINE_QUERY_TIMEOUT=2s.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("portfolio")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix("PORTFOLIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "portfolio")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", 8080)

	v.SetDefault("database.dsn", "file:portfolio.db?_pragma=foreign_keys(1)")
	v.SetDefault("database.max_open_conns", 1)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")

	v.SetDefault("engine.accrual", "thirty_day")
	v.SetDefault("engine.query_timeout", "5s")
	v.SetDefault("engine.payment_concurrency", 8)
	v.SetDefault("engine.ending_soon_days", 30)
	v.SetDefault("engine.fallback_unit_rent", 1500)
	v.SetDefault("engine.service_cost_per_request", 150)
	v.SetDefault("engine.utility_cost_per_unit", 100)

	v.SetDefault("stream.interval", "10s")
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct constraints, then the engine section against the
// embedded CUE schema.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := c.Engine.validate(); err != nil {
		return fmt.Errorf("invalid engine config: %w", err)
	}
	return nil
}

func (e EngineConfig) validate() error {
	cctx := cuecontext.New()
	schema := cctx.CompileString(engineSchema, cue.Filename("engine.cue"))
	if err := schema.Err(); err != nil {
		return err
	}
	val := schema.LookupPath(cue.ParsePath("#Engine")).Unify(cctx.Encode(map[string]any{
		"accrual":                  e.Accrual,
		"query_timeout_ms":         e.QueryTimeout.Milliseconds(),
		"payment_concurrency":      e.PaymentConcurrency,
		"ending_soon_days":         e.EndingSoonDays,
		"fallback_unit_rent":       e.FallbackUnitRent,
		"service_cost_per_request": e.ServiceCostPerRequest,
		"utility_cost_per_unit":    e.UtilityCostPerUnit,
	}))
	return val.Validate(cue.Concrete(true))
}
