package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the complete cfactor configuration
type Config struct {
	Factors FactorConfig `yaml:"factors"`
	Server  ServerConfig `yaml:"server"`
	Output  OutputConfig `yaml:"output"`
}

// FactorConfig holds the look-back windows and portfolio construction parameters
type FactorConfig struct {
	MomentumWindow       int `yaml:"momentum_window" validate:"min=1"`        // trailing months summed
	MomentumLag          int `yaml:"momentum_lag" validate:"min=0"`           // skip-month lag
	BasisMomentumPeriod  int `yaml:"basis_momentum_period" validate:"min=1"`  // pct change horizon per tenor
	ValueWindow          int `yaml:"value_window" validate:"min=1"`           // 5y reversal
	SkewnessWindow       int `yaml:"skewness_window" validate:"min=3"`        // skew needs 3 points
	BetaWindow           int `yaml:"beta_window" validate:"min=2"`            // inflation beta regression
	InflationTrendWindow int `yaml:"inflation_trend_window" validate:"min=1"` // expected inflation proxy
	VolatilityWindow     int `yaml:"volatility_window" validate:"min=2"`      // daily observations
	AnnualizationPeriods int `yaml:"annualization_periods" validate:"min=1"`  // sqrt scaling of daily vol
	Buckets              int `yaml:"buckets" validate:"min=2"`                // n in ±1/n
	Parallelism          int `yaml:"parallelism" validate:"min=0"`            // 0 or 1 runs serially
}

// ServerConfig holds HTTP API settings
type ServerConfig struct {
	Host           string        `yaml:"host" validate:"required"`
	Port           int           `yaml:"port" validate:"min=1,max=65535"`
	ReadTimeout    time.Duration `yaml:"read_timeout" validate:"gt=0"`
	WriteTimeout   time.Duration `yaml:"write_timeout" validate:"gt=0"`
	IdleTimeout    time.Duration `yaml:"idle_timeout" validate:"gt=0"`
	RequestTimeout time.Duration `yaml:"request_timeout" validate:"gt=0"`
	RateLimitRPS   float64       `yaml:"rate_limit_rps" validate:"gte=0"` // 0 disables limiting
	RateLimitBurst int           `yaml:"rate_limit_burst" validate:"gte=0"`
	MaxBodyBytes   int64         `yaml:"max_body_bytes" validate:"gt=0"`
}

// OutputConfig controls how compute results are written
type OutputConfig struct {
	Dir     string `yaml:"dir" validate:"required"`
	Format  string `yaml:"format" validate:"oneof=csv json"`
	Signals bool   `yaml:"signals"` // also write the raw signal behind each weight table
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Factors: DefaultFactorConfig(),
		Server: ServerConfig{
			Host:           "127.0.0.1",
			Port:           8080,
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   30 * time.Second,
			IdleTimeout:    60 * time.Second,
			RequestTimeout: 20 * time.Second,
			RateLimitRPS:   5,
			RateLimitBurst: 10,
			MaxBodyBytes:   32 << 20,
		},
		Output: OutputConfig{
			Dir:    "out",
			Format: "csv",
		},
	}
}

// DefaultFactorConfig returns the standard monthly commodity factor windows
func DefaultFactorConfig() FactorConfig {
	return FactorConfig{
		MomentumWindow:       12,
		MomentumLag:          1,
		BasisMomentumPeriod:  12,
		ValueWindow:          60,
		SkewnessWindow:       12,
		BetaWindow:           60,
		InflationTrendWindow: 12,
		VolatilityWindow:     252,
		AnnualizationPeriods: 252,
		Buckets:              3,
		Parallelism:          1,
	}
}

// Load reads a YAML file on top of the defaults, applies env overrides and validates
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides selected fields from CFACTOR_* environment variables
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("CFACTOR_HTTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CFACTOR_HTTP_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("CFACTOR_PARALLELISM"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CFACTOR_PARALLELISM: %w", err)
		}
		c.Factors.Parallelism = n
	}
	return nil
}

// Validate ensures the configuration is valid and consistent
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if err := c.Factors.Validate(); err != nil {
		return fmt.Errorf("factors: %w", err)
	}

	// A positive rate needs room for at least one request per burst
	if c.Server.RateLimitRPS > 0 && float64(c.Server.RateLimitBurst) < math.Ceil(c.Server.RateLimitRPS) {
		return fmt.Errorf("server: rate_limit_burst (%d) must be >= rate_limit_rps (%.2f)",
			c.Server.RateLimitBurst, c.Server.RateLimitRPS)
	}
	return nil
}

// Validate checks factor windows on their own, for callers that skip the full config
func (f FactorConfig) Validate() error {
	return validate.Struct(f)
}

var validate = validator.New()
