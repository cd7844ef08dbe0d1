package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        AppConfig
	Log        LogConfig
	Reporting  ReportingConfig
	Commission CommissionConfig
	Export     ExportConfig
	HTTP       HTTPConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// ReportingConfig holds reporting API and background refresh settings
type ReportingConfig struct {
	BaseURL                string
	Timeout                time.Duration
	PollEnabled            bool
	PollInterval           time.Duration
	SilentFailureThreshold int
}

// CommissionConfig holds the two independently configurable commission rates.
// TransactionRate is the fallback applied to individual transaction rows in
// exports; AggregateRateFallback stands in for the summary rate when the
// reporting API omits it. Neither is ever derived from the other.
type CommissionConfig struct {
	TransactionRate       decimal.Decimal
	AggregateRateFallback decimal.Decimal
}

// ExportConfig holds report export settings
type ExportConfig struct {
	ProductName string
	FilePrefix  string
	RecentLimit int
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
	TrustedProxies []string
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with ATHLO_ prefix (e.g., ATHLO_REPORTING_BASE_URL)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	// Set config file settings
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	// Enable environment variable override
	v.SetEnvPrefix("ATHLO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	txRate, err := parseRate("commission.transaction_rate", v.GetString("commission.transaction_rate"))
	if err != nil {
		return nil, err
	}
	aggRate, err := parseRate("commission.aggregate_rate_fallback", v.GetString("commission.aggregate_rate_fallback"))
	if err != nil {
		return nil, err
	}

	// Build config struct
	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Reporting: ReportingConfig{
			BaseURL:                v.GetString("reporting.base_url"),
			Timeout:                v.GetDuration("reporting.timeout"),
			PollEnabled:            v.GetBool("reporting.poll_enabled"),
			PollInterval:           v.GetDuration("reporting.poll_interval"),
			SilentFailureThreshold: v.GetInt("reporting.silent_failure_threshold"),
		},
		Commission: CommissionConfig{
			TransactionRate:       txRate,
			AggregateRateFallback: aggRate,
		},
		Export: ExportConfig{
			ProductName: v.GetString("export.product_name"),
			FilePrefix:  v.GetString("export.file_prefix"),
			RecentLimit: v.GetInt("export.recent_limit"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			IdleTimeout:    v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes: v.GetInt("http.max_header_bytes"),
			TrustedProxies: v.GetStringSlice("http.trusted_proxies"),
		},
	}

	// Apply defaults for empty values
	applyDefaults(cfg)

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func parseRate(key, s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	rate, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s is not a valid decimal: %w", key, err)
	}
	return rate, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "athlo-dashboard"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.Reporting.BaseURL == "" {
		cfg.Reporting.BaseURL = "http://localhost:9090/api"
	}
	if cfg.Reporting.Timeout == 0 {
		cfg.Reporting.Timeout = 15 * time.Second
	}
	if cfg.Reporting.PollInterval == 0 {
		cfg.Reporting.PollInterval = 30 * time.Second
	}
	if cfg.Reporting.SilentFailureThreshold == 0 {
		cfg.Reporting.SilentFailureThreshold = 3
	}
	if cfg.Commission.TransactionRate.IsZero() {
		cfg.Commission.TransactionRate = decimal.NewFromFloat(0.025)
	}
	if cfg.Export.ProductName == "" {
		cfg.Export.ProductName = "Athlo"
	}
	if cfg.Export.FilePrefix == "" {
		cfg.Export.FilePrefix = "Athlo"
	}
	if cfg.Export.RecentLimit == 0 {
		cfg.Export.RecentLimit = 20
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 30 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Reporting.PollInterval < time.Second {
		return fmt.Errorf("reporting.poll_interval must be at least 1s, got %s", c.Reporting.PollInterval)
	}
	if c.Reporting.SilentFailureThreshold < 1 {
		return fmt.Errorf("reporting.silent_failure_threshold must be positive, got %d", c.Reporting.SilentFailureThreshold)
	}
	if c.Commission.TransactionRate.IsNegative() || c.Commission.TransactionRate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("commission.transaction_rate must be between 0 and 1, got %s", c.Commission.TransactionRate)
	}
	if c.Commission.AggregateRateFallback.IsNegative() || c.Commission.AggregateRateFallback.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("commission.aggregate_rate_fallback must be between 0 and 1, got %s", c.Commission.AggregateRateFallback)
	}
	if c.Export.RecentLimit < 1 {
		return fmt.Errorf("export.recent_limit must be positive, got %d", c.Export.RecentLimit)
	}

	// Production-specific validations
	if c.App.Env == "production" {
		if c.Reporting.BaseURL == "http://localhost:9090/api" {
			return fmt.Errorf("reporting.base_url must be configured in production")
		}
	}

	return nil
}
