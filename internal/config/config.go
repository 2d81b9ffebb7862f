package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"pricelens/internal/logging"
	"pricelens/internal/pricing"
)

// Config materialises application configuration.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Logging    logging.Config   `mapstructure:"logging"`
	Pipeline   PipelineConfig   `mapstructure:"pipeline"`
	Recognizer RecognizerConfig `mapstructure:"recognizer"`
	Source     SourceConfig     `mapstructure:"source"`
	Settings   SettingsConfig   `mapstructure:"settings"`
	History    HistoryConfig    `mapstructure:"history"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Alerting   AlertingConfig   `mapstructure:"alerting"`
	Export     ExportConfig     `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// PipelineConfig governs detection filtering and frame admission.
type PipelineConfig struct {
	ConfidenceThreshold float64       `mapstructure:"confidence_threshold"`
	DedupeDistance      float64       `mapstructure:"dedupe_distance"`
	Mode                string        `mapstructure:"mode"`
	Throttle            time.Duration `mapstructure:"throttle"`
	SkipSimilarFrames   bool          `mapstructure:"skip_similar_frames"`
	MaxHashDistance     int           `mapstructure:"max_hash_distance"`
}

// RecognizerConfig covers the OCR engine.
type RecognizerConfig struct {
	Language       string `mapstructure:"language"`
	TessdataPrefix string `mapstructure:"tessdata_prefix"`
	Preprocess     bool   `mapstructure:"preprocess"`
}

// SourceConfig describes where frames come from.
type SourceConfig struct {
	Dir      string        `mapstructure:"dir"`
	Interval time.Duration `mapstructure:"interval"`
}

// SettingsConfig locates the currency settings record.
type SettingsConfig struct {
	Path string `mapstructure:"path"`
}

// HistoryConfig selects and tunes the conversion history backend.
type HistoryConfig struct {
	Backend    string `mapstructure:"backend"`
	Path       string `mapstructure:"path"`
	MaxRecords int    `mapstructure:"max_records"`
}

// DatabaseConfig encapsulates PostgreSQL connectivity for the postgres
// history backend.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// AlertingConfig defines conversion notification routing.
type AlertingConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	WebhookURL     string        `mapstructure:"webhook_url"`
	MinConverted   float64       `mapstructure:"min_converted"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxDataPoints int `mapstructure:"max_data_points"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PRICELENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "pricelens")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("pipeline.confidence_threshold", 0.9)
	v.SetDefault("pipeline.dedupe_distance", 0.05)
	v.SetDefault("pipeline.mode", "balanced")
	v.SetDefault("pipeline.throttle", "100ms")
	v.SetDefault("pipeline.skip_similar_frames", false)
	v.SetDefault("pipeline.max_hash_distance", 5)

	v.SetDefault("recognizer.language", "eng")
	v.SetDefault("recognizer.preprocess", true)

	v.SetDefault("source.dir", "frames")
	v.SetDefault("source.interval", "150ms")

	v.SetDefault("settings.path", "data/currency_settings.json")

	v.SetDefault("history.backend", "file")
	v.SetDefault("history.path", "data/conversion_history.json")
	v.SetDefault("history.max_records", 50)

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")

	v.SetDefault("alerting.enabled", false)
	v.SetDefault("alerting.min_converted", 0.0)
	v.SetDefault("alerting.request_timeout", "10s")

	v.SetDefault("export.max_data_points", 100000)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Pipeline.ConfidenceThreshold < 0 || c.Pipeline.ConfidenceThreshold > 1 {
		return fmt.Errorf("pipeline.confidence_threshold must be within [0, 1]")
	}
	if c.Pipeline.DedupeDistance < 0 {
		return fmt.Errorf("pipeline.dedupe_distance cannot be negative")
	}
	if _, err := pricing.ParseMode(c.Pipeline.Mode); err != nil {
		return fmt.Errorf("pipeline.mode: %w", err)
	}
	if c.Pipeline.Throttle < 0 {
		return fmt.Errorf("pipeline.throttle cannot be negative")
	}
	if c.Source.Interval <= 0 {
		return fmt.Errorf("source.interval must be greater than zero")
	}
	if c.History.MaxRecords <= 0 {
		return fmt.Errorf("history.max_records must be greater than zero")
	}
	switch c.History.Backend {
	case "file":
		if c.History.Path == "" {
			return fmt.Errorf("history.path is required for the file backend")
		}
	case "postgres":
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("history.backend must be file or postgres")
	}
	if c.Alerting.Enabled && c.Alerting.WebhookURL == "" {
		return fmt.Errorf("alerting.webhook_url must be configured when alerting is enabled")
	}
	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}
	return nil
}

// ResolveMaxPoints returns either the CLI override or config default.
func (c *Config) ResolveMaxPoints(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxDataPoints
}
