// Package config loads application configuration from config.yaml and
// INCIDENT_-prefixed environment variables, and installs the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Pipeline PipelineConfig `yaml:"pipeline" mapstructure:"pipeline"`
	Columns  ColumnsConfig  `yaml:"columns" mapstructure:"columns"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// PipelineConfig configures the cleaning pipeline.
type PipelineConfig struct {
	RulesetPath     string  `yaml:"ruleset_path" mapstructure:"ruleset_path"`
	WeatherPath     string  `yaml:"weather_path" mapstructure:"weather_path"`
	WithWeather     bool    `yaml:"with_weather" mapstructure:"with_weather"`
	WindowDays      int     `yaml:"pay_period_window" mapstructure:"pay_period_window"`
	SparseThreshold float64 `yaml:"sparse_threshold" mapstructure:"sparse_threshold"`
}

// ColumnsConfig maps the pipeline onto the input batch's column names.
type ColumnsConfig struct {
	Description      string   `yaml:"description" mapstructure:"description"`
	Date             string   `yaml:"date" mapstructure:"date"`
	Hour             string   `yaml:"hour" mapstructure:"hour"`
	Borough          string   `yaml:"borough" mapstructure:"borough"`
	LocalityReported string   `yaml:"locality_reported" mapstructure:"locality_reported"`
	LocalityCatalog  string   `yaml:"locality_catalog" mapstructure:"locality_catalog"`
	Jurisdiction     string   `yaml:"jurisdiction" mapstructure:"jurisdiction"`
	Latitude         string   `yaml:"latitude" mapstructure:"latitude"`
	Longitude        string   `yaml:"longitude" mapstructure:"longitude"`
	Context          []string `yaml:"context" mapstructure:"context"`
	Months           []string `yaml:"months" mapstructure:"months"`
}

// StoreConfig configures the run-history database.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ServerConfig configures the stats API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("INCIDENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("store.path", "incident-etl.db")
	v.SetDefault("pipeline.pay_period_window", 2)
	v.SetDefault("pipeline.sparse_threshold", 0.95)
	v.SetDefault("columns.description", "crime_description")
	v.SetDefault("columns.date", "incident_date")
	v.SetDefault("columns.hour", "incident_hour")
	v.SetDefault("columns.borough", "borough")
	v.SetDefault("columns.locality_reported", "locality_reported")
	v.SetDefault("columns.locality_catalog", "locality_catalog")
	v.SetDefault("columns.jurisdiction", "jurisdiction")
	v.SetDefault("columns.latitude", "latitude")
	v.SetDefault("columns.longitude", "longitude")
	v.SetDefault("columns.context", []string{"prosecutor_office", "agency", "investigation_unit"})
	v.SetDefault("columns.months", []string{"start_month", "incident_month"})

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
