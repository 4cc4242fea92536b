// Package config loads the fleet-deviation configuration from a YAML file and
// FLEETDEV_* environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Source kinds.
const (
	SourceFile   = "file"
	SourceHTTP   = "http"
	SourceSample = "sample"
)

// Size matching modes.
const (
	SizeMatchAny   = "any"
	SizeMatchRange = "range"
)

// Report formats.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// Config is the complete runtime configuration.
type Config struct {
	Source  SourceConfig  `yaml:"source"`
	Engine  EngineConfig  `yaml:"engine"`
	Report  ReportConfig  `yaml:"report"`
	Server  ServerConfig  `yaml:"server"`
	History HistoryConfig `yaml:"history"`
	Log     LogConfig     `yaml:"log"`
}

// SourceConfig selects where fleet data is loaded from.
type SourceConfig struct {
	// Kind is one of file, http or sample.
	Kind string `yaml:"kind"`

	// Dir holds vessels.json, daily-log-emissions.json and pp-reference.json
	// for the file source.
	Dir string `yaml:"dir"`

	// BaseURL is the root of the fleet API for the http source.
	BaseURL string `yaml:"base_url"`

	// Timeout bounds each HTTP request.
	Timeout time.Duration `yaml:"timeout"`

	// DWTFallback fills in a missing vessel DWT (155000 + 1000 per position).
	DWTFallback bool `yaml:"dwt_fallback"`
}

// EngineConfig tunes the deviation engine.
type EngineConfig struct {
	// Workers is the number of vessels computed in parallel.
	Workers int `yaml:"workers"`

	// SizeMatching is "any" (every row of the category applies) or "range"
	// (row Size is parsed as a DWT bracket).
	SizeMatching string `yaml:"size_matching"`
}

// ReportConfig controls presentation.
type ReportConfig struct {
	// Format is json or text.
	Format string `yaml:"format"`

	// Precision is the number of decimal places shown for values.
	Precision int32 `yaml:"precision"`
}

// ServerConfig configures serve mode.
type ServerConfig struct {
	Listen string `yaml:"listen"`
}

// HistoryConfig configures the SQLite report history. An empty Path
// disables it.
type HistoryConfig struct {
	Path string `yaml:"path"`

	// Keep is the number of reports retained after each save; 0 keeps all.
	Keep int `yaml:"keep"`
}

// LogConfig configures the zerolog logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console or json
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Source: SourceConfig{
			Kind:    SourceSample,
			Dir:     ".",
			Timeout: 30 * time.Second,
		},
		Engine: EngineConfig{
			Workers:      4,
			SizeMatching: SizeMatchAny,
		},
		Report: ReportConfig{
			Format:    FormatJSON,
			Precision: 2,
		},
		Server: ServerConfig{
			Listen: ":8080",
		},
		History: HistoryConfig{
			Keep: 100,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads the YAML file at path (skipped when path is empty), applies
// FLEETDEV_* environment overrides and validates the result.
func Load(path string, logger zerolog.Logger) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	applyEnv(&cfg, logger)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	logger.Debug().
		Str("source", cfg.Source.Kind).
		Int("workers", cfg.Engine.Workers).
		Str("size_matching", cfg.Engine.SizeMatching).
		Str("format", cfg.Report.Format).
		Msg("configuration loaded")

	return cfg, nil
}

// applyEnv overlays environment variables. Invalid numeric values keep the
// current value and log a warning.
func applyEnv(cfg *Config, logger zerolog.Logger) {
	if v := os.Getenv("FLEETDEV_SOURCE"); v != "" {
		cfg.Source.Kind = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("FLEETDEV_DATA_DIR"); v != "" {
		cfg.Source.Dir = v
	}
	if v := os.Getenv("FLEETDEV_API_URL"); v != "" {
		cfg.Source.BaseURL = strings.TrimSpace(v)
	}
	if v := os.Getenv("FLEETDEV_API_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Source.Timeout = d
		} else {
			logger.Warn().Str("value", v).Msg("invalid FLEETDEV_API_TIMEOUT, using default")
		}
	}
	if v := os.Getenv("FLEETDEV_DWT_FALLBACK"); v != "" {
		cfg.Source.DWTFallback = strings.ToLower(v) == "true"
	}
	if v := os.Getenv("FLEETDEV_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.Engine.Workers = n
		} else {
			logger.Warn().Str("value", v).Msg("invalid FLEETDEV_WORKERS, using default")
		}
	}
	if v := os.Getenv("FLEETDEV_SIZE_MATCHING"); v != "" {
		cfg.Engine.SizeMatching = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("FLEETDEV_FORMAT"); v != "" {
		cfg.Report.Format = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("FLEETDEV_PRECISION"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil && n >= 0 {
			cfg.Report.Precision = int32(n)
		} else {
			logger.Warn().Str("value", v).Msg("invalid FLEETDEV_PRECISION, using default")
		}
	}
	if v := os.Getenv("FLEETDEV_LISTEN"); v != "" {
		cfg.Server.Listen = v
	}
	if v := os.Getenv("FLEETDEV_HISTORY_PATH"); v != "" {
		cfg.History.Path = v
	}
	if v := os.Getenv("FLEETDEV_HISTORY_KEEP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.History.Keep = n
		} else {
			logger.Warn().Str("value", v).Msg("invalid FLEETDEV_HISTORY_KEEP, using default")
		}
	}
	if v := os.Getenv("FLEETDEV_LOG_LEVEL"); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("FLEETDEV_LOG_FORMAT"); v != "" {
		cfg.Log.Format = strings.ToLower(v)
	}
}

// Validate rejects contradictory or unknown settings.
func (c Config) Validate() error {
	switch c.Source.Kind {
	case SourceSample:
	case SourceFile:
		if c.Source.Dir == "" {
			return fmt.Errorf("source kind %q requires source.dir", c.Source.Kind)
		}
	case SourceHTTP:
		if c.Source.BaseURL == "" {
			return fmt.Errorf("source kind %q requires source.base_url", c.Source.Kind)
		}
	default:
		return fmt.Errorf("unknown source kind %q", c.Source.Kind)
	}

	switch c.Engine.SizeMatching {
	case SizeMatchAny, SizeMatchRange:
	default:
		return fmt.Errorf("unknown size matching mode %q", c.Engine.SizeMatching)
	}

	switch c.Report.Format {
	case FormatJSON, FormatText:
	default:
		return fmt.Errorf("unknown report format %q", c.Report.Format)
	}

	if c.Report.Precision < 0 {
		return fmt.Errorf("report precision must not be negative, got %d", c.Report.Precision)
	}
	if c.Engine.Workers < 0 {
		return fmt.Errorf("engine workers must not be negative, got %d", c.Engine.Workers)
	}
	if c.History.Keep < 0 {
		return fmt.Errorf("history keep must not be negative, got %d", c.History.Keep)
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.Log.Level, err)
	}
	return nil
}

// Logger builds the zerolog logger described by the log section.
func (c LogConfig) Logger() zerolog.Logger {
	level, err := zerolog.ParseLevel(c.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if c.Format == "json" {
		logger = zerolog.New(os.Stderr)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	return logger.Level(level).With().Timestamp().Str("component", "fleet-deviation").Logger()
}
