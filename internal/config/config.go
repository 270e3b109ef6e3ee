// Package config provides configuration types and defaults for aftershock.
package config

import (
	"fmt"
	"maps"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/zjrosen/aftershock/internal/flags"
	"github.com/zjrosen/aftershock/internal/log"
)

// Catalog source kinds.
const (
	SourceSynthetic = "synthetic"
	SourceFile      = "file"
)

// Config holds all configuration options for aftershock.
type Config struct {
	DataDir  string           `mapstructure:"data_dir"`
	Debug    bool             `mapstructure:"debug"`
	Catalog  CatalogConfig    `mapstructure:"catalog"`
	Defaults ForecastDefaults `mapstructure:"defaults"`
	UI       UIConfig         `mapstructure:"ui"`
	Tracing  TracingConfig    `mapstructure:"tracing"`
	Flags    map[string]bool  `mapstructure:"flags"`
}

// CatalogConfig selects where mainshocks and aftershocks come from.
type CatalogConfig struct {
	Source   string        `mapstructure:"source"`    // "synthetic" (default) or "file"
	FilePath string        `mapstructure:"file_path"` // YAML catalog (required when source=file)
	Seed     uint64        `mapstructure:"seed"`      // Synthetic generator seed
	Count    int           `mapstructure:"count"`     // Synthetic aftershocks per sequence
	CacheTTL time.Duration `mapstructure:"cache_ttl"` // 0 disables the catalog cache
}

// ForecastDefaults are the initial values of the parameter panels.
type ForecastDefaults struct {
	Mc                float64   `mapstructure:"mc" yaml:"mc"`
	MagPrecision      float64   `mapstructure:"mag_precision" yaml:"mag_precision"`
	DataStartDays     float64   `mapstructure:"data_start_days" yaml:"data_start_days"`
	DataEndDays       float64   `mapstructure:"data_end_days" yaml:"data_end_days"`
	RadiusKm          float64   `mapstructure:"radius_km" yaml:"radius_km"`
	MinMag            float64   `mapstructure:"min_mag" yaml:"min_mag"`
	P                 float64   `mapstructure:"p" yaml:"p"`
	C                 float64   `mapstructure:"c" yaml:"c"`
	ForecastStartDays float64   `mapstructure:"forecast_start_days" yaml:"forecast_start_days"`
	ForecastDurations []float64 `mapstructure:"forecast_durations" yaml:"forecast_durations,flow"`
	ForecastMags      []float64 `mapstructure:"forecast_mags" yaml:"forecast_mags,flow"`
}

// UIConfig holds user interface configuration options.
type UIConfig struct {
	ShowStatusBar bool   `mapstructure:"show_status_bar"`
	MarkdownStyle string `mapstructure:"markdown_style"` // "dark" (default), "light" or "notty"
}

// TracingConfig holds distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether tracing is active.
	Enabled bool `mapstructure:"enabled"`

	// Exporter selects the trace export backend: "none", "file", "stdout", or "otlp".
	Exporter string `mapstructure:"exporter"`

	// FilePath is the output path for the file exporter.
	FilePath string `mapstructure:"file_path"`

	// OTLPEndpoint is the collector address for the otlp exporter.
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`

	// SampleRate is the fraction of runs traced, 0.0 to 1.0.
	SampleRate float64 `mapstructure:"sample_rate"`
}

// DefaultTracesFilePath returns the default path for trace file export.
// Returns ~/.config/aftershock/traces/traces.jsonl or empty string if home dir unavailable.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "aftershock", "traces", "traces.jsonl")
}

// DefaultDataDir returns ~/.aftershock, or .aftershock if home dir unavailable.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".aftershock"
	}
	return filepath.Join(home, ".aftershock")
}

// HistoryPath returns the forecast history database location.
func (c Config) HistoryPath() string {
	dir := c.DataDir
	if dir == "" {
		dir = DefaultDataDir()
	}
	return filepath.Join(dir, "history.db")
}

// FeatureFlags returns the configured flags layered over their defaults.
func (c Config) FeatureFlags() *flags.Registry {
	return flags.New(c.Flags)
}

// Validate checks the whole configuration.
func (c Config) Validate() error {
	if err := ValidateCatalog(c.Catalog); err != nil {
		return err
	}
	if err := ValidateDefaults(c.Defaults); err != nil {
		return err
	}
	if err := ValidateUI(c.UI); err != nil {
		return err
	}
	return ValidateTracing(c.Tracing)
}

// ValidateCatalog checks catalog source configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateCatalog(cat CatalogConfig) error {
	switch cat.Source {
	case "", SourceSynthetic:
	case SourceFile:
		if cat.FilePath == "" {
			return fmt.Errorf("catalog.file_path is required when source is %q", SourceFile)
		}
	default:
		return fmt.Errorf("catalog.source must be %q or %q, got %q", SourceSynthetic, SourceFile, cat.Source)
	}
	if cat.Count < 0 {
		return fmt.Errorf("catalog.count must not be negative, got %d", cat.Count)
	}
	if cat.CacheTTL < 0 {
		return fmt.Errorf("catalog.cache_ttl must not be negative, got %s", cat.CacheTTL)
	}
	return nil
}

// ValidateDefaults checks the parameter defaults for errors.
func ValidateDefaults(d ForecastDefaults) error {
	fields := []struct {
		name string
		v    float64
		ok   bool
	}{
		{"mc", d.Mc, true},
		{"mag_precision", d.MagPrecision, d.MagPrecision > 0},
		{"data_start_days", d.DataStartDays, d.DataStartDays >= 0},
		{"data_end_days", d.DataEndDays, d.DataEndDays > d.DataStartDays},
		{"radius_km", d.RadiusKm, d.RadiusKm > 0},
		{"min_mag", d.MinMag, true},
		{"p", d.P, d.P > 0},
		{"c", d.C, d.C > 0},
		{"forecast_start_days", d.ForecastStartDays, d.ForecastStartDays >= 0},
	}
	for _, f := range fields {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("defaults.%s must be a finite number", f.name)
		}
		if !f.ok {
			return fmt.Errorf("defaults.%s is out of range, got %v", f.name, f.v)
		}
	}

	if len(d.ForecastDurations) == 0 {
		return fmt.Errorf("defaults.forecast_durations must not be empty")
	}
	for i, v := range d.ForecastDurations {
		if !(v > 0) || math.IsInf(v, 0) {
			return fmt.Errorf("defaults.forecast_durations[%d] must be positive, got %v", i, v)
		}
	}
	if len(d.ForecastMags) == 0 {
		return fmt.Errorf("defaults.forecast_mags must not be empty")
	}
	for i, v := range d.ForecastMags {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("defaults.forecast_mags[%d] must be a finite number", i)
		}
	}
	return nil
}

// ValidateUI checks user interface options.
func ValidateUI(ui UIConfig) error {
	switch ui.MarkdownStyle {
	case "", "dark", "light", "notty":
		return nil
	default:
		return fmt.Errorf("ui.markdown_style must be \"dark\", \"light\", or \"notty\", got %q", ui.MarkdownStyle)
	}
}

// ValidateTracing checks tracing configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTracing(tracing TracingConfig) error {
	if tracing.SampleRate < 0.0 || tracing.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", tracing.SampleRate)
	}

	if tracing.Exporter != "" {
		switch tracing.Exporter {
		case "none", "file", "stdout", "otlp":
			// Valid
		default:
			return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", tracing.Exporter)
		}
	}

	// Only validate path requirements when tracing is enabled
	if tracing.Enabled {
		if tracing.Exporter == "file" && tracing.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
		}
		if tracing.Exporter == "otlp" && tracing.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}

	return nil
}

// DefaultForecastDefaults returns the parameter values used when the config
// file has none.
func DefaultForecastDefaults() ForecastDefaults {
	return ForecastDefaults{
		Mc:                3.0,
		MagPrecision:      0.1,
		DataStartDays:     0,
		DataEndDays:       7,
		RadiusKm:          100,
		MinMag:            2.5,
		P:                 1.08,
		C:                 0.018,
		ForecastStartDays: 7,
		ForecastDurations: []float64{1, 7, 30, 365},
		ForecastMags:      []float64{3, 4, 5, 6, 7},
	}
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		DataDir: DefaultDataDir(),
		Catalog: CatalogConfig{
			Source:   SourceSynthetic,
			Seed:     1,
			Count:    50,
			CacheTTL: 10 * time.Minute,
		},
		Defaults: DefaultForecastDefaults(),
		UI: UIConfig{
			ShowStatusBar: true,
			MarkdownStyle: "dark",
		},
		Tracing: TracingConfig{
			Enabled:      false,
			Exporter:     "file",
			FilePath:     "", // Derived from config dir at runtime
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
		},
		Flags: maps.Clone(flags.Defaults),
	}
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# Aftershock Configuration

# Where forecast history is stored (default: ~/.aftershock)
# data_dir: /path/to/data

# Write a debug log (same as --debug)
debug: false

# Where mainshocks and aftershocks come from
catalog:
  source: synthetic   # "synthetic" (default) or "file"
  # file_path: ./catalog.yaml  # Required when source is "file", reloaded on change
  seed: 1             # Synthetic generator seed
  count: 50           # Synthetic aftershocks per sequence
  cache_ttl: 10m      # Cache catalog queries, 0 disables the cache

# Initial parameter values (ctrl+s in the app saves the current ones here)
defaults:
  mc: 3.0
  mag_precision: 0.1
  data_start_days: 0
  data_end_days: 7
  radius_km: 100
  min_mag: 2.5
  p: 1.08
  c: 0.018
  forecast_start_days: 7
  forecast_durations: [1, 7, 30, 365]
  forecast_mags: [3, 4, 5, 6, 7]

# UI settings
ui:
  show_status_bar: true   # Show status bar at bottom
  # markdown_style: dark  # Forecast table style: "dark" (default), "light" or "notty"

# Distributed tracing of forecast runs
# tracing:
#   enabled: false                 # Enable/disable tracing (default: false)
#   exporter: file                 # Export backend: none, file, stdout, otlp (default: file)
#   file_path: ~/.config/aftershock/traces/traces.jsonl  # Output file for file exporter
#   otlp_endpoint: localhost:4317  # OTLP collector endpoint (for otlp exporter)
#   sample_rate: 1.0               # Trace sampling rate 0.0-1.0 (default: 1.0)

# Feature flags
# flags:
#   cancelable-runs: false   # Esc cancels a running operation
#   forecast-history: true   # Save completed forecasts
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
