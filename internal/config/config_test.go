package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/aftershock/internal/flags"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())
	require.Equal(t, SourceSynthetic, cfg.Catalog.Source)
	require.Equal(t, 50, cfg.Catalog.Count)
	require.Equal(t, 10*time.Minute, cfg.Catalog.CacheTTL)
	require.True(t, cfg.UI.ShowStatusBar)
	require.Equal(t, "dark", cfg.UI.MarkdownStyle)
	require.False(t, cfg.Tracing.Enabled)
	require.Equal(t, 1.0, cfg.Tracing.SampleRate)
}

func TestDefaults_FlagsAreACopy(t *testing.T) {
	cfg := Defaults()
	cfg.Flags[flags.FlagCancelableRuns] = true
	require.False(t, flags.Defaults[flags.FlagCancelableRuns])
}

func TestConfig_FeatureFlags(t *testing.T) {
	cfg := Config{Flags: map[string]bool{flags.FlagCancelableRuns: true}}
	reg := cfg.FeatureFlags()
	require.True(t, reg.Enabled(flags.FlagCancelableRuns))
	require.True(t, reg.Enabled(flags.FlagForecastHistory))
}

func TestConfig_HistoryPath(t *testing.T) {
	cfg := Config{DataDir: "/tmp/quakes"}
	require.Equal(t, filepath.Join("/tmp/quakes", "history.db"), cfg.HistoryPath())

	require.Equal(t, filepath.Join(DefaultDataDir(), "history.db"), Config{}.HistoryPath())
}

func TestValidateCatalog(t *testing.T) {
	tests := []struct {
		name    string
		cat     CatalogConfig
		wantErr string
	}{
		{name: "empty uses defaults", cat: CatalogConfig{}},
		{name: "synthetic", cat: CatalogConfig{Source: SourceSynthetic, Count: 10}},
		{name: "file", cat: CatalogConfig{Source: SourceFile, FilePath: "catalog.yaml"}},
		{name: "file without path", cat: CatalogConfig{Source: SourceFile}, wantErr: "catalog.file_path is required"},
		{name: "unknown source", cat: CatalogConfig{Source: "comcat"}, wantErr: `got "comcat"`},
		{name: "negative count", cat: CatalogConfig{Count: -1}, wantErr: "catalog.count must not be negative"},
		{name: "negative ttl", cat: CatalogConfig{CacheTTL: -time.Second}, wantErr: "catalog.cache_ttl must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCatalog(tt.cat)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestValidateDefaults(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ForecastDefaults)
		wantErr string
	}{
		{name: "defaults", mutate: func(*ForecastDefaults) {}},
		{name: "nan mc", mutate: func(d *ForecastDefaults) { d.Mc = math.NaN() }, wantErr: "defaults.mc must be a finite number"},
		{name: "zero precision", mutate: func(d *ForecastDefaults) { d.MagPrecision = 0 }, wantErr: "defaults.mag_precision is out of range"},
		{name: "end before start", mutate: func(d *ForecastDefaults) { d.DataEndDays = d.DataStartDays }, wantErr: "defaults.data_end_days"},
		{name: "negative radius", mutate: func(d *ForecastDefaults) { d.RadiusKm = -5 }, wantErr: "defaults.radius_km"},
		{name: "zero p", mutate: func(d *ForecastDefaults) { d.P = 0 }, wantErr: "defaults.p is out of range"},
		{name: "inf c", mutate: func(d *ForecastDefaults) { d.C = math.Inf(1) }, wantErr: "defaults.c must be a finite number"},
		{name: "no durations", mutate: func(d *ForecastDefaults) { d.ForecastDurations = nil }, wantErr: "forecast_durations must not be empty"},
		{name: "zero duration", mutate: func(d *ForecastDefaults) { d.ForecastDurations = []float64{1, 0} }, wantErr: "forecast_durations[1] must be positive"},
		{name: "no mags", mutate: func(d *ForecastDefaults) { d.ForecastMags = []float64{} }, wantErr: "forecast_mags must not be empty"},
		{name: "nan mag", mutate: func(d *ForecastDefaults) { d.ForecastMags = []float64{math.NaN()} }, wantErr: "forecast_mags[0] must be a finite number"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := DefaultForecastDefaults()
			tt.mutate(&d)
			err := ValidateDefaults(d)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestValidateUI(t *testing.T) {
	require.NoError(t, ValidateUI(UIConfig{}))
	require.NoError(t, ValidateUI(UIConfig{MarkdownStyle: "light"}))
	require.ErrorContains(t, ValidateUI(UIConfig{MarkdownStyle: "neon"}), "ui.markdown_style")
}

func TestValidateTracing(t *testing.T) {
	tests := []struct {
		name    string
		tracing TracingConfig
		wantErr string
	}{
		{name: "empty", tracing: TracingConfig{}},
		{name: "disabled file without path", tracing: TracingConfig{Exporter: "file"}},
		{name: "enabled file", tracing: TracingConfig{Enabled: true, Exporter: "file", FilePath: "/tmp/t.jsonl", SampleRate: 1}},
		{name: "enabled file without path", tracing: TracingConfig{Enabled: true, Exporter: "file"}, wantErr: "tracing.file_path is required"},
		{name: "enabled otlp without endpoint", tracing: TracingConfig{Enabled: true, Exporter: "otlp"}, wantErr: "tracing.otlp_endpoint is required"},
		{name: "bad exporter", tracing: TracingConfig{Exporter: "zipkin"}, wantErr: "tracing.exporter must be"},
		{name: "sample rate too high", tracing: TracingConfig{SampleRate: 1.5}, wantErr: "tracing.sample_rate"},
		{name: "sample rate negative", tracing: TracingConfig{SampleRate: -0.1}, wantErr: "tracing.sample_rate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTracing(tt.tracing)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestWriteDefaultConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), ".aftershock", "config.yaml")
	require.NoError(t, WriteDefaultConfig(configPath))

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	require.Equal(t, DefaultConfigTemplate(), string(data))

	// The template must describe the same values as Defaults
	cfg := loadWithViper(t, configPath)
	require.NoError(t, cfg.Validate())
	require.Equal(t, DefaultForecastDefaults(), cfg.Defaults)
	require.Equal(t, Defaults().Catalog, cfg.Catalog)
}

func TestDefaultTracesFilePath(t *testing.T) {
	p := DefaultTracesFilePath()
	if p == "" {
		t.Skip("no home directory")
	}
	require.Equal(t, "traces.jsonl", filepath.Base(p))
	require.Contains(t, p, filepath.Join(".config", "aftershock"))
}
