package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/aftershock/internal/app"
	"github.com/zjrosen/aftershock/internal/appstate"
	"github.com/zjrosen/aftershock/internal/config"
	"github.com/zjrosen/aftershock/internal/controller"
	"github.com/zjrosen/aftershock/internal/flags"
	"github.com/zjrosen/aftershock/internal/history"
	"github.com/zjrosen/aftershock/internal/infrastructure/sqlite"
	"github.com/zjrosen/aftershock/internal/log"
	"github.com/zjrosen/aftershock/internal/metrics"
	"github.com/zjrosen/aftershock/internal/quake"
	"github.com/zjrosen/aftershock/internal/sequencer"
	"github.com/zjrosen/aftershock/internal/tracing"
	"github.com/zjrosen/aftershock/internal/uithread"
	"github.com/zjrosen/aftershock/internal/watcher"
)

func init() {
	// Query the terminal background before any Bubble Tea program starts so
	// the OSC 11 reply cannot race the input loop and land in a text field.
	//
	// See: https://github.com/charmbracelet/bubbletea/issues/1036
	_ = lipgloss.HasDarkBackground()
}

const (
	localConfigPath = ".aftershock/config.yaml"
	debugEnv        = "AFTERSHOCK_DEBUG"
)

var (
	version = "dev"
	cfgFile string
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:   "aftershock",
	Short: "A terminal ui for aftershock forecasting",
	Long: `A terminal user interface that loads a mainshock and its aftershock catalog,
estimates the b-value, fits Reasenberg-Jones parameters and forecasts
aftershock probabilities.`,
	Version:           version,
	PersistentPreRunE: setupLogging,
	RunE:              runApp,
	SilenceUsage:      true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/aftershock/config.yaml)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false,
		"write a debug log to debug.log and enable the log overlay (ctrl+x)")
	rootCmd.PersistentFlags().String("catalog", "",
		"read mainshocks and aftershocks from this YAML file")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("catalog.file_path", rootCmd.PersistentFlags().Lookup("catalog"))
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("data_dir", defaults.DataDir)
	viper.SetDefault("debug", defaults.Debug)
	viper.SetDefault("catalog.source", defaults.Catalog.Source)
	viper.SetDefault("catalog.seed", defaults.Catalog.Seed)
	viper.SetDefault("catalog.count", defaults.Catalog.Count)
	viper.SetDefault("catalog.cache_ttl", defaults.Catalog.CacheTTL)
	viper.SetDefault("defaults.mc", defaults.Defaults.Mc)
	viper.SetDefault("defaults.mag_precision", defaults.Defaults.MagPrecision)
	viper.SetDefault("defaults.data_start_days", defaults.Defaults.DataStartDays)
	viper.SetDefault("defaults.data_end_days", defaults.Defaults.DataEndDays)
	viper.SetDefault("defaults.radius_km", defaults.Defaults.RadiusKm)
	viper.SetDefault("defaults.min_mag", defaults.Defaults.MinMag)
	viper.SetDefault("defaults.p", defaults.Defaults.P)
	viper.SetDefault("defaults.c", defaults.Defaults.C)
	viper.SetDefault("defaults.forecast_start_days", defaults.Defaults.ForecastStartDays)
	viper.SetDefault("defaults.forecast_durations", defaults.Defaults.ForecastDurations)
	viper.SetDefault("defaults.forecast_mags", defaults.Defaults.ForecastMags)
	viper.SetDefault("ui.show_status_bar", defaults.UI.ShowStatusBar)
	viper.SetDefault("ui.markdown_style", defaults.UI.MarkdownStyle)
	viper.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)
	viper.SetDefault("flags", defaults.Flags)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .aftershock/config.yaml (current directory)
		// 2. ~/.config/aftershock/config.yaml (user config)
		if _, err := os.Stat(localConfigPath); err == nil {
			viper.SetConfigFile(localConfigPath)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "aftershock"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		// No config file found anywhere - create default at .aftershock/config.yaml
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			if writeErr := config.WriteDefaultConfig(localConfigPath); writeErr == nil {
				viper.SetConfigFile(localConfigPath)
				_ = viper.ReadInConfig()
			}
			// If write fails, just continue with defaults (no config file)
		}
	}

	_ = viper.Unmarshal(&cfg)
	if rootCmd.PersistentFlags().Changed("catalog") {
		cfg.Catalog.Source = config.SourceFile
	}
}

// configPath is where ctrl+s writes parameter defaults.
func configPath() string {
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	return localConfigPath
}

var closeLog = func() {}

func setupLogging(cmd *cobra.Command, _ []string) error {
	if !cfg.Debug && os.Getenv(debugEnv) == "" {
		log.SetEnabled(false)
		return nil
	}
	cfg.Debug = true
	cleanup, err := log.InitWithTeaLog("debug.log", "aftershock")
	if err != nil {
		return fmt.Errorf("opening debug log: %w", err)
	}
	closeLog = cleanup
	log.Info(log.CatConfig, "Starting", "version", version, "command", cmd.Name(), "config", viper.ConfigFileUsed())
	return nil
}

// services are the collaborators shared by the TUI and the headless commands.
type services struct {
	provider *tracing.Provider
	recorder *metrics.Recorder
	seq      *sequencer.Sequencer
	state    *appstate.Machine
	source   quake.Source
	cache    controller.Flusher
	db       *sqlite.DB
	history  history.Repository
}

func newServices(ui uithread.Poster) (*services, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	provider, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("starting tracing: %w", err)
	}

	s := &services{
		provider: provider,
		recorder: metrics.NewRecorder(metrics.DefaultCapacity),
		state:    appstate.NewMachine(),
	}
	s.seq = sequencer.New(ui,
		sequencer.WithTracer(provider.Tracer()),
		sequencer.WithRecorder(s.recorder),
	)

	var source quake.Source = quake.SyntheticSource{Seed: cfg.Catalog.Seed, Count: cfg.Catalog.Count}
	if cfg.Catalog.Source == config.SourceFile {
		source = quake.FileSource{Path: cfg.Catalog.FilePath}
	}
	if cfg.Catalog.CacheTTL > 0 {
		cached := quake.NewCachedSource(source, cfg.Catalog.CacheTTL)
		source = cached
		s.cache = cached
	}
	s.source = source

	if cfg.FeatureFlags().Enabled(flags.FlagForecastHistory) {
		db, err := sqlite.NewDB(cfg.HistoryPath())
		if err != nil {
			s.close()
			return nil, fmt.Errorf("opening forecast history: %w", err)
		}
		s.db = db
		s.history = db.Forecasts()
	}
	return s, nil
}

func (s *services) controller(p controller.Presenter) (*controller.Controller, error) {
	return controller.New(controller.Deps{
		Sequencer: s.seq,
		State:     s.state,
		Source:    s.source,
		Fitter:    quake.RJFitter{},
		Presenter: p,
		Defaults:  cfg.Defaults,
		Flags:     cfg.FeatureFlags(),
		History:   s.history,
		Cache:     s.cache,
	})
}

// close waits for in-flight runs, then releases everything.
func (s *services) close() {
	if s.seq != nil {
		s.seq.Shutdown()
		s.seq.Wait()
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			log.ErrorErr(log.CatDB, "Closing history failed", err)
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.provider.Shutdown(ctx); err != nil {
		log.ErrorErr(log.CatTrace, "Flushing traces failed", err)
	}
	s.state.Close()
}

func runApp(_ *cobra.Command, _ []string) error {
	defer closeLog()
	zone.NewGlobal()

	poster := uithread.NewTeaPoster(nil)
	svc, err := newServices(poster)
	if err != nil {
		return err
	}
	defer svc.close()

	var w *watcher.Watcher
	if cfg.Catalog.Source == config.SourceFile {
		w, err = watcher.New(watcher.DefaultConfig(cfg.Catalog.FilePath))
		if err == nil {
			err = w.Start()
		}
		if err != nil {
			// The app still works without reload notices.
			log.ErrorErr(log.CatWatcher, "Watching catalog file failed", err, "path", cfg.Catalog.FilePath)
			w = nil
		} else {
			defer func() { _ = w.Stop() }()
		}
	}

	screen := app.NewScreen()
	ctl, err := svc.controller(screen)
	if err != nil {
		return fmt.Errorf("building panels: %w", err)
	}
	ctl.OnComplete(app.Observe)

	model := app.New(app.Options{
		Controller: ctl,
		Screen:     screen,
		State:      svc.state,
		Recorder:   svc.recorder,
		Config:     cfg,
		ConfigPath: configPath(),
		Watcher:    w,
		Debug:      cfg.Debug,
	})
	defer model.Close()

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	poster.Bind(p)
	defer poster.Close()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
