package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bobmcallan/dhandash/internal/clients/dhan"
	"github.com/bobmcallan/dhandash/internal/common"
	"github.com/bobmcallan/dhandash/internal/interfaces"
	"github.com/bobmcallan/dhandash/internal/metrics"
	"github.com/bobmcallan/dhandash/internal/services/equity"
	"github.com/bobmcallan/dhandash/internal/services/portfolio"
	"github.com/bobmcallan/dhandash/internal/services/quote"
)

// App holds all initialized services and clients.
// It is the shared core behind cmd/dhandash-server.
type App struct {
	Config           *common.Config
	Logger           *common.Logger
	Metrics          *metrics.Metrics
	Broker           interfaces.BrokerClient
	PortfolioService interfaces.PortfolioService
	EquityService    interfaces.EquityService
	QuoteService     interfaces.QuoteService
	StartupTime      time.Time

	pollerCancel context.CancelFunc
	pollerDone   chan struct{}
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// resolveConfigPath picks the config file: explicit path, DHANDASH_CONFIG,
// dhandash.toml beside the binary, then config/dhandash.toml.
func resolveConfigPath(configPath, binDir string) string {
	if configPath == "" {
		configPath = os.Getenv("DHANDASH_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "dhandash.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/dhandash.toml" // fallback for development
		}
	}
	return configPath
}

// NewApp loads configuration and wires the broker client and services.
// configPath may be empty, in which case the default resolution logic is used.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()

	// Load version from .version file (fallback if ldflags not set)
	common.LoadVersionFromFile()

	config, err := common.LoadConfig(resolveConfigPath(configPath, getBinaryDir()))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	a := New(config, logger)
	logger.Info().
		Str("version", common.GetFullVersion()).
		Dur("startup", time.Since(startupStart)).
		Msg("App initialized")
	return a, nil
}

// New wires an App from an already loaded config.
func New(config *common.Config, logger *common.Logger) *App {
	m := metrics.NewMetrics()

	if !config.Dhan.Configured() {
		event := logger.Warn()
		if config.IsProduction() {
			event = logger.Error()
		}
		event.Msg("DHAN_ACCESS_TOKEN not configured - serving mock portfolio data")
	}

	broker := dhan.NewClient(config.Dhan.AccessToken,
		dhan.WithBaseURL(config.Dhan.BaseURL),
		dhan.WithLogger(logger),
		dhan.WithRateLimit(config.Dhan.RateLimit),
		dhan.WithTimeout(config.Dhan.GetTimeout()),
		dhan.WithMetrics(m),
	)

	portfolioService := portfolio.NewService(broker, logger,
		portfolio.WithMetrics(m),
		portfolio.WithDisplayCurrency(config.DisplayCurrency),
	)
	series := equity.NewSeriesFromConfig(config.Equity)
	equityService := equity.NewService(portfolioService, series, m, logger)
	quoteService := quote.NewService(broker, logger)

	return &App{
		Config:           config,
		Logger:           logger,
		Metrics:          m,
		Broker:           broker,
		PortfolioService: portfolioService,
		EquityService:    equityService,
		QuoteService:     quoteService,
		StartupTime:      time.Now(),
	}
}

// StartEquityPoller launches the background equity poller when
// [equity] poll_interval is positive. It is a no-op otherwise.
func (a *App) StartEquityPoller() {
	interval := a.Config.Equity.GetPollInterval()
	if interval <= 0 || a.pollerCancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	a.pollerCancel = cancel
	a.pollerDone = done

	go func() {
		defer close(done)
		startEquityPoller(ctx, a.EquityService, a.Logger, interval)
	}()
}

// Close stops the poller and waits for it to exit.
func (a *App) Close() {
	if a.pollerCancel != nil {
		a.pollerCancel()
		<-a.pollerDone
		a.pollerCancel = nil
		a.pollerDone = nil
	}
}
