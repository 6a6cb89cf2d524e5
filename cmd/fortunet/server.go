package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Davemasibo/mikrotikDashboard/internal/config"
	"github.com/Davemasibo/mikrotikDashboard/internal/metrics"
	"github.com/Davemasibo/mikrotikDashboard/internal/payment"
	"github.com/Davemasibo/mikrotikDashboard/internal/portal"
	"github.com/Davemasibo/mikrotikDashboard/internal/router"
	"github.com/Davemasibo/mikrotikDashboard/internal/storage"
	"github.com/Davemasibo/mikrotikDashboard/internal/storage/bolt"
	"github.com/Davemasibo/mikrotikDashboard/internal/storage/redis"
	"github.com/Davemasibo/mikrotikDashboard/internal/systemd"
	"github.com/Davemasibo/mikrotikDashboard/internal/telemetry"
	"github.com/Davemasibo/mikrotikDashboard/web"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start FortuNet server",
	Long:  `Start the FortuNet portal server with session telemetry, payment and metrics endpoints.`,
	RunE:  runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)
}

func runServer(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Setup logger
	logger := setupLogger(cfg.Logging)
	log.Logger = logger

	logger.Info().
		Str("version", version).
		Str("config", configPath).
		Msg("Starting FortuNet")

	// Check for systemd socket activation
	sdListeners, err := systemd.GetListeners()
	if err != nil {
		return fmt.Errorf("failed to get systemd listeners: %w", err)
	}
	if sdListeners.Activated {
		logger.Info().Msg("Running with systemd socket activation")
	}

	// Initialize storage
	store, err := openStorage(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close storage")
		}
	}()

	logger.Info().
		Str("type", cfg.Storage.Type).
		Msg("Storage initialized")

	// Seed the default plan catalog into an empty store
	seedCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	seeded, err := storage.SeedPlans(seedCtx, store.Plans())
	cancel()
	if err != nil {
		return fmt.Errorf("failed to seed plans: %w", err)
	}
	if seeded > 0 {
		logger.Info().Int("count", seeded).Msg("Seeded default plan catalog")
	}

	// Initialize router client
	routerClient := router.New(router.Config{
		Host:     cfg.Router.Host,
		Port:     cfg.Router.Port,
		Username: cfg.Router.Username,
		Password: cfg.Router.Password,
		Timeout:  parseDuration(cfg.Router.Timeout, router.DefaultTimeout),
	}, logger)
	defer func() {
		if err := routerClient.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close router connection")
		}
	}()

	logger.Info().
		Str("host", cfg.Router.Host).
		Int("port", cfg.Router.Port).
		Msg("Router client initialized")

	// Start session telemetry
	monitor := telemetry.NewMonitor(routerClient, telemetry.Config{
		PollInterval: parseDuration(cfg.Router.PollInterval, telemetry.DefaultPollInterval),
	}, logger)
	monitor.Start()
	defer monitor.Stop()

	// Initialize M-Pesa client
	mpesa := payment.New(payment.Config{
		ConsumerKey:    cfg.Mpesa.ConsumerKey,
		ConsumerSecret: cfg.Mpesa.ConsumerSecret,
		ShortCode:      cfg.Mpesa.ShortCode,
		Environment:    cfg.Mpesa.Environment,
		CallbackURL:    cfg.Mpesa.CallbackURL,
		Timeout:        parseDuration(cfg.Mpesa.Timeout, payment.DefaultTimeout),
	}, logger)

	// Initialize portal server
	portalServer := portal.NewServer(portal.Config{
		ListenAddr:      fmt.Sprintf("%s:%d", cfg.Server.BindAddress, cfg.Server.HTTPPort),
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		RateLimit:       cfg.Server.RateLimit,
		RateLimitWindow: parseDuration(cfg.Server.RateLimitWindow, time.Minute),
	}, monitor, routerClient, store, mpesa, logger)
	portalServer.SetUI(web.Handler())
	if sdListeners.HTTP != nil {
		portalServer.SetListener(sdListeners.HTTP)
	}
	if err := portalServer.Start(); err != nil {
		return fmt.Errorf("failed to start portal server: %w", err)
	}

	logger.Info().
		Str("addr", fmt.Sprintf("%s:%d", cfg.Server.BindAddress, cfg.Server.HTTPPort)).
		Msg("Portal server started")

	// Initialize metrics server
	metricsAddr := fmt.Sprintf("%s:%d", cfg.Server.BindAddress, cfg.Server.MetricsPort)
	metricsServer := metrics.NewServer(metricsAddr, logger)
	if sdListeners.Metrics != nil {
		metricsServer.SetListener(sdListeners.Metrics)
	}
	if err := metricsServer.Start(); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	logger.Info().
		Str("addr", metricsAddr).
		Msg("Metrics server started")

	if err := systemd.NotifyReady(); err != nil {
		logger.Warn().Err(err).Msg("Failed to notify systemd readiness")
	}

	logger.Info().Msg("FortuNet startup complete")

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info().Msg("Shutdown signal received, gracefully stopping...")
	if err := systemd.NotifyStopping(); err != nil {
		logger.Warn().Err(err).Msg("Failed to notify systemd shutdown")
	}

	if err := portalServer.Stop(); err != nil {
		logger.Error().Err(err).Msg("Error stopping portal server")
	}
	if err := metricsServer.Stop(); err != nil {
		logger.Error().Err(err).Msg("Error stopping metrics server")
	}

	logger.Info().Msg("FortuNet stopped")
	return nil
}

// openStorage opens the configured storage backend.
func openStorage(cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Type {
	case "redis":
		return redis.Open(cfg.Redis)
	default:
		return bolt.Open(cfg.Path)
	}
}

// setupLogger configures the logger based on configuration
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	// Set log level
	level := zerolog.InfoLevel
	switch cfg.Level {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	// Set output format
	if cfg.Format == "text" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Default to JSON
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// parseDuration parses a duration string with a fallback
func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
