package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"voltbridge/config"
	"voltbridge/internal/api"
	"voltbridge/internal/logging"
	"voltbridge/internal/metrics"
	"voltbridge/internal/session"
	"voltbridge/internal/vendors"
	"voltbridge/internal/vendors/automotive"
	"voltbridge/internal/vendors/solar"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	shutdownTimeout   = 10 * time.Second
	defaultConfigPath = "config.json"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	// Parse command-line flags
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	useEnv := flag.Bool("env", false, "Load configuration from environment variables")
	flag.Parse()

	// Load configuration
	var cfg *config.Config
	var err error

	if *useEnv {
		cfg, err = config.LoadFromEnv()
	} else {
		cfg, err = config.Load(*configPath)
	}

	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.NewLogger(logging.LoggerConfig{
		Format: cfg.Logging.Format,
		Level:  logging.ParseLevel(cfg.Logging.Level),
	})

	// Cookie encryption codec
	codec, err := session.NewCodec(cfg.Session.MasterKey)
	if err != nil {
		return fmt.Errorf("failed to initialize session codec: %w", err)
	}

	// Register vendor clients
	logger.Info("Registering vendor clients", "component", "main")
	registry := vendors.NewRegistry()

	automotiveClient := automotive.NewClient(automotive.Config{
		ClientID:     cfg.Automotive.ClientID,
		ClientSecret: cfg.Automotive.ClientSecret,
		RedirectURI:  cfg.Automotive.RedirectURI,
		Scope:        cfg.Automotive.Scope,
		Audience:     cfg.Automotive.Audience,
		TokenURL:     cfg.Automotive.TokenURL,
		BaseURL:      cfg.Automotive.BaseURL,
	}, logger)
	if err := registry.Register(automotiveClient); err != nil {
		return fmt.Errorf("failed to register automotive client: %w", err)
	}

	solarClient := solar.NewClient(solar.Config{
		AppKey:      cfg.Solar.AppKey,
		SecretKey:   cfg.Solar.SecretKey,
		RedirectURI: cfg.Solar.RedirectURI,
		TokenURL:    cfg.Solar.TokenURL,
		BaseURL:     cfg.Solar.BaseURL,
	}, logger)
	if err := registry.Register(solarClient); err != nil {
		return fmt.Errorf("failed to register solar client: %w", err)
	}

	// Metrics
	promRegistry := prometheus.NewRegistry()
	appMetrics := metrics.New(promRegistry)

	// Initialize REST API
	logger.Info("Initializing REST API server", "component", "main")
	router := api.NewRouter(api.RouterConfig{
		Registry:      registry,
		Codec:         codec,
		SecureCookies: cfg.Session.Secure,
		Logger:        logger,
		Metrics:       appMetrics,
		PromGatherer:  promRegistry,
	})

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
		// Write timeout must cover the 30s wake-and-poll budget
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 45 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server",
			"component", "main",
			"host", cfg.Server.Host,
			"port", cfg.Server.Port,
		)
		serverErrors <- server.ListenAndServe()
	}()

	// Wait for interrupt signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info("Starting graceful shutdown", "component", "main", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		logger.Info("Graceful shutdown complete", "component", "main")
	}

	return nil
}
