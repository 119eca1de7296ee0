package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"gympass-checkin-backend/config"
	"gympass-checkin-backend/internal/api"
	"gympass-checkin-backend/internal/db"
	"gympass-checkin-backend/internal/gympass"
	"gympass-checkin-backend/internal/metrics"
	"gympass-checkin-backend/internal/policy"
	"gympass-checkin-backend/internal/store"
	"gympass-checkin-backend/internal/webhook"
)

func main() {
	// Secrets may live in a local .env during development.
	if err := godotenv.Load(); err != nil {
		logrus.Debug("no .env file loaded")
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logrus.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}

	level, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logrus.Infof("configuration loaded from %s", configPath)

	// Not fatal: the check-in route declines with a configuration error
	// until the operator fixes this, which beats crash-looping the QR page.
	if cfg.Gympass.APIKey == "" {
		logrus.Error("GYMPASS_API_KEY is not set; every check-in will be declined with a configuration error")
	}

	metrics.Register()

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logrus.Fatalf("failed to initialize database: %v", err)
	}
	pending := store.NewGormStore(gormDB)
	logrus.Info("pending check-in store initialized")

	var evaluator policy.Evaluator
	switch cfg.Policy.Mode {
	case config.PolicyModeRemote:
		evaluator = policy.NewRemoteEvaluator(cfg.Policy.RemoteURL, cfg.Policy.RemoteTimeout)
		logrus.WithField("url", cfg.Policy.RemoteURL).Info("using remote abuse policy evaluator")
	default:
		evaluator = policy.NewWindowEvaluator(cfg.Policy.MaxAttempts, cfg.Policy.Window, cfg.Policy.MaxUsersPerDevice)
		logrus.WithFields(logrus.Fields{
			"max_attempts": cfg.Policy.MaxAttempts,
			"window":       cfg.Policy.Window,
		}).Info("using sliding-window abuse policy evaluator")
	}

	gateway := gympass.NewClient(cfg.Gympass.BaseURL, cfg.Gympass.APIKey, cfg.Gympass.Timeout)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool := webhook.NewWorkerPool(cfg.Webhook.WorkerPoolSize, pending)
	pool.Start(ctx)
	go store.Sweep(ctx, pending, cfg.Webhook.SweepInterval, cfg.Webhook.PendingTTL)

	handler := api.NewHandler(cfg, evaluator, gateway, pending, pool)
	router := api.NewRouter(handler, cfg)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logrus.Infof("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logrus.Info("shutdown signal received, stopping services")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.Fatalf("HTTP server Shutdown: %v", err)
	}

	logrus.Info("server gracefully stopped")
}
