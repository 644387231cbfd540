package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"

	"github.com/Dosada05/ladder-system/config"
	"github.com/Dosada05/ladder-system/db"
	"github.com/Dosada05/ladder-system/events"
	"github.com/Dosada05/ladder-system/gateway"
	"github.com/Dosada05/ladder-system/handlers"
	"github.com/Dosada05/ladder-system/notifications"
	"github.com/Dosada05/ladder-system/repositories"
	api "github.com/Dosada05/ladder-system/routes"
	"github.com/Dosada05/ladder-system/services"
	"github.com/Dosada05/ladder-system/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		}
	}()
	logger.Info("database connection established")

	var uploader storage.FileUploader
	if cfg.R2Configured() {
		uploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		uploader = storage.NewDisabledUploader()
		logger.Warn("R2 storage not configured, evidence uploads disabled")
	}

	bus := events.NewBus(logger)
	wsHub := events.NewHub(logger)
	bus.Subscribe(wsHub.HandleEvent)
	go wsHub.Run()
	logger.Info("event bus and websocket hub started")

	var notifier notifications.Notifier = notifications.NoopNotifier{}
	if cfg.NotifyWebhookURL != "" {
		notifier = notifications.NewWebhookNotifier(cfg.NotifyWebhookURL, 10*time.Second)
	}
	notifier = &notifications.LoggingNotifier{Next: notifier, Logger: logger}

	streamChecker := gateway.NewHTTPStreamChecker(cfg.StreamCheckURL, 10*time.Second)

	playerRepo := repositories.NewPostgresPlayerRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	resultRepo := repositories.NewPostgresGameResultRepository(dbConn)
	inputRepo := repositories.NewPostgresPendingInputRepository(dbConn)
	seasonRepo := repositories.NewPostgresSeasonRepository(dbConn)
	ratingRepo := repositories.NewPostgresRatingRepository(dbConn)
	penaltyRepo := repositories.NewPostgresPenaltySettingsRepository(dbConn)
	refereeRepo := repositories.NewPostgresRefereeRepository(dbConn)
	caseRepo := repositories.NewPostgresRefereeCaseRepository(dbConn)
	logger.Info("repositories initialized")

	penaltyService := services.NewPenaltyService(penaltyRepo)
	ratingService := services.NewRatingService(ratingRepo, seasonRepo, playerRepo, logger)
	matchService := services.NewMatchService(
		matchRepo,
		playerRepo,
		seasonRepo,
		resultRepo,
		inputRepo,
		penaltyService,
		ratingService,
		streamChecker,
		bus,
		cfg.DraftHosts,
		logger,
	)
	seasonService := services.NewSeasonService(seasonRepo, matchRepo, matchService, notifier, bus, logger)
	refereeService := services.NewRefereeService(caseRepo, refereeRepo, matchService, uploader, notifier, bus, logger)
	authService := services.NewAuthService(refereeRepo, cfg.JWTSecretKey, cfg.TokenTTL)
	logger.Info("services initialized")

	// Season sweep: warnings, ending phase, forced end.
	go func() {
		ticker := time.NewTicker(cfg.SweepInterval)
		defer ticker.Stop()
		logger.Info("season sweep scheduler started", slog.Duration("interval", cfg.SweepInterval))

		if err := seasonService.RunSweep(context.Background(), time.Now()); err != nil {
			logger.Error("season sweep: initial run failed", slog.Any("error", err))
		}
		for range ticker.C {
			if err := seasonService.RunSweep(context.Background(), time.Now()); err != nil {
				logger.Error("season sweep: periodic run failed", slog.Any("error", err))
			}
		}
	}()

	authHandler := handlers.NewAuthHandler(authService)
	matchHandler := handlers.NewMatchHandler(matchService)
	refereeHandler := handlers.NewRefereeHandler(refereeService)
	seasonHandler := handlers.NewSeasonHandler(seasonService, ratingService)
	penaltyHandler := handlers.NewPenaltyHandler(penaltyService)
	wsHandler := handlers.NewWebSocketHandler(wsHub, matchService, logger)
	logger.Info("HTTP handlers initialized")

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		authService,
		authHandler,
		matchHandler,
		refereeHandler,
		seasonHandler,
		penaltyHandler,
		wsHandler,
	)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
