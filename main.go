package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/isdelr/mediinsight-be/internal/api"
	"github.com/isdelr/mediinsight-be/internal/auth"
	"github.com/isdelr/mediinsight-be/internal/chat"
	"github.com/isdelr/mediinsight-be/internal/config"
	"github.com/isdelr/mediinsight-be/internal/database"
	"github.com/isdelr/mediinsight-be/internal/logger"
	"github.com/isdelr/mediinsight-be/internal/models"
	"github.com/isdelr/mediinsight-be/internal/monitoring"
	"github.com/isdelr/mediinsight-be/internal/prediction"
	"github.com/isdelr/mediinsight-be/internal/services"
	"github.com/isdelr/mediinsight-be/internal/websocket"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.LogLevel)

	// Set up database
	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DatabasePath).Msg("Failed to initialize database")
	}
	defer db.Close()

	// Load classifiers
	classifiers, err := prediction.LoadClassifiers(map[models.ModelKind]string{
		models.KindTumor:    cfg.TumorModelPath,
		models.KindDiabetes: cfg.DiabetesModelPath,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load prediction models")
	}

	// Set up WebSocket Hub
	hub := websocket.NewHub()
	go hub.Run()

	// Set up services
	userService := services.NewUserService(db)
	eventService := services.NewEventService(db)
	reportService := services.NewReportService(db)
	reportService.SetListener(hub)
	gateway := prediction.NewGateway(reportService, classifiers)

	created, err := userService.EnsureAdmin(context.Background(), cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to bootstrap admin account")
	}
	if created {
		log.Warn().Str("username", cfg.AdminUsername).Msg("Seeded default admin account; change its password after first login")
	}

	// Set up and run the background stats updater
	statUpdater := monitoring.NewStatUpdater(monitoring.SampleHost, eventService, 15*time.Second)
	go statUpdater.Run()

	// Set up router
	router := api.NewRouter(api.AppDeps{
		Users:         userService,
		Reports:       reportService,
		Events:        eventService,
		Gateway:       gateway,
		Tokens:        auth.NewTokenManager(cfg.JWTSecret, cfg.SessionTTL),
		Hub:           hub,
		Chat:          chat.NewClient(cfg.ChatAPIURL, cfg.ChatAPIKey, cfg.ChatModel),
		Stats:         statUpdater,
		CORSOrigins:   cfg.CORSOrigins,
		DashboardURL:  cfg.DashboardURL,
		SecureCookies: cfg.IsProduction(),
	})

	// Set up server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("Server starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe()")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	statUpdater.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	hub.Stop()

	log.Info().Msg("Server exiting")
}
