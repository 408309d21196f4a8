// Command dashboard serves the analytics view and the password reset flow.
// It shares only the database file with the app process.
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
	"github.com/isdelr/mediinsight-be/internal/config"
	"github.com/isdelr/mediinsight-be/internal/database"
	"github.com/isdelr/mediinsight-be/internal/logger"
	"github.com/isdelr/mediinsight-be/internal/mail"
	"github.com/isdelr/mediinsight-be/internal/models"
	"github.com/isdelr/mediinsight-be/internal/monitoring"
	"github.com/isdelr/mediinsight-be/internal/otp"
	"github.com/isdelr/mediinsight-be/internal/prediction"
	"github.com/isdelr/mediinsight-be/internal/services"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.LogLevel)

	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DatabasePath).Msg("Failed to initialize database")
	}
	defer db.Close()

	classifiers, err := prediction.LoadClassifiers(map[models.ModelKind]string{
		models.KindTumor:    cfg.TumorModelPath,
		models.KindDiabetes: cfg.DiabetesModelPath,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load prediction models")
	}

	userService := services.NewUserService(db)
	eventService := services.NewEventService(db)
	reportService := services.NewReportService(db)

	// re-runs never persist, so the gateway gets no report store
	gateway := prediction.NewGateway(nil, classifiers)

	mailer := mail.NewSMTPSender(mail.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})
	resetService := otp.NewResetService(otp.NewMemoryStore(), userService, mailer, cfg.OTPTTL)

	scheduler, err := monitoring.NewScheduler(resetService, cfg.OTPSweepSpec)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure reset code sweeper")
	}
	scheduler.Run()

	router := api.NewDashboardRouter(api.DashboardDeps{
		Users:         userService,
		Reports:       reportService,
		Events:        eventService,
		Gateway:       gateway,
		Tokens:        auth.NewTokenManager(cfg.JWTSecret, cfg.SessionTTL),
		Reset:         resetService,
		CORSOrigins:   cfg.CORSOrigins,
		SecureCookies: cfg.IsProduction(),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.DashboardPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.DashboardPort).Msg("Dashboard starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe()")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down dashboard...")

	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Dashboard forced to shutdown")
	}

	log.Info().Msg("Dashboard exiting")
}
