package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eventplanner/config"
	"eventplanner/db"
	_ "eventplanner/docs"
	"eventplanner/internal/adapters/auth"
	"eventplanner/internal/adapters/email"
	httpdelivery "eventplanner/internal/delivery/http"
	"eventplanner/internal/delivery/http/controllers"
	"eventplanner/internal/delivery/http/middleware"
	"eventplanner/internal/repository/postgres"
	"eventplanner/internal/services"
)

const serviceTimeout = 10 * time.Second

// @title Event Planner API
// @version 1.0
// @description Event registration and invitation management API.
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := config.NewLogger()

	database, err := postgres.Open(cfg.DBUrl)
	if err != nil {
		logger.Error("database connection failed", "err", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := postgres.Migrate(database, db.Migrations); err != nil {
		logger.Error("migrations failed", "err", err)
		os.Exit(1)
	}

	eventRepo := postgres.NewEventRepository(database)
	attendeeRepo := postgres.NewAttendeeRepository(database)
	invitationRepo := postgres.NewInvitationRepository(database)
	notificationRepo := postgres.NewNotificationRepository(database)
	userRepo := postgres.NewUserRepository(database)
	txManager := postgres.NewRegistrationTxManager(database)

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.EmailProvider,
		FromAddress: cfg.EmailFromAddress,
		FromName:    cfg.EmailFromName,
		SES: email.SESConfig{
			Region:             cfg.SESRegion,
			AccessKeyID:        cfg.SESAccessKeyID,
			SecretAccessKey:    cfg.SESSecretAccessKey,
			InsecureSkipVerify: cfg.SESInsecureSkipVerify,
		},
	})
	if err != nil {
		logger.Error("mailer setup failed", "err", err)
		os.Exit(1)
	}
	renderer := email.NewTemplateRenderer()
	jwtAuthority := auth.NewJWTAuthority(cfg.JWTSecret)
	hasher := auth.NewBcryptHasher(12)

	notifier := services.NewNotificationDispatcher(notificationRepo, mailer, renderer, logger)
	userService := services.NewUserService(userRepo, hasher, jwtAuthority, serviceTimeout)
	eventService := services.NewEventService(eventRepo, attendeeRepo, userRepo, notifier, serviceTimeout)
	attendeeService := services.NewAttendeeService(eventRepo, attendeeRepo, userRepo, txManager, notifier, serviceTimeout)
	invitationService := services.NewInvitationService(eventRepo, invitationRepo, attendeeRepo, userRepo, txManager, notifier, serviceTimeout)

	mux := httpdelivery.NewRouter(
		logger,
		jwtAuthority,
		controllers.NewAuthController(logger, userService),
		controllers.NewEventController(logger, eventService),
		controllers.NewAttendeeController(logger, attendeeService),
		controllers.NewInvitationController(logger, invitationService),
	)

	var handler http.Handler = mux
	handler = middleware.CORS(cfg.CORSAllowedOrigins, handler)
	handler = middleware.LoggingMiddleware(logger, handler)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port, "env", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown failed", "err", err)
	}
	logger.Info("server stopped")
}
