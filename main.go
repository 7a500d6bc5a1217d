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

	"github.com/isdelr/anon-messaging-be/internal/api"
	"github.com/isdelr/anon-messaging-be/internal/auth"
	"github.com/isdelr/anon-messaging-be/internal/config"
	"github.com/isdelr/anon-messaging-be/internal/database"
	"github.com/isdelr/anon-messaging-be/internal/logger"
	"github.com/isdelr/anon-messaging-be/internal/monitoring"
	"github.com/isdelr/anon-messaging-be/internal/services"
	"github.com/isdelr/anon-messaging-be/internal/websocket"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Set up WebSocket Hub
	hub := websocket.NewHub()
	go hub.Run()

	// Set up services
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	eventService := services.NewEventService(db)
	userService, err := services.NewUserService(db, tokens, eventService, cfg.InviteCode, cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize user service")
	}
	messageService := services.NewMessageService(db, eventService, hub)

	// Set up and run the background scheduler
	scheduler, err := monitoring.NewScheduler(eventService, cfg.EventPruneSchedule, cfg.EventRetention)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize scheduler")
	}
	scheduler.Run()

	// Set up router
	router := api.NewRouter(cfg.AllowedOrigins, tokens, hub, userService, messageService)

	// Set up server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("ListenAndServe failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	hub.Stop()

	log.Info().Msg("Server exiting")
}
