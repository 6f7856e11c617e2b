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

	"go.uber.org/zap"

	"github.com/lalith-99/teamup/internal/api"
	"github.com/lalith-99/teamup/internal/config"
	"github.com/lalith-99/teamup/internal/db"
	"github.com/lalith-99/teamup/internal/observ"
	"github.com/lalith-99/teamup/internal/presence"
	"github.com/lalith-99/teamup/internal/repository/postgres"
	"github.com/lalith-99/teamup/internal/teamup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// ---------------------------------------------------------------
	// 1. Config and logger
	// ---------------------------------------------------------------
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	// ---------------------------------------------------------------
	// 2. Postgres: connect, apply schema, seed the team pool
	//
	// Startup has no deadline, so Background() is the right root
	// context here. Requests get their own contexts later.
	// ---------------------------------------------------------------
	database, err := db.New(context.Background(), cfg.DatabaseURL, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer database.Close()

	if err := database.ApplySchema(context.Background()); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	pool := database.Pool()
	userRepo := postgres.NewUserStore(pool)
	teamRepo := postgres.NewTeamStore(pool)
	membershipRepo := postgres.NewMembershipStore(pool)
	registrationRepo := postgres.NewRegistrationStore(pool)

	if err := teamRepo.Seed(context.Background(), teamup.DefaultTeamIDs); err != nil {
		return fmt.Errorf("seed teams: %w", err)
	}

	// ---------------------------------------------------------------
	// 3. Join/leave coordinator
	// ---------------------------------------------------------------
	coordinator := teamup.NewCoordinator(postgres.NewTeamupStore(pool), logger)

	// ---------------------------------------------------------------
	// 4. Presence hub
	//
	// A single instance runs fine with the local backend; behind a
	// load balancer, the redis backend relays connect/disconnect
	// events so every instance sees the full online list.
	// ---------------------------------------------------------------
	var broker presence.Broker = presence.NopBroker{}
	if cfg.PresenceBackend == "redis" {
		broker, err = presence.NewRedisBroker(cfg.RedisURL, logger)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
	}
	defer broker.Close()

	hub, err := presence.NewHub(context.Background(), broker, logger)
	if err != nil {
		return fmt.Errorf("create presence hub: %w", err)
	}

	// ---------------------------------------------------------------
	// 5. HTTP server
	// ---------------------------------------------------------------
	router := api.SetupRoutes(api.Handlers{
		Auth:         api.NewAuthHandler(userRepo, cfg.JWTSecret, logger),
		Team:         api.NewTeamHandler(coordinator, teamRepo, logger),
		Lobby:        api.NewLobbyHandler(teamRepo, membershipRepo, userRepo, logger),
		Registration: api.NewRegistrationHandler(registrationRepo, logger),
		Admin:        api.NewAdminHandler(registrationRepo, cfg.AdminUser, cfg.AdminPasswordHash, cfg.JWTSecret, logger),
		Presence:     presence.Handler(hub, cfg.JWTSecret, logger),
	}, cfg.JWTSecret)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting teamup",
			zap.String("port", cfg.Port),
			zap.String("env", cfg.Env),
			zap.String("presence_backend", cfg.PresenceBackend),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// ---------------------------------------------------------------
	// 6. Wait for shutdown
	//
	// Stop accepting HTTP first, then close the websocket hub, so no
	// new clients can register while the hub is draining.
	// ---------------------------------------------------------------
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case sig := <-quit:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown incomplete", zap.Error(err))
	}
	hub.Shutdown()

	return nil
}
