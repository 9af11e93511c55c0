package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"classware/api/internal/cache"
	"classware/api/internal/config"
	"classware/api/internal/database"
	"classware/api/internal/federation"
	"classware/api/internal/handlers"
	"classware/api/internal/log"
	"classware/api/internal/mail"
	"classware/api/internal/server"
	"classware/api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New("classware-api", cfg.Environment)

	if cfg.Security.TokenSecret == "" {
		logger.Fatal().Msg("TOKEN_SECRET is required")
	}

	ctx := context.Background()

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}

	var verifier service.AssertionVerifier
	if cfg.Federation.ClientID != "" {
		googleVerifier, err := federation.NewGoogleVerifier(ctx, cfg.Federation)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to init identity federation")
		}
		verifier = googleVerifier
	} else {
		logger.Warn().Msg("IDENTITY_PROVIDER_CLIENT_ID not set, federation login disabled")
	}

	mailer := mail.NewSMTPSender(cfg.Mail)

	handlerSet := handlers.NewHandlerSet(logger, dbPool, redisClient, verifier, mailer, cfg)
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, dbPool, redisClient)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, db *pgxpool.Pool, redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		if err := srv.Shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("forced shutdown failed")
		}
	}

	db.Close()
	if err := redisClient.Close(); err != nil {
		logger.Error().Err(err).Msg("redis close error")
	}

	logger.Info().Msg("server exited cleanly")
}
