package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"

	"github.com/dunamismax/imagevault/internal/api"
	"github.com/dunamismax/imagevault/internal/config"
	"github.com/dunamismax/imagevault/internal/cryptobox"
	"github.com/dunamismax/imagevault/internal/ratelimit"
	"github.com/dunamismax/imagevault/internal/service"
	"github.com/dunamismax/imagevault/internal/store"
	"github.com/dunamismax/imagevault/internal/telemetry"
)

func main() {
	cfg := config.Load()
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("component", "api").Logger()

	key, iv, err := cfg.Encryption.Material()
	if err != nil {
		logger.Fatal().Err(err).Msg("load encryption key material")
	}
	codec, err := cryptobox.NewCodec(key, iv)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid encryption key material")
	}

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelStartup()

	var images store.ImageStore
	switch cfg.Database.Backend {
	case "postgres":
		pg, err := store.NewPostgresImageStore(startupCtx, cfg.Database.DSN)
		if err != nil {
			logger.Fatal().Err(err).Msg("connect image store")
		}
		defer func() {
			if err := pg.Close(); err != nil {
				logger.Error().Err(err).Msg("close image store")
			}
		}()
		images = pg
	case "memory":
		logger.Warn().Msg("using in-memory image store; records are lost on restart")
		images = store.NewMemoryImageStore()
	default:
		logger.Fatal().Str("backend", cfg.Database.Backend).Msg("unknown store backend")
	}

	shutdownTracing, err := telemetry.SetupTracing(startupCtx, telemetry.TraceConfig{
		ServiceName:  cfg.Tracing.ServiceName,
		Exporter:     cfg.Tracing.Exporter,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		OTLPInsecure: cfg.Tracing.OTLPInsecure,
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("set up tracing")
	}

	var limiter api.RateLimiter
	if cfg.RateLimit.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RateLimit.RedisAddr,
			Password: cfg.RateLimit.RedisPassword,
			DB:       cfg.RateLimit.RedisDB,
		})
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Error().Err(err).Msg("close redis client")
			}
		}()

		limiter, err = ratelimit.NewRedisFixedWindow(redisClient, cfg.RateLimit.UploadLimit, cfg.RateLimit.Window, "imagevault:ratelimit")
		if err != nil {
			logger.Fatal().Err(err).Msg("build rate limiter")
		}
	}

	svc := service.New(images, codec, logger)
	app := api.NewServer(logger, svc, api.Options{
		RateLimiter:    limiter,
		Tracer:         otel.Tracer("imagevault/api"),
		IdentityHeader: cfg.API.IdentityHeader,
		MaxUploadBytes: cfg.API.MaxUploadBytes,
	})

	httpServer := &http.Server{
		Addr:         cfg.API.Addr,
		Handler:      app.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.API.Addr).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info().Msg("shutting down")
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	if err := shutdownTracing(ctx); err != nil {
		logger.Error().Err(err).Msg("tracing shutdown failed")
	}
}
