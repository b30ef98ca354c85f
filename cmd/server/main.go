package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	echoapi "github.com/wildlanka/identity/api/echo"
	"github.com/wildlanka/identity/cache"
	redisc "github.com/wildlanka/identity/cache/redis"
	"github.com/wildlanka/identity/config"
	"github.com/wildlanka/identity/internal/metrics"
	"github.com/wildlanka/identity/internal/reconcile"
	"github.com/wildlanka/identity/internal/roles"
	"github.com/wildlanka/identity/internal/server"
	"github.com/wildlanka/identity/mongodb"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	initLogger(cfg)
	log.Info().Str("environment", cfg.Environment).Msg("Starting wildlanka identity server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := mongodb.InitMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize MongoDB")
	}
	defer mongodb.CloseMongoDB(context.Background())

	db := mongodb.GetDB()
	accountRepo, err := mongodb.NewAccountRepository(ctx, db)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize account repository")
	}
	recordRepo := mongodb.NewRoleRecordRepository(db)

	var roleCache cache.RoleDirectoryCache
	if cfg.RedisAddr != "" {
		rdb := goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()
		roleCache = redisc.NewRoleCache(rdb, cfg.RedisPrefix)
		log.Info().Str("addr", cfg.RedisAddr).Msg("Using Redis role directory cache")
	} else {
		memCache := cache.NewMemoryRoleCache(cfg.RoleCacheTTL())
		defer memCache.Stop()
		roleCache = memCache
		log.Info().Msg("Using in-memory role directory cache")
	}

	resolver := roles.NewResolver(recordRepo, accountRepo,
		roles.WithCache(roleCache, cfg.RoleCacheTTL()))
	reconciler := reconcile.NewReconciler(accountRepo, resolver)

	metrics.Register(prometheus.DefaultRegisterer)

	identityAPI := echoapi.NewIdentityAPI(reconciler, cfg.IsDevelopment())
	httpServer := server.NewHTTPServer(cfg, identityAPI)

	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}
	log.Info().Msg("Server stopped.")
}

func initLogger(cfg *config.ServerConfig) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
		log.Warn().Str("configured_log_level", cfg.LogLevel).Msg("Invalid LOG_LEVEL configured, defaulting to 'info'")
	}
	zerolog.SetGlobalLevel(level)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}
}
