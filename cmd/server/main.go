package main

import (
	"context"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	docs "github.com/tazhibayda/blood-service/docs"
	"github.com/tazhibayda/blood-service/internal/config"
	"github.com/tazhibayda/blood-service/internal/extauth"
	api "github.com/tazhibayda/blood-service/internal/http"
	"github.com/tazhibayda/blood-service/internal/log"
	"github.com/tazhibayda/blood-service/internal/metrics"
	"github.com/tazhibayda/blood-service/internal/queue"
	"github.com/tazhibayda/blood-service/internal/repo"
)

// @title Blood Donation API
// @version 0.1.0
// @description Blood donation coordination backend: donors, requesters, NGOs.
// @schemes http https
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load(); err != nil {
		stdlog.Printf("no .env loaded: %v", err)
	}
	cfg := config.Load()

	logger, err := log.Init(cfg.Prod)
	if err != nil {
		stdlog.Fatalf("logger init: %v", err)
	}
	defer log.Sync()

	metrics.MustRegister()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := repo.NewStore(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		logger.Fatal("mongo connect", zap.Error(err))
	}
	defer store.Close(context.Background())

	if err := store.EnsureIndexes(ctx); err != nil {
		logger.Fatal("ensure indexes", zap.Error(err))
	}

	var limiter api.Limiter = api.NewMemoryLimiter(cfg.RateLimitPerMin, time.Minute)
	if cfg.RedisAddr != "" {
		rds := repo.NewRedis(cfg.RedisAddr)
		if err := rds.Ping(ctx); err != nil {
			logger.Warn("redis ping failed, falling back to in-memory limiter", zap.Error(err))
		} else {
			limiter = api.NewRedisLimiter(rds, cfg.RateLimitPerMin, time.Minute)
			defer rds.Close()
		}
	}

	pub := queue.NewNoop()
	if cfg.RabbitURL != "" {
		rp, err := queue.NewRabbit(cfg.RabbitURL, queue.Exchange)
		if err != nil {
			logger.Warn("rabbit connect failed, events disabled", zap.Error(err))
		} else {
			pub = rp
		}
	}
	defer pub.Close()

	authClient := extauth.NewHTTPClient(cfg.AuthBaseURL)

	docs.SwaggerInfo.BasePath = "/"

	h := api.NewHandler(store, authClient, pub, cfg.SessionTTLDays)
	r := api.NewRouter(h, api.RouterOptions{CORSOrigins: cfg.CORSOrigins, Limiter: limiter})

	srvErr := make(chan error, 1)
	go func() { srvErr <- r.Run(":" + cfg.Port) }()

	logger.Info("blood-service listening", zap.String("port", cfg.Port))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		logger.Info("shutting down", zap.String("signal", s.String()))
	case err := <-srvErr:
		logger.Error("server error", zap.Error(err))
	}
}
