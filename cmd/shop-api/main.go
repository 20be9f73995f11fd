package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/dmehra2102/ecommerce-backend/internal/api"
	catalogapp "github.com/dmehra2102/ecommerce-backend/internal/catalog/application"
	catalogpg "github.com/dmehra2102/ecommerce-backend/internal/catalog/infrastructure/postgres"
	catalogredis "github.com/dmehra2102/ecommerce-backend/internal/catalog/infrastructure/redis"
	"github.com/dmehra2102/ecommerce-backend/internal/config"
	identityapp "github.com/dmehra2102/ecommerce-backend/internal/identity/application"
	identitypg "github.com/dmehra2102/ecommerce-backend/internal/identity/infrastructure/postgres"
	"github.com/dmehra2102/ecommerce-backend/internal/identity/infrastructure/token"
	notifykafka "github.com/dmehra2102/ecommerce-backend/internal/notification/infrastructure/kafka"
	notifypg "github.com/dmehra2102/ecommerce-backend/internal/notification/infrastructure/postgres"
	orderapp "github.com/dmehra2102/ecommerce-backend/internal/order/application"
	orderpg "github.com/dmehra2102/ecommerce-backend/internal/order/infrastructure/postgres"
	"github.com/dmehra2102/ecommerce-backend/migrations"
	"github.com/dmehra2102/ecommerce-backend/pkg/httpx"
	"github.com/dmehra2102/ecommerce-backend/pkg/logging"
	"github.com/dmehra2102/ecommerce-backend/pkg/outbox"
	"github.com/dmehra2102/ecommerce-backend/pkg/shutdown"
	"github.com/dmehra2102/ecommerce-backend/pkg/tracing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New("error").Error("config invalid", "err", err)
		os.Exit(1)
	}
	log := logging.New(cfg.LogLevel)

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	tp, err := tracing.Init(ctx, "shop-api", cfg.OTLPURL, log)
	if err != nil {
		log.Error("otel init failed", "err", err)
		os.Exit(1)
	}
	defer func() { _ = tp.Shutdown(context.Background()) }()

	if cfg.AutoMigrate {
		if err := migrations.Up(log, cfg.PGURL); err != nil {
			log.Error("migrate failed", "err", err)
			os.Exit(1)
		}
	}

	// Postgres
	pool, err := pgxpool.New(ctx, cfg.PGURL)
	if err != nil {
		log.Error("pg connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Redis
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	// Kafka producer + outbox relay for jobs the broker refused
	writer := notifykafka.NewWriter(cfg.Kafka.Brokers)
	defer writer.Close()
	dispatch := outbox.NewDispatcher(log, writer, cfg.Kafka.Topic)
	parked := notifypg.NewOutboxStore(log, pool)
	relay := outbox.NewRelay(log, parked, dispatch, "shop-api-"+uuid.NewString())

	// Services
	tokens := token.NewManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL)
	identity := identityapp.NewService(log, identitypg.NewRepository(log, pool), tokens)
	catalog := catalogapp.NewService(log,
		catalogpg.NewCategoryRepository(log, pool),
		catalogpg.NewProductRepository(log, pool),
		catalogredis.NewListingCache(rdb),
		cfg.Catalog.ListingTTL,
	)
	orders := orderapp.NewService(log, orderpg.NewRepository(log, pool), notifykafka.NewPublisher(log, dispatch, parked)).
		WithListings(catalog)

	limiter := httpx.NewRateLimiter(rate.Limit(cfg.RateLimit.PerSecond), cfg.RateLimit.Burst, cfg.RateLimit.ExpiresIn)
	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: api.NewRouter(log, api.Deps{
			Identity: identity,
			Catalog:  catalog,
			Orders:   orders,
			Limiter:  limiter,
			Ping:     pool.Ping,
		}),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		if err := relay.Run(ctx); err != nil {
			log.Error("relay stopped with error", "err", err)
		}
	}()

	go func() {
		log.Info("http listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)
	if err := orders.Drain(shutdownCtx); err != nil {
		log.Warn("post-commit work still running at shutdown", "err", err)
	}
	log.Info("shop-api shutdown complete")
}
