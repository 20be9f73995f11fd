package main

import (
	"context"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/dmehra2102/ecommerce-backend/internal/config"
	"github.com/dmehra2102/ecommerce-backend/internal/notification/application"
	notifykafka "github.com/dmehra2102/ecommerce-backend/internal/notification/infrastructure/kafka"
	"github.com/dmehra2102/ecommerce-backend/internal/notification/infrastructure/mail"
	notifypg "github.com/dmehra2102/ecommerce-backend/internal/notification/infrastructure/postgres"
	"github.com/dmehra2102/ecommerce-backend/pkg/idempotency"
	"github.com/dmehra2102/ecommerce-backend/pkg/logging"
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

	tp, err := tracing.Init(ctx, "notification-worker", cfg.OTLPURL, log)
	if err != nil {
		log.Error("otel init failed", "err", err)
		os.Exit(1)
	}
	defer func() { _ = tp.Shutdown(context.Background()) }()

	pool, err := pgxpool.New(ctx, cfg.PGURL)
	if err != nil {
		log.Error("pg connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	var sender application.Sender
	if cfg.SMTP.Host != "" {
		sender = mail.NewSMTPSender(log, mail.SMTPConfig(cfg.SMTP))
	} else {
		log.Warn("SMTP_HOST not set, confirmations are logged instead of mailed")
		sender = mail.NewLogSender(log)
	}

	worker := application.NewWorker(log,
		notifypg.NewOrderReader(log, pool),
		sender,
		idempotency.NewStore(rdb, cfg.Notification.DedupTTL),
		cfg.Notification.MaxAttempts,
		cfg.Notification.RetryBackoff,
	)

	reader := notifykafka.NewReader(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID)
	defer reader.Close()

	log.Info("notification worker consuming", "topic", cfg.Kafka.Topic, "group", cfg.Kafka.GroupID)
	if err := notifykafka.NewConsumer(log, reader, worker).Run(ctx); err != nil {
		log.Error("consumer stopped with error", "err", err)
		os.Exit(1)
	}
	log.Info("notification-worker shutdown complete")
}
