package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ecommerce-shop/services/notification-service/internal/mail"
	"ecommerce-shop/services/notification-service/internal/worker"
	"ecommerce-shop/shared/pkg/cache"
	"ecommerce-shop/shared/pkg/config"
	"ecommerce-shop/shared/pkg/logger"
	"ecommerce-shop/shared/pkg/models"
	"ecommerce-shop/shared/pkg/rabbit"
)

const (
	serviceName  = "notification"
	queueName    = "notification.q"
	dlqName      = "notification.dlq"
	retryTTLMs   = 5000
	maxAttempts  = 5
	prefetch     = 20
	dedupeWindow = 24 * time.Hour
)

var boundEvents = []string{
	models.EventPurchaseCompleted,
	models.EventUserDeleted,
	models.EventUserInactiveDeleted,
	models.EventPasswordResetRequested,
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.New("notification-service", cfg.Common.LogLevel)

	rc, err := rabbit.Connect(cfg.Rabbit.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("rabbit connect failed")
	}
	defer func() { _ = rc.Close() }()

	if err := rabbit.DeclareBase(rc.Ch); err != nil {
		log.Fatal().Err(err).Msg("declare base failed")
	}
	if err := rabbit.DeclareQueueWithDLQ(rc.Ch, rabbit.QueueSpec{
		Name:     queueName,
		BindKeys: boundEvents,
		DLQ:      dlqName,
	}); err != nil {
		log.Fatal().Err(err).Msg("declare notification topology failed")
	}
	for _, rk := range boundEvents {
		if err := rabbit.DeclareRetryQueue(rc.Ch, serviceName, rk, retryTTLMs); err != nil {
			log.Fatal().Err(err).Str("rk", rk).Msg("declare retry queue failed")
		}
	}

	rdb := cache.New(cfg.Redis.Addr)
	defer func() { _ = rdb.Close() }()

	mailer, err := mail.NewSMTP(cfg.SMTP)
	if err != nil {
		log.Fatal().Err(err).Msg("smtp init failed")
	}

	deliveries, err := rabbit.NewConsumer(rc.Ch).Consume(queueName, prefetch)
	if err != nil {
		log.Fatal().Err(err).Msg("consume failed")
	}

	w := &worker.Consumer{
		Log:         log,
		Mailer:      mailer,
		Dedupe:      rdb,
		Service:     serviceName,
		MaxAttempts: maxAttempts,
		DedupeTTL:   dedupeWindow,
		SendTimeout: 15 * time.Second,
		RetryPub:    rabbit.NewPublisher(rc.Ch, rabbit.ExchangeRetry),
		DLQPub:      rabbit.NewPublisher(rc.Ch, rabbit.ExchangeDLX),
		DLQKey:      dlqName,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx, deliveries)

	log.Info().Msg("notification worker started")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info().Msg("shutdown")
	cancel()
}
