package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"ecommerce-shop/services/shop-api/internal/auth"
	"ecommerce-shop/services/shop-api/internal/github"
	httpx "ecommerce-shop/services/shop-api/internal/http"
	"ecommerce-shop/services/shop-api/internal/http/handlers"
	"ecommerce-shop/services/shop-api/internal/job"
	"ecommerce-shop/services/shop-api/internal/repo"
	"ecommerce-shop/services/shop-api/internal/service"
	"ecommerce-shop/services/shop-api/internal/storage"
	"ecommerce-shop/shared/pkg/cache"
	"ecommerce-shop/shared/pkg/config"
	"ecommerce-shop/shared/pkg/logger"
	"ecommerce-shop/shared/pkg/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.New("shop-api", cfg.Common.LogLevel)
	if err := cfg.RequirePostgres(); err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	ctxInit, cancelInit := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelInit()

	db, err := pgxpool.New(ctxInit, cfg.Postgres.DSN)
	if err != nil {
		log.Fatal().Err(err).Msg("pg connect failed")
	}
	defer db.Close()

	if cfg.Postgres.MigrateOnStart {
		if err := migrations.UpFromPool(ctxInit, db); err != nil {
			log.Fatal().Err(err).Msg("migrations failed")
		}
		log.Info().Msg("migrations applied")
	}

	rdb := cache.New(cfg.Redis.Addr)
	defer rdb.Close()
	if err := rdb.Ping(ctxInit); err != nil {
		log.Warn().Err(err).Msg("redis unavailable, product reads fall through to postgres")
	}

	store := &repo.PGStore{
		Pool: db,
		Cache: &repo.ProductsCached{
			Next:  &repo.ProductsPG{DB: db},
			Redis: rdb,
			TTL:   cfg.Redis.ProductTTL,
			Log:   log,
		},
	}

	objects, err := storage.NewS3(ctxInit, cfg.S3)
	if err != nil {
		log.Fatal().Err(err).Msg("s3 client init failed")
	}

	now := func() time.Time { return time.Now().UTC() }
	users := &service.UserService{
		Store:         store,
		Log:           log,
		Tokens:        &auth.ResetTokens{Secret: []byte(cfg.Auth.ResetSecret), TTL: cfg.Auth.ResetTTL, Now: now},
		ResetURL:      cfg.Auth.ResetURL,
		GitHub:        github.NewClient(cfg.GitHub.APIURL),
		InactiveAfter: cfg.Sweep.InactiveAfter,
		Now:           now,
	}
	carts := &service.CartService{Store: store, Log: log, Now: now}
	checkout := &service.CheckoutService{Store: store, Log: log, Now: now}
	documents := &service.DocumentService{Store: store, Objects: objects, Log: log}

	router := httpx.NewRouter(&httpx.Handlers{
		Health:    handlers.Health,
		Users:     &handlers.UsersHandler{Users: users, Log: log},
		Carts:     &handlers.CartsHandler{Carts: carts, Checkout: checkout, Log: log},
		Sessions:  &handlers.SessionsHandler{Users: users, Log: log},
		Documents: &handlers.DocumentsHandler{Documents: documents, Log: log},
	}, log)

	scheduler := job.NewScheduler(log)
	if _, err := scheduler.AddJob(cfg.Sweep.Schedule, job.NewSweepInactiveUsersJob(users, log)); err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.Sweep.Schedule).Msg("invalid sweep schedule")
	}
	scheduler.Start()

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http failed")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info().Msg("shutdown...")
	<-scheduler.Stop().Done()
	shCtx, shCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shCancel()
	_ = srv.Shutdown(shCtx)
}
