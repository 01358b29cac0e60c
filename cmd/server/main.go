package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"topneum/internal/config"
	"topneum/internal/infra"
	"topneum/internal/metrics"
	"topneum/internal/router"
	"topneum/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// @title TopNeum API
// @version 1.0
// @description Tarifas, cotizaciones, pedidos y sincronizacion de stock.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger: pretty in dev, JSON in prod
	if cfg.Env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	if cfg.MigrateOnStart {
		if err := infra.RunMigrations(cfg.DatabaseURL); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	// Event delivery workers: webhook (through the circuit breaker) and, when
	// SMTP is configured, the sales-inbox email.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cbCfg := infra.DefaultCBConfig()
	cbCfg.OnStateChange = func(from, to infra.CBState) {
		metrics.WebhookCircuito.Set(float64(to))
		log.Warn().Str("from", from.String()).Str("to", to.String()).Msg("webhook circuit breaker state changed")
	}
	webhook := infra.NewWebhookClient(cfg.WebhookURL, cfg.WebhookSecret)

	var notificador worker.Notificador
	if cfg.SMTPEnabled() {
		notificador = infra.NewMailer(cfg)
	} else {
		log.Info().Msg("SMTP not configured, order emails disabled")
	}
	if !webhook.Enabled() {
		log.Info().Msg("WEBHOOK_URL not set, automation webhook disabled")
	}

	eventos := worker.NewEventoWorker(webhook, infra.NewCircuitBreaker(cbCfg), notificador, rdb)
	worker.StartWorkerPool(ctx, rdb, cfg.WorkerPoolSize, eventos)

	r := router.New(cfg, db, rdb)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("TopNeum backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	cancel()
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = rdb.Close()
	log.Info().Msg("server exited")
}
