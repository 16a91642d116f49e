package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"library/internal/catalog"
	"library/internal/config"
	"library/internal/httpx"
	"library/internal/platform/freebooks"
	"library/internal/platform/logging"
	"library/internal/platform/postgres"
	"library/internal/recommendation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Init(logging.Config{})
		log.Fatal().Err(err).Msg("load config")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := postgres.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer dbPool.Close()
	log.Info().Str("db", postgres.RedactDSN(cfg.DatabaseDSN)).Msg("database connection OK")

	catalogService := catalog.NewService(catalog.NewPostgresRepo(dbPool, cfg.DBTimeout))

	rec := cfg.Recommendations
	source := freebooks.NewClient(freebooks.Options{
		BaseURL: rec.BaseURL,
		Host:    rec.Host,
		APIKey:  rec.APIKey,
		Timeout: rec.Timeout,
		RPS:     rec.RPS,
	})
	fetcher := recommendation.NewFetcher(source, recommendation.Config{
		Genre:      rec.Genre,
		MaxRetries: rec.MaxRetries,
		RetryDelay: rec.RetryDelay,
	})

	var limiter *httpx.RateLimitMiddleware
	if cfg.RateLimitRPS > 0 {
		limiter = httpx.NewRateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst, cfg.TrustProxyHeaders)
		defer limiter.Stop()
	}

	handler := newRouter(routerDeps{
		Catalog:            catalog.NewHTTPHandler(catalogService),
		Recommendations:    recommendation.NewHTTPHandler(fetcher),
		Ready:              dbPool.Ping,
		EnableHSTS:         cfg.EnableHSTS,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		MaxBodyBytes:       cfg.MaxBodyBytes,
		RateLimiter:        limiter,
	})

	// WriteTimeout leaves room for a full recommendation retry cycle.
	writeTimeout := 10*time.Second + time.Duration(rec.MaxRetries)*(rec.RetryDelay+rec.Timeout)
	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("starting server")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("graceful shutdown failed")
		}
	}
}
