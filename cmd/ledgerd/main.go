package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/contractmind/ledger-go/internal/api"
	"github.com/contractmind/ledger-go/internal/config"
	"github.com/contractmind/ledger-go/internal/metrics"
	"github.com/contractmind/ledger-go/internal/store"
	"github.com/contractmind/ledger-go/migrations"
)

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}
	logger = configureLogger(logger, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := store.NewPool(ctx, cfg.DBDSN, cfg.DBMaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("database connection failed")
	}
	defer pool.Close()

	for _, migFile := range []string{"001_init.sql"} {
		migrationSQL, err := migrations.FS.ReadFile(migFile)
		if err != nil {
			logger.Fatal().Err(err).Str("file", migFile).Msg("read migration file")
		}
		if err := store.RunMigrations(ctx, pool, string(migrationSQL)); err != nil {
			logger.Fatal().Err(err).Str("file", migFile).Msg("migration failed")
		}
		logger.Info().Str("file", migFile).Msg("migration applied")
	}

	ledger := store.NewPostgresLedger(pool, cfg.StorageTimeout)
	qm := metrics.NewQueryMetrics(prometheus.DefaultRegisterer)
	router := api.NewRouter(ledger, logger, qm, cfg.RequestTimeout)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("ledger api listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("shutdown")
	}
	logger.Info().Msg("server stopped")
}

func configureLogger(logger zerolog.Logger, cfg config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Warn().Str("level", cfg.LogLevel).Msg("unknown log level, keeping info")
		level = zerolog.InfoLevel
	}
	logger = logger.Level(level)
	if cfg.LogPretty {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	return logger
}
