package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog"

	"github.com/Belphemur/ubercache/cache"
	"github.com/Belphemur/ubercache/internal/config"
	"github.com/Belphemur/ubercache/internal/loadgen"
	"github.com/Belphemur/ubercache/internal/metrics"
)

func main() {
	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, config.GetConfig(), config.GetLogger())
	stop()
	os.Exit(code)
}

// run returns the process exit code. Deferred cleanup, including the Sentry
// flush, completes before it returns.
func run(parent context.Context, cfg *config.Config, logger zerolog.Logger) int {
	logger.Info().
		Int("max_entries", cfg.Cache.MaxEntries).
		Int64("max_weight", cfg.Cache.MaxWeight).
		Str("default_ttl", cfg.Cache.DefaultTTL).
		Str("codec", cfg.Cache.Codec).
		Str("compression", cfg.Cache.Compression).
		Int("operations", cfg.Load.Operations).
		Msg("Application started with configuration")

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
		}); err != nil {
			logger.Error().Err(err).Msg("Failed to initialize Sentry")
			return 1
		}
		defer sentry.Flush(2 * time.Second)
	}

	opts, err := cfg.CacheOptions()
	if err != nil {
		logger.Error().Err(err).Msg("Invalid cache configuration")
		sentry.CaptureException(err)
		return 1
	}
	opts.Logger = &logger
	opts.OnHandlerError = func(err error) {
		if cfg.Sentry.DSN != "" {
			sentry.CaptureException(err)
		}
	}

	c, err := cache.New[string, any](opts)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create cache")
		sentry.CaptureException(err)
		return 1
	}
	defer c.Close()

	ctx, stop := context.WithCancel(parent)
	defer stop()

	// Start Prometheus metrics HTTP server
	if cfg.Metrics.Enabled {
		metricsServer := metrics.NewHTTPServer(cfg.Server.Address, cfg.Metrics.Port)
		go func() {
			logger.Info().Str("address", metricsServer.Addr).Msg("Starting Prometheus metrics HTTP server")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("Failed to serve metrics")
				sentry.CaptureException(err)
				stop()
			}
		}()
		defer func() {
			if err := metricsServer.Shutdown(context.Background()); err != nil {
				logger.Error().Err(err).Msg("Failed to shutdown metrics server")
			}
		}()
	}

	runner, err := loadgen.NewRunner(c, cfg.Load.Operations, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Invalid load configuration")
		return 1
	}

	results, err := runner.Run(ctx)
	if err != nil {
		logger.Error().Err(err).Int("completed_phases", len(results)).Msg("Load run aborted")
		return 1
	}

	var total time.Duration
	for _, res := range results {
		total += res.Duration
	}
	logger.Info().Dur("total", total).Int("phases", len(results)).Msg("Load run summary")

	if cfg.Load.Hold {
		logger.Info().Msg("Holding until shutdown signal")
		<-ctx.Done()
		logger.Info().Msg("Received shutdown signal")
	}

	logger.Info().Msg("Stopped gracefully")
	return 0
}
