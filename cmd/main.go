package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"dnsfifo/internal/cache"
	"dnsfifo/internal/config"
	"dnsfifo/internal/gen"
	"dnsfifo/internal/metrics"
	redismanager "dnsfifo/internal/redis"
	"dnsfifo/internal/report"
	"dnsfifo/internal/stress"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "dnsfifo",
		Short:        "Bounded FIFO name-to-address cache",
		SilenceUsage: true,
	}

	stressCmd := &cobra.Command{
		Use:   "stress",
		Short: "Hammer one shared cache with concurrent update/resolve workers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runStress(ctx, cfg)
		},
	}
	config.RegisterFlags(stressCmd.Flags())
	root.AddCommand(stressCmd)
	return root
}

func newLogger(level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("parse log level %q: %w", level, err)
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger(), nil
}

func runStress(ctx context.Context, cfg config.Config) error {
	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	// The single shared instance for the whole process.
	c, err := cache.New(cfg.Capacity,
		cache.WithLogger(log),
		cache.WithObserver(metrics.NewCacheCollector("dnsfifo", reg)),
	)
	if err != nil {
		return err
	}

	sinks := []report.Sink{report.NewConsoleSink(os.Stdout, cfg.Quiet)}
	if cfg.RedisAddr != "" {
		rm := redismanager.NewManager(cfg.RedisAddr)
		if err := rm.Start(ctx); err != nil {
			return err
		}
		defer func() {
			if err := rm.Stop(); err != nil {
				log.Warn().Err(err).Msg("stop redis")
			}
		}()
		sinks = append(sinks, report.NewRedisSink(rm.Client(), cfg.RedisKey))
		log.Info().Str("addr", cfg.RedisAddr).Str("key", cfg.RedisKey).Msg("reporting to redis")
	}

	runner := stress.NewRunner(c, gen.New(cfg.Seed), report.Multi(sinks...), stress.Config{
		Workers:  cfg.Workers,
		MinDelay: cfg.MinDelay,
		MaxDelay: cfg.MaxDelay,
	}, log)

	if cfg.HTTPAddr != "" {
		srv := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           newMux(c, runner, reg),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			log.Info().Str("addr", cfg.HTTPAddr).Msg("serving stats")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("stats server")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	summary, err := runner.Run(ctx)
	stats := c.Stats()
	log.Info().
		Int64("ok", summary.OK).
		Int64("errors", summary.Errors).
		Int64("missing", summary.Missing).
		Int64("evictions", stats.Evictions).
		Int64("duplicates", stats.Duplicates).
		Msg("stress run complete")
	if err != nil {
		log.Error().Err(err).Msg("stress run reported errors")
	}
	return err
}
