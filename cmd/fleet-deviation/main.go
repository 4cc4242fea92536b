// Command fleet-deviation computes quarterly carbon-intensity deviations for
// a fleet and prints the report, or serves it over HTTP with -serve.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rshade/fleet-deviation/internal/config"
	"github.com/rshade/fleet-deviation/internal/history"
	"github.com/rshade/fleet-deviation/internal/report"
)

func main() {
	flags, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	bootstrap := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	cfg, err := config.Load(flags.ConfigPath, bootstrap)
	if err != nil {
		bootstrap.Fatal().Err(err).Msg("invalid configuration")
	}
	flags.apply(&cfg)
	if err := cfg.Validate(); err != nil {
		bootstrap.Fatal().Err(err).Msg("invalid configuration")
	}

	log.Logger = cfg.Log.Logger()

	if err := run(context.Background(), cfg, flags.Serve, os.Stdout); err != nil {
		log.Fatal().Err(err).Msg("fleet-deviation failed")
	}
}

func run(ctx context.Context, cfg config.Config, serve bool, stdout io.Writer) error {
	logger := log.Logger

	source, err := newSource(cfg.Source, logger)
	if err != nil {
		return err
	}
	renderer, err := report.NewRenderer(cfg.Report.Format)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	runner := &Runner{
		source:  source,
		engine:  newEngine(cfg.Engine, logger),
		builder: report.NewBuilder(cfg.Report.Precision),
		metrics: report.NewMetrics(registry),
		keep:    cfg.History.Keep,
		logger:  logger,
	}

	if cfg.History.Path != "" {
		store, err := history.Open(ctx, cfg.History.Path, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := store.Close(); err != nil {
				logger.Error().Err(err).Msg("failed to close history database")
			}
		}()
		runner.history = store
	}

	if !serve {
		doc, err := runner.Run(ctx)
		if err != nil {
			return err
		}
		return renderer.Render(stdout, doc)
	}

	srv := &Server{
		runner:   runner,
		renderer: renderer,
		history:  runner.history,
		gatherer: registry,
		timeout:  cfg.Source.Timeout + 30*time.Second,
		logger:   logger,
	}
	return listenAndServe(cfg.Server.Listen, srv.Handler(), logger)
}

func listenAndServe(addr string, handler http.Handler, logger zerolog.Logger) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownDone := make(chan struct{})
	go func() {
		signalChan := make(chan os.Signal, 1)
		signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
		<-signalChan

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("shutdown failed")
		}
		close(shutdownDone)
	}()

	logger.Info().Str("addr", addr).Msg("serving fleet deviation reports")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	<-shutdownDone
	return nil
}
