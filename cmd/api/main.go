package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/httplog"
	"github.com/marcelsud/hookwatch/config"
	"github.com/marcelsud/hookwatch/event"
	"github.com/marcelsud/hookwatch/event/redis"
	"github.com/marcelsud/hookwatch/internal/http/chi"
	"github.com/marcelsud/hookwatch/metrics"
	"github.com/marcelsud/hookwatch/replay"
	"github.com/marcelsud/hookwatch/targets"
	"github.com/rs/zerolog"
)

const TIMEOUT = 30 * time.Second

/* main wires the packages together: it builds the store and the services,
 * attaches the listeners (metrics, optional Redis stream) and serves HTTP
 * until a termination signal arrives
 */

func main() {
	cfg, err := config.GetConfig()
	if err != nil {
		fmt.Println(err)
		return
	}
	level, _ := cfg.Level()

	logger := httplog.NewLogger("hookwatch", httplog.Options{
		JSON: true,
	})
	zerolog.SetGlobalLevel(level)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT,
	)
	defer stop()

	store := event.NewStore(cfg.MaxEvents, event.WithReplayHistoryLimit(cfg.ReplayHistoryLimit))
	collector := metrics.NewStoreCollector(store)

	exporter, err := metrics.NewOTelExporter(collector)
	if err != nil {
		logger.Error().Err(err).Msg("creating metrics exporter")
		return
	}
	defer exporter.Shutdown(context.Background())

	listeners := []event.Listener{exporter}
	svc := chi.Services{
		Metrics:        collector,
		MetricsHandler: exporter.Handler(),
	}

	if cfg.RedisEnabled() {
		publisher, err := redis.NewPublisher(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisStream, cfg.RedisStreamMaxLen, logger)
		if err != nil {
			logger.Error().Err(err).Str("addr", cfg.RedisAddr).Msg("connecting activity stream")
			return
		}
		defer publisher.Close(ctx)
		listeners = append(listeners, publisher)
		svc.Activity = publisher
		logger.Info().Str("stream", publisher.Stream()).Msg("publishing activity to Redis")
	}

	var resolver replay.TargetResolver
	if cfg.TargetsFile != "" {
		loader := targets.NewLoader()
		if err := loader.Load(cfg.TargetsFile); err != nil {
			logger.Error().Err(err).Str("file", cfg.TargetsFile).Msg("loading replay targets")
			return
		}
		resolver = loader
		svc.Targets = loader
		logger.Info().Int("targets", len(loader.List())).Msg("replay targets loaded")
	}

	engine := replay.NewEngine(&http.Client{}, cfg.ReplayTimeout)
	svc.Events = event.NewService(store, logger, listeners...)
	svc.Replay = replay.NewService(store, engine, resolver, logger, listeners...)

	r := chi.Handlers(ctx, logger, svc, chi.Options{
		ReplayTimeout:     cfg.ReplayTimeout,
		ResponseBodyLimit: cfg.ResponseBodyLimit,
		MaxBodyBytes:      cfg.MaxBodyBytes,
	})
	http.Handle("/", r)
	srv := &http.Server{
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.ReplayTimeout + 10*time.Second,
		Addr:         cfg.Addr(),
		Handler:      http.DefaultServeMux,
	}

	errShutdown := make(chan error, 1)
	go shutdown(srv, ctx, errShutdown)
	logger.Info().Str("addr", cfg.Addr()).Int("max_events", cfg.MaxEvents).Msg("listening")
	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("serving")
		return
	}
	err = <-errShutdown
	if err != nil {
		logger.Error().Err(err).Msg("shutting down")
		return
	}
}

func shutdown(server *http.Server, ctxShutdown context.Context, errShutdown chan error) {
	<-ctxShutdown.Done()

	ctxTimeout, stop := context.WithTimeout(context.Background(), TIMEOUT)
	defer stop()

	err := server.Shutdown(ctxTimeout)
	switch err {
	case nil:
		fmt.Printf("\nShutting down server...\n")
		errShutdown <- nil
	case context.DeadlineExceeded:
		errShutdown <- fmt.Errorf("forcing closing the server")
	default:
		errShutdown <- fmt.Errorf("closing the server: %w", err)
	}
}
