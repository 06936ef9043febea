package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"contactbook/internal/contact/events"
	"contactbook/internal/contact/handler"
	contactmetrics "contactbook/internal/contact/metrics"
	"contactbook/internal/contact/service"
	"contactbook/internal/contact/validation"
	"contactbook/internal/platform/config"
	"contactbook/internal/platform/httpserver"
	"contactbook/internal/platform/logger"
	"contactbook/internal/platform/metrics"
	"contactbook/internal/platform/middleware"
	"contactbook/internal/platform/retry"
)

// main wires the dependencies, exposes the HTTP router, and keeps the server
// lifecycle small. Business logic lives in internal/contact.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.IsProduction())

	if err := run(cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := metrics.NewRegistry()
	httpMetrics := metrics.New(reg)
	contactMetrics := contactmetrics.New(reg)

	store, closeStore, err := buildStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	sink, closeSink, err := buildSink(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeSink()

	policy, err := validation.ParsePhonePolicy(cfg.PhonePolicy)
	if err != nil {
		return err
	}

	publisher := events.NewPublisher(
		events.WithLogger(log),
		events.WithMetrics(contactMetrics),
	)
	worker := events.NewWorker(sink, publisher.Queue(), log, contactMetrics)

	svc := service.New(store,
		service.WithLogger(log),
		service.WithMetrics(contactMetrics),
		service.WithEventPublisher(publisher),
		service.WithValidator(validation.New(validation.WithPhonePolicy(policy))),
	)

	router := newRouter(cfg, log, httpMetrics, handler.New(svc, log))
	router.Handle("/metrics", metrics.Handler(reg))

	srv := httpserver.New(cfg.Server.Addr, router, cfg.Server.ReadHeaderTimeout)

	log.Info("starting contactbook",
		"addr", cfg.Server.Addr,
		"environment", cfg.Environment,
		"store", cfg.Store.Driver,
		"phone_policy", policy.String(),
		"kafka", cfg.Events.KafkaEnabled(),
	)

	if err := serve(ctx, srv, worker, cfg.Server.ShutdownTimeout); err != nil {
		return err
	}
	log.Info("shutdown complete")
	return nil
}

type eventWorker interface {
	Run(ctx context.Context) error
}

// serve runs the HTTP server and the event worker until ctx ends. The worker
// keeps its own context and is stopped only after the server has shut down,
// so events from requests that finish during shutdown are still delivered.
func serve(ctx context.Context, srv *http.Server, worker eventWorker, shutdownTimeout time.Duration) error {
	workerCtx, stopWorker := context.WithCancel(context.WithoutCancel(ctx))
	defer stopWorker()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return worker.Run(workerCtx)
	})
	g.Go(func() error {
		defer stopWorker()
		return httpserver.Run(gctx, srv, shutdownTimeout)
	})
	return g.Wait()
}

func newRouter(cfg config.Config, log *slog.Logger, m *metrics.Metrics, h *handler.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Logger(log))
	r.Use(middleware.Latency(m))

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(cfg.Server.RequestTimeout))
		r.Use(middleware.ContentTypeJSON)
		h.Register(r)
	})
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return r
}

func buildSink(ctx context.Context, cfg config.Config, log *slog.Logger) (events.Sink, func(), error) {
	if !cfg.Events.KafkaEnabled() {
		log.Info("no kafka brokers configured, contact events go to the log")
		return events.NewLogSink(log), func() {}, nil
	}

	sink, err := events.NewKafkaSink(cfg.Events.Brokers, cfg.Events.Topic)
	if err != nil {
		return nil, nil, err
	}
	err = retry.Init(ctx, 30*time.Second, sink.EnsureTopic)
	if err != nil {
		sink.Close()
		return nil, nil, fmt.Errorf("ensure topic %s: %w", sink.Topic(), err)
	}
	return sink, sink.Close, nil
}
