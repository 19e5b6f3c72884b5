package chi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog"
	"github.com/marcelsud/hookwatch/event"
	"github.com/marcelsud/hookwatch/metrics"
	"github.com/marcelsud/hookwatch/replay"
	"github.com/rs/zerolog"
)

const (
	DefaultResponseBodyLimit = 4000
	DefaultMaxBodyBytes      = 1 << 20
)

// Services are the use cases the HTTP layer exposes; Targets, MetricsHandler and Activity are optional
type Services struct {
	Events         event.UseCase
	Replay         replay.UseCase
	Metrics        metrics.Collector
	Targets        TargetLister
	MetricsHandler http.Handler
	Activity       ActivityReader
}

// Options bound request handling
type Options struct {
	ReplayTimeout     time.Duration
	ResponseBodyLimit int
	MaxBodyBytes      int64
}

func (o Options) withDefaults() Options {
	if o.ReplayTimeout <= 0 {
		o.ReplayTimeout = replay.DefaultTimeout
	}
	if o.ResponseBodyLimit <= 0 {
		o.ResponseBodyLimit = DefaultResponseBodyLimit
	}
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = DefaultMaxBodyBytes
	}
	return o
}

// Handlers sets up the ingest and inspection API routes
func Handlers(ctx context.Context, logger zerolog.Logger, svc Services, opts Options) *chi.Mux {
	opts = opts.withDefaults()

	r := chi.NewRouter()
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"https://*", "http://*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}))
	// A replay may take the whole dispatch timeout, so the request budget sits above it
	r.Use(middleware.Timeout(opts.ReplayTimeout + 5*time.Second))

	r.Get("/health", getHealth(svc.Events).ServeHTTP)

	// Capture accepts any method
	r.Handle("/ingest/{source}", ingest(svc.Events, opts.MaxBodyBytes))

	r.Route("/api", func(r chi.Router) {
		r.Get("/events", listEvents(svc.Events).ServeHTTP)
		r.Delete("/events", clearEvents(svc.Events).ServeHTTP)
		r.Get("/events/{id}", getEvent(svc.Events).ServeHTTP)
		r.Post("/events/{id}/replay", postReplay(svc.Events, svc.Replay, opts.ResponseBodyLimit).ServeHTTP)
		r.Get("/targets", getTargets(svc.Targets).ServeHTTP)
		r.Get("/stats", getStats(svc.Metrics).ServeHTTP)
		r.Get("/activity", getActivity(svc.Activity).ServeHTTP)
	})

	if svc.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", svc.MetricsHandler)
	}

	return r
}
