// Package api exposes the lookup service over HTTP.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/UnknownOlympus/pharmacy-locator/internal/models"
	"github.com/UnknownOlympus/pharmacy-locator/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Lookup is the part of the lookup service the API drives.
type Lookup interface {
	Initialize(ctx context.Context) error
	Refresh(ctx context.Context) error
	Fetch(ctx context.Context, region, subRegion string) error
	Snapshot() service.Snapshot
	Pharmacy(rnum string) (models.Pharmacy, bool)
	Today() models.DayCode
}

// JournalReader lists recorded lookup cycles.
type JournalReader interface {
	RecentLookups(ctx context.Context, limit int) ([]models.LookupEntry, error)
}

// Pinger reports the health of a backing store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config defines dependencies required by Handler. Journal and Health are optional.
type Config struct {
	Logger   *slog.Logger
	Lookup   Lookup
	Journal  JournalReader
	Health   Pinger
	Gatherer prometheus.Gatherer
}

// Handler wires HTTP endpoints to the lookup service.
type Handler struct {
	log      *slog.Logger
	lookup   Lookup
	journal  JournalReader
	health   Pinger
	gatherer prometheus.Gatherer
}

// NewHandler constructs the HTTP handler set.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		log:      cfg.Logger,
		lookup:   cfg.Lookup,
		journal:  cfg.Journal,
		health:   cfg.Health,
		gatherer: cfg.Gatherer,
	}
}

// Router builds the chi router with every route mounted.
func (h *Handler) Router() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(h.requestLogger)
	router.Use(middleware.Recoverer)

	router.Get("/healthz", h.healthHandler())
	if h.gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/pharmacies", h.snapshotHandler())
		r.Get("/pharmacies/{rnum}/hours", h.hoursHandler())
		r.Post("/initialize", h.cycleHandler(h.lookup.Initialize))
		r.Post("/refresh", h.cycleHandler(h.lookup.Refresh))
		r.Post("/fetch", h.fetchHandler())
		r.Get("/lookups", h.lookupsHandler())
	})

	return router
}

func (h *Handler) healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		h.log.DebugContext(ctx, "Performing health checks...")

		status, body := http.StatusOK, "OK"
		if h.health != nil {
			if err := h.health.Ping(ctx); err != nil {
				status, body = http.StatusServiceUnavailable, "DB ping failed"
			}
		}

		w.WriteHeader(status)
		if _, err := w.Write([]byte(body)); err != nil {
			h.log.ErrorContext(ctx, "failed to write reply", "error", err)
		}

		h.log.DebugContext(ctx, "Health checks completed", "status", status)
	}
}

func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		h.log.DebugContext(r.Context(), "HTTP request served",
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}
