package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/splits-network/notifier/internal/api/handler"
	apimw "github.com/splits-network/notifier/internal/api/middleware"
	"github.com/splits-network/notifier/internal/repository"
)

// NewRouter wires the chi router, attaches all middleware, and registers
// every route. It is the single source of truth for the HTTP surface area.
func NewRouter(
	repo repository.NotificationRepository,
	broker handler.HealthChecker,
	reg prometheus.Gatherer,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// --- global middleware (applied to every route) ---
	r.Use(chimw.Recoverer)            // recover panics, return 500
	r.Use(chimw.RealIP)               // trust X-Forwarded-For / X-Real-IP
	r.Use(chimw.RequestSize(1 << 20)) // 1 MB max request body
	r.Use(apimw.RequestID)            // X-Request-ID keep / mint, echo
	r.Use(apimw.RequestLogger(logger))

	nh := handler.NewNotificationHandler(repo, logger)
	hh := handler.NewHealthHandler(broker)

	r.Get("/health", hh.Health)

	// Raw Prometheus scrape endpoint
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	// Note: mark-all-read must be registered before the /{id} patterns so
	// chi does not treat the literal string as an ID.
	r.Patch("/notifications/mark-all-read", nh.MarkAllRead)
	r.Get("/notifications/{userId}", nh.Feed)
	r.Get("/notifications/{userId}/unread-count", nh.UnreadCount)
	r.Patch("/notifications/{id}/read", nh.MarkRead)
	r.Patch("/notifications/{id}/dismiss", nh.Dismiss)

	return r
}
