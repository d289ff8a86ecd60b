package router

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/kiwari-pos/fulfillment/internal/config"
	"github.com/kiwari-pos/fulfillment/internal/handler"
	mw "github.com/kiwari-pos/fulfillment/internal/middleware"
	"github.com/kiwari-pos/fulfillment/internal/ws"
)

// Pinger reports database health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// New creates a Chi router with all application routes wired up.
// Applies authentication, outlet scoping, and role-based middleware as needed.
func New(cfg *config.Config, logger *slog.Logger, db Pinger, svc handler.FulfillmentServicer, pub handler.Publisher, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(mw.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := db.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.Write([]byte(`{"status":"ok"}`))
	})

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/outlets/{oid}", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, logger, w, r)
	})

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		r.Route("/outlets/{oid}", func(r chi.Router) {
			r.Use(mw.RequireOutlet)

			fulfillmentHandler := handler.NewFulfillmentHandler(svc, pub, logger)
			fulfillmentHandler.RegisterRoutes(r)
		})
	})

	logger.Info("router initialized")
	return r
}
