package rest

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rentably/rent-collection/internal"
	"github.com/rentably/rent-collection/internal/auth"
	"github.com/rentably/rent-collection/internal/landlord"
	"github.com/rentably/rent-collection/internal/paymentmethod"
	"github.com/rentably/rent-collection/internal/rentpayment"
	"github.com/rentably/rent-collection/internal/settlement"
	"github.com/rentably/rent-collection/internal/transport/middleware"
)

type Handlers struct {
	Auth          *auth.Handler
	Landlord      *landlord.Handler
	PaymentMethod *paymentmethod.Handler
	RentPayment   *rentpayment.Handler
	Webhook       *settlement.WebhookHandler
}

func RegisterAllRoutes(router *chi.Mux, cfg *internal.Config, db *sql.DB, handlers Handlers, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	var origins []string
	for _, origin := range strings.Split(cfg.Server.AllowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}

	router.Use(middleware.CORS(origins))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.Metrics)
	router.Use(middleware.LoggingMiddleware(logger))

	if cfg.Observability.Metrics.Enabled {
		path := cfg.Observability.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		router.Handle(path, promhttp.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Server-to-server settlement stream, authenticated by HMAC
		// signature instead of a session.
		if handlers.Webhook != nil {
			r.Post("/webhooks/processor", handlers.Webhook.HandleSettlementEvent)
		}

		if handlers.Auth != nil {
			r.Route("/auth", func(sr chi.Router) {
				sr.Post("/login", handlers.Auth.Login)
				sr.Post("/refresh", handlers.Auth.RefreshToken)
				sr.Post("/logout", handlers.Auth.Logout)
			})

			r.Group(func(pr chi.Router) {
				pr.Use(handlers.Auth.AuthMiddleware)

				if handlers.Landlord != nil {
					pr.Get("/landlords/me", handlers.Landlord.GetCurrentLandlord)
				}

				if handlers.PaymentMethod != nil {
					pr.Route("/payment-methods", func(mr chi.Router) {
						mr.Post("/link", handlers.PaymentMethod.Link)
						mr.Post("/confirm", handlers.PaymentMethod.Confirm)
						mr.Get("/", handlers.PaymentMethod.List)
						mr.Delete("/{id}", handlers.PaymentMethod.Remove)
					})
				}

				if handlers.RentPayment != nil {
					pr.Route("/rent-payments", func(rr chi.Router) {
						rr.Post("/", handlers.RentPayment.CreateRentPayment)
						rr.Get("/", handlers.RentPayment.ListRentPayments)
						rr.Get("/{id}", handlers.RentPayment.GetRentPayment)
					})
				}
			})
		}
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"code":404,"message":"not found"}`))
	})
}
