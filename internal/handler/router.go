package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	custommiddleware "github.com/mmeshcher/points-wallet/internal/middleware"
	"github.com/mmeshcher/points-wallet/internal/model"
)

// SetupRouter настраивает HTTP-маршруты и middleware сервиса кошелька баллов.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: h.allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))
	r.Use(custommiddleware.Metrics)

	r.Get("/healthz", h.Healthz)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/authenticate", h.Authenticate)
	r.Post("/refresh-token", h.RefreshToken)

	r.Route("/users", func(r chi.Router) {
		r.Use(h.authMiddleware.Middleware)

		r.Get("/me", h.Me)
		r.Post("/transfer", h.Transfer)
		r.Get("/{id}/transactions", h.UserTransactions)
		r.Get("/{id}/points", h.UserPoints)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(h.authMiddleware.Middleware)
		r.Use(custommiddleware.RequireRole(model.RoleAdmin))

		r.Post("/users", h.CreateUser)
		r.Get("/users", h.ListUsers)
		r.Post("/users/add-nox", h.AddNox)
		r.Put("/users/{id}", h.UpdateUser)
		r.Delete("/users/{id}", h.DeleteUser)
		r.Get("/transactions", h.AllTransactions)
		r.Get("/audit-logs", h.AuditLogs)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "Route not found.")
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed))
	})

	return r
}
