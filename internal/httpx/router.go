package httpx

import (
	"net/http"

	"marketplace-be/internal/logger"
	"marketplace-be/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(logger.RequestIDMiddleware)
	r.Use(logger.LoggingMiddleware)
	r.Use(middleware.RateLimitMiddleware)
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", handler.Health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/users", handler.RegisterUser)
		r.Get("/users", handler.ListUsers)
		r.Get("/users/{id}", handler.GetUser)

		r.Post("/orders", handler.CreateOrder)
		r.Get("/orders", handler.ListOrders)
		r.Get("/orders/{id}", handler.GetOrder)
		r.Post("/orders/{id}/items", handler.AddItem)
		r.Post("/orders/{id}/pay", handler.PayOrder)
		r.Post("/orders/{id}/cancel", handler.CancelOrder)
		r.Post("/orders/{id}/ship", handler.ShipOrder)
		r.Post("/orders/{id}/complete", handler.CompleteOrder)
		r.Get("/orders/{id}/history", handler.GetOrderHistory)
	})

	return r
}
