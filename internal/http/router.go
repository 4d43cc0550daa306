package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type Handlers struct {
	Cart      *CartHandler
	Customers *CustomerHandler
	Checkout  *CheckoutHandler
	History   *HistoryHandler
}

func NewRouter(h Handlers, requestTimeout time.Duration, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(RegisterMiddleware)
	r.Use(LoggingMiddleware(logger))
	r.Use(middleware.Timeout(requestTimeout))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/items", h.Cart.ListItems)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.Cart.GetCart)
			r.Post("/items", h.Cart.AddItem)
			r.Post("/items/{type}/{id}/increment", h.Cart.Increment)
			r.Post("/items/{type}/{id}/decrement", h.Cart.Decrement)
			r.Put("/items/{type}/{id}", h.Cart.UpdateQuantity)
			r.Delete("/items/{type}/{id}", h.Cart.RemoveItem)
			r.Put("/customer", h.Cart.SelectCustomer)
			r.Delete("/customer", h.Cart.ClearCustomer)
		})

		r.Get("/customers", h.Customers.Search)
		r.Post("/customers", h.Customers.Create)
		r.Post("/preseed", h.Cart.Preseed)

		r.Route("/checkout", func(r chi.Router) {
			r.Get("/", h.Checkout.Get)
			r.Post("/", h.Checkout.Open)
			r.Put("/method", h.Checkout.SelectMethod)
			r.Put("/card", h.Checkout.UpdateCard)
			r.Post("/submit", h.Checkout.Submit)
			r.Post("/cancel", h.Checkout.Cancel)
			r.Post("/done", h.Checkout.Done)
		})

		r.Get("/history", h.History.List)
	})

	return r
}
