// internal/api/router.go
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"minivenmo/internal/api/handler"
)

// NewRouter sets up and returns a new HTTP router.
func NewRouter(venmoHandler *handler.VenmoHandler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middlewares
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(handler.DefaultTimeout))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// User API routes
	r.Route("/users", func(r chi.Router) {
		r.Post("/", venmoHandler.CreateUser)
		r.Get("/", venmoHandler.ListUsers)
		r.Get("/{userID}", venmoHandler.GetUser)
		r.Post("/{userID}/payments", venmoHandler.Pay)
		r.Post("/{userID}/card", venmoHandler.AddCreditCard)
		r.Post("/{userID}/balance", venmoHandler.AddToBalance)
		r.Post("/{userID}/friends", venmoHandler.AddFriend)
		r.Get("/{userID}/feed", venmoHandler.GetFeed)
	})

	return r
}
