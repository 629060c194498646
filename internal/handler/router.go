package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	custommiddleware "github.com/mmeshcher/vales-contigo/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware страницы вале.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Get("/healthz", h.Health)

	r.Group(func(r chi.Router) {
		r.Use(h.sessions.Middleware)

		r.Get("/pin", h.PINForm)
		r.Post("/pin", h.EnterPIN)
		r.Post("/logout", h.Logout)

		r.Get("/", h.Board)
		r.Post("/coupons/{id}/use", h.RequestUse)
		r.Post("/confirm", h.Confirm)
		r.Post("/cancel", h.Cancel)

		r.Post("/reactivate", h.Reactivate)
		r.Get("/export", h.Export)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
