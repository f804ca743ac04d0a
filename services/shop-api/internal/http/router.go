package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"ecommerce-shop/services/shop-api/internal/http/handlers"
	"ecommerce-shop/shared/pkg/metrics"
)

type Handlers struct {
	Health    http.HandlerFunc
	Users     *handlers.UsersHandler
	Carts     *handlers.CartsHandler
	Sessions  *handlers.SessionsHandler
	Documents *handlers.DocumentsHandler
}

func NewRouter(h *Handlers, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(log))
	r.Use(metrics.Middleware("shop-api"))
	r.Handle("/metrics", metrics.Handler())

	r.Get("/health", h.Health)
	r.Route("/api", func(r chi.Router) {
		r.Get("/carts", h.Carts.List)
		r.Get("/carts/{cid}", h.Carts.Get)

		r.Post("/sessions", h.Sessions.Login)
		r.Post("/sessions/github", h.Sessions.GitHub)

		r.Route("/users", func(r chi.Router) {
			r.Get("/", h.Users.List)
			r.Post("/", h.Users.Create)
			r.Delete("/inactive", h.Users.SweepInactive)
			r.Post("/password-reset", h.Users.RequestPasswordReset)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.Users.Get)
				r.Put("/", h.Users.Update)
				r.Delete("/", h.Users.Delete)

				r.Get("/cart", h.Carts.Show)
				r.Post("/cart", h.Carts.AddProducts)
				r.Delete("/cart", h.Carts.Clear)
				r.Delete("/cart/item", h.Carts.RemoveProduct)
				r.Post("/checkout", h.Carts.Purchase)

				r.Get("/role", h.Users.GetRole)
				r.Patch("/role", h.Users.ChangeRole)
				r.Post("/documents", h.Documents.Upload)
				r.Post("/password-reset/{token}", h.Users.ResetPassword)
			})
		})
	})
	return r
}
