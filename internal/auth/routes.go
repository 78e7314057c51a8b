package auth

import (
	"net/http"

	"github.com/SummaryProject/SP-Backend/internal/middleware"
	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"
)

func SetupRoutes() http.Handler {
	r := chi.NewRouter()
	sessionFetcher := SessionInfo{}

	// Credential-guessing protection on the unauthenticated endpoints.
	limited := middleware.RateLimit(rate.Limit(5), 10)

	r.With(limited).Post("/register", RegisterHandler)
	r.With(limited).Post("/login", LoginHandler)
	r.Post("/logout", LogoutHandler)
	r.Post("/session/check", CheckSessionHandler)
	r.Post("/admin/check", CheckAdminHandler)

	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionMiddleware(sessionFetcher))
		r.Get("/me", MeHandler)
		r.Get("/token", UserTokenHandler)
		r.Get("/calls", CallsHandler)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionMiddleware(sessionFetcher))
		r.Use(middleware.AdminMiddleware(sessionFetcher))
		r.Get("/users", AllUsersHandler)
		r.Get("/users/details", UserDetailsHandler)
		r.Get("/users/calls", UserCallsHandler)
	})

	return r
}
