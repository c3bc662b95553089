package http

import (
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/vncsmyrnk/pollsite/internal/core/ports"
)

type Handlers struct {
	Questions   *QuestionHandler
	Votes       *VoteHandler
	Users       *UserHandler
	Auth        *AuthHandler
	AuthService ports.AuthService
}

type RouterOptions struct {
	CORSAllowedOrigins []string
	// SlowRequest raises the access log line to warn; zero disables it.
	SlowRequest time.Duration
}

func NewHandler(h Handlers, opts RouterOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(accessLog(opts.SlowRequest))
	r.Use(middleware.Recoverer)
	r.Use(corsHandler(opts.CORSAllowedOrigins))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
	})

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Auth.Login)
		r.Post("/refresh", h.Auth.Refresh)
		r.Post("/logout", h.Auth.Logout)
	})
	r.Post("/oauth/callback", h.Auth.GoogleCallback)

	r.Route("/api", func(r chi.Router) {
		r.Post("/accounts/signup", h.Users.Signup)

		r.Route("/questions", func(r chi.Router) {
			r.Get("/", h.Questions.List)
			r.Get("/{id}", h.Questions.Detail)
			r.Get("/{id}/results", h.Questions.Results)
			r.Post("/{id}/vote", h.Votes.Vote)

			r.Group(func(r chi.Router) {
				r.Use(AuthMiddleware(h.AuthService))
				r.Post("/", h.Questions.Create)
				r.Put("/{id}", h.Questions.Update)
				r.Delete("/{id}", h.Questions.Delete)
				r.Post("/{id}/choices", h.Questions.AddChoice)
			})
		})

		r.With(AuthMiddleware(h.AuthService)).Get("/me", h.Users.GetMe)
	})

	return r
}

func corsHandler(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", idempotencyHeader},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: !slices.Contains(origins, "*"),
		MaxAge:           300,
	})
}
