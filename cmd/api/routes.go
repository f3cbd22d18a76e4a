package main

import (
	"net/http"

	"yamdb/proj/internal/policy"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func (app *Application) routes() http.Handler {
	router := chi.NewRouter()
	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		app.Http.NotFound(w, r, "Page not found")
	})
	router.MethodNotAllowed(app.Http.MethodNotAllowed)
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.StripSlashes)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: app.cfg.Cors.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	router.Use(app.Recoverer)
	router.Use(app.Metrics)
	router.Use(app.RateLimiter)
	router.Use(app.Authenticate)
	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/healthcheck", app.healthcheck)
		r.Method(http.MethodGet, "/metrics", app.metrics.Handler())
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", app.signup)
			r.Post("/token", app.obtainToken)
		})
		r.Route("/users", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(app.requirePermission(policy.Authenticated))
				r.Get("/me", app.getMe)
				r.Patch("/me", app.updateMe)
			})
			r.Group(func(r chi.Router) {
				r.Use(app.requirePermission(policy.AdminOnly))
				r.Get("/", app.listUsers)
				r.Post("/", app.createUser)
				r.Get("/{username}", app.getUser)
				r.Patch("/{username}", app.updateUser)
				r.Delete("/{username}", app.deleteUser)
			})
		})
		r.Route("/categories", func(r chi.Router) {
			r.Use(app.requirePermission(policy.AdminOrReadOnly))
			r.Get("/", app.listCategories)
			r.Post("/", app.createCategory)
			r.Delete("/{slug}", app.deleteCategory)
		})
		r.Route("/genres", func(r chi.Router) {
			r.Use(app.requirePermission(policy.AdminOrReadOnly))
			r.Get("/", app.listGenres)
			r.Post("/", app.createGenre)
			r.Delete("/{slug}", app.deleteGenre)
		})
		r.Route("/titles", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(app.requirePermission(policy.AdminOrReadOnly))
				r.Get("/", app.listTitles)
				r.Post("/", app.createTitle)
				r.Get("/{titleID}", app.getTitle)
				r.Patch("/{titleID}", app.updateTitle)
				r.Delete("/{titleID}", app.deleteTitle)
			})
			r.Route("/{titleID}/reviews", func(r chi.Router) {
				r.Use(app.requirePermission(policy.AuthorModeratorAdminOrReadOnly))
				r.Get("/", app.listReviews)
				r.Post("/", app.createReview)
				r.Get("/{reviewID}", app.getReview)
				r.Patch("/{reviewID}", app.updateReview)
				r.Delete("/{reviewID}", app.deleteReview)
				r.Route("/{reviewID}/comments", func(r chi.Router) {
					r.Get("/", app.listComments)
					r.Post("/", app.createComment)
					r.Get("/{commentID}", app.getComment)
					r.Patch("/{commentID}", app.updateComment)
					r.Delete("/{commentID}", app.deleteComment)
				})
			})
		})
	})
	return router
}
