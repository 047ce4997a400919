package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/upb/studio-auth/app"
	"github.com/upb/studio-auth/handlers"
	"github.com/upb/studio-auth/utils"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(deps.Config.Server.RequestTimeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	// Every request passes through the interceptor; anonymous ones continue unauthenticated
	r.Use(deps.AuthMiddleware.Intercept)

	var store handlers.HealthChecker
	if deps.DB != nil {
		store = deps.DB
	}
	health := handlers.NewHealthHandler(store, deps.Logger)
	r.Get("/healthz", health.HandleHealth)
	r.Get("/readyz", health.HandleReadiness)

	users := handlers.NewUserHandler(deps.Accounts, deps.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", handlers.AuthLoginHandler(deps))
			r.Post("/register", handlers.AuthRegisterHandler(deps))
			r.With(deps.AuthMiddleware.RequireAuth).Get("/me", handlers.AuthMeHandler(deps))
		})

		r.Route("/user", func(r chi.Router) {
			r.Use(deps.AuthMiddleware.RequireAuth)
			r.Get("/{id}", users.HandleGet)
			r.Delete("/{id}", users.HandleDelete)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, "endpoint not found")
	})

	return r
}
