package api

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/saumyabaranwal/campus-connect/internal/api/middleware"
	"github.com/saumyabaranwal/campus-connect/internal/chat"
	"github.com/saumyabaranwal/campus-connect/internal/config"
	"github.com/saumyabaranwal/campus-connect/internal/handlers"
	"github.com/saumyabaranwal/campus-connect/internal/store"
)

// NewRouter creates and configures the HTTP router.
func NewRouter(logger zerolog.Logger, ds store.DataStore, redisStore *store.RedisStore, hub *chat.Hub, cfg *config.Config) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	// Security middleware (order matters!)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.MaxBodySize(64 * 1024))
	r.Use(middleware.RequireJSON)

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	// Rate limiting, only when Redis is configured
	if redisStore != nil {
		limiter := middleware.NewRateLimiter(redisStore.Client(), logger, cfg.RateLimitWhitelist)
		r.Use(limiter.Middleware)
	}

	// CORS - the frontend may be served from anywhere
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	h := handlers.NewHandler(ds, redisStore, cfg, logger)

	// Metrics endpoint (for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/", h.Root)
	r.Get("/health", h.Health)

	// Realtime channel
	r.Get("/ws", hub.ServeWS)

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/signup", h.Signup)

		r.Get("/listings", h.ListListings)
		r.Post("/listings", h.CreateListing)
		r.Get("/listings/{id}", h.GetListing)

		r.Get("/users/{id}", h.GetUser)
		r.Get("/users/{id}/listings", h.GetUserListings)

		r.Get("/messages/{userId}/{otherUserId}", h.GetConversation)
		r.Get("/conversations/{userId}", h.GetConversations)
	})

	return r
}
