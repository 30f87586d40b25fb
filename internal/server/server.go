// internal/server/server.go

package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/shivraj-yadav/ChugLi/internal/adapter/ratelimit"
	"github.com/shivraj-yadav/ChugLi/internal/config"
	"github.com/shivraj-yadav/ChugLi/internal/domain/chat"
	"github.com/shivraj-yadav/ChugLi/internal/domain/identity"
	"github.com/shivraj-yadav/ChugLi/internal/domain/room"
	"github.com/shivraj-yadav/ChugLi/internal/event"
	"github.com/shivraj-yadav/ChugLi/internal/server/handlers"
)

// Server represents the HTTP server
type Server struct {
	server *http.Server
	router *chi.Mux
}

// NewServer creates a new HTTP server
func NewServer(
	cfg config.Config,
	logger zerolog.Logger,
	rooms room.Service,
	accounts identity.Accounts,
	verifier identity.Verifier,
	registry chat.Registry,
	bus event.Bus,
	limiter *ratelimit.Limiter,
) *Server {
	router := chi.NewRouter()

	// Middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	// CORS configuration
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CorsOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Create handler dependencies
	authHandler := handlers.NewAuthHandler(accounts, logger)
	roomHandler := handlers.NewRoomHandler(rooms, logger)
	gateway := handlers.NewSessionGateway(
		registry,
		rooms,
		bus,
		cfg.Room.EventsSubject,
		cfg.Chat.SendBufferSize,
		logger,
	)

	// Health check
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Metrics endpoint for Prometheus scraping
	router.Handle("/metrics", promhttp.Handler())

	// Request/response API
	router.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		r.Route("/auth", func(r chi.Router) {
			r.With(limiter.Middleware("signup", 10, time.Hour)).
				Post("/signup", authHandler.Signup)
			r.With(limiter.Middleware("signin", 30, time.Minute)).
				Post("/signin", authHandler.Signin)
		})

		r.Route("/rooms", func(r chi.Router) {
			r.Get("/nearby", roomHandler.Nearby)

			r.Group(func(r chi.Router) {
				r.Use(handlers.RequireAuth(verifier))
				r.With(limiter.Middleware("create_room", 10, time.Hour)).
					Post("/create", roomHandler.CreateRoom)
				r.Delete("/{id}", roomHandler.DeleteRoom)
			})
		})
	})

	// WebSocket endpoint for realtime sessions; kept outside the /api
	// timeout middleware, connections are long-lived
	router.Get("/ws", gateway.Handle)

	// Create HTTP server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return &Server{
		server: httpServer,
		router: router,
	}
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
