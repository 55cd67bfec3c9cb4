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
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"roomglobe/internal/config"
	"roomglobe/internal/logging"
	"roomglobe/internal/server/handlers"
)

// Dependencies are the services the HTTP server exposes
type Dependencies struct {
	Rooms    handlers.RoomService
	People   handlers.PeopleService
	Layout   handlers.LayoutSource
	Backend  handlers.Pinger
	Sessions *handlers.SessionManager
}

// Server represents the HTTP server
type Server struct {
	server *http.Server
	router *chi.Mux
}

// NewServer creates a new HTTP server
func NewServer(cfg config.ServerConfig, deps Dependencies) *Server {
	router := chi.NewRouter()

	// Middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(logging.RequestLogger)
	router.Use(middleware.Recoverer)

	// CORS configuration
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CorsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Create handler dependencies
	roomHandler := handlers.NewRoomHandler(deps.Rooms)
	peopleHandler := handlers.NewPeopleHandler(deps.People)

	var sessionCount func() int
	if deps.Sessions != nil {
		sessionCount = deps.Sessions.Count
	}
	globeHandler := handlers.NewGlobeHandler(deps.Layout, deps.Backend, sessionCount)

	// Routes
	router.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		// Health check
		r.Get("/health", globeHandler.Health)

		// API version
		r.Route("/v1", func(r chi.Router) {
			r.Use(httprate.LimitByIP(cfg.RateLimit, time.Minute))

			r.Get("/globe/layout", globeHandler.GetLayout)

			// Waiting rooms
			r.Route("/rooms/{id}", func(r chi.Router) {
				r.Get("/", roomHandler.GetWaitingRoom)
				r.Post("/join", roomHandler.JoinRoom)
				r.Post("/leave", roomHandler.LeaveRoom)
			})

			// People
			r.Get("/me", peopleHandler.GetMe)
			r.Get("/mutuals", peopleHandler.GetMutuals)
			r.Route("/people/{id}", func(r chi.Router) {
				r.Get("/", peopleHandler.GetProfile)
				r.Post("/like", peopleHandler.Like)
				r.Post("/unlike", peopleHandler.Unlike)
			})
		})
	})

	router.Handle("/metrics", promhttp.Handler())

	// WebSocket endpoint for globe sessions
	if deps.Sessions != nil {
		router.Get("/ws/globe", deps.Sessions.GlobeWebSocketHandler())
	}

	// Static renderer
	if cfg.WebDir != "" {
		router.Handle("/*", http.FileServer(http.Dir(cfg.WebDir)))
	}

	// Create HTTP server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &Server{
		server: httpServer,
		router: router,
	}
}

// Handler returns the router
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
