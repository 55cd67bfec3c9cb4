// cmd/api/main.go

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	"roomglobe/internal/adapter/backend"
	"roomglobe/internal/adapter/events"
	"roomglobe/internal/config"
	"roomglobe/internal/domain/globe"
	"roomglobe/internal/domain/people"
	"roomglobe/internal/logging"
	"roomglobe/internal/server"
	"roomglobe/internal/server/handlers"
	globeService "roomglobe/internal/service/globe"
	"roomglobe/internal/service/rooms"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Caller: cfg.Log.Caller,
	})

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Event bus: NATS when configured, in-process otherwise
	var conn events.Conn
	natsConn, err := initNATS(cfg.NATS)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to connect to NATS")
	}
	if natsConn != nil {
		defer natsConn.Close()
		conn = natsConn
	}

	bus := events.NewBus(conn, cfg.NATS)
	if err := bus.Start(); err != nil {
		logging.Fatal().Err(err).Msg("Failed to start event bus")
	}
	defer bus.Stop()

	// Backend client
	client := backend.NewCircuitBreakerClient(backend.NewClient(cfg.Backend), cfg.Backend)

	// Initialize services
	roomService := rooms.NewService(client, bus, rooms.ServiceConfig{UserID: cfg.Backend.UserID})
	go ensureDemoUser(ctx, roomService, cfg.Backend.UserID)

	scene := globeService.NewScene(globeService.SceneConfig{
		NodeCount:          cfg.Globe.NodeCount,
		Radius:             cfg.Globe.Radius,
		ConnectionDistance: cfg.Globe.ConnectionDistance,
		NodeRadius:         cfg.Globe.NodeRadius,
		HitRadius:          cfg.Globe.HitRadius,
		DragSensitivity:    cfg.Globe.DragSensitivity,
		TapTolerance:       cfg.Globe.TapTolerance,
		ScoreScale:         cfg.Globe.ScoreScale,
		RecommendedLimit:   cfg.Backend.RecommendedLimit,
		Mode:               globe.Mode(cfg.Globe.Mode),
	})
	logging.Info().
		Int("nodes", len(scene.Points())).
		Int("edges", len(scene.Edges())).
		Str("mode", cfg.Globe.Mode).
		Msg("Globe scene ready")

	sessions := handlers.NewSessionManager(scene, client, bus, handlers.SessionConfig{
		UserID:         cfg.Backend.UserID,
		FrameInterval:  cfg.Globe.FrameInterval,
		RefreshTimeout: cfg.Backend.Timeout,
		AllowedOrigins: cfg.Server.CorsOrigins,
		WebSocket:      handlers.DefaultWebSocketConfig(),
	})

	// Initialize HTTP server
	httpServer := server.NewServer(cfg.Server, server.Dependencies{
		Rooms:    roomService,
		People:   roomService,
		Layout:   scene,
		Backend:  client,
		Sessions: sessions,
	})

	// Start HTTP server
	go func() {
		logging.Info().Str("host", cfg.Server.Host).Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	// Wait for shutdown signal
	<-shutdown
	logging.Info().Msg("Shutdown signal received")
	cancel()

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	// Close globe sessions first so their sockets do not hold the server open
	sessions.Close()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("HTTP server shutdown error")
	}

	logging.Info().Msg("Shutdown complete")
}

// Initialize NATS connection. An empty URL disables NATS.
func initNATS(cfg config.NATSConfig) (*nats.Conn, error) {
	if cfg.URL == "" {
		logging.Info().Msg("NATS_URL not set, events stay in process")
		return nil, nil
	}

	options := []nats.Option{
		nats.Name("roomglobe"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.ConnectTimeout),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logging.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logging.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logging.Info().Msg("NATS connection closed")
		}),
	}

	nc, err := nats.Connect(cfg.URL, options...)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to NATS: %w", err)
	}

	return nc, nil
}

// ensureDemoUser makes sure the configured user exists on the backend
func ensureDemoUser(ctx context.Context, svc *rooms.Service, userID string) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	_, created, err := svc.EnsureUser(ctx, people.User{
		ID:        userID,
		Name:      "Demo User",
		Email:     userID + "@example.com",
		Age:       25,
		Interests: []string{"board games", "hiking", "music"},
		Location:  "Berlin",
	})
	if err != nil {
		logging.Warn().Err(err).Str("user_id", userID).Msg("Failed to initialize demo user")
		return
	}
	if created {
		logging.Info().Str("user_id", userID).Msg("Demo user created")
	}
}
