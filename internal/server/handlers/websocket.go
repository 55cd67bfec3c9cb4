// internal/server/handlers/websocket.go

package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"roomglobe/internal/adapter/events"
	"roomglobe/internal/domain/globe"
	"roomglobe/internal/domain/room"
	"roomglobe/internal/logging"
	"roomglobe/internal/metrics"
	globesvc "roomglobe/internal/service/globe"
)

// WebSocketConfig contains configuration for WebSocket connections
type WebSocketConfig struct {
	// Time allowed to write a message to the peer
	WriteWait time.Duration

	// Time allowed to read the next pong message from the peer
	PongWait time.Duration

	// Send pings to peer with this period
	PingPeriod time.Duration

	// Maximum message size allowed from peer
	MaxMessageSize int64
}

// DefaultWebSocketConfig returns the default WebSocket configuration
func DefaultWebSocketConfig() WebSocketConfig {
	return WebSocketConfig{
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		PingPeriod:     (60 * time.Second * 9) / 10,
		MaxMessageSize: 64 * 1024,
	}
}

// SessionConfig contains configuration for globe sessions
type SessionConfig struct {
	UserID         string
	FrameInterval  time.Duration
	RefreshTimeout time.Duration
	AllowedOrigins []string
	WebSocket      WebSocketConfig
}

// EventBus is the part of events.Bus the sessions use
type EventBus interface {
	PublishSelection(ev events.SelectionEvent) error
	OnGroupsUpdated(fn func(events.GroupsUpdatedEvent)) (remove func())
}

// SessionManager owns every open globe session. Each websocket connection
// gets its own Globe over the shared scene.
type SessionManager struct {
	scene     *globesvc.Scene
	directory room.Directory
	bus       EventBus
	config    SessionConfig
	upgrader  websocket.Upgrader

	mu       sync.RWMutex
	sessions map[string]*GlobeSession
	remove   func()
}

// NewSessionManager creates a session manager and subscribes it to
// groups-updated events
func NewSessionManager(scene *globesvc.Scene, directory room.Directory, bus EventBus, config SessionConfig) *SessionManager {
	if config.RefreshTimeout <= 0 {
		config.RefreshTimeout = 10 * time.Second
	}
	if config.FrameInterval <= 0 {
		config.FrameInterval = 33 * time.Millisecond
	}
	if config.WebSocket == (WebSocketConfig{}) {
		config.WebSocket = DefaultWebSocketConfig()
	}

	m := &SessionManager{
		scene:     scene,
		directory: directory,
		bus:       bus,
		config:    config,
		sessions:  make(map[string]*GlobeSession),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(config.AllowedOrigins),
		},
	}

	m.remove = bus.OnGroupsUpdated(func(ev events.GroupsUpdatedEvent) {
		logging.Debug().Str("group_id", ev.GroupID).Str("reason", ev.Reason).Msg("Groups updated, refreshing globes")
		m.RefreshAll()
	})

	return m
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

// GlobeWebSocketHandler upgrades the connection and starts a globe session
func (m *SessionManager) GlobeWebSocketHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := m.upgrader.Upgrade(w, r, nil)
		if err != nil {
			logging.Warn().Err(err).Msg("Failed to upgrade to WebSocket")
			return
		}

		s := m.open(conn)

		go s.writePump()
		go s.readPump()

		logging.Info().Str("session_id", s.id).Str("remote_addr", r.RemoteAddr).Msg("Globe session opened")
	}
}

// RefreshAll refreshes every open session in the background
func (m *SessionManager) RefreshAll() {
	for _, s := range m.snapshot() {
		go s.refresh()
	}
}

// Count returns the number of open sessions
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close stops listening for events and closes every session
func (m *SessionManager) Close() {
	if m.remove != nil {
		m.remove()
	}
	for _, s := range m.snapshot() {
		s.close()
	}
}

func (m *SessionManager) snapshot() []*GlobeSession {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sessions := make([]*GlobeSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	return sessions
}

func (m *SessionManager) open(conn *websocket.Conn) *GlobeSession {
	ctx, cancel := context.WithCancel(context.Background())

	s := &GlobeSession{
		id:      uuid.New().String(),
		conn:    conn,
		send:    make(chan []byte, 64),
		done:    make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
		manager: m,
	}
	s.globe = globesvc.New(m.scene, m.directory, globesvc.WithSelectionHandler(s.onSelect))

	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()
	metrics.ActiveSessions.Inc()

	layout := m.scene.Layout()
	s.enqueue(outboundMessage{Type: "layout", SessionID: s.id, Layout: &layout})

	go s.refresh()
	return s
}

func (m *SessionManager) unregister(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; ok {
		delete(m.sessions, id)
		metrics.ActiveSessions.Dec()
	}
}

// GlobeSession is one connected renderer
type GlobeSession struct {
	id        string
	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	ctx       context.Context
	cancel    context.CancelFunc
	globe     *globesvc.Globe
	manager   *SessionManager
	closeOnce sync.Once
}

type inboundMessage struct {
	Type   string     `json:"type"`
	X      float64    `json:"x"`
	Y      float64    `json:"y"`
	Index  *int       `json:"index"`
	Origin *globe.Vec3 `json:"origin"`
	Dir    *globe.Vec3 `json:"dir"`
}

type outboundMessage struct {
	Type      string           `json:"type"`
	SessionID string           `json:"session_id,omitempty"`
	Layout    *globe.Layout    `json:"layout,omitempty"`
	Frame     *globe.Frame     `json:"frame,omitempty"`
	Selection *globe.Selection `json:"selection,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// readPump feeds renderer input into the globe
func (s *GlobeSession) readPump() {
	config := s.manager.config.WebSocket

	defer s.close()

	s.conn.SetReadLimit(config.MaxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(config.PongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(config.PongWait))
	})

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Warn().Err(err).Str("session_id", s.id).Msg("WebSocket error")
			}
			return
		}

		s.processIncomingMessage(message)
	}
}

// writePump writes queued messages and pushes a frame whenever the globe
// version moves
func (s *GlobeSession) writePump() {
	config := s.manager.config.WebSocket
	ping := time.NewTicker(config.PingPeriod)
	frames := time.NewTicker(s.manager.config.FrameInterval)

	var (
		lastVersion uint64
		sentFrame   bool
	)

	defer func() {
		ping.Stop()
		frames.Stop()
		s.close()
	}()

	for {
		select {
		case <-s.done:
			_ = s.conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message := <-s.send:
			if err := s.write(message); err != nil {
				return
			}

		case <-frames.C:
			if sentFrame && s.globe.Version() == lastVersion {
				continue
			}

			frame := s.globe.Frame()
			data, err := json.Marshal(outboundMessage{Type: "frame", Frame: &frame})
			if err != nil {
				logging.Error().Err(err).Str("session_id", s.id).Msg("Failed to encode frame")
				continue
			}
			if err := s.write(data); err != nil {
				return
			}

			lastVersion = frame.Version
			sentFrame = true
			metrics.FramesPushed.Inc()

		case <-ping.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *GlobeSession) write(data []byte) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(s.manager.config.WebSocket.WriteWait))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// processIncomingMessage processes an incoming WebSocket message
func (s *GlobeSession) processIncomingMessage(message []byte) {
	var msg inboundMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		s.reject("invalid message")
		return
	}

	switch msg.Type {
	case "pointerdown":
		s.globe.PointerDown(msg.X, msg.Y)

	case "pointermove":
		s.globe.WindowEvent(globe.PointerEvent{Kind: globe.PointerMove, X: msg.X, Y: msg.Y})

	case "pointerup":
		s.globe.WindowEvent(globe.PointerEvent{Kind: globe.PointerUp, X: msg.X, Y: msg.Y})

	case "pointerleave":
		s.globe.WindowEvent(globe.PointerEvent{Kind: globe.PointerLeave, X: msg.X, Y: msg.Y})

	case "point_enter", "point_leave":
		i, ok := s.pointIndex(msg.Index)
		if !ok {
			return
		}
		if msg.Type == "point_enter" {
			s.globe.PointerEnter(i)
		} else {
			s.globe.PointerLeave(i)
		}

	case "click":
		if msg.Origin != nil && msg.Dir != nil {
			s.globe.ClickRay(globe.Ray{Origin: *msg.Origin, Direction: *msg.Dir})
			return
		}
		if i, ok := s.pointIndex(msg.Index); ok {
			s.globe.Click(i)
		}

	case "hover_ray":
		if msg.Origin == nil || msg.Dir == nil {
			s.reject("hover_ray needs origin and dir")
			return
		}
		s.globe.HoverRay(globe.Ray{Origin: *msg.Origin, Direction: *msg.Dir})

	case "refresh":
		go s.refresh()

	default:
		s.reject("unknown message type: " + msg.Type)
	}
}

func (s *GlobeSession) pointIndex(index *int) (int, bool) {
	if index == nil || *index < 0 || *index >= len(s.manager.scene.Points()) {
		s.reject("index out of range")
		return 0, false
	}
	return *index, true
}

func (s *GlobeSession) reject(reason string) {
	logging.Debug().Str("session_id", s.id).Str("reason", reason).Msg("Rejected globe message")
	s.enqueue(outboundMessage{Type: "error", Error: reason})
}

// onSelect runs outside the globe lock
func (s *GlobeSession) onSelect(sel globe.Selection) {
	s.enqueue(outboundMessage{Type: "selected", Selection: &sel})

	ev := events.SelectionEvent{
		SessionID: s.id,
		UserID:    s.manager.config.UserID,
		Point:     sel.Point,
		Score:     sel.Score,
		Time:      time.Now(),
	}
	if sel.Group != nil {
		ev.GroupID = sel.Group.ID
		ev.GroupName = sel.Group.Name
	}
	if err := s.manager.bus.PublishSelection(ev); err != nil {
		logging.Warn().Err(err).Str("session_id", s.id).Msg("Failed to publish selection")
	}
}

func (s *GlobeSession) refresh() {
	ctx, cancel := context.WithTimeout(s.ctx, s.manager.config.RefreshTimeout)
	defer cancel()
	s.globe.Refresh(ctx)
}

func (s *GlobeSession) enqueue(msg outboundMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		logging.Error().Err(err).Str("type", msg.Type).Msg("Failed to encode message")
		return
	}

	select {
	case s.send <- data:
	case <-s.done:
	default:
		logging.Warn().Str("session_id", s.id).Str("type", msg.Type).Msg("Send buffer full, dropping message")
	}
}

// close tears the session down: window listeners, pending fetches, the
// socket and the manager entry
func (s *GlobeSession) close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.cancel()
		s.globe.Close()
		_ = s.conn.Close()
		s.manager.unregister(s.id)

		logging.Info().Str("session_id", s.id).Msg("Globe session closed")
	})
}
