package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomglobe/internal/adapter/events"
	"roomglobe/internal/config"
	"roomglobe/internal/domain/globe"
	"roomglobe/internal/domain/room"
	globesvc "roomglobe/internal/service/globe"
)

type staticDirectory struct {
	mu     sync.Mutex
	groups []room.Group
	recs   []room.Recommendation
}

func (d *staticDirectory) ListGroups(ctx context.Context) ([]room.Group, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.groups, nil
}

func (d *staticDirectory) RecommendedGroups(ctx context.Context, limit int) ([]room.Recommendation, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.recs, nil
}

func (d *staticDirectory) setGroups(groups []room.Group) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.groups = groups
}

type recordingBus struct {
	*events.Bus
	mu         sync.Mutex
	selections []events.SelectionEvent
}

func (b *recordingBus) PublishSelection(ev events.SelectionEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.selections = append(b.selections, ev)
	return nil
}

func (b *recordingBus) published() []events.SelectionEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]events.SelectionEvent(nil), b.selections...)
}

type wsMessage struct {
	Type      string           `json:"type"`
	SessionID string           `json:"session_id"`
	Layout    *globe.Layout    `json:"layout"`
	Frame     *globe.Frame     `json:"frame"`
	Selection *globe.Selection `json:"selection"`
	Error     string           `json:"error"`
}

func newTestSessions(t *testing.T, dir room.Directory) (*SessionManager, *recordingBus, string) {
	t.Helper()

	bus := &recordingBus{Bus: events.NewBus(nil, config.NATSConfig{SelectionTopic: "globe.selection", GroupsTopic: "globe.groups.updated"})}
	m := NewSessionManager(globesvc.NewScene(globesvc.DefaultSceneConfig()), dir, bus, SessionConfig{
		UserID:         "demo-user",
		FrameInterval:  10 * time.Millisecond,
		RefreshTimeout: time.Second,
		AllowedOrigins: []string{"*"},
		WebSocket:      DefaultWebSocketConfig(),
	})
	t.Cleanup(m.Close)

	srv := httptest.NewServer(m.GlobeWebSocketHandler())
	t.Cleanup(srv.Close)

	return m, bus, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msg map[string]interface{}) {
	t.Helper()
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

// readUntil reads messages until match returns true or the deadline passes
func readUntil(t *testing.T, conn *websocket.Conn, match func(wsMessage) bool) wsMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)

		var msg wsMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		if match(msg) {
			return msg
		}
	}
}

func frameWithRooms(msg wsMessage) bool {
	return msg.Type == "frame" && len(msg.Frame.Nodes) > 0 && msg.Frame.Nodes[0].GroupID != ""
}

func TestSessionSendsLayoutThenFrames(t *testing.T) {
	m, _, url := newTestSessions(t, &staticDirectory{})
	conn := dial(t, url)

	first := readUntil(t, conn, func(wsMessage) bool { return true })
	require.Equal(t, "layout", first.Type)
	assert.NotEmpty(t, first.SessionID)
	assert.Len(t, first.Layout.Points, 60)
	assert.Len(t, first.Layout.Edges, 154)

	frame := readUntil(t, conn, func(msg wsMessage) bool { return msg.Type == "frame" })
	assert.Len(t, frame.Frame.Nodes, 60)
	assert.Equal(t, 1, m.Count())
}

func TestSessionTapSelectsRoom(t *testing.T) {
	dir := &staticDirectory{
		groups: []room.Group{
			{ID: "g1", Name: "Bouldering", Members: []string{"a", "b"}, MaxMembers: 2},
			{ID: "g2", Name: "Board games", Members: []string{"a"}, MaxMembers: 4},
		},
		recs: []room.Recommendation{{Group: room.Group{ID: "g2"}, RelevanceScore: 0.75}},
	}
	_, bus, url := newTestSessions(t, dir)
	conn := dial(t, url)

	readUntil(t, conn, frameWithRooms)

	send(t, conn, map[string]interface{}{"type": "pointerdown", "x": 100, "y": 100})
	send(t, conn, map[string]interface{}{"type": "click", "index": 4})
	send(t, conn, map[string]interface{}{"type": "pointerup", "x": 100, "y": 100})

	sel := readUntil(t, conn, func(msg wsMessage) bool { return msg.Type == "selected" })
	require.NotNil(t, sel.Selection.Group)
	assert.Equal(t, "g2", sel.Selection.Group.ID)
	assert.Equal(t, 4, sel.Selection.Point)

	require.Eventually(t, func() bool { return len(bus.published()) == 1 }, time.Second, 10*time.Millisecond)
	ev := bus.published()[0]
	assert.Equal(t, "g2", ev.GroupID)
	assert.Equal(t, "demo-user", ev.UserID)

	frame := readUntil(t, conn, func(msg wsMessage) bool { return msg.Type == "frame" && !msg.Frame.Dragging })
	assert.False(t, frame.Frame.Dragging)
}

func TestSessionRejectsBadInput(t *testing.T) {
	_, _, url := newTestSessions(t, &staticDirectory{})
	conn := dial(t, url)

	send(t, conn, map[string]interface{}{"type": "point_enter", "index": 600})
	msg := readUntil(t, conn, func(msg wsMessage) bool { return msg.Type == "error" })
	assert.Equal(t, "index out of range", msg.Error)

	send(t, conn, map[string]interface{}{"type": "spin"})
	msg = readUntil(t, conn, func(msg wsMessage) bool { return msg.Type == "error" })
	assert.Contains(t, msg.Error, "unknown message type")
}

func TestSessionHoverShowsTooltip(t *testing.T) {
	dir := &staticDirectory{groups: []room.Group{{ID: "g2", Name: "Board games", Members: []string{"a"}, MaxMembers: 4}}}
	_, _, url := newTestSessions(t, dir)
	conn := dial(t, url)

	readUntil(t, conn, frameWithRooms)
	send(t, conn, map[string]interface{}{"type": "point_enter", "index": 9})

	msg := readUntil(t, conn, func(msg wsMessage) bool { return msg.Type == "frame" && msg.Frame.Tooltip != nil })
	assert.Equal(t, 9, msg.Frame.Tooltip.Index)
	assert.Equal(t, "Board games (1/4)", msg.Frame.Tooltip.Text)
}

func TestGroupsUpdatedRefreshesSessions(t *testing.T) {
	dir := &staticDirectory{}
	_, bus, url := newTestSessions(t, dir)
	conn := dial(t, url)

	readUntil(t, conn, func(msg wsMessage) bool { return msg.Type == "frame" })

	dir.setGroups([]room.Group{{ID: "g9", Name: "Jazz", MaxMembers: 3}})
	require.NoError(t, bus.PublishGroupsUpdated(events.GroupsUpdatedEvent{GroupID: "g9", Reason: "join"}))

	msg := readUntil(t, conn, frameWithRooms)
	assert.Equal(t, "g9", msg.Frame.Nodes[0].GroupID)
}

func TestSessionClosedOnDisconnect(t *testing.T) {
	m, _, url := newTestSessions(t, &staticDirectory{})
	conn := dial(t, url)
	readUntil(t, conn, func(msg wsMessage) bool { return msg.Type == "layout" })

	require.Equal(t, 1, m.Count())
	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool { return m.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestSessionManagerDefaultsZeroIntervals(t *testing.T) {
	bus := events.NewBus(nil, config.NATSConfig{SelectionTopic: "globe.selection", GroupsTopic: "globe.groups.updated"})
	m := NewSessionManager(globesvc.NewScene(globesvc.DefaultSceneConfig()), &staticDirectory{}, bus, SessionConfig{
		UserID:         "demo-user",
		AllowedOrigins: []string{"*"},
	})
	t.Cleanup(m.Close)

	assert.Equal(t, 33*time.Millisecond, m.config.FrameInterval)
	assert.Equal(t, 10*time.Second, m.config.RefreshTimeout)
	assert.Equal(t, DefaultWebSocketConfig(), m.config.WebSocket)

	srv := httptest.NewServer(m.GlobeWebSocketHandler())
	t.Cleanup(srv.Close)
	conn := dial(t, "ws"+strings.TrimPrefix(srv.URL, "http"))

	readUntil(t, conn, func(msg wsMessage) bool { return msg.Type == "layout" })
	frame := readUntil(t, conn, func(msg wsMessage) bool { return msg.Type == "frame" })
	assert.Len(t, frame.Frame.Nodes, 60)
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"http://localhost:5173"})

	r := httptest.NewRequest(http.MethodGet, "/ws/globe", nil)
	assert.True(t, check(r))

	r.Header.Set("Origin", "http://localhost:5173")
	assert.True(t, check(r))

	r.Header.Set("Origin", "http://evil.example")
	assert.False(t, check(r))
}
