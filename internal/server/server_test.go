package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomglobe/internal/config"
	"roomglobe/internal/domain/globe"
	"roomglobe/internal/domain/people"
	"roomglobe/internal/domain/room"
	globesvc "roomglobe/internal/service/globe"
	"roomglobe/internal/service/rooms"
)

type stubService struct{}

func (stubService) WaitingRoom(ctx context.Context, groupID string) (*rooms.WaitingRoom, error) {
	if groupID != "g2" {
		return nil, rooms.ErrNotFound
	}
	return &rooms.WaitingRoom{Group: room.Group{ID: "g2"}}, nil
}

func (stubService) Join(ctx context.Context, groupID string) (*room.Group, error) {
	return &room.Group{ID: groupID}, nil
}

func (stubService) Leave(ctx context.Context, groupID string) (*room.Group, error) {
	return nil, nil
}

func (stubService) Me(ctx context.Context) (*rooms.Me, error) {
	return &rooms.Me{}, nil
}

func (stubService) Profile(ctx context.Context, userID string) (*rooms.Profile, error) {
	return &rooms.Profile{User: people.User{ID: userID}}, nil
}

func (stubService) Like(ctx context.Context, userID string) (*people.User, error) {
	return nil, nil
}

func (stubService) Unlike(ctx context.Context, userID string) (*people.User, error) {
	return nil, nil
}

func (stubService) Mutuals(ctx context.Context) ([]rooms.Mutual, error) {
	return []rooms.Mutual{}, nil
}

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(ctx context.Context) error {
	return p.err
}

func testServerConfig() config.ServerConfig {
	return config.ServerConfig{
		Host:         "127.0.0.1",
		Port:         8080,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		CorsOrigins:  []string{"*"},
		RateLimit:    100,
	}
}

func newTestServer(cfg config.ServerConfig, pingErr error) *Server {
	return NewServer(cfg, Dependencies{
		Rooms:   stubService{},
		People:  stubService{},
		Layout:  globesvc.NewScene(globesvc.DefaultSceneConfig()),
		Backend: stubPinger{err: pingErr},
	})
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	rec := get(newTestServer(testServerConfig(), nil).Handler(), "/api/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "ok", body["backend"])
}

func TestHealthReportsUnreachableBackend(t *testing.T) {
	rec := get(newTestServer(testServerConfig(), errors.New("refused")).Handler(), "/api/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"backend":"unreachable"`)
}

func TestLayoutRoute(t *testing.T) {
	rec := get(newTestServer(testServerConfig(), nil).Handler(), "/api/v1/globe/layout")
	require.Equal(t, http.StatusOK, rec.Code)

	var layout globe.Layout
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &layout))
	assert.Len(t, layout.Points, 60)
	assert.Equal(t, globe.ModeSelect, layout.Mode)
}

func TestRoomRoutes(t *testing.T) {
	h := newTestServer(testServerConfig(), nil).Handler()

	assert.Equal(t, http.StatusOK, get(h, "/api/v1/rooms/g2").Code)
	assert.Equal(t, http.StatusNotFound, get(h, "/api/v1/rooms/nope").Code)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/rooms/g2/join", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, http.StatusMethodNotAllowed, get(h, "/api/v1/rooms/g2/join").Code)
}

func TestPeopleRoutes(t *testing.T) {
	h := newTestServer(testServerConfig(), nil).Handler()

	assert.Equal(t, http.StatusOK, get(h, "/api/v1/people/ana").Code)
	assert.Equal(t, http.StatusOK, get(h, "/api/v1/me").Code)
	assert.Equal(t, http.StatusOK, get(h, "/api/v1/mutuals").Code)
}

func TestRateLimit(t *testing.T) {
	cfg := testServerConfig()
	cfg.RateLimit = 2
	h := newTestServer(cfg, nil).Handler()

	assert.Equal(t, http.StatusOK, get(h, "/api/v1/globe/layout").Code)
	assert.Equal(t, http.StatusOK, get(h, "/api/v1/globe/layout").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(h, "/api/v1/globe/layout").Code)
}

func TestMetricsRoute(t *testing.T) {
	rec := get(newTestServer(testServerConfig(), nil).Handler(), "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "roomglobe_active_sessions")
}

func TestStaticFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<canvas></canvas>"), 0o644))

	cfg := testServerConfig()
	cfg.WebDir = dir
	rec := get(newTestServer(cfg, nil).Handler(), "/")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<canvas>")
}
