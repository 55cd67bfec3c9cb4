package backend

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomglobe/internal/config"
	"roomglobe/internal/domain/people"
	"roomglobe/internal/domain/room"
)

func testConfig(url string) config.BackendConfig {
	return config.BackendConfig{
		BaseURL:           url + "/",
		UserID:            "demo-user",
		Timeout:           2 * time.Second,
		RecommendedLimit:  12,
		BreakerMaxFailure: 2,
		BreakerTimeout:    time.Minute,
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(testConfig(srv.URL))
}

func writeJSON(t *testing.T, w http.ResponseWriter, code int, v interface{}) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestNewClientTrimsTrailingSlash(t *testing.T) {
	c := NewClient(config.BackendConfig{BaseURL: "http://127.0.0.1:8000/", UserID: "u1", Timeout: time.Second})
	assert.Equal(t, "http://127.0.0.1:8000", c.baseURL)
	assert.Equal(t, "u1", c.UserID())
}

func TestListGroups(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/groups/", r.URL.Path)
		assert.Equal(t, "demo-user", r.Header.Get("X-User-ID"))
		writeJSON(t, w, http.StatusOK, []room.Group{
			{ID: "g1", Name: "Bouldering", MaxMembers: 2, Members: []string{"a", "b"}},
			{ID: "g2", Name: "Board games", MaxMembers: 4, Members: []string{"a"}},
		})
	})

	groups, err := c.ListGroups(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.False(t, groups[0].IsLive())
	assert.True(t, groups[1].IsLive())
}

func TestRecommendedGroupsSendsLimit(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/groups/recommended", r.URL.Path)
		assert.Equal(t, "12", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`[{"id":"g2","name":"Board games","max_members":4,"members":["a"],
			"relevance_score":4,"score_breakdown":{"semantic":2,"location":1,"age":1}}]`))
	})

	recs, err := c.RecommendedGroups(context.Background(), 12)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "g2", recs[0].ID)
	assert.Equal(t, 4.0, recs[0].RelevanceScore)
	assert.Equal(t, 2.0, recs[0].ScoreBreakdown.Semantic)
}

func TestCreateUserSendsBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var u people.User
		require.NoError(t, json.NewDecoder(r.Body).Decode(&u))
		assert.Equal(t, "demo-user", u.ID)
		writeJSON(t, w, http.StatusCreated, u)
	})

	u, err := c.CreateUser(context.Background(), people.User{ID: "demo-user", Name: "Demo"})
	require.NoError(t, err)
	assert.Equal(t, "Demo", u.Name)
}

func TestJoinGroupWithoutBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/groups/g%2F1/join", r.URL.EscapedPath())
		w.WriteHeader(http.StatusOK)
	})

	g, err := c.JoinGroup(context.Background(), "g/1")
	require.NoError(t, err)
	assert.Nil(t, g)
}

func TestLeaveGroupDecodesGroup(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/groups/g2/leave", r.URL.Path)
		writeJSON(t, w, http.StatusOK, room.Group{ID: "g2", MaxMembers: 4})
	})

	g, err := c.LeaveGroup(context.Background(), "g2")
	require.NoError(t, err)
	require.NotNil(t, g)
	assert.Equal(t, "g2", g.ID)
}

func TestUserLikesCountsLikers(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/users/u1/likes", r.URL.Path)
		writeJSON(t, w, http.StatusOK, 3)
	})

	n, err := c.UserLikes(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestUserLikesDecodesBareNumber(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("0\n"))
	})

	n, err := c.UserLikes(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestUserLikesRejectsIDList(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, []string{"a", "b"})
	})

	_, err := c.UserLikes(context.Background(), "u1")
	require.Error(t, err)

	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantDetail string
		notFound   bool
	}{
		{name: "fastapi detail", status: http.StatusNotFound, body: `{"detail":"User not found"}`, wantDetail: "User not found", notFound: true},
		{name: "validation detail", status: http.StatusUnprocessableEntity, body: `{"detail":[{"msg":"field required"}]}`, wantDetail: `[{"msg":"field required"}]`},
		{name: "plain text", status: http.StatusInternalServerError, body: "boom\n", wantDetail: "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := c.GetUser(context.Background(), "missing")
			require.Error(t, err)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.wantDetail, apiErr.Detail)
			assert.Equal(t, tt.notFound, errors.Is(err, ErrNotFound))
		})
	}
}

func TestDecodeError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	})

	_, err := c.ListUsers(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode response")
}

func TestPingUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := NewClient(testConfig(url)).Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request failed")
}
