// internal/adapter/backend/client.go

package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"roomglobe/internal/config"
	"roomglobe/internal/domain/people"
	"roomglobe/internal/domain/room"
	"roomglobe/internal/metrics"
)

// ErrNotFound matches any *APIError carrying a 404
var ErrNotFound = errors.New("not found")

// APIError is a non-2xx response from the backend
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("backend returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Detail)
}

// Is lets errors.Is(err, ErrNotFound) match 404 responses
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Backend is everything the app asks of the REST backend.
// Both Client and CircuitBreakerClient implement it.
type Backend interface {
	room.Directory
	room.Membership
	people.Directory

	CreateGroup(ctx context.Context, g room.NewGroup) (*room.Group, error)
	DeleteGroup(ctx context.Context, groupID string) error
	Ping(ctx context.Context) error
}

var _ Backend = (*Client)(nil)

// Client talks to the backend over HTTP. Every request carries the
// configured user in the X-User-ID header.
type Client struct {
	baseURL    string
	userID     string
	httpClient *http.Client
}

// NewClient creates a backend client
func NewClient(cfg config.BackendConfig) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		userID:  cfg.UserID,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// UserID returns the user the client acts as
func (c *Client) UserID() string {
	return c.userID
}

// ListGroups returns every room
func (c *Client) ListGroups(ctx context.Context) ([]room.Group, error) {
	var groups []room.Group
	if err := c.do(ctx, http.MethodGet, "/api/v1/groups/", "/api/v1/groups/", nil, &groups); err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}

// RecommendedGroups returns up to limit rooms scored for the current user
func (c *Client) RecommendedGroups(ctx context.Context, limit int) ([]room.Recommendation, error) {
	path := "/api/v1/groups/recommended?" + url.Values{"limit": {strconv.Itoa(limit)}}.Encode()

	var recs []room.Recommendation
	if err := c.do(ctx, http.MethodGet, "/api/v1/groups/recommended", path, nil, &recs); err != nil {
		return nil, fmt.Errorf("recommended groups: %w", err)
	}
	return recs, nil
}

// CreateGroup creates a room administered by the current user
func (c *Client) CreateGroup(ctx context.Context, g room.NewGroup) (*room.Group, error) {
	var created room.Group
	if err := c.do(ctx, http.MethodPost, "/api/v1/groups/", "/api/v1/groups/", g, &created); err != nil {
		return nil, fmt.Errorf("create group: %w", err)
	}
	return &created, nil
}

// DeleteGroup removes a room
func (c *Client) DeleteGroup(ctx context.Context, groupID string) error {
	if err := c.do(ctx, http.MethodDelete, "/api/v1/groups/{id}", groupPath(groupID, ""), nil, nil); err != nil {
		return fmt.Errorf("delete group %s: %w", groupID, err)
	}
	return nil
}

// JoinGroup adds the current user to a room. The returned group is nil
// when the backend answers without a body.
func (c *Client) JoinGroup(ctx context.Context, groupID string) (*room.Group, error) {
	return c.membership(ctx, groupID, "join")
}

// LeaveGroup removes the current user from a room
func (c *Client) LeaveGroup(ctx context.Context, groupID string) (*room.Group, error) {
	return c.membership(ctx, groupID, "leave")
}

func (c *Client) membership(ctx context.Context, groupID, action string) (*room.Group, error) {
	var g *room.Group
	if err := c.do(ctx, http.MethodPost, "/api/v1/groups/{id}/"+action, groupPath(groupID, action), nil, &g); err != nil {
		return nil, fmt.Errorf("%s group %s: %w", action, groupID, err)
	}
	return g, nil
}

// ListUsers returns every member
func (c *Client) ListUsers(ctx context.Context) ([]people.User, error) {
	var users []people.User
	if err := c.do(ctx, http.MethodGet, "/api/v1/users/", "/api/v1/users/", nil, &users); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// GetUser returns one member
func (c *Client) GetUser(ctx context.Context, id string) (*people.User, error) {
	var u people.User
	if err := c.do(ctx, http.MethodGet, "/api/v1/users/{id}", userPath(id, ""), nil, &u); err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	return &u, nil
}

// CreateUser registers a member
func (c *Client) CreateUser(ctx context.Context, u people.User) (*people.User, error) {
	var created people.User
	if err := c.do(ctx, http.MethodPost, "/api/v1/users/", "/api/v1/users/", u, &created); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &created, nil
}

// LikeUser records that the current user likes id
func (c *Client) LikeUser(ctx context.Context, id string) (*people.User, error) {
	return c.like(ctx, id, "like")
}

// UnlikeUser withdraws a like
func (c *Client) UnlikeUser(ctx context.Context, id string) (*people.User, error) {
	return c.like(ctx, id, "unlike")
}

func (c *Client) like(ctx context.Context, id, action string) (*people.User, error) {
	var u *people.User
	if err := c.do(ctx, http.MethodPost, "/api/v1/users/{id}/"+action, userPath(id, action), nil, &u); err != nil {
		return nil, fmt.Errorf("%s user %s: %w", action, id, err)
	}
	return u, nil
}

// UserLikes returns how many members like id. The backend answers with a bare
// JSON number.
func (c *Client) UserLikes(ctx context.Context, id string) (int, error) {
	var count int
	if err := c.do(ctx, http.MethodGet, "/api/v1/users/{id}/likes", userPath(id, "likes"), nil, &count); err != nil {
		return 0, fmt.Errorf("user likes %s: %w", id, err)
	}
	return count, nil
}

// Ping checks that the backend answers at all
func (c *Client) Ping(ctx context.Context) error {
	if err := c.do(ctx, http.MethodGet, "/", "/", nil, nil); err != nil {
		return fmt.Errorf("ping backend: %w", err)
	}
	return nil
}

// do performs one request. endpoint is the route template used as the metric
// label; path is the concrete request path. A 2xx with an empty body leaves
// out untouched.
func (c *Client) do(ctx context.Context, method, endpoint, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-User-ID", c.userID)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.BackendRequestDuration.WithLabelValues(method, endpoint, "error").Observe(time.Since(start).Seconds())
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	metrics.BackendRequestDuration.WithLabelValues(method, endpoint, strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Detail: detail(data)}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// detail extracts the FastAPI {"detail": ...} message, falling back to the raw body
func detail(data []byte) string {
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(data, &body); err != nil || len(body.Detail) == 0 {
		return strings.TrimSpace(string(data))
	}

	var msg string
	if err := json.Unmarshal(body.Detail, &msg); err == nil {
		return msg
	}
	return string(body.Detail)
}

func groupPath(id, action string) string {
	return resourcePath("/api/v1/groups/", id, action)
}

func userPath(id, action string) string {
	return resourcePath("/api/v1/users/", id, action)
}

func resourcePath(prefix, id, action string) string {
	p := prefix + url.PathEscape(id)
	if action != "" {
		p += "/" + action
	}
	return p
}
