// internal/adapter/backend/circuit_breaker.go

package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"roomglobe/internal/config"
	"roomglobe/internal/domain/people"
	"roomglobe/internal/domain/room"
	"roomglobe/internal/logging"
	"roomglobe/internal/metrics"
)

const breakerName = "backend-api"

var _ Backend = (*CircuitBreakerClient)(nil)

// CircuitBreakerClient wraps a Backend with a circuit breaker. While the
// circuit is open calls fail immediately with gobreaker.ErrOpenState.
type CircuitBreakerClient struct {
	next Backend
	cb   *gobreaker.CircuitBreaker[interface{}]
	name string
}

// NewCircuitBreakerClient wraps next. The circuit opens after
// cfg.BreakerMaxFailure consecutive failures and probes again after
// cfg.BreakerTimeout. 4xx responses count as successes.
func NewCircuitBreakerClient(next Backend, cfg config.BackendConfig) *CircuitBreakerClient {
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	maxFailures := cfg.BreakerMaxFailure
	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			trip := counts.ConsecutiveFailures >= maxFailures
			if trip {
				logging.Warn().Uint32("consecutive_failures", counts.ConsecutiveFailures).Msg("Opening backend circuit")
			}
			return trip
		},
		IsSuccessful: isSuccessful,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})

	return &CircuitBreakerClient{next: next, cb: cb, name: breakerName}
}

// State returns the current breaker state
func (b *CircuitBreakerClient) State() gobreaker.State {
	return b.cb.State()
}

func (b *CircuitBreakerClient) execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := b.cb.Execute(fn)
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
	case err != nil && !isSuccessful(err):
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	}
	return result, err
}

// call runs fn through the breaker and restores its static result type
func call[T any](b *CircuitBreakerClient, fn func() (T, error)) (T, error) {
	var zero T
	result, err := b.execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

// isSuccessful treats client errors as a healthy backend
func isSuccessful(err error) bool {
	if err == nil {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode < 500
	}
	return errors.Is(err, context.Canceled)
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// ListGroups returns every room
func (b *CircuitBreakerClient) ListGroups(ctx context.Context) ([]room.Group, error) {
	return call(b, func() ([]room.Group, error) { return b.next.ListGroups(ctx) })
}

// RecommendedGroups returns up to limit scored rooms
func (b *CircuitBreakerClient) RecommendedGroups(ctx context.Context, limit int) ([]room.Recommendation, error) {
	return call(b, func() ([]room.Recommendation, error) { return b.next.RecommendedGroups(ctx, limit) })
}

// CreateGroup creates a room
func (b *CircuitBreakerClient) CreateGroup(ctx context.Context, g room.NewGroup) (*room.Group, error) {
	return call(b, func() (*room.Group, error) { return b.next.CreateGroup(ctx, g) })
}

// DeleteGroup removes a room
func (b *CircuitBreakerClient) DeleteGroup(ctx context.Context, groupID string) error {
	_, err := b.execute(func() (interface{}, error) { return nil, b.next.DeleteGroup(ctx, groupID) })
	return err
}

// JoinGroup adds the current user to a room
func (b *CircuitBreakerClient) JoinGroup(ctx context.Context, groupID string) (*room.Group, error) {
	return call(b, func() (*room.Group, error) { return b.next.JoinGroup(ctx, groupID) })
}

// LeaveGroup removes the current user from a room
func (b *CircuitBreakerClient) LeaveGroup(ctx context.Context, groupID string) (*room.Group, error) {
	return call(b, func() (*room.Group, error) { return b.next.LeaveGroup(ctx, groupID) })
}

// ListUsers returns every member
func (b *CircuitBreakerClient) ListUsers(ctx context.Context) ([]people.User, error) {
	return call(b, func() ([]people.User, error) { return b.next.ListUsers(ctx) })
}

// GetUser returns one member
func (b *CircuitBreakerClient) GetUser(ctx context.Context, id string) (*people.User, error) {
	return call(b, func() (*people.User, error) { return b.next.GetUser(ctx, id) })
}

// CreateUser registers a member
func (b *CircuitBreakerClient) CreateUser(ctx context.Context, u people.User) (*people.User, error) {
	return call(b, func() (*people.User, error) { return b.next.CreateUser(ctx, u) })
}

// LikeUser records a like
func (b *CircuitBreakerClient) LikeUser(ctx context.Context, id string) (*people.User, error) {
	return call(b, func() (*people.User, error) { return b.next.LikeUser(ctx, id) })
}

// UnlikeUser withdraws a like
func (b *CircuitBreakerClient) UnlikeUser(ctx context.Context, id string) (*people.User, error) {
	return call(b, func() (*people.User, error) { return b.next.UnlikeUser(ctx, id) })
}

// UserLikes returns how many members like id
func (b *CircuitBreakerClient) UserLikes(ctx context.Context, id string) (int, error) {
	return call(b, func() (int, error) { return b.next.UserLikes(ctx, id) })
}

// Ping checks the backend through the breaker
func (b *CircuitBreakerClient) Ping(ctx context.Context) error {
	_, err := b.execute(func() (interface{}, error) { return nil, b.next.Ping(ctx) })
	return err
}
