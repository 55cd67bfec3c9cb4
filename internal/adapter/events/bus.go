// internal/adapter/events/bus.go

package events

import (
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"

	"roomglobe/internal/config"
	"roomglobe/internal/logging"
)

// Conn is the part of *nats.Conn the bus uses
type Conn interface {
	Publish(subj string, data []byte) error
	Subscribe(subj string, cb nats.MsgHandler) (*nats.Subscription, error)
}

var _ Conn = (*nats.Conn)(nil)

// SelectionEvent is published when a globe point is selected
type SelectionEvent struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	Point     int       `json:"point"`
	GroupID   string    `json:"group_id,omitempty"`
	GroupName string    `json:"group_name,omitempty"`
	Score     float64   `json:"score"`
	Time      time.Time `json:"time"`
}

// GroupsUpdatedEvent announces that room membership changed
type GroupsUpdatedEvent struct {
	GroupID string    `json:"group_id,omitempty"`
	Reason  string    `json:"reason"`
	Time    time.Time `json:"time"`
}

// Bus publishes globe events to NATS. With a nil connection events stay in
// process: groups-updated handlers are called directly and selections are
// only logged.
type Bus struct {
	conn           Conn
	selectionTopic string
	groupsTopic    string

	mu       sync.Mutex
	handlers map[int]func(GroupsUpdatedEvent)
	nextID   int
	sub      *nats.Subscription
}

// NewBus creates a bus over conn, which may be nil
func NewBus(conn Conn, cfg config.NATSConfig) *Bus {
	return &Bus{
		conn:           conn,
		selectionTopic: cfg.SelectionTopic,
		groupsTopic:    cfg.GroupsTopic,
		handlers:       make(map[int]func(GroupsUpdatedEvent)),
	}
}

// Start subscribes to the groups-updated subject. It is a no-op without NATS.
func (b *Bus) Start() error {
	if b.conn == nil {
		return nil
	}

	sub, err := b.conn.Subscribe(b.groupsTopic, func(msg *nats.Msg) {
		var ev GroupsUpdatedEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			logging.Warn().Err(err).Str("subject", msg.Subject).Msg("Ignoring malformed groups event")
			ev = GroupsUpdatedEvent{Reason: "unknown", Time: time.Now()}
		}
		b.dispatch(ev)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", b.groupsTopic, err)
	}

	b.mu.Lock()
	b.sub = sub
	b.mu.Unlock()
	return nil
}

// Stop removes the NATS subscription
func (b *Bus) Stop() {
	b.mu.Lock()
	sub := b.sub
	b.sub = nil
	b.mu.Unlock()

	if sub != nil {
		if err := sub.Unsubscribe(); err != nil {
			logging.Warn().Err(err).Msg("Failed to unsubscribe from groups events")
		}
	}
}

// PublishSelection announces a selection
func (b *Bus) PublishSelection(ev SelectionEvent) error {
	if b.conn == nil {
		logging.Debug().Str("session_id", ev.SessionID).Int("point", ev.Point).Str("group_id", ev.GroupID).Msg("Selection")
		return nil
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode selection: %w", err)
	}
	if err := b.conn.Publish(b.selectionTopic, data); err != nil {
		return fmt.Errorf("failed to publish selection: %w", err)
	}
	return nil
}

// PublishGroupsUpdated announces a membership change to every globe
func (b *Bus) PublishGroupsUpdated(ev GroupsUpdatedEvent) error {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}

	if b.conn == nil {
		b.dispatch(ev)
		return nil
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode groups event: %w", err)
	}
	if err := b.conn.Publish(b.groupsTopic, data); err != nil {
		return fmt.Errorf("failed to publish groups event: %w", err)
	}
	return nil
}

// OnGroupsUpdated registers fn and returns a function that removes it
func (b *Bus) OnGroupsUpdated(fn func(GroupsUpdatedEvent)) (remove func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.handlers[id] = fn

	return func() {
		b.mu.Lock()
		delete(b.handlers, id)
		b.mu.Unlock()
	}
}

func (b *Bus) dispatch(ev GroupsUpdatedEvent) {
	b.mu.Lock()
	fns := make([]func(GroupsUpdatedEvent), 0, len(b.handlers))
	for _, fn := range b.handlers {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
