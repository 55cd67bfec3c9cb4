// internal/service/rooms/service.go

package rooms

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"roomglobe/internal/adapter/backend"
	"roomglobe/internal/adapter/events"
	"roomglobe/internal/domain/people"
	"roomglobe/internal/domain/room"
	"roomglobe/internal/logging"
)

var (
	// ErrNotFound is returned when a room is missing from the room list
	ErrNotFound = errors.New("not found")

	// ErrSelfLike is returned when the current user tries to like themselves
	ErrSelfLike = errors.New("cannot like yourself")
)

// Notifier announces membership changes so live globes refresh
type Notifier interface {
	PublishGroupsUpdated(ev events.GroupsUpdatedEvent) error
}

// Backend is what the service needs from the REST backend
type Backend interface {
	room.Directory
	room.Membership
	people.Directory
}

// ServiceConfig contains configuration for the rooms service
type ServiceConfig struct {
	// UserID is the member the app acts as
	UserID string
}

// WaitingRoom is a room with its members resolved to profiles
type WaitingRoom struct {
	Group     room.Group    `json:"group"`
	Members   []people.User `json:"members"`
	Occupancy int           `json:"occupancy"`
	Capacity  int           `json:"capacity"`
	Joined    bool          `json:"joined"`
}

// Profile is a member with their like count
type Profile struct {
	User      people.User `json:"user"`
	Likes     int         `json:"likes"`
	LikedByMe bool        `json:"liked_by_me"`
	IsMe      bool        `json:"is_me"`
}

// Mutual is a member who likes the current user back
type Mutual struct {
	User            people.User `json:"user"`
	SharedInterests []string    `json:"shared_interests"`
}

// Me is the current user's own view: profile plus joined rooms
type Me struct {
	Profile
	Groups []room.Group `json:"groups"`
}

// Service implements the room and people pages on top of the backend
type Service struct {
	backend  Backend
	notifier Notifier
	config   ServiceConfig
}

// NewService creates a rooms service
func NewService(b Backend, notifier Notifier, config ServiceConfig) *Service {
	return &Service{
		backend:  b,
		notifier: notifier,
		config:   config,
	}
}

// UserID returns the member the service acts as
func (s *Service) UserID() string {
	return s.config.UserID
}

// WaitingRoom looks the room up in the room list and resolves its members
func (s *Service) WaitingRoom(ctx context.Context, groupID string) (*WaitingRoom, error) {
	var (
		groups []room.Group
		users  []people.User
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		groups, err = s.backend.ListGroups(egCtx)
		return err
	})
	eg.Go(func() error {
		var err error
		users, err = s.backend.ListUsers(egCtx)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load waiting room %s: %w", groupID, err)
	}

	var found *room.Group
	for i := range groups {
		if groups[i].ID == groupID {
			found = &groups[i]
			break
		}
	}
	if found == nil {
		return nil, fmt.Errorf("room %s: %w", groupID, ErrNotFound)
	}

	members := make([]people.User, 0, len(found.Members))
	for _, u := range users {
		if found.HasMember(u.ID) {
			members = append(members, u)
		}
	}

	return &WaitingRoom{
		Group:     *found,
		Members:   members,
		Occupancy: len(found.Members),
		Capacity:  found.MaxMembers,
		Joined:    found.HasMember(s.config.UserID),
	}, nil
}

// Join adds the current user to a room and tells every globe to refresh
func (s *Service) Join(ctx context.Context, groupID string) (*room.Group, error) {
	g, err := s.backend.JoinGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	s.announce(groupID, "join")
	return g, nil
}

// Leave removes the current user from a room
func (s *Service) Leave(ctx context.Context, groupID string) (*room.Group, error) {
	g, err := s.backend.LeaveGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	s.announce(groupID, "leave")
	return g, nil
}

func (s *Service) announce(groupID, reason string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.PublishGroupsUpdated(events.GroupsUpdatedEvent{GroupID: groupID, Reason: reason}); err != nil {
		logging.Warn().Err(err).Str("group_id", groupID).Msg("Failed to announce membership change")
	}
}

// Profile returns a member with their like count
func (s *Service) Profile(ctx context.Context, userID string) (*Profile, error) {
	u, err := s.backend.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	likes, err := s.backend.UserLikes(ctx, userID)
	if err != nil {
		logging.Warn().Err(err).Str("user_id", userID).Msg("Failed to fetch like count, using liked_by")
		likes = len(u.LikedBy)
	}

	return &Profile{
		User:      *u,
		Likes:     likes,
		LikedByMe: u.IsLikedBy(s.config.UserID),
		IsMe:      u.ID == s.config.UserID,
	}, nil
}

// Me returns the current user's profile and the rooms they belong to
func (s *Service) Me(ctx context.Context) (*Me, error) {
	p, err := s.Profile(ctx, s.config.UserID)
	if err != nil {
		return nil, err
	}

	groups, err := s.backend.ListGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}

	mine := make([]room.Group, 0)
	for _, g := range groups {
		if g.HasMember(s.config.UserID) {
			mine = append(mine, g)
		}
	}

	return &Me{Profile: *p, Groups: mine}, nil
}

// Like records that the current user likes userID
func (s *Service) Like(ctx context.Context, userID string) (*people.User, error) {
	if userID == s.config.UserID {
		return nil, ErrSelfLike
	}
	return s.backend.LikeUser(ctx, userID)
}

// Unlike withdraws a like
func (s *Service) Unlike(ctx context.Context, userID string) (*people.User, error) {
	if userID == s.config.UserID {
		return nil, ErrSelfLike
	}
	return s.backend.UnlikeUser(ctx, userID)
}

// Mutuals returns members the current user likes who like them back,
// ordered by number of shared interests
func (s *Service) Mutuals(ctx context.Context) ([]Mutual, error) {
	me, err := s.backend.GetUser(ctx, s.config.UserID)
	if err != nil {
		return nil, err
	}

	users, err := s.backend.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	mutuals := make([]Mutual, 0)
	for _, u := range users {
		if u.ID == me.ID || !u.IsLikedBy(me.ID) || !me.IsLikedBy(u.ID) {
			continue
		}
		mutuals = append(mutuals, Mutual{User: u, SharedInterests: u.SharedInterests(*me)})
	}

	sort.SliceStable(mutuals, func(i, j int) bool {
		return len(mutuals[i].SharedInterests) > len(mutuals[j].SharedInterests)
	})
	return mutuals, nil
}

// EnsureUser fetches the user and creates it when the backend reports 404
func (s *Service) EnsureUser(ctx context.Context, u people.User) (*people.User, bool, error) {
	existing, err := s.backend.GetUser(ctx, u.ID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, backend.ErrNotFound) {
		return nil, false, fmt.Errorf("failed to check user %s: %w", u.ID, err)
	}

	created, err := s.backend.CreateUser(ctx, u)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create user %s: %w", u.ID, err)
	}
	return created, true, nil
}
