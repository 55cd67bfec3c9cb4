package room

import "context"

// Directory is the read side of the backend the globe depends on
type Directory interface {
	// ListGroups returns every room
	ListGroups(ctx context.Context) ([]Group, error)

	// RecommendedGroups returns up to limit rooms scored for the current user
	RecommendedGroups(ctx context.Context, limit int) ([]Recommendation, error)
}

// Membership covers the room actions a page can trigger after a selection
type Membership interface {
	// JoinGroup adds the current user to a room
	JoinGroup(ctx context.Context, groupID string) (*Group, error)

	// LeaveGroup removes the current user from a room
	LeaveGroup(ctx context.Context, groupID string) (*Group, error)
}
