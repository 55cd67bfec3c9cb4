package people

import "context"

// User represents a member profile
type User struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	Age       int      `json:"age"`
	Interests []string `json:"interests"`
	Location  string   `json:"location"`
	LikedBy   []string `json:"liked_by,omitempty"`
}

// IsLikedBy reports whether userID has liked u
func (u User) IsLikedBy(userID string) bool {
	for _, id := range u.LikedBy {
		if id == userID {
			return true
		}
	}
	return false
}

// SharedInterests returns the interests of u that other also lists
func (u User) SharedInterests(other User) []string {
	theirs := make(map[string]struct{}, len(other.Interests))
	for _, i := range other.Interests {
		theirs[i] = struct{}{}
	}

	var shared []string
	for _, i := range u.Interests {
		if _, ok := theirs[i]; ok {
			shared = append(shared, i)
		}
	}
	return shared
}

// Directory defines the backend operations on member profiles
type Directory interface {
	ListUsers(ctx context.Context) ([]User, error)
	GetUser(ctx context.Context, id string) (*User, error)
	CreateUser(ctx context.Context, u User) (*User, error)
	LikeUser(ctx context.Context, id string) (*User, error)
	UnlikeUser(ctx context.Context, id string) (*User, error)
	UserLikes(ctx context.Context, id string) (int, error)
}
