package room

// Group represents a live activity room as the backend reports it
type Group struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Activity    []string `json:"activity"`
	Location    string   `json:"location"`
	MaxMembers  int      `json:"max_members"`
	AgeGroup    string   `json:"age_group"`
	Members     []string `json:"members"`
	AdminID     string   `json:"admin_id"`
}

// IsLive reports whether the room still has a free seat
func (g Group) IsLive() bool {
	return len(g.Members) < g.MaxMembers
}

// HasMember reports whether userID is in the room
func (g Group) HasMember(userID string) bool {
	for _, id := range g.Members {
		if id == userID {
			return true
		}
	}
	return false
}

// ScoreBreakdown holds the sub-scores behind a relevance score
type ScoreBreakdown struct {
	Semantic float64 `json:"semantic"`
	Location float64 `json:"location"`
	Age      float64 `json:"age"`
}

// Recommendation is a room paired with its match quality for the current user.
// RelevanceScore is whatever the backend sends; it is not assumed to be in [0,1].
type Recommendation struct {
	Group
	RelevanceScore float64        `json:"relevance_score"`
	ScoreBreakdown ScoreBreakdown `json:"score_breakdown"`
}

// NewGroup is the payload for creating a room
type NewGroup struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Activity    []string `json:"activity"`
	Location    string   `json:"location"`
	MaxMembers  int      `json:"max_members"`
	AgeGroup    string   `json:"age_group,omitempty"`
}

// LiveGroups filters groups down to the ones with a free seat, keeping order
func LiveGroups(groups []Group) []Group {
	live := make([]Group, 0, len(groups))
	for _, g := range groups {
		if g.IsLive() {
			live = append(live, g)
		}
	}
	return live
}
