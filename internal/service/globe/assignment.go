// internal/service/globe/assignment.go

package globe

import (
	"math/rand/v2"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/goccy/go-json"

	"roomglobe/internal/domain/room"
)

// Shuffler permutes n elements through swap, in the manner of rand.Shuffle
type Shuffler func(n int, swap func(i, j int))

// Assignment maps node indices to live rooms. The zero value maps every node
// to no room.
type Assignment struct {
	live        []room.Group
	scores      map[string]float64
	recommended []string
}

// At returns the room assigned to node i and its raw relevance score.
// With no live rooms every node yields (nil, 0).
func (a *Assignment) At(i int) (*room.Group, float64) {
	if a == nil || len(a.live) == 0 || i < 0 {
		return nil, 0
	}

	g := a.live[i%len(a.live)]
	return &g, a.scores[g.ID]
}

// LiveCount returns the number of distinct live rooms spread over the nodes
func (a *Assignment) LiveCount() int {
	if a == nil {
		return 0
	}
	return len(a.live)
}

// IsRecommended reports whether the room was among the recommendations
func (a *Assignment) IsRecommended(groupID string) bool {
	if a == nil {
		return false
	}
	_, ok := a.scores[groupID]
	return ok
}

// Recommended returns recommended room IDs ordered by descending score
func (a *Assignment) Recommended() []string {
	if a == nil {
		return nil
	}
	return append([]string(nil), a.recommended...)
}

// Assigner builds assignments and memoizes them by snapshot value, so the
// shuffle only changes when the rooms or recommendations actually change.
type Assigner struct {
	shuffle     Shuffler
	fingerprint uint64
	current     *Assignment
}

// NewAssigner creates an assigner. A nil shuffler uses math/rand/v2.
func NewAssigner(shuffle Shuffler) *Assigner {
	if shuffle == nil {
		shuffle = rand.Shuffle
	}
	return &Assigner{shuffle: shuffle}
}

// Assign returns the assignment for the given snapshot. An identical snapshot
// returns the previous assignment unchanged.
func (a *Assigner) Assign(groups []room.Group, recs []room.Recommendation) *Assignment {
	fp, err := fingerprint(groups, recs)
	if err == nil && a.current != nil && fp == a.fingerprint {
		return a.current
	}

	live := room.LiveGroups(groups)
	a.shuffle(len(live), func(i, j int) {
		live[i], live[j] = live[j], live[i]
	})

	ranked := make([]room.Recommendation, len(recs))
	copy(ranked, recs)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].RelevanceScore > ranked[j].RelevanceScore
	})

	scores := make(map[string]float64, len(ranked))
	recommended := make([]string, 0, len(ranked))
	for _, r := range ranked {
		if _, seen := scores[r.ID]; seen {
			continue
		}
		scores[r.ID] = r.RelevanceScore
		recommended = append(recommended, r.ID)
	}

	a.current = &Assignment{live: live, scores: scores, recommended: recommended}
	a.fingerprint = fp
	return a.current
}

// Current returns the last assignment built, or nil before the first Assign
func (a *Assigner) Current() *Assignment {
	return a.current
}

type snapshot struct {
	Groups []room.Group          `json:"groups"`
	Recs   []room.Recommendation `json:"recs"`
}

func fingerprint(groups []room.Group, recs []room.Recommendation) (uint64, error) {
	data, err := json.Marshal(snapshot{Groups: groups, Recs: recs})
	if err != nil {
		return 0, err
	}
	return xxhash.Sum64(data), nil
}
