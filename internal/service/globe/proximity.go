// internal/service/globe/proximity.go

package globe

import "roomglobe/internal/domain/globe"

// Connect returns every pair of points strictly closer than threshold, ordered
// by (I, J) with I < J. Exhaustive O(n²); it runs once per layout.
func Connect(points []globe.Point, threshold float64) []globe.Edge {
	var edges []globe.Edge
	for i := 0; i < len(points); i++ {
		for j := i + 1; j < len(points); j++ {
			if points[i].Position.DistanceTo(points[j].Position) < threshold {
				edges = append(edges, globe.Edge{I: i, J: j})
			}
		}
	}
	return edges
}
