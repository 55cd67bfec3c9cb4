package globe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomglobe/internal/domain/globe"
)

func TestConnectPairsAreOrderedUniqueAndClose(t *testing.T) {
	points := Layout(60, 2)
	edges := Connect(points, 1.2)
	require.NotEmpty(t, edges)

	seen := make(map[globe.Edge]bool)
	for _, e := range edges {
		assert.Less(t, e.I, e.J)
		assert.False(t, seen[e], "duplicate edge %v", e)
		seen[e] = true
		assert.Less(t, points[e.I].Position.DistanceTo(points[e.J].Position), 1.2)
	}

	// Every pair under the threshold is present.
	for i := range points {
		for j := i + 1; j < len(points); j++ {
			if points[i].Position.DistanceTo(points[j].Position) < 1.2 {
				assert.True(t, seen[globe.Edge{I: i, J: j}], "missing edge %d-%d", i, j)
			}
		}
	}
}

func TestConnectGoldenEdgeCount(t *testing.T) {
	edges := Connect(Layout(60, 2), 1.2)
	assert.Len(t, edges, 154)
	assert.Equal(t, edges, Connect(Layout(60, 2), 1.2))
}

func TestConnectThresholdIsStrict(t *testing.T) {
	points := []globe.Point{
		{Index: 0, Position: globe.Vec3{X: 0}},
		{Index: 1, Position: globe.Vec3{X: 1}},
	}
	assert.Empty(t, Connect(points, 1))
	assert.Equal(t, []globe.Edge{{I: 0, J: 1}}, Connect(points, 1.0001))
}
