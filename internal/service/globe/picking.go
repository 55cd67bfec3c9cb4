// internal/service/globe/picking.go

package globe

import (
	"math"

	"roomglobe/internal/domain/globe"
)

// Pick returns the index of the nearest node whose hit sphere the ray crosses
// under rotation rot, or -1. Nodes behind the opaque core sphere are skipped.
func Pick(points []globe.Point, rot globe.Rotation, ray globe.Ray, hitRadius, coreRadius float64) int {
	occlusion := math.Inf(1)
	if coreRadius > 0 {
		if t, ok := ray.SphereHit(globe.Vec3{}, coreRadius); ok {
			occlusion = t
		}
	}

	best := -1
	bestT := math.Inf(1)
	for _, p := range points {
		t, ok := ray.SphereHit(rot.Apply(p.Position), hitRadius)
		if !ok || t > occlusion || t >= bestT {
			continue
		}
		best, bestT = p.Index, t
	}
	return best
}
