// internal/service/globe/layout.go

package globe

import (
	"math"

	"roomglobe/internal/domain/globe"
)

// Layout spreads n points evenly over a sphere of the given radius using the
// spiral construction: polar angle from equal-area latitude bands, azimuth
// advancing by sqrt(n*pi) per radian of polar angle. The result depends only
// on n and radius.
func Layout(n int, radius float64) []globe.Point {
	if n <= 0 {
		return nil
	}

	points := make([]globe.Point, n)
	step := math.Sqrt(float64(n) * math.Pi)
	for i := 0; i < n; i++ {
		phi := math.Acos(-1 + 2*float64(i)/float64(n))
		theta := step * phi

		sinPhi, cosPhi := math.Sincos(phi)
		sinTheta, cosTheta := math.Sincos(theta)
		points[i] = globe.Point{
			Index: i,
			Position: globe.Vec3{
				X: radius * cosTheta * sinPhi,
				Y: radius * sinTheta * sinPhi,
				Z: radius * cosPhi,
			},
		}
	}

	return points
}
