// internal/service/globe/color.go

package globe

import (
	"math"

	"roomglobe/internal/domain/globe"
)

// Gradient stops for match scores
var (
	ScoreRed    = globe.Color{R: 239, G: 68, B: 68}
	ScoreYellow = globe.Color{R: 234, G: 179, B: 8}
	ScoreGreen  = globe.Color{R: 34, G: 197, B: 94}
)

// Hover-mode palette
var (
	RecommendedColor = globe.Color{R: 0xFF, G: 0x88, B: 0x00}
	NeutralColor     = globe.Color{R: 0x00, G: 0xCC, B: 0xFF}
)

// ScoreColor maps a score to red (0), yellow (0.5) and green (1), interpolating
// linearly per channel in between. Out of range scores are clamped.
func ScoreColor(score float64) globe.Color {
	if math.IsNaN(score) || score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	if score <= 0.5 {
		return lerpColor(ScoreRed, ScoreYellow, score/0.5)
	}
	return lerpColor(ScoreYellow, ScoreGreen, (score-0.5)/0.5)
}

// HighlightColor is the hover-mode node color
func HighlightColor(recommended bool) globe.Color {
	if recommended {
		return RecommendedColor
	}
	return NeutralColor
}

func lerpColor(a, b globe.Color, t float64) globe.Color {
	return globe.Color{
		R: lerpChannel(a.R, b.R, t),
		G: lerpChannel(a.G, b.G, t),
		B: lerpChannel(a.B, b.B, t),
	}
}

func lerpChannel(a, b uint8, t float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*t))
}
