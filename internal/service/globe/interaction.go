// internal/service/globe/interaction.go

package globe

import (
	"math"

	"roomglobe/internal/domain/globe"
)

const (
	// DefaultSensitivity is radians of rotation per pixel of drag
	DefaultSensitivity = 0.004

	// PitchMargin keeps pitch this far from ±π/2 so the globe never flips over
	PitchMargin = 0.1

	noHover = -1
)

// ControllerConfig tunes a Controller
type ControllerConfig struct {
	Sensitivity   float64
	TapTolerance  float64 // pixels of travel a press may have and still count as a tap
	ClickToSelect bool
}

// Controller turns raw pointer input into rotation, hover and selection state.
// It knows nothing about rendering. It is not safe for concurrent use; the
// owning Globe serializes access.
//
// Drag states: idle -> dragging on PointerDown; dragging -> idle on a
// window-level pointerup or pointerleave. Move/up/leave listeners are held on
// the window only while a drag is in progress.
type Controller struct {
	cfg      ControllerConfig
	window   globe.Window
	rotation globe.Rotation
	dragging bool
	lastX    float64
	lastY    float64
	travel   float64
	releases []func()
	hovered  int
	closed   bool
}

// NewController creates a controller bound to window
func NewController(window globe.Window, cfg ControllerConfig) *Controller {
	if cfg.Sensitivity <= 0 {
		cfg.Sensitivity = DefaultSensitivity
	}
	return &Controller{
		cfg:     cfg,
		window:  window,
		hovered: noHover,
	}
}

// Rotation returns the current orientation
func (c *Controller) Rotation() globe.Rotation {
	return c.rotation
}

// IsDragging reports whether a drag is in progress
func (c *Controller) IsDragging() bool {
	return c.dragging
}

// Hovered returns the hovered node index, if any
func (c *Controller) Hovered() (int, bool) {
	return c.hovered, c.hovered != noHover
}

// PointerDown starts a drag at screen position (x, y)
func (c *Controller) PointerDown(x, y float64) bool {
	if c.closed {
		return false
	}

	c.dragging = true
	c.lastX, c.lastY = x, y
	c.travel = 0

	if c.releases == nil {
		c.releases = []func(){
			c.window.Listen(globe.PointerMove, c.onMove),
			c.window.Listen(globe.PointerUp, c.onEnd),
			c.window.Listen(globe.PointerLeave, c.onEnd),
		}
	}
	return true
}

func (c *Controller) onMove(ev globe.PointerEvent) {
	if !c.dragging {
		return
	}

	dx := ev.X - c.lastX
	dy := ev.Y - c.lastY
	c.rotation.Yaw += dx * c.cfg.Sensitivity
	c.rotation.Pitch = clampPitch(c.rotation.Pitch + dy*c.cfg.Sensitivity)
	c.travel += math.Hypot(dx, dy)
	c.lastX, c.lastY = ev.X, ev.Y
}

func (c *Controller) onEnd(globe.PointerEvent) {
	c.dragging = false
	c.releaseListeners()
}

func (c *Controller) releaseListeners() {
	for _, release := range c.releases {
		release()
	}
	c.releases = nil
}

// PointerEnter marks node i as hovered. The most recent enter wins.
func (c *Controller) PointerEnter(i int) bool {
	if c.closed || i < 0 || c.hovered == i {
		return false
	}
	c.hovered = i
	return true
}

// PointerLeave clears the hover, but only if node i is still the hovered one.
// Hit regions overlap, so a neighbour's enter may already have replaced it.
func (c *Controller) PointerLeave(i int) bool {
	if c.hovered != i || c.hovered == noHover {
		return false
	}
	c.hovered = noHover
	return true
}

// HoverTo moves the hover to node i, or clears it when i is negative, going
// through the same guarded enter/leave transitions
func (c *Controller) HoverTo(i int) bool {
	if i == c.hovered || (i < 0 && c.hovered == noHover) {
		return false
	}

	changed := false
	if c.hovered != noHover {
		changed = c.PointerLeave(c.hovered)
	}
	if i >= 0 {
		changed = c.PointerEnter(i) || changed
	}
	return changed
}

// Click reports whether a click on node i should select it. Selection needs
// click-to-select enabled and a press that did not turn into a rotation.
func (c *Controller) Click(i int) bool {
	if c.closed || !c.cfg.ClickToSelect || i < 0 {
		return false
	}
	return c.travel <= c.cfg.TapTolerance
}

// Close ends any drag and releases window listeners. Later input is ignored.
func (c *Controller) Close() {
	c.closed = true
	c.dragging = false
	c.hovered = noHover
	c.releaseListeners()
}

func clampPitch(p float64) float64 {
	limit := math.Pi/2 - PitchMargin
	return math.Max(-limit, math.Min(limit, p))
}
