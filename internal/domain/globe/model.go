package globe

import (
	"fmt"

	"roomglobe/internal/domain/room"
)

// Point is one fixed node position on the globe, identified by its index
type Point struct {
	Index    int  `json:"index"`
	Position Vec3 `json:"position"`
}

// Edge joins two points closer than the connection distance; I < J always
type Edge struct {
	I int `json:"i"`
	J int `json:"j"`
}

// Color is an 8-bit RGB triple
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Hex formats the color as #rrggbb
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Mode selects which globe behaviour a session gets
type Mode string

const (
	// ModeHover shows a tooltip on hover and highlights recommended rooms
	ModeHover Mode = "hover"

	// ModeSelect adds click-to-select and colors nodes by match score
	ModeSelect Mode = "select"
)

// ClickToSelect reports whether clicks on a node select its room
func (m Mode) ClickToSelect() bool {
	return m == ModeSelect
}

// PointerKind identifies a window-level pointer event
type PointerKind string

const (
	PointerMove  PointerKind = "pointermove"
	PointerUp    PointerKind = "pointerup"
	PointerLeave PointerKind = "pointerleave"
)

// PointerEvent is a window-level pointer event in screen pixels
type PointerEvent struct {
	Kind PointerKind
	X    float64
	Y    float64
}

// Window is the interaction surface that keeps delivering pointer events while
// a drag is in progress, even after the pointer leaves the globe geometry.
type Window interface {
	// Listen registers fn for events of kind until release is called
	Listen(kind PointerKind, fn func(PointerEvent)) (release func())
}

// Selection is what a click on a node resolves to. Group is nil when no live
// room is assigned to the node.
type Selection struct {
	Point int         `json:"point"`
	Group *room.Group `json:"group"`
	Score float64     `json:"score"`
}
