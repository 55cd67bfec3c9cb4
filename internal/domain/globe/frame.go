package globe

// Layout is the static part of a globe, sent to a renderer once
type Layout struct {
	Radius     float64 `json:"radius"`
	CoreRadius float64 `json:"core_radius"`
	NodeRadius float64 `json:"node_radius"`
	HitRadius  float64 `json:"hit_radius"`
	Mode       Mode    `json:"mode"`
	Points     []Point `json:"points"`
	Edges      []Edge  `json:"edges"`
}

// Frame is everything a renderer needs to draw one frame
type Frame struct {
	Version  uint64      `json:"version"`
	Rotation Rotation    `json:"rotation"`
	Dragging bool        `json:"dragging"`
	Hovered  *int        `json:"hovered"`
	Nodes    []NodeFrame `json:"nodes"`
	Tooltip  *Tooltip    `json:"tooltip,omitempty"`
}

// NodeFrame is the per-node part of a frame. Position is already rotated.
type NodeFrame struct {
	Index       int     `json:"index"`
	Position    Vec3    `json:"position"`
	Color       string  `json:"color"`
	Scale       float64 `json:"scale"`
	GroupID     string  `json:"group_id,omitempty"`
	Score       float64 `json:"score"`
	Recommended bool    `json:"recommended,omitempty"`
}

// Tooltip describes the card drawn beside the hovered node
type Tooltip struct {
	Index    int     `json:"index"`
	Position Vec3    `json:"position"`
	Title    string  `json:"title"`
	Text     string  `json:"text"`
	GroupID  string  `json:"group_id,omitempty"`
	Score    float64 `json:"score"`
}
