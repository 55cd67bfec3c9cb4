// internal/service/globe/globe.go

package globe

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"roomglobe/internal/domain/globe"
	"roomglobe/internal/domain/room"
	"roomglobe/internal/logging"
	"roomglobe/internal/metrics"
)

const (
	hoverScale   = 1.8
	coreInset    = 0.1
	tooltipLift  = 0.28
	tooltipTitle = "Live room"
	noRoomText   = "No room here right now"
)

var tooltipSide = globe.Vec3{X: 0.18, Y: 0.12, Z: 0}

// SceneConfig contains the geometry and behaviour shared by every session
type SceneConfig struct {
	NodeCount          int
	Radius             float64
	ConnectionDistance float64
	NodeRadius         float64
	HitRadius          float64
	DragSensitivity    float64
	TapTolerance       float64
	ScoreScale         float64
	RecommendedLimit   int
	Mode               globe.Mode
}

// DefaultSceneConfig returns the stock globe: 60 nodes on a radius-2 sphere
func DefaultSceneConfig() SceneConfig {
	return SceneConfig{
		NodeCount:          60,
		Radius:             2,
		ConnectionDistance: 1.2,
		NodeRadius:         0.04,
		HitRadius:          0.13,
		DragSensitivity:    DefaultSensitivity,
		TapTolerance:       3,
		ScoreScale:         1,
		RecommendedLimit:   12,
		Mode:               globe.ModeSelect,
	}
}

// Scene is the immutable layout and edge set, computed once and shared
type Scene struct {
	config SceneConfig
	points []globe.Point
	edges  []globe.Edge
}

// NewScene lays out the nodes and connects neighbours
func NewScene(config SceneConfig) *Scene {
	if config.ScoreScale <= 0 {
		config.ScoreScale = 1
	}
	points := Layout(config.NodeCount, config.Radius)
	return &Scene{
		config: config,
		points: points,
		edges:  Connect(points, config.ConnectionDistance),
	}
}

// Config returns the scene configuration
func (s *Scene) Config() SceneConfig {
	return s.config
}

// Points returns the node positions
func (s *Scene) Points() []globe.Point {
	return s.points
}

// Edges returns the connection lines
func (s *Scene) Edges() []globe.Edge {
	return s.edges
}

// Layout returns the static description sent to renderers
func (s *Scene) Layout() globe.Layout {
	return globe.Layout{
		Radius:     s.config.Radius,
		CoreRadius: s.coreRadius(),
		NodeRadius: s.config.NodeRadius,
		HitRadius:  s.config.HitRadius,
		Mode:       s.config.Mode,
		Points:     s.points,
		Edges:      s.edges,
	}
}

func (s *Scene) coreRadius() float64 {
	return s.config.Radius - coreInset
}

// Option configures a Globe
type Option func(*Globe)

// WithSelectionHandler sets the callback invoked when a node is selected
func WithSelectionHandler(fn func(globe.Selection)) Option {
	return func(g *Globe) {
		g.onSelect = fn
	}
}

// WithShuffler overrides the room shuffle, mainly for tests
func WithShuffler(shuffle Shuffler) Option {
	return func(g *Globe) {
		g.assigner = NewAssigner(shuffle)
	}
}

// Globe is one interactive globe session: shared scene, its own room
// assignment and its own interaction state. Methods are safe for concurrent
// use; the selection callback runs outside the internal lock.
type Globe struct {
	mu         sync.Mutex
	scene      *Scene
	directory  room.Directory
	assigner   *Assigner
	window     *Dispatcher
	controller *Controller
	onSelect   func(globe.Selection)
	version    atomic.Uint64
	closed     bool
}

// New creates a globe session over scene, reading rooms from directory
func New(scene *Scene, directory room.Directory, opts ...Option) *Globe {
	cfg := scene.Config()
	window := NewDispatcher()

	g := &Globe{
		scene:     scene,
		directory: directory,
		assigner:  NewAssigner(nil),
		window:    window,
		controller: NewController(window, ControllerConfig{
			Sensitivity:   cfg.DragSensitivity,
			TapTolerance:  cfg.TapTolerance,
			ClickToSelect: cfg.Mode.ClickToSelect(),
		}),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.assigner.Assign(nil, nil)
	return g
}

// Scene returns the shared scene
func (g *Globe) Scene() *Scene {
	return g.scene
}

// Version increases whenever something visible changes
func (g *Globe) Version() uint64 {
	return g.version.Load()
}

// Refresh fetches rooms and recommendations in parallel and applies both at
// once. A failed fetch is logged and replaced by an empty list; it never
// reaches the caller.
func (g *Globe) Refresh(ctx context.Context) {
	var (
		groups []room.Group
		recs   []room.Recommendation
	)

	var eg errgroup.Group
	eg.Go(func() error {
		res, err := g.directory.ListGroups(ctx)
		if err != nil {
			metrics.FetchFallbacks.WithLabelValues("groups").Inc()
			logging.Warn().Err(err).Msg("Failed to fetch groups, showing no live rooms")
			return nil
		}
		groups = res
		return nil
	})
	eg.Go(func() error {
		res, err := g.directory.RecommendedGroups(ctx, g.scene.config.RecommendedLimit)
		if err != nil {
			metrics.FetchFallbacks.WithLabelValues("recommendations").Inc()
			logging.Warn().Err(err).Msg("Failed to fetch recommendations, scoring all rooms 0")
			return nil
		}
		recs = res
		return nil
	})
	_ = eg.Wait()

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return
	}

	before := g.assigner.Current()
	if g.assigner.Assign(groups, recs) != before {
		g.version.Add(1)
	}
}

// PointerDown starts a drag on the drag surface
func (g *Globe) PointerDown(x, y float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.controller.PointerDown(x, y) {
		g.version.Add(1)
	}
}

// WindowEvent feeds a window-level pointer event (move, up, leave)
func (g *Globe) WindowEvent(ev globe.PointerEvent) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.window.Dispatch(ev) > 0 {
		g.version.Add(1)
	}
}

// PointerEnter is called when the pointer enters node i's hit region
func (g *Globe) PointerEnter(i int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if i < len(g.scene.points) && g.controller.PointerEnter(i) {
		g.version.Add(1)
	}
}

// PointerLeave is called when the pointer leaves node i's hit region
func (g *Globe) PointerLeave(i int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.controller.PointerLeave(i) {
		g.version.Add(1)
	}
}

// HoverRay hovers whichever node the ray hits first, or clears the hover
func (g *Globe) HoverRay(ray globe.Ray) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	i := g.pick(ray)
	if g.controller.HoverTo(i) {
		g.version.Add(1)
	}
	return i
}

// Click handles a click on node i. When it selects, the selection handler is
// called with the node's room and true is returned.
func (g *Globe) Click(i int) bool {
	g.mu.Lock()
	if i >= len(g.scene.points) || !g.controller.Click(i) {
		g.mu.Unlock()
		return false
	}
	sel := g.selection(i)
	onSelect := g.onSelect
	g.mu.Unlock()

	outcome := "empty"
	if sel.Group != nil {
		outcome = "room"
	}
	metrics.Selections.WithLabelValues(outcome).Inc()

	if onSelect != nil {
		onSelect(sel)
	}
	return true
}

// ClickRay clicks whichever node the ray hits first
func (g *Globe) ClickRay(ray globe.Ray) bool {
	g.mu.Lock()
	i := g.pick(ray)
	g.mu.Unlock()
	if i < 0 {
		return false
	}
	return g.Click(i)
}

// IsDragging reports whether a drag is in progress
func (g *Globe) IsDragging() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.controller.IsDragging()
}

// Assignment returns the room and raw score for node i
func (g *Globe) Assignment(i int) (*room.Group, float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.assigner.Current().At(i)
}

// Frame snapshots everything a renderer needs. It never blocks on I/O.
func (g *Globe) Frame() globe.Frame {
	g.mu.Lock()
	defer g.mu.Unlock()

	rot := g.controller.Rotation()
	assignment := g.assigner.Current()
	hovered, isHovered := g.controller.Hovered()

	frame := globe.Frame{
		Version:  g.version.Load(),
		Rotation: rot,
		Dragging: g.controller.IsDragging(),
		Nodes:    make([]globe.NodeFrame, len(g.scene.points)),
	}

	for _, p := range g.scene.points {
		grp, score := assignment.At(p.Index)
		node := globe.NodeFrame{
			Index:    p.Index,
			Position: rot.Apply(p.Position),
			Scale:    1,
			Score:    score,
		}
		if grp != nil {
			node.GroupID = grp.ID
			node.Recommended = assignment.IsRecommended(grp.ID)
		}
		node.Color = g.nodeColor(node.Recommended, score).Hex()
		if isHovered && hovered == p.Index {
			node.Scale = hoverScale
		}
		frame.Nodes[p.Index] = node
	}

	if isHovered {
		h := hovered
		frame.Hovered = &h
		frame.Tooltip = g.tooltip(hovered, rot, assignment)
	}

	return frame
}

// Close detaches the globe from the window. Further input is ignored.
func (g *Globe) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return
	}
	g.closed = true
	g.controller.Close()
	g.version.Add(1)
}

// ListenerCount returns the number of window listeners currently held
func (g *Globe) ListenerCount() int {
	return g.window.Len()
}

func (g *Globe) pick(ray globe.Ray) int {
	cfg := g.scene.config
	return Pick(g.scene.points, g.controller.Rotation(), ray, cfg.HitRadius, g.scene.coreRadius())
}

func (g *Globe) selection(i int) globe.Selection {
	grp, score := g.assigner.Current().At(i)
	return globe.Selection{Point: i, Group: grp, Score: score}
}

func (g *Globe) nodeColor(recommended bool, score float64) globe.Color {
	if g.scene.config.Mode == globe.ModeHover {
		return HighlightColor(recommended)
	}
	return ScoreColor(score / g.scene.config.ScoreScale)
}

func (g *Globe) tooltip(i int, rot globe.Rotation, assignment *Assignment) *globe.Tooltip {
	local := g.scene.points[i].Position
	pos := local.Add(local.Normalize().Scale(tooltipLift)).Add(tooltipSide)

	tip := &globe.Tooltip{
		Index:    i,
		Position: rot.Apply(pos),
		Title:    tooltipTitle,
		Text:     noRoomText,
	}

	if grp, score := assignment.At(i); grp != nil {
		tip.Text = fmt.Sprintf("%s (%d/%d)", grp.Name, len(grp.Members), grp.MaxMembers)
		tip.GroupID = grp.ID
		tip.Score = score
	}
	return tip
}
