package viewer

import (
	stderrors "errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/contribnet/pkg/errors"
	"github.com/matzehuels/contribnet/pkg/filter"
	"github.com/matzehuels/contribnet/pkg/force"
	"github.com/matzehuels/contribnet/pkg/graph"
	"github.com/matzehuels/contribnet/pkg/interact"
)

// Surface receives every frame the viewer produces.
type Surface interface {
	Refresh(f Frame)
}

// SurfaceFunc adapts a function to a Surface.
type SurfaceFunc func(Frame)

// Refresh calls fn(f).
func (fn SurfaceFunc) Refresh(f Frame) { fn(f) }

// Options configures a Viewer. The zero value uses the defaults of every
// component.
type Options struct {
	Force         force.Config
	Policy        filter.EmptyCategoryPolicy
	Zoom          interact.ZoomExtent
	FocusScale    float64
	FocusDuration time.Duration
	HideLabels    bool

	// Filter is the initial filter state; nil activates every value.
	Filter *filter.State
	// Positions places nodes of the first simulation, for example from a
	// cached layout. Nodes without an entry are placed by the simulation.
	Positions map[string]force.Point

	// Viewport is the initial screen size; defaults to the force canvas.
	Viewport interact.Viewport

	Logger *log.Logger
	// Now is the clock used for transitions; defaults to time.Now.
	Now func() time.Time
}

// SetDefaults fills zero fields.
func (o *Options) SetDefaults() {
	o.Force.SetDefaults()
	if o.Zoom == (interact.ZoomExtent{}) {
		o.Zoom = interact.DefaultZoomExtent
	}
	if o.FocusScale == 0 {
		o.FocusScale = interact.DefaultFocusScale
	}
	if o.FocusDuration == 0 {
		o.FocusDuration = interact.DefaultFocusDuration
	}
	if o.Viewport.Width <= 0 || o.Viewport.Height <= 0 {
		o.Viewport = interact.Viewport{Width: o.Force.Width, Height: o.Force.Height}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// Viewer holds the filter, layout and interaction state of one viewing
// session. It is not safe for concurrent use; see [Loop].
type Viewer struct {
	opts     Options
	logger   *log.Logger
	surfaces []Surface

	g     *graph.Graph
	state filter.State
	view  filter.View
	sim   *force.Simulation

	drag      interact.Drag
	highlight interact.Highlight
	transform interact.Transform
	focus     *interact.Focus
	viewport  interact.Viewport
	labels    bool
	info      *Info

	err       error
	seq       uint64
	dirty     bool
	positions map[string]force.Point
}

// New creates a viewer over g with every filter value active, starts the
// first simulation and refreshes the surfaces once.
func New(g *graph.Graph, opts Options, surfaces ...Surface) *Viewer {
	opts.SetDefaults()
	v := &Viewer{
		opts:      opts,
		logger:    opts.Logger,
		surfaces:  surfaces,
		g:         g,
		state:     filter.Defaults(g),
		transform: interact.Identity,
		viewport:  opts.Viewport,
		labels:    !opts.HideLabels,
		positions: opts.Positions,
	}
	if opts.Filter != nil {
		v.state = opts.Filter.Clone()
	}
	v.rebuild()
	v.refresh()
	return v
}

// NewFailed creates a viewer that shows err instead of a graph.
func NewFailed(err error, opts Options, surfaces ...Surface) *Viewer {
	opts.SetDefaults()
	v := &Viewer{
		opts:      opts,
		logger:    opts.Logger,
		surfaces:  surfaces,
		err:       err,
		transform: interact.Identity,
		viewport:  opts.Viewport,
	}
	v.refresh()
	return v
}

// Attach adds a surface. It receives frames from the next refresh on.
func (v *Viewer) Attach(s Surface) { v.surfaces = append(v.surfaces, s) }

// Err returns the load error of a failed viewer.
func (v *Viewer) Err() error { return v.err }

// Graph returns the full graph, or nil for a failed viewer.
func (v *Viewer) Graph() *graph.Graph { return v.g }

// State returns a copy of the filter state.
func (v *Viewer) State() filter.State { return v.state.Clone() }

// View returns the visible subgraph.
func (v *Viewer) View() filter.View { return v.view }

// Simulation returns the current simulation, or nil for a failed viewer.
func (v *Viewer) Simulation() *force.Simulation { return v.sim }

// Transform returns the current view transform.
func (v *Viewer) Transform() interact.Transform { return v.transform }

// Dragging returns the id of the dragged node, or "".
func (v *Viewer) Dragging() string { return v.drag.NodeID() }

// Close stops the simulation. The viewer must not be used afterwards.
func (v *Viewer) Close() {
	if v.sim != nil {
		v.sim.Stop()
	}
}

// Update applies one action and refreshes the surfaces once. A rejected
// action returns an error and leaves the surfaces untouched. A failed viewer
// ignores all input.
func (v *Viewer) Update(a Action) error {
	if v.err != nil {
		return nil
	}
	if err := v.apply(a); err != nil {
		v.logger.Debug("action rejected", "action", fmt.Sprintf("%T", a), "err", err)
		return err
	}
	v.refresh()
	return nil
}

// Tick advances the simulation and any focus transition. Surfaces are
// refreshed only when something moved; Tick reports whether they were.
func (v *Viewer) Tick(now time.Time) bool {
	if v.err != nil {
		return false
	}
	v.sim.Step()
	if v.focus != nil {
		t, done := v.focus.At(now)
		v.transform = t
		if done {
			v.focus = nil
		}
		v.dirty = true
	}
	if !v.dirty {
		return false
	}
	v.refresh()
	return true
}

// Frame builds the current frame without refreshing any surface.
func (v *Viewer) Frame() Frame {
	return v.frame(v.seq)
}

func (v *Viewer) apply(a Action) error {
	switch a := a.(type) {
	case ToggleSource:
		v.state.ToggleSource(a.Source)
		v.rebuild()
	case ToggleCategory:
		v.state.ToggleCategory(a.Category)
		v.rebuild()
	case SetTopicFilter:
		id := ""
		if a.Topic != "" {
			var err error
			if id, err = v.topicID(a.Topic); err != nil {
				return err
			}
		}
		v.state.SetTopic(id)
		v.rebuild()
	case SelectTopic:
		id, err := v.topicID(a.Topic)
		if err != nil {
			return err
		}
		n, err := v.simNode(id)
		if err != nil {
			return err
		}
		v.focusOn(n.Pos())
		v.showInfo(id, true)
	case ResetLayout:
		v.drag.Reset()
		for _, n := range v.sim.Nodes() {
			n.Unpin()
		}
		v.sim.SetAlphaTarget(0)
		v.sim.Reheat()
		v.focus = &interact.Focus{
			From:     v.transform,
			To:       interact.Identity,
			Start:    v.opts.Now(),
			Duration: v.opts.FocusDuration,
		}
	case ToggleLabels:
		v.labels = !v.labels
	case DragStart:
		if err := v.drag.Start(v.sim, a.Node); err != nil {
			return dragError(err, a.Node)
		}
	case DragMove:
		p := v.transform.Invert(force.Point{X: a.X, Y: a.Y})
		if err := v.drag.Move(p.X, p.Y); err != nil {
			return dragError(err, "")
		}
	case DragEnd:
		if err := v.drag.End(v.sim); err != nil {
			return dragError(err, "")
		}
	case HoverNode:
		if !v.view.Contains(a.Node) {
			return errors.New(errors.ErrCodeNodeNotFound, "node %q is not visible", a.Node)
		}
		v.highlight = interact.HighlightNode(v.view, a.Node)
		v.showInfo(a.Node, false)
	case HoverEdge:
		e := graph.Edge{Source: a.Source, Target: a.Target}
		if !v.edgeVisible(e) {
			return errors.New(errors.ErrCodeNodeNotFound, "edge %s -> %s is not visible", a.Source, a.Target)
		}
		v.highlight = interact.HighlightEdge(e)
	case HoverGroup:
		grp, err := v.group(a.Group)
		if err != nil {
			return err
		}
		v.highlight = interact.HighlightGroup(grp)
		v.showGroup(grp, false)
	case Leave:
		v.highlight = interact.Highlight{}
		if v.info != nil && !v.info.Pinned {
			v.info = nil
		}
	case ClickNode:
		n, err := v.simNode(a.Node)
		if err != nil {
			return err
		}
		v.focusOn(n.Pos())
		v.showInfo(a.Node, true)
	case ClickGroup:
		grp, err := v.group(a.Group)
		if err != nil {
			return err
		}
		v.showGroup(grp, true)
	case ClickBackground, CloseInfo:
		v.info = nil
	case Zoom:
		if a.Factor <= 0 {
			return errors.New(errors.ErrCodeInvalidAction, "zoom factor must be positive, got %g", a.Factor)
		}
		v.focus = nil
		v.transform = v.transform.Zoom(a.Factor, force.Point{X: a.X, Y: a.Y}, v.opts.Zoom)
	case Pan:
		v.focus = nil
		v.transform = v.transform.Pan(a.DX, a.DY)
	case Resize:
		if a.Width <= 0 || a.Height <= 0 {
			return errors.New(errors.ErrCodeInvalidAction, "viewport must be positive, got %gx%g", a.Width, a.Height)
		}
		v.viewport = interact.Viewport{Width: a.Width, Height: a.Height}
	case nil:
		return errors.New(errors.ErrCodeInvalidAction, "nil action")
	default:
		return errors.New(errors.ErrCodeInvalidAction, "unsupported action %q", a.Kind())
	}
	return nil
}

// rebuild recomputes the visible subgraph and replaces the simulation. The
// old run is stopped before the new one exists, so none of its callbacks can
// reach the new node set.
func (v *Viewer) rebuild() {
	v.view = filter.Apply(v.g, v.state, v.opts.Policy)
	if v.sim != nil {
		v.sim.Stop()
	}
	v.drag.Reset()

	sim := force.FromView(v.view, v.opts.Force)
	for id, p := range v.positions {
		if n, ok := sim.Node(id); ok {
			n.X, n.Y = p.X, p.Y
		}
	}
	v.positions = nil
	sim.OnTick(func() { v.dirty = true })
	sim.OnEnd(func() { v.logger.Debug("layout cooled", "ticks", sim.Ticks()) })
	v.sim = sim

	v.highlight = v.highlight.Within(v.view)
	if v.info != nil && !v.info.Pinned && v.info.Kind != InfoGroup && !v.view.Contains(v.info.ID) {
		v.info = nil
	}

	st := v.view.Stats()
	v.logger.Debug("filters applied",
		"contributors", st.Contributors,
		"topics", st.Topics,
		"connections", st.Connections)
}

func (v *Viewer) focusOn(p force.Point) {
	v.focus = interact.FocusOn(v.transform, p, v.viewport, v.opts.FocusScale, v.opts.Zoom, v.opts.Now(), v.opts.FocusDuration)
}

// showInfo sets the panel for a node. A pinned panel is only replaced by
// another pinned one.
func (v *Viewer) showInfo(id string, pin bool) {
	if v.info != nil && v.info.Pinned && !pin {
		return
	}
	info, ok := nodeInfo(v.g, id)
	if !ok {
		return
	}
	info.Pinned = pin
	v.info = info
}

func (v *Viewer) showGroup(grp graph.Group, pin bool) {
	if v.info != nil && v.info.Pinned && !pin {
		return
	}
	info := groupInfo(v.g, grp)
	info.Pinned = pin
	v.info = info
}

// topicID resolves a topic id or display name.
func (v *Viewer) topicID(topic string) (string, error) {
	id := topic
	if !strings.HasPrefix(topic, "topic:") {
		id = graph.TopicID(topic)
	}
	if n, ok := v.g.Node(id); !ok || !n.IsTopic() {
		return "", errors.New(errors.ErrCodeNodeNotFound, "unknown topic %q", topic)
	}
	return id, nil
}

func (v *Viewer) simNode(id string) (*force.Node, error) {
	n, ok := v.sim.Node(id)
	if !ok {
		return nil, errors.New(errors.ErrCodeNodeNotFound, "node %q is not visible", id)
	}
	return n, nil
}

func (v *Viewer) group(id string) (graph.Group, error) {
	for _, grp := range v.g.Groups {
		if grp.ID == id {
			return grp, nil
		}
	}
	return graph.Group{}, errors.New(errors.ErrCodeNodeNotFound, "unknown group %q", id)
}

func (v *Viewer) edgeVisible(e graph.Edge) bool {
	for _, ve := range v.view.Edges {
		if ve == e {
			return true
		}
	}
	return false
}

func dragError(err error, node string) error {
	switch {
	case stderrors.Is(err, interact.ErrUnknownNode):
		return errors.Wrap(errors.ErrCodeNodeNotFound, err, "drag %q", node)
	default:
		return errors.Wrap(errors.ErrCodeInvalidAction, err, "drag")
	}
}

// =============================================================================
// Frames
// =============================================================================

func (v *Viewer) refresh() {
	v.seq++
	v.dirty = false
	f := v.frame(v.seq)
	for _, s := range v.surfaces {
		s.Refresh(f)
	}
}

func (v *Viewer) frame(seq uint64) Frame {
	f := Frame{
		Seq:       seq,
		Width:     v.viewport.Width,
		Height:    v.viewport.Height,
		Transform: v.transform,
		Nodes:     []FrameNode{},
		Edges:     []FrameEdge{},
		Labels:    v.labels,
	}
	if v.err != nil {
		f.Error = errors.UserMessage(v.err)
		return f
	}

	attrs := make(map[string]graph.Node, len(v.view.Nodes))
	for _, n := range v.view.Nodes {
		attrs[n.ID] = n
	}
	pos := make(map[string]force.Point, len(attrs))
	for _, n := range v.sim.Nodes() {
		a := attrs[n.ID]
		_, pinned := n.Pinned()
		pos[n.ID] = n.Pos()
		f.Nodes = append(f.Nodes, FrameNode{
			ID:          n.ID,
			Name:        a.Name,
			Kind:        n.Kind,
			Source:      a.Source,
			Category:    a.PrimaryCategory(),
			X:           n.X,
			Y:           n.Y,
			Degree:      v.view.Degree(n.ID),
			Pinned:      pinned,
			Highlighted: v.highlight.HasNode(n.ID),
		})
	}
	for _, e := range v.view.Edges {
		s, t := pos[e.Source], pos[e.Target]
		f.Edges = append(f.Edges, FrameEdge{
			Source: e.Source, Target: e.Target,
			X1: s.X, Y1: s.Y, X2: t.X, Y2: t.Y,
			Highlighted: v.highlight.HasEdge(e),
		})
	}
	for _, grp := range v.g.Groups {
		var members []string
		var pts []force.Point
		for _, m := range grp.Members {
			if p, ok := pos[m]; ok {
				members = append(members, m)
				pts = append(pts, p)
			}
		}
		if len(members) < 2 {
			continue
		}
		f.Hulls = append(f.Hulls, Hull{
			ID:          grp.ID,
			Members:     members,
			Points:      convexHull(pts),
			Highlighted: v.highlight.Group == grp.ID,
		})
	}

	if v.info != nil {
		info := *v.info
		f.Info = &info
	}
	f.Legend = buildLegend(v.g, v.state)
	f.Stats = v.view.Stats()
	f.Alpha = v.sim.Alpha()
	f.Active = v.sim.Active()
	return f
}
