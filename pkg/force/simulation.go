package force

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/matzehuels/contribnet/pkg/filter"
	"github.com/matzehuels/contribnet/pkg/observability"
)

// Names of the forces installed by [New].
const (
	ForceLink    = "link"
	ForceCharge  = "charge"
	ForceCollide = "collision"
	ForceCenter  = "center"
	ForceX       = "x"
	ForceY       = "y"
)

const (
	initialRadius = 10
	// DragAlphaTarget keeps a run warm while a node is held.
	DragAlphaTarget = 0.3
)

var initialAngle = math.Pi * (3 - math.Sqrt(5))

type namedForce struct {
	name  string
	force Force
}

// Simulation is one layout run over a fixed node set.
type Simulation struct {
	cfg   Config
	nodes []*Node
	links []*Link
	index map[string]*Node

	forces []namedForce
	rng    *rand.Rand

	alpha       float64
	alphaTarget float64

	ticks   int
	started time.Time
	cooled  bool
	stopped bool

	onTick []func()
	onEnd  []func()
}

// New creates a run over nodes and links with the standard forces. Nodes
// without a position are placed on a spiral around the canvas centre.
func New(nodes []*Node, links []*Link, cfg Config) *Simulation {
	cfg.SetDefaults()
	s := &Simulation{
		cfg:     cfg,
		nodes:   nodes,
		links:   links,
		index:   make(map[string]*Node, len(nodes)),
		rng:     rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0xdeadbeef)),
		alpha:   1,
		started: time.Now(),
	}
	s.initializeNodes()
	for i, l := range links {
		l.Index = i
	}

	c := cfg.Center()
	s.SetForce(ForceLink, NewLink(links, cfg.LinkStrength, func(l *Link) float64 {
		return cfg.Distance(l.Source.Kind, l.Target.Kind)
	}))
	s.SetForce(ForceCharge, NewManyBody(func(n *Node) float64 { return cfg.Charge(n.Kind) }))
	s.SetForce(ForceCollide, NewCollide(func(n *Node) float64 { return cfg.Radius(n.Kind) }, cfg.CollideStrength))
	s.SetForce(ForceCenter, NewCenter(c.X, c.Y))
	s.SetForce(ForceX, NewPositionX(c.X, cfg.PositionStrength))
	s.SetForce(ForceY, NewPositionY(c.Y, cfg.PositionStrength))

	observability.Simulation().OnStart(len(nodes), len(links))
	return s
}

// FromView creates a run over a visible subgraph.
func FromView(v filter.View, cfg Config) *Simulation {
	nodes := make([]*Node, len(v.Nodes))
	byID := make(map[string]*Node, len(v.Nodes))
	for i, n := range v.Nodes {
		nodes[i] = NewNode(n.ID, n.Kind)
		byID[n.ID] = nodes[i]
	}
	links := make([]*Link, 0, len(v.Edges))
	for _, e := range v.Edges {
		src, ok1 := byID[e.Source]
		dst, ok2 := byID[e.Target]
		if ok1 && ok2 {
			links = append(links, &Link{Source: src, Target: dst})
		}
	}
	return New(nodes, links, cfg)
}

func (s *Simulation) initializeNodes() {
	c := s.cfg.Center()
	for i, n := range s.nodes {
		n.Index = i
		s.index[n.ID] = n
		if p, ok := n.Pinned(); ok {
			n.X, n.Y = p.X, p.Y
		}
		if math.IsNaN(n.X) || math.IsNaN(n.Y) {
			r := initialRadius * math.Sqrt(0.5+float64(i))
			a := float64(i) * initialAngle
			n.X = c.X + r*math.Cos(a)
			n.Y = c.Y + r*math.Sin(a)
		}
		if math.IsNaN(n.VX) || math.IsNaN(n.VY) {
			n.VX, n.VY = 0, 0
		}
	}
}

// =============================================================================
// Accessors
// =============================================================================

// Nodes returns the simulated nodes in index order.
func (s *Simulation) Nodes() []*Node { return s.nodes }

// Links returns the simulated links.
func (s *Simulation) Links() []*Link { return s.links }

// Node returns the node with the given id.
func (s *Simulation) Node(id string) (*Node, bool) {
	n, ok := s.index[id]
	return n, ok
}

// Config returns the parameters the run was created with.
func (s *Simulation) Config() Config { return s.cfg }

// Alpha returns the current energy.
func (s *Simulation) Alpha() float64 { return s.alpha }

// SetAlpha sets the current energy, clamped to [0, 1].
func (s *Simulation) SetAlpha(a float64) { s.alpha = max(0, min(1, a)) }

// AlphaTarget returns the energy the run decays toward.
func (s *Simulation) AlphaTarget() float64 { return s.alphaTarget }

// SetAlphaTarget sets the energy the run decays toward, clamped to [0, 1].
func (s *Simulation) SetAlphaTarget(t float64) { s.alphaTarget = max(0, min(1, t)) }

// Ticks returns the number of ticks computed so far.
func (s *Simulation) Ticks() int { return s.ticks }

// Active reports whether Step will advance the run.
func (s *Simulation) Active() bool { return !s.stopped && !s.cooled }

// Stopped reports whether the run was discarded.
func (s *Simulation) Stopped() bool { return s.stopped }

// Force returns the named force, or nil.
func (s *Simulation) Force(name string) Force {
	for _, f := range s.forces {
		if f.name == name {
			return f.force
		}
	}
	return nil
}

// SetForce installs, replaces or (with nil) removes a named force.
func (s *Simulation) SetForce(name string, f Force) {
	for i, nf := range s.forces {
		if nf.name == name {
			if f == nil {
				s.forces = append(s.forces[:i], s.forces[i+1:]...)
				return
			}
			f.Initialize(s.nodes, s.rng)
			s.forces[i].force = f
			return
		}
	}
	if f != nil {
		f.Initialize(s.nodes, s.rng)
		s.forces = append(s.forces, namedForce{name, f})
	}
}

// OnTick registers a callback fired after every Step.
func (s *Simulation) OnTick(fn func()) { s.onTick = append(s.onTick, fn) }

// OnEnd registers a callback fired when the run cools.
func (s *Simulation) OnEnd(fn func()) { s.onEnd = append(s.onEnd, fn) }

// =============================================================================
// Stepping
// =============================================================================

// Tick computes one step regardless of energy and fires no callbacks. It is
// a no-op once the run is stopped.
func (s *Simulation) Tick() {
	if s.stopped {
		return
	}
	s.ticks++
	s.alpha += (s.alphaTarget - s.alpha) * s.cfg.AlphaDecay

	for _, f := range s.forces {
		f.force.Apply(s.alpha)
	}

	keep := 1 - s.cfg.VelocityDecay
	for _, n := range s.nodes {
		if p, ok := n.Pinned(); ok {
			n.X, n.Y = p.X, p.Y
			n.VX, n.VY = 0, 0
			continue
		}
		n.VX *= keep
		n.VY *= keep
		n.X += n.VX
		n.Y += n.VY
		s.clamp(n)
	}
}

func (s *Simulation) clamp(n *Node) {
	m := s.cfg.Margin
	if m < 0 {
		return
	}
	n.X = max(m, min(s.cfg.Width-m, n.X))
	n.Y = max(m, min(s.cfg.Height-m, n.Y))
}

// Step advances a warm run by one tick and fires the tick callbacks. When
// the energy drops below alphaMin the run cools and the end callbacks fire
// once. Step reports whether it advanced.
func (s *Simulation) Step() bool {
	if !s.Active() {
		return false
	}
	s.Tick()
	for _, fn := range s.onTick {
		if s.stopped {
			return true
		}
		fn()
	}
	if s.alpha < s.cfg.AlphaMin && !s.stopped {
		s.cooled = true
		observability.Simulation().OnCool(s.ticks, time.Since(s.started))
		for _, fn := range s.onEnd {
			fn()
		}
	}
	return true
}

// Restart resumes a cooled run without changing its energy.
func (s *Simulation) Restart() {
	if s.stopped {
		return
	}
	if s.cooled {
		s.started = time.Now()
	}
	s.cooled = false
}

// Reheat sets full energy and restarts the run.
func (s *Simulation) Reheat() {
	if s.stopped {
		return
	}
	s.alpha = 1
	s.Restart()
}

// Stop discards the run. It is idempotent; afterwards Tick and Step do
// nothing and no callback fires.
func (s *Simulation) Stop() {
	if s.stopped {
		return
	}
	s.stopped = true
	s.onTick, s.onEnd = nil, nil
	observability.Simulation().OnStop(s.ticks)
}

// Settle steps the run until it cools, is stopped, or maxTicks steps have
// been taken (maxTicks <= 0 means no limit). It returns the steps taken.
func (s *Simulation) Settle(maxTicks int) int {
	n := 0
	for s.Step() {
		n++
		if maxTicks > 0 && n >= maxTicks {
			break
		}
	}
	return n
}

// Positions returns a copy of every node position keyed by id.
func (s *Simulation) Positions() map[string]Point {
	out := make(map[string]Point, len(s.nodes))
	for _, n := range s.nodes {
		out[n.ID] = n.Pos()
	}
	return out
}

// Extent returns the bounding box of all node positions. An empty run
// returns the canvas centre twice.
func (s *Simulation) Extent() (lo, hi Point) {
	if len(s.nodes) == 0 {
		c := s.cfg.Center()
		return c, c
	}
	lo = Point{math.Inf(1), math.Inf(1)}
	hi = Point{math.Inf(-1), math.Inf(-1)}
	for _, n := range s.nodes {
		lo.X, lo.Y = min(lo.X, n.X), min(lo.Y, n.Y)
		hi.X, hi.Y = max(hi.X, n.X), max(hi.Y, n.Y)
	}
	return lo, hi
}
