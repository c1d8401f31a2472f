package force

import (
	"math"
	"math/rand/v2"
)

// Force adjusts node velocities once per tick.
type Force interface {
	// Initialize binds the force to the simulation's nodes. It is called
	// when the force is added and whenever the node set changes.
	Initialize(nodes []*Node, rng *rand.Rand)
	// Apply adds this force's contribution at the given energy.
	Apply(alpha float64)
}

// jiggle returns a tiny random offset used to separate coincident nodes.
func jiggle(rng *rand.Rand) float64 {
	return (rng.Float64() - 0.5) * 1e-6
}

// =============================================================================
// Link
// =============================================================================

// LinkForce pulls the endpoints of each link toward a target distance. The pull
// is split between the endpoints by degree, so hubs move less than leaves.
type LinkForce struct {
	Links    []*Link
	Distance func(l *Link) float64
	Strength float64

	rng       *rand.Rand
	bias      []float64
	distances []float64
}

// NewLink returns a link force with a fixed strength.
func NewLink(links []*Link, strength float64, distance func(l *Link) float64) *LinkForce {
	return &LinkForce{Links: links, Distance: distance, Strength: strength}
}

func (f *LinkForce) Initialize(nodes []*Node, rng *rand.Rand) {
	f.rng = rng
	count := make(map[*Node]int, len(nodes))
	for _, l := range f.Links {
		count[l.Source]++
		count[l.Target]++
	}
	f.bias = make([]float64, len(f.Links))
	f.distances = make([]float64, len(f.Links))
	for i, l := range f.Links {
		cs, ct := float64(count[l.Source]), float64(count[l.Target])
		f.bias[i] = cs / (cs + ct)
		if f.Distance != nil {
			f.distances[i] = f.Distance(l)
		} else {
			f.distances[i] = 30
		}
	}
}

func (f *LinkForce) Apply(alpha float64) {
	for i, l := range f.Links {
		s, t := l.Source, l.Target
		x := t.X + t.VX - s.X - s.VX
		if x == 0 {
			x = jiggle(f.rng)
		}
		y := t.Y + t.VY - s.Y - s.VY
		if y == 0 {
			y = jiggle(f.rng)
		}
		d := math.Sqrt(x*x + y*y)
		k := (d - f.distances[i]) / d * alpha * f.Strength
		x, y = x*k, y*k

		b := f.bias[i]
		t.VX -= x * b
		t.VY -= y * b
		b = 1 - b
		s.VX += x * b
		s.VY += y * b
	}
}

// =============================================================================
// ManyBody
// =============================================================================

// ManyBody applies pairwise repulsion (negative strength) or attraction
// (positive strength). The magnitude falls off with distance; pairs closer
// than DistanceMin are treated as DistanceMin apart.
type ManyBody struct {
	Strength    func(n *Node) float64
	DistanceMin float64

	nodes     []*Node
	strengths []float64
	rng       *rand.Rand
}

// NewManyBody returns a many-body force with per-node strength.
func NewManyBody(strength func(n *Node) float64) *ManyBody {
	return &ManyBody{Strength: strength, DistanceMin: 1}
}

func (f *ManyBody) Initialize(nodes []*Node, rng *rand.Rand) {
	f.nodes, f.rng = nodes, rng
	f.strengths = make([]float64, len(nodes))
	for i, n := range nodes {
		f.strengths[i] = f.Strength(n)
	}
}

func (f *ManyBody) Apply(alpha float64) {
	min2 := f.DistanceMin * f.DistanceMin
	for i, n := range f.nodes {
		for j, o := range f.nodes {
			if i == j {
				continue
			}
			x, y := o.X-n.X, o.Y-n.Y
			l := x*x + y*y
			if x == 0 {
				x = jiggle(f.rng)
				l += x * x
			}
			if y == 0 {
				y = jiggle(f.rng)
				l += y * y
			}
			if l < min2 {
				l = math.Sqrt(min2 * l)
			}
			w := f.strengths[j] * alpha / l
			n.VX += x * w
			n.VY += y * w
		}
	}
}

// =============================================================================
// Collide
// =============================================================================

// Collide pushes apart nodes whose circles overlap. Larger nodes move less.
type Collide struct {
	Radius   func(n *Node) float64
	Strength float64

	nodes []*Node
	radii []float64
	rng   *rand.Rand
}

// NewCollide returns a collision force with per-node radius.
func NewCollide(radius func(n *Node) float64, strength float64) *Collide {
	return &Collide{Radius: radius, Strength: strength}
}

func (f *Collide) Initialize(nodes []*Node, rng *rand.Rand) {
	f.nodes, f.rng = nodes, rng
	f.radii = make([]float64, len(nodes))
	for i, n := range nodes {
		f.radii[i] = f.Radius(n)
	}
}

func (f *Collide) Apply(float64) {
	for i, n := range f.nodes {
		ri := f.radii[i]
		ri2 := ri * ri
		xi, yi := n.X+n.VX, n.Y+n.VY
		for j := i + 1; j < len(f.nodes); j++ {
			o := f.nodes[j]
			rj := f.radii[j]
			r := ri + rj
			x := xi - o.X - o.VX
			y := yi - o.Y - o.VY
			l := x*x + y*y
			if l >= r*r {
				continue
			}
			if x == 0 {
				x = jiggle(f.rng)
				l += x * x
			}
			if y == 0 {
				y = jiggle(f.rng)
				l += y * y
			}
			d := math.Sqrt(l)
			k := (r - d) / d * f.Strength
			x, y = x*k, y*k

			share := rj * rj / (ri2 + rj*rj)
			n.VX += x * share
			n.VY += y * share
			share = 1 - share
			o.VX -= x * share
			o.VY -= y * share
		}
	}
}

// =============================================================================
// Center
// =============================================================================

// Center translates all nodes so their mean position is (X, Y). It moves
// positions directly and leaves velocities untouched.
type Center struct {
	X, Y     float64
	Strength float64

	nodes []*Node
}

// NewCenter returns a centering force at full strength.
func NewCenter(x, y float64) *Center { return &Center{X: x, Y: y, Strength: 1} }

func (f *Center) Initialize(nodes []*Node, _ *rand.Rand) { f.nodes = nodes }

func (f *Center) Apply(float64) {
	if len(f.nodes) == 0 {
		return
	}
	var sx, sy float64
	for _, n := range f.nodes {
		sx += n.X
		sy += n.Y
	}
	k := float64(len(f.nodes))
	sx = (sx/k - f.X) * f.Strength
	sy = (sy/k - f.Y) * f.Strength
	for _, n := range f.nodes {
		n.X -= sx
		n.Y -= sy
	}
}

// =============================================================================
// Position
// =============================================================================

// PositionX pulls every node's x toward Target.
type PositionX struct {
	Target   float64
	Strength float64

	nodes []*Node
}

// NewPositionX returns an x-positioning force.
func NewPositionX(target, strength float64) *PositionX {
	return &PositionX{Target: target, Strength: strength}
}

func (f *PositionX) Initialize(nodes []*Node, _ *rand.Rand) { f.nodes = nodes }

func (f *PositionX) Apply(alpha float64) {
	for _, n := range f.nodes {
		n.VX += (f.Target - n.X) * f.Strength * alpha
	}
}

// PositionY pulls every node's y toward Target.
type PositionY struct {
	Target   float64
	Strength float64

	nodes []*Node
}

// NewPositionY returns a y-positioning force.
func NewPositionY(target, strength float64) *PositionY {
	return &PositionY{Target: target, Strength: strength}
}

func (f *PositionY) Initialize(nodes []*Node, _ *rand.Rand) { f.nodes = nodes }

func (f *PositionY) Apply(alpha float64) {
	for _, n := range f.nodes {
		n.VY += (f.Target - n.Y) * f.Strength * alpha
	}
}
