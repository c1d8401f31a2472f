package force

import (
	"math"
	"testing"

	"github.com/matzehuels/contribnet/pkg/contrib"
	"github.com/matzehuels/contribnet/pkg/filter"
	"github.com/matzehuels/contribnet/pkg/graph"
)

func testView(t *testing.T) filter.View {
	t.Helper()
	mk := func(name, category string, topics ...string) contrib.Record {
		r := contrib.NewRecord([]contrib.Person{{Name: name}}, contrib.Format{}, topics)
		r.Category = category
		return r
	}
	g, err := graph.Build([]contrib.Record{
		mk("Ada", "X", "graphs", "layout"),
		mk("Bob", "Y", "graphs"),
		mk("Cy", "X, Y", "layout", "physics"),
	}, graph.BuildOptions{})
	if err != nil {
		t.Fatal(err)
	}
	return filter.Apply(g, filter.Defaults(g), filter.EmptyNone)
}

// only removes every standard force except the named ones.
func only(s *Simulation, keep ...string) {
	for _, name := range []string{ForceLink, ForceCharge, ForceCollide, ForceCenter, ForceX, ForceY} {
		drop := true
		for _, k := range keep {
			if k == name {
				drop = false
			}
		}
		if drop {
			s.SetForce(name, nil)
		}
	}
}

func dist(a, b *Node) float64 { return math.Hypot(a.X-b.X, a.Y-b.Y) }

func assertFinite(t *testing.T, s *Simulation) {
	t.Helper()
	for _, n := range s.Nodes() {
		for _, v := range []float64{n.X, n.Y, n.VX, n.VY} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("node %s has non-finite state %+v", n.ID, *n)
			}
		}
	}
}

func TestZeroNodes(t *testing.T) {
	s := FromView(filter.View{}, Config{})
	var ticks, ends int
	s.OnTick(func() { ticks++ })
	s.OnEnd(func() { ends++ })

	n := s.Settle(0)
	if n < 299 || n > 302 {
		t.Errorf("settled after %d ticks, want about 300", n)
	}
	if ticks != n {
		t.Errorf("tick callbacks = %d, want %d", ticks, n)
	}
	if ends != 1 {
		t.Errorf("end callbacks = %d, want 1", ends)
	}
	if s.Active() {
		t.Error("run still active after cooling")
	}
	if s.Step() {
		t.Error("cooled run advanced")
	}
	if ticks != n || ends != 1 {
		t.Error("callbacks fired after cooling")
	}
	lo, hi := s.Extent()
	if lo != s.Config().Center() || hi != lo {
		t.Errorf("Extent() = %v %v, want canvas centre", lo, hi)
	}
}

func TestInitialSpiral(t *testing.T) {
	s := FromView(testView(t), Config{})
	c := s.Config().Center()
	for i, n := range s.Nodes() {
		want := initialRadius * math.Sqrt(0.5+float64(i))
		if got := math.Hypot(n.X-c.X, n.Y-c.Y); math.Abs(got-want) > 1e-9 {
			t.Errorf("node %d radius = %g, want %g", i, got, want)
		}
		if n.Index != i {
			t.Errorf("node %s index = %d, want %d", n.ID, n.Index, i)
		}
	}
}

func TestDeterministic(t *testing.T) {
	v := testView(t)
	a := FromView(v, Config{Seed: 7})
	b := FromView(v, Config{Seed: 7})
	a.Settle(0)
	b.Settle(0)
	pa, pb := a.Positions(), b.Positions()
	for id, p := range pa {
		if pb[id] != p {
			t.Errorf("%s: %v != %v", id, p, pb[id])
		}
	}
}

func TestSettleKeepsNodesInsideMargin(t *testing.T) {
	s := FromView(testView(t), Config{})
	s.Settle(0)
	assertFinite(t, s)
	cfg := s.Config()
	for _, n := range s.Nodes() {
		if n.X < cfg.Margin || n.X > cfg.Width-cfg.Margin || n.Y < cfg.Margin || n.Y > cfg.Height-cfg.Margin {
			t.Errorf("node %s at (%g, %g) outside margin", n.ID, n.X, n.Y)
		}
	}
}

func TestClamp(t *testing.T) {
	n := &Node{ID: "far", Kind: graph.KindPerson, X: -500, Y: 5000}
	s := New([]*Node{n}, nil, Config{})
	only(s)
	s.Tick()
	if n.X != 50 || n.Y != 650 {
		t.Errorf("clamped to (%g, %g), want (50, 650)", n.X, n.Y)
	}

	n = &Node{ID: "far", Kind: graph.KindPerson, X: -500, Y: 5000}
	s = New([]*Node{n}, nil, Config{Margin: -1})
	only(s)
	s.Tick()
	if n.X != -500 {
		t.Errorf("negative margin should disable clamp, x = %g", n.X)
	}
}

func TestPinnedNodeHeld(t *testing.T) {
	s := FromView(testView(t), Config{})
	n, ok := s.Node(graph.PersonID("Ada"))
	if !ok {
		t.Fatal("Ada missing")
	}
	n.Pin(300, 200)
	for range 50 {
		s.Tick()
		if n.X != 300 || n.Y != 200 || n.VX != 0 || n.VY != 0 {
			t.Fatalf("pinned node moved to (%g, %g)", n.X, n.Y)
		}
	}

	n.Unpin()
	if _, pinned := n.Pinned(); pinned {
		t.Fatal("pin not cleared")
	}
	s.Reheat()
	for range 20 {
		s.Step()
	}
	if n.X == 300 && n.Y == 200 {
		t.Error("released node did not move under forces")
	}
}

func TestPinAppliedOnInitialize(t *testing.T) {
	n := NewNode("p", graph.KindPerson)
	n.Pin(10, 20)
	New([]*Node{n}, nil, Config{Margin: -1})
	if n.X != 10 || n.Y != 20 {
		t.Errorf("initial position = (%g, %g), want pin", n.X, n.Y)
	}
}

func TestStopIdempotent(t *testing.T) {
	s := FromView(testView(t), Config{})
	fired := 0
	s.OnTick(func() { fired++ })
	s.OnEnd(func() { fired++ })
	s.Step()
	before := s.Positions()

	s.Stop()
	s.Stop()
	if !s.Stopped() || s.Active() {
		t.Fatal("run not stopped")
	}
	if s.Step() {
		t.Error("stopped run advanced")
	}
	s.Tick()
	s.Reheat()
	s.Restart()
	if s.Active() {
		t.Error("stopped run was restarted")
	}
	if fired != 1 {
		t.Errorf("callbacks fired %d times, want 1", fired)
	}
	for id, p := range s.Positions() {
		if before[id] != p {
			t.Errorf("%s moved after Stop", id)
		}
	}
	if n := s.Settle(0); n != 0 {
		t.Errorf("Settle on stopped run = %d", n)
	}
}

func TestStopInsideTickCallback(t *testing.T) {
	s := FromView(testView(t), Config{})
	var later, ends int
	s.OnTick(func() { s.Stop() })
	s.OnTick(func() { later++ })
	s.OnEnd(func() { ends++ })
	s.SetAlpha(0.0005)

	s.Step()
	if later != 0 {
		t.Error("callback ran after the run was stopped")
	}
	if ends != 0 {
		t.Error("end fired for a stopped run")
	}
}

func TestReheatAndRestart(t *testing.T) {
	s := FromView(testView(t), Config{})
	s.Settle(0)
	if s.Active() {
		t.Fatal("expected cooled run")
	}

	s.Restart()
	if !s.Active() {
		t.Fatal("Restart did not resume")
	}
	if n := s.Settle(0); n != 1 {
		t.Errorf("restart with low energy ran %d ticks, want 1", n)
	}

	s.Reheat()
	if s.Alpha() != 1 || !s.Active() {
		t.Errorf("Reheat: alpha = %g active = %v", s.Alpha(), s.Active())
	}
}

func TestAlphaTargetKeepsRunWarm(t *testing.T) {
	s := FromView(testView(t), Config{})
	s.SetAlphaTarget(DragAlphaTarget)
	if n := s.Settle(1000); n != 1000 {
		t.Errorf("ran %d ticks, want 1000", n)
	}
	if !s.Active() || math.Abs(s.Alpha()-DragAlphaTarget) > 1e-3 {
		t.Errorf("alpha = %g active = %v", s.Alpha(), s.Active())
	}

	s.SetAlphaTarget(0)
	s.Settle(0)
	if s.Active() {
		t.Error("run did not cool after target cleared")
	}
}

func TestAlphaClamp(t *testing.T) {
	s := New(nil, nil, Config{})
	s.SetAlpha(3)
	s.SetAlphaTarget(-1)
	if s.Alpha() != 1 || s.AlphaTarget() != 0 {
		t.Errorf("alpha = %g target = %g", s.Alpha(), s.AlphaTarget())
	}
}

func TestLinkConvergesToDistance(t *testing.T) {
	a := &Node{ID: "person:a", Kind: graph.KindPerson, X: 400, Y: 350}
	b := &Node{ID: "topic:t", Kind: graph.KindTopic, X: 700, Y: 350}
	s := New([]*Node{a, b}, []*Link{{Source: a, Target: b}}, Config{Margin: -1})
	only(s, ForceLink)
	s.Settle(0)
	if d := dist(a, b); math.Abs(d-DefaultPersonTopicDistance) > 2 {
		t.Errorf("distance = %g, want about %d", d, DefaultPersonTopicDistance)
	}
}

func TestCollideSeparates(t *testing.T) {
	a := &Node{ID: "a", Kind: graph.KindPerson, X: 600, Y: 350}
	b := &Node{ID: "b", Kind: graph.KindPerson, X: 600, Y: 350}
	s := New([]*Node{a, b}, nil, Config{Margin: -1})
	only(s, ForceCollide)
	s.Settle(0)
	assertFinite(t, s)
	if d := dist(a, b); d < 2*DefaultPersonRadius-0.5 {
		t.Errorf("distance = %g, want at least %d", d, 2*DefaultPersonRadius)
	}
}

func TestManyBodyRepels(t *testing.T) {
	a := &Node{ID: "a", Kind: graph.KindPerson, X: 595, Y: 350}
	b := &Node{ID: "b", Kind: graph.KindTopic, X: 605, Y: 350}
	s := New([]*Node{a, b}, nil, Config{Margin: -1})
	only(s, ForceCharge)
	for range 10 {
		s.Step()
	}
	if d := dist(a, b); d <= 10 {
		t.Errorf("distance = %g, want > 10", d)
	}
	if a.X >= 595 || b.X <= 605 {
		t.Errorf("nodes moved the wrong way: a=%g b=%g", a.X, b.X)
	}
}

func TestCenterMovesCentroid(t *testing.T) {
	a := &Node{ID: "a", X: 100, Y: 100}
	b := &Node{ID: "b", X: 300, Y: 200}
	s := New([]*Node{a, b}, nil, Config{Margin: -1})
	only(s, ForceCenter)
	s.Tick()
	c := s.Config().Center()
	if mx, my := (a.X+b.X)/2, (a.Y+b.Y)/2; math.Abs(mx-c.X) > 1e-9 || math.Abs(my-c.Y) > 1e-9 {
		t.Errorf("centroid = (%g, %g), want %v", mx, my, c)
	}
}

func TestCoincidentNodes(t *testing.T) {
	var nodes []*Node
	for _, id := range []string{"a", "b", "c", "d"} {
		nodes = append(nodes, &Node{ID: id, Kind: graph.KindPerson, X: 600, Y: 350})
	}
	s := New(nodes, []*Link{{Source: nodes[0], Target: nodes[1]}}, Config{})
	s.Settle(100)
	assertFinite(t, s)
	if dist(nodes[0], nodes[1]) == 0 {
		t.Error("coincident nodes not separated")
	}
}

func TestSetForce(t *testing.T) {
	s := New(nil, nil, Config{})
	if s.Force(ForceCharge) == nil {
		t.Fatal("charge force missing")
	}
	s.SetForce(ForceCharge, nil)
	if s.Force(ForceCharge) != nil {
		t.Error("charge force not removed")
	}
	s.SetForce("custom", NewPositionX(0, 1))
	if _, ok := s.Force("custom").(*PositionX); !ok {
		t.Error("custom force not installed")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"Defaults", func(*Config) {}, false},
		{"NegativeWidth", func(c *Config) { c.Width = -1 }, true},
		{"AlphaMinTooLarge", func(c *Config) { c.AlphaMin = 1 }, true},
		{"AlphaDecayZero", func(c *Config) { c.AlphaDecay = -0.1 }, true},
		{"VelocityDecay", func(c *Config) { c.VelocityDecay = 2 }, true},
		{"NegativeRadius", func(c *Config) { c.TopicRadius = -3 }, true},
		{"MarginTooLarge", func(c *Config) { c.Margin = 400 }, true},
		{"NoMargin", func(c *Config) { c.Margin = -1 }, false},
		{"NaNWidth", func(c *Config) { c.Width = math.NaN() }, true},
		{"InfHeight", func(c *Config) { c.Height = math.Inf(1) }, true},
		{"NegInfWidth", func(c *Config) { c.Width = math.Inf(-1) }, true},
		{"NaNCharge", func(c *Config) { c.PersonCharge = math.NaN() }, true},
		{"InfLinkStrength", func(c *Config) { c.LinkStrength = math.Inf(1) }, true},
		{"NaNMargin", func(c *Config) { c.Margin = math.NaN() }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(&c)
			if err := c.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigKinds(t *testing.T) {
	c := DefaultConfig()
	if got := c.Distance(graph.KindPerson, graph.KindTopic); got != 50 {
		t.Errorf("person-topic distance = %g", got)
	}
	if got := c.Distance(graph.KindPerson, graph.KindPerson); got != 40 {
		t.Errorf("person-person distance = %g", got)
	}
	if c.Charge(graph.KindPerson) != -200 || c.Charge(graph.KindTopic) != -100 {
		t.Error("unexpected charges")
	}
	if c.Radius(graph.KindPerson) != 18 || c.Radius(graph.KindTopic) != 12 {
		t.Error("unexpected radii")
	}
}
