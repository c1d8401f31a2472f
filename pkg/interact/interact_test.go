package interact

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/matzehuels/contribnet/pkg/contrib"
	"github.com/matzehuels/contribnet/pkg/filter"
	"github.com/matzehuels/contribnet/pkg/force"
	"github.com/matzehuels/contribnet/pkg/graph"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func testView(t *testing.T) filter.View {
	t.Helper()
	g, err := graph.Build([]contrib.Record{
		contrib.NewRecord([]contrib.Person{{Name: "Ada"}}, contrib.Format{Paper: "p"}, []string{"graphs", "layout"}),
		contrib.NewRecord([]contrib.Person{{Name: "Bob"}}, contrib.Format{Web: "w"}, []string{"graphs"}),
	}, graph.BuildOptions{})
	if err != nil {
		t.Fatal(err)
	}
	return filter.Apply(g, filter.Defaults(g), filter.EmptyNone)
}

func TestTransformApplyInvert(t *testing.T) {
	tr := Transform{X: 10, Y: -20, K: 2}
	p := force.Point{X: 3, Y: 4}
	s := tr.Apply(p)
	if s != (force.Point{X: 16, Y: -12}) {
		t.Errorf("Apply = %v", s)
	}
	if back := tr.Invert(s); !near(back.X, p.X) || !near(back.Y, p.Y) {
		t.Errorf("Invert = %v, want %v", back, p)
	}
}

func TestZoomKeepsAnchorAndClamps(t *testing.T) {
	tests := []struct {
		name   string
		factor float64
		wantK  float64
	}{
		{"In", 2, 2},
		{"Out", 0.5, 0.5},
		{"ClampMax", 100, 4},
		{"ClampMin", 0.001, 0.1},
	}
	anchor := force.Point{X: 300, Y: 200}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := Identity.Invert(anchor)
			z := Identity.Zoom(tt.factor, anchor, DefaultZoomExtent)
			if !near(z.K, tt.wantK) {
				t.Errorf("K = %g, want %g", z.K, tt.wantK)
			}
			after := z.Invert(anchor)
			if !near(before.X, after.X) || !near(before.Y, after.Y) {
				t.Errorf("anchor moved from %v to %v", before, after)
			}
		})
	}
}

func TestPan(t *testing.T) {
	got := Transform{X: 1, Y: 2, K: 3}.Pan(10, -5)
	if got != (Transform{X: 11, Y: -3, K: 3}) {
		t.Errorf("Pan = %+v", got)
	}
	if s := Identity.String(); s != "translate(0.00,0.00) scale(1.0000)" {
		t.Errorf("String() = %q", s)
	}
}

func TestZoomExtent(t *testing.T) {
	if !DefaultZoomExtent.Valid() {
		t.Error("default extent invalid")
	}
	for _, e := range []ZoomExtent{
		{Min: 0, Max: 1},
		{Min: 2, Max: 1},
		{Min: 1, Max: math.Inf(1)},
		{Min: math.NaN(), Max: 1},
		{Min: 1, Max: math.NaN()},
	} {
		if e.Valid() {
			t.Errorf("invalid extent %v accepted", e)
		}
	}
}

func TestDragLifecycle(t *testing.T) {
	sim := force.FromView(testView(t), force.Config{Seed: 1})
	sim.Settle(0)
	if sim.Active() {
		t.Fatal("expected cooled run")
	}

	var d Drag
	id := graph.PersonID("Ada")
	if err := d.Move(1, 2); !errors.Is(err, ErrNotDragging) {
		t.Errorf("Move while idle = %v", err)
	}
	if err := d.End(sim); !errors.Is(err, ErrNotDragging) {
		t.Errorf("End while idle = %v", err)
	}
	if err := d.Start(sim, "person:nobody"); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("Start unknown = %v", err)
	}

	n, _ := sim.Node(id)
	x0, y0 := n.X, n.Y
	if err := d.Start(sim, id); err != nil {
		t.Fatal(err)
	}
	if !d.Active() || d.NodeID() != id {
		t.Error("drag not active")
	}
	if p, ok := n.Pinned(); !ok || p.X != x0 || p.Y != y0 {
		t.Errorf("pin = %v %v, want current position", p, ok)
	}
	if !sim.Active() || sim.AlphaTarget() != force.DragAlphaTarget {
		t.Error("cooled run not reheated by drag")
	}
	if err := d.Start(sim, id); !errors.Is(err, ErrAlreadyDragging) {
		t.Errorf("second Start = %v", err)
	}

	if err := d.Move(400, 300); err != nil {
		t.Fatal(err)
	}
	for range 10 {
		sim.Step()
	}
	if n.X != 400 || n.Y != 300 {
		t.Errorf("dragged node at (%g, %g), want (400, 300)", n.X, n.Y)
	}

	if err := d.End(sim); err != nil {
		t.Fatal(err)
	}
	if _, ok := n.Pinned(); ok {
		t.Error("pin not cleared on release")
	}
	if d.Active() || sim.AlphaTarget() != 0 {
		t.Error("drag state not reset")
	}
	for range 10 {
		sim.Step()
	}
	if n.X == 400 && n.Y == 300 {
		t.Error("released node did not move")
	}
}

func TestDragReset(t *testing.T) {
	sim := force.FromView(testView(t), force.Config{})
	var d Drag
	if err := d.Start(sim, graph.TopicID("graphs")); err != nil {
		t.Fatal(err)
	}
	d.Reset()
	if d.Active() {
		t.Error("Reset left drag active")
	}
}

func TestHighlight(t *testing.T) {
	v := testView(t)
	graphs := graph.TopicID("graphs")

	h := HighlightNode(v, graphs)
	if !h.HasNode(graphs) || len(h.Edges) != 2 {
		t.Errorf("node highlight = %+v", h)
	}
	if h.HasNode(graph.PersonID("Ada")) {
		t.Error("neighbour node should not be highlighted")
	}

	e := graph.Edge{Source: graph.PersonID("Ada"), Target: graph.TopicID("layout")}
	h = HighlightEdge(e)
	if !h.HasEdge(e) || !h.HasNode(e.Source) || !h.HasNode(e.Target) || len(h.Nodes) != 2 {
		t.Errorf("edge highlight = %+v", h)
	}

	h = HighlightGroup(graph.Group{ID: "group:0", Members: []string{"person:a", "person:b"}})
	if h.Group != "group:0" || len(h.Nodes) != 2 {
		t.Errorf("group highlight = %+v", h)
	}

	if !(Highlight{}).IsEmpty() {
		t.Error("zero highlight not empty")
	}
}

func TestHighlightWithin(t *testing.T) {
	v := testView(t)
	h := HighlightNode(v, graph.PersonID("Bob"))
	if got := h.Within(filter.View{}); !got.IsEmpty() {
		t.Errorf("highlight survived empty view: %+v", got)
	}
	if got := h.Within(v); len(got.Edges) != 1 {
		t.Errorf("highlight lost visible edges: %+v", got)
	}
}

func TestFocus(t *testing.T) {
	start := time.Unix(0, 0)
	vp := Viewport{Width: 1200, Height: 700}
	p := force.Point{X: 100, Y: 100}
	f := FocusOn(Identity, p, vp, DefaultFocusScale, DefaultZoomExtent, start, DefaultFocusDuration)

	if got, done := f.At(start); done || got != Identity {
		t.Errorf("At(start) = %+v %v", got, done)
	}

	mid, done := f.At(start.Add(DefaultFocusDuration / 2))
	if done {
		t.Error("finished halfway")
	}
	if !near(mid.K, (1+DefaultFocusScale)/2) {
		t.Errorf("midpoint K = %g", mid.K)
	}

	end, done := f.At(start.Add(DefaultFocusDuration))
	if !done {
		t.Error("not finished after duration")
	}
	if c := end.Apply(p); !near(c.X, 600) || !near(c.Y, 350) {
		t.Errorf("focused point at %v, want viewport centre", c)
	}
	if end.K != DefaultFocusScale {
		t.Errorf("K = %g, want %g", end.K, DefaultFocusScale)
	}

	// Bounded: every intermediate scale stays between the endpoints.
	for i := range 20 {
		tr, _ := f.At(start.Add(time.Duration(i) * DefaultFocusDuration / 20))
		if tr.K < 1-1e-9 || tr.K > DefaultFocusScale+1e-9 {
			t.Errorf("step %d K = %g out of range", i, tr.K)
		}
	}
}

func TestFocusZeroDuration(t *testing.T) {
	f := FocusOn(Identity, force.Point{}, Viewport{Width: 10, Height: 10}, 10, DefaultZoomExtent, time.Now(), 0)
	got, done := f.At(time.Now())
	if !done || got.K != 4 {
		t.Errorf("At = %+v %v, want clamped immediate result", got, done)
	}
}

func TestEaseCubicInOut(t *testing.T) {
	for _, tc := range []struct{ in, want float64 }{{0, 0}, {0.5, 0.5}, {1, 1}, {0.25, 0.0625}} {
		if got := EaseCubicInOut(tc.in); !near(got, tc.want) {
			t.Errorf("EaseCubicInOut(%g) = %g, want %g", tc.in, got, tc.want)
		}
	}
}
