package viewer

import (
	"cmp"
	"slices"

	"github.com/matzehuels/contribnet/pkg/filter"
	"github.com/matzehuels/contribnet/pkg/force"
	"github.com/matzehuels/contribnet/pkg/graph"
	"github.com/matzehuels/contribnet/pkg/interact"
)

// Frame is an immutable snapshot of everything a surface draws. Positions
// are simulation coordinates; surfaces apply Transform themselves.
type Frame struct {
	Seq       uint64             `json:"seq"`
	Width     float64            `json:"width"`
	Height    float64            `json:"height"`
	Transform interact.Transform `json:"transform"`

	Nodes []FrameNode `json:"nodes"`
	Edges []FrameEdge `json:"edges"`
	Hulls []Hull      `json:"hulls,omitempty"`

	Labels bool         `json:"labels"`
	Info   *Info        `json:"info,omitempty"`
	Legend Legend       `json:"legend"`
	Stats  filter.Stats `json:"stats"`

	Alpha  float64 `json:"alpha"`
	Active bool    `json:"active"`

	Error string `json:"error,omitempty"`
}

// FrameNode is a positioned node.
type FrameNode struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Kind        graph.Kind `json:"kind"`
	Source      string     `json:"source,omitempty"`
	Category    string     `json:"category,omitempty"`
	X           float64    `json:"x"`
	Y           float64    `json:"y"`
	Degree      int        `json:"degree"`
	Pinned      bool       `json:"pinned,omitempty"`
	Highlighted bool       `json:"highlighted,omitempty"`
}

// FrameEdge is a positioned edge.
type FrameEdge struct {
	Source      string  `json:"source"`
	Target      string  `json:"target"`
	X1          float64 `json:"x1"`
	Y1          float64 `json:"y1"`
	X2          float64 `json:"x2"`
	Y2          float64 `json:"y2"`
	Highlighted bool    `json:"highlighted,omitempty"`
}

// Hull is the outline of a collective contribution's visible members.
type Hull struct {
	ID          string        `json:"id"`
	Members     []string      `json:"members"`
	Points      []force.Point `json:"points"`
	Highlighted bool          `json:"highlighted,omitempty"`
}

// LegendEntry is one filter value.
type LegendEntry struct {
	Value  string `json:"value"`
	Active bool   `json:"active"`
	Count  int    `json:"count"`
}

// TopicOption is one entry of the topic selector.
type TopicOption struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// Legend lists every filter value of the graph with its state.
type Legend struct {
	Sources    []LegendEntry `json:"sources"`
	Categories []LegendEntry `json:"categories"`
	Topics     []TopicOption `json:"topics"`
}

// CategoryIndex returns the position of a category in the legend, used for
// stable color assignment. Unknown categories return -1.
func (l Legend) CategoryIndex(c string) int {
	return slices.IndexFunc(l.Categories, func(e LegendEntry) bool { return e.Value == c })
}

// Node returns the frame node with the given id.
func (f Frame) Node(id string) (FrameNode, bool) {
	i := slices.IndexFunc(f.Nodes, func(n FrameNode) bool { return n.ID == id })
	if i < 0 {
		return FrameNode{}, false
	}
	return f.Nodes[i], true
}

// Failed reports whether the frame shows the error state.
func (f Frame) Failed() bool { return f.Error != "" }

// buildLegend summarizes the filter values of g under s.
func buildLegend(g *graph.Graph, s filter.State) Legend {
	sources := map[string]int{}
	categories := map[string]int{}
	for _, n := range g.Nodes {
		if !n.IsPerson() {
			continue
		}
		sources[n.Source]++
		for _, c := range n.Categories {
			categories[c]++
		}
	}

	l := Legend{Sources: []LegendEntry{}, Categories: []LegendEntry{}, Topics: []TopicOption{}}
	for _, v := range g.Sources() {
		l.Sources = append(l.Sources, LegendEntry{Value: v, Active: s.Sources[v], Count: sources[v]})
	}
	for _, v := range g.Categories() {
		l.Categories = append(l.Categories, LegendEntry{Value: v, Active: s.Categories[v], Count: categories[v]})
	}
	for _, n := range g.Nodes {
		if n.IsTopic() {
			l.Topics = append(l.Topics, TopicOption{ID: n.ID, Name: n.Name, Active: s.Topic == n.ID})
		}
	}
	slices.SortFunc(l.Topics, func(a, b TopicOption) int { return cmp.Compare(a.Name, b.Name) })
	return l
}

// convexHull returns the hull of pts in counter-clockwise order using the
// monotone chain algorithm. Collinear points are dropped.
func convexHull(pts []force.Point) []force.Point {
	pts = slices.Clone(pts)
	slices.SortFunc(pts, func(a, b force.Point) int {
		return cmp.Or(cmp.Compare(a.X, b.X), cmp.Compare(a.Y, b.Y))
	})
	pts = slices.Compact(pts)
	if len(pts) < 3 {
		return pts
	}

	cross := func(o, a, b force.Point) float64 {
		return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
	}
	hull := make([]force.Point, 0, 2*len(pts))
	for _, p := range pts {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(pts) - 2; i >= 0; i-- {
		p := pts[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull[:len(hull)-1]
}
