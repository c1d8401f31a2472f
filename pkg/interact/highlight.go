package interact

import (
	"github.com/matzehuels/contribnet/pkg/filter"
	"github.com/matzehuels/contribnet/pkg/graph"
)

// Highlight is the set of elements emphasized by a hover. Only one set is
// highlighted at a time; the zero value highlights nothing.
type Highlight struct {
	Nodes map[string]bool
	Edges map[graph.Edge]bool
	Group string
}

// HighlightNode highlights a node and its incident edges in the view.
func HighlightNode(v filter.View, id string) Highlight {
	h := Highlight{Nodes: map[string]bool{id: true}, Edges: map[graph.Edge]bool{}}
	for _, e := range v.Edges {
		if e.Source == id || e.Target == id {
			h.Edges[e] = true
		}
	}
	return h
}

// HighlightEdge highlights an edge and both endpoints.
func HighlightEdge(e graph.Edge) Highlight {
	return Highlight{
		Nodes: map[string]bool{e.Source: true, e.Target: true},
		Edges: map[graph.Edge]bool{e: true},
	}
}

// HighlightGroup highlights a collective contribution and its members.
func HighlightGroup(g graph.Group) Highlight {
	h := Highlight{Nodes: map[string]bool{}, Group: g.ID}
	for _, m := range g.Members {
		h.Nodes[m] = true
	}
	return h
}

// IsEmpty reports whether nothing is highlighted.
func (h Highlight) IsEmpty() bool { return len(h.Nodes) == 0 && len(h.Edges) == 0 && h.Group == "" }

// HasNode reports whether the node is highlighted.
func (h Highlight) HasNode(id string) bool { return h.Nodes[id] }

// HasEdge reports whether the edge is highlighted.
func (h Highlight) HasEdge(e graph.Edge) bool { return h.Edges[e] }

// Within drops highlighted elements that are no longer visible.
func (h Highlight) Within(v filter.View) Highlight {
	if h.IsEmpty() {
		return h
	}
	out := Highlight{Nodes: map[string]bool{}, Edges: map[graph.Edge]bool{}, Group: h.Group}
	for id := range h.Nodes {
		if v.Contains(id) {
			out.Nodes[id] = true
		}
	}
	for _, e := range v.Edges {
		if h.Edges[e] {
			out.Edges[e] = true
		}
	}
	if len(out.Nodes) == 0 && len(out.Edges) == 0 {
		return Highlight{}
	}
	return out
}
