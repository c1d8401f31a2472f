package filter

import (
	"cmp"
	"slices"

	"github.com/matzehuels/contribnet/pkg/graph"
)

// View is a visible subgraph. Nodes and edges keep the order of the source
// graph.
type View struct {
	Nodes []graph.Node
	Edges []graph.Edge
}

// Stats counts what a view shows.
type Stats struct {
	Contributors int `json:"contributors"`
	Topics       int `json:"topics"`
	Connections  int `json:"connections"`
}

// Stats counts contributors, topics and connections.
func (v View) Stats() Stats {
	var s Stats
	for _, n := range v.Nodes {
		if n.IsPerson() {
			s.Contributors++
		} else {
			s.Topics++
		}
	}
	s.Connections = len(v.Edges)
	return s
}

// IsEmpty reports whether the view shows nothing.
func (v View) IsEmpty() bool { return len(v.Nodes) == 0 }

// Contains reports whether the node id is visible.
func (v View) Contains(id string) bool {
	return slices.ContainsFunc(v.Nodes, func(n graph.Node) bool { return n.ID == id })
}

// IDs returns the visible node ids, sorted.
func (v View) IDs() []string {
	ids := make([]string, len(v.Nodes))
	for i, n := range v.Nodes {
		ids[i] = n.ID
	}
	slices.Sort(ids)
	return ids
}

// Equal reports whether both views show the same node and edge sets,
// ignoring order.
func (v View) Equal(o View) bool {
	if !slices.Equal(v.IDs(), o.IDs()) {
		return false
	}
	return slices.Equal(sortedEdges(v.Edges), sortedEdges(o.Edges))
}

// Degree returns the in-view degree of a node.
func (v View) Degree(id string) int {
	d := 0
	for _, e := range v.Edges {
		if e.Source == id || e.Target == id {
			d++
		}
	}
	return d
}

func sortedEdges(edges []graph.Edge) []graph.Edge {
	out := slices.Clone(edges)
	slices.SortFunc(out, func(a, b graph.Edge) int {
		return cmp.Or(cmp.Compare(a.Source, b.Source), cmp.Compare(a.Target, b.Target))
	})
	return out
}
