// Package filter computes the visible subgraph for a set of active filters.
//
// Filters combine per dimension with union semantics (a contributor passes a
// dimension when it matches any active value) and across dimensions with
// intersection. Topics are never filtered directly: a topic is visible only
// when at least one visible contributor links to it, so the output never
// contains orphan topics.
package filter

import (
	"maps"
	"slices"

	"github.com/matzehuels/contribnet/pkg/graph"
)

// EmptyCategoryPolicy decides what an empty active category set means.
type EmptyCategoryPolicy int

const (
	// EmptyNone lets no contributor pass when no category is active.
	EmptyNone EmptyCategoryPolicy = iota
	// EmptyAll disables the category dimension when no category is active.
	EmptyAll
)

// String implements fmt.Stringer.
func (p EmptyCategoryPolicy) String() string {
	if p == EmptyAll {
		return "all"
	}
	return "none"
}

// ParsePolicy parses "none" or "all". Unknown values return EmptyNone and false.
func ParsePolicy(s string) (EmptyCategoryPolicy, bool) {
	switch s {
	case "", "none":
		return EmptyNone, true
	case "all":
		return EmptyAll, true
	}
	return EmptyNone, false
}

// State is the set of active filter values. The zero value shows nothing;
// use [Defaults] for the startup state.
type State struct {
	Sources    map[string]bool
	Categories map[string]bool
	// Topic restricts contributors to those linked to this topic id. Empty
	// means no restriction.
	Topic string
}

// Defaults returns the startup state: every source and category in g active.
func Defaults(g *graph.Graph) State {
	s := State{Sources: map[string]bool{}, Categories: map[string]bool{}}
	for _, src := range g.Sources() {
		s.Sources[src] = true
	}
	for _, c := range g.Categories() {
		s.Categories[c] = true
	}
	return s
}

// Clone returns a deep copy.
func (s State) Clone() State {
	return State{
		Sources:    maps.Clone(s.Sources),
		Categories: maps.Clone(s.Categories),
		Topic:      s.Topic,
	}
}

// ToggleSource flips a source and reports whether it is now active.
func (s *State) ToggleSource(v string) bool { return toggle(&s.Sources, v) }

// ToggleCategory flips a category and reports whether it is now active.
func (s *State) ToggleCategory(v string) bool { return toggle(&s.Categories, v) }

// SetTopic restricts the view to one topic id; "" clears the restriction.
func (s *State) SetTopic(id string) { s.Topic = id }

// ActiveSources returns the active sources, sorted.
func (s State) ActiveSources() []string { return active(s.Sources) }

// ActiveCategories returns the active categories, sorted.
func (s State) ActiveCategories() []string { return active(s.Categories) }

func toggle(m *map[string]bool, v string) bool {
	if *m == nil {
		*m = map[string]bool{}
	}
	if (*m)[v] {
		delete(*m, v)
		return false
	}
	(*m)[v] = true
	return true
}

func active(m map[string]bool) []string {
	var out []string
	for k, on := range m {
		if on {
			out = append(out, k)
		}
	}
	slices.Sort(out)
	return out
}

// Apply computes the visible subgraph of g under s.
func Apply(g *graph.Graph, s State, policy EmptyCategoryPolicy) View {
	selected := make(map[string]bool)
	for _, n := range g.Nodes {
		if n.IsPerson() && s.passes(n, policy) {
			selected[n.ID] = true
		}
	}

	if s.Topic != "" {
		linked := make(map[string]bool)
		for _, e := range g.Edges {
			if e.Target == s.Topic && selected[e.Source] {
				linked[e.Source] = true
			}
		}
		selected = linked
	}

	retained := make(map[string]bool)
	for _, e := range g.Edges {
		if selected[e.Source] {
			retained[e.Target] = true
		}
	}

	v := View{Nodes: []graph.Node{}, Edges: []graph.Edge{}}
	for _, e := range g.Edges {
		if selected[e.Source] && retained[e.Target] {
			v.Edges = append(v.Edges, e)
		}
	}
	for _, n := range g.Nodes {
		if selected[n.ID] || (n.IsTopic() && retained[n.ID]) {
			v.Nodes = append(v.Nodes, n)
		}
	}
	return v
}

func (s State) passes(n graph.Node, policy EmptyCategoryPolicy) bool {
	if !s.Sources[n.Source] {
		return false
	}
	if len(active(s.Categories)) == 0 {
		return policy == EmptyAll
	}
	for _, c := range n.Categories {
		if s.Categories[c] {
			return true
		}
	}
	return false
}
