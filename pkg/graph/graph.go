package graph

import (
	"maps"
	"slices"
	"strings"

	"github.com/matzehuels/contribnet/pkg/contrib"
	"github.com/matzehuels/contribnet/pkg/errors"
)

// Kind distinguishes contributors from topics.
type Kind string

const (
	KindPerson Kind = "person"
	KindTopic  Kind = "topic"
)

// Unspecified is the category assigned when a record names none and has no format.
const Unspecified = "unspecified"

// Node is a vertex of the contribution network.
type Node struct {
	ID   string `json:"id"`
	Kind Kind   `json:"kind"`
	Name string `json:"name"`

	// Person attributes; empty for topics.
	Source      string         `json:"source,omitempty"`
	Categories  []string       `json:"categories,omitempty"`
	Topics      []string       `json:"topics,omitempty"`
	Affiliation string         `json:"affiliation,omitempty"`
	Contact     string         `json:"contact,omitempty"`
	Format      contrib.Format `json:"format,omitzero"`
}

// IsPerson reports whether the node is a contributor.
func (n Node) IsPerson() bool { return n.Kind == KindPerson }

// IsTopic reports whether the node is a topic.
func (n Node) IsTopic() bool { return n.Kind == KindTopic }

// HasCategory reports whether the node carries the category tag.
func (n Node) HasCategory(c string) bool { return slices.Contains(n.Categories, c) }

// PrimaryCategory returns the first category, used for coloring.
func (n Node) PrimaryCategory() string {
	if len(n.Categories) == 0 {
		return ""
	}
	return n.Categories[0]
}

// Edge links a person (Source) to a topic (Target).
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// ContactRef is a contributor listed on a topic.
type ContactRef struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Contact string `json:"contact,omitempty"`
}

// PersonInfo is the lookup entry for a contributor.
type PersonInfo struct {
	Name        string         `json:"name"`
	Affiliation string         `json:"affiliation,omitempty"`
	Contact     string         `json:"contact,omitempty"`
	Source      string         `json:"source"`
	Categories  []string       `json:"categories"`
	Topics      []string       `json:"topics"`
	Format      contrib.Format `json:"format"`
}

// TopicInfo is the lookup entry for a topic.
type TopicInfo struct {
	Name    string       `json:"name"`
	Persons []ContactRef `json:"persons"`
}

// Group is a collective contribution: two or more people on one record.
type Group struct {
	ID      string         `json:"id"`
	Members []string       `json:"members"`
	Topics  []string       `json:"topics"`
	Format  contrib.Format `json:"format"`
}

// Graph is an immutable snapshot of the contribution network.
type Graph struct {
	Nodes  []Node                `json:"nodes"`
	Edges  []Edge                `json:"edges"`
	People map[string]PersonInfo `json:"-"`
	Topics map[string]TopicInfo  `json:"-"`
	Groups []Group               `json:"groups,omitempty"`

	index map[string]int
}

// PersonID returns the node id of a contributor name.
func PersonID(name string) string { return "person:" + strings.TrimSpace(name) }

// TopicID returns the node id of a topic name. Topic ids are case-insensitive.
func TopicID(name string) string { return "topic:" + strings.ToLower(strings.TrimSpace(name)) }

// Node returns the node with the given id.
func (g *Graph) Node(id string) (Node, bool) {
	i, ok := g.index[id]
	if !ok {
		return Node{}, false
	}
	return g.Nodes[i], true
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.Nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.Edges) }

// Categories returns every category used by a contributor, sorted.
func (g *Graph) Categories() []string {
	set := map[string]struct{}{}
	for _, n := range g.Nodes {
		for _, c := range n.Categories {
			set[c] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(set))
}

// Sources returns the sources present in the graph, sorted.
func (g *Graph) Sources() []string {
	set := map[string]struct{}{}
	for _, n := range g.Nodes {
		if n.IsPerson() {
			set[n.Source] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(set))
}

// TopicNames returns the display names of all topics, sorted.
func (g *Graph) TopicNames() []string {
	var names []string
	for _, n := range g.Nodes {
		if n.IsTopic() {
			names = append(names, n.Name)
		}
	}
	slices.Sort(names)
	return names
}

// Validate checks the structural invariants: unique ids, persons and topics
// only, every edge endpoint present, edges run person -> topic, no duplicates.
func (g *Graph) Validate() error {
	seen := make(map[string]Kind, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.ID == "" {
			return errors.New(errors.ErrCodeInternal, "node with empty id")
		}
		if n.Kind != KindPerson && n.Kind != KindTopic {
			return errors.New(errors.ErrCodeInternal, "node %q has unknown kind %q", n.ID, n.Kind)
		}
		if _, dup := seen[n.ID]; dup {
			return errors.New(errors.ErrCodeInternal, "duplicate node id %q", n.ID)
		}
		seen[n.ID] = n.Kind
	}

	edges := make(map[Edge]struct{}, len(g.Edges))
	for _, e := range g.Edges {
		sk, ok := seen[e.Source]
		if !ok {
			return errors.New(errors.ErrCodeInternal, "edge source %q not in graph", e.Source)
		}
		tk, ok := seen[e.Target]
		if !ok {
			return errors.New(errors.ErrCodeInternal, "edge target %q not in graph", e.Target)
		}
		if sk != KindPerson || tk != KindTopic {
			return errors.New(errors.ErrCodeInternal, "edge %s -> %s must link a person to a topic", e.Source, e.Target)
		}
		if _, dup := edges[e]; dup {
			return errors.New(errors.ErrCodeInternal, "duplicate edge %s -> %s", e.Source, e.Target)
		}
		edges[e] = struct{}{}
	}
	return nil
}

// reindex rebuilds the id -> position index.
func (g *Graph) reindex() {
	g.index = make(map[string]int, len(g.Nodes))
	for i, n := range g.Nodes {
		g.index[n.ID] = i
	}
}
