package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/contribnet/pkg/errors"
)

// =============================================================================
// Graph Serialization API
// =============================================================================

// MarshalGraph converts a graph to node-link JSON bytes.
func MarshalGraph(g *Graph) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeGraphTo(g, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteGraphFile writes a graph to a JSON file.
func WriteGraphFile(g *Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return writeGraphTo(g, f)
}

// WriteGraph writes a graph as JSON to an io.Writer.
func WriteGraph(g *Graph, w io.Writer) error {
	return writeGraphTo(g, w)
}

// ReadGraphFile reads a node-link JSON file written by [WriteGraphFile].
func ReadGraphFile(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return readGraphFrom(f)
}

// ReadGraph decodes a node-link JSON graph. The lookup tables are rebuilt
// from the nodes and edges and the result is validated.
func ReadGraph(r io.Reader) (*Graph, error) {
	return readGraphFrom(r)
}

// =============================================================================
// Internal Implementation
// =============================================================================

func writeGraphTo(g *Graph, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(g); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func readGraphFrom(r io.Reader) (*Graph, error) {
	var g Graph
	if err := json.NewDecoder(r).Decode(&g); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode graph")
	}
	if g.Nodes == nil {
		g.Nodes = []Node{}
	}
	if g.Edges == nil {
		g.Edges = []Edge{}
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	g.reindex()
	g.rebuildLookups()
	return &g, nil
}

// rebuildLookups derives People and Topics from nodes and edges.
func (g *Graph) rebuildLookups() {
	g.People = make(map[string]PersonInfo)
	g.Topics = make(map[string]TopicInfo)
	for _, n := range g.Nodes {
		switch n.Kind {
		case KindPerson:
			info := PersonInfo{
				Name:        n.Name,
				Affiliation: n.Affiliation,
				Contact:     n.Contact,
				Source:      n.Source,
				Categories:  n.Categories,
				Format:      n.Format,
			}
			for _, tid := range n.Topics {
				if t, ok := g.Node(tid); ok {
					info.Topics = append(info.Topics, t.Name)
				}
			}
			g.People[n.ID] = info
		case KindTopic:
			g.Topics[n.ID] = TopicInfo{Name: n.Name}
		}
	}
	for _, e := range g.Edges {
		p, _ := g.Node(e.Source)
		t := g.Topics[e.Target]
		t.Persons = append(t.Persons, ContactRef{ID: p.ID, Name: p.Name, Contact: p.Contact})
		g.Topics[e.Target] = t
	}
}
