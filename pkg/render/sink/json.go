package sink

import (
	"encoding/json"

	"github.com/matzehuels/contribnet/pkg/filter"
	"github.com/matzehuels/contribnet/pkg/graph"
	"github.com/matzehuels/contribnet/pkg/interact"
	"github.com/matzehuels/contribnet/pkg/viewer"
)

type jsonOutput struct {
	Seq       uint64             `json:"seq"`
	Width     float64            `json:"width"`
	Height    float64            `json:"height"`
	Transform interact.Transform `json:"transform"`
	Labels    bool               `json:"labels"`
	Nodes     []jsonNode         `json:"nodes"`
	Edges     []jsonEdge         `json:"edges"`
	Stats     filter.Stats       `json:"stats"`
	Info      *viewer.Info       `json:"info,omitempty"`
	Active    bool               `json:"active"`
	Error     string             `json:"error,omitempty"`
}

type jsonNode struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Kind     graph.Kind `json:"kind"`
	Source   string     `json:"source,omitempty"`
	Category string     `json:"category,omitempty"`
	X        float64    `json:"x"`
	Y        float64    `json:"y"`
	Pinned   bool       `json:"pinned,omitempty"`
}

type jsonEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// RenderJSON exports the positions and edges of f as a pretty-printed JSON
// document. It does not modify f and is safe to call concurrently.
func RenderJSON(f viewer.Frame) ([]byte, error) {
	out := jsonOutput{
		Seq:       f.Seq,
		Width:     f.Width,
		Height:    f.Height,
		Transform: f.Transform,
		Labels:    f.Labels,
		Nodes:     make([]jsonNode, 0, len(f.Nodes)),
		Edges:     make([]jsonEdge, 0, len(f.Edges)),
		Stats:     f.Stats,
		Info:      f.Info,
		Active:    f.Active,
		Error:     f.Error,
	}
	for _, n := range f.Nodes {
		out.Nodes = append(out.Nodes, jsonNode{
			ID: n.ID, Name: n.Name, Kind: n.Kind,
			Source: n.Source, Category: n.Category,
			X: n.X, Y: n.Y, Pinned: n.Pinned,
		})
	}
	for _, e := range f.Edges {
		out.Edges = append(out.Edges, jsonEdge{Source: e.Source, Target: e.Target})
	}
	return json.MarshalIndent(out, "", "  ")
}
