package pipeline

import (
	"encoding/json"
	"time"

	"github.com/matzehuels/contribnet/pkg/filter"
	"github.com/matzehuels/contribnet/pkg/force"
	"github.com/matzehuels/contribnet/pkg/graph"
	"github.com/matzehuels/contribnet/pkg/render/nodelink"
	"github.com/matzehuels/contribnet/pkg/viewer"
)

// =============================================================================
// Layout
// =============================================================================

// Layout is the serializable outcome of the layout stage. Force layouts
// carry settled positions; nodelink layouts carry DOT source that Graphviz
// positions at render time.
type Layout struct {
	VizType   string                 `json:"viz_type"`
	Width     float64                `json:"width"`
	Height    float64                `json:"height"`
	Seed      uint64                 `json:"seed"`
	Ticks     int                    `json:"ticks,omitempty"`
	Cooled    bool                   `json:"cooled,omitempty"`
	Visible   []string               `json:"visible"`
	Positions map[string]force.Point `json:"positions,omitempty"`
	DOT       string                 `json:"dot,omitempty"`
	Engine    string                 `json:"engine,omitempty"`
}

// MarshalLayout serializes a layout for caching.
func MarshalLayout(l Layout) ([]byte, error) { return json.Marshal(l) }

// UnmarshalLayout reads a layout written by [MarshalLayout].
func UnmarshalLayout(data []byte) (Layout, error) {
	var l Layout
	err := json.Unmarshal(data, &l)
	return l, err
}

// GenerateLayout computes the layout of the filtered graph for any
// visualization type.
func GenerateLayout(g *graph.Graph, opts Options) (Layout, error) {
	if opts.IsNodelink() {
		return generateNodelinkLayout(g, opts), nil
	}
	return generateForceLayout(g, opts), nil
}

// =============================================================================
// Force
// =============================================================================

// generateForceLayout runs the interactive viewer headless: the same filter
// and simulation wiring the browser sees, settled to rest.
func generateForceLayout(g *graph.Graph, opts Options) Layout {
	state := opts.FilterState(g)
	v := viewer.New(g, viewer.Options{
		Force:  opts.ForceConfig(),
		Policy: opts.PolicyValue(),
		Filter: &state,
		Logger: opts.Logger,
		Now:    func() time.Time { return time.Time{} },
	})
	defer v.Close()

	sim := v.Simulation()
	start := time.Now()
	ticks := sim.Settle(opts.MaxTicks)
	opts.Logger.Debug("settled simulation",
		"nodes", len(sim.Nodes()),
		"ticks", ticks,
		"alpha", sim.Alpha(),
		"duration", time.Since(start))

	return Layout{
		VizType:   VizTypeForce,
		Width:     opts.Width,
		Height:    opts.Height,
		Seed:      opts.Seed,
		Ticks:     ticks,
		Cooled:    !sim.Active(),
		Visible:   v.View().IDs(),
		Positions: sim.Positions(),
	}
}

// =============================================================================
// Nodelink
// =============================================================================

func generateNodelinkLayout(g *graph.Graph, opts Options) Layout {
	view := filter.Apply(g, opts.FilterState(g), opts.PolicyValue())
	dot := nodelink.ToDOT(view, g, nodelink.Options{
		Detailed: opts.Detailed,
		Engine:   nodelink.Engine(opts.Engine),
	})
	return Layout{
		VizType: VizTypeNodelink,
		Width:   opts.Width,
		Height:  opts.Height,
		Seed:    opts.Seed,
		Visible: view.IDs(),
		DOT:     dot,
		Engine:  opts.Engine,
	}
}
