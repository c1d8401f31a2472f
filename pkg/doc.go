// Package pkg provides the core libraries for contribnet contributor network
// visualization.
//
// # Overview
//
// contribnet reads contribution datasets and draws the people and topics they
// mention as a force-directed graph. The pkg directory is organized into:
//
//  1. Domain: [contrib], [graph], [filter], [force], [interact]
//  2. Surfaces: [viewer], [render/sink], [render/nodelink]
//  3. Orchestration: [pipeline]
//  4. Infrastructure: [cache], [session], [httputil], [config], [errors],
//     [observability], [buildinfo]
//  5. Transport: [server]
//
// # Architecture
//
// The typical data flow:
//
//	dataset (JSON, YAML, CSV, file or URL)
//	         ↓
//	    [contrib] (decode and validate records)
//	         ↓
//	    [graph] (person and topic nodes, links, groups)
//	         ↓
//	    [filter] + [force] (visible subgraph, simulation)
//	         ↓
//	    [viewer] (frames, actions) → [server] / terminal explorer
//	         ↓
//	    [render/sink] SVG, JSON, PNG, PDF
//
// # Quick Start
//
//	runner := pipeline.NewRunner(nil, nil, logger)
//	res, err := runner.Execute(ctx, pipeline.Options{
//	    Dataset: []string{"contributions.json"},
//	    Formats: []string{pipeline.FormatSVG},
//	})
//	os.WriteFile("network.svg", res.Artifacts[pipeline.FormatSVG], 0o644)
//
// Interactive sessions go through [viewer]:
//
//	v := viewer.New(loaded.Graph, viewer.Options{})
//	v.Update(viewer.ClickNode{Node: "topic:graphs"})
//	frame := v.Frame()
//
// # Testing
//
//	go test ./...
//
// [contrib]: https://pkg.go.dev/github.com/matzehuels/contribnet/pkg/contrib
// [graph]: https://pkg.go.dev/github.com/matzehuels/contribnet/pkg/graph
// [filter]: https://pkg.go.dev/github.com/matzehuels/contribnet/pkg/filter
// [force]: https://pkg.go.dev/github.com/matzehuels/contribnet/pkg/force
// [interact]: https://pkg.go.dev/github.com/matzehuels/contribnet/pkg/interact
// [viewer]: https://pkg.go.dev/github.com/matzehuels/contribnet/pkg/viewer
// [render/sink]: https://pkg.go.dev/github.com/matzehuels/contribnet/pkg/render/sink
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/contribnet/pkg/render/nodelink
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/contribnet/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/contribnet/pkg/cache
// [session]: https://pkg.go.dev/github.com/matzehuels/contribnet/pkg/session
// [httputil]: https://pkg.go.dev/github.com/matzehuels/contribnet/pkg/httputil
// [config]: https://pkg.go.dev/github.com/matzehuels/contribnet/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/contribnet/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/contribnet/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/contribnet/pkg/buildinfo
// [server]: https://pkg.go.dev/github.com/matzehuels/contribnet/pkg/server
package pkg
