// Package nodelink renders the visible contributor graph as a static
// Graphviz diagram.
//
// # Overview
//
// The interactive surface lays the graph out with its own force simulation.
// This package hands the same visible subgraph to Graphviz instead, which is
// useful for print exports and for comparing layouts.
//
// # Usage
//
// Convert a filtered view to DOT format, then render to SVG:
//
//	dot := nodelink.ToDOT(view, g, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot, nodelink.EngineNeato)
//
// For PDF or PNG output:
//
//	pdf, err := nodelink.RenderPDF(ctx, dot, nodelink.EngineNeato)
//	png, err := nodelink.RenderPNG(ctx, dot, nodelink.EngineNeato, 2.0)
//
// # Shapes
//
// Shapes mirror the interactive surface: internal contributors are ellipses,
// external contributors boxes and topics diamonds. Contributors are filled
// with the color of their first category.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package nodelink
