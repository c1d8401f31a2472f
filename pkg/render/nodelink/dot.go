package nodelink

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/contribnet/pkg/filter"
	"github.com/matzehuels/contribnet/pkg/graph"
	"github.com/matzehuels/contribnet/pkg/render"
	"github.com/matzehuels/contribnet/pkg/render/sink"
)

// Engine names a Graphviz layout engine.
type Engine string

const (
	EngineNeato Engine = "neato"
	EngineFDP   Engine = "fdp"
	EngineDot   Engine = "dot"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds affiliation and categories to contributor labels.
	// When false, only the name is shown.
	Detailed bool

	// Engine selects the Graphviz layout. Defaults to neato, the
	// spring model closest to the interactive layout.
	Engine Engine
}

// ToDOT converts the visible subgraph of g to Graphviz DOT format.
// Internal contributors are ellipses, external contributors boxes and topics
// diamonds; contributors are filled with their first category's color.
func ToDOT(v filter.View, g *graph.Graph, opts Options) string {
	categories := g.Categories()
	palette := sink.Palette(sink.Set3)

	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	fmt.Fprintf(&buf, "  layout=%s;\n", cmp.Or(opts.Engine, EngineNeato))
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  overlap=false;\n")
	buf.WriteString("  splines=true;\n")
	buf.WriteString("  node [style=filled, fontname=\"Helvetica\", fontsize=12, penwidth=0];\n")
	buf.WriteString("  edge [color=\"#bdc3c7\"];\n")
	buf.WriteString("\n")

	for _, n := range v.Nodes {
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(fmtAttrs(g, n, opts.Detailed, categories, palette), ", "))
	}

	buf.WriteString("\n")
	for _, e := range v.Edges {
		fmt.Fprintf(&buf, "  %q -- %q;\n", e.Source, e.Target)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(g *graph.Graph, n graph.Node, detailed bool) string {
	if !detailed || !n.IsPerson() {
		return n.Name
	}
	parts := []string{n.Name}
	if p, ok := g.People[n.ID]; ok && p.Affiliation != "" {
		parts = append(parts, p.Affiliation)
	}
	if len(n.Categories) > 0 {
		parts = append(parts, strings.Join(n.Categories, ", "))
	}
	return strings.Join(parts, "\n")
}

func fmtAttrs(g *graph.Graph, n graph.Node, detailed bool, categories []string, p sink.Palette) []string {
	attrs := []string{fmt.Sprintf("label=%q", fmtLabel(g, n, detailed))}
	switch {
	case n.IsTopic():
		attrs = append(attrs, "shape=diamond", fmt.Sprintf("fillcolor=%q", sink.TopicColor), "fontcolor=\"#2c3e50\"")
	case n.Source == sink.SourceInternal:
		attrs = append(attrs, "shape=ellipse")
	default:
		attrs = append(attrs, "shape=box")
	}
	if n.IsPerson() {
		color := p.Color(slices.Index(categories, n.PrimaryCategory()))
		attrs = append(attrs, fmt.Sprintf("fillcolor=%q", color))
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with [render.ToPDF] or [render.ToPNG].
func RenderSVG(ctx context.Context, dot string, engine Engine) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(layoutFor(engine))

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

func layoutFor(e Engine) graphviz.Layout {
	switch e {
	case EngineFDP:
		return graphviz.FDP
	case EngineDot:
		return graphviz.DOT
	default:
		return graphviz.NEATO
	}
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(ctx context.Context, dot string, engine Engine) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot, engine)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion.
// A scale of 2.0 produces a 2x resolution image suitable for high-DPI displays.
func RenderPNG(ctx context.Context, dot string, engine Engine, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot, engine)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}
