// Package render converts rendered graphs between output formats.
//
// # Overview
//
// Rendering happens in two subpackages:
//
//   - [sink]: the interactive SVG surface drawn from a viewer frame,
//     plus its JSON projection and the error surface
//   - [nodelink]: a static Graphviz drawing of the visible subgraph
//
// Both produce SVG. [ToPDF] and [ToPNG] convert any SVG to other formats
// using the external rsvg-convert tool (from librsvg):
//
//	svg := sink.RenderSVG(frame)
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0)  // 2x scale
//
// When rsvg-convert is missing both functions return an UNSUPPORTED error;
// [Available] lets callers check up front.
//
// [sink]: github.com/matzehuels/contribnet/pkg/render/sink
// [nodelink]: github.com/matzehuels/contribnet/pkg/render/nodelink
package render
