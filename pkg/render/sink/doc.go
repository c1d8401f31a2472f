// Package sink draws viewer frames.
//
// # Overview
//
// A "sink" turns a [viewer.Frame] into a final output format:
//
//   - SVG: the render surface, with legend, labels, hulls and info panel
//   - JSON: node positions and edges for external tools
//   - Error: the surface shown when the dataset could not be loaded
//
// # SVG Output
//
// [RenderSVG] draws everything that moves inside one transformed group so the
// frame's zoom transform applies to hulls, edges, nodes and labels alike.
// The legend and info panel are drawn in screen space on top.
//
// Node shapes follow the contributor's origin: internal contributors are
// circles, external contributors are squares and topics are diamonds.
// Contributors are colored by their first category through [Palette];
// topics are grey.
//
//	svg := sink.RenderSVG(frame,
//	    sink.WithInteraction("/api/sessions/"+id),
//	)
//
// # SVG Options
//
//   - [WithInteraction]: embed the script that posts viewer actions
//   - [WithPalette]: override the category palette
//   - [WithoutLegend]: omit the legend (static exports)
//   - [WithoutInfo]: omit the info panel
//
// # Labels
//
// [WrapLabel] splits a name into at most two lines of 15 characters,
// truncating the second line with "..." when the name does not fit.
package sink
