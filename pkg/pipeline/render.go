package pipeline

import (
	"cmp"
	"context"
	"time"

	"github.com/matzehuels/contribnet/pkg/errors"
	"github.com/matzehuels/contribnet/pkg/filter"
	"github.com/matzehuels/contribnet/pkg/graph"
	"github.com/matzehuels/contribnet/pkg/render"
	"github.com/matzehuels/contribnet/pkg/render/nodelink"
	"github.com/matzehuels/contribnet/pkg/render/sink"
	"github.com/matzehuels/contribnet/pkg/viewer"
)

// Render generates output artifacts in the requested formats.
func Render(ctx context.Context, l Layout, g *graph.Graph, opts Options) (map[string][]byte, error) {
	if l.VizType == VizTypeNodelink {
		return RenderNodelink(ctx, l, opts)
	}
	return renderForce(ctx, l, g, opts)
}

// RenderNodelink generates nodelink outputs from a layout.
// The layout must be a nodelink layout (VizType = "nodelink") with a DOT string.
func RenderNodelink(ctx context.Context, l Layout, opts Options) (map[string][]byte, error) {
	if l.DOT == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "nodelink layout missing DOT source")
	}
	engine := nodelink.Engine(l.Engine)

	artifacts := make(map[string][]byte)
	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatSVG:
			data, err = nodelink.RenderSVG(ctx, l.DOT, engine)
		case FormatPNG:
			data, err = nodelink.RenderPNG(ctx, l.DOT, engine, opts.Scale)
		case FormatPDF:
			data, err = nodelink.RenderPDF(ctx, l.DOT, engine)
		case FormatDOT:
			data = []byte(l.DOT)
		case FormatJSON:
			data, err = MarshalLayout(l)
		default:
			return nil, errors.New(errors.ErrCodeUnsupported, "unsupported nodelink format: %s", format)
		}

		if err != nil {
			return nil, renderError(err, format)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

// Frame rebuilds the viewer frame of a settled force layout. The returned
// frame is inactive, so surfaces draw it as a still.
func Frame(l Layout, g *graph.Graph, opts Options) viewer.Frame {
	state := opts.FilterState(g)
	v := viewer.New(g, viewer.Options{
		Force:      opts.ForceConfig(),
		Policy:     opts.PolicyValue(),
		Filter:     &state,
		Positions:  l.Positions,
		HideLabels: opts.HideLabels,
		Logger:     opts.Logger,
		Now:        func() time.Time { return time.Time{} },
	})
	v.Close()
	return v.Frame()
}

// renderForce generates force outputs.
func renderForce(ctx context.Context, l Layout, g *graph.Graph, opts Options) (map[string][]byte, error) {
	frame := Frame(l, g, opts)

	var svgOpts []sink.SVGOption
	if opts.HideLegend {
		svgOpts = append(svgOpts, sink.WithoutLegend())
	}

	var svg []byte
	svgFor := func() []byte {
		if svg == nil {
			svg = sink.RenderSVG(frame, svgOpts...)
		}
		return svg
	}

	artifacts := make(map[string][]byte)
	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatSVG:
			data = svgFor()
		case FormatJSON:
			data, err = sink.RenderJSON(frame)
		case FormatDOT:
			view := filter.Apply(g, opts.FilterState(g), opts.PolicyValue())
			data = []byte(nodelink.ToDOT(view, g, nodelink.Options{Detailed: opts.Detailed, Engine: nodelink.Engine(opts.Engine)}))
		case FormatPNG:
			data, err = render.ToPNG(ctx, svgFor(), opts.Scale)
		case FormatPDF:
			data, err = render.ToPDF(ctx, svgFor())
		default:
			return nil, errors.New(errors.ErrCodeUnsupported, "unsupported format: %s", format)
		}

		if err != nil {
			return nil, renderError(err, format)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

// renderError keeps the code of a structured cause, such as UNSUPPORTED for a
// missing converter.
func renderError(err error, format string) error {
	return errors.Wrap(cmp.Or(errors.GetCode(err), errors.ErrCodeInternal), err, "render %s", format)
}
