package sink

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/matzehuels/contribnet/pkg/graph"
	"github.com/matzehuels/contribnet/pkg/viewer"
)

const (
	personSize     = 12.0
	topicSize      = 8.0
	externalFactor = 0.95
	nodeOpacity    = 0.8

	personLabelY = 25.0
	topicLabelY  = 20.0
	labelLineH   = 12.0

	hullPadding = 36.0

	legendX      = 16.0
	legendY      = 16.0
	legendRowH   = 18.0
	legendSwatch = 10.0

	infoWidth  = 280.0
	infoMargin = 16.0
	infoLineH  = 16.0
)

// SourceInternal is the source drawn as a circle; every other source is drawn
// as a square.
const SourceInternal = "internal"

// SVGOption configures [RenderSVG].
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	palette     Palette
	interactive bool
	endpoint    string
	legend      bool
	info        bool
}

// WithInteraction embeds the script that maps pointer events to viewer
// actions. Actions are posted to endpoint+"/actions" and the surface reloads
// itself from endpoint+"/frame.svg".
func WithInteraction(endpoint string) SVGOption {
	return func(r *svgRenderer) { r.interactive = true; r.endpoint = strings.TrimSuffix(endpoint, "/") }
}

// WithPalette colours contributors with p instead of [Set3].
func WithPalette(p Palette) SVGOption { return func(r *svgRenderer) { r.palette = p } }

// WithoutLegend omits the filter legend and its controls.
func WithoutLegend() SVGOption { return func(r *svgRenderer) { r.legend = false } }

// WithoutInfo omits the info panel even when the frame carries one.
func WithoutInfo() SVGOption { return func(r *svgRenderer) { r.info = false } }

// RenderSVG draws f as a standalone SVG document. A failed frame is drawn
// with [RenderError].
func RenderSVG(f viewer.Frame, opts ...SVGOption) []byte {
	if f.Failed() {
		return RenderError(f.Error, f.Width, f.Height)
	}

	r := svgRenderer{palette: Set3, legend: true, info: true}
	for _, opt := range opts {
		opt(&r)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f" class="contribnet" data-seq="%d" data-active="%t"`,
		f.Width, f.Height, f.Width, f.Height, f.Seq, f.Active)
	if r.interactive {
		fmt.Fprintf(&buf, ` data-endpoint="%s"`, escapeXML(r.endpoint))
	}
	buf.WriteString(">\n")

	fmt.Fprintf(&buf, "  <style>%s\n  </style>\n", surfaceCSS)
	fmt.Fprintf(&buf, `  <rect class="background" x="0" y="0" width="%.1f" height="%.1f"/>`+"\n", f.Width, f.Height)

	fmt.Fprintf(&buf, `  <g class="viewport" transform="%s">`+"\n", f.Transform)
	r.renderHulls(&buf, f)
	r.renderEdges(&buf, f)
	r.renderNodes(&buf, f)
	if f.Labels {
		r.renderLabels(&buf, f)
	}
	buf.WriteString("  </g>\n")

	if r.legend {
		r.renderLegend(&buf, f)
	}
	if r.info && f.Info != nil {
		renderInfo(&buf, f.Width, *f.Info)
	}
	if r.interactive {
		fmt.Fprintf(&buf, "  <script type=\"text/javascript\"><![CDATA[%s\n  ]]></script>\n", surfaceJS)
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func (r *svgRenderer) renderHulls(buf *bytes.Buffer, f viewer.Frame) {
	if len(f.Hulls) == 0 {
		return
	}
	buf.WriteString(`    <g class="hulls">` + "\n")
	for _, h := range f.Hulls {
		if len(h.Points) == 0 {
			continue
		}
		var d strings.Builder
		for i, p := range h.Points {
			cmd := "L"
			if i == 0 {
				cmd = "M"
			}
			fmt.Fprintf(&d, "%s%.2f,%.2f ", cmd, p.X, p.Y)
		}
		d.WriteString("Z")
		fmt.Fprintf(buf, `      <path class="%s" data-group="%s" d="%s" stroke-width="%.0f"/>`+"\n",
			classes("hull", class{"highlight", h.Highlighted}), escapeXML(h.ID), d.String(), hullPadding)
	}
	buf.WriteString("    </g>\n")
}

func (r *svgRenderer) renderEdges(buf *bytes.Buffer, f viewer.Frame) {
	buf.WriteString(`    <g class="links">` + "\n")
	for _, e := range f.Edges {
		fmt.Fprintf(buf, `      <line class="%s" data-source="%s" data-target="%s" x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f"/>`+"\n",
			classes("link", class{"highlight", e.Highlighted}), escapeXML(e.Source), escapeXML(e.Target), e.X1, e.Y1, e.X2, e.Y2)
	}
	buf.WriteString("    </g>\n")
}

func (r *svgRenderer) renderNodes(buf *bytes.Buffer, f viewer.Frame) {
	buf.WriteString(`    <g class="nodes">` + "\n")
	for _, n := range f.Nodes {
		fmt.Fprintf(buf, `      <g class="%s" data-node="%s" transform="translate(%.2f,%.2f)">`,
			classes("node-group", class{"highlight", n.Highlighted}, class{"pinned", n.Pinned}), escapeXML(n.ID), n.X, n.Y)
		fmt.Fprintf(buf, "<title>%s</title>", escapeXML(n.Name))
		color := TopicColor
		if n.Kind == graph.KindPerson && n.Category != "" {
			color = r.palette.Color(f.Legend.CategoryIndex(n.Category))
		}
		buf.WriteString(nodeShape(n, color))
		buf.WriteString("</g>\n")
	}
	buf.WriteString("    </g>\n")
}

// nodeShape returns the SVG element for a node centred on the origin.
func nodeShape(n viewer.FrameNode, color string) string {
	if n.Kind == graph.KindTopic {
		s := topicSize
		return fmt.Sprintf(`<path class="node topic" d="M 0,-%[1]g L %[1]g,0 L 0,%[1]g L -%[1]g,0 Z" fill="%[2]s" opacity="%[3]g"/>`,
			s, color, nodeOpacity)
	}
	if n.Source == SourceInternal {
		return fmt.Sprintf(`<circle class="node contributor internal" r="%g" fill="%s" opacity="%g"/>`,
			personSize, color, nodeOpacity)
	}
	s := personSize * externalFactor
	return fmt.Sprintf(`<rect class="node contributor external" x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s" opacity="%g"/>`,
		-s, -s, 2*s, 2*s, color, nodeOpacity)
}

func (r *svgRenderer) renderLabels(buf *bytes.Buffer, f viewer.Frame) {
	buf.WriteString(`    <g class="labels">` + "\n")
	for _, n := range f.Nodes {
		base := personLabelY
		if n.Kind == graph.KindTopic {
			base = topicLabelY
		}
		fmt.Fprintf(buf, `      <g class="label-group" transform="translate(%.2f,%.2f)">`, n.X, n.Y)
		for i, line := range WrapLabel(n.Name) {
			fmt.Fprintf(buf, `<text class="node-label %s-label" dy="%g" text-anchor="middle">%s</text>`,
				n.Kind, base+float64(i)*labelLineH, escapeXML(line))
		}
		buf.WriteString("</g>\n")
	}
	buf.WriteString("    </g>\n")
}

func (r *svgRenderer) renderLegend(buf *bytes.Buffer, f viewer.Frame) {
	fmt.Fprintf(buf, `  <g class="legend" transform="translate(%g,%g)">`+"\n", legendX, legendY)
	y := 0.0

	fmt.Fprintf(buf, `    <text class="legend-title" y="%g">Sources</text>`+"\n", y)
	y += legendRowH
	for _, e := range f.Legend.Sources {
		shape := fmt.Sprintf(`<rect x="0" y="-%g" width="%g" height="%g"/>`, legendSwatch, legendSwatch, legendSwatch)
		if e.Value == SourceInternal {
			shape = fmt.Sprintf(`<circle cx="%g" cy="-%g" r="%g"/>`, legendSwatch/2, legendSwatch/2, legendSwatch/2)
		}
		renderLegendEntry(buf, "source", e, shape, y)
		y += legendRowH
	}

	y += legendRowH / 2
	fmt.Fprintf(buf, `    <text class="legend-title" y="%g">Categories</text>`+"\n", y)
	y += legendRowH
	for i, e := range f.Legend.Categories {
		shape := fmt.Sprintf(`<rect x="0" y="-%g" width="%g" height="%g" fill="%s"/>`,
			legendSwatch, legendSwatch, legendSwatch, r.palette.Color(i))
		renderLegendEntry(buf, "category", e, shape, y)
		y += legendRowH
	}

	if len(f.Legend.Topics) > 0 {
		y += legendRowH / 2
		fmt.Fprintf(buf, `    <text class="legend-title" y="%g">Topics</text>`+"\n", y)
		y += legendRowH
		for _, t := range f.Legend.Topics {
			fmt.Fprintf(buf, `    <text class="%s" data-topic="%s" y="%g">%s</text>`+"\n",
				classes("topic-option", class{"active", t.Active}), escapeXML(t.ID), y, escapeXML(t.Name))
			y += legendRowH
		}
	}

	y += legendRowH / 2
	fmt.Fprintf(buf, `    <text class="legend-stats" y="%g">%d contributors · %d topics · %d connections</text>`+"\n",
		y, f.Stats.Contributors, f.Stats.Topics, f.Stats.Connections)
	y += legendRowH
	fmt.Fprintf(buf, `    <text class="legend-button" data-action="reset_layout" y="%g">reset layout</text>`+"\n", y)
	labels := "show labels"
	if f.Labels {
		labels = "hide labels"
	}
	fmt.Fprintf(buf, `    <text class="legend-button" data-action="toggle_labels" x="100" y="%g">%s</text>`+"\n", y, labels)
	buf.WriteString("  </g>\n")
}

func renderLegendEntry(buf *bytes.Buffer, filter string, e viewer.LegendEntry, shape string, y float64) {
	fmt.Fprintf(buf, `    <g class="%s" data-filter="%s" data-value="%s" transform="translate(0,%g)">%s<text x="%g">%s (%d)</text></g>`+"\n",
		classes("legend-filter", class{"active", e.Active}), filter, escapeXML(e.Value), y, shape,
		legendSwatch+6, escapeXML(e.Value), e.Count)
}

// infoLines lays out the panel body as (class, text) pairs.
func infoLines(info viewer.Info) [][2]string {
	var lines [][2]string
	add := func(class, text string) { lines = append(lines, [2]string{class, text}) }
	field := func(label, value string) {
		if value != "" {
			add("info-field", label+": "+value)
		}
	}
	list := func(label string, items []string) {
		if len(items) == 0 {
			return
		}
		add("info-field", label+":")
		for _, it := range items {
			add("info-item", "• "+it)
		}
	}
	format := func() {
		if info.Format.IsZero() {
			return
		}
		add("info-field", "Contribution:")
		add("info-item", "• Paper: "+info.Format.Paper)
		add("info-item", "• Web: "+info.Format.Web)
	}

	switch info.Kind {
	case viewer.InfoPerson:
		add("type-badge type-person", "Contributor")
		add("info-name", info.Name)
		field("Affiliation", info.Affiliation)
		field("Contact", info.Contact)
		field("Source", info.Source)
		field("Categories", strings.Join(info.Categories, ", "))
		list("Topics", info.Topics)
		format()
	case viewer.InfoTopic:
		add("type-badge type-topic", "Topic")
		add("info-name", info.Name)
		add("info-field", "Contributors:")
		for _, p := range info.Persons {
			item := "• " + p.Name
			if p.Contact != "" {
				item += " <" + p.Contact + ">"
			}
			add("info-item", item)
		}
	case viewer.InfoGroup:
		add("type-badge type-group", "Collective contribution")
		add("info-name", info.Name)
		list("Members", info.Members)
		list("Topics", info.Topics)
		format()
	}
	return lines
}

func renderInfo(buf *bytes.Buffer, width float64, info viewer.Info) {
	lines := infoLines(info)
	h := float64(len(lines))*infoLineH + 2*infoMargin
	x := max(infoMargin, width-infoWidth-infoMargin)

	fmt.Fprintf(buf, `  <g class="%s" data-info="%s" transform="translate(%.1f,%g)">`+"\n",
		classes("info", class{"pinned", info.Pinned}), escapeXML(info.ID), x, infoMargin)
	fmt.Fprintf(buf, `    <rect class="info-panel" width="%g" height="%g" rx="6"/>`+"\n", infoWidth, h)
	fmt.Fprintf(buf, `    <text class="close" data-action="close_info" x="%g" y="%g">×</text>`+"\n", infoWidth-18, infoMargin+2)
	for i, l := range lines {
		fmt.Fprintf(buf, `    <text class="%s" x="%g" y="%g">%s</text>`+"\n",
			l[0], infoMargin, infoMargin+float64(i+1)*infoLineH-4, escapeXML(l[1]))
	}
	buf.WriteString("  </g>\n")
}

type class struct {
	name string
	on   bool
}

// classes joins base with the names of every enabled class.
func classes(base string, extra ...class) string {
	out := base
	for _, c := range extra {
		if c.on {
			out += " " + c.name
		}
	}
	return out
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
