package cli

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/contribnet/pkg/contrib"
	"github.com/matzehuels/contribnet/pkg/force"
	"github.com/matzehuels/contribnet/pkg/graph"
	"github.com/matzehuels/contribnet/pkg/render/sink"
	"github.com/matzehuels/contribnet/pkg/viewer"
)

// Glyphs drawn on the terminal canvas.
const (
	glyphEdge      = '·'
	glyphEdgeHot   = '•'
	glyphTopic     = '◆'
	glyphInternal  = '●'
	glyphExternal  = '○'
	glyphSelected  = '◉'
	glyphPinned    = '⊗'
	glyphHullPoint = '+'
)

// cell is one character of the canvas with its style.
type cell struct {
	r     rune
	style lipgloss.Style
	// z orders overlapping draws: labels < edges < hulls < nodes.
	z int
}

// canvas rasterizes frames onto a character grid. Screen coordinates of the
// frame map linearly onto the grid.
type canvas struct {
	cols, rows int
	cells      []cell
	sx, sy     float64
	palette    sink.Palette
}

var (
	styleCanvasEdge    = lipgloss.NewStyle().Foreground(colorDim)
	styleCanvasHot     = lipgloss.NewStyle().Foreground(colorYellow)
	styleCanvasTopic   = lipgloss.NewStyle().Foreground(lipgloss.Color(sink.TopicColor))
	styleCanvasLabel   = lipgloss.NewStyle().Foreground(colorGray)
	styleCanvasHull    = lipgloss.NewStyle().Foreground(colorDim)
	styleCanvasCurrent = lipgloss.NewStyle().Foreground(colorWhite).Bold(true)
)

func newCanvas(cols, rows int, f viewer.Frame) *canvas {
	cols, rows = max(cols, 1), max(rows, 1)
	c := &canvas{
		cols:    cols,
		rows:    rows,
		cells:   make([]cell, cols*rows),
		palette: sink.Palette(sink.Set3),
	}
	if f.Width > 0 && f.Height > 0 {
		c.sx = float64(cols) / f.Width
		c.sy = float64(rows) / f.Height
	}
	for i := range c.cells {
		c.cells[i] = cell{r: ' ', z: -1}
	}
	return c
}

// drawFrame renders f as styled text. The node with id selected is drawn
// with the selection glyph.
func drawFrame(f viewer.Frame, cols, rows int, selected string) string {
	return rasterize(f, cols, rows, selected).String()
}

func rasterize(f viewer.Frame, cols, rows int, selected string) *canvas {
	c := newCanvas(cols, rows, f)
	for _, e := range f.Edges {
		a := f.Transform.Apply(force.Point{X: e.X1, Y: e.Y1})
		b := f.Transform.Apply(force.Point{X: e.X2, Y: e.Y2})
		r, st := glyphEdge, styleCanvasEdge
		if e.Highlighted {
			r, st = glyphEdgeHot, styleCanvasHot
		}
		c.line(a, b, r, st, 1)
	}
	for _, h := range f.Hulls {
		for _, p := range h.Points {
			st := styleCanvasHull
			if h.Highlighted {
				st = styleCanvasHot
			}
			c.set(f.Transform.Apply(p), glyphHullPoint, st, 2)
		}
	}
	for _, n := range f.Nodes {
		p := f.Transform.Apply(force.Point{X: n.X, Y: n.Y})
		c.set(p, nodeGlyph(n, selected), c.nodeStyle(f, n, selected), 3)
		if f.Labels {
			c.label(p, n.Name)
		}
	}
	return c
}

func nodeGlyph(n viewer.FrameNode, selected string) rune {
	switch {
	case n.ID == selected:
		return glyphSelected
	case n.Pinned:
		return glyphPinned
	case n.Kind == graph.KindTopic:
		return glyphTopic
	case n.Source == contrib.SourceExternal:
		return glyphExternal
	}
	return glyphInternal
}

func (c *canvas) nodeStyle(f viewer.Frame, n viewer.FrameNode, selected string) lipgloss.Style {
	switch {
	case n.ID == selected:
		return styleCanvasCurrent
	case n.Highlighted:
		return styleCanvasHot
	case n.Kind == graph.KindTopic:
		return styleCanvasTopic
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(c.palette.Color(f.Legend.CategoryIndex(n.Category))))
}

// cellAt maps a screen point to a grid cell.
func (c *canvas) cellAt(p force.Point) (int, int, bool) {
	x := int(math.Floor(p.X * c.sx))
	y := int(math.Floor(p.Y * c.sy))
	return x, y, x >= 0 && x < c.cols && y >= 0 && y < c.rows
}

func (c *canvas) set(p force.Point, r rune, st lipgloss.Style, z int) {
	if x, y, ok := c.cellAt(p); ok {
		c.put(x, y, r, st, z)
	}
}

func (c *canvas) put(x, y int, r rune, st lipgloss.Style, z int) {
	i := y*c.cols + x
	if c.cells[i].z > z {
		return
	}
	c.cells[i] = cell{r: r, style: st, z: z}
}

// line draws a Bresenham line between two screen points, clipped to the grid.
func (c *canvas) line(a, b force.Point, r rune, st lipgloss.Style, z int) {
	x0, y0, _ := c.cellAt(a)
	x1, y1, _ := c.cellAt(b)
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := sign(x1-x0), sign(y1-y0)
	e := dx + dy
	for {
		if x0 >= 0 && x0 < c.cols && y0 >= 0 && y0 < c.rows {
			c.put(x0, y0, r, st, z)
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

// label writes text to the right of a node. Edges and nodes win over labels.
func (c *canvas) label(p force.Point, text string) {
	x, y, ok := c.cellAt(p)
	if !ok {
		return
	}
	x += 2
	for _, r := range text {
		if x >= c.cols {
			return
		}
		c.put(x, y, r, styleCanvasLabel, 0)
		x++
	}
}

// String renders the grid, batching runs of equally styled cells.
func (c *canvas) String() string {
	var b strings.Builder
	for y := range c.rows {
		row := c.cells[y*c.cols : (y+1)*c.cols]
		start := 0
		for x := 1; x <= len(row); x++ {
			if x < len(row) && sameStyle(row[x], row[start]) {
				continue
			}
			var run strings.Builder
			for _, cl := range row[start:x] {
				run.WriteRune(cl.r)
			}
			if row[start].z < 0 {
				b.WriteString(run.String())
			} else {
				b.WriteString(row[start].style.Render(run.String()))
			}
			start = x
		}
		if y < c.rows-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func sameStyle(a, b cell) bool {
	if (a.z < 0) != (b.z < 0) {
		return false
	}
	return a.z < 0 || a.style.GetForeground() == b.style.GetForeground() && a.style.GetBold() == b.style.GetBold()
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	}
	return 0
}
