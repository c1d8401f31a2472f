package interact

import (
	"fmt"
	"math"

	"github.com/matzehuels/contribnet/pkg/force"
)

// ZoomExtent bounds the zoom scale.
type ZoomExtent struct {
	Min float64 `toml:"min" json:"min"`
	Max float64 `toml:"max" json:"max"`
}

// DefaultZoomExtent allows zooming out to 10% and in to 400%.
var DefaultZoomExtent = ZoomExtent{Min: 0.1, Max: 4}

// Clamp bounds k to the extent.
func (e ZoomExtent) Clamp(k float64) float64 { return max(e.Min, min(e.Max, k)) }

// Valid reports whether the extent is usable.
func (e ZoomExtent) Valid() bool { return e.Min > 0 && e.Max >= e.Min && !math.IsInf(e.Max, 1) }

// Viewport is the visible screen area.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Center returns the middle of the viewport.
func (v Viewport) Center() force.Point { return force.Point{X: v.Width / 2, Y: v.Height / 2} }

// Transform is a translation followed by a uniform scale.
type Transform struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	K float64 `json:"k"`
}

// Identity is the transform that leaves coordinates unchanged.
var Identity = Transform{K: 1}

// Apply maps a simulation point to the screen.
func (t Transform) Apply(p force.Point) force.Point {
	return force.Point{X: p.X*t.K + t.X, Y: p.Y*t.K + t.Y}
}

// Invert maps a screen point back to simulation coordinates.
func (t Transform) Invert(p force.Point) force.Point {
	return force.Point{X: (p.X - t.X) / t.K, Y: (p.Y - t.Y) / t.K}
}

// Zoom multiplies the scale by factor, keeping the screen point around
// fixed. The resulting scale is clamped to ext.
func (t Transform) Zoom(factor float64, around force.Point, ext ZoomExtent) Transform {
	return t.ScaleTo(t.K*factor, around, ext)
}

// ScaleTo sets the scale to k, keeping the screen point around fixed.
func (t Transform) ScaleTo(k float64, around force.Point, ext ZoomExtent) Transform {
	k = ext.Clamp(k)
	p := t.Invert(around)
	return Transform{X: around.X - p.X*k, Y: around.Y - p.Y*k, K: k}
}

// Pan translates by a screen offset.
func (t Transform) Pan(dx, dy float64) Transform {
	return Transform{X: t.X + dx, Y: t.Y + dy, K: t.K}
}

// String renders the transform as an SVG transform attribute.
func (t Transform) String() string {
	return fmt.Sprintf("translate(%.2f,%.2f) scale(%.4f)", t.X, t.Y, t.K)
}
