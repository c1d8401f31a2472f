package interact

import (
	"time"

	"github.com/matzehuels/contribnet/pkg/force"
)

// Focus defaults.
const (
	DefaultFocusScale    = 1.5
	DefaultFocusDuration = 750 * time.Millisecond
)

// Focus is a transition of the view transform that centres a point.
type Focus struct {
	From     Transform
	To       Transform
	Start    time.Time
	Duration time.Duration
}

// FocusOn returns a transition from current to the transform that shows the
// simulation point p in the middle of the viewport at scale k.
func FocusOn(current Transform, p force.Point, vp Viewport, k float64, ext ZoomExtent, now time.Time, d time.Duration) *Focus {
	k = ext.Clamp(k)
	c := vp.Center()
	return &Focus{
		From:     current,
		To:       Transform{X: c.X - k*p.X, Y: c.Y - k*p.Y, K: k},
		Start:    now,
		Duration: max(d, 0),
	}
}

// At returns the transform at time now and whether the transition is over.
func (f *Focus) At(now time.Time) (Transform, bool) {
	if f.Duration <= 0 {
		return f.To, true
	}
	t := float64(now.Sub(f.Start)) / float64(f.Duration)
	if t >= 1 {
		return f.To, true
	}
	t = EaseCubicInOut(max(t, 0))
	return Transform{
		X: lerp(f.From.X, f.To.X, t),
		Y: lerp(f.From.Y, f.To.Y, t),
		K: lerp(f.From.K, f.To.K, t),
	}, false
}

// EaseCubicInOut is symmetric cubic easing on [0, 1].
func EaseCubicInOut(t float64) float64 {
	t *= 2
	if t <= 1 {
		return t * t * t / 2
	}
	t -= 2
	return (t*t*t + 2) / 2
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }
