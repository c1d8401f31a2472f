package force

import (
	"math"

	"github.com/matzehuels/contribnet/pkg/errors"
	"github.com/matzehuels/contribnet/pkg/graph"
)

// Default parameters.
const (
	DefaultWidth         = 1200
	DefaultHeight        = 700
	DefaultAlphaMin      = 0.001
	DefaultVelocityDecay = 0.4
	DefaultMargin        = 50

	DefaultPersonTopicDistance  = 50
	DefaultPersonPersonDistance = 40
	DefaultLinkStrength         = 0.8

	DefaultPersonCharge = -200
	DefaultTopicCharge  = -100

	DefaultPersonRadius    = 18
	DefaultTopicRadius     = 12
	DefaultCollideStrength = 1

	DefaultPositionStrength = 0.05
)

// DefaultAlphaDecay cools a run from 1 to alphaMin in about 300 ticks.
var DefaultAlphaDecay = 1 - math.Pow(DefaultAlphaMin, 1.0/300)

// Config holds simulation parameters. Zero fields are replaced by defaults in
// [Config.SetDefaults].
type Config struct {
	Width  float64 `toml:"width" json:"width"`
	Height float64 `toml:"height" json:"height"`
	Seed   uint64  `toml:"seed" json:"seed"`

	AlphaMin      float64 `toml:"alpha_min" json:"alpha_min"`
	AlphaDecay    float64 `toml:"alpha_decay" json:"alpha_decay"`
	VelocityDecay float64 `toml:"velocity_decay" json:"velocity_decay"`

	PersonTopicDistance  float64 `toml:"person_topic_distance" json:"person_topic_distance"`
	PersonPersonDistance float64 `toml:"person_person_distance" json:"person_person_distance"`
	LinkStrength         float64 `toml:"link_strength" json:"link_strength"`

	PersonCharge float64 `toml:"person_charge" json:"person_charge"`
	TopicCharge  float64 `toml:"topic_charge" json:"topic_charge"`

	PersonRadius    float64 `toml:"person_radius" json:"person_radius"`
	TopicRadius     float64 `toml:"topic_radius" json:"topic_radius"`
	CollideStrength float64 `toml:"collide_strength" json:"collide_strength"`

	PositionStrength float64 `toml:"position_strength" json:"position_strength"`

	// Margin keeps free nodes this far inside the canvas. Negative disables
	// the clamp.
	Margin float64 `toml:"margin" json:"margin"`
}

// DefaultConfig returns the parameters of the interactive viewer.
func DefaultConfig() Config {
	var c Config
	c.SetDefaults()
	return c
}

// SetDefaults fills zero fields.
func (c *Config) SetDefaults() {
	setDefault(&c.Width, DefaultWidth)
	setDefault(&c.Height, DefaultHeight)
	setDefault(&c.AlphaMin, DefaultAlphaMin)
	setDefault(&c.AlphaDecay, DefaultAlphaDecay)
	setDefault(&c.VelocityDecay, DefaultVelocityDecay)
	setDefault(&c.PersonTopicDistance, DefaultPersonTopicDistance)
	setDefault(&c.PersonPersonDistance, DefaultPersonPersonDistance)
	setDefault(&c.LinkStrength, DefaultLinkStrength)
	setDefault(&c.PersonCharge, DefaultPersonCharge)
	setDefault(&c.TopicCharge, DefaultTopicCharge)
	setDefault(&c.PersonRadius, DefaultPersonRadius)
	setDefault(&c.TopicRadius, DefaultTopicRadius)
	setDefault(&c.CollideStrength, DefaultCollideStrength)
	setDefault(&c.PositionStrength, DefaultPositionStrength)
	setDefault(&c.Margin, DefaultMargin)
}

func setDefault(v *float64, d float64) {
	if *v == 0 {
		*v = d
	}
}

// Validate rejects parameters that cannot produce a layout.
func (c Config) Validate() error {
	if name, v, ok := c.nonFinite(); ok {
		return errors.New(errors.ErrCodeInvalidConfig, "%s must be finite, got %g", name, v)
	}
	switch {
	case c.Width <= 0 || c.Height <= 0:
		return errors.New(errors.ErrCodeInvalidConfig, "canvas must be positive, got %gx%g", c.Width, c.Height)
	case c.AlphaMin <= 0 || c.AlphaMin >= 1:
		return errors.New(errors.ErrCodeInvalidConfig, "alpha_min must be in (0, 1), got %g", c.AlphaMin)
	case c.AlphaDecay <= 0 || c.AlphaDecay >= 1:
		return errors.New(errors.ErrCodeInvalidConfig, "alpha_decay must be in (0, 1), got %g", c.AlphaDecay)
	case c.VelocityDecay <= 0 || c.VelocityDecay > 1:
		return errors.New(errors.ErrCodeInvalidConfig, "velocity_decay must be in (0, 1], got %g", c.VelocityDecay)
	case c.PersonRadius < 0 || c.TopicRadius < 0:
		return errors.New(errors.ErrCodeInvalidConfig, "collision radius must not be negative")
	case c.Margin*2 >= min(c.Width, c.Height):
		return errors.New(errors.ErrCodeInvalidConfig, "margin %g leaves no room on a %gx%g canvas", c.Margin, c.Width, c.Height)
	}
	return nil
}

func (c Config) nonFinite() (string, float64, bool) {
	fields := []struct {
		name string
		v    float64
	}{
		{"width", c.Width},
		{"height", c.Height},
		{"alpha_min", c.AlphaMin},
		{"alpha_decay", c.AlphaDecay},
		{"velocity_decay", c.VelocityDecay},
		{"person_topic_distance", c.PersonTopicDistance},
		{"person_person_distance", c.PersonPersonDistance},
		{"link_strength", c.LinkStrength},
		{"person_charge", c.PersonCharge},
		{"topic_charge", c.TopicCharge},
		{"person_radius", c.PersonRadius},
		{"topic_radius", c.TopicRadius},
		{"collide_strength", c.CollideStrength},
		{"position_strength", c.PositionStrength},
		{"margin", c.Margin},
	}
	for _, f := range fields {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return f.name, f.v, true
		}
	}
	return "", 0, false
}

// Center returns the canvas centre.
func (c Config) Center() Point { return Point{c.Width / 2, c.Height / 2} }

// Radius returns the collision radius for a node kind.
func (c Config) Radius(k graph.Kind) float64 {
	if k == graph.KindPerson {
		return c.PersonRadius
	}
	return c.TopicRadius
}

// Charge returns the many-body strength for a node kind.
func (c Config) Charge(k graph.Kind) float64 {
	if k == graph.KindPerson {
		return c.PersonCharge
	}
	return c.TopicCharge
}

// Distance returns the link target distance between two node kinds.
func (c Config) Distance(a, b graph.Kind) float64 {
	if a != b && (a == graph.KindTopic || b == graph.KindTopic) {
		return c.PersonTopicDistance
	}
	return c.PersonPersonDistance
}
