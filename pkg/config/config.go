// Package config loads contribnet settings from a TOML file, a .env file and
// the environment.
//
// Precedence, lowest first: built-in defaults, the TOML file, then
// CONTRIBNET_* environment variables (which a .env file in the working
// directory may provide). Command-line flags are applied by the CLI on top.
package config

import (
	"errors"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	cerrors "github.com/matzehuels/contribnet/pkg/errors"
	"github.com/matzehuels/contribnet/pkg/filter"
	"github.com/matzehuels/contribnet/pkg/force"
	"github.com/matzehuels/contribnet/pkg/interact"
)

// Environment variables that override the file.
const (
	EnvAddr     = "CONTRIBNET_ADDR"
	EnvRedisURL = "CONTRIBNET_REDIS_URL"
	EnvDataset  = "CONTRIBNET_DATASET"
	EnvCacheDir = "CONTRIBNET_CACHE_DIR"
)

// Defaults not owned by another package.
const (
	DefaultAddr         = "127.0.0.1:8080"
	DefaultMaxTicks     = 600
	DefaultTickMS       = 16
	DefaultFocusMS      = 750
	DefaultSessionLimit = 64
	DefaultRedisPrefix  = "contribnet:"
)

// Config holds every setting of the CLI and server.
type Config struct {
	Dataset string       `toml:"dataset,omitempty"`
	Canvas  CanvasConfig `toml:"canvas"`
	Forces  ForcesConfig `toml:"forces"`
	Zoom    ZoomConfig   `toml:"zoom"`
	Filter  FilterConfig `toml:"filter"`
	Labels  LabelsConfig `toml:"labels"`
	Server  ServerConfig `toml:"server"`
	Cache   CacheConfig  `toml:"cache"`
}

// CanvasConfig sizes the layout area.
type CanvasConfig struct {
	Width    float64 `toml:"width"`
	Height   float64 `toml:"height"`
	Seed     uint64  `toml:"seed"`
	Margin   float64 `toml:"margin"`
	MaxTicks int     `toml:"max_ticks"`
}

// ForcesConfig tunes the simulation.
type ForcesConfig struct {
	AlphaMin             float64 `toml:"alpha_min"`
	AlphaDecay           float64 `toml:"alpha_decay"`
	VelocityDecay        float64 `toml:"velocity_decay"`
	PersonTopicDistance  float64 `toml:"person_topic_distance"`
	PersonPersonDistance float64 `toml:"person_person_distance"`
	LinkStrength         float64 `toml:"link_strength"`
	PersonCharge         float64 `toml:"person_charge"`
	TopicCharge          float64 `toml:"topic_charge"`
	PersonRadius         float64 `toml:"person_radius"`
	TopicRadius          float64 `toml:"topic_radius"`
	CollideStrength      float64 `toml:"collide_strength"`
	PositionStrength     float64 `toml:"position_strength"`
}

// ZoomConfig bounds zooming and sets the focus animation.
type ZoomConfig struct {
	Min             float64 `toml:"min"`
	Max             float64 `toml:"max"`
	FocusScale      float64 `toml:"focus_scale"`
	FocusDurationMS int     `toml:"focus_duration_ms"`
}

// FilterConfig sets the initial filter behaviour.
type FilterConfig struct {
	// EmptyCategories is "none" (nothing shown) or "all" (category filter
	// ignored) when every category is deselected.
	EmptyCategories string `toml:"empty_categories"`
	// DefaultSource is assigned to contributors whose record has no source.
	DefaultSource string `toml:"default_source"`
}

// LabelsConfig sets label visibility at start.
type LabelsConfig struct {
	Show bool `toml:"show"`
}

// ServerConfig configures `contribnet serve`.
type ServerConfig struct {
	Addr         string `toml:"addr"`
	TickMS       int    `toml:"tick_ms"`
	SessionLimit int    `toml:"session_limit"`
}

// CacheConfig selects the cache backend.
type CacheConfig struct {
	Disabled    bool   `toml:"disabled"`
	Dir         string `toml:"dir,omitempty"`
	RedisURL    string `toml:"redis_url,omitempty"`
	RedisPrefix string `toml:"redis_prefix"`
}

// Default returns the default configuration.
func Default() *Config {
	fc := force.DefaultConfig()
	return &Config{
		Canvas: CanvasConfig{
			Width:    fc.Width,
			Height:   fc.Height,
			Margin:   fc.Margin,
			MaxTicks: DefaultMaxTicks,
		},
		Forces: ForcesConfig{
			AlphaMin:             fc.AlphaMin,
			AlphaDecay:           fc.AlphaDecay,
			VelocityDecay:        fc.VelocityDecay,
			PersonTopicDistance:  fc.PersonTopicDistance,
			PersonPersonDistance: fc.PersonPersonDistance,
			LinkStrength:         fc.LinkStrength,
			PersonCharge:         fc.PersonCharge,
			TopicCharge:          fc.TopicCharge,
			PersonRadius:         fc.PersonRadius,
			TopicRadius:          fc.TopicRadius,
			CollideStrength:      fc.CollideStrength,
			PositionStrength:     fc.PositionStrength,
		},
		Zoom: ZoomConfig{
			Min:             interact.DefaultZoomExtent.Min,
			Max:             interact.DefaultZoomExtent.Max,
			FocusScale:      interact.DefaultFocusScale,
			FocusDurationMS: DefaultFocusMS,
		},
		Filter: FilterConfig{EmptyCategories: filter.EmptyNone.String()},
		Labels: LabelsConfig{Show: true},
		Server: ServerConfig{
			Addr:         DefaultAddr,
			TickMS:       DefaultTickMS,
			SessionLimit: DefaultSessionLimit,
		},
		Cache: CacheConfig{RedisPrefix: DefaultRedisPrefix},
	}
}

// Dir returns the contribnet config directory path.
func Dir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "contribnet")
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.toml")
}

// LoadDotEnv loads .env from the working directory into the process
// environment. A missing file is not an error; existing variables win.
func LoadDotEnv() error {
	err := godotenv.Load()
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Load reads the config at path (DefaultPath when empty), applies
// environment overrides and validates the result. A missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}
	cfg := Default()

	meta, err := toml.DecodeFile(path, cfg)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, cerrors.Wrap(cerrors.ErrCodeInvalidConfig, err, "read config %s", path)
	default:
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return nil, cerrors.New(cerrors.ErrCodeInvalidConfig, "unknown keys in %s: %s", path, strings.Join(keys, ", "))
		}
	}

	cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to path (DefaultPath when empty).
func Save(cfg *Config, path string) error {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// ApplyEnv overrides fields from CONTRIBNET_* variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvAddr); ok && v != "" {
		c.Server.Addr = v
	}
	if v, ok := lookup(EnvRedisURL); ok && v != "" {
		c.Cache.RedisURL = v
	}
	if v, ok := lookup(EnvDataset); ok && v != "" {
		c.Dataset = v
	}
	if v, ok := lookup(EnvCacheDir); ok && v != "" {
		c.Cache.Dir = v
	}
}

// Validate rejects impossible values.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return cerrors.New(cerrors.ErrCodeInvalidConfig, format, args...)
	}
	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		return invalid("canvas size must be positive, got %gx%g", c.Canvas.Width, c.Canvas.Height)
	}
	if c.Canvas.MaxTicks <= 0 {
		return invalid("canvas.max_ticks must be positive, got %d", c.Canvas.MaxTicks)
	}
	if !(interact.ZoomExtent{Min: c.Zoom.Min, Max: c.Zoom.Max}).Valid() {
		return invalid("zoom extent [%g, %g] is invalid", c.Zoom.Min, c.Zoom.Max)
	}
	if math.IsNaN(c.Zoom.FocusScale) || c.Zoom.FocusScale < c.Zoom.Min || c.Zoom.FocusScale > c.Zoom.Max {
		return invalid("zoom.focus_scale %g is outside [%g, %g]", c.Zoom.FocusScale, c.Zoom.Min, c.Zoom.Max)
	}
	if c.Zoom.FocusDurationMS < 0 {
		return invalid("zoom.focus_duration_ms must not be negative")
	}
	if _, ok := filter.ParsePolicy(c.Filter.EmptyCategories); !ok {
		return invalid("filter.empty_categories must be one of %v, got %q",
			[]string{filter.EmptyNone.String(), filter.EmptyAll.String()}, c.Filter.EmptyCategories)
	}
	if c.Server.TickMS <= 0 {
		return invalid("server.tick_ms must be positive, got %d", c.Server.TickMS)
	}
	if c.Server.SessionLimit <= 0 {
		return invalid("server.session_limit must be positive, got %d", c.Server.SessionLimit)
	}
	if c.Cache.RedisURL != "" && !slices.ContainsFunc([]string{"redis://", "rediss://", "unix://"}, func(p string) bool {
		return strings.HasPrefix(c.Cache.RedisURL, p)
	}) {
		return invalid("cache.redis_url must be a redis:// URL, got %q", c.Cache.RedisURL)
	}
	return c.ForceConfig().Validate()
}

// ForceConfig returns the simulation parameters.
func (c *Config) ForceConfig() force.Config {
	return force.Config{
		Width:                c.Canvas.Width,
		Height:               c.Canvas.Height,
		Seed:                 c.Canvas.Seed,
		Margin:               c.Canvas.Margin,
		AlphaMin:             c.Forces.AlphaMin,
		AlphaDecay:           c.Forces.AlphaDecay,
		VelocityDecay:        c.Forces.VelocityDecay,
		PersonTopicDistance:  c.Forces.PersonTopicDistance,
		PersonPersonDistance: c.Forces.PersonPersonDistance,
		LinkStrength:         c.Forces.LinkStrength,
		PersonCharge:         c.Forces.PersonCharge,
		TopicCharge:          c.Forces.TopicCharge,
		PersonRadius:         c.Forces.PersonRadius,
		TopicRadius:          c.Forces.TopicRadius,
		CollideStrength:      c.Forces.CollideStrength,
		PositionStrength:     c.Forces.PositionStrength,
	}
}

// ZoomExtent returns the configured zoom bounds.
func (c *Config) ZoomExtent() interact.ZoomExtent {
	return interact.ZoomExtent{Min: c.Zoom.Min, Max: c.Zoom.Max}
}

// FocusDuration returns the focus animation length.
func (c *Config) FocusDuration() time.Duration {
	return time.Duration(c.Zoom.FocusDurationMS) * time.Millisecond
}

// TickInterval returns the server's simulation tick period.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Server.TickMS) * time.Millisecond
}

// Policy returns the empty-category policy. Validate guarantees it parses.
func (c *Config) Policy() filter.EmptyCategoryPolicy {
	p, _ := filter.ParsePolicy(c.Filter.EmptyCategories)
	return p
}
