// Package pipeline provides the headless rendering pipeline for contribnet.
//
// This package implements the complete load → layout → render pipeline used
// by the render command and the server's export endpoint. By centralizing
// this logic, both entry points produce identical artifacts and share the
// same cache keys.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: Read dataset files and build the contributor graph
//  2. Layout: Apply the filters and settle a force simulation (or hand the
//     visible subgraph to Graphviz)
//  3. Render: Generate output in various formats (SVG, JSON, DOT, PNG, PDF)
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Dataset: []string{"contributions.json"},
//	    Formats: []string{"svg"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"fmt"
	"io"
	"math"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/contribnet/pkg/cache"
	"github.com/matzehuels/contribnet/pkg/contrib"
	"github.com/matzehuels/contribnet/pkg/errors"
	"github.com/matzehuels/contribnet/pkg/filter"
	"github.com/matzehuels/contribnet/pkg/force"
	"github.com/matzehuels/contribnet/pkg/graph"
	"github.com/matzehuels/contribnet/pkg/render/nodelink"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultWidth is the default canvas width in pixels.
	DefaultWidth = force.DefaultWidth

	// DefaultHeight is the default canvas height in pixels.
	DefaultHeight = force.DefaultHeight

	// DefaultSeed is the default random seed for reproducibility.
	DefaultSeed = uint64(42)

	// DefaultMaxTicks bounds a headless settle. A default run cools in
	// about 300 ticks.
	DefaultMaxTicks = 600

	// DefaultScale is the raster scale of PNG output.
	DefaultScale = 2.0
)

// Visualization types.
const (
	VizTypeForce    = "force"
	VizTypeNodelink = "nodelink"
)

// DefaultVizType is the default visualization type.
const DefaultVizType = VizTypeForce

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatJSON = "json"
	FormatDOT  = "dot"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
	FormatJSON: true,
	FormatDOT:  true,
}

// ValidVizTypes is the set of supported visualization types.
var ValidVizTypes = map[string]bool{
	VizTypeForce:    true,
	VizTypeNodelink: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline.
// This struct supports JSON serialization for export requests.
type Options struct {
	// Load options
	Dataset       []string `json:"dataset"`
	DefaultSource string   `json:"default_source,omitempty"`
	Refresh       bool     `json:"refresh,omitempty"`

	// Filter options. Nil slices activate every value of the dimension.
	Sources    []string `json:"sources,omitempty"`
	Categories []string `json:"categories,omitempty"`
	Topic      string   `json:"topic,omitempty"`
	Policy     string   `json:"policy,omitempty"`

	// Layout options
	VizType  string       `json:"viz_type,omitempty"`
	Width    float64      `json:"width,omitempty"`
	Height   float64      `json:"height,omitempty"`
	Seed     uint64       `json:"seed,omitempty"`
	MaxTicks int          `json:"max_ticks,omitempty"`
	Force    force.Config `json:"-"`
	Engine   string       `json:"engine,omitempty"`   // Graphviz engine for nodelink
	Detailed bool         `json:"detailed,omitempty"` // Detailed nodelink labels

	// Render options
	Formats    []string `json:"formats,omitempty"`
	HideLabels bool     `json:"hide_labels,omitempty"`
	HideLegend bool     `json:"hide_legend,omitempty"`
	Scale      float64  `json:"scale,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Graph is the contributor graph built from the dataset.
	Graph *graph.Graph

	// Report lists the dataset elements that were skipped.
	Report contrib.Report

	// GraphHash is the content hash of the graph.
	GraphHash string

	// Layout contains the settled positions (or DOT source for nodelink).
	Layout Layout

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount    int
	EdgeCount    int
	VisibleNodes int
	LoadTime     time.Duration
	LayoutTime   time.Duration
	RenderTime   time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LoadHit   bool // Whether the graph came from cache
	LayoutHit bool // Whether the layout came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid format: %q (must be one of: svg, json, dot, png, pdf)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateVizType checks that a visualization type is valid.
func ValidateVizType(vizType string) error {
	if !ValidVizTypes[vizType] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid viz_type: %q (must be one of: force, nodelink)", vizType)
	}
	return nil
}

// ValidateEngine checks that a Graphviz engine name is valid. Empty selects
// the default engine.
func ValidateEngine(engine string) error {
	switch nodelink.Engine(engine) {
	case "", nodelink.EngineNeato, nodelink.EngineFDP, nodelink.EngineDot:
		return nil
	}
	return errors.New(errors.ErrCodeInvalidInput, "invalid engine: %q (must be one of: neato, fdp, dot)", engine)
}

// ValidatePolicy checks that an empty-category policy name is valid.
func ValidatePolicy(policy string) error {
	if _, ok := filter.ParsePolicy(policy); !ok {
		return errors.New(errors.ErrCodeInvalidInput, "invalid policy: %q (must be one of: none, all)", policy)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	return o.ValidateForRender()
}

// ValidateForLoad checks required fields for loading.
func (o *Options) ValidateForLoad() error {
	if len(o.Dataset) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "dataset is required")
	}
	for i, p := range o.Dataset {
		if p == "" {
			return errors.New(errors.ErrCodeInvalidInput, "dataset path %d is empty", i)
		}
	}
	if o.DefaultSource != "" {
		if _, err := contrib.NormalizeSource(o.DefaultSource); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "default_source")
		}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// SetLayoutDefaults sets default values for layout computation.
func (o *Options) SetLayoutDefaults() {
	if o.VizType == "" {
		o.VizType = DefaultVizType
	}
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	if o.MaxTicks == 0 {
		o.MaxTicks = DefaultMaxTicks
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForLayout validates and sets defaults for layout computation.
func (o *Options) ValidateForLayout() error {
	o.SetLayoutDefaults()
	if err := ValidateVizType(o.VizType); err != nil {
		return err
	}
	if err := ValidatePolicy(o.Policy); err != nil {
		return err
	}
	if o.IsNodelink() {
		if err := ValidateEngine(o.Engine); err != nil {
			return err
		}
	}
	if o.MaxTicks < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "max_ticks must not be negative, got %d", o.MaxTicks)
	}
	return o.ForceConfig().Validate()
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	o.SetRenderDefaults()
	if o.Scale <= 0 || math.IsNaN(o.Scale) || math.IsInf(o.Scale, 0) {
		return errors.New(errors.ErrCodeInvalidInput, "scale must be a positive finite number, got %g", o.Scale)
	}
	return ValidateFormats(o.Formats)
}

// IsNodelink returns true if this is a Graphviz visualization.
func (o *Options) IsNodelink() bool {
	return o.VizType == VizTypeNodelink
}

// ForceConfig returns the simulation parameters with canvas and seed applied.
func (o *Options) ForceConfig() force.Config {
	c := o.Force
	c.Width, c.Height, c.Seed = o.Width, o.Height, o.Seed
	c.SetDefaults()
	return c
}

// PolicyValue returns the parsed empty-category policy.
func (o *Options) PolicyValue() filter.EmptyCategoryPolicy {
	p, _ := filter.ParsePolicy(o.Policy)
	return p
}

// FilterState returns the filter state the options describe for g.
func (o *Options) FilterState(g *graph.Graph) filter.State {
	s := filter.Defaults(g)
	if o.Sources != nil {
		s.Sources = make(map[string]bool, len(o.Sources))
		for _, v := range o.Sources {
			s.Sources[v] = true
		}
	}
	if o.Categories != nil {
		s.Categories = make(map[string]bool, len(o.Categories))
		for _, v := range o.Categories {
			s.Categories[v] = true
		}
	}
	if o.Topic != "" {
		id := o.Topic
		if _, ok := g.Node(id); !ok {
			id = graph.TopicID(o.Topic)
		}
		s.SetTopic(id)
	}
	return s
}

// GraphKeyOpts returns cache key options for the load stage.
func (o *Options) GraphKeyOpts() cache.GraphKeyOpts {
	return cache.GraphKeyOpts{DefaultSource: o.DefaultSource}
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		VizType:    o.VizType,
		Width:      o.Width,
		Height:     o.Height,
		Seed:       o.Seed,
		MaxTicks:   o.MaxTicks,
		Sources:    sorted(o.Sources),
		Categories: sorted(o.Categories),
		Topic:      o.Topic,
		Policy:     o.PolicyValue().String(),
		Engine:     o.Engine,
		Detailed:   o.Detailed,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{
		Format: format,
		Labels: !o.HideLabels,
		Legend: !o.HideLegend,
	}
	if format == FormatPNG {
		k.Scale = o.Scale
	}
	return k
}

// sorted returns a sorted copy, keeping nil distinct from empty.
func sorted(s []string) []string {
	if s == nil {
		return nil
	}
	out := slices.Clone(s)
	slices.Sort(out)
	return out
}

func (o *Options) String() string {
	return fmt.Sprintf("%s %gx%g seed=%d formats=%v", o.VizType, o.Width, o.Height, o.Seed, o.Formats)
}
