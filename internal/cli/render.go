package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/contribnet/pkg/errors"
	"github.com/matzehuels/contribnet/pkg/httputil"
	"github.com/matzehuels/contribnet/pkg/pipeline"
)

// renderFlags holds the raw flag values of the render command. Values are
// applied on top of the config only when the flag was set.
type renderFlags struct {
	output     string
	formats    string
	vizType    string
	sources    []string
	categories []string
	topic      string
	policy     string
	engine     string
	seed       uint64
	width      float64
	height     float64
	maxTicks   int
	scale      float64
	noLabels   bool
	noLegend   bool
	detailed   bool
	noCache    bool
	refresh    bool
}

// renderCommand creates the render command for static exports.
func (c *CLI) renderCommand() *cobra.Command {
	var f renderFlags

	cmd := &cobra.Command{
		Use:   "render [dataset...]",
		Short: "Lay out a dataset and write static visualizations",
		Long: `Lay out a dataset and write static visualizations.

The force type runs the contributor simulation until it settles and draws the
result as SVG (with legend and labels), PNG, PDF, JSON positions or DOT. The
nodelink type hands the visible subgraph to Graphviz instead.

Filters select what is drawn: --source and --category take comma-separated
values (an empty value selects nothing), --topic keeps only contributors of
one topic. Results are cached locally for faster subsequent runs.

Several dataset files are merged in order. Without arguments the dataset from
the config file is used.`,
		Example: `  contribnet render people.json
  contribnet render people.json -f svg,png -o out/network
  contribnet render people.yaml --source internal --topic "Graph theory"
  contribnet render people.json -t nodelink --engine fdp -f svg,dot`,
		ValidArgsFunction: datasetCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.renderOptions(cmd, args, f)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if f.output == "-" {
				out = cmd.ErrOrStderr()
			}
			return c.runRender(cmd.Context(), newPrinter(out), opts, f.output, f.noCache)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.output, "output", "o", "", "output file (single format), base path (multiple), or - for stdout")
	flags.StringVarP(&f.formats, "format", "f", "", "output format(s): svg (default), png, pdf, json, dot (comma-separated)")
	flags.StringVarP(&f.vizType, "type", "t", pipeline.DefaultVizType, "layout type: force, nodelink")
	flags.StringSliceVar(&f.sources, "source", nil, "sources to show (default all)")
	flags.StringSliceVar(&f.categories, "category", nil, "categories to show (default all)")
	flags.StringVar(&f.topic, "topic", "", "show only contributors of this topic (name or id)")
	flags.StringVar(&f.policy, "policy", "", "what an empty category selection shows: none, all")
	flags.StringVar(&f.engine, "engine", "", "graphviz engine for nodelink: neato (default), fdp, dot")
	flags.Uint64Var(&f.seed, "seed", 0, "random seed for initial placement")
	flags.Float64Var(&f.width, "width", 0, "canvas width")
	flags.Float64Var(&f.height, "height", 0, "canvas height")
	flags.IntVar(&f.maxTicks, "max-ticks", 0, "simulation tick limit")
	flags.Float64Var(&f.scale, "scale", 0, "PNG scale factor")
	flags.BoolVar(&f.noLabels, "no-labels", false, "hide node labels")
	flags.BoolVar(&f.noLegend, "no-legend", false, "hide the legend")
	flags.BoolVar(&f.detailed, "detailed", false, "detailed nodelink labels")
	flags.BoolVar(&f.noCache, "no-cache", false, "disable caching")
	flags.BoolVar(&f.refresh, "refresh", false, "recompute and overwrite cached results")

	return cmd
}

// renderOptions merges config defaults with the flags that were set.
func (c *CLI) renderOptions(cmd *cobra.Command, args []string, f renderFlags) (pipeline.Options, error) {
	opts := c.pipelineDefaults()
	opts.Dataset = c.datasetArgs(args)
	if len(opts.Dataset) == 0 {
		return opts, errors.New(errors.ErrCodeInvalidInput, "no dataset given and none configured")
	}

	opts.Formats = parseFormats(f.formats)
	opts.VizType = f.vizType
	opts.Topic = f.topic
	opts.Engine = f.engine
	opts.Detailed = f.detailed
	opts.Refresh = f.refresh

	changed := cmd.Flags().Changed
	if changed("source") {
		opts.Sources = selection(f.sources)
	}
	if changed("category") {
		opts.Categories = selection(f.categories)
	}
	if changed("policy") {
		opts.Policy = f.policy
	}
	if changed("seed") {
		opts.Seed = f.seed
	}
	if changed("width") {
		opts.Width = f.width
	}
	if changed("height") {
		opts.Height = f.height
	}
	if changed("max-ticks") {
		opts.MaxTicks = f.maxTicks
	}
	if changed("scale") {
		opts.Scale = f.scale
	}
	if f.noLabels {
		opts.HideLabels = true
	}
	opts.HideLegend = f.noLegend

	if err := pipeline.ValidateFormats(opts.Formats); err != nil {
		return opts, err
	}
	if err := pipeline.ValidateVizType(opts.VizType); err != nil {
		return opts, err
	}
	return opts, nil
}

// selection turns flag values into a filter selection. An explicitly empty
// flag selects nothing, which differs from the nil "all" selection.
func selection(values []string) []string {
	out := []string{}
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// runRender executes the pipeline and writes every artifact.
func (c *CLI) runRender(ctx context.Context, p printer, opts pipeline.Options, output string, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(loggerFromContext(ctx))
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %s layout...", opts.VizType))
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	if n := len(result.Report.Skipped); n > 0 {
		p.warning("Skipped %d of %d dataset elements", n, result.Report.Total)
		for _, s := range result.Report.Skipped {
			p.detail("#%d: %s", s.Index, s.Reason)
		}
	}

	paths, err := writeArtifacts(artifactWriteParams{
		artifacts: result.Artifacts,
		formats:   opts.Formats,
		input:     opts.Dataset[0],
		output:    output,
	})
	if err != nil {
		return err
	}

	cached := result.CacheInfo.RenderHit
	if output == "-" {
		prog.done("Rendered to stdout")
		return nil
	}
	p.success("Rendered %s", datasetName(opts.Dataset))
	p.stats(result.Stats.NodeCount, result.Stats.EdgeCount, result.Stats.VisibleNodes, cached)
	for _, p := range paths {
		p.file(p)
	}
	prog.done(fmt.Sprintf("Rendered %d files", len(paths)))
	p.nextStep("Explore interactively", appName+" serve "+strings.Join(opts.Dataset, " "))
	return nil
}

// =============================================================================
// Artifact Output
// =============================================================================

// artifactWriteParams describes where rendered artifacts go.
type artifactWriteParams struct {
	artifacts map[string][]byte
	formats   []string
	input     string
	output    string
}

// writeArtifacts writes one file per format and returns the written paths.
// A single format may go to an explicit output file or to stdout ("-").
func writeArtifacts(p artifactWriteParams) ([]string, error) {
	if p.output == "-" {
		if len(p.formats) != 1 {
			return nil, errors.New(errors.ErrCodeInvalidInput, "stdout output takes exactly one format, got %d", len(p.formats))
		}
		return nil, writeArtifact(p.output, p.artifacts[p.formats[0]])
	}

	var paths []string
	for _, format := range p.formats {
		data, ok := p.artifacts[format]
		if !ok {
			return paths, errors.New(errors.ErrCodeInternal, "renderer produced no %s output", format)
		}
		path := outputPath(p.output, p.input, format, len(p.formats) == 1)
		if err := writeArtifact(path, data); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// outputPath names the file of one format. A single-format render keeps an
// explicit output name unchanged.
func outputPath(output, input, format string, single bool) string {
	if single && output != "" && filepath.Ext(output) != "" {
		return output
	}
	return basePath(output, input) + "." + format
}

// basePath derives the output path without extension. Known format
// extensions are stripped from an explicit output; otherwise the input name
// is used, or the file name of a URL input in the working directory.
func basePath(output, input string) string {
	if output == "" {
		if httputil.IsURL(input) {
			input = httputil.Base(input)
		}
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

func writeArtifact(path string, data []byte) error {
	if dir := filepath.Dir(path); path != "-" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	w, err := openOutput(path)
	if err != nil {
		return fmt.Errorf("open output: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return w.Close()
}

// openOutput opens path for writing; "-" or "" means stdout.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// datasetName is a short display name for a dataset list.
func datasetName(paths []string) string {
	if len(paths) == 0 {
		return ""
	}
	name := filepath.Base(paths[0])
	if httputil.IsURL(paths[0]) {
		name = httputil.Base(paths[0])
	}
	if len(paths) > 1 {
		name += fmt.Sprintf(" (+%d)", len(paths)-1)
	}
	return name
}
