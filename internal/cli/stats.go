package cli

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/contribnet/pkg/contrib"
	"github.com/matzehuels/contribnet/pkg/errors"
	"github.com/matzehuels/contribnet/pkg/graph"
)

// defaultTopTopics is how many topics the stats command lists.
const defaultTopTopics = 10

// statsCommand creates the stats command summarizing a dataset load.
func (c *CLI) statsCommand() *cobra.Command {
	var (
		top     int
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "stats [dataset...]",
		Short: "Summarize a dataset",
		Long: `Summarize a dataset.

Loads the dataset exactly like 'render' and 'serve' do and prints the load
report (accepted and skipped elements), node and edge counts, the sources and
categories contributors carry, and the topics with the most contributors.`,
		ValidArgsFunction: datasetCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runStats(cmd.Context(), newPrinter(cmd.OutOrStdout()), c.datasetArgs(args), top, noCache)
		},
	}

	cmd.Flags().IntVar(&top, "top", defaultTopTopics, "number of topics to list (0 for all)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runStats(ctx context.Context, p printer, dataset []string, top int, noCache bool) error {
	if len(dataset) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "no dataset given and none configured")
	}

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts := c.pipelineDefaults()
	opts.Dataset = dataset
	loaded, cached, err := runner.LoadWithCacheInfo(ctx, opts)
	if err != nil {
		return err
	}

	s := summarize(loaded.Graph, loaded.Report)
	p.summary(datasetName(dataset), s, top, cached)
	return nil
}

// =============================================================================
// Summary
// =============================================================================

// countRow is one named count of a summary table.
type countRow struct {
	Name  string
	Count int
}

// datasetSummary holds everything the stats command prints.
type datasetSummary struct {
	Report       contrib.Report
	Contributors int
	Topics       int
	Edges        int
	Groups       int
	Sources      []countRow
	Categories   []countRow
	TopTopics    []countRow
}

// summarize counts contributors per source and category and contributors per
// topic. Topics are ordered by count, then name.
func summarize(g *graph.Graph, report contrib.Report) datasetSummary {
	s := datasetSummary{
		Report: report,
		Edges:  g.EdgeCount(),
		Groups: len(g.Groups),
	}

	sources := map[string]int{}
	categories := map[string]int{}
	for _, n := range g.Nodes {
		switch {
		case n.IsPerson():
			s.Contributors++
			sources[n.Source]++
			for _, cat := range n.Categories {
				categories[cat]++
			}
		case n.IsTopic():
			s.Topics++
		}
	}
	for _, v := range g.Sources() {
		s.Sources = append(s.Sources, countRow{v, sources[v]})
	}
	for _, v := range g.Categories() {
		s.Categories = append(s.Categories, countRow{v, categories[v]})
	}

	for _, t := range g.Topics {
		s.TopTopics = append(s.TopTopics, countRow{t.Name, len(t.Persons)})
	}
	slices.SortFunc(s.TopTopics, func(a, b countRow) int {
		return cmp.Or(cmp.Compare(b.Count, a.Count), cmp.Compare(a.Name, b.Name))
	})
	return s
}

// summary prints a dataset summary with its count tables.
func (p printer) summary(name string, s datasetSummary, top int, cached bool) {
	p.title(name)
	p.newline()

	p.keyValue("Elements", strconv.Itoa(s.Report.Total))
	p.keyValue("Accepted", StyleNumber.Render(strconv.Itoa(s.Report.Accepted)))
	if n := len(s.Report.Skipped); n > 0 {
		p.keyValue("Skipped", StyleWarning.Render(strconv.Itoa(n)))
	}
	p.keyValue("People", strconv.Itoa(s.Contributors))
	p.keyValue("Topics", strconv.Itoa(s.Topics))
	p.keyValue("Links", strconv.Itoa(s.Edges))
	p.keyValue("Groups", strconv.Itoa(s.Groups))
	if cached {
		p.keyValue("Load", styleCached.Render(iconCached))
	}
	p.newline()

	p.line(countTable("Source", s.Sources))
	p.line(countTable("Category", s.Categories))

	topics := s.TopTopics
	if top > 0 && len(topics) > top {
		topics = topics[:top]
	}
	p.line(countTable("Topic", topics))
	if len(topics) < len(s.TopTopics) {
		p.detail("%d more topics, use --top 0 to list all", len(s.TopTopics)-len(topics))
	}

	for _, skip := range s.Report.Skipped {
		p.warning("element #%d skipped: %s", skip.Index, skip.Reason)
	}
}

// countTable renders named counts as a bordered table.
func countTable(header string, rows []countRow) string {
	data := make([][]string, len(rows))
	for i, r := range rows {
		data[i] = []string{r.Name, strconv.Itoa(r.Count)}
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleBorder).
		Headers(header, "People").
		Rows(data...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return styleHeader
			case col == 1:
				return StyleNumber.Align(lipgloss.Right)
			}
			return StyleValue
		}).
		Render()
}
