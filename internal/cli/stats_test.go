package cli

import (
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/contribnet/pkg/pipeline"
)

func TestSummarize(t *testing.T) {
	loaded, err := pipeline.Load(context.Background(), pipeline.Options{Dataset: []string{writeDataset(t)}})
	if err != nil {
		t.Fatal(err)
	}
	s := summarize(loaded.Graph, loaded.Report)

	if s.Report.Total != 3 || s.Report.Accepted != 2 || len(s.Report.Skipped) != 1 {
		t.Errorf("report = %+v", s.Report)
	}
	if s.Contributors != 3 || s.Topics != 2 || s.Edges != 4 || s.Groups != 1 {
		t.Errorf("counts = %d people, %d topics, %d edges, %d groups", s.Contributors, s.Topics, s.Edges, s.Groups)
	}

	wantSources := []countRow{{"external", 1}, {"internal", 2}}
	if len(s.Sources) != 2 || s.Sources[0] != wantSources[0] || s.Sources[1] != wantSources[1] {
		t.Errorf("sources = %v, want %v", s.Sources, wantSources)
	}
	wantCategories := []countRow{{"math", 1}, {"physics", 2}}
	if len(s.Categories) != 2 || s.Categories[0] != wantCategories[0] || s.Categories[1] != wantCategories[1] {
		t.Errorf("categories = %v, want %v", s.Categories, wantCategories)
	}

	// Ordered by contributor count, then name.
	if len(s.TopTopics) != 2 || s.TopTopics[0] != (countRow{"graphs", 3}) || s.TopTopics[1] != (countRow{"forces", 1}) {
		t.Errorf("topics = %v", s.TopTopics)
	}
}

func TestCountTable(t *testing.T) {
	out := countTable("Category", []countRow{{"math", 1}, {"physics", 12}})
	for _, want := range []string{"Category", "People", "math", "physics", "12"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}

func TestStatsCommand(t *testing.T) {
	out, err := runCLI(t, "stats", writeDataset(t), "--no-cache", "--top", "1")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Elements", "Skipped", "Source", "Category", "Topic", "use --top 0"} {
		if !strings.Contains(out, want) {
			t.Errorf("stats output should contain %q:\n%s", want, out)
		}
	}
}
