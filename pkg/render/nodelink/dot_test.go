package nodelink

import (
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/contribnet/pkg/contrib"
	"github.com/matzehuels/contribnet/pkg/filter"
	"github.com/matzehuels/contribnet/pkg/graph"
)

func testGraph(t *testing.T) *graph.Graph {
	t.Helper()
	r1 := contrib.NewRecord([]contrib.Person{{Name: "Ada", Affiliation: "Analytical Society", Source: "internal"}},
		contrib.Format{Paper: "yes"}, []string{"Graphs"})
	r2 := contrib.NewRecord([]contrib.Person{{Name: "Bob", Source: "external"}},
		contrib.Format{Web: "yes"}, []string{"Graphs", "Trees"})
	g, err := graph.Build([]contrib.Record{r1, r2}, graph.BuildOptions{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return g
}

func TestToDOT_Basic(t *testing.T) {
	g := testGraph(t)
	v := filter.Apply(g, filter.Defaults(g), filter.EmptyNone)

	dot := ToDOT(v, g, Options{})

	for _, want := range []string{
		"graph G {",
		"layout=neato;",
		`"person:Ada" [label="Ada", shape=ellipse`,
		`"person:Bob" [label="Bob", shape=box`,
		`"topic:graphs" [label="Graphs", shape=diamond`,
		`"person:Ada" -- "topic:graphs";`,
		`"person:Bob" -- "topic:trees";`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() output missing %q\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "->") {
		t.Error("ToDOT() output should be undirected")
	}
}

func TestToDOT_FilteredView(t *testing.T) {
	g := testGraph(t)
	s := filter.Defaults(g)
	s.ToggleSource("external")
	v := filter.Apply(g, s, filter.EmptyNone)

	dot := ToDOT(v, g, Options{Engine: EngineFDP})

	if strings.Contains(dot, "person:Bob") || strings.Contains(dot, "topic:trees") {
		t.Errorf("hidden nodes exported:\n%s", dot)
	}
	if !strings.Contains(dot, "layout=fdp;") {
		t.Error("engine not recorded")
	}
}

func TestToDOT_Colors(t *testing.T) {
	g := testGraph(t)
	v := filter.Apply(g, filter.Defaults(g), filter.EmptyNone)

	dot := ToDOT(v, g, Options{})

	// categories sort as [paper web]
	if !strings.Contains(dot, `fillcolor="#8dd3c7"`) || !strings.Contains(dot, `fillcolor="#ffffb3"`) {
		t.Errorf("category colors missing:\n%s", dot)
	}
	if !strings.Contains(dot, `fillcolor="#95a5a6"`) {
		t.Error("topic color missing")
	}
}

func TestFmtLabel(t *testing.T) {
	g := testGraph(t)
	ada, _ := g.Node("person:Ada")
	topic, _ := g.Node("topic:graphs")

	if got := fmtLabel(g, ada, false); got != "Ada" {
		t.Errorf("fmtLabel() simple = %q", got)
	}
	if got := fmtLabel(g, ada, true); got != "Ada\nAnalytical Society\npaper" {
		t.Errorf("fmtLabel() detailed = %q", got)
	}
	if got := fmtLabel(g, topic, true); got != "Graphs" {
		t.Errorf("fmtLabel() topic = %q", got)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	got := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100.00 50.00" width="100" height="50"><g/></svg>`
	if got != want {
		t.Errorf("normalizeViewBox() = %q, want %q", got, want)
	}
	if got := normalizeViewBox([]byte("<svg/>")); string(got) != "<svg/>" {
		t.Errorf("normalizeViewBox() without viewBox changed input: %q", got)
	}
}

func TestRenderSVG(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping graphviz rendering in short mode")
	}
	g := testGraph(t)
	v := filter.Apply(g, filter.Defaults(g), filter.EmptyNone)

	svg, err := RenderSVG(context.Background(), ToDOT(v, g, Options{}), EngineNeato)
	if err != nil {
		t.Fatalf("RenderSVG: %v", err)
	}
	if !strings.Contains(string(svg), "<svg") {
		t.Error("RenderSVG() output is not SVG")
	}
}
