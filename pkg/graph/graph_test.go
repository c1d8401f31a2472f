package graph

import (
	"bytes"
	"path/filepath"
	"slices"
	"testing"

	"github.com/matzehuels/contribnet/pkg/contrib"
	"github.com/matzehuels/contribnet/pkg/errors"
)

func person(name string) contrib.Person { return contrib.Person{Name: name} }

func record(who []contrib.Person, category string, topics ...string) contrib.Record {
	r := contrib.NewRecord(who, contrib.Format{}, topics)
	r.Category = category
	return r
}

func TestBuild(t *testing.T) {
	tests := []struct {
		name      string
		records   []contrib.Record
		wantNodes int
		wantEdges int
		check     func(t *testing.T, g *Graph)
	}{
		{
			name:      "Empty",
			records:   nil,
			wantNodes: 0,
			wantEdges: 0,
		},
		{
			name: "SingleContribution",
			records: []contrib.Record{
				record([]contrib.Person{person("Ada")}, "X", "graphs", "layout"),
			},
			wantNodes: 3,
			wantEdges: 2,
		},
		{
			name: "DuplicateContributionsCollapse",
			records: []contrib.Record{
				record([]contrib.Person{person("Ada")}, "X", "graphs"),
				record([]contrib.Person{person("Ada")}, "X", "graphs"),
				record([]contrib.Person{person("Ada")}, "X", "Graphs"),
			},
			wantNodes: 2,
			wantEdges: 1,
			check: func(t *testing.T, g *Graph) {
				n, ok := g.Node(TopicID("graphs"))
				if !ok {
					t.Fatal("topic missing")
				}
				if n.Name != "graphs" {
					t.Errorf("topic name = %q, want first spelling", n.Name)
				}
			},
		},
		{
			name: "FirstOccurrenceWinsTopicsUnion",
			records: []contrib.Record{
				record([]contrib.Person{{Name: "Ada", Affiliation: "Lab", Contact: "ada@lab"}}, "X", "graphs"),
				record([]contrib.Person{{Name: "Ada", Affiliation: "Other", Contact: "x@y"}}, "Y", "layout"),
			},
			wantNodes: 3,
			wantEdges: 2,
			check: func(t *testing.T, g *Graph) {
				info := g.People[PersonID("Ada")]
				if info.Affiliation != "Lab" || info.Contact != "ada@lab" {
					t.Errorf("info = %+v, want first occurrence", info)
				}
				if !slices.Equal(info.Categories, []string{"X"}) {
					t.Errorf("categories = %v, want [X]", info.Categories)
				}
				if !slices.Equal(info.Topics, []string{"graphs", "layout"}) {
					t.Errorf("topics = %v, want union", info.Topics)
				}
				n, _ := g.Node(PersonID("Ada"))
				if len(n.Topics) != 2 {
					t.Errorf("node topics = %v, want 2", n.Topics)
				}
			},
		},
		{
			name: "CommaSeparatedTags",
			records: []contrib.Record{
				record([]contrib.Person{person("Ada")}, "X, Y", "graphs, layout ,"),
			},
			wantNodes: 3,
			wantEdges: 2,
			check: func(t *testing.T, g *Graph) {
				n, _ := g.Node(PersonID("Ada"))
				if !n.HasCategory("X") || !n.HasCategory("Y") {
					t.Errorf("categories = %v, want X and Y", n.Categories)
				}
				if n.PrimaryCategory() != "X" {
					t.Errorf("primary = %q, want X", n.PrimaryCategory())
				}
			},
		},
		{
			name: "PersonAndTopicWithSameName",
			records: []contrib.Record{
				record([]contrib.Person{person("graphs")}, "X", "graphs"),
			},
			wantNodes: 2,
			wantEdges: 1,
		},
		{
			name: "CollectiveContributionMakesGroup",
			records: []contrib.Record{
				record([]contrib.Person{person("Ada"), person("Bob")}, "X", "graphs"),
				record([]contrib.Person{person("Ada")}, "X", "layout"),
			},
			wantNodes: 4,
			wantEdges: 3,
			check: func(t *testing.T, g *Graph) {
				if len(g.Groups) != 1 {
					t.Fatalf("groups = %d, want 1", len(g.Groups))
				}
				grp := g.Groups[0]
				if !slices.Equal(grp.Members, []string{PersonID("Ada"), PersonID("Bob")}) {
					t.Errorf("members = %v", grp.Members)
				}
				ti := g.Topics[TopicID("graphs")]
				if len(ti.Persons) != 2 {
					t.Errorf("topic persons = %v, want 2", ti.Persons)
				}
			},
		},
		{
			name: "ContributorWithoutTopics",
			records: []contrib.Record{
				record([]contrib.Person{person("Ada")}, "X"),
			},
			wantNodes: 1,
			wantEdges: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Build(tt.records, BuildOptions{})
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			if got := g.NodeCount(); got != tt.wantNodes {
				t.Errorf("nodes = %d, want %d", got, tt.wantNodes)
			}
			if got := g.EdgeCount(); got != tt.wantEdges {
				t.Errorf("edges = %d, want %d", got, tt.wantEdges)
			}
			if err := g.Validate(); err != nil {
				t.Errorf("Validate: %v", err)
			}
			if tt.check != nil {
				tt.check(t, g)
			}
		})
	}
}

func TestBuildCategoryFallback(t *testing.T) {
	tests := []struct {
		name   string
		format contrib.Format
		want   []string
	}{
		{"Paper", contrib.Format{Paper: "chapter"}, []string{"paper"}},
		{"Web", contrib.Format{Web: "site"}, []string{"web"}},
		{"Both", contrib.Format{Paper: "a", Web: "b"}, []string{"paper", "web"}},
		{"None", contrib.Format{}, []string{Unspecified}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := contrib.NewRecord([]contrib.Person{person("Ada")}, tt.format, []string{"t"})
			g, err := Build([]contrib.Record{r}, BuildOptions{})
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			n, _ := g.Node(PersonID("Ada"))
			if !slices.Equal(n.Categories, tt.want) {
				t.Errorf("categories = %v, want %v", n.Categories, tt.want)
			}
		})
	}
}

func TestBuildSources(t *testing.T) {
	r1 := record([]contrib.Person{{Name: "Ada", Source: "ext"}}, "X", "t")
	r2 := record([]contrib.Person{person("Bob")}, "X", "t")
	r2.Source = "externe"
	r3 := record([]contrib.Person{person("Cy")}, "X", "t")

	g, err := Build([]contrib.Record{r1, r2, r3}, BuildOptions{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for name, want := range map[string]string{
		"Ada": contrib.SourceExternal,
		"Bob": contrib.SourceExternal,
		"Cy":  contrib.SourceInternal,
	} {
		n, _ := g.Node(PersonID(name))
		if n.Source != want {
			t.Errorf("%s source = %q, want %q", name, n.Source, want)
		}
	}
	if got := g.Sources(); !slices.Equal(got, []string{"external", "internal"}) {
		t.Errorf("Sources() = %v", got)
	}

	g, err = Build([]contrib.Record{r3}, BuildOptions{DefaultSource: "external"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if n, _ := g.Node(PersonID("Cy")); n.Source != contrib.SourceExternal {
		t.Errorf("default source not applied: %q", n.Source)
	}
}

func TestBuildRejectsMalformed(t *testing.T) {
	good := record([]contrib.Person{person("Ada")}, "X", "t")
	tests := []struct {
		name string
		bad  contrib.Record
	}{
		{"MissingWho", contrib.Record{Topics: []string{"t"}}},
		{"EmptyName", record([]contrib.Person{person(" ")}, "X", "t")},
		{"UnknownSource", func() contrib.Record {
			r := record([]contrib.Person{person("Bob")}, "X", "t")
			r.Source = "martian"
			return r
		}()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Build([]contrib.Record{good, tt.bad}, BuildOptions{})
			if err == nil {
				t.Fatal("expected error")
			}
			if g != nil {
				t.Error("partial graph returned")
			}
			if !errors.Is(err, errors.ErrCodeInvalidRecord) {
				t.Errorf("code = %s, want INVALID_RECORD", errors.GetCode(err))
			}
		})
	}

	if _, err := Build(nil, BuildOptions{DefaultSource: "nowhere"}); err == nil {
		t.Error("expected error for bad default source")
	}
}

func TestNoDanglingEdges(t *testing.T) {
	var records []contrib.Record
	names := []string{"Ada", "Bob", "Cy", "Dee"}
	topics := []string{"a", "b, c", "C", "d"}
	for i := range 20 {
		who := []contrib.Person{person(names[i%len(names)])}
		if i%3 == 0 {
			who = append(who, person(names[(i+1)%len(names)]))
		}
		records = append(records, record(who, "X", topics[i%len(topics)], topics[(i+2)%len(topics)]))
	}
	g, err := Build(records, BuildOptions{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for _, e := range g.Edges {
		if _, ok := g.Node(e.Source); !ok {
			t.Errorf("dangling source %s", e.Source)
		}
		if _, ok := g.Node(e.Target); !ok {
			t.Errorf("dangling target %s", e.Target)
		}
	}
	if err := g.Validate(); err != nil {
		t.Error(err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		g       Graph
		wantErr bool
	}{
		{"Empty", Graph{}, false},
		{
			name: "Valid",
			g: Graph{
				Nodes: []Node{{ID: "person:a", Kind: KindPerson}, {ID: "topic:t", Kind: KindTopic}},
				Edges: []Edge{{Source: "person:a", Target: "topic:t"}},
			},
		},
		{
			name:    "DuplicateID",
			g:       Graph{Nodes: []Node{{ID: "x", Kind: KindPerson}, {ID: "x", Kind: KindTopic}}},
			wantErr: true,
		},
		{
			name:    "UnknownKind",
			g:       Graph{Nodes: []Node{{ID: "x", Kind: "robot"}}},
			wantErr: true,
		},
		{
			name: "DanglingEdge",
			g: Graph{
				Nodes: []Node{{ID: "person:a", Kind: KindPerson}},
				Edges: []Edge{{Source: "person:a", Target: "topic:t"}},
			},
			wantErr: true,
		},
		{
			name: "TopicToPerson",
			g: Graph{
				Nodes: []Node{{ID: "person:a", Kind: KindPerson}, {ID: "topic:t", Kind: KindTopic}},
				Edges: []Edge{{Source: "topic:t", Target: "person:a"}},
			},
			wantErr: true,
		},
		{
			name: "DuplicateEdge",
			g: Graph{
				Nodes: []Node{{ID: "person:a", Kind: KindPerson}, {ID: "topic:t", Kind: KindTopic}},
				Edges: []Edge{{Source: "person:a", Target: "topic:t"}, {Source: "person:a", Target: "topic:t"}},
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.g.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGraphRoundTrip(t *testing.T) {
	g, err := Build([]contrib.Record{
		record([]contrib.Person{{Name: "Ada", Contact: "ada@lab"}, person("Bob")}, "X, Y", "graphs"),
		record([]contrib.Person{person("Bob")}, "Y", "layout"),
	}, BuildOptions{})
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := WriteGraph(g, &buf); err != nil {
		t.Fatalf("WriteGraph: %v", err)
	}
	got, err := ReadGraph(&buf)
	if err != nil {
		t.Fatalf("ReadGraph: %v", err)
	}
	if got.NodeCount() != g.NodeCount() || got.EdgeCount() != g.EdgeCount() {
		t.Errorf("counts = %d/%d, want %d/%d", got.NodeCount(), got.EdgeCount(), g.NodeCount(), g.EdgeCount())
	}
	if len(got.Groups) != 1 {
		t.Errorf("groups = %d, want 1", len(got.Groups))
	}
	ti := got.Topics[TopicID("graphs")]
	if len(ti.Persons) != 2 || ti.Persons[0].Contact != "ada@lab" {
		t.Errorf("topic lookup not rebuilt: %+v", ti)
	}
	if !slices.Equal(got.People[PersonID("Bob")].Topics, []string{"graphs", "layout"}) {
		t.Errorf("person lookup not rebuilt: %+v", got.People[PersonID("Bob")])
	}

	path := filepath.Join(t.TempDir(), "graph.json")
	if err := WriteGraphFile(g, path); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadGraphFile(path); err != nil {
		t.Fatal(err)
	}
}

func TestReadGraphInvalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"NotJSON", "{nodes"},
		{"Dangling", `{"nodes":[{"id":"person:a","kind":"person"}],"edges":[{"source":"person:a","target":"topic:x"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadGraph(bytes.NewBufferString(tt.input)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestCategoriesAndTopicNames(t *testing.T) {
	g, _ := Build([]contrib.Record{
		record([]contrib.Person{person("Ada")}, "Y, X", "beta"),
		record([]contrib.Person{person("Bob")}, "Z", "alpha"),
	}, BuildOptions{})
	if got := g.Categories(); !slices.Equal(got, []string{"X", "Y", "Z"}) {
		t.Errorf("Categories() = %v", got)
	}
	if got := g.TopicNames(); !slices.Equal(got, []string{"alpha", "beta"}) {
		t.Errorf("TopicNames() = %v", got)
	}
}
