package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/contribnet/pkg/contrib"
	"github.com/matzehuels/contribnet/pkg/graph"
)

func build(t *testing.T, records ...contrib.Record) *graph.Graph {
	t.Helper()
	g, err := graph.Build(records, graph.BuildOptions{})
	require.NoError(t, err)
	return g
}

func rec(name, source, category string, topics ...string) contrib.Record {
	r := contrib.NewRecord([]contrib.Person{{Name: name, Source: source}}, contrib.Format{}, topics)
	r.Category = category
	return r
}

// twoContributors is A (internal, X) and B (external, Y), both on topic T.
func twoContributors(t *testing.T) *graph.Graph {
	return build(t,
		rec("A", "internal", "X", "T"),
		rec("B", "external", "Y", "T"),
	)
}

func TestSourceScenario(t *testing.T) {
	g := twoContributors(t)
	s := Defaults(g)
	assert.False(t, s.ToggleSource(contrib.SourceExternal))

	v := Apply(g, s, EmptyNone)
	assert.Equal(t, []string{"person:A", "topic:t"}, v.IDs())
	assert.Equal(t, []graph.Edge{{Source: "person:A", Target: "topic:t"}}, v.Edges)
	assert.False(t, v.Contains("person:B"))
}

func TestCategorySplitting(t *testing.T) {
	g := build(t,
		rec("A", "internal", "X, Y", "T"),
		rec("B", "internal", "Z", "U"),
	)
	for _, only := range []string{"X", "Y"} {
		t.Run(only, func(t *testing.T) {
			s := Defaults(g)
			s.Categories = map[string]bool{only: true}
			v := Apply(g, s, EmptyNone)
			assert.True(t, v.Contains("person:A"))
			assert.False(t, v.Contains("person:B"))
			assert.False(t, v.Contains("topic:u"))
		})
	}
}

func TestEmptySourceSetShowsNothing(t *testing.T) {
	g := twoContributors(t)
	s := Defaults(g)
	s.ToggleSource(contrib.SourceInternal)
	s.ToggleSource(contrib.SourceExternal)

	v := Apply(g, s, EmptyAll)
	assert.True(t, v.IsEmpty())
	assert.Empty(t, v.Edges)
	assert.Equal(t, Stats{}, v.Stats())
}

func TestEmptyCategoryPolicy(t *testing.T) {
	g := twoContributors(t)
	s := Defaults(g)
	s.ToggleCategory("X")
	s.ToggleCategory("Y")
	require.Empty(t, s.ActiveCategories())

	assert.True(t, Apply(g, s, EmptyNone).IsEmpty())

	all := Apply(g, s, EmptyAll)
	assert.Equal(t, Stats{Contributors: 2, Topics: 1, Connections: 2}, all.Stats())
}

func TestTopicRestriction(t *testing.T) {
	g := build(t,
		rec("A", "internal", "X", "T", "U"),
		rec("B", "internal", "X", "U"),
		rec("C", "internal", "X", "V"),
	)
	s := Defaults(g)
	s.SetTopic(graph.TopicID("T"))

	v := Apply(g, s, EmptyNone)
	assert.Equal(t, []string{"person:A", "topic:t", "topic:u"}, v.IDs())

	s.SetTopic("")
	assert.Equal(t, 6, len(Apply(g, s, EmptyNone).Nodes))
}

func TestNoOrphanTopics(t *testing.T) {
	g := build(t,
		rec("A", "internal", "X", "T1", "T2"),
		rec("B", "external", "Y", "T2", "T3"),
		rec("C", "internal", "Y, Z", "T3"),
		rec("D", "external", "Z"),
	)
	sources := []string{"internal", "external"}
	categories := []string{"X", "Y", "Z"}

	// Every combination of active sources and categories.
	for smask := range 1 << len(sources) {
		for cmask := range 1 << len(categories) {
			s := State{Sources: map[string]bool{}, Categories: map[string]bool{}}
			for i, v := range sources {
				if smask&(1<<i) != 0 {
					s.Sources[v] = true
				}
			}
			for i, v := range categories {
				if cmask&(1<<i) != 0 {
					s.Categories[v] = true
				}
			}
			for _, policy := range []EmptyCategoryPolicy{EmptyNone, EmptyAll} {
				v := Apply(g, s, policy)
				for _, n := range v.Nodes {
					if n.IsTopic() {
						assert.GreaterOrEqual(t, v.Degree(n.ID), 1, "orphan topic %s", n.ID)
					}
				}
				for _, e := range v.Edges {
					assert.True(t, v.Contains(e.Source), "dangling %s", e.Source)
					assert.True(t, v.Contains(e.Target), "dangling %s", e.Target)
				}
			}
		}
	}
}

func TestIdempotence(t *testing.T) {
	g := twoContributors(t)
	s := Defaults(g)
	s.ToggleCategory("Y")

	first := Apply(g, s, EmptyNone)
	second := Apply(g, s, EmptyNone)
	assert.True(t, first.Equal(second))
}

func TestToggleRoundTrip(t *testing.T) {
	g := build(t,
		rec("A", "internal", "X", "T"),
		rec("B", "external", "X, Y", "T", "U"),
		rec("C", "external", "Y", "V"),
	)
	s := Defaults(g)
	before := Apply(g, s, EmptyNone)

	for _, toggle := range []func(*State) bool{
		func(s *State) bool { return s.ToggleSource("external") },
		func(s *State) bool { return s.ToggleCategory("Y") },
		func(s *State) bool { return s.ToggleCategory("new") },
	} {
		toggle(&s)
		toggle(&s)
		assert.True(t, before.Equal(Apply(g, s, EmptyNone)))
	}
}

func TestViewEqualIgnoresOrder(t *testing.T) {
	a := View{
		Nodes: []graph.Node{{ID: "person:a"}, {ID: "topic:t"}},
		Edges: []graph.Edge{{Source: "person:a", Target: "topic:t"}, {Source: "person:b", Target: "topic:t"}},
	}
	b := View{
		Nodes: []graph.Node{{ID: "topic:t"}, {ID: "person:a"}},
		Edges: []graph.Edge{{Source: "person:b", Target: "topic:t"}, {Source: "person:a", Target: "topic:t"}},
	}
	assert.True(t, a.Equal(b))
	b.Edges = b.Edges[:1]
	assert.False(t, a.Equal(b))
}

func TestEmptyGraph(t *testing.T) {
	g := build(t)
	v := Apply(g, Defaults(g), EmptyNone)
	assert.True(t, v.IsEmpty())
	assert.NotNil(t, v.Nodes)
	assert.NotNil(t, v.Edges)
}

func TestStateClone(t *testing.T) {
	g := twoContributors(t)
	s := Defaults(g)
	c := s.Clone()
	c.ToggleSource("internal")
	assert.True(t, s.Sources["internal"])
	assert.False(t, c.Sources["internal"])
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in   string
		want EmptyCategoryPolicy
		ok   bool
	}{
		{"", EmptyNone, true},
		{"none", EmptyNone, true},
		{"all", EmptyAll, true},
		{"some", EmptyNone, false},
	}
	for _, tt := range tests {
		got, ok := ParsePolicy(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
	}
	assert.Equal(t, "all", EmptyAll.String())
	assert.Equal(t, "none", EmptyNone.String())
}
