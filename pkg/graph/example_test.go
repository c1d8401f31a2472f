package graph_test

import (
	"fmt"

	"github.com/matzehuels/contribnet/pkg/contrib"
	"github.com/matzehuels/contribnet/pkg/graph"
)

func ExampleBuild() {
	records := []contrib.Record{
		contrib.NewRecord(
			[]contrib.Person{{Name: "Ada", Contact: "ada@example.org"}, {Name: "Bob"}},
			contrib.Format{Paper: "chapter 2"},
			[]string{"graphs, layout"},
		),
		contrib.NewRecord(
			[]contrib.Person{{Name: "Ada"}},
			contrib.Format{Web: "blog"},
			[]string{"Graphs"},
		),
	}

	g, err := graph.Build(records, graph.BuildOptions{})
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	fmt.Println("nodes:", g.NodeCount(), "edges:", g.EdgeCount(), "groups:", len(g.Groups))
	for _, ref := range g.Topics[graph.TopicID("graphs")].Persons {
		fmt.Printf("graphs <- %s (%s)\n", ref.Name, ref.Contact)
	}
	fmt.Println(g.People[graph.PersonID("Ada")].Categories)
	// Output:
	// nodes: 4 edges: 4 groups: 1
	// graphs <- Ada (ada@example.org)
	// graphs <- Bob ()
	// [paper]
}
