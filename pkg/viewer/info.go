package viewer

import (
	"github.com/matzehuels/contribnet/pkg/contrib"
	"github.com/matzehuels/contribnet/pkg/graph"
)

// InfoKind identifies what an info panel describes.
type InfoKind string

const (
	InfoPerson InfoKind = "person"
	InfoTopic  InfoKind = "topic"
	InfoGroup  InfoKind = "group"
)

// Info is the content of the info panel.
type Info struct {
	Kind   InfoKind `json:"kind"`
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Pinned bool     `json:"pinned"`

	// Contributor details.
	Affiliation string   `json:"affiliation,omitempty"`
	Contact     string   `json:"contact,omitempty"`
	Source      string   `json:"source,omitempty"`
	Categories  []string `json:"categories,omitempty"`

	// Topics of a contributor or of a collective contribution.
	Topics []string `json:"topics,omitempty"`

	// Contributors of a topic.
	Persons []graph.ContactRef `json:"persons,omitempty"`

	// Members of a collective contribution.
	Members []string `json:"members,omitempty"`

	Format contrib.Format `json:"format,omitzero"`
}

// nodeInfo describes a person or topic node.
func nodeInfo(g *graph.Graph, id string) (*Info, bool) {
	n, ok := g.Node(id)
	if !ok {
		return nil, false
	}
	if n.IsPerson() {
		p := g.People[id]
		return &Info{
			Kind:        InfoPerson,
			ID:          id,
			Name:        p.Name,
			Affiliation: p.Affiliation,
			Contact:     p.Contact,
			Source:      p.Source,
			Categories:  p.Categories,
			Topics:      p.Topics,
			Format:      p.Format,
		}, true
	}
	t := g.Topics[id]
	return &Info{Kind: InfoTopic, ID: id, Name: t.Name, Persons: t.Persons}, true
}

// groupInfo describes a collective contribution.
func groupInfo(g *graph.Graph, grp graph.Group) *Info {
	info := &Info{Kind: InfoGroup, ID: grp.ID, Format: grp.Format}
	for _, m := range grp.Members {
		info.Members = append(info.Members, g.People[m].Name)
	}
	for _, t := range grp.Topics {
		info.Topics = append(info.Topics, g.Topics[t].Name)
	}
	info.Name = joinNames(info.Members)
	return info
}

func joinNames(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	case 2:
		return names[0] + " & " + names[1]
	}
	return names[0] + " et al."
}
