package graph

import (
	"fmt"
	"slices"

	"github.com/matzehuels/contribnet/pkg/contrib"
	"github.com/matzehuels/contribnet/pkg/errors"
)

// BuildOptions configures [Build].
type BuildOptions struct {
	// DefaultSource is used when neither the person nor the record names a
	// source. Defaults to contrib.SourceInternal.
	DefaultSource string
}

// SetDefaults fills zero fields.
func (o *BuildOptions) SetDefaults() {
	if o.DefaultSource == "" {
		o.DefaultSource = contrib.SourceInternal
	}
}

// Build turns contribution records into a deduplicated graph.
//
// Every record is validated before anything is built, so a rejected record
// fails the whole build with [errors.ErrCodeInvalidRecord] and no partial
// graph is returned. Loaders that want skip semantics filter first, as
// [contrib.Decode] does.
func Build(records []contrib.Record, opts BuildOptions) (*Graph, error) {
	opts.SetDefaults()
	defaultSource, err := contrib.NormalizeSource(opts.DefaultSource)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "default source")
	}

	for i, r := range records {
		if err := r.Validate(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidRecord, err, "record %d: %s", i, errors.UserMessage(err))
		}
	}

	b := newBuilder(defaultSource)
	for i, r := range records {
		b.add(i, r)
	}
	return b.finish(), nil
}

type builder struct {
	defaultSource string

	g       *Graph
	edges   map[Edge]struct{}
	members map[string][]string // topic id -> person names already listed
}

func newBuilder(defaultSource string) *builder {
	return &builder{
		defaultSource: defaultSource,
		g: &Graph{
			People: make(map[string]PersonInfo),
			Topics: make(map[string]TopicInfo),
			index:  make(map[string]int),
		},
		edges:   make(map[Edge]struct{}),
		members: make(map[string][]string),
	}
}

func (b *builder) add(index int, r contrib.Record) {
	categories := recordCategories(r)
	recordSource, _ := contrib.NormalizeSource(r.Source)

	var topicIDs []string
	for _, raw := range r.Topics {
		for _, name := range contrib.SplitList(raw) {
			id := b.topic(name)
			if !slices.Contains(topicIDs, id) {
				topicIDs = append(topicIDs, id)
			}
		}
	}

	var memberIDs []string
	for _, p := range r.Who {
		id := b.person(p, recordSource, categories, r.What)
		if !slices.Contains(memberIDs, id) {
			memberIDs = append(memberIDs, id)
		}
		for _, tid := range topicIDs {
			b.link(id, tid)
		}
	}

	if len(memberIDs) >= 2 {
		b.g.Groups = append(b.g.Groups, Group{
			ID:      fmt.Sprintf("group:%d", index),
			Members: memberIDs,
			Topics:  topicIDs,
			Format:  r.What,
		})
	}
}

// person adds or updates a contributor. The first occurrence fixes every
// attribute except the topic set.
func (b *builder) person(p contrib.Person, recordSource string, categories []string, format contrib.Format) string {
	id := PersonID(p.Name)
	if _, ok := b.g.index[id]; ok {
		return id
	}

	source, _ := contrib.NormalizeSource(p.Source)
	if source == "" {
		source = recordSource
	}
	if source == "" {
		source = b.defaultSource
	}

	b.g.index[id] = len(b.g.Nodes)
	b.g.Nodes = append(b.g.Nodes, Node{
		ID:          id,
		Kind:        KindPerson,
		Name:        p.Name,
		Source:      source,
		Categories:  slices.Clone(categories),
		Affiliation: p.Affiliation,
		Contact:     p.Contact,
		Format:      format,
	})
	b.g.People[id] = PersonInfo{
		Name:        p.Name,
		Affiliation: p.Affiliation,
		Contact:     p.Contact,
		Source:      source,
		Categories:  slices.Clone(categories),
		Format:      format,
	}
	return id
}

func (b *builder) topic(name string) string {
	id := TopicID(name)
	if _, ok := b.g.index[id]; ok {
		return id
	}
	b.g.index[id] = len(b.g.Nodes)
	b.g.Nodes = append(b.g.Nodes, Node{ID: id, Kind: KindTopic, Name: name})
	b.g.Topics[id] = TopicInfo{Name: name}
	return id
}

// link records person -> topic once and updates both lookup tables.
func (b *builder) link(personID, topicID string) {
	e := Edge{Source: personID, Target: topicID}
	if _, dup := b.edges[e]; dup {
		return
	}
	b.edges[e] = struct{}{}
	b.g.Edges = append(b.g.Edges, e)

	pn := &b.g.Nodes[b.g.index[personID]]
	pn.Topics = append(pn.Topics, topicID)

	topic := b.g.Nodes[b.g.index[topicID]]
	info := b.g.People[personID]
	info.Topics = append(info.Topics, topic.Name)
	b.g.People[personID] = info

	if slices.Contains(b.members[topicID], pn.Name) {
		return
	}
	b.members[topicID] = append(b.members[topicID], pn.Name)
	ti := b.g.Topics[topicID]
	ti.Persons = append(ti.Persons, ContactRef{ID: personID, Name: pn.Name, Contact: pn.Contact})
	b.g.Topics[topicID] = ti
}

func (b *builder) finish() *Graph {
	if b.g.Nodes == nil {
		b.g.Nodes = []Node{}
	}
	if b.g.Edges == nil {
		b.g.Edges = []Edge{}
	}
	return b.g
}

// recordCategories splits the record's category string, falling back to the
// contribution format and finally to [Unspecified].
func recordCategories(r contrib.Record) []string {
	if c := contrib.SplitList(r.Category); len(c) > 0 {
		return dedupe(c)
	}
	var c []string
	if r.What.Paper != "" {
		c = append(c, "paper")
	}
	if r.What.Web != "" {
		c = append(c, "web")
	}
	if len(c) == 0 {
		c = []string{Unspecified}
	}
	return c
}

func dedupe(values []string) []string {
	out := values[:0:0]
	for _, v := range values {
		if !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}
