package contrib

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/matzehuels/contribnet/pkg/errors"
)

// Source values for contributors.
const (
	SourceInternal = "internal"
	SourceExternal = "external"
)

// Person is one contributor named in a record.
type Person struct {
	Name        string `json:"name" yaml:"name"`
	Affiliation string `json:"affiliation,omitempty" yaml:"affiliation,omitempty"`
	Contact     string `json:"contact,omitempty" yaml:"contact,omitempty"`
	Source      string `json:"source,omitempty" yaml:"source,omitempty"`
}

// Format describes the form a contribution takes.
type Format struct {
	Paper string `json:"paper" yaml:"paper"`
	Web   string `json:"web" yaml:"web"`
}

// IsZero reports whether neither format field is set.
func (f Format) IsZero() bool { return f.Paper == "" && f.Web == "" }

// Record is a single contribution.
type Record struct {
	Who      []Person `json:"who"`
	What     Format   `json:"what"`
	Topics   []string `json:"topics"`
	Source   string   `json:"source,omitempty"`
	Category string   `json:"category,omitempty"`

	hasWho    bool
	hasTopics bool
}

// NewRecord builds a record in code. It is considered complete: who and
// topics are present even when empty.
func NewRecord(who []Person, what Format, topics []string) Record {
	return Record{Who: who, What: what, Topics: topics, hasWho: true, hasTopics: true}
}

// rawRecord mirrors every key a record may use on the wire.
type rawRecord struct {
	Who       json.RawMessage `json:"who"`
	Qui       json.RawMessage `json:"qui"`
	What      json.RawMessage `json:"what"`
	Typologie json.RawMessage `json:"typologie"`
	Quoi      json.RawMessage `json:"quoi"`
	Topics    json.RawMessage `json:"topics"`
	Topic     json.RawMessage `json:"topic"`
	Source    string          `json:"source"`
	Category  string          `json:"category"`
}

type rawPerson struct {
	Name         string `json:"name"`
	Nom          string `json:"nom"`
	Affiliation  string `json:"affiliation"`
	Rattachement string `json:"rattachement"`
	Contact      string `json:"contact"`
	Source       string `json:"source"`
}

type rawFormat struct {
	Paper  string `json:"paper"`
	Papier string `json:"papier"`
	Web    string `json:"web"`
}

// UnmarshalJSON accepts both the English and the French key sets.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw rawRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = Record{Source: raw.Source, Category: raw.Category}

	who := firstPresent(raw.Who, raw.Qui)
	if who != nil {
		people, err := decodePeople(who)
		if err != nil {
			return err
		}
		r.Who = people
		r.hasWho = true
	}

	if what := firstPresent(raw.What, raw.Typologie); what != nil {
		f, err := decodeFormat(what)
		if err != nil {
			return err
		}
		r.What = f
	}

	// quoi is the format object in one export and the category string in another.
	if quoi := firstPresent(raw.Quoi); quoi != nil {
		var s string
		if err := json.Unmarshal(quoi, &s); err == nil {
			if r.Category == "" {
				r.Category = s
			}
		} else if r.What.IsZero() {
			f, err := decodeFormat(quoi)
			if err != nil {
				return err
			}
			r.What = f
		}
	}

	if topics := firstPresent(raw.Topics, raw.Topic); topics != nil {
		t, err := decodeStrings(topics)
		if err != nil {
			return fmt.Errorf("topics: %w", err)
		}
		r.Topics = t
		r.hasTopics = true
	}

	return nil
}

// MarshalJSON writes the English key set.
func (r Record) MarshalJSON() ([]byte, error) {
	type plain struct {
		Who      []Person `json:"who"`
		What     Format   `json:"what"`
		Topics   []string `json:"topics"`
		Source   string   `json:"source,omitempty"`
		Category string   `json:"category,omitempty"`
	}
	return json.Marshal(plain{r.Who, r.What, r.Topics, r.Source, r.Category})
}

// firstPresent returns the first value that is present and not JSON null.
func firstPresent(values ...json.RawMessage) json.RawMessage {
	for _, v := range values {
		if len(v) == 0 || string(v) == "null" {
			continue
		}
		return v
	}
	return nil
}

func decodePeople(data json.RawMessage) ([]Person, error) {
	var list []rawPerson
	if err := json.Unmarshal(data, &list); err != nil {
		var single rawPerson
		if err := json.Unmarshal(data, &single); err != nil {
			return nil, fmt.Errorf("who: expected object or array: %w", err)
		}
		list = []rawPerson{single}
	}
	people := make([]Person, 0, len(list))
	for _, p := range list {
		people = append(people, Person{
			Name:        firstNonEmpty(p.Name, p.Nom),
			Affiliation: firstNonEmpty(p.Affiliation, p.Rattachement),
			Contact:     p.Contact,
			Source:      p.Source,
		})
	}
	return people, nil
}

func decodeFormat(data json.RawMessage) (Format, error) {
	var f rawFormat
	if err := json.Unmarshal(data, &f); err != nil {
		return Format{}, fmt.Errorf("what: %w", err)
	}
	return Format{Paper: firstNonEmpty(f.Paper, f.Papier), Web: f.Web}, nil
}

// decodeStrings accepts an array of strings or a single comma-separated string.
func decodeStrings(data json.RawMessage) ([]string, error) {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		return list, nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("expected string array")
	}
	return []string{s}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// NormalizeSource maps the accepted spellings of a source to SourceInternal
// or SourceExternal. Empty input returns empty output; anything else is an error.
func NormalizeSource(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case "internal", "int", "interne":
		return SourceInternal, nil
	case "external", "ext", "externe":
		return SourceExternal, nil
	}
	return "", errors.New(errors.ErrCodeInvalidRecord, "unknown source %q", s)
}

// Validate reports why a record cannot be turned into graph nodes.
func (r Record) Validate() error {
	if !r.hasWho || len(r.Who) == 0 {
		return errors.New(errors.ErrCodeInvalidRecord, "missing who")
	}
	if !r.hasTopics {
		return errors.New(errors.ErrCodeInvalidRecord, "missing topics")
	}
	if _, err := NormalizeSource(r.Source); err != nil {
		return err
	}
	for _, p := range r.Who {
		if err := errors.ValidateName("person", p.Name); err != nil {
			return err
		}
		if _, err := NormalizeSource(p.Source); err != nil {
			return err
		}
	}
	return nil
}

// SplitList splits a comma-separated string into trimmed, non-empty parts.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
