// Package model holds the value types shared by the contact reconciliation pipeline.
package model

import (
	"encoding/json"
	"sort"
	"strings"
)

// Source tags attached to contacts and suspects.
const (
	SourceCRM    = "crm"
	SourceGoogle = "google"
)

// PhoneEntry is one phone value read from a row together with its normalized form.
type PhoneEntry struct {
	Raw        string `json:"raw"`
	Normalized string `json:"normalized"`
}

// StringSet is an unordered set of strings that serializes as a sorted array.
type StringSet map[string]struct{}

// NewStringSet builds a set from the given values, skipping blanks.
func NewStringSet(values ...string) StringSet {
	s := make(StringSet, len(values))
	for _, v := range values {
		s.Add(v)
	}
	return s
}

// Add inserts the trimmed value unless it is empty.
func (s StringSet) Add(v string) {
	v = strings.TrimSpace(v)
	if v == "" {
		return
	}
	s[v] = struct{}{}
}

// Has reports whether v is in the set.
func (s StringSet) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// Union returns a new set holding the members of both sets.
func (s StringSet) Union(other StringSet) StringSet {
	out := make(StringSet, len(s)+len(other))
	for k := range s {
		out[k] = struct{}{}
	}
	for k := range other {
		out[k] = struct{}{}
	}
	return out
}

// Sorted returns the members in ascending order.
func (s StringSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// MarshalJSON encodes the set as a sorted array so reports are stable.
func (s StringSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON decodes an array into the set.
func (s *StringSet) UnmarshalJSON(data []byte) error {
	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	*s = NewStringSet(values...)
	return nil
}

// Contact is one reconciled contact keyed by its normalized phone.
type Contact struct {
	Name    string    `json:"name"`
	Phone   string    `json:"phone"`
	Notes   []string  `json:"notes"`
	Labels  StringSet `json:"labels"`
	Sources StringSet `json:"sources"`
}

// NewContact returns a contact with initialized label and source sets.
func NewContact(name, phone string) *Contact {
	return &Contact{
		Name:    name,
		Phone:   phone,
		Labels:  StringSet{},
		Sources: StringSet{},
	}
}

// AddNote appends a trimmed note unless it is empty or already present.
func (c *Contact) AddNote(note string) {
	note = strings.TrimSpace(note)
	if note == "" {
		return
	}
	for _, n := range c.Notes {
		if n == note {
			return
		}
	}
	c.Notes = append(c.Notes, note)
}

// AddLabel adds a trimmed label.
func (c *Contact) AddLabel(label string) {
	if c.Labels == nil {
		c.Labels = StringSet{}
	}
	c.Labels.Add(label)
}

// AddSource adds a trimmed source tag.
func (c *Contact) AddSource(source string) {
	if c.Sources == nil {
		c.Sources = StringSet{}
	}
	c.Sources.Add(source)
}
