// Package merge reconciles contacts that share a normalized phone.
package merge

import (
	"strings"

	"github.com/sells-group/contacts-cli/internal/model"
	"github.com/sells-group/contacts-cli/internal/names"
)

// Policy controls how colliding names are resolved.
type Policy struct {
	TreatDotAsEmpty bool
	ProtectGoodName bool
}

// DefaultPolicy treats "." as empty and protects an existing good name.
func DefaultPolicy() Policy {
	return Policy{TreatDotAsEmpty: true, ProtectGoodName: true}
}

// Name picks the surviving display name when existing and incoming collide.
// The result is asymmetric: existing wins ties.
func (p Policy) Name(existing, incoming string) string {
	existingClean := names.Clean(existing, p.TreatDotAsEmpty)
	incomingClean := names.Clean(incoming, p.TreatDotAsEmpty)

	if p.ProtectGoodName && existingClean != "" && !names.IsPhoneLike(existingClean) {
		return existingClean
	}
	if incomingClean != "" && !names.IsPhoneLike(incomingClean) {
		return incomingClean
	}
	if existingClean != "" {
		return existingClean
	}
	return incomingClean
}

// Notes concatenates existing then incoming notes, trimmed and de-duplicated
// in first-seen order.
func Notes(existing, incoming []string) []string {
	out := make([]string, 0, len(existing)+len(incoming))
	seen := make(map[string]bool, len(existing)+len(incoming))
	for _, group := range [][]string{existing, incoming} {
		for _, note := range group {
			note = strings.TrimSpace(note)
			if note == "" || seen[note] {
				continue
			}
			seen[note] = true
			out = append(out, note)
		}
	}
	return out
}

// Contacts merges incoming into existing and returns a fresh record. The phone
// (the index key) always comes from existing; labels and sources are unioned.
func (p Policy) Contacts(existing, incoming *model.Contact) *model.Contact {
	return &model.Contact{
		Name:    p.Name(existing.Name, incoming.Name),
		Phone:   existing.Phone,
		Notes:   Notes(existing.Notes, incoming.Notes),
		Labels:  existing.Labels.Union(incoming.Labels),
		Sources: existing.Sources.Union(incoming.Sources),
	}
}
