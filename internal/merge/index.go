package merge

import (
	"sort"

	"github.com/sells-group/contacts-cli/internal/model"
)

// Index maps normalized phone to contact. It is owned by a single pipeline run
// and is not safe for concurrent use.
type Index struct {
	policy  Policy
	byPhone map[string]*model.Contact
	merged  int
}

// NewIndex returns an empty index that merges collisions with policy.
func NewIndex(policy Policy) *Index {
	return &Index{
		policy:  policy,
		byPhone: make(map[string]*model.Contact),
	}
}

// Add inserts c, or merges it into the existing entry with the same phone.
// It reports whether a merge occurred.
func (idx *Index) Add(c *model.Contact) bool {
	existing, ok := idx.byPhone[c.Phone]
	if !ok {
		idx.byPhone[c.Phone] = c
		return false
	}
	idx.byPhone[c.Phone] = idx.policy.Contacts(existing, c)
	idx.merged++
	return true
}

// Get returns the contact stored under phone.
func (idx *Index) Get(phone string) (*model.Contact, bool) {
	c, ok := idx.byPhone[phone]
	return c, ok
}

// Len returns the number of distinct phones.
func (idx *Index) Len() int {
	return len(idx.byPhone)
}

// DuplicatesMerged returns how many Add calls collided with an existing entry.
func (idx *Index) DuplicatesMerged() int {
	return idx.merged
}

// Values returns the contacts sorted by phone.
func (idx *Index) Values() []*model.Contact {
	out := make([]*model.Contact, 0, len(idx.byPhone))
	for _, c := range idx.byPhone {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Phone < out[j].Phone })
	return out
}
