package schema

import (
	"regexp"
	"sort"
	"strconv"

	"github.com/sells-group/contacts-cli/internal/model"
)

// GoogleCandidates holds the accepted normalized header spellings per Google role.
var GoogleCandidates = struct {
	Name, GivenName, FamilyName, PhoneFallback, Notes, Labels []string
}{
	Name:          []string{"name", "nome"},
	GivenName:     []string{"givenname", "primeironome"},
	FamilyName:    []string{"familyname", "sobrenome"},
	PhoneFallback: []string{"phone1value", "telefone", "phone"},
	Notes:         []string{"notes", "notas", "observacoes", "obs"},
	Labels:        []string{"groupmembership", "labels", "label", "grupo"},
}

var numberedPhoneRe = regexp.MustCompile(`^phone(\d+)value$`)

// Google resolves columns of a Google-Contacts-style export. Phone columns are
// the repeating "Phone N - Value" group, ordered by N.
type Google struct{}

// NewGoogle returns a Google resolver.
func NewGoogle() *Google {
	return &Google{}
}

// Resolve implements Resolver.
func (Google) Resolve(headers []string) (model.ColumnMap, error) {
	cm := model.ColumnMap{
		Name:       FindColumn(headers, GoogleCandidates.Name),
		GivenName:  FindColumn(headers, GoogleCandidates.GivenName),
		FamilyName: FindColumn(headers, GoogleCandidates.FamilyName),
		Notes:      FindColumn(headers, GoogleCandidates.Notes),
		Labels:     FindColumn(headers, GoogleCandidates.Labels),
	}

	cm.Phones = numberedPhoneColumns(headers)
	if len(cm.Phones) > 0 {
		cm.Phone = cm.Phones[0]
	} else if h := FindColumn(headers, GoogleCandidates.PhoneFallback); h != "" {
		cm.Phone = h
		cm.Phones = []string{h}
	}

	if cm.Phone == "" {
		return model.ColumnMap{}, &ConfigError{Role: "phone", Msg: "phone column not found in Google source"}
	}
	return cm, nil
}

// numberedPhoneColumns returns the phone<N>value headers sorted by N.
// When two headers fold to the same spelling the first one wins.
func numberedPhoneColumns(headers []string) []string {
	type numbered struct {
		n      int
		header string
	}
	seen := make(map[string]bool)
	var found []numbered
	for _, h := range headers {
		key := NormalizeHeader(h)
		if seen[key] {
			continue
		}
		seen[key] = true
		m := numberedPhoneRe.FindStringSubmatch(key)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		found = append(found, numbered{n: n, header: h})
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].n < found[j].n })

	out := make([]string, 0, len(found))
	for _, f := range found {
		out = append(out, f.header)
	}
	return out
}
