// Package schema maps the raw headers of a contact export onto canonical column roles.
package schema

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/contacts-cli/internal/model"
)

// Resolver assigns canonical roles to the headers of one source.
type Resolver interface {
	Resolve(headers []string) (model.ColumnMap, error)
}

// ConfigError reports a column configuration problem that aborts the run.
type ConfigError struct {
	Role   string
	Header string
	Msg    string
}

func (e *ConfigError) Error() string {
	if e.Header != "" {
		return fmt.Sprintf("schema: %s (role %s, header %q)", e.Msg, e.Role, e.Header)
	}
	return fmt.Sprintf("schema: %s (role %s)", e.Msg, e.Role)
}

var nonAlnumRe = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeHeader folds a header for matching:
//  1. Trim and lowercase
//  2. Decompose (NFKD) and drop combining marks
//  3. Remove everything outside [a-z0-9]
func NormalizeHeader(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	if folded, _, err := transform.String(t, value); err == nil {
		value = folded
	}
	return nonAlnumRe.ReplaceAllString(value, "")
}

// FindColumn returns the first header matching the candidates, tried in priority order.
// Candidates are already-normalized spellings.
func FindColumn(headers []string, candidates []string) string {
	normalized := make(map[string]string, len(headers))
	for _, h := range headers {
		key := NormalizeHeader(h)
		if _, dup := normalized[key]; !dup {
			normalized[key] = h
		}
	}
	for _, c := range candidates {
		if h, ok := normalized[c]; ok && h != "" {
			return h
		}
	}
	return ""
}

// resolveOverride maps a user-supplied header name onto an existing header.
// An empty override resolves to "" without error.
func resolveOverride(headers []string, override, role string) (string, error) {
	if strings.TrimSpace(override) == "" {
		return "", nil
	}
	want := NormalizeHeader(override)
	for _, h := range headers {
		if NormalizeHeader(h) == want {
			return h, nil
		}
	}
	return "", &ConfigError{Role: role, Header: override, Msg: "override not found in headers"}
}
