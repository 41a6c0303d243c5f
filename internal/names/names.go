// Package names classifies contact display names and builds fallback names.
package names

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sells-group/contacts-cli/internal/phone"
)

// Placeholder is the lone-dot value upstream exports use for "no name".
const Placeholder = "."

var phoneLikeRe = regexp.MustCompile(`^[0-9\p{Z}\s\-()+]+$`)

// Clean trims the name and, when treatDotAsEmpty is set, maps the placeholder to "".
func Clean(value string, treatDotAsEmpty bool) string {
	name := strings.TrimSpace(value)
	if treatDotAsEmpty && name == Placeholder {
		return ""
	}
	return name
}

// IsGood reports whether the cleaned name is non-empty.
func IsGood(value string, treatDotAsEmpty bool) bool {
	return Clean(value, treatDotAsEmpty) != ""
}

// IsPhoneLike reports whether value is not a real name: empty, the placeholder,
// or made only of digits, spaces, hyphens, parentheses and plus signs.
func IsPhoneLike(value string) bool {
	name := strings.TrimSpace(value)
	if name == "" || name == Placeholder {
		return true
	}
	return phoneLikeRe.MatchString(name)
}

// Fallback builds "<prefix> <seq:07d> (<last 4 digits>)" for a contact without a usable name.
func Fallback(prefix string, seq int, normalizedPhone string) string {
	last4 := "0000"
	if digits := phone.Digits(normalizedPhone); digits != "" {
		if len(digits) > 4 {
			digits = digits[len(digits)-4:]
		}
		last4 = digits
	}
	return fmt.Sprintf("%s %07d (%s)", prefix, seq, last4)
}
