// Package phone canonicalizes raw phone strings into digits-only international form.
package phone

import (
	"regexp"
	"strings"
)

var nonDigitRe = regexp.MustCompile(`\D+`)

// Digits strips every non-digit character from s.
func Digits(s string) string {
	return nonDigitRe.ReplaceAllString(s, "")
}

// Normalize turns a raw phone value into its digits-only canonical form:
//  1. Strip all non-digit characters (empty input yields "")
//  2. With a non-empty override code: keep the digits as-is when they already
//     start with it and reach minLen, otherwise prepend it
//  3. Without an override: prepend defaultDDI when assumeDDI is set and the
//     digits do not already start with it
//
// The result is never validated; out-of-range lengths are flagged downstream.
func Normalize(raw, defaultDDI string, assumeDDI bool, overrideDDI string, minLen int) string {
	digits := Digits(raw)
	if digits == "" {
		return ""
	}

	if override := Digits(overrideDDI); override != "" {
		if minLen > 0 && strings.HasPrefix(digits, override) && len(digits) >= minLen {
			return digits
		}
		return override + digits
	}

	if assumeDDI && defaultDDI != "" && !strings.HasPrefix(digits, defaultDDI) {
		digits = defaultDDI + digits
	}
	return digits
}

// Format renders a normalized phone for output, optionally with a leading "+".
func Format(normalized string, prefixPlus bool) string {
	if normalized == "" {
		return ""
	}
	if prefixPlus {
		return "+" + normalized
	}
	return normalized
}

// SplitValues splits a multi-valued phone cell on sep, dropping blank parts.
func SplitValues(raw, sep string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
