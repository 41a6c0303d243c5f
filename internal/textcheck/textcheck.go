// Package textcheck flags free-text values that look like mojibake (text
// decoded with the wrong charset) and proposes a repair when it can.
package textcheck

import (
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
)

// Reasons reported by Analyze.
const (
	ReasonReplacementChar = "replacement_char"
	ReasonPattern         = "pattern"
	ReasonBadness         = "ftfy_badness"
)

// BadnessThreshold is the repairer score at or above which a value is suspect.
const BadnessThreshold = 1.0

const replacementChar = "\uFFFD"

// artifactPatterns match UTF-8 byte sequences that were decoded as Latin-1.
var artifactPatterns = []*regexp.Regexp{
	regexp.MustCompile(`Ã[\x{0080}-\x{00BF}]`),
	regexp.MustCompile(`Â[\x{0080}-\x{00BF}]`),
	regexp.MustCompile(`â€`),
}

// Repairer scores and fixes mis-decoded text. Implementations may fail on any
// input; the analyzer then behaves as if no repairer were configured.
type Repairer interface {
	Badness(text string) (float64, error)
	Fix(text string) (string, error)
}

// Result is the outcome of analyzing one value.
type Result struct {
	Suspect      bool
	Reason       string
	SuggestedFix string
	Badness      *float64
}

// Analyzer detects mojibake. The zero value and New(nil) run pattern-only detection.
type Analyzer struct {
	repairer Repairer
}

// New returns an Analyzer. A nil repairer degrades detection to the built-in patterns.
func New(r Repairer) *Analyzer {
	return &Analyzer{repairer: r}
}

// HasRepairer reports whether a repair capability is configured.
func (a *Analyzer) HasRepairer() bool {
	return a != nil && a.repairer != nil
}

// Analyze classifies value. Every check runs; the first one that fires names the reason.
func (a *Analyzer) Analyze(value string) Result {
	if value == "" {
		return Result{}
	}

	var reason string
	switch {
	case strings.Contains(value, replacementChar):
		reason = ReasonReplacementChar
	case matchesArtifact(value):
		reason = ReasonPattern
	}

	var badness *float64
	if a.HasRepairer() {
		if score, err := a.badness(value); err == nil {
			badness = &score
			if score >= BadnessThreshold && reason == "" {
				reason = ReasonBadness
			}
		}
	}

	res := Result{Suspect: reason != "", Reason: reason, Badness: badness}
	if res.Suspect && a.HasRepairer() {
		if fixed, err := a.fix(value); err == nil && fixed != "" && fixed != value {
			res.SuggestedFix = fixed
		}
	}
	return res
}

// badness calls the repairer, turning a panic into an error.
func (a *Analyzer) badness(value string) (score float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = eris.Errorf("textcheck: repairer badness panicked: %v", r)
		}
	}()
	return a.repairer.Badness(value)
}

func (a *Analyzer) fix(value string) (fixed string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = eris.Errorf("textcheck: repairer fix panicked: %v", r)
		}
	}()
	return a.repairer.Fix(value)
}

func matchesArtifact(value string) bool {
	for _, re := range artifactPatterns {
		if re.MatchString(value) {
			return true
		}
	}
	return false
}
