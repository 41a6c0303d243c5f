package textcheck

import (
	"regexp"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/charmap"
)

// maxFixPasses bounds how many layers of double encoding Fix unwinds.
const maxFixPasses = 3

// badnessMarkers match sequences that almost never occur in well-formed text:
// C1 control characters, a Latin-1 lead byte followed by a continuation byte
// (including the Windows-1252 remaps of 0x80-0x9F), and the "â€" ligature.
var badnessMarkers = []*regexp.Regexp{
	regexp.MustCompile(`[\x{0080}-\x{009F}]`),
	regexp.MustCompile(`[ÃÂ][\x{00A0}-\x{00BF}€‚ƒ„…†‡ˆ‰Š‹ŒŽ‘’“”•–—˜™š›œžŸ]`),
	regexp.MustCompile(`â€`),
}

// CharmapRepairer repairs UTF-8 text that was decoded as Windows-1252 or
// Latin-1 by re-encoding it to single bytes and decoding those as UTF-8.
type CharmapRepairer struct{}

// NewCharmapRepairer returns the x/text backed repair capability.
func NewCharmapRepairer() *CharmapRepairer {
	return &CharmapRepairer{}
}

// Badness counts mojibake marker sequences in text.
func (CharmapRepairer) Badness(text string) (float64, error) {
	var n int
	for _, re := range badnessMarkers {
		n += len(re.FindAllStringIndex(text, -1))
	}
	return float64(n), nil
}

// Fix unwinds up to maxFixPasses layers of double encoding. Text that cannot
// be re-encoded to a single-byte charset is returned unchanged.
func (CharmapRepairer) Fix(text string) (string, error) {
	current := text
	for i := 0; i < maxFixPasses; i++ {
		raw, ok := toSingleBytes(current)
		if !ok || !utf8.Valid(raw) {
			break
		}
		next := string(raw)
		if next == current || utf8.RuneCountInString(next) >= utf8.RuneCountInString(current) {
			break
		}
		current = next
	}
	if !utf8.ValidString(current) {
		return "", eris.New("textcheck: repaired text is not valid utf-8")
	}
	return current, nil
}

// toSingleBytes maps each rune back to the byte Windows-1252 (or, for its
// undefined slots, Latin-1) would have decoded it from.
func toSingleBytes(s string) ([]byte, bool) {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if b, ok := charmap.Windows1252.EncodeRune(r); ok {
			out = append(out, b)
			continue
		}
		if b, ok := charmap.ISO8859_1.EncodeRune(r); ok {
			out = append(out, b)
			continue
		}
		return nil, false
	}
	return out, true
}
