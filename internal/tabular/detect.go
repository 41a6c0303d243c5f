package tabular

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Encoding names as reported in the run report.
const (
	EncodingUTF8SIG = "utf-8-sig"
	EncodingCP1252  = "cp1252"
	EncodingLatin1  = "latin-1"
	EncodingXLSX    = "xlsx"
)

// SniffBytes is the prefix size used for encoding detection.
const SniffBytes = 4096

// sniffLines is the number of non-blank lines sampled for delimiter detection.
const sniffLines = 5

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ErrUndefinedCP1252 reports a byte that Windows-1252 leaves undefined.
var ErrUndefinedCP1252 = errors.New("tabular: byte undefined in cp1252")

// candidate is one encoding attempt, tried in order.
type candidate struct {
	name    string
	decoder func() transform.Transformer
	decode  func(prefix []byte, truncated bool) bool
}

var candidates = []candidate{
	{name: EncodingUTF8SIG, decoder: utf8SigDecoder, decode: decodesUTF8},
	{name: EncodingCP1252, decoder: cp1252Decoder, decode: decodesCP1252},
	{name: EncodingLatin1, decoder: latin1Decoder, decode: func([]byte, bool) bool { return true }},
}

func latin1Decoder() transform.Transformer {
	return charmap.ISO8859_1.NewDecoder()
}

// utf8SigDecoder fails with encoding.ErrInvalidUTF8 on ill-formed input and
// strips a leading BOM.
func utf8SigDecoder() transform.Transformer {
	return transform.Chain(encoding.UTF8Validator, unicode.BOMOverride(transform.Nop))
}

// cp1252Decoder fails with ErrUndefinedCP1252 on the five undefined bytes.
func cp1252Decoder() transform.Transformer {
	return transform.Chain(cp1252Validator{}, charmap.Windows1252.NewDecoder())
}

type cp1252Validator struct{ transform.NopResetter }

func (cp1252Validator) Transform(dst, src []byte, _ bool) (nDst, nSrc int, err error) {
	n := min(len(src), len(dst))
	for i := 0; i < n; i++ {
		if undefinedCP1252(src[i]) {
			return i, i, ErrUndefinedCP1252
		}
		dst[i] = src[i]
	}
	if n < len(src) {
		err = transform.ErrShortDst
	}
	return n, n, err
}

func undefinedCP1252(b byte) bool {
	switch b {
	case 0x81, 0x8D, 0x8F, 0x90, 0x9D:
		return true
	}
	return false
}

// detectEncoding returns the first candidate that decodes the prefix cleanly.
// fallback is true for anything but the first candidate.
func detectEncoding(prefix []byte, truncated bool) (name string, fallback bool) {
	for i, c := range candidates {
		if c.decode(prefix, truncated) {
			return c.name, i > 0
		}
	}
	return candidates[len(candidates)-1].name, true
}

// decoderFor maps a detected encoding name to a fresh decoder.
func decoderFor(name string) transform.Transformer {
	for _, c := range candidates {
		if c.name == name {
			return c.decoder()
		}
	}
	return utf8SigDecoder()
}

// decodesUTF8 validates the prefix as UTF-8. A rune cut off by the sniff
// window is ignored.
func decodesUTF8(prefix []byte, truncated bool) bool {
	prefix = bytes.TrimPrefix(prefix, utf8BOM)
	if truncated {
		for i := len(prefix) - 1; i >= 0 && i >= len(prefix)-utf8.UTFMax; i-- {
			if utf8.RuneStart(prefix[i]) {
				if !utf8.FullRune(prefix[i:]) {
					prefix = prefix[:i]
				}
				break
			}
		}
	}
	return utf8.Valid(prefix)
}

// decodesCP1252 rejects the five bytes Windows-1252 leaves undefined.
func decodesCP1252(prefix []byte, _ bool) bool {
	for _, b := range prefix {
		if undefinedCP1252(b) {
			return false
		}
	}
	return true
}

// detectDelimiter counts commas and semicolons over the first non-blank lines.
// Semicolon wins only when strictly more frequent.
func detectDelimiter(r io.Reader) rune {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var commas, semis, seen int
	for seen < sniffLines && sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		seen++
		commas += strings.Count(line, ",")
		semis += strings.Count(line, ";")
	}
	if semis > commas {
		return ';'
	}
	return ','
}

// decodingReader wraps r so it yields UTF-8 text for the named encoding.
// Bytes the encoding cannot decode surface as read errors.
func decodingReader(r io.Reader, name string) io.Reader {
	return transform.NewReader(r, decoderFor(name))
}
