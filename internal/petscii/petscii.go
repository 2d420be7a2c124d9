// Package petscii turns source strings into the byte sequences the C64
// KERNAL prints. Letters are folded to the unshifted uppercase set, accented
// letters lose their marks, newlines become carriage returns and anything
// else outside printable ASCII becomes '?'.
package petscii

import (
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// Return is the PETSCII carriage return printed for '\n'.
	Return = 0x0D
	// Replacement stands in for characters with no PETSCII equivalent.
	Replacement = '?'
)

// MaxLen is the longest string a runtime buffer can hold.
const MaxLen = 255

// Encode converts s. The result never contains a zero byte.
func Encode(s string) []byte {
	folded, _, err := transform.String(transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		folded = s
	}
	out := make([]byte, 0, len(folded))
	for _, r := range folded {
		out = append(out, encodeRune(r))
	}
	return out
}

func encodeRune(r rune) byte {
	switch {
	case r == '\n' || r == '\r':
		return Return
	case r >= 'a' && r <= 'z':
		return byte(r - 'a' + 'A')
	case r >= 0x20 && r < 0x7F:
		return byte(r)
	}
	return Replacement
}

// Decode maps PETSCII produced by Encode (or printed by the runtime) back to
// text: carriage returns become newlines.
func Decode(b []byte) string {
	out := make([]rune, 0, len(b))
	for _, c := range b {
		switch {
		case c == Return:
			out = append(out, '\n')
		case c >= 0x20 && c < 0x7F:
			out = append(out, rune(c))
		default:
			out = append(out, Replacement)
		}
	}
	return string(out)
}
