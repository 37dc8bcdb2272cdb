// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var punctuationReplacer = strings.NewReplacer(
	"‘", "'",
	"’", "'",
	"“", `"`,
	"”", `"`,
	"–", "-",
	"—", "-",
	"\x00", "",
)

// Sanitize prepares free text for document output. It applies NFKD
// normalization, drops the combining marks that leaves behind, maps
// typographic quotes and dashes to ASCII, strips NUL bytes, and replaces
// anything else outside Latin-1 with '?'.
func Sanitize(text string) string {
	text = punctuationReplacer.Replace(norm.NFKD.String(text))
	return strings.Map(func(r rune) rune {
		switch {
		case unicode.Is(unicode.Mn, r):
			return -1
		case r > unicode.MaxLatin1:
			return '?'
		}
		return r
	}, text)
}
