package export

import (
	"strings"
	"unicode"
)

// SanitizeName maps a chapter title to a file stem. Every rune that is not
// alphabetic (letters plus combining vowel signs such as Devanagari matras),
// a number, '-', '_' or ' ' becomes '_'. The mapping is rune for
// rune, so applying it twice changes nothing.
func SanitizeName(title string) string {
	return strings.Map(func(r rune) rune {
		if unicode.In(r, unicode.Letter, unicode.Other_Alphabetic, unicode.Number) || r == '-' || r == '_' || r == ' ' {
			return r
		}
		return '_'
	}, title)
}
