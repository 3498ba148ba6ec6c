package core

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Canonicalize converts a free-text administrative name into its match key:
// combining accents are folded, the result is uppercased, and every
// character outside A-Z and 0-9 is dropped.
//
//	Canonicalize("Ward  7, Kano") == Canonicalize("WARD7-KANO") == "WARD7KANO"
func Canonicalize(s string) string {
	if !isASCII(s) {
		// transform.Chain is stateful, so it cannot be shared across goroutines.
		fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
		if folded, _, err := transform.String(fold, s); err == nil {
			s = folded
		}
	}

	s = strings.ToUpper(s)

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9') {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// fctKey is the canonical key every federal-capital spelling resolves to.
const fctKey = "FCT"

// stateAliases maps canonical spellings of top-level names onto a single
// canonical key. Keys and values are already canonical.
var stateAliases = map[string]string{
	"FCTABUJA":                     fctKey,
	"ABUJAFCT":                     fctKey,
	"ABUJA":                        fctKey,
	"FEDERALCAPITALTERRITORY":      fctKey,
	"FEDERALCAPITALTERRITORYFCT":   fctKey,
	"FEDERALCAPITALTERRITORYABUJA": fctKey,
	"NASSARAWA":                    "NASARAWA",
}

// CanonicalState canonicalizes a state name and applies the alias table.
func CanonicalState(name string) string {
	key := Canonicalize(name)
	if alias, ok := stateAliases[key]; ok {
		return alias
	}
	return key
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
