// Package norm provides canonical keys for matching scientific names that
// come from datasets with inconsistent case, accents and punctuation.
package norm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Name decomposes s, removes diacritical marks, lowercases it and keeps
// only ASCII letters and digits. Name(Name(s)) == Name(s).
func Name(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	res, _, err := transform.String(t, s)
	if err != nil {
		res = s
	}
	res = strings.ToLower(res)

	var sb strings.Builder
	sb.Grow(len(res))
	for _, r := range res {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// TrigramKey builds a compact fingerprint of a scientific name from the
// first three letters of genus and species epithet. When the third word is
// a 'subsp.' or 'var.' marker, the marker and the first three letters of
// the infraspecific epithet are appended. Authorship and other trailing
// words are ignored. Names with less than two words have an empty key.
//
//	TrigramKey("Carex atrata subsp. nigra") == "caratrsubspnig"
func TrigramKey(name string) string {
	words := strings.Fields(strings.ToLower(name))
	if len(words) < 2 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(prefix(words[0], 3))
	sb.WriteString(prefix(words[1], 3))
	if len(words) > 2 {
		var marker string
		switch {
		case isMarker(words[2], "subsp"), isMarker(words[2], "ssp"):
			marker = "subsp"
		case isMarker(words[2], "var"):
			marker = "var"
		}
		if marker != "" {
			sb.WriteString(marker)
			if len(words) > 3 {
				sb.WriteString(prefix(words[3], 3))
			}
		}
	}
	return Name(sb.String())
}

// isMarker is true for 'subsp', 'subsp.', 'var', 'var.' and similar.
// Only whole words match, so 'subspecies' or 'varia' are epithets, not
// markers, and 'ssp.' counts as 'subsp.'.
func isMarker(word, marker string) bool {
	return strings.TrimSuffix(word, ".") == marker
}

func prefix(s string, n int) string {
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:n])
}
