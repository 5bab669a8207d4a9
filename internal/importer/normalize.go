package importer

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	titleCaser  = cases.Title(language.Und)
	asciiFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// TitleCase collapses inner whitespace and normalizes a name to Title
// Case. Applied before every duplicate comparison and before persistence
// so formatting drift in source data cannot split or merge aggregates.
func TitleCase(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return titleCaser.String(s)
}

// asciiFold strips diacritics ("João" -> "Joao").
func asciiFold(s string) string {
	out, _, err := transform.String(asciiFolder, s)
	if err != nil {
		return s
	}
	return out
}

// emailSlug turns a normalized name into the local part of a placeholder
// email: lowercased, ASCII-folded, spaces to dots, everything else
// outside [a-z0-9.] dropped.
func emailSlug(name string) string {
	folded := asciiFold(strings.ToLower(TitleCase(name)))
	var b strings.Builder
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('.')
		}
	}
	slug := strings.Trim(b.String(), ".")
	if slug == "" {
		slug = "unnamed"
	}
	return slug
}

// ComputeShortName derives a unit acronym: initials of the capitalized
// words when the name has at least two words, otherwise the name
// uppercased and truncated to 20 characters.
func ComputeShortName(name string) string {
	words := strings.Fields(name)
	if len(words) >= 2 {
		var b strings.Builder
		for _, word := range words {
			first := []rune(word)[0]
			if unicode.IsUpper(first) {
				b.WriteRune(first)
			}
		}
		if b.Len() > 0 {
			return b.String()
		}
	}
	upper := []rune(strings.ToUpper(name))
	if len(upper) > 20 {
		upper = upper[:20]
	}
	return string(upper)
}
