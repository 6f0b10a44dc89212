package invoice

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// turkishFold maps Turkish letters to their closest ASCII equivalents.
// It also covers lowercase variants that survive OCR in otherwise
// uppercased text.
var turkishFold = strings.NewReplacer(
	"İ", "I", "ı", "I",
	"Ş", "S", "ş", "S",
	"Ğ", "G", "ğ", "G",
	"Ö", "O", "ö", "O",
	"Ü", "U", "ü", "U",
	"Ç", "C", "ç", "C",
)

// Normalize canonicalizes OCR text for keyword and regex matching:
// Turkish-locale uppercasing (ASCII uppercasing mishandles dotted/dotless I),
// diacritic folding, whitespace collapse, and a space after every colon
// (OCR frequently glues a colon to its value). Idempotent; never fails.
func Normalize(raw string) string {
	s := cases.Upper(language.Turkish).String(raw)
	s = turkishFold.Replace(s)
	s = strings.Join(strings.Fields(s), " ")
	s = strings.ReplaceAll(s, ":", ": ")
	s = strings.ReplaceAll(s, "  ", " ")
	return strings.TrimSpace(s)
}

// NormalizeLines applies Normalize per line, preserving line structure.
// Keyword ladders that scan line by line depend on this.
func NormalizeLines(raw string) string {
	lines := strings.Split(raw, "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		n := Normalize(l)
		if n != "" {
			out = append(out, n)
		}
	}
	return strings.Join(out, "\n")
}
