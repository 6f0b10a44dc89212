package invoice

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Address markers: a line starting an address ends the supplier name; the
// name never continues past it.
var addressMarkers = []string{
	"MAH", "MAHALLE", "CAD", "CADDE", "SOK", "SOKAK", "BULVAR",
	"NO:", "KAT:", "DAİRE", "DAIRE", "APT", "APARTMAN",
}

// Lines with these prefixes are label noise inside a seller block; they are
// skipped but do not terminate the scan.
var supplierNoisePrefixes = []string{
	"VERGİ DAİRESİ", "VERGI DAIRESI", "V.D.", "VD:", "VKN", "TCKN",
	"TEL", "FAKS", "FAX", "E-POSTA", "EPOSTA", "E-MAIL", "MAIL",
	"SAYIN", "ALICI", "ADRES:", "MERSİS", "MERSIS", "WEB",
}

// A legal-entity suffix on a line is conclusive: the name ends right after it.
var legalSuffixes = []string{
	" A.Ş", " AŞ", " LTD", " ŞTİ", " STI", " A.S.", " LTD.", ".Ş.",
}

// SupplierFromSellerBlock walks a known seller block's lines top to bottom
// and assembles the supplier name. The scan stops entirely at the first
// address line; noise-label lines are skipped. A line carrying a legal
// suffix is conclusive and the result is truncated right after the suffix
// (OCR tends to glue trailing garbage onto that line).
func SupplierFromSellerBlock(blockText string) string {
	var parts []string
	firstNonEmpty := ""
	for _, line := range strings.Split(blockText, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if firstNonEmpty == "" {
			firstNonEmpty = line
		}
		upper := Normalize(line)
		// Noise labels before the address stop: "VERGİ DAİRESİ" would
		// otherwise trip the DAİRE address marker.
		if hasNoisePrefix(upper) {
			continue
		}
		if isAddressLine(upper) {
			break
		}
		if end, ok := findLegalSuffix(line); ok {
			parts = append(parts, truncateAfterSuffix(line, end))
			return strings.TrimSpace(strings.Join(parts, " "))
		}
		if len([]rune(line)) > 2 {
			parts = append(parts, line)
		}
	}
	joined := strings.TrimSpace(strings.Join(parts, " "))
	if joined == "" {
		return firstNonEmpty
	}
	if end, ok := findLegalSuffix(joined); ok {
		return strings.TrimSpace(truncateAfterSuffix(joined, end))
	}
	return joined
}

// SupplierNearTaxID is the whole-document fallback: it finds the VKN/TCKN
// line and scans up to three lines above it for a plausible company name.
// A legal-suffix line wins immediately; otherwise the first sufficiently
// long candidate is remembered.
func SupplierNearTaxID(text string) string {
	lines := strings.Split(text, "\n")
	anchor := -1
	for i, line := range lines {
		upper := Normalize(line)
		if strings.Contains(upper, "VKN") || strings.Contains(upper, "TCKN") ||
			strings.Contains(upper, "VERGI KIMLIK") || strings.Contains(upper, "T.C. KIMLIK") {
			anchor = i
			break
		}
	}
	if anchor <= 0 {
		return ""
	}
	candidate := ""
	for i := anchor - 1; i >= 0 && i >= anchor-3; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		upper := Normalize(line)
		if strings.Contains(upper, "SAYIN") || strings.Contains(upper, "ALICI") || strings.Contains(upper, "ADRES") {
			continue
		}
		if startsWithAddressMarker(upper) {
			continue
		}
		if _, ok := findLegalSuffix(line); ok {
			return line
		}
		if candidate == "" && len([]rune(line)) > 5 {
			candidate = line
		}
	}
	return candidate
}

// SupplierFromFragments is the coordinate-based strategy used as a
// standalone fallback: it reconstructs top-of-page left-column lines and
// runs the seller-block walk over them.
func SupplierFromFragments(frags []TextBlock) string {
	var lines []string
	for _, f := range sortByTop(frags) {
		if f.Frame.Y < 0.45 && f.Frame.MidX() < 0.5 {
			lines = append(lines, f.Text)
		}
	}
	if len(lines) == 0 {
		return ""
	}
	return SupplierFromSellerBlock(strings.Join(lines, "\n"))
}

func isAddressLine(upper string) bool {
	for _, m := range addressMarkers {
		if strings.HasPrefix(upper, m) || strings.Contains(upper, " "+m) || strings.Contains(upper, m+".") {
			return true
		}
	}
	return false
}

func startsWithAddressMarker(upper string) bool {
	for _, m := range []string{"MAH", "CAD", "SOK"} {
		if strings.HasPrefix(upper, m) {
			return true
		}
	}
	return false
}

func hasNoisePrefix(upper string) bool {
	for _, p := range supplierNoisePrefixes {
		if strings.HasPrefix(upper, p) {
			return true
		}
	}
	return false
}

// findLegalSuffix locates a legal-entity suffix in the line and returns the
// rune index just past it. Matching runs over a rune-preserving Turkish
// uppercase of the line, never the diacritic-folded form: folding " AŞ" to
// " AS" would fire inside ordinary words ("ASANSÖR", "ASYA"). The suffix
// must be followed by end of line, a space or punctuation.
func findLegalSuffix(line string) (int, bool) {
	upper := strings.ToUpperSpecial(unicode.TurkishCase, line)
	for _, s := range legalSuffixes {
		from := 0
		for {
			i := strings.Index(upper[from:], s)
			if i < 0 {
				break
			}
			end := from + i + len(s)
			r, _ := utf8.DecodeRuneInString(upper[end:])
			if end == len(upper) || r == ' ' || r == '.' || r == ',' || r == ';' || r == ':' || r == ')' || r == '/' {
				return utf8.RuneCountInString(upper[:end]), true
			}
			from = end
		}
	}
	return 0, false
}

// truncateAfterSuffix cuts the line right after the legal suffix, keeping a
// trailing "." and discarding the rest of the line (OCR tends to glue
// garbage onto the suffix line).
func truncateAfterSuffix(line string, end int) string {
	runes := []rune(line)
	if end <= 0 || end > len(runes) {
		return line
	}
	if end < len(runes) && runes[end] == '.' {
		end++
	}
	return string(runes[:end])
}
