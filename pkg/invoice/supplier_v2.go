package invoice

import (
	"regexp"
	"strings"
)

var (
	tcknRe = regexp.MustCompile(`\b\d{11}\b`)
	vknRe  = regexp.MustCompile(`\b\d{10}\b`)

	// Corporate name: uppercase words ending in a legal-entity marker,
	// optionally followed by a few more uppercase words. Same-line spacing
	// only; a name never wraps across an OCR line break without the
	// clusterer already joining it.
	corporateNameRe = regexp.MustCompile(
		`([A-ZÇĞİÖŞÜ][A-ZÇĞİÖŞÜa-zçğıöşü.&-]+(?:[ \t]+[A-ZÇĞİÖŞÜ][A-ZÇĞİÖŞÜa-zçğıöşü.&-]+){0,9}[ \t]+` +
			`(?:A\.? ?[SŞ]\.?|LTD\.?|L[İI]M[İI]TED|ANON[İI]M|[SŞ][İI]RKET[İI]|[SŞ]T[İI]\.?)` +
			`(?:[ \t]+[A-ZÇĞİÖŞÜ][A-ZÇĞİÖŞÜa-zçğıöşü.&-]+){0,4})`)

	digitRunRe        = regexp.MustCompile(`\d{4,}`)
	leadingNoiseRe    = regexp.MustCompile(`^[\d\s.,:;/\\|*)(_-]+`)
	trailingAddressRe = regexp.MustCompile(`(?i)\s+(MAH\.?|MAHALLES[İI]|CAD\.?|CADDES[İI]|SOK\.?|SOKAK|BULVAR[İI]?|NO:.*|KAT:.*|ADRES.*|TEL.*|VKN.*|TCKN.*|MERS[İI]S.*)$`)
)

// Keywords whose presence disqualifies a candidate as an individual seller
// name, or disqualifies it entirely when we need a third-party merchant.
var (
	corporateMarkers = []string{
		"A.S", "AS.", "LTD", "STI", "SIRKET", "ANONIM", "LIMITED",
		"TICARET", "SANAYI", "HIZMET", "PAZARLAMA", "DANISMANLIK",
	}
	cargoCompanyNames = []string{
		"ARAS", "YURTICI", "YURTİÇİ", "MNG", "PTT", "UPS", "DHL",
		"SURAT", "SÜRAT", "KARGO", "LOJISTIK", "LOJİSTİK",
	}
	marketplaceNames = []string{
		"TRENDYOL", "DSM GRUP", "HEPSIBURADA", "D-MARKET", "AMAZON", "N11",
	}
	trailingFieldKeywords = []string{
		"ADRES", "TEL", "WEB", "MAHALLE", "MAH.", "CAD", "SOK",
		"VKN", "TCKN", "VERGI", "MERSIS", "E-POSTA", "FAX", "FAKS",
	}
	garbageSubstrings = []string{
		"TEL:", "TEL ", "FAX", "FAKS", "V.D.", "VERGI DAIRESI", "@", ".COM", "HTTP",
	}
)

// SupplierExtractorV2 resolves the supplier name from structural signals
// alone: tax-ID shape (TCKN vs VKN), legal-suffix grammar, and label/address
// stop rules. No geographic dictionaries. Used by brand strategies to tell
// third-party marketplace merchants apart from the platform itself.
type SupplierExtractorV2 struct{}

// Extract runs the three passes in order: individual seller (TCKN present),
// corporate regex capture, then a label-aware line scan. Every candidate
// passes the structural quality gate; the first survivor wins.
func (e SupplierExtractorV2) Extract(text string) string {
	hasTCKN := tcknRe.MatchString(text)

	if hasTCKN {
		if name := e.extractIndividual(text); name != "" {
			return name
		}
	}
	if name := e.extractCorporate(text); name != "" {
		return name
	}
	return e.extractByLineScan(text)
}

// extractIndividual handles sole-proprietor invoices: the person's name
// precedes the TCKN label. Human names are short, nearly digit-free spans.
func (e SupplierExtractorV2) extractIndividual(text string) string {
	upper := Normalize(text)
	idx := strings.Index(upper, "TCKN")
	if idx < 0 {
		idx = strings.Index(upper, "T.C. KIMLIK")
	}
	if idx < 0 {
		return ""
	}
	prefix := upper[:idx]
	// Trim back to the last stop pattern so only the span directly before
	// the label remains.
	for _, stop := range []string{"\n", "SAYIN", "ADRES", "MAH", "CAD", "SOK", ":"} {
		if j := strings.LastIndex(prefix, stop); j >= 0 {
			prefix = prefix[j+len(stop):]
		}
	}
	candidate := cleanupCandidate(prefix)
	if candidate == "" {
		return ""
	}
	if containsAny(Normalize(candidate), corporateMarkers) || containsAny(Normalize(candidate), cargoCompanyNames) {
		return ""
	}
	words := strings.Fields(candidate)
	if len(words) < 2 || len(words) > 5 {
		return ""
	}
	if digitRatio(candidate) >= 0.10 {
		return ""
	}
	return candidate
}

// extractCorporate captures an uppercase company name around a legal-entity
// marker, cut before trailing field labels and digit runs.
func (e SupplierExtractorV2) extractCorporate(text string) string {
	for _, m := range corporateNameRe.FindAllString(text, -1) {
		candidate := m
		// Stop before trailing field keywords and long digit runs glued on.
		if loc := digitRunRe.FindStringIndex(candidate); loc != nil {
			candidate = candidate[:loc[0]]
		}
		folded := Normalize(candidate)
		for _, kw := range trailingFieldKeywords {
			if j := strings.Index(folded, " "+kw); j >= 0 && len(folded) == len(candidate) {
				candidate = candidate[:j]
				folded = folded[:j]
			}
		}
		candidate = cleanupCandidate(candidate)
		if candidate == "" {
			continue
		}
		folded = Normalize(candidate)
		if containsAny(folded, cargoCompanyNames) || containsAny(folded, marketplaceNames) {
			continue
		}
		if passesQualityGate(candidate) {
			return candidate
		}
	}
	return ""
}

// extractByLineScan is the last resort: it inserts synthetic line breaks
// before label keywords and address markers (OCR often flattens the seller
// box into one long line), locates the tax-indicator line, and scans upward.
// If the line directly above is itself an address line, the line above that
// is preferred instead.
func (e SupplierExtractorV2) extractByLineScan(text string) string {
	broken := insertSyntheticBreaks(text)
	lines := strings.Split(broken, "\n")
	anchor := -1
	for i, line := range lines {
		upper := Normalize(line)
		if strings.Contains(upper, "VKN") || strings.Contains(upper, "TCKN") || strings.Contains(upper, "VERGI KIMLIK") {
			anchor = i
			break
		}
	}
	if anchor <= 0 {
		return ""
	}
	for i := anchor - 1; i >= 0 && i >= anchor-4; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		upper := Normalize(line)
		if strings.Contains(upper, "SAYIN") || strings.Contains(upper, "ALICI") {
			continue
		}
		if startsWithAddressMarker(upper) || isAddressLine(upper) {
			// Address line: the name is the line above it, if any.
			if i > 0 {
				above := cleanupCandidate(lines[i-1])
				if above != "" && passesQualityGate(above) {
					return above
				}
			}
			continue
		}
		candidate := cleanupCandidate(line)
		if candidate != "" && passesQualityGate(candidate) {
			return candidate
		}
	}
	return ""
}

// insertSyntheticBreaks puts newlines before label keywords so the line
// scanner sees field boundaries even in flattened OCR output.
func insertSyntheticBreaks(text string) string {
	out := text
	for _, kw := range []string{"ADRES", "VKN", "TCKN", "TEL:", "MERSİS", "MERSIS", "VERGİ DAİRESİ", "VERGI DAIRESI", "MAH.", "CAD.", "SOK."} {
		out = strings.ReplaceAll(out, " "+kw, "\n"+kw)
	}
	return out
}

// cleanupCandidate strips leading numeric/punctuation noise and trailing
// address-like suffixes.
func cleanupCandidate(s string) string {
	s = strings.TrimSpace(s)
	s = leadingNoiseRe.ReplaceAllString(s, "")
	s = trailingAddressRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// passesQualityGate applies the structural checks every candidate must
// survive: plausible length and word count, low digit and punctuation
// density, no leftover contact-field garbage.
func passesQualityGate(s string) bool {
	n := len([]rune(s))
	if n < 5 || n > 120 {
		return false
	}
	words := strings.Fields(s)
	if len(words) < 2 || len(words) > 12 {
		return false
	}
	if digitRatio(s) >= 0.15 {
		return false
	}
	if punctRatio(s) >= 0.25 {
		return false
	}
	return !containsAny(Normalize(s), garbageSubstrings)
}

func containsAny(upper string, words []string) bool {
	for _, w := range words {
		if strings.Contains(upper, turkishFold.Replace(w)) {
			return true
		}
	}
	return false
}

func digitRatio(s string) float64 {
	runes := []rune(s)
	if len(runes) == 0 {
		return 0
	}
	digits := 0
	for _, r := range runes {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return float64(digits) / float64(len(runes))
}

func punctRatio(s string) float64 {
	runes := []rune(s)
	if len(runes) == 0 {
		return 0
	}
	punct := 0
	for _, r := range runes {
		switch r {
		case '.', ',', ':', ';', '/', '\\', '|', '*', '(', ')', '-', '_':
			punct++
		}
	}
	return float64(punct) / float64(len(runes))
}
