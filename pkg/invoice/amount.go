package invoice

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Monetary literal patterns, tried in order: standard Turkish grouping
// (dot thousands, comma decimal), loose comma-decimal, then a dot-decimal
// fallback for foreign-format or OCR-mangled input.
var (
	moneyTurkishRe = regexp.MustCompile(`\d{1,3}(?:\.\d{3})*,\d{2}`)
	moneyCommaRe   = regexp.MustCompile(`\d+,\d{2}`)
	moneyDotRe     = regexp.MustCompile(`\d{1,3}(?:[ \x{00a0}]\d{3})*\.\d{2}$`)
)

// amountKeywords is the priority ladder for total-amount lines. Folded
// spellings are listed with the same priority as their Turkish originals.
var amountKeywords = []struct {
	word     string
	priority int
}{
	{"ÖDENECEK TUTAR", 100}, {"ODENECEK TUTAR", 100},
	{"GENEL TOPLAM", 90},
	{"VERGİLER DAHİL TOPLAM", 85}, {"VERGILER DAHIL TOPLAM", 85},
	{"VERGİLİ MAL BEDELİ", 80}, {"VERGILI MAL BEDELI", 80},
	{"ÖDENECEK", 75}, {"ODENECEK", 75},
	{"TOPLAM TUTAR", 60},
	{"TOPLAM", 50},
}

// ParseMoney extracts and parses the first monetary literal in s.
// Thousands separators are stripped and the decimal separator converted
// before parsing; a failed parse yields ok=false, never an error.
func ParseMoney(s string) (float64, bool) {
	// The grouped pattern must not start mid-number: on an OCR-lost
	// thousands dot ("1234,56") it would capture "234,56" and shadow the
	// loose comma fallback that exists for exactly that input.
	if loc := moneyTurkishRe.FindStringIndex(s); loc != nil {
		if loc[0] == 0 || s[loc[0]-1] < '0' || s[loc[0]-1] > '9' {
			return parseMoneyLiteral(s[loc[0]:loc[1]], ".", ",")
		}
	}
	if m := moneyCommaRe.FindString(s); m != "" {
		return parseMoneyLiteral(m, "", ",")
	}
	if m := moneyDotRe.FindString(strings.TrimSpace(s)); m != "" {
		m = strings.ReplaceAll(m, " ", "")
		m = strings.ReplaceAll(m, " ", "")
		return parseMoneyLiteral(m, "", ".")
	}
	return 0, false
}

func parseMoneyLiteral(m, thousands, decimal string) (float64, bool) {
	if thousands != "" {
		m = strings.ReplaceAll(m, thousands, "")
	}
	if decimal != "." {
		m = strings.ReplaceAll(m, decimal, ".")
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return math.Round(v*100) / 100, true
}

// FormatMoney renders an amount in Turkish format (1.234,56).
func FormatMoney(v float64) string {
	cents := int64(math.Round(v * 100))
	neg := cents < 0
	if neg {
		cents = -cents
	}
	intPart := strconv.FormatInt(cents/100, 10)
	var grouped []string
	for len(intPart) > 3 {
		grouped = append([]string{intPart[len(intPart)-3:]}, grouped...)
		intPart = intPart[:len(intPart)-3]
	}
	grouped = append([]string{intPart}, grouped...)
	out := strings.Join(grouped, ".") + "," + padCents(cents%100)
	if neg {
		out = "-" + out
	}
	return out
}

func padCents(c int64) string {
	if c < 10 {
		return "0" + strconv.FormatInt(c, 10)
	}
	return strconv.FormatInt(c, 10)
}

// AmountFromText scans lines for the keyword ladder and returns the best
// candidate: highest keyword priority wins, ties broken by the largest
// amount. At most one keyword counts per line (first match wins).
// The documented ladder is kept as-is: an OCR-duplicated keyword on a
// subtotal line can outrank the true total, and no proximity-to-"TL"
// disambiguation is applied.
func AmountFromText(text string) (float64, bool) {
	type candidate struct {
		amount   float64
		priority int
	}
	var cands []candidate
	for _, line := range strings.Split(text, "\n") {
		upper := Normalize(line)
		for _, kw := range amountKeywords {
			if !strings.Contains(upper, kw.word) {
				continue
			}
			if amt, ok := ParseMoney(line); ok {
				cands = append(cands, candidate{amount: amt, priority: kw.priority})
			}
			break
		}
	}
	if len(cands) == 0 {
		return 0, false
	}
	best := cands[0]
	for _, c := range cands[1:] {
		if c.priority > best.priority || (c.priority == best.priority && c.amount > best.amount) {
			best = c
		}
	}
	return best.amount, true
}

// totalsRegionMinY restricts the coordinate fallback to the bottom of the
// page where totals tables live.
const totalsRegionMinY = 0.6

// AmountNearBottom is the coordinate-based fallback: it considers only
// fragments in the bottom region, first via the keyword ladder over their
// reconstructed lines, then by simply taking the largest parseable number
// in that region.
func AmountNearBottom(frags []TextBlock) (float64, bool) {
	var region []TextBlock
	for _, f := range frags {
		if f.Frame.Y > totalsRegionMinY {
			region = append(region, f)
		}
	}
	if len(region) == 0 {
		return 0, false
	}
	lines := make([]string, 0, len(region))
	for _, f := range sortByTop(region) {
		lines = append(lines, f.Text)
	}
	if amt, ok := AmountFromText(strings.Join(lines, "\n")); ok {
		return amt, true
	}
	best, found := 0.0, false
	for _, f := range region {
		if amt, ok := ParseMoney(f.Text); ok && amt > best {
			best, found = amt, true
		}
	}
	return best, found
}
