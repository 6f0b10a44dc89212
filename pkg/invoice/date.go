package invoice

import (
	"regexp"
	"strings"
	"time"
)

var (
	dateRe = regexp.MustCompile(`\d{2}[./-]\d{2}[./-]\d{4}`)

	// e-Archive invoice numbers carry a three-letter prefix and the issue
	// year; the general pattern is a looser fallback.
	invoiceNoArchiveRe = regexp.MustCompile(`[A-Z]{3}202[0-5]\d{9}`)
	invoiceNoGeneralRe = regexp.MustCompile(`[A-Z0-9]{2,3}\d{7,13}`)
)

// DateFromText extracts the first dd.mm.yyyy-shaped date, accepting ./-
// separators. Unparseable dates yield nil; the issue date is never
// defaulted to today.
func DateFromText(text string) *time.Time {
	m := dateRe.FindString(text)
	if m == "" {
		return nil
	}
	m = strings.ReplaceAll(m, "/", ".")
	m = strings.ReplaceAll(m, "-", ".")
	t, err := time.Parse("02.01.2006", m)
	if err != nil {
		return nil
	}
	return &t
}

// DateFromFragments scans fragments in top-to-bottom order.
func DateFromFragments(frags []TextBlock) *time.Time {
	for _, f := range sortByTop(frags) {
		if d := DateFromText(f.Text); d != nil {
			return d
		}
	}
	return nil
}

// InvoiceNumberFromText extracts the invoice number, preferring the strict
// e-Archive pattern. Candidates that look like phone or national-ID numbers
// are rejected.
func InvoiceNumberFromText(text string) string {
	upper := Normalize(text)
	if m := invoiceNoArchiveRe.FindString(upper); m != "" {
		return m
	}
	for _, m := range invoiceNoGeneralRe.FindAllString(upper, -1) {
		if looksLikePhoneOrID(m) {
			continue
		}
		return m
	}
	return ""
}

// looksLikePhoneOrID rejects pure-digit strings of phone/TCKN length and
// zero-prefixed long digit runs.
func looksLikePhoneOrID(s string) bool {
	digits := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if digits == len(s) && (len(s) == 10 || len(s) == 11) {
		return true
	}
	return strings.HasPrefix(s, "0") && digits >= 10
}
