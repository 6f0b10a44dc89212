package invoice

import (
	"strings"

	"github.com/google/uuid"
)

// ETTNFromText returns the first UUID-shaped substring in document order,
// canonicalized to lowercase. Returns "" when none is present.
func ETTNFromText(text string) string {
	for _, m := range uuidRe.FindAllString(text, -1) {
		if id, err := uuid.Parse(m); err == nil {
			return id.String()
		}
	}
	return ""
}

// ETTNFromFragments searches fragments sorted top to bottom. It anchors on
// the literal "ETTN" keyword first: the UUID may sit in the same fragment,
// in the next one, or be split across the two when OCR separates label and
// value onto different lines. If no keyword anchor yields a match, every
// fragment is scanned for a bare UUID.
func ETTNFromFragments(frags []TextBlock) string {
	sorted := sortByTop(frags)
	for i, f := range sorted {
		if !strings.Contains(Normalize(f.Text), "ETTN") {
			continue
		}
		if id := ETTNFromText(f.Text); id != "" {
			return id
		}
		if i+1 < len(sorted) {
			next := sorted[i+1]
			if id := ETTNFromText(next.Text); id != "" {
				return id
			}
			// Split-line recovery: the label fragment may end with the first
			// half of the UUID and the next fragment hold the rest.
			if id := ETTNFromText(f.Text + next.Text); id != "" {
				return id
			}
		}
	}
	for _, f := range sorted {
		if id := ETTNFromText(f.Text); id != "" {
			return id
		}
	}
	return ""
}
