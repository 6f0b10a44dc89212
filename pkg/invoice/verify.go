package invoice

import (
	"math"
	"strings"
)

// Verification is the result of checking the numeric total against the
// document's spelled-out amount line.
type Verification struct {
	IsMatch     bool    `json:"isMatch"`
	Confidence  float64 `json:"confidence"`
	Reason      string  `json:"reason"`
	Amount      float64 `json:"amount"`
	SpelledText string  `json:"spelledText,omitempty"`
}

const verifyMatchThreshold = 0.8

var (
	turkishUnits = []string{"", "BİR", "İKİ", "ÜÇ", "DÖRT", "BEŞ", "ALTI", "YEDİ", "SEKİZ", "DOKUZ"}
	turkishTens  = []string{"", "ON", "YİRMİ", "OTUZ", "KIRK", "ELLİ", "ALTMIŞ", "YETMİŞ", "SEKSEN", "DOKSAN"}
)

// VerifyAmountText locates the "YALNIZ" line in the document, spells the
// numeric amount in Turkish and fuzzy-compares the two via word-set Jaccard
// similarity. Both sides are normalized first so diacritic-folded OCR output
// still matches the properly spelled form.
func VerifyAmountText(amount float64, fullText string) Verification {
	spelled := SpellAmount(amount)
	line := yalnizLine(fullText)
	if line == "" {
		return Verification{
			IsMatch:    false,
			Confidence: 0,
			Reason:     "no Yalnız line",
			Amount:     amount,
		}
	}
	sim := jaccardWords(Normalize(spelled), Normalize(line))
	return Verification{
		IsMatch:     sim >= verifyMatchThreshold,
		Confidence:  sim,
		Reason:      "word-set similarity against Yalnız line",
		Amount:      amount,
		SpelledText: spelled,
	}
}

// yalnizLine returns the spelled-amount text: the remainder of the line
// after the first "YALNIZ", or the following line when the keyword stands
// alone.
func yalnizLine(fullText string) string {
	lines := strings.Split(fullText, "\n")
	for i, line := range lines {
		upper := Normalize(line)
		idx := strings.Index(upper, "YALNIZ")
		if idx < 0 {
			continue
		}
		rest := strings.Trim(upper[idx+len("YALNIZ"):], " :#*")
		if rest != "" {
			return rest
		}
		if i+1 < len(lines) {
			return strings.TrimSpace(lines[i+1])
		}
		return ""
	}
	return ""
}

// SpellAmount converts a monetary amount to Turkish words: the lira part
// followed by " TL", the kuruş part followed by " KURUŞ" only when nonzero.
func SpellAmount(amount float64) string {
	cents := int64(math.Round(math.Abs(amount) * 100))
	lira := cents / 100
	kurus := cents % 100
	if cents == 0 {
		return "SIFIR TL"
	}
	var b strings.Builder
	if lira > 0 {
		b.WriteString(spellInt(lira))
		b.WriteString(" TL")
	}
	if kurus > 0 {
		if lira > 0 {
			b.WriteString(" ")
		}
		b.WriteString(spellInt(kurus))
		b.WriteString(" KURUŞ")
	}
	return b.String()
}

// spellInt spells a positive integer up to the billions using standard
// Turkish short-scale rules ("BİR BİN" is written "BİN", likewise "YÜZ").
func spellInt(n int64) string {
	if n == 0 {
		return "SIFIR"
	}
	var parts []string
	appendScale := func(val int64, scale string) {
		if val == 0 {
			return
		}
		if val == 1 && scale == "BİN" {
			parts = append(parts, "BİN")
			return
		}
		group := spellBelowThousand(val)
		if scale != "" {
			group += " " + scale
		}
		parts = append(parts, group)
	}
	appendScale(n/1_000_000_000, "MİLYAR")
	appendScale((n/1_000_000)%1000, "MİLYON")
	appendScale((n/1000)%1000, "BİN")
	appendScale(n%1000, "")
	return strings.Join(parts, " ")
}

func spellBelowThousand(n int64) string {
	var parts []string
	if h := n / 100; h > 0 {
		if h > 1 {
			parts = append(parts, turkishUnits[h])
		}
		parts = append(parts, "YÜZ")
	}
	if t := (n / 10) % 10; t > 0 {
		parts = append(parts, turkishTens[t])
	}
	if u := n % 10; u > 0 {
		parts = append(parts, turkishUnits[u])
	}
	return strings.Join(parts, " ")
}

// jaccardWords computes word-set Jaccard similarity of two
// whitespace-tokenized strings.
func jaccardWords(a, b string) float64 {
	setA := wordSet(a)
	setB := wordSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	inter := 0
	for w := range setA {
		if setB[w] {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	return float64(inter) / float64(union)
}

func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(s) {
		set[w] = true
	}
	return set
}
