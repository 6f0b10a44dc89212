package invoice

import (
	"regexp"
	"strings"
)

// minLabelScore is the confidence floor: a block whose best category score
// does not exceed it stays unlabeled.
const minLabelScore = 30.0

var uuidRe = regexp.MustCompile(`(?i)[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)

type weightedKeyword struct {
	word   string
	weight float64
}

// Keyword tables are matched against Turkish-uppercased block text. Folded
// ASCII variants are listed alongside the proper spellings because OCR loses
// diacritics unpredictably; variant pairs share one keyword group so a
// fragment matching both spellings is only counted once.
var sellerKeywords = []weightedKeyword{
	{"SATICI", 50},
	{"VKN", 30},
	{"MERSİS", 25}, {"MERSIS", 25},
	{"TİCARET", 20}, {"TICARET", 20},
	{"LTD", 20},
	{"A.Ş", 20}, {"A.S", 20},
	{"AŞ", 15},
	{"SANAYİ", 15}, {"SANAYI", 15},
	{"VERGİ DAİRESİ", 15}, {"VERGI DAIRESI", 15}, {"V.D.", 15},
}

// sellerKeywordGroups drives the distinct-keyword bonus and the ETTN
// override exception; each entry lists the accepted spellings of one group.
var sellerKeywordGroups = [][]string{
	{"VKN"},
	{"LTD"},
	{"A.Ş", "A.S"},
	{"AŞ"},
	{"TİCARET", "TICARET"},
	{"SANAYİ", "SANAYI"},
	{"MERSİS", "MERSIS"},
}

var buyerKeywords = []weightedKeyword{
	{"SAYIN", 40},
	{"ALICI", 35},
	{"MÜŞTERİ", 30}, {"MUSTERI", 30},
	{"TESLİM ADRESİ", 25}, {"TESLIM ADRESI", 25},
	{"TESLİMAT ADRESİ", 20}, {"TESLIMAT ADRESI", 20},
}

var metaKeywords = []weightedKeyword{
	{"FATURA NO", 40},
	{"BELGE NO", 35},
	{"DÜZENLEME TARİHİ", 30}, {"DUZENLEME TARIHI", 30},
	{"TARİH", 20}, {"TARIH", 20},
	{"SAAT", 15},
	{"SENARYO", 15},
}

var totalsKeywords = []weightedKeyword{
	{"GENEL TOPLAM", 40},
	{"ÖDENECEK TUTAR", 40}, {"ODENECEK TUTAR", 40},
	{"TOPLAM", 25},
	{"KDV", 20},
	{"MATRAH", 20},
	{"ARA TOPLAM", 15},
	{"VERGİ", 15}, {"VERGI", 15},
}

var noiseKeywords = []weightedKeyword{
	{"IBAN", 50},
	{"BANKA", 30},
	{"QR", 25},
	{"KARE KOD", 25},
	{"E-İMZA", 20}, {"E-IMZA", 20},
}

// A carrier line can never be the seller, no matter how strong the corporate
// keywords on it are.
var cargoKeywords = []string{
	"GÖNDERİ TAŞIYAN", "GONDERI TASIYAN",
	"KARGO",
	"LOJİSTİK", "LOJISTIK",
	"NAKLİYE", "NAKLIYE",
	"DAĞITIM", "DAGITIM",
	"TAŞIMACILIK", "TASIMACILIK",
	"KURYE",
}

// Labeler assigns a semantic role to each clustered block using weighted
// position and keyword signals.
type Labeler struct {
	tracer Tracer
}

func NewLabeler(tracer Tracer) *Labeler {
	if tracer == nil {
		tracer = NopTracer
	}
	return &Labeler{tracer: tracer}
}

// Label populates each block's Label. Blocks are returned in input order;
// the input slice is updated in place for convenience.
func (l *Labeler) Label(blocks []*SemanticBlock) []*SemanticBlock {
	for _, b := range blocks {
		b.Label = l.labelOne(b)
	}
	return blocks
}

func (l *Labeler) labelOne(b *SemanticBlock) BlockLabel {
	text := b.Text()
	upper := Normalize(text)
	rawUpper := strings.ToUpper(text)

	// ETTN override: a UUID-shaped substring wins outright, unless the block
	// reads like a full seller paragraph (the tracking number is then buried
	// inside it and recovered later by the whole-document scan).
	if uuidRe.MatchString(text) {
		if !(b.LineCount() >= 3 && countSellerGroups(rawUpper, upper) >= 2) {
			l.tracer.Trace("label", "ettn override", map[string]any{"block": b.ID})
			return LabelETTN
		}
		l.tracer.Trace("label", "ettn override skipped (seller block)", map[string]any{"block": b.ID})
	}

	frame := b.Frame()
	midX, midY := frame.MidX(), frame.MidY()

	seller := l.sellerScore(rawUpper, upper, midX, midY)
	buyer := buyerScore(rawUpper, upper, midX, midY)
	meta := metaScore(rawUpper, upper, midX, midY)
	totals := totalsScore(rawUpper, upper, midX, midY)
	noise := noiseScore(rawUpper, upper, text, midY)

	l.tracer.Trace("label", "scores", map[string]any{
		"block": b.ID, "seller": seller, "buyer": buyer,
		"meta": meta, "totals": totals, "noise": noise,
	})

	// Clamp before comparison: a negative score (cargo veto, SATICI penalty)
	// simply disqualifies that category rather than promoting another.
	best, bestScore := LabelUnknown, minLabelScore
	for _, c := range []struct {
		label BlockLabel
		score float64
	}{
		{LabelSeller, clampZero(seller)},
		{LabelBuyer, clampZero(buyer)},
		{LabelMeta, clampZero(meta)},
		{LabelTotals, clampZero(totals)},
		{LabelNoise, clampZero(noise)},
	} {
		if c.score > bestScore {
			best, bestScore = c.label, c.score
		}
	}
	return best
}

func (l *Labeler) sellerScore(rawUpper, folded string, midX, midY float64) float64 {
	for _, kw := range cargoKeywords {
		if containsEither(rawUpper, folded, kw) {
			return -1000
		}
	}
	score := 0.0
	if midY < 0.45 {
		if midX < 0.50 {
			score += 40
		} else {
			score += 20
		}
	}
	score += keywordScore(rawUpper, folded, sellerKeywords)

	switch groups := countSellerGroups(rawUpper, folded); {
	case groups >= 3:
		score += 50 // overrides weak position
	case groups == 2:
		score += 25
	}

	// A strong buyer signal argues hard against seller.
	if bs := keywordScore(rawUpper, folded, buyerKeywords); bs > 0 {
		score -= 1.5 * bs
	}
	return score
}

func buyerScore(rawUpper, folded string, midX, midY float64) float64 {
	score := 0.0
	if midX < 0.50 && midY >= 0.20 && midY < 0.60 {
		score += 25
	}
	score += keywordScore(rawUpper, folded, buyerKeywords)
	if containsEither(rawUpper, folded, "SATICI") && !containsEither(rawUpper, folded, "ALICI") {
		score -= 100
	}
	return score
}

func metaScore(rawUpper, folded string, midX, midY float64) float64 {
	score := 0.0
	if midX > 0.50 {
		if midY < 0.45 {
			score += 40
		} else {
			score += 15
		}
	}
	return score + keywordScore(rawUpper, folded, metaKeywords)
}

func totalsScore(rawUpper, folded string, midX, midY float64) float64 {
	score := 0.0
	if midY > 0.60 {
		if midX > 0.50 {
			score += 45
		} else {
			score += 20
		}
	}
	return score + keywordScore(rawUpper, folded, totalsKeywords)
}

func noiseScore(rawUpper, folded, text string, midY float64) float64 {
	score := keywordScore(rawUpper, folded, noiseKeywords)
	// Barcode / tracking number heuristic: a long pure-digit run pinned to
	// the very top of the page.
	trimmed := strings.TrimSpace(text)
	if midY < 0.10 && len(trimmed) >= 9 && isAllDigits(trimmed) {
		score += 100
	}
	return score
}

// keywordScore sums the weights of matched keywords, counting each variant
// pair at most once (the proper spelling and its folded form share weight).
func keywordScore(rawUpper, folded string, table []weightedKeyword) float64 {
	score := 0.0
	matched := map[float64]map[string]bool{}
	for _, kw := range table {
		if !strings.Contains(rawUpper, kw.word) && !strings.Contains(folded, kw.word) {
			continue
		}
		key := turkishFold.Replace(kw.word)
		if matched[kw.weight] == nil {
			matched[kw.weight] = map[string]bool{}
		}
		if matched[kw.weight][key] {
			continue
		}
		matched[kw.weight][key] = true
		score += kw.weight
	}
	return score
}

func countSellerGroups(rawUpper, folded string) int {
	n := 0
	for _, group := range sellerKeywordGroups {
		for _, w := range group {
			if containsEither(rawUpper, folded, w) {
				n++
				break
			}
		}
	}
	return n
}

// containsEither matches the keyword exactly as spelled against both the raw
// uppercased and the folded text. Keywords are never auto-folded here: the
// tables list folded variants explicitly where a folded match is safe
// (folding "AŞ" to "AS" would match inside ordinary words).
func containsEither(rawUpper, folded, kw string) bool {
	return strings.Contains(rawUpper, kw) || strings.Contains(folded, kw)
}

func clampZero(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
