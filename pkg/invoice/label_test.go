package invoice

import "testing"

func block(text string, x, y, w, h float64) *SemanticBlock {
	return &SemanticBlock{
		ID:       "test",
		Children: []TextBlock{frag(text, x, y, w, h)},
	}
}

func labelOf(t *testing.T, b *SemanticBlock) BlockLabel {
	t.Helper()
	l := NewLabeler(nil)
	l.Label([]*SemanticBlock{b})
	return b.Label
}

func TestLabelSellerTopLeft(t *testing.T) {
	b := block("SATICI: ACME TEKSTİL SANAYİ VE TİCARET A.Ş.\nVERGİ DAİRESİ: KADIKÖY", 0.05, 0.05, 0.35, 0.08)
	if got := labelOf(t, b); got != LabelSeller {
		t.Fatalf("expected seller got %s", got)
	}
}

func TestLabelCargoVeto(t *testing.T) {
	// Carrier boxes carry strong corporate keywords but must never win the
	// seller label.
	b := block("GÖNDERİ TAŞIYAN: ARAS KARGO TİCARET A.Ş.", 0.05, 0.05, 0.35, 0.04)
	if got := labelOf(t, b); got == LabelSeller {
		t.Fatalf("cargo block labeled as seller")
	}
}

func TestLabelMetaTopRight(t *testing.T) {
	b := block("FATURA NO: GIB2025000000001\nDÜZENLEME TARİHİ: 15.03.2025", 0.55, 0.05, 0.40, 0.08)
	if got := labelOf(t, b); got != LabelMeta {
		t.Fatalf("expected meta got %s", got)
	}
}

func TestLabelTotalsBottomRight(t *testing.T) {
	b := block("ÖDENECEK TUTAR: 159,53 TL", 0.55, 0.80, 0.35, 0.04)
	if got := labelOf(t, b); got != LabelTotals {
		t.Fatalf("expected totals got %s", got)
	}
}

func TestLabelETTNOverride(t *testing.T) {
	b := block("ETTN: 550e8400-e29b-41d4-a716-446655440000", 0.10, 0.30, 0.60, 0.03)
	if got := labelOf(t, b); got != LabelETTN {
		t.Fatalf("expected ettn got %s", got)
	}
}

func TestLabelETTNOverrideSellerException(t *testing.T) {
	// A seller paragraph that happens to contain the tracking UUID keeps
	// its seller label; the UUID is recovered by the whole-document scan.
	b := block(
		"ACME TEKSTİL SANAYİ VE TİCARET A.Ş.\nVKN: 1234567890\nETTN: 550e8400-e29b-41d4-a716-446655440000",
		0.05, 0.05, 0.40, 0.12,
	)
	if got := labelOf(t, b); got != LabelSeller {
		t.Fatalf("expected seller (override exception) got %s", got)
	}
}

func TestLabelBuyerSaticiPenalty(t *testing.T) {
	// SATICI without ALICI disqualifies the buyer category even in the
	// buyer band.
	b := block("SATICI BİLGİLERİ", 0.05, 0.30, 0.30, 0.04)
	if got := labelOf(t, b); got == LabelBuyer {
		t.Fatalf("seller header labeled as buyer")
	}
}

func TestLabelBuyerSayin(t *testing.T) {
	b := block("SAYIN AHMET YILMAZ\nTESLİM ADRESİ: ATATÜRK MAH.", 0.05, 0.35, 0.30, 0.06)
	if got := labelOf(t, b); got != LabelBuyer {
		t.Fatalf("expected buyer got %s", got)
	}
}

func TestLabelNoiseTopBarcode(t *testing.T) {
	b := block("123456789012", 0.40, 0.02, 0.20, 0.02)
	if got := labelOf(t, b); got != LabelNoise {
		t.Fatalf("expected noise got %s", got)
	}
}

func TestLabelLowScoreStaysUnknown(t *testing.T) {
	b := block("ÜRÜN AÇIKLAMASI", 0.30, 0.50, 0.40, 0.03)
	if got := labelOf(t, b); got != LabelUnknown {
		t.Fatalf("expected unknown got %s", got)
	}
}
