package invoice

import "testing"

func TestParseMoneyTurkishGrouping(t *testing.T) {
	amt, ok := ParseMoney("ÖDENECEK TUTAR: 1.234,56 TL")
	if !ok || amt != 1234.56 {
		t.Fatalf("expected 1234.56 got %v ok=%v", amt, ok)
	}
}

func TestParseMoneyLooseComma(t *testing.T) {
	amt, ok := ParseMoney("159,53")
	if !ok || amt != 159.53 {
		t.Fatalf("expected 159.53 got %v ok=%v", amt, ok)
	}
}

func TestParseMoneyDotDecimalFallback(t *testing.T) {
	amt, ok := ParseMoney("1 234.56")
	if !ok || amt != 1234.56 {
		t.Fatalf("expected 1234.56 got %v ok=%v", amt, ok)
	}
}

func TestParseMoneyNoMatch(t *testing.T) {
	if _, ok := ParseMoney("TOPLAM TUTAR YOK"); ok {
		t.Fatalf("expected no amount")
	}
}

func TestFormatMoney(t *testing.T) {
	if got := FormatMoney(1234.56); got != "1.234,56" {
		t.Fatalf("got %q", got)
	}
	if got := FormatMoney(7.5); got != "7,50" {
		t.Fatalf("got %q", got)
	}
	if got := FormatMoney(1000000); got != "1.000.000,00" {
		t.Fatalf("got %q", got)
	}
}

func TestAmountFromTextKeywordPriority(t *testing.T) {
	// ÖDENECEK TUTAR outranks the plain TOPLAM lines even though its value
	// is not the largest.
	text := "ARA TOPLAM: 500,00\nTOPLAM: 9.999,00\nÖDENECEK TUTAR: 659,53"
	amt, ok := AmountFromText(text)
	if !ok || amt != 659.53 {
		t.Fatalf("expected 659.53 got %v ok=%v", amt, ok)
	}
}

func TestAmountFromTextTieBreakLargest(t *testing.T) {
	text := "TOPLAM: 100,00\nTOPLAM: 250,00"
	amt, ok := AmountFromText(text)
	if !ok || amt != 250 {
		t.Fatalf("expected 250 got %v ok=%v", amt, ok)
	}
}

func TestAmountFromTextNoKeyword(t *testing.T) {
	if _, ok := AmountFromText("FATURA NO: ABC123\n159,53"); ok {
		t.Fatalf("amount without keyword line must not match")
	}
}

func TestAmountNearBottomIgnoresTop(t *testing.T) {
	frags := []TextBlock{
		frag("9.999,99", 0.10, 0.20, 0.20, 0.02),
		frag("ÖDENECEK TUTAR: 159,53", 0.55, 0.80, 0.35, 0.02),
	}
	amt, ok := AmountNearBottom(frags)
	if !ok || amt != 159.53 {
		t.Fatalf("expected 159.53 got %v ok=%v", amt, ok)
	}
}

func TestAmountNearBottomLargestFallback(t *testing.T) {
	// No keyword in the bottom region; the largest parseable number wins.
	frags := []TextBlock{
		frag("KDV 120,00", 0.55, 0.75, 0.30, 0.02),
		frag("842,40", 0.55, 0.80, 0.30, 0.02),
	}
	amt, ok := AmountNearBottom(frags)
	if !ok || amt != 842.40 {
		t.Fatalf("expected 842.40 got %v ok=%v", amt, ok)
	}
}

func TestAmountNearBottomEmptyRegion(t *testing.T) {
	frags := []TextBlock{frag("TOPLAM 1,00", 0.1, 0.1, 0.2, 0.02)}
	if _, ok := AmountNearBottom(frags); ok {
		t.Fatalf("expected no amount when bottom region is empty")
	}
}

func TestParseMoneyLostThousandsDot(t *testing.T) {
	// OCR dropped the thousands dot; the grouped pattern must not capture
	// "234,56" mid-number and shadow the loose comma fallback.
	v, ok := ParseMoney("TOPLAM: 1234,56")
	if !ok || v != 1234.56 {
		t.Fatalf("got %v ok=%v", v, ok)
	}
}
