package invoice

import "testing"

func TestSpellAmount(t *testing.T) {
	cases := []struct {
		amount float64
		want   string
	}{
		{159.53, "YÜZ ELLİ DOKUZ TL ELLİ ÜÇ KURUŞ"},
		{0, "SIFIR TL"},
		{1000, "BİN TL"},
		{2500, "İKİ BİN BEŞ YÜZ TL"},
		{1000000, "BİR MİLYON TL"},
		{0.75, "YETMİŞ BEŞ KURUŞ"},
		{21.05, "YİRMİ BİR TL BEŞ KURUŞ"},
	}
	for _, c := range cases {
		if got := SpellAmount(c.amount); got != c.want {
			t.Fatalf("SpellAmount(%v) = %q want %q", c.amount, got, c.want)
		}
	}
}

func TestVerifyAmountTextMatch(t *testing.T) {
	text := "ÖDENECEK TUTAR: 159,53\nYALNIZ: YÜZ ELLİ DOKUZ TL ELLİ ÜÇ KURUŞ"
	v := VerifyAmountText(159.53, text)
	if !v.IsMatch {
		t.Fatalf("expected match, confidence=%v", v.Confidence)
	}
	if v.Confidence < 0.8 {
		t.Fatalf("confidence too low: %v", v.Confidence)
	}
}

func TestVerifyAmountTextFoldedOCR(t *testing.T) {
	// OCR output loses diacritics; folded words must still match the
	// properly spelled form.
	text := "YALNIZ: YUZ ELLI DOKUZ TL ELLI UC KURUS"
	v := VerifyAmountText(159.53, text)
	if !v.IsMatch {
		t.Fatalf("folded OCR line should match, confidence=%v", v.Confidence)
	}
}

func TestVerifyAmountTextKeywordOnOwnLine(t *testing.T) {
	text := "YALNIZ\nİKİ BİN BEŞ YÜZ TL"
	v := VerifyAmountText(2500, text)
	if !v.IsMatch {
		t.Fatalf("next-line spelled amount should match, confidence=%v", v.Confidence)
	}
}

func TestVerifyAmountTextNoYalnizLine(t *testing.T) {
	v := VerifyAmountText(100, "TOPLAM: 100,00")
	if v.IsMatch || v.Confidence != 0 {
		t.Fatalf("expected zero-confidence non-match, got %+v", v)
	}
	if v.Reason != "no Yalnız line" {
		t.Fatalf("unexpected reason %q", v.Reason)
	}
}

func TestVerifyAmountTextMismatch(t *testing.T) {
	text := "YALNIZ: YÜZ ELLİ DOKUZ TL ELLİ ÜÇ KURUŞ"
	v := VerifyAmountText(875.20, text)
	if v.IsMatch {
		t.Fatalf("mismatched amount verified, confidence=%v", v.Confidence)
	}
}
