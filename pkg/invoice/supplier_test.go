package invoice

import "testing"

func TestSupplierFromSellerBlockLegalSuffix(t *testing.T) {
	block := "ACME TEKSTİL SANAYİ VE TİCARET A.Ş.\nATATÜRK MAH. CUMHURİYET CAD. NO:5\nVERGİ DAİRESİ: KADIKÖY"
	got := SupplierFromSellerBlock(block)
	if got != "ACME TEKSTİL SANAYİ VE TİCARET A.Ş." {
		t.Fatalf("got %q", got)
	}
}

func TestSupplierFromSellerBlockAddressStops(t *testing.T) {
	// No legal suffix; the address line terminates accumulation and
	// everything after it is ignored.
	block := "MEGA MARKET\nATATÜRK MAH. CUMHURİYET CAD.\nBAŞKA ŞİRKET LTD."
	got := SupplierFromSellerBlock(block)
	if got != "MEGA MARKET" {
		t.Fatalf("got %q", got)
	}
}

func TestSupplierFromSellerBlockSkipsNoiseLabels(t *testing.T) {
	block := "VERGİ DAİRESİ: KADIKÖY\nBETA GIDA LTD. ŞTİ."
	got := SupplierFromSellerBlock(block)
	if got != "BETA GIDA LTD." {
		t.Fatalf("got %q", got)
	}
}

func TestSupplierFromSellerBlockMultiLineAccumulation(t *testing.T) {
	// Name wraps over two lines before the suffix line.
	block := "KUZEY YILDIZI MOBİLYA\nSANAYİ VE TİCARET LTD. ŞTİ."
	got := SupplierFromSellerBlock(block)
	if got != "KUZEY YILDIZI MOBİLYA SANAYİ VE TİCARET LTD." {
		t.Fatalf("got %q", got)
	}
}

func TestSupplierFromSellerBlockFirstLineFallback(t *testing.T) {
	got := SupplierFromSellerBlock("X\n\n")
	if got != "X" {
		t.Fatalf("got %q", got)
	}
}

func TestSupplierNearTaxIDSuffixWins(t *testing.T) {
	text := "SAYIN AHMET YILMAZ\nBETA GIDA SANAYİ LTD. ŞTİ.\nVKN: 1234567890"
	got := SupplierNearTaxID(text)
	if got != "BETA GIDA SANAYİ LTD. ŞTİ." {
		t.Fatalf("got %q", got)
	}
}

func TestSupplierNearTaxIDSkipsBuyerLines(t *testing.T) {
	text := "GAMMA BİLİŞİM HİZMETLERİ\nSAYIN MEHMET DEMİR\nVKN: 1234567890"
	got := SupplierNearTaxID(text)
	if got != "GAMMA BİLİŞİM HİZMETLERİ" {
		t.Fatalf("got %q", got)
	}
}

func TestSupplierNearTaxIDNoAnchor(t *testing.T) {
	if got := SupplierNearTaxID("FATURA NO: ABC\nTOPLAM: 1,00"); got != "" {
		t.Fatalf("expected empty got %q", got)
	}
}

func TestSupplierFromFragmentsTopLeftOnly(t *testing.T) {
	frags := []TextBlock{
		frag("ACME TEKSTİL A.Ş.", 0.05, 0.05, 0.35, 0.03),
		frag("FATURA NO: X", 0.60, 0.05, 0.30, 0.03),
		frag("TOPLAM: 5,00", 0.60, 0.85, 0.30, 0.03),
	}
	got := SupplierFromFragments(frags)
	if got != "ACME TEKSTİL A.Ş." {
		t.Fatalf("got %q", got)
	}
}

func TestSupplierFromSellerBlockSuffixKeepsDiacritics(t *testing.T) {
	// " AŞ" must never match inside ordinary words once diacritics are
	// folded away; "ASANSÖR" and "ASYA" are name parts, not legal suffixes.
	block := "MARMARA ASANSÖR SANAYİ VE TİCARET LTD. ŞTİ.\nVKN: 1234567890"
	if got := SupplierFromSellerBlock(block); got != "MARMARA ASANSÖR SANAYİ VE TİCARET LTD." {
		t.Fatalf("got %q", got)
	}
	block = "DOĞU ASYA GIDA PAZARLAMA\nVKN: 1234567890"
	if got := SupplierFromSellerBlock(block); got != "DOĞU ASYA GIDA PAZARLAMA" {
		t.Fatalf("got %q", got)
	}
}

func TestSupplierFromSellerBlockTruncatesColonLine(t *testing.T) {
	// Trailing garbage after the suffix is dropped even on lines where
	// normalization would change the rune count (colon spacing).
	block := "ÜNVAN: BETA GIDA SANAYİ A.Ş. KADIKÖY İSTANBUL"
	if got := SupplierFromSellerBlock(block); got != "ÜNVAN: BETA GIDA SANAYİ A.Ş." {
		t.Fatalf("got %q", got)
	}
}
