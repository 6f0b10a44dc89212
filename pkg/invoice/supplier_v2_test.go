package invoice

import "testing"

func TestSupplierV2IndividualSeller(t *testing.T) {
	text := "SATICI: AHMET YILMAZ TCKN: 12345678901 ADRES: ATATÜRK MAH."
	got := SupplierExtractorV2{}.Extract(text)
	if got != "AHMET YILMAZ" {
		t.Fatalf("got %q", got)
	}
}

func TestSupplierV2IndividualRejectsCorporate(t *testing.T) {
	// TCKN present but the preceding span is a company, not a person; the
	// corporate pass must produce the answer instead.
	text := "BETA GIDA SANAYİ VE TİCARET LTD. ŞTİ. TCKN: 12345678901"
	got := SupplierExtractorV2{}.Extract(text)
	if got == "" || got == "BETA" {
		t.Fatalf("got %q", got)
	}
	if Normalize(got) == Normalize("AHMET YILMAZ") {
		t.Fatalf("unexpected individual result")
	}
}

func TestSupplierV2Corporate(t *testing.T) {
	text := "FATURA\nBETA GIDA SANAYİ VE TİCARET LTD. ŞTİ. ADRES: KADIKÖY VKN: 1234567890"
	got := SupplierExtractorV2{}.Extract(text)
	if got != "BETA GIDA SANAYİ VE TİCARET LTD. ŞTİ." {
		t.Fatalf("got %q", got)
	}
}

func TestSupplierV2RejectsCargo(t *testing.T) {
	text := "GÖNDERİ TAŞIYAN: ARAS KARGO A.Ş."
	if got := (SupplierExtractorV2{}).Extract(text); got != "" {
		t.Fatalf("cargo company accepted: %q", got)
	}
}

func TestSupplierV2LineScanFallback(t *testing.T) {
	// No legal suffix anywhere; the scan walks up from the VKN line.
	text := "GAMMA BİLİŞİM HİZMETLERİ\nVKN: 1234567890"
	got := SupplierExtractorV2{}.Extract(text)
	if got != "GAMMA BİLİŞİM HİZMETLERİ" {
		t.Fatalf("got %q", got)
	}
}

func TestSupplierV2QualityGate(t *testing.T) {
	if passesQualityGate("X") {
		t.Fatalf("too-short candidate passed")
	}
	if passesQualityGate("ACME TEL: 0212 555 44 33") {
		t.Fatalf("contact garbage passed")
	}
	if passesQualityGate("WWW.ACME.COM TİCARET") {
		t.Fatalf(".COM garbage passed")
	}
	if !passesQualityGate("BETA GIDA SANAYİ LTD.") {
		t.Fatalf("clean candidate rejected")
	}
}

func TestSupplierV2CleanupStripsNoise(t *testing.T) {
	got := cleanupCandidate("  12. BETA GIDA LTD. ADRES: KADIKÖY")
	if got != "BETA GIDA LTD." {
		t.Fatalf("got %q", got)
	}
}
