package invoice

import "testing"

func TestResolverOrder(t *testing.T) {
	r := NewResolver()
	cases := []struct {
		text string
		want string
	}{
		{"TRENDYOL SİPARİŞ NO: 123", "trendyol"},
		{"DSM GRUP DANIŞMANLIK", "trendyol"},
		{"HEPSIBURADA FATURA", "hepsiburada"},
		{"D-MARKET ELEKTRONİK", "hepsiburada"},
		{"ACME TEKSTİL A.Ş.", "generic"},
	}
	for _, c := range cases {
		if got := r.Resolve(Normalize(c.text)).Name(); got != c.want {
			t.Fatalf("Resolve(%q) = %s want %s", c.text, got, c.want)
		}
	}
}

func TestTrendyolBeforeHepsiburada(t *testing.T) {
	// A document mentioning both brands resolves to the earlier strategy.
	r := NewResolver()
	got := r.Resolve(Normalize("TRENDYOL HEPSIBURADA")).Name()
	if got != "trendyol" {
		t.Fatalf("got %s", got)
	}
}

func TestTrendyolForcesSupplier(t *testing.T) {
	text := NormalizeLines("TRENDYOL\nDSM GRUP DANIŞMANLIK İLETİŞİM VE SATIŞ TİC.A.Ş.\nÖDENECEK TUTAR: 845,90")
	inv := TrendyolStrategy{}.Extract(text, nil)
	if inv.SupplierName != trendyolLegalName {
		t.Fatalf("got %q", inv.SupplierName)
	}
	if inv.TotalAmount == nil || *inv.TotalAmount != 845.90 {
		t.Fatalf("amount not inherited from generic: %v", inv.TotalAmount)
	}
}

func TestHepsiburadaPlatformSale(t *testing.T) {
	// No third-party merchant detected: the platform itself is the seller.
	text := NormalizeLines("HEPSIBURADA FATURA\nD-MARKET ELEKTRONİK HİZMETLER VE TİC. A.Ş.\nVKN: 0123456789")
	inv := HepsiburadaStrategy{}.Extract(text, nil)
	if inv.SupplierName != hepsiburadaLegalName {
		t.Fatalf("got %q", inv.SupplierName)
	}
}

func TestHepsiburadaMarketplaceSale(t *testing.T) {
	// A distinct merchant name means a third-party sale; the detected name
	// wins over the platform's legal name.
	text := NormalizeLines("HEPSIBURADA FATURA\nKAHVE DÜNYASI PAZARLAMA A.Ş. VKN: 1234567890")
	inv := HepsiburadaStrategy{}.Extract(text, nil)
	if inv.SupplierName == hepsiburadaLegalName || inv.SupplierName == "" {
		t.Fatalf("expected detected merchant, got %q", inv.SupplierName)
	}
}

func TestGenericCoordinateFallbacks(t *testing.T) {
	frags := []TextBlock{
		frag("ACME TEKSTİL A.Ş.", 0.05, 0.05, 0.35, 0.03),
		frag("ETTN: "+testUUID, 0.10, 0.30, 0.60, 0.03),
		frag("842,40", 0.60, 0.85, 0.25, 0.03),
	}
	inv := GenericStrategy{}.Extract("", frags)
	if inv.ETTN != testUUID {
		t.Fatalf("ettn fallback failed: %q", inv.ETTN)
	}
	if inv.TotalAmount == nil || *inv.TotalAmount != 842.40 {
		t.Fatalf("amount fallback failed: %v", inv.TotalAmount)
	}
	if inv.SupplierName == "" {
		t.Fatalf("supplier fallback failed")
	}
}
