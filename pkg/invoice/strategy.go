package invoice

import "strings"

// Strategy is a brand-specific extraction rule set. CanHandle inspects the
// normalized document text; Extract may additionally use positioned
// fragments for coordinate fallbacks when they are available.
type Strategy interface {
	Name() string
	CanHandle(text string) bool
	Extract(text string, frags []TextBlock) *Invoice
}

// Canonical legal entity names forced for known aggregator platforms.
const (
	trendyolLegalName    = "DSM GRUP DANIŞMANLIK İLETİŞİM VE SATIŞ TİC.A.Ş."
	hepsiburadaLegalName = "D-MARKET ELEKTRONİK HİZMETLER VE TİC. A.Ş."
)

// SellerProfile couples a platform's detection keywords with its canonical
// legal name, resolving the platform-vs-marketplace ambiguity.
type SellerProfile struct {
	Key       string
	Keywords  []string
	LegalName string
}

// SellerProfiles is the static registry consulted by brand strategies.
var SellerProfiles = []SellerProfile{
	{Key: "D-MARKET", Keywords: []string{"D-MARKET", "HEPSIBURADA", "H BILISIM"}, LegalName: hepsiburadaLegalName},
	{Key: "DSM GRUP", Keywords: []string{"TRENDYOL", "DSM GRUP", "DSMGRUP"}, LegalName: trendyolLegalName},
}

// ProfileByKey looks up a registered seller profile.
func ProfileByKey(key string) *SellerProfile {
	for i := range SellerProfiles {
		if SellerProfiles[i].Key == key {
			return &SellerProfiles[i]
		}
	}
	return nil
}

func (p *SellerProfile) Matches(upperText string) bool {
	for _, kw := range p.Keywords {
		if strings.Contains(upperText, turkishFold.Replace(kw)) {
			return true
		}
	}
	return false
}

// GenericStrategy is the catch-all: whole-text regex extraction, then
// coordinate fallbacks per still-missing field when fragments exist.
// Supplier is never attempted via regex; names are too irregular, so it is
// left to the geometric pipeline or the coordinate fallback.
type GenericStrategy struct{}

func (GenericStrategy) Name() string            { return "generic" }
func (GenericStrategy) CanHandle(_ string) bool { return true }

func (GenericStrategy) Extract(text string, frags []TextBlock) *Invoice {
	inv := &Invoice{RawFragments: frags}
	inv.ETTN = ETTNFromText(text)
	inv.InvoiceNumber = InvoiceNumberFromText(text)
	inv.Date = DateFromText(text)
	if amt, ok := AmountFromText(text); ok {
		inv.TotalAmount = &amt
	}
	if len(frags) == 0 {
		return inv
	}
	if inv.ETTN == "" {
		inv.ETTN = ETTNFromFragments(frags)
	}
	if inv.Date == nil {
		inv.Date = DateFromFragments(frags)
	}
	if inv.TotalAmount == nil {
		if amt, ok := AmountNearBottom(frags); ok {
			inv.TotalAmount = &amt
		}
	}
	if inv.SupplierName == "" {
		inv.SupplierName = SupplierFromFragments(frags)
	}
	return inv
}

// TrendyolStrategy handles Trendyol platform invoices. The legal seller is
// always DSM Grup, so the supplier name is forced whenever the document
// mentions it.
type TrendyolStrategy struct{}

func (TrendyolStrategy) Name() string { return "trendyol" }

func (TrendyolStrategy) CanHandle(text string) bool {
	upper := Normalize(text)
	return containsAny(upper, []string{"TRENDYOL", "DSM GRUP", "DSMGRUP"})
}

func (TrendyolStrategy) Extract(text string, frags []TextBlock) *Invoice {
	inv := GenericStrategy{}.Extract(text, frags)
	if strings.Contains(Normalize(text), "DSM GRUP") {
		inv.SupplierName = trendyolLegalName
	}
	return inv
}

// HepsiburadaStrategy disambiguates platform sales (D-Market is the legal
// seller) from marketplace sales (a third-party merchant sells through the
// platform). The structural extractor decides: a detected supplier that is
// not D-Market itself means a marketplace transaction.
type HepsiburadaStrategy struct{}

func (HepsiburadaStrategy) Name() string { return "hepsiburada" }

func (HepsiburadaStrategy) CanHandle(text string) bool {
	upper := Normalize(text)
	return containsAny(upper, []string{"D-MARKET", "HEPSIBURADA", "H BILISIM"})
}

func (HepsiburadaStrategy) Extract(text string, frags []TextBlock) *Invoice {
	inv := GenericStrategy{}.Extract(text, frags)
	profile := ProfileByKey("D-MARKET")
	if profile == nil || !profile.Matches(Normalize(text)) {
		return inv
	}
	detected := SupplierExtractorV2{}.Extract(text)
	if detected != "" && !strings.Contains(Normalize(detected), "D-MARKET") {
		inv.SupplierName = detected
	} else {
		inv.SupplierName = profile.LegalName
	}
	return inv
}

// Resolver holds the ordered, immutable strategy list. First CanHandle
// match wins; Generic terminates the chain.
type Resolver struct {
	strategies []Strategy
}

func NewResolver() *Resolver {
	return &Resolver{strategies: []Strategy{
		TrendyolStrategy{},
		HepsiburadaStrategy{},
		GenericStrategy{},
	}}
}

// Resolve returns the first strategy claiming the text.
func (r *Resolver) Resolve(text string) Strategy {
	for _, s := range r.strategies {
		if s.CanHandle(text) {
			return s
		}
	}
	return GenericStrategy{}
}
