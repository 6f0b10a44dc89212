package invoice

import "sort"

// Parser is the top-level entry point: it normalizes the flattened text,
// dispatches to a brand strategy, then fills any still-empty fields from
// the geometric pipeline. Brand overrides therefore always win over
// geometric extraction.
type Parser struct {
	resolver *Resolver
	spatial  *SpatialParser
}

// NewParser builds a parser with the default strategy chain. The tracer is
// optional; nil disables tracing.
func NewParser(tracer Tracer) *Parser {
	return &Parser{
		resolver: NewResolver(),
		spatial:  NewSpatialParser(tracer),
	}
}

// Parse extracts a structured invoice from positioned text fragments.
// Fragments are sorted into reading order first; the same parser instance
// is safe for concurrent use since no state outlives a call.
func (p *Parser) Parse(frags []TextBlock) *Invoice {
	sorted := make([]TextBlock, len(frags))
	copy(sorted, frags)
	// Sort by mid-y first, then left-to-right within each line band. A
	// single comparator mixing the pairwise same-line test with mid-y is
	// not a strict weak ordering and gives inconsistent reading order for
	// chains of near-aligned fragments.
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Frame.MidY() < sorted[j].Frame.MidY()
	})
	for start := 0; start < len(sorted); {
		end := start + 1
		anchor := sorted[start].Frame.MidY()
		for end < len(sorted) && sorted[end].Frame.MidY()-anchor <= sameLineThreshold {
			end++
		}
		band := sorted[start:end]
		sort.SliceStable(band, func(i, j int) bool {
			return band[i].Frame.X < band[j].Frame.X
		})
		start = end
	}

	text := NormalizeLines(documentText(sorted))
	strategy := p.resolver.Resolve(text)
	inv := strategy.Extract(text, sorted)

	if len(sorted) > 0 {
		geo := p.spatial.Parse(sorted)
		if inv.ETTN == "" {
			inv.ETTN = geo.ETTN
		}
		if inv.InvoiceNumber == "" {
			inv.InvoiceNumber = geo.InvoiceNumber
		}
		if inv.Date == nil {
			inv.Date = geo.Date
		}
		if inv.TotalAmount == nil {
			inv.TotalAmount = geo.TotalAmount
		}
		if inv.SupplierName == "" {
			inv.SupplierName = geo.SupplierName
		}
		if inv.BuyerName == "" {
			inv.BuyerName = geo.BuyerName
		}
		if inv.Verification == nil {
			inv.Verification = geo.Verification
		}
	}

	if inv.TotalAmount != nil && inv.Verification == nil {
		v := VerifyAmountText(*inv.TotalAmount, text)
		inv.Verification = &v
	}
	inv.RawFragments = sorted
	return inv
}

// ParseText extracts from flat text only, with no geometric fallbacks.
// Used for pre-extracted PDF text where positions are unavailable.
func (p *Parser) ParseText(raw string) *Invoice {
	text := NormalizeLines(raw)
	strategy := p.resolver.Resolve(text)
	inv := strategy.Extract(text, nil)
	if inv.SupplierName == "" {
		inv.SupplierName = SupplierNearTaxID(text)
	}
	if inv.TotalAmount != nil && inv.Verification == nil {
		v := VerifyAmountText(*inv.TotalAmount, text)
		inv.Verification = &v
	}
	return inv
}
